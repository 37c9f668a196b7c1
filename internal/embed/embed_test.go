package embed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leonardinius/golox/internal/embed"
)

func TestRunEmitsPrintFragments(t *testing.T) {
	t.Parallel()

	var fragments []string
	ok := embed.Run([]byte(`print "hello"; print 1 + 2;`), func(b []byte) {
		fragments = append(fragments, string(b))
	})

	assert.True(t, ok)
	assert.Equal(t, []string{"hello\n", "3\n"}, fragments)
}

func TestRunEmitsErrorOnFailure(t *testing.T) {
	t.Parallel()

	var fragments []string
	ok := embed.Run([]byte(`print undefined_thing;`), func(b []byte) {
		fragments = append(fragments, string(b))
	})

	assert.False(t, ok)
	require := assert.New(t)
	require.NotEmpty(fragments)
	require.Contains(fragments[len(fragments)-1], "Undefined variable")
}
