package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardinius/golox/internal/compiler"
	"github.com/leonardinius/golox/internal/gc"
)

func compile(t *testing.T, source string) (*gc.Function, error) {
	t.Helper()
	heap := gc.NewHeap(false)
	fn, _, err := compiler.Compile(source, heap)
	return fn, err
}

func TestCompileValidPrograms(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"arithmetic", "print 1 + 2 * 3;"},
		{"var and print", `var a = "hi"; print a;`},
		{"function", "fun add(a, b) { return a + b; } print add(1, 2);"},
		{"closure", "fun make() { var x = 0; fun inc() { x = x + 1; return x; } return inc; }"},
		{"class", "class A { m() { return 1; } } print A().m();"},
		{"inheritance", "class A { m() {} } class B < A { m() { super.m(); } }"},
		{"for loop", "for (var i = 0; i < 10; i = i + 1) print i;"},
		{"while loop", "var i = 0; while (i < 10) i = i + 1;"},
		{"logical", "print true and false or true;"},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fn, err := compile(t, tc.source)
			require.NoError(t, err)
			require.NotNil(t, fn)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"unexpected char", "#;", "Unexpected character."},
		{"unterminated string", `"abc`, "Unterminated string."},
		{"missing semicolon", "print 1", "Expect ';' after value."},
		{"invalid assignment target", "1 = 2;", "Invalid assignment target."},
		{"duplicate local", "{ var a = 1; var a = 2; }", "Already a variable with this name in this scope."},
		{"read local in own initializer", "{ var a = a; }", "Can't read local variable in its own initializer."},
		{"return outside function", "return 1;", "Can't return from top-level code."},
		{"return value from initializer", "class A { init() { return 1; } }", "Can't return a value from an initializer."},
		{"this outside method", "print this;", "Can't use 'this' outside of a class."},
		{"super outside class", "print super.m();", "Can't use 'super' outside of a class."},
		{"super without superclass", "class A { m() { super.m(); } }", "Can't use 'super' in a class with no superclass."},
		{"class inherits itself", "class A < A {}", "A class can't inherit from itself."},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := compile(t, tc.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestTooManyLocalsBoundary(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	// Slot 0 of every function is reserved, so 255 declared locals fill all
	// 256 local slots; the 256th declared local is the 257th slot.
	b.WriteString("{\n")
	for i := 0; i < 255; i++ {
		b.WriteString("var a")
		writeInt(&b, i)
		b.WriteString(" = 0;\n")
	}
	b.WriteString("}\n")

	_, err := compile(t, b.String())
	require.NoError(t, err, "256 local slots must compile cleanly")

	b.Reset()
	b.WriteString("{\n")
	for i := 0; i < 256; i++ {
		b.WriteString("var a")
		writeInt(&b, i)
		b.WriteString(" = 0;\n")
	}
	b.WriteString("}\n")

	_, err = compile(t, b.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many local variables in function.")
}

func TestTooManyArgumentsBoundary(t *testing.T) {
	t.Parallel()

	ok := "fun f() {} f(" + repeatArgs(255) + ");"
	_, err := compile(t, ok)
	require.NoError(t, err, "255 arguments must compile cleanly")

	tooMany := "fun f() {} f(" + repeatArgs(256) + ");"
	_, err = compile(t, tooMany)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't have more than 255 arguments.")
}

func repeatArgs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("1")
	}
	return b.String()
}

func writeInt(b *strings.Builder, n int) {
	if n == 0 {
		b.WriteByte('0')
		return
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	b.Write(digits)
}
