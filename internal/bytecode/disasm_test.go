package bytecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/value"
)

func TestDisassembleSimpleAndConstant(t *testing.T) {
	t.Parallel()

	c := bytecode.NewChunk()
	c.WriteConstant(value.NumberValue(1.2), 123)
	c.WriteOp(bytecode.OP_RETURN, 123)

	var b strings.Builder
	c.Disassemble(&b, "test chunk")

	out := b.String()
	assert.Contains(t, out, "== test chunk ==")
	assert.Contains(t, out, "OP_CONSTANT")
	assert.Contains(t, out, "'1.2'")
	assert.Contains(t, out, "OP_RETURN")
}

func TestDisassembleJump(t *testing.T) {
	t.Parallel()

	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OP_JUMP_IF_FALSE, 1)
	c.Write(0, 1)
	c.Write(5, 1)
	c.WriteOp(bytecode.OP_POP, 1)

	var b strings.Builder
	c.Disassemble(&b, "jump")

	assert.Contains(t, b.String(), "OP_JUMP_IF_FALSE")
}
