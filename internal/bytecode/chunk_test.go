package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/value"
)

func TestChunkWriteAndLineAt(t *testing.T) {
	t.Parallel()

	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OP_NIL, 1)
	c.WriteOp(bytecode.OP_TRUE, 1)
	c.WriteOp(bytecode.OP_POP, 2)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.LineAt(0))
	assert.Equal(t, 1, c.LineAt(1))
	assert.Equal(t, 2, c.LineAt(2))
}

func TestChunkAddConstant(t *testing.T) {
	t.Parallel()

	c := bytecode.NewChunk()
	idx1 := c.AddConstant(value.NumberValue(1))
	idx2 := c.AddConstant(value.NumberValue(2))

	assert.Equal(t, 0, idx1)
	assert.Equal(t, 1, idx2)
	assert.Equal(t, []value.Value{value.NumberValue(1), value.NumberValue(2)}, c.Constants)
}

func TestChunkWriteConstantShort(t *testing.T) {
	t.Parallel()

	c := bytecode.NewChunk()
	c.WriteConstant(value.NumberValue(42), 1)

	assert.Equal(t, []byte{byte(bytecode.OP_CONSTANT), 0}, c.Code)
}

func TestChunkWriteConstantLong(t *testing.T) {
	t.Parallel()

	c := bytecode.NewChunk()
	for i := 0; i < 257; i++ {
		c.WriteConstant(value.NumberValue(float64(i)), 1)
	}

	// The first 256 constants (indices 0..255) fit in OP_CONSTANT's 1-byte
	// operand; the 257th (index 256) needs OP_CONSTANT_LONG.
	lastOp := bytecode.OpCode(c.Code[len(c.Code)-4])
	assert.Equal(t, bytecode.OP_CONSTANT_LONG, lastOp)
	idx := int(c.Code[len(c.Code)-3]) | int(c.Code[len(c.Code)-2])<<8 | int(c.Code[len(c.Code)-1])<<16
	assert.Equal(t, 256, idx)
}
