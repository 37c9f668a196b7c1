// Package bytecode defines the compiled instruction format: the Chunk
// (code bytes, constant pool, line map) and the OpCode vocabulary the
// compiler emits and the VM dispatches.
package bytecode

import "github.com/leonardinius/golox/internal/value"

// lineRun run-length-encodes a span of consecutive bytecode offsets that
// share a source line, so a 1000-instruction loop body compiled from one
// source line costs one run entry instead of 1000.
type lineRun struct {
	line  int
	count int
}

// Chunk is an append-only unit of compiled bytecode.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun
}

// NewChunk returns an empty Chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends a raw byte tagged with the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].line == line {
		c.lines[n-1].count++
		return
	}
	c.lines = append(c.lines, lineRun{line: line, count: 1})
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// LineAt returns the source line the instruction at offset was compiled
// from.
func (c *Chunk) LineAt(offset int) int {
	remaining := offset
	for _, run := range c.lines {
		if remaining < run.count {
			return run.line
		}
		remaining -= run.count
	}
	if len(c.lines) == 0 {
		return 0
	}
	return c.lines[len(c.lines)-1].line
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// WriteConstant appends v to the constant pool and emits the instruction
// that loads it: OP_CONSTANT with a 1-byte index while the pool still fits
// in a byte, OP_CONSTANT_LONG with a 3-byte little-endian index once it
// doesn't (spec.md §4.3's CONSTANT_LONG open question, resolved in favor of
// supporting it).
func (c *Chunk) WriteConstant(v value.Value, line int) {
	idx := c.AddConstant(v)
	if idx <= 0xff {
		c.WriteOp(OP_CONSTANT, line)
		c.Write(byte(idx), line)
		return
	}
	c.WriteOp(OP_CONSTANT_LONG, line)
	c.Write(byte(idx), line)
	c.Write(byte(idx>>8), line)
	c.Write(byte(idx>>16), line)
}

// Len returns the number of bytes of code emitted so far.
func (c *Chunk) Len() int {
	return len(c.Code)
}
