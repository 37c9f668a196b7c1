package bytecode

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable listing of every instruction in c to
// w, prefixed with name. Used by the VM's debug-trace mode and by tests that
// pin down exact encoding.
func (c *Chunk) Disassemble(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.DisassembleInstruction(w, offset)
	}
}

// DisassembleInstruction writes the instruction at offset and returns the
// offset of the next instruction.
func (c *Chunk) DisassembleInstruction(w io.Writer, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	line := c.LineAt(offset)
	if offset > 0 && line == c.LineAt(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OP_CONSTANT:
		return c.constantInstruction(w, op, offset)
	case OP_CONSTANT_LONG:
		return c.constantLongInstruction(w, op, offset)
	case OP_NIL, OP_TRUE, OP_FALSE, OP_POP,
		OP_EQUAL, OP_GREATER, OP_LESS,
		OP_ADD, OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE, OP_NOT, OP_NEGATE,
		OP_PRINT, OP_CLOSE_UPVALUE, OP_RETURN, OP_INHERIT:
		return c.simpleInstruction(w, op, offset)
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE,
		OP_CALL:
		return c.byteInstruction(w, op, offset)
	case OP_GET_GLOBAL, OP_DEFINE_GLOBAL, OP_SET_GLOBAL,
		OP_GET_PROPERTY, OP_SET_PROPERTY, OP_GET_SUPER,
		OP_CLASS, OP_METHOD:
		return c.constantInstruction(w, op, offset)
	case OP_JUMP, OP_JUMP_IF_FALSE:
		return c.jumpInstruction(w, op, offset, 1)
	case OP_LOOP:
		return c.jumpInstruction(w, op, offset, -1)
	case OP_INVOKE, OP_SUPER_INVOKE:
		return c.invokeInstruction(w, op, offset)
	case OP_CLOSURE:
		return c.closureInstruction(w, offset)
	default:
		fmt.Fprintf(w, "Unknown opcode %d\n", op)
		return offset + 1
	}
}

func (c *Chunk) simpleInstruction(w io.Writer, op OpCode, offset int) int {
	fmt.Fprintf(w, "%s\n", op)
	return offset + 1
}

func (c *Chunk) byteInstruction(w io.Writer, op OpCode, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func (c *Chunk) jumpInstruction(w io.Writer, op OpCode, offset int, sign int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func (c *Chunk) constantInstruction(w io.Writer, op OpCode, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, c.Constants[idx].String())
	return offset + 2
}

func (c *Chunk) constantLongInstruction(w io.Writer, op OpCode, offset int) int {
	idx := int(c.Code[offset+1]) | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])<<16
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, c.Constants[idx].String())
	return offset + 4
}

func (c *Chunk) invokeInstruction(w io.Writer, op OpCode, offset int) int {
	idx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, c.Constants[idx].String())
	return offset + 3
}

func (c *Chunk) closureInstruction(w io.Writer, offset int) int {
	start := offset
	offset++
	idx := c.Code[offset]
	offset++
	fmt.Fprintf(w, "%-16s %4d '%s'\n", OP_CLOSURE, idx, c.Constants[idx].String())

	if fn, ok := c.Constants[idx].AsObj().(interface{ NumUpvalues() int }); ok {
		for i := 0; i < fn.NumUpvalues(); i++ {
			isLocal := c.Code[offset]
			index := c.Code[offset+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(w, "%04d      |                     %s %d\n", start, kind, index)
			offset += 2
		}
	}
	return offset
}
