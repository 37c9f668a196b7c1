// Package compiler implements the single-pass Pratt compiler: it consumes
// tokens directly from the scanner and emits bytecode into a Chunk, with no
// intermediate AST. It is also the language-server's compile entry point.
package compiler

import (
	"errors"

	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/gc"
	"github.com/leonardinius/golox/internal/loxerrors"
	"github.com/leonardinius/golox/internal/scanner"
	"github.com/leonardinius/golox/internal/token"
	"github.com/leonardinius/golox/internal/value"
)

// Compiler holds all state for one compilation: the token cursor, the
// active FunctionCompiler/ClassCompiler chains, and accumulated diagnostics.
type Compiler struct {
	scanner scanner.Scanner

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errs      []error
	diags     []Diagnostic

	fn    *FunctionCompiler
	class *ClassCompiler

	heap *gc.Heap
}

// Compile compiles source into a root script Function. The returned error is
// non-nil iff at least one diagnostic was reported, in which case the
// Function must not be executed (spec.md §4.2 "Errors").
func Compile(source string, heap *gc.Heap) (*gc.Function, []Diagnostic, error) {
	script := heap.NewFunction(nil, 0)
	c := &Compiler{
		scanner: scanner.NewScanner(source),
		heap:    heap,
	}
	c.fn = newFunctionCompiler(nil, script, KindScript)
	heap.SetRootMarker(c)

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")
	fn := c.endFunctionCompiler()

	if c.hadError {
		return nil, c.diags, errors.Join(c.errs...)
	}
	return fn, c.diags, nil
}

// MarkRoots implements gc.RootMarker: while compiling, every in-progress
// Function (and its constants-so-far) in the active FunctionCompiler chain
// is a GC root (spec.md §4.6 root v).
func (c *Compiler) MarkRoots(gcc *gc.Collector) {
	for fc := c.fn; fc != nil; fc = fc.enclosing {
		gcc.MarkObject(fc.function)
	}
}

// --- token cursor -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Next()
		if c.current.Type != token.ERROR {
			break
		}
		c.errorAtCurrent(errors.New(c.current.Lexeme))
	}
}

func (c *Compiler) check(t token.TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(errors.New(message))
}

// --- error reporting ---------------------------------------------------

func (c *Compiler) errorAt(tok token.Token, err error) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := "at '" + tok.Lexeme + "'"
	if tok.Type == token.EOF {
		where = "at end"
	} else if tok.Type == token.ERROR {
		where = ""
	}

	c.errs = append(c.errs, loxerrors.NewCompileError(tok.Line, where, err))
	c.diags = append(c.diags, Diagnostic{
		Line:     tok.Line,
		Column:   nil,
		Message:  err.Error(),
		Severity: SeverityError,
	})
}

func (c *Compiler) errorAtCurrent(err error) {
	c.errorAt(c.current, err)
}

func (c *Compiler) error(err error) {
	c.errorAt(c.previous, err)
}

// synchronize discards tokens until a likely statement boundary, matching
// the teacher's parser.synchronize shape, re-targeted to the pull scanner.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (c *Compiler) chunk() *bytecode.Chunk {
	return c.fn.function.Chunk
}

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.OpCode) {
	c.chunk().WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitOps(op1, op2 bytecode.OpCode) {
	c.emitOp(op1)
	c.emitOp(op2)
}

func (c *Compiler) emitOpByte(op bytecode.OpCode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

// emitJump writes op followed by a two-byte placeholder operand and returns
// its offset, to be filled in later by patchJump.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk().Len() - 2
}

// patchJump overwrites the jump operand at offset with the distance from
// just past the operand to the current code position.
func (c *Compiler) patchJump(offset int) {
	jump := c.chunk().Len() - offset - 2
	if jump > 0xffff {
		c.error(loxerrors.ErrJumpTooLarge)
		return
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

// emitLoop writes OP_LOOP with a backward-jump operand to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OP_LOOP)
	offset := c.chunk().Len() - loopStart + 2
	if offset > 0xffff {
		c.error(loxerrors.ErrLoopTooLarge)
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitReturn() {
	if c.fn.kind == KindInitializer {
		c.emitOpByte(bytecode.OP_GET_LOCAL, 0)
	} else {
		c.emitOp(bytecode.OP_NIL)
	}
	c.emitOp(bytecode.OP_RETURN)
}

// makeConstant appends v to the current chunk's constant pool, erroring
// once the pool exceeds a byte-sized index (identifierConstant dedups
// string constants before ever reaching here).
func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > 0xff {
		c.error(loxerrors.ErrTooManyConstants)
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.chunk().WriteConstant(v, c.previous.Line)
}

// endFunctionCompiler appends the sentinel return, pops the current
// FunctionCompiler, and resumes the enclosing one.
func (c *Compiler) endFunctionCompiler() *gc.Function {
	c.emitReturn()
	fn := c.fn.function
	c.fn = c.fn.enclosing
	return fn
}
