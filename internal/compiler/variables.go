package compiler

import (
	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/loxerrors"
	"github.com/leonardinius/golox/internal/token"
	"github.com/leonardinius/golox/internal/value"
)

// identifierConstant interns name as a string and adds it to the current
// chunk's constant pool, deduplicating on Go string equality so repeated
// references to the same global/property name share one pool slot (spec.md
// §4.2 "compiler may dedup strings (and should for identifiers)").
func (c *Compiler) identifierConstant(name string) byte {
	s := c.heap.InternString(name)
	constants := c.chunk().Constants
	for i := 0; i < len(constants) && i <= 0xff; i++ {
		if constants[i].IsObj() && constants[i].AsObj() == value.Object(s) {
			return byte(i)
		}
	}
	return c.makeConstant(value.ObjValue(s))
}

// declareVariable registers name as a new local in the current scope
// (no-op at global scope, where DEFINE_GLOBAL handles it instead). Two
// locals with the same name in the same scope is a compile error.
func (c *Compiler) declareVariable(name token.Token) {
	if c.fn.scopeDepth == 0 {
		return
	}
	for i := len(c.fn.locals) - 1; i >= 0; i-- {
		l := c.fn.locals[i]
		if l.depth != uninitialized && l.depth < c.fn.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			c.error(loxerrors.ErrDuplicateVariable)
		}
	}
	c.addLocal(name.Lexeme)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fn.locals) >= maxLocals {
		c.error(loxerrors.ErrTooManyLocals)
		return
	}
	c.fn.locals = append(c.fn.locals, localVar{name: name, depth: uninitialized})
}

// parseVariable consumes an identifier, declares it if local, and returns
// the global constant index to hand to defineVariable (0 when local, and
// therefore unused).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENTIFIER, errMsg)
	c.declareVariable(c.previous)
	if c.fn.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous.Lexeme)
}

// markInitialized flips the most recently declared local from uninitialized
// to usable. No-op at global scope.
func (c *Compiler) markInitialized() {
	if c.fn.scopeDepth == 0 {
		return
	}
	c.fn.locals[len(c.fn.locals)-1].depth = c.fn.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fn.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OP_DEFINE_GLOBAL, global)
}

// resolveUpvalue implements spec.md §4.2's outward walk: find name as a
// local in some enclosing frame, mark it captured, and thread an upvalue
// through every frame between that one and fc. addUpvalue's bool result
// means "table full", not "not found" — a full table is reported as
// ErrTooManyUpvalues rather than silently falling through to global
// resolution.
func resolveUpvalue(c *Compiler, fc *FunctionCompiler, name string) (int, bool) {
	if fc.enclosing == nil {
		return 0, false
	}
	if slot, depth, found := fc.enclosing.resolveLocal(name); found {
		if depth == uninitialized {
			return 0, false
		}
		fc.enclosing.locals[slot].captured = true
		idx, ok := fc.addUpvalue(byte(slot), true)
		if !ok {
			c.error(loxerrors.ErrTooManyUpvalues)
			return 0, false
		}
		return idx, true
	}
	if idx, found := resolveUpvalue(c, fc.enclosing, name); found {
		idx2, ok := fc.addUpvalue(byte(idx), false)
		if !ok {
			c.error(loxerrors.ErrTooManyUpvalues)
			return 0, false
		}
		return idx2, true
	}
	return 0, false
}

// namedVariable emits the get/set instruction pair for a bare identifier,
// resolving it local -> upvalue -> global in that order (spec.md §4.2).
func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	var arg byte

	if slot, depth, found := c.fn.resolveLocal(name.Lexeme); found {
		if depth == uninitialized {
			c.error(loxerrors.ErrReadLocalInOwnInitializer)
		}
		getOp, setOp, arg = bytecode.OP_GET_LOCAL, bytecode.OP_SET_LOCAL, byte(slot)
	} else if idx, found := resolveUpvalue(c, c.fn, name.Lexeme); found {
		getOp, setOp, arg = bytecode.OP_GET_UPVALUE, bytecode.OP_SET_UPVALUE, byte(idx)
	} else {
		arg = c.identifierConstant(name.Lexeme)
		getOp, setOp = bytecode.OP_GET_GLOBAL, bytecode.OP_SET_GLOBAL
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, arg)
	} else {
		c.emitOpByte(getOp, arg)
	}
}
