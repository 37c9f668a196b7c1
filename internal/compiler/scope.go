package compiler

import "github.com/leonardinius/golox/internal/bytecode"

func (c *Compiler) beginScope() {
	c.fn.scopeDepth++
}

// endScope pops every local declared in the scope just closed, emitting
// CLOSE_UPVALUE for ones closures captured and POP for the rest, in
// descending declaration order (spec.md §4.2).
func (c *Compiler) endScope() {
	c.fn.scopeDepth--
	locals := c.fn.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fn.scopeDepth {
		if locals[len(locals)-1].captured {
			c.emitOp(bytecode.OP_CLOSE_UPVALUE)
		} else {
			c.emitOp(bytecode.OP_POP)
		}
		locals = locals[:len(locals)-1]
	}
	c.fn.locals = locals
}
