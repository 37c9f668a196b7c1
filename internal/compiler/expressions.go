package compiler

import (
	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/loxerrors"
	"github.com/leonardinius/golox/internal/scanner"
	"github.com/leonardinius/golox/internal/token"
	"github.com/leonardinius/golox/internal/value"
)

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt engine: parse one prefix operand, then keep
// folding in infix operators whose precedence is at least prec. canAssign
// is threaded through per spec.md §4.2 so `=` is only legal directly after
// an assignable prefix target, not buried inside a higher-precedence
// subexpression.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Type).prefix
	if prefix == nil {
		c.error(loxerrors.ErrExpectedExpression)
		return
	}

	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= ruleFor(c.current.Type).precedence {
		c.advance()
		infix := ruleFor(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error(loxerrors.ErrInvalidAssignmentTarget)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.BANG:
		c.emitOp(bytecode.OP_NOT)
	case token.MINUS:
		c.emitOp(bytecode.OP_NEGATE)
	}
}

func (c *Compiler) binary(_ bool) {
	opType := c.previous.Type
	rule := ruleFor(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.BANG_EQUAL:
		c.emitOps(bytecode.OP_EQUAL, bytecode.OP_NOT)
	case token.EQUAL_EQUAL:
		c.emitOp(bytecode.OP_EQUAL)
	case token.GREATER:
		c.emitOp(bytecode.OP_GREATER)
	case token.GREATER_EQUAL:
		c.emitOps(bytecode.OP_LESS, bytecode.OP_NOT)
	case token.LESS:
		c.emitOp(bytecode.OP_LESS)
	case token.LESS_EQUAL:
		c.emitOps(bytecode.OP_GREATER, bytecode.OP_NOT)
	case token.PLUS:
		c.emitOp(bytecode.OP_ADD)
	case token.MINUS:
		c.emitOp(bytecode.OP_SUBTRACT)
	case token.STAR:
		c.emitOp(bytecode.OP_MULTIPLY)
	case token.SLASH:
		c.emitOp(bytecode.OP_DIVIDE)
	}
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitOp(bytecode.OP_FALSE)
	case token.TRUE:
		c.emitOp(bytecode.OP_TRUE)
	case token.NIL:
		c.emitOp(bytecode.OP_NIL)
	}
}

func (c *Compiler) number(_ bool) {
	n, err := scanner.ParseNumberLiteral(c.previous.Lexeme)
	if err != nil {
		c.error(err)
		return
	}
	c.emitConstant(value.NumberValue(n))
}

// string_ strips the surrounding quotes; escape sequences are not
// processed, matching spec.md §4.1.
func (c *Compiler) string_(_ bool) {
	raw := c.previous.Lexeme
	s := c.heap.InternString(raw[1 : len(raw)-1])
	c.emitConstant(value.ObjValue(s))
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) this_(_ bool) {
	if c.class == nil {
		c.error(loxerrors.ErrThisOutsideMethod)
		return
	}
	c.namedVariable(c.previous, false)
}

func (c *Compiler) super_(_ bool) {
	if c.class == nil {
		c.error(loxerrors.ErrSuperOutsideClass)
	} else if !c.class.hasSuperclass {
		c.error(loxerrors.ErrSuperWithoutSuperclass)
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable(syntheticToken(token.THIS, "this", c.previous.Line), false)
	if c.match(token.LEFT_PAREN) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken(token.IDENTIFIER, "super", c.previous.Line), false)
		c.emitOpByte(bytecode.OP_SUPER_INVOKE, name)
		c.emitByte(argCount)
		return
	}
	c.namedVariable(syntheticToken(token.IDENTIFIER, "super", c.previous.Line), false)
	c.emitOpByte(bytecode.OP_GET_SUPER, name)
}

func syntheticToken(t token.TokenType, lexeme string, line int) token.Token {
	return token.NewToken(t, lexeme, line)
}

func (c *Compiler) and_(_ bool) {
	endJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitOp(bytecode.OP_POP)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(_ bool) {
	elseJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	endJump := c.emitJump(bytecode.OP_JUMP)

	c.patchJump(elseJump)
	c.emitOp(bytecode.OP_POP)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitOpByte(bytecode.OP_CALL, argCount)
}

func (c *Compiler) argumentList() byte {
	count := 0
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error(loxerrors.ErrTooManyArguments)
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(count)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitOpByte(bytecode.OP_SET_PROPERTY, name)
	case c.match(token.LEFT_PAREN):
		argCount := c.argumentList()
		c.emitOpByte(bytecode.OP_INVOKE, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(bytecode.OP_GET_PROPERTY, name)
	}
}
