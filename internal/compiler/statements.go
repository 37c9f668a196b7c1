package compiler

import (
	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/loxerrors"
	"github.com/leonardinius/golox/internal/token"
	"github.com/leonardinius/golox/internal/value"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(bytecode.OP_NIL)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(KindFunction)
	c.defineVariable(global)
}

// function compiles one function body: a fresh FunctionCompiler frame,
// parameters as locals, the block body, and finally emits CLOSURE in the
// *enclosing* frame (spec.md §4.2 "Functions").
func (c *Compiler) function(kind FunctionKind) {
	name := c.heap.InternString(c.previous.Lexeme)
	fn := c.heap.NewFunction(name, 0)
	fc := newFunctionCompiler(c.fn, fn, kind)
	c.fn = fc
	c.beginScope()

	c.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.fn.function.Arity++
			if c.fn.function.Arity > 255 {
				c.errorAtCurrent(loxerrors.ErrTooManyParameters)
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	c.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	c.block()

	compiled := c.endFunctionCompiler()

	constIdx := c.makeConstant(value.ObjValue(compiled))
	c.emitOpByte(bytecode.OP_CLOSURE, constIdx)
	for _, uv := range fc.upvalues {
		b := byte(0)
		if uv.isLocal {
			b = 1
		}
		c.emitByte(b)
		c.emitByte(uv.index)
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENTIFIER, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className.Lexeme)
	c.declareVariable(className)

	c.emitOpByte(bytecode.OP_CLASS, nameConstant)
	c.defineVariable(nameConstant)

	classCompiler := &ClassCompiler{enclosing: c.class}
	c.class = classCompiler

	if c.match(token.LESS) {
		c.consume(token.IDENTIFIER, loxerrors.ErrSuperclassMustBeIdentifier.Error())
		c.variable(false)
		if className.Lexeme == c.previous.Lexeme {
			c.error(loxerrors.ErrClassInheritFromItself)
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(bytecode.OP_INHERIT)
		classCompiler.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	c.emitOp(bytecode.OP_POP)

	if classCompiler.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENTIFIER, "Expect method name.")
	name := c.previous.Lexeme
	nameConstant := c.identifierConstant(name)

	kind := KindMethod
	if name == "init" {
		kind = KindInitializer
	}
	c.function(kind)
	c.emitOpByte(bytecode.OP_METHOD, nameConstant)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(bytecode.OP_PRINT)
}

func (c *Compiler) returnStatement() {
	if c.fn.kind == KindScript {
		c.error(loxerrors.ErrReturnOutsideFunction)
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.fn.kind == KindInitializer {
		c.error(loxerrors.ErrReturnValueFromInitializer)
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(bytecode.OP_RETURN)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitOp(bytecode.OP_POP)
	c.statement()

	elseJump := c.emitJump(bytecode.OP_JUMP)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OP_POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk().Len()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitOp(bytecode.OP_POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OP_POP)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// No initializer.
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().Len()
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OP_JUMP_IF_FALSE)
		c.emitOp(bytecode.OP_POP)
	}

	if !c.match(token.RIGHT_PAREN) {
		bodyJump := c.emitJump(bytecode.OP_JUMP)
		incrementStart := c.chunk().Len()
		c.expression()
		c.emitOp(bytecode.OP_POP)
		c.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OP_POP)
	}
	c.endScope()
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(bytecode.OP_POP)
}
