package compiler

import "github.com/leonardinius/golox/internal/token"

// Precedence orders operators ascending, lowest-binds-loosest, matching
// spec.md's table exactly: assignment binds loosest, primary tightest.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the Pratt dispatch table, keyed by token kind, the classic
// prefix/infix/precedence triple this style of parser is built around.
var rules [token.NUM_TYPES]parseRule

func init() {
	rules[token.LEFT_PAREN] = parseRule{(*Compiler).grouping, (*Compiler).call, PrecCall}
	rules[token.DOT] = parseRule{nil, (*Compiler).dot, PrecCall}
	rules[token.MINUS] = parseRule{(*Compiler).unary, (*Compiler).binary, PrecTerm}
	rules[token.PLUS] = parseRule{nil, (*Compiler).binary, PrecTerm}
	rules[token.SLASH] = parseRule{nil, (*Compiler).binary, PrecFactor}
	rules[token.STAR] = parseRule{nil, (*Compiler).binary, PrecFactor}
	rules[token.BANG] = parseRule{(*Compiler).unary, nil, PrecNone}
	rules[token.BANG_EQUAL] = parseRule{nil, (*Compiler).binary, PrecEquality}
	rules[token.EQUAL_EQUAL] = parseRule{nil, (*Compiler).binary, PrecEquality}
	rules[token.GREATER] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[token.GREATER_EQUAL] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[token.LESS] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[token.LESS_EQUAL] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[token.IDENTIFIER] = parseRule{(*Compiler).variable, nil, PrecNone}
	rules[token.STRING] = parseRule{(*Compiler).string_, nil, PrecNone}
	rules[token.NUMBER] = parseRule{(*Compiler).number, nil, PrecNone}
	rules[token.AND] = parseRule{nil, (*Compiler).and_, PrecAnd}
	rules[token.OR] = parseRule{nil, (*Compiler).or_, PrecOr}
	rules[token.FALSE] = parseRule{(*Compiler).literal, nil, PrecNone}
	rules[token.TRUE] = parseRule{(*Compiler).literal, nil, PrecNone}
	rules[token.NIL] = parseRule{(*Compiler).literal, nil, PrecNone}
	rules[token.THIS] = parseRule{(*Compiler).this_, nil, PrecNone}
	rules[token.SUPER] = parseRule{(*Compiler).super_, nil, PrecNone}
}

func ruleFor(t token.TokenType) *parseRule {
	return &rules[t]
}
