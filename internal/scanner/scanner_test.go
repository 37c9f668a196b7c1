package scanner_test

import (
	"testing"

	"github.com/leonardinius/golox/internal/scanner"
	"github.com/leonardinius/golox/internal/token"
	"github.com/stretchr/testify/assert"
)

func scanAll(t *testing.T, input string) []token.Token {
	t.Helper()
	s := scanner.NewScanner(input)
	var tokens []token.Token
	for {
		tok := s.Next()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF || tok.Type == token.ERROR {
			return tokens
		}
	}
}

func TestScanTokens(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name     string
		input    string
		expected []token.Token
	}{
		{"empty", "", []token.Token{{Type: token.EOF, Line: 1}}},
		{
			"syntax error",
			"#",
			[]token.Token{{Type: token.ERROR, Lexeme: "Unexpected character.", Line: 1}},
		},
		{
			"basic punctuation",
			"(){},*+-;.",
			[]token.Token{
				{Type: token.LEFT_PAREN, Lexeme: "(", Line: 1},
				{Type: token.RIGHT_PAREN, Lexeme: ")", Line: 1},
				{Type: token.LEFT_BRACE, Lexeme: "{", Line: 1},
				{Type: token.RIGHT_BRACE, Lexeme: "}", Line: 1},
				{Type: token.COMMA, Lexeme: ",", Line: 1},
				{Type: token.STAR, Lexeme: "*", Line: 1},
				{Type: token.PLUS, Lexeme: "+", Line: 1},
				{Type: token.MINUS, Lexeme: "-", Line: 1},
				{Type: token.SEMICOLON, Lexeme: ";", Line: 1},
				{Type: token.DOT, Lexeme: ".", Line: 1},
				{Type: token.EOF, Line: 1},
			},
		},
		{
			"one and two char operators",
			"! != = == < <= > >=",
			[]token.Token{
				{Type: token.BANG, Lexeme: "!", Line: 1},
				{Type: token.BANG_EQUAL, Lexeme: "!=", Line: 1},
				{Type: token.EQUAL, Lexeme: "=", Line: 1},
				{Type: token.EQUAL_EQUAL, Lexeme: "==", Line: 1},
				{Type: token.LESS, Lexeme: "<", Line: 1},
				{Type: token.LESS_EQUAL, Lexeme: "<=", Line: 1},
				{Type: token.GREATER, Lexeme: ">", Line: 1},
				{Type: token.GREATER_EQUAL, Lexeme: ">=", Line: 1},
				{Type: token.EOF, Line: 1},
			},
		},
		{
			"line comment is skipped",
			"1 // a comment\n2",
			[]token.Token{
				{Type: token.NUMBER, Lexeme: "1", Line: 1},
				{Type: token.NUMBER, Lexeme: "2", Line: 2},
				{Type: token.EOF, Line: 2},
			},
		},
		{
			"string literal",
			`"hello world"`,
			[]token.Token{
				{Type: token.STRING, Lexeme: `"hello world"`, Line: 1},
				{Type: token.EOF, Line: 1},
			},
		},
		{
			"unterminated string",
			`"hello`,
			[]token.Token{
				{Type: token.ERROR, Lexeme: "Unterminated string.", Line: 1},
			},
		},
		{
			"number with fraction",
			"123.456",
			[]token.Token{
				{Type: token.NUMBER, Lexeme: "123.456", Line: 1},
				{Type: token.EOF, Line: 1},
			},
		},
		{
			"trailing dot is not part of number",
			"123.",
			[]token.Token{
				{Type: token.NUMBER, Lexeme: "123", Line: 1},
				{Type: token.DOT, Lexeme: ".", Line: 1},
				{Type: token.EOF, Line: 1},
			},
		},
		{
			"identifiers and keywords",
			"orchid or andiron and classy class",
			[]token.Token{
				{Type: token.IDENTIFIER, Lexeme: "orchid", Line: 1},
				{Type: token.OR, Lexeme: "or", Line: 1},
				{Type: token.IDENTIFIER, Lexeme: "andiron", Line: 1},
				{Type: token.AND, Lexeme: "and", Line: 1},
				{Type: token.IDENTIFIER, Lexeme: "classy", Line: 1},
				{Type: token.CLASS, Lexeme: "class", Line: 1},
				{Type: token.EOF, Line: 1},
			},
		},
		{
			"newlines advance the line counter",
			"1\n2\n3",
			[]token.Token{
				{Type: token.NUMBER, Lexeme: "1", Line: 1},
				{Type: token.NUMBER, Lexeme: "2", Line: 2},
				{Type: token.NUMBER, Lexeme: "3", Line: 3},
				{Type: token.EOF, Line: 3},
			},
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, scanAll(t, tc.input))
		})
	}
}

func TestParseNumberLiteral(t *testing.T) {
	t.Parallel()

	n, err := scanner.ParseNumberLiteral("3.25")
	assert.NoError(t, err)
	assert.InDelta(t, 3.25, n, 0.0001)
}
