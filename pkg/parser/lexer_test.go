package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		types []TokenType
		lits  []string
	}{
		{
			name:  "operators",
			input: "+ - * / % ^ ** ! , ( )",
			types: []TokenType{
				TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT,
				TOKEN_CARET, TOKEN_CARET, TOKEN_BANG, TOKEN_COMMA, TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_EOF,
			},
			lits: []string{"+", "-", "*", "/", "%", "^", "**", "!", ",", "(", ")", ""},
		},
		{
			name:  "identifiers and numbers",
			input: "alpha_1 3.5e2 x2",
			types: []TokenType{TOKEN_IDENT, TOKEN_NUMBER, TOKEN_IDENT, TOKEN_EOF},
			lits:  []string{"alpha_1", "3.5e2", "x2", ""},
		},
		{
			name:  "exponent without digits stays an identifier",
			input: "2exp(x)",
			types: []TokenType{TOKEN_NUMBER, TOKEN_IDENT, TOKEN_LPAREN, TOKEN_IDENT, TOKEN_RPAREN, TOKEN_EOF},
			lits:  []string{"2", "exp", "(", "x", ")", ""},
		},
		{
			name:  "signed exponent",
			input: "1e-3",
			types: []TokenType{TOKEN_NUMBER, TOKEN_EOF},
			lits:  []string{"1e-3", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.input)
			require.Len(t, tokens, len(tt.types))
			for i, tok := range tokens {
				assert.Equal(t, tt.types[i], tok.Type, "token %d type", i)
				assert.Equal(t, tt.lits[i], tok.Literal, "token %d literal", i)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	l := NewLexer("x +\n  y")

	x := l.NextToken()
	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, x.Pos)

	plus := l.NextToken()
	assert.Equal(t, Position{Line: 1, Column: 3, Offset: 2}, plus.Pos)

	y := l.NextToken()
	assert.Equal(t, 2, y.Pos.Line)
	assert.Equal(t, 6, y.Pos.Offset)
}

func TestLexerIllegal(t *testing.T) {
	l := NewLexer("x # y")
	_ = l.NextToken()
	tok := l.NextToken()
	assert.Equal(t, TOKEN_ILLEGAL, tok.Type)
	assert.Equal(t, "#", tok.Literal)
	require.Len(t, l.Errors, 1)
	assert.Contains(t, l.Errors[0].Error(), "illegal character '#'")
}

func TestLexerNULIsIllegal(t *testing.T) {
	l := NewLexer("x\x00 +* y")
	assert.Equal(t, TOKEN_IDENT, l.NextToken().Type)

	tok := l.NextToken()
	assert.Equal(t, TOKEN_ILLEGAL, tok.Type)
	assert.Equal(t, 1, tok.Pos.Offset)
	require.Len(t, l.Errors, 1)
	assert.Contains(t, l.Errors[0].Error(), `illegal character '\x00'`)

	// Lexing continues past the NUL up to the real end of input.
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TOKEN_EOF {
			break
		}
	}
	assert.Equal(t, []TokenType{TOKEN_PLUS, TOKEN_STAR, TOKEN_IDENT, TOKEN_EOF}, types)
}
