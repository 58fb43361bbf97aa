// Package parser provides formula parsing for two-variable scalar expressions.
//
// # Usage
//
//	expr, err := parser.Parse("a*x^2 - b*y^2")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser is a Pratt (precedence climbing) parser over a
// scientific-calculator grammar:
//
//	expr     → additive
//	additive → mult (("+" | "-") mult)*
//	mult     → unary (("*" | "/" | "%") unary | implicit unary)*
//	unary    → ("-" | "+") unary | power
//	power    → postfix ("^" unary)?
//	postfix  → primary "!"*
//	primary  → NUMBER | IDENT | IDENT "(" [expr ("," expr)*] ")" | "(" expr ")"
//
// Implicit multiplication applies when an operand is directly followed by a
// number, identifier or "(", so "2x", "3(x+1)" and "2 pi x" are products.
// "**" is accepted as an alias of "^".
package parser

import (
	"fmt"
)

// maxDepth bounds nesting so pathological input cannot exhaust the stack.
const maxDepth = 256

// Parser parses formulas into an AST.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	errors []error
	depth  int
}

// NewParser creates a new parser for the given formula.
func NewParser(src string) *Parser {
	p := &Parser{
		lexer: NewLexer(src),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses src and returns the expression tree.
// Lexical errors take priority over parse errors since they explain them.
func Parse(src string) (Expr, error) {
	p := NewParser(src)
	if p.check(TOKEN_EOF) {
		p.addError(ErrEmptyInput)
		return nil, p.errors[0]
	}

	expr := p.parseExpression()
	if expr != nil && !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf(ErrUnexpectedInput, describe(p.token)))
	}

	if len(p.lexer.Errors) > 0 {
		return nil, p.lexer.Errors[0]
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

// Errors returns all errors collected so far.
func (p *Parser) Errors() []error {
	return append(append([]error(nil), p.lexer.Errors...), p.errors...)
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

func describe(tok Token) string {
	switch tok.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_IDENT, TOKEN_NUMBER, TOKEN_ILLEGAL:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	default:
		return fmt.Sprintf("%q", tok.Type.String())
	}
}
