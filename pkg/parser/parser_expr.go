package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/plotlogic/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	PrecedenceNone     = 0
//	PrecedenceAddition = 1  (+, -)
//	PrecedenceMultiply = 2  (*, /, %, implicit)
//	PrecedenceUnary    = 3  (-, +)
//	PrecedencePower    = 4  (^, right associative)
//	PrecedencePostfix  = 5  (!)
const (
	PrecedenceNone = iota
	PrecedenceAddition
	PrecedenceMultiply
	PrecedenceUnary
	PrecedencePower
	PrecedencePostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(PrecedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		p.addError("expression nested too deeply")
		return nil
	}

	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	// Parse infix operators while their precedence is >= minPrecedence
	for {
		prec := p.infixPrecedence()
		if prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix signs and primary expressions.
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case TOKEN_MINUS, TOKEN_PLUS:
		op := p.token
		p.nextToken()
		operand := p.parseExpressionWithPrecedence(PrecedenceUnary)
		if operand == nil {
			return nil
		}
		return &UnaryExpr{Op: op.Type, Expr: operand, At: op.Pos}

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of the current token as an infix
// or postfix operator. Tokens that start an operand bind as implicit
// multiplication. Returns PrecedenceNone otherwise.
func (p *Parser) infixPrecedence() int {
	switch t := p.token.Type; {
	case t == TOKEN_PLUS || t == TOKEN_MINUS:
		return PrecedenceAddition
	case t == TOKEN_STAR || t == TOKEN_SLASH || t == TOKEN_PERCENT:
		return PrecedenceMultiply
	case t == TOKEN_CARET:
		return PrecedencePower
	case t == TOKEN_BANG:
		return PrecedencePostfix
	case token.StartsOperand(t):
		return PrecedenceMultiply
	default:
		return PrecedenceNone
	}
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	switch {
	case p.check(TOKEN_BANG):
		at := p.token.Pos
		p.nextToken()
		return &UnaryExpr{Op: TOKEN_BANG, Expr: left, At: at}

	case p.check(TOKEN_CARET):
		p.nextToken()
		// Same precedence on the right makes ^ right-associative.
		right := p.parseExpressionWithPrecedence(PrecedencePower)
		if right == nil {
			return nil
		}
		return &BinaryExpr{Left: left, Op: TOKEN_CARET, Right: right}

	case token.StartsOperand(p.token.Type):
		right := p.parseExpressionWithPrecedence(prec + 1)
		if right == nil {
			return nil
		}
		return &BinaryExpr{Left: left, Op: TOKEN_STAR, Right: right, Implicit: true}
	}

	// Standard binary operators
	op := p.token
	p.nextToken()

	// Parse right operand with higher precedence (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		return nil
	}

	return &BinaryExpr{Left: left, Op: op.Type, Right: right}
}

// Primary expression parsing: literals, symbols, function calls, parentheses.
//
// Grammar:
//
//	primary   → NUMBER | symbol | func_call | "(" expr ")"
//	func_call → IDENT "(" [expr ("," expr)*] ")"
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		return p.parseNumber()

	case TOKEN_IDENT:
		if p.checkPeek(TOKEN_LPAREN) {
			return p.parseCallExpr()
		}
		sym := &Symbol{Name: p.token.Literal, At: p.token.Pos}
		p.nextToken()
		return sym

	case TOKEN_LPAREN:
		p.nextToken()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
		return inner

	default:
		p.addError(fmt.Sprintf(ErrExpectedOperand, describe(p.token)))
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseNumber() Expr {
	tok := p.token
	p.nextToken()

	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		p.errors = append(p.errors, &ParseError{
			Pos:     tok.Pos,
			Message: fmt.Sprintf(ErrInvalidNumber, tok.Literal),
		})
		return nil
	}
	// Out of range literals keep their ±Inf or 0 value.
	return &NumberLit{Value: v, Raw: tok.Literal, At: tok.Pos}
}

// parseCallExpr parses a function call. The current token is the name.
func (p *Parser) parseCallExpr() Expr {
	call := &CallExpr{Name: p.token.Literal, At: p.token.Pos}
	p.nextToken() // consume name
	p.nextToken() // consume (

	if p.match(TOKEN_RPAREN) {
		return call
	}

	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	if !p.expect(TOKEN_RPAREN) {
		return nil
	}
	return call
}
