package expr

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/plotlogic/pkg/parser"
	"github.com/leapstack-labs/plotlogic/pkg/token"
)

// CompileError reports a formula that parsed but cannot be evaluated,
// such as a call to an unknown function or with the wrong number of arguments.
type CompileError struct {
	Pos     token.Position
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// env is the per-evaluation binding of the domain point and parameters.
type env struct {
	x, y    float64
	params  Params
	missing bool
}

// node is one compiled AST node.
type node func(e *env) float64

// build turns the AST into a tree of closures with function and
// symbol dispatch resolved up front.
func build(e parser.Expr) (node, error) {
	switch n := e.(type) {
	case *parser.NumberLit:
		v := n.Value
		return func(*env) float64 { return v }, nil

	case *parser.Symbol:
		return buildSymbol(n.Name), nil

	case *parser.UnaryExpr:
		operand, err := build(n.Expr)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.MINUS:
			return func(e *env) float64 { return -operand(e) }, nil
		case token.PLUS:
			return operand, nil
		case token.BANG:
			return func(e *env) float64 { return factorial(operand(e)) }, nil
		}
		return nil, &CompileError{Pos: n.At, Message: fmt.Sprintf("unsupported unary operator %s", n.Op)}

	case *parser.BinaryExpr:
		return buildBinary(n)

	case *parser.CallExpr:
		return buildCall(n)
	}

	return nil, &CompileError{Message: fmt.Sprintf("unsupported expression %T", e)}
}

func buildSymbol(name string) node {
	switch name {
	case VarX:
		return func(e *env) float64 { return e.x }
	case VarY:
		return func(e *env) float64 { return e.y }
	}

	if c, ok := constants[name]; ok {
		return func(e *env) float64 {
			if v, ok := e.params[name]; ok {
				return v
			}
			return c
		}
	}

	return func(e *env) float64 {
		v, ok := e.params[name]
		if !ok {
			e.missing = true
			return 0
		}
		return v
	}
}

func buildBinary(n *parser.BinaryExpr) (node, error) {
	left, err := build(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := build(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.PLUS:
		return func(e *env) float64 { return left(e) + right(e) }, nil
	case token.MINUS:
		return func(e *env) float64 { return left(e) - right(e) }, nil
	case token.STAR:
		return func(e *env) float64 { return left(e) * right(e) }, nil
	case token.SLASH:
		return func(e *env) float64 { return left(e) / right(e) }, nil
	case token.PERCENT:
		return func(e *env) float64 { return mod(left(e), right(e)) }, nil
	case token.CARET:
		return func(e *env) float64 { return math.Pow(left(e), right(e)) }, nil
	}

	return nil, &CompileError{Pos: n.Pos(), Message: fmt.Sprintf("unsupported operator %s", n.Op)}
}

func buildCall(n *parser.CallExpr) (node, error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return nil, &CompileError{Pos: n.At, Message: fmt.Sprintf("unknown function %q", n.Name)}
	}
	if err := fn.checkArity(len(n.Args)); err != nil {
		return nil, &CompileError{Pos: n.At, Message: fmt.Sprintf("%s: %v", n.Name, err)}
	}

	args := make([]node, len(n.Args))
	for i, a := range n.Args {
		built, err := build(a)
		if err != nil {
			return nil, err
		}
		args[i] = built
	}

	switch {
	case fn.unary != nil && len(args) == 1:
		f, a := fn.unary, args[0]
		return func(e *env) float64 { return f(a(e)) }, nil
	case fn.binary != nil && len(args) == 2:
		f, a, b := fn.binary, args[0], args[1]
		return func(e *env) float64 { return f(a(e), b(e)) }, nil
	}

	f := fn.variadic
	return func(e *env) float64 {
		vals := make([]float64, len(args))
		for i, a := range args {
			vals[i] = a(e)
		}
		return f(vals)
	}, nil
}

// mod follows the floored convention: the result has the sign of the divisor.
// A zero divisor returns the dividend.
func mod(x, y float64) float64 {
	if y == 0 {
		return x
	}
	return x - y*math.Floor(x/y)
}

func factorial(n float64) float64 {
	return math.Gamma(n + 1)
}
