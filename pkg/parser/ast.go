package parser

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/plotlogic/pkg/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
	// String renders the node fully parenthesized.
	String() string
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
}

// ---------- Expression Types ----------

// NumberLit represents a numeric literal.
type NumberLit struct {
	Value float64
	Raw   string
	At    token.Position
}

func (*NumberLit) exprNode() {}

// Pos implements Node.
func (n *NumberLit) Pos() token.Position { return n.At }

func (n *NumberLit) String() string {
	if n.Raw != "" {
		return n.Raw
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Symbol represents a free variable, parameter, or constant reference.
type Symbol struct {
	Name string
	At   token.Position
}

func (*Symbol) exprNode() {}

// Pos implements Node.
func (s *Symbol) Pos() token.Position { return s.At }

func (s *Symbol) String() string { return s.Name }

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
	// Implicit marks a multiplication written by juxtaposition, as in "2x".
	Implicit bool
}

func (*BinaryExpr) exprNode() {}

// Pos implements Node.
func (b *BinaryExpr) Pos() token.Position {
	if b.Left != nil {
		return b.Left.Pos()
	}
	return token.Position{}
}

func (b *BinaryExpr) String() string {
	return "(" + nodeString(b.Left) + " " + b.Op.String() + " " + nodeString(b.Right) + ")"
}

// UnaryExpr represents a prefix sign or a postfix factorial (Op == BANG).
type UnaryExpr struct {
	Op   token.TokenType
	Expr Expr
	At   token.Position
}

func (*UnaryExpr) exprNode() {}

// Pos implements Node.
func (u *UnaryExpr) Pos() token.Position { return u.At }

func (u *UnaryExpr) String() string {
	if u.Op == token.BANG {
		return "(" + nodeString(u.Expr) + "!)"
	}
	return "(" + u.Op.String() + nodeString(u.Expr) + ")"
}

// CallExpr represents a function call.
type CallExpr struct {
	Name string
	Args []Expr
	At   token.Position
}

func (*CallExpr) exprNode() {}

// Pos implements Node.
func (c *CallExpr) Pos() token.Position { return c.At }

func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = nodeString(a)
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

func nodeString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// Walk visits e and all of its children depth-first, stopping
// descent into a subtree when fn returns false.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *UnaryExpr:
		Walk(n.Expr, fn)
	case *CallExpr:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}
