// Package expr compiles formula text into evaluators of (x, y, params).
//
// Compilation is fail-soft: Compile never returns an error and never panics.
// Malformed input, unknown functions and wrong arities all produce the
// constant-zero evaluator, so callers may compile on every keystroke of a
// live-edited formula. Parse is the strict variant for diagnostics.
//
// Symbols resolve in this order: the reserved domain variables x and y,
// then Params, then the constants pi, e, tau and phi. A symbol that
// resolves nowhere makes that single evaluation return 0.
package expr

import (
	"sort"

	"github.com/leapstack-labs/plotlogic/pkg/parser"
)

// Params binds named parameters referenced by a formula.
type Params map[string]float64

// Clone returns a copy of p. A nil map clones to an empty one.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Evaluator maps a domain point and parameters to a scalar.
// Evaluators are pure and safe for concurrent use.
type Evaluator func(x, y float64, params Params) float64

// Zero is the constant-zero evaluator returned for formulas that fail to compile.
func Zero(float64, float64, Params) float64 { return 0 }

// Reserved domain variable names.
const (
	VarX = "x"
	VarY = "y"
)

// Program is a successfully parsed and validated formula.
type Program struct {
	src     string
	root    parser.Expr
	fn      node
	symbols []string
}

// Parse parses and validates src. Unlike Compile it reports failures,
// as a *parser.LexError, *parser.ParseError or *CompileError.
func Parse(src string) (*Program, error) {
	root, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}

	fn, err := build(root)
	if err != nil {
		return nil, err
	}

	return &Program{
		src:     src,
		root:    root,
		fn:      fn,
		symbols: freeSymbols(root),
	}, nil
}

// Source returns the formula text the program was parsed from.
func (p *Program) Source() string { return p.src }

// String returns the fully parenthesized form of the formula.
func (p *Program) String() string { return p.root.String() }

// AST returns the root of the parsed expression tree.
func (p *Program) AST() parser.Expr { return p.root }

// Symbols returns the sorted free parameter names referenced by the formula,
// excluding x, y and the built-in constants.
func (p *Program) Symbols() []string {
	out := make([]string, len(p.symbols))
	copy(out, p.symbols)
	return out
}

// Eval evaluates the formula at (x, y). If a referenced symbol is missing
// from params and is not a constant, the result is 0.
func (p *Program) Eval(x, y float64, params Params) float64 {
	e := env{x: x, y: y, params: params}
	v := p.fn(&e)
	if e.missing {
		return 0
	}
	return v
}

// Evaluator returns the program as an Evaluator.
func (p *Program) Evaluator() Evaluator {
	return p.Eval
}

func freeSymbols(root parser.Expr) []string {
	seen := make(map[string]struct{})
	parser.Walk(root, func(e parser.Expr) bool {
		s, ok := e.(*parser.Symbol)
		if !ok {
			return true
		}
		if s.Name == VarX || s.Name == VarY {
			return true
		}
		if _, isConst := constants[s.Name]; isConst {
			return true
		}
		seen[s.Name] = struct{}{}
		return true
	})

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
