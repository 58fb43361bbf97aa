package parser_test

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/plotlogic/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Precedence Tests ----------

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "addition chain", src: "x + y - 1", want: "((x + y) - 1)"},
		{name: "multiply binds tighter", src: "x + y * 2", want: "(x + (y * 2))"},
		{name: "power right associative", src: "2^3^2", want: "(2 ^ (3 ^ 2))"},
		{name: "unary minus below power", src: "-x^2", want: "(-(x ^ 2))"},
		{name: "unary minus above multiply", src: "-x*y", want: "((-x) * y)"},
		{name: "negative exponent", src: "2^-x", want: "(2 ^ (-x))"},
		{name: "double star alias", src: "x**2", want: "(x ^ 2)"},
		{name: "parentheses", src: "(x + y) * 2", want: "((x + y) * 2)"},
		{name: "modulo", src: "x % 3", want: "(x % 3)"},
		{name: "factorial binds tightest", src: "2^3!", want: "(2 ^ (3!))"},
		{name: "saddle", src: "a*x^2 - b*y^2", want: "((a * (x ^ 2)) - (b * (y ^ 2)))"},
		{name: "function call", src: "sin(x) * cos(y)", want: "(sin(x) * cos(y))"},
		{name: "multi argument call", src: "atan2(y, x)", want: "atan2(y, x)"},
		{name: "empty call", src: "rand()", want: "rand()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String())
		})
	}
}

func TestParseImplicitMultiplication(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "2x", want: "(2 * x)"},
		{src: "2x^2", want: "(2 * (x ^ 2))"},
		{src: "3(x+1)", want: "(3 * (x + 1))"},
		{src: "2 pi x", want: "((2 * pi) * x)"},
		{src: "(x)(y)", want: "(x * y)"},
		{src: "-2x", want: "((-2) * x)"},
		{src: "2e", want: "(2 * e)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := parser.Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String())

			bin, ok := expr.(*parser.BinaryExpr)
			require.True(t, ok, "expected binary expression")
			assert.True(t, bin.Implicit)
		})
	}
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"42", 42},
		{"3.25", 3.25},
		{".5", 0.5},
		{"1e-3", 1e-3},
		{"2E+2", 200},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := parser.Parse(tt.src)
			require.NoError(t, err)
			num, ok := expr.(*parser.NumberLit)
			require.True(t, ok)
			assert.InDelta(t, tt.want, num.Value, 1e-15)
		})
	}
}

// ---------- Error Tests ----------

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		errSubstr string
	}{
		{name: "empty", src: "", errSubstr: "empty formula"},
		{name: "blank", src: "   ", errSubstr: "empty formula"},
		{name: "double operator", src: "x +* y", errSubstr: "expected operand"},
		{name: "unclosed paren", src: "(x + y", errSubstr: "expected )"},
		{name: "stray close paren", src: "x + y)", errSubstr: "unexpected"},
		{name: "trailing operator", src: "x ^", errSubstr: "end of input"},
		{name: "illegal character", src: "x $ y", errSubstr: "illegal character"},
		{name: "unclosed call", src: "sin(x", errSubstr: "expected )"},
		{name: "dangling comma", src: "max(x,)", errSubstr: "expected operand"},
		{name: "lone dot", src: "x . y", errSubstr: "illegal character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.Parse(tt.src)
			require.Error(t, err)
			assert.Nil(t, expr)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.Parse("x +* y")
	require.Error(t, err)

	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Pos.Line)
	assert.Equal(t, 4, perr.Pos.Column)
}

func TestParseDeepNesting(t *testing.T) {
	src := strings.Repeat("(", 1000) + "x" + strings.Repeat(")", 1000)
	_, err := parser.Parse(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested too deeply")

	ok := strings.Repeat("(", 50) + "x" + strings.Repeat(")", 50)
	_, err = parser.Parse(ok)
	assert.NoError(t, err)
}

// ---------- Walk Tests ----------

func TestWalkCollectsSymbols(t *testing.T) {
	expr, err := parser.Parse("a*sin(x) + b*y^c")
	require.NoError(t, err)

	var names []string
	parser.Walk(expr, func(e parser.Expr) bool {
		if s, ok := e.(*parser.Symbol); ok {
			names = append(names, s.Name)
		}
		return true
	})
	assert.Equal(t, []string{"a", "x", "b", "y", "c"}, names)
}

func TestWalkStopsDescent(t *testing.T) {
	expr, err := parser.Parse("sin(x) + y")
	require.NoError(t, err)

	var names []string
	parser.Walk(expr, func(e parser.Expr) bool {
		if s, ok := e.(*parser.Symbol); ok {
			names = append(names, s.Name)
		}
		_, isCall := e.(*parser.CallExpr)
		return !isCall
	})
	assert.Equal(t, []string{"y"}, names)
}
