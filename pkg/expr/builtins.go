package expr

import (
	"fmt"
	"math"
	"sort"
)

// builtin describes a callable function. The unary and binary forms are
// fast paths; variadic handles every other arity.
type builtin struct {
	min, max int // max < 0 means unbounded
	unary    func(float64) float64
	binary   func(a, b float64) float64
	variadic func([]float64) float64
}

func (b builtin) checkArity(n int) error {
	switch {
	case n < b.min:
		return fmt.Errorf("expected at least %d argument(s), got %d", b.min, n)
	case b.max >= 0 && n > b.max:
		return fmt.Errorf("expected at most %d argument(s), got %d", b.max, n)
	}
	return nil
}

func fn1(f func(float64) float64) builtin {
	return builtin{min: 1, max: 1, unary: f}
}

func fn2(f func(a, b float64) float64) builtin {
	return builtin{min: 2, max: 2, binary: f}
}

func fold(f func(a, b float64) float64) builtin {
	return builtin{
		min:    1,
		max:    -1,
		unary:  func(v float64) float64 { return v },
		binary: f,
		variadic: func(vals []float64) float64 {
			acc := vals[0]
			for _, v := range vals[1:] {
				acc = f(acc, v)
			}
			return acc
		},
	}
}

var builtins = map[string]builtin{
	// Trigonometric
	"sin":  fn1(math.Sin),
	"cos":  fn1(math.Cos),
	"tan":  fn1(math.Tan),
	"sec":  fn1(func(v float64) float64 { return 1 / math.Cos(v) }),
	"csc":  fn1(func(v float64) float64 { return 1 / math.Sin(v) }),
	"cot":  fn1(func(v float64) float64 { return 1 / math.Tan(v) }),
	"asin": fn1(math.Asin),
	"acos": fn1(math.Acos),
	"atan": fn1(math.Atan),

	// atan2(y, x)
	"atan2": fn2(math.Atan2),

	// Hyperbolic
	"sinh":  fn1(math.Sinh),
	"cosh":  fn1(math.Cosh),
	"tanh":  fn1(math.Tanh),
	"asinh": fn1(math.Asinh),
	"acosh": fn1(math.Acosh),
	"atanh": fn1(math.Atanh),

	// Exponential and logarithmic
	"exp":   fn1(math.Exp),
	"expm1": fn1(math.Expm1),
	"log": {
		min:    1,
		max:    2,
		unary:  math.Log,
		binary: func(v, base float64) float64 { return math.Log(v) / math.Log(base) },
	},
	"log10": fn1(math.Log10),
	"log2":  fn1(math.Log2),
	"log1p": fn1(math.Log1p),

	// Powers and roots
	"sqrt":   fn1(math.Sqrt),
	"cbrt":   fn1(math.Cbrt),
	"square": fn1(func(v float64) float64 { return v * v }),
	"cube":   fn1(func(v float64) float64 { return v * v * v }),
	"pow":    fn2(math.Pow),
	"hypot":  fn2(math.Hypot),

	// Rounding and sign
	"abs":   fn1(math.Abs),
	"sign":  fn1(sign),
	"floor": fn1(math.Floor),
	"ceil":  fn1(math.Ceil),
	"round": fn1(math.Round),
	"trunc": fn1(math.Trunc),
	"mod":   fn2(mod),

	// Aggregates
	"min": fold(math.Min),
	"max": fold(math.Max),

	// Special
	"gamma":     fn1(math.Gamma),
	"factorial": fn1(factorial),
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
	"phi": math.Phi,
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return v // keeps 0, -0 and NaN
}

// Functions returns the names of all built-in functions, sorted.
func Functions() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Constants returns the built-in constants by name.
func Constants() map[string]float64 {
	out := make(map[string]float64, len(constants))
	for k, v := range constants {
		out[k] = v
	}
	return out
}
