package field

import (
	"sort"

	"github.com/leapstack-labs/plotlogic/pkg/calculus"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// Preset names.
const (
	PresetRotation = "rotation"
	PresetRadial   = "radial"
	PresetSaddle   = "saddle"
	PresetZero     = "zero"
)

// Zero is the identically zero field.
func Zero(float64, float64) geom.Vec2 { return geom.Vec2{} }

var presets = map[string]VectorFunc{
	PresetRotation: func(x, y float64) geom.Vec2 { return geom.V2(-y, x) },
	PresetRadial:   func(x, y float64) geom.Vec2 { return geom.V2(x, y) },
	PresetSaddle:   func(x, y float64) geom.Vec2 { return geom.V2(x, -y) },
	PresetZero:     Zero,
}

// Preset returns the named built-in field. Unknown names yield Zero.
func Preset(name string) VectorFunc {
	f, _ := Lookup(name)
	return f
}

// Lookup returns the named built-in field and whether it exists.
// Unknown names yield Zero and false.
func Lookup(name string) (VectorFunc, bool) {
	f, ok := presets[name]
	if !ok {
		return Zero, false
	}
	return f, true
}

// Presets returns the built-in field names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromFormulas builds a field whose components are the formulas u and v,
// compiled fail-soft with expr.Compile and bound to params.
func FromFormulas(u, v string, params expr.Params) VectorFunc {
	return FromEvaluators(expr.Compile(u), expr.Compile(v), params)
}

// FromEvaluators builds a field from two component evaluators. params is
// copied so later changes by the caller do not affect the field.
func FromEvaluators(u, v expr.Evaluator, params expr.Params) VectorFunc {
	if u == nil {
		u = expr.Zero
	}
	if v == nil {
		v = expr.Zero
	}
	p := params.Clone()
	return func(x, y float64) geom.Vec2 {
		return geom.V2(u(x, y, p), v(x, y, p))
	}
}

// GradientOf returns the gradient field of a scalar evaluator, estimated
// with calculus.Gradient.
func GradientOf(f expr.Evaluator, params expr.Params) VectorFunc {
	p := params.Clone()
	return func(x, y float64) geom.Vec2 {
		d := calculus.Gradient(f, x, y, p)
		return geom.V2(d.DfDx, d.DfDy)
	}
}
