// Package starlark loads vector fields defined as Starlark scripts.
//
// A field script defines a function of the domain point that returns the
// two field components:
//
//	def field(x, y):
//	    return (-y * params["k"], x)
//
// Scripts see the math module, the frozen params dict and a formula()
// builtin that compiles a PlotLogic formula into a callable f(x, y).
package starlark

import (
	"fmt"

	"github.com/leapstack-labs/plotlogic/pkg/expr"
	starmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
)

// Predeclared returns the globals visible to field scripts.
func Predeclared(params expr.Params) starlark.StringDict {
	return starlark.StringDict{
		"math":    starmath.Module,
		"params":  ParamsToStarlark(params),
		"formula": formulaBuiltin(params),
	}
}

// formulaBuiltin implements formula(src) -> callable(x, y).
// Unlike expr.Compile it reports bad formulas as script errors.
func formulaBuiltin(params expr.Params) *starlark.Builtin {
	p := params.Clone()
	return starlark.NewBuiltin("formula", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var src string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &src); err != nil {
			return nil, err
		}
		prog, err := expr.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		eval := prog.Evaluator()

		return starlark.NewBuiltin("formula("+src+")", func(_ *starlark.Thread, fb *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var xv, yv starlark.Value
			if err := starlark.UnpackPositionalArgs(fb.Name(), args, kwargs, 2, &xv, &yv); err != nil {
				return nil, err
			}
			x, err := ToFloat(xv)
			if err != nil {
				return nil, fmt.Errorf("%s: x: %w", fb.Name(), err)
			}
			y, err := ToFloat(yv)
			if err != nil {
				return nil, fmt.Errorf("%s: y: %w", fb.Name(), err)
			}
			return starlark.Float(eval(x, y, p)), nil
		}), nil
	})
}
