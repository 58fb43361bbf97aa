// Package calculus estimates partial derivatives of scalar fields by
// fixed-step central differences.
package calculus

import (
	"math"

	"github.com/leapstack-labs/plotlogic/pkg/expr"
)

// DefaultStep is the finite-difference step used when none is given.
const DefaultStep = 1e-3

// Func is any scalar field of (x, y, params). expr.Evaluator satisfies it.
type Func = expr.Evaluator

// Result holds the estimated partial derivatives at a point.
type Result struct {
	DfDx float64 `json:"dfdx"`
	DfDy float64 `json:"dfdy"`
}

// Magnitude returns the length of the gradient (DfDx, DfDy).
func (r Result) Magnitude() float64 {
	return math.Hypot(r.DfDx, r.DfDy)
}

// Partials estimates ∂f/∂x and ∂f/∂y at (x0, y0) with central differences:
//
//	dfdx = (f(x0+h, y0) - f(x0-h, y0)) / 2h
//	dfdy = (f(x0, y0+h) - f(x0, y0-h)) / 2h
//
// A step that is not positive and finite selects DefaultStep. Non-finite
// samples propagate into the result.
func Partials(f Func, x0, y0 float64, p expr.Params, h float64) Result {
	if !(h > 0) || math.IsInf(h, 1) {
		h = DefaultStep
	}
	return Result{
		DfDx: (f(x0+h, y0, p) - f(x0-h, y0, p)) / (2 * h),
		DfDy: (f(x0, y0+h, p) - f(x0, y0-h, p)) / (2 * h),
	}
}

// Gradient is Partials with DefaultStep.
func Gradient(f Func, x0, y0 float64, p expr.Params) Result {
	return Partials(f, x0, y0, p, DefaultStep)
}
