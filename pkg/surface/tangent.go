package surface

import (
	"github.com/leapstack-labs/plotlogic/pkg/calculus"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// DefaultPlaneSize is the side length of the tangent quad.
const DefaultPlaneSize = 1.5

// QuadIndices splits the tangent quad into two triangles.
var QuadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// TangentPlane is the first-order Taylor approximation of a field at a point.
type TangentPlane struct {
	// Quad corners in order (x−h, y−h), (x+h, y−h), (x+h, y+h), (x−h, y+h), h = Size/2.
	Quad    [4]geom.Vec3 `json:"quad"`
	Indices [6]uint16    `json:"indices"`

	// Gradient is (dfdx, 0, dfdy) at unit length, or the zero vector
	// where the gradient vanishes.
	Gradient geom.Vec3 `json:"gradient"`
	Origin   geom.Vec3 `json:"origin"`

	DfDx float64 `json:"dfdx"`
	DfDy float64 `json:"dfdy"`
	Size float64 `json:"size"`
}

// BuildTangentPlane builds the size × size tangent quad of eval centered at point.
// A size that is not positive and finite selects DefaultPlaneSize.
func BuildTangentPlane(eval expr.Evaluator, params expr.Params, point geom.Vec2, size float64) *TangentPlane {
	if !(size > 0) || !geom.IsFinite(size) {
		size = DefaultPlaneSize
	}
	if eval == nil {
		eval = expr.Zero
	}
	x, y := geom.Finite(point.X), geom.Finite(point.Y)

	z0 := geom.Finite(eval(x, y, params))
	d := calculus.Gradient(eval, x, y, params)
	dfdx, dfdy := geom.Finite(d.DfDx), geom.Finite(d.DfDy)

	plane := func(px, py float64) geom.Vec3 {
		return geom.V3(px, z0+dfdx*(px-x)+dfdy*(py-y), py).Finite()
	}

	h := size / 2
	return &TangentPlane{
		Quad: [4]geom.Vec3{
			plane(x-h, y-h),
			plane(x+h, y-h),
			plane(x+h, y+h),
			plane(x-h, y+h),
		},
		Indices:  QuadIndices,
		Gradient: geom.V3(dfdx, 0, dfdy).Normalize().Finite(),
		Origin:   geom.V3(x, z0, y),
		DfDx:     dfdx,
		DfDy:     dfdy,
		Size:     size,
	}
}

// ArrowTip returns the end of a gradient arrow of the given length drawn
// from Origin. With a zero gradient the tip is Origin itself.
func (tp *TangentPlane) ArrowTip(length float64) geom.Vec3 {
	return tp.Origin.Add(tp.Gradient.Scale(geom.Finite(length))).Finite()
}

// Normal returns the unit upward normal of the plane.
func (tp *TangentPlane) Normal() geom.Vec3 {
	return geom.V3(-tp.DfDx, 1, -tp.DfDy).Normalize()
}

// Positions returns the quad corners as a flat x, y, z buffer.
func (tp *TangentPlane) Positions() []float32 {
	out := make([]float32, 0, 12)
	for _, c := range tp.Quad {
		out = append(out, float32(c.X), float32(c.Y), float32(c.Z))
	}
	return out
}
