// Package geom provides the small vector, color and range types shared by
// the surface and field samplers.
package geom

import "math"

// Vec2 is a point or vector in the domain plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Vec3 is a point or vector in the output space. The renderer's vertical
// axis is Y; domain coordinates map to X and Z.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// V3 creates a new Vec3.
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Add returns the vector sum a + b.
func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Sub returns the vector difference a - b.
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// Scale returns the scalar product a * s.
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

// Dot returns the dot product of a and b.
func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Cross returns the cross product a × b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// LengthSq returns the squared length of a.
func (a Vec3) LengthSq() float64 { return a.Dot(a) }

// Length returns the Euclidean length of a without intermediate overflow.
func (a Vec3) Length() float64 { return math.Hypot(math.Hypot(a.X, a.Y), a.Z) }

// Normalize returns a scaled to unit length. The zero vector is returned unchanged.
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	if math.IsInf(l, 1) {
		// Rescale by the largest component first so the length is representable.
		m := max(math.Abs(a.X), math.Abs(a.Y), math.Abs(a.Z))
		a = a.Scale(1 / m)
		l = a.Length()
	}
	return a.Scale(1 / l)
}

// IsFinite reports whether every component is finite.
func (a Vec3) IsFinite() bool {
	return IsFinite(a.X) && IsFinite(a.Y) && IsFinite(a.Z)
}

// Finite returns a with every non-finite component replaced by 0.
func (a Vec3) Finite() Vec3 {
	return Vec3{Finite(a.X), Finite(a.Y), Finite(a.Z)}
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite returns v, or 0 when v is NaN or ±Inf.
func Finite(v float64) float64 {
	if IsFinite(v) {
		return v
	}
	return 0
}
