// Package surface turns scalar fields into renderable geometry: a colored,
// non-indexed triangle mesh over a grid, and the tangent plane at a point.
//
// Every builder is total. Non-finite samples are clamped to 0 and degenerate
// inputs fall back to constants, so the output never contains NaN or Inf.
package surface

import (
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// Grid resolution limits.
const (
	MinSteps     = 2
	MaxSteps     = 1024
	DefaultSteps = 80
)

// Vertex is one corner of one triangle.
type Vertex struct {
	Position geom.Vec3  `json:"position"`
	Color    geom.Color `json:"color"`
}

// Mesh is a flat triangle list. Every three consecutive vertices form a
// triangle and no vertex is shared between triangles.
type Mesh struct {
	Vertices []Vertex   `json:"vertices"`
	Steps    int        `json:"steps"`
	Range    geom.Range `json:"range"`
	ZMin     float64    `json:"zmin"`
	ZMax     float64    `json:"zmax"`

	// Heights is the clamped sample grid, indexed Heights[i][j] for (x_i, y_j).
	Heights [][]float64 `json:"-"`
}

// VertexCount returns 6·(steps−1)², the vertex count of a mesh with steps samples per axis.
func VertexCount(steps int) int {
	return 6 * (steps - 1) * (steps - 1)
}

// Build samples eval over rng with steps samples per axis and emits two
// triangles per grid cell, colored by normalized height.
//
// steps is clamped to [MinSteps, MaxSteps] and rng is normalized with
// geom.Range.Normalize. A nil eval behaves as expr.Zero.
func Build(eval expr.Evaluator, params expr.Params, rng geom.Range, steps int) *Mesh {
	steps = clampSteps(steps)
	rng = rng.Normalize()
	if eval == nil {
		eval = expr.Zero
	}

	xs := make([]float64, steps)
	ys := make([]float64, steps)
	for i := range steps {
		xs[i] = rng.X(i, steps)
		ys[i] = rng.Y(i, steps)
	}

	heights, zmin, zmax := sampleGrid(eval, params, xs, ys)

	span := zmax - zmin
	if span == 0 || !geom.IsFinite(span) {
		span = 1
	}

	point := func(i, j int) Vertex {
		z := heights[i][j]
		t := (z - zmin) / span
		if !geom.IsFinite(t) {
			t = 0
		}
		return Vertex{
			Position: geom.V3(xs[i], z, ys[j]),
			Color:    geom.Ramp(t),
		}
	}

	vertices := make([]Vertex, 0, VertexCount(steps))
	for i := 0; i < steps-1; i++ {
		for j := 0; j < steps-1; j++ {
			p00 := point(i, j)
			p10 := point(i+1, j)
			p01 := point(i, j+1)
			p11 := point(i+1, j+1)
			vertices = append(vertices,
				p00, p10, p01,
				p01, p10, p11,
			)
		}
	}

	return &Mesh{
		Vertices: vertices,
		Steps:    steps,
		Range:    rng,
		ZMin:     zmin,
		ZMax:     zmax,
		Heights:  heights,
	}
}

// sampleGrid evaluates every grid point once, clamping non-finite values
// to 0, and returns the grid with its observed extrema.
func sampleGrid(eval expr.Evaluator, params expr.Params, xs, ys []float64) ([][]float64, float64, float64) {
	heights := make([][]float64, len(xs))
	zmin, zmax := 0.0, 0.0
	first := true

	for i, x := range xs {
		heights[i] = make([]float64, len(ys))
		for j, y := range ys {
			z := geom.Finite(eval(x, y, params))
			heights[i][j] = z
			if first {
				zmin, zmax = z, z
				first = false
				continue
			}
			zmin = min(zmin, z)
			zmax = max(zmax, z)
		}
	}
	return heights, zmin, zmax
}

func clampSteps(steps int) int {
	return min(max(steps, MinSteps), MaxSteps)
}

// Triangles returns the number of triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.Vertices) / 3
}

// Positions returns the vertex positions as a flat x, y, z buffer.
func (m *Mesh) Positions() []float32 {
	out := make([]float32, 0, 3*len(m.Vertices))
	for _, v := range m.Vertices {
		out = append(out, float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z))
	}
	return out
}

// Colors returns the vertex colors as a flat r, g, b buffer.
func (m *Mesh) Colors() []float32 {
	out := make([]float32, 0, 3*len(m.Vertices))
	for _, v := range m.Vertices {
		out = append(out, float32(v.Color.R), float32(v.Color.G), float32(v.Color.B))
	}
	return out
}

// Height returns the clamped sample at grid index (i, j).
func (m *Mesh) Height(i, j int) float64 {
	return m.Heights[i][j]
}

// Normalized returns the height at (i, j) mapped to [0, 1] by the mesh's extrema.
func (m *Mesh) Normalized(i, j int) float64 {
	span := m.ZMax - m.ZMin
	if span == 0 {
		span = 1
	}
	return (m.Heights[i][j] - m.ZMin) / span
}
