package export

import (
	"encoding/json"
	"io"

	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

// MeshPayload is a mesh as GPU-ready flat buffers.
type MeshPayload struct {
	Positions []float32 `json:"positions"`
	Colors    []float32 `json:"colors"`
	Count     int       `json:"count"`
	Steps     int       `json:"steps"`
	ZMin      float64   `json:"zmin"`
	ZMax      float64   `json:"zmax"`
}

// TangentPayload is the tangent quad, its gradient arrow and colors.
type TangentPayload struct {
	Positions   []float32  `json:"positions"`
	Indices     [6]uint16  `json:"indices"`
	Origin      [3]float64 `json:"origin"`
	Gradient    [3]float64 `json:"gradient"`
	ArrowTip    [3]float64 `json:"arrowTip"`
	DfDx        float64    `json:"dfdx"`
	DfDy        float64    `json:"dfdy"`
	PlaneColor  string     `json:"planeColor"`
	ArrowColor  string     `json:"arrowColor"`
	ArrowLength float64    `json:"arrowLength"`
}

// FieldPayload holds one entry per arrow in each buffer: origins and
// directions are xyz triples, colors rgb triples.
type FieldPayload struct {
	Origins    []float32 `json:"origins"`
	Directions []float32 `json:"directions"`
	Lengths    []float32 `json:"lengths"`
	Colors     []float32 `json:"colors"`
	Count      int       `json:"count"`
	Peak       float64   `json:"peak"`
}

// Payload is the complete renderer document for one scene.
type Payload struct {
	Expr    string          `json:"expr"`
	Symbols []string        `json:"symbols"`
	Mesh    *MeshPayload    `json:"mesh"`
	Tangent *TangentPayload `json:"tangent,omitempty"`
	Field   *FieldPayload   `json:"field"`
}

// NewMeshPayload flattens m.
func NewMeshPayload(m *surface.Mesh) *MeshPayload {
	return &MeshPayload{
		Positions: m.Positions(),
		Colors:    m.Colors(),
		Count:     len(m.Vertices),
		Steps:     m.Steps,
		ZMin:      m.ZMin,
		ZMax:      m.ZMax,
	}
}

// NewTangentPayload flattens tp. cfg supplies the arrow length and colors.
func NewTangentPayload(tp *surface.TangentPlane, cfg scene.TangentConfig) *TangentPayload {
	tip := tp.ArrowTip(cfg.ArrowLength)
	return &TangentPayload{
		Positions:   tp.Positions(),
		Indices:     tp.Indices,
		Origin:      [3]float64{tp.Origin.X, tp.Origin.Y, tp.Origin.Z},
		Gradient:    [3]float64{tp.Gradient.X, tp.Gradient.Y, tp.Gradient.Z},
		ArrowTip:    [3]float64{tip.X, tip.Y, tip.Z},
		DfDx:        tp.DfDx,
		DfDy:        tp.DfDy,
		PlaneColor:  cfg.PlaneColor,
		ArrowColor:  cfg.ArrowColor,
		ArrowLength: cfg.ArrowLength,
	}
}

// NewFieldPayload flattens arrows.
func NewFieldPayload(arrows []field.Arrow) *FieldPayload {
	n := len(arrows)
	p := &FieldPayload{
		Origins:    make([]float32, 0, 3*n),
		Directions: make([]float32, 0, 3*n),
		Lengths:    make([]float32, 0, n),
		Colors:     make([]float32, 0, 3*n),
		Count:      n,
		Peak:       field.PeakMagnitude(arrows),
	}
	for _, a := range arrows {
		p.Origins = append(p.Origins, float32(a.Origin.X), float32(a.Origin.Y), float32(a.Origin.Z))
		p.Directions = append(p.Directions, float32(a.Direction.X), float32(a.Direction.Y), float32(a.Direction.Z))
		p.Lengths = append(p.Lengths, float32(a.Length))
		p.Colors = append(p.Colors, float32(a.Color.R), float32(a.Color.G), float32(a.Color.B))
	}
	return p
}

// NewPayload flattens a rendered scene.
func NewPayload(r *scene.Rendered) *Payload {
	p := &Payload{
		Symbols: r.Symbols,
		Mesh:    NewMeshPayload(r.Mesh),
		Field:   NewFieldPayload(r.Arrows),
	}
	if r.Scene != nil {
		p.Expr = r.Scene.Expr
	}
	if r.Tangent != nil {
		cfg := scene.Default().Tangent
		if r.Scene != nil {
			cfg = r.Scene.Tangent
		}
		p.Tangent = NewTangentPayload(r.Tangent, cfg)
	}
	return p
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
