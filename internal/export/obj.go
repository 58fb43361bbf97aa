// Package export writes rendered scenes to interchange formats: Wavefront
// OBJ for modelling tools and a flat-buffer JSON payload for web renderers.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

// OBJOptions controls WriteOBJ.
type OBJOptions struct {
	// Tangent also writes the tangent plane as a separate object.
	Tangent bool
	// Precision is the number of decimals per coordinate (default 6).
	Precision int
}

// WriteOBJ writes the surface mesh as a Wavefront OBJ document. Vertex
// colors use the common "v x y z r g b" extension. Because the mesh is a
// flat triangle list, every face references three fresh vertices.
func WriteOBJ(w io.Writer, r *scene.Rendered, opts OBJOptions) error {
	if r == nil || r.Mesh == nil {
		return fmt.Errorf("export: nothing to write")
	}
	prec := opts.Precision
	if prec <= 0 {
		prec = 6
	}

	ow := &objWriter{w: bufio.NewWriter(w), prec: prec}
	ow.comment("plotlogic surface")
	if r.Scene != nil {
		ow.comment("z = " + r.Scene.Expr)
	}
	ow.comment(fmt.Sprintf("%d vertices, %d triangles", len(r.Mesh.Vertices), r.Mesh.Triangles()))

	ow.line("o surface")
	ow.meshVertices(r.Mesh)
	ow.faces(0, r.Mesh.Triangles())

	if opts.Tangent && r.Tangent != nil {
		base := len(r.Mesh.Vertices)
		color := geom.MustParseHex(scene.DefaultPlaneColor)
		if r.Scene != nil {
			if c, err := geom.ParseHex(r.Scene.Tangent.PlaneColor); err == nil {
				color = c
			}
		}
		ow.line("o tangent")
		for _, p := range r.Tangent.Quad {
			ow.vertex(p, color)
		}
		idx := r.Tangent.Indices
		for k := 0; k < len(idx); k += 3 {
			ow.face(base+int(idx[k]), base+int(idx[k+1]), base+int(idx[k+2]))
		}
	}

	if ow.err != nil {
		return ow.err
	}
	return ow.w.Flush()
}

// objWriter remembers the first write error so callers check once.
type objWriter struct {
	w    *bufio.Writer
	prec int
	err  error
	buf  []byte
}

func (o *objWriter) line(s string) {
	if o.err != nil {
		return
	}
	_, o.err = o.w.WriteString(s + "\n")
}

func (o *objWriter) comment(s string) { o.line("# " + s) }

func (o *objWriter) meshVertices(m *surface.Mesh) {
	for _, v := range m.Vertices {
		o.vertex(v.Position, v.Color)
	}
}

func (o *objWriter) vertex(p geom.Vec3, c geom.Color) {
	if o.err != nil {
		return
	}
	b := append(o.buf[:0], 'v')
	for _, f := range [...]float64{p.X, p.Y, p.Z} {
		b = append(b, ' ')
		b = strconv.AppendFloat(b, f, 'f', o.prec, 64)
	}
	for _, f := range [...]float64{c.R, c.G, c.B} {
		b = append(b, ' ')
		b = strconv.AppendFloat(b, f, 'f', 4, 64)
	}
	b = append(b, '\n')
	o.buf = b
	_, o.err = o.w.Write(b)
}

// faces writes n triangles over consecutive vertices starting at base
// (0-based).
func (o *objWriter) faces(base, n int) {
	for t := range n {
		k := base + 3*t
		o.face(k, k+1, k+2)
	}
}

// face takes 0-based indices; OBJ indices are 1-based.
func (o *objWriter) face(a, b, c int) {
	if o.err != nil {
		return
	}
	_, o.err = fmt.Fprintf(o.w, "f %d %d %d\n", a+1, b+1, c+1)
}
