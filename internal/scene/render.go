package scene

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/plotlogic/internal/starlark"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

// RenderOptions configures Render.
type RenderOptions struct {
	// Compiler caches compiled formulas (optional, compiles uncached if nil)
	Compiler *expr.Compiler
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// BaseDir resolves a relative field script path (optional)
	BaseDir string
}

// Rendered is the immutable geometry of one scene.
type Rendered struct {
	Mesh    *surface.Mesh         `json:"mesh"`
	Tangent *surface.TangentPlane `json:"tangent,omitempty"`
	Arrows  []field.Arrow         `json:"arrows"`
	Symbols []string              `json:"symbols"`
	Scene   *Scene                `json:"scene"`
}

// Evaluator compiles the scene formula. A bad formula yields expr.Zero.
func (s *Scene) Evaluator(c *expr.Compiler) expr.Evaluator {
	if c != nil {
		return c.Compile(s.Expr)
	}
	return expr.Compile(s.Expr)
}

// VectorFunc resolves the configured field: a script first, then u/v
// formulas, then the named preset. Unknown presets sample as the zero field.
func (s *Scene) VectorFunc(opts RenderOptions) (field.VectorFunc, error) {
	switch s.Field.Source() {
	case "script":
		path := s.Field.Script
		if opts.BaseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(opts.BaseDir, path)
		}
		sf, err := starlark.LoadFile(path, starlark.Config{Params: s.Params, Logger: opts.Logger})
		if err != nil {
			return field.Zero, err
		}
		return sf.Func(), nil
	case "formula":
		compile := expr.Compile
		if opts.Compiler != nil {
			compile = opts.Compiler.Compile
		}
		return field.FromEvaluators(compile(s.Field.U), compile(s.Field.V), s.Params), nil
	default:
		f, ok := field.Lookup(s.Field.Preset)
		if !ok {
			return field.Zero, fmt.Errorf("field.preset %q: %w", s.Field.Preset, ErrUnknownPreset)
		}
		return f, nil
	}
}

// Render builds the surface mesh, tangent plane and vector field of s.
// The three builds run concurrently on a copy of the scene. Only a field
// that cannot be resolved (a broken script, an unknown preset) is an
// error; formula problems render as the zero surface.
func Render(ctx context.Context, s *Scene, opts RenderOptions) (*Rendered, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sc := s.Clone()
	sc.ApplyDefaults()
	eval := sc.Evaluator(opts.Compiler)

	vf, err := sc.VectorFunc(opts)
	if err != nil {
		return nil, err
	}

	out := &Rendered{Symbols: sc.Symbols(), Scene: sc}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Mesh = surface.Build(eval, sc.Params, sc.Range, sc.Steps)
		return nil
	})
	if sc.Tangent.Enabled {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out.Tangent = surface.BuildTangentPlane(eval, sc.Params, sc.Tangent.Point(), sc.Tangent.Size)
			return nil
		})
	}
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Arrows = field.Sample(vf, sc.Field.Normalize, sc.Range, sc.Field.Steps)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("scene rendered",
		"expr", sc.Expr,
		"vertices", len(out.Mesh.Vertices),
		"arrows", len(out.Arrows),
		"field", sc.Field.Source())
	return out, nil
}

// TangentArrow returns the gradient arrow segment drawn from the tangent
// point, or false when the tangent plane is disabled.
func (r *Rendered) TangentArrow() (from, to geom.Vec3, ok bool) {
	if r.Tangent == nil {
		return geom.Vec3{}, geom.Vec3{}, false
	}
	return r.Tangent.Origin, r.Tangent.ArrowTip(r.Scene.Tangent.ArrowLength), true
}
