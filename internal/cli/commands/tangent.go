package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

// NewTangentCommand creates the tangent command.
func NewTangentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tangent",
		Short: "Build the tangent plane of the formula at a point",
		Long: `Build the size × size tangent quad of z = f(x, y) centered at a point,
using the central-difference partial derivatives there.

The quad is two triangles with indices 0 1 2 and 0 2 3. The gradient is
reported as the unit vector (df/dx, 0, df/dy) in render coordinates.`,
		Example: `  plotlogic tangent --expr "x^2 + y^2" --at 1,0
  plotlogic tangent --at 0.5,0.5 --size 2 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			s := cc.Scene()
			tp := surface.BuildTangentPlane(s.Evaluator(cc.Compiler), s.Params, s.Tangent.Point(), s.Tangent.Size)
			return renderTangent(cc.Renderer, tangentOutput(s.Expr, tp))
		},
	}
	addSceneFlags(cmd)
	cmd.Flags().String("at", "", "Point x,y (default from tangent.x/tangent.y)")
	cmd.Flags().Float64("size", 0, "Side length of the tangent quad")
	return cmd
}

func tangentOutput(src string, tp *surface.TangentPlane) output.TangentOutput {
	out := output.TangentOutput{
		Expr:     src,
		Point:    [2]float64{tp.Origin.X, tp.Origin.Z},
		Value:    tp.Origin.Y,
		DfDx:     tp.DfDx,
		DfDy:     tp.DfDy,
		Gradient: [3]float64{tp.Gradient.X, tp.Gradient.Y, tp.Gradient.Z},
		Size:     tp.Size,
		Indices:  make([]int, len(tp.Indices)),
	}
	for i, c := range tp.Quad {
		out.Quad[i] = [3]float64{c.X, c.Y, c.Z}
	}
	for i, idx := range tp.Indices {
		out.Indices[i] = int(idx)
	}
	return out
}

func renderTangent(r *output.Renderer, out output.TangentOutput) error {
	if ok, err := r.Structured(out); ok {
		return err
	}

	r.Header(2, "Tangent plane")
	r.KeyValue("Formula", r.Styles().Formula.Render(out.Expr))
	r.KeyValue("Point", output.FormatVec(6, out.Point[0], out.Point[1]))
	r.KeyValue("Value", output.FormatFloat(out.Value, 8))
	r.KeyValue("df/dx", output.FormatFloat(out.DfDx, 8))
	r.KeyValue("df/dy", output.FormatFloat(out.DfDy, 8))
	r.KeyValue("Gradient", output.FormatVec(6, out.Gradient[:]...))
	r.Println()

	rows := make([][]any, len(out.Quad))
	for i, c := range out.Quad {
		rows[i] = []any{i, output.FormatFloat(c[0], 6), output.FormatFloat(c[1], 6), output.FormatFloat(c[2], 6)}
	}
	r.Table([]string{"Corner", "X", "Height", "Y"}, rows)
	return nil
}
