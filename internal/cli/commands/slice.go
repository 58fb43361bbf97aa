package commands

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// NewSliceCommand creates the slice command.
func NewSliceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slice",
		Short: "Plot the cross-section z = f(x, y0) in the terminal",
		Long: `Sample the formula along x at a fixed y and draw the curve as an ASCII
line chart. Use it to inspect a surface without a 3D viewer.`,
		Example: `  plotlogic slice --expr "sin(3*x)*cos(y)" --y 0
  plotlogic slice --y 1.5 --width 100 --height 20`,
		Args: cobra.NoArgs,
		RunE: runSlice,
	}
	addSceneFlags(cmd)
	cmd.Flags().Float64("y", 0, "Fixed y of the cross-section")
	cmd.Flags().Int("width", 72, "Number of samples along x")
	cmd.Flags().Int("height", 15, "Chart height in rows")
	return cmd
}

func runSlice(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	y0, _ := cmd.Flags().GetFloat64("y")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	if width < 2 {
		return fmt.Errorf("--width must be at least 2, got %d", width)
	}
	if height < 1 {
		return fmt.Errorf("--height must be at least 1, got %d", height)
	}

	s := cc.Scene()
	rng := s.Range.Normalize()
	out := output.SliceOutput{
		Expr:   s.Expr,
		Y:      y0,
		XMin:   rng.XMin,
		XMax:   rng.XMax,
		Values: sliceValues(s.Evaluator(cc.Compiler), s.Params, rng, y0, width),
	}
	return renderSlice(cc.Renderer, out, height)
}

// sliceValues samples n evenly spaced points of f(x, y0) across rng.
// Non-finite values are reported as 0.
func sliceValues(f expr.Evaluator, p expr.Params, rng geom.Range, y0 float64, n int) []float64 {
	vals := make([]float64, n)
	for i := range n {
		x := rng.XMin + (rng.XMax-rng.XMin)*float64(i)/float64(n-1)
		vals[i] = geom.Finite(f(x, y0, p))
	}
	return vals
}

func renderSlice(r *output.Renderer, out output.SliceOutput, height int) error {
	if ok, err := r.Structured(out); ok {
		return err
	}

	caption := fmt.Sprintf("z = %s at y = %s, x in [%s, %s]",
		out.Expr, output.FormatFloat(out.Y, 4), output.FormatFloat(out.XMin, 4), output.FormatFloat(out.XMax, 4))
	chart := asciigraph.Plot(out.Values,
		asciigraph.Height(height),
		asciigraph.Precision(3),
		asciigraph.Caption(caption))

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatCodeBlock("", chart))
		return nil
	}
	r.Println(chart)
	return nil
}
