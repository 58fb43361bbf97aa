package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/field"
)

// NewFieldCommand creates the field command.
func NewFieldCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Sample a vector field as arrow glyphs",
		Long: `Sample a planar vector field on a steps × steps grid over the domain window.

The field comes from, in order of precedence: a Starlark script (--script),
component formulas (--u/--v), the gradient of the surface formula
(--gradient) or a built-in preset (--preset).

Arrow lengths are 0.2 scaled by magnitude relative to the strongest sample,
or 0.2 for every arrow with --normalize.`,
		Example: `  plotlogic field --preset radial --field-steps 5
  plotlogic field --u "-y" --v "x" --normalize -o json
  plotlogic field --gradient --expr "x^2 - y^2"
  plotlogic field --script fields/swirl.star`,
		Args: cobra.NoArgs,
		RunE: runField,
	}
	addSceneFlags(cmd)
	addFieldFlags(cmd)
	cmd.Flags().Bool("gradient", false, "Sample the gradient of the surface formula")
	cmd.Flags().Int("limit", 0, "Show at most this many arrows in text output (0 = all)")
	return cmd
}

func runField(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	gradient, _ := cmd.Flags().GetBool("gradient")
	limit, _ := cmd.Flags().GetInt("limit")

	s := cc.Scene()
	s.ApplyDefaults()

	source := s.Field.Source()
	var f field.VectorFunc
	if gradient && source == "preset" {
		source = "gradient"
		f = field.GradientOf(s.Evaluator(cc.Compiler), s.Params)
	} else {
		f, err = s.VectorFunc(cc.RenderOptions())
		if err != nil {
			return err
		}
	}

	arrows := field.Sample(f, s.Field.Normalize, s.Range, s.Field.Steps)
	out := fieldOutput(s, source, arrows)
	cc.Logger.Debug("field sampled", "source", source, "arrows", len(arrows), "peak", out.Peak)
	return renderField(cc.Renderer, out, limit)
}

func fieldOutput(s *scene.Scene, source string, arrows []field.Arrow) output.FieldOutput {
	out := output.FieldOutput{
		Source:    fieldLabel(s, source),
		Steps:     min(max(s.Field.Steps, 2), field.MaxSteps),
		Normalize: s.Field.Normalize,
		Peak:      field.PeakMagnitude(arrows),
		Arrows:    make([]output.ArrowRow, len(arrows)),
	}
	for i, a := range arrows {
		out.Arrows[i] = output.ArrowRow{
			X:         a.Origin.X,
			Y:         a.Origin.Z,
			Direction: [3]float64{a.Direction.X, a.Direction.Y, a.Direction.Z},
			Length:    a.Length,
			Magnitude: a.Magnitude,
			Color:     a.Color.Hex(),
		}
	}
	return out
}

func fieldLabel(s *scene.Scene, source string) string {
	switch source {
	case "script":
		return "script " + s.Field.Script
	case "formula":
		return fmt.Sprintf("formula (%s, %s)", s.Field.U, s.Field.V)
	case "gradient":
		return "gradient of " + s.Expr
	default:
		return "preset " + s.Field.Preset
	}
}

func renderField(r *output.Renderer, out output.FieldOutput, limit int) error {
	if ok, err := r.Structured(out); ok {
		return err
	}

	r.Header(2, "Vector field")
	r.KeyValue("Source", out.Source)
	r.KeyValue("Grid", fmt.Sprintf("%d × %d", out.Steps, out.Steps))
	r.KeyValue("Peak magnitude", output.FormatFloat(out.Peak, 6))
	r.KeyValue("Normalized", out.Normalize)
	r.Println()

	shown := out.Arrows
	if limit > 0 && limit < len(shown) {
		shown = shown[:limit]
	}
	rows := make([][]any, len(shown))
	for i, a := range shown {
		rows[i] = []any{
			output.FormatVec(3, a.X, a.Y),
			output.FormatVec(3, a.Direction[0], a.Direction[2]),
			output.FormatFloat(a.Length, 4),
			output.FormatFloat(a.Magnitude, 4),
			a.Color,
		}
	}
	r.Table([]string{"Origin", "Direction", "Length", "Magnitude", "Color"}, rows)
	if len(shown) < len(out.Arrows) {
		r.Muted(fmt.Sprintf("%d more arrows not shown", len(out.Arrows)-len(shown)))
	}
	return nil
}
