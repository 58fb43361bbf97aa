package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/internal/export"
	"github.com/leapstack-labs/plotlogic/internal/scene"
)

// Surface export formats.
const (
	formatSummary = "summary"
	formatJSON    = "json"
	formatOBJ     = "obj"
)

// NewSurfaceCommand creates the surface command.
func NewSurfaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Build the surface mesh of the configured formula",
		Long: `Sample z = f(x, y) over the domain window and build a colored triangle mesh.

Formats:
  summary  vertex and triangle counts with the height range (default)
  json     flat position/color buffers plus tangent and field payloads
  obj      Wavefront OBJ with per-vertex colors`,
		Example: `  plotlogic surface --expr "sin(x)*cos(y)" --steps 40 --preview
  plotlogic surface --format obj --tangent --out saddle.obj
  plotlogic surface --format json | jq .mesh.count`,
		Args: cobra.NoArgs,
		RunE: runSurface,
	}
	addSceneFlags(cmd)
	cmd.Flags().StringP("format", "f", formatSummary, "Export format (summary|json|obj)")
	cmd.Flags().String("out", "", "Write the export to a file instead of stdout")
	cmd.Flags().Bool("tangent", false, "Include the tangent plane in OBJ output")
	cmd.Flags().Bool("preview", false, "Print a heatmap preview of the heights")
	cmd.Flags().Int("precision", 6, "Decimal places for OBJ coordinates")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{formatSummary, formatJSON, formatOBJ}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runSurface(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")
	withTangent, _ := cmd.Flags().GetBool("tangent")
	preview, _ := cmd.Flags().GetBool("preview")
	precision, _ := cmd.Flags().GetInt("precision")

	s := cc.Scene()
	if missing := s.MissingParams(); len(missing) > 0 {
		cc.Logger.Warn("unbound parameters evaluate as 0", "params", missing)
	}
	s.Tangent.Enabled = s.Tangent.Enabled || withTangent

	rendered, err := scene.Render(cmd.Context(), s, cc.RenderOptions())
	if err != nil {
		return err
	}

	switch format {
	case formatSummary:
		return renderSurfaceSummary(cc.Renderer, rendered, preview)
	case formatJSON, formatOBJ:
		w, closeFn, err := openOutput(cmd.OutOrStdout(), outPath)
		if err != nil {
			return err
		}
		if format == formatJSON {
			err = export.WriteJSON(w, export.NewPayload(rendered))
		} else {
			err = export.WriteOBJ(w, rendered, export.OBJOptions{Tangent: withTangent, Precision: precision})
		}
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		if outPath != "" {
			cc.Renderer.Success(fmt.Sprintf("Wrote %s (%d vertices)", outPath, len(rendered.Mesh.Vertices)))
		}
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be one of %s, %s, %s", format, formatSummary, formatJSON, formatOBJ)
	}
}

// openOutput returns the file at path, or stdout when path is empty.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func renderSurfaceSummary(r *output.Renderer, rendered *scene.Rendered, preview bool) error {
	m := rendered.Mesh
	summary := output.SurfaceSummary{
		Expr:      rendered.Scene.Expr,
		Range:     m.Range.String(),
		Steps:     m.Steps,
		Vertices:  len(m.Vertices),
		Triangles: m.Triangles(),
		ZMin:      m.ZMin,
		ZMax:      m.ZMax,
	}
	if ok, err := r.Structured(summary); ok {
		return err
	}

	r.Header(2, "Surface")
	r.KeyValue("Formula", r.Styles().Formula.Render(summary.Expr))
	r.KeyValue("Range", summary.Range)
	r.KeyValue("Steps", summary.Steps)
	r.KeyValue("Vertices", summary.Vertices)
	r.KeyValue("Triangles", summary.Triangles)
	r.KeyValue("Height", output.FormatFloat(summary.ZMin, 4)+" .. "+output.FormatFloat(summary.ZMax, 4))

	if preview {
		color := r.EffectiveMode() == output.ModeText && r.Styles().Colored()
		heat := output.Heatmap(m, 40, 20, color)
		r.Println()
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println(output.FormatCodeBlock("", heat))
			return nil
		}
		r.Println(heat)
	}
	return nil
}
