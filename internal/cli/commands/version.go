package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
)

// BuildInfo identifies a PlotLogic build.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display PlotLogic version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := output.ModeText
			if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
				m, err := output.ParseMode(f.Value.String())
				if err != nil {
					return err
				}
				mode = m
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			return renderVersion(r, info)
		},
	}
}

func renderVersion(r *output.Renderer, info BuildInfo) error {
	v := output.VersionOutput{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		GoVersion: runtime.Version(),
	}
	if ok, err := r.Structured(v); ok {
		return err
	}
	r.Printf("PlotLogic v%s\n", v.Version)
	r.Println("Surface, tangent plane and vector field geometry")
	if v.Commit != "" && v.Commit != "unknown" {
		r.Printf("commit %s, built %s\n", v.Commit, v.BuildDate)
	}
	return nil
}
