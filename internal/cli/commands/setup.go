package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/config"
	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Compiler *expr.Compiler
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Compiler: expr.NewCompiler(expr.CompilerConfig{Logger: logger}),
	}, nil
}

// Scene returns a copy of the configured scene.
func (c *CommandContext) Scene() *scene.Scene {
	return c.Cfg.SceneConfig()
}

// RenderOptions returns scene render options bound to this context.
func (c *CommandContext) RenderOptions() scene.RenderOptions {
	return scene.RenderOptions{
		Compiler: c.Compiler,
		Logger:   c.Logger,
		BaseDir:  c.Cfg.ProjectRoot,
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise loads the
// configuration with the command's own flags.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	cfg, err := config.LoadConfig("", cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addSceneFlags registers the flags shared by every command that renders
// the scene formula.
func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().String("expr", "", "Formula z = f(x, y) (default from config)")
	cmd.Flags().StringSliceP("param", "p", nil, "Parameter value name=value (repeatable)")
	cmd.Flags().String("range", "", "Domain window xmin,xmax,ymin,ymax or a half-width r")
	cmd.Flags().Int("steps", 0, "Samples per axis")
}

// addFieldFlags registers the vector field flags.
func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", "", "Built-in field preset")
	cmd.Flags().String("u", "", "Formula for the x component")
	cmd.Flags().String("v", "", "Formula for the y component")
	cmd.Flags().String("script", "", "Starlark field script (.star)")
	cmd.Flags().Bool("normalize", false, "Draw every arrow at full length")
	cmd.Flags().Int("field-steps", 0, "Field samples per axis")

	_ = cmd.RegisterFlagCompletionFunc("preset", presetCompletion)
}

func presetCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return presetNames(), cobra.ShellCompDirectiveNoFileComp
}
