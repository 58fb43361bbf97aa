package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/config"
	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/internal/server"
	"github.com/leapstack-labs/plotlogic/internal/server/notifier"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scene geometry over HTTP",
		Long: `Start a local HTTP server that renders the configured scene on request.

Endpoints:
  GET  /api/render          full payload: mesh, tangent plane and field
  GET  /api/surface         surface mesh buffers (/api/surface.obj for OBJ)
  GET  /api/tangent         tangent plane at ?x=&y=
  GET  /api/field           vector field arrows
  GET  /api/eval            value and partials at ?x=&y=
  GET  /api/symbols         free parameters of ?expr=
  GET  /api/presets         built-in field presets
  GET  /api/scene           current scene (POST/PUT to replace it)
  GET  /api/scene/stream    live scene updates (server-sent events)

Geometry endpoints accept query overrides: expr, p=name=value, range,
steps, x, y, size, preset, u, v, normalize, field_steps.

With --watch the scene is reloaded when the config file or field script
changes, and connected clients receive the new scene.`,
		Example: `  plotlogic serve
  plotlogic serve --port 9000 --watch=false
  curl 'localhost:8765/api/tangent?x=1&y=0'`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addSceneFlags(cmd)
	addFieldFlags(cmd)
	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().String("host", "", "Interface to bind (default: 127.0.0.1)")
	cmd.Flags().Bool("watch", true, "Reload the scene when the config file changes")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if err := cc.Cfg.ValidateScene(); err != nil {
		return err
	}

	cfgFile := config.GetConfigFileUsed()
	load := func() (*scene.Scene, error) {
		cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
		if err != nil {
			return nil, err
		}
		return cfg.SceneConfig(), nil
	}

	state := server.NewState(cc.Scene(), load, cc.RenderOptions(), notifier.New())

	var watchFiles []string
	if cfgFile != "" {
		watchFiles = append(watchFiles, cfgFile)
	}
	if script := cc.Cfg.Field.Script; script != "" {
		watchFiles = append(watchFiles, script)
	}

	srv := server.NewServer(server.Config{
		State:      state,
		Host:       cc.Cfg.Server.Host,
		Port:       cc.Cfg.Server.Port,
		Watch:      cc.Cfg.Server.Watch,
		WatchFiles: watchFiles,
		Logger:     cc.Logger,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		select {
		case addr := <-srv.Ready():
			cc.Renderer.Success("Serving " + cc.Cfg.Expr + " on http://" + addr)
			if len(watchFiles) > 0 && cc.Cfg.Server.Watch {
				cc.Renderer.Muted("Watching for changes. Press Ctrl+C to stop.")
			} else {
				cc.Renderer.Muted("Press Ctrl+C to stop.")
			}
		case <-ctx.Done():
		}
	}()

	return srv.Serve(ctx)
}
