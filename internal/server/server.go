// Package server serves PlotLogic geometry over HTTP, with live scene
// updates pushed to renderers as server-sent events.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// debounce is how long the watcher waits for writes to settle.
const debounce = 100 * time.Millisecond

// Server is the geometry API server.
type Server struct {
	state      *State
	host       string
	port       int
	watch      bool
	watchFiles []string
	logger     *slog.Logger
	ready      chan string
}

// Config holds configuration for the server.
type Config struct {
	State  *State
	Host   string
	Port   int
	Watch  bool
	Logger *slog.Logger
	// WatchFiles are reloaded into State when they change, typically the
	// config file and the field script.
	WatchFiles []string
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		state:      cfg.State,
		host:       cfg.Host,
		port:       cfg.Port,
		watch:      cfg.Watch,
		watchFiles: cfg.WatchFiles,
		logger:     logger,
		ready:      make(chan string, 1),
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Compress(5, "application/json", "text/plain", "model/obj"),
		requestLogger(s.logger),
	)
	SetupRoutes(r, NewHandlers(s.state, s.logger))
	return r
}

// Ready receives the listen address once the server accepts connections.
func (s *Server) Ready() <-chan string {
	return s.ready
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.logger.Info("starting server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && len(s.watchFiles) > 0 {
		eg.Go(func() error {
			return s.watchChanges(egctx)
		})
	}

	eg.Go(func() error {
		s.ready <- ln.Addr().String()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchChanges reloads the scene when a watched file is written.
// Directories are watched rather than files so editors that replace
// files on save are still seen.
func (s *Server) watchChanges(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool, len(s.watchFiles))
	for _, f := range s.watchFiles {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		watched[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			// Don't fail - continue without watching this file
			s.logger.Error("failed to watch", "path", f, "error", err)
		}
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if !watched[abs] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				s.logger.Debug("file changed, reloading scene", "file", event.Name)
				if err := s.state.Reload(); err != nil {
					s.logger.Error("reload failed", "error", err)
					return
				}
				s.logger.Info("scene reloaded", "revision", s.state.Revision())
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// requestLogger logs each request at debug level with slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
