package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/plotlogic/internal/export"
	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/calculus"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// maxSceneBytes bounds a posted scene document.
const maxSceneBytes = 1 << 20

// Handlers provides the HTTP handlers of the geometry API.
type Handlers struct {
	state  *State
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(state *State, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{state: state, logger: logger}
}

// SymbolsResponse lists the free parameters of a formula.
type SymbolsResponse struct {
	Expr    string   `json:"expr"`
	Symbols []string `json:"symbols"`
	Error   string   `json:"error,omitempty"`
}

// EvalResponse is a formula value with its partial derivatives.
type EvalResponse struct {
	Expr  string  `json:"expr"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
	DfDx  float64 `json:"dfdx"`
	DfDy  float64 `json:"dfdy"`
}

// SceneSignals is the state pushed to live clients.
type SceneSignals struct {
	Revision uint64          `json:"revision"`
	Scene    *scene.Scene    `json:"scene"`
	Payload  *export.Payload `json:"payload"`
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// GetScene returns the current scene.
func (h *Handlers) GetScene(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.state.Scene())
}

// PutScene replaces the current scene with a posted YAML or JSON document.
// Settings missing from the document take their defaults.
func (h *Handlers) PutScene(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSceneBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	s, err := scene.LoadBytes(data)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.Field.Script != "" {
		h.writeError(w, http.StatusBadRequest, errors.New("field.script cannot be set over HTTP"))
		return
	}
	if err := h.state.Set(s); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	h.logger.Info("scene updated", "expr", s.Expr, "revision", h.state.Revision())
	h.writeJSON(w, http.StatusOK, h.state.Scene())
}

// Render returns the full renderer payload of the scene.
func (h *Handlers) Render(w http.ResponseWriter, r *http.Request) {
	rendered, ok := h.render(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, export.NewPayload(rendered))
}

// Surface returns the surface mesh buffers.
func (h *Handlers) Surface(w http.ResponseWriter, r *http.Request) {
	rendered, ok := h.render(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, export.NewMeshPayload(rendered.Mesh))
}

// SurfaceOBJ returns the surface, and the tangent plane when enabled, as
// a Wavefront OBJ document.
func (h *Handlers) SurfaceOBJ(w http.ResponseWriter, r *http.Request) {
	rendered, ok := h.render(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "model/obj")
	w.Header().Set("Content-Disposition", `attachment; filename="surface.obj"`)
	opts := export.OBJOptions{Tangent: rendered.Tangent != nil}
	if err := export.WriteOBJ(w, rendered, opts); err != nil {
		h.logger.Error("failed to write OBJ", "error", err)
	}
}

// Tangent returns the tangent plane at x, y.
func (h *Handlers) Tangent(w http.ResponseWriter, r *http.Request) {
	rendered, ok := h.render(w, r, func(s *scene.Scene) { s.Tangent.Enabled = true })
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, export.NewTangentPayload(rendered.Tangent, rendered.Scene.Tangent))
}

// Field returns the sampled vector field.
func (h *Handlers) Field(w http.ResponseWriter, r *http.Request) {
	rendered, ok := h.render(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, export.NewFieldPayload(rendered.Arrows))
}

// Presets lists the built-in field presets.
func (h *Handlers) Presets(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, field.Presets())
}

// Symbols lists the free parameters of the expr query parameter, or of
// the scene formula.
func (h *Handlers) Symbols(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("expr")
	if src == "" {
		src = h.state.Scene().Expr
	}
	resp := SymbolsResponse{Expr: src, Symbols: []string{}}
	prog, err := expr.Parse(src)
	if err != nil {
		resp.Error = err.Error()
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Symbols = prog.Symbols()
	h.writeJSON(w, http.StatusOK, resp)
}

// Eval evaluates the formula and its partial derivatives at x, y. Unlike
// the geometry endpoints, a formula that does not parse is an error.
// Non-finite results are reported as 0.
func (h *Handlers) Eval(w http.ResponseWriter, r *http.Request) {
	s := h.state.Scene()
	if err := applyQuery(s, r.URL.Query()); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	prog, err := expr.Parse(s.Expr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	x, y := s.Tangent.X, s.Tangent.Y
	d := calculus.Gradient(prog.Evaluator(), x, y, s.Params)
	h.writeJSON(w, http.StatusOK, EvalResponse{
		Expr:  prog.Source(),
		X:     x,
		Y:     y,
		Value: geom.Finite(prog.Eval(x, y, s.Params)),
		DfDx:  geom.Finite(d.DfDx),
		DfDy:  geom.Finite(d.DfDy),
	})
}

// SceneUpdates is the long-lived SSE endpoint for live renderers. It sends
// the current scene on connect and again after every change.
func (h *Handlers) SceneUpdates(w http.ResponseWriter, r *http.Request) {
	updates := h.state.Notifier().Subscribe()
	defer h.state.Notifier().Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	send := func() {
		signals, err := h.signals(r)
		if err != nil {
			_ = sse.ConsoleError(err)
			return
		}
		if err := sse.MarshalAndPatchSignals(signals); err != nil {
			h.logger.Debug("failed to patch signals", "error", err)
		}
	}

	send()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			send()
		}
	}
}

// UpdateParams applies parameter changes sent by a live client as
// Datastar signals ({"params": {"a": 1.5}}) and publishes the new scene.
func (h *Handlers) UpdateParams(w http.ResponseWriter, r *http.Request) {
	// Read signals before creating the SSE, which consumes the request body.
	var signals struct {
		Params map[string]float64 `json:"params"`
	}
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}

	sse := datastar.NewSSE(w, r)
	s := h.state.Scene()
	if s.Params == nil {
		s.Params = expr.Params{}
	}
	for k, v := range signals.Params {
		s.Params[k] = v
	}
	if err := h.state.Set(s); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) signals(r *http.Request) (*SceneSignals, error) {
	rev := h.state.Revision()
	rendered, err := h.state.Render(r.Context(), nil)
	if err != nil {
		return nil, err
	}
	return &SceneSignals{
		Revision: rev,
		Scene:    rendered.Scene,
		Payload:  export.NewPayload(rendered),
	}, nil
}

// render renders the scene with query overrides and the given mutations.
// It writes the error response and returns false on failure.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, mutate ...func(*scene.Scene)) (*scene.Rendered, bool) {
	rendered, err := h.state.Render(r.Context(), func(s *scene.Scene) error {
		if err := applyQuery(s, r.URL.Query()); err != nil {
			return err
		}
		for _, m := range mutate {
			m(s)
		}
		return nil
	})
	if err != nil {
		var qe *queryError
		if errors.As(err, &qe) || errors.Is(err, scene.ErrUnknownPreset) {
			h.writeError(w, http.StatusBadRequest, err)
			return nil, false
		}
		h.writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return rendered, true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.logger.Debug("request failed", "status", status, "error", err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
