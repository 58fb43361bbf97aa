package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/plotlogic/internal/export"
	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/internal/testutil"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func testScene() *scene.Scene {
	s := scene.Default()
	s.Expr = "a*x + y"
	s.Params = expr.Params{"a": 2}
	s.Steps = 4
	s.Field.Steps = 3
	return s
}

func setupTestServer(t *testing.T, load LoadFunc) (*Server, *State) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	st := NewState(testScene(), load, scene.RenderOptions{Logger: logger}, nil)
	srv := NewServer(Config{State: st, Host: "127.0.0.1", Logger: logger})
	return srv, st
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// Geometry endpoints
// =============================================================================

func TestHealth(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSurface(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantCount int
		wantSteps int
	}{
		{"scene steps", "/api/surface", 6 * 3 * 3, 4},
		{"query steps", "/api/surface?steps=10", 6 * 9 * 9, 10},
		{"steps clamped", "/api/surface?steps=1", 6, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTestServer(t, nil)
			rec := doRequest(t, srv.Handler(), http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			m := decode[export.MeshPayload](t, rec)
			assert.Equal(t, tt.wantCount, m.Count)
			assert.Equal(t, tt.wantSteps, m.Steps)
			assert.Len(t, m.Positions, 3*tt.wantCount)
			assert.Len(t, m.Colors, 3*tt.wantCount)
		})
	}
}

func TestSurface_BadFormulaRendersFlat(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/surface?expr=sin(", "")
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode[export.MeshPayload](t, rec)
	assert.Equal(t, 0.0, m.ZMin)
	assert.Equal(t, 0.0, m.ZMax)
}

func TestSurfaceOBJ(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/surface.obj", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/obj", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "o surface\n")
	assert.Contains(t, rec.Body.String(), "o tangent\n")
}

func TestTangent(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/tangent?x=1&y=0&size=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tp := decode[export.TangentPayload](t, rec)
	assert.Equal(t, [6]uint16{0, 1, 2, 0, 2, 3}, tp.Indices)
	assert.InDelta(t, 2.0, tp.DfDx, 1e-6)
	assert.InDelta(t, 1.0, tp.DfDy, 1e-6)
	assert.InDelta(t, 2.0, tp.Origin[1], 1e-9, "height of a*x + y at (1, 0)")
	// First corner is (x-h, y-h) = (0, -1).
	assert.InDelta(t, 0.0, tp.Positions[0], 1e-6)
	assert.InDelta(t, -1.0, tp.Positions[2], 1e-6)
}

func TestField(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantCount int
	}{
		{"scene preset", "/api/field", http.StatusOK, 9},
		{"preset override", "/api/field?preset=radial&field_steps=5", http.StatusOK, 25},
		{"formula", "/api/field?u=-y&v=x&normalize=true", http.StatusOK, 9},
		{"unknown preset", "/api/field?preset=vortex", http.StatusBadRequest, 0},
		{"bad bool", "/api/field?normalize=maybe", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTestServer(t, nil)
			rec := doRequest(t, srv.Handler(), http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"error"`)
				return
			}
			f := decode[export.FieldPayload](t, rec)
			assert.Equal(t, tt.wantCount, f.Count)
			assert.Len(t, f.Origins, 3*tt.wantCount)
			assert.Len(t, f.Lengths, tt.wantCount)
		})
	}
}

func TestRender(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/render?p=a=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := decode[export.Payload](t, rec)
	assert.Equal(t, "a*x + y", p.Expr)
	assert.Equal(t, []string{"a"}, p.Symbols)
	require.NotNil(t, p.Tangent)
	assert.InDelta(t, 3.0, p.Tangent.DfDx, 1e-6)
	assert.Equal(t, 9, p.Field.Count)
}

func TestBadQuery(t *testing.T) {
	for _, target := range []string{
		"/api/surface?steps=many",
		"/api/surface?range=1,2",
		"/api/surface?p=a",
		"/api/tangent?x=left",
	} {
		t.Run(target, func(t *testing.T) {
			srv, _ := setupTestServer(t, nil)
			rec := doRequest(t, srv.Handler(), http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "query parameter")
		})
	}
}

// =============================================================================
// Formula endpoints
// =============================================================================

func TestPresets(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, field.Presets(), decode[[]string](t, rec))
}

func TestSymbols(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		wantSymbols []string
		wantErr     bool
	}{
		{"scene formula", "/api/symbols", []string{"a"}, false},
		{"query formula", "/api/symbols?expr=k*sin(w*x)%2Bpi", []string{"k", "w"}, false},
		{"parse error", "/api/symbols?expr=(x", []string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTestServer(t, nil)
			rec := doRequest(t, srv.Handler(), http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)

			resp := decode[SymbolsResponse](t, rec)
			assert.Equal(t, tt.wantSymbols, resp.Symbols)
			assert.Equal(t, tt.wantErr, resp.Error != "")
		})
	}
}

func TestEval(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/eval?expr=x*y&x=2&y=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[EvalResponse](t, rec)
	assert.InDelta(t, 6.0, resp.Value, 1e-12)
	assert.InDelta(t, 3.0, resp.DfDx, 1e-6)
	assert.InDelta(t, 2.0, resp.DfDy, 1e-6)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/api/eval?expr=x*", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Scene updates
// =============================================================================

func TestPutScene(t *testing.T) {
	srv, st := setupTestServer(t, nil)
	h := srv.Handler()

	updates := st.Notifier().Subscribe()
	defer st.Notifier().Unsubscribe(updates)

	rec := doRequest(t, h, http.MethodPost, "/api/scene", "expr: sin(k*x)\nparams:\n  k: 9\nsliders:\n  k: {min: 0, max: 5, step: 0.5}\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[scene.Scene](t, rec)
	assert.Equal(t, "sin(k*x)", got.Expr)
	assert.Equal(t, 5.0, got.Params["k"], "params are clamped to their sliders")
	assert.Equal(t, uint64(1), st.Revision())

	select {
	case rev := <-updates:
		assert.Equal(t, uint64(1), rev)
	case <-time.After(time.Second):
		t.Fatal("scene update was not broadcast")
	}

	rec = doRequest(t, h, http.MethodGet, "/api/scene", "")
	assert.Equal(t, "sin(k*x)", decode[scene.Scene](t, rec).Expr)
}

func TestPutScene_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed", "expr: [", http.StatusBadRequest},
		{"script", "field:\n  script: /etc/passwd\n", http.StatusBadRequest},
		{"invalid", "expr: \"(x\"\n", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, st := setupTestServer(t, nil)
			rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/scene", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, uint64(0), st.Revision())
			assert.Equal(t, "a*x + y", st.Scene().Expr)
		})
	}
}

func TestSceneUpdates_Stream(t *testing.T) {
	srv, st := setupTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/scene/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(resp.Body)
	lines.Buffer(make([]byte, 0, 1<<20), 1<<24)
	waitFor := func(want string) {
		t.Helper()
		for lines.Scan() {
			if strings.Contains(lines.Text(), want) {
				return
			}
		}
		t.Fatalf("stream ended before %q", want)
	}

	waitFor(`"revision":0`)

	require.Eventually(t, func() bool { return st.Notifier().Len() == 1 }, time.Second, 10*time.Millisecond)
	s := st.Scene()
	s.Params["a"] = 1
	require.NoError(t, st.Set(s))
	waitFor(`"revision":1`)
}

func TestUpdateParams(t *testing.T) {
	srv, st := setupTestServer(t, nil)
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/scene/params", `{"params":{"a":-1.5,"b":2}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, expr.Params{"a": -1.5, "b": 2}, st.Scene().Params)
	assert.Equal(t, uint64(1), st.Revision())
}

// =============================================================================
// Serve and watch
// =============================================================================

func TestState_Reload(t *testing.T) {
	calls := 0
	st := NewState(nil, func() (*scene.Scene, error) {
		calls++
		s := scene.Default()
		s.Expr = "x - y"
		return s, nil
	}, scene.RenderOptions{}, nil)

	require.NoError(t, st.Reload())
	assert.Equal(t, 1, calls)
	assert.Equal(t, "x - y", st.Scene().Expr)
	assert.Equal(t, uint64(1), st.Revision())

	none := NewState(nil, nil, scene.RenderOptions{}, nil)
	assert.NoError(t, none.Reload())
	assert.Equal(t, uint64(0), none.Revision())
}

func TestServe_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plotlogic.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expr: x\n"), 0600))

	load := func() (*scene.Scene, error) { return scene.Load(path) }
	initial, err := load()
	require.NoError(t, err)

	logger, rec := testutil.NewLogRecorder()
	st := NewState(initial, load, scene.RenderOptions{}, nil)
	srv := NewServer(Config{State: st, Host: "127.0.0.1", Port: 0, Watch: true, WatchFiles: []string{path}, Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var addr string
	select {
	case addr = <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("expr: x*y\n"), 0600))

	assert.Eventually(t, func() bool {
		return st.Scene().Expr == "x*y"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool { return rec.Contains("scene reloaded") }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
