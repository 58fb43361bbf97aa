package scene

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/plotlogic/internal/testutil"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, "a*x^2 - b*y^2", s.Expr)
	assert.Equal(t, expr.Params{"a": 1, "b": 1}, s.Params)
	assert.Equal(t, geom.DefaultRange(), s.Range)
	assert.Equal(t, 80, s.Steps)
	assert.Equal(t, field.PresetRotation, s.Field.Preset)
	assert.False(t, s.Field.Normalize)
	assert.Equal(t, 15, s.Field.Steps)
	assert.Equal(t, 1.5, s.Tangent.Size)
	assert.Equal(t, []string{"a", "b"}, s.Symbols())
	assert.Empty(t, s.MissingParams())
	require.NoError(t, s.Validate())
}

func TestApplyDefaults(t *testing.T) {
	s := &Scene{Expr: "x"}
	s.ApplyDefaults()

	assert.NotNil(t, s.Params)
	assert.Equal(t, geom.DefaultRange(), s.Range)
	assert.Equal(t, DefaultSurfaceSteps, s.Steps)
	assert.Equal(t, DefaultFieldSteps, s.Field.Steps)
	assert.Equal(t, DefaultPreset, s.Field.Preset)
	assert.Equal(t, DefaultPlaneColor, s.Tangent.PlaneColor)
	require.NoError(t, s.Validate())
}

func TestClone(t *testing.T) {
	s := Default()
	c := s.Clone()
	c.Params["a"] = 9
	c.Sliders["a"] = Slider{Min: 0, Max: 1}

	assert.Equal(t, 1.0, s.Params["a"])
	assert.Equal(t, DefaultSlider(), s.Sliders["a"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Scene)
		wantErr string
	}{
		{"bad formula", func(s *Scene) { s.Expr = "x +" }, "expr"},
		{"non-finite param", func(s *Scene) { s.Params["a"] = posInf() }, "params.a"},
		{"reversed slider", func(s *Scene) { s.Sliders["a"] = Slider{Min: 1, Max: -1} }, "sliders.a"},
		{"empty range", func(s *Scene) { s.Range = geom.Range{XMin: 1, XMax: 1, YMin: 0, YMax: 1} }, "range"},
		{"too few steps", func(s *Scene) { s.Steps = 1 }, "steps"},
		{"too many field steps", func(s *Scene) { s.Field.Steps = field.MaxSteps + 1 }, "field.steps"},
		{"unknown preset", func(s *Scene) { s.Field.Preset = "vortex" }, "unknown field preset"},
		{"bad u formula", func(s *Scene) { s.Field.U = "sin("; s.Field.V = "x" }, "field.u"},
		{"bad color", func(s *Scene) { s.Tangent.ArrowColor = "red" }, "tangent.arrow_color"},
		{"zero tangent size", func(s *Scene) { s.Tangent.Size = -1 }, "tangent.size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidScene)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_UnknownPresetSentinel(t *testing.T) {
	s := Default()
	s.Field.Preset = "nope"
	assert.ErrorIs(t, s.Validate(), ErrUnknownPreset)
}

func TestSliderClamp(t *testing.T) {
	sl := DefaultSlider()

	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{10, 3},
		{-10, -3},
		{0.33, 0.3},
		{1.26, 1.3},
		{nan(), -3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, sl.Clamp(tt.in), 1e-12, "clamp(%v)", tt.in)
	}

	assert.Equal(t, 0.123, Slider{Min: 0, Max: 1}.Clamp(0.123))
}

func TestClamp(t *testing.T) {
	s := Default()
	s.Params["a"] = 7
	s.Params["c"] = 100
	s.Steps = 1 << 20
	s.Field.Steps = 0
	s.Range = geom.Range{XMin: 2, XMax: -2, YMin: -1, YMax: 1}

	s.Clamp()

	assert.Equal(t, 3.0, s.Params["a"])
	assert.Equal(t, 100.0, s.Params["c"], "params without a slider are left alone")
	assert.Equal(t, surface.MaxSteps, s.Steps)
	assert.Equal(t, 2, s.Field.Steps)
	assert.Equal(t, geom.Range{XMin: -2, XMax: 2, YMin: -1, YMax: 1}, s.Range)
}

func TestMissingParams(t *testing.T) {
	s := Default()
	s.Expr = "k*sin(x) + a"
	assert.Equal(t, []string{"k"}, s.MissingParams())

	s.Expr = "((("
	assert.Empty(t, s.Symbols())
}

func TestFieldSource(t *testing.T) {
	assert.Equal(t, "preset", FieldConfig{Preset: "radial"}.Source())
	assert.Equal(t, "formula", FieldConfig{U: "y"}.Source())
	assert.Equal(t, "script", FieldConfig{U: "y", Script: "f.star"}.Source())
}

func TestLoadBytes(t *testing.T) {
	doc := `
expr: sin(k*x) * cos(y)
params:
  k: 2
range: "-1,1,-3,3"
steps: 20
field:
  preset: radial
  normalize: true
tangent:
  x: 0.25
`
	s, err := LoadBytes([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "sin(k*x) * cos(y)", s.Expr)
	assert.Equal(t, 2.0, s.Params["k"])
	assert.Equal(t, 1.0, s.Params["a"], "defaults stay underneath")
	assert.Equal(t, geom.Range{XMin: -1, XMax: 1, YMin: -3, YMax: 3}, s.Range)
	assert.Equal(t, 20, s.Steps)
	assert.Equal(t, field.PresetRadial, s.Field.Preset)
	assert.True(t, s.Field.Normalize)
	assert.Equal(t, DefaultFieldSteps, s.Field.Steps)
	assert.Equal(t, 0.25, s.Tangent.X)
	assert.Equal(t, DefaultTangentY, s.Tangent.Y)
	assert.True(t, s.Tangent.Enabled)
}

func TestLoadBytes_JSON(t *testing.T) {
	s, err := LoadBytes([]byte(`{"expr": "x*y", "params": "a=2, c=0.5", "range": "3"}`))
	require.NoError(t, err)

	assert.Equal(t, "x*y", s.Expr)
	assert.Equal(t, expr.Params{"a": 2, "c": 0.5}, s.Params)
	assert.Equal(t, geom.Square(3), s.Range)
}

func TestLoadBytes_Empty(t *testing.T) {
	s, err := LoadBytes(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadBytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "expr: [unclosed"},
		{"bad params", `params: "a"`},
		{"bad param value", `params: "a=x"`},
		{"bad range", `range: "1,2,3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	s := Default()
	s.Expr = "exp(-(x^2+y^2))"
	s.Field.U = "-y"
	s.Field.V = "x"
	s.Tangent.Enabled = false

	data, err := s.YAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]string{"a=1", " b = -2.5 ", ""})
	require.NoError(t, err)
	assert.Equal(t, expr.Params{"a": 1, "b": -2.5}, p)

	_, err = ParseParams([]string{"=1"})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	s := Default()
	s.Steps = 10
	s.Field.Steps = 5

	logger, rec := testutil.NewLogRecorder()
	r, err := Render(context.Background(), s, RenderOptions{Logger: logger})
	require.NoError(t, err)
	assert.True(t, rec.Contains("scene rendered"))

	assert.Len(t, r.Mesh.Vertices, surface.VertexCount(10))
	assert.Len(t, r.Arrows, 25)
	require.NotNil(t, r.Tangent)
	assert.InDelta(t, 1.0, r.Tangent.DfDx, 1e-6)
	assert.InDelta(t, -1.0, r.Tangent.DfDy, 1e-6)
	assert.Equal(t, []string{"a", "b"}, r.Symbols)

	from, to, ok := r.TangentArrow()
	require.True(t, ok)
	assert.InDelta(t, DefaultArrowLength, to.Sub(from).Length(), 1e-9)
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	s := &Scene{Expr: "x"}
	_, err := Render(context.Background(), s, RenderOptions{})
	require.NoError(t, err)
	assert.Zero(t, s.Steps)
	assert.Nil(t, s.Params)
}

func TestRender_BadFormulaIsFlat(t *testing.T) {
	s := Default()
	s.Expr = "sin("
	s.Steps = 4

	r, err := Render(context.Background(), s, RenderOptions{Compiler: expr.NewCompiler(expr.CompilerConfig{})})
	require.NoError(t, err)
	for _, v := range r.Mesh.Vertices {
		assert.Zero(t, v.Position.Y)
	}
	assert.Empty(t, r.Symbols)
}

func TestRender_TangentDisabled(t *testing.T) {
	s := Default()
	s.Tangent.Enabled = false

	r, err := Render(context.Background(), s, RenderOptions{})
	require.NoError(t, err)
	assert.Nil(t, r.Tangent)
	_, _, ok := r.TangentArrow()
	assert.False(t, ok)
}

func TestRender_FieldSources(t *testing.T) {
	dir := t.TempDir()
	script := "def field(x, y):\n    return (x * params['a'], 0)\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.star"), []byte(script), 0o600))

	tests := []struct {
		name  string
		field FieldConfig
		want  geom.Vec3
	}{
		{"preset", FieldConfig{Preset: field.PresetZero}, field.FallbackDirection},
		{"formula", FieldConfig{U: "0", V: "a"}, geom.V3(0, 0, 1)},
		{"script", FieldConfig{Script: "f.star"}, geom.V3(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			s.Field = tt.field
			s.Field.Steps = 3
			s.Field.Normalize = true
			s.Range = geom.Range{XMin: 1, XMax: 2, YMin: 1, YMax: 2}

			r, err := Render(context.Background(), s, RenderOptions{BaseDir: dir})
			require.NoError(t, err)
			require.Len(t, r.Arrows, 9)
			for _, a := range r.Arrows {
				assert.InDelta(t, tt.want.X, a.Direction.X, 1e-9)
				assert.InDelta(t, tt.want.Z, a.Direction.Z, 1e-9)
				assert.InDelta(t, field.ArrowLength, a.Length, 1e-12)
			}
		})
	}
}

func TestRender_FieldErrors(t *testing.T) {
	s := Default()
	s.Field.Preset = "vortex"
	_, err := Render(context.Background(), s, RenderOptions{})
	assert.ErrorIs(t, err, ErrUnknownPreset)

	s = Default()
	s.Field.Script = filepath.Join(t.TempDir(), "missing.star")
	_, err = Render(context.Background(), s, RenderOptions{})
	assert.Error(t, err)
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Render(ctx, Default(), RenderOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func posInf() float64 { return math.Inf(1) }

func nan() float64 { return math.NaN() }
