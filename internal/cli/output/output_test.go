package output

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

func newRenderer(mode Mode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		tty  bool
		want Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeYAML, false, ModeYAML},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		r, _, _ := newRenderer(tt.mode, tt.tty)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode=%q tty=%v", tt.mode, tt.tty)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, ModeJSON, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)

	_, err = ParseMode("xml")
	assert.ErrorContains(t, err, "invalid output mode")
}

func TestNewRenderer_NonFile(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
	assert.False(t, r.Styles().Colored())
}

func TestHeader(t *testing.T) {
	r, out, _ := newRenderer(ModeMarkdown, false)
	r.Header(2, "Surface")
	assert.Equal(t, "## Surface\n\n", out.String())

	r, out, _ = newRenderer(ModeText, false)
	r.Header(1, "Surface")
	assert.Equal(t, "Surface\n", out.String())
}

func TestMessages(t *testing.T) {
	r, out, errOut := newRenderer(ModeText, false)
	r.Success("done")
	r.Muted("quiet")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "✓ done\nquiet\n", out.String())
	assert.Equal(t, "! careful\n✗ broken\n", errOut.String())
}

func TestKeyValue(t *testing.T) {
	r, out, _ := newRenderer(ModeMarkdown, false)
	r.KeyValue("Steps", 80)
	assert.Equal(t, "- **Steps:** 80\n", out.String())

	r, out, _ = newRenderer(ModeText, false)
	r.KeyValue("Steps", 80)
	assert.Equal(t, "Steps: 80\n", out.String())
}

func TestStructured(t *testing.T) {
	v := SymbolsOutput{Expr: "a*x", Symbols: []string{"a"}}

	r, out, _ := newRenderer(ModeJSON, false)
	ok, err := r.Structured(v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"expr":"a*x","symbols":["a"]}`, out.String())

	r, out, _ = newRenderer(ModeYAML, false)
	ok, err = r.Structured(v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "expr: a*x\nsymbols:\n  - a\n", out.String())

	r, out, _ = newRenderer(ModeText, false)
	ok, err = r.Structured(v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

func TestTable(t *testing.T) {
	rows := [][]any{{"rotation", 1.5}, {"radial", 2}}

	r, out, _ := newRenderer(ModeMarkdown, false)
	r.Table([]string{"Preset", "Peak"}, rows)
	md := out.String()
	assert.Contains(t, md, "| Preset | Peak |")
	assert.Contains(t, md, "| rotation | 1.5 |")

	r, out, _ = newRenderer(ModeText, false)
	r.Table([]string{"Preset", "Peak"}, rows)
	text := out.String()
	assert.Contains(t, text, "Preset")
	assert.Contains(t, text, "┌")
	assert.Contains(t, text, "radial")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "# A", FormatHeader(0, "A"))
	assert.Equal(t, "###### A", FormatHeader(9, "A"))
	assert.Equal(t, "- **k:** v", FormatKeyValue("k", "v"))
	assert.Equal(t, "```yaml\na: 1\n```", FormatCodeBlock("yaml", "a: 1\n"))
	assert.Equal(t, "Rotation Field", Title("rotation field"))
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		v    float64
		prec int
		want string
	}{
		{1.5, 4, "1.5"},
		{2, 4, "2"},
		{-0.00001, 3, "0"},
		{math.Copysign(0, -1), 3, "0"},
		{1234.56789, 2, "1234.57"},
		{math.Inf(1), 2, "+Inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.v, tt.prec))
	}
	assert.Equal(t, "(1, -2.5, 0)", FormatVec(3, 1, -2.5, 0))
}

func TestHeatmap_Plain(t *testing.T) {
	// z = x rises left to right.
	m := surface.Build(expr.Compile("x"), nil, geom.DefaultRange(), 10)
	hm := Heatmap(m, 10, 4, false)

	lines := strings.Split(hm, "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		require.Len(t, line, 10)
		assert.Equal(t, byte(' '), line[0])
		assert.Equal(t, byte('@'), line[9])
	}
}

func TestHeatmap_TopRowIsMaxY(t *testing.T) {
	m := surface.Build(expr.Compile("y"), nil, geom.DefaultRange(), 8)
	lines := strings.Split(Heatmap(m, 3, 8, false), "\n")
	assert.Equal(t, "@@@", lines[0])
	assert.Equal(t, "   ", lines[len(lines)-1])
}

func TestHeatmap_Empty(t *testing.T) {
	assert.Empty(t, Heatmap(nil, 10, 10, false))
}
