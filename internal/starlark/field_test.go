package starlark_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	starfield "github.com/leapstack-labs/plotlogic/internal/starlark"
	"github.com/leapstack-labs/plotlogic/internal/testutil"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rotationScript = `
def field(x, y):
    return (-y * params["k"], x)
`

func TestLoadAndEval(t *testing.T) {
	sf, err := starfield.Load("rotation.star", []byte(rotationScript), starfield.Config{
		Params: expr.Params{"k": 2},
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "rotation.star", sf.Name())

	v, err := sf.Eval(1, 3)
	require.NoError(t, err)
	assert.Equal(t, geom.V2(-6, 1), v)
}

func TestScriptUsesMathAndFormula(t *testing.T) {
	src := `
g = formula("a*x^2 + y")

def field(x, y):
    return [math.cos(x), g(x, y)]
`
	sf, err := starfield.Load("mixed.star", []byte(src), starfield.Config{Params: expr.Params{"a": 3}})
	require.NoError(t, err)

	v, err := sf.Eval(0, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1, v.X, 1e-12)
	assert.InDelta(t, 2, v.Y, 1e-12)

	v, err = sf.Eval(2, 1)
	require.NoError(t, err)
	assert.InDelta(t, 13, v.Y, 1e-12)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		errSubstr string
	}{
		{name: "syntax error", src: "def field(x, y)\n  return (x, y)", errSubstr: "starlark execution error"},
		{name: "missing function", src: "x = 1", errSubstr: "does not define field"},
		{name: "not callable", src: "field = 3", errSubstr: "not a function"},
		{name: "wrong arity", src: "def field(x):\n    return (x, x)", errSubstr: "must take 2 parameters"},
		{name: "bad formula", src: "g = formula('x +* y')\ndef field(x, y):\n    return (0, 0)", errSubstr: "expected operand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := starfield.Load(tt.name+".star", []byte(tt.src), starfield.Config{})
			require.Error(t, err)
			var loadErr *starfield.LoadError
			assert.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestFuncFailsSoft(t *testing.T) {
	src := `
def field(x, y):
    if x > 0:
        return (1 / 0, 0)
    if y > 0:
        return "not a vector"
    return (1, 2)
`
	sf, err := starfield.Load("soft.star", []byte(src), starfield.Config{})
	require.NoError(t, err)

	f := sf.Func()
	assert.Equal(t, geom.Vec2{}, f(1, 0))
	assert.Equal(t, geom.Vec2{}, f(-1, 1))
	assert.Equal(t, geom.V2(1, 2), f(-1, -1))
}

func TestRunawayScriptIsStopped(t *testing.T) {
	src := `
def field(x, y):
    n = 0
    for i in range(100000000):
        n += 1
    return (n, 0)
`
	sf, err := starfield.Load("slow.star", []byte(src), starfield.Config{})
	require.NoError(t, err)

	_, err = sf.Eval(0, 0)
	assert.Error(t, err)
	assert.Equal(t, geom.Vec2{}, sf.Func()(0, 0))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radial.star")
	require.NoError(t, os.WriteFile(path, []byte("def field(x, y):\n    return (x, y)\n"), 0o600))

	sf, err := starfield.LoadFile(path, starfield.Config{})
	require.NoError(t, err)
	assert.Equal(t, "radial.star", sf.Name())

	_, err = starfield.LoadFile(filepath.Join(dir, "missing.star"), starfield.Config{})
	assert.ErrorContains(t, err, "failed to read file")
}

func TestScriptFieldSamplesConcurrently(t *testing.T) {
	sf, err := starfield.Load("rotation.star", []byte(rotationScript), starfield.Config{Params: expr.Params{"k": 1}})
	require.NoError(t, err)

	want := field.Sample(field.Preset(field.PresetRotation), false, geom.DefaultRange(), 7)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := field.Sample(sf.Func(), false, geom.DefaultRange(), 7)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
