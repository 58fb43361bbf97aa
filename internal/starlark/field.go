package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FieldFunc is the name of the function a script must define.
const FieldFunc = "field"

// LoadError reports a script that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Config holds script field configuration.
type Config struct {
	Params expr.Params
	// PoolSize bounds idle threads (optional, defaults to 10)
	PoolSize int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// ScriptField is a loaded field script. It is safe for concurrent use.
type ScriptField struct {
	name   string
	fn     starlark.Callable
	pool   *ThreadPool
	logger *slog.Logger
}

// LoadFile reads and executes the script at path.
func LoadFile(path string, cfg Config) (*ScriptField, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path comes from user config
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}
	return Load(path, src, cfg)
}

// Load executes src and resolves its field function. name is used in
// error messages and thread names.
func Load(name string, src []byte, cfg Config) (*ScriptField, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool := NewThreadPool(cfg.PoolSize, logger)

	thread := pool.Get("load:" + filepath.Base(name))
	defer pool.Put(thread)

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, name, src, Predeclared(cfg.Params))
	if err != nil {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("starlark execution error: %v", err)}
	}
	globals.Freeze()

	v, ok := globals[FieldFunc]
	if !ok {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("script does not define %s(x, y)", FieldFunc)}
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("%s is a %s, not a function", FieldFunc, v.Type())}
	}
	if f, isFunc := fn.(*starlark.Function); isFunc && f.NumParams() != 2 {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("%s must take 2 parameters, takes %d", FieldFunc, f.NumParams())}
	}

	return &ScriptField{
		name:   filepath.Base(name),
		fn:     fn,
		pool:   pool,
		logger: logger,
	}, nil
}

// Eval evaluates the field at (x, y).
func (s *ScriptField) Eval(x, y float64) (geom.Vec2, error) {
	thread := s.pool.Get("field:" + s.name)
	defer s.pool.Put(thread)

	v, err := starlark.Call(thread, s.fn, starlark.Tuple{starlark.Float(x), starlark.Float(y)}, nil)
	if err != nil {
		return geom.Vec2{}, err
	}
	return ToVec2(v)
}

// Func returns the script as a field.VectorFunc. Samples where the script
// fails are the zero vector.
func (s *ScriptField) Func() field.VectorFunc {
	return func(x, y float64) geom.Vec2 {
		v, err := s.Eval(x, y)
		if err != nil {
			s.logger.Debug("field script failed, using zero vector", "script", s.name, "x", x, "y", y, "error", err)
			return geom.Vec2{}
		}
		return v
	}
}

// Name returns the base name of the script.
func (s *ScriptField) Name() string { return s.name }
