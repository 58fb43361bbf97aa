package expr

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of compiled formulas a Compiler keeps.
const DefaultCacheSize = 256

// CompilerConfig holds compiler configuration.
type CompilerConfig struct {
	// CacheSize bounds the number of cached evaluators. Zero selects
	// DefaultCacheSize; a negative value disables caching.
	CacheSize int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Compiler compiles formulas and caches the resulting evaluators by source text.
// A cache hit returns the same evaluator a fresh compile would produce.
type Compiler struct {
	mu    sync.RWMutex
	cache map[string]Evaluator
	size  int

	group  singleflight.Group
	logger *slog.Logger
}

// NewCompiler creates a new compiler.
func NewCompiler(cfg CompilerConfig) *Compiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	return &Compiler{
		cache:  make(map[string]Evaluator),
		size:   size,
		logger: logger,
	}
}

var defaultCompiler = NewCompiler(CompilerConfig{})

// Compile compiles src with the process-wide default compiler.
// It never fails: invalid formulas compile to Zero.
func Compile(src string) Evaluator {
	return defaultCompiler.Compile(src)
}

// Compile returns the evaluator for src, or Zero if src does not compile.
func (c *Compiler) Compile(src string) Evaluator {
	if c.size < 0 {
		return c.compile(src)
	}

	c.mu.RLock()
	fn, ok := c.cache[src]
	c.mu.RUnlock()
	if ok {
		return fn
	}

	// Concurrent misses for the same text share one compile.
	v, _, _ := c.group.Do(src, func() (interface{}, error) {
		fn := c.compile(src)

		c.mu.Lock()
		if len(c.cache) >= c.size {
			c.logger.Debug("compile cache full, resetting", "entries", len(c.cache))
			c.cache = make(map[string]Evaluator, c.size)
		}
		c.cache[src] = fn
		c.mu.Unlock()

		return fn, nil
	})
	return v.(Evaluator)
}

func (c *Compiler) compile(src string) Evaluator {
	prog, err := Parse(src)
	if err != nil {
		c.logger.Debug("formula did not compile, using zero evaluator", "formula", src, "error", err)
		return Zero
	}
	return prog.Evaluator()
}

// Len returns the number of cached evaluators.
func (c *Compiler) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Reset drops all cached evaluators.
func (c *Compiler) Reset() {
	c.mu.Lock()
	c.cache = make(map[string]Evaluator, c.size)
	c.mu.Unlock()
}
