package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/plotlogic/internal/scene"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps CLI flag names to config keys. Flags not listed here are
// command options that are not part of the configuration.
var flagKeys = map[string]string{
	"expr":        "expr",
	"param":       "params",
	"range":       "range",
	"steps":       "steps",
	"preset":      "field.preset",
	"normalize":   "field.normalize",
	"field-steps": "field.steps",
	"u":           "field.u",
	"v":           "field.v",
	"script":      "field.script",
	"size":        "tangent.size",
	"at":          "tangent",
	"output":      "output",
	"verbose":     "verbose",
	"log-format":  "log_format",
	"port":        "server.port",
	"host":        "server.host",
	"watch":       "server.watch",
}

// KeyForFlag returns the config key a CLI flag sets.
func KeyForFlag(flag string) (string, bool) {
	key, ok := flagKeys[flag]
	return key, ok
}

// FlagForKey returns the CLI flag that sets key, either directly or through
// a parent key ("params.a" is set by --param, "range.xmin" by --range).
func FlagForKey(key string) (string, bool) {
	if key == "tangent.x" || key == "tangent.y" {
		return "at", true
	}
	var parent string
	for flag, k := range flagKeys {
		switch {
		case k == key:
			return flag, true
		case k != "tangent" && strings.HasPrefix(key, k+"."):
			parent = flag
		}
	}
	return parent, parent != ""
}

// EnvVar returns the environment variable that sets key.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a plotlogic config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if f := configExistsIn(dir); f != "" {
			return f
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// Defaults returns the default configuration as flat koanf keys.
func Defaults() map[string]any {
	m := scene.DefaultMap()
	m["verbose"] = false
	m["output"] = DefaultOutput
	m["log_format"] = DefaultLogFormat
	m["server.host"] = DefaultServerHost
	m["server.port"] = DefaultServerPort
	m["server.watch"] = true
	return m
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file: explicit path, else search upward from CWD
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfgFile = findConfigUpward(cwd)
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (PLOTLOGIC_ prefix)
	// Transform: PLOTLOGIC_LOG_FORMAT -> log_format, PLOTLOGIC_FIELD__PRESET -> field.preset
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagValue(flags)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       scene.DecodeHook(),
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Scene.ApplyDefaults()

	// 6. Resolve the project root: the config file's directory, else CWD
	if configFileUsed != "" {
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			cfg.ProjectRoot = filepath.Dir(abs)
		}
	}
	if cfg.ProjectRoot == "" {
		cwd, _ := os.Getwd()
		if cwd == "" {
			cwd = "."
		}
		cfg.ProjectRoot = cwd
	}

	// A script path from the config file is relative to the project root;
	// one passed as a flag is relative to the CWD.
	if s := cfg.Field.Script; s != "" && !filepath.IsAbs(s) {
		if flags != nil && flags.Changed("script") {
			if abs, err := filepath.Abs(s); err == nil {
				cfg.Field.Script = abs
			}
		} else {
			cfg.Field.Script = filepath.Join(cfg.ProjectRoot, s)
		}
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// envKey maps an environment variable to a config key. A double
// underscore separates nesting levels.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// flagValue returns the posflag callback. Only explicitly set flags are
// loaded, under their config key.
func flagValue(flags *pflag.FlagSet) func(f *pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		val := posflag.FlagVal(flags, f)

		switch key {
		case "params":
			// --param a=1 merges into the configured params instead of
			// replacing them. Unparseable values are passed through so
			// decoding reports them.
			items, _ := val.([]string)
			p, err := scene.ParseParams(items)
			if err != nil {
				return key, items
			}
			m := make(map[string]interface{}, len(p))
			for name, v := range p {
				m[name] = v
			}
			return key, m
		case "tangent":
			// --at x,y sets both coordinates.
			x, y, err := ParsePoint(fmt.Sprint(val))
			if err != nil {
				return "tangent.x", fmt.Sprint(val)
			}
			return key, map[string]interface{}{"x": x, "y": y}
		}
		return key, val
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
