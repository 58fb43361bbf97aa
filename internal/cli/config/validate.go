package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
)

// Validate checks if the configuration is valid. Scene problems are
// reported by ValidateScene so commands that never render can still run.
func (c *Config) Validate() error {
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [0, 65535], got %d", c.Server.Port)
	}
	return nil
}

// ValidateScene checks the scene part of the configuration.
func (c *Config) ValidateScene() error {
	if err := c.Scene.Validate(); err != nil {
		if f := GetConfigFileUsed(); f != "" {
			return fmt.Errorf("%w\nHint: check %s or the corresponding flags", err, f)
		}
		return err
	}
	return nil
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, errors.New("expected a point as x,y")
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y: %w", err)
	}
	return x, y, nil
}
