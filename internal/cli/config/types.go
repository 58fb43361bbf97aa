// Package config provides configuration management for the PlotLogic CLI.
//
// The CLI configuration is a scene (see internal/scene) plus settings that
// only matter to the command line: output mode, logging and the geometry
// server.
package config

import (
	"github.com/leapstack-labs/plotlogic/internal/scene"
)

// ServerConfig holds configuration for the geometry server.
type ServerConfig struct {
	Port  int    `koanf:"port"`
	Host  string `koanf:"host"`
	Watch bool   `koanf:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	scene.Scene `koanf:",squash"`

	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
	LogFormat    string       `koanf:"log_format"`
	Server       ServerConfig `koanf:"server"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values
const (
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat  = "text"
	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 8765
	EnvPrefix         = "PLOTLOGIC_"
)

// ConfigFileNames are the config file names searched for, in order.
var ConfigFileNames = []string{"plotlogic.yaml", "plotlogic.yml"}

// SceneConfig returns a copy of the scene part of the configuration.
func (c *Config) SceneConfig() *scene.Scene {
	return c.Scene.Clone()
}
