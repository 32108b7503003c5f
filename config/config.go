// Package config provides configuration loading and access for the overlay.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/ember/settings"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all overlay configuration.
type Config struct {
	Screen    ScreenConfig      `yaml:"screen"`
	Fire      settings.Settings `yaml:"fire"`
	Control   ControlConfig     `yaml:"control"`
	Pipeline  PipelineConfig    `yaml:"pipeline"`
	Telemetry TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings.
type ScreenConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Title        string `yaml:"title"`
	TargetFPS    int    `yaml:"target_fps"`    // 0 = pace on vsync only
	HighDPI      bool   `yaml:"high_dpi"`      // Allocate the backing store in physical pixels
	Undecorated  bool   `yaml:"undecorated"`   // No title bar or borders
	Topmost      bool   `yaml:"topmost"`       // Keep above other windows
	ClickThrough bool   `yaml:"click_through"` // Let mouse input reach windows underneath
}

// ControlConfig holds the inbound settings transports.
type ControlConfig struct {
	Stdin        bool   `yaml:"stdin"`          // Read update messages from stdin when it is not a terminal
	Listen       string `yaml:"listen"`         // HTTP listen address; empty disables the endpoint
	MaxBodyBytes int64  `yaml:"max_body_bytes"` // Largest accepted HTTP request body
	InboxSize    int    `yaml:"inbox_size"`     // Queued patches before coalescing
}

// PipelineConfig holds program construction policy.
type PipelineConfig struct {
	RetryInterval float64 `yaml:"retry_interval"` // Seconds between rebuilds after a failure (0 = never retry)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Frames per perf window
	StatsInterval       float64 `yaml:"stats_interval"`        // Seconds between perf log lines
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	RetryInterval time.Duration
	StatsInterval time.Duration
	FrameBudget   time.Duration // Zero when TargetFPS is 0
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.RetryInterval = seconds(c.Pipeline.RetryInterval)
	c.Derived.StatsInterval = seconds(c.Telemetry.StatsInterval)

	c.Derived.FrameBudget = 0
	if c.Screen.TargetFPS > 0 {
		c.Derived.FrameBudget = time.Second / time.Duration(c.Screen.TargetFPS)
	}

	if c.Screen.Width < 1 {
		c.Screen.Width = 1
	}
	if c.Screen.Height < 1 {
		c.Screen.Height = 1
	}
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
