// Package config loads and saves the hopgraph configuration file.
//
// The file is TOML, by default at $XDG_CONFIG_HOME/hopgraph/config.toml:
//
//	[layout]
//	link_distance = 35.0
//	charge_strength = -100.0
//	cooldown = "2s"
//
//	[theme]
//	highlight_color = "#ff4d4f"
//
//	[viewport]
//	width = 800.0
//	height = 600.0
//	margin = 20.0
//
// Missing keys keep their defaults; unknown keys are rejected.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/layout"
	"github.com/matzehuels/hopgraph/pkg/scheduler"
	"github.com/matzehuels/hopgraph/pkg/selection"
)

// AppName names the config and cache directories.
const AppName = "hopgraph"

// Config holds the hopgraph configuration.
type Config struct {
	Layout    layout.Config   `toml:"layout"`
	Graph     graph.Options   `toml:"graph"`
	Theme     selection.Theme `toml:"theme"`
	Viewport  ViewportConfig  `toml:"viewport"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Server    ServerConfig    `toml:"server"`
	Source    SourceConfig    `toml:"source"`
}

// ViewportConfig is the container the layout is fitted to.
type ViewportConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Margin float64 `toml:"margin"`
}

// SchedulerConfig controls frame cadence and resize debouncing.
type SchedulerConfig struct {
	Frame          time.Duration `toml:"frame"`
	ResizeDebounce time.Duration `toml:"resize_debounce"`
}

// ServerConfig controls `hopgraph serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	Metrics         bool          `toml:"metrics"`
}

// SourceConfig controls fetching run files over HTTP.
type SourceConfig struct {
	Timeout  time.Duration `toml:"timeout"`
	CacheTTL time.Duration `toml:"cache_ttl"`
	Retries  int           `toml:"retries"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: layout.DefaultConfig(),
		Graph: graph.Options{
			AnchorRadius:      graph.DefaultAnchorRadius,
			AnchorNodeRadius:  graph.DefaultAnchorNodeRadius,
			TransitNodeRadius: graph.DefaultTransitNodeRadius,
		},
		Theme: selection.DefaultTheme(),
		Viewport: ViewportConfig{
			Width:  scheduler.DefaultWidth,
			Height: scheduler.DefaultHeight,
			Margin: scheduler.DefaultMargin,
		},
		Scheduler: SchedulerConfig{
			Frame:          scheduler.DefaultFrame,
			ResizeDebounce: scheduler.DefaultResizeDebounce,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
		Source: SourceConfig{
			Timeout:  30 * time.Second,
			CacheTTL: 24 * time.Hour,
			Retries:  3,
		},
	}
}

// Dir returns the hopgraph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path over the defaults. An empty path uses
// [Path]. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. An empty path uses
// [Path].
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return buf.Bytes(), nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Graph.AnchorRadius <= 0 || c.Graph.AnchorNodeRadius <= 0 || c.Graph.TransitNodeRadius <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "graph radii must be positive")
	}
	for name, color := range map[string]string{
		"highlight_color": c.Theme.HighlightColor,
		"anchor_color":    c.Theme.AnchorColor,
		"transit_color":   c.Theme.TransitColor,
		"edge_color":      c.Theme.EdgeColor,
	} {
		if !hexColor.MatchString(color) {
			return errors.New(errors.ErrCodeInvalidConfig, "theme %s %q is not a hex color", name, color)
		}
	}
	t := c.Theme
	if t.MinOpacity < 0 || t.MaxOpacity > 1 || t.MinOpacity > t.MaxOpacity {
		return errors.New(errors.ErrCodeInvalidConfig, "theme opacities must satisfy 0 <= min <= max <= 1")
	}
	if t.EdgeWidth <= 0 || t.EmphasisWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "theme widths must be positive")
	}
	if err := errors.ValidateDimensions(c.Viewport.Width, c.Viewport.Height, c.Viewport.Margin); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "viewport")
	}
	if c.Scheduler.Frame <= 0 || c.Scheduler.ResizeDebounce < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scheduler frame must be positive")
	}
	if c.Source.Retries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "source retries must not be negative")
	}
	return nil
}

// SchedulerOptions converts the config into scheduler options.
func (c *Config) SchedulerOptions() scheduler.Options {
	return scheduler.Options{
		Layout:         c.Layout,
		Graph:          c.Graph,
		Theme:          c.Theme,
		Width:          c.Viewport.Width,
		Height:         c.Viewport.Height,
		Margin:         c.Viewport.Margin,
		ResizeDebounce: c.Scheduler.ResizeDebounce,
	}
}
