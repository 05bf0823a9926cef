package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/hopgraph/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Layout.LinkDistance != 35 || cfg.Layout.ChargeStrength != -100 {
		t.Errorf("layout defaults = %+v", cfg.Layout)
	}
	if cfg.Theme.MinOpacity != 0.3 || cfg.Theme.MaxOpacity != 1 {
		t.Errorf("theme opacities = %v/%v", cfg.Theme.MinOpacity, cfg.Theme.MaxOpacity)
	}
	if cfg.Graph.AnchorRadius != 150 {
		t.Errorf("anchor radius = %v", cfg.Graph.AnchorRadius)
	}
	if cfg.Viewport.Width != 800 || cfg.Viewport.Height != 600 || cfg.Viewport.Margin != 20 {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	if got := Dir(); got != "/tmp/test-xdg/hopgraph" {
		t.Errorf("Dir() = %q", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, _ := os.UserHomeDir()
	if got, want := Path(), filepath.Join(home, ".config", "hopgraph", "config.toml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.TickBudget != 300 {
		t.Errorf("tick budget = %d", cfg.Layout.TickBudget)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Layout.LinkDistance = 50
	cfg.Layout.Cooldown = 3 * time.Second
	cfg.Theme.HighlightColor = "#00ff00"
	cfg.Server.Addr = "127.0.0.1:9000"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Layout.LinkDistance != 50 {
		t.Errorf("link distance = %v", loaded.Layout.LinkDistance)
	}
	if loaded.Layout.Cooldown != 3*time.Second {
		t.Errorf("cooldown = %v", loaded.Layout.Cooldown)
	}
	if loaded.Theme.HighlightColor != "#00ff00" {
		t.Errorf("highlight = %q", loaded.Theme.HighlightColor)
	}
	if loaded.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", loaded.Server.Addr)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[layout]
link_distance = 60.0
cooldown = "1500ms"

[viewport]
width = 1024.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.LinkDistance != 60 || cfg.Layout.Cooldown != 1500*time.Millisecond {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.ChargeStrength != -100 {
		t.Error("unset keys should keep defaults")
	}
	if cfg.Viewport.Width != 1024 || cfg.Viewport.Height != 600 {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[layout\n", "parse"},
		{"unknown key", "[layout]\nspring = 1.0\n", "layout.spring"},
		{"bad color", "[theme]\nhighlight_color = \"red\"\n", "highlight_color"},
		{"bad opacity", "[theme]\nmin_opacity = 0.9\nmax_opacity = 0.5\n", "opacities"},
		{"bad viewport", "[viewport]\nmargin = 400.0\n", "viewport"},
		{"bad decay", "[layout]\nvelocity_decay = 1.5\n", "velocity decay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSchedulerOptions(t *testing.T) {
	cfg := Default()
	cfg.Viewport.Width = 1280
	opts := cfg.SchedulerOptions()
	if opts.Width != 1280 || opts.Layout != cfg.Layout || opts.Theme != cfg.Theme {
		t.Errorf("options = %+v", opts)
	}
}
