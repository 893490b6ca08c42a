package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}
	def := Default()
	if *cfg != *def {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quadro.toml")
	body := `
[window]
title = "Spinning Quad"
width = 1280
height = 720

[renderer]
frames_in_flight = 3
vsync = false

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Window.Title != "Spinning Quad" || cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("window config = %+v, want overridden values", cfg.Window)
	}
	if cfg.Renderer.FramesInFlight != 3 || cfg.Renderer.VSync {
		t.Errorf("renderer config = %+v, want frames_in_flight=3 vsync=false", cfg.Renderer)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
	// Untouched section keeps defaults.
	if cfg.Assets.Dir != "assets" {
		t.Errorf("assets dir = %q, want default 'assets'", cfg.Assets.Dir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero frames in flight", "[renderer]\nframes_in_flight = 0\n"},
		{"zero window", "[window]\nwidth = 0\nheight = 0\n"},
		{"malformed toml", "[window\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "quadro.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}
