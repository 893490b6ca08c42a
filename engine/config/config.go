package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ApplicationConfig is the engine configuration, loaded from a TOML file.
// Missing fields keep their defaults; a missing file is not an error.
type ApplicationConfig struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Log      LogConfig      `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	// FramesInFlight is the number of frame slots cycled by the renderer.
	// Fixed for the lifetime of the process.
	FramesInFlight int  `toml:"frames_in_flight"`
	VSync          bool `toml:"vsync"`
}

type AssetsConfig struct {
	Dir            string `toml:"dir"`
	Texture        string `toml:"texture"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	HotReload      bool   `toml:"hot_reload"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Title:  "Quadro",
			Width:  800,
			Height: 600,
		},
		Renderer: RendererConfig{
			FramesInFlight: 2,
			VSync:          true,
		},
		Assets: AssetsConfig{
			Dir:            "assets",
			Texture:        "textures/quad.png",
			VertexShader:   "shaders/quad.vert.spv",
			FragmentShader: "shaders/quad.frag.spv",
			HotReload:      true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration at path on top of the defaults.
func Load(path string) (*ApplicationConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ApplicationConfig) validate() error {
	if c.Renderer.FramesInFlight < 1 {
		return fmt.Errorf("renderer.frames_in_flight must be >= 1, got %d", c.Renderer.FramesInFlight)
	}
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window dimensions must be non-zero, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}
