package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/quadro/engine/core"
	"github.com/spaghettifunk/quadro/engine/platform"
	"github.com/spaghettifunk/quadro/engine/renderer/vulkan"
)

// Config carries everything the backend needs at startup. Shader modules
// and texture pixels are loaded by the caller; the renderer treats them as
// opaque bytes.
type Config struct {
	AppName        string
	FramesInFlight int
	VSync          bool
	Debug          bool

	VertexShader   []byte
	FragmentShader []byte

	TexturePixels []byte
	TextureWidth  uint32
	TextureHeight uint32
}

type Renderer struct {
	backend   *vulkan.VulkanRenderer
	scheduler *FrameScheduler
}

var initRenderer sync.Once
var renderer *Renderer

// Initialize creates the Vulkan backend and the frame scheduler. Must be
// called once, before any other function in this package.
func Initialize(cfg *Config, p *platform.Platform) error {
	var err error
	initRenderer.Do(func() {
		backend := vulkan.New(p, &vulkan.Config{
			AppName:        cfg.AppName,
			FramesInFlight: cfg.FramesInFlight,
			VSync:          cfg.VSync,
			Debug:          cfg.Debug,
			VertexShader:   cfg.VertexShader,
			FragmentShader: cfg.FragmentShader,
			TexturePixels:  cfg.TexturePixels,
			TextureWidth:   cfg.TextureWidth,
			TextureHeight:  cfg.TextureHeight,
		})
		if err = backend.Initialize(); err != nil {
			return
		}

		var scheduler *FrameScheduler
		scheduler, err = NewFrameScheduler(backend, cfg.FramesInFlight)
		if err != nil {
			return
		}

		renderer = &Renderer{
			backend:   backend,
			scheduler: scheduler,
		}
	})
	if err != nil {
		return err
	}
	if renderer == nil {
		return fmt.Errorf("renderer initialization ran more than once")
	}
	return nil
}

// DrawFrame renders one frame.
func DrawFrame() error {
	return renderer.scheduler.DrawFrame()
}

// OnResize flags the surface as resized; the swapchain is rebuilt during
// the next frame iteration.
func OnResize(width, height uint32) {
	core.LogDebug("renderer resize notification: %dx%d", width, height)
	renderer.scheduler.NotifyResize()
}

// ReloadTexture swaps the quad texture for new RGBA8 pixels.
func ReloadTexture(pixels []byte, width, height uint32) error {
	return renderer.backend.ReloadTexture(pixels, width, height)
}

// Shutdown drains the device and destroys all GPU resources.
func Shutdown() error {
	if renderer == nil {
		return nil
	}
	if err := renderer.scheduler.Shutdown(); err != nil {
		return err
	}
	return renderer.backend.Shutdown()
}
