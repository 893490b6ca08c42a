package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/quadro/engine/assets"
	"github.com/spaghettifunk/quadro/engine/config"
	"github.com/spaghettifunk/quadro/engine/core"
	"github.com/spaghettifunk/quadro/engine/platform"
	"github.com/spaghettifunk/quadro/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	config       *config.ApplicationConfig
	isRunning    bool
	platform     *platform.Platform
	assetManager *assets.AssetManager
	clock        *core.Clock
	lastTime     float64

	// stopRequested is set from the signal goroutine and consumed by the
	// run loop on the main thread, like the renderer's resize flag.
	stopRequested atomic.Bool
}

func New(cfg *config.ApplicationConfig) (*Engine, error) {
	core.SetLogLevel(cfg.Log.Level)

	p := platform.New()

	am, err := assets.NewAssetManager(cfg.Assets.Dir)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		clock:        core.NewClock(),
		platform:     p,
		assetManager: am,
		isRunning:    false,
		lastTime:     0,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	e.platform.OnResize = renderer.OnResize
	if err := e.platform.Startup(e.config.Window.Title, e.config.Window.Width, e.config.Window.Height); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(); err != nil {
		return err
	}

	vertexShader, err := e.assetManager.LoadShader(e.config.Assets.VertexShader)
	if err != nil {
		return err
	}
	fragmentShader, err := e.assetManager.LoadShader(e.config.Assets.FragmentShader)
	if err != nil {
		return err
	}
	texture, err := e.assetManager.LoadTexture(e.config.Assets.Texture)
	if err != nil {
		return err
	}

	if err := renderer.Initialize(&renderer.Config{
		AppName:        e.config.Window.Title,
		FramesInFlight: e.config.Renderer.FramesInFlight,
		VSync:          e.config.Renderer.VSync,
		Debug:          e.config.Log.Level == "debug",
		VertexShader:   vertexShader,
		FragmentShader: fragmentShader,
		TexturePixels:  texture.Pixels,
		TextureWidth:   texture.Width,
		TextureHeight:  texture.Height,
	}, e.platform); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()
	lastMetricsLog := e.lastTime

	for e.isRunning {
		if e.stopRequested.Load() || e.platform.ShouldClose() {
			e.isRunning = false
			break
		}

		e.platform.PumpMessages()

		if e.config.Assets.HotReload {
			e.consumeAssetChanges()
		}

		if err := renderer.DrawFrame(); err != nil {
			// Fatal, but teardown still runs: log, unwind and let main
			// decide the exit code.
			core.LogError("frame draw failed, shutting down: %s", err)
			e.isRunning = false
			if shutdownErr := e.Shutdown(); shutdownErr != nil {
				core.LogError("teardown after frame failure: %s", shutdownErr)
			}
			return err
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		core.MetricsUpdate(currentTime - e.lastTime)
		e.lastTime = currentTime

		if currentTime-lastMetricsLog >= 5.0 {
			fps, frameTime := core.MetricsFrame()
			core.LogDebug("%.0f fps, %.2f ms/frame", fps, frameTime)
			lastMetricsLog = currentTime
		}
	}

	return e.Shutdown()
}

// consumeAssetChanges drains the watcher channel and re-uploads the quad
// texture when its file was rewritten. Shader changes need a restart and
// are only logged.
func (e *Engine) consumeAssetChanges() {
	for {
		select {
		case name := <-e.assetManager.Changed():
			if name == e.config.Assets.Texture {
				data, err := e.assetManager.LoadTexture(name)
				if err != nil {
					core.LogWarn("failed to reload texture '%s': %s", name, err)
					continue
				}
				if err := renderer.ReloadTexture(data.Pixels, data.Width, data.Height); err != nil {
					core.LogWarn("failed to upload reloaded texture '%s': %s", name, err)
				}
			} else {
				core.LogDebug("ignoring change to '%s'", name)
			}
		default:
			return
		}
	}
}

// RequestShutdown asks the run loop to stop at the next iteration. Safe to
// call from any goroutine; the teardown itself runs on the main thread.
func (e *Engine) RequestShutdown() {
	e.stopRequested.Store(true)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	if err := renderer.Shutdown(); err != nil {
		core.LogError("renderer shutdown failed: %s", err)
	}
	if err := e.assetManager.Shutdown(); err != nil {
		core.LogError("asset manager shutdown failed: %s", err)
	}
	return e.platform.Shutdown()
}
