package engine

import (
	"testing"

	"github.com/spaghettifunk/quadro/engine/assets"
	"github.com/spaghettifunk/quadro/engine/config"
	"github.com/spaghettifunk/quadro/engine/core"
	"github.com/spaghettifunk/quadro/engine/platform"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	am, err := assets.NewAssetManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewAssetManager() error = %v", err)
	}
	return &Engine{
		currentStage: EngineStageInitialized,
		config:       config.Default(),
		clock:        core.NewClock(),
		platform:     platform.New(),
		assetManager: am,
	}
}

func TestRunRequiresInitialize(t *testing.T) {
	e := &Engine{currentStage: EngineStageUninitialized}
	if err := e.Run(); err == nil {
		t.Error("Run() on an uninitialized engine = nil, want error")
	}
}

// A shutdown request from another goroutine must stop the loop and still
// run the full teardown on the calling thread, returning instead of
// exiting the process.
func TestRunStopsWhenShutdownRequested(t *testing.T) {
	e := newTestEngine(t)

	e.RequestShutdown()
	if err := e.Run(); err != nil {
		t.Fatalf("Run() after RequestShutdown() error = %v, want nil", err)
	}
	if e.currentStage != EngineStageShuttingDown {
		t.Errorf("stage after Run() = %v, want %v", e.currentStage, EngineStageShuttingDown)
	}
	if e.isRunning {
		t.Error("isRunning = true after Run() returned")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Shutdown(); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v, want nil", err)
	}
}
