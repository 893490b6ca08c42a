package renderer

import (
	"fmt"
	gomath "math"
	"sync/atomic"

	"github.com/spaghettifunk/quadro/engine/core"
	"github.com/spaghettifunk/quadro/engine/renderer/metadata"
)

// frameSlot is one of the N reusable rendering lanes. Everything in it is
// frame-indexed: it is allocated once, reused every N-th frame and stays
// valid across swapchain rebuilds.
type frameSlot struct {
	fence          metadata.Fence
	imageAvailable metadata.Semaphore
	commands       metadata.CommandBuffer
}

// FrameScheduler drives one rendering iteration per DrawFrame call. It
// owns the synchronization object lifecycle: N frame slots cycled
// round-robin, plus a render-finished semaphore per presentable image that
// is rebuilt in lockstep with the swapchain.
type FrameScheduler struct {
	backend metadata.Backend

	slots   []frameSlot
	current int

	// renderFinished is indexed by presentable image index, never by frame
	// slot. The two counts are independent; a frame-indexed semaphore here
	// can gate a future present of a different image on an already
	// consumed signal.
	renderFinished []metadata.Semaphore

	clock         *core.Clock
	resizePending atomic.Bool
}

func NewFrameScheduler(backend metadata.Backend, framesInFlight int) (*FrameScheduler, error) {
	if framesInFlight < 1 {
		return nil, fmt.Errorf("frames in flight must be >= 1, got %d", framesInFlight)
	}

	fs := &FrameScheduler{
		backend: backend,
		clock:   core.NewClock(),
	}

	fs.slots = make([]frameSlot, framesInFlight)
	for i := range fs.slots {
		// The fence starts signaled so the first wait on a never-submitted
		// slot does not block forever.
		fence, err := backend.CreateFence(true)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-flight fence for slot %d: %w", i, err)
		}
		sem, err := backend.CreateSemaphore()
		if err != nil {
			return nil, fmt.Errorf("failed to create image-available semaphore for slot %d: %w", i, err)
		}
		buf, err := backend.CreateCommandBuffer()
		if err != nil {
			return nil, fmt.Errorf("failed to create command buffer for slot %d: %w", i, err)
		}
		fs.slots[i] = frameSlot{fence: fence, imageAvailable: sem, commands: buf}
	}

	if err := fs.createImageSemaphores(backend.ImageCount()); err != nil {
		return nil, err
	}

	return fs, nil
}

// NotifyResize flags that the drawable surface changed size. Called from
// the window callback; consumed once per iteration at the present step.
func (fs *FrameScheduler) NotifyResize() {
	fs.resizePending.Store(true)
}

// FramesInFlight returns the fixed number of frame slots.
func (fs *FrameScheduler) FramesInFlight() int {
	return len(fs.slots)
}

// DrawFrame runs exactly one iteration of the frame loop. A stale surface
// is not an error: the iteration is abandoned, the swapchain rebuilt and
// nil returned. Every returned error is fatal.
func (fs *FrameScheduler) DrawFrame() error {
	slot := &fs.slots[fs.current]

	// Throttle: the GPU must be done with this slot's command buffer and
	// uniform memory before either is overwritten.
	if err := slot.fence.Wait(gomath.MaxUint64); err != nil {
		return fmt.Errorf("in-flight fence wait failed for slot %d: %w", fs.current, err)
	}

	imageIndex, status, err := fs.backend.Acquire(slot.imageAvailable)
	if err != nil {
		return fmt.Errorf("failed to acquire swapchain image: %w", err)
	}
	if status == metadata.AcquireOutOfDate {
		// No image was acquired, nothing will signal the fence this
		// iteration. Leave it signaled or a future wait deadlocks.
		core.LogDebug("swapchain out of date on acquire, rebuilding")
		return fs.recreateSwapchain()
	}
	rebuildAfterPresent := status == metadata.AcquireSuboptimal

	// Only now is it safe to take the fence back to unsignaled: the
	// acquired image guarantees a submission (and therefore a signal)
	// follows.
	if err := slot.fence.Reset(); err != nil {
		return fmt.Errorf("failed to reset in-flight fence for slot %d: %w", fs.current, err)
	}

	if !fs.clock.Started() {
		fs.clock.Start()
	}
	fs.clock.Update()
	ubo := Animate(fs.clock.Elapsed(), fs.backend.RenderExtent())
	if err := fs.backend.UpdateUniform(fs.current, ubo); err != nil {
		return fmt.Errorf("failed to update uniform slot %d: %w", fs.current, err)
	}

	if err := slot.commands.Reset(); err != nil {
		return fmt.Errorf("failed to reset command buffer for slot %d: %w", fs.current, err)
	}
	if err := fs.backend.Record(slot.commands, imageIndex, fs.current); err != nil {
		return fmt.Errorf("failed to record command buffer for slot %d: %w", fs.current, err)
	}

	// The render-finished semaphore is indexed by the acquired image, not
	// by the frame slot.
	renderFinished := fs.renderFinished[imageIndex]
	if err := fs.backend.Submit(slot.commands, slot.imageAvailable, renderFinished, slot.fence); err != nil {
		return fmt.Errorf("queue submit failed for slot %d: %w", fs.current, err)
	}

	presentStatus, err := fs.backend.Present(imageIndex, renderFinished)
	if err != nil {
		return fmt.Errorf("queue present failed for image %d: %w", imageIndex, err)
	}

	if presentStatus == metadata.PresentOutOfDate || presentStatus == metadata.PresentSuboptimal ||
		rebuildAfterPresent || fs.resizePending.Load() {
		if err := fs.recreateSwapchain(); err != nil {
			return err
		}
	}

	fs.current = (fs.current + 1) % len(fs.slots)
	return nil
}

// recreateSwapchain tears down and rebuilds the swapchain together with
// every image-indexed object the scheduler owns. Frame-slot state is
// untouched: it is frame-indexed and stays valid across rebuilds.
func (fs *FrameScheduler) recreateSwapchain() error {
	// Nothing image-owned may be destroyed while a submission still
	// references it.
	if err := fs.backend.WaitIdle(); err != nil {
		return fmt.Errorf("device wait idle failed before swapchain rebuild: %w", err)
	}

	fs.destroyImageSemaphores()

	// A minimized window reports a zero drawable area; a zero-area
	// swapchain is invalid, so block on window events until restored.
	extent := fs.backend.SurfaceExtent()
	for extent.IsZero() {
		fs.backend.PumpEvents()
		extent = fs.backend.SurfaceExtent()
	}

	imageCount, err := fs.backend.RecreateSwapchain(extent)
	if err != nil {
		return fmt.Errorf("swapchain rebuild failed: %w", err)
	}

	// The image count may have changed; the semaphore set is re-derived,
	// never patched in place.
	if err := fs.createImageSemaphores(imageCount); err != nil {
		return err
	}

	fs.resizePending.Store(false)
	core.LogInfo("swapchain rebuilt: %dx%d, %d image(s)", extent.Width, extent.Height, imageCount)
	return nil
}

func (fs *FrameScheduler) createImageSemaphores(imageCount int) error {
	fs.renderFinished = make([]metadata.Semaphore, imageCount)
	for i := range fs.renderFinished {
		sem, err := fs.backend.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("failed to create render-finished semaphore for image %d: %w", i, err)
		}
		fs.renderFinished[i] = sem
	}
	return nil
}

func (fs *FrameScheduler) destroyImageSemaphores() {
	for _, sem := range fs.renderFinished {
		sem.Destroy()
	}
	fs.renderFinished = nil
}

// Shutdown drains the device and destroys every synchronization object the
// scheduler owns. The backend's own resources are torn down separately.
func (fs *FrameScheduler) Shutdown() error {
	if err := fs.backend.WaitIdle(); err != nil {
		return fmt.Errorf("device wait idle failed during shutdown: %w", err)
	}

	fs.destroyImageSemaphores()

	for i := range fs.slots {
		fs.slots[i].fence.Destroy()
		fs.slots[i].imageAvailable.Destroy()
		fs.slots[i].commands.Destroy()
	}
	fs.slots = nil

	return nil
}
