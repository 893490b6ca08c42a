package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spaghettifunk/quadro/engine/renderer/metadata"
)

type fakeFence struct {
	signaled   bool
	waitCount  int
	resetCount int
	destroyed  bool
}

func (f *fakeFence) Wait(timeoutNs uint64) error {
	f.waitCount++
	if !f.signaled {
		// A real wait would block forever here; in tests that is an
		// ordering violation.
		return errors.New("wait on unsignaled fence with no pending submission")
	}
	return nil
}

func (f *fakeFence) Reset() error {
	f.resetCount++
	f.signaled = false
	return nil
}

func (f *fakeFence) Destroy() { f.destroyed = true }

type fakeSemaphore struct {
	id          int
	signalCount int
	destroyed   bool
}

func (s *fakeSemaphore) Destroy() { s.destroyed = true }

type fakeCommandBuffer struct {
	resetCount  int
	recordCount int
	destroyed   bool
}

func (c *fakeCommandBuffer) Reset() error {
	c.resetCount++
	return nil
}

func (c *fakeCommandBuffer) Destroy() { c.destroyed = true }

// fakeBackend simulates a presentation engine whose GPU completes every
// submission instantly. Acquire hands out images round-robin unless a
// scripted status interferes.
type fakeBackend struct {
	imageCount int
	nextImage  uint32

	renderExtent   metadata.Extent
	surfaceExtents []metadata.Extent // script; last entry repeats

	acquireScript []metadata.AcquireStatus // per-call; empty -> success
	presentScript []metadata.PresentStatus

	acquireErr error
	presentErr error
	submitErr  error

	semaphores     []*fakeSemaphore
	liveSemaphores int

	acquireCount  int
	submitCount   int
	presentCount  int
	recreateCount int
	pumpCount     int
	waitIdleCount int

	recreateImageCount int // image count after the next rebuild; 0 keeps current
	lastRecreateExtent metadata.Extent

	uniformWrites map[int]int

	reloadCount int
}

func newFakeBackend(imageCount int) *fakeBackend {
	return &fakeBackend{
		imageCount:     imageCount,
		renderExtent:   metadata.Extent{Width: 800, Height: 600},
		surfaceExtents: []metadata.Extent{{Width: 800, Height: 600}},
		uniformWrites:  make(map[int]int),
	}
}

func (b *fakeBackend) CreateFence(signaled bool) (metadata.Fence, error) {
	return &fakeFence{signaled: signaled}, nil
}

func (b *fakeBackend) CreateSemaphore() (metadata.Semaphore, error) {
	s := &fakeSemaphore{id: len(b.semaphores)}
	b.semaphores = append(b.semaphores, s)
	b.liveSemaphores++
	return s, nil
}

func (b *fakeBackend) CreateCommandBuffer() (metadata.CommandBuffer, error) {
	return &fakeCommandBuffer{}, nil
}

func (b *fakeBackend) Acquire(imageAvailable metadata.Semaphore) (uint32, metadata.AcquireStatus, error) {
	call := b.acquireCount
	b.acquireCount++
	if b.acquireErr != nil {
		return 0, metadata.AcquireSuccess, b.acquireErr
	}
	status := metadata.AcquireSuccess
	if call < len(b.acquireScript) {
		status = b.acquireScript[call]
	}
	if status == metadata.AcquireOutOfDate {
		return 0, status, nil
	}
	idx := b.nextImage
	b.nextImage = (b.nextImage + 1) % uint32(b.imageCount)
	return idx, status, nil
}

func (b *fakeBackend) UpdateUniform(slot int, ubo metadata.UniformObject) error {
	b.uniformWrites[slot]++
	return nil
}

func (b *fakeBackend) Record(buf metadata.CommandBuffer, imageIndex uint32, slot int) error {
	cb := buf.(*fakeCommandBuffer)
	if cb.resetCount != cb.recordCount+1 {
		return fmt.Errorf("record without prior reset: resets=%d records=%d", cb.resetCount, cb.recordCount)
	}
	cb.recordCount++
	if int(imageIndex) >= b.imageCount {
		return fmt.Errorf("record against image %d with only %d images", imageIndex, b.imageCount)
	}
	return nil
}

func (b *fakeBackend) Submit(buf metadata.CommandBuffer, imageAvailable, renderFinished metadata.Semaphore, fence metadata.Fence) error {
	b.submitCount++
	if b.submitErr != nil {
		return b.submitErr
	}
	f := fence.(*fakeFence)
	if f.signaled {
		return errors.New("submit with a still-signaled fence: reset was skipped")
	}
	renderFinished.(*fakeSemaphore).signalCount++
	// Instant GPU: the submission completes immediately.
	f.signaled = true
	return nil
}

func (b *fakeBackend) Present(imageIndex uint32, renderFinished metadata.Semaphore) (metadata.PresentStatus, error) {
	call := b.presentCount
	b.presentCount++
	if b.presentErr != nil {
		return metadata.PresentSuccess, b.presentErr
	}
	if call < len(b.presentScript) {
		return b.presentScript[call], nil
	}
	return metadata.PresentSuccess, nil
}

func (b *fakeBackend) RecreateSwapchain(extent metadata.Extent) (int, error) {
	b.recreateCount++
	b.lastRecreateExtent = extent
	b.renderExtent = extent
	if b.recreateImageCount != 0 {
		b.imageCount = b.recreateImageCount
	}
	b.nextImage = 0
	return b.imageCount, nil
}

func (b *fakeBackend) ImageCount() int { return b.imageCount }

func (b *fakeBackend) RenderExtent() metadata.Extent { return b.renderExtent }

func (b *fakeBackend) SurfaceExtent() metadata.Extent {
	if len(b.surfaceExtents) == 0 {
		return metadata.Extent{}
	}
	e := b.surfaceExtents[0]
	if len(b.surfaceExtents) > 1 {
		b.surfaceExtents = b.surfaceExtents[1:]
	}
	return e
}

func (b *fakeBackend) PumpEvents() { b.pumpCount++ }

func (b *fakeBackend) WaitIdle() error {
	b.waitIdleCount++
	return nil
}

func (b *fakeBackend) ReloadTexture(pixels []byte, width, height uint32) error {
	b.reloadCount++
	return nil
}

func (b *fakeBackend) destroyedSemaphores() int {
	n := 0
	for _, s := range b.semaphores {
		if s.destroyed {
			n++
		}
	}
	return n
}

func drawFrames(t *testing.T, fs *FrameScheduler, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := fs.DrawFrame(); err != nil {
			t.Fatalf("DrawFrame() iteration %d error = %v", i, err)
		}
	}
}

func TestNewFrameSchedulerRejectsZeroSlots(t *testing.T) {
	if _, err := NewFrameScheduler(newFakeBackend(3), 0); err == nil {
		t.Error("NewFrameScheduler(_, 0) error = nil, want error")
	}
}

func TestRenderFinishedSetMatchesImageCount(t *testing.T) {
	for _, imageCount := range []int{1, 2, 3, 5} {
		backend := newFakeBackend(imageCount)
		fs, err := NewFrameScheduler(backend, 2)
		if err != nil {
			t.Fatalf("NewFrameScheduler() error = %v", err)
		}
		if got := len(fs.renderFinished); got != imageCount {
			t.Errorf("image count %d: len(renderFinished) = %d, want %d", imageCount, got, imageCount)
		}
	}
}

// N=2 frame slots against M=3 images: after 6 iterations every image's
// render-finished semaphore was signaled exactly twice and every slot fence
// went through three signaled->reset->signaled cycles.
func TestSlotAndImageCyclesN2M3(t *testing.T) {
	backend := newFakeBackend(3)
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	drawFrames(t, fs, 6)

	for i, sem := range fs.renderFinished {
		if got := sem.(*fakeSemaphore).signalCount; got != 2 {
			t.Errorf("image %d render-finished signal count = %d, want 2", i, got)
		}
	}
	for i := range fs.slots {
		f := fs.slots[i].fence.(*fakeFence)
		if f.resetCount != 3 {
			t.Errorf("slot %d fence reset count = %d, want 3", i, f.resetCount)
		}
		if !f.signaled {
			t.Errorf("slot %d fence not signaled after final iteration", i)
		}
	}
	if backend.submitCount != 6 || backend.presentCount != 6 {
		t.Errorf("submit/present counts = %d/%d, want 6/6", backend.submitCount, backend.presentCount)
	}
}

// Fewer images than frame slots must work too; no M >= N assumption.
func TestMoreSlotsThanImagesN3M2(t *testing.T) {
	backend := newFakeBackend(2)
	fs, err := NewFrameScheduler(backend, 3)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	drawFrames(t, fs, 6)

	for i, sem := range fs.renderFinished {
		if got := sem.(*fakeSemaphore).signalCount; got != 3 {
			t.Errorf("image %d render-finished signal count = %d, want 3", i, got)
		}
	}
	if fs.current != 0 {
		t.Errorf("current slot after 6 iterations = %d, want 0", fs.current)
	}
}

func TestUniformSlotFollowsFrameSlot(t *testing.T) {
	backend := newFakeBackend(3)
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	drawFrames(t, fs, 4)

	if backend.uniformWrites[0] != 2 || backend.uniformWrites[1] != 2 {
		t.Errorf("uniform writes per slot = %v, want 2 each", backend.uniformWrites)
	}
}

// An out-of-date acquire abandons the iteration: no fence reset, no
// submission, rebuild runs, and the next iteration starts clean on the
// same slot.
func TestOutOfDateAcquireAbandonsIteration(t *testing.T) {
	backend := newFakeBackend(3)
	backend.acquireScript = []metadata.AcquireStatus{metadata.AcquireOutOfDate}
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v, want nil (stale surface is recoverable)", err)
	}

	f := fs.slots[0].fence.(*fakeFence)
	if f.resetCount != 0 {
		t.Errorf("fence reset count = %d, want 0 after abandoned acquire", f.resetCount)
	}
	if backend.submitCount != 0 {
		t.Errorf("submit count = %d, want 0 after abandoned acquire", backend.submitCount)
	}
	if backend.recreateCount != 1 {
		t.Errorf("recreate count = %d, want 1", backend.recreateCount)
	}
	if fs.current != 0 {
		t.Errorf("current slot = %d, want 0 (abandoned iteration does not advance)", fs.current)
	}

	// Next iteration retries from a clean state.
	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() after rebuild error = %v", err)
	}
	if backend.submitCount != 1 {
		t.Errorf("submit count after retry = %d, want 1", backend.submitCount)
	}
}

// A suboptimal acquire still draws and presents, then rebuilds.
func TestSuboptimalAcquireDrawsThenRebuilds(t *testing.T) {
	backend := newFakeBackend(3)
	backend.acquireScript = []metadata.AcquireStatus{metadata.AcquireSuboptimal}
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if backend.submitCount != 1 || backend.presentCount != 1 {
		t.Errorf("submit/present = %d/%d, want 1/1 before the rebuild", backend.submitCount, backend.presentCount)
	}
	if backend.recreateCount != 1 {
		t.Errorf("recreate count = %d, want 1", backend.recreateCount)
	}
	if fs.current != 1 {
		t.Errorf("current slot = %d, want 1 (completed iteration advances)", fs.current)
	}
}

func TestPresentOutOfDateTriggersRebuild(t *testing.T) {
	backend := newFakeBackend(3)
	backend.presentScript = []metadata.PresentStatus{metadata.PresentOutOfDate}
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if backend.recreateCount != 1 {
		t.Errorf("recreate count = %d, want 1", backend.recreateCount)
	}
}

func TestResizeNotificationConsumedAtPresent(t *testing.T) {
	backend := newFakeBackend(3)
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	fs.NotifyResize()
	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if backend.recreateCount != 1 {
		t.Errorf("recreate count = %d, want 1 after resize notification", backend.recreateCount)
	}
	if fs.resizePending.Load() {
		t.Error("resize flag still set after rebuild")
	}

	// The flag is consumed; the next frame must not rebuild again.
	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if backend.recreateCount != 1 {
		t.Errorf("recreate count = %d, want 1 (flag already consumed)", backend.recreateCount)
	}
}

// The rebuild re-derives the image-indexed semaphore set at the new size
// and destroys the previous set.
func TestRebuildResizesImageIndexedSet(t *testing.T) {
	backend := newFakeBackend(3)
	backend.acquireScript = []metadata.AcquireStatus{metadata.AcquireOutOfDate}
	backend.recreateImageCount = 4
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}

	if got := len(fs.renderFinished); got != 4 {
		t.Errorf("len(renderFinished) after rebuild = %d, want 4", got)
	}
	if got := backend.destroyedSemaphores(); got != 3 {
		t.Errorf("destroyed semaphores = %d, want the 3 old image-indexed ones", got)
	}

	// All four images must be reachable afterwards.
	drawFrames(t, fs, 4)
}

// A rebuild at an unchanged extent is a clean round trip: same image
// count, zero net live-handle delta, and following frames succeed.
func TestRebuildRoundTripSameExtent(t *testing.T) {
	backend := newFakeBackend(3)
	backend.acquireScript = []metadata.AcquireStatus{metadata.AcquireOutOfDate}
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}
	liveBefore := len(backend.semaphores) - backend.destroyedSemaphores()

	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}

	if got := backend.ImageCount(); got != 3 {
		t.Errorf("image count after round trip = %d, want 3", got)
	}
	liveAfter := len(backend.semaphores) - backend.destroyedSemaphores()
	if liveAfter != liveBefore {
		t.Errorf("live semaphores after rebuild = %d, want %d (zero net delta)", liveAfter, liveBefore)
	}
	drawFrames(t, fs, 3)
}

// A minimized surface reports (0,0); the rebuild must poll window events
// until the extent is valid and never create a zero-area swapchain.
func TestRebuildWaitsForRestoredWindow(t *testing.T) {
	backend := newFakeBackend(3)
	backend.acquireScript = []metadata.AcquireStatus{metadata.AcquireOutOfDate}
	backend.surfaceExtents = []metadata.Extent{
		{},
		{},
		{Width: 800, Height: 600},
	}
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}

	if backend.pumpCount != 2 {
		t.Errorf("pump count = %d, want 2 (two zero-area polls)", backend.pumpCount)
	}
	want := metadata.Extent{Width: 800, Height: 600}
	if backend.lastRecreateExtent != want {
		t.Errorf("recreate extent = %+v, want %+v", backend.lastRecreateExtent, want)
	}

	// The next acquire succeeds against the fresh swapchain.
	if err := fs.DrawFrame(); err != nil {
		t.Fatalf("DrawFrame() after restore error = %v", err)
	}
}

func TestFatalAcquireErrorPropagates(t *testing.T) {
	backend := newFakeBackend(3)
	backend.acquireErr = errors.New("device lost")
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err == nil {
		t.Error("DrawFrame() error = nil, want fatal acquire error")
	}
	if backend.recreateCount != 0 {
		t.Errorf("recreate count = %d, want 0 for a fatal error", backend.recreateCount)
	}
}

func TestFatalPresentErrorPropagates(t *testing.T) {
	backend := newFakeBackend(3)
	backend.presentErr = errors.New("surface lost")
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err == nil {
		t.Error("DrawFrame() error = nil, want fatal present error")
	}
}

func TestFatalSubmitErrorPropagates(t *testing.T) {
	backend := newFakeBackend(3)
	backend.submitErr = errors.New("out of device memory")
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}

	if err := fs.DrawFrame(); err == nil {
		t.Error("DrawFrame() error = nil, want fatal submit error")
	}
	if backend.presentCount != 0 {
		t.Errorf("present count = %d, want 0 after failed submit", backend.presentCount)
	}
}

func TestShutdownDrainsAndDestroysSyncObjects(t *testing.T) {
	backend := newFakeBackend(3)
	fs, err := NewFrameScheduler(backend, 2)
	if err != nil {
		t.Fatalf("NewFrameScheduler() error = %v", err)
	}
	drawFrames(t, fs, 3)

	fences := make([]*fakeFence, 0, len(fs.slots))
	buffers := make([]*fakeCommandBuffer, 0, len(fs.slots))
	for i := range fs.slots {
		fences = append(fences, fs.slots[i].fence.(*fakeFence))
		buffers = append(buffers, fs.slots[i].commands.(*fakeCommandBuffer))
	}

	if err := fs.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if backend.waitIdleCount == 0 {
		t.Error("Shutdown() did not wait for the device to idle")
	}
	for i, f := range fences {
		if !f.destroyed {
			t.Errorf("slot %d fence not destroyed", i)
		}
	}
	for i, c := range buffers {
		if !c.destroyed {
			t.Errorf("slot %d command buffer not destroyed", i)
		}
	}
	if got := backend.destroyedSemaphores(); got != len(backend.semaphores) {
		t.Errorf("destroyed semaphores = %d, want all %d", got, len(backend.semaphores))
	}
}
