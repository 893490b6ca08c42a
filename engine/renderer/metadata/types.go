package metadata

import (
	"github.com/spaghettifunk/quadro/engine/math"
)

// Extent is a drawable size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero, which is what a
// minimized window reports.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// AcquireStatus classifies the outcome of acquiring a presentable image.
type AcquireStatus int

const (
	// AcquireSuccess means the image is usable as-is.
	AcquireSuccess AcquireStatus = iota
	// AcquireSuboptimal means the image is usable but the swapchain should
	// be rebuilt after the frame is presented.
	AcquireSuboptimal
	// AcquireOutOfDate means the surface changed and no image was
	// acquired; the swapchain must be rebuilt before drawing.
	AcquireOutOfDate
)

// PresentStatus classifies the outcome of a presentation request.
type PresentStatus int

const (
	PresentSuccess PresentStatus = iota
	PresentSuboptimal
	PresentOutOfDate
)

// UniformObject is the per-frame shader uniform block.
type UniformObject struct {
	Model      math.Mat4
	View       math.Mat4
	Projection math.Mat4
}

// Fence is a host-waitable, GPU-signaled synchronization object used for
// CPU/GPU frame pacing.
type Fence interface {
	// Wait blocks until the fence is signaled or the timeout elapses.
	Wait(timeoutNs uint64) error
	// Reset returns the fence to the unsignaled state.
	Reset() error
	Destroy()
}

// Semaphore is a GPU-waitable, GPU-signaled synchronization object used to
// order queue operations without host involvement.
type Semaphore interface {
	Destroy()
}

// CommandBuffer is a re-recordable GPU command sequence.
type CommandBuffer interface {
	Reset() error
	Destroy()
}

// Backend is the contract between the frame scheduler and the graphics
// API. The scheduler owns ordering and synchronization-object lifecycle;
// the backend owns every API handle behind the opaque interfaces above.
type Backend interface {
	// Synchronization and command lifecycle.
	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	CreateCommandBuffer() (CommandBuffer, error)

	// Acquire requests the next presentable image index, arranging for
	// imageAvailable to be signaled once the image can be rendered to.
	// On AcquireOutOfDate no image is acquired. Any returned error is
	// fatal.
	Acquire(imageAvailable Semaphore) (uint32, AcquireStatus, error)

	// UpdateUniform writes the uniform block into the given frame slot's
	// persistently mapped buffer.
	UpdateUniform(slot int, ubo UniformObject) error

	// Record resets nothing; it encodes a full draw of the quad into buf,
	// targeting the given presentable image with the given slot's
	// resource bindings.
	Record(buf CommandBuffer, imageIndex uint32, slot int) error

	// Submit enqueues buf on the graphics queue, waiting on
	// imageAvailable at the color-output stage and signaling both
	// renderFinished and fence on completion.
	Submit(buf CommandBuffer, imageAvailable, renderFinished Semaphore, fence Fence) error

	// Present queues presentation of the image, waiting on renderFinished.
	// Any returned error is fatal; staleness is reported via the status.
	Present(imageIndex uint32, renderFinished Semaphore) (PresentStatus, error)

	// RecreateSwapchain destroys and rebuilds the swapchain and every
	// image-owned object (views, framebuffers) for the given extent, and
	// returns the new presentable image count.
	RecreateSwapchain(extent Extent) (int, error)
	ImageCount() int

	// RenderExtent is the current swapchain extent; SurfaceExtent is the
	// window's current drawable size, which may be zero while minimized.
	RenderExtent() Extent
	SurfaceExtent() Extent

	// PumpEvents blocks until window events arrive. Used only while
	// polling a minimized surface.
	PumpEvents()

	// WaitIdle blocks until the device has finished all submitted work.
	WaitIdle() error

	// ReloadTexture replaces the quad texture with new RGBA8 pixel data.
	ReloadTexture(pixels []byte, width, height uint32) error
}
