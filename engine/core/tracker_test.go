package core

import (
	"testing"

	"github.com/google/uuid"
)

func TestHandleTrackerAcquireRelease(t *testing.T) {
	ht := NewHandleTracker()

	a := ht.Acquire("semaphore")
	b := ht.Acquire("semaphore")
	c := ht.Acquire("fence")

	if got := ht.Live(); got != 3 {
		t.Fatalf("Live() = %d, want 3", got)
	}

	counts := ht.LiveByKind()
	if counts["semaphore"] != 2 || counts["fence"] != 1 {
		t.Errorf("LiveByKind() = %v, want 2 semaphores and 1 fence", counts)
	}

	ht.Release(a)
	ht.Release(b)
	ht.Release(c)

	if got := ht.Live(); got != 0 {
		t.Errorf("Live() after releasing all = %d, want 0", got)
	}
	if !ht.Report() {
		t.Error("Report() = false for an empty registry, want true")
	}
}

func TestHandleTrackerReleaseUnknownIsNoop(t *testing.T) {
	ht := NewHandleTracker()
	id := ht.Acquire("buffer")

	ht.Release(id)
	ht.Release(id) // second release must not panic or go negative

	if got := ht.Live(); got != 0 {
		t.Errorf("Live() = %d, want 0", got)
	}
}

func TestHandleTrackerZeroNetDeltaAcrossRebuild(t *testing.T) {
	ht := NewHandleTracker()

	// Long-lived handles that survive a swapchain rebuild.
	ht.Acquire("fence")
	ht.Acquire("command_buffer")
	before := ht.Live()

	// Rebuild: the old image-indexed group is destroyed, a new one (of a
	// different size) is created, then torn down again.
	old := make([]uuid.UUID, 3)
	for i := range old {
		old[i] = ht.Acquire("framebuffer")
	}
	for _, id := range old {
		ht.Release(id)
	}
	fresh := make([]uuid.UUID, 4)
	for i := range fresh {
		fresh[i] = ht.Acquire("framebuffer")
	}
	for _, id := range fresh {
		ht.Release(id)
	}

	if got := ht.Live(); got != before {
		t.Errorf("Live() after rebuild cycle = %d, want %d", got, before)
	}
}
