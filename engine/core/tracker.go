package core

import (
	"sync"

	"github.com/google/uuid"
)

// HandleTracker keeps a registry of live GPU handle groups. The renderer
// backend registers every handle it creates and releases the entry on
// destruction, so swapchain recreation can be verified to leak nothing and
// shutdown can report anything left behind.
type HandleTracker struct {
	mutex sync.Mutex
	live  map[uuid.UUID]string
}

func NewHandleTracker() *HandleTracker {
	return &HandleTracker{
		live: make(map[uuid.UUID]string),
	}
}

// Acquire registers a live handle of the given kind and returns its id.
func (ht *HandleTracker) Acquire(kind string) uuid.UUID {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	id := uuid.New()
	ht.live[id] = kind
	return id
}

// Release removes a handle from the registry. Releasing an unknown id is a
// no-op so destruction paths can be idempotent.
func (ht *HandleTracker) Release(id uuid.UUID) {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	delete(ht.live, id)
}

// Live returns the number of currently registered handles.
func (ht *HandleTracker) Live() int {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	return len(ht.live)
}

// LiveByKind returns the count of registered handles per kind.
func (ht *HandleTracker) LiveByKind() map[string]int {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	counts := make(map[string]int)
	for _, kind := range ht.live {
		counts[kind]++
	}
	return counts
}

// Report logs every handle still registered. Returns true if the registry
// is clean.
func (ht *HandleTracker) Report() bool {
	counts := ht.LiveByKind()
	if len(counts) == 0 {
		return true
	}
	for kind, n := range counts {
		LogWarn("handle tracker: %d live handle(s) of kind '%s'", n, kind)
	}
	return false
}
