package core

import (
	"testing"
	"time"
)

func TestClockNotStarted(t *testing.T) {
	c := NewClock()
	c.Update()
	if got := c.Elapsed(); got != 0 {
		t.Errorf("Elapsed() on a non-started clock = %v, want 0", got)
	}
	if c.Started() {
		t.Error("Started() = true before Start()")
	}
}

func TestClockElapsedAdvances(t *testing.T) {
	c := NewClock()
	c.Start()
	time.Sleep(10 * time.Millisecond)
	c.Update()
	if got := c.Elapsed(); got <= 0 {
		t.Errorf("Elapsed() = %v, want > 0", got)
	}
}

func TestClockStopFreezesElapsed(t *testing.T) {
	c := NewClock()
	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Update()
	frozen := c.Elapsed()
	c.Stop()
	c.Update()
	if got := c.Elapsed(); got != frozen {
		t.Errorf("Elapsed() after Stop() = %v, want %v", got, frozen)
	}
}
