package core

import "time"

// Clock measures wall-clock time elapsed since Start. The renderer uses a
// single clock, started on the first frame, as the animation timebase.
type Clock struct {
	startTime time.Time
	elapsed   float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = time.Since(c.startTime).Seconds()
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

func (c *Clock) Started() bool {
	return !c.startTime.IsZero()
}

// Elapsed returns the seconds elapsed at the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}
