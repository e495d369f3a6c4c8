package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start of a SteppingClock.
var Epoch = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

// SteppingClock is a thread-safe, manually driven wall clock for tests.
//
// Now returns the current instant without moving it. Tick returns the
// current instant and then advances it by the step, so successive Ticks
// yield strictly increasing timestamps regardless of real time.
type SteppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppingClock creates a clock at start advancing by step per Tick.
// A zero start means Epoch; a non-positive step means one second.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	if start.IsZero() {
		start = Epoch
	}
	if step <= 0 {
		step = time.Second
	}
	return &SteppingClock{now: start, step: step}
}

// Now returns the current instant.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Tick returns the current instant and advances the clock by one step.
func (c *SteppingClock) Tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *SteppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *SteppingClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
