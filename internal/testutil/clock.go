package testutil

import "sync"

// DeterministicClock is a settable logical time source for tests.
// It implements ledger.Clock.
//
// Unlike ledger.SystemClock, DeterministicClock only moves when told to,
// so the same scenario produces the same timestamps, derived post slots and
// memo payloads on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	now   int64
}

// NewDeterministicClock creates a clock reading start.
func NewDeterministicClock(start int64) *DeterministicClock {
	return &DeterministicClock{start: start, now: start}
}

// Now returns the current time.
func (c *DeterministicClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t. Moving backwards is allowed, to exercise
// monotonicity guarantees in code under test.
func (c *DeterministicClock) Set(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d seconds and returns the new time.
func (c *DeterministicClock) Advance(d int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}

// Reset returns the clock to its start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
