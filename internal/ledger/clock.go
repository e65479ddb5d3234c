package ledger

import (
	"sync/atomic"
	"time"
)

// Clock supplies the logical time, in seconds since the epoch, that the host
// stamps on a transaction. Every instruction of one transaction observes the
// same value.
type Clock interface {
	Now() int64
}

// SystemClock reads wall time.
type SystemClock struct{}

// Now returns the current unix time in seconds.
func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// FixedClock always reports the same time. Clients use it to pin the time
// they put into a payload to the time the transaction executes at.
type FixedClock int64

// Now returns c.
func (c FixedClock) Now() int64 {
	return int64(c)
}

// Sequence is a monotonic logical counter for committed transactions.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations),
// although the runtime's single-writer design means only one goroutine
// advances it at a time.
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence resuming from start, typically the last
// seq found in the store.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number and advances.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
