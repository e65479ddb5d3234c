package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_StartsAtStart(t *testing.T) {
	clock := NewDeterministicClock(1000)
	assert.Equal(t, int64(1000), clock.Now())
	assert.Equal(t, int64(1000), clock.Now(), "reading does not advance")
}

func TestDeterministicClock_AdvanceAndSet(t *testing.T) {
	clock := NewDeterministicClock(1000)

	assert.Equal(t, int64(1005), clock.Advance(5))
	assert.Equal(t, int64(1005), clock.Now())

	clock.Set(900)
	assert.Equal(t, int64(900), clock.Now(), "Set may move backwards")

	clock.Reset()
	assert.Equal(t, int64(1000), clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock(0)
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numGoroutines), clock.Now())
}

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator("")
	assert.Equal(t, "tx-0001", gen.Generate())
	assert.Equal(t, "tx-0002", gen.Generate())

	custom := NewSequentialIDGenerator("scenario")
	assert.Equal(t, "scenario-0001", custom.Generate())
}

func TestIdentity_Deterministic(t *testing.T) {
	assert.Equal(t, Identity("alice").Address(), Identity("alice").Address())
	assert.NotEqual(t, Identity("alice").Address(), Identity("bob").Address())
}

func TestByteAddress(t *testing.T) {
	assert.Equal(t, "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi", ByteAddress(1).String())
}
