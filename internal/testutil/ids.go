package testutil

import (
	"fmt"
	"sync"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// SequentialIDGenerator generates tx-0001, tx-0002, ...
//
// This enables deterministic test execution and golden snapshot comparison.
// Unlike ledger.FixedGenerator, it never runs out.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. An empty prefix uses "tx".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "tx"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id. Implements ledger.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Identity returns a deterministic keypair for a named test actor.
// The same name always yields the same keypair.
func Identity(name string) ledger.Keypair {
	return ledger.KeypairFromPhrase("mscp-test:" + name)
}

// ByteAddress returns the address with every byte set to b. Useful when a
// test needs a stable base58 string: ByteAddress(1) is
// 4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi.
func ByteAddress(b byte) ledger.Address {
	var a ledger.Address
	for i := range a {
		a[i] = b
	}
	return a
}
