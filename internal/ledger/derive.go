package ledger

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

// Seed limits for derived addresses. The bump occupies one of the MaxSeeds slots.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// derivationMarker terminates every derivation preimage so a derived address
// can never collide with a plain SHA-256 of the same seeds.
const derivationMarker = "ProgramDerivedAddress"

var (
	// ErrMaxSeedLengthExceeded is returned for too many or too long seeds.
	ErrMaxSeedLengthExceeded = errors.New("ledger: max seed length exceeded")

	// ErrInvalidSeeds is returned when the candidate lies on the ed25519 curve.
	ErrInvalidSeeds = errors.New("ledger: provided seeds do not result in a valid address")

	// ErrNoViableBump is returned when every bump produced an on-curve point.
	ErrNoViableBump = errors.New("ledger: unable to find a viable bump seed")
)

// CreateAddress computes the derived address for program, seeds and bump.
// Format: SHA256(seed_1 ++ ... ++ seed_n ++ bump ++ program ++ marker).
// The result must not be a valid ed25519 point, otherwise a private key could
// sign for the slot.
func CreateAddress(program Address, bump uint8, seeds ...[]byte) (Address, error) {
	if len(seeds) > MaxSeeds-1 {
		return ZeroAddress, ErrMaxSeedLengthExceeded
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return ZeroAddress, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(program[:])
	h.Write([]byte(derivationMarker))

	var candidate Address
	copy(candidate[:], h.Sum(nil))
	if IsOnCurve(candidate) {
		return ZeroAddress, ErrInvalidSeeds
	}
	return candidate, nil
}

// FindAddress returns the canonical derived address and its bump: the first
// off-curve candidate searching bumps from 255 downwards. The same inputs
// always yield the same pair, so callers can recompute a record's slot
// without any lookup table.
func FindAddress(program Address, seeds ...[]byte) (Address, uint8, error) {
	for bump := 255; bump > 0; bump-- {
		addr, err := CreateAddress(program, uint8(bump), seeds...)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return ZeroAddress, 0, err
		}
	}
	return ZeroAddress, 0, ErrNoViableBump
}

// IsOnCurve reports whether a decodes to a valid ed25519 point.
func IsOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}
