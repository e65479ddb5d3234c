package ledger

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the byte length of every address and identity.
const Size = 32

// Address names either an identity (an ed25519 public key) or a record slot.
// Both live in the same 32-byte space; the canonical text form is base58.
type Address [Size]byte

// ZeroAddress is the all-zero address. It is never a valid record slot.
var ZeroAddress Address

// DecodeAddress decodes a base58 address.
func DecodeAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode address %q: %w", s, err)
	}
	if len(raw) != Size {
		return a, fmt.Errorf("decode address %q: decoded %d bytes, want %d", s, len(raw), Size)
	}
	copy(a[:], raw)
	return a, nil
}

// MustDecodeAddress is like DecodeAddress but panics on error.
// Use only for compile-time constants such as program ids.
func MustDecodeAddress(s string) Address {
	a, err := DecodeAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes copies a 32-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("address must be %d bytes, got %d", Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String returns the base58 form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, a[:])
	return out
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := DecodeAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
