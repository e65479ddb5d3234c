package ledger

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"
)

// SignatureSize is the byte length of an ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// Signature is an ed25519 signature over a transaction message.
type Signature [SignatureSize]byte

// String returns the base58 form.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// Keypair holds an ed25519 signing key and its public address.
type Keypair struct {
	public  Address
	private ed25519.PrivateKey
}

// NewKeypair generates a random keypair.
func NewKeypair() (Keypair, error) {
	pub, prv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("generate keypair: %w", err)
	}
	var a Address
	copy(a[:], pub)
	return Keypair{public: a, private: prv}, nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed.
func KeypairFromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	prv := ed25519.NewKeyFromSeed(seed)
	var a Address
	copy(a[:], prv.Public().(ed25519.PublicKey))
	return Keypair{public: a, private: prv}, nil
}

// KeypairFromPhrase derives a keypair from SHA-256(phrase). Deterministic;
// intended for tests and scripted scenarios only.
func KeypairFromPhrase(phrase string) Keypair {
	seed := sha256.Sum256([]byte(phrase))
	kp, _ := KeypairFromSeed(seed[:])
	return kp
}

// Address returns the public identity.
func (k Keypair) Address() Address {
	return k.public
}

// Sign signs msg.
func (k Keypair) Sign(msg []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.private, msg))
	return sig
}

// Verify reports whether sig is a valid signature by signer over msg.
func Verify(signer Address, msg []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig[:])
}

// SaveKeypair writes the 64-byte private key as a JSON array of integers,
// the format used by common ledger wallets.
func SaveKeypair(path string, k Keypair) error {
	ints := make([]int, len(k.private))
	for i, b := range k.private {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("save keypair: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("save keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("save keypair: %w", err)
	}
	return nil
}

// LoadKeypair reads a keypair written by SaveKeypair.
func LoadKeypair(path string) (Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keypair{}, fmt.Errorf("load keypair: %w", err)
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return Keypair{}, fmt.Errorf("load keypair %s: %w", path, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return Keypair{}, fmt.Errorf("load keypair %s: want %d bytes, got %d", path, ed25519.PrivateKeySize, len(ints))
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return Keypair{}, fmt.Errorf("load keypair %s: byte %d out of range", path, i)
		}
		raw[i] = byte(v)
	}
	return KeypairFromSeed(raw[:ed25519.SeedSize])
}
