package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransaction() *Transaction {
	alice := KeypairFromPhrase("alice").Address()
	var program Address
	program[0] = 0x42
	return NewTransaction("tx-1",
		Instruction{
			Program:  program,
			Accounts: []AccountMeta{{Address: alice, Writable: true}},
			Data:     []byte{1, 2, 3},
		},
		Instruction{
			Program: program,
			Data:    []byte("memo"),
		},
	)
}

func TestTransaction_SignVerify(t *testing.T) {
	alice := KeypairFromPhrase("alice")
	bob := KeypairFromPhrase("bob")

	tx := sampleTransaction()
	tx.Sign(alice, bob)

	signers, err := tx.VerifySignatures()
	require.NoError(t, err)
	assert.Equal(t, []Address{alice.Address(), bob.Address()}, signers)

	// Re-signing replaces rather than duplicates.
	tx.Sign(alice)
	assert.Len(t, tx.Signatures, 2)
}

func TestTransaction_TamperBreaksSignature(t *testing.T) {
	alice := KeypairFromPhrase("alice")
	tx := sampleTransaction()
	tx.Sign(alice)

	tx.Instructions[1].Data = []byte("other")
	_, err := tx.VerifySignatures()
	assert.Error(t, err)
}

func TestTransaction_SerializeParse(t *testing.T) {
	alice := KeypairFromPhrase("alice")
	tx := sampleTransaction()
	tx.Sign(alice)

	parsed, err := ParseTransaction(tx.Serialize())
	require.NoError(t, err)
	assert.Equal(t, tx.ID, parsed.ID)
	assert.Equal(t, tx.Instructions, parsed.Instructions)
	assert.Equal(t, tx.Signatures, parsed.Signatures)

	_, err = parsed.VerifySignatures()
	assert.NoError(t, err)
}

func TestParseTransaction_Malformed(t *testing.T) {
	wire := sampleTransaction().Serialize()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad version", append([]byte{9}, wire[1:]...)},
		{"truncated", wire[:len(wire)-1]},
		{"trailing", append(append([]byte(nil), wire...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransaction(tt.data)
			assert.ErrorIs(t, err, ErrMalformedTransaction)
		})
	}
}

func TestTransaction_CheckLimits(t *testing.T) {
	assert.ErrorIs(t, NewTransaction("empty").CheckLimits(), ErrMalformedTransaction)

	ixs := make([]Instruction, MaxInstructions+1)
	assert.ErrorIs(t, NewTransaction("big", ixs...).CheckLimits(), ErrMalformedTransaction)

	wide := Instruction{Accounts: make([]AccountMeta, MaxAccountsPerIx+1)}
	assert.ErrorIs(t, NewTransaction("wide", wide).CheckLimits(), ErrMalformedTransaction)

	assert.NoError(t, sampleTransaction().CheckLimits())
}

func TestInstruction_Clone(t *testing.T) {
	ix := sampleTransaction().Instructions[0]
	c := ix.Clone()
	c.Data[0] = 99
	c.Accounts[0].Writable = false
	assert.Equal(t, byte(1), ix.Data[0])
	assert.True(t, ix.Accounts[0].Writable)
}

func TestKeypair_SaveLoad(t *testing.T) {
	kp := KeypairFromPhrase("dave")
	path := filepath.Join(t.TempDir(), "keys", "dave.json")

	require.NoError(t, SaveKeypair(path, kp))
	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), loaded.Address())

	msg := []byte("hello")
	assert.True(t, Verify(kp.Address(), msg, loaded.Sign(msg)))
}

func TestSequence(t *testing.T) {
	s := NewSequenceAt(41)
	assert.Equal(t, int64(41), s.Current())
	assert.Equal(t, int64(42), s.Next())
	assert.Equal(t, int64(42), s.Current())
	assert.Equal(t, int64(1), NewSequence().Next())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })

	assert.Len(t, UUIDv7Generator{}.Generate(), 36)
}
