package ledger

import (
	"errors"
	"fmt"
)

// messageVersion prefixes every signed message.
const messageVersion byte = 0

// Size limits enforced when parsing a transaction.
const (
	MaxInstructions        = 64
	MaxAccountsPerIx       = 32
	MaxInstructionDataSize = 1 << 16
	MaxSignatures          = 16
)

var (
	// ErrMalformedTransaction is returned by ParseTransaction for truncated
	// or oversized input.
	ErrMalformedTransaction = errors.New("ledger: malformed transaction")
)

// AccountMeta names an account an instruction may touch.
type AccountMeta struct {
	Address  Address `json:"address"`
	Writable bool    `json:"writable"`
}

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	Program  Address       `json:"program"`
	Accounts []AccountMeta `json:"accounts"`
	Data     []byte        `json:"data"`
}

// Clone returns a deep copy so readers cannot mutate the pending sequence.
func (ix Instruction) Clone() Instruction {
	out := Instruction{Program: ix.Program}
	out.Accounts = append([]AccountMeta(nil), ix.Accounts...)
	out.Data = append([]byte(nil), ix.Data...)
	return out
}

// SignedBy is one signature over the transaction message.
type SignedBy struct {
	Signer    Address   `json:"signer"`
	Signature Signature `json:"signature"`
}

// Transaction is an ordered batch of instructions applied atomically.
type Transaction struct {
	// ID correlates the transaction across logs and the journal.
	ID           string        `json:"id"`
	Instructions []Instruction `json:"instructions"`
	Signatures   []SignedBy    `json:"signatures"`
}

// NewTransaction builds an unsigned transaction.
func NewTransaction(id string, instructions ...Instruction) *Transaction {
	return &Transaction{ID: id, Instructions: instructions}
}

// CheckLimits rejects transactions whose shape cannot be encoded or that
// exceed the host limits.
func (t *Transaction) CheckLimits() error {
	if len(t.Instructions) == 0 {
		return fmt.Errorf("%w: no instructions", ErrMalformedTransaction)
	}
	if len(t.Instructions) > MaxInstructions {
		return fmt.Errorf("%w: %d instructions (max %d)", ErrMalformedTransaction, len(t.Instructions), MaxInstructions)
	}
	if len(t.Signatures) > MaxSignatures {
		return fmt.Errorf("%w: %d signatures (max %d)", ErrMalformedTransaction, len(t.Signatures), MaxSignatures)
	}
	for i, ix := range t.Instructions {
		if len(ix.Accounts) > MaxAccountsPerIx {
			return fmt.Errorf("%w: instruction %d has %d accounts (max %d)", ErrMalformedTransaction, i, len(ix.Accounts), MaxAccountsPerIx)
		}
		if len(ix.Data) > MaxInstructionDataSize {
			return fmt.Errorf("%w: instruction %d data is %d bytes (max %d)", ErrMalformedTransaction, i, len(ix.Data), MaxInstructionDataSize)
		}
	}
	return nil
}

// Message returns the bytes covered by signatures: version, id and the
// instruction sequence. Signatures themselves are excluded.
func (t *Transaction) Message() []byte {
	bytes := []byte{messageVersion}
	PutString(t.ID, &bytes)
	PutUint16(uint16(len(t.Instructions)), &bytes)
	for _, ix := range t.Instructions {
		PutAddress(ix.Program, &bytes)
		PutUint8(uint8(len(ix.Accounts)), &bytes)
		for _, meta := range ix.Accounts {
			PutAddress(meta.Address, &bytes)
			PutBool(meta.Writable, &bytes)
		}
		PutBytes(ix.Data, &bytes)
	}
	return bytes
}

// Sign adds or replaces a signature for each keypair.
func (t *Transaction) Sign(keys ...Keypair) {
	msg := t.Message()
	for _, k := range keys {
		sig := k.Sign(msg)
		replaced := false
		for i := range t.Signatures {
			if t.Signatures[i].Signer == k.Address() {
				t.Signatures[i].Signature = sig
				replaced = true
				break
			}
		}
		if !replaced {
			t.Signatures = append(t.Signatures, SignedBy{Signer: k.Address(), Signature: sig})
		}
	}
}

// VerifySignatures checks every signature against the message and returns
// the verified signer set in signature order. Any invalid signature fails
// the whole transaction.
func (t *Transaction) VerifySignatures() ([]Address, error) {
	msg := t.Message()
	signers := make([]Address, 0, len(t.Signatures))
	for i, s := range t.Signatures {
		if !Verify(s.Signer, msg, s.Signature) {
			return nil, fmt.Errorf("signature %d by %s does not verify", i, s.Signer)
		}
		signers = append(signers, s.Signer)
	}
	return signers, nil
}

// Serialize returns the wire form: message followed by signatures.
func (t *Transaction) Serialize() []byte {
	bytes := t.Message()
	PutUint8(uint8(len(t.Signatures)), &bytes)
	for _, s := range t.Signatures {
		PutAddress(s.Signer, &bytes)
		PutSignature(s.Signature, &bytes)
	}
	return bytes
}

// ParseTransaction decodes the wire form produced by Serialize.
func ParseTransaction(data []byte) (*Transaction, error) {
	if len(data) == 0 || data[0] != messageVersion {
		return nil, ErrMalformedTransaction
	}
	t := &Transaction{}
	position := 1
	t.ID, position = ParseString(data, position)
	var count uint16
	count, position = ParseUint16(data, position)
	if position > len(data) || int(count) > MaxInstructions {
		return nil, ErrMalformedTransaction
	}
	t.Instructions = make([]Instruction, int(count))
	for n := range t.Instructions {
		ix := &t.Instructions[n]
		ix.Program, position = ParseAddress(data, position)
		var accounts uint8
		accounts, position = ParseUint8(data, position)
		if position > len(data) || int(accounts) > MaxAccountsPerIx {
			return nil, ErrMalformedTransaction
		}
		ix.Accounts = make([]AccountMeta, int(accounts))
		for m := range ix.Accounts {
			ix.Accounts[m].Address, position = ParseAddress(data, position)
			ix.Accounts[m].Writable, position = ParseBool(data, position)
		}
		ix.Data, position = ParseBytes(data, position)
		if position > len(data) || len(ix.Data) > MaxInstructionDataSize {
			return nil, ErrMalformedTransaction
		}
	}
	var sigs uint8
	sigs, position = ParseUint8(data, position)
	if position > len(data) || int(sigs) > MaxSignatures {
		return nil, ErrMalformedTransaction
	}
	t.Signatures = make([]SignedBy, int(sigs))
	for n := range t.Signatures {
		t.Signatures[n].Signer, position = ParseAddress(data, position)
		t.Signatures[n].Signature, position = ParseSignature(data, position)
	}
	if position != len(data) {
		return nil, ErrMalformedTransaction
	}
	return t, nil
}
