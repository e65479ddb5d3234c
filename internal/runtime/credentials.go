package runtime

import "github.com/OpenMSCP/mscp-sdk/internal/ledger"

// Credentials is the set of identities whose signatures verified for the
// current transaction.
type Credentials struct {
	signers []ledger.Address
	set     map[ledger.Address]struct{}
}

// NewCredentials builds a credential set in signature order.
func NewCredentials(signers ...ledger.Address) Credentials {
	c := Credentials{set: make(map[ledger.Address]struct{}, len(signers))}
	for _, s := range signers {
		if _, dup := c.set[s]; dup {
			continue
		}
		c.set[s] = struct{}{}
		c.signers = append(c.signers, s)
	}
	return c
}

// Has reports whether id signed the transaction.
func (c Credentials) Has(id ledger.Address) bool {
	_, ok := c.set[id]
	return ok
}

// Signers returns the signer set in signature order.
func (c Credentials) Signers() []ledger.Address {
	return append([]ledger.Address(nil), c.signers...)
}

// Len returns the number of distinct signers.
func (c Credentials) Len() int {
	return len(c.signers)
}
