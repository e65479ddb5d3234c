package social

import (
	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
)

// RequireSigner fails with UNAUTHORIZED unless id signed the transaction.
func RequireSigner(creds runtime.Credentials, id ledger.Address) error {
	if !creds.Has(id) {
		return newError(ErrCodeUnauthorized, "", "%s did not sign the transaction", id)
	}
	return nil
}

// requireActor checks that the account passed as the acting identity is the
// identity the record names, and that it signed.
func requireActor(creds runtime.Credentials, passed, required ledger.Address) error {
	if passed != required {
		return newError(ErrCodeUnauthorized, "", "%s is not the authorized identity %s", passed, required)
	}
	return RequireSigner(creds, required)
}
