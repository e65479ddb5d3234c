// Package memo implements the trusted logging service: a program that
// validates an opaque payload and appends it to the transaction's program
// log. Other programs link to a memo by inspecting the instruction that
// carries it.
package memo

import (
	"fmt"
	"unicode/utf8"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
)

// ProgramID is the well-known id of the logging service.
var ProgramID = ledger.MustDecodeAddress("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// Error codes.
const (
	CodeInvalidUTF8   = "INVALID_MEMO_UTF8"
	CodeMissingSigner = "MISSING_MEMO_SIGNER"
)

// Error is a memo validation failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string     { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func (e *Error) ErrorCode() string { return e.Code }

// Program is the memo program. It is stateless.
type Program struct{}

// ID implements runtime.Program.
func (Program) ID() ledger.Address { return ProgramID }

// Process validates the payload and every listed signer, then logs it.
func (Program) Process(ic *runtime.InstructionContext) error {
	data := ic.Data()
	if !utf8.Valid(data) {
		return &Error{Code: CodeInvalidUTF8, Message: "memo payload is not valid UTF-8"}
	}
	creds := ic.Credentials()
	for i := 0; i < ic.NumAccounts(); i++ {
		meta, err := ic.Account(i)
		if err != nil {
			return err
		}
		if !creds.Has(meta.Address) {
			return &Error{Code: CodeMissingSigner, Message: fmt.Sprintf("account %s did not sign", meta.Address)}
		}
	}
	return ic.Log(data)
}

// Instruction builds a memo instruction. Every signer listed must sign the
// transaction.
func Instruction(payload []byte, signers ...ledger.Address) ledger.Instruction {
	accounts := make([]ledger.AccountMeta, len(signers))
	for i, s := range signers {
		accounts[i] = ledger.AccountMeta{Address: s}
	}
	return ledger.Instruction{
		Program:  ProgramID,
		Accounts: accounts,
		Data:     append([]byte(nil), payload...),
	}
}
