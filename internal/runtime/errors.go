package runtime

import (
	"errors"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// Coded is implemented by errors that carry a stable machine-readable code.
// Program errors implement it so the runtime can label rejections.
type Coded interface {
	error
	ErrorCode() string
}

// ErrorCode categorizes host errors.
type ErrorCode string

const (
	// ErrCodeMalformedTransaction indicates an empty or oversized transaction.
	ErrCodeMalformedTransaction ErrorCode = "MALFORMED_TRANSACTION"

	// ErrCodeSignatureFailure indicates a missing or invalid signature.
	ErrCodeSignatureFailure ErrorCode = "SIGNATURE_FAILURE"

	// ErrCodeDuplicateTransaction indicates the id was already journaled.
	ErrCodeDuplicateTransaction ErrorCode = "DUPLICATE_TRANSACTION"

	// ErrCodeUnknownProgram indicates no program is registered for the id.
	ErrCodeUnknownProgram ErrorCode = "UNKNOWN_PROGRAM"

	// ErrCodeAccountIndex indicates an account index outside the instruction.
	ErrCodeAccountIndex ErrorCode = "ACCOUNT_INDEX_OUT_OF_RANGE"

	// ErrCodeAddressMismatch indicates a slot is not the canonical derived
	// address for the supplied seeds.
	ErrCodeAddressMismatch ErrorCode = "ADDRESS_MISMATCH"

	// ErrCodeAddressInUse indicates a create on an occupied slot.
	ErrCodeAddressInUse ErrorCode = "ADDRESS_IN_USE"

	// ErrCodeSlotNotSigned indicates a fresh slot whose key did not sign.
	ErrCodeSlotNotSigned ErrorCode = "SLOT_NOT_SIGNED"

	// ErrCodeAccountNotWritable indicates a write to a read-only account.
	ErrCodeAccountNotWritable ErrorCode = "ACCOUNT_NOT_WRITABLE"

	// ErrCodeIllegalOwner indicates a write to an account owned by another program.
	ErrCodeIllegalOwner ErrorCode = "ILLEGAL_OWNER"

	// ErrCodeAccountDataTooLarge indicates data larger than the slot.
	ErrCodeAccountDataTooLarge ErrorCode = "ACCOUNT_DATA_TOO_LARGE"
)

// Error is a host-level error.
type Error struct {
	Code    ErrorCode
	Message string
	// Account is the affected address, when there is one.
	Account ledger.Address
}

// Error implements the error interface.
func (e *Error) Error() string {
	if !e.Account.IsZero() {
		return fmt.Sprintf("%s: %s (account=%s)", e.Code, e.Message, e.Account)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode implements Coded.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

// Is matches any *Error with the same code, so callers can compare against
// a template: errors.Is(err, &runtime.Error{Code: runtime.ErrCodeAddressInUse}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, account ledger.Address, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Account: account}
}

// TransactionError reports why a transaction was rejected. Index is the
// failing instruction, or -1 when the transaction failed before or after
// instruction execution.
type TransactionError struct {
	TxID    string
	Index   int
	Program ledger.Address
	Err     error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("transaction %s rejected: %v", e.TxID, e.Err)
	}
	return fmt.Sprintf("transaction %s rejected at instruction %d (program=%s): %v", e.TxID, e.Index, e.Program, e.Err)
}

// Unwrap returns the underlying program or host error.
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first Coded error in err's chain, or
// "UNKNOWN" when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var c Coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return "UNKNOWN"
}

// IsSignatureError returns true if err is a signature failure.
// Uses errors.As to handle wrapped errors.
func IsSignatureError(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == ErrCodeSignatureFailure
	}
	return false
}

// IsAddressInUse returns true if err is a create on an occupied slot.
func IsAddressInUse(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == ErrCodeAddressInUse
	}
	return false
}

// FailedInstruction returns the index of the instruction that caused err,
// or -1 if err is not a TransactionError or failed outside execution.
func FailedInstruction(err error) int {
	var te *TransactionError
	if errors.As(err, &te) {
		return te.Index
	}
	return -1
}
