package social

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a program rejection. Codes are stable and appear in
// receipts, logs and metrics.
type ErrorCode string

const (
	// Field validation.
	ErrCodeUsernameInvalid   ErrorCode = "USERNAME_INVALID"
	ErrCodeBioTooLong        ErrorCode = "BIO_TOO_LONG"
	ErrCodeAvatarTooLong     ErrorCode = "AVATAR_TOO_LONG"
	ErrCodePostTooLong       ErrorCode = "POST_TOO_LONG"
	ErrCodeMessageTooLong    ErrorCode = "MESSAGE_TOO_LONG"
	ErrCodePostContentUnsafe ErrorCode = "POST_CONTENT_UNSAFE"

	// Cross-instruction linkage.
	ErrCodeInvalidMemoInstruction ErrorCode = "INVALID_MEMO_INSTRUCTION"
	ErrCodeInvalidMemoData        ErrorCode = "INVALID_MEMO_DATA"

	// Authorization.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Slot selection.
	ErrCodeMessageSlotReserved ErrorCode = "MESSAGE_SLOT_RESERVED"

	// Instruction and account decoding.
	ErrCodeInstructionFallbackNotFound  ErrorCode = "INSTRUCTION_FALLBACK_NOT_FOUND"
	ErrCodeInstructionDidNotDeserialize ErrorCode = "INSTRUCTION_DID_NOT_DESERIALIZE"
	ErrCodeNotEnoughAccountKeys         ErrorCode = "NOT_ENOUGH_ACCOUNT_KEYS"
	ErrCodeAccountNotInitialized        ErrorCode = "ACCOUNT_NOT_INITIALIZED"
	ErrCodeAccountOwnedByWrongProgram   ErrorCode = "ACCOUNT_OWNED_BY_WRONG_PROGRAM"
	ErrCodeAccountDiscriminatorMismatch ErrorCode = "ACCOUNT_DISCRIMINATOR_MISMATCH"
	ErrCodeAccountDidNotDeserialize     ErrorCode = "ACCOUNT_DID_NOT_DESERIALIZE"
	ErrCodeConstraintSeeds              ErrorCode = "CONSTRAINT_SEEDS"
)

// Error is a program rejection. Two Errors match under errors.Is when their
// codes are equal, so the package-level sentinels work as targets.
type Error struct {
	Code    ErrorCode
	Message string
	// Field names the offending input, when there is one.
	Field string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode implements runtime.Coded.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

// Is matches on code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, field, format string, args ...any) *Error {
	return &Error{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is.
var (
	ErrUsernameInvalid        = &Error{Code: ErrCodeUsernameInvalid, Message: "username must be between 3 and 20 bytes"}
	ErrBioTooLong             = &Error{Code: ErrCodeBioTooLong, Message: "bio must be at most 140 bytes"}
	ErrAvatarTooLong          = &Error{Code: ErrCodeAvatarTooLong, Message: "avatar reference must be at most 100 bytes"}
	ErrPostTooLong            = &Error{Code: ErrCodePostTooLong, Message: "post content must be at most 280 bytes"}
	ErrMessageTooLong         = &Error{Code: ErrCodeMessageTooLong, Message: "message must be at most 1000 bytes"}
	ErrPostContentUnsafe      = &Error{Code: ErrCodePostContentUnsafe, Message: "post content contains structural characters"}
	ErrInvalidMemoInstruction = &Error{Code: ErrCodeInvalidMemoInstruction, Message: "next instruction must call the memo program"}
	ErrInvalidMemoData        = &Error{Code: ErrCodeInvalidMemoData, Message: "memo payload does not match the post"}
	ErrUnauthorized           = &Error{Code: ErrCodeUnauthorized, Message: "unauthorized operation"}
	ErrAccountNotInitialized  = &Error{Code: ErrCodeAccountNotInitialized, Message: "account is not initialized"}
	ErrMessageSlotReserved    = &Error{Code: ErrCodeMessageSlotReserved, Message: "message slot is an identity or profile address"}
)

// IsUnauthorized returns true if err is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsLinkageError returns true if err is a memo linkage failure.
func IsLinkageError(err error) bool {
	return errors.Is(err, ErrInvalidMemoInstruction) || errors.Is(err, ErrInvalidMemoData)
}
