package social

import (
	"crypto/sha256"
	"errors"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

// ProgramID is the social program's id.
var ProgramID = ledger.MustDecodeAddress("9CuK5BsFiUEF781iSYSJt1BP2xJxDLH2DrVvfoZKJAtj")

// Instruction names.
const (
	InstructionInitialize      = "initialize"
	InstructionCreateProfile   = "create_profile"
	InstructionUpdateProfile   = "update_profile"
	InstructionCreatePost      = "create_post"
	InstructionSendMessage     = "send_message"
	InstructionMarkMessageRead = "mark_message_read"
)

const instructionTagSize = 8

type instructionTag [instructionTagSize]byte

func tagFor(name string) instructionTag {
	var tag instructionTag
	sum := sha256.Sum256([]byte("instruction:" + name))
	copy(tag[:], sum[:instructionTagSize])
	return tag
}

type handler func(p *Program, ic *runtime.InstructionContext, args []byte) error

// Program is the social ledger program.
type Program struct {
	strictContent bool
	handlers      map[instructionTag]namedHandler
}

type namedHandler struct {
	name string
	fn   handler
}

// Option configures a Program.
type Option func(*Program)

// WithStructuralContentCheck rejects post content containing quotes,
// backslashes or control bytes, so the canonical payload is always valid
// JSON. Off by default, which keeps payloads byte-compatible with existing
// clients.
func WithStructuralContentCheck(enabled bool) Option {
	return func(p *Program) {
		p.strictContent = enabled
	}
}

// New creates the program.
func New(opts ...Option) *Program {
	p := &Program{handlers: make(map[instructionTag]namedHandler)}
	for name, fn := range map[string]handler{
		InstructionInitialize:      (*Program).initialize,
		InstructionCreateProfile:   (*Program).createProfile,
		InstructionUpdateProfile:   (*Program).updateProfile,
		InstructionCreatePost:      (*Program).createPost,
		InstructionSendMessage:     (*Program).sendMessage,
		InstructionMarkMessageRead: (*Program).markMessageRead,
	} {
		p.handlers[tagFor(name)] = namedHandler{name: name, fn: fn}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID implements runtime.Program.
func (p *Program) ID() ledger.Address {
	return ProgramID
}

// Process dispatches on the 8-byte instruction tag.
func (p *Program) Process(ic *runtime.InstructionContext) error {
	data := ic.Data()
	if len(data) < instructionTagSize {
		return newError(ErrCodeInstructionFallbackNotFound, "", "instruction data is %d bytes, shorter than a tag", len(data))
	}
	h, ok := p.handlers[instructionTag(data[:instructionTagSize])]
	if !ok {
		return newError(ErrCodeInstructionFallbackNotFound, "", "unknown instruction tag %x", data[:instructionTagSize])
	}
	ic.Logger().Debug("social instruction", "instruction", h.name)
	return h.fn(p, ic, data[instructionTagSize:])
}

func requireAccounts(ic *runtime.InstructionContext, n int) error {
	if ic.NumAccounts() < n {
		return newError(ErrCodeNotEnoughAccountKeys, "", "instruction needs %d accounts, got %d", n, ic.NumAccounts())
	}
	return nil
}

// account returns the address of account i. Callers have already checked
// the count with requireAccounts.
func account(ic *runtime.InstructionContext, i int) ledger.Address {
	meta, _ := ic.Account(i)
	return meta.Address
}

// loadOwned reads account i and checks it is initialized and owned by the
// program.
func loadOwned(ic *runtime.InstructionContext, i int) (store.Account, error) {
	acct, err := ic.Load(i)
	if errors.Is(err, store.ErrNotFound) {
		return store.Account{}, newError(ErrCodeAccountNotInitialized, "", "account %d (%s) is empty", i, account(ic, i))
	}
	if err != nil {
		return store.Account{}, err
	}
	if acct.Owner != ProgramID {
		return store.Account{}, newError(ErrCodeAccountOwnedByWrongProgram, "", "account %d is owned by %s", i, acct.Owner)
	}
	return acct, nil
}

// loadProfile reads a Profile and checks it sits at the canonical address of
// its own owner.
func loadProfile(ic *runtime.InstructionContext, i int) (Profile, error) {
	acct, err := loadOwned(ic, i)
	if err != nil {
		return Profile{}, err
	}
	profile, err := DecodeProfile(acct.Data)
	if err != nil {
		return Profile{}, err
	}
	want, _, err := ProfileAddress(profile.Owner)
	if err != nil {
		return Profile{}, err
	}
	if want != acct.Address {
		return Profile{}, newError(ErrCodeConstraintSeeds, "", "profile of %s is not at its derived address", profile.Owner)
	}
	return profile, nil
}
