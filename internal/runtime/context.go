package runtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

// Program is an on-ledger program. Process runs one instruction; any error
// aborts the whole transaction.
type Program interface {
	ID() ledger.Address
	Process(ic *InstructionContext) error
}

// execution is the per-transaction state shared by every instruction.
type execution struct {
	ctx    context.Context
	txn    store.Txn
	txID   string
	seq    int64
	now    int64
	creds  Credentials
	logger *slog.Logger
	// logPosition orders program log entries within the transaction.
	logPosition int
}

// InstructionContext is what a Program sees while processing one
// instruction. Account I/O is restricted to the instruction's own accounts.
type InstructionContext struct {
	exec      *execution
	index     int
	program   ledger.Address
	accounts  []ledger.AccountMeta
	data      []byte
	inspector Inspector
}

// Context returns the transaction's context.
func (ic *InstructionContext) Context() context.Context { return ic.exec.ctx }

// Index returns the position of this instruction in the transaction.
func (ic *InstructionContext) Index() int { return ic.index }

// Program returns the id of the executing program.
func (ic *InstructionContext) Program() ledger.Address { return ic.program }

// Data returns the instruction data.
func (ic *InstructionContext) Data() []byte { return ic.data }

// Now returns the transaction's logical time in unix seconds.
func (ic *InstructionContext) Now() int64 { return ic.exec.now }

// TxID returns the executing transaction id.
func (ic *InstructionContext) TxID() string { return ic.exec.txID }

// Credentials returns the verified signer set.
func (ic *InstructionContext) Credentials() Credentials { return ic.exec.creds }

// Inspector returns the sibling-instruction inspector.
func (ic *InstructionContext) Inspector() Inspector { return ic.inspector }

// Logger returns a logger annotated with the transaction and instruction.
func (ic *InstructionContext) Logger() *slog.Logger {
	return ic.exec.logger.With("tx", ic.exec.txID, "ix", ic.index)
}

// NumAccounts returns how many accounts the instruction names.
func (ic *InstructionContext) NumAccounts() int { return len(ic.accounts) }

// Account returns the i-th account meta.
func (ic *InstructionContext) Account(i int) (ledger.AccountMeta, error) {
	if i < 0 || i >= len(ic.accounts) {
		return ledger.AccountMeta{}, newError(ErrCodeAccountIndex, ledger.ZeroAddress,
			"account %d requested, instruction has %d", i, len(ic.accounts))
	}
	return ic.accounts[i], nil
}

// Load returns the current state of account i as seen by this transaction.
// An empty slot yields an error wrapping store.ErrNotFound.
func (ic *InstructionContext) Load(i int) (store.Account, error) {
	meta, err := ic.Account(i)
	if err != nil {
		return store.Account{}, err
	}
	return ic.exec.txn.Get(ic.exec.ctx, meta.Address)
}

// CreateDerived creates account i at the canonical derived address of the
// executing program and seeds, owned by the program, with data zero padded
// to space bytes. It returns the canonical bump.
func (ic *InstructionContext) CreateDerived(i int, space int, data []byte, seeds ...[]byte) (uint8, error) {
	meta, err := ic.writable(i)
	if err != nil {
		return 0, err
	}
	addr, bump, err := ledger.FindAddress(ic.program, seeds...)
	if err != nil {
		return 0, newError(ErrCodeAddressMismatch, meta.Address, "derive address: %v", err)
	}
	if addr != meta.Address {
		return 0, newError(ErrCodeAddressMismatch, meta.Address,
			"slot is not the derived address %s", addr)
	}
	return bump, ic.create(meta.Address, space, data)
}

// CreateFresh creates account i at an address whose key signed the
// transaction, proving the slot is new and controlled by the creator.
func (ic *InstructionContext) CreateFresh(i int, space int, data []byte) error {
	meta, err := ic.writable(i)
	if err != nil {
		return err
	}
	if !ic.exec.creds.Has(meta.Address) {
		return newError(ErrCodeSlotNotSigned, meta.Address, "fresh slot must sign the transaction")
	}
	return ic.create(meta.Address, space, data)
}

// Write replaces the data of account i. The account must be writable and
// owned by the executing program. The slot size never changes.
func (ic *InstructionContext) Write(i int, data []byte) error {
	meta, err := ic.writable(i)
	if err != nil {
		return err
	}
	acct, err := ic.exec.txn.Get(ic.exec.ctx, meta.Address)
	if err != nil {
		return err
	}
	if acct.Owner != ic.program {
		return newError(ErrCodeIllegalOwner, meta.Address, "account is owned by %s", acct.Owner)
	}
	if len(data) > len(acct.Data) {
		return newError(ErrCodeAccountDataTooLarge, meta.Address,
			"%d bytes do not fit a %d byte slot", len(data), len(acct.Data))
	}
	buf := make([]byte, len(acct.Data))
	copy(buf, data)
	acct.Data = buf
	acct.UpdatedTx = ic.exec.txID
	acct.UpdatedSeq = ic.exec.seq
	return ic.exec.txn.Update(ic.exec.ctx, acct)
}

// Log appends data to the transaction's program log.
func (ic *InstructionContext) Log(data []byte) error {
	entry := store.LogEntry{
		TxID:     ic.exec.txID,
		Position: ic.exec.logPosition,
		Index:    ic.index,
		Program:  ic.program,
		Data:     append([]byte(nil), data...),
	}
	if err := ic.exec.txn.AppendLog(ic.exec.ctx, entry); err != nil {
		return err
	}
	ic.exec.logPosition++
	return nil
}

func (ic *InstructionContext) writable(i int) (ledger.AccountMeta, error) {
	meta, err := ic.Account(i)
	if err != nil {
		return meta, err
	}
	if !meta.Writable {
		return meta, newError(ErrCodeAccountNotWritable, meta.Address, "account %d is not writable", i)
	}
	return meta, nil
}

func (ic *InstructionContext) create(addr ledger.Address, space int, data []byte) error {
	if len(data) > space {
		return newError(ErrCodeAccountDataTooLarge, addr, "%d bytes do not fit a %d byte slot", len(data), space)
	}
	buf := make([]byte, space)
	copy(buf, data)
	err := ic.exec.txn.Create(ic.exec.ctx, store.Account{
		Address:    addr,
		Owner:      ic.program,
		Data:       buf,
		CreatedTx:  ic.exec.txID,
		UpdatedTx:  ic.exec.txID,
		CreatedSeq: ic.exec.seq,
		UpdatedSeq: ic.exec.seq,
	})
	if errors.Is(err, store.ErrAddressInUse) {
		return newError(ErrCodeAddressInUse, addr, "slot already holds a record")
	}
	return err
}
