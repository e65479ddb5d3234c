package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverPebble = "pebble"
)

var (
	// ErrNotFound is returned when an account or transaction does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrAddressInUse is returned by Create when the slot is occupied.
	ErrAddressInUse = errors.New("store: address already in use")

	// ErrDuplicateTransaction is returned by RecordTransaction when the id
	// or seq has already been journaled.
	ErrDuplicateTransaction = errors.New("store: transaction already recorded")

	// ErrTxnDone is returned when a Txn is used after Commit or Rollback.
	ErrTxnDone = errors.New("store: transaction already finished")
)

// Account is a record slot as persisted.
type Account struct {
	Address ledger.Address
	// Owner is the program allowed to mutate Data.
	Owner ledger.Address
	Data  []byte

	CreatedTx  string
	UpdatedTx  string
	CreatedSeq int64
	UpdatedSeq int64
}

// Clone returns a deep copy.
func (a Account) Clone() Account {
	a.Data = append([]byte(nil), a.Data...)
	return a
}

// LogEntry is one payload appended by a program.
type LogEntry struct {
	TxID string
	// Position orders entries within a transaction.
	Position int
	// Index is the instruction that produced the entry.
	Index   int
	Program ledger.Address
	Data    []byte
}

// TxRecord is one journaled transaction.
type TxRecord struct {
	ID        string
	Seq       int64
	Timestamp int64
	// Payload is the wire form from ledger.Transaction.Serialize.
	Payload []byte
}

// Txn is a unit of work. Reads observe the Txn's own uncommitted writes.
// Rollback after Commit is a no-op, so callers can always defer it.
type Txn interface {
	Get(ctx context.Context, addr ledger.Address) (Account, error)
	Create(ctx context.Context, acct Account) error
	Update(ctx context.Context, acct Account) error
	AppendLog(ctx context.Context, entry LogEntry) error
	RecordTransaction(ctx context.Context, rec TxRecord) error
	Commit() error
	Rollback() error
}

// Backend is a durable account store.
type Backend interface {
	// Begin opens the single writer Txn. It blocks while another is open.
	Begin(ctx context.Context) (Txn, error)
	ReadAccount(ctx context.Context, addr ledger.Address) (Account, error)
	// ReadLogs returns the entries of one transaction in Position order.
	ReadLogs(ctx context.Context, txID string) ([]LogEntry, error)
	ReadTransaction(ctx context.Context, id string) (TxRecord, error)
	// ScanTransactions calls fn for every journaled transaction with seq
	// greater than afterSeq, in seq order. Iteration stops at the first error.
	ScanTransactions(ctx context.Context, afterSeq int64, fn func(TxRecord) error) error
	// LastSeq returns the highest journaled seq, or 0 for an empty store.
	LastSeq(ctx context.Context) (int64, error)
	Close() error
}

// Open creates or opens a backend of the named driver at path.
func Open(driver, path string) (Backend, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(path)
	case DriverPebble:
		return OpenPebble(path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}
