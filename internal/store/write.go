package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// sqliteTxn wraps a database transaction. Writes use ON CONFLICT DO NOTHING
// and inspect RowsAffected, so uniqueness violations surface as sentinel
// errors instead of driver-specific constraint errors.
type sqliteTxn struct {
	tx   *sql.Tx
	done bool
}

func (t *sqliteTxn) Get(ctx context.Context, addr ledger.Address) (Account, error) {
	if t.done {
		return Account{}, ErrTxnDone
	}
	row := t.tx.QueryRowContext(ctx, `
		SELECT address, owner, data, created_tx, updated_tx, created_seq, updated_seq
		FROM accounts
		WHERE address = ?
	`, addr[:])
	acct, err := scanAccount(row)
	if err != nil {
		return Account{}, fmt.Errorf("get account %s: %w", addr, err)
	}
	return acct, nil
}

// Create inserts a new account. Returns ErrAddressInUse if the slot exists.
func (t *sqliteTxn) Create(ctx context.Context, acct Account) error {
	if t.done {
		return ErrTxnDone
	}
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts
		(address, owner, data, created_tx, updated_tx, created_seq, updated_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`,
		acct.Address[:],
		acct.Owner[:],
		acct.Data,
		acct.CreatedTx,
		acct.UpdatedTx,
		acct.CreatedSeq,
		acct.UpdatedSeq,
	)
	if err != nil {
		return fmt.Errorf("create account %s: %w", acct.Address, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create account %s: %w", acct.Address, err)
	}
	if n == 0 {
		return fmt.Errorf("create account %s: %w", acct.Address, ErrAddressInUse)
	}
	return nil
}

// Update overwrites owner, data and the updated stamps of an existing account.
func (t *sqliteTxn) Update(ctx context.Context, acct Account) error {
	if t.done {
		return ErrTxnDone
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET owner = ?, data = ?, updated_tx = ?, updated_seq = ?
		WHERE address = ?
	`,
		acct.Owner[:],
		acct.Data,
		acct.UpdatedTx,
		acct.UpdatedSeq,
		acct.Address[:],
	)
	if err != nil {
		return fmt.Errorf("update account %s: %w", acct.Address, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account %s: %w", acct.Address, err)
	}
	if n == 0 {
		return fmt.Errorf("update account %s: %w", acct.Address, ErrNotFound)
	}
	return nil
}

func (t *sqliteTxn) AppendLog(ctx context.Context, entry LogEntry) error {
	if t.done {
		return ErrTxnDone
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO program_logs (tx_id, position, ix_index, program, data)
		VALUES (?, ?, ?, ?, ?)
	`,
		entry.TxID,
		entry.Position,
		entry.Index,
		entry.Program[:],
		entry.Data,
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// RecordTransaction journals rec. Returns ErrDuplicateTransaction if the id
// or seq is already present.
func (t *sqliteTxn) RecordTransaction(ctx context.Context, rec TxRecord) error {
	if t.done {
		return ErrTxnDone
	}
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO transactions (id, seq, timestamp, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, rec.ID, rec.Seq, rec.Timestamp, rec.Payload)
	if err != nil {
		return fmt.Errorf("record transaction %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record transaction %s: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("record transaction %s: %w", rec.ID, ErrDuplicateTransaction)
	}
	return nil
}

func (t *sqliteTxn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *sqliteTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
