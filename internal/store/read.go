package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// ReadAccount returns the committed state of addr.
// Returns ErrNotFound if the slot is empty.
func (s *SQLite) ReadAccount(ctx context.Context, addr ledger.Address) (Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address, owner, data, created_tx, updated_tx, created_seq, updated_seq
		FROM accounts
		WHERE address = ?
	`, addr[:])
	acct, err := scanAccount(row)
	if err != nil {
		return Account{}, fmt.Errorf("read account %s: %w", addr, err)
	}
	return acct, nil
}

// ReadLogs returns the log entries of one transaction ordered by position.
func (s *SQLite) ReadLogs(ctx context.Context, txID string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_id, position, ix_index, program, data
		FROM program_logs
		WHERE tx_id = ?
		ORDER BY position ASC
	`, txID)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var program []byte
		if err := rows.Scan(&e.TxID, &e.Position, &e.Index, &program, &e.Data); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if e.Program, err = ledger.AddressFromBytes(program); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return entries, nil
}

// ReadTransaction returns a journaled transaction by id.
func (s *SQLite) ReadTransaction(ctx context.Context, id string) (TxRecord, error) {
	var rec TxRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, timestamp, payload
		FROM transactions
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Seq, &rec.Timestamp, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return TxRecord{}, fmt.Errorf("read transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return TxRecord{}, fmt.Errorf("read transaction %s: %w", id, err)
	}
	return rec, nil
}

// ScanTransactions iterates the journal in seq order.
func (s *SQLite) ScanTransactions(ctx context.Context, afterSeq int64, fn func(TxRecord) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, timestamp, payload
		FROM transactions
		WHERE seq > ?
		ORDER BY seq ASC
	`, afterSeq)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}
	// Materialize before calling fn: with a single connection, fn could not
	// issue its own reads while rows is open.
	var recs []TxRecord
	for rows.Next() {
		var rec TxRecord
		if err := rows.Scan(&rec.ID, &rec.Seq, &rec.Timestamp, &rec.Payload); err != nil {
			rows.Close()
			return fmt.Errorf("scan transaction: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate transactions: %w", err)
	}
	rows.Close()

	for _, rec := range recs {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// LastSeq returns the highest journaled seq.
func (s *SQLite) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM transactions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// scanAccount scans a single account row. Maps sql.ErrNoRows to ErrNotFound.
func scanAccount(row *sql.Row) (Account, error) {
	var acct Account
	var addr, owner []byte
	err := row.Scan(
		&addr, &owner, &acct.Data,
		&acct.CreatedTx, &acct.UpdatedTx, &acct.CreatedSeq, &acct.UpdatedSeq,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	if acct.Address, err = ledger.AddressFromBytes(addr); err != nil {
		return Account{}, err
	}
	if acct.Owner, err = ledger.AddressFromBytes(owner); err != nil {
		return Account{}, err
	}
	return acct, nil
}
