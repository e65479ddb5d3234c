package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// createTestStore creates a new SQLite store in a temp dir.
func createTestStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// eachBackend runs fn once per driver against a fresh store.
func eachBackend(t *testing.T, fn func(t *testing.T, b Backend)) {
	for _, driver := range []string{DriverSQLite, DriverPebble} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data")
			b, err := Open(driver, path)
			if err != nil {
				t.Fatalf("Open(%q) failed: %v", driver, err)
			}
			t.Cleanup(func() { b.Close() })
			fn(t, b)
		})
	}
}

func testAddress(fill byte) ledger.Address {
	var a ledger.Address
	for i := range a {
		a[i] = fill
	}
	return a
}

func testAccount(fill byte, txID string, seq int64) Account {
	return Account{
		Address:    testAddress(fill),
		Owner:      testAddress(0xEE),
		Data:       []byte{fill, fill, 0, 0},
		CreatedTx:  txID,
		UpdatedTx:  txID,
		CreatedSeq: seq,
		UpdatedSeq: seq,
	}
}

// commitTx journals a transaction with one account and one log entry.
func commitTx(t *testing.T, b Backend, id string, seq int64, acct Account) {
	t.Helper()
	ctx := context.Background()
	txn, err := b.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer txn.Rollback()

	if err := txn.Create(ctx, acct); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := txn.AppendLog(ctx, LogEntry{TxID: id, Position: 0, Index: 1, Program: testAddress(0x55), Data: []byte("memo")}); err != nil {
		t.Fatalf("AppendLog() failed: %v", err)
	}
	if err := txn.RecordTransaction(ctx, TxRecord{ID: id, Seq: seq, Timestamp: 1700000000 + seq, Payload: []byte(id)}); err != nil {
		t.Fatalf("RecordTransaction() failed: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}

// verifyPragma reports whether pragma name currently reads as expected.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("pragma %s = %q, want %q", name, value, expected)
	}
	return nil
}
