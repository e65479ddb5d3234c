package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// Key layout:
//
//	a/<address>            account record
//	t/<tx id>              journal record
//	s/<seq big-endian u64> tx id, for seq-ordered iteration
//	l/<tx id>/<position>   program log entry
var (
	prefixAccount = []byte("a/")
	prefixTx      = []byte("t/")
	prefixSeq     = []byte("s/")
	prefixLog     = []byte("l/")
)

// Pebble is the pebble-backed Backend.
type Pebble struct {
	db *pebble.DB
	// writer is a one-slot semaphore held by the open Txn.
	writer chan struct{}
}

var _ Backend = (*Pebble)(nil)

// OpenPebble creates or opens a pebble database in directory path.
func OpenPebble(path string) (*Pebble, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble: %w", err)
	}
	return &Pebble{db: db, writer: make(chan struct{}, 1)}, nil
}

func (p *Pebble) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Begin waits for the writer slot, then opens an indexed batch so the Txn
// can read its own writes.
func (p *Pebble) Begin(ctx context.Context) (Txn, error) {
	select {
	case p.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("begin: %w", ctx.Err())
	}
	return &pebbleTxn{store: p, batch: p.db.NewIndexedBatch()}, nil
}

func (p *Pebble) ReadAccount(ctx context.Context, addr ledger.Address) (Account, error) {
	v, err := getCopy(p.db, accountKey(addr))
	if err != nil {
		return Account{}, fmt.Errorf("read account %s: %w", addr, err)
	}
	acct, err := decodeAccount(addr, v)
	if err != nil {
		return Account{}, fmt.Errorf("read account %s: %w", addr, err)
	}
	return acct, nil
}

func (p *Pebble) ReadLogs(ctx context.Context, txID string) ([]LogEntry, error) {
	prefix := logPrefix(txID)
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upperBound(prefix)})
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	defer iter.Close()

	var entries []LogEntry
	for ok := iter.First(); ok; ok = iter.Next() {
		key := iter.Key()
		if len(key) != len(prefix)+4 {
			return nil, fmt.Errorf("read logs: %w", errCorruptValue)
		}
		position := int(binary.BigEndian.Uint32(key[len(prefix):]))
		entry, err := decodeLog(txID, position, iter.Value())
		if err != nil {
			return nil, fmt.Errorf("read logs: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	return entries, nil
}

func (p *Pebble) ReadTransaction(ctx context.Context, id string) (TxRecord, error) {
	v, err := getCopy(p.db, txKey(id))
	if err != nil {
		return TxRecord{}, fmt.Errorf("read transaction %s: %w", id, err)
	}
	rec, err := decodeTx(id, v)
	if err != nil {
		return TxRecord{}, fmt.Errorf("read transaction %s: %w", id, err)
	}
	return rec, nil
}

func (p *Pebble) ScanTransactions(ctx context.Context, afterSeq int64, fn func(TxRecord) error) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: seqKey(afterSeq + 1),
		UpperBound: upperBound(prefixSeq),
	})
	if err != nil {
		return fmt.Errorf("scan transactions: %w", err)
	}
	var ids []string
	for ok := iter.First(); ok; ok = iter.Next() {
		ids = append(ids, string(iter.Value()))
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return fmt.Errorf("scan transactions: %w", err)
	}
	iter.Close()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := p.ReadTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pebble) LastSeq(ctx context.Context) (int64, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: prefixSeq, UpperBound: upperBound(prefixSeq)})
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, iter.Error()
	}
	key := iter.Key()
	return int64(binary.BigEndian.Uint64(key[len(prefixSeq):])), nil
}

// pebbleTxn buffers every write in an indexed batch. Uniqueness checks read
// through the batch, so they see both committed state and earlier writes of
// the same Txn.
type pebbleTxn struct {
	store *Pebble
	batch *pebble.Batch
	done  bool
}

func (t *pebbleTxn) Get(ctx context.Context, addr ledger.Address) (Account, error) {
	if t.done {
		return Account{}, ErrTxnDone
	}
	v, err := getCopy(t.batch, accountKey(addr))
	if err != nil {
		return Account{}, fmt.Errorf("get account %s: %w", addr, err)
	}
	return decodeAccount(addr, v)
}

func (t *pebbleTxn) Create(ctx context.Context, acct Account) error {
	if t.done {
		return ErrTxnDone
	}
	exists, err := has(t.batch, accountKey(acct.Address))
	if err != nil {
		return fmt.Errorf("create account %s: %w", acct.Address, err)
	}
	if exists {
		return fmt.Errorf("create account %s: %w", acct.Address, ErrAddressInUse)
	}
	return t.batch.Set(accountKey(acct.Address), encodeAccount(acct), nil)
}

func (t *pebbleTxn) Update(ctx context.Context, acct Account) error {
	if t.done {
		return ErrTxnDone
	}
	prev, err := t.Get(ctx, acct.Address)
	if err != nil {
		return fmt.Errorf("update account %s: %w", acct.Address, err)
	}
	acct.CreatedTx = prev.CreatedTx
	acct.CreatedSeq = prev.CreatedSeq
	return t.batch.Set(accountKey(acct.Address), encodeAccount(acct), nil)
}

func (t *pebbleTxn) AppendLog(ctx context.Context, entry LogEntry) error {
	if t.done {
		return ErrTxnDone
	}
	return t.batch.Set(logKey(entry.TxID, entry.Position), encodeLog(entry), nil)
}

func (t *pebbleTxn) RecordTransaction(ctx context.Context, rec TxRecord) error {
	if t.done {
		return ErrTxnDone
	}
	for _, key := range [][]byte{txKey(rec.ID), seqKey(rec.Seq)} {
		exists, err := has(t.batch, key)
		if err != nil {
			return fmt.Errorf("record transaction %s: %w", rec.ID, err)
		}
		if exists {
			return fmt.Errorf("record transaction %s: %w", rec.ID, ErrDuplicateTransaction)
		}
	}
	if err := t.batch.Set(txKey(rec.ID), encodeTx(rec), nil); err != nil {
		return err
	}
	return t.batch.Set(seqKey(rec.Seq), []byte(rec.ID), nil)
}

func (t *pebbleTxn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	defer t.release()
	if err := t.batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *pebbleTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *pebbleTxn) release() {
	t.done = true
	t.batch.Close()
	<-t.store.writer
}

// getCopy reads key from r and copies the value out before releasing it.
func getCopy(r pebble.Reader, key []byte) ([]byte, error) {
	v, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func has(r pebble.Reader, key []byte) (bool, error) {
	_, err := getCopy(r, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// upperBound returns the smallest key greater than every key with prefix.
// Prefixes here always end in '/', so incrementing the last byte suffices.
func upperBound(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	out[len(out)-1]++
	return out
}

func accountKey(addr ledger.Address) []byte {
	return append(append([]byte(nil), prefixAccount...), addr[:]...)
}

func txKey(id string) []byte {
	return append(append([]byte(nil), prefixTx...), id...)
}

func seqKey(seq int64) []byte {
	key := append([]byte(nil), prefixSeq...)
	return binary.BigEndian.AppendUint64(key, uint64(seq))
}

// logPrefix length-prefixes the id so no transaction's prefix covers
// another's keys.
func logPrefix(txID string) []byte {
	key := append([]byte(nil), prefixLog...)
	ledger.PutString(txID, &key)
	return key
}

func logKey(txID string, position int) []byte {
	return binary.BigEndian.AppendUint32(logPrefix(txID), uint32(position))
}

var errCorruptValue = errors.New("store: corrupt value")

func encodeAccount(a Account) []byte {
	var out []byte
	ledger.PutAddress(a.Owner, &out)
	ledger.PutString(a.CreatedTx, &out)
	ledger.PutString(a.UpdatedTx, &out)
	ledger.PutInt64(a.CreatedSeq, &out)
	ledger.PutInt64(a.UpdatedSeq, &out)
	ledger.PutBytes(a.Data, &out)
	return out
}

func decodeAccount(addr ledger.Address, v []byte) (Account, error) {
	a := Account{Address: addr}
	pos := 0
	a.Owner, pos = ledger.ParseAddress(v, pos)
	a.CreatedTx, pos = ledger.ParseString(v, pos)
	a.UpdatedTx, pos = ledger.ParseString(v, pos)
	a.CreatedSeq, pos = ledger.ParseInt64(v, pos)
	a.UpdatedSeq, pos = ledger.ParseInt64(v, pos)
	a.Data, pos = ledger.ParseBytes(v, pos)
	if pos != len(v) {
		return Account{}, errCorruptValue
	}
	return a, nil
}

func encodeTx(rec TxRecord) []byte {
	var out []byte
	ledger.PutInt64(rec.Seq, &out)
	ledger.PutInt64(rec.Timestamp, &out)
	ledger.PutBytes(rec.Payload, &out)
	return out
}

func decodeTx(id string, v []byte) (TxRecord, error) {
	rec := TxRecord{ID: id}
	pos := 0
	rec.Seq, pos = ledger.ParseInt64(v, pos)
	rec.Timestamp, pos = ledger.ParseInt64(v, pos)
	rec.Payload, pos = ledger.ParseBytes(v, pos)
	if pos != len(v) {
		return TxRecord{}, errCorruptValue
	}
	return rec, nil
}

func encodeLog(e LogEntry) []byte {
	var out []byte
	ledger.PutUint32(uint32(e.Index), &out)
	ledger.PutAddress(e.Program, &out)
	ledger.PutBytes(e.Data, &out)
	return out
}

func decodeLog(txID string, position int, v []byte) (LogEntry, error) {
	e := LogEntry{TxID: txID, Position: position}
	pos := 0
	var index uint32
	index, pos = ledger.ParseUint32(v, pos)
	e.Index = int(index)
	e.Program, pos = ledger.ParseAddress(v, pos)
	e.Data, pos = ledger.ParseBytes(v, pos)
	if pos != len(v) {
		return LogEntry{}, errCorruptValue
	}
	return e, nil
}
