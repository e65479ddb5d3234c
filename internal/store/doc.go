// Package store provides durable account storage for the ledger runtime.
//
// A Backend holds three collections:
//   - Accounts: fixed-size record buffers keyed by address, each stamped
//     with its owning program and the transaction that created it
//   - Transactions: the journal of committed transactions in seq order
//   - Program logs: opaque payloads appended by programs during execution
//
// All mutation goes through a Txn, the unit of work the runtime opens per
// transaction. Nothing a Txn writes is visible to readers until Commit; a
// Rollback discards everything. Only one Txn is open at a time per Backend.
//
// # Invariants
//
// Address uniqueness: Create fails with ErrAddressInUse when the slot is
// already occupied, so a record can only ever be created once.
//
// Logical time: the journal is ordered by seq, never by timestamp, so a
// replay of the journal is independent of wall time.
//
// # Backends
//
//   - "sqlite": mattn/go-sqlite3 with WAL, embedded schema.sql and
//     user_version migrations
//   - "pebble": cockroachdb/pebble LSM; a Txn is an indexed batch committed
//     with pebble.Sync
package store
