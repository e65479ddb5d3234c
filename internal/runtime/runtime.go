package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

const (
	statusCommitted = "committed"
	statusRejected  = "rejected"
	statusOK        = "ok"
	statusFailed    = "failed"

	unknownProgram = "unknown"
)

// Receipt describes a committed transaction.
type Receipt struct {
	TxID         string `json:"tx_id"`
	Seq          int64  `json:"seq"`
	Timestamp    int64  `json:"timestamp"`
	Instructions int    `json:"instructions"`
}

// Runtime executes transactions against a store.Backend.
//
// Thread-safety: Submit may be called from any goroutine; transactions are
// executed one at a time.
type Runtime struct {
	backend  store.Backend
	programs map[ledger.Address]Program
	clock    ledger.Clock
	seq      *ledger.Sequence
	logger   *slog.Logger
	metrics  *Metrics
	reg      prometheus.Registerer

	mu sync.Mutex
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. Default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithClock sets the source of transaction time. Default: wall clock.
func WithClock(clock ledger.Clock) Option {
	return func(r *Runtime) {
		r.clock = clock
	}
}

// WithRegisterer registers the runtime's metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runtime) {
		r.reg = reg
	}
}

// WithPrograms registers programs at construction.
func WithPrograms(programs ...Program) Option {
	return func(r *Runtime) {
		for _, p := range programs {
			r.programs[p.ID()] = p
		}
	}
}

// New creates a Runtime over backend. The transaction sequence resumes
// from the last journaled seq.
func New(ctx context.Context, backend store.Backend, opts ...Option) (*Runtime, error) {
	last, err := backend.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	r := &Runtime{
		backend:  backend,
		programs: make(map[ledger.Address]Program),
		clock:    ledger.SystemClock{},
		seq:      ledger.NewSequenceAt(last),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics = NewMetrics(r.reg)
	return r, nil
}

// Register adds a program. Registering the same id twice is an error.
func (r *Runtime) Register(p Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[p.ID()]; ok {
		return fmt.Errorf("runtime: program %s already registered", p.ID())
	}
	r.programs[p.ID()] = p
	return nil
}

// Backend returns the underlying store for read-side queries.
func (r *Runtime) Backend() store.Backend {
	return r.backend
}

// Metrics returns the runtime's collectors.
func (r *Runtime) Metrics() *Metrics {
	return r.metrics
}

// Seq returns the seq of the last committed transaction.
func (r *Runtime) Seq() int64 {
	return r.seq.Current()
}

// Submit verifies, executes and commits tx atomically. On rejection the
// store is unchanged and the error is a *TransactionError.
func (r *Runtime) Submit(ctx context.Context, tx *ledger.Transaction) (*Receipt, error) {
	return r.submit(ctx, tx, r.clock.Now)
}

// submit runs tx with its time taken from now, read once under the writer lock.
func (r *Runtime) submit(ctx context.Context, tx *ledger.Transaction, now func() int64) (*Receipt, error) {
	start := time.Now()
	defer func() { r.metrics.Duration.Observe(time.Since(start).Seconds()) }()

	creds, err := r.verify(tx)
	if err != nil {
		return nil, r.reject(tx.ID, &TransactionError{TxID: tx.ID, Index: -1, Err: err})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	txn, err := r.backend.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	defer txn.Rollback()

	exec := &execution{
		ctx:    ctx,
		txn:    txn,
		txID:   tx.ID,
		seq:    r.seq.Current() + 1,
		now:    now(),
		creds:  creds,
		logger: r.logger,
	}

	for i, ix := range tx.Instructions {
		if err := r.execute(exec, tx.Instructions, i); err != nil {
			r.metrics.Instructions.WithLabelValues(r.programLabel(ix.Program), statusFailed).Inc()
			return nil, r.reject(tx.ID, &TransactionError{TxID: tx.ID, Index: i, Program: ix.Program, Err: err})
		}
		r.metrics.Instructions.WithLabelValues(r.programLabel(ix.Program), statusOK).Inc()
	}

	rec := store.TxRecord{ID: tx.ID, Seq: exec.seq, Timestamp: exec.now, Payload: tx.Serialize()}
	if err := txn.RecordTransaction(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			err = newError(ErrCodeDuplicateTransaction, ledger.ZeroAddress, "transaction %s already processed", tx.ID)
			return nil, r.reject(tx.ID, &TransactionError{TxID: tx.ID, Index: -1, Err: err})
		}
		return nil, fmt.Errorf("runtime: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	r.seq.Next()

	r.metrics.Transactions.WithLabelValues(statusCommitted).Inc()
	r.logger.Info("transaction committed",
		"tx", tx.ID,
		"seq", exec.seq,
		"instructions", len(tx.Instructions),
		"signers", creds.Len(),
	)

	return &Receipt{
		TxID:         tx.ID,
		Seq:          exec.seq,
		Timestamp:    exec.now,
		Instructions: len(tx.Instructions),
	}, nil
}

// verify checks shape and signatures and returns the credential set.
func (r *Runtime) verify(tx *ledger.Transaction) (Credentials, error) {
	if tx.ID == "" {
		return Credentials{}, newError(ErrCodeMalformedTransaction, ledger.ZeroAddress, "transaction id is empty")
	}
	if err := tx.CheckLimits(); err != nil {
		return Credentials{}, newError(ErrCodeMalformedTransaction, ledger.ZeroAddress, "%v", err)
	}
	if len(tx.Signatures) == 0 {
		return Credentials{}, newError(ErrCodeSignatureFailure, ledger.ZeroAddress, "transaction is unsigned")
	}
	signers, err := tx.VerifySignatures()
	if err != nil {
		return Credentials{}, newError(ErrCodeSignatureFailure, ledger.ZeroAddress, "%v", err)
	}
	return NewCredentials(signers...), nil
}

func (r *Runtime) execute(exec *execution, instructions []ledger.Instruction, i int) error {
	ix := instructions[i]
	program, ok := r.programs[ix.Program]
	if !ok {
		return newError(ErrCodeUnknownProgram, ix.Program, "no program registered")
	}
	ic := &InstructionContext{
		exec:      exec,
		index:     i,
		program:   ix.Program,
		accounts:  append([]ledger.AccountMeta(nil), ix.Accounts...),
		data:      append([]byte(nil), ix.Data...),
		inspector: newInspector(instructions, i),
	}
	return program.Process(ic)
}

// programLabel keeps metric cardinality bounded by registered programs.
// Callers hold r.mu.
func (r *Runtime) programLabel(id ledger.Address) string {
	if _, ok := r.programs[id]; !ok {
		return unknownProgram
	}
	return id.String()
}

func (r *Runtime) reject(txID string, err *TransactionError) error {
	code := CodeOf(err)
	r.metrics.Transactions.WithLabelValues(statusRejected).Inc()
	r.metrics.Rejections.WithLabelValues(code).Inc()
	r.logger.Warn("transaction rejected",
		"tx", txID,
		"ix", err.Index,
		"code", code,
		"error", err.Err,
	)
	return err
}
