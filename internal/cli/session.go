package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
	"github.com/OpenMSCP/mscp-sdk/internal/social"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

// session is an open ledger: the configured store with the social and memo
// programs registered on a runtime.
type session struct {
	backend store.Backend
	runtime *runtime.Runtime
	reader  *social.Reader
	ids     ledger.IDGenerator
}

// openSession opens the configured store. A nil clock means wall time.
func openSession(ctx context.Context, cmd *cobra.Command, opts *RootOptions, clock ledger.Clock) (*session, error) {
	if err := opts.load(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}

	backend, err := store.Open(opts.Config.Store.Driver, opts.Config.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	rt, err := runtime.New(ctx, backend,
		runtime.WithClock(clock),
		runtime.WithLogger(opts.Logger),
		runtime.WithRegisterer(opts.Registry),
		runtime.WithPrograms(
			social.New(social.WithStructuralContentCheck(opts.Config.Program.RejectStructuralContent)),
			memo.Program{},
		),
	)
	if err != nil {
		backend.Close()
		return nil, WrapExitError(ExitCommandError, "start runtime", err)
	}
	opts.Logger.Debug("store opened",
		"driver", opts.Config.Store.Driver,
		"path", opts.Config.Store.Path,
		"seq", rt.Seq())

	return &session{
		backend: backend,
		runtime: rt,
		reader:  social.NewReader(backend),
		ids:     ledger.UUIDv7Generator{},
	}, nil
}

// lastTimestamp returns the execution time of the newest journaled
// transaction, or 0 for an empty store.
func (s *session) lastTimestamp(ctx context.Context) (int64, error) {
	seq, err := s.backend.LastSeq(ctx)
	if err != nil || seq == 0 {
		return 0, err
	}
	var ts int64
	err = s.backend.ScanTransactions(ctx, seq-1, func(rec store.TxRecord) error {
		ts = rec.Timestamp
		return nil
	})
	return ts, err
}

func (s *session) Close() error {
	return s.backend.Close()
}

// submit signs the instructions with every signer and executes them as one
// transaction.
func (s *session) submit(ctx context.Context, signers []ledger.Keypair, instructions ...ledger.Instruction) (*runtime.Receipt, error) {
	tx := ledger.NewTransaction(s.ids.Generate(), instructions...)
	tx.Sign(signers...)
	return s.runtime.Submit(ctx, tx)
}

// reportSubmitError renders a rejected transaction as a coded error and
// returns the matching exit error. Anything else is a command error.
func reportSubmitError(f *OutputFormatter, err error) error {
	var txErr *runtime.TransactionError
	if !errors.As(err, &txErr) {
		return WrapExitError(ExitCommandError, "submit transaction", err)
	}
	details := map[string]any{"tx_id": txErr.TxID}
	if txErr.Index >= 0 {
		details["instruction"] = txErr.Index
	}
	if err := f.Error(runtime.CodeOf(err), txErr.Err.Error(), details); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("transaction %s rejected", txErr.TxID))
}

// reportReadError renders a failed lookup. Missing records exit with
// ExitFailure; store failures are command errors.
func reportReadError(f *OutputFormatter, what string, err error) error {
	if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, social.ErrContentNotFound) {
		return WrapExitError(ExitCommandError, "read "+what, err)
	}
	if err := f.Error("NOT_FOUND", fmt.Sprintf("%s not found", what), nil); err != nil {
		return err
	}
	return NewExitError(ExitFailure, what+" not found")
}
