package runtime

import (
	"context"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

// Replay re-executes every transaction journaled in src with seq greater
// than the runtime's current seq, in seq order. Each transaction runs at
// its recorded timestamp, so replaying a journal into an empty store
// reproduces the source accounts exactly.
//
// Replay and normal execution share one code path: signatures, programs and
// uniqueness checks all run again. A journaled transaction that no longer
// succeeds stops the replay.
func (r *Runtime) Replay(ctx context.Context, src store.Backend) (int, error) {
	count := 0
	err := src.ScanTransactions(ctx, r.Seq(), func(rec store.TxRecord) error {
		tx, err := ledger.ParseTransaction(rec.Payload)
		if err != nil {
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		receipt, err := r.submit(ctx, tx, func() int64 { return rec.Timestamp })
		if err != nil {
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		if receipt.Seq != rec.Seq {
			return fmt.Errorf("replay seq %d: committed as seq %d", rec.Seq, receipt.Seq)
		}
		count++
		return nil
	})
	return count, err
}
