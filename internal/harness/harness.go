package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
	"github.com/OpenMSCP/mscp-sdk/internal/social"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
	"github.com/OpenMSCP/mscp-sdk/internal/testutil"
)

// Harness runs scenarios against a fresh in-memory ledger.
type Harness struct {
	runtime *runtime.Runtime
	reader  *social.Reader
	clock   *testutil.DeterministicClock
	ids     *testutil.SequentialIDGenerator
	keys    keyring
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock, deterministic identities and sequential transaction ids, so the
// same scenario always produces the same trace.
//
// An error is returned only when the scenario cannot be run at all: a setup
// step is rejected, an op cannot be built, or the store fails. Unmet
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	backend, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer backend.Close()

	start := scenario.StartTime
	if start == 0 {
		start = DefaultStartTime
	}
	clock := testutil.NewDeterministicClock(start)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rt, err := runtime.New(ctx, backend,
		runtime.WithClock(clock),
		runtime.WithLogger(logger),
		runtime.WithPrograms(
			social.New(social.WithStructuralContentCheck(scenario.StrictContent)),
			memo.Program{},
		),
	)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		runtime: rt,
		reader:  social.NewReader(backend),
		clock:   clock,
		ids:     testutil.NewSequentialIDGenerator(""),
		keys:    keyring{},
		logger:  logger,
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		ev, err := h.submit(ctx, "setup", i, step)
		if err != nil {
			return nil, fmt.Errorf("setup step %d: %w", i, err)
		}
		result.AddTrace(ev)
		if ev.Status != StatusCommitted {
			return nil, fmt.Errorf("setup step %d rejected: %s", i, ev.Detail)
		}
	}

	for i, step := range scenario.Flow {
		ev, err := h.submit(ctx, "flow", i, step)
		if err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
		result.AddTrace(ev)
		if msg := checkExpect(step.Expect, ev); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d]%s: %s", i, stepLabel(step), msg))
		}
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Reader:  h.reader,
		Resolve: func(name string) ledger.Address { return h.keys.get(name).Address() },
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// submit builds, signs and submits one step.
func (h *Harness) submit(ctx context.Context, phase string, i int, step TxStep) (TraceEvent, error) {
	h.clock.Advance(step.Advance)
	oc := &opContext{keys: h.keys, now: h.clock.Now()}

	ixs, err := buildOps(oc, step.Instructions)
	if err != nil {
		return TraceEvent{}, err
	}
	tx := ledger.NewTransaction(h.ids.Generate(), ixs...)
	for _, name := range step.Signers {
		tx.Sign(h.keys.get(name))
	}

	ev := TraceEvent{
		Phase:     phase,
		Step:      i,
		Name:      step.Name,
		TxID:      tx.ID,
		Ops:       opNames(step.Instructions),
		Timestamp: oc.now,
	}

	receipt, err := h.runtime.Submit(ctx, tx)
	if err != nil {
		var te *runtime.TransactionError
		if !errors.As(err, &te) {
			return TraceEvent{}, err
		}
		ev.Status = StatusRejected
		ev.Code = runtime.CodeOf(err)
		ev.Detail = err.Error()
		if te.Index >= 0 {
			index := te.Index
			ev.Index = &index
		}
		h.logger.Info("step rejected", "phase", phase, "step", i, "tx", tx.ID, "code", ev.Code)
		return ev, nil
	}

	ev.Status = StatusCommitted
	ev.Seq = receipt.Seq
	h.logger.Info("step committed", "phase", phase, "step", i, "tx", tx.ID, "seq", receipt.Seq)
	return ev, nil
}

// checkExpect compares an outcome with its expect clause. A nil clause
// expects a commit. Returns "" when the outcome matches.
func checkExpect(expect *ExpectClause, ev TraceEvent) string {
	want := ExpectClause{Status: StatusCommitted}
	if expect != nil {
		want = *expect
	}
	if ev.Status != want.Status {
		if ev.Status == StatusRejected {
			return fmt.Sprintf("expected %s, got rejected: %s", want.Status, ev.Detail)
		}
		return fmt.Sprintf("expected %s, got %s", want.Status, ev.Status)
	}
	if want.Code != "" && ev.Code != want.Code {
		return fmt.Sprintf("expected code %s, got %s (%s)", want.Code, ev.Code, ev.Detail)
	}
	if want.Index != nil {
		if ev.Index == nil {
			return fmt.Sprintf("expected failure at instruction %d, got a transaction-level rejection", *want.Index)
		}
		if *ev.Index != *want.Index {
			return fmt.Sprintf("expected failure at instruction %d, got %d", *want.Index, *ev.Index)
		}
	}
	return ""
}

func opNames(ops []Op) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Op
	}
	return names
}

func stepLabel(step TxStep) string {
	if step.Name == "" {
		return ""
	}
	return fmt.Sprintf(" %q", step.Name)
}
