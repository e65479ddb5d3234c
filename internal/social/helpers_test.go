package social

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
	"github.com/OpenMSCP/mscp-sdk/internal/testutil"
)

const startTime = 1000

type env struct {
	rt      *runtime.Runtime
	backend store.Backend
	reader  *Reader
	clock   *testutil.DeterministicClock
	ids     *testutil.SequentialIDGenerator
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	return newEnvOn(t, store.DriverSQLite, opts...)
}

func newEnvOn(t *testing.T, driver string, opts ...Option) *env {
	t.Helper()
	backend, err := store.Open(driver, filepath.Join(t.TempDir(), "social.db"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	clock := testutil.NewDeterministicClock(startTime)
	rt, err := runtime.New(context.Background(), backend,
		runtime.WithClock(clock),
		runtime.WithPrograms(New(opts...), memo.Program{}),
	)
	require.NoError(t, err)
	return &env{
		rt:      rt,
		backend: backend,
		reader:  NewReader(backend),
		clock:   clock,
		ids:     testutil.NewSequentialIDGenerator(""),
	}
}

func (e *env) submit(signers []ledger.Keypair, ixs ...ledger.Instruction) error {
	tx := ledger.NewTransaction(e.ids.Generate(), ixs...)
	tx.Sign(signers...)
	_, err := e.rt.Submit(context.Background(), tx)
	return err
}

func (e *env) createProfile(t *testing.T, kp ledger.Keypair, username, bio, avatar string) {
	t.Helper()
	ix, err := CreateProfile(kp.Address(), username, bio, avatar)
	require.NoError(t, err)
	require.NoError(t, e.submit([]ledger.Keypair{kp}, ix))
}

func (e *env) profile(t *testing.T, owner ledger.Address) Profile {
	t.Helper()
	p, err := e.reader.Profile(context.Background(), owner)
	require.NoError(t, err)
	return p
}

// eachDriver runs fn against a fresh env on every storage backend.
func eachDriver(t *testing.T, fn func(t *testing.T, e *env)) {
	for _, driver := range []string{store.DriverSQLite, store.DriverPebble} {
		t.Run(driver, func(t *testing.T) {
			fn(t, newEnvOn(t, driver))
		})
	}
}

func keys(kps ...ledger.Keypair) []ledger.Keypair { return kps }

func ptr(s string) *string { return &s }

var (
	alice = testutil.Identity("alice")
	bob   = testutil.Identity("bob")
	carol = testutil.Identity("carol")
)
