package memo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

func newRuntime(t *testing.T) (*runtime.Runtime, store.Backend) {
	t.Helper()
	backend, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "memo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	rt, err := runtime.New(context.Background(), backend, runtime.WithPrograms(Program{}))
	require.NoError(t, err)
	return rt, backend
}

func TestProgramID(t *testing.T) {
	assert.Equal(t, "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr", ProgramID.String())
}

func TestMemo_Logs(t *testing.T) {
	rt, backend := newRuntime(t)
	alice := ledger.KeypairFromPhrase("alice")

	tx := ledger.NewTransaction("tx-1", Instruction([]byte(`{"hello":"world"}`), alice.Address()))
	tx.Sign(alice)
	_, err := rt.Submit(context.Background(), tx)
	require.NoError(t, err)

	logs, err := backend.ReadLogs(context.Background(), "tx-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ProgramID, logs[0].Program)
	assert.Equal(t, `{"hello":"world"}`, string(logs[0].Data))
}

func TestMemo_NoAccountsIsAllowed(t *testing.T) {
	rt, _ := newRuntime(t)
	alice := ledger.KeypairFromPhrase("alice")

	tx := ledger.NewTransaction("tx-1", Instruction([]byte("plain")))
	tx.Sign(alice)
	_, err := rt.Submit(context.Background(), tx)
	assert.NoError(t, err)
}

func TestMemo_Rejections(t *testing.T) {
	rt, _ := newRuntime(t)
	alice := ledger.KeypairFromPhrase("alice")
	bob := ledger.KeypairFromPhrase("bob")

	tests := []struct {
		name string
		ix   ledger.Instruction
		code string
	}{
		{"invalid utf8", Instruction([]byte{0xff, 0xfe}), CodeInvalidUTF8},
		{"unsigned account", Instruction([]byte("x"), bob.Address()), CodeMissingSigner},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ledger.NewTransaction(tt.name+string(rune('0'+i)), tt.ix)
			tx.Sign(alice)
			_, err := rt.Submit(context.Background(), tx)
			assert.Equal(t, tt.code, runtime.CodeOf(err))
		})
	}
}
