package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/txn"
	"github.com/omnipkg/omni/internal/types"
)

var errTest = errors.New("backend call failed")

// fakeInstaller records every call it receives and fails installs for any
// name listed in failInstallOn, simulating S4's "backend fails on B".
// failRemoveOn lets a test force an inverse to fail too.
type fakeInstaller struct {
	calls         []string
	failInstallOn map[string]bool
	failRemoveOn  map[string]bool
}

func (f *fakeInstaller) Install(_ context.Context, name string) error {
	f.calls = append(f.calls, "install:"+name)
	if f.failInstallOn[name] {
		return errTest
	}
	return nil
}

func (f *fakeInstaller) Remove(_ context.Context, name string) error {
	f.calls = append(f.calls, "remove:"+name)
	if f.failRemoveOn[name] {
		return errTest
	}
	return nil
}

func (f *fakeInstaller) Update(_ context.Context, name string) error {
	f.calls = append(f.calls, "update:"+name)
	return nil
}

type fakeBackends struct{ inst *fakeInstaller }

func (b *fakeBackends) Get(types.Backend) (txn.Installer, bool) { return b.inst, true }

type fakeSnapshotter struct {
	created []string
	restore bool
	restErr error
}

func (s *fakeSnapshotter) Create(_ context.Context, name, _ string) (string, error) {
	s.created = append(s.created, name)
	return name, nil
}

func (s *fakeSnapshotter) Restore(_ context.Context, _ string) (bool, error) {
	return s.restore, s.restErr
}

type fakeRecorder struct{ saved []types.Transaction }

func (r *fakeRecorder) SaveTransaction(_ context.Context, t types.Transaction) error {
	r.saved = append(r.saved, t)
	return nil
}

// TestCommitAllSucceed covers S1: a single Install operation that
// succeeds must leave the transaction Completed.
func TestCommitAllSucceed(t *testing.T) {
	inst := &fakeInstaller{}
	rec := &fakeRecorder{}
	m := txn.New(&fakeBackends{inst}, &fakeSnapshotter{restore: true}, rec)

	tx, err := m.Begin(context.Background(), types.TxInstall, "install vim")
	require.NoError(t, err)
	require.Equal(t, types.TxPlanning, tx.Status)

	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "vim", types.APT, ""))

	final, err := m.Commit(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.TxCompleted, final.Status)
	require.Equal(t, []string{"install:vim"}, inst.calls)
	require.NotEmpty(t, rec.saved, "transaction record must be flushed after every state change")
}

// TestCommitRollsBackOnFailure covers S4: install(["A","B"]) where the
// backend fails on B. A must be installed then removed during rollback,
// and the transaction ends RolledBack.
func TestCommitRollsBackOnFailure(t *testing.T) {
	inst := &fakeInstaller{failInstallOn: map[string]bool{"B": true}}
	m := txn.New(&fakeBackends{inst}, &fakeSnapshotter{restore: true}, &fakeRecorder{})

	_, err := m.Begin(context.Background(), types.TxInstall, "install A and B")
	require.NoError(t, err)
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "A", types.APT, ""))
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "B", types.APT, ""))

	final, err := m.Commit(context.Background())
	require.Error(t, err)
	require.Equal(t, types.TxRolledBack, final.Status)
	require.Equal(t, []string{"install:A", "install:B", "remove:A"}, inst.calls)
}

// TestCommitFallsBackToSnapshotWhenInverseFails covers "inverse rollback
// partially failed + snapshot restore succeeded -> RolledBack": A's
// install succeeds but its inverse (Remove) also fails, so the manager
// must fall back to the snapshot, which here reports a full restore.
func TestCommitFallsBackToSnapshotWhenInverseFails(t *testing.T) {
	inst := &fakeInstaller{
		failInstallOn: map[string]bool{"B": true},
		failRemoveOn:  map[string]bool{"A": true},
	}
	snap := &fakeSnapshotter{restore: true}
	m := txn.New(&fakeBackends{inst}, snap, &fakeRecorder{})

	_, err := m.Begin(context.Background(), types.TxInstall, "install A and B")
	require.NoError(t, err)
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "A", types.APT, ""))
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "B", types.APT, ""))

	final, err := m.Commit(context.Background())
	require.Error(t, err)
	require.Equal(t, types.TxRolledBack, final.Status)
	require.NotEmpty(t, snap.created)
}

// TestCommitMarksFailedWhenSnapshotRestoreErrors covers "snapshot restore
// also failed -> Failed (operator intervention required)".
func TestCommitMarksFailedWhenSnapshotRestoreErrors(t *testing.T) {
	inst := &fakeInstaller{
		failInstallOn: map[string]bool{"B": true},
		failRemoveOn:  map[string]bool{"A": true},
	}
	snap := &fakeSnapshotter{restore: false, restErr: errTest}
	m := txn.New(&fakeBackends{inst}, snap, &fakeRecorder{})

	_, err := m.Begin(context.Background(), types.TxInstall, "install A and B")
	require.NoError(t, err)
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "A", types.APT, ""))
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "B", types.APT, ""))

	final, err := m.Commit(context.Background())
	require.Error(t, err)
	require.Equal(t, types.TxFailed, final.Status)
}

// TestCommitPartiallyCompletedWhenSnapshotRestorePartial covers the
// PartiallyCompleted terminal state: snapshot restore runs without error
// but cannot confirm every package was restored.
func TestCommitPartiallyCompletedWhenSnapshotRestorePartial(t *testing.T) {
	inst := &fakeInstaller{
		failInstallOn: map[string]bool{"B": true},
		failRemoveOn:  map[string]bool{"A": true},
	}
	snap := &fakeSnapshotter{restore: false, restErr: nil}
	m := txn.New(&fakeBackends{inst}, snap, &fakeRecorder{})

	_, err := m.Begin(context.Background(), types.TxInstall, "install A and B")
	require.NoError(t, err)
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "A", types.APT, ""))
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "B", types.APT, ""))

	final, err := m.Commit(context.Background())
	require.Error(t, err)
	require.Equal(t, types.TxPartiallyCompleted, final.Status)
}

// TestSecondBeginFailsWhileActive covers spec.md §4.5's "at most one
// active transaction per manager instance."
func TestSecondBeginFailsWhileActive(t *testing.T) {
	m := txn.New(&fakeBackends{&fakeInstaller{}}, &fakeSnapshotter{restore: true}, &fakeRecorder{})
	_, err := m.Begin(context.Background(), types.TxInstall, "first")
	require.NoError(t, err)

	_, err = m.Begin(context.Background(), types.TxInstall, "second")
	require.Error(t, err)
}

// TestAddOperationRequiresPlanning covers the state-machine guard that
// add_operation is only valid in Planning.
func TestAddOperationRequiresPlanning(t *testing.T) {
	m := txn.New(&fakeBackends{&fakeInstaller{}}, &fakeSnapshotter{restore: true}, &fakeRecorder{})
	_, err := m.Begin(context.Background(), types.TxInstall, "t")
	require.NoError(t, err)
	require.NoError(t, m.AddOperation(context.Background(), types.TxInstall, "vim", types.APT, ""))
	_, err = m.Commit(context.Background())
	require.NoError(t, err)

	err = m.AddOperation(context.Background(), types.TxInstall, "later", types.APT, "")
	require.Error(t, err)
}
