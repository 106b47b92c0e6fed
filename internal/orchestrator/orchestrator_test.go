package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/backend"
	"github.com/omnipkg/omni/internal/backend/backendtest"
	"github.com/omnipkg/omni/internal/config"
	"github.com/omnipkg/omni/internal/orchestrator"
	"github.com/omnipkg/omni/internal/types"
)

// fakeStore is a minimal in-memory implementation of orchestrator.Store,
// enough to drive S1/S4/S5/S7 without a real SQLite file.
type fakeStore struct {
	records   []types.InstallRecord
	cache     map[string]types.CacheEntry
	snapshots []types.Snapshot
	audits    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{cache: make(map[string]types.CacheEntry)}
}

func (f *fakeStore) CacheGet(ctx context.Context, name string, b types.Backend) (types.CacheEntry, bool, error) {
	e, ok := f.cache[string(b)+"|"+name]
	if !ok || e.Expired(time.Now()) {
		return types.CacheEntry{}, false, nil
	}
	return e, true, nil
}

func (f *fakeStore) CachePut(ctx context.Context, entry types.CacheEntry, ttl time.Duration) error {
	entry.CachedAt = time.Now()
	entry.Expiry = entry.CachedAt.Add(ttl)
	f.cache[string(entry.Backend)+"|"+entry.Name] = entry
	return nil
}

func (f *fakeStore) SaveTransaction(ctx context.Context, t types.Transaction) error { return nil }

func (f *fakeStore) LoadInProgress(ctx context.Context) ([]types.Transaction, error) { return nil, nil }

func (f *fakeStore) RecordInstall(ctx context.Context, rec types.InstallRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) ListInstalled(ctx context.Context) ([]types.InstallRecord, error) {
	latest := map[string]types.InstallRecord{}
	for _, r := range f.records {
		latest[string(r.Backend)+"|"+r.Name] = r
	}
	var out []types.InstallRecord
	for _, r := range latest {
		if r.Status == types.StatusSuccess || r.Status == types.StatusUpdated {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestInstallRecord(ctx context.Context, name string, b types.Backend) (types.InstallRecord, bool, error) {
	var latest types.InstallRecord
	found := false
	for _, r := range f.records {
		if r.Name != name {
			continue
		}
		if b != "" && r.Backend != b {
			continue
		}
		if !found || r.Timestamp.After(latest.Timestamp) {
			latest = r
			found = true
		}
	}
	return latest, found, nil
}

func (f *fakeStore) CreateSnapshot(ctx context.Context, name, description string) (string, error) {
	id := "snap-" + name
	f.snapshots = append(f.snapshots, types.Snapshot{ID: id, Name: name, Description: description})
	return id, nil
}

func (f *fakeStore) ListSnapshots(ctx context.Context) ([]types.Snapshot, error) { return f.snapshots, nil }

func (f *fakeStore) Audit(ctx context.Context, actor, action, detail string) error {
	f.audits = append(f.audits, actor+":"+action+":"+detail)
	return nil
}

// fakeSnapshotter always reports a clean restore — these tests exercise
// the forward path and the per-operation inverse path, not the
// coarse-grained fallback (that is internal/txn's job, already covered
// there).
type fakeSnapshotter struct{}

func (fakeSnapshotter) Create(ctx context.Context, name, description string) (string, error) {
	return "snap-" + name, nil
}
func (fakeSnapshotter) Restore(ctx context.Context, id string) (bool, error) { return true, nil }

func newTestOrchestrator(t *testing.T, reg *backend.Registry) (*orchestrator.Orchestrator, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	return orchestrator.New(reg, fs, fakeSnapshotter{}, cfg), fs
}

// TestInstallTrivialSucceeds covers Scenario S1: install(["vim"],
// backend=apt) against a mock backend that has vim available and not yet
// installed. Expect one install_records row with status=success.
func TestInstallTrivialSucceeds(t *testing.T) {
	apt := backendtest.New(types.APT, 50)
	apt.AddPackage("vim", backendtest.CatalogEntry{Version: "9.0"})

	reg := backend.NewRegistry()
	reg.Register(apt)

	o, fs := newTestOrchestrator(t, reg)

	txResult, plan, err := o.Install(context.Background(), "tester", []string{"vim"}, orchestrator.InstallOptions{Backend: types.APT})
	require.NoError(t, err)
	require.Equal(t, types.TxCompleted, txResult.Status)
	require.Len(t, plan.Packages, 1)
	require.Equal(t, []string{"vim"}, apt.InstallCalls)

	require.Len(t, fs.records, 1)
	require.Equal(t, "vim", fs.records[0].Name)
	require.Equal(t, types.APT, fs.records[0].Backend)
	require.Equal(t, types.StatusSuccess, fs.records[0].Status)
}

// TestInstallRollsBackOnFailure covers Scenario S4: install(["A","B"])
// where the backend fails on B. Expect A installed then removed during
// rollback; final status RolledBack; an install_records row for A with
// status=success (forward) and one with status=removed (rollback).
func TestInstallRollsBackOnFailure(t *testing.T) {
	apt := backendtest.New(types.APT, 50)
	apt.AddPackage("A", backendtest.CatalogEntry{Version: "1.0"})
	apt.AddPackage("B", backendtest.CatalogEntry{Version: "1.0", FailInstall: true})

	reg := backend.NewRegistry()
	reg.Register(apt)

	o, fs := newTestOrchestrator(t, reg)

	txResult, _, err := o.Install(context.Background(), "tester", []string{"A", "B"}, orchestrator.InstallOptions{Backend: types.APT})
	require.Error(t, err)
	require.Equal(t, types.TxRolledBack, txResult.Status)
	require.Equal(t, []string{"A", "B"}, apt.InstallCalls)
	require.Equal(t, []string{"A"}, apt.RemoveCalls)

	var statuses []types.InstallStatus
	for _, r := range fs.records {
		if r.Name == "A" {
			statuses = append(statuses, r.Status)
		}
	}
	require.Equal(t, []types.InstallStatus{types.StatusSuccess, types.StatusRemoved}, statuses)

	for _, r := range fs.records {
		require.NotEqual(t, "B", r.Name, "the operation that genuinely failed must not get an install_records row")
	}
}

// TestInstallWithoutBackendPicksPreferredOrder covers the default,
// undecorated `omni install <pkg>` path (no --backend): with two backends
// offering the same name, the one earlier in boxes.preferred_order must
// be picked, not rejected as an invalid empty backend tag.
func TestInstallWithoutBackendPicksPreferredOrder(t *testing.T) {
	snap := backendtest.New(types.Snap, 10)
	snap.AddPackage("vim", backendtest.CatalogEntry{Version: "9.1"})

	apt := backendtest.New(types.APT, 50)
	apt.AddPackage("vim", backendtest.CatalogEntry{Version: "9.0"})

	reg := backend.NewRegistry()
	reg.Register(snap)
	reg.Register(apt)

	fs := newFakeStore()
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	cfg.Boxes.PreferredOrder = []string{"apt", "snap"}
	o := orchestrator.New(reg, fs, fakeSnapshotter{}, cfg)

	txResult, plan, err := o.Install(context.Background(), "tester", []string{"vim"}, orchestrator.InstallOptions{})
	require.NoError(t, err)
	require.Equal(t, types.TxCompleted, txResult.Status)
	require.Len(t, plan.Packages, 1)
	require.Equal(t, types.APT, plan.Packages[0].Backend)
	require.Equal(t, []string{"vim"}, apt.InstallCalls)
	require.Empty(t, snap.InstallCalls, "the preferred backend should be chosen before any other is tried")
}

// TestRemoveWithoutBackendUsesInstallRecord covers the default,
// undecorated `omni remove <pkg>` path (no --backend): the backend to
// remove from comes from the package's own install history.
func TestRemoveWithoutBackendUsesInstallRecord(t *testing.T) {
	apt := backendtest.New(types.APT, 50)
	apt.AddPackage("vim", backendtest.CatalogEntry{Version: "9.0"})
	require.NoError(t, apt.Install(context.Background(), "vim"))

	reg := backend.NewRegistry()
	reg.Register(apt)

	o, fs := newTestOrchestrator(t, reg)
	fs.records = append(fs.records, types.NewInstallRecord("vim", types.APT, types.StatusSuccess, time.Now()))

	txResult, err := o.Remove(context.Background(), "tester", []string{"vim"}, "")
	require.NoError(t, err)
	require.Equal(t, types.TxCompleted, txResult.Status)
	require.Equal(t, []string{"vim"}, apt.RemoveCalls)
}

// TestInstallRejectsMaliciousName covers Scenario S5: a path-traversal
// package name fails validation before any backend call.
func TestInstallRejectsMaliciousName(t *testing.T) {
	apt := backendtest.New(types.APT, 50)
	reg := backend.NewRegistry()
	reg.Register(apt)

	o, _ := newTestOrchestrator(t, reg)

	_, _, err := o.Install(context.Background(), "tester", []string{"../etc/passwd"}, orchestrator.InstallOptions{Backend: types.APT})
	require.Error(t, err)
	require.Empty(t, apt.InstallCalls, "no backend call may occur once validation has failed")
}

// TestSearchDeduplicatesAndSortsInstalledFirst covers Scenario S7:
// search("editor") across backends returns a deduplicated list with
// installed packages sorted ahead of uninstalled ones.
func TestSearchDeduplicatesAndSortsInstalledFirst(t *testing.T) {
	apt := backendtest.New(types.APT, 50)
	apt.AddPackage("vim", backendtest.CatalogEntry{Version: "9.0"})
	apt.AddPackage("nano", backendtest.CatalogEntry{Version: "7.0"})
	require.NoError(t, apt.Install(context.Background(), "nano"))

	snap := backendtest.New(types.Snap, 20)
	snap.AddPackage("vim", backendtest.CatalogEntry{Version: "9.1"}) // same name, different backend

	reg := backend.NewRegistry()
	reg.Register(apt)
	reg.Register(snap)

	o, _ := newTestOrchestrator(t, reg)

	results, err := o.Search(context.Background(), "editor", 0)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, r := range results {
		require.False(t, names[r.Name], "result set must be deduplicated by name")
		names[r.Name] = true
	}
	require.True(t, names["vim"])
	require.True(t, names["nano"])
	require.Equal(t, "nano", results[0].Name, "installed packages sort ahead of uninstalled")
}
