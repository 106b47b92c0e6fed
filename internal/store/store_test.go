package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/store"
	"github.com/omnipkg/omni/internal/types"
)

// openTest opens a shared-cache in-memory database for one test; the
// Cleanup closes it, which discards the database, so the next test
// starts from an empty one.
func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestRecordInstallIsAppendOnly covers Testable Property 6: no code path
// deletes install records, and writing more rows leaves the original
// intact.
func TestRecordInstallIsAppendOnly(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	first := types.NewInstallRecord("vim", types.APT, types.StatusSuccess, time.Now())
	require.NoError(t, s.RecordInstall(ctx, first))

	second := types.NewInstallRecord("vim", types.APT, types.StatusRemoved, time.Now().Add(time.Minute))
	require.NoError(t, s.RecordInstall(ctx, second))

	rec, ok, err := s.LatestInstallRecord(ctx, "vim", types.APT)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.StatusRemoved, rec.Status)

	// The original success row must still exist, untouched.
	orig, ok, err := s.InstallRecordByUUID(ctx, first.UUID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.StatusSuccess, orig.Status)
}

// TestCacheGetExpires covers Testable Property 9: cache_get after
// ttl+epsilon returns not-found.
func TestCacheGetExpires(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	entry := types.CacheEntry{Name: "curl", Backend: types.APT, Version: "8.0.0"}
	require.NoError(t, s.CachePut(ctx, entry, time.Millisecond))

	time.Sleep(5 * time.Millisecond)

	_, ok, err := s.CacheGet(ctx, "curl", types.APT)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestCacheGetHitIncrementsCounter checks a fresh entry is served and its
// hit_count is incremented on read.
func TestCacheGetHitIncrementsCounter(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	entry := types.CacheEntry{Name: "curl", Backend: types.APT, Version: "8.0.0"}
	require.NoError(t, s.CachePut(ctx, entry, time.Hour))

	got, ok, err := s.CacheGet(ctx, "curl", types.APT)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "8.0.0", got.Version)
	require.Equal(t, int64(1), got.HitCount)
}

// TestCreateSnapshotCapturesInstalledSet covers create_snapshot's "current
// status=success set" semantics (spec.md §4.6).
func TestCreateSnapshotCapturesInstalledSet(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	success := types.NewInstallRecord("vim", types.APT, types.StatusSuccess, time.Now())
	require.NoError(t, s.RecordInstall(ctx, success))
	failed := types.NewInstallRecord("emacs", types.APT, types.StatusFailed, time.Now())
	require.NoError(t, s.RecordInstall(ctx, failed))

	id, err := s.CreateSnapshot(ctx, "before-upgrade", "")
	require.NoError(t, err)

	members, err := s.GetSnapshotPackages(ctx, id)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, success.UUID, members[0])
}

// TestSaveAndLoadTransaction round-trips a transaction record through the
// durability table the Transaction Manager depends on.
func TestSaveAndLoadTransaction(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx := types.Transaction{
		Status: types.TxInProgress,
		Operations: []types.Operation{
			{Type: types.TxInstall, Name: "vim", Backend: types.APT, Status: types.OpInProgress},
		},
	}
	require.NoError(t, s.SaveTransaction(ctx, tx))

	stuck, err := s.LoadInProgress(ctx)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	require.Equal(t, "vim", stuck[0].Operations[0].Name)
}
