package store

import (
	"context"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/txn"
	"github.com/omnipkg/omni/internal/types"
)

// Snapshotter implements txn.Snapshotter on top of the state store's
// install_records/snapshots tables: Create captures the current
// status=success set, Restore reconciles that set back by reinstalling
// missing packages and removing extras through the same backend registry
// the transaction manager uses.
type Snapshotter struct {
	store    *Store
	backends txn.Backends
}

// NewSnapshotter builds a Snapshotter backed by store and resolved through
// backends (typically a *backend.Registry wrapped to satisfy txn.Backends).
func NewSnapshotter(store *Store, backends txn.Backends) *Snapshotter {
	return &Snapshotter{store: store, backends: backends}
}

// Create captures the current install_records status=success set as a
// new snapshot and returns its id, per spec.md §4.5's
// "pre-transaction-<uuid>" anchor.
func (s *Snapshotter) Create(ctx context.Context, name, description string) (string, error) {
	return s.store.CreateSnapshot(ctx, name, description)
}

// Restore reinstalls every package recorded in snapshot id that is not
// currently installed, and removes every currently-installed package that
// the snapshot does not include. It reports ok=true only if every
// reconciling action succeeded; a total failure to even read the snapshot
// returns a non-nil error instead, matching txn.Snapshotter's contract.
func (s *Snapshotter) Restore(ctx context.Context, id string) (bool, error) {
	memberIDs, err := s.store.GetSnapshotPackages(ctx, id)
	if err != nil {
		return false, errs.Wrap(errs.Database, err, "failed to read snapshot members")
	}

	wanted := make(map[string]types.InstallRecord)
	for _, mid := range memberIDs {
		rec, ok, err := s.store.InstallRecordByUUID(ctx, mid)
		if err != nil {
			return false, errs.Wrap(errs.Database, err, "failed to resolve snapshot member")
		}
		if ok {
			wanted[key(rec.Name, rec.Backend)] = rec
		}
	}

	current, err := s.store.ListInstalled(ctx)
	if err != nil {
		return false, errs.Wrap(errs.Database, err, "failed to list currently installed packages")
	}
	currentSet := make(map[string]bool, len(current))
	for _, rec := range current {
		currentSet[key(rec.Name, rec.Backend)] = true
	}

	ok := true

	for k, rec := range wanted {
		if currentSet[k] {
			continue
		}
		inst, found := s.backends.Get(rec.Backend)
		if !found {
			ok = false
			continue
		}
		if err := inst.Install(ctx, rec.Name); err != nil {
			ok = false
		}
	}

	for _, rec := range current {
		k := key(rec.Name, rec.Backend)
		if _, want := wanted[k]; want {
			continue
		}
		inst, found := s.backends.Get(rec.Backend)
		if !found {
			ok = false
			continue
		}
		if err := inst.Remove(ctx, rec.Name); err != nil {
			ok = false
		}
	}

	return ok, nil
}

func key(name string, backend types.Backend) string {
	return string(backend) + "|" + name
}
