package orchestrator

import (
	"context"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/resolver"
	"github.com/omnipkg/omni/internal/types"
	"github.com/omnipkg/omni/internal/validate"
)

// Info implements `info <pkg> [--backend <b>]`: a direct backend query,
// no transaction involved.
func (o *Orchestrator) Info(ctx context.Context, name string, b types.Backend) (string, error) {
	if err := validate.PackageName(name); err != nil {
		return "", err
	}
	a, err := requireAdapter(o.registry, b)
	if err != nil {
		return "", err
	}
	return a.GetInfo(ctx, name)
}

// List implements `list [--backend <b>] [--detailed]`. Detailed rendering
// is a CLI concern; this returns the append-only-history-derived
// currently-installed set either way.
func (o *Orchestrator) List(ctx context.Context, b types.Backend) ([]types.InstallRecord, error) {
	all, err := o.store.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}
	if b == "" {
		return all, nil
	}
	out := make([]types.InstallRecord, 0, len(all))
	for _, rec := range all {
		if rec.Backend == b {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Resolve implements `resolve <pkg> [--backend <b>]`: runs resolution
// without beginning a transaction, for inspection only. There is no
// `--detailed` variant.
func (o *Orchestrator) Resolve(ctx context.Context, name string, b types.Backend, strategy resolver.Strategy) (*types.Plan, error) {
	roots, err := o.validatedRoots(ctx, []string{name}, b)
	if err != nil {
		return nil, err
	}
	return o.newResolver().Resolve(ctx, roots, resolver.Options{Strategy: strategy})
}

// HistoryShow implements `history show [--limit N]`.
func (o *Orchestrator) HistoryShow(ctx context.Context, limit int) ([]types.InstallRecord, error) {
	all, err := o.store.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// HistoryUndo implements `history undo`: it locates the most recent
// install record for name and synthesizes the inverse one-operation
// transaction (Remove for a success record, Install for a removed one),
// committing it through the normal transaction manager so undo gets the
// same atomicity and audit trail as any other mutating operation — the
// supplemented `history.rs`-derived behavior described in SPEC_FULL.md.
func (o *Orchestrator) HistoryUndo(ctx context.Context, actor, name string, b types.Backend) (*types.Transaction, error) {
	if err := o.limiter.Allow(actor, "history_undo"); err != nil {
		return nil, err
	}

	rec, found, err := o.store.LatestInstallRecord(ctx, name, b)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.New(errs.PackageNotFound, "no install history for "+name)
	}

	var opType types.TransactionType
	switch rec.Status {
	case types.StatusSuccess, types.StatusUpdated:
		opType = types.TxRemove
	case types.StatusRemoved:
		opType = types.TxInstall
	default:
		return nil, errs.New(errs.Validation, "most recent record for "+name+" is not in an undoable state")
	}

	mgr := o.newManager()
	if _, err := mgr.Begin(ctx, opType, "undo "+name); err != nil {
		return nil, err
	}
	if err := mgr.AddOperation(ctx, opType, name, rec.Backend, rec.Version); err != nil {
		return nil, err
	}
	return o.commitAndRecord(ctx, mgr)
}

// SnapshotCreate implements `snapshot create <name> [--description D]`.
func (o *Orchestrator) SnapshotCreate(ctx context.Context, name, description string) (string, error) {
	return o.store.CreateSnapshot(ctx, name, description)
}

// SnapshotList implements `snapshot list`.
func (o *Orchestrator) SnapshotList(ctx context.Context) ([]types.Snapshot, error) {
	return o.store.ListSnapshots(ctx)
}

// SnapshotRevert implements `snapshot revert <id-or-name>`: restores the
// installed-package set captured at snapshot time via the coarse-grained
// Snapshotter, the same recovery path the transaction manager falls back
// to on an unwind failure.
func (o *Orchestrator) SnapshotRevert(ctx context.Context, actor, id string) (bool, error) {
	if err := o.limiter.Allow(actor, "snapshot_revert"); err != nil {
		return false, err
	}
	snaps, err := o.store.ListSnapshots(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range snaps {
		if s.ID == id {
			break
		}
		if s.Name == id {
			id = s.ID
			break
		}
	}
	ok, err := o.snapshots.Restore(ctx, id)
	if err != nil {
		return false, err
	}
	if auditErr := o.store.Audit(ctx, actor, "snapshot_revert", id); auditErr != nil {
		o.log.Errorw("failed to write audit entry for snapshot revert", "snapshot", id, "error", auditErr)
	}
	return ok, nil
}
