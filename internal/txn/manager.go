// Package txn implements the Transaction Manager of spec.md §4.5: the
// begin/add_operation/commit envelope around a resolved plan, with
// per-operation inverses and a coarse-grained snapshot restore as the
// fallback of last resort. The commit/rollback shape follows the
// teacher's txn_writer.go: accumulate a reversible trail as work
// completes, and on first failure unwind that trail in reverse before
// giving up.
package txn

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/obs"
	"github.com/omnipkg/omni/internal/types"
)

// Installer is the slice of backend.Adapter the manager needs to carry
// out and invert operations. Taking the narrow interface here (rather
// than *backend.Registry directly) keeps this package testable without
// constructing real adapters.
type Installer interface {
	Install(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Update(ctx context.Context, name string) error
}

// Backends resolves a types.Backend to the Installer that should carry
// out operations against it.
type Backends interface {
	Get(backend types.Backend) (Installer, bool)
}

// Snapshotter is the coarse-grained rollback anchor: begin() asks it to
// capture the installed-package set before any operation runs, and
// commit()'s last-resort path asks it to restore that capture.
type Snapshotter interface {
	// Create captures current state under name and returns its id.
	Create(ctx context.Context, name, description string) (string, error)
	// Restore re-applies the captured state for id. ok reports whether
	// every package in the snapshot was restored; err is non-nil only for
	// a total failure (snapshot unreadable, etc). A partial restore
	// reports ok=false with err=nil.
	Restore(ctx context.Context, id string) (ok bool, err error)
}

// Recorder persists the transaction record after every state change, per
// spec.md §4.5's durability requirement ("after every state change the
// transaction record is serialized and flushed").
type Recorder interface {
	SaveTransaction(ctx context.Context, t types.Transaction) error
}

// Manager runs exactly one transaction at a time, per spec.md §4.5's
// concurrency rule: "at most one active transaction per manager instance."
type Manager struct {
	backends  Backends
	snapshots Snapshotter
	recorder  Recorder
	log       interface {
		Infow(msg string, kv ...interface{})
		Errorw(msg string, kv ...interface{})
	}

	active *types.Transaction
}

// New builds a Manager. It logs through obs.From(context.Background()).
func New(backends Backends, snapshots Snapshotter, recorder Recorder) *Manager {
	return &Manager{backends: backends, snapshots: snapshots, recorder: recorder, log: obs.From(context.Background())}
}

// Begin allocates a transaction UUID, snapshots current state as the
// coarse-grained rollback anchor, and enters Planning. Fails if another
// transaction is already active.
func (m *Manager) Begin(ctx context.Context, typ types.TransactionType, description string) (*types.Transaction, error) {
	if m.active != nil {
		return nil, errs.New(errs.Validation, "a transaction is already active on this manager").
			WithContext("active_transaction", m.active.UUID.String())
	}

	id := uuid.New()
	snapID, err := m.snapshots.Create(ctx, "pre-transaction-"+id.String(), description)
	if err != nil {
		return nil, errs.Wrap(errs.Database, err, "failed to create pre-transaction snapshot")
	}

	t := &types.Transaction{
		UUID:               id,
		Type:               typ,
		Status:             types.TxPlanning,
		CreatedAt:          time.Now(),
		RollbackSnapshotID: snapID,
		Description:        description,
	}
	m.active = t
	m.flush(ctx)
	return t, nil
}

// AddOperation appends a pending operation. Only valid while the active
// transaction is in Planning.
func (m *Manager) AddOperation(ctx context.Context, typ types.TransactionType, name string, backend types.Backend, versionBefore string) error {
	if m.active == nil {
		return errs.New(errs.Validation, "no active transaction")
	}
	if m.active.Status != types.TxPlanning {
		return errs.New(errs.Validation, "add_operation is only valid in Planning").
			WithContext("status", string(m.active.Status))
	}
	m.active.Operations = append(m.active.Operations, types.Operation{
		Type:          typ,
		Name:          name,
		Backend:       backend,
		VersionBefore: versionBefore,
		Status:        types.OpPending,
	})
	m.flush(ctx)
	return nil
}

// Abort fails a Planning transaction without running any operation,
// matching the Planning --abort--> Failed edge of the state diagram.
func (m *Manager) Abort(ctx context.Context) error {
	if m.active == nil {
		return errs.New(errs.Validation, "no active transaction")
	}
	if m.active.Status != types.TxPlanning {
		return errs.New(errs.Validation, "abort is only valid in Planning")
	}
	m.active.Status = types.TxFailed
	m.finish(ctx)
	return nil
}

// Commit runs every operation in order. On the first failure it unwinds
// the completed operations' inverses in reverse, falling back to the
// coarse-grained snapshot restore if any inverse fails, per spec.md
// §4.5's outcome table.
func (m *Manager) Commit(ctx context.Context) (*types.Transaction, error) {
	t := m.active
	if t == nil {
		return nil, errs.New(errs.Validation, "no active transaction")
	}
	if t.Status != types.TxPlanning {
		return nil, errs.New(errs.Validation, "commit is only valid in Planning").
			WithContext("status", string(t.Status))
	}

	t.Status = types.TxInProgress
	m.flush(ctx)

	var failedAt int = -1
	var opErr error
	for i := range t.Operations {
		op := &t.Operations[i]
		op.Status = types.OpInProgress
		m.flush(ctx)

		if err := m.run(ctx, op); err != nil {
			op.Status = types.OpFailed
			failedAt = i
			opErr = err
			m.flush(ctx)
			break
		}
		op.Status = types.OpCompleted
		m.flush(ctx)
	}

	if failedAt == -1 {
		t.Status = types.TxCompleted
		now := time.Now()
		t.CompletedAt = &now
		m.finish(ctx)
		return t, nil
	}

	m.log.Errorw("operation failed mid-transaction, unwinding", "transaction", t.UUID.String(), "operation", t.Operations[failedAt].Name, "error", opErr)

	inverseOK := m.unwind(ctx, t, failedAt)
	now := time.Now()
	t.CompletedAt = &now

	if inverseOK {
		t.Status = types.TxRolledBack
		m.finish(ctx)
		return t, errs.Wrap(errs.InstallationFailed, opErr, "transaction rolled back after operation failure")
	}

	// Inverse unwind left some operations un-reversed; fall back to the
	// coarse-grained snapshot restore.
	restored, restoreErr := m.snapshots.Restore(ctx, t.RollbackSnapshotID)
	switch {
	case restoreErr != nil:
		t.Status = types.TxFailed
		m.finish(ctx)
		return t, errs.Wrap(errs.RecoveryFailed, restoreErr, "inverse rollback and snapshot restore both failed; operator intervention required").
			WithContext("snapshot", t.RollbackSnapshotID)
	case restored:
		// Snapshot restore fully recovered pre-transaction state even
		// though not every inverse succeeded on its own.
		t.Status = types.TxRolledBack
		m.finish(ctx)
		return t, errs.Wrap(errs.InstallationFailed, opErr, "transaction rolled back via snapshot restore")
	default:
		// Snapshot restore ran without error but could not confirm every
		// package was restored: neither a clean rollback nor a total
		// failure. spec.md §4.5 reserves PartiallyCompleted for exactly
		// this case ("only when rollback itself fails mid-way").
		t.Status = types.TxPartiallyCompleted
		m.finish(ctx)
		return t, errs.Wrap(errs.RecoveryFailed, opErr, "transaction partially rolled back; some packages may be in an inconsistent state").
			WithContext("snapshot", t.RollbackSnapshotID)
	}
}

// run carries out a single operation against its backend.
func (m *Manager) run(ctx context.Context, op *types.Operation) error {
	inst, ok := m.backends.Get(op.Backend)
	if !ok {
		return errs.New(errs.UnsupportedBackend, "no adapter registered for backend "+string(op.Backend))
	}
	switch op.Type {
	case types.TxInstall, types.TxInstallManifest:
		return inst.Install(ctx, op.Name)
	case types.TxRemove:
		return inst.Remove(ctx, op.Name)
	case types.TxUpdate:
		return inst.Update(ctx, op.Name)
	default:
		return errs.New(errs.Validation, "unknown operation type "+string(op.Type))
	}
}

// inverse carries out the inverse of a completed operation: install ->
// remove, remove -> reinstall-previous-version, update ->
// downgrade-to-version_before. Adapters expose no version-pinned install,
// so "reinstall previous version" and "downgrade" both resolve to a plain
// Install call; this is an honest limitation of the backend contract
// (spec.md §4.2), not an oversight — see DESIGN.md.
func (m *Manager) inverse(ctx context.Context, op *types.Operation) error {
	inst, ok := m.backends.Get(op.Backend)
	if !ok {
		return errs.New(errs.UnsupportedBackend, "no adapter registered for backend "+string(op.Backend))
	}
	switch op.Type {
	case types.TxInstall, types.TxInstallManifest:
		return inst.Remove(ctx, op.Name)
	case types.TxRemove:
		return inst.Install(ctx, op.Name)
	case types.TxUpdate:
		return inst.Install(ctx, op.Name)
	default:
		return errs.New(errs.Validation, "unknown operation type "+string(op.Type))
	}
}

// unwind reverse-iterates every operation that reached Completed before
// index failedAt and applies its inverse, stopping none early: every
// completed operation gets an unwind attempt even if an earlier one
// failed, so a single bad inverse doesn't strand the rest. Reports
// whether every inverse succeeded.
func (m *Manager) unwind(ctx context.Context, t *types.Transaction, failedAt int) bool {
	allOK := true
	for i := failedAt - 1; i >= 0; i-- {
		op := &t.Operations[i]
		if op.Status != types.OpCompleted {
			continue
		}
		if err := m.inverse(ctx, op); err != nil {
			m.log.Errorw("inverse operation failed", "transaction", t.UUID.String(), "operation", op.Name, "error", err)
			allOK = false
			continue
		}
		op.Status = types.OpFailed // no longer reflects installed state; see Equal/rendering callers
	}
	return allOK
}

// flush persists the in-progress transaction record, per spec.md §4.5's
// durability requirement. A Recorder error is logged, not returned: the
// commit loop must not abort partway through because persistence is slow
// or briefly unavailable, but the failure is visible to operators.
func (m *Manager) flush(ctx context.Context) {
	if m.recorder == nil || m.active == nil {
		return
	}
	if err := m.recorder.SaveTransaction(ctx, *m.active); err != nil {
		m.log.Errorw("failed to persist transaction record", "transaction", m.active.UUID.String(), "error", err)
	}
}

// finish flushes the final state and releases the active-transaction
// slot, allowing a subsequent Begin.
func (m *Manager) finish(ctx context.Context) {
	m.flush(ctx)
	m.active = nil
}
