package txn

import (
	"context"

	"github.com/omnipkg/omni/internal/obs"
	"github.com/omnipkg/omni/internal/types"
)

// Loader is the subset of Recorder needed to reconcile transactions left
// behind by an abrupt process termination.
type Loader interface {
	LoadInProgress(ctx context.Context) ([]types.Transaction, error)
	SaveTransaction(ctx context.Context, t types.Transaction) error
}

// Reconcile implements spec.md §4.5's durability recovery rule:
// "transactions stuck in InProgress are marked Failed on recovery and the
// snapshot offered for manual restore." It must run once at process
// startup, before any Manager.Begin call against the same store.
func Reconcile(ctx context.Context, l Loader) ([]types.Transaction, error) {
	stuck, err := l.LoadInProgress(ctx)
	if err != nil {
		return nil, err
	}

	log := obs.From(ctx)
	var fixed []types.Transaction
	for _, t := range stuck {
		t.Status = types.TxFailed
		if err := l.SaveTransaction(ctx, t); err != nil {
			log.Errorw("failed to mark stuck transaction as failed during recovery", "transaction", t.UUID.String(), "error", err)
			continue
		}
		log.Infow("marked interrupted transaction as failed; snapshot available for manual restore", "transaction", t.UUID.String(), "snapshot", t.RollbackSnapshotID)
		fixed = append(fixed, t)
	}
	return fixed, nil
}
