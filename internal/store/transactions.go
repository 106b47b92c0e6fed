package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// SaveTransaction satisfies txn.Recorder: it upserts the full transaction
// record as JSON, keyed by uuid, implementing spec.md §4.5's durability
// rule ("after every state change the transaction record is serialized
// and flushed").
func (s *Store) SaveTransaction(ctx context.Context, t types.Transaction) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return errs.Wrap(errs.Validation, err, "failed to encode transaction record")
	}

	_, err = exec(ctx, s.db, `
		INSERT INTO transactions (uuid, status, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET status = excluded.status, payload = excluded.payload, updated_at = excluded.updated_at`,
		t.UUID.String(), string(t.Status), string(payload), time.Now())
	if err != nil {
		return errs.Wrap(errs.Database, err, "failed to persist transaction record")
	}
	return nil
}

// LoadInProgress satisfies txn.Loader: it returns every transaction whose
// last-saved status is InProgress, for Reconcile to mark Failed on
// startup (spec.md §4.5).
func (s *Store) LoadInProgress(ctx context.Context) ([]types.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM transactions WHERE status = ?`, string(types.TxInProgress))
	if err != nil {
		return nil, errs.Wrap(errs.Database, err, "failed to query in-progress transactions")
	}
	defer rows.Close()

	var out []types.Transaction
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errs.Wrap(errs.Database, err, "failed to scan transaction record")
		}
		var t types.Transaction
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, errs.Wrap(errs.Database, err, "failed to decode transaction record")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LoadTransaction returns a single transaction record by uuid.
func (s *Store) LoadTransaction(ctx context.Context, id string) (types.Transaction, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM transactions WHERE uuid = ?`, id)
	var payload string
	switch err := row.Scan(&payload); err {
	case nil:
		var t types.Transaction
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return types.Transaction{}, false, errs.Wrap(errs.Database, err, "failed to decode transaction record")
		}
		return t, true, nil
	case sql.ErrNoRows:
		return types.Transaction{}, false, nil
	default:
		return types.Transaction{}, false, errs.Wrap(errs.Database, err, "failed to load transaction record")
	}
}
