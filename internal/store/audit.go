package store

import (
	"context"
	"time"

	"github.com/omnipkg/omni/internal/errs"
)

// Audit appends one row to audit_log (SPEC_FULL.md §C.3). Its callers
// record transaction outcomes (including rollbacks) and snapshot
// reverts; sudo escalation and signature verification outcomes are not
// written here.
func (s *Store) Audit(ctx context.Context, actor, action, detail string) error {
	_, err := exec(ctx, s.db, `INSERT INTO audit_log (timestamp, actor, action, detail) VALUES (?, ?, ?, ?)`,
		time.Now(), actor, action, detail)
	if err != nil {
		return errs.Wrap(errs.Database, err, "failed to append audit log entry")
	}
	return nil
}

// AuditEntry is one audit_log row, returned for operator review.
type AuditEntry struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Detail    string
}

// RecentAudit returns the most recent limit audit_log rows, newest first.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp, actor, action, detail FROM audit_log ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errs.Wrap(errs.Database, err, "failed to read audit log")
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.Timestamp, &e.Actor, &e.Action, &e.Detail); err != nil {
			return nil, errs.Wrap(errs.Database, err, "failed to scan audit log entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
