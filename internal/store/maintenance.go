package store

import (
	"context"

	flock "github.com/theckman/go-flock"

	"github.com/omnipkg/omni/internal/errs"
)

// maintenanceDeleteThreshold is the "significant number of rows deleted"
// trigger for running ANALYZE/VACUUM, per spec.md §4.6.
const maintenanceDeleteThreshold = 100

// Maintenance deletes expired cache rows and, if a significant number
// were removed, runs ANALYZE then VACUUM. The whole pass is guarded by an
// advisory lock on a sibling .lock file, matching the teacher's use of
// go-flock to guard concurrent writers to a shared resource (there,
// vendor/; here, the SQLite file during a blocking VACUUM).
func (s *Store) Maintenance(ctx context.Context, dbPath string) error {
	lock := flock.NewFlock(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return errs.Wrap(errs.Database, err, "failed to acquire maintenance lock")
	}
	if !locked {
		// Another process is already running maintenance; this is not an
		// error, just a no-op for this call.
		return nil
	}
	defer lock.Unlock()

	deleted, err := s.InvalidateCacheEntries(ctx)
	if err != nil {
		return err
	}
	if deleted < maintenanceDeleteThreshold {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return errs.Wrap(errs.Database, err, "failed to ANALYZE")
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return errs.Wrap(errs.Database, err, "failed to VACUUM")
	}
	return nil
}
