package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// CreateSnapshot captures the current status=success set as a new
// snapshot and returns its id (spec.md §4.6: "O(n) in installed
// packages").
func (s *Store) CreateSnapshot(ctx context.Context, name, description string) (string, error) {
	installed, err := s.ListInstalled(ctx)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errs.Wrap(errs.Database, err, "failed to begin snapshot transaction")
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		id, name, description, time.Now()); err != nil {
		tx.Rollback()
		return "", errs.Wrap(errs.Database, err, "failed to insert snapshot")
	}

	for _, rec := range installed {
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot_packages (snapshot_id, install_record_uuid) VALUES (?, ?)`,
			id, rec.UUID.String()); err != nil {
			tx.Rollback()
			return "", errs.Wrap(errs.Database, err, "failed to insert snapshot member")
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errs.Wrap(errs.Database, err, "failed to commit snapshot")
	}
	return id, nil
}

// ListSnapshots returns every snapshot, most recent first.
func (s *Store) ListSnapshots(ctx context.Context) ([]types.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, errs.Wrap(errs.Database, err, "failed to list snapshots")
	}
	defer rows.Close()

	var out []types.Snapshot
	for rows.Next() {
		var snap types.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Description, &snap.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.Database, err, "failed to scan snapshot")
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// GetSnapshotPackages returns the install-record uuids belonging to
// snapshot id.
func (s *Store) GetSnapshotPackages(ctx context.Context, id string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT install_record_uuid FROM snapshot_packages WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, errs.Wrap(errs.Database, err, "failed to load snapshot members")
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errs.Wrap(errs.Database, err, "failed to scan snapshot member")
		}
		id, err := parseUUID(raw)
		if err != nil {
			return nil, errs.Wrap(errs.Database, err, "malformed install_record uuid in snapshot_packages")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// InstallRecordByUUID loads a single install_records row, used by the
// Snapshotter to reconcile current state against a snapshot's members.
func (s *Store) InstallRecordByUUID(ctx context.Context, id uuid.UUID) (types.InstallRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, name, backend, version, source_url, install_path, timestamp, status, metadata
		FROM install_records WHERE uuid = ?`, id.String())
	rec, err := scanInstallRecord(row)
	switch err {
	case nil:
		return rec, true, nil
	case sql.ErrNoRows:
		return types.InstallRecord{}, false, nil
	default:
		return types.InstallRecord{}, false, errs.Wrap(errs.Database, err, "failed to load install record")
	}
}
