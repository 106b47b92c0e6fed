package store

import (
	"context"
	"database/sql"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// RecordInstall appends one row to install_records. History is
// append-only (spec.md §4.6, Testable Property 6): there is no update or
// delete path here, only insert.
func (s *Store) RecordInstall(ctx context.Context, rec types.InstallRecord) error {
	_, err := exec(ctx, s.db, `
		INSERT INTO install_records
			(uuid, name, backend, version, source_url, install_path, timestamp, status, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID.String(), rec.Name, string(rec.Backend), rec.Version, rec.SourceURL,
		rec.InstallPath, rec.Timestamp, string(rec.Status), rec.Metadata,
	)
	if err != nil {
		return errs.Wrap(errs.Database, err, "failed to record install")
	}
	return nil
}

// LatestInstallRecord returns the most recent install_records row for
// (name, backend) by timestamp, or ok=false if none exists. An empty
// backend matches records of any backend. Used by history undo
// (SPEC_FULL.md §C.5) to find what to reverse.
func (s *Store) LatestInstallRecord(ctx context.Context, name string, backend types.Backend) (types.InstallRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, name, backend, version, source_url, install_path, timestamp, status, metadata
		FROM install_records
		WHERE name = ? AND (? = '' OR backend = ?)
		ORDER BY timestamp DESC
		LIMIT 1`, name, string(backend), string(backend))

	rec, err := scanInstallRecord(row)
	if err == sql.ErrNoRows {
		return types.InstallRecord{}, false, nil
	}
	if err != nil {
		return types.InstallRecord{}, false, errs.Wrap(errs.Database, err, "failed to load latest install record")
	}
	return rec, true, nil
}

// ListInstalled returns every (name, backend) pair whose latest record has
// status=success, for create_snapshot's "current status=success set"
// (spec.md §4.6).
func (s *Store) ListInstalled(ctx context.Context) ([]types.InstallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ir.uuid, ir.name, ir.backend, ir.version, ir.source_url, ir.install_path, ir.timestamp, ir.status, ir.metadata
		FROM install_records ir
		INNER JOIN (
			SELECT name, backend, MAX(timestamp) AS max_ts
			FROM install_records
			GROUP BY name, backend
		) latest ON ir.name = latest.name AND ir.backend = latest.backend AND ir.timestamp = latest.max_ts
		WHERE ir.status = ?`, string(types.StatusSuccess))
	if err != nil {
		return nil, errs.Wrap(errs.Database, err, "failed to list installed packages")
	}
	defer rows.Close()

	var out []types.InstallRecord
	for rows.Next() {
		rec, err := scanInstallRecord(rows)
		if err != nil {
			return nil, errs.Wrap(errs.Database, err, "failed to scan install record")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows behind the one method both
// expose, so scanInstallRecord serves both LatestInstallRecord's single-row and
// ListInstalled's multi-row callers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstallRecord(r rowScanner) (types.InstallRecord, error) {
	var rec types.InstallRecord
	var uuidStr, backend, status string
	if err := r.Scan(&uuidStr, &rec.Name, &backend, &rec.Version, &rec.SourceURL,
		&rec.InstallPath, &rec.Timestamp, &status, &rec.Metadata); err != nil {
		return types.InstallRecord{}, err
	}
	id, err := parseUUID(uuidStr)
	if err != nil {
		return types.InstallRecord{}, err
	}
	rec.UUID = id
	rec.Backend = types.Backend(backend)
	rec.Status = types.InstallStatus(status)
	return rec, nil
}
