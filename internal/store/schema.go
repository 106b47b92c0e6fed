package store

import "github.com/omnipkg/omni/internal/errs"

// schema is applied with CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT
// EXISTS so migrate() is idempotent across restarts. Table names and the
// index set match spec.md §4.6 exactly: install_records, snapshots,
// snapshot_packages, package_cache, audit_log, indexed on (name),
// (backend), (status), (timestamp), and the composite (name, backend).
//
// transactions is not named by spec.md §4.6 but is required by §4.5's
// durability rule ("after every state change the transaction record is
// serialized and flushed"); it lives here because the state store is
// where every other durable row already lives — see DESIGN.md.
const schema = `
CREATE TABLE IF NOT EXISTS install_records (
	uuid         TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	backend      TEXT NOT NULL,
	version      TEXT,
	source_url   TEXT,
	install_path TEXT,
	timestamp    DATETIME NOT NULL,
	status       TEXT NOT NULL,
	metadata     TEXT
);
CREATE INDEX IF NOT EXISTS idx_install_records_name ON install_records(name);
CREATE INDEX IF NOT EXISTS idx_install_records_backend ON install_records(backend);
CREATE INDEX IF NOT EXISTS idx_install_records_status ON install_records(status);
CREATE INDEX IF NOT EXISTS idx_install_records_timestamp ON install_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_install_records_name_backend ON install_records(name, backend);

CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(created_at);

CREATE TABLE IF NOT EXISTS snapshot_packages (
	snapshot_id        TEXT NOT NULL REFERENCES snapshots(id),
	install_record_uuid TEXT NOT NULL REFERENCES install_records(uuid),
	PRIMARY KEY (snapshot_id, install_record_uuid)
);

CREATE TABLE IF NOT EXISTS package_cache (
	name         TEXT NOT NULL,
	backend      TEXT NOT NULL,
	version      TEXT NOT NULL,
	description  TEXT,
	dependencies TEXT,
	cached_at    DATETIME NOT NULL,
	expiry       DATETIME NOT NULL,
	hit_count    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (name, backend)
);

CREATE TABLE IF NOT EXISTS audit_log (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	actor     TEXT,
	action    TEXT NOT NULL,
	detail    TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);

CREATE TABLE IF NOT EXISTS transactions (
	uuid        TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	payload     TEXT NOT NULL,
	updated_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return errs.Wrap(errs.Database, err, "failed to apply schema")
	}
	return nil
}
