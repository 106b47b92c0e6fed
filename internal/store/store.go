// Package store implements spec.md §4.6's State Store: a SQLite-class
// relational store holding install history, snapshots, the metadata
// cache, and an audit log, tuned for the high-concurrency profile spec.md
// §5 assumes (write-ahead logging, NORMAL sync, a generous page cache,
// memory-mapped reads, a 30s busy timeout).
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/omnipkg/omni/internal/errs"
)

// Store wraps the SQLite connection pool and the schema it owns.
type Store struct {
	db  *sql.DB
	hot *cacheHot
}

// Open opens (and, if necessary, creates) the database at path, applies
// the durability/performance PRAGMAs spec.md §4.6 names, and runs the
// schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(errs.Database, err, "failed to open state store")
	}
	// A single writer connection avoids SQLITE_BUSY storms under WAL;
	// readers still proceed concurrently with the one writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, hot: newCacheHot()}
	if err := s.configure(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -10000", // ~10 MiB, negative = KiB per sqlite docs
		"PRAGMA mmap_size = 268435456",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return errs.Wrap(errs.Database, err, fmt.Sprintf("failed to apply %q", p))
		}
	}
	return nil
}

// Close releases the underlying connection pool and stops the in-process
// cache mirror's eviction goroutine.
func (s *Store) Close() error {
	s.hot.hot.Stop()
	return s.db.Close()
}

// exec is a small helper matching the teacher's terse error-wrap idiom
// (errors.Wrap at every I/O boundary) scoped to this package's own calls.
func exec(ctx context.Context, db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "exec failed: %s", query)
	}
	return res, nil
}
