package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// cacheHot mirrors recent package_cache reads in process memory so that a
// hot resolve doesn't re-read the package_cache row for every
// already-seen name (the hit counter is still incremented in SQLite);
// it is a pure read-through accelerator, never a source of truth — the
// row in package_cache is. Grounded on malbeclabs-doublezero's provider
// caches (jellydator/ttlcache/v3 with a configured TTL).
type cacheHot struct {
	hot *ttlcache.Cache[string, types.CacheEntry]
}

func newCacheHot() *cacheHot {
	c := ttlcache.New[string, types.CacheEntry](ttlcache.WithTTL[string, types.CacheEntry](5 * time.Minute))
	go c.Start()
	return &cacheHot{hot: c}
}

func cacheKey(name string, backend types.Backend) string {
	return string(backend) + "|" + name
}

// CacheGet satisfies resolver.MetadataCache: it returns (entry, false,
// nil) once the entry has expired, per spec.md §4.6's "cache_get returns
// None past expiry." A hit increments the durable hit counter.
func (s *Store) CacheGet(ctx context.Context, name string, backend types.Backend) (types.CacheEntry, bool, error) {
	key := cacheKey(name, backend)
	if item := s.hot.hot.Get(key); item != nil {
		entry := item.Value()
		if !entry.Expired(time.Now()) {
			if _, err := exec(ctx, s.db, `UPDATE package_cache SET hit_count = hit_count + 1 WHERE name = ? AND backend = ?`, name, string(backend)); err != nil {
				return types.CacheEntry{}, false, errs.Wrap(errs.Database, err, "failed to increment cache hit count")
			}
			entry.HitCount++
			s.hot.hot.Set(key, entry, time.Until(entry.Expiry))
			return entry, true, nil
		}
		s.hot.hot.Delete(key)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT name, backend, version, description, dependencies, cached_at, expiry, hit_count
		FROM package_cache WHERE name = ? AND backend = ?`, name, string(backend))

	entry, err := scanCacheEntry(row)
	switch err {
	case nil:
		// fallthrough below
	case sql.ErrNoRows:
		return types.CacheEntry{}, false, nil
	default:
		return types.CacheEntry{}, false, errs.Wrap(errs.Database, err, "failed to read package cache")
	}

	if entry.Expired(time.Now()) {
		return types.CacheEntry{}, false, nil
	}

	if _, err := exec(ctx, s.db, `UPDATE package_cache SET hit_count = hit_count + 1 WHERE name = ? AND backend = ?`, name, string(backend)); err != nil {
		return types.CacheEntry{}, false, errs.Wrap(errs.Database, err, "failed to increment cache hit count")
	}
	entry.HitCount++
	s.hot.hot.Set(key, entry, time.Until(entry.Expiry))
	return entry, true, nil
}

// CachePut satisfies resolver.MetadataCache: it upserts the package_cache
// row for (entry.Name, entry.Backend) with a fresh expiry ttl out from
// now.
func (s *Store) CachePut(ctx context.Context, entry types.CacheEntry, ttl time.Duration) error {
	now := time.Now()
	entry.CachedAt = now
	entry.Expiry = now.Add(ttl)

	depsJSON, err := json.Marshal(entry.Dependencies)
	if err != nil {
		return errs.Wrap(errs.Validation, err, "failed to encode cached dependency list")
	}

	if _, err := exec(ctx, s.db, `
		INSERT INTO package_cache (name, backend, version, description, dependencies, cached_at, expiry, hit_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(name, backend) DO UPDATE SET
			version = excluded.version,
			description = excluded.description,
			dependencies = excluded.dependencies,
			cached_at = excluded.cached_at,
			expiry = excluded.expiry`,
		entry.Name, string(entry.Backend), entry.Version, entry.Description, string(depsJSON), entry.CachedAt, entry.Expiry,
	); err != nil {
		return errs.Wrap(errs.Database, err, "failed to write package cache entry")
	}

	s.hot.hot.Set(cacheKey(entry.Name, entry.Backend), entry, ttl)
	return nil
}

// InvalidateCacheEntries deletes expired package_cache rows, feeding
// maintenance()'s "deletes expired cache" step.
func (s *Store) InvalidateCacheEntries(ctx context.Context) (int64, error) {
	res, err := exec(ctx, s.db, `DELETE FROM package_cache WHERE expiry < ?`, time.Now())
	if err != nil {
		return 0, errs.Wrap(errs.Database, err, "failed to invalidate expired cache entries")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Wrap(errs.Database, err, "failed to count invalidated cache entries")
	}
	return n, nil
}

func scanCacheEntry(r rowScanner) (types.CacheEntry, error) {
	var entry types.CacheEntry
	var backend, depsJSON string
	if err := r.Scan(&entry.Name, &backend, &entry.Version, &entry.Description, &depsJSON,
		&entry.CachedAt, &entry.Expiry, &entry.HitCount); err != nil {
		return types.CacheEntry{}, err
	}
	entry.Backend = types.Backend(backend)
	if depsJSON != "" {
		if err := json.Unmarshal([]byte(depsJSON), &entry.Dependencies); err != nil {
			return types.CacheEntry{}, err
		}
	}
	return entry, nil
}
