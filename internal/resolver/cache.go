package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/omnipkg/omni/internal/types"
)

// MemoSource wraps a Source so that, within one resolution, each (name,
// backend) pair is only ever queried once — spec.md §4.4 "Caching:
// candidate version lists keyed by (name, backend) are memoized for the
// duration of the resolution." Grounded on the teacher's versionQueue,
// which caches the version list it receives from the source bridge for the
// life of one queue rather than re-querying on every advance().
type MemoSource struct {
	inner Source

	mu    sync.Mutex
	cache map[string][]Candidate
}

// NewMemoSource wraps inner with a per-resolution memo cache. Callers
// should construct a fresh MemoSource for each call to Resolver.Resolve.
func NewMemoSource(inner Source) *MemoSource {
	return &MemoSource{inner: inner, cache: make(map[string][]Candidate)}
}

func memoKey(name string, backend types.Backend) string {
	return string(backend) + "|" + name
}

// Candidates satisfies Source, serving from the in-memory memo when present.
func (m *MemoSource) Candidates(ctx context.Context, name string, backend types.Backend) ([]Candidate, error) {
	key := memoKey(name, backend)
	m.mu.Lock()
	if cands, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return cands, nil
	}
	m.mu.Unlock()

	cands, err := m.inner.Candidates(ctx, name, backend)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[key] = cands
	m.mu.Unlock()
	return cands, nil
}

// MetadataCache is the subset of internal/store's operations the resolver
// needs to persist candidate lookups across resolutions. Spec.md §5 is
// explicit that "the metadata cache is the state store" — there is exactly
// one persistence layer in this system, so the resolver's durable cache is
// a thin adapter onto the store rather than a cache of its own.
type MetadataCache interface {
	CacheGet(ctx context.Context, name string, backend types.Backend) (types.CacheEntry, bool, error)
	CachePut(ctx context.Context, entry types.CacheEntry, ttl time.Duration) error
}

// StoreCache persists candidate-version lookups through a MetadataCache
// (internal/store's package_cache table) with a configured TTL, per
// spec.md §4.4's "Caching" paragraph and §3's Metadata Cache Entry.
type StoreCache struct {
	inner Source
	store MetadataCache
	ttl   time.Duration
}

// NewStoreCache wraps inner with durable caching through store.
func NewStoreCache(inner Source, store MetadataCache, ttl time.Duration) *StoreCache {
	return &StoreCache{inner: inner, store: store, ttl: ttl}
}

// Candidates satisfies Source: a fresh cache entry is served from the
// store; otherwise inner is queried and only the newest candidate is
// persisted, as the one package_cache row for (name, backend), so a
// cache hit returns that single candidate. This mirrors spec.md §3's "(name,
// backend) primary key" for the Metadata Cache Entry.
func (c *StoreCache) Candidates(ctx context.Context, name string, backend types.Backend) ([]Candidate, error) {
	if entry, ok, err := c.store.CacheGet(ctx, name, backend); err == nil && ok {
		return []Candidate{candidateFromCacheEntry(entry)}, nil
	}

	cands, err := c.inner.Candidates(ctx, name, backend)
	if err != nil {
		return nil, err
	}
	if len(cands) > 0 {
		newest := cands[0]
		for _, cand := range cands[1:] {
			if cand.Version.Compare(newest.Version) > 0 {
				newest = cand
			}
		}
		_ = c.store.CachePut(ctx, cacheEntryFromCandidate(name, backend, newest), c.ttl)
	}
	return cands, nil
}

func candidateFromCacheEntry(e types.CacheEntry) Candidate {
	return Candidate{
		Version:      types.NewVersion(e.Version),
		Dependencies: e.Dependencies,
	}
}

func cacheEntryFromCandidate(name string, backend types.Backend, c Candidate) types.CacheEntry {
	return types.CacheEntry{
		Name:         name,
		Backend:      backend,
		Version:      c.Version.String(),
		Dependencies: c.Dependencies,
	}
}
