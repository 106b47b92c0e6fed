package backend

import (
	"context"
	"sort"
	"sync"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// Registry holds every constructed Adapter and implements the selection
// rule of spec.md §4.2: "the orchestrator iterates candidates in
// configured order, skipping disabled or unavailable ones, and stops at
// the first successful install. When fallback_enabled is false, it aborts
// on the first failure instead."
type Registry struct {
	adapters map[types.Backend]Adapter
	disabled map[types.Backend]bool

	mu        sync.Mutex
	available map[types.Backend]bool // cached IsAvailable results
}

// NewRegistry builds an empty registry; call Register for each adapter.
func NewRegistry() *Registry {
	return &Registry{
		adapters:  make(map[types.Backend]Adapter),
		disabled:  make(map[types.Backend]bool),
		available: make(map[types.Backend]bool),
	}
}

// Register adds an adapter, keyed by its own Name().
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Disable marks a backend unusable regardless of availability
// (config's boxes.disabled_boxes, spec.md §6).
func (r *Registry) Disable(b types.Backend) { r.disabled[b] = true }

// Get returns the adapter for b, or (nil, false).
func (r *Registry) Get(b types.Backend) (Adapter, bool) {
	a, ok := r.adapters[b]
	return a, ok
}

// Available reports (and caches) whether b's adapter probes as available.
func (r *Registry) Available(ctx context.Context, b types.Backend) bool {
	r.mu.Lock()
	if v, ok := r.available[b]; ok {
		r.mu.Unlock()
		return v
	}
	r.mu.Unlock()

	a, ok := r.adapters[b]
	if !ok {
		return false
	}
	v := a.IsAvailable(ctx)
	r.mu.Lock()
	r.available[b] = v
	r.mu.Unlock()
	return v
}

// Ordered returns the registry's backends ordered per spec.md §4.2:
// preferredOrder first (as configured), then every remaining registered
// backend by Priority() descending, then alphabetically to break ties.
func (r *Registry) Ordered(preferredOrder []types.Backend) []types.Backend {
	seen := make(map[types.Backend]bool)
	var out []types.Backend
	for _, b := range preferredOrder {
		if _, ok := r.adapters[b]; ok && !seen[b] {
			out = append(out, b)
			seen[b] = true
		}
	}

	var rest []types.Backend
	for b := range r.adapters {
		if !seen[b] {
			rest = append(rest, b)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		pi, pj := r.adapters[rest[i]].Priority(), r.adapters[rest[j]].Priority()
		if pi != pj {
			return pi > pj
		}
		return rest[i] < rest[j]
	})
	return append(out, rest...)
}

// SelectBackend picks the first available, non-disabled backend for name
// without installing anything: preferredOrder first, then every other
// registered backend by priority (spec.md §4.2). Used to resolve a
// concrete backend for an unpinned root before resolution/transaction
// machinery runs.
func (r *Registry) SelectBackend(ctx context.Context, name string, preferredOrder []types.Backend) (types.Backend, error) {
	for _, b := range r.Ordered(preferredOrder) {
		if r.disabled[b] {
			continue
		}
		if !r.Available(ctx, b) {
			continue
		}
		return b, nil
	}
	return "", errs.New(errs.UnsupportedBackend, "no available backend for "+name)
}

// SelectAndInstall implements the default-backend selection rule for
// install when the caller did not pin a backend (spec.md §4.2): try each
// candidate backend from SelectBackend's ordering directly, stopping at
// the first successful install, and aborting on the first failure unless
// fallbackEnabled.
func (r *Registry) SelectAndInstall(ctx context.Context, name string, preferredOrder []types.Backend, fallbackEnabled bool) (types.Backend, error) {
	var lastErr error
	for _, b := range r.Ordered(preferredOrder) {
		if r.disabled[b] {
			continue
		}
		if !r.Available(ctx, b) {
			continue
		}
		a := r.adapters[b]
		if err := a.Install(ctx, name); err != nil {
			lastErr = err
			if !fallbackEnabled {
				return "", err
			}
			continue
		}
		return b, nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", errs.New(errs.UnsupportedBackend, "no available backend could install "+name)
}
