// Package backendtest provides a deterministic, in-memory Adapter used
// across resolver, transaction, and orchestrator tests, grounded on the
// teacher's internal/test golden-fixture helpers and generalizing
// original_source's testing.rs mock-backend approach.
package backendtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// Catalog entry describing one fake package available through this mock.
type CatalogEntry struct {
	Version      string
	Dependencies []types.Dependency
	Size         int64
	FailInstall  bool // force Install to fail, for rollback-path tests (S4)
}

// Mock is an in-memory Adapter. Installed state and the available catalog
// are both mutable so tests can script multi-step scenarios.
type Mock struct {
	mu        sync.Mutex
	backend   types.Backend
	priority  int
	available bool
	catalog   map[string]CatalogEntry
	installed map[string]string // name -> installed version

	InstallCalls []string
	RemoveCalls  []string
}

// New builds a Mock adapter for the given backend tag.
func New(backend types.Backend, priority int) *Mock {
	return &Mock{
		backend:   backend,
		priority:  priority,
		available: true,
		catalog:   make(map[string]CatalogEntry),
		installed: make(map[string]string),
	}
}

// SetAvailable toggles whether IsAvailable reports true.
func (m *Mock) SetAvailable(v bool) { m.available = v }

// AddPackage registers a fake package in the catalog.
func (m *Mock) AddPackage(name string, entry CatalogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[name] = entry
}

// Catalog returns a snapshot of the registered packages.
func (m *Mock) Catalog() map[string]CatalogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]CatalogEntry, len(m.catalog))
	for k, v := range m.catalog {
		out[k] = v
	}
	return out
}

func (m *Mock) Name() types.Backend    { return m.backend }
func (m *Mock) Priority() int          { return m.priority }
func (m *Mock) NeedsPrivilege() bool   { return false }
func (m *Mock) IsAvailable(context.Context) bool { return m.available }

func (m *Mock) Install(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InstallCalls = append(m.InstallCalls, name)

	entry, ok := m.catalog[name]
	if !ok {
		return errs.New(errs.PackageNotFound, fmt.Sprintf("package %q not found in %s catalog", name, m.backend))
	}
	if entry.FailInstall {
		return errs.New(errs.InstallationFailed, fmt.Sprintf("mock install of %q configured to fail", name))
	}
	m.installed[name] = entry.Version
	return nil
}

func (m *Mock) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls = append(m.RemoveCalls, name)
	delete(m.installed, name)
	return nil
}

func (m *Mock) Update(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		for n, e := range m.catalog {
			if _, ok := m.installed[n]; ok {
				m.installed[n] = e.Version
			}
		}
		return nil
	}
	entry, ok := m.catalog[name]
	if !ok {
		return errs.New(errs.PackageNotFound, fmt.Sprintf("package %q not found", name))
	}
	m.installed[name] = entry.Version
	return nil
}

func (m *Mock) Search(ctx context.Context, query string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for n := range m.catalog {
		out = append(out, n)
	}
	_ = query
	sort.Strings(out)
	return out, nil
}

func (m *Mock) ListInstalled(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for n := range m.installed {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Mock) GetInfo(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.catalog[name]
	if !ok {
		return "", errs.New(errs.PackageNotFound, "not found: "+name)
	}
	return fmt.Sprintf("%s %s", name, entry.Version), nil
}

func (m *Mock) GetInstalledVersion(ctx context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.installed[name]
	return v, ok, nil
}

// Versions returns the candidate versions available for name — here,
// always a single version, since the mock's catalog doesn't model multiple
// release trains. Used directly by resolver tests rather than through the
// Adapter interface.
func (m *Mock) Versions(name string) ([]string, []types.Dependency, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.catalog[name]
	if !ok {
		return nil, nil, false
	}
	return []string{e.Version}, e.Dependencies, true
}
