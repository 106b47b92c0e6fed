package orchestrator

import (
	"context"

	"github.com/omnipkg/omni/internal/backend"
	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/txn"
	"github.com/omnipkg/omni/internal/types"
)

// registryBackends adapts a *backend.Registry to txn.Backends. Go does not
// treat backend.Registry.Get(b) (backend.Adapter, bool) as automatically
// satisfying txn.Backends.Get(b) (txn.Installer, bool) — the return types
// differ even though backend.Adapter's method set is a superset of
// txn.Installer's — so this wrapper narrows the returned interface at the
// boundary between the two packages.
type registryBackends struct {
	reg *backend.Registry
}

func newRegistryBackends(reg *backend.Registry) *registryBackends {
	return &registryBackends{reg: reg}
}

func (r *registryBackends) Get(b types.Backend) (txn.Installer, bool) {
	a, ok := r.reg.Get(b)
	if !ok {
		return nil, false
	}
	return a, true
}

// requireAdapter resolves b to a concrete backend.Adapter, for operations
// (search, info, list) that need methods outside txn.Installer's narrow
// contract.
func requireAdapter(reg *backend.Registry, b types.Backend) (backend.Adapter, error) {
	a, ok := reg.Get(b)
	if !ok {
		return nil, errs.New(errs.UnsupportedBackend, "backend not registered: "+string(b))
	}
	if !a.IsAvailable(context.Background()) {
		return nil, errs.New(errs.UnsupportedBackend, "backend not available on this system: "+string(b))
	}
	return a, nil
}
