package orchestrator

import (
	"github.com/omnipkg/omni/internal/backend"
	"github.com/omnipkg/omni/internal/config"
	"github.com/omnipkg/omni/internal/store"
)

// NewWithStore builds an Orchestrator against a real *store.Store,
// wiring its Snapshotter through the same backend-registry adapter the
// transaction manager uses. This is the constructor cmd/omni calls; tests
// that want fakes instead should call New directly with their own Store/
// Snapshots implementations.
func NewWithStore(reg *backend.Registry, st *store.Store, cfg *config.Config) *Orchestrator {
	snaps := store.NewSnapshotter(st, newRegistryBackends(reg))
	return New(reg, st, snaps, cfg)
}
