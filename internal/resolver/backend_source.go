package resolver

import (
	"context"

	"github.com/omnipkg/omni/internal/backend"
	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// BackendSource answers candidate-version queries against a live
// backend.Registry. Native package managers resolve their own internal
// dependency trees when they install a package (apt pulls in its own
// libraries, for instance); omni's resolver only needs to know whether a
// name exists on a backend and, if so, at what version. So a backend
// candidate carries no Dependencies of its own — the dependency graph
// omni builds comes from the manifest's declared app-to-app edges (see
// internal/manifest), not from re-deriving a native package manager's
// internal tree. This is a deliberate scope decision; see DESIGN.md.
type BackendSource struct {
	reg *backend.Registry
}

// NewBackendSource wraps reg as a resolver.Source.
func NewBackendSource(reg *backend.Registry) *BackendSource {
	return &BackendSource{reg: reg}
}

// Candidates reports the single version a backend currently offers for
// name: the installed version if present, otherwise a generic "available"
// marker confirmed via search. Backends that can't confirm existence
// return PackageNotFound.
func (s *BackendSource) Candidates(ctx context.Context, name string, backend types.Backend) ([]Candidate, error) {
	a, ok := s.reg.Get(backend)
	if !ok {
		return nil, errs.New(errs.UnsupportedBackend, "no adapter registered for backend "+string(backend))
	}

	if v, found, err := a.GetInstalledVersion(ctx, name); err == nil && found {
		return []Candidate{{Version: types.NewVersion(v)}}, nil
	}

	results, err := a.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r == name {
			return []Candidate{{Version: types.NewVersion("available")}}, nil
		}
	}
	return nil, errs.New(errs.PackageNotFound, "backend "+string(backend)+" has no package named "+name)
}
