package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/backend/backendtest"
	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/resolver"
	"github.com/omnipkg/omni/internal/types"
)

// mockSource adapts one or more backendtest.Mock catalogs into a
// resolver.Source, so resolver tests exercise the real algorithm against
// deterministic fixtures rather than a live package manager.
type mockSource struct {
	mocks map[types.Backend]*backendtest.Mock
}

func newMockSource(m *backendtest.Mock) *mockSource {
	return &mockSource{mocks: map[types.Backend]*backendtest.Mock{m.Name(): m}}
}

func (s *mockSource) Candidates(ctx context.Context, name string, backend types.Backend) ([]resolver.Candidate, error) {
	m, ok := s.mocks[backend]
	if !ok {
		return nil, errs.New(errs.UnsupportedBackend, "no mock registered for backend "+string(backend))
	}
	v, deps, ok := m.Versions(name)
	if !ok {
		return nil, errs.New(errs.PackageNotFound, "no such package: "+name)
	}
	out := make([]resolver.Candidate, 0, len(v))
	for _, ver := range v {
		out = append(out, resolver.Candidate{Version: types.NewVersion(ver), Dependencies: deps})
	}
	return out, nil
}

func mustConstraint(t *testing.T, raw string) types.Constraint {
	t.Helper()
	c, err := types.NewConstraint(raw)
	require.NoError(t, err)
	return c
}

// TestResolveDependencyChain covers spec.md §8 S2: A->B->C, no conflicts;
// install(["A"]) must produce plan [C, B, A] with install_order 0,1,2.
func TestResolveDependencyChain(t *testing.T) {
	mock := backendtest.New(types.APT, 50)
	mock.AddPackage("C", backendtest.CatalogEntry{Version: "1.0.0"})
	mock.AddPackage("B", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "C", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})
	mock.AddPackage("A", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "B", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})

	r := resolver.New(resolver.NewMemoSource(newMockSource(mock)))
	plan, err := r.Resolve(context.Background(), []types.Dependency{
		{Name: "A", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}, resolver.Options{Strategy: resolver.Latest})
	require.NoError(t, err)
	require.False(t, plan.HasBlockingConflicts())

	require.Len(t, plan.Packages, 3)
	order := map[string]int{}
	for _, p := range plan.Packages {
		order[p.Name] = p.InstallOrder
	}
	require.Equal(t, 0, order["C"])
	require.Equal(t, 1, order["B"])
	require.Equal(t, 2, order["A"])
}

// TestResolveCycleFails covers spec.md §8 S3: A->B, B->C, C->A must fail
// with a circular-dependency error and produce no plan.
func TestResolveCycleFails(t *testing.T) {
	mock := backendtest.New(types.APT, 50)
	mock.AddPackage("A", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "B", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})
	mock.AddPackage("B", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "C", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})
	mock.AddPackage("C", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "A", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})

	r := resolver.New(resolver.NewMemoSource(newMockSource(mock)))
	plan, err := r.Resolve(context.Background(), []types.Dependency{
		{Name: "A", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}, resolver.Options{Strategy: resolver.Latest})
	require.Error(t, err)
	require.Nil(t, plan)

	e, ok := errs.As(err, errs.Validation)
	require.True(t, ok)
	require.Equal(t, "circular_dependency", e.Context["reason"])
}

// TestResolvePlanOrderingInvariant covers Testable Property 1: for every
// required edge a->b, install_order(b) <= install_order(a), across a
// slightly wider graph than the minimal S2 chain.
func TestResolvePlanOrderingInvariant(t *testing.T) {
	mock := backendtest.New(types.APT, 50)
	mock.AddPackage("libssl", backendtest.CatalogEntry{Version: "3.0.0"})
	mock.AddPackage("curl", backendtest.CatalogEntry{Version: "8.0.0", Dependencies: []types.Dependency{
		{Name: "libssl", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})
	mock.AddPackage("wget", backendtest.CatalogEntry{Version: "1.21.0", Dependencies: []types.Dependency{
		{Name: "libssl", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})

	r := resolver.New(resolver.NewMemoSource(newMockSource(mock)))
	plan, err := r.Resolve(context.Background(), []types.Dependency{
		{Name: "curl", Backend: types.APT, Constraint: mustConstraint(t, "")},
		{Name: "wget", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}, resolver.Options{Strategy: resolver.Latest})
	require.NoError(t, err)

	order := map[string]int{}
	for _, p := range plan.Packages {
		order[p.Name] = p.InstallOrder
	}
	for _, e := range plan.Graph.Edges {
		if e.Kind != types.EdgeRequired {
			continue
		}
		from, to := plan.Graph.Nodes[e.From].Pkg.Name, plan.Graph.Nodes[e.To].Pkg.Name
		require.LessOrEqual(t, order[to], order[from], "install_order(%s) must be <= install_order(%s)", to, from)
	}
}

// TestResolveConflictDetected covers Testable Property 3: if p.conflicts
// includes q and both are selected, the plan reports a blocking conflict
// (enforced as a hard failure one layer up, by the orchestrator per
// spec.md §4.7 step 3).
func TestResolveConflictDetected(t *testing.T) {
	mock := backendtest.New(types.APT, 50)
	mock.AddPackage("nginx", backendtest.CatalogEntry{Version: "1.0.0"})
	mock.AddPackage("apache2", backendtest.CatalogEntry{Version: "1.0.0"})
	mock.AddPackage("webapp", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "nginx", Backend: types.APT, Constraint: mustConstraint(t, ""), Conflicts: []string{"apache2"}},
		{Name: "apache2", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}})

	r := resolver.New(resolver.NewMemoSource(newMockSource(mock)))
	plan, err := r.Resolve(context.Background(), []types.Dependency{
		{Name: "webapp", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}, resolver.Options{Strategy: resolver.Latest})
	require.NoError(t, err)
	require.True(t, plan.HasBlockingConflicts())
	require.NotEmpty(t, plan.Conflicts)
}

// TestResolveVersionConstraintHonesty covers Testable Property 4: the
// version selected for a name must satisfy every constraint observed on
// edges into that name.
func TestResolveVersionConstraintHonesty(t *testing.T) {
	mock := backendtest.New(types.APT, 50)
	mock.AddPackage("lib", backendtest.CatalogEntry{Version: "2.5.0"})
	mock.AddPackage("app", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "lib", Backend: types.APT, Constraint: mustConstraint(t, ">=2.0.0, <3.0.0")},
	}})

	r := resolver.New(resolver.NewMemoSource(newMockSource(mock)))
	plan, err := r.Resolve(context.Background(), []types.Dependency{
		{Name: "app", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}, resolver.Options{Strategy: resolver.Latest})
	require.NoError(t, err)

	lib, ok := plan.ByName("lib")
	require.True(t, ok)
	c := mustConstraint(t, ">=2.0.0, <3.0.0")
	require.True(t, c.Matches(lib.Version))
}

// TestResolveOptionalDependencySkippedSilently covers spec.md §3's
// invariant: "optional dependencies are skipped silently when
// unresolvable."
func TestResolveOptionalDependencySkippedSilently(t *testing.T) {
	mock := backendtest.New(types.APT, 50)
	mock.AddPackage("app", backendtest.CatalogEntry{Version: "1.0.0", Dependencies: []types.Dependency{
		{Name: "missing-extra", Backend: types.APT, Constraint: mustConstraint(t, ""), Optional: true},
	}})

	r := resolver.New(resolver.NewMemoSource(newMockSource(mock)))
	plan, err := r.Resolve(context.Background(), []types.Dependency{
		{Name: "app", Backend: types.APT, Constraint: mustConstraint(t, "")},
	}, resolver.Options{Strategy: resolver.Latest, AllowOptional: true})
	require.NoError(t, err)
	require.Len(t, plan.Packages, 1)
	require.NotEmpty(t, plan.Warnings)
}

// TestResolveMaxDepthExceeded covers the "excessive" half of
// CircularOrExcessive: a dependency chain deeper than max_depth fails
// without needing an actual cycle.
func TestResolveMaxDepthExceeded(t *testing.T) {
	mock := backendtest.New(types.APT, 50)
	const depth = 60
	for i := 0; i < depth; i++ {
		name := depthName(i)
		entry := backendtest.CatalogEntry{Version: "1.0.0"}
		if i > 0 {
			entry.Dependencies = []types.Dependency{{Name: depthName(i - 1), Backend: types.APT, Constraint: mustConstraint(t, "")}}
		}
		mock.AddPackage(name, entry)
	}

	r := resolver.New(resolver.NewMemoSource(newMockSource(mock)))
	_, err := r.Resolve(context.Background(), []types.Dependency{
		{Name: depthName(depth - 1), Backend: types.APT, Constraint: mustConstraint(t, "")},
	}, resolver.Options{Strategy: resolver.Latest})
	require.Error(t, err)
	e, ok := errs.As(err, errs.Validation)
	require.True(t, ok)
	require.Equal(t, "circular_or_excessive", e.Context["reason"])
}

func depthName(i int) string {
	return "d" + string(rune('A'+i%26)) + string(rune('0'+i/26))
}
