// Package orchestrator is the thin composition layer of spec.md §4.7: it
// wires the input validator, resolver, transaction manager, backend
// registry, and state store together behind the install/remove/update/
// install_from_manifest/search/history/snapshot operations named in
// spec.md §6's CLI surface.
package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omnipkg/omni/internal/backend"
	"github.com/omnipkg/omni/internal/config"
	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/manifest"
	"github.com/omnipkg/omni/internal/obs"
	"github.com/omnipkg/omni/internal/ratelimit"
	"github.com/omnipkg/omni/internal/resolver"
	"github.com/omnipkg/omni/internal/txn"
	"github.com/omnipkg/omni/internal/types"
	"github.com/omnipkg/omni/internal/validate"
)

// Store is the subset of *store.Store the orchestrator depends on
// directly, narrowed so tests can substitute an in-memory fake.
type Store interface {
	resolver.MetadataCache
	txn.Recorder
	txn.Loader
	RecordInstall(ctx context.Context, rec types.InstallRecord) error
	ListInstalled(ctx context.Context) ([]types.InstallRecord, error)
	LatestInstallRecord(ctx context.Context, name string, backend types.Backend) (types.InstallRecord, bool, error)
	CreateSnapshot(ctx context.Context, name, description string) (string, error)
	ListSnapshots(ctx context.Context) ([]types.Snapshot, error)
	Audit(ctx context.Context, actor, action, detail string) error
}

// Snapshots is the subset of *store.Snapshotter the orchestrator needs for
// snapshot revert, kept as an interface for testability.
type Snapshots interface {
	txn.Snapshotter
}

// Orchestrator composes every core component behind spec.md §6's CLI
// operations. now is injectable so tests get deterministic timestamps.
type Orchestrator struct {
	registry  *backend.Registry
	store     Store
	snapshots Snapshots
	limiter   *ratelimit.Limiter
	cfg       *config.Config
	now       func() time.Time
	log       interface {
		Infow(msg string, kv ...interface{})
		Errorw(msg string, kv ...interface{})
	}
}

// New builds an Orchestrator. cfg's boxes.preferred_order seeds the
// backend fallback order used by resolution and search.
func New(reg *backend.Registry, st Store, snaps Snapshots, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		registry:  reg,
		store:     st,
		snapshots: snaps,
		limiter:   ratelimit.New(ratelimit.DefaultConfig(), nil),
		cfg:       cfg,
		now:       time.Now,
		log:       obs.From(context.Background()),
	}
}

// newResolver builds a resolver wired to the registry through the store's
// metadata cache, with a fresh per-resolution memo cache (spec.md §4.4
// "Caching ... memoized for the duration of the resolution").
func (o *Orchestrator) newResolver() *resolver.Resolver {
	src := resolver.NewStoreCache(resolver.NewBackendSource(o.registry), o.store, 10*time.Minute)
	return resolver.New(resolver.NewMemoSource(src))
}

func (o *Orchestrator) newManager() *txn.Manager {
	return txn.New(newRegistryBackends(o.registry), o.snapshots, o.store)
}

// InstallOptions configures Install.
type InstallOptions struct {
	Backend         types.Backend
	Strategy        resolver.Strategy
	Force           bool // allow install despite a detected conflict
	RootConstraints map[string]types.Constraint
}

// Install implements spec.md §4.7's `install` algorithm.
func (o *Orchestrator) Install(ctx context.Context, actor string, names []string, opts InstallOptions) (*types.Transaction, *types.Plan, error) {
	if err := o.limiter.Allow(actor, "install"); err != nil {
		return nil, nil, err
	}

	roots, err := o.validatedRoots(ctx, names, opts.Backend)
	if err != nil {
		return nil, nil, err
	}

	plan, err := o.newResolver().Resolve(ctx, roots, resolver.Options{
		Strategy:        opts.Strategy,
		RootConstraints: opts.RootConstraints,
	})
	if err != nil {
		return nil, nil, err
	}

	if len(plan.Conflicts) > 0 && !opts.Force {
		return nil, plan, errs.New(errs.Validation, "resolution produced conflicts; pass Force to proceed anyway").
			WithContext("conflicts", len(plan.Conflicts))
	}

	t, err := o.runPlan(ctx, types.TxInstall, "install "+joinNames(names), plan)
	return t, plan, err
}

// Remove implements `remove`: a one-operation-per-name transaction, no
// resolution needed since removal never pulls in new packages.
func (o *Orchestrator) Remove(ctx context.Context, actor string, names []string, backendTag types.Backend) (*types.Transaction, error) {
	if err := o.limiter.Allow(actor, "remove"); err != nil {
		return nil, err
	}
	if backendTag != "" {
		if err := validate.BackendTag(string(backendTag)); err != nil {
			return nil, err
		}
	}
	for _, n := range names {
		if err := validate.PackageName(n); err != nil {
			return nil, err
		}
	}

	mgr := o.newManager()
	_, err := mgr.Begin(ctx, types.TxRemove, "remove "+joinNames(names))
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		rec, found, _ := o.store.LatestInstallRecord(ctx, n, backendTag)
		b := backendTag
		versionBefore := ""
		if found {
			b = rec.Backend
			versionBefore = rec.Version
		}
		if b == "" {
			return nil, errs.New(errs.PackageNotFound, "no installed package named "+n+" to remove").
				WithContext("name", n)
		}
		if err := mgr.AddOperation(ctx, types.TxRemove, n, b, versionBefore); err != nil {
			return nil, err
		}
	}
	return o.commitAndRecord(ctx, mgr)
}

// Update implements `update`: with names, update just those; with all
// set, update every package ListInstalled reports.
func (o *Orchestrator) Update(ctx context.Context, actor string, names []string, backendTag types.Backend, all bool) (*types.Transaction, error) {
	if err := o.limiter.Allow(actor, "update"); err != nil {
		return nil, err
	}

	targets := names
	if all {
		installed, err := o.store.ListInstalled(ctx)
		if err != nil {
			return nil, errs.Wrap(errs.Database, err, "failed to list installed packages for update --all")
		}
		targets = make([]string, 0, len(installed))
		for _, rec := range installed {
			if backendTag == "" || rec.Backend == backendTag {
				targets = append(targets, rec.Name)
			}
		}
	}
	for _, n := range targets {
		if err := validate.PackageName(n); err != nil {
			return nil, err
		}
	}

	mgr := o.newManager()
	_, err := mgr.Begin(ctx, types.TxUpdate, "update "+joinNames(targets))
	if err != nil {
		return nil, err
	}
	for _, n := range targets {
		rec, found, _ := o.store.LatestInstallRecord(ctx, n, backendTag)
		b := backendTag
		versionBefore := ""
		if found {
			b = rec.Backend
			versionBefore = rec.Version
		}
		if err := mgr.AddOperation(ctx, types.TxUpdate, n, b, versionBefore); err != nil {
			return nil, err
		}
	}
	return o.commitAndRecord(ctx, mgr)
}

// InstallFromManifest implements `install --from <manifest>`.
func (o *Orchestrator) InstallFromManifest(ctx context.Context, actor string, m *manifest.Manifest, opts InstallOptions) (*types.Transaction, *types.Plan, error) {
	if err := o.limiter.Allow(actor, "install_from_manifest"); err != nil {
		return nil, nil, err
	}

	roots, err := m.Requests()
	if err != nil {
		return nil, nil, err
	}

	plan, err := o.newResolver().Resolve(ctx, roots, resolver.Options{Strategy: opts.Strategy})
	if err != nil {
		return nil, nil, err
	}
	if len(plan.Conflicts) > 0 && !opts.Force {
		return nil, plan, errs.New(errs.Validation, "manifest resolution produced conflicts; pass Force to proceed anyway")
	}

	t, err := o.runPlan(ctx, types.TxInstallManifest, "install_from_manifest "+m.Project, plan)
	return t, plan, err
}

// runPlan begins a transaction, adds one operation per resolved package in
// plan order, commits, and records install history regardless of outcome
// (spec.md §4.7 steps 4-6).
func (o *Orchestrator) runPlan(ctx context.Context, typ types.TransactionType, description string, plan *types.Plan) (*types.Transaction, error) {
	mgr := o.newManager()
	if _, err := mgr.Begin(ctx, typ, description); err != nil {
		return nil, err
	}
	for _, pkg := range plan.Packages {
		if err := mgr.AddOperation(ctx, types.TxInstall, pkg.Name, pkg.Backend, ""); err != nil {
			return nil, err
		}
	}
	return o.commitAndRecord(ctx, mgr)
}

// commitAndRecord commits mgr's active transaction and flushes
// install_records for every operation's net effect, regardless of the
// transaction's final outcome (spec.md §4.7 step 6). Because rollback
// reuses OpFailed for both "never succeeded" and "succeeded then
// reversed", the genuine failure is identified as the highest-index
// OpFailed operation — commit() halts at the first failure and unwinds
// only operations before it, so any OpFailed operation at a lower index
// must have been reversed rather than having failed outright.
func (o *Orchestrator) commitAndRecord(ctx context.Context, mgr *txn.Manager) (*types.Transaction, error) {
	t, commitErr := mgr.Commit(ctx)
	if t == nil {
		return nil, commitErr
	}

	genuineFailure := -1
	for i, op := range t.Operations {
		if op.Status == types.OpFailed {
			genuineFailure = i
		}
	}

	for i, op := range t.Operations {
		switch {
		case op.Status == types.OpCompleted:
			o.recordForward(ctx, t, op)
		case op.Status == types.OpFailed && i != genuineFailure:
			o.recordForward(ctx, t, op)
			o.recordReversed(ctx, t, op)
		}
	}

	if err := o.store.Audit(ctx, "orchestrator", "transaction:"+string(t.Type), string(t.Status)+" "+t.UUID.String()); err != nil {
		o.log.Errorw("failed to write audit entry", "transaction", t.UUID.String(), "error", err)
	}

	return t, commitErr
}

func (o *Orchestrator) recordForward(ctx context.Context, t *types.Transaction, op types.Operation) {
	status := forwardStatus(op.Type)
	rec := types.NewInstallRecord(op.Name, op.Backend, status, o.now())
	rec.Version = op.VersionAfter
	rec.Metadata = `{"transaction":"` + t.UUID.String() + `"}`
	if err := o.store.RecordInstall(ctx, rec); err != nil {
		o.log.Errorw("failed to flush install record", "transaction", t.UUID.String(), "name", op.Name, "error", err)
	}
}

func (o *Orchestrator) recordReversed(ctx context.Context, t *types.Transaction, op types.Operation) {
	status := reverseStatus(op.Type)
	rec := types.NewInstallRecord(op.Name, op.Backend, status, o.now())
	rec.Version = op.VersionBefore
	rec.Metadata = `{"transaction":"` + t.UUID.String() + `","rollback":true}`
	if err := o.store.RecordInstall(ctx, rec); err != nil {
		o.log.Errorw("failed to flush rollback install record", "transaction", t.UUID.String(), "name", op.Name, "error", err)
	}
}

func forwardStatus(t types.TransactionType) types.InstallStatus {
	switch t {
	case types.TxRemove:
		return types.StatusRemoved
	case types.TxUpdate:
		return types.StatusUpdated
	default:
		return types.StatusSuccess
	}
}

func reverseStatus(t types.TransactionType) types.InstallStatus {
	switch t {
	case types.TxRemove:
		return types.StatusSuccess // reinstalled during rollback
	case types.TxUpdate:
		return types.StatusUpdated // best-effort reinstall of version_before
	default:
		return types.StatusRemoved
	}
}

// validatedRoots validates every name and the backend tag, then builds
// unconstrained root dependencies — spec.md Scenario S5 requires this to
// fail before any backend call. An empty b means the caller did not pin a
// backend: spec.md:90 requires that case to pick one per name by walking
// boxes.preferred_order and stopping at the first available, non-disabled
// backend (the same ordering Registry.SelectAndInstall uses), rather than
// be rejected as an invalid tag.
func (o *Orchestrator) validatedRoots(ctx context.Context, names []string, b types.Backend) ([]types.Dependency, error) {
	if b != "" {
		if err := validate.BackendTag(string(b)); err != nil {
			return nil, err
		}
	}
	roots := make([]types.Dependency, 0, len(names))
	for _, n := range names {
		if err := validate.PackageName(n); err != nil {
			return nil, err
		}
		root := b
		if root == "" {
			selected, err := o.registry.SelectBackend(ctx, n, preferredBackendOrder(o.cfg))
			if err != nil {
				return nil, err
			}
			root = selected
		}
		roots = append(roots, types.Dependency{Name: n, Backend: root})
	}
	return roots, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

// SearchResult is one deduplicated hit from Search.
type SearchResult struct {
	Name      string
	Backend   types.Backend
	Installed bool
}

// Search implements spec.md §4.7's `search`: read-only, fanned out across
// every available backend in parallel, deduplicated by name with
// installed entries sorted first (spec.md §8 Scenario S7).
func (o *Orchestrator) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	backends := o.registry.Ordered(preferredBackendOrder(o.cfg))

	type hit struct {
		name      string
		backend   types.Backend
		installed bool
	}
	hits := make([][]hit, len(backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range backends {
		i, b := i, b
		if !o.registry.Available(gctx, b) {
			continue
		}
		g.Go(func() error {
			a, ok := o.registry.Get(b)
			if !ok {
				return nil
			}
			names, err := a.Search(gctx, query)
			if err != nil {
				return nil // a single backend's search failure doesn't fail the whole query
			}
			out := make([]hit, 0, len(names))
			for _, n := range names {
				_, installed, _ := a.GetInstalledVersion(gctx, n)
				out = append(out, hit{name: n, backend: b, installed: installed})
			}
			hits[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var results []SearchResult
	for _, group := range hits {
		for _, h := range group {
			if seen[h.name] {
				continue
			}
			seen[h.name] = true
			results = append(results, SearchResult{Name: h.name, Backend: h.backend, Installed: h.installed})
		}
	}
	sortSearchResults(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func sortSearchResults(r []SearchResult) {
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && less(r[j], r[j-1]); j-- {
			r[j], r[j-1] = r[j-1], r[j]
		}
	}
}

func less(a, b SearchResult) bool {
	if a.Installed != b.Installed {
		return a.Installed // installed sorts first
	}
	return a.Name < b.Name
}

func preferredBackendOrder(cfg *config.Config) []types.Backend {
	if cfg == nil {
		return nil
	}
	out := make([]types.Backend, 0, len(cfg.Boxes.PreferredOrder))
	for _, tag := range cfg.Boxes.PreferredOrder {
		out = append(out, types.Backend(tag))
	}
	return out
}
