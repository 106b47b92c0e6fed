// Package resolver implements the dependency resolution algorithm of
// spec.md §4.4: given root package names and a strategy, it produces a
// Resolution Plan (spec.md §3) or a typed failure.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// Strategy selects how the resolver picks among candidate versions when
// more than one satisfies a constraint, per spec.md §4.4.
type Strategy int

const (
	// Conservative keeps an already-selected version and fails (or skips
	// an optional dependency) rather than upgrading across a new
	// constraint.
	Conservative Strategy = iota
	// Latest selects the greatest candidate version, and on conflict
	// tries to upgrade to a version satisfying every known constraint.
	Latest
	// Minimal selects the candidate with the fewest direct dependencies;
	// dependencies of those dependencies are not counted.
	Minimal
	// UserGuided defers the choice to an external prompter.
	UserGuided
)

func (s Strategy) String() string {
	switch s {
	case Conservative:
		return "conservative"
	case Latest:
		return "latest"
	case Minimal:
		return "minimal"
	case UserGuided:
		return "user_guided"
	default:
		return "unknown"
	}
}

// maxDepth is the default excessive-recursion guard from spec.md §4.4 step 2.
const maxDepth = 50

// Candidate is one version of a package as reported by a Source, carrying
// everything the resolver needs to expand it: its own declared
// dependencies, the virtual names it provides, and the names it conflicts
// with.
type Candidate struct {
	Version      types.Version
	Dependencies []types.Dependency
	Provides     []string
	Conflicts    []string
	SourceURL    string
	Size         int64
}

// Source answers "what versions of name are available on backend", the
// query the resolver issues once per (name, backend) per resolution
// (spec.md §4.4 "query the backend (via cache first) for candidate
// versions"). A Source is expected to consult a cache itself; see
// MemoSource and StoreCache.
type Source interface {
	Candidates(ctx context.Context, name string, backend types.Backend) ([]Candidate, error)
}

// Prompter lets a UserGuided resolution defer the pick to an external
// decision-maker (a CLI prompt, in cmd/omni).
type Prompter interface {
	ChoosePackageVersion(name string, candidates []Candidate) (Candidate, error)
}

// Options configures one call to Resolve.
type Options struct {
	Strategy        Strategy
	AllowOptional   bool // expand optional dependencies too
	Prompter        Prompter
	RootConstraints map[string]types.Constraint // per-root version pin, by name
}

// Resolver runs the algorithm of spec.md §4.4 against a Source.
type Resolver struct {
	src Source
}

// New builds a Resolver that queries src for candidate versions.
func New(src Source) *Resolver {
	return &Resolver{src: src}
}

// selection is the resolver's running record for one package name: the
// version it picked, the constraints that have been applied to it so far,
// and the depth at which it was first selected.
type selection struct {
	pkg         types.PackageID
	candidate   Candidate
	constraints []types.Constraint
	depth       int
}

// workItem is one entry in the resolver's work queue (spec.md §4.4 step 1-2).
type workItem struct {
	name         string
	backend      types.Backend
	constraint   types.Constraint
	optional     bool
	conflicts    []string
	provides     []string
	depth        int
	parent       types.PackageID
	hasParent    bool
	alternatives []string
}

// Resolve runs the algorithm end to end: queue expansion, graph assembly,
// cycle detection, conflict detection, topological ordering, and size
// aggregation (spec.md §4.4 steps 1-7).
func (r *Resolver) Resolve(ctx context.Context, roots []types.Dependency, opts Options) (*types.Plan, error) {
	queue := make([]workItem, 0, len(roots))
	for _, d := range roots {
		constraint := d.Constraint
		if pin, ok := opts.RootConstraints[d.Name]; ok {
			constraint = pin
		}
		queue = append(queue, workItem{
			name:         d.Name,
			backend:      d.Backend,
			constraint:   constraint,
			optional:     false,
			conflicts:    d.Conflicts,
			provides:     d.Provides,
			depth:        0,
			alternatives: d.Alternatives,
		})
	}

	selections := make(map[string]*selection) // keyed by name (spec §4.4: "already selected" is by name)
	var warnings []string
	type recordedEdge struct {
		from, to types.PackageID
		hasFrom  bool
		kind     types.EdgeKind
		c        types.Constraint
	}
	var edges []recordedEdge

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth > maxDepth {
			return nil, errs.New(errs.Validation, fmt.Sprintf("dependency chain for %q exceeds max depth %d", item.name, maxDepth)).
				WithContext("reason", "circular_or_excessive").
				WithContext("name", item.name)
		}

		existing, already := selections[item.name]
		if already {
			if item.constraint.Matches(existing.candidate.Version) {
				if item.hasParent {
					edges = append(edges, recordedEdge{from: item.parent, to: existing.pkg, hasFrom: true, kind: edgeKindFor(item), c: item.constraint})
				}
				continue
			}

			resolved, err := r.resolveConflict(ctx, item, existing, opts)
			if err != nil {
				if item.optional {
					warnings = append(warnings, fmt.Sprintf("skipping optional dependency %q: %v", item.name, err))
					continue
				}
				return nil, err
			}
			existing.candidate = resolved
			existing.pkg.Version = resolved.Version
			existing.constraints = append(existing.constraints, item.constraint)
			if item.hasParent {
				edges = append(edges, recordedEdge{from: item.parent, to: existing.pkg, hasFrom: true, kind: edgeKindFor(item), c: item.constraint})
			}
			continue
		}

		chosen, expandErr := r.selectCandidate(ctx, item, opts)
		if expandErr != nil {
			var lastErr error = expandErr
			satisfied := false
			for _, alt := range item.alternatives {
				altItem := item
				altItem.name = alt
				// spec.md §9 open question: the alternatives retry path
				// passes the original conflicts/provides metadata
				// unchanged to the substitute. Implemented literally here;
				// see DESIGN.md.
				c, err := r.selectCandidate(ctx, altItem, opts)
				if err == nil {
					chosen = c
					item.name = alt
					satisfied = true
					break
				}
				lastErr = err
			}
			if !satisfied {
				if item.optional {
					warnings = append(warnings, fmt.Sprintf("skipping optional dependency %q: %v", item.name, lastErr))
					continue
				}
				return nil, lastErr
			}
		}

		pkg := types.PackageID{Name: item.name, Backend: item.backend, Version: chosen.Version}
		selections[item.name] = &selection{pkg: pkg, candidate: chosen, constraints: []types.Constraint{item.constraint}, depth: item.depth}

		if item.hasParent {
			edges = append(edges, recordedEdge{from: item.parent, to: pkg, hasFrom: true, kind: edgeKindFor(item), c: item.constraint})
		}
		for _, conflictName := range append(append([]string{}, item.conflicts...), chosen.Conflicts...) {
			edges = append(edges, recordedEdge{from: pkg, to: types.PackageID{Name: conflictName}, hasFrom: true, kind: types.EdgeConflicts})
		}
		for _, provided := range append(append([]string{}, item.provides...), chosen.Provides...) {
			edges = append(edges, recordedEdge{from: pkg, to: types.PackageID{Name: provided}, hasFrom: true, kind: types.EdgeProvides})
		}

		for _, dep := range chosen.Dependencies {
			if dep.Optional && !opts.AllowOptional {
				continue
			}
			queue = append(queue, workItem{
				name:         dep.Name,
				backend:      dep.Backend,
				constraint:   dep.Constraint,
				optional:     dep.Optional,
				conflicts:    dep.Conflicts,
				provides:     dep.Provides,
				depth:        item.depth + 1,
				parent:       pkg,
				hasParent:    true,
				alternatives: dep.Alternatives,
			})
		}
	}

	// Step 3: build the final directed graph from recorded edges.
	g := types.Graph{}
	idx := func(pkg types.PackageID) int {
		if i := g.IndexOf(pkg.Name, pkg.Backend); i >= 0 {
			return i
		}
		depth := 0
		isRoot := false
		if sel, ok := selections[pkg.Name]; ok {
			depth = sel.depth
			isRoot = depth == 0
		}
		return g.AddNode(types.Node{Pkg: types.ResolvedPackage{PackageID: pkg}, Depth: depth, IsRoot: isRoot})
	}
	for _, name := range sortedSelectionNames(selections) {
		idx(selections[name].pkg)
	}
	for _, e := range edges {
		from := idx(e.from)
		to := idx(e.to)
		g.AddEdge(from, to, e.kind, e.c)
	}

	// Step 4: cycle detection over required+optional edges.
	if cyc := findCycle(g); cyc != "" {
		return nil, errs.New(errs.Validation, "circular dependency detected: "+cyc).
			WithContext("reason", "circular_dependency")
	}

	// Step 5: conflict detection.
	conflicts := detectConflicts(g, selections)

	// Step 6: topological order via Kahn's algorithm, ties broken by name.
	order, err := topoOrder(g)
	if err != nil {
		return nil, errs.Wrap(errs.Validation, err, "failed to order resolution graph").
			WithContext("reason", "unresolvable_conflict")
	}

	var packages []types.ResolvedPackage
	var total int64
	for pos, nodeIdx := range order {
		n := g.Nodes[nodeIdx]
		sel, ok := selections[n.Pkg.Name]
		if !ok {
			continue
		}
		rp := types.ResolvedPackage{
			PackageID:    sel.pkg,
			InstallOrder: pos,
			SourceURL:    sel.candidate.SourceURL,
			Size:         sel.candidate.Size,
		}
		packages = append(packages, rp)
		total += rp.Size
	}

	return &types.Plan{
		Packages:  packages,
		Graph:     g,
		Conflicts: conflicts,
		Warnings:  warnings,
		TotalSize: total,
	}, nil
}

func edgeKindFor(item workItem) types.EdgeKind {
	if item.optional {
		return types.EdgeOptional
	}
	return types.EdgeRequired
}

func sortedSelectionNames(selections map[string]*selection) []string {
	names := make([]string, 0, len(selections))
	for n := range selections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// resolveConflict implements spec.md §4.4 step 2's conflict-resolution
// branch: Conservative keeps the old selection and fails unless the
// dependency is optional; Latest tries to upgrade to a version satisfying
// both the existing and new constraints; every other strategy fails.
func (r *Resolver) resolveConflict(ctx context.Context, item workItem, existing *selection, opts Options) (Candidate, error) {
	switch opts.Strategy {
	case Latest:
		cands, err := r.src.Candidates(ctx, item.name, item.backend)
		if err != nil {
			return Candidate{}, errs.Wrap(errs.PackageNotFound, err, "listing candidates for "+item.name)
		}
		var best *Candidate
		for i := range cands {
			c := cands[i]
			if !item.constraint.Matches(c.Version) {
				continue
			}
			satisfiesAll := true
			for _, existingConstraint := range existing.constraints {
				if !existingConstraint.Matches(c.Version) {
					satisfiesAll = false
					break
				}
			}
			if !satisfiesAll {
				continue
			}
			if best == nil || c.Version.Compare(best.Version) > 0 {
				cc := c
				best = &cc
			}
		}
		if best == nil {
			return Candidate{}, errs.New(errs.Validation, "no version of "+item.name+" satisfies both existing and new constraints").
				WithContext("reason", "unsatisfiable_constraint")
		}
		return *best, nil
	default:
		return Candidate{}, errs.New(errs.Validation, "conflicting constraint on already-selected package "+item.name).
			WithContext("reason", "unsatisfiable_constraint")
	}
}

// selectCandidate queries the source and applies the strategy's pick rule
// (spec.md §4.4 step 2, sub-bullet on strategies).
func (r *Resolver) selectCandidate(ctx context.Context, item workItem, opts Options) (Candidate, error) {
	cands, err := r.src.Candidates(ctx, item.name, item.backend)
	if err != nil {
		return Candidate{}, errs.Wrap(errs.PackageNotFound, err, "listing candidates for "+item.name)
	}

	var matching []Candidate
	for _, c := range cands {
		if item.constraint.Matches(c.Version) {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return Candidate{}, errs.New(errs.PackageNotFound, "no candidate version of "+item.name+" satisfies "+item.constraint.String()).
			WithContext("name", item.name)
	}

	switch opts.Strategy {
	case Latest:
		best := matching[0]
		for _, c := range matching[1:] {
			if c.Version.Compare(best.Version) > 0 {
				best = c
			}
		}
		return best, nil
	case Conservative:
		best := matching[0]
		for _, c := range matching[1:] {
			if c.Version.Compare(best.Version) < 0 {
				best = c
			}
		}
		return best, nil
	case Minimal:
		best := matching[0]
		for _, c := range matching[1:] {
			if len(c.Dependencies) < len(best.Dependencies) {
				best = c
			}
		}
		return best, nil
	case UserGuided:
		if opts.Prompter == nil {
			return Candidate{}, errs.New(errs.Configuration, "user_guided strategy requires a prompter")
		}
		return opts.Prompter.ChoosePackageVersion(item.name, matching)
	default:
		return Candidate{}, errs.New(errs.Configuration, "unknown resolution strategy")
	}
}
