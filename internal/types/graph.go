package types

// Node is a package vertex in the Dependency Graph (spec.md §3). Depth 0
// marks a user-requested root. The graph is built fresh per resolution and
// never persists (spec.md §9 "Cyclic graph structures"), so Node stores
// plain indices rather than pointers.
type Node struct {
	Pkg    ResolvedPackage
	Depth  int
	IsRoot bool
}

// Edge connects two nodes by index into Graph.Nodes, typed per spec.md §3,
// and carries the version constraint that produced it.
type Edge struct {
	From, To   int
	Kind       EdgeKind
	Constraint Constraint
}

// Graph is an arena of nodes plus index-referencing edges, per the design
// note in spec.md §9: "Use an arena: a vector of nodes plus edges
// referencing node indices. No owning pointer cycles."
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// AddNode appends n and returns its index.
func (g *Graph) AddNode(n Node) int {
	g.Nodes = append(g.Nodes, n)
	return len(g.Nodes) - 1
}

// AddEdge appends an edge from index `from` to index `to`.
func (g *Graph) AddEdge(from, to int, kind EdgeKind, c Constraint) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: kind, Constraint: c})
}

// EdgesFrom returns every edge originating at node index i.
func (g *Graph) EdgesFrom(i int) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == i {
			out = append(out, e)
		}
	}
	return out
}

// IndexOf returns the node index for (name, backend), or -1.
func (g *Graph) IndexOf(name string, backend Backend) int {
	for i, n := range g.Nodes {
		if n.Pkg.Name == name && n.Pkg.Backend == backend {
			return i
		}
	}
	return -1
}

// Conflict records two resolved packages the resolver found mutually
// exclusive (spec.md §3, §4.4 step 5).
type Conflict struct {
	A, B   PackageID
	Reason string
}

// Plan is the ordered sequence of resolved packages the resolver produces,
// plus detected conflicts, advisory warnings, and aggregate size (spec.md §3
// "Resolution Plan"). The invariant `install_order(b) <= install_order(a)`
// for every required edge a->b is established by the resolver's topological
// sort and is spec.md's Testable Property 1.
type Plan struct {
	Packages  []ResolvedPackage
	Graph     Graph
	Conflicts []Conflict
	Warnings  []string
	TotalSize int64
}

// ByName finds a resolved package in the plan by name, regardless of
// backend; returns false if absent.
func (p *Plan) ByName(name string) (ResolvedPackage, bool) {
	for _, rp := range p.Packages {
		if rp.Name == name {
			return rp, true
		}
	}
	return ResolvedPackage{}, false
}

// HasBlockingConflicts reports whether the plan contains any conflict
// (spec.md §8 Testable Property 3: presence of an unresolved conflict is
// fatal unless the caller forces it).
func (p *Plan) HasBlockingConflicts() bool {
	return len(p.Conflicts) > 0
}
