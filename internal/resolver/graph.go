package resolver

import (
	"fmt"
	"sort"

	"github.com/omnipkg/omni/internal/types"
)

// findCycle runs a depth-first search with an explicit recursion stack over
// required+optional edges, per spec.md §4.4 step 4: "any back-edge produces
// a cycle report." Returns a human-readable description of the first cycle
// found, or "" if the graph is acyclic.
func findCycle(g types.Graph) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.Nodes))
	var stack []int

	var visit func(i int) string
	visit = func(i int) string {
		color[i] = gray
		stack = append(stack, i)
		for _, e := range g.EdgesFrom(i) {
			if e.Kind != types.EdgeRequired && e.Kind != types.EdgeOptional {
				continue
			}
			switch color[e.To] {
			case white:
				if cyc := visit(e.To); cyc != "" {
					return cyc
				}
			case gray:
				return describeCycle(g, stack, e.To)
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return ""
	}

	for i := range g.Nodes {
		if color[i] == white {
			if cyc := visit(i); cyc != "" {
				return cyc
			}
		}
	}
	return ""
}

func describeCycle(g types.Graph, stack []int, backTo int) string {
	start := 0
	for i, n := range stack {
		if n == backTo {
			start = i
			break
		}
	}
	var names []string
	for _, i := range stack[start:] {
		names = append(names, g.Nodes[i].Pkg.Name)
	}
	names = append(names, g.Nodes[backTo].Pkg.Name)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " -> "
		}
		out += n
	}
	return out
}

// detectConflicts implements spec.md §4.4 step 5: every resolved package's
// conflicts[] is tested against every other resolved package by name +
// version predicate, and any name selected at two incompatible versions
// (e.g. via two different backends) is also flagged.
func detectConflicts(g types.Graph, selections map[string]*selection) []types.Conflict {
	var out []types.Conflict

	for _, e := range g.Edges {
		if e.Kind != types.EdgeConflicts {
			continue
		}
		from, to := g.Nodes[e.From].Pkg, g.Nodes[e.To].Pkg
		if _, ok := selections[to.Name]; !ok {
			continue // declared conflict target was never actually selected
		}
		out = append(out, types.Conflict{
			A:      from.PackageID,
			B:      selections[to.Name].pkg,
			Reason: fmt.Sprintf("%s declares a conflict with %s", from.Name, to.Name),
		})
	}

	byName := make(map[string][]types.PackageID)
	for _, n := range g.Nodes {
		byName[n.Pkg.Name] = append(byName[n.Pkg.Name], n.Pkg.PackageID)
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		ids := byName[n]
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if !ids[i].Version.Equal(ids[j].Version) {
					out = append(out, types.Conflict{
						A:      ids[i],
						B:      ids[j],
						Reason: fmt.Sprintf("%q selected at two incompatible versions: %s and %s", n, ids[i].Version, ids[j].Version),
					})
				}
			}
		}
	}
	return out
}

// topoOrder runs Kahn's algorithm over the required+optional subgraph,
// breaking ties by name for determinism (spec.md §4.4 step 6). Returns node
// indices in installation order.
func topoOrder(g types.Graph) ([]int, error) {
	indeg := make([]int, len(g.Nodes))
	adj := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		if e.Kind != types.EdgeRequired && e.Kind != types.EdgeOptional {
			continue
		}
		// a required edge a->b means b must install before a (a depends on
		// b), so the topo edge runs b -> a: install_order(b) <= install_order(a).
		adj[e.To] = append(adj[e.To], e.From)
		indeg[e.From]++
	}

	var ready []int
	for i := range g.Nodes {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return g.Nodes[ready[i]].Pkg.Name < g.Nodes[ready[j]].Pkg.Name })

	var order []int
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return g.Nodes[ready[i]].Pkg.Name < g.Nodes[ready[j]].Pkg.Name })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, m := range adj[n] {
			indeg[m]--
			if indeg[m] == 0 {
				ready = append(ready, m)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, fmt.Errorf("topological sort could not order %d of %d nodes; unresolvable structure", len(g.Nodes)-len(order), len(g.Nodes))
	}
	return order, nil
}
