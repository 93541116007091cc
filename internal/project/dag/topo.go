package dag

import (
	"slices"

	"zzc/internal/project"
)

// Topo is the result of a Kahn topological sort over a Graph.
type Topo struct {
	Order   []NodeID   // dependency-first linear order
	Batches [][]NodeID // waves of nodes independently ready, for fork-join fan-out
	Cyclic  bool
	Cycles  []NodeID // nodes left unresolved by a cycle
}

// ToposortKahn computes Topo for g: a node appears only after every node
// it depends on. Ties within a wave are broken by NodeID order, which
// Index assigned in lexicographic Name order — giving deterministic
// output across runs.
func ToposortKahn(g *Graph) *Topo {
	n := len(g.Edges)
	indeg := make([]int, n)
	for i := range g.Edges {
		if !g.Present[i] {
			continue
		}
		for _, to := range g.Edges[i] {
			if g.Present[to] {
				indeg[i]++
			}
		}
	}

	topo := &Topo{Order: make([]NodeID, 0, n)}

	active := 0
	for i := 0; i < n; i++ {
		if g.Present[i] {
			active++
		}
	}

	current := make([]NodeID, 0, n)
	for i := 0; i < n; i++ {
		if g.Present[i] && indeg[i] == 0 {
			current = append(current, NodeID(i))
		}
	}
	slices.Sort(current)

	visited := 0
	for len(current) > 0 {
		batch := append([]NodeID(nil), current...)
		topo.Batches = append(topo.Batches, batch)

		next := make([]NodeID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, dependent := range g.Dependents[id] {
				if !g.Present[dependent] {
					continue
				}
				indeg[dependent]--
				if indeg[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := 0; i < n; i++ {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, NodeID(i))
			}
		}
		slices.Sort(topo.Cycles)
	}

	return topo
}

// ComputeModuleHashes fills hashes[i] = H(content[i] || hash(dep1) ||
// hash(dep2) || ...) for every present node, walking topo.Order in
// dependency-first order so a node's dependencies are already hashed by
// the time it's processed. No-op on a cyclic graph.
func ComputeModuleHashes(g *Graph, content []project.Digest, topo *Topo, hashes []project.Digest) {
	if topo.Cyclic {
		return
	}
	for _, id := range topo.Order {
		deps := make([]project.Digest, 0, len(g.Edges[id]))
		for _, to := range g.Edges[id] {
			if g.Present[to] {
				deps = append(deps, hashes[to])
			}
		}
		hashes[id] = project.Combine(content[id], deps...)
	}
}
