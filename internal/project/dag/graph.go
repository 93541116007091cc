// Package dag builds and topologically sorts the module dependency graph
// that the Flattener walks to emit each module in dependency order.
package dag

import (
	"slices"

	"zzc/internal/name"
)

// NodeID is a dense index into a Graph, assigned by Index in Name order.
// Kept distinct from name.ID because a graph only ever covers the modules
// in one artifact's build, a subset of every interned Name.
type NodeID uint32

// Index maps interned module Names to dense Graph node indices.
type Index struct {
	names []name.ID
	pos   map[name.ID]NodeID
}

// NewIndex builds an Index over names, sorted for deterministic NodeID
// assignment (spec's "ties break by absolute Name lex order").
func NewIndex(tbl *name.Table, names []name.ID) *Index {
	sorted := append([]name.ID(nil), names...)
	slices.SortFunc(sorted, func(a, b name.ID) int {
		na, _ := tbl.Lookup(a)
		nb, _ := tbl.Lookup(b)
		switch {
		case na.Less(nb):
			return -1
		case nb.Less(na):
			return 1
		default:
			return 0
		}
	})

	idx := &Index{names: sorted, pos: make(map[name.ID]NodeID, len(sorted))}
	for i, n := range sorted {
		idx.pos[n] = NodeID(i)
	}
	return idx
}

// NodeOf returns the dense index for a module Name, or ok=false if it
// wasn't part of this Index.
func (idx *Index) NodeOf(id name.ID) (NodeID, bool) {
	n, ok := idx.pos[id]
	return n, ok
}

// NameOf returns the module Name for a dense index.
func (idx *Index) NameOf(n NodeID) name.ID {
	return idx.names[n]
}

// Len returns the number of nodes in the Index.
func (idx *Index) Len() int { return len(idx.names) }

// Graph is a dependency graph over an Index's node space. Edges[i] lists
// the nodes i depends on (must be emitted before i); Dependents[i] is the
// reverse: the nodes that depend on i.
type Graph struct {
	Edges      [][]NodeID
	Dependents [][]NodeID
	Present    []bool
}

// NewGraph allocates an empty Graph sized for n nodes, all present.
func NewGraph(n int) *Graph {
	present := make([]bool, n)
	for i := range present {
		present[i] = true
	}
	return &Graph{
		Edges:      make([][]NodeID, n),
		Dependents: make([][]NodeID, n),
		Present:    present,
	}
}

// AddEdge records that `from` depends on `to` (to must be emitted first).
func (g *Graph) AddEdge(from, to NodeID) {
	g.Edges[from] = append(g.Edges[from], to)
	g.Dependents[to] = append(g.Dependents[to], from)
}

// SortEdges sorts every node's edge and dependent lists, so traversal
// order — and therefore module hashing and batch assignment — stays
// deterministic across runs.
func (g *Graph) SortEdges() {
	for i := range g.Edges {
		slices.Sort(g.Edges[i])
		slices.Sort(g.Dependents[i])
	}
}
