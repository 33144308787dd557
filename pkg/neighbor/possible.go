package neighbor

import (
	"github.com/matzehuels/flamecast/pkg/layered"
)

// IsPossible reports whether n can be applied to g without breaking any
// structural or capacity invariant. flows must be the flow table of g.
func IsPossible(g *layered.Graph, flows layered.Flows, capacities []int, n Neighbor) bool {
	l := n.Vertex.Layer
	if l < 0 || l >= g.NumLayers() || n.Vertex.Index < 0 || n.Vertex.Index >= len(g.Layers[l]) {
		return false
	}
	switch n.Kind {
	case Recable:
		return recablePossible(g, flows, capacities, n)
	case Swap:
		return swapPossible(g, flows, capacities, n)
	case Merge:
		return mergePossible(g, flows, capacities, n)
	case Split:
		return splitPossible(g, n)
	}
	return false
}

func recablePossible(g *layered.Graph, flows layered.Flows, capacities []int, n Neighbor) bool {
	l, v := n.Vertex.Layer, n.Vertex.Index
	if l >= g.DrainLayer() || n.Target < 0 || n.Target >= len(g.Layers[l+1]) {
		return false
	}
	old := g.Layers[l][v].Parent
	if old == n.Target {
		return false
	}
	if g.IsInterior(l+1) && len(g.Layers[l+1][old].Children) == 1 {
		return false
	}
	_, gain, _ := g.DivergingPaths(layered.ID(l+1, old), layered.ID(l+1, n.Target))
	return fits(flows, capacities, l+1, gain, flows[l][v])
}

func swapPossible(g *layered.Graph, flows layered.Flows, capacities []int, n Neighbor) bool {
	l, a, b := n.Vertex.Layer, n.Vertex.Index, n.Other
	if l >= g.DrainLayer() || b < 0 || b >= len(g.Layers[l]) || a == b {
		return false
	}
	pa, pb := g.Layers[l][a].Parent, g.Layers[l][b].Parent
	if pa == pb {
		return false
	}
	pathA, pathB, _ := g.DivergingPaths(layered.ID(l+1, pa), layered.ID(l+1, pb))
	delta := flows[l][b] - flows[l][a]
	return fits(flows, capacities, l+1, pathA, delta) && fits(flows, capacities, l+1, pathB, -delta)
}

func mergePossible(g *layered.Graph, flows layered.Flows, capacities []int, n Neighbor) bool {
	l, u, w := n.Vertex.Layer, n.Vertex.Index, n.Other
	if !g.IsInterior(l) || w < 0 || w >= len(g.Layers[l]) || u == w {
		return false
	}
	if g.Layers[l][u].Parent != g.Layers[l][w].Parent {
		return false
	}
	return flows[l][u]+flows[l][w] <= capacities[l]
}

// splitPossible accepts any non-empty proper subset of the children,
// singletons included, so that every Merge can be undone by a later Split.
func splitPossible(g *layered.Graph, n Neighbor) bool {
	l := n.Vertex.Layer
	if !g.IsInterior(l) {
		return false
	}
	children := g.Layers[l][n.Vertex.Index].Children
	if len(n.Subset) == 0 || len(n.Subset) >= len(children) {
		return false
	}
	seen := make(map[int]bool, len(n.Subset))
	for _, c := range n.Subset {
		if seen[c] || c < 0 || c >= len(g.Layers[l-1]) || g.Layers[l-1][c].Parent != n.Vertex.Index {
			return false
		}
		seen[c] = true
	}
	return true
}

// fits reports whether adding delta to every vertex of path (which starts in
// layer from) keeps each within its layer capacity.
func fits(flows layered.Flows, capacities []int, from int, path []int, delta int) bool {
	if delta <= 0 {
		return true
	}
	for k, i := range path {
		l := from + k
		if flows[l][i]+delta > capacities[l] {
			return false
		}
	}
	return true
}
