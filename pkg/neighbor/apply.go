package neighbor

import (
	"slices"

	"github.com/matzehuels/flamecast/pkg/embed"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
)

// Undo reverses one applied move. It carries only the indices needed to put
// every parent link and children list back in its previous order.
type Undo struct {
	n Neighbor

	// Recable: previous parent and v's position in its children list.
	// Swap: positions of the two vertices in their parents' lists.
	oldParent int
	posA      int
	posB      int

	// Merge: parent, w's slot in its list, u's child count before the
	// merge, w's original children, and the index of the vertex that was
	// moved into w's slot (or -1).
	parent    int
	uLen      int
	wChildren []int
	moved     int

	// Split: index of the new vertex and p's original children.
	created   int
	pChildren []int
}

// Neighbor returns the applied move.
func (u *Undo) Neighbor() Neighbor { return u.n }

// Created returns the vertex added by a Split.
func (u *Undo) Created() (layered.VertexID, bool) {
	if u.n.Kind != Split {
		return layered.VertexID{}, false
	}
	return layered.ID(u.n.Vertex.Layer, u.created), true
}

// Apply performs n on g. flows must be the flow table of g and is only read
// to check capacities; callers recompute it with [layered.ComputeFlows]
// after the move, and the flows they held before stay valid once the move
// is reverted. When n is not possible Apply returns a CAPACITY_VIOLATION
// error and leaves g untouched.
func Apply(g *layered.Graph, flows layered.Flows, capacities []int, n Neighbor) (*Undo, error) {
	if !IsPossible(g, flows, capacities, n) {
		return nil, fcerrors.New(fcerrors.ErrCodeCapacityViolation, "neighbor %v is not possible", n)
	}
	u := &Undo{n: n.Clone(), moved: -1}
	switch n.Kind {
	case Recable:
		u.applyRecable(g)
	case Swap:
		u.applySwap(g)
	case Merge:
		u.applyMerge(g)
	case Split:
		u.applySplit(g)
	}
	return u, nil
}

func (u *Undo) applyRecable(g *layered.Graph) {
	l, v := u.n.Vertex.Layer, u.n.Vertex.Index
	up := g.Layers[l+1]
	u.oldParent = g.Layers[l][v].Parent
	u.posA = slices.Index(up[u.oldParent].Children, v)
	up[u.oldParent].Children = slices.Delete(up[u.oldParent].Children, u.posA, u.posA+1)
	up[u.n.Target].Children = append(up[u.n.Target].Children, v)
	g.Layers[l][v].Parent = u.n.Target
}

func (u *Undo) applySwap(g *layered.Graph) {
	l, a, b := u.n.Vertex.Layer, u.n.Vertex.Index, u.n.Other
	layer, up := g.Layers[l], g.Layers[l+1]
	pa, pb := layer[a].Parent, layer[b].Parent
	u.posA = slices.Index(up[pa].Children, a)
	u.posB = slices.Index(up[pb].Children, b)
	up[pa].Children[u.posA] = b
	up[pb].Children[u.posB] = a
	layer[a].Parent, layer[b].Parent = pb, pa
}

func (u *Undo) applyMerge(g *layered.Graph) {
	l, keep, w := u.n.Vertex.Layer, u.n.Vertex.Index, u.n.Other
	layer := g.Layers[l]
	u.parent = layer[w].Parent
	u.uLen = len(layer[keep].Children)
	u.wChildren = layer[w].Children

	for _, c := range u.wChildren {
		g.Layers[l-1][c].Parent = keep
	}
	layer[keep].Children = append(layer[keep].Children, u.wChildren...)

	siblings := g.Layers[l+1][u.parent].Children
	u.posA = slices.Index(siblings, w)
	g.Layers[l+1][u.parent].Children = slices.Delete(siblings, u.posA, u.posA+1)

	last := len(layer) - 1
	if w != last {
		u.moved = last
		relabel(g, l, last, w)
		layer[w] = layer[last]
	}
	g.Layers[l] = layer[:last]
}

func (u *Undo) applySplit(g *layered.Graph) {
	l, p := u.n.Vertex.Layer, u.n.Vertex.Index
	parent := g.Layers[l][p].Parent
	u.created = g.AddVertex(l, parent)
	u.pChildren = g.Layers[l][p].Children

	inSubset := make(map[int]bool, len(u.n.Subset))
	for _, c := range u.n.Subset {
		inSubset[c] = true
	}
	rest := make([]int, 0, len(u.pChildren)-len(u.n.Subset))
	for _, c := range u.pChildren {
		if !inSubset[c] {
			rest = append(rest, c)
		}
	}
	g.Layers[l][p].Children = rest
	g.Layers[l][u.created].Children = slices.Clone(u.n.Subset)
	for _, c := range u.n.Subset {
		g.Layers[l-1][c].Parent = u.created
	}
}

// Revert restores g to its state before the move. It must be called on the
// graph the move was applied to, with no other change in between.
func (u *Undo) Revert(g *layered.Graph) {
	switch u.n.Kind {
	case Recable:
		l, v := u.n.Vertex.Layer, u.n.Vertex.Index
		up := g.Layers[l+1]
		tc := up[u.n.Target].Children
		up[u.n.Target].Children = tc[:len(tc)-1]
		up[u.oldParent].Children = slices.Insert(up[u.oldParent].Children, u.posA, v)
		g.Layers[l][v].Parent = u.oldParent

	case Swap:
		l, a, b := u.n.Vertex.Layer, u.n.Vertex.Index, u.n.Other
		layer, up := g.Layers[l], g.Layers[l+1]
		pa, pb := layer[b].Parent, layer[a].Parent
		up[pa].Children[u.posA] = a
		up[pb].Children[u.posB] = b
		layer[a].Parent, layer[b].Parent = pa, pb

	case Merge:
		l, keep, w := u.n.Vertex.Layer, u.n.Vertex.Index, u.n.Other
		if u.moved >= 0 {
			g.Layers[l] = append(g.Layers[l], g.Layers[l][w])
			relabel(g, l, w, u.moved)
		} else {
			g.Layers[l] = append(g.Layers[l], layered.Vertex{})
		}
		layer := g.Layers[l]
		layer[w] = layered.Vertex{Parent: u.parent, Children: u.wChildren}
		for _, c := range u.wChildren {
			g.Layers[l-1][c].Parent = w
		}
		layer[keep].Children = layer[keep].Children[:u.uLen]
		g.Layers[l+1][u.parent].Children = slices.Insert(g.Layers[l+1][u.parent].Children, u.posA, w)

	case Split:
		l, p := u.n.Vertex.Layer, u.n.Vertex.Index
		parent := g.Layers[l][p].Parent
		for _, c := range u.n.Subset {
			g.Layers[l-1][c].Parent = p
		}
		g.Layers[l][p].Children = u.pChildren
		pc := g.Layers[l+1][parent].Children
		g.Layers[l+1][parent].Children = pc[:len(pc)-1]
		g.Layers[l] = g.Layers[l][:u.created]
	}
}

// relabel rewrites every link that refers to vertex (l, from) so that it
// refers to (l, to). The vertex itself is not moved.
func relabel(g *layered.Graph, l, from, to int) {
	v := g.Layers[l][from]
	if v.Parent != layered.NoParent {
		pc := g.Layers[l+1][v.Parent].Children
		pc[slices.Index(pc, from)] = to
	}
	for _, c := range v.Children {
		g.Layers[l-1][c].Parent = to
	}
}

// Embedding maps a placement of the graph before the move onto the shape of
// the graph after it. A merged-away vertex disappears (the moved vertex
// keeps its point); a split-off vertex starts at the centroid of its
// children.
func (u *Undo) Embedding(before embed.VertexEmbeddings) embed.VertexEmbeddings {
	out := before.Clone()
	l := u.n.Vertex.Layer
	switch u.n.Kind {
	case Merge:
		if u.moved >= 0 {
			out[l][u.n.Other] = out[l][u.moved]
		}
		out[l] = out[l][:len(out[l])-1]
	case Split:
		pts := make([]geom.Point, len(u.n.Subset))
		for i, c := range u.n.Subset {
			pts[i] = before[l-1][c]
		}
		out[l] = append(out[l], geom.Centroid(pts))
	}
	return out
}
