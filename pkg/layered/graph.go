package layered

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrTooFewLayers is returned by [Graph.Validate] when the graph has
	// fewer than two layers (sources and drains).
	ErrTooFewLayers = errors.New("graph needs at least two layers")

	// ErrCapacityShape is returned when the capacity vector does not have one
	// entry per layer.
	ErrCapacityShape = errors.New("capacities must have one entry per layer")

	// ErrSourceCount is returned when layer 0 does not hold one vertex per source.
	ErrSourceCount = errors.New("source layer size does not match source count")

	// ErrDrainCount is returned when the last layer does not hold one vertex per drain.
	ErrDrainCount = errors.New("drain layer size does not match drain count")

	// ErrMissingParent is returned when a non-drain vertex has no valid parent
	// in the next layer, or a drain claims to have one.
	ErrMissingParent = errors.New("vertex parent is missing or out of range")

	// ErrInconsistentChildren is returned when a children list disagrees with
	// the parent links of the layer below.
	ErrInconsistentChildren = errors.New("children list disagrees with parent links")

	// ErrEmptyVertex is returned when an interior vertex has no children and
	// would therefore carry zero flow.
	ErrEmptyVertex = errors.New("interior vertex has no children")

	// ErrCapacityExceeded is returned when the flow through a vertex exceeds
	// the capacity of its layer.
	ErrCapacityExceeded = errors.New("vertex flow exceeds layer capacity")

	// ErrFlowMismatch is returned when the drains do not account for every
	// source exactly once.
	ErrFlowMismatch = errors.New("drain flows do not sum to the number of sources")
)

// NoParent marks the parent slot of a drain.
const NoParent = -1

// Vertex is one node of the layered forest.
//
// Parent indexes into the next layer up and is [NoParent] only on the drain
// layer. Children indexes into the next layer down and is nil only on
// layer 0; the order of Children is significant for bit-identical undo.
type Vertex struct {
	Parent   int   `json:"parent" yaml:"parent"`
	Children []int `json:"children,omitempty" yaml:"children,omitempty"`
}

// Layer is an ordered sequence of vertices. A vertex's position is its
// identity within the layer.
type Layer []Vertex

// VertexID addresses a vertex by layer and position. It stays valid as long
// as no structural change renumbers its layer.
type VertexID struct {
	Layer int `json:"layer" yaml:"layer"`
	Index int `json:"index" yaml:"index"`
}

// ID is shorthand for VertexID{Layer: layer, Index: index}.
func ID(layer, index int) VertexID { return VertexID{Layer: layer, Index: index} }

// String formats the handle as "(layer,index)".
func (id VertexID) String() string { return fmt.Sprintf("(%d,%d)", id.Layer, id.Index) }

// Graph is the layered forest. Layers[0] holds the sources and the last
// layer holds the drains.
//
// The zero value has no layers; use [New] and [Graph.AddVertex] to build one.
type Graph struct {
	Layers []Layer `json:"layers" yaml:"layers"`
}

// New returns a graph with numLayers empty layers.
func New(numLayers int) *Graph {
	return &Graph{Layers: make([]Layer, numLayers)}
}

// NumLayers returns the number of layers including sources and drains.
func (g *Graph) NumLayers() int { return len(g.Layers) }

// DrainLayer returns the index of the drain layer.
func (g *Graph) DrainLayer() int { return len(g.Layers) - 1 }

// IsInterior reports whether layer l lies strictly between sources and drains.
func (g *Graph) IsInterior(l int) bool { return l > 0 && l < g.DrainLayer() }

// NumVertices returns the total number of vertices across all layers.
func (g *Graph) NumVertices() int {
	n := 0
	for _, l := range g.Layers {
		n += len(l)
	}
	return n
}

// NumEdges returns the number of edges, which equals the number of
// non-drain vertices.
func (g *Graph) NumEdges() int {
	return g.NumVertices() - len(g.Layers[g.DrainLayer()])
}

// Vertex returns a pointer to the vertex addressed by id.
func (g *Graph) Vertex(id VertexID) *Vertex { return &g.Layers[id.Layer][id.Index] }

// Parent returns the handle of id's parent. The boolean is false for drains.
func (g *Graph) Parent(id VertexID) (VertexID, bool) {
	p := g.Layers[id.Layer][id.Index].Parent
	if p == NoParent {
		return VertexID{}, false
	}
	return VertexID{Layer: id.Layer + 1, Index: p}, true
}

// Children returns handles for the children of id in order.
func (g *Graph) Children(id VertexID) []VertexID {
	ch := g.Layers[id.Layer][id.Index].Children
	out := make([]VertexID, len(ch))
	for i, c := range ch {
		out[i] = VertexID{Layer: id.Layer - 1, Index: c}
	}
	return out
}

// AddVertex appends a vertex to layer l and links it under parent, which
// must be a valid index in layer l+1 (or [NoParent] on the drain layer).
// It returns the new vertex's index.
func (g *Graph) AddVertex(l, parent int) int {
	idx := len(g.Layers[l])
	v := Vertex{Parent: parent}
	if l > 0 {
		v.Children = []int{}
	}
	g.Layers[l] = append(g.Layers[l], v)
	if parent != NoParent {
		p := &g.Layers[l+1][parent]
		p.Children = append(p.Children, idx)
	}
	return idx
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{Layers: make([]Layer, len(g.Layers))}
	for l, layer := range g.Layers {
		out.Layers[l] = make(Layer, len(layer))
		for i, v := range layer {
			out.Layers[l][i] = Vertex{Parent: v.Parent, Children: slices.Clone(v.Children)}
		}
	}
	return out
}

// Equal reports whether g and h have bit-identical layer and vertex state,
// including the order of every children list. A nil children list and an
// empty one are considered equal.
func (g *Graph) Equal(h *Graph) bool {
	if len(g.Layers) != len(h.Layers) {
		return false
	}
	for l := range g.Layers {
		a, b := g.Layers[l], h.Layers[l]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Parent != b[i].Parent || !slices.Equal(a[i].Children, b[i].Children) {
				return false
			}
		}
	}
	return true
}

// ChildPosition returns the position of child c inside the children list of
// vertex (l, p), or -1.
func (g *Graph) ChildPosition(l, p, c int) int {
	return slices.Index(g.Layers[l][p].Children, c)
}

// Validate checks invariants I1–I5 plus the non-empty interior rule against
// the given capacities and expected source/drain counts. It returns the
// first violation found, wrapping one of the package sentinel errors.
func (g *Graph) Validate(capacities []int, numSources, numDrains int) error {
	if len(g.Layers) < 2 {
		return ErrTooFewLayers
	}
	if len(capacities) != len(g.Layers) {
		return fmt.Errorf("%w: got %d, want %d", ErrCapacityShape, len(capacities), len(g.Layers))
	}
	if n := len(g.Layers[0]); n != numSources {
		return fmt.Errorf("%w: got %d, want %d", ErrSourceCount, n, numSources)
	}
	drain := g.DrainLayer()
	if n := len(g.Layers[drain]); n != numDrains {
		return fmt.Errorf("%w: got %d, want %d", ErrDrainCount, n, numDrains)
	}

	for l, layer := range g.Layers {
		for i, v := range layer {
			if err := g.checkVertex(l, i, v); err != nil {
				return err
			}
		}
	}

	flows := ComputeFlows(g)
	total := 0
	for l, layer := range flows {
		for i, f := range layer {
			if f > capacities[l] {
				return fmt.Errorf("%w: vertex %v carries %d, capacity %d", ErrCapacityExceeded, ID(l, i), f, capacities[l])
			}
		}
	}
	for _, f := range flows[drain] {
		total += f
	}
	if total != numSources {
		return fmt.Errorf("%w: drains carry %d, sources %d", ErrFlowMismatch, total, numSources)
	}
	return nil
}

func (g *Graph) checkVertex(l, i int, v Vertex) error {
	id := ID(l, i)
	drain := g.DrainLayer()
	if l == drain {
		if v.Parent != NoParent {
			return fmt.Errorf("%w: drain %v has parent %d", ErrMissingParent, id, v.Parent)
		}
	} else {
		if v.Parent < 0 || v.Parent >= len(g.Layers[l+1]) {
			return fmt.Errorf("%w: vertex %v has parent %d", ErrMissingParent, id, v.Parent)
		}
		if g.ChildPosition(l+1, v.Parent, i) < 0 {
			return fmt.Errorf("%w: vertex %v not listed under parent %d", ErrInconsistentChildren, id, v.Parent)
		}
	}

	if l == 0 {
		if len(v.Children) != 0 {
			return fmt.Errorf("%w: source %v has children", ErrInconsistentChildren, id)
		}
		return nil
	}
	if l != drain && len(v.Children) == 0 {
		return fmt.Errorf("%w: %v", ErrEmptyVertex, id)
	}
	seen := make(map[int]bool, len(v.Children))
	for _, c := range v.Children {
		if c < 0 || c >= len(g.Layers[l-1]) {
			return fmt.Errorf("%w: vertex %v lists child %d out of range", ErrInconsistentChildren, id, c)
		}
		if seen[c] {
			return fmt.Errorf("%w: vertex %v lists child %d twice", ErrInconsistentChildren, id, c)
		}
		seen[c] = true
		if p := g.Layers[l-1][c].Parent; p != i {
			return fmt.Errorf("%w: child %v of %v points to %d", ErrInconsistentChildren, ID(l-1, c), id, p)
		}
	}
	return nil
}
