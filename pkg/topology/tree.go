package topology

import "github.com/matzehuels/flamecast/pkg/layered"

// subtree is the intermediate form shared by all constructors: a rooted tree
// whose leaves are source indices. It is emitted into a layered.Graph once
// complete, so constructors can work bottom-up or top-down alike.
type subtree struct {
	source   int // leaf only
	children []*subtree
}

func leaf(source int) *subtree { return &subtree{source: source} }

func (t *subtree) flow() int {
	if len(t.children) == 0 {
		return 1
	}
	n := 0
	for _, c := range t.children {
		n += c.flow()
	}
	return n
}

// newSkeleton returns a graph with the drain layer populated and layer 0
// sized to hold every source; sources are linked when emitted.
func newSkeleton(p *Problem) *layered.Graph {
	g := layered.New(p.NumLayers)
	for range p.Drains {
		g.AddVertex(p.DrainLayer(), layered.NoParent)
	}
	g.Layers[0] = make(layered.Layer, len(p.Sources))
	for i := range g.Layers[0] {
		g.Layers[0][i].Parent = layered.NoParent
	}
	return g
}

// emit attaches t as a child of vertex parent in layer l+1, with t itself
// placed in layer l.
func emit(g *layered.Graph, t *subtree, l, parent int) {
	if l == 0 {
		g.Layers[0][t.source].Parent = parent
		p := &g.Layers[1][parent]
		p.Children = append(p.Children, t.source)
		return
	}
	idx := g.AddVertex(l, parent)
	for _, c := range t.children {
		emit(g, c, l-1, idx)
	}
}

// chain wraps t in single-child vertices until it reaches layer top.
func chain(t *subtree, from, top int) *subtree {
	for l := from + 1; l <= top; l++ {
		t = &subtree{children: []*subtree{t}}
	}
	return t
}
