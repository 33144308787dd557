package neighbor

import (
	"context"
	"math"

	"github.com/matzehuels/flamecast/pkg/embed"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
)

// Estimator ranks candidate moves without re-embedding the whole graph.
//
// Recable and Swap keep every position fixed: the moved edges change length
// and the edges on both ancestor paths change flow. Merge and Split re-embed
// only the affected vertices, with their children and their parent pinned,
// and replace the cost of the incident edges.
type Estimator struct {
	alpha float64
	opts  embed.Options
	pow   *embed.PowCache
}

// NewEstimator returns an estimator for exponent alpha that embeds local
// patches with opts.
func NewEstimator(alpha float64, opts embed.Options) *Estimator {
	opts.Previous = nil
	opts.ShowDiff = false
	return &Estimator{alpha: alpha, opts: opts, pow: embed.NewPowCache(alpha)}
}

// Estimate returns the approximate total cost after n, given the cost
// current of the placement emb of g. A failed local embedding yields +Inf.
func (e *Estimator) Estimate(ctx context.Context, g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, current float64, n Neighbor) float64 {
	switch n.Kind {
	case Recable:
		return current + e.recable(g, flows, emb, n)
	case Swap:
		return current + e.swap(g, flows, emb, n)
	case Merge:
		return current + e.merge(ctx, g, flows, emb, n)
	case Split:
		return current + e.split(ctx, g, flows, emb, n)
	}
	return math.Inf(1)
}

func (e *Estimator) edge(flows layered.Flows, emb embed.VertexEmbeddings, l, i, parent int) float64 {
	return e.pow.Pow(flows[l][i]) * geom.Dist(emb[l][i], emb[l+1][parent])
}

func (e *Estimator) recable(g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, n Neighbor) float64 {
	l, v := n.Vertex.Layer, n.Vertex.Index
	old := g.Layers[l][v].Parent
	f := flows[l][v]
	d := e.edge(flows, emb, l, v, n.Target) - e.edge(flows, emb, l, v, old)
	lose, gain, _ := g.DivergingPaths(layered.ID(l+1, old), layered.ID(l+1, n.Target))
	d += e.pathDelta(g, flows, emb, l+1, lose, -f)
	d += e.pathDelta(g, flows, emb, l+1, gain, f)
	return d
}

func (e *Estimator) swap(g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, n Neighbor) float64 {
	l, a, b := n.Vertex.Layer, n.Vertex.Index, n.Other
	pa, pb := g.Layers[l][a].Parent, g.Layers[l][b].Parent
	d := e.edge(flows, emb, l, a, pb) - e.edge(flows, emb, l, a, pa) +
		e.edge(flows, emb, l, b, pa) - e.edge(flows, emb, l, b, pb)
	pathA, pathB, _ := g.DivergingPaths(layered.ID(l+1, pa), layered.ID(l+1, pb))
	delta := flows[l][b] - flows[l][a]
	d += e.pathDelta(g, flows, emb, l+1, pathA, delta)
	d += e.pathDelta(g, flows, emb, l+1, pathB, -delta)
	return d
}

// pathDelta is the cost change when every vertex of path (starting in layer
// from) carries delta more flow on its upward edge at unchanged length.
func (e *Estimator) pathDelta(g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, from int, path []int, delta int) float64 {
	if delta == 0 {
		return 0
	}
	d := 0.0
	for k, i := range path {
		l := from + k
		if l == g.DrainLayer() {
			break
		}
		length := geom.Dist(emb[l][i], emb[l+1][g.Layers[l][i].Parent])
		d += length * (e.pow.Pow(flows[l][i]+delta) - e.pow.Pow(flows[l][i]))
	}
	return d
}

func (e *Estimator) merge(ctx context.Context, g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, n Neighbor) float64 {
	l, u, w := n.Vertex.Layer, n.Vertex.Index, n.Other
	parent := g.Layers[l][u].Parent
	p := newPatch(emb[l+1][parent], 1)
	old := 0.0
	for _, v := range []int{u, w} {
		for _, c := range g.Layers[l][v].Children {
			p.leaf(0, emb[l-1][c], flows[l-1][c])
			old += e.edge(flows, emb, l-1, c, v)
		}
		old += e.edge(flows, emb, l, v, parent)
	}
	return e.solvePatch(ctx, p) - old
}

func (e *Estimator) split(ctx context.Context, g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, n Neighbor) float64 {
	l, pv := n.Vertex.Layer, n.Vertex.Index
	parent := g.Layers[l][pv].Parent
	moved := make(map[int]bool, len(n.Subset))
	for _, c := range n.Subset {
		moved[c] = true
	}
	p := newPatch(emb[l+1][parent], 2)
	old := e.edge(flows, emb, l, pv, parent)
	for _, c := range g.Layers[l][pv].Children {
		slot := 0
		if moved[c] {
			slot = 1
		}
		p.leaf(slot, emb[l-1][c], flows[l-1][c])
		old += e.edge(flows, emb, l-1, c, pv)
	}
	return e.solvePatch(ctx, p) - old
}

func (e *Estimator) solvePatch(ctx context.Context, p *patch) float64 {
	flows := p.flows()
	emb, err := embed.Embed(ctx, p.g, flows, e.alpha, p.sources, []geom.Point{p.drain}, e.opts)
	if err != nil {
		return math.Inf(1)
	}
	return embed.Cost(p.g, flows, emb, e.alpha)
}

// patch is a three-layer graph: pinned leaves, k free vertices, one pinned
// parent. Leaves carry the flow of the subtree they stand for.
type patch struct {
	g         *layered.Graph
	sources   []geom.Point
	leafFlows []int
	drain     geom.Point
}

func newPatch(drain geom.Point, k int) *patch {
	g := layered.New(3)
	g.AddVertex(2, layered.NoParent)
	for range k {
		g.AddVertex(1, 0)
	}
	return &patch{g: g, drain: drain}
}

func (p *patch) leaf(slot int, at geom.Point, flow int) {
	p.g.AddVertex(0, slot)
	p.sources = append(p.sources, at)
	p.leafFlows = append(p.leafFlows, flow)
}

func (p *patch) flows() layered.Flows {
	f := layered.Flows{p.leafFlows, make([]int, len(p.g.Layers[1])), {0}}
	for i, v := range p.g.Layers[0] {
		f[1][v.Parent] += p.leafFlows[i]
	}
	for _, x := range f[1] {
		f[2][0] += x
	}
	return f
}
