package neighbor

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/flamecast/pkg/cluster"
	"github.com/matzehuels/flamecast/pkg/embed"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
)

// Mode selects how candidates are enumerated.
type Mode int

const (
	// ModeComplete lists every possible move of every kind.
	ModeComplete Mode = iota
	// ModeHeuristical lists only moves that involve a few random centres.
	ModeHeuristical
)

const (
	// largeGraph is the vertex count above which ModeHeuristical uses a fixed
	// number of centres.
	largeGraph   = 600
	largeCentres = 25
)

// NumCentres returns how many exploration centres are drawn for a
// graph of n vertices in ModeHeuristical: ⌈√n⌉, or 25 above 600 vertices.
func NumCentres(n int) int {
	if n > largeGraph {
		return largeCentres
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// Enumerate lists the possible moves on g. emb is the current placement; it
// drives the 2-means partition proposed for each Split. rng is consumed by
// centre sampling and by k-means seeding.
func Enumerate(g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, capacities []int, mode Mode, rng *rand.Rand) []Neighbor {
	e := &enumerator{g: g, flows: flows, emb: emb, capacities: capacities, rng: rng, seen: map[string]bool{}}
	if mode == ModeComplete {
		e.complete()
	} else {
		e.heuristical()
	}
	return e.out
}

type enumerator struct {
	g          *layered.Graph
	flows      layered.Flows
	emb        embed.VertexEmbeddings
	capacities []int
	rng        *rand.Rand

	seen map[string]bool
	out  []Neighbor
}

func (e *enumerator) add(n Neighbor) {
	if !IsPossible(e.g, e.flows, e.capacities, n) {
		return
	}
	k := n.key()
	if e.seen[k] {
		return
	}
	e.seen[k] = true
	e.out = append(e.out, n)
}

func (e *enumerator) complete() {
	g := e.g
	drain := g.DrainLayer()
	for l := 0; l < drain; l++ {
		for v := range g.Layers[l] {
			for t := range g.Layers[l+1] {
				e.add(NewRecable(layered.ID(l, v), t))
			}
		}
	}
	for l := 0; l < drain; l++ {
		for a := range g.Layers[l] {
			for b := a + 1; b < len(g.Layers[l]); b++ {
				e.add(NewSwap(l, a, b))
			}
		}
	}
	for l := 1; l < drain; l++ {
		for u := range g.Layers[l] {
			for w := u + 1; w < len(g.Layers[l]); w++ {
				e.add(NewMerge(l, u, w))
			}
		}
	}
	for l := 1; l < drain; l++ {
		for p := range g.Layers[l] {
			e.split(layered.ID(l, p))
		}
	}
}

func (e *enumerator) heuristical() {
	g := e.g
	var ids []layered.VertexID
	for l, layer := range g.Layers {
		for i := range layer {
			ids = append(ids, layered.ID(l, i))
		}
	}
	k := min(NumCentres(len(ids)), len(ids))
	for _, j := range e.rng.Perm(len(ids))[:k] {
		e.around(ids[j])
	}
}

// around adds every move that involves c.
func (e *enumerator) around(c layered.VertexID) {
	g := e.g
	l, i := c.Layer, c.Index
	if l < g.DrainLayer() {
		for t := range g.Layers[l+1] {
			e.add(NewRecable(c, t))
		}
		for j := range g.Layers[l] {
			e.add(NewSwap(l, i, j))
		}
	}
	if l > 0 {
		for v := range g.Layers[l-1] {
			e.add(NewRecable(layered.ID(l-1, v), i))
		}
	}
	if g.IsInterior(l) {
		up := g.Layers[l][i].Parent
		for _, s := range g.Layers[l+1][up].Children {
			if s != i {
				e.add(NewMerge(l, min(i, s), max(i, s)))
			}
		}
		e.split(c)
	}
}

func (e *enumerator) split(p layered.VertexID) {
	if s := SplitSubset(e.g, e.emb, p, e.rng); s != nil {
		e.add(NewSplit(p, s))
	}
}

// SplitSubset proposes the children of p that a Split should move: the
// 2-means cluster of the children's positions whose centre lies farther from
// p. It returns nil when p has fewer than two children. The subset may be a
// single child: with two children that is the only split, and it is the
// inverse of merging two single-child siblings.
func SplitSubset(g *layered.Graph, emb embed.VertexEmbeddings, p layered.VertexID, rng *rand.Rand) []int {
	children := g.Layers[p.Layer][p.Index].Children
	if len(children) < 2 || p.Layer == 0 {
		return nil
	}
	pts := make([]geom.Point, len(children))
	for k, c := range children {
		pts[k] = emb[p.Layer-1][c]
	}
	res := cluster.KMeans(pts, 2, rng, 0)
	far := 0
	at := emb.At(p)
	if geom.Dist(res.Centers[1], at) > geom.Dist(res.Centers[0], at) {
		far = 1
	}
	var subset []int
	for k, c := range children {
		if res.Labels[k] == far {
			subset = append(subset, c)
		}
	}
	return subset
}
