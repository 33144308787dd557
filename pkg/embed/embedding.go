package embed

import (
	"math"

	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
)

// VertexEmbeddings holds one point per vertex, parallel in shape to the
// layers of a [layered.Graph].
type VertexEmbeddings [][]geom.Point

// At returns the point of id.
func (e VertexEmbeddings) At(id layered.VertexID) geom.Point { return e[id.Layer][id.Index] }

// Clone returns a deep copy.
func (e VertexEmbeddings) Clone() VertexEmbeddings {
	out := make(VertexEmbeddings, len(e))
	for l := range e {
		out[l] = append([]geom.Point(nil), e[l]...)
	}
	return out
}

// Fits reports whether e has one point per vertex of g.
func (e VertexEmbeddings) Fits(g *layered.Graph) bool {
	if len(e) != g.NumLayers() {
		return false
	}
	for l, layer := range g.Layers {
		if len(e[l]) != len(layer) {
			return false
		}
	}
	return true
}

// GraphEmbedding pairs a topology with a placement of its vertices.
type GraphEmbedding struct {
	Graph      *layered.Graph   `json:"graph" yaml:"graph"`
	Embeddings VertexEmbeddings `json:"embeddings" yaml:"embeddings"`
}

// Cost evaluates the embedding at exponent alpha.
func (ge GraphEmbedding) Cost(alpha float64) float64 {
	return Cost(ge.Graph, layered.ComputeFlows(ge.Graph), ge.Embeddings, alpha)
}

// Clone returns a deep copy.
func (ge GraphEmbedding) Clone() GraphEmbedding {
	return GraphEmbedding{Graph: ge.Graph.Clone(), Embeddings: ge.Embeddings.Clone()}
}

// EdgeCost returns flow^α·‖p − q‖.
func EdgeCost(flow int, alpha float64, p, q geom.Point) float64 {
	return math.Pow(float64(flow), alpha) * geom.Dist(p, q)
}

// Cost returns Σ flow(v)^α·‖p(v) − p(parent(v))‖ over all non-drain vertices.
func Cost(g *layered.Graph, flows layered.Flows, emb VertexEmbeddings, alpha float64) float64 {
	pow := NewPowCache(alpha)
	total := 0.0
	for l := 0; l < g.DrainLayer(); l++ {
		for i, v := range g.Layers[l] {
			total += pow.Pow(flows[l][i]) * geom.Dist(emb[l][i], emb[l+1][v.Parent])
		}
	}
	return total
}

// PowCache memoises flow^α for small integer flows. It is not safe for
// concurrent use.
type PowCache struct {
	alpha float64
	vals  []float64
}

// NewPowCache returns an empty cache for exponent alpha.
func NewPowCache(alpha float64) *PowCache { return &PowCache{alpha: alpha} }

// Alpha returns the cached exponent.
func (c *PowCache) Alpha() float64 { return c.alpha }

// Pow returns f^α.
func (c *PowCache) Pow(f int) float64 {
	if f < 0 {
		return math.Pow(float64(f), c.alpha)
	}
	for len(c.vals) <= f {
		c.vals = append(c.vals, math.Pow(float64(len(c.vals)), c.alpha))
	}
	return c.vals[f]
}

// DiffStats summarises how far vertices moved between two placements of the
// same graph.
type DiffStats struct {
	Moved   int     // vertices displaced by more than 1e-9
	MaxDist float64 // largest displacement
	Mean    float64 // mean displacement over all vertices
	Worst   layered.VertexID
}

// Diff compares two placements of the same shape.
func Diff(prev, cur VertexEmbeddings) DiffStats {
	var s DiffStats
	n := 0
	for l := range cur {
		for i, p := range cur[l] {
			d := geom.Dist(prev[l][i], p)
			n++
			s.Mean += d
			if d > 1e-9 {
				s.Moved++
			}
			if d > s.MaxDist {
				s.MaxDist = d
				s.Worst = layered.ID(l, i)
			}
		}
	}
	if n > 0 {
		s.Mean /= float64(n)
	}
	return s
}
