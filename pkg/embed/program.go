package embed

import (
	"math"

	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
	"github.com/matzehuels/flamecast/pkg/socp"
)

// program is the conic form of one embedding problem.
//
// Variables: two coordinates per vertex, numbered by (layer, index), followed
// by one length per edge numbered by the (layer, index) of its lower end.
// Rows: one two-row zero cone per source and drain, then a three-row
// second-order cone (tₑ, Δx, Δy) per edge.
type program struct {
	g       *layered.Graph
	flows   layered.Flows
	alpha   float64
	sources []geom.Point
	drains  []geom.Point

	offset []int // offset[l] is the global number of vertex (l, 0)
	nv     int   // vertices
	ne     int   // edges
	x0     []float64
}

func newProgram(g *layered.Graph, flows layered.Flows, alpha float64, sources, drains []geom.Point) *program {
	p := &program{g: g, flows: flows, alpha: alpha, sources: sources, drains: drains}
	p.offset = make([]int, g.NumLayers())
	for l, layer := range g.Layers {
		p.offset[l] = p.nv
		p.nv += len(layer)
	}
	p.ne = g.NumEdges()
	p.x0 = make([]float64, 2*p.nv+p.ne)
	return p
}

func (p *program) posVar(l, i int) int  { return 2 * (p.offset[l] + i) }
func (p *program) edgeVar(l, i int) int { return 2*p.nv + p.offset[l] + i }

func (p *program) problem() *socp.Problem {
	g := p.g
	drain := g.DrainLayer()
	n := 2*p.nv + p.ne

	q := make([]float64, n)
	pow := NewPowCache(p.alpha)
	for l := 0; l < drain; l++ {
		for i := range g.Layers[l] {
			q[p.edgeVar(l, i)] = pow.Pow(p.flows[l][i])
		}
	}

	var (
		entries []socp.Triplet
		b       []float64
		cones   []socp.Cone
	)
	pin := func(l, i int, at geom.Point) {
		row := len(b)
		v := p.posVar(l, i)
		entries = append(entries,
			socp.Triplet{Row: row, Col: v, Val: 1},
			socp.Triplet{Row: row + 1, Col: v + 1, Val: 1},
		)
		b = append(b, at.X, at.Y)
		cones = append(cones, socp.Zero(2))
	}
	for i, s := range p.sources {
		pin(0, i, s)
	}
	for i, d := range p.drains {
		pin(drain, i, d)
	}

	// s = b − Ax with s = (tₑ, p(v) − p(parent)).
	for l := 0; l < drain; l++ {
		for i, v := range g.Layers[l] {
			row := len(b)
			lo, hi := p.posVar(l, i), p.posVar(l+1, v.Parent)
			entries = append(entries,
				socp.Triplet{Row: row, Col: p.edgeVar(l, i), Val: -1},
				socp.Triplet{Row: row + 1, Col: lo, Val: -1},
				socp.Triplet{Row: row + 1, Col: hi, Val: 1},
				socp.Triplet{Row: row + 2, Col: lo + 1, Val: -1},
				socp.Triplet{Row: row + 2, Col: hi + 1, Val: 1},
			)
			b = append(b, 0, 0, 0)
			cones = append(cones, socp.SOC(3))
		}
	}

	A, err := socp.NewCSC(len(b), n, entries)
	if err != nil {
		// Indices are generated above from the graph shape.
		panic(err)
	}
	return &socp.Problem{Q: q, A: A, B: b, Cones: cones, X0: p.x0}
}

// seed starts interior vertices at prev.
func (p *program) seed(prev VertexEmbeddings) {
	for l := 1; l < p.g.DrainLayer(); l++ {
		for i, pt := range prev[l] {
			p.setPos(l, i, pt)
		}
	}
	p.seedLengths()
}

// seedFromSubtrees starts every interior vertex between the centroid of the
// sources below it and its drain, proportionally to its layer.
func (p *program) seedFromSubtrees() {
	g := p.g
	drain := g.DrainLayer()
	sum := make([][]geom.Point, g.NumLayers())
	cnt := make([][]float64, g.NumLayers())
	for l := range g.Layers {
		sum[l] = make([]geom.Point, len(g.Layers[l]))
		cnt[l] = make([]float64, len(g.Layers[l]))
	}
	for i, s := range p.sources {
		sum[0][i], cnt[0][i] = s, 1
	}
	for l := 1; l <= drain; l++ {
		for i, v := range g.Layers[l] {
			for _, c := range v.Children {
				sum[l][i] = sum[l][i].Add(sum[l-1][c])
				cnt[l][i] += cnt[l-1][c]
			}
		}
	}
	for l := 1; l < drain; l++ {
		for i := range g.Layers[l] {
			root := i
			for k := l; k < drain; k++ {
				root = g.Layers[k][root].Parent
			}
			c := sum[l][i].Scale(1 / math.Max(cnt[l][i], 1))
			frac := float64(l) / float64(drain)
			p.setPos(l, i, c.Add(p.drains[root].Sub(c).Scale(frac)))
		}
	}
	p.seedLengths()
}

func (p *program) setPos(l, i int, pt geom.Point) {
	v := p.posVar(l, i)
	p.x0[v], p.x0[v+1] = pt.X, pt.Y
}

func (p *program) pos(x []float64, l, i int) geom.Point {
	v := p.posVar(l, i)
	return geom.Pt(x[v], x[v+1])
}

// seedLengths sets every tₑ slightly above the seeded edge length.
func (p *program) seedLengths() {
	for i, s := range p.sources {
		p.setPos(0, i, s)
	}
	drain := p.g.DrainLayer()
	for i, d := range p.drains {
		p.setPos(drain, i, d)
	}
	for l := 0; l < drain; l++ {
		for i, v := range p.g.Layers[l] {
			d := geom.Dist(p.pos(p.x0, l, i), p.pos(p.x0, l+1, v.Parent))
			p.x0[p.edgeVar(l, i)] = d + 0.1
		}
	}
}

func (p *program) readBack(x []float64) VertexEmbeddings {
	g := p.g
	emb := make(VertexEmbeddings, g.NumLayers())
	for l, layer := range g.Layers {
		emb[l] = make([]geom.Point, len(layer))
		for i := range layer {
			emb[l][i] = p.pos(x, l, i)
		}
	}
	copy(emb[0], p.sources)
	copy(emb[g.DrainLayer()], p.drains)
	return emb
}
