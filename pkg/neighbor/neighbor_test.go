package neighbor

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flamecast/pkg/embed"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
	"github.com/matzehuels/flamecast/pkg/topology"
)

type fixture struct {
	p     *topology.Problem
	g     *layered.Graph
	flows layered.Flows
	emb   embed.VertexEmbeddings
	cost  float64
}

func newFixture(t *testing.T, seed uint64, kind topology.InitialSolution) *fixture {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 99))
	p := &topology.Problem{
		Alpha:      0.6,
		NumLayers:  4,
		Capacities: []int{1, 2, 4, 8},
		Drains:     []geom.Point{{X: 0.1, Y: 0.9}, {X: 0.9, Y: 0.1}},
	}
	for range 11 {
		p.Sources = append(p.Sources, geom.Pt(rng.Float64(), rng.Float64()))
	}
	g, err := topology.Build(kind, p, rng)
	require.NoError(t, err)
	flows := layered.ComputeFlows(g)
	emb, err := embed.Embed(context.Background(), g, flows, p.Alpha, p.Sources, p.Drains, embed.DefaultOptions())
	require.NoError(t, err)
	return &fixture{p: p, g: g, flows: flows, emb: emb, cost: embed.Cost(g, flows, emb, p.Alpha)}
}

func (f *fixture) validate(t *testing.T, g *layered.Graph) {
	t.Helper()
	require.NoError(t, g.Validate(f.p.Capacities, len(f.p.Sources), len(f.p.Drains)))
}

func TestApplyPreservesInvariantsAndUndoRestores(t *testing.T) {
	for _, kind := range []topology.InitialSolution{topology.Matching, topology.Random, topology.LowConnectivity} {
		for seed := range uint64(3) {
			f := newFixture(t, seed, kind)
			orig := f.g.Clone()
			moves := Enumerate(f.g, f.flows, f.emb, f.p.Capacities, ModeComplete, rand.New(rand.NewPCG(seed, 1)))
			require.NotEmpty(t, moves)

			counts := map[Kind]int{}
			for _, n := range moves {
				undo, err := Apply(f.g, f.flows, f.p.Capacities, n)
				require.NoError(t, err, "%v", n)
				f.validate(t, f.g)
				assert.True(t, undo.Embedding(f.emb).Fits(f.g), "%v", n)

				undo.Revert(f.g)
				require.True(t, f.g.Equal(orig), "%s seed %d: %v not undone", kind, seed, n)
				counts[n.Kind]++
			}
			assert.Positive(t, counts[Recable], "%s seed %d", kind, seed)
		}
	}
}

func TestMergeUndoScenario(t *testing.T) {
	f := newFixture(t, 4, topology.LowConnectivity)
	orig := f.g.Clone()
	merges := 0
	for l := 1; l < f.g.DrainLayer(); l++ {
		for u := range f.g.Layers[l] {
			for w := range f.g.Layers[l] {
				n := NewMerge(l, u, w)
				if !IsPossible(f.g, f.flows, f.p.Capacities, n) {
					continue
				}
				undo, err := Apply(f.g, f.flows, f.p.Capacities, n)
				require.NoError(t, err)
				undo.Revert(f.g)
				require.True(t, f.g.Equal(orig), "%v", n)
				merges++
			}
		}
	}
	assert.Positive(t, merges)
}

// strongGraph: caps [1,3,3,10]
//
//	D ── A ── a ── s0, s4
//	  └─ B ── b1 ── s1, s2
//	       └─ b2 ── s3
func strongGraph() (*layered.Graph, []int) {
	g := layered.New(4)
	g.AddVertex(3, layered.NoParent)
	A := g.AddVertex(2, 0)
	B := g.AddVertex(2, 0)
	a := g.AddVertex(1, A)
	b1 := g.AddVertex(1, B)
	b2 := g.AddVertex(1, B)
	g.AddVertex(0, a)
	g.AddVertex(0, b1)
	g.AddVertex(0, b1)
	g.AddVertex(0, b2)
	g.AddVertex(0, a)
	return g, []int{1, 3, 3, 10}
}

func TestIsPossible(t *testing.T) {
	g, caps := strongGraph()
	require.NoError(t, g.Validate(caps, 5, 1))
	flows := layered.ComputeFlows(g)

	tests := []struct {
		name string
		n    Neighbor
		want bool
	}{
		{"recable within capacity", NewRecable(layered.ID(1, 2), 0), true},
		{"recable blocked by ancestor", NewRecable(layered.ID(0, 0), 2), false},
		{"recable to current parent", NewRecable(layered.ID(0, 0), 0), false},
		{"recable empties interior", NewRecable(layered.ID(1, 0), 1), false},
		{"recable from drain", NewRecable(layered.ID(3, 0), 0), false},
		{"recable target out of range", NewRecable(layered.ID(0, 0), 7), false},
		{"swap equal flows", NewSwap(0, 0, 1), true},
		{"swap same parent", NewSwap(0, 1, 2), false},
		{"swap blocked by flow delta", NewSwap(1, 0, 2), false},
		{"swap balanced subtrees", NewSwap(1, 0, 1), true},
		{"merge siblings", NewMerge(1, 1, 2), true},
		{"merge over capacity", NewMerge(2, 0, 1), false},
		{"merge different parents", NewMerge(1, 0, 1), false},
		{"merge with itself", NewMerge(1, 1, 1), false},
		{"split proper subset", NewSplit(layered.ID(1, 1), []int{2}), true},
		{"split all children", NewSplit(layered.ID(1, 1), []int{1, 2}), false},
		{"split foreign child", NewSplit(layered.ID(1, 1), []int{0}), false},
		{"split empty", NewSplit(layered.ID(1, 1), nil), false},
		{"split on drain", NewSplit(layered.ID(3, 0), []int{0}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPossible(g, flows, caps, tt.n))
		})
	}
}

func TestApplyImpossibleIsCapacityViolation(t *testing.T) {
	g, caps := strongGraph()
	orig := g.Clone()
	_, err := Apply(g, layered.ComputeFlows(g), caps, NewRecable(layered.ID(0, 0), 2))
	require.Error(t, err)
	assert.Equal(t, fcerrors.ErrCodeCapacityViolation, fcerrors.GetCode(err))
	assert.True(t, g.Equal(orig))
}

func TestMergeMovesLastVertex(t *testing.T) {
	g, caps := strongGraph()
	// b2 is the last vertex of layer 1 and survives the merge.
	undo, err := Apply(g, layered.ComputeFlows(g), caps, NewMerge(1, 2, 1))
	require.NoError(t, err)
	require.NoError(t, g.Validate(caps, 5, 1))
	assert.Len(t, g.Layers[1], 2)
	// b2 (formerly index 2) now occupies slot 1 and owns s1, s2, s3.
	assert.ElementsMatch(t, []int{3, 1, 2}, g.Layers[1][1].Children)
	undo.Revert(g)
	want, _ := strongGraph()
	assert.True(t, g.Equal(want))
}

func TestSplitAppendsVertex(t *testing.T) {
	g, caps := strongGraph()
	undo, err := Apply(g, layered.ComputeFlows(g), caps, NewSplit(layered.ID(1, 0), []int{4}))
	require.NoError(t, err)
	require.NoError(t, g.Validate(caps, 5, 1))
	id, ok := undo.Created()
	require.True(t, ok)
	assert.Equal(t, layered.ID(1, 3), id)
	assert.Equal(t, []int{4}, g.Layers[1][3].Children)
	assert.Equal(t, 0, g.Layers[1][3].Parent)
	undo.Revert(g)
	want, _ := strongGraph()
	assert.True(t, g.Equal(want))
}

func TestEstimatorMatchesFixedPositionCost(t *testing.T) {
	f := newFixture(t, 7, topology.Matching)
	est := NewEstimator(f.p.Alpha, embed.DefaultOptions())
	moves := Enumerate(f.g, f.flows, f.emb, f.p.Capacities, ModeComplete, rand.New(rand.NewPCG(7, 7)))

	for _, n := range moves {
		got := est.Estimate(context.Background(), f.g, f.flows, f.emb, f.cost, n)
		undo, err := Apply(f.g, f.flows, f.p.Capacities, n)
		require.NoError(t, err)
		mapped := undo.Embedding(f.emb)
		frozen := embed.Cost(f.g, layered.ComputeFlows(f.g), mapped, f.p.Alpha)
		undo.Revert(f.g)

		switch n.Kind {
		case Recable, Swap:
			assert.InDelta(t, frozen, got, 1e-9, "%v", n)
		case Merge, Split:
			// The local patch is re-optimised, so it can only beat the
			// frozen placement.
			assert.LessOrEqual(t, got, frozen+1e-7, "%v", n)
		}
	}
}

func TestSearchLeavesGraphUnchanged(t *testing.T) {
	f := newFixture(t, 2, topology.Matching)
	orig := f.g.Clone()
	s := NewSearcher(f.p.Alpha, f.p.Capacities, f.p.Sources, f.p.Drains, embed.DefaultOptions().WithDepth(embed.Shallow))

	for _, opt := range []SearchOption{Heuristical, CompleteHeuristical, CompleteEmbedding} {
		t.Run(opt.String(), func(t *testing.T) {
			cands, err := s.Search(context.Background(), f.g, f.flows, f.emb, f.cost, opt, rand.New(rand.NewPCG(1, 2)))
			require.NoError(t, err)
			require.NotEmpty(t, cands)
			assert.True(t, f.g.Equal(orig))
			for _, c := range cands {
				assert.True(t, IsPossible(f.g, f.flows, f.p.Capacities, c.Neighbor))
				assert.Positive(t, c.Cost)
			}
		})
	}
}

func TestHeuristicalIsSubsetOfComplete(t *testing.T) {
	f := newFixture(t, 11, topology.Random)
	all := map[string]bool{}
	for _, n := range Enumerate(f.g, f.flows, f.emb, f.p.Capacities, ModeComplete, rand.New(rand.NewPCG(5, 5))) {
		if n.Kind != Split {
			all[n.key()] = true
		}
	}
	local := Enumerate(f.g, f.flows, f.emb, f.p.Capacities, ModeHeuristical, rand.New(rand.NewPCG(5, 6)))
	require.NotEmpty(t, local)
	for _, n := range local {
		if n.Kind != Split {
			assert.True(t, all[n.key()], "%v", n)
		}
	}
}

func TestNumCentres(t *testing.T) {
	assert.Equal(t, 4, NumCentres(16))
	assert.Equal(t, 5, NumCentres(17))
	assert.Equal(t, 25, NumCentres(600))
	assert.Equal(t, 25, NumCentres(10_000))
}

func TestSplitSubsetTakesFarCluster(t *testing.T) {
	g := layered.New(3)
	g.AddVertex(2, layered.NoParent)
	g.AddVertex(1, 0)
	for range 4 {
		g.AddVertex(0, 0)
	}
	emb := embed.VertexEmbeddings{
		{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.9}, {X: 0.12, Y: 0.1}, {X: 0.88, Y: 0.9}},
		{{X: 0.15, Y: 0.15}},
		{{X: 0.5, Y: 0.5}},
	}
	got := SplitSubset(g, emb, layered.ID(1, 0), rand.New(rand.NewPCG(1, 1)))
	assert.Equal(t, []int{1, 3}, got)
}

func TestApplyReadsFlowsOnly(t *testing.T) {
	f := newFixture(t, 4, topology.Matching)
	before := f.flows.Clone()
	orig := f.g.Clone()
	moves := Enumerate(f.g, f.flows, f.emb, f.p.Capacities, ModeComplete, rand.New(rand.NewPCG(4, 4)))
	require.NotEmpty(t, moves)
	for _, n := range moves {
		undo, err := Apply(f.g, f.flows, f.p.Capacities, n)
		require.NoError(t, err, "%v", n)
		assert.Equal(t, before, f.flows, "%v", n)

		after := layered.ComputeFlows(f.g)
		for l, layer := range after {
			for i, v := range layer {
				assert.LessOrEqual(t, v, f.p.Capacities[l], "%v: vertex %d/%d", n, l, i)
			}
		}
		undo.Revert(f.g)
		require.True(t, f.g.Equal(orig))
		assert.Equal(t, before, layered.ComputeFlows(f.g))
	}
}

func TestSingletonSplitInvertsMerge(t *testing.T) {
	g := layered.New(3)
	g.AddVertex(2, layered.NoParent)
	g.AddVertex(1, 0)
	g.AddVertex(0, 0)
	g.AddVertex(0, 0)
	caps := []int{1, 2, 2}
	emb := embed.VertexEmbeddings{
		{{X: 0.2, Y: 0.2}, {X: 0.2, Y: 0.8}},
		{{X: 0.4, Y: 0.5}},
		{{X: 0.8, Y: 0.5}},
	}
	p := layered.ID(1, 0)
	subset := SplitSubset(g, emb, p, rand.New(rand.NewPCG(2, 2)))
	require.Len(t, subset, 1)

	split := NewSplit(p, subset)
	require.True(t, IsPossible(g, layered.ComputeFlows(g), caps, split))
	merged := g.Clone()
	_, err := Apply(g, layered.ComputeFlows(g), caps, split)
	require.NoError(t, err)
	require.NoError(t, g.Validate(caps, 2, 1))
	require.Len(t, g.Layers[1], 2)

	merge := NewMerge(1, 0, 1)
	require.True(t, IsPossible(g, layered.ComputeFlows(g), caps, merge))
	_, err = Apply(g, layered.ComputeFlows(g), caps, merge)
	require.NoError(t, err)
	assert.Len(t, g.Layers[1], 1)
	assert.ElementsMatch(t, merged.Layers[1][0].Children, g.Layers[1][0].Children)

	assert.False(t, IsPossible(g, layered.ComputeFlows(g), caps, NewSplit(p, []int{0, 1})))
	assert.False(t, IsPossible(g, layered.ComputeFlows(g), caps, NewSplit(p, nil)))
}

func TestKindAndOptionText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("split")))
	assert.Equal(t, Split, k)
	assert.Error(t, k.UnmarshalText([]byte("teleport")))

	o, err := ParseSearchOption("complete-embedding")
	require.NoError(t, err)
	assert.Equal(t, CompleteEmbedding, o)
	_, err = ParseSearchOption("exhaustive")
	assert.Error(t, err)
}
