package topology

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func randomProblem(rng *rand.Rand, sources, drains int, caps []int) *Problem {
	p := &Problem{Alpha: 0.5, NumLayers: len(caps), Capacities: caps}
	for range sources {
		p.Sources = append(p.Sources, geom.Pt(rng.Float64(), rng.Float64()))
	}
	for range drains {
		p.Drains = append(p.Drains, geom.Pt(rng.Float64(), rng.Float64()))
	}
	return p
}

func TestBuildProducesValidTopologies(t *testing.T) {
	shapes := []struct {
		name    string
		sources int
		drains  int
		caps    []int
	}{
		{"two layers", 6, 2, []int{1, 3}},
		{"three layers", 10, 1, []int{1, 4, 10}},
		{"deep", 25, 3, []int{1, 2, 4, 8, 16}},
		{"non-monotone", 12, 2, []int{1, 5, 2, 8}},
		{"tight drains", 9, 3, []int{1, 1, 3, 3}},
		{"single source", 1, 1, []int{1, 1, 1}},
	}
	kinds := []InitialSolution{Random, Matching, LowConnectivity}

	for _, sh := range shapes {
		for _, kind := range kinds {
			t.Run(sh.name+"/"+kind.String(), func(t *testing.T) {
				for seed := range uint64(5) {
					p := randomProblem(newRand(seed), sh.sources, sh.drains, sh.caps)
					g, err := Build(kind, p, newRand(seed+100))
					require.NoError(t, err)
					require.NoError(t, g.Validate(p.Capacities, sh.sources, sh.drains))
					assert.Equal(t, sh.sources, layered.ComputeFlows(g).DrainTotal())
				}
			})
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	p := randomProblem(newRand(3), 30, 3, []int{1, 3, 6, 12})
	for _, kind := range []InitialSolution{Random, Matching, LowConnectivity} {
		a, err := Build(kind, p, newRand(42))
		require.NoError(t, err)
		b, err := Build(kind, p, newRand(42))
		require.NoError(t, err)
		assert.True(t, a.Equal(b), "%s not reproducible", kind)
	}
}

func TestMatchingPrefersNearestDrain(t *testing.T) {
	p := &Problem{
		Alpha:      0.5,
		NumLayers:  3,
		Capacities: []int{1, 2, 2},
		Sources:    []geom.Point{geom.Pt(0.1, 0.1), geom.Pt(0.15, 0.1), geom.Pt(0.9, 0.9), geom.Pt(0.85, 0.9)},
		Drains:     []geom.Point{geom.Pt(0.1, 0.2), geom.Pt(0.9, 0.8)},
	}
	g, err := Build(Matching, p, newRand(1))
	require.NoError(t, err)
	for s, want := range []int{0, 0, 1, 1} {
		anc := g.Ancestors(layered.ID(0, s))
		assert.Equal(t, want, anc[len(anc)-1], "source %d routed to wrong drain", s)
	}
}

func TestLowConnectivityChains(t *testing.T) {
	p := randomProblem(newRand(8), 7, 2, []int{1, 4, 4, 7})
	g, err := Build(LowConnectivity, p, newRand(0))
	require.NoError(t, err)
	for l := 1; l < g.DrainLayer(); l++ {
		assert.Len(t, g.Layers[l], 7)
		for _, v := range g.Layers[l] {
			assert.Len(t, v.Children, 1)
		}
	}
}

func TestProblemValidate(t *testing.T) {
	base := func() *Problem {
		return &Problem{
			Alpha:      0.5,
			NumLayers:  3,
			Capacities: []int{1, 2, 2},
			Sources:    []geom.Point{geom.Pt(0.25, 0.25), geom.Pt(0.25, 0.75)},
			Drains:     []geom.Point{geom.Pt(0.75, 0.5)},
		}
	}
	tests := []struct {
		name   string
		mutate func(p *Problem)
	}{
		{"alpha too large", func(p *Problem) { p.Alpha = 1.5 }},
		{"one layer", func(p *Problem) { p.NumLayers = 1; p.Capacities = []int{1} }},
		{"capacity length", func(p *Problem) { p.Capacities = []int{1, 2} }},
		{"zero capacity", func(p *Problem) { p.Capacities[1] = 0 }},
		{"no drains", func(p *Problem) { p.Drains = nil }},
		{"no sources", func(p *Problem) { p.Sources = nil }},
		{"source outside square", func(p *Problem) { p.Sources[0] = geom.Pt(1.5, 0) }},
		{"drains too small", func(p *Problem) { p.Capacities[2] = 1 }},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, fcerrors.Is(err, fcerrors.ErrCodeInvalidInput), "code = %v", fcerrors.GetCode(err))
			_, err = Build(Matching, p, newRand(0))
			assert.Error(t, err)
		})
	}
}

func TestParseInitialSolution(t *testing.T) {
	tests := []struct {
		in   string
		want InitialSolution
	}{
		{"matching", Matching},
		{"Random", Random},
		{"low-connectivity", LowConnectivity},
		{"low_connectivity", LowConnectivity},
		{"LowConnectivity", LowConnectivity},
	}
	for _, tt := range tests {
		got, err := ParseInitialSolution(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseInitialSolution("greedy")
	assert.Error(t, err)

	var s InitialSolution
	require.NoError(t, s.UnmarshalText([]byte("random")))
	assert.Equal(t, Random, s)
	b, _ := LowConnectivity.MarshalText()
	assert.Equal(t, "low-connectivity", string(b))
}
