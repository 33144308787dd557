package socp

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distanceProblem builds: minimise Σ tᵢ s.t. ‖p − aᵢ‖ ≤ tᵢ over the free
// point p = (x[0], x[1]) and lengths tᵢ = x[2+i].
func distanceProblem(t *testing.T, anchors [][2]float64) *Problem {
	t.Helper()
	n := 2 + len(anchors)
	q := make([]float64, n)
	var entries []Triplet
	var b []float64
	var cones []Cone
	for i, a := range anchors {
		q[2+i] = 1
		row := len(b)
		entries = append(entries,
			Triplet{Row: row, Col: 2 + i, Val: -1},
			Triplet{Row: row + 1, Col: 0, Val: -1},
			Triplet{Row: row + 2, Col: 1, Val: -1},
		)
		b = append(b, 0, -a[0], -a[1])
		cones = append(cones, SOC(3))
	}
	A, err := NewCSC(len(b), n, entries)
	require.NoError(t, err)
	return &Problem{Q: q, A: A, B: b, Cones: cones}
}

func TestSolveSingleDistance(t *testing.T) {
	p := distanceProblem(t, [][2]float64{{0.3, 0.7}})
	sol, err := Solve(context.Background(), p, Settings{MaxIter: 100})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, sol.X[0], 1e-6)
	assert.InDelta(t, 0.7, sol.X[1], 1e-6)
	assert.InDelta(t, 0, sol.Objective, 1e-8)
	assert.Positive(t, sol.Iterations)
}

func TestSolveFermatPoint(t *testing.T) {
	h := math.Sqrt(3) / 2
	p := distanceProblem(t, [][2]float64{{0, 0}, {1, 0}, {0.5, h}})
	sol, err := Solve(context.Background(), p, Settings{MaxIter: 100})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, sol.X[0], 1e-5)
	assert.InDelta(t, h/3, sol.X[1], 1e-5)
	assert.InDelta(t, math.Sqrt(3), sol.Objective, 1e-7)
	assert.LessOrEqual(t, sol.Gap, 1e-8)
}

func TestSolvePinnedVariables(t *testing.T) {
	// x[0] = 2 via a zero cone; minimise t s.t. ‖x[0] − 5‖ ≤ t.
	A, err := NewCSC(4, 2, []Triplet{
		{Row: 0, Col: 0, Val: 1},
		{Row: 1, Col: 1, Val: -1},
		{Row: 2, Col: 0, Val: -1},
	})
	require.NoError(t, err)
	p := &Problem{
		Q:     []float64{0, 1},
		A:     A,
		B:     []float64{2, 0, -5, 0},
		Cones: []Cone{Zero(1), SOC(3)},
	}
	sol, err := Solve(context.Background(), p, Settings{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, sol.X[0])
	assert.InDelta(t, 3, sol.X[1], 1e-7)
	assert.InDelta(t, 3, sol.Objective, 1e-7)
}

func TestSolveErrors(t *testing.T) {
	t.Run("unsupported equality", func(t *testing.T) {
		A, err := NewCSC(1, 2, []Triplet{{Row: 0, Col: 0, Val: 1}, {Row: 0, Col: 1, Val: 1}})
		require.NoError(t, err)
		_, err = Solve(context.Background(), &Problem{Q: []float64{0, 0}, A: A, B: []float64{1}, Cones: []Cone{Zero(1)}}, Settings{})
		require.ErrorIs(t, err, ErrUnsupportedEquality)
	})
	t.Run("inconsistent pins", func(t *testing.T) {
		A, err := NewCSC(2, 1, []Triplet{{Row: 0, Col: 0, Val: 1}, {Row: 1, Col: 0, Val: 1}})
		require.NoError(t, err)
		_, err = Solve(context.Background(), &Problem{Q: []float64{0}, A: A, B: []float64{1, 2}, Cones: []Cone{Zero(2)}}, Settings{})
		require.ErrorIs(t, err, ErrInconsistentEquality)
	})
	t.Run("shape", func(t *testing.T) {
		A, err := NewCSC(3, 1, nil)
		require.NoError(t, err)
		_, err = Solve(context.Background(), &Problem{Q: []float64{0}, A: A, B: []float64{0, 0, 0}, Cones: []Cone{SOC(2)}}, Settings{})
		require.ErrorIs(t, err, ErrShape)
	})
	t.Run("unbounded", func(t *testing.T) {
		A, err := NewCSC(2, 2, []Triplet{{Row: 0, Col: 0, Val: -1}})
		require.NoError(t, err)
		_, err = Solve(context.Background(), &Problem{Q: []float64{1, -1}, A: A, B: []float64{0, 0}, Cones: []Cone{SOC(2)}}, Settings{})
		require.ErrorIs(t, err, ErrUnbounded)
	})
	t.Run("iteration budget", func(t *testing.T) {
		p := distanceProblem(t, [][2]float64{{0, 0}, {1, 0}, {0, 1}})
		_, err := Solve(context.Background(), p, Settings{MaxIter: 1})
		require.ErrorIs(t, err, ErrNotConverged)
	})
	t.Run("time limit", func(t *testing.T) {
		p := distanceProblem(t, [][2]float64{{0, 0}, {1, 0}, {0, 1}})
		_, err := Solve(context.Background(), p, Settings{TimeLimit: time.Nanosecond})
		require.ErrorIs(t, err, ErrTimeLimit)
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := distanceProblem(t, [][2]float64{{0, 0}, {1, 0}})
		_, err := Solve(ctx, p, Settings{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSolveDeterministic(t *testing.T) {
	p := distanceProblem(t, [][2]float64{{0.1, 0.2}, {0.9, 0.4}, {0.5, 0.95}, {0.2, 0.8}})
	a, err := Solve(context.Background(), p, Settings{})
	require.NoError(t, err)
	b, err := Solve(context.Background(), p, Settings{})
	require.NoError(t, err)
	assert.Equal(t, a.X, b.X)
	assert.Equal(t, a.Iterations, b.Iterations)
}

// chainProblem builds one polyline per pair of pinned endpoints with links
// free interior points and minimises the summed edge lengths. Point k of
// chain c is variable pair 2·(c·(links+2)+k); edge lengths follow all points.
func chainProblem(t *testing.T, ends [][2][2]float64, links int) *Problem {
	t.Helper()
	per := links + 2
	nPts := len(ends) * per
	nEdges := len(ends) * (links + 1)
	n := 2*nPts + nEdges
	q := make([]float64, n)
	var entries []Triplet
	var b []float64
	var cones []Cone
	pin := func(pt int, at [2]float64) {
		row := len(b)
		entries = append(entries,
			Triplet{Row: row, Col: 2 * pt, Val: 1},
			Triplet{Row: row + 1, Col: 2*pt + 1, Val: 1},
		)
		b = append(b, at[0], at[1])
		cones = append(cones, Zero(2))
	}
	edge := 2 * nPts
	for c, e := range ends {
		first := c * per
		pin(first, e[0])
		pin(first+per-1, e[1])
		for k := range links + 1 {
			lo, hi := first+k, first+k+1
			q[edge] = 1
			row := len(b)
			entries = append(entries,
				Triplet{Row: row, Col: edge, Val: -1},
				Triplet{Row: row + 1, Col: 2 * lo, Val: -1},
				Triplet{Row: row + 1, Col: 2 * hi, Val: 1},
				Triplet{Row: row + 2, Col: 2*lo + 1, Val: -1},
				Triplet{Row: row + 2, Col: 2*hi + 1, Val: 1},
			)
			b = append(b, 0, 0, 0)
			cones = append(cones, SOC(3))
			edge++
		}
	}
	A, err := NewCSC(len(b), n, entries)
	require.NoError(t, err)
	return &Problem{Q: q, A: A, B: b, Cones: cones}
}

func TestSolveCollapsedChains(t *testing.T) {
	// Interior points of a chain are free to slide along its segment, and
	// chains with coincident endpoints collapse to a point. Every edge of
	// the latter ends at the cone apex.
	rng := rand.New(rand.NewPCG(7, 8))
	pt := func() [2]float64 { return [2]float64{rng.Float64(), rng.Float64()} }
	tests := []struct {
		name      string
		chains    int
		collapsed int
		links     int
	}{
		{"all collapsed", 20, 20, 2},
		{"mixed", 60, 20, 2},
		{"long chains", 30, 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ends := make([][2][2]float64, tt.chains)
			want := 0.0
			for c := range ends {
				a := pt()
				ends[c] = [2][2]float64{a, a}
				if c >= tt.collapsed {
					ends[c][1] = pt()
					want += math.Hypot(ends[c][1][0]-a[0], ends[c][1][1]-a[1])
				}
			}
			p := chainProblem(t, ends, tt.links)
			for _, budget := range []int{100, 200} {
				sol, err := Solve(context.Background(), p, Settings{MaxIter: budget})
				require.NoError(t, err, "budget %d", budget)
				assert.InDelta(t, want, sol.Objective, 1e-6)
				assert.LessOrEqual(t, sol.Gap, 1e-9*max(1, want))
			}
		})
	}
}

func TestGapBound(t *testing.T) {
	assert.Equal(t, 0.5, gapBound(4, 8, 0))
	assert.Greater(t, gapBound(4, 8, 0.1), gapBound(4, 8, 0))
	assert.True(t, math.IsInf(gapBound(4, 8, 1), 1))
}

func TestCenteringExitScalesWithObjective(t *testing.T) {
	assert.Equal(t, centeringTol, centeringExit(1, 1))
	assert.Equal(t, centeringTol, centeringExit(1e2, -2))
	big := centeringExit(1e10, 5)
	assert.Greater(t, big, centeringTol)
	assert.InDelta(t, centeringRel*5e10, big, 1e-15)
}
