package socp

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewCSC(t *testing.T) {
	a, err := NewCSC(3, 2, []Triplet{
		{Row: 2, Col: 0, Val: 3},
		{Row: 0, Col: 0, Val: 1},
		{Row: 1, Col: 1, Val: 2},
		{Row: 0, Col: 0, Val: 4}, // duplicate, summed
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 3}, a.ColPtr)
	assert.Equal(t, []int{0, 2, 1}, a.RowIdx)
	assert.Equal(t, 3, a.NNZ())
	assert.Equal(t, 5.0, a.At(0, 0))
	assert.Equal(t, 3.0, a.At(2, 0))
	assert.Equal(t, 0.0, a.At(1, 0))

	y := make([]float64, 3)
	a.MulVec(y, []float64{1, 10})
	assert.Equal(t, []float64{5, 20, 3}, y)

	z := make([]float64, 2)
	a.MulTransVec(z, []float64{1, 1, 1})
	assert.Equal(t, []float64{8, 2}, z)
}

func TestNewCSCOutOfRange(t *testing.T) {
	_, err := NewCSC(2, 2, []Triplet{{Row: 2, Col: 0, Val: 1}})
	require.ErrorIs(t, err, ErrShape)
}

func TestLDLMatchesDense(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const n = 30

	// Random sparse SPD matrix: a tree plus a few extra couplings, made
	// diagonally dominant.
	dense := mat.NewSymDense(n, nil)
	adj := make([][]int, n)
	link := func(i, j int, v float64) {
		adj[i] = append(adj[i], j)
		adj[j] = append(adj[j], i)
		dense.SetSym(i, j, v)
	}
	for i := 1; i < n; i++ {
		link(i, rng.IntN(i), rng.Float64()-0.5)
	}
	for range 10 {
		i, j := rng.IntN(n), rng.IntN(n)
		if i != j && dense.At(i, j) == 0 {
			link(i, j, rng.Float64()-0.5)
		}
	}
	for i := range n {
		dense.SetSym(i, i, 4+rng.Float64())
	}

	sym := analyze(adj)
	f := newLDL(sym)
	for i := range n {
		for j := 0; j <= i; j++ {
			v := dense.At(i, j)
			if v == 0 {
				continue
			}
			col, pos, ok := sym.slot(sym.iperm[i], sym.iperm[j])
			require.True(t, ok, "entry (%d,%d) outside pattern", i, j)
			f.add(col, pos, v)
		}
	}
	reg, err := f.factorize(pivotFloor)
	require.NoError(t, err)
	assert.Zero(t, reg)

	b := make([]float64, n)
	for i := range b {
		b[i] = rng.Float64()
	}
	x := make([]float64, n)
	f.solve(x, b)

	var chol mat.Cholesky
	require.True(t, chol.Factorize(dense))
	want := mat.NewVecDense(n, nil)
	require.NoError(t, chol.SolveVecTo(want, mat.NewVecDense(n, b)))
	for i := range n {
		assert.InDelta(t, want.AtVec(i), x[i], 1e-10)
	}

	hx := make([]float64, n)
	f.mulVec(hx, x)
	assert.InDeltaSlice(t, b, hx, 1e-10)
}

func TestAnalyzeTreeHasNoFill(t *testing.T) {
	// A path graph 0-1-2-...-9 eliminated by minimum degree never fills.
	const n = 10
	adj := make([][]int, n)
	for i := 1; i < n; i++ {
		adj[i] = append(adj[i], i-1)
		adj[i-1] = append(adj[i-1], i)
	}
	sym := analyze(adj)
	assert.Equal(t, n-1, sym.fill())
	for k, v := range sym.perm {
		assert.Equal(t, k, sym.iperm[v])
	}
}
