package socp

import (
	"fmt"
	"slices"
)

// CSC is an M×N sparse matrix in compressed sparse column form. Column j
// occupies RowIdx[ColPtr[j]:ColPtr[j+1]] with strictly increasing rows.
type CSC struct {
	M, N   int
	ColPtr []int
	RowIdx []int
	Val    []float64
}

// Triplet is one (row, col, value) entry used to assemble a [CSC].
type Triplet struct {
	Row, Col int
	Val      float64
}

// NewCSC assembles an M×N matrix from triplets. Entries are sorted by row
// within each column and duplicates are summed. Explicit zeros are kept so
// that the sparsity pattern does not depend on the values.
func NewCSC(m, n int, entries []Triplet) (*CSC, error) {
	for _, e := range entries {
		if e.Row < 0 || e.Row >= m || e.Col < 0 || e.Col >= n {
			return nil, fmt.Errorf("%w: entry (%d,%d) outside %dx%d", ErrShape, e.Row, e.Col, m, n)
		}
	}
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Triplet) int {
		if a.Col != b.Col {
			return a.Col - b.Col
		}
		return a.Row - b.Row
	})

	a := &CSC{M: m, N: n, ColPtr: make([]int, n+1)}
	for k := 0; k < len(sorted); {
		e := sorted[k]
		v := e.Val
		k++
		for k < len(sorted) && sorted[k].Col == e.Col && sorted[k].Row == e.Row {
			v += sorted[k].Val
			k++
		}
		a.RowIdx = append(a.RowIdx, e.Row)
		a.Val = append(a.Val, v)
		a.ColPtr[e.Col+1]++
	}
	for j := range n {
		a.ColPtr[j+1] += a.ColPtr[j]
	}
	return a, nil
}

// NNZ returns the number of stored entries.
func (a *CSC) NNZ() int { return len(a.RowIdx) }

// At returns entry (i, j), zero when not stored.
func (a *CSC) At(i, j int) float64 {
	rows := a.RowIdx[a.ColPtr[j]:a.ColPtr[j+1]]
	if k, ok := slices.BinarySearch(rows, i); ok {
		return a.Val[a.ColPtr[j]+k]
	}
	return 0
}

// MulVec computes y = A·x. y must have length M and is overwritten.
func (a *CSC) MulVec(y, x []float64) {
	clear(y)
	for j := range a.N {
		xj := x[j]
		if xj == 0 {
			continue
		}
		for k := a.ColPtr[j]; k < a.ColPtr[j+1]; k++ {
			y[a.RowIdx[k]] += a.Val[k] * xj
		}
	}
}

// MulTransVec computes y = Aᵀ·x. y must have length N and is overwritten.
func (a *CSC) MulTransVec(y, x []float64) {
	for j := range a.N {
		s := 0.0
		for k := a.ColPtr[j]; k < a.ColPtr[j+1]; k++ {
			s += a.Val[k] * x[a.RowIdx[k]]
		}
		y[j] = s
	}
}

// rowEntry is one stored entry of a row view.
type rowEntry struct {
	col int
	val float64
}

// rows returns a row-major view: rows()[i] lists the entries of row i in
// increasing column order.
func (a *CSC) rows() [][]rowEntry {
	out := make([][]rowEntry, a.M)
	for j := range a.N {
		for k := a.ColPtr[j]; k < a.ColPtr[j+1]; k++ {
			out[a.RowIdx[k]] = append(out[a.RowIdx[k]], rowEntry{col: j, val: a.Val[k]})
		}
	}
	return out
}
