package cluster

import (
	"errors"
	"fmt"
	"math"
)

// ErrShape is returned by [Assign] when the cost matrix is ragged or has
// more rows than columns.
var ErrShape = errors.New("cost matrix must be rectangular with rows <= columns")

// Assign solves the rectangular assignment problem: it maps every row of
// cost to a distinct column so that the summed cost is minimal. It returns
// the column chosen for each row and the total cost.
//
// The implementation is the O(n²m) Kuhn–Munkres algorithm with row and
// column potentials and shortest augmenting paths.
func Assign(cost [][]float64) ([]int, float64, error) {
	n := len(cost)
	if n == 0 {
		return nil, 0, nil
	}
	m := len(cost[0])
	for i, row := range cost {
		if len(row) != m {
			return nil, 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), m)
		}
	}
	if n > m {
		return nil, 0, fmt.Errorf("%w: %d rows, %d columns", ErrShape, n, m)
	}

	// 1-based potentials; column 0 is the virtual root of each search.
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1) // p[j] = row matched to column j
	way := make([]int, m+1)
	minv := make([]float64, m+1)
	used := make([]bool, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := -1
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				return nil, 0, fmt.Errorf("%w: no augmenting column for row %d", ErrShape, i)
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowToCol := make([]int, n)
	total := 0.0
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			rowToCol[p[j]-1] = j - 1
			total += cost[p[j]-1][j-1]
		}
	}
	return rowToCol, total, nil
}
