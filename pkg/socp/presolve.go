package socp

import (
	"fmt"
	"math"
)

// reduced is the problem that remains after pinned variables are removed.
// Only second-order cones survive; their rows are renumbered consecutively.
type reduced struct {
	n     int          // full variable count
	free  []int        // free[i] is the original index of free variable i
	fixed []float64    // full-length values; NaN for free variables
	q     []float64    // objective over free variables
	qFix  float64      // objective contribution of pinned variables
	rows  [][]rowEntry // SOC rows over free variables (col is a free index)
	b     []float64    // right-hand side with pinned contributions moved over
	cones []coneRange
}

type coneRange struct {
	off, dim int
}

// presolve pins every variable named by a singleton zero-cone row and
// projects the second-order cone rows onto the remaining variables.
func presolve(p *Problem) (*reduced, error) {
	n := p.A.N
	rows := p.A.rows()
	fixed := make([]float64, n)
	for j := range fixed {
		fixed[j] = math.NaN()
	}

	off := 0
	for _, c := range p.Cones {
		if c.Kind != ZeroCone {
			off += c.Dim
			continue
		}
		for r := off; r < off+c.Dim; r++ {
			nz := rows[r][:0:0]
			for _, e := range rows[r] {
				if e.val != 0 {
					nz = append(nz, e)
				}
			}
			switch len(nz) {
			case 0:
				if p.B[r] != 0 {
					return nil, fmt.Errorf("%w: row %d reads 0 = %g", ErrInconsistentEquality, r, p.B[r])
				}
				continue
			case 1:
			default:
				return nil, fmt.Errorf("%w: row %d has %d entries", ErrUnsupportedEquality, r, len(nz))
			}
			j, v := nz[0].col, p.B[r]/nz[0].val
			if !math.IsNaN(fixed[j]) && math.Abs(fixed[j]-v) > 1e-12*(1+math.Abs(v)) {
				return nil, fmt.Errorf("%w: x[%d] = %g and %g", ErrInconsistentEquality, j, fixed[j], v)
			}
			fixed[j] = v
		}
		off += c.Dim
	}

	red := &reduced{n: n, fixed: fixed}
	index := make([]int, n)
	for j := range n {
		if math.IsNaN(fixed[j]) {
			index[j] = len(red.free)
			red.free = append(red.free, j)
			red.q = append(red.q, p.Q[j])
		} else {
			index[j] = -1
			red.qFix += p.Q[j] * fixed[j]
		}
	}

	used := make([]bool, len(red.free))
	off = 0
	for _, c := range p.Cones {
		if c.Kind == SecondOrderCone {
			red.cones = append(red.cones, coneRange{off: len(red.rows), dim: c.Dim})
			for r := off; r < off+c.Dim; r++ {
				bv := p.B[r]
				var row []rowEntry
				for _, e := range rows[r] {
					if k := index[e.col]; k >= 0 {
						row = append(row, rowEntry{col: k, val: e.val})
						used[k] = true
					} else {
						bv -= e.val * fixed[e.col]
					}
				}
				red.rows = append(red.rows, row)
				red.b = append(red.b, bv)
			}
		}
		off += c.Dim
	}

	// Free variables that appear in no cone are either unbounded or
	// irrelevant; irrelevant ones are pinned at zero.
	var keep []int
	for i, j := range red.free {
		if used[i] {
			keep = append(keep, i)
			continue
		}
		if red.q[i] != 0 {
			return nil, fmt.Errorf("%w: x[%d] appears in no cone", ErrUnbounded, j)
		}
		fixed[j] = 0
	}
	if len(keep) < len(red.free) {
		remap := make([]int, len(red.free))
		for i := range remap {
			remap[i] = -1
		}
		free := make([]int, len(keep))
		q := make([]float64, len(keep))
		for k, i := range keep {
			remap[i] = k
			free[k] = red.free[i]
			q[k] = red.q[i]
		}
		for _, row := range red.rows {
			for k := range row {
				row[k].col = remap[row[k].col]
			}
		}
		red.free, red.q = free, q
	}
	return red, nil
}

// expand writes the free values xf into a full-length vector.
func (r *reduced) expand(xf []float64) []float64 {
	x := make([]float64, r.n)
	copy(x, r.fixed)
	for i, j := range r.free {
		x[j] = xf[i]
	}
	return x
}
