package socp

import (
	"fmt"
	"math"
)

// ldl holds a symmetric positive definite matrix in the permuted lower
// layout of a symbolic analysis together with its LDLᵀ factor.
type ldl struct {
	sym *symbolic

	// Matrix: diagonal hd and below-diagonal values hv aligned with
	// sym.colRows.
	hd []float64
	hv [][]float64

	// Factor: unit lower L (values aligned with sym.colRows) and D.
	d  []float64
	lv [][]float64

	work []float64
	perm []float64
}

func newLDL(sym *symbolic) *ldl {
	f := &ldl{
		sym:  sym,
		hd:   make([]float64, sym.n),
		hv:   make([][]float64, sym.n),
		d:    make([]float64, sym.n),
		lv:   make([][]float64, sym.n),
		work: make([]float64, sym.n),
		perm: make([]float64, sym.n),
	}
	for k, rows := range sym.colRows {
		f.hv[k] = make([]float64, len(rows))
		f.lv[k] = make([]float64, len(rows))
	}
	return f
}

// reset zeroes the matrix before a numeric assembly.
func (f *ldl) reset() {
	clear(f.hd)
	for _, v := range f.hv {
		clear(v)
	}
}

// add accumulates v into the permuted entry located by (col, pos).
func (f *ldl) add(col, pos int, v float64) {
	if pos < 0 {
		f.hd[col] += v
		return
	}
	f.hv[col][pos] += v
}

// factorize computes L and D by left-looking elimination. Pivots smaller
// than delta are raised to delta; the number of raised pivots is returned.
func (f *ldl) factorize(delta float64) (int, error) {
	x := f.work
	regularized := 0
	for k := range f.sym.n {
		rows := f.sym.colRows[k]
		x[k] = f.hd[k]
		for q, r := range rows {
			x[r] = f.hv[k][q]
		}
		for _, ref := range f.sym.rowRefs[k] {
			j, p := ref.col, ref.pos
			lkj := f.lv[j][p] * f.d[j]
			colj := f.sym.colRows[j]
			valj := f.lv[j]
			x[k] -= valj[p] * lkj
			for q := p + 1; q < len(colj); q++ {
				x[colj[q]] -= valj[q] * lkj
			}
		}
		dk := x[k]
		if math.IsNaN(dk) || math.IsInf(dk, 0) {
			return regularized, fmt.Errorf("%w: pivot %d is %v", ErrNumerical, k, dk)
		}
		if dk < delta {
			dk = delta
			regularized++
		}
		f.d[k] = dk
		for q, r := range rows {
			f.lv[k][q] = x[r] / dk
			x[r] = 0
		}
		x[k] = 0
	}
	return regularized, nil
}

// solve overwrites x with the solution of (LDLᵀ)x = b, both in original
// indices. x and b may alias.
func (f *ldl) solve(x, b []float64) {
	y := f.perm
	for k, v := range f.sym.perm {
		y[k] = b[v]
	}
	for j := range f.sym.n {
		yj := y[j]
		if yj == 0 {
			continue
		}
		for q, r := range f.sym.colRows[j] {
			y[r] -= f.lv[j][q] * yj
		}
	}
	for k := range f.sym.n {
		y[k] /= f.d[k]
	}
	for j := f.sym.n - 1; j >= 0; j-- {
		s := y[j]
		for q, r := range f.sym.colRows[j] {
			s -= f.lv[j][q] * y[r]
		}
		y[j] = s
	}
	for k, v := range f.sym.perm {
		x[v] = y[k]
	}
}

// mulVec computes y = H·x for the assembled matrix, original indices.
func (f *ldl) mulVec(y, x []float64) {
	clear(y)
	perm := f.sym.perm
	for j := range f.sym.n {
		vj := perm[j]
		y[vj] += f.hd[j] * x[vj]
		for q, r := range f.sym.colRows[j] {
			h := f.hv[j][q]
			if h == 0 {
				continue
			}
			vr := perm[r]
			y[vr] += h * x[vj]
			y[vj] += h * x[vr]
		}
	}
}

// maxDiag returns the largest diagonal entry of the assembled matrix.
func (f *ldl) maxDiag() float64 {
	m := 0.0
	for _, v := range f.hd {
		m = max(m, v)
	}
	return m
}
