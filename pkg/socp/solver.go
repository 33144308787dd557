package socp

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

const (
	pathFactor    = 20.0  // τ growth per centering round
	centeringTol  = 1e-10 // λ²/2 at which a centering round ends
	centeringRel  = 1e-13 // relative exit, scaled by τ·|qᵀx|
	nearCentred   = 0.1   // λ at or below which the gap bound is trusted
	armijo        = 0.01
	backtrack     = 0.5
	maxBacktracks = 80
	pivotFloor    = 1e-14
)

// Solve minimises qᵀx subject to Ax + s = b, s ∈ K. It returns
// ErrNotConverged when settings.MaxIter Newton steps were not enough,
// ErrTimeLimit when settings.TimeLimit elapsed, and a wrapped ctx.Err() on
// cancellation.
func Solve(ctx context.Context, p *Problem, settings Settings) (*Solution, error) {
	start := time.Now()
	settings = settings.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	red, err := presolve(p)
	if err != nil {
		return nil, err
	}
	if len(red.cones) == 0 || len(red.free) == 0 {
		x := red.expand(make([]float64, len(red.free)))
		if err := red.checkPinned(); err != nil {
			return nil, err
		}
		return &Solution{X: x, Objective: floats.Dot(p.Q, x), Elapsed: time.Since(start)}, nil
	}

	b := newBarrier(red)
	x, err := b.start(p.X0)
	if err != nil {
		return nil, err
	}

	var deadline time.Time
	if settings.TimeLimit > 0 {
		deadline = start.Add(settings.TimeLimit)
	}
	nu := float64(2 * len(red.cones))
	iter := 0
	tau := b.initialTau(x)
	finish := func(gap float64) *Solution {
		full := red.expand(x)
		return &Solution{
			X:          full,
			Objective:  floats.Dot(p.Q, full),
			Gap:        gap,
			Iterations: iter,
			Elapsed:    time.Since(start),
		}
	}
	for round := 1; ; round++ {
		var lambda float64
		for {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("socp: %w", err)
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return nil, fmt.Errorf("%w after %d Newton steps", ErrTimeLimit, iter)
			}
			dir, err := b.direction(x, tau)
			if err != nil {
				return nil, err
			}
			lambda = dir.lambda
			if dir.centred {
				break
			}
			// Near the path the bound may already meet the tolerance
			// before the round has fully centred.
			if lambda <= nearCentred {
				obj := floats.Dot(red.q, x) + red.qFix
				if gap := gapBound(nu, tau, lambda); gap <= settings.Tolerance*max(1, math.Abs(obj)) {
					return finish(gap), nil
				}
			}
			if iter >= settings.MaxIter {
				return nil, fmt.Errorf("%w: %d Newton steps, gap bound %.3g", ErrNotConverged, iter, gapBound(nu, tau, lambda))
			}
			centred, err := b.lineSearch(x, tau, dir)
			if err != nil {
				return nil, err
			}
			if centred {
				break
			}
			iter++
		}

		obj := floats.Dot(red.q, x) + red.qFix
		gap := gapBound(nu, tau, lambda)
		if settings.Verbose {
			settings.Logger.Debug("socp centering", "round", round, "newton", iter, "tau", tau, "objective", obj, "gap", gap)
		}
		if gap <= settings.Tolerance*max(1, math.Abs(obj)) {
			return finish(gap), nil
		}
		tau *= pathFactor
	}
}

// gapBound bounds qᵀx − p* at a point whose Newton decrement for the τ
// subproblem is λ < 1. It is ν/τ on the central path.
func gapBound(nu, tau, lambda float64) float64 {
	if lambda >= 1 {
		return math.Inf(1)
	}
	return (nu + lambda*(nu+2*math.Sqrt(nu))/(1-lambda)) / tau
}

// centeringExit is the value of λ²/2 below which a centering round ends.
// Past τ≈1e9 rounding in f = τqᵀx + ψ exceeds centeringTol, so the exit
// scales with τ·|qᵀx|.
func centeringExit(tau, qx float64) float64 {
	return max(centeringTol, centeringRel*tau*math.Abs(qx))
}

// checkPinned verifies that pinned values satisfy every cone when nothing is
// left to optimise.
func (r *reduced) checkPinned() error {
	s := make([]float64, len(r.rows))
	copy(s, r.b)
	for _, c := range r.cones {
		if !inside(s[c.off : c.off+c.dim]) {
			return fmt.Errorf("%w: pinned point violates a cone", ErrInfeasibleStart)
		}
	}
	return nil
}

// barrier carries the per-solve state of the path-following method.
type barrier struct {
	red *reduced
	fac *ldl

	plan []planEntry
	w    []float64 // flattened cone Hessians
	wOff []int

	s, ds, trial []float64
	g, dx, r     []float64
}

// planEntry adds coef·w[wIdx] into entry (col, pos) of the normal matrix.
type planEntry struct {
	col, pos int
	wIdx     int
	coef     float64
}

func newBarrier(red *reduced) *barrier {
	nf := len(red.free)
	adj := make([][]int, nf)
	for _, c := range red.cones {
		cols := coneColumns(red, c)
		for _, a := range cols {
			adj[a] = append(adj[a], cols...)
		}
	}
	sym := analyze(adj)

	b := &barrier{
		red:   red,
		fac:   newLDL(sym),
		wOff:  make([]int, len(red.cones)),
		s:     make([]float64, len(red.rows)),
		ds:    make([]float64, len(red.rows)),
		trial: make([]float64, len(red.rows)),
		g:     make([]float64, nf),
		dx:    make([]float64, nf),
		r:     make([]float64, nf),
	}
	size := 0
	for k, c := range red.cones {
		b.wOff[k] = size
		size += c.dim * c.dim
	}
	b.w = make([]float64, size)

	for k, c := range red.cones {
		for ra := range c.dim {
			for rb := range c.dim {
				wIdx := b.wOff[k] + ra*c.dim + rb
				for _, ea := range red.rows[c.off+ra] {
					for _, eb := range red.rows[c.off+rb] {
						i, j := sym.iperm[ea.col], sym.iperm[eb.col]
						if i < j {
							continue
						}
						col, pos, ok := sym.slot(i, j)
						if !ok {
							panic("socp: normal matrix entry outside symbolic pattern")
						}
						b.plan = append(b.plan, planEntry{col: col, pos: pos, wIdx: wIdx, coef: ea.val * eb.val})
					}
				}
			}
		}
	}
	return b
}

func coneColumns(red *reduced, c coneRange) []int {
	seen := map[int]bool{}
	var cols []int
	for r := c.off; r < c.off+c.dim; r++ {
		for _, e := range red.rows[r] {
			if !seen[e.col] {
				seen[e.col] = true
				cols = append(cols, e.col)
			}
		}
	}
	return cols
}

// start builds a strictly feasible point. Cones that are not strictly
// feasible at x0 are repaired by moving a variable that appears only in the
// cone's leading row.
func (b *barrier) start(x0 []float64) ([]float64, error) {
	red := b.red
	x := make([]float64, len(red.free))
	if x0 != nil {
		for i, j := range red.free {
			x[i] = x0[j]
		}
	}

	occurrences := make([]int, len(red.free))
	for _, row := range red.rows {
		for _, e := range row {
			occurrences[e.col]++
		}
	}

	b.slack(b.s, x)
	for _, c := range red.cones {
		s := b.s[c.off : c.off+c.dim]
		tail := floats.Norm(s[1:], 2)
		if s[0] > tail+1e-8*(1+tail) {
			continue
		}
		lifted := false
		for _, e := range red.rows[c.off] {
			if occurrences[e.col] != 1 || e.val == 0 {
				continue
			}
			// s0 = b0 − Σ a·x; raise s0 to tail+1.
			x[e.col] -= (tail + 1 - s[0]) / e.val
			lifted = true
			break
		}
		if !lifted {
			return nil, fmt.Errorf("%w: cone at row %d", ErrInfeasibleStart, c.off)
		}
	}
	b.slack(b.s, x)
	for _, c := range red.cones {
		if !inside(b.s[c.off : c.off+c.dim]) {
			return nil, fmt.Errorf("%w: cone at row %d", ErrInfeasibleStart, c.off)
		}
	}
	return x, nil
}

// initialTau picks τ minimising ‖τq + ∇ψ‖ in the H⁻¹ norm at x, falling back
// to ν/|qᵀx| when that is not positive.
func (b *barrier) initialTau(x []float64) float64 {
	nu := float64(2 * len(b.red.cones))
	fallback := nu / max(math.Abs(floats.Dot(b.red.q, x)), 1)

	b.slack(b.s, x)
	b.assemble(0)
	if _, err := b.fac.factorize(pivotFloor * max(1, b.fac.maxDiag())); err != nil {
		return fallback
	}
	hq := b.r
	b.fac.solve(hq, b.red.q)
	qHq := floats.Dot(b.red.q, hq)
	if qHq <= 0 {
		return fallback
	}
	tau := -floats.Dot(b.g, hq) / qHq
	if !(tau > 0) || math.IsInf(tau, 0) {
		return fallback
	}
	return tau
}

// slack computes s = b − A·x over the cone rows.
func (b *barrier) slack(s, x []float64) {
	for r, row := range b.red.rows {
		v := b.red.b[r]
		for _, e := range row {
			v -= e.val * x[e.col]
		}
		s[r] = v
	}
}

// assemble fills the barrier gradient b.g (plus τq) and the normal matrix
// from the current slack b.s.
func (b *barrier) assemble(tau float64) {
	red := b.red
	floats.ScaleTo(b.g, tau, red.q)
	for k, c := range red.cones {
		s := b.s[c.off : c.off+c.dim]
		d := s[0]*s[0] - floats.Dot(s[1:], s[1:])
		w := b.w[b.wOff[k] : b.wOff[k]+c.dim*c.dim]
		for i := range c.dim {
			ji := s[i]
			if i > 0 {
				ji = -ji
			}
			for _, e := range red.rows[c.off+i] {
				b.g[e.col] += e.val * 2 * ji / d
			}
			for j := range c.dim {
				jj := s[j]
				if j > 0 {
					jj = -jj
				}
				v := 4 * ji * jj / (d * d)
				if i == j {
					if i == 0 {
						v -= 2 / d
					} else {
						v += 2 / d
					}
				}
				w[i*c.dim+j] = v
			}
		}
	}
	b.fac.reset()
	for _, pe := range b.plan {
		b.fac.add(pe.col, pe.pos, pe.coef*b.w[pe.wIdx])
	}
}

// newtonDir is the Newton direction in b.dx together with its decrement
// λ = √(−gᵀΔx). A centred direction is not worth taking.
type newtonDir struct {
	slope   float64
	lambda  float64
	centred bool
}

// direction computes the Newton direction for τqᵀx + ψ(b − Ax) at x.
func (b *barrier) direction(x []float64, tau float64) (newtonDir, error) {
	b.slack(b.s, x)
	b.assemble(tau)
	if _, err := b.fac.factorize(pivotFloor * max(1, b.fac.maxDiag())); err != nil {
		return newtonDir{}, err
	}

	// dx = −H⁻¹g with one step of iterative refinement.
	floats.ScaleTo(b.r, -1, b.g)
	b.fac.solve(b.dx, b.r)
	b.fac.mulVec(b.r, b.dx)
	floats.Add(b.r, b.g)
	floats.Scale(-1, b.r)
	b.fac.solve(b.r, b.r)
	floats.Add(b.dx, b.r)

	exit := centeringExit(tau, floats.Dot(b.red.q, x))
	slope := floats.Dot(b.g, b.dx)
	if slope >= 0 || math.IsNaN(slope) {
		if -slope <= 2*exit || math.Abs(slope) < 1e-300 {
			return newtonDir{centred: true}, nil
		}
		return newtonDir{}, fmt.Errorf("%w: ascent direction (gᵀΔx = %g)", ErrNumerical, slope)
	}
	return newtonDir{
		slope:   slope,
		lambda:  math.Sqrt(-slope),
		centred: -slope/2 <= exit,
	}, nil
}

// lineSearch takes a damped step along b.dx in place. It reports centred
// when no step decreases f and the point is already near the path.
func (b *barrier) lineSearch(x []float64, tau float64, dir newtonDir) (bool, error) {
	for r, row := range b.red.rows {
		v := 0.0
		for _, e := range row {
			v -= e.val * b.dx[e.col]
		}
		b.ds[r] = v
	}
	qdx := floats.Dot(b.red.q, b.dx)
	alpha := 1.0
	for range maxBacktracks {
		floats.AddScaledTo(b.trial, b.s, alpha, b.ds)
		if df := b.delta(b.trial, alpha, tau*qdx); df <= armijo*alpha*dir.slope {
			floats.AddScaled(x, alpha, b.dx)
			return false, nil
		}
		alpha *= backtrack
	}
	// The decrease is below rounding in f.
	if dir.lambda <= nearCentred {
		return true, nil
	}
	return false, fmt.Errorf("%w: line search stalled (gᵀΔx = %g)", ErrNumerical, dir.slope)
}

// delta evaluates f(x + αΔx) − f(x) for f = τqᵀx + Σ −log(s₀² − ‖s̄‖²),
// given the trial slack and τqᵀΔx. It is +Inf outside the cones.
func (b *barrier) delta(trial []float64, alpha, tauQdx float64) float64 {
	v := alpha * tauQdx
	for _, c := range b.red.cones {
		st := trial[c.off : c.off+c.dim]
		if !inside(st) {
			return math.Inf(1)
		}
		s := b.s[c.off : c.off+c.dim]
		v -= math.Log((st[0]*st[0] - floats.Dot(st[1:], st[1:])) / (s[0]*s[0] - floats.Dot(s[1:], s[1:])))
	}
	return v
}

// inside reports whether s lies in the interior of the second-order cone.
func inside(s []float64) bool {
	if s[0] <= 0 {
		return false
	}
	return s[0]*s[0]-floats.Dot(s[1:], s[1:]) > 0
}
