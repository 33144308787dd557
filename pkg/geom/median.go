package geom

import "math"

// WeightedDistanceSum returns Σ wᵢ‖x − pᵢ‖.
func WeightedDistanceSum(x Point, pts []Point, w []float64) float64 {
	s := 0.0
	for i, p := range pts {
		s += w[i] * Dist(x, p)
	}
	return s
}

// MedianOptions controls Weiszfeld iteration.
type MedianOptions struct {
	MaxIter   int     // iteration cap (default 1000)
	Tolerance float64 // stop when a step moves less than this (default 1e-12)
}

// WeightedMedian runs Weiszfeld's algorithm from start and returns an
// approximation of the point minimising Σ wᵢ‖x − pᵢ‖.
//
// When an iterate lands on an anchor pᵢ the Vardi–Zhang correction is used:
// the anchor is optimal if the resultant force of the other anchors does not
// exceed wᵢ, otherwise the iterate is pushed off it.
func WeightedMedian(start Point, pts []Point, w []float64, opts MedianOptions) Point {
	if opts.MaxIter <= 0 {
		opts.MaxIter = 1000
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-12
	}
	x := start
	for range opts.MaxIter {
		next, stop := weiszfeldStep(x, pts, w)
		if stop || Dist(next, x) < opts.Tolerance {
			return next
		}
		x = next
	}
	return x
}

const coincide = 1e-14

func weiszfeldStep(x Point, pts []Point, w []float64) (Point, bool) {
	var num Point
	den := 0.0
	var force Point
	anchorW := 0.0
	for i, p := range pts {
		d := Dist(x, p)
		if d < coincide {
			anchorW += w[i]
			continue
		}
		num = num.Add(p.Scale(w[i] / d))
		den += w[i] / d
		force = force.Add(p.Sub(x).Scale(w[i] / d))
	}
	if den == 0 {
		return x, true
	}
	t := num.Scale(1 / den)
	if anchorW == 0 {
		return t, false
	}
	r := force.Norm()
	if r <= anchorW {
		return x, true
	}
	// x sits on an anchor that is not optimal: Vardi–Zhang step.
	eta := math.Min(1, anchorW/r)
	return t.Scale(1 - eta).Add(x.Scale(eta)), false
}
