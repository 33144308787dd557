// Package geom provides the small amount of planar geometry the optimiser needs:
// points in the unit square, Euclidean distances and weighted geometric medians.
package geom

import (
	"fmt"
	"math"
)

// Point is a position in the plane. Instances keep all sources and drains
// inside [0, 1]², but interior vertices are not clamped.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns s·p.
func (p Point) Scale(s float64) Point { return Point{s * p.X, s * p.Y} }

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 { return math.Hypot(p.X, p.Y) }

// String formats the point as "(x, y)".
func (p Point) String() string { return fmt.Sprintf("(%.6g, %.6g)", p.X, p.Y) }

// Dist returns the Euclidean distance between p and q.
func Dist(p, q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Centroid returns the arithmetic mean of pts. It returns the origin for an
// empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	return c.Scale(1 / float64(len(pts)))
}

// WeightedCentroid returns Σ wᵢpᵢ / Σ wᵢ. Zero total weight falls back to the
// unweighted centroid.
func WeightedCentroid(pts []Point, w []float64) Point {
	var c Point
	total := 0.0
	for i, p := range pts {
		c = c.Add(p.Scale(w[i]))
		total += w[i]
	}
	if total == 0 {
		return Centroid(pts)
	}
	return c.Scale(1 / total)
}
