package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/flamecast/pkg/geom"
)

// DefaultMaxIter bounds Lloyd iterations when callers pass a non-positive cap.
const DefaultMaxIter = 100

// Result is the outcome of a k-means run. Labels[i] is the cluster of
// point i; Centers[c] is the mean of cluster c. Every cluster is non-empty.
type Result struct {
	Labels  []int
	Centers []geom.Point
}

// Groups returns the point indices of each cluster, in label order.
func (r Result) Groups() [][]int {
	out := make([][]int, len(r.Centers))
	for i, c := range r.Labels {
		out[c] = append(out[c], i)
	}
	return out
}

// KMeans clusters pts into k groups. When k >= len(pts) every point gets its
// own cluster. k <= 0 is treated as 1.
func KMeans(pts []geom.Point, k int, rng *rand.Rand, maxIter int) Result {
	n := len(pts)
	if n == 0 {
		return Result{}
	}
	k = max(1, k)
	if k >= n {
		res := Result{Labels: make([]int, n), Centers: make([]geom.Point, n)}
		for i, p := range pts {
			res.Labels[i] = i
			res.Centers[i] = p
		}
		return res
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	centers := seedPlusPlus(pts, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	sizes := make([]int, k)

	for range maxIter {
		changed := false
		for i, p := range pts {
			c := nearest(p, centers)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		repairEmpty(pts, labels, centers, sizes)
		recenter(pts, labels, centers, sizes)
		if !changed {
			break
		}
	}
	return Result{Labels: labels, Centers: centers}
}

// seedPlusPlus picks k initial centres with the k-means++ rule.
func seedPlusPlus(pts []geom.Point, k int, rng *rand.Rand) []geom.Point {
	centers := make([]geom.Point, 0, k)
	centers = append(centers, pts[rng.IntN(len(pts))])
	d2 := make([]float64, len(pts))
	for len(centers) < k {
		total := 0.0
		for i, p := range pts {
			d := geom.Dist(p, centers[nearest(p, centers)])
			d2[i] = d * d
			total += d2[i]
		}
		if total == 0 {
			centers = append(centers, pts[rng.IntN(len(pts))])
			continue
		}
		r := rng.Float64() * total
		pick := len(pts) - 1
		for i, w := range d2 {
			if r < w {
				pick = i
				break
			}
			r -= w
		}
		centers = append(centers, pts[pick])
	}
	return centers
}

func nearest(p geom.Point, centers []geom.Point) int {
	best, bestD := 0, math.Inf(1)
	for c, q := range centers {
		if d := geom.Dist(p, q); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// repairEmpty moves, for every empty cluster, the point farthest from its
// own centre (taken from a cluster with at least two members) into it.
func repairEmpty(pts []geom.Point, labels []int, centers []geom.Point, sizes []int) {
	clear(sizes)
	for _, c := range labels {
		sizes[c]++
	}
	for c := range centers {
		if sizes[c] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, p := range pts {
			if sizes[labels[i]] < 2 {
				continue
			}
			if d := geom.Dist(p, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			continue
		}
		sizes[labels[far]]--
		labels[far] = c
		sizes[c] = 1
		centers[c] = pts[far]
	}
}

func recenter(pts []geom.Point, labels []int, centers []geom.Point, sizes []int) {
	sums := make([]geom.Point, len(centers))
	for i, p := range pts {
		sums[labels[i]] = sums[labels[i]].Add(p)
	}
	for c := range centers {
		if sizes[c] > 0 {
			centers[c] = sums[c].Scale(1 / float64(sizes[c]))
		}
	}
}

// BoundedPartition splits pts into groups of at most maxSize points: k-means
// with k = ⌈n/maxSize⌉ first, then recursive 2-means on any oversized group.
// The returned groups hold indices into pts.
func BoundedPartition(pts []geom.Point, maxSize int, rng *rand.Rand) [][]int {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	return boundedPartition(pts, idx, max(1, maxSize), rng)
}

func boundedPartition(pts []geom.Point, idx []int, maxSize int, rng *rand.Rand) [][]int {
	if len(idx) == 0 {
		return nil
	}
	if len(idx) <= maxSize {
		return [][]int{idx}
	}
	sub := make([]geom.Point, len(idx))
	for i, j := range idx {
		sub[i] = pts[j]
	}
	k := (len(idx) + maxSize - 1) / maxSize
	groups := KMeans(sub, k, rng, 0).Groups()
	if len(groups) == 1 {
		groups = KMeans(sub, 2, rng, 0).Groups()
	}

	var out [][]int
	for _, g := range groups {
		mapped := make([]int, len(g))
		for i, j := range g {
			mapped[i] = idx[j]
		}
		if len(mapped) > maxSize {
			out = append(out, boundedPartition(pts, mapped, maxSize, rng)...)
			continue
		}
		out = append(out, mapped)
	}
	return out
}
