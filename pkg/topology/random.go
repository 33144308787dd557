package topology

import (
	"math/rand/v2"

	"github.com/matzehuels/flamecast/pkg/layered"
)

// buildRandom assigns sources to drains uniformly among drains with spare
// capacity, then packs every layer bottom-up by random first-fit.
func buildRandom(p *Problem, rng *rand.Rand) *layered.Graph {
	drainCap := p.Capacities[p.DrainLayer()]
	buckets := make([][]int, len(p.Drains))
	open := make([]int, len(p.Drains))
	for i := range open {
		open[i] = i
	}
	for _, s := range rng.Perm(len(p.Sources)) {
		k := rng.IntN(len(open))
		d := open[k]
		buckets[d] = append(buckets[d], s)
		if len(buckets[d]) == drainCap {
			open[k] = open[len(open)-1]
			open = open[:len(open)-1]
		}
	}

	ecap := p.effectiveCapacities()
	g := newSkeleton(p)
	for d, bucket := range buckets {
		level := make([]*subtree, len(bucket))
		for i, s := range bucket {
			level[i] = leaf(s)
		}
		for l := 1; l < p.DrainLayer(); l++ {
			level = packRandom(level, ecap[l], rng)
		}
		for _, t := range level {
			emit(g, t, p.DrainLayer()-1, d)
		}
	}
	return g
}

// packRandom shuffles items and groups them first-fit into parents whose
// summed flow stays within capacity.
func packRandom(items []*subtree, capacity int, rng *rand.Rand) []*subtree {
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	var parents []*subtree
	var load []int
	for _, it := range items {
		f := it.flow()
		placed := false
		for k := range parents {
			if load[k]+f <= capacity {
				parents[k].children = append(parents[k].children, it)
				load[k] += f
				placed = true
				break
			}
		}
		if !placed {
			parents = append(parents, &subtree{children: []*subtree{it}})
			load = append(load, f)
		}
	}
	return parents
}
