package topology

import (
	"math/rand/v2"

	"github.com/matzehuels/flamecast/pkg/cluster"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
)

// assignDrains partitions the sources into drain buckets by solving a
// minimum-cost assignment of sources to drain slots. Each drain contributes
// min(capacity, #sources) slots, all at the drain's position.
func assignDrains(p *Problem) ([][]int, error) {
	slots := min(p.Capacities[p.DrainLayer()], len(p.Sources))
	cost := make([][]float64, len(p.Sources))
	for i, s := range p.Sources {
		row := make([]float64, len(p.Drains)*slots)
		for d, dp := range p.Drains {
			dist := geom.Dist(s, dp)
			for k := range slots {
				row[d*slots+k] = dist
			}
		}
		cost[i] = row
	}
	cols, _, err := cluster.Assign(cost)
	if err != nil {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "assign sources to drains")
	}
	buckets := make([][]int, len(p.Drains))
	for s, c := range cols {
		d := c / slots
		buckets[d] = append(buckets[d], s)
	}
	return buckets, nil
}

// buildMatching builds each drain's subtree top-down: at every layer the
// sources below a vertex are clustered into groups no larger than the layer
// capacity, and each group becomes a child vertex.
func buildMatching(p *Problem, rng *rand.Rand) (*layered.Graph, error) {
	buckets, err := assignDrains(p)
	if err != nil {
		return nil, err
	}
	g := newSkeleton(p)
	for d, bucket := range buckets {
		for _, t := range clusterDown(p, bucket, p.DrainLayer()-1, rng) {
			emit(g, t, p.DrainLayer()-1, d)
		}
	}
	return g, nil
}

// clusterDown returns the subtrees rooted in layer l that cover sources.
func clusterDown(p *Problem, sources []int, l int, rng *rand.Rand) []*subtree {
	if l == 0 {
		out := make([]*subtree, len(sources))
		for i, s := range sources {
			out[i] = leaf(s)
		}
		return out
	}
	pts := make([]geom.Point, len(sources))
	for i, s := range sources {
		pts[i] = p.Sources[s]
	}
	groups := cluster.BoundedPartition(pts, p.Capacities[l], rng)
	out := make([]*subtree, 0, len(groups))
	for _, grp := range groups {
		members := make([]int, len(grp))
		for i, j := range grp {
			members[i] = sources[j]
		}
		out = append(out, &subtree{children: clusterDown(p, members, l-1, rng)})
	}
	return out
}

// buildLowConnectivity reuses the matching drain assignment and routes every
// source through its own chain of single-child vertices.
func buildLowConnectivity(p *Problem) (*layered.Graph, error) {
	buckets, err := assignDrains(p)
	if err != nil {
		return nil, err
	}
	g := newSkeleton(p)
	top := p.DrainLayer() - 1
	for d, bucket := range buckets {
		for _, s := range bucket {
			emit(g, chain(leaf(s), 0, top), top, d)
		}
	}
	return g, nil
}
