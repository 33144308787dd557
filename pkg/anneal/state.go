package anneal

import (
	"fmt"

	"github.com/matzehuels/flamecast/pkg/embed"
	"github.com/matzehuels/flamecast/pkg/layered"
	"github.com/matzehuels/flamecast/pkg/neighbor"
)

// NeighborChange records one accepted move.
type NeighborChange struct {
	Neighbor  neighbor.Neighbor `json:"neighbor" yaml:"neighbor"`
	Cost      float64           `json:"cost" yaml:"cost"`
	Iteration int               `json:"iteration" yaml:"iteration"`
}

// BestIteration is the lowest committed cost seen and the iteration that
// produced it; iteration 0 is the initial solution.
type BestIteration struct {
	Cost      float64 `json:"best_cost" yaml:"best_cost"`
	Iteration int     `json:"iteration" yaml:"iteration"`
}

// SolutionState is the replayable history of a run.
type SolutionState struct {
	Initial  embed.GraphEmbedding
	Current  embed.GraphEmbedding
	Accepted []NeighborChange
	Best     BestIteration
}

// Replay applies every accepted move with Iteration ≤ upTo to a copy of the
// initial topology.
func (s *SolutionState) Replay(capacities []int, upTo int) (*layered.Graph, error) {
	g := s.Initial.Graph.Clone()
	for _, c := range s.Accepted {
		if c.Iteration > upTo {
			break
		}
		if _, err := neighbor.Apply(g, layered.ComputeFlows(g), capacities, c.Neighbor); err != nil {
			return nil, fmt.Errorf("replay iteration %d: %w", c.Iteration, err)
		}
	}
	return g, nil
}
