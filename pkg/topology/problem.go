package topology

import (
	"fmt"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/geom"
)

// Problem is the immutable input of a Flamecast solve.
type Problem struct {
	Alpha      float64      `json:"alpha"`
	NumLayers  int          `json:"num_layers"`
	Capacities []int        `json:"capacities"`
	Sources    []geom.Point `json:"sources"`
	Drains     []geom.Point `json:"drains"`
}

// Validate rejects inputs that admit no valid topology: alpha outside [0, 1],
// fewer than two layers, a capacity vector of the wrong length, capacities
// below one, no sources or drains, coordinates outside the unit square, or
// drains whose combined capacity cannot absorb every source.
func (p *Problem) Validate() error {
	if err := fcerrors.ValidateUnitInterval("alpha", p.Alpha); err != nil {
		return err
	}
	if p.NumLayers < 2 {
		return fcerrors.New(fcerrors.ErrCodeInvalidInput, "num_layers must be at least 2, got %d", p.NumLayers)
	}
	if len(p.Capacities) != p.NumLayers {
		return fcerrors.New(fcerrors.ErrCodeInvalidInput, "capacities has %d entries, want %d", len(p.Capacities), p.NumLayers)
	}
	for l, c := range p.Capacities {
		if c < 1 {
			return fcerrors.New(fcerrors.ErrCodeInvalidInput, "capacity of layer %d must be at least 1, got %d", l, c)
		}
	}
	if len(p.Sources) == 0 {
		return fcerrors.New(fcerrors.ErrCodeInvalidInput, "at least one source is required")
	}
	if len(p.Drains) == 0 {
		return fcerrors.New(fcerrors.ErrCodeInvalidInput, "at least one drain is required")
	}
	for i, s := range p.Sources {
		if err := fcerrors.ValidateUnitSquare(fmt.Sprintf("sources[%d]", i), s.X, s.Y); err != nil {
			return err
		}
	}
	for i, d := range p.Drains {
		if err := fcerrors.ValidateUnitSquare(fmt.Sprintf("drains[%d]", i), d.X, d.Y); err != nil {
			return err
		}
	}
	if total := len(p.Drains) * p.Capacities[p.NumLayers-1]; total < len(p.Sources) {
		return fcerrors.New(fcerrors.ErrCodeInvalidInput,
			"drains can absorb %d sources, instance has %d", total, len(p.Sources))
	}
	return nil
}

// DrainLayer returns the index of the drain layer.
func (p *Problem) DrainLayer() int { return p.NumLayers - 1 }

// effectiveCapacities bounds the flow of each layer by the tightest capacity
// at or above it; flow never decreases on the way to a drain.
func (p *Problem) effectiveCapacities() []int {
	out := make([]int, p.NumLayers)
	bound := p.Capacities[p.NumLayers-1]
	for l := p.NumLayers - 1; l >= 0; l-- {
		bound = min(bound, p.Capacities[l])
		out[l] = bound
	}
	return out
}
