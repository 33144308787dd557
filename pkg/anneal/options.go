package anneal

import (
	"time"

	"github.com/matzehuels/flamecast/pkg/embed"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/neighbor"
)

// Options configures one annealing run.
type Options struct {
	CoolingSchedule    CoolingSchedule       `json:"cooling_schedule" toml:"cooling_schedule"`
	InitialTemperature float64               `json:"initial_temperature" toml:"initial_temperature"`
	NeighborSearch     neighbor.SearchOption `json:"neighbor_search_option" toml:"neighbor_search_option"`
	MaxIterations      int                   `json:"max_iterations" toml:"max_iterations"`
	Verbose            bool                  `json:"verbose" toml:"verbose"`

	// NeighborTestOptions is the precision used while ranking candidates.
	NeighborTestOptions embed.Options `json:"neighbor_test_options" toml:"neighbor_test_options"`
	// NeighborCostOptions is the precision of the committed cost of the
	// sampled candidate.
	NeighborCostOptions embed.Options `json:"neighbor_cost_options" toml:"neighbor_cost_options"`
	// FinalCostOptions is the precision of the final embedding.
	FinalCostOptions embed.Options `json:"final_cost_options" toml:"final_cost_options"`
}

// DefaultOptions returns the settings used by the CLI when nothing is
// configured.
func DefaultOptions() Options {
	return Options{
		CoolingSchedule:     CoolingSchedule{Kind: Exponential, Alpha: 0.95},
		InitialTemperature:  0.05,
		NeighborSearch:      neighbor.Heuristical,
		MaxIterations:       200,
		NeighborTestOptions: embed.Options{SearchDepth: embed.Shallow, TimeLimit: 5 * time.Second},
		NeighborCostOptions: embed.Options{SearchDepth: embed.Middle, TimeLimit: 10 * time.Second},
		FinalCostOptions:    embed.Options{SearchDepth: embed.VeryDeep, TimeLimit: 60 * time.Second},
	}
}

// Validate reports the first invalid setting as an INVALID_OPTIONS error.
func (o *Options) Validate() error {
	if err := fcerrors.ValidatePositive("initial_temperature", o.InitialTemperature); err != nil {
		return err
	}
	if o.MaxIterations < 1 {
		return fcerrors.New(fcerrors.ErrCodeInvalidOptions, "max_iterations must be at least 1, got %d", o.MaxIterations)
	}
	if o.NeighborSearch < neighbor.Heuristical || o.NeighborSearch > neighbor.CompleteEmbedding {
		return fcerrors.New(fcerrors.ErrCodeInvalidOptions, "unknown neighbor search option %d", int(o.NeighborSearch))
	}
	for _, p := range []struct {
		name string
		e    embed.Options
	}{
		{"neighbor_test_options", o.NeighborTestOptions},
		{"neighbor_cost_options", o.NeighborCostOptions},
		{"final_cost_options", o.FinalCostOptions},
	} {
		name, e := p.name, p.e
		if e.SearchDepth < embed.Shallow || e.SearchDepth > embed.VeryDeep {
			return fcerrors.New(fcerrors.ErrCodeInvalidOptions, "%s: unknown search depth %d", name, int(e.SearchDepth))
		}
		if e.TimeLimit < 0 {
			return fcerrors.New(fcerrors.ErrCodeInvalidOptions, "%s: negative time limit", name)
		}
	}
	return o.CoolingSchedule.Validate()
}
