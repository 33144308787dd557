package instance

import (
	"math"
	"math/rand/v2"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
)

// GenerateOptions describes a random instance.
type GenerateOptions struct {
	NumSources int     `json:"num_sources" toml:"num_sources"`
	NumDrains  int     `json:"num_drains" toml:"num_drains"`
	NumLayers  int     `json:"num_layers" toml:"num_layers"`
	Alpha      float64 `json:"alpha" toml:"alpha"`
	// Capacities defaults to a geometric ramp from 1 on the source layer to
	// ⌈sources/drains⌉ on the drain layer.
	Capacities []int `json:"capacities,omitempty" toml:"capacities"`
}

// DefaultGenerateOptions returns a 50-source, 1-drain, 4-layer instance at
// alpha 0.5.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{NumSources: 50, NumDrains: 1, NumLayers: 4, Alpha: 0.5}
}

// Generate draws terminal coordinates uniformly from the unit square.
func Generate(rng *rand.Rand, opts GenerateOptions) (*Instance, error) {
	if opts.NumSources < 1 || opts.NumDrains < 1 {
		return nil, fcerrors.New(fcerrors.ErrCodeInvalidOptions, "need at least one source and one drain")
	}
	if opts.NumLayers < 2 {
		return nil, fcerrors.New(fcerrors.ErrCodeInvalidOptions, "num_layers must be at least 2, got %d", opts.NumLayers)
	}
	caps := opts.Capacities
	if caps == nil {
		caps = rampCapacities(opts.NumSources, opts.NumDrains, opts.NumLayers)
	}
	layers := make([][]Coord, opts.NumLayers)
	for l := range layers {
		layers[l] = []Coord{}
	}
	for range opts.NumSources {
		layers[0] = append(layers[0], Coord{rng.Float64(), rng.Float64()})
	}
	for range opts.NumDrains {
		layers[opts.NumLayers-1] = append(layers[opts.NumLayers-1], Coord{rng.Float64(), rng.Float64()})
	}
	inst := &Instance{Alpha: opts.Alpha, NumLayers: opts.NumLayers, Capacities: caps, SourcesDrainsEmbeddings: layers}
	if _, err := inst.Problem(); err != nil {
		return nil, err
	}
	return inst, nil
}

func rampCapacities(sources, drains, layers int) []int {
	top := float64((sources + drains - 1) / drains)
	caps := make([]int, layers)
	for l := range caps {
		caps[l] = max(1, int(math.Ceil(math.Pow(top, float64(l)/float64(layers-1))-1e-9)))
	}
	caps[0] = 1
	return caps
}
