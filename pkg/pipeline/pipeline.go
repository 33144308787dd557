// Package pipeline runs complete Flamecast solves for the CLI and the HTTP
// server.
//
// A solve validates an instance, builds the initial topology, anneals it and
// returns the final embedding together with the annealing log. By
// centralizing this logic, every entry point shares the same defaults,
// caching and run bookkeeping.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	result, err := runner.Solve(ctx, pipeline.Options{
//	    Instance: inst,
//	    Seed:     7,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Cost)
//
// Results are cached by the content hash of the instance together with the
// initial constructor, the seed and the annealing options. A second solve
// with identical inputs returns the cached log without annealing.
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flamecast/pkg/anneal"
	"github.com/matzehuels/flamecast/pkg/embed"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/instance"
	"github.com/matzehuels/flamecast/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultInitial is the default initial-topology constructor.
	DefaultInitial = topology.Matching

	// MaxAPIIterations bounds max_iterations for requests served over HTTP.
	MaxAPIIterations = 5000
)

// =============================================================================
// Options - Solve Configuration
// =============================================================================

// Options contains all configuration for one solve.
// This struct supports JSON serialization for API requests.
type Options struct {
	Instance *instance.Instance       `json:"instance"`
	Initial  topology.InitialSolution `json:"initial_solution"`
	Seed     uint64                   `json:"seed,omitempty"`
	Anneal   *anneal.Options          `json:"anneal,omitempty"`
	Refresh  bool                     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger      *log.Logger            `json:"-"`
	OnIteration func(anneal.Iteration) `json:"-"`

	problem   *topology.Problem
	validated bool
}

// Result contains the outputs of a solve.
type Result struct {
	RunID        string
	Solution     embed.GraphEmbedding
	Cost         float64
	Log          *anneal.Logger
	InstanceHash string
	CacheKey     string
	CacheHit     bool
	Stats        Stats
}

// Stats contains solve statistics.
type Stats struct {
	Sources    int
	Vertices   int
	Accepted   int
	Iterations int
	BuildTime  time.Duration
	SolveTime  time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Instance == nil {
		return fcerrors.New(fcerrors.ErrCodeInvalidInput, "instance is required")
	}
	p, err := o.Instance.Problem()
	if err != nil {
		return err
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Anneal == nil {
		d := anneal.DefaultOptions()
		o.Anneal = &d
	}
	if err := o.Anneal.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.problem = p
	o.validated = true
	return nil
}

// ValidateForAPI additionally bounds the work a single HTTP request may ask
// for.
func (o *Options) ValidateForAPI() error {
	if err := o.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.Anneal.MaxIterations > MaxAPIIterations {
		return fcerrors.New(fcerrors.ErrCodeInvalidOptions,
			"max_iterations %d exceeds the API limit of %d", o.Anneal.MaxIterations, MaxAPIIterations)
	}
	return nil
}

// Problem returns the validated problem. It is nil before
// ValidateAndSetDefaults succeeds.
func (o *Options) Problem() *topology.Problem { return o.problem }

// canonicalAnneal is the stable JSON form of the annealing options used in
// cache keys.
func (o *Options) canonicalAnneal() string {
	data, _ := json.Marshal(o.Anneal)
	return string(data)
}
