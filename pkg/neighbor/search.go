package neighbor

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/matzehuels/flamecast/pkg/embed"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
)

// SearchOption selects how candidates are enumerated and costed.
type SearchOption int

const (
	// Heuristical enumerates around random centres and ranks with the
	// [Estimator].
	Heuristical SearchOption = iota
	// CompleteHeuristical enumerates every move and ranks with the
	// [Estimator].
	CompleteHeuristical
	// CompleteEmbedding enumerates every move and costs each one by a full
	// re-embedding.
	CompleteEmbedding
)

var searchNames = [...]string{"heuristical", "complete_heuristical", "complete_embedding"}

func (o SearchOption) String() string {
	if o < Heuristical || o > CompleteEmbedding {
		return fmt.Sprintf("SearchOption(%d)", int(o))
	}
	return searchNames[o]
}

// ParseSearchOption accepts the names printed by String, with "-" and "_"
// treated alike.
func ParseSearchOption(s string) (SearchOption, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if i := slices.Index(searchNames[:], norm); i >= 0 {
		return SearchOption(i), nil
	}
	return Heuristical, fmt.Errorf("unknown neighbor search option %q", s)
}

func (o SearchOption) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *SearchOption) UnmarshalText(b []byte) error {
	v, err := ParseSearchOption(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Candidate is a possible move and its (estimated or exact) resulting cost.
type Candidate struct {
	Neighbor Neighbor
	Cost     float64
}

// Searcher produces costed candidates for one problem instance.
type Searcher struct {
	Alpha      float64
	Capacities []int
	Sources    []geom.Point
	Drains     []geom.Point

	// TestOptions is the embedding precision used to cost candidates.
	TestOptions embed.Options

	estimator *Estimator
}

// NewSearcher returns a searcher whose estimator and exact costing both
// embed with testOpts.
func NewSearcher(alpha float64, capacities []int, sources, drains []geom.Point, testOpts embed.Options) *Searcher {
	return &Searcher{
		Alpha:       alpha,
		Capacities:  capacities,
		Sources:     sources,
		Drains:      drains,
		TestOptions: testOpts,
		estimator:   NewEstimator(alpha, testOpts),
	}
}

// Search enumerates candidates on g according to opt and costs each one.
// g is left unchanged. Candidates whose embedding fails cost +Inf.
func (s *Searcher) Search(ctx context.Context, g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, current float64, opt SearchOption, rng *rand.Rand) ([]Candidate, error) {
	mode := ModeHeuristical
	if opt != Heuristical {
		mode = ModeComplete
	}
	moves := Enumerate(g, flows, emb, s.Capacities, mode, rng)
	out := make([]Candidate, 0, len(moves))
	for _, n := range moves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var cost float64
		if opt == CompleteEmbedding {
			c, err := s.Exact(ctx, g, flows, emb, n)
			if err != nil {
				return nil, err
			}
			cost = c
		} else {
			cost = s.estimator.Estimate(ctx, g, flows, emb, current, n)
		}
		out = append(out, Candidate{Neighbor: n, Cost: cost})
	}
	return out, nil
}

// Exact applies n, re-embeds the whole graph with the test precision,
// reverts n and returns the resulting cost. Embedding failures yield +Inf;
// only an impossible move is an error.
func (s *Searcher) Exact(ctx context.Context, g *layered.Graph, flows layered.Flows, emb embed.VertexEmbeddings, n Neighbor) (float64, error) {
	undo, err := Apply(g, flows, s.Capacities, n)
	if err != nil {
		return 0, err
	}
	defer undo.Revert(g)

	after := layered.ComputeFlows(g)
	opts := s.TestOptions
	opts.Previous = undo.Embedding(emb)
	e, err := embed.Embed(ctx, g, after, s.Alpha, s.Sources, s.Drains, opts)
	if err != nil {
		return math.Inf(1), nil
	}
	return embed.Cost(g, after, e, s.Alpha), nil
}
