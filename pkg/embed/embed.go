package embed

import (
	"context"
	"errors"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/layered"
	"github.com/matzehuels/flamecast/pkg/socp"
)

// Embed places the interior vertices of g so that the cost at exponent alpha
// is minimal. Sources and drains are pinned to the given coordinates and
// flows supplies the edge weights; it need not be derived from g, which lets
// callers embed sub-patches whose leaves stand for whole subtrees.
//
// Failures carry an error code: NOT_CONVERGED when the iteration budget of
// opts.SearchDepth runs out, TIMEOUT when opts.TimeLimit elapses and
// INVALID_TOPOLOGY when the inputs do not describe an embeddable forest.
func Embed(ctx context.Context, g *layered.Graph, flows layered.Flows, alpha float64, sources, drains []geom.Point, opts Options) (VertexEmbeddings, error) {
	if err := checkInputs(g, flows, sources, drains); err != nil {
		return nil, err
	}

	prog := newProgram(g, flows, alpha, sources, drains)
	if opts.Previous.Fits(g) {
		prog.seed(opts.Previous)
	} else {
		prog.seedFromSubtrees()
	}

	sol, err := socp.Solve(ctx, prog.problem(), socp.Settings{
		MaxIter:   opts.SearchDepth.Iterations(),
		TimeLimit: opts.TimeLimit,
		Verbose:   opts.Verbose,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, wrapSolveError(err, g)
	}

	emb := prog.readBack(sol.X)
	logger := opts.logger()
	if opts.PrintEmbeddingInfos {
		logger.Info("embedding solved",
			"vertices", g.NumVertices(),
			"edges", g.NumEdges(),
			"depth", opts.SearchDepth,
			"newton", sol.Iterations,
			"gap", sol.Gap,
			"cost", sol.Objective,
			"elapsed", sol.Elapsed)
	}
	if opts.ShowDiff && opts.Previous.Fits(g) {
		d := Diff(opts.Previous, emb)
		logger.Info("embedding diff", "moved", d.Moved, "max", d.MaxDist, "worst", d.Worst, "mean", d.Mean)
	}
	return emb, nil
}

// EmbedWithRetry calls [Embed] and, while it fails with NOT_CONVERGED or
// TIMEOUT, retries at the next deeper [SearchDepth]. It returns the depth
// that succeeded.
func EmbedWithRetry(ctx context.Context, g *layered.Graph, flows layered.Flows, alpha float64, sources, drains []geom.Point, opts Options) (VertexEmbeddings, SearchDepth, error) {
	for {
		emb, err := Embed(ctx, g, flows, alpha, sources, drains, opts)
		if err == nil {
			return emb, opts.SearchDepth, nil
		}
		if ctx.Err() != nil || (!fcerrors.Is(err, fcerrors.ErrCodeNotConverged) && !fcerrors.Is(err, fcerrors.ErrCodeTimeout)) {
			return nil, opts.SearchDepth, err
		}
		next, ok := opts.SearchDepth.Next()
		if !ok {
			return nil, opts.SearchDepth, err
		}
		opts.logger().Debug("embedding retry", "from", opts.SearchDepth, "to", next, "err", err)
		opts.SearchDepth = next
	}
}

func checkInputs(g *layered.Graph, flows layered.Flows, sources, drains []geom.Point) error {
	if g.NumLayers() < 2 {
		return fcerrors.New(fcerrors.ErrCodeInvalidTopology, "graph has %d layers", g.NumLayers())
	}
	if len(g.Layers[0]) != len(sources) {
		return fcerrors.New(fcerrors.ErrCodeInvalidTopology, "%d sources for %d source vertices", len(sources), len(g.Layers[0]))
	}
	if n := len(g.Layers[g.DrainLayer()]); n != len(drains) {
		return fcerrors.New(fcerrors.ErrCodeInvalidTopology, "%d drains for %d drain vertices", len(drains), n)
	}
	if len(flows) != g.NumLayers() {
		return fcerrors.New(fcerrors.ErrCodeInvalidTopology, "flow table has %d layers, graph %d", len(flows), g.NumLayers())
	}
	for l := 0; l < g.DrainLayer(); l++ {
		if len(flows[l]) != len(g.Layers[l]) {
			return fcerrors.New(fcerrors.ErrCodeInvalidTopology, "flow table layer %d has %d entries, graph %d", l, len(flows[l]), len(g.Layers[l]))
		}
		for i, v := range g.Layers[l] {
			if v.Parent < 0 || v.Parent >= len(g.Layers[l+1]) {
				return fcerrors.New(fcerrors.ErrCodeInvalidTopology, "vertex %v has no parent", layered.ID(l, i))
			}
			if flows[l][i] <= 0 {
				return fcerrors.New(fcerrors.ErrCodeInvalidTopology, "edge from %v carries no flow", layered.ID(l, i))
			}
		}
	}
	return nil
}

func wrapSolveError(err error, g *layered.Graph) error {
	switch {
	case errors.Is(err, socp.ErrNotConverged):
		return fcerrors.Wrap(fcerrors.ErrCodeNotConverged, err, "embedding %d vertices", g.NumVertices())
	case errors.Is(err, socp.ErrTimeLimit):
		return fcerrors.Wrap(fcerrors.ErrCodeTimeout, err, "embedding %d vertices", g.NumVertices())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fcerrors.Wrap(fcerrors.ErrCodeTimeout, err, "embedding cancelled")
	default:
		return fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "embedding %d vertices", g.NumVertices())
	}
}
