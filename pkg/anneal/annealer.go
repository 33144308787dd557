package anneal

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flamecast/pkg/embed"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/layered"
	"github.com/matzehuels/flamecast/pkg/neighbor"
	"github.com/matzehuels/flamecast/pkg/stopwatch"
	"github.com/matzehuels/flamecast/pkg/topology"
)

// sharpness is K in the candidate weight exp(K·(1 − cost/current)).
const sharpness = 10.0

// Iteration is reported to the OnIteration hook after every iteration.
type Iteration struct {
	Index       int
	Temperature float64
	Candidates  int
	Neighbor    *neighbor.Neighbor // sampled move; nil when none was possible
	Cost        float64            // committed cost of the sampled move
	Accepted    bool
	Current     float64
	Best        float64
	Vertices    int
	Elapsed     time.Duration
}

// Result is the outcome of [Annealer.Run].
type Result struct {
	Solution embed.GraphEmbedding
	Cost     float64
	Log      *Logger
	State    *SolutionState
}

// Annealer runs simulated annealing on one problem instance. It is not safe
// for concurrent use; independent instances share no state.
type Annealer struct {
	problem *topology.Problem
	initial *layered.Graph
	opts    Options
	rng     *rand.Rand
	logger  *log.Logger

	// OnIteration, when set, is called synchronously after each iteration.
	OnIteration func(Iteration)
}

// New validates the problem, the initial topology and the options. rng is the
// only source of randomness of the run; logger may be nil.
func New(p *topology.Problem, g *layered.Graph, opts Options, rng *rand.Rand, logger *log.Logger) (*Annealer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(p.Capacities, len(p.Sources), len(p.Drains)); err != nil {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeInvalidTopology, err, "initial topology")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Annealer{problem: p, initial: g.Clone(), opts: opts, rng: rng, logger: logger}, nil
}

// Run performs opts.MaxIterations iterations and returns the final embedding
// of the best topology seen. Failures to embed the initial or the final
// topology are fatal. A sampled candidate is embedded with escalating depth
// and rejected only if even the deepest search fails.
func (a *Annealer) Run(ctx context.Context) (*Result, error) {
	p, opts := a.problem, a.opts
	watch := stopwatch.Start()

	g := a.initial.Clone()
	flows := layered.ComputeFlows(g)
	emb, _, err := embed.EmbedWithRetry(ctx, g, flows, p.Alpha, p.Sources, p.Drains, a.embedOptions(opts.NeighborCostOptions))
	if err != nil {
		return nil, newSolveError(StageInitialEmbedding, 0, nil, err)
	}
	cost := embed.Cost(g, flows, emb, p.Alpha)

	state := &SolutionState{
		Initial: embed.GraphEmbedding{Graph: g.Clone(), Embeddings: emb.Clone()},
		Best:    BestIteration{Cost: cost, Iteration: 0},
	}
	record := &Logger{
		InitialSolution:    state.Initial.Clone(),
		InitialCost:        cost,
		MaxIterations:      opts.MaxIterations,
		InitialTemperature: opts.InitialTemperature,
		CoolingSchedule:    opts.CoolingSchedule,
		InitTime:           watch.Lap(),
	}
	a.logger.Info("annealing started", "vertices", g.NumVertices(), "cost", cost, "iterations", opts.MaxIterations)

	searcher := neighbor.NewSearcher(p.Alpha, p.Capacities, p.Sources, p.Drains, a.embedOptions(opts.NeighborTestOptions))
	for i := 1; i <= opts.MaxIterations; i++ {
		it := Iteration{Index: i, Temperature: opts.CoolingSchedule.Temperature(opts.InitialTemperature, i)}

		cands, err := searcher.Search(ctx, g, flows, emb, cost, opts.NeighborSearch, a.rng)
		if err != nil {
			return nil, newSolveError(StageSearch, i, nil, err)
		}
		it.Candidates = len(cands)

		if pick := sample(cands, cost, a.rng); pick >= 0 {
			n := cands[pick].Neighbor
			it.Neighbor = &n
			undo, err := neighbor.Apply(g, flows, p.Capacities, n)
			if err != nil {
				return nil, newSolveError(StageApply, i, &n, err)
			}
			nextFlows := layered.ComputeFlows(g)
			costOpts := a.embedOptions(opts.NeighborCostOptions)
			costOpts.Previous = undo.Embedding(emb)
			nextEmb, depth, err := embed.EmbedWithRetry(ctx, g, nextFlows, p.Alpha, p.Sources, p.Drains, costOpts)
			next := math.Inf(1)
			if err == nil {
				next = embed.Cost(g, nextFlows, nextEmb, p.Alpha)
			} else if ctx.Err() != nil {
				return nil, newSolveError(StageSearch, i, &n, err)
			} else {
				a.logger.Debug("candidate rejected", "iteration", i, "neighbor", n, "depth", depth, "err", err)
			}
			it.Cost = next

			if a.accept(cost, next, it.Temperature) {
				flows, emb, cost = nextFlows, nextEmb, next
				state.Accepted = append(state.Accepted, NeighborChange{Neighbor: n, Cost: cost, Iteration: i})
				if cost < state.Best.Cost {
					state.Best = BestIteration{Cost: cost, Iteration: i}
				}
				it.Accepted = true
			} else {
				undo.Revert(g)
			}
		}

		it.Current, it.Best, it.Vertices = cost, state.Best.Cost, g.NumVertices()
		lap := watch.Lap()
		it.Elapsed = lap.Std()
		record.Iterations = append(record.Iterations, IterationLog{
			TimeNeeded:         lap,
			CurrentCost:        cost,
			CurrentBestCost:    state.Best.Cost,
			CurrentAmountNodes: it.Vertices,
		})
		if opts.Verbose {
			a.logger.Debug("iteration", "i", i, "temperature", it.Temperature, "candidates", it.Candidates,
				"neighbor", it.Neighbor, "accepted", it.Accepted, "cost", cost, "best", state.Best.Cost)
		}
		if a.OnIteration != nil {
			a.OnIteration(it)
		}
	}
	state.Current = embed.GraphEmbedding{Graph: g, Embeddings: emb}

	final, err := a.finalGraph(state)
	if err != nil {
		return nil, err
	}
	finalFlows := layered.ComputeFlows(final)
	finalEmb, _, err := embed.EmbedWithRetry(ctx, final, finalFlows, p.Alpha, p.Sources, p.Drains, a.embedOptions(opts.FinalCostOptions))
	if err != nil {
		return nil, newSolveError(StageFinalEmbedding, state.Best.Iteration, nil, err)
	}
	finalCost := embed.Cost(final, finalFlows, finalEmb, p.Alpha)
	solution := embed.GraphEmbedding{Graph: final, Embeddings: finalEmb}

	record.FinalSolution = solution.Clone()
	record.FinalCost = finalCost
	record.AcceptedNeighbors = state.Accepted
	record.BestIteration = state.Best
	record.TotalTime = watch.Elapsed()
	a.logger.Info("annealing finished",
		"initial", record.InitialCost,
		"final", finalCost,
		"best_iteration", state.Best.Iteration,
		"accepted", len(state.Accepted),
		"elapsed", record.TotalTime)

	return &Result{Solution: solution, Cost: finalCost, Log: record, State: state}, nil
}

// finalGraph rebuilds the best topology, or returns the initial one when no
// iteration improved on it.
func (a *Annealer) finalGraph(state *SolutionState) (*layered.Graph, error) {
	if state.Best.Iteration == 0 {
		return state.Initial.Graph.Clone(), nil
	}
	g, err := state.Replay(a.problem.Capacities, state.Best.Iteration)
	if err != nil {
		return nil, newSolveError(StageReplay, state.Best.Iteration, nil, err)
	}
	return g, nil
}

func (a *Annealer) embedOptions(o embed.Options) embed.Options {
	o.Logger = a.logger
	return o
}

// accept applies the Metropolis rule.
func (a *Annealer) accept(current, next, temperature float64) bool {
	if next < current {
		return true
	}
	if math.IsInf(next, 1) {
		return false
	}
	return a.rng.Float64() < math.Exp(-(next-current)/temperature)
}

// sample draws a candidate index with weight exp(K·(1 − cost/current)). It
// returns -1 when no candidate has positive weight.
func sample(cands []neighbor.Candidate, current float64, rng *rand.Rand) int {
	if len(cands) == 0 {
		return -1
	}
	scale := math.Max(current, 1e-12)
	weights := make([]float64, len(cands))
	total := 0.0
	for i, c := range cands {
		if math.IsInf(c.Cost, 1) || math.IsNaN(c.Cost) {
			continue
		}
		weights[i] = math.Exp(sharpness * (1 - c.Cost/scale))
		total += weights[i]
	}
	if !(total > 0) || math.IsInf(total, 1) {
		return -1
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}
