package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flamecast/pkg/anneal"
	"github.com/matzehuels/flamecast/pkg/cache"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/observability"
	"github.com/matzehuels/flamecast/pkg/runstore"
	"github.com/matzehuels/flamecast/pkg/topology"
)

// cacheKeyType labels solve results in cache hooks.
const cacheKeyType = "solve"

// Runner encapsulates solve execution with caching and run bookkeeping.
// Both CLI and API use this to avoid duplicating that logic.
//
// The Runner holds no per-solve state; multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  runstore.Store
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer selects the DefaultKeyer, a nil
// cache disables caching and a nil store keeps runs in memory.
func NewRunner(c cache.Cache, keyer cache.Keyer, store runstore.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if store == nil {
		store = runstore.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Store: store, Logger: logger}
}

// Solve runs one complete solve, serving it from the cache when possible.
func (r *Runner) Solve(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	p := opts.Problem()

	instData, err := json.Marshal(opts.Instance)
	if err != nil {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "hash instance")
	}
	result := &Result{InstanceHash: cache.Hash(instData)}
	result.CacheKey = r.Keyer.SolveKey(result.InstanceHash, cache.SolveKeyOpts{
		Initial: opts.Initial.String(),
		Seed:    opts.Seed,
		Options: opts.canonicalAnneal(),
	})
	result.Stats.Sources = len(p.Sources)

	run := runstore.NewRun()
	run.InstanceHash, run.CacheKey = result.InstanceHash, result.CacheKey
	run.Initial, run.Seed = opts.Initial.String(), opts.Seed
	run.NumSources, run.NumDrains = len(p.Sources), len(p.Drains)
	result.RunID = run.ID
	if err := r.Store.Create(ctx, run); err != nil {
		r.Logger.Warn("record run", "id", run.ID, "err", err)
	}

	err = r.solve(ctx, &opts, result)
	if err == nil {
		run.CacheHit = result.CacheHit
		run.InitialCost, run.FinalCost = result.Log.InitialCost, result.Cost
		run.BestIteration, run.Accepted = result.Log.BestIteration.Iteration, len(result.Log.AcceptedNeighbors)
	}
	run.Finish(err)
	if uerr := r.Store.Update(context.WithoutCancel(ctx), run); uerr != nil {
		r.Logger.Warn("update run", "id", run.ID, "err", uerr)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) solve(ctx context.Context, opts *Options, result *Result) error {
	if !opts.Refresh {
		if l, ok := r.cached(ctx, result.CacheKey); ok {
			observability.Cache().OnCacheHit(ctx, cacheKeyType)
			r.Logger.Info("solve served from cache", "key", result.CacheKey, "cost", l.FinalCost)
			fill(result, l)
			result.CacheHit = true
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
	}

	p := opts.Problem()
	hooks := observability.Solve()
	hooks.OnSolveStart(ctx, len(p.Sources), opts.Anneal.MaxIterations)
	start := time.Now()

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))
	g, err := topology.Build(opts.Initial, p, rng)
	if err != nil {
		hooks.OnSolveComplete(ctx, 0, 0, time.Since(start), err)
		return fmt.Errorf("initial topology: %w", err)
	}
	result.Stats.BuildTime = time.Since(start)
	opts.Logger.Info("built initial topology", "constructor", opts.Initial, "vertices", g.NumVertices(), "duration", result.Stats.BuildTime)

	a, err := anneal.New(p, g, *opts.Anneal, rng, opts.Logger)
	if err != nil {
		hooks.OnSolveComplete(ctx, 0, 0, time.Since(start), err)
		return err
	}
	a.OnIteration = func(it anneal.Iteration) {
		hooks.OnIteration(ctx, it.Accepted, it.Temperature, it.Current, it.Vertices)
		if opts.OnIteration != nil {
			opts.OnIteration(it)
		}
	}
	res, err := a.Run(ctx)
	if err != nil {
		hooks.OnSolveComplete(ctx, 0, 0, time.Since(start), err)
		return err
	}
	hooks.OnSolveComplete(ctx, res.Log.InitialCost, res.Cost, time.Since(start), nil)
	fill(result, res.Log)
	result.Stats.SolveTime = time.Since(start) - result.Stats.BuildTime

	if data, err := json.Marshal(res.Log); err == nil {
		if err := r.Cache.Set(ctx, result.CacheKey, data, cache.TTLSolve); err != nil {
			r.Logger.Warn("cache solve result", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return nil
}

func (r *Runner) cached(ctx context.Context, key string) (*anneal.Logger, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache lookup", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var l anneal.Logger
	if err := json.Unmarshal(data, &l); err != nil {
		r.Logger.Debug("discard undecodable cache entry", "key", key, "err", err)
		return nil, false
	}
	return &l, true
}

func fill(result *Result, l *anneal.Logger) {
	result.Log = l
	result.Solution = l.FinalSolution
	result.Cost = l.FinalCost
	result.Stats.Vertices = l.FinalSolution.Graph.NumVertices()
	result.Stats.Accepted = len(l.AcceptedNeighbors)
	result.Stats.Iterations = len(l.Iterations)
}

// Run returns the stored record of a run.
func (r *Runner) Run(ctx context.Context, id string) (*runstore.Run, error) {
	run, err := r.Store.Get(ctx, id)
	if errors.Is(err, runstore.ErrNotFound) {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeNotFound, err, "run %s", id)
	}
	return run, err
}

// Runs lists stored runs, newest first.
func (r *Runner) Runs(ctx context.Context, opts runstore.ListOptions) ([]*runstore.Run, error) {
	return r.Store.List(ctx, opts)
}

// RunLog returns the annealing log of a successful run from the cache.
func (r *Runner) RunLog(ctx context.Context, id string) (*anneal.Logger, error) {
	run, err := r.Run(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != runstore.StatusSucceeded {
		return nil, fcerrors.New(fcerrors.ErrCodeNotFound, "run %s has no log (status %s)", id, run.Status)
	}
	l, ok := r.cached(ctx, run.CacheKey)
	if !ok {
		return nil, fcerrors.New(fcerrors.ErrCodeNotFound, "log of run %s is no longer cached", id)
	}
	return l, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	return errors.Join(r.Cache.Close(), r.Store.Close())
}
