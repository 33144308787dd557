package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flamecast/pkg/anneal"
	"github.com/matzehuels/flamecast/pkg/instance"
	"github.com/matzehuels/flamecast/pkg/neighbor"
	"github.com/matzehuels/flamecast/pkg/pipeline"
	"github.com/matzehuels/flamecast/pkg/topology"
)

// solveFlags holds the command-line overrides shared by solve and batch.
// Only flags the user actually set replace the configured values.
type solveFlags struct {
	initial     string  // initial-topology constructor
	seed        uint64  // random seed
	iterations  int     // annealing iterations
	schedule    string  // cooling schedule kind
	alpha       float64 // cooling schedule rate
	temperature float64 // initial temperature
	search      string  // neighbor search option
	noCache     bool    // bypass the result cache
	refresh     bool    // re-solve and overwrite the cached result
}

func (f *solveFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.initial, "initial", "", "initial topology: matching (default), random, low-connectivity")
	flags.Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed")
	flags.IntVarP(&f.iterations, "iterations", "n", 0, "maximum annealing iterations")
	flags.StringVar(&f.schedule, "schedule", "", "cooling schedule: exponential, linear, fast, logarithmic")
	flags.Float64Var(&f.alpha, "alpha", 0, "cooling schedule rate")
	flags.Float64Var(&f.temperature, "temperature", 0, "initial temperature")
	flags.StringVar(&f.search, "search", "", "neighbor search: heuristical, complete_heuristical, complete_embedding")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	flags.BoolVar(&f.refresh, "refresh", false, "ignore cached results and re-solve")
}

// apply overlays the flags the user set on base.
func (f *solveFlags) apply(cmd *cobra.Command, base SolveConfig) (SolveConfig, error) {
	flags := cmd.Flags()
	if flags.Changed("initial") {
		k, err := topology.ParseInitialSolution(f.initial)
		if err != nil {
			return base, err
		}
		base.Initial = k
	}
	if flags.Changed("seed") {
		base.Seed = f.seed
	}
	if flags.Changed("iterations") {
		base.Anneal.MaxIterations = f.iterations
	}
	if flags.Changed("schedule") {
		k, err := anneal.ParseScheduleKind(f.schedule)
		if err != nil {
			return base, err
		}
		base.Anneal.CoolingSchedule.Kind = k
	}
	if flags.Changed("alpha") {
		base.Anneal.CoolingSchedule.Alpha = f.alpha
	}
	if flags.Changed("temperature") {
		base.Anneal.InitialTemperature = f.temperature
	}
	if flags.Changed("search") {
		o, err := neighbor.ParseSearchOption(f.search)
		if err != nil {
			return base, err
		}
		base.Anneal.NeighborSearch = o
	}
	return base, base.Anneal.Validate()
}

// pipelineOptions builds the solve options for one instance.
func (sc SolveConfig) pipelineOptions(inst *instance.Instance, refresh bool) pipeline.Options {
	opts := sc.Anneal
	return pipeline.Options{
		Instance: inst,
		Initial:  sc.Initial,
		Seed:     sc.Seed,
		Anneal:   &opts,
		Refresh:  refresh,
	}
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var flags solveFlags
	var output string
	var tui bool

	cmd := &cobra.Command{
		Use:   "solve [instance]",
		Short: "Anneal a network for an instance file",
		Long: `Solve builds an initial topology for the instance, anneals it and writes
the annealing log (initial and final embedding, per-iteration costs and the
accepted moves) next to the instance.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeInstanceFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := flags.apply(cmd, c.settings().Solve)
			if err != nil {
				return err
			}
			if output == "" {
				output = logPath(args[0])
			}
			return c.runSolve(cmd.Context(), args[0], output, sc, &flags, tui)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "log file (default: <instance>.log.json)")
	cmd.Flags().BoolVar(&tui, "tui", false, "show live annealing progress")

	return cmd
}

func (c *CLI) runSolve(ctx context.Context, path, output string, sc SolveConfig, flags *solveFlags, tui bool) error {
	logger := loggerFromContext(ctx)

	inst, err := instance.Load(c.Fs, path)
	if err != nil {
		return err
	}
	logger.Debug("loaded instance", "path", path, "instance", inst)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := sc.pipelineOptions(inst, flags.refresh)
	opts.Logger = logger

	var result *pipeline.Result
	if tui {
		result, err = solveWithProgress(ctx, runner, opts)
	} else {
		prog := newProgress(logger)
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Annealing %s...", filepath.Base(path)))
		spinner.Start()
		result, err = runner.Solve(ctx, opts)
		spinner.Stop()
		if err == nil {
			prog.done("Annealing finished", "instance", filepath.Base(path), "cached", result.CacheHit)
		}
	}
	if err != nil {
		return err
	}

	if err := instance.SaveLog(c.Fs, output, result.Log); err != nil {
		return err
	}

	printSuccess("Solved %s", path)
	printStats(result.Stats.Vertices, result.Stats.Accepted, result.CacheHit)
	printKeyValue("Initial", formatCost(result.Log.InitialCost))
	printKeyValue("Final", formatCost(result.Cost)+" "+formatImprovement(result.Log.InitialCost, result.Cost))
	printKeyValue("Best iter", fmt.Sprintf("%d", result.Log.BestIteration.Iteration))
	printKeyValue("Run", result.RunID)
	printFile(output)
	return nil
}

// logPath derives the default log file name from the instance path.
func logPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".log.json"
}
