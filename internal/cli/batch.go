package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flamecast/pkg/instance"
)

// batchJob is one (instance, seed) solve of a batch.
type batchJob struct {
	path string
	inst *instance.Instance
	seed uint64

	initial float64
	final   float64
	cached  bool
	output  string
	err     error
}

func (j *batchJob) improvement() float64 {
	if j.initial <= 0 {
		return 0
	}
	return 100 * (j.initial - j.final) / j.initial
}

// batchCommand creates the batch command for parallel solves.
func (c *CLI) batchCommand() *cobra.Command {
	var flags solveFlags
	var seeds, jobs int
	var outDir string
	var failFast bool

	cmd := &cobra.Command{
		Use:   "batch [instance...]",
		Short: "Solve several instances and seeds in parallel",
		Long: `Batch solves every instance once per seed, running up to --jobs solves at
a time. Seeds start at --seed and count up. Each log is written as
<instance>.seed<N>.log.json.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeInstanceFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := flags.apply(cmd, c.settings().Solve)
			if err != nil {
				return err
			}
			if seeds < 1 {
				return fmt.Errorf("--seeds must be at least 1, got %d", seeds)
			}
			var all []*batchJob
			for _, path := range args {
				inst, err := instance.Load(c.Fs, path)
				if err != nil {
					return err
				}
				for k := range seeds {
					all = append(all, &batchJob{path: path, inst: inst, seed: sc.Seed + uint64(k)})
				}
			}
			return c.runBatch(cmd.Context(), all, sc, &flags, batchSettings{jobs: jobs, outDir: outDir, failFast: failFast})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&seeds, "seeds", 1, "number of seeds per instance")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "maximum concurrent solves")
	cmd.Flags().StringVar(&outDir, "output-dir", "", "directory for log files (default: next to each instance)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop the batch at the first failed solve")

	return cmd
}

type batchSettings struct {
	jobs     int
	outDir   string
	failFast bool
}

func (c *CLI) runBatch(ctx context.Context, all []*batchJob, sc SolveConfig, flags *solveFlags, bs batchSettings) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Solving %d jobs...", len(all)))
	spinner.Start()

	var mu sync.Mutex
	finished := 0

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, bs.jobs))
	for _, job := range all {
		group.Go(func() error {
			opts := sc.pipelineOptions(job.inst, flags.refresh)
			opts.Seed = job.seed
			opts.Logger = logger.With("instance", filepath.Base(job.path), "seed", job.seed)

			result, err := runner.Solve(ctx, opts)
			if err == nil {
				job.initial, job.final, job.cached = result.Log.InitialCost, result.Cost, result.CacheHit
				job.output = batchLogPath(job.path, bs.outDir, job.seed)
				err = instance.SaveLog(c.Fs, job.output, result.Log)
			}
			job.err = err

			mu.Lock()
			finished++
			logger.Debug("batch job finished", "done", finished, "total", len(all), "err", err)
			spinner.SetMessage(fmt.Sprintf("Solving %d jobs (%d done)...", len(all), finished))
			mu.Unlock()

			if err != nil && bs.failFast {
				return fmt.Errorf("%s seed %d: %w", job.path, job.seed, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		spinner.StopWithError("Batch stopped")
		return err
	}
	spinner.Stop()
	prog.done("Batch finished", "jobs", len(all), "workers", bs.jobs)

	fmt.Println(batchTable(all))

	failed := 0
	for _, j := range all {
		if j.err != nil {
			failed++
			printError("%s seed %d: %v", j.path, j.seed, j.err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d solves failed", failed, len(all))
	}
	printSuccess("All %d solves succeeded", len(all))
	return nil
}

func batchLogPath(path, outDir string, seed uint64) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Dir(path)
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, fmt.Sprintf("%s.seed%d.log.json", base, seed))
}

func batchTable(all []*batchJob) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("INSTANCE", "SEED", "INITIAL", "FINAL", "GAIN", "STATUS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
			}
			if col == 5 && all[row].err != nil {
				return lipgloss.NewStyle().Foreground(colorRed).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, j := range all {
		status := "fresh"
		switch {
		case j.err != nil:
			status = "failed"
		case j.cached:
			status = "cached"
		}
		t.Row(
			filepath.Base(j.path),
			fmt.Sprintf("%d", j.seed),
			fmt.Sprintf("%.6f", j.initial),
			fmt.Sprintf("%.6f", j.final),
			fmt.Sprintf("%.1f%%", j.improvement()),
			status,
		)
	}
	return t.Render()
}
