package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flamecast/pkg/anneal"
	"github.com/matzehuels/flamecast/pkg/instance"
	"github.com/matzehuels/flamecast/pkg/neighbor"
	"github.com/matzehuels/flamecast/pkg/runstore"
	"github.com/matzehuels/flamecast/pkg/topology"
)

// testCLI returns a CLI over an in-memory filesystem whose cache lives
// under /xdg.
func testCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", "/xdg")
	c := New(io.Discard, LogInfo)
	c.Fs = afero.NewMemMapFs()
	return c
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestGenerateSolveRuns(t *testing.T) {
	c := testCLI(t)

	if err := execute(t, c, "generate", "-s", "5", "-l", "3", "--seed", "4", "-o", "inst.yaml"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	inst, err := instance.Load(c.Fs, "inst.yaml")
	if err != nil {
		t.Fatalf("load generated instance: %v", err)
	}
	if got := len(inst.SourcesDrainsEmbeddings[0]); got != 5 {
		t.Errorf("generated %d sources, want 5", got)
	}

	if err := execute(t, c, "solve", "inst.yaml", "-n", "3", "--initial", "random"); err != nil {
		t.Fatalf("solve: %v", err)
	}
	l, err := instance.LoadLog(c.Fs, "inst.log.json")
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if len(l.Iterations) != 3 {
		t.Errorf("log has %d iterations, want 3", len(l.Iterations))
	}
	if l.FinalCost > l.InitialCost+1e-6 {
		t.Errorf("final cost %g exceeds initial %g", l.FinalCost, l.InitialCost)
	}

	store, err := runstore.NewFileStore(c.Fs, filepath.Join("/xdg", appName, runsDir))
	if err != nil {
		t.Fatal(err)
	}
	runs, err := store.List(context.Background(), runstore.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != runstore.StatusSucceeded || runs[0].Initial != "random" {
		t.Fatalf("runs = %+v", runs)
	}

	if err := execute(t, c, "runs"); err != nil {
		t.Errorf("runs: %v", err)
	}
	if err := execute(t, c, "runs", runs[0].ID); err != nil {
		t.Errorf("runs <id>: %v", err)
	}
	if err := execute(t, c, "runs", "missing"); err == nil {
		t.Error("runs missing: expected error")
	}

	// A repeated solve is a cache hit and is recorded as one.
	if err := execute(t, c, "solve", "inst.yaml", "-n", "3", "--initial", "random", "-o", "again.json"); err != nil {
		t.Fatalf("second solve: %v", err)
	}
	runs, _ = store.List(context.Background(), runstore.ListOptions{})
	if len(runs) != 2 || !runs[0].CacheHit {
		t.Errorf("second run should be a cache hit: %+v", runs)
	}

	if err := execute(t, c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	empty, err := afero.IsEmpty(c.Fs, filepath.Join("/xdg", appName, solvesDir))
	if err != nil || !empty {
		t.Errorf("cache dir not empty after clear (err %v)", err)
	}
}

func TestBatch(t *testing.T) {
	c := testCLI(t)
	for _, name := range []string{"a.json", "b.json"} {
		if err := execute(t, c, "generate", "-s", "4", "-l", "3", "-o", name); err != nil {
			t.Fatalf("generate %s: %v", name, err)
		}
	}

	err := execute(t, c, "batch", "a.json", "b.json", "--seeds", "2", "--seed", "10", "-n", "2", "-j", "2", "--output-dir", "out")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, name := range []string{"a.seed10", "a.seed11", "b.seed10", "b.seed11"} {
		if ok, _ := afero.Exists(c.Fs, filepath.Join("out", name+".log.json")); !ok {
			t.Errorf("missing log %s", name)
		}
	}

	if err := execute(t, c, "batch", "a.json", "--seeds", "0"); err == nil {
		t.Error("batch --seeds 0: expected error")
	}
	if err := execute(t, c, "batch", "missing.json"); err == nil {
		t.Error("batch with missing instance: expected error")
	}
}

func TestSolveFlagsApply(t *testing.T) {
	var f solveFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	if err := cmd.ParseFlags([]string{"--initial", "low_connectivity", "--seed", "3", "-n", "12",
		"--schedule", "linear", "--alpha", "0.001", "--temperature", "0.5", "--search", "complete-embedding"}); err != nil {
		t.Fatal(err)
	}

	base := DefaultConfig().Solve
	got, err := f.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Initial != topology.LowConnectivity || got.Seed != 3 || got.Anneal.MaxIterations != 12 {
		t.Errorf("apply = %+v", got)
	}
	if got.Anneal.CoolingSchedule != (anneal.CoolingSchedule{Kind: anneal.Linear, Alpha: 0.001}) {
		t.Errorf("schedule = %v", got.Anneal.CoolingSchedule)
	}
	if got.Anneal.InitialTemperature != 0.5 || got.Anneal.NeighborSearch != neighbor.CompleteEmbedding {
		t.Errorf("anneal = %+v", got.Anneal)
	}
	if base.Anneal.MaxIterations == 12 {
		t.Error("apply modified its input")
	}
}

func TestSolveFlagsKeepConfigWhenUnset(t *testing.T) {
	var f solveFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	base := DefaultConfig().Solve
	base.Seed = 99
	base.Anneal.MaxIterations = 17
	got, err := f.apply(cmd, base)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seed != 99 || got.Anneal.MaxIterations != 17 {
		t.Errorf("unset flags overrode config: %+v", got)
	}
}

func TestSolveFlagsErrors(t *testing.T) {
	tests := [][]string{
		{"--initial", "greedy"},
		{"--schedule", "cubic"},
		{"--search", "everything"},
		{"-n", "0"},
		{"--temperature", "-1"},
	}
	for _, args := range tests {
		var f solveFlags
		cmd := &cobra.Command{Use: "x"}
		f.register(cmd)
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		if _, err := f.apply(cmd, DefaultConfig().Solve); err == nil {
			t.Errorf("apply(%v): expected error", args)
		}
	}
}

func TestLogPaths(t *testing.T) {
	if got := logPath("data/inst.yaml"); got != "data/inst.log.json" {
		t.Errorf("logPath = %q", got)
	}
	if got := batchLogPath("data/inst.json", "", 3); got != filepath.Join("data", "inst.seed3.log.json") {
		t.Errorf("batchLogPath = %q", got)
	}
	if got := batchLogPath("data/inst.json", "out", 3); got != filepath.Join("out", "inst.seed3.log.json") {
		t.Errorf("batchLogPath with dir = %q", got)
	}
}
