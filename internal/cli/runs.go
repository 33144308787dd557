package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flamecast/pkg/runstore"
)

// runsCommand creates the runs command for inspecting recorded solves.
func (c *CLI) runsCommand() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded solve runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("run %s: %w", args[0], err)
				}
				printRun(run)
				return nil
			}

			runs, err := store.List(cmd.Context(), runstore.ListOptions{Status: runstore.Status(status), Limit: limit})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded")
				return nil
			}
			fmt.Println(runsTable(runs))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only runs with this status: running, succeeded, failed")
	cmd.Flags().IntVar(&limit, "limit", runstore.DefaultListLimit, "maximum number of runs")

	return cmd
}

func printRun(run *runstore.Run) {
	printKeyValue("ID", run.ID)
	printKeyValue("Status", string(run.Status))
	printKeyValue("Created", run.CreatedAt.Local().Format(time.DateTime))
	if d := run.Duration(); d > 0 {
		printKeyValue("Duration", d.Round(time.Millisecond).String())
	}
	printKeyValue("Terminals", fmt.Sprintf("%d sources, %d drains", run.NumSources, run.NumDrains))
	printKeyValue("Initial", fmt.Sprintf("%s (seed %d)", run.Initial, run.Seed))
	if run.Status == runstore.StatusSucceeded {
		printKeyValue("Cost", fmt.Sprintf("%s → %s (%s)", formatCost(run.InitialCost), formatCost(run.FinalCost),
			formatImprovement(run.InitialCost, run.FinalCost)))
		printKeyValue("Best iter", fmt.Sprintf("%d", run.BestIteration))
		printKeyValue("Accepted", fmt.Sprintf("%d", run.Accepted))
	}
	if run.Error != "" {
		printKeyValue("Error", run.Error)
	}
	printDetail("cache key %s", run.CacheKey)
}

func runsTable(runs []*runstore.Run) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "CREATED", "STATUS", "SOURCES", "SEED", "FINAL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 2 {
				switch runs[row].Status {
				case runstore.StatusSucceeded:
					return base.Foreground(colorGreen)
				case runstore.StatusFailed:
					return base.Foreground(colorRed)
				}
			}
			return base
		})
	for _, r := range runs {
		final := "-"
		if r.Status == runstore.StatusSucceeded {
			final = fmt.Sprintf("%.6f", r.FinalCost)
		}
		t.Row(
			r.ID[:min(8, len(r.ID))],
			r.CreatedAt.Local().Format(time.DateTime),
			string(r.Status),
			fmt.Sprintf("%d", r.NumSources),
			fmt.Sprintf("%d", r.Seed),
			final,
		)
	}
	return t.Render()
}
