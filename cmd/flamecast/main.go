package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flamecast/internal/cli"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
)

// exitInterrupted is what shells report for a process killed by SIGINT.
const exitInterrupted = 130

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if code := report(os.Stderr, run(ctx)); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	bindVerbose(root, c)
	return root.ExecuteContext(ctx)
}

// bindVerbose adds --verbose to root and applies it to c's logger before any
// subcommand's own pre-run hook.
func bindVerbose(root *cobra.Command, c *cli.CLI) {
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	next := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		} else {
			c.SetLogLevel(cli.LogInfo)
		}
		if next == nil {
			return nil
		}
		return next(cmd, args)
	}
}

// report prints err for a terminal user and returns the process exit code.
// Coded errors show their message and code; cancellation prints nothing.
func report(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	}
	if code := fcerrors.GetCode(err); code != "" {
		fmt.Fprintf(w, "%s (%s)\n", fcerrors.UserMessage(err), code)
	} else {
		fmt.Fprintln(w, err)
	}
	return 1
}
