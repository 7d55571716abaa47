// Package cmd defines and implements the CLI commands for the zefbible executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zefbible",
		Short: "Converts online Bible versions to Zefania XML.",
		Long: `zefbible fetches the books, chapters, and verses of a Bible version
from its content provider and serializes them as a Zefania XML document.
Chapters are fetched concurrently with bounded parallelism and retried
on transient failures, so a single flaky request does not sink a run.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./zefbible.yaml)")

	cmd.AddCommand(newConvertCmd())

	return cmd
}

// Execute is the main entry point. It installs signal handling so an
// interrupt cancels in-flight fetches instead of killing the process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
