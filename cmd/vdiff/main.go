package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vdiff/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vdiff",
		Short: "Reconcile virtual node trees into delta streams",
		Long: `vdiff diffs virtual node trees and streams the resulting deltas
to remote surfaces.

  • serve   host the demo counter over a websocket
  • diff    print the deltas between two tree files`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		diffCmd(),
		versionCmd(),
	)
	return rootCmd
}
