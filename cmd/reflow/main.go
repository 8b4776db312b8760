package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reflow",
		Short: "A reactive UI runtime for Go",
		Long: `Reflow is a reactive UI runtime for Go.

Declarative components render virtual trees; a dependency-tracking
runtime re-renders exactly what changed and a keyed reconciler applies
the minimal set of host-tree mutations. The remote host streams those
mutations to a thin client over WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
