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
		Use:   "quill",
		Short: "Reactive chat client runtime for Go",
		Long: `Quill is a reactive chat client runtime.

It bundles the component model, the state store, and the websocket
session manager behind a single module, plus a development chat
server so the whole stack runs locally:

  • Template-driven components with lifecycle events
  • Persistent application state with change propagation
  • Reconnect-aware chat socket with history paging
  • Self-contained dev server speaking the full chat protocol`,
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
