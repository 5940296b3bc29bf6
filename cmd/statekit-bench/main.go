// Command statekit-bench runs micro-benchmarks against the statekit
// notification core: raw notify fan-out and batched coalescing through a
// loop.
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
		Use:   "statekit-bench",
		Short: "Micro-benchmarks for the statekit notification core",
		Long: `statekit-bench measures the statekit change-notification core:

  notify   fan-out latency of one notification pass across N listeners
  batch    coalescing throughput of batched mutations through a loop

Latency is reported as min/p50/p95/p99/max over the sampled passes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		notifyCmd(),
		batchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("statekit-bench %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
