package main

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/statekit/pkg/statekit"
)

func notifyCmd() *cobra.Command {
	var (
		listeners int
		passes    int
		churn     bool
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Benchmark notification fan-out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listeners <= 0 || passes <= 0 {
				return fmt.Errorf("listeners and passes must be positive")
			}
			return runNotifyBench(listeners, passes, churn)
		},
	}

	cmd.Flags().IntVarP(&listeners, "listeners", "l", 100, "registered listeners")
	cmd.Flags().IntVarP(&passes, "passes", "p", 10000, "notification passes to sample")
	cmd.Flags().BoolVar(&churn, "churn", false, "unsubscribe and resubscribe one listener between passes")
	return cmd
}

func runNotifyBench(listeners, passes int, churn bool) error {
	n := statekit.NewNotifier(statekit.WithLabel("bench"))

	delivered := 0
	handles := make([]*statekit.Listener, listeners)
	for i := range handles {
		handles[i] = statekit.NewListener(func() { delivered++ })
		if err := n.Subscribe(handles[i]); err != nil {
			return err
		}
	}

	samples := make([]time.Duration, 0, passes)
	start := time.Now()
	for i := 0; i < passes; i++ {
		if churn {
			// Keeps the membership index dirty so each pass pays one
			// rebuild, the worst case for large fan-out.
			n.Unsubscribe(handles[i%listeners])
			n.Subscribe(handles[i%listeners])
		}
		t0 := time.Now()
		if err := n.NotifyListeners(); err != nil {
			return err
		}
		samples = append(samples, time.Since(t0))
	}
	elapsed := time.Since(start)

	fmt.Printf("notify: %d listeners, %d passes, churn=%v\n", listeners, passes, churn)
	fmt.Printf("  delivered:  %d callbacks\n", delivered)
	fmt.Printf("  total:      %s (%.0f passes/s)\n", elapsed.Round(time.Millisecond),
		float64(passes)/elapsed.Seconds())
	printLatency(samples)
	return nil
}

func printLatency(samples []time.Duration) {
	if len(samples) == 0 {
		fmt.Println("  no samples recorded")
		return
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	fmt.Println("  pass latency:")
	fmt.Printf("    min: %s\n", sorted[0])
	fmt.Printf("    p50: %s\n", percentile(sorted, 0.50))
	fmt.Printf("    p95: %s\n", percentile(sorted, 0.95))
	fmt.Printf("    p99: %s\n", percentile(sorted, 0.99))
	fmt.Printf("    max: %s\n", sorted[len(sorted)-1])
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
