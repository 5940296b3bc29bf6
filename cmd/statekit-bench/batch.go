package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/statekit/pkg/statekit"
)

func batchCmd() *cobra.Command {
	var (
		windows   int
		mutations int
		listeners int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Benchmark batched mutation coalescing through a loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			if windows <= 0 || mutations <= 0 || listeners <= 0 {
				return fmt.Errorf("windows, mutations, and listeners must be positive")
			}
			return runBatchBench(windows, mutations, listeners)
		},
	}

	cmd.Flags().IntVarP(&windows, "windows", "w", 10000, "synchronous execution windows to dispatch")
	cmd.Flags().IntVarP(&mutations, "mutations", "m", 10, "mutations per window")
	cmd.Flags().IntVarP(&listeners, "listeners", "l", 10, "registered listeners")
	return cmd
}

func runBatchBench(windows, mutations, listeners int) error {
	loop := statekit.NewLoop()
	loop.Start()
	defer loop.Close()

	var (
		b        *statekit.BatchedNotifier
		notifies int
		flushes  int
		state    int
	)
	err := loop.DispatchSync(func() {
		b = statekit.NewBatchedNotifier(loop,
			statekit.WithLabel("bench"),
			statekit.WithFlushHook(func(int) { flushes++ }),
		)
		for i := 0; i < listeners; i++ {
			b.Subscribe(statekit.NewListener(func() { notifies++ }))
		}
	})
	if err != nil {
		return err
	}

	samples := make([]time.Duration, 0, windows)
	start := time.Now()
	for w := 0; w < windows; w++ {
		t0 := time.Now()
		// DispatchSync returns after the deferred flush drains, so the
		// sample covers the whole window: mutations, flush, notify.
		err := loop.DispatchSync(func() {
			for m := 0; m < mutations; m++ {
				b.Mutate(func() { state++ })
			}
		})
		if err != nil {
			return err
		}
		samples = append(samples, time.Since(t0))
	}
	elapsed := time.Since(start)

	total := windows * mutations
	fmt.Printf("batch: %d windows x %d mutations, %d listeners\n", windows, mutations, listeners)
	fmt.Printf("  mutations:  %d applied (state=%d)\n", total, state)
	fmt.Printf("  flushes:    %d (%.1f mutations coalesced per flush)\n", flushes,
		float64(total)/float64(flushes))
	fmt.Printf("  callbacks:  %d listener invocations\n", notifies)
	fmt.Printf("  total:      %s (%.0f windows/s)\n", elapsed.Round(time.Millisecond),
		float64(windows)/elapsed.Seconds())
	printLatency(samples)
	return nil
}
