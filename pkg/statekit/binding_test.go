package statekit

import (
	"errors"
	"strings"
	"testing"
)

func TestWatchFiresOnlyOnChange(t *testing.T) {
	n := NewNotifier()
	value := "a"

	var seen []string
	w, err := Watch(n, func() string { return value }, func(v string) {
		seen = append(seen, v)
	})
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer w.Close()

	if len(seen) != 0 {
		t.Fatal("the seeding read must not fire onChange")
	}

	// Notification without a change: equality gate holds.
	n.NotifyListeners()
	if len(seen) != 0 {
		t.Errorf("unchanged value must not fire, got %v", seen)
	}

	n.Mutate(func() { value = "b" })
	if len(seen) != 1 || seen[0] != "b" {
		t.Errorf("expected one change to %q, got %v", "b", seen)
	}
	if w.Value() != "b" {
		t.Errorf("Value() should track the last access, got %q", w.Value())
	}
}

func TestWatchCustomEquals(t *testing.T) {
	n := NewNotifier()
	value := "go"

	fires := 0
	w, err := Watch(n,
		func() string { return value },
		func(string) { fires++ },
		WatchEquals[string](strings.EqualFold),
	)
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer w.Close()

	// Case-only change is equal under EqualFold.
	n.Mutate(func() { value = "GO" })
	if fires != 0 {
		t.Errorf("case-insensitive equality should suppress the change, got %d", fires)
	}

	n.Mutate(func() { value = "rust" })
	if fires != 1 {
		t.Errorf("expected one real change, got %d", fires)
	}
}

func TestWatchDeepEqualFallback(t *testing.T) {
	n := NewNotifier()
	value := []int{1, 2}

	fires := 0
	w, err := Watch(n, func() []int { return value }, func([]int) { fires++ })
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer w.Close()

	// Fresh slice with identical contents: DeepEqual suppresses it.
	n.Mutate(func() { value = []int{1, 2} })
	if fires != 0 {
		t.Errorf("structurally equal slices should not fire, got %d", fires)
	}

	n.Mutate(func() { value = []int{1, 2, 3} })
	if fires != 1 {
		t.Errorf("expected one change, got %d", fires)
	}
}

func TestWatchClose(t *testing.T) {
	n := NewNotifier()
	value := 0

	fires := 0
	w, err := Watch(n, func() int { return value }, func(int) { fires++ })
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	n.Mutate(func() { value = 7 })
	if fires != 0 {
		t.Errorf("closed watcher must not fire, got %d", fires)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestWatchDisposedSource(t *testing.T) {
	n := NewNotifier()
	n.Dispose()

	_, err := Watch(n, func() int { return 0 }, func(int) {})
	if !errors.Is(err, ErrDisposed) {
		t.Errorf("Watch on a disposed source: want ErrDisposed, got %v", err)
	}
}

func TestWatchBatchedSource(t *testing.T) {
	sched := &stubScheduler{}
	b := NewBatchedNotifier(sched)
	count := 0

	var seen []int
	w, err := Watch[int](b, func() int { return count }, func(v int) {
		seen = append(seen, v)
	})
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer w.Close()

	b.Mutate(func() { count++ })
	b.Mutate(func() { count++ })
	sched.runTurn()

	// One flush, one access: only the final value is observed.
	if len(seen) != 1 || seen[0] != 2 {
		t.Errorf("expected single coalesced observation of 2, got %v", seen)
	}
}
