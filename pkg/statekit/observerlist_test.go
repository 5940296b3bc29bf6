package statekit

import "testing"

func TestObserverListEmpty(t *testing.T) {
	l := NewObserverList[*Listener]()

	if l.Len() != 0 {
		t.Errorf("expected empty list, got len %d", l.Len())
	}
	if l.Contains(NewListener(nil)) {
		t.Error("empty list should not contain anything")
	}
	if l.Remove(NewListener(nil)) {
		t.Error("removing from empty list should report false")
	}
}

func TestObserverListThresholdBoundary(t *testing.T) {
	// Crossing length 3 switches Contains from linear scan to the index.
	a := NewListener(nil)
	b := NewListener(nil)
	c := NewListener(nil)

	l := NewObserverList[*Listener]()
	l.Add(a)
	l.Add(b)
	l.Add(c)

	if !l.Contains(b) {
		t.Error("expected b present at threshold length")
	}
	if !l.Remove(b) {
		t.Error("expected removal of b to succeed")
	}
	if l.Contains(b) {
		t.Error("b should be gone after removal")
	}
	if !l.Contains(a) || !l.Contains(c) {
		t.Error("a and c should survive removal of b")
	}
}

func TestObserverListDuplicates(t *testing.T) {
	a := NewListener(nil)
	b := NewListener(nil)

	l := NewObserverList[*Listener]()
	l.Add(a)
	l.Add(b)
	l.Add(a)
	l.Add(a)

	if l.Len() != 4 {
		t.Fatalf("expected 4 entries with duplicates, got %d", l.Len())
	}

	// Removing one occurrence keeps membership true.
	if !l.Remove(a) {
		t.Fatal("expected removal to succeed")
	}
	if !l.Contains(a) {
		t.Error("a should still be a member while occurrences remain")
	}
	if l.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", l.Len())
	}

	l.Remove(a)
	l.Remove(a)
	if l.Contains(a) {
		t.Error("a should be gone after removing every occurrence")
	}
	if !l.Contains(b) {
		t.Error("b should be untouched")
	}
}

func TestObserverListIdentityNotStructural(t *testing.T) {
	fn := func() {}
	a := NewListener(fn)
	b := NewListener(fn) // same function, distinct handle

	l := NewObserverList[*Listener]()
	l.Add(a)

	if l.Contains(b) {
		t.Error("membership must compare handle identity, not the wrapped function")
	}
	if l.Remove(b) {
		t.Error("removing a distinct handle must not remove a")
	}
	if !l.Contains(a) {
		t.Error("a should still be present")
	}
}

func TestObserverListIndexRebuildAfterMutation(t *testing.T) {
	l := NewObserverList[*Listener]()

	items := make([]*Listener, 6)
	for i := range items {
		items[i] = NewListener(nil)
		l.Add(items[i])
	}

	// Force an index build, then mutate, then query again: the stale
	// index must be rebuilt, not consulted.
	if !l.Contains(items[0]) {
		t.Fatal("expected member present")
	}
	l.Remove(items[0])
	if l.Contains(items[0]) {
		t.Error("stale index answered membership after removal")
	}

	late := NewListener(nil)
	l.Add(late)
	if !l.Contains(late) {
		t.Error("stale index answered membership after add")
	}
}

func TestObserverListShrinkBelowThreshold(t *testing.T) {
	a := NewListener(nil)
	b := NewListener(nil)
	c := NewListener(nil)
	d := NewListener(nil)

	l := NewObserverList[*Listener]()
	for _, it := range []*Listener{a, b, c, d} {
		l.Add(it)
	}
	_ = l.Contains(a) // build the index

	l.Remove(c)
	l.Remove(d)

	// Back under the threshold: answers come from the scan again.
	if !l.Contains(a) || !l.Contains(b) {
		t.Error("members lost after shrinking below threshold")
	}
	if l.Contains(c) || l.Contains(d) {
		t.Error("removed members still reported present")
	}
}

func TestObserverListSnapshotIsolation(t *testing.T) {
	a := NewListener(nil)
	b := NewListener(nil)

	l := NewObserverList[*Listener]()
	l.Add(a)
	l.Add(b)

	snap := l.Snapshot()
	l.Remove(a)

	if len(snap) != 2 || snap[0] != a || snap[1] != b {
		t.Error("snapshot must keep insertion order and survive mutation")
	}
	if l.Len() != 1 {
		t.Errorf("expected live list len 1, got %d", l.Len())
	}
}

func TestObserverListClear(t *testing.T) {
	l := NewObserverList[*Listener]()
	items := make([]*Listener, 5)
	for i := range items {
		items[i] = NewListener(nil)
		l.Add(items[i])
	}
	_ = l.Contains(items[0])

	l.Clear()
	if l.Len() != 0 {
		t.Errorf("expected empty list after Clear, got %d", l.Len())
	}
	if l.Contains(items[0]) {
		t.Error("cleared list should contain nothing")
	}
}
