package feedback

import (
	"testing"
	"time"

	"github.com/vthunder/life/internal/types"
)

func TestRegisterAndObserveAfterWaitTicks(t *testing.T) {
	tr := New(DefaultMaxPending, WithMaxWaitTicks(3, 10))
	before := types.Scalars{Energy: 100, Stability: 1, Integrity: 1}
	tr.Register("action_1_absorb_0", types.PatternAbsorb, before, 5, time.Now())

	// Not yet old enough.
	records := tr.Observe(6, before, time.Now(), nil)
	if len(records) != 0 {
		t.Fatalf("expected no records before wait elapsed, got %d", len(records))
	}

	after := types.Scalars{Energy: 90, Stability: 0.9, Integrity: 1}
	records = tr.Observe(8, after, time.Now(), nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 record once wait elapsed, got %d", len(records))
	}
	if records[0].DelayTicks != 3 {
		t.Fatalf("expected delay_ticks 3, got %d", records[0].DelayTicks)
	}
	if records[0].StateDelta.Energy != -10 {
		t.Fatalf("expected energy delta -10, got %v", records[0].StateDelta.Energy)
	}
	if len(tr.Pending()) != 0 {
		t.Fatal("expected pending list to be empty after observation")
	}
}

func TestDropsStaleBeyondMaxWait(t *testing.T) {
	var warned string
	tr := New(DefaultMaxPending, WithMaxWaitTicks(3, 5), WithWarnFunc(func(f string, a ...any) {
		warned = f
	}))
	before := types.Scalars{Energy: 100}
	tr.Register("action_1_ignore_0", types.PatternIgnore, before, 0, time.Now())

	records := tr.Observe(20, before, time.Now(), nil)
	if len(records) != 0 {
		t.Fatalf("expected stale action to be dropped not observed, got %d records", len(records))
	}
	if tr.DroppedStaleCount() != 1 {
		t.Fatalf("expected 1 dropped stale action, got %d", tr.DroppedStaleCount())
	}
	if warned == "" {
		t.Fatal("expected warn func to be invoked")
	}
}

func TestRegisterDropsOldestOverCapacity(t *testing.T) {
	tr := New(2)
	before := types.Scalars{}
	tr.Register("a1", types.PatternAbsorb, before, 0, time.Now())
	tr.Register("a2", types.PatternAbsorb, before, 1, time.Now())
	tr.Register("a3", types.PatternAbsorb, before, 2, time.Now())

	pending := tr.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected pending capped at 2, got %d", len(pending))
	}
	if pending[0].ActionID != "a2" {
		t.Fatalf("expected oldest entry dropped, first remaining is %q", pending[0].ActionID)
	}
}

type fakeMemory struct {
	entries []types.MemoryEntry
}

func (f fakeMemory) Entries() []types.MemoryEntry { return f.entries }

func TestObservePopulatesAssociatedEventsWithinWindow(t *testing.T) {
	tr := New(DefaultMaxPending, WithMaxWaitTicks(3, 10))
	before := types.Scalars{Energy: 100, Stability: 1, Integrity: 1}
	registerTime := time.Now()
	tr.Register("action_1_absorb_0", types.PatternAbsorb, before, 5, registerTime)

	now := registerTime.Add(2 * time.Millisecond)
	mem := fakeMemory{entries: []types.MemoryEntry{
		{EventType: "shock", Timestamp: registerTime.Add(time.Millisecond), Signature: "sig-in-window"},
		{EventType: "noise", Timestamp: registerTime.Add(-time.Hour), Signature: "sig-before-window"},
		{EventType: "idle", Timestamp: now.Add(time.Hour), Signature: "sig-after-window"},
	}}

	records := tr.Observe(8, before, now, mem)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].AssociatedEvents; len(got) != 1 || got[0] != "sig-in-window" {
		t.Fatalf("expected only the in-window signature associated, got %v", got)
	}
}
