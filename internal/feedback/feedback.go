// Package feedback implements FeedbackTracker (spec.md §4.4): a bounded
// list of PendingAction awaiting delayed observation, and the Observe pass
// that turns aged-out entries into FeedbackRecord values once W ticks have
// elapsed.
//
// Grounded on budget.SessionTracker's active-map / register-complete shape,
// generalized from a wall-clock duration to a tick-count age and from a
// single map to a capped FIFO list (oldest pending is dropped first once
// the cap is hit, mirroring the cadence of EventQueue's drop-on-full rule).
package feedback

import (
	"sync"
	"time"

	"github.com/vthunder/life/internal/types"
)

// DefaultMaxPending and DefaultMaxWaitTicks are the spec.md §4.4 defaults.
const (
	DefaultMaxPending   = 256
	DefaultMaxWaitTicks = 10
	DefaultWaitTicks    = 3 // W, the typical observation delay
)

// Tracker holds the ordered list of actions awaiting delayed feedback.
type Tracker struct {
	mu           sync.Mutex
	pending      []types.PendingAction
	maxPending   int
	maxWaitTicks uint64
	waitTicks    uint64

	droppedStale int
	warnf        func(format string, args ...any)
}

// Option configures a Tracker at construction.
type Option func(*Tracker)

// WithMaxWaitTicks overrides the observation delay W (default
// DefaultWaitTicks) and the hard drop ceiling (default DefaultMaxWaitTicks).
func WithMaxWaitTicks(wait, maxWait uint64) Option {
	return func(t *Tracker) {
		t.waitTicks = wait
		t.maxWaitTicks = maxWait
	}
}

// WithWarnFunc installs a one-line warning sink for silently-dropped stale
// pending actions (spec.md §4.4 failure semantics).
func WithWarnFunc(f func(format string, args ...any)) Option {
	return func(t *Tracker) { t.warnf = f }
}

// New constructs a Tracker with the given capacity (DefaultMaxPending if <= 0).
func New(maxPending int, opts ...Option) *Tracker {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	t := &Tracker{
		maxPending:   maxPending,
		maxWaitTicks: DefaultMaxWaitTicks,
		waitTicks:    DefaultWaitTicks,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register appends a newly executed action to the pending list, dropping
// the oldest entry if the list is already at capacity (spec.md §4.4
// "register: append; drop oldest if over cap").
func (t *Tracker) Register(actionID string, pattern types.Pattern, stateBefore types.Scalars, tick uint64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = append(t.pending, types.PendingAction{
		ActionID:     actionID,
		Pattern:      pattern,
		StateBefore:  stateBefore,
		RegisterTick: tick,
		RegisterTime: now,
	})

	if len(t.pending) > t.maxPending {
		t.pending = t.pending[len(t.pending)-t.maxPending:]
	}
}

// MemorySource is the minimal read view Observe needs to locate the events
// associated with a pending action's observation window (spec.md §4.4
// "locate associated events in memory by timestamp window"). *memorystore.
// Store satisfies this directly.
type MemorySource interface {
	Entries() []types.MemoryEntry
}

// Observe scans the pending list for actions whose age (in ticks) is at
// least the configured wait, computes state_delta against the current
// scalars, and emits a FeedbackRecord for each. Actions older than
// maxWaitTicks without being observed are dropped silently, logging a
// one-line warning if a warn func was configured (spec.md §4.4 failure
// semantics). mem, if non-nil, is scanned for entries timestamped within
// [register_time, now] to populate AssociatedEvents; a nil mem yields no
// associated events.
func (t *Tracker) Observe(currentTick uint64, current types.Scalars, now time.Time, mem MemorySource) []types.FeedbackRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return nil
	}

	var records []types.FeedbackRecord
	kept := t.pending[:0]
	for _, p := range t.pending {
		age := currentTick - p.RegisterTick
		switch {
		case age > t.maxWaitTicks:
			t.droppedStale++
			if t.warnf != nil {
				t.warnf("feedback: dropping stale pending action %s after %d ticks unobserved", p.ActionID, age)
			}
		case age >= t.waitTicks:
			records = append(records, types.FeedbackRecord{
				ActionID:         p.ActionID,
				ActionPattern:    p.Pattern,
				StateDelta:       current.Sub(p.StateBefore),
				DelayTicks:       age,
				AssociatedEvents: associatedEvents(mem, p.RegisterTime, now),
				Timestamp:        now,
			})
		default:
			kept = append(kept, p)
		}
	}
	t.pending = kept
	return records
}

// associatedEvents scans mem for entries timestamped within
// [registerTime, now], returning their dedup signatures as the stable
// identifier for each (spec.md §4.4).
func associatedEvents(mem MemorySource, registerTime, now time.Time) []string {
	if mem == nil {
		return nil
	}
	var ids []string
	for _, e := range mem.Entries() {
		if e.Timestamp.Before(registerTime) || e.Timestamp.After(now) {
			continue
		}
		if e.Signature != "" {
			ids = append(ids, e.Signature)
		}
	}
	return ids
}

// Pending returns a copy of the current pending list, for snapshotting.
func (t *Tracker) Pending() []types.PendingAction {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.PendingAction, len(t.pending))
	copy(out, t.pending)
	return out
}

// Restore replaces the pending list wholesale. SnapshotStore does not persist
// pending actions, so nothing in this module restores them after a restart.
func (t *Tracker) Restore(pending []types.PendingAction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = pending
}

// DroppedStaleCount returns the cumulative count of pending actions dropped
// for exceeding maxWaitTicks without observation.
func (t *Tracker) DroppedStaleCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.droppedStale
}
