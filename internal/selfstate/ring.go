package selfstate

import "github.com/vthunder/life/internal/event"

// RecentEvents is a bounded ring of the last N event types (spec.md §3.3),
// filled by the tick core and exposed through ToDict; neither the meaning
// engine nor the learning engine reads it.
type RecentEvents struct {
	buf   []event.Type
	cap   int
	start int
	count int
}

// DefaultRecentEventsCap is N≈32 from spec.md §3.3.
const DefaultRecentEventsCap = 32

// NewRecentEvents returns a ring with the given capacity (DefaultRecentEventsCap if <= 0).
func NewRecentEvents(capacity int) *RecentEvents {
	if capacity <= 0 {
		capacity = DefaultRecentEventsCap
	}
	return &RecentEvents{buf: make([]event.Type, capacity), cap: capacity}
}

// Push appends a type, evicting the oldest entry once full.
func (r *RecentEvents) Push(t event.Type) {
	idx := (r.start + r.count) % r.cap
	r.buf[idx] = t
	if r.count < r.cap {
		r.count++
	} else {
		r.start = (r.start + 1) % r.cap
	}
}

// Slice returns the buffered types in insertion order (oldest first).
func (r *RecentEvents) Slice() []event.Type {
	out := make([]event.Type, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%r.cap]
	}
	return out
}

// Len returns the number of buffered entries.
func (r *RecentEvents) Len() int { return r.count }

// Restore replaces the ring's contents wholesale, oldest first, used by
// snapshot restore. Entries beyond the ring's capacity are dropped
// from the front, keeping only the most recent cap of them.
func (r *RecentEvents) Restore(events []event.Type) {
	if len(events) > r.cap {
		events = events[len(events)-r.cap:]
	}
	r.start = 0
	r.count = copy(r.buf, events)
}
