// Package types holds data-model structs shared across the tick pipeline
// (self-state, meaning, memory, feedback) so that meaning, memorystore,
// feedback, and selfstate can all depend on them without an import cycle —
// mirrors the teacher lineage's own internal/types package, which plays the
// same "shared vocabulary" role for Percept/Thread/Arousal.
package types

import (
	"time"

	"github.com/vthunder/life/internal/event"
)

// Pattern is the closed response-pattern vocabulary from spec.md §3.2.
type Pattern string

const (
	PatternIgnore  Pattern = "ignore"
	PatternAbsorb  Pattern = "absorb"
	PatternDampen  Pattern = "dampen"
	PatternAmplify Pattern = "amplify"
)

// Meaning is the derived, not-stored-standalone interpretation of one Event
// against a SelfState snapshot (spec.md §3.2).
type Meaning struct {
	EventID      string             `json:"event_id"`
	Significance float64            `json:"significance"` // [0,1]
	Impact       map[string]float64 `json:"impact"`        // energy/stability/integrity deltas
	Pattern      Pattern            `json:"pattern"`
}

// FeedbackData is the optional payload a MemoryEntry carries when it
// represents an observed FeedbackRecord rather than a raw event (spec.md
// §3.4).
type FeedbackData struct {
	ActionID         string   `json:"action_id"`
	ActionPattern    Pattern  `json:"action_pattern"`
	StateDelta       Scalars  `json:"state_delta"`
	DelayTicks       uint64   `json:"delay_ticks"`
	AssociatedEvents []string `json:"associated_events,omitempty"`
}

// MemoryEntry is one append-only record in SelfState.Memory (spec.md §3.4).
type MemoryEntry struct {
	EventType            event.Type    `json:"event_type"`
	MeaningSignificance   float64       `json:"meaning_significance"` // [0,1]
	Timestamp             time.Time     `json:"timestamp"`
	Weight                float64       `json:"weight"` // [0,1]
	SubjectiveTimestamp   float64       `json:"subjective_timestamp"`
	Signature             string        `json:"signature,omitempty"` // short blake3 hash, for cheap dedup
	FeedbackData          *FeedbackData `json:"feedback_data,omitempty"`
}

// Scalars is the {energy, stability, integrity} triple used for
// state_before/state_delta snapshots (spec.md §4.3, §4.4).
type Scalars struct {
	Energy    float64 `json:"energy"`
	Stability float64 `json:"stability"`
	Integrity float64 `json:"integrity"`
}

// Sub returns a - b component-wise.
func (a Scalars) Sub(b Scalars) Scalars {
	return Scalars{
		Energy:    a.Energy - b.Energy,
		Stability: a.Stability - b.Stability,
		Integrity: a.Integrity - b.Integrity,
	}
}

// PendingAction is an action awaiting delayed feedback observation (spec.md
// §3.5).
type PendingAction struct {
	ActionID     string    `json:"action_id"`
	Pattern      Pattern   `json:"pattern"`
	StateBefore  Scalars   `json:"state_before"`
	RegisterTick uint64    `json:"register_tick"`
	RegisterTime time.Time `json:"register_time"`
}

// FeedbackRecord is the delayed-observation result the FeedbackTracker
// emits into memory (spec.md §3.5).
type FeedbackRecord struct {
	ActionID         string    `json:"action_id"`
	ActionPattern    Pattern   `json:"action_pattern"`
	StateDelta       Scalars   `json:"state_delta"`
	DelayTicks       uint64    `json:"delay_ticks"`
	AssociatedEvents []string  `json:"associated_events,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
