// Package adaptation implements AdaptationManager (spec.md §4.7): the same
// bounded, passive cadence as LearningEngine, but operating on
// SelfState.adaptation_params.behavior_thresholds, driven by how often each
// event type appears in the trailing memory window rather than by
// significance trend. behavior_sensitivity and behavior_coefficients are not
// changed, and the distribution of chosen patterns is not consulted. It
// never "seeks" a particular frequency, only reflects the one it observes.
//
// Grounded on the same metacog.PatternDetector windowed-statistics shape as
// internal/learning, applied to MemoryStore.Stats' Frequency field instead
// of a raw significance series.
package adaptation

import (
	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/memorystore"
	"github.com/vthunder/life/internal/selfstate"
)

// DefaultCadence is A from spec.md §4.9 (AdaptationManager cadence).
const DefaultCadence = 75

// DefaultWindow is H, the number of trailing memory entries inspected.
const DefaultWindow = 200

// MaxAdaptationDelta bounds a single invocation's change to any one
// parameter (spec.md §4.7's own-bound analog of MAX_PARAMETER_DELTA).
const MaxAdaptationDelta = 0.01

// MinAdaptationDelta is the floor below which an invocation skips rather
// than applies a negligible nudge.
const MinAdaptationDelta = 0.001

// HighFrequencyRatio / LowFrequencyRatio gate whether behavior_thresholds
// for a type move up (too frequent, raise the bar) or down (rare, lower it).
const (
	HighFrequencyRatio = 0.6
	LowFrequencyRatio  = 0.1
)

// Engine runs the periodic adaptation pass over a fixed vocabulary of event
// types.
type Engine struct {
	Vocabulary []event.Type
	Window     int
}

// New returns an Engine with the given vocabulary and DefaultWindow.
func New(vocabulary []event.Type) *Engine {
	return &Engine{Vocabulary: vocabulary, Window: DefaultWindow}
}

// Run executes one adaptation pass: for each event type it inspects the
// windowed statistics and nudges behavior_thresholds toward the observed
// response frequency — raising the bar for types that trigger a response
// too often, lowering it for types that rarely do (spec.md §4.7). It never
// touches energy/stability/integrity, and never targets a specific
// distribution of patterns.
func (e *Engine) Run(state *selfstate.SelfState, store *memorystore.Store) {
	params := state.AdaptationParams()
	learning := state.LearningParams()
	changed := false

	for _, t := range e.Vocabulary {
		stats := store.Stats(t, e.Window)
		if stats.Frequency < 4 {
			continue
		}

		ratio := float64(stats.Frequency) / float64(e.Window)
		if ratio > 1 {
			ratio = 1
		}

		current := selfstate.ThresholdOrDefault(params, learning, t)
		var delta float64
		switch {
		case ratio > HighFrequencyRatio:
			delta = boundedDelta(ratio - HighFrequencyRatio)
		case ratio < LowFrequencyRatio:
			delta = -boundedDelta(LowFrequencyRatio - ratio)
		}
		if delta != 0 {
			params.BehaviorThresholds[t] = current + delta
			changed = true
		}
	}

	if changed {
		state.SetAdaptationParams(params)
	}
}

func boundedDelta(mag float64) float64 {
	if mag < 0 {
		mag = -mag
	}
	if mag < MinAdaptationDelta {
		return 0
	}
	if mag > MaxAdaptationDelta {
		mag = MaxAdaptationDelta
	}
	return mag
}
