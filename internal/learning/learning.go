// Package learning implements LearningEngine (spec.md §4.6): a bounded,
// passive retuning loop that nudges SelfState.learning_params toward recent
// memory statistics, never mutating health scalars directly and never
// moving any single parameter by more than MaxParameterDelta per
// invocation.
//
// Grounded on metacog.PatternDetector's windowed-statistics/threshold-gated
// retuning shape (MinRepetitions, SuccessRateMin, MaxPatternAge), adapted
// from a discrete occurrence counter to a continuous bounded-delta nudge,
// and on gonum/stat for the windowed mean comparison that detects a trend.
package learning

import (
	"gonum.org/v1/gonum/stat"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/memorystore"
	"github.com/vthunder/life/internal/selfstate"
)

// DefaultCadence is L from spec.md §4.6.
const DefaultCadence = 50

// DefaultWindow is H, the number of trailing memory entries inspected.
const DefaultWindow = 200

// MaxParameterDelta and MinParameterDelta bound a single invocation's
// change to any one parameter (spec.md §4.6 step 3).
const (
	MaxParameterDelta = 0.01
	MinParameterDelta = 0.001
)

// Engine runs the periodic retuning pass over a fixed vocabulary of event
// types (the sealed registry's known types).
type Engine struct {
	Vocabulary []event.Type
	Window     int
}

// New returns an Engine with the given vocabulary and DefaultWindow.
func New(vocabulary []event.Type) *Engine {
	return &Engine{Vocabulary: vocabulary, Window: DefaultWindow}
}

// Run executes one retuning pass: for each event type, it reads the
// windowed significance series from store, compares the mean of its first
// and second halves to detect a trend, and nudges
// learning_params.event_type_sensitivity by a bounded delta in that
// direction (spec.md §4.6 steps 1-4). It never touches energy/stability/
// integrity.
func (e *Engine) Run(state *selfstate.SelfState, store *memorystore.Store) {
	params := state.LearningParams()
	changed := false

	for _, t := range e.Vocabulary {
		series := store.SignificanceSeries(t, e.Window)
		if len(series) < 4 {
			continue // not enough samples to detect a trend
		}

		mid := len(series) / 2
		firstHalf, secondHalf := series[:mid], series[mid:]
		trend := stat.Mean(secondHalf, nil) - stat.Mean(firstHalf, nil)

		current := params.EventTypeSensitivityOrDefault(t)
		delta := boundedDelta(trend)
		if delta == 0 {
			continue
		}
		params.EventTypeSensitivity[t] = current + delta
		changed = true
	}

	if changed {
		state.SetLearningParams(params)
	}
}

// boundedDelta converts a raw trend signal into a delta capped at
// MaxParameterDelta in magnitude, preserving sign, or zero if the trend is
// too small to clear the MinParameterDelta floor (the floor exists to avoid
// thrashing on noise-level trends).
func boundedDelta(trend float64) float64 {
	mag := trend
	sign := 1.0
	if mag < 0 {
		mag = -mag
		sign = -1.0
	}
	if mag < MinParameterDelta {
		return 0
	}
	if mag > MaxParameterDelta {
		mag = MaxParameterDelta
	}
	return sign * mag
}
