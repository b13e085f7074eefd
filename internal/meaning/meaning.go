// Package meaning implements the pure appraisal function described in
// spec.md §4.2: given an Event and a read-only snapshot of SelfState, it
// produces a Meaning (significance, impact, selected response pattern) with
// no side effects and no internal state of its own. Determinism (R2, R3):
// the same (Event, snapshot) pair always yields the same Meaning.
//
// Grounded on the multi-factor scoring shape of Attention.computeSalience /
// computeAssociation: a base weight, scaled by a handful of bounded
// modifiers, clamped into range, then thresholded into a discrete bucket.
package meaning

import (
	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/selfstate"
	"github.com/vthunder/life/internal/types"
)

// Snapshot is the read-only slice of SelfState the engine needs. Passing a
// narrow struct rather than *SelfState keeps Process pure and testable
// without constructing a full SelfState in every test.
type Snapshot struct {
	Scalars          types.Scalars
	LearningParams   selfstate.LearningParams
	AdaptationParams selfstate.AdaptationParams
	Clarity          selfstate.ClarityState
}

// SnapshotOf extracts a Snapshot from a live SelfState.
func SnapshotOf(s *selfstate.SelfState) Snapshot {
	return Snapshot{
		Scalars:          s.Scalars(),
		LearningParams:   s.LearningParams(),
		AdaptationParams: s.AdaptationParams(),
		Clarity:          s.Clarity(),
	}
}

// Process computes the Meaning of ev given the current self-state snapshot.
// It is a pure function: no field of snap or ev is mutated, no package
// state is written, and the only package state read is the TypeWeight and
// BaseImpact tables.
func Process(ev event.Event, snap Snapshot) types.Meaning {
	significance := appraise(ev, snap)
	impact := computeImpact(ev, significance)
	pattern := selectPattern(significance, ev.Type, snap)
	impact = applyCoefficient(impact, pattern, snap)

	return types.Meaning{
		EventID:      ev.ID,
		Significance: significance,
		Impact:       impact,
		Pattern:      pattern,
	}
}

// appraise implements §4.2 Step A.
func appraise(ev event.Event, snap Snapshot) float64 {
	base := abs(ev.Intensity) * typeWeight(ev.Type)

	s1 := snap.LearningParams.EventTypeSensitivityOrDefault(ev.Type)
	learningModifier := 0.5 + 0.5*s1

	s2 := snap.AdaptationParams.BehaviorSensitivityOrDefault(ev.Type)
	adaptationModifier := 0.5 + 0.5*s2

	modifier := (learningModifier + adaptationModifier) / 2
	if modifier > MaxSignificanceModifier {
		modifier = MaxSignificanceModifier
	}

	significance := base * modifier

	if snap.Scalars.Integrity < LowIntegrityThreshold {
		significance *= LowIntegrityFactor
	}
	if snap.Scalars.Stability < LowStabilityThreshold {
		significance *= LowStabilityFactor
	}

	if snap.Clarity.On {
		clarityModifier := snap.Clarity.Modifier
		if clarityModifier <= 0 {
			clarityModifier = DefaultClarityModifier
		}
		significance *= clarityModifier
	}

	return clamp(significance, 0, 1)
}

// computeImpact implements §4.2 Step B: the fixed base-impact table for the
// event type, scaled by |intensity|·significance.
func computeImpact(ev event.Event, significance float64) map[string]float64 {
	base := baseImpact(ev.Type)
	scale := abs(ev.Intensity) * significance

	out := make(map[string]float64, len(base))
	for k, v := range base {
		out[k] = v * scale
	}
	return out
}

// selectPattern implements §4.2 Step C.
func selectPattern(significance float64, t event.Type, snap Snapshot) types.Pattern {
	threshold := selfstate.ThresholdOrDefault(snap.AdaptationParams, snap.LearningParams, t)
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	switch {
	case significance < threshold:
		return types.PatternIgnore
	case snap.Scalars.Stability > DampenStabilityFloor:
		return types.PatternDampen
	case snap.Scalars.Stability < AmplifyStabilityCeiling:
		return types.PatternAmplify
	default:
		return types.PatternAbsorb
	}
}

// applyCoefficient implements §4.2 Step D: scales the impact map by the
// per-pattern response coefficient. The ignore pattern always yields a
// zero-valued impact regardless of any configured coefficient.
func applyCoefficient(impact map[string]float64, pattern types.Pattern, snap Snapshot) map[string]float64 {
	out := make(map[string]float64, len(impact))
	if pattern == types.PatternIgnore {
		for k := range impact {
			out[k] = 0
		}
		return out
	}

	coeff := selfstate.CoefficientOrDefault(snap.AdaptationParams, snap.LearningParams, pattern)
	for k, v := range impact {
		out[k] = v * coeff
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
