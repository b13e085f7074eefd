package selfstate

import (
	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/types"
)

// LearningParams is the fixed-shape nested record described in spec.md §3.3
// ("dict-typed parameters become nested fixed-shape records"). Absent keys
// in the per-type maps read through their *OrDefault accessor.
type LearningParams struct {
	EventTypeSensitivity  map[event.Type]float64 `json:"event_type_sensitivity"`
	SignificanceThreshold map[event.Type]float64 `json:"significance_thresholds"`
	ResponseCoefficients  map[types.Pattern]float64 `json:"response_coefficients"`
}

// AdaptationParams is the parallel structure for behavior-side parameters.
type AdaptationParams struct {
	BehaviorSensitivity  map[event.Type]float64    `json:"behavior_sensitivity"`
	BehaviorThresholds   map[event.Type]float64    `json:"behavior_thresholds"`
	BehaviorCoefficients map[types.Pattern]float64 `json:"behavior_coefficients"`
}

// DefaultResponseCoefficients per spec.md §4.2 Step D fallback table.
func DefaultResponseCoefficients() map[types.Pattern]float64 {
	return map[types.Pattern]float64{
		types.PatternIgnore:  0.0,
		types.PatternDampen:  0.5,
		types.PatternAbsorb:  1.0,
		types.PatternAmplify: 1.5,
	}
}

// NewLearningParams returns a zero-value-safe LearningParams with empty maps
// (so *OrDefault reads never nil-panic).
func NewLearningParams() LearningParams {
	return LearningParams{
		EventTypeSensitivity:  make(map[event.Type]float64),
		SignificanceThreshold: make(map[event.Type]float64),
		ResponseCoefficients:  DefaultResponseCoefficients(),
	}
}

// NewAdaptationParams returns a zero-value-safe AdaptationParams.
func NewAdaptationParams() AdaptationParams {
	return AdaptationParams{
		BehaviorSensitivity:  make(map[event.Type]float64),
		BehaviorThresholds:   make(map[event.Type]float64),
		BehaviorCoefficients: DefaultResponseCoefficients(),
	}
}

// EventTypeSensitivityOrDefault reads s1 with the spec.md §4.2 default 0.5.
func (p LearningParams) EventTypeSensitivityOrDefault(t event.Type) float64 {
	if v, ok := p.EventTypeSensitivity[t]; ok {
		return v
	}
	return 0.5
}

// BehaviorSensitivityOrDefault mirrors the above on the adaptation side.
func (p AdaptationParams) BehaviorSensitivityOrDefault(t event.Type) float64 {
	if v, ok := p.BehaviorSensitivity[t]; ok {
		return v
	}
	return 0.5
}

// ThresholdOrDefault implements the §4.2 Step C lookup chain:
// adaptation threshold -> learning threshold -> 0.1.
func ThresholdOrDefault(adapt AdaptationParams, learn LearningParams, t event.Type) float64 {
	if v, ok := adapt.BehaviorThresholds[t]; ok {
		return v
	}
	if v, ok := learn.SignificanceThreshold[t]; ok {
		return v
	}
	return 0.1
}

// CoefficientOrDefault implements the §4.2 Step D lookup chain: adaptation
// coefficient -> learning coefficient -> built-in default.
func CoefficientOrDefault(adapt AdaptationParams, learn LearningParams, p types.Pattern) float64 {
	if v, ok := adapt.BehaviorCoefficients[p]; ok {
		return v
	}
	if v, ok := learn.ResponseCoefficients[p]; ok {
		return v
	}
	return DefaultResponseCoefficients()[p]
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
