package meaning

import "github.com/vthunder/life/internal/event"

// Impact is a per-scalar base delta table (spec.md §4.2 Step B).
type Impact map[string]float64

// TypeWeight is the fixed significance-appraisal weight table (spec.md §4.2
// Step A). Loadable/overridable via config.TableLoader from YAML; these are the
// compiled-in defaults.
var TypeWeight = map[event.Type]float64{
	event.TypeShock:        1.5,
	event.TypeNoise:        0.5,
	event.TypeIdle:         0.2,
	event.TypeRecovery:     1.0,
	event.TypeDecay:        1.0,
	event.TypeMeaningFound: 1.4,
}

// DefaultTypeWeight is returned for any type absent from TypeWeight.
const DefaultTypeWeight = 1.0

func typeWeight(t event.Type) float64 {
	if w, ok := TypeWeight[t]; ok {
		return w
	}
	return DefaultTypeWeight
}

// BaseImpact is the fixed per-type base delta table (spec.md §4.2 Step B).
// Unknown types produce a zero-value Impact (all channels zero).
var BaseImpact = map[event.Type]Impact{
	event.TypeShock: {
		"energy": -1.5, "stability": -0.10, "integrity": -0.05,
	},
	event.TypeRecovery: {
		"energy": 1.0, "stability": 0.05, "integrity": 0.02,
	},
	event.TypeNoise: {
		"energy": -0.1, "stability": -0.02, "integrity": 0.0,
	},
	event.TypeDecay: {
		"energy": -0.3, "stability": -0.05, "integrity": -0.02,
	},
	event.TypeIdle: {
		"energy": 0.05, "stability": 0.0, "integrity": 0.0,
	},
	event.TypeConnection: {
		"energy": 0.5, "stability": 0.08, "integrity": 0.03,
	},
	event.TypeIsolation: {
		"energy": -0.4, "stability": -0.06, "integrity": -0.02,
	},
	event.TypeMeaningFound: {
		"energy": 0.8, "stability": 0.10, "integrity": 0.06,
	},
	event.TypeVoid: {
		"energy": -0.6, "stability": -0.08, "integrity": -0.04,
	},
}

func baseImpact(t event.Type) Impact {
	if m, ok := BaseImpact[t]; ok {
		return m
	}
	return Impact{}
}

// MaxSignificanceModifier caps the combined learning/adaptation modifier
// (spec.md §4.2 Step A).
const MaxSignificanceModifier = 1.5

// LowIntegrityThreshold / LowStabilityThreshold / DampenStabilityFloor /
// AmplifyStabilityCeiling are the contextual-amplification and
// pattern-selection thresholds from
// spec.md §4.2 Steps A and C.
const (
	LowIntegrityThreshold   = 0.3
	LowIntegrityFactor      = 1.5
	LowStabilityThreshold   = 0.5
	LowStabilityFactor      = 1.2
	DampenStabilityFloor    = 0.8
	AmplifyStabilityCeiling = 0.3
	DefaultThreshold        = 0.1
	DefaultClarityModifier  = 1.5
)
