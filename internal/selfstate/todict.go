package selfstate

import (
	"fmt"
	"time"
)

// ToDict is the only stable external read contract (spec.md §6.5): it
// returns a structurally consistent document even when an individual
// component's serialization fails, recording {"error": ...} in that slot
// and continuing (spec.md §4.8, §7, §8 P8). It never panics and never
// blocks a concurrent ApplyDelta for longer than the RLock hold.
func (s *SelfState) ToDict() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var warnings []string

	components := map[string]any{
		"identity": safeComponent(&warnings, "identity", func() any {
			return map[string]any{
				"life_id":         s.lifeID,
				"birth_timestamp": s.birthTimestamp.Unix(),
			}
		}),
		"physical": safeComponent(&warnings, "physical", func() any {
			return map[string]any{
				"energy":    s.energy,
				"stability": s.stability,
				"integrity": s.integrity,
				"active":    s.active,
			}
		}),
		"time": safeComponent(&warnings, "time", func() any {
			return map[string]any{
				"ticks":           s.ticks,
				"age":             s.age,
				"subjective_time": s.age,
				"base_rate":       1.0,
			}
		}),
		"memory": safeComponent(&warnings, "memory", func() any {
			entries := make([]map[string]any, len(s.memory))
			for i, m := range s.memory {
				entries[i] = map[string]any{
					"event_type":            m.EventType,
					"meaning_significance":  m.MeaningSignificance,
					"timestamp":             m.Timestamp.Unix(),
					"weight":                m.Weight,
					"subjective_timestamp":  m.SubjectiveTimestamp,
				}
			}
			return map[string]any{"entries": entries, "archive": []any{}}
		}),
		"cognitive": safeComponent(&warnings, "cognitive", func() any {
			return map[string]any{
				"clarity_state":       s.clarityState,
				"clarity_duration":    s.clarityDuration,
				"clarity_modifier":    s.clarityModifier,
				"consciousness_level": s.consciousnessLevel,
				"learning_params":     learningParamsToAny(s.learningParams),
				"adaptation_params":   adaptationParamsToAny(s.adaptationParams),
			}
		}),
		"events": safeComponent(&warnings, "events", func() any {
			return map[string]any{
				"recent_events":         s.recentEvents.Slice(),
				"last_pattern":          s.lastPattern,
				"last_significance":     s.lastSignificance,
				"last_event_intensity":  s.lastEventIntensity,
				"activated_memory":      s.activatedMemory,
			}
		}),
	}

	return map[string]any{
		"metadata": map[string]any{
			"version":        "2.0",
			"component_type": "SelfState",
			"timestamp":      float64(time.Now().UnixNano()) / 1e9,
			"life_id":        s.lifeID,
			"warnings":       warnings,
		},
		"components": components,
		"legacy_fields": map[string]any{
			"subjective_time_base_rate": 1.0,
			"consciousness_level":       s.consciousnessLevel,
		},
	}
}

// safeComponent isolates a single component's serialization: a panic inside
// build() becomes {"error": ...} in that slot rather than aborting the
// whole ToDict call (spec.md §4.8, §8 P8).
func safeComponent(warnings *[]string, name string, build func() any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			*warnings = append(*warnings, fmt.Sprintf("%s: %v", name, r))
			result = map[string]any{"error": fmt.Sprintf("%v", r)}
		}
	}()
	return build()
}

func learningParamsToAny(p LearningParams) map[string]any {
	return map[string]any{
		"event_type_sensitivity":  p.EventTypeSensitivity,
		"significance_thresholds": p.SignificanceThreshold,
		"response_coefficients":   p.ResponseCoefficients,
	}
}

func adaptationParamsToAny(p AdaptationParams) map[string]any {
	return map[string]any{
		"behavior_sensitivity":  p.BehaviorSensitivity,
		"behavior_thresholds":   p.BehaviorThresholds,
		"behavior_coefficients": p.BehaviorCoefficients,
	}
}
