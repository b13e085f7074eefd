// Package event defines the Event type and its closed-but-extensible type
// vocabulary. Events are immutable once constructed and are consumed exactly
// once by the pipeline in internal/tickruntime.
package event

import "time"

// Type is a short tag drawn from a closed vocabulary, fixed at process
// startup (see Registry). Untagged or unknown values fall back to Unknown.
type Type string

// Known event types from the ~35-tag vocabulary in spec.md §3.1. This list
// is the compiled-in default; config.TableLoader may extend it from a YAML table
// before the registry is sealed at startup (see internal/config).
const (
	TypeNoise        Type = "noise"
	TypeDecay        Type = "decay"
	TypeRecovery     Type = "recovery"
	TypeShock        Type = "shock"
	TypeIdle         Type = "idle"
	TypeMemoryEcho   Type = "memory_echo"
	TypeSocialConn   Type = "social_connection"
	TypeSocialIso    Type = "social_isolation"
	TypeCognitive    Type = "cognitive_load"
	TypeExistential  Type = "existential_doubt"
	TypeSilence      Type = "silence"
	TypeConnection   Type = "connection"
	TypeIsolation    Type = "isolation"
	TypeInsight      Type = "insight"
	TypeConfusion    Type = "confusion"
	TypeCuriosity    Type = "curiosity"
	TypeMeaningFound Type = "meaning_found"
	TypeVoid         Type = "void"
	TypeAcceptance   Type = "acceptance"
	TypeClarity      Type = "clarity"
	TypeUnknown      Type = "unknown"
)

// DefaultVocabulary is the compiled-in closed set. config.TableLoader may widen
// this before Seal is called; after Seal, unrecognized types bucket to
// TypeUnknown with neutral defaults (spec.md §3.1, §9).
var DefaultVocabulary = []Type{
	TypeNoise, TypeDecay, TypeRecovery, TypeShock, TypeIdle, TypeMemoryEcho,
	TypeSocialConn, TypeSocialIso, TypeCognitive, TypeExistential, TypeSilence,
	TypeConnection, TypeIsolation, TypeInsight, TypeConfusion, TypeCuriosity,
	TypeMeaningFound, TypeVoid, TypeAcceptance, TypeClarity,
}

// Event is an externally produced, immutable perturbation. Metadata keys the
// core inspects are limited to detector_generated, is_comfortable,
// silence_duration, clarity_id (spec.md §3.1); all other keys stay on the
// Event only and are not copied into MemoryEntry or FeedbackData.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Intensity float64        `json:"intensity"` // clamped to [-1.0, 1.0] at construction
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// New constructs an Event, clamping intensity into [-1.0, 1.0] and stamping
// the timestamp if the zero value was passed.
func New(id string, t Type, intensity float64, ts time.Time, metadata map[string]any) Event {
	if intensity > 1.0 {
		intensity = 1.0
	} else if intensity < -1.0 {
		intensity = -1.0
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return Event{ID: id, Type: t, Intensity: intensity, Timestamp: ts, Metadata: metadata}
}

// DetectorGenerated reports whether metadata marks this as synthetic
// (produced by SilenceDetector or another internal collaborator).
func (e Event) DetectorGenerated() bool {
	v, _ := e.Metadata["detector_generated"].(bool)
	return v
}

// SilenceDuration reads the silence_duration metadata key, if present.
func (e Event) SilenceDuration() (float64, bool) {
	v, ok := e.Metadata["silence_duration"].(float64)
	return v, ok
}
