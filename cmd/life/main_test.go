package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/memorystore"
	"github.com/vthunder/life/internal/selfstate"
	"github.com/vthunder/life/internal/types"
)

// TestRestoreFromSnapshotRoundTrip covers spec.md §8 R1: a state's
// life_id, birth_timestamp, scalars, ticks, memory, and learning_params/
// adaptation_params structures must survive a ToDict -> restoreFromSnapshot
// round trip bit-equal to the saved values, including the cognitive/events
// components (clarity, consciousness, recent events, last step).
func TestRestoreFromSnapshotRoundTrip(t *testing.T) {
	original := selfstate.New()
	original.ApplyDelta(map[string]float64{"energy": -25, "stability": -0.2, "integrity": -0.1})
	original.AdvanceTick(1.5)

	learning := selfstate.NewLearningParams()
	learning.EventTypeSensitivity[event.TypeShock] = 0.7
	learning.SignificanceThreshold[event.TypeNoise] = 0.3
	learning.ResponseCoefficients[types.PatternAbsorb] = 1.2
	original.SetLearningParams(learning)

	adaptation := selfstate.NewAdaptationParams()
	adaptation.BehaviorSensitivity[event.TypeShock] = 0.4
	adaptation.BehaviorThresholds[event.TypeShock] = 0.6
	adaptation.BehaviorCoefficients[types.PatternDampen] = 0.8
	original.SetAdaptationParams(adaptation)

	original.SetClarity(selfstate.ClarityState{On: true, Duration: 3, Modifier: 1.5})
	original.SetConsciousnessLevel(0.42)
	original.PushRecentEvent(event.TypeShock)
	original.PushRecentEvent(event.TypeNoise)
	original.SetLastStep(types.PatternAbsorb, 0.8, 0.9)
	original.SetActivatedMemory([]types.MemoryEntry{
		{EventType: event.TypeShock, MeaningSignificance: 0.8, Timestamp: time.Now(), Weight: 0.8, Signature: "sig-activated"},
	})
	original.AppendMemory(types.MemoryEntry{
		EventType:           event.TypeShock,
		MeaningSignificance: 0.8,
		Timestamp:           time.Now(),
		Weight:              0.8,
		SubjectiveTimestamp: 1.0,
	})

	// Round-trip through JSON, same as snapshotstore.LoadLatest: every
	// number decodes as float64, unlike the live map ToDict returns.
	raw, err := json.Marshal(original.ToDict())
	if err != nil {
		t.Fatalf("marshal snapshot doc: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal snapshot doc: %v", err)
	}

	mem, err := memorystore.New(0, "")
	if err != nil {
		t.Fatalf("memorystore.New: %v", err)
	}
	restored := selfstate.New()
	restoreFromSnapshot(restored, mem, doc)

	if restored.LifeID() != original.LifeID() {
		t.Fatalf("life_id mismatch: got %q want %q", restored.LifeID(), original.LifeID())
	}
	if restored.BirthTimestamp().Unix() != original.BirthTimestamp().Unix() {
		t.Fatalf("birth_timestamp mismatch: got %v want %v", restored.BirthTimestamp(), original.BirthTimestamp())
	}
	if restored.Scalars() != original.Scalars() {
		t.Fatalf("scalars mismatch: got %+v want %+v", restored.Scalars(), original.Scalars())
	}
	if restored.Ticks() != original.Ticks() {
		t.Fatalf("ticks mismatch: got %d want %d", restored.Ticks(), original.Ticks())
	}
	if len(restored.Memory()) != len(original.Memory()) {
		t.Fatalf("memory entry count mismatch: got %d want %d", len(restored.Memory()), len(original.Memory()))
	}

	gotLearning := restored.LearningParams()
	if gotLearning.EventTypeSensitivity[event.TypeShock] != 0.7 {
		t.Fatalf("learning_params.event_type_sensitivity not restored, got %+v", gotLearning.EventTypeSensitivity)
	}
	if gotLearning.SignificanceThreshold[event.TypeNoise] != 0.3 {
		t.Fatalf("learning_params.significance_thresholds not restored, got %+v", gotLearning.SignificanceThreshold)
	}
	if gotLearning.ResponseCoefficients[types.PatternAbsorb] != 1.2 {
		t.Fatalf("learning_params.response_coefficients not restored, got %+v", gotLearning.ResponseCoefficients)
	}

	gotAdaptation := restored.AdaptationParams()
	if gotAdaptation.BehaviorSensitivity[event.TypeShock] != 0.4 {
		t.Fatalf("adaptation_params.behavior_sensitivity not restored, got %+v", gotAdaptation.BehaviorSensitivity)
	}
	if gotAdaptation.BehaviorThresholds[event.TypeShock] != 0.6 {
		t.Fatalf("adaptation_params.behavior_thresholds not restored, got %+v", gotAdaptation.BehaviorThresholds)
	}
	if gotAdaptation.BehaviorCoefficients[types.PatternDampen] != 0.8 {
		t.Fatalf("adaptation_params.behavior_coefficients not restored, got %+v", gotAdaptation.BehaviorCoefficients)
	}

	clarity := restored.Clarity()
	if !clarity.On || clarity.Duration != 3 || clarity.Modifier != 1.5 {
		t.Fatalf("clarity state not restored, got %+v", clarity)
	}
	if restored.ConsciousnessLevel() != 0.42 {
		t.Fatalf("consciousness_level not restored, got %v", restored.ConsciousnessLevel())
	}

	wantRecent := original.RecentEvents()
	gotRecent := restored.RecentEvents()
	if len(gotRecent) != len(wantRecent) {
		t.Fatalf("recent_events length mismatch: got %d want %d", len(gotRecent), len(wantRecent))
	}
	for i := range wantRecent {
		if gotRecent[i] != wantRecent[i] {
			t.Fatalf("recent_events[%d] mismatch: got %v want %v", i, gotRecent[i], wantRecent[i])
		}
	}

	pattern, significance, intensity := restored.LastStep()
	if pattern != types.PatternAbsorb || significance != 0.8 || intensity != 0.9 {
		t.Fatalf("last step not restored, got pattern=%v significance=%v intensity=%v", pattern, significance, intensity)
	}

	if len(restored.ActivatedMemory()) != 1 {
		t.Fatalf("expected 1 activated memory entry restored, got %d", len(restored.ActivatedMemory()))
	}
	if mem.Count() != len(original.Memory()) {
		t.Fatalf("memorystore not restored alongside selfstate, got %d entries want %d", mem.Count(), len(original.Memory()))
	}
}
