// Package selfstate implements the canonical mutable agent record described
// in spec.md §3.3: health scalars, age, ticks, learning/adaptation parameter
// maps, memory, and the clamp-on-write invariants. Ownership discipline
// (spec.md §5): the tick core is the sole mutator; every other reader goes
// through ToDict, which takes an internal read lock and never panics even
// if an individual component's serialization fails (§4.8, §8 P8).
package selfstate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/types"
)

// Bounds for the scalar fields (spec.md §3.3 I1 / §8 P1).
const (
	EnergyMin    = 0.0
	EnergyMax    = 100.0
	StabilityMin = 0.0
	StabilityMax = 1.0
	IntegrityMin = 0.0
	IntegrityMax = 1.0
)

// SelfState is the authoritative mutable record of the agent. All fields
// are read/written only through the methods below, which enforce clamping
// and take the internal mutex; the tick core is the only writer (spec.md §5).
type SelfState struct {
	mu sync.RWMutex

	// Identity — immutable after construction (I3 / P5).
	lifeID         string
	birthTimestamp time.Time

	// Time.
	ticks uint64
	age   float64 // seconds

	// Health scalars (I1 / P1).
	energy    float64
	stability float64
	integrity float64

	// active is never derived from health scalars — immortal weakness
	// (spec.md §3.3, §9, P2). Only SetActive (an explicit operator action)
	// may change it.
	active bool

	memory []types.MemoryEntry

	learningParams   LearningParams
	adaptationParams AdaptationParams

	recentEvents *RecentEvents

	// activatedMemory is the most recent activation-retrieval result (spec.md
	// §4.5 "activated_memory"), set by the tick core each time it processes
	// an event — a context signal consumers of ToDict may inspect, never
	// read by MeaningEngine itself.
	activatedMemory []types.MemoryEntry

	lastPattern        types.Pattern
	lastSignificance   float64
	lastEventIntensity float64

	// Ancillary, opaque-to-the-core scalars (spec.md §3.3, §9 Open Question).
	// While the loop runs, mutated only from within the tick core's
	// per-event pipeline; the only other writer is the driver's snapshot
	// restore before the loop starts (the Open Question's chosen discipline).
	clarityState    bool
	clarityDuration uint64
	clarityModifier float64

	consciousnessLevel float64
}

// New constructs a fresh SelfState for a cold start: a new life_id, the
// current time as birth_timestamp, full health, active=true, and empty
// parameter maps seeded with the library defaults.
func New() *SelfState {
	return &SelfState{
		lifeID:           uuid.NewString(),
		birthTimestamp:   time.Now(),
		energy:           EnergyMax,
		stability:        StabilityMax,
		integrity:        IntegrityMax,
		active:           true,
		learningParams:   NewLearningParams(),
		adaptationParams: NewAdaptationParams(),
		recentEvents:     NewRecentEvents(DefaultRecentEventsCap),
		clarityModifier:  1.0,
	}
}

// --- identity (immutable) ---

func (s *SelfState) LifeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lifeID
}

func (s *SelfState) BirthTimestamp() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.birthTimestamp
}

// --- time ---

// AdvanceTick increments ticks by 1 and age by dt seconds (S0, P4).
func (s *SelfState) AdvanceTick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	if dt > 0 {
		s.age += dt
	}
}

func (s *SelfState) Ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

func (s *SelfState) Age() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.age
}

// --- scalars ---

func (s *SelfState) Scalars() types.Scalars {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Scalars{Energy: s.energy, Stability: s.stability, Integrity: s.integrity}
}

// ApplyDelta adds the given deltas to the health scalars, clamping the
// result into bounds (spec.md §3.3 I1, §4.3 step 2). Unknown map keys are
// ignored; missing keys are treated as zero delta.
func (s *SelfState) ApplyDelta(delta map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyDeltaLocked(delta)
}

func (s *SelfState) applyDeltaLocked(delta map[string]float64) {
	if d, ok := delta["energy"]; ok {
		s.energy = clampFloat(s.energy+d, EnergyMin, EnergyMax)
	}
	if d, ok := delta["stability"]; ok {
		s.stability = clampFloat(s.stability+d, StabilityMin, StabilityMax)
	}
	if d, ok := delta["integrity"]; ok {
		s.integrity = clampFloat(s.integrity+d, IntegrityMin, IntegrityMax)
	}
}

// --- active / immortal weakness (P2) ---

func (s *SelfState) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive is the only way active ever changes. It is an explicit operator
// action, never triggered by health scalars reaching zero (spec.md §9).
func (s *SelfState) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// --- memory ---

// AppendMemory adds an entry, preserving non-decreasing timestamp order
// within a run (I4). Bounded retention/archival is MemoryStore's concern,
// not SelfState's — SelfState just holds whatever MemoryStore leaves it.
func (s *SelfState) AppendMemory(entry types.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = append(s.memory, entry)
}

// Memory returns a copy of the current in-state memory window.
func (s *SelfState) Memory() []types.MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.MemoryEntry, len(s.memory))
	copy(out, s.memory)
	return out
}

// ReplaceMemory swaps the in-state memory window, used by MemoryStore after
// an archival pass and by SnapshotStore on restore.
func (s *SelfState) ReplaceMemory(entries []types.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = entries
}

// --- parameters ---

func (s *SelfState) LearningParams() LearningParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLearningParams(s.learningParams)
}

func (s *SelfState) AdaptationParams() AdaptationParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAdaptationParams(s.adaptationParams)
}

// SetLearningParams replaces the learning parameter map wholesale, clamping
// every value into its declared bound. Exclusive write, used by
// LearningEngine.Run (spec.md §4.6) and by the driver's snapshot restore.
func (s *SelfState) SetLearningParams(p LearningParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range p.EventTypeSensitivity {
		p.EventTypeSensitivity[k] = clampFloat(v, 0, 1)
	}
	for k, v := range p.SignificanceThreshold {
		p.SignificanceThreshold[k] = clampFloat(v, 0, 1)
	}
	for k, v := range p.ResponseCoefficients {
		p.ResponseCoefficients[k] = clampFloat(v, 0, 2)
	}
	s.learningParams = p
}

// SetAdaptationParams is the parallel of SetLearningParams for
// AdaptationManager.Run (spec.md §4.7).
func (s *SelfState) SetAdaptationParams(p AdaptationParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range p.BehaviorSensitivity {
		p.BehaviorSensitivity[k] = clampFloat(v, 0, 1)
	}
	for k, v := range p.BehaviorThresholds {
		p.BehaviorThresholds[k] = clampFloat(v, 0, 1)
	}
	for k, v := range p.BehaviorCoefficients {
		p.BehaviorCoefficients[k] = clampFloat(v, 0, 2)
	}
	s.adaptationParams = p
}

func cloneLearningParams(p LearningParams) LearningParams {
	out := NewLearningParams()
	for k, v := range p.EventTypeSensitivity {
		out.EventTypeSensitivity[k] = v
	}
	for k, v := range p.SignificanceThreshold {
		out.SignificanceThreshold[k] = v
	}
	for k, v := range p.ResponseCoefficients {
		out.ResponseCoefficients[k] = v
	}
	return out
}

func cloneAdaptationParams(p AdaptationParams) AdaptationParams {
	out := NewAdaptationParams()
	for k, v := range p.BehaviorSensitivity {
		out.BehaviorSensitivity[k] = v
	}
	for k, v := range p.BehaviorThresholds {
		out.BehaviorThresholds[k] = v
	}
	for k, v := range p.BehaviorCoefficients {
		out.BehaviorCoefficients[k] = v
	}
	return out
}

// --- recent events / last-step history ---

func (s *SelfState) PushRecentEvent(t event.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentEvents.Push(t)
}

func (s *SelfState) RecentEvents() []event.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentEvents.Slice()
}

func (s *SelfState) SetLastStep(pattern types.Pattern, significance, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPattern = pattern
	s.lastSignificance = significance
	s.lastEventIntensity = intensity
}

func (s *SelfState) LastStep() (pattern types.Pattern, significance, intensity float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPattern, s.lastSignificance, s.lastEventIntensity
}

// SetActivatedMemory records the result of the most recent activation
// retrieval (spec.md §4.9 S2 "state.activated_memory <- activated"). Called
// only from the tick core.
func (s *SelfState) SetActivatedMemory(entries []types.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activatedMemory = entries
}

// ActivatedMemory returns the most recently activated entries.
func (s *SelfState) ActivatedMemory() []types.MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.MemoryEntry, len(s.activatedMemory))
	copy(out, s.activatedMemory)
	return out
}

// --- ancillary / clarity (Open Question discipline: tick-core only) ---

type ClarityState struct {
	On       bool
	Duration uint64
	Modifier float64
}

func (s *SelfState) Clarity() ClarityState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ClarityState{On: s.clarityState, Duration: s.clarityDuration, Modifier: s.clarityModifier}
}

// SetClarity is called from the tick core's per-event pipeline
// (tickruntime.Runtime.applyClarity), per the Open Question resolution in
// spec.md §9, and otherwise only by the driver's snapshot restore before the
// loop starts.
func (s *SelfState) SetClarity(c ClarityState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clarityState = c.On
	s.clarityDuration = c.Duration
	if c.Modifier > 0 {
		s.clarityModifier = c.Modifier
	}
}

func (s *SelfState) ConsciousnessLevel() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consciousnessLevel
}

func (s *SelfState) SetConsciousnessLevel(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consciousnessLevel = clampFloat(v, 0, 1)
}

// RestoreIdentity is used only by the driver's snapshot restore to reinstate the
// immutable identity fields from a prior run; it must never be called once
// the tick core has started ticking on a fresh SelfState.
func (s *SelfState) RestoreIdentity(lifeID string, birth time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lifeID = lifeID
	s.birthTimestamp = birth
}

// RestoreScalarsAndTime reinstates ticks/age/scalars from a snapshot.
func (s *SelfState) RestoreScalarsAndTime(ticks uint64, age float64, sc types.Scalars) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks = ticks
	s.age = age
	s.energy = clampFloat(sc.Energy, EnergyMin, EnergyMax)
	s.stability = clampFloat(sc.Stability, StabilityMin, StabilityMax)
	s.integrity = clampFloat(sc.Integrity, IntegrityMin, IntegrityMax)
}

// RestoreRecentEvents reinstates the recent-events ring from a snapshot
// (spec.md §8 R1), used only by the driver's snapshot restore.
func (s *SelfState) RestoreRecentEvents(events []event.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentEvents.Restore(events)
}
