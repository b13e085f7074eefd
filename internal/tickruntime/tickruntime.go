// Package tickruntime implements the tick loop described in spec.md §4.9:
// the heart of the system. One TickRuntime owns a SelfState exclusively and
// drives it through the S0-S8 state machine — feedback observation, queue
// drain, meaning/decision/action dispatch, weakness penalty, periodic
// learning/adaptation, monitor callback, snapshot cadence, pacing, and
// cooperative stop — wrapped in a crash boundary that applies a bounded
// integrity penalty and continues rather than ever exiting on an internal
// panic. Only an explicit stop signal ends the loop (immortal weakness,
// spec.md §9).
//
// Grounded on attention.Attention.loop's time.Ticker + select-against-a-
// stop-channel shape, generalized from a fixed-rate recompute into the
// fuller per-tick pipeline spec.md §4.9 describes, with pacing (S7) that
// compensates for in-tick processing time rather than sleeping a fixed
// duration.
package tickruntime

import (
	"time"

	"github.com/vthunder/life/internal/action"
	"github.com/vthunder/life/internal/adaptation"
	"github.com/vthunder/life/internal/config"
	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/feedback"
	"github.com/vthunder/life/internal/learning"
	"github.com/vthunder/life/internal/logging"
	"github.com/vthunder/life/internal/meaning"
	"github.com/vthunder/life/internal/memorystore"
	"github.com/vthunder/life/internal/selfstate"
	"github.com/vthunder/life/internal/snapshotstore"
	"github.com/vthunder/life/internal/types"
)

// WeaknessThreshold (theta) and WeaknessPenaltyRate implement spec.md §4.9
// S3: when any scalar is at or below theta, a small continuous drain keeps
// the system "alive-but-weak" instead of stuck.
const (
	WeaknessThreshold   = 0.05
	WeaknessPenaltyRate = 0.02 // per second, scaled by dt

	// CrashIntegrityPenalty is applied once per tick whose body panics
	// (spec.md §7 TickBodyException).
	CrashIntegrityPenalty = 0.05
)

// Monitor is the read-only per-tick observer contract from spec.md §4.10.
// Implementations must treat state as read-only; panics inside Monitor are
// caught and ignored by the runtime (MonitorFailure, spec.md §7).
type Monitor func(state *selfstate.SelfState)

// EventProducer is the contract external producers satisfy to push into an
// EventQueue (SPEC_FULL.md §6, spec.md §6.1). Producers never block on the
// queue and are rate-limited externally; the core imposes no rate limit
// beyond queue capacity.
type EventProducer interface {
	Push(ev event.Event) bool
}

// StatusReader is the contract an external observer (e.g. an out-of-scope
// HTTP status layer) would use to read state without depending on the
// concrete runtime package (spec.md §6.5).
type StatusReader interface {
	ToDict() map[string]any
	QueueSnapshot() event.Snapshot
}

// Config configures one TickRuntime (spec.md §4.9 "Configuration inputs").
type Config struct {
	TickInterval      time.Duration
	SnapshotPeriod    uint64 // S, snapshot cadence in ticks
	LearningCadence   uint64 // L
	AdaptationCadence uint64 // A

	DisableLearning        bool
	DisableAdaptation      bool
	DisableWeaknessPenalty bool

	// Vocabulary is the closed event-type set LearningEngine/AdaptationManager
	// iterate over each invocation.
	Vocabulary []event.Type

	// TableLoader, if set, is polled once per tick for a changed type_weight/
	// base_impact table file and reapplied to internal/meaning's compiled-in
	// tables (SPEC_FULL.md §4.12). Nil disables hot-reload entirely.
	TableLoader *config.TableLoader

	// Registry, if set, normalizes every drained event's Type against the
	// closed-after-startup vocabulary (spec.md §3.1, §9) before appraisal;
	// anything outside it buckets to event.TypeUnknown. Nil disables
	// normalization (any Type is appraised as given).
	Registry *event.Registry
}

// DefaultConfig returns the spec.md-default Config.
func DefaultConfig() Config {
	return Config{
		TickInterval:      time.Second,
		SnapshotPeriod:    10,
		LearningCadence:   learning.DefaultCadence,
		AdaptationCadence: adaptation.DefaultCadence,
		Vocabulary:        event.DefaultVocabulary,
	}
}

// Runtime is the tick core. It is the sole mutator of State, Memory, and the
// pending-actions list — every other reader goes through ToDict/Snapshot
// (spec.md §5).
type Runtime struct {
	cfg Config

	state    *selfstate.SelfState
	queue    *event.Queue
	memory   *memorystore.Store
	feedback *feedback.Tracker
	learning *learning.Engine
	adapt    *adaptation.Engine
	snapshots *snapshotstore.Store

	monitor      Monitor
	onEventSeen  func(event.Type) // optional hook, e.g. silence.Detector.NoteEvent

	prevTick time.Time
	stopCh   chan struct{}
}

// New constructs a Runtime wiring together the components spec.md §2's data
// flow names. snapshots may be nil to disable persistence entirely.
func New(cfg Config, state *selfstate.SelfState, queue *event.Queue, mem *memorystore.Store, ft *feedback.Tracker, snapshots *snapshotstore.Store, monitor Monitor) *Runtime {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = event.DefaultVocabulary
	}
	return &Runtime{
		cfg:       cfg,
		state:     state,
		queue:     queue,
		memory:    mem,
		feedback:  ft,
		learning:  learning.New(cfg.Vocabulary),
		adapt:     adaptation.New(cfg.Vocabulary),
		snapshots: snapshots,
		monitor:   monitor,
		stopCh:    make(chan struct{}),
	}
}

// OnEventSeen installs an optional hook invoked once per drained event
// (before meaning appraisal), e.g. to reset a SilenceDetector's clock. Not
// required for correctness; purely an integration point.
func (r *Runtime) OnEventSeen(f func(event.Type)) {
	r.onEventSeen = f
}

// State returns the runtime's owned SelfState, for read access via ToDict
// or for wiring a StatusReader.
func (r *Runtime) State() *selfstate.SelfState { return r.state }

// Queue returns the runtime's owned EventQueue, satisfying EventProducer for
// external producers.
func (r *Runtime) Queue() *event.Queue { return r.queue }

// statusView adapts a Runtime's owned State and Queue to the StatusReader
// contract without exposing the concrete types.
type statusView struct {
	state *selfstate.SelfState
	queue *event.Queue
}

func (v statusView) ToDict() map[string]any        { return v.state.ToDict() }
func (v statusView) QueueSnapshot() event.Snapshot { return v.queue.Snapshot() }

// Status returns a StatusReader view of this runtime, for an external
// observer (e.g. an out-of-scope HTTP status layer, SPEC_FULL.md §6) that
// depends only on the interface, never on tickruntime or its internals.
func (r *Runtime) Status() StatusReader {
	return statusView{state: r.state, queue: r.queue}
}

// Stop signals the loop to exit after completing its current tick (S8). Safe
// to call from any goroutine, any number of times.
func (r *Runtime) Stop() {
	select {
	case <-r.stopCh:
		// already stopped
	default:
		close(r.stopCh)
	}
}

// Run drives the tick loop until Stop is called. It never returns due to an
// internal error — only the stop signal ends it (immortal weakness, spec.md
// §9). Intended to be called once, typically from its own goroutine.
func (r *Runtime) Run() {
	r.prevTick = time.Now()
	for {
		r.runOneTickGuarded()

		select {
		case <-r.stopCh:
			return
		default:
		}

		elapsed := time.Since(r.prevTick)
		if sleep := r.cfg.TickInterval - elapsed; sleep > 0 {
			select {
			case <-time.After(sleep):
			case <-r.stopCh:
				return
			}
		}
	}
}

// runOneTickGuarded wraps tick() in the spec.md §7/§9 crash boundary: any
// panic inside the tick body is caught, logged, and answered with a bounded
// integrity penalty; the loop always continues.
func (r *Runtime) runOneTickGuarded() {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("tickruntime", "tick body panicked, applying integrity penalty and continuing: %v", rec)
			r.state.ApplyDelta(map[string]float64{"integrity": -CrashIntegrityPenalty})
		}
	}()
	r.tick()
}

// tick executes one full S0-S8 pass (spec.md §4.9).
func (r *Runtime) tick() {
	now := time.Now()

	// S0: start. Advance ticks/age.
	dt := now.Sub(r.prevTick).Seconds()
	r.prevTick = now
	r.state.AdvanceTick(dt)

	r.reloadTablesIfChanged()

	// S1: observe feedback.
	r.observeFeedback(now)

	// S2: drain queue and run the per-event pipeline.
	r.drainQueue(now)

	// S3: weakness penalty.
	if !r.cfg.DisableWeaknessPenalty {
		r.applyWeaknessPenalty(dt)
	}

	// S4: periodic subsystems.
	ticks := r.state.Ticks()
	if !r.cfg.DisableLearning && r.cfg.LearningCadence > 0 && ticks%r.cfg.LearningCadence == 0 {
		r.learning.Run(r.state, r.memory)
	}
	if !r.cfg.DisableAdaptation && r.cfg.AdaptationCadence > 0 && ticks%r.cfg.AdaptationCadence == 0 {
		r.adapt.Run(r.state, r.memory)
	}

	// S5: monitor callback — exceptions swallowed, never propagated.
	r.callMonitor()

	// S6: snapshot cadence.
	if r.snapshots != nil && r.cfg.SnapshotPeriod > 0 && ticks%r.cfg.SnapshotPeriod == 0 {
		r.snapshots.Save(ticks, r.state.ToDict(), snapshotQueueView(r.queue))
	}

	// S7 (pace) and S8 (stop check) happen in Run, around runOneTickGuarded.
}

// reloadTablesIfChanged implements SPEC_FULL.md §4.12's hot-reload: a cheap
// mtime stat every tick, a full reparse only when the file actually changed.
// Safe without locking meaning's package-level tables because only this
// goroutine ever calls meaning.Process or reloads them.
func (r *Runtime) reloadTablesIfChanged() {
	if r.cfg.TableLoader == nil || !r.cfg.TableLoader.Changed() {
		return
	}
	tables := r.cfg.TableLoader.Load()
	meaning.TypeWeight = tables.TypeWeight
	meaning.BaseImpact = tables.BaseImpact
	if len(tables.Vocabulary) > 0 {
		r.cfg.Vocabulary = tables.Vocabulary
		r.learning.Vocabulary = tables.Vocabulary
		r.adapt.Vocabulary = tables.Vocabulary
	}
	logging.Info("tickruntime", "reloaded type_weight/base_impact tables (%d types)", len(tables.TypeWeight))
}

func (r *Runtime) observeFeedback(now time.Time) {
	records := r.feedback.Observe(r.state.Ticks(), r.state.Scalars(), now, r.memory)
	for _, rec := range records {
		r.memory.Append(feedbackMemoryEntry(rec))
		r.state.AppendMemory(feedbackMemoryEntry(rec))
	}
}

func feedbackMemoryEntry(rec types.FeedbackRecord) types.MemoryEntry {
	return types.MemoryEntry{
		EventType:           event.TypeUnknown,
		MeaningSignificance: 0,
		Timestamp:           rec.Timestamp,
		Weight:              0.5,
		SubjectiveTimestamp: float64(rec.Timestamp.UnixNano()) / 1e9,
		Signature:           action.Signature(string(event.TypeUnknown), rec.ActionPattern, 0),
		FeedbackData: &types.FeedbackData{
			ActionID:         rec.ActionID,
			ActionPattern:    rec.ActionPattern,
			StateDelta:       rec.StateDelta,
			DelayTicks:       rec.DelayTicks,
			AssociatedEvents: rec.AssociatedEvents,
		},
	}
}

// drainQueue implements S2: pop_all then run the per-event pipeline in FIFO
// order (spec.md §4.9 S2, §5 "events processed in a single tick are in FIFO
// enqueue order").
func (r *Runtime) drainQueue(now time.Time) {
	batch := r.queue.PopAll()
	for _, ev := range batch {
		r.processEvent(ev, now)
	}
}

// processEvent implements the per-event pipeline body of S2: appraise,
// activate memory context, select pattern, and — unless ignored — execute
// the action, register it for delayed feedback, and append a memory entry.
func (r *Runtime) processEvent(ev event.Event, now time.Time) {
	if r.cfg.Registry != nil {
		ev.Type = r.cfg.Registry.Normalize(ev.Type)
	}
	if r.onEventSeen != nil {
		r.onEventSeen(ev.Type)
	}

	snap := meaning.SnapshotOf(r.state)
	result := meaning.Process(ev, snap)

	if result.Significance <= 0 {
		return
	}

	r.state.SetActivatedMemory(r.memory.Activate(ev.Type))

	if result.Pattern == types.PatternIgnore {
		return
	}

	execResult := action.Execute(r.state, result.Pattern, result.Impact)
	r.feedback.Register(execResult.ActionID, result.Pattern, execResult.StateBefore, r.state.Ticks(), now)

	r.applyClarity(ev, result)

	r.state.PushRecentEvent(ev.Type)
	r.state.SetLastStep(result.Pattern, result.Significance, ev.Intensity)

	entry := types.MemoryEntry{
		EventType:           ev.Type,
		MeaningSignificance: result.Significance,
		Timestamp:           now,
		Weight:              result.Significance,
		SubjectiveTimestamp: float64(now.UnixNano()) / 1e9,
		Signature:           action.Signature(string(ev.Type), result.Pattern, result.Significance),
	}
	r.memory.Append(entry)
	r.state.AppendMemory(entry)
}

// applyClarity implements the Open Question resolution from spec.md §9: a
// clarity-family event mutates SelfState.clarity_* fields only here, inside
// the tick core, never from an external direct-write path.
func (r *Runtime) applyClarity(ev event.Event, result types.Meaning) {
	if ev.Type != event.TypeClarity && ev.Type != event.TypeInsight {
		return
	}
	current := r.state.Clarity()
	r.state.SetClarity(selfstate.ClarityState{
		On:       true,
		Duration: current.Duration + 1,
		Modifier: meaning.DefaultClarityModifier,
	})
}

// applyWeaknessPenalty implements S3 (spec.md §4.9, theta=0.05).
func (r *Runtime) applyWeaknessPenalty(dt float64) {
	sc := r.state.Scalars()
	if sc.Energy > WeaknessThreshold && sc.Stability > WeaknessThreshold && sc.Integrity > WeaknessThreshold {
		return
	}
	penalty := WeaknessPenaltyRate * dt
	r.state.ApplyDelta(map[string]float64{
		"energy":    -penalty,
		"stability": -2 * penalty,
		"integrity": -2 * penalty,
	})
}

// callMonitor implements S5: the monitor is invoked with a read view; any
// panic is caught and ignored (MonitorFailure, spec.md §7/§4.10).
func (r *Runtime) callMonitor() {
	if r.monitor == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("tickruntime", "monitor callback panicked, ignoring: %v", rec)
		}
	}()
	r.monitor(r.state)
}

func snapshotQueueView(q *event.Queue) snapshotstore.QueueSnapshot {
	snap := q.Snapshot()
	views := make([]snapshotstore.QueueEventView, len(snap.Events))
	for i, ev := range snap.Events {
		views[i] = snapshotstore.QueueEventView{
			Type:      ev.Type,
			Intensity: ev.Intensity,
			Timestamp: float64(ev.Timestamp.UnixNano()) / 1e9,
			Metadata:  ev.Metadata,
		}
	}
	return snapshotstore.QueueSnapshot{Events: views, Dropped: snap.Dropped}
}
