// Command life runs the tick-driven reactive agent described in spec.md: a
// long-lived process that owns one SelfState, drains an EventQueue on a
// fixed cadence, and persists best-effort snapshots. It is the process
// surface around the internal/tickruntime core — flags, signal-driven
// graceful stop, pidfile liveness, and dev-mode restart handoff — grounded
// on cmd/bud/main.go's own startup/shutdown sequencing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vthunder/life/internal/adaptation"
	"github.com/vthunder/life/internal/config"
	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/feedback"
	"github.com/vthunder/life/internal/learning"
	"github.com/vthunder/life/internal/logging"
	"github.com/vthunder/life/internal/meaning"
	"github.com/vthunder/life/internal/memorystore"
	"github.com/vthunder/life/internal/process"
	"github.com/vthunder/life/internal/profiling"
	"github.com/vthunder/life/internal/restart"
	"github.com/vthunder/life/internal/selfstate"
	"github.com/vthunder/life/internal/silence"
	"github.com/vthunder/life/internal/snapshotstore"
	"github.com/vthunder/life/internal/tickruntime"
	"github.com/vthunder/life/internal/types"
)

const processName = "life"

func main() {
	logging.Info("main", "life — immortal-weakness reactive agent")

	tickIntervalFlag := flag.Duration("tick-interval", 0, "override TICK_INTERVAL_MS (e.g. 500ms)")
	snapshotPeriodFlag := flag.Uint64("snapshot-period", 0, "override SNAPSHOT_PERIOD in ticks")
	clearData := flag.String("clear-data", "no", "yes|no: wipe the state directory before starting")
	restartFlag := flag.Bool("restart", false, "dev-mode: load the restart handoff marker if present")
	flag.Parse()

	cfg := config.LoadRuntime()
	if *tickIntervalFlag > 0 {
		cfg.TickInterval = *tickIntervalFlag
	}
	if *snapshotPeriodFlag > 0 {
		cfg.SnapshotPeriod = *snapshotPeriodFlag
	}
	logging.Info("main", "config: %s", cfg)

	if *clearData == "yes" {
		if err := os.RemoveAll(cfg.StatePath); err != nil {
			logging.Warn("main", "clear-data failed: %v", err)
		}
	}
	if err := os.MkdirAll(cfg.StatePath, 0o755); err != nil {
		logging.Info("main", "fatal: create state dir: %v", err)
		os.Exit(1)
	}

	pidFile := process.New(cfg.StatePath, processName)
	release, err := pidFile.Acquire(processName)
	if err != nil {
		logging.Info("main", "fatal: %v", err)
		os.Exit(1)
	}
	defer release()

	state := selfstate.New()
	queue := event.New(cfg.QueueCapacity)

	archivePath := filepath.Join(cfg.StatePath, "memory_archive.sqlite")
	mem, err := memorystore.New(memorystore.DefaultCapacity, archivePath)
	if err != nil {
		logging.Warn("main", "memory archive disabled: %v", err)
	}

	snapshots, err := snapshotstore.New(filepath.Join(cfg.StatePath, "snapshots"))
	if err != nil {
		logging.Info("main", "fatal: snapshot store: %v", err)
		os.Exit(1)
	}

	if *restartFlag {
		loadRestartMarker(cfg.StatePath, state, queue)
	} else if doc, tick, ok := snapshots.LoadLatest(); ok {
		restoreFromSnapshot(state, mem, doc)
		queue.Restore(snapshotToEvents(snapshots.LoadQueue(tick)))
		logging.Info("main", "restored from snapshot at tick %d", tick)
	} else {
		logging.Info("main", "cold start: life_id=%s", state.LifeID())
	}

	ft := feedback.New(feedback.DefaultMaxPending)

	tableLoader := config.NewTableLoader(cfg.TypeTablePath)
	tables := tableLoader.Load()
	meaning.TypeWeight = tables.TypeWeight
	meaning.BaseImpact = tables.BaseImpact
	vocabulary := event.DefaultVocabulary
	if len(tables.Vocabulary) > 0 {
		vocabulary = tables.Vocabulary
	}

	registry := event.NewRegistry()
	for _, t := range vocabulary {
		registry.Add(t)
	}
	registry.Seal()

	rtCfg := tickruntime.Config{
		TickInterval:           cfg.TickInterval,
		SnapshotPeriod:         cfg.SnapshotPeriod,
		LearningCadence:        learning.DefaultCadence,
		AdaptationCadence:      adaptation.DefaultCadence,
		DisableLearning:        cfg.DisableLearning,
		DisableAdaptation:      cfg.DisableAdaptation,
		DisableWeaknessPenalty: cfg.DisableWeaknessPenalty,
		Vocabulary:             vocabulary,
		TableLoader:            tableLoader,
		Registry:               registry,
	}

	monitor := func(s *selfstate.SelfState) {
		if cfg.DisableStructuredLog {
			return
		}
		sc := s.Scalars()
		logging.Debug("monitor", "tick=%d energy=%.2f stability=%.2f integrity=%.2f",
			s.Ticks(), sc.Energy, sc.Stability, sc.Integrity)
	}

	rt := tickruntime.New(rtCfg, state, queue, mem, ft, snapshots, monitor)

	detector := silence.New(rt.Queue(), cfg.SilenceThreshold, cfg.SilenceCheckInterval)
	rt.OnEventSeen(func(event.Type) { detector.NoteEvent() })
	detector.Start()
	defer detector.Stop()

	var profiler *profiling.Monitor
	if cfg.EnableProfiling {
		if profiler, err = profiling.NewMonitor(); err != nil {
			logging.Warn("main", "profiling disabled: %v", err)
		} else {
			profiler.Start()
			defer profiler.Stop()
		}
	}

	done := make(chan struct{})
	go func() {
		rt.Run()
		close(done)
	}()

	logging.Info("main", "all subsystems started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logging.Info("main", "shutting down...")
	detector.Stop()
	rt.Stop()
	<-done

	writeRestartMarker(cfg.StatePath, state, queue)

	if mem != nil {
		if err := mem.Close(); err != nil {
			logging.Warn("main", "close memory archive: %v", err)
		}
	}

	logging.Info("main", "goodbye")
}

func loadRestartMarker(statePath string, state *selfstate.SelfState, queue *event.Queue) {
	marker, ok := restart.ReadAndClear(statePath)
	if !ok {
		logging.Info("main", "no restart marker found, cold start")
		return
	}

	var doc map[string]any
	if err := json.Unmarshal(marker.SelfState, &doc); err == nil && len(doc) > 0 {
		restoreFromSnapshot(state, nil, doc)
	}

	var events []event.Event
	if err := json.Unmarshal(marker.EventQueue, &events); err == nil {
		queue.Restore(events)
	}
	logging.Info("main", "restart handoff applied")
}

func writeRestartMarker(statePath string, state *selfstate.SelfState, queue *event.Queue) {
	selfJSON, err := json.Marshal(state.ToDict())
	if err != nil {
		logging.Warn("main", "marshal restart self_state: %v", err)
		selfJSON = nil
	}
	queueJSON, err := json.Marshal(queue.Snapshot().Events)
	if err != nil {
		logging.Warn("main", "marshal restart event_queue: %v", err)
		queueJSON = nil
	}
	restart.Write(statePath, selfJSON, queueJSON, nil)
}

// restoreFromSnapshot reinstates identity, scalars/time, and memory from a
// previously-serialized ToDict-shaped document (spec.md §6.2 state schema).
// mem may be nil when restoring from the lighter-weight restart marker.
func restoreFromSnapshot(state *selfstate.SelfState, mem *memorystore.Store, doc map[string]any) {
	components, _ := doc["components"].(map[string]any)
	if components == nil {
		return
	}

	if identity, ok := components["identity"].(map[string]any); ok {
		lifeID, _ := identity["life_id"].(string)
		var birth time.Time
		if ts, ok := identity["birth_timestamp"].(float64); ok {
			birth = time.Unix(int64(ts), 0)
		}
		if lifeID != "" {
			state.RestoreIdentity(lifeID, birth)
		}
	}

	var scalars types.Scalars
	if physical, ok := components["physical"].(map[string]any); ok {
		scalars.Energy, _ = physical["energy"].(float64)
		scalars.Stability, _ = physical["stability"].(float64)
		scalars.Integrity, _ = physical["integrity"].(float64)
	}

	var ticks uint64
	var age float64
	if t, ok := components["time"].(map[string]any); ok {
		if tk, ok := t["ticks"].(float64); ok {
			ticks = uint64(tk)
		}
		age, _ = t["age"].(float64)
	}

	state.RestoreScalarsAndTime(ticks, age, scalars)

	if memComp, ok := components["memory"].(map[string]any); ok {
		entries := decodeMemoryEntries(memComp["entries"])
		state.ReplaceMemory(entries)
		if mem != nil {
			mem.ReplaceEntries(entries)
		}
	}

	if cognitive, ok := components["cognitive"].(map[string]any); ok {
		state.SetLearningParams(decodeLearningParams(cognitive["learning_params"]))
		state.SetAdaptationParams(decodeAdaptationParams(cognitive["adaptation_params"]))

		var clarity selfstate.ClarityState
		clarity.On, _ = cognitive["clarity_state"].(bool)
		if d, ok := cognitive["clarity_duration"].(float64); ok {
			clarity.Duration = uint64(d)
		}
		clarity.Modifier, _ = cognitive["clarity_modifier"].(float64)
		state.SetClarity(clarity)

		if cl, ok := cognitive["consciousness_level"].(float64); ok {
			state.SetConsciousnessLevel(cl)
		}
	}

	if events, ok := components["events"].(map[string]any); ok {
		state.RestoreRecentEvents(decodeEventTypes(events["recent_events"]))

		pattern, _ := events["last_pattern"].(string)
		significance, _ := events["last_significance"].(float64)
		intensity, _ := events["last_event_intensity"].(float64)
		state.SetLastStep(types.Pattern(pattern), significance, intensity)

		state.SetActivatedMemory(decodeActivatedMemory(events["activated_memory"]))
	}
}

func decodeMemoryEntries(raw any) []types.MemoryEntry {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]types.MemoryEntry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		eventType, _ := m["event_type"].(string)
		significance, _ := m["meaning_significance"].(float64)
		weight, _ := m["weight"].(float64)
		subjTS, _ := m["subjective_timestamp"].(float64)
		var ts time.Time
		if v, ok := m["timestamp"].(float64); ok {
			ts = time.Unix(int64(v), 0)
		}
		out = append(out, types.MemoryEntry{
			EventType:           event.Type(eventType),
			MeaningSignificance: significance,
			Timestamp:           ts,
			Weight:              weight,
			SubjectiveTimestamp: subjTS,
		})
	}
	return out
}

// decodeLearningParams decodes the components.cognitive.learning_params
// document produced by SelfState.ToDict, falling back to library defaults
// for any missing/malformed field.
func decodeLearningParams(raw any) selfstate.LearningParams {
	p := selfstate.NewLearningParams()
	m, ok := raw.(map[string]any)
	if !ok {
		return p
	}
	decodeEventFloatMap(p.EventTypeSensitivity, m["event_type_sensitivity"])
	decodeEventFloatMap(p.SignificanceThreshold, m["significance_thresholds"])
	decodePatternFloatMap(p.ResponseCoefficients, m["response_coefficients"])
	return p
}

// decodeAdaptationParams is the parallel of decodeLearningParams for
// components.cognitive.adaptation_params.
func decodeAdaptationParams(raw any) selfstate.AdaptationParams {
	p := selfstate.NewAdaptationParams()
	m, ok := raw.(map[string]any)
	if !ok {
		return p
	}
	decodeEventFloatMap(p.BehaviorSensitivity, m["behavior_sensitivity"])
	decodeEventFloatMap(p.BehaviorThresholds, m["behavior_thresholds"])
	decodePatternFloatMap(p.BehaviorCoefficients, m["behavior_coefficients"])
	return p
}

func decodeEventFloatMap(dst map[event.Type]float64, raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for k, v := range m {
		if f, ok := v.(float64); ok {
			dst[event.Type(k)] = f
		}
	}
}

func decodePatternFloatMap(dst map[types.Pattern]float64, raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for k, v := range m {
		if f, ok := v.(float64); ok {
			dst[types.Pattern(k)] = f
		}
	}
}

func decodeEventTypes(raw any) []event.Type {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]event.Type, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, event.Type(s))
		}
	}
	return out
}

// decodeActivatedMemory decodes components.events.activated_memory, whose
// entries are marshaled straight from types.MemoryEntry (RFC3339 timestamp,
// unlike the unix-seconds form components.memory.entries uses).
func decodeActivatedMemory(raw any) []types.MemoryEntry {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]types.MemoryEntry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		eventType, _ := m["event_type"].(string)
		significance, _ := m["meaning_significance"].(float64)
		weight, _ := m["weight"].(float64)
		subjTS, _ := m["subjective_timestamp"].(float64)
		signature, _ := m["signature"].(string)
		var ts time.Time
		if s, ok := m["timestamp"].(string); ok {
			ts, _ = time.Parse(time.RFC3339Nano, s)
		}
		out = append(out, types.MemoryEntry{
			EventType:           event.Type(eventType),
			MeaningSignificance: significance,
			Timestamp:           ts,
			Weight:              weight,
			SubjectiveTimestamp: subjTS,
			Signature:           signature,
		})
	}
	return out
}

func snapshotToEvents(q snapshotstore.QueueSnapshot) []event.Event {
	out := make([]event.Event, 0, len(q.Events))
	for _, v := range q.Events {
		out = append(out, event.New(fmt.Sprintf("restored_%d", int64(v.Timestamp*1e9)), v.Type, v.Intensity, time.Unix(0, int64(v.Timestamp*1e9)), v.Metadata))
	}
	return out
}
