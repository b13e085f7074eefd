// Package config loads runtime configuration in the layered order the
// teacher lineage uses throughout its driver: compiled-in defaults, then an
// optional YAML table file, then process environment / .env overrides for
// the knobs that make sense as env vars (cadences, paths). It also supports
// the teacher's hot-reload-by-mtime trick for the event-type table file, so
// an operator can retune type_weight/base_impact without a restart.
//
// Grounded on cmd/bud/main.go's godotenv.Load + os.Getenv layering and
// internal/reflex.Engine.Load's YAML-with-seeded-defaults pattern.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/logging"
	"github.com/vthunder/life/internal/meaning"
)

// Runtime holds the knobs TickRuntime and its periodic subsystems read at
// startup. Defaults mirror the spec.md values throughout.
type Runtime struct {
	TickInterval            time.Duration
	SnapshotPeriod          uint64
	StatePath               string
	QueueCapacity           int
	LearningCadence         uint64
	AdaptationCadence       uint64
	DisableLearning         bool
	DisableAdaptation       bool
	DisableWeaknessPenalty  bool
	DisableStructuredLog    bool
	EnableProfiling         bool
	SilenceThreshold        time.Duration
	SilenceCheckInterval    time.Duration
	TypeTablePath           string
}

// Default returns the compiled-in Runtime defaults (spec.md §4.9, §4.6,
// §4.7, §4.11).
func Default() Runtime {
	return Runtime{
		TickInterval:         time.Second,
		SnapshotPeriod:       10,
		StatePath:            "data",
		QueueCapacity:        100,
		LearningCadence:      50,
		AdaptationCadence:    75,
		SilenceThreshold:     30 * time.Second,
		SilenceCheckInterval: time.Second,
		TypeTablePath:        typeTablePathDefault,
	}
}

// typeTablePathDefault is where LoadRuntime looks for an optional hot-
// reloadable YAML table when the TYPE_TABLE_PATH env var is unset; a set
// TYPE_TABLE_PATH overrides it.
// A missing file at this path is not an error: TableLoader.Load falls back
// to the compiled-in internal/meaning defaults.
const typeTablePathDefault = "config/type_tables.yaml"

// LoadRuntime builds a Runtime from compiled-in defaults overridden by
// process environment variables (after an optional .env load). envPrefix-
// free variable names match the teacher's flat env-var convention
// (TICK_INTERVAL_MS, STATE_PATH, ...).
func LoadRuntime() Runtime {
	if err := godotenv.Load(); err != nil {
		logging.Debug("config", "no .env file found, using environment variables")
	} else {
		logging.Info("config", "loaded .env file")
	}

	cfg := Default()

	if v := os.Getenv("TICK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.TickInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("SNAPSHOT_PERIOD"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			cfg.SnapshotPeriod = n
		}
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QueueCapacity = n
		}
	}
	cfg.DisableLearning = os.Getenv("DISABLE_LEARNING") == "true"
	cfg.DisableAdaptation = os.Getenv("DISABLE_ADAPTATION") == "true"
	cfg.DisableWeaknessPenalty = os.Getenv("DISABLE_WEAKNESS_PENALTY") == "true"
	cfg.DisableStructuredLog = os.Getenv("DISABLE_STRUCTURED_LOGGING") == "true"
	cfg.EnableProfiling = os.Getenv("ENABLE_PROFILING") == "true"
	if v := os.Getenv("TYPE_TABLE_PATH"); v != "" {
		cfg.TypeTablePath = v
	}

	return cfg
}

// TypeTables is the YAML-loadable shape of the event-type appraisal tables
// (spec.md §4.2's type_weight/base_impact consts, made hot-reloadable).
type TypeTables struct {
	TypeWeight  map[event.Type]float64         `yaml:"type_weight"`
	BaseImpact  map[event.Type]meaning.Impact  `yaml:"base_impact"`
	Vocabulary  []event.Type                   `yaml:"vocabulary"`
}

// TableLoader loads TypeTables from a YAML file, tracking its mtime so
// callers can cheaply detect when to reload (mirrors reflex.Engine's
// fileModTime hot-reload trick). A missing file is not an error: Load
// returns the compiled-in defaults from internal/meaning.
type TableLoader struct {
	path    string
	modTime time.Time
}

// NewTableLoader returns a loader rooted at path. An empty path disables
// file-backed tables entirely; Load then always returns the defaults.
func NewTableLoader(path string) *TableLoader {
	return &TableLoader{path: path}
}

// Load reads the table file if present, merging entries over the compiled-
// in defaults (file entries win on conflict). On any parse error, it logs a
// warning and falls back to whatever was previously loaded (or defaults, on
// first load).
func (l *TableLoader) Load() TypeTables {
	tables := TypeTables{
		TypeWeight: cloneFloatMap(meaning.TypeWeight),
		BaseImpact: cloneImpactMap(meaning.BaseImpact),
		Vocabulary: append([]event.Type(nil), event.DefaultVocabulary...),
	}
	if l.path == "" {
		return tables
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return tables
	}

	var fileTables TypeTables
	if err := yaml.Unmarshal(data, &fileTables); err != nil {
		logging.Warn("config", "type table %s is invalid, keeping prior tables: %v", l.path, err)
		return tables
	}

	for k, v := range fileTables.TypeWeight {
		tables.TypeWeight[k] = v
	}
	for k, v := range fileTables.BaseImpact {
		tables.BaseImpact[k] = v
	}
	if len(fileTables.Vocabulary) > 0 {
		tables.Vocabulary = fileTables.Vocabulary
	}

	if info, err := os.Stat(l.path); err == nil {
		l.modTime = info.ModTime()
	}
	return tables
}

// Changed reports whether the file's mtime has advanced since the last
// successful Load, without re-reading the file contents. tickruntime polls
// this once per tick, at the top of the tick rather than mid-tick
// (SPEC_FULL.md §4.12).
func (l *TableLoader) Changed() bool {
	if l.path == "" {
		return false
	}
	info, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	return info.ModTime().After(l.modTime)
}

func cloneFloatMap(m map[event.Type]float64) map[event.Type]float64 {
	out := make(map[event.Type]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneImpactMap(m map[event.Type]meaning.Impact) map[event.Type]meaning.Impact {
	out := make(map[event.Type]meaning.Impact, len(m))
	for k, v := range m {
		inner := make(meaning.Impact, len(v))
		for ik, iv := range v {
			inner[ik] = iv
		}
		out[k] = inner
	}
	return out
}

// String renders a Runtime for a single startup log line, matching the
// teacher's `[config] ...` one-liners.
func (r Runtime) String() string {
	return fmt.Sprintf("tick_interval=%s snapshot_period=%d state_path=%s queue_capacity=%d",
		r.TickInterval, r.SnapshotPeriod, r.StatePath, r.QueueCapacity)
}
