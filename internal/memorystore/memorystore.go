// Package memorystore implements the bounded, append-only record of
// MemoryEntry described in spec.md §4.5: in-process retention up to a cap,
// archival of older/low-weight entries into a durable partition, type-keyed
// activation retrieval, and per-type counters.
//
// Grounded on the Pool shape of memory.PerceptPool / memory.TracePool: a
// mutex-guarded in-memory index plus a Load/Save pair, generalized here with
// a sqlite-backed archive partition instead of a second JSON file, since the
// retention cap (≈10 000 entries) makes an unbounded JSON archive impractical.
package memorystore

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/types"
)

// DefaultCapacity is the total in-memory retention cap (spec.md §4.5).
const DefaultCapacity = 10000

// ArchiveAge is the "older than" threshold used to pick archival candidates.
const ArchiveAge = 7 * 24 * time.Hour

// ActivationLimit bounds how many entries activate() returns.
const ActivationLimit = 10

// Store holds the live in-process memory window plus an optional sqlite
// archive for entries evicted once the cap is exceeded.
type Store struct {
	mu       sync.RWMutex
	entries  []types.MemoryEntry
	byType   map[event.Type]int
	capacity int

	db *sql.DB // nil when archival is disabled (archive path == "")
}

// New constructs a Store with the given capacity (DefaultCapacity if <= 0).
// archivePath, if non-empty, opens (creating if needed) a sqlite database
// for evicted entries; an open failure is non-fatal — archival is simply
// disabled and callers keep working against the in-memory window.
func New(capacity int, archivePath string) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		byType:   make(map[event.Type]int),
		capacity: capacity,
	}
	if archivePath == "" {
		return s, nil
	}
	db, err := sql.Open("sqlite", archivePath)
	if err != nil {
		return s, fmt.Errorf("memorystore: archive disabled, open failed: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return s, fmt.Errorf("memorystore: archive disabled, schema failed: %w", err)
	}
	s.db = db
	return s, nil
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS archived_entries (
	event_type TEXT NOT NULL,
	significance REAL NOT NULL,
	timestamp INTEGER NOT NULL,
	weight REAL NOT NULL,
	subjective_timestamp REAL NOT NULL,
	signature TEXT,
	archived_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archived_type ON archived_entries(event_type);
`

// Close releases the archive database handle, if one is open.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append adds an entry, updating the type counter, then enforces the
// retention cap by archiving overflow (spec.md §4.5).
func (s *Store) Append(entry types.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	s.byType[entry.EventType]++

	if len(s.entries) > s.capacity {
		s.evictLocked()
	}
}

// evictLocked moves entries older than ArchiveAge, or failing that the
// lowest-weight entries, out of the in-memory window until it is back
// within capacity. Must be called with s.mu held.
func (s *Store) evictLocked() {
	overflow := len(s.entries) - s.capacity
	if overflow <= 0 {
		return
	}

	cutoff := time.Now().Add(-ArchiveAge)
	idx := make([]int, len(s.entries))
	for i := range idx {
		idx[i] = i
	}

	sort.Slice(idx, func(a, b int) bool {
		ea, eb := s.entries[idx[a]], s.entries[idx[b]]
		aOld, bOld := ea.Timestamp.Before(cutoff), eb.Timestamp.Before(cutoff)
		if aOld != bOld {
			return aOld // older-than-cutoff entries sort first (evicted first)
		}
		return ea.Weight < eb.Weight
	})

	evict := make(map[int]bool, overflow)
	for _, i := range idx[:overflow] {
		evict[i] = true
	}

	kept := make([]types.MemoryEntry, 0, s.capacity)
	toArchive := make([]types.MemoryEntry, 0, overflow)
	for i, e := range s.entries {
		if evict[i] {
			toArchive = append(toArchive, e)
		} else {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.archive(toArchive)
}

// archive best-effort writes evicted entries to the sqlite partition. A
// write failure just drops the entries — archival is advisory, never a
// correctness requirement (spec.md Non-goals: no authoritative persistence
// transactions).
func (s *Store) archive(entries []types.MemoryEntry) {
	if s.db == nil || len(entries) == 0 {
		return
	}
	now := time.Now().Unix()
	for _, e := range entries {
		_, _ = s.db.Exec(
			`INSERT INTO archived_entries(event_type, significance, timestamp, weight, subjective_timestamp, signature, archived_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(e.EventType), e.MeaningSignificance, e.Timestamp.Unix(), e.Weight, e.SubjectiveTimestamp, e.Signature, now,
		)
	}
}

// Entries returns a copy of the current in-memory window.
func (s *Store) Entries() []types.MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.MemoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count returns the number of entries currently held in memory.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CountByType returns the typed counters (spec.md §4.5
// memory_entries_by_type). Counters are cumulative across the store's
// lifetime, not just the current in-memory window.
func (s *Store) CountByType() map[event.Type]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[event.Type]int, len(s.byType))
	for k, v := range s.byType {
		out[k] = v
	}
	return out
}

// Activate returns up to ActivationLimit of the most recent in-memory
// entries matching eventType, most-recent-first (spec.md §4.5
// "activated_memory").
func (s *Store) Activate(eventType event.Type) []types.MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []types.MemoryEntry
	for i := len(s.entries) - 1; i >= 0 && len(matched) < ActivationLimit; i-- {
		if s.entries[i].EventType == eventType {
			matched = append(matched, s.entries[i])
		}
	}
	return matched
}

// WindowStats summarizes the last H in-memory entries for a given type,
// feeding LearningEngine/AdaptationManager (spec.md §4.6 step 1).
type WindowStats struct {
	Frequency        int
	MeanSignificance float64
	DominantPattern  types.Pattern
}

// Stats computes WindowStats over the trailing window of size h (0 means
// "use the whole in-memory buffer").
func (s *Store) Stats(eventType event.Type, h int) WindowStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if h > 0 && len(s.entries) > h {
		start = len(s.entries) - h
	}

	var sum float64
	var freq int
	patternCount := make(map[types.Pattern]int)
	for _, e := range s.entries[start:] {
		if e.EventType != eventType {
			continue
		}
		freq++
		sum += e.MeaningSignificance
		if e.FeedbackData != nil {
			patternCount[e.FeedbackData.ActionPattern]++
		}
	}

	stats := WindowStats{Frequency: freq}
	if freq > 0 {
		stats.MeanSignificance = sum / float64(freq)
	}
	best := -1
	for p, c := range patternCount {
		if c > best {
			best = c
			stats.DominantPattern = p
		}
	}
	return stats
}

// SignificanceSeries returns the meaning_significance values for entries
// matching eventType within the trailing window of size h (0 means the
// whole in-memory buffer), oldest first. Used by LearningEngine to detect a
// trend (spec.md §4.6 step 1-2).
func (s *Store) SignificanceSeries(eventType event.Type, h int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if h > 0 && len(s.entries) > h {
		start = len(s.entries) - h
	}

	var out []float64
	for _, e := range s.entries[start:] {
		if e.EventType == eventType {
			out = append(out, e.MeaningSignificance)
		}
	}
	return out
}

// ReplaceEntries swaps the in-memory window wholesale and rebuilds the type
// counters from it, used by the driver's snapshot restore after
// SnapshotStore.LoadLatest.
func (s *Store) ReplaceEntries(entries []types.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.byType = make(map[event.Type]int, len(entries))
	for _, e := range entries {
		s.byType[e.EventType]++
	}
}
