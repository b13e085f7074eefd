package memorystore

import (
	"testing"
	"time"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/types"
)

func TestAppendAndCount(t *testing.T) {
	s, err := New(10, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.Append(types.MemoryEntry{EventType: event.TypeShock, Timestamp: time.Now(), Weight: 0.5})
	}
	if s.Count() != 5 {
		t.Fatalf("expected 5 entries, got %d", s.Count())
	}
	if got := s.CountByType()[event.TypeShock]; got != 5 {
		t.Fatalf("expected typed counter 5, got %d", got)
	}
}

func TestEvictionOnOverflow(t *testing.T) {
	s, err := New(5, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	base := time.Now().Add(-10 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		s.Append(types.MemoryEntry{EventType: event.TypeNoise, Timestamp: base, Weight: 0.9})
	}
	for i := 0; i < 4; i++ {
		s.Append(types.MemoryEntry{EventType: event.TypeNoise, Timestamp: time.Now(), Weight: 0.9})
	}
	if s.Count() > 5 {
		t.Fatalf("expected in-memory window bounded to capacity 5, got %d", s.Count())
	}
	// The typed counter is cumulative and must not shrink on eviction.
	if got := s.CountByType()[event.TypeNoise]; got != 7 {
		t.Fatalf("expected cumulative typed counter 7, got %d", got)
	}
}

func TestActivateMostRecentFirst(t *testing.T) {
	s, err := New(DefaultCapacity, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		s.Append(types.MemoryEntry{EventType: event.TypeShock, Timestamp: time.Now(), Weight: 0.5, SubjectiveTimestamp: float64(i)})
	}
	s.Append(types.MemoryEntry{EventType: event.TypeNoise, Timestamp: time.Now(), Weight: 0.5})

	got := s.Activate(event.TypeShock)
	if len(got) != 3 {
		t.Fatalf("expected 3 activated entries, got %d", len(got))
	}
	if got[0].SubjectiveTimestamp != 2 {
		t.Fatalf("expected most recent entry first, got %+v", got[0])
	}
}

func TestStatsWindow(t *testing.T) {
	s, err := New(DefaultCapacity, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	s.Append(types.MemoryEntry{EventType: event.TypeShock, Timestamp: time.Now(), MeaningSignificance: 0.2})
	s.Append(types.MemoryEntry{EventType: event.TypeShock, Timestamp: time.Now(), MeaningSignificance: 0.8})

	stats := s.Stats(event.TypeShock, 0)
	if stats.Frequency != 2 {
		t.Fatalf("expected frequency 2, got %d", stats.Frequency)
	}
	if stats.MeanSignificance < 0.49 || stats.MeanSignificance > 0.51 {
		t.Fatalf("expected mean significance ~0.5, got %v", stats.MeanSignificance)
	}
}
