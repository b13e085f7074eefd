package snapshotstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vthunder/life/internal/event"
)

func TestSaveAndLoadLatestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state := map[string]any{
		"metadata":   map[string]any{"version": "2.0", "life_id": "abc"},
		"components": map[string]any{"physical": map[string]any{"energy": 42.0}},
	}
	s.Save(10, state, QueueSnapshot{Events: []QueueEventView{{Type: event.TypeShock, Intensity: -0.5}}, Dropped: 3})
	s.Save(20, state, QueueSnapshot{Dropped: 5})

	doc, tick, ok := s.LoadLatest()
	if !ok {
		t.Fatal("expected a snapshot to be found")
	}
	if tick != 20 {
		t.Fatalf("expected highest tick 20 to be picked, got %d", tick)
	}
	meta, ok := doc["metadata"].(map[string]any)
	if !ok || meta["life_id"] != "abc" {
		t.Fatalf("expected round-tripped metadata, got %+v", doc)
	}

	qs := s.LoadQueue(10)
	if qs.Dropped != 3 || len(qs.Events) != 1 {
		t.Fatalf("expected queue snapshot round trip, got %+v", qs)
	}
}

func TestLoadLatestFallsBackOnCorruptNewest(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Save(1, map[string]any{"metadata": map[string]any{"life_id": "good"}}, QueueSnapshot{})
	if err := os.WriteFile(filepath.Join(dir, "snapshot_2.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}

	doc, tick, ok := s.LoadLatest()
	if !ok {
		t.Fatal("expected fallback to the older valid snapshot")
	}
	if tick != 1 {
		t.Fatalf("expected fallback tick 1, got %d", tick)
	}
	meta := doc["metadata"].(map[string]any)
	if meta["life_id"] != "good" {
		t.Fatalf("expected fallback snapshot content, got %+v", doc)
	}
}

func TestLoadLatestColdStart(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, ok := s.LoadLatest(); ok {
		t.Fatal("expected no snapshot on a cold, empty directory")
	}
}
