package restart

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenReadAndClear(t *testing.T) {
	dir := t.TempDir()
	selfState, _ := json.Marshal(map[string]any{"life_id": "abc"})

	Write(dir, selfState, nil, nil)

	m, ok := ReadAndClear(dir)
	if !ok {
		t.Fatal("expected marker to be found")
	}
	if !m.RestartMarker {
		t.Fatal("expected restart_marker=true")
	}
	var decoded map[string]any
	if err := json.Unmarshal(m.SelfState, &decoded); err != nil {
		t.Fatalf("expected self_state to decode: %v", err)
	}
	if decoded["life_id"] != "abc" {
		t.Fatalf("expected life_id abc, got %v", decoded["life_id"])
	}
	if string(m.EventQueue) != "[]" {
		t.Fatalf("expected empty-array degradation for missing event queue, got %s", m.EventQueue)
	}

	if _, err := os.Stat(filepath.Join(dir, "restart_marker.json")); !os.IsNotExist(err) {
		t.Fatal("expected marker file to be unlinked after ReadAndClear")
	}
}

func TestReadAndClearColdStart(t *testing.T) {
	dir := t.TempDir()
	_, ok := ReadAndClear(dir)
	if ok {
		t.Fatal("expected cold start (no marker) to report ok=false")
	}
}

func TestReadAndClearCorruptMarkerDegradesToColdStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restart_marker.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok := ReadAndClear(dir)
	if ok {
		t.Fatal("expected corrupt marker to degrade to cold start")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected corrupt marker file to still be unlinked")
	}
}
