// Package restart implements the dev-mode restart handoff file described in
// spec.md §6.3: a marker written on a graceful dev-mode stop, read and
// unlinked on the next boot. Absence means a cold start. A corrupt marker
// degrades to a cold start rather than failing boot (spec.md §7
// RestartStateCorrupt).
//
// Grounded on cmd/bud/main.go's restart-marker-shaped JSON handling (the
// same read-decode-unlink-or-ignore discipline it applies to its own
// persisted state files).
package restart

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/vthunder/life/internal/logging"
)

// Marker is the §6.3 payload. SelfState/EventQueue are left as raw JSON so
// callers decode them with their own package's unmarshaler; a missing
// capability degrades to an empty payload rather than a crash (spec.md
// §6.3 "Missing to_dict capability MUST degrade to empty payloads").
type Marker struct {
	RestartMarker bool            `json:"restart_marker"`
	Timestamp     float64         `json:"timestamp"`
	SelfState     json.RawMessage `json:"self_state"`
	EventQueue    json.RawMessage `json:"event_queue"`
	Config        json.RawMessage `json:"config"`
}

func markerPath(dir string) string {
	return filepath.Join(dir, "restart_marker.json")
}

// Write persists a Marker for the next boot to pick up. Best-effort: a
// write failure is logged, not returned, since a restart marker is always
// optional (the alternative is simply a cold start).
func Write(dir string, selfState, eventQueue, cfg json.RawMessage) {
	m := Marker{
		RestartMarker: true,
		Timestamp:     float64(time.Now().UnixNano()) / 1e9,
		SelfState:     orEmptyObject(selfState),
		EventQueue:    orEmptyArray(eventQueue),
		Config:        orEmptyObject(cfg),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		logging.Warn("restart", "marshal marker failed: %v", err)
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn("restart", "create dir failed: %v", err)
		return
	}
	if err := os.WriteFile(markerPath(dir), data, 0o644); err != nil {
		logging.Warn("restart", "write marker failed: %v", err)
	}
}

// ReadAndClear loads a marker if present, then unlinks it so a subsequent
// boot sees a cold start. Returns ok=false on a cold start (no file) or on a
// corrupt file (RestartStateCorrupt, spec.md §7) — either way the caller
// should proceed exactly as it would on a fresh process.
func ReadAndClear(dir string) (Marker, bool) {
	path := markerPath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return Marker{}, false
	}
	defer os.Remove(path)

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		logging.Warn("restart", "marker at %s is corrupt, treating as cold start: %v", path, err)
		return Marker{}, false
	}
	if !m.RestartMarker {
		return Marker{}, false
	}
	return m, true
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

func orEmptyArray(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}
	return raw
}
