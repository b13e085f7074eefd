package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vthunder/life/internal/event"
)

func TestDefaultRuntime(t *testing.T) {
	cfg := Default()
	if cfg.TickInterval != time.Second {
		t.Fatalf("expected default tick interval 1s, got %v", cfg.TickInterval)
	}
	if cfg.SnapshotPeriod != 10 {
		t.Fatalf("expected default snapshot period 10, got %d", cfg.SnapshotPeriod)
	}
}

func TestLoadRuntimeEnvOverrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "50")
	t.Setenv("SNAPSHOT_PERIOD", "5")
	t.Setenv("DISABLE_LEARNING", "true")

	cfg := LoadRuntime()
	if cfg.TickInterval != 50*time.Millisecond {
		t.Fatalf("expected 50ms tick interval, got %v", cfg.TickInterval)
	}
	if cfg.SnapshotPeriod != 5 {
		t.Fatalf("expected snapshot period 5, got %d", cfg.SnapshotPeriod)
	}
	if !cfg.DisableLearning {
		t.Fatal("expected learning disabled")
	}
}

func TestTableLoaderMissingFileReturnsDefaults(t *testing.T) {
	l := NewTableLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	tables := l.Load()
	if tables.TypeWeight[event.TypeShock] != 1.5 {
		t.Fatalf("expected default shock weight 1.5, got %v", tables.TypeWeight[event.TypeShock])
	}
}

func TestTableLoaderOverridesAndHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte("type_weight:\n  shock: 2.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewTableLoader(path)
	tables := l.Load()
	if tables.TypeWeight[event.TypeShock] != 2.0 {
		t.Fatalf("expected overridden shock weight 2.0, got %v", tables.TypeWeight[event.TypeShock])
	}
	if tables.TypeWeight[event.TypeNoise] != 0.5 {
		t.Fatalf("expected untouched noise weight to keep default 0.5, got %v", tables.TypeWeight[event.TypeNoise])
	}

	if l.Changed() {
		t.Fatal("expected Changed to be false immediately after Load")
	}

	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte("type_weight:\n  shock: 3.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !l.Changed() {
		t.Fatal("expected Changed to report true after the file was rewritten")
	}
}
