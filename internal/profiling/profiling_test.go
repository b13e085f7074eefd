package profiling

import (
	"testing"
	"time"
)

func TestMonitorStartStopCollectsSamples(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Fatalf("unexpected error constructing monitor: %v", err)
	}
	m.pollInterval = 10 * time.Millisecond

	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !m.Latest().Timestamp.IsZero() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected at least one sample to be collected within 1s")
}

func TestMonitorLatestIsZeroBeforeFirstPoll(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Fatalf("unexpected error constructing monitor: %v", err)
	}
	if !m.Latest().Timestamp.IsZero() {
		t.Fatal("expected zero-value sample before any poll")
	}
}
