// Package profiling implements the optional enable_profiling companion from
// SPEC_FULL.md §4.9: a background sampler that periodically reads the
// process's own CPU% and RSS and exposes a read-only snapshot, never
// mutating SelfState. It runs on its own cadence independent of the tick
// loop.
//
// Grounded on budget.CPUWatcher's watchLoop/poll shape: a time.Ticker driving
// a gopsutil/v3/process sample and delta-based CPU% — generalized here from
// "watch other processes for idleness" to "watch our own process for an
// operator-facing resource snapshot". Only the latest Sample is kept; no
// history is retained.
package profiling

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/vthunder/life/internal/logging"
)

// DefaultPollInterval matches CPUWatcher's default cadence.
const DefaultPollInterval = 2 * time.Second

// Sample is a read-only resource snapshot for one poll.
type Sample struct {
	Timestamp time.Time
	CPUPct    float64
	RSSBytes  uint64
}

// Monitor samples this process's own CPU/RSS on a ticker, independent of
// the tick loop, and exposes the latest Sample via a mutex-guarded read.
type Monitor struct {
	mu           sync.RWMutex
	pollInterval time.Duration
	proc         *process.Process
	lastCPUTime  float64
	lastPollTime time.Time
	latest       Sample

	stopCh  chan struct{}
	running bool
}

// NewMonitor constructs a Monitor for the current process.
func NewMonitor() (*Monitor, error) {
	proc, err := process.NewProcess(int32(processPID()))
	if err != nil {
		return nil, err
	}
	return &Monitor{pollInterval: DefaultPollInterval, proc: proc, stopCh: make(chan struct{})}, nil
}

// Start begins the sampling loop in a background goroutine. A no-op if
// already running.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	go m.loop()
	logging.Info("profiling", "monitor started (poll=%v)", m.pollInterval)
}

// Stop halts the sampling loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		close(m.stopCh)
		m.running = false
	}
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Monitor) poll() {
	now := time.Now()

	times, err := m.proc.Times()
	if err != nil {
		logging.Warn("profiling", "read cpu times failed: %v", err)
		return
	}
	mem, err := m.proc.MemoryInfo()
	if err != nil {
		logging.Warn("profiling", "read memory info failed: %v", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	total := times.User + times.System
	var cpuPct float64
	if elapsed := now.Sub(m.lastPollTime).Seconds(); elapsed > 0 && m.lastCPUTime > 0 {
		cpuPct = ((total - m.lastCPUTime) / elapsed) * 100
	}
	m.lastCPUTime = total
	m.lastPollTime = now

	m.latest = Sample{Timestamp: now, CPUPct: cpuPct, RSSBytes: mem.RSS}
}

// Latest returns the most recently collected Sample (the zero value before
// the first poll completes). This is the only read contract: Monitor never
// mutates SelfState, mirroring the StatusReader discipline in §6.5.
func (m *Monitor) Latest() Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
