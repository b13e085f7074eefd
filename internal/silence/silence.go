// Package silence implements the optional SilenceDetector collaborator from
// spec.md §2/§4.11: on its own cadence, if no event has reached the queue
// in N seconds, it synthesizes a "silence" Event with
// metadata["detector_generated"]=true and pushes it through the normal
// EventQueue.Push path — it is an ordinary EventProducer, not a privileged
// internal path. Each emit resets its silence clock, so it emits at most one
// synthetic event per threshold period.
//
// Grounded on attention.Attention's ticker-driven loop (time.Ticker +
// select against a stop channel).
package silence

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/logging"
)

// DefaultThreshold and DefaultCheckInterval are the spec.md §4.11 defaults.
const (
	DefaultThreshold     = 30 * time.Second
	DefaultCheckInterval = time.Second
)

// Pusher is the minimal surface SilenceDetector needs from an EventQueue.
type Pusher interface {
	Push(ev event.Event) bool
}

// Detector watches a shared "last event seen" timestamp and synthesizes a
// silence Event once the threshold has elapsed without one, via Pusher.
type Detector struct {
	mu            sync.Mutex
	threshold     time.Duration
	checkInterval time.Duration
	queue         Pusher
	lastEventAt   time.Time

	stopCh  chan struct{}
	running bool
}

// New constructs a Detector against queue, with the given threshold/check
// interval (DefaultThreshold/DefaultCheckInterval if zero).
func New(queue Pusher, threshold, checkInterval time.Duration) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}
	return &Detector{
		threshold:     threshold,
		checkInterval: checkInterval,
		queue:         queue,
		lastEventAt:   time.Now(),
		stopCh:        make(chan struct{}),
	}
}

// NoteEvent records that a (non-synthetic) event just arrived, resetting
// the silence clock. Producers other than Detector itself call this; the
// tick core is the natural caller since it observes every event drained
// from the queue.
func (d *Detector) NoteEvent() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastEventAt = time.Now()
}

// Start begins the detection loop in a background goroutine.
func (d *Detector) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.mu.Unlock()

	go d.loop()
	logging.Info("silence", "detector started (threshold=%s, check=%s)", d.threshold, d.checkInterval)
}

// Stop halts the detection loop.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		close(d.stopCh)
		d.running = false
	}
}

func (d *Detector) loop() {
	ticker := time.NewTicker(d.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.check()
		}
	}
}

// check emits at most one synthetic silence event per call, and resets the
// silence clock when it does, so consecutive synthetic events are at least
// threshold apart regardless of checkInterval (spec.md §4.11 rate limit).
func (d *Detector) check() {
	d.mu.Lock()
	silentFor := time.Since(d.lastEventAt)
	shouldEmit := silentFor >= d.threshold
	if shouldEmit {
		d.lastEventAt = time.Now()
	}
	d.mu.Unlock()

	if !shouldEmit {
		return
	}

	ev := event.New(uuid.NewString(), event.TypeSilence, 0, time.Now(), map[string]any{
		"detector_generated": true,
		"silence_duration":   silentFor.Seconds(),
	})
	if !d.queue.Push(ev) {
		logging.Debug("silence", "synthetic silence event dropped, queue full")
	}
}
