package silence

import (
	"sync"
	"testing"
	"time"

	"github.com/vthunder/life/internal/event"
)

type fakeQueue struct {
	mu     sync.Mutex
	pushed []event.Event
}

func (f *fakeQueue) Push(ev event.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, ev)
	return true
}

func (f *fakeQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed)
}

func TestDetectorEmitsAfterThreshold(t *testing.T) {
	q := &fakeQueue{}
	d := New(q, 20*time.Millisecond, 5*time.Millisecond)
	d.Start()
	defer d.Stop()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if q.count() > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if q.count() == 0 {
		t.Fatal("expected at least one synthetic silence event")
	}

	q.mu.Lock()
	ev := q.pushed[0]
	q.mu.Unlock()
	if ev.Type != event.TypeSilence {
		t.Fatalf("expected silence event type, got %s", ev.Type)
	}
	if !ev.DetectorGenerated() {
		t.Fatal("expected detector_generated=true")
	}
}

func TestNoteEventResetsClock(t *testing.T) {
	q := &fakeQueue{}
	d := New(q, 20*time.Millisecond, 5*time.Millisecond)
	d.Start()
	defer d.Stop()

	stop := time.Now().Add(30 * time.Millisecond)
	for time.Now().Before(stop) {
		d.NoteEvent()
		time.Sleep(2 * time.Millisecond)
	}
	if q.count() != 0 {
		t.Fatalf("expected no synthetic events while NoteEvent keeps resetting the clock, got %d", q.count())
	}
}
