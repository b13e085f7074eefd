package meaning

import (
	"testing"
	"time"

	"github.com/vthunder/life/internal/event"
	"github.com/vthunder/life/internal/selfstate"
	"github.com/vthunder/life/internal/types"
)

func neutralSnapshot() Snapshot {
	return Snapshot{
		Scalars:          types.Scalars{Energy: 100, Stability: 0.6, Integrity: 1.0},
		LearningParams:   selfstate.NewLearningParams(),
		AdaptationParams: selfstate.NewAdaptationParams(),
	}
}

// TestDeterminism covers R2/R3: identical (event, snapshot) always yields an
// identical Meaning.
func TestDeterminism(t *testing.T) {
	ev := event.New("e1", event.TypeShock, -0.8, time.Unix(0, 0), nil)
	snap := neutralSnapshot()

	first := Process(ev, snap)
	for i := 0; i < 10; i++ {
		got := Process(ev, snap)
		if got.Significance != first.Significance || got.Pattern != first.Pattern {
			t.Fatalf("non-deterministic output on iteration %d: %+v vs %+v", i, got, first)
		}
		for k, v := range first.Impact {
			if got.Impact[k] != v {
				t.Fatalf("impact channel %q differs across calls: %v vs %v", k, got.Impact[k], v)
			}
		}
	}
}

// TestIgnoreYieldsZeroImpact covers the Step D hard requirement.
func TestIgnoreYieldsZeroImpact(t *testing.T) {
	ev := event.New("e2", event.TypeIdle, 0.01, time.Unix(0, 0), nil)
	snap := neutralSnapshot()

	m := Process(ev, snap)
	if m.Pattern != types.PatternIgnore {
		t.Fatalf("expected ignore pattern for near-zero-intensity idle event, got %v (sig=%v)", m.Pattern, m.Significance)
	}
	for k, v := range m.Impact {
		if v != 0 {
			t.Fatalf("expected zero impact for ignore pattern, channel %q = %v", k, v)
		}
	}
}

// TestSignificanceBounded ensures Step A's clamp holds across a range of
// intensities.
func TestSignificanceBounded(t *testing.T) {
	snap := neutralSnapshot()
	for _, intensity := range []float64{-1, -0.5, 0, 0.5, 1} {
		ev := event.New("e3", event.TypeShock, intensity, time.Unix(0, 0), nil)
		m := Process(ev, snap)
		if m.Significance < 0 || m.Significance > 1 {
			t.Fatalf("significance out of [0,1] bound: %v", m.Significance)
		}
	}
}

// TestLowIntegrityAmplifiesSignificance covers the contextual amplification
// rule in Step A.
func TestLowIntegrityAmplifiesSignificance(t *testing.T) {
	ev := event.New("e4", event.TypeNoise, 0.4, time.Unix(0, 0), nil)

	healthy := neutralSnapshot()
	healthy.Scalars.Integrity = 0.9

	fragile := neutralSnapshot()
	fragile.Scalars.Integrity = 0.1

	mHealthy := Process(ev, healthy)
	mFragile := Process(ev, fragile)

	if mFragile.Significance <= mHealthy.Significance {
		t.Fatalf("expected low-integrity snapshot to amplify significance: healthy=%v fragile=%v",
			mHealthy.Significance, mFragile.Significance)
	}
}

// TestStabilityDrivesPatternSelection covers Step C's stability branches.
func TestStabilityDrivesPatternSelection(t *testing.T) {
	ev := event.New("e5", event.TypeShock, -0.9, time.Unix(0, 0), nil)

	stable := neutralSnapshot()
	stable.Scalars.Stability = 0.9
	if got := Process(ev, stable).Pattern; got != types.PatternDampen {
		t.Fatalf("expected dampen at high stability, got %v", got)
	}

	unstable := neutralSnapshot()
	unstable.Scalars.Stability = 0.1
	if got := Process(ev, unstable).Pattern; got != types.PatternAmplify {
		t.Fatalf("expected amplify at low stability, got %v", got)
	}

	mid := neutralSnapshot()
	mid.Scalars.Stability = 0.5
	if got := Process(ev, mid).Pattern; got != types.PatternAbsorb {
		t.Fatalf("expected absorb at mid stability, got %v", got)
	}
}

// TestUnknownTypeZeroImpact covers the "unknown types produce zero base"
// rule from Step B.
func TestUnknownTypeZeroImpact(t *testing.T) {
	ev := event.New("e6", event.Type("totally_unrecognized"), 0.9, time.Unix(0, 0), nil)
	snap := neutralSnapshot()
	snap.Scalars.Stability = 0.1 // force non-ignore pattern so impact isn't masked by Step D zeroing

	m := Process(ev, snap)
	if len(m.Impact) != 0 {
		t.Fatalf("expected empty impact map for unknown event type, got %+v", m.Impact)
	}
}
