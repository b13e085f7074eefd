package action

import (
	"strings"
	"testing"

	"github.com/vthunder/life/internal/selfstate"
	"github.com/vthunder/life/internal/types"
)

func TestExecuteAppliesClampedDelta(t *testing.T) {
	s := selfstate.New()
	s.AdvanceTick(1)

	res := Execute(s, types.PatternAbsorb, map[string]float64{"energy": -1000})
	if res.StateAfter.Energy != 0 {
		t.Fatalf("expected energy clamped to 0, got %v", res.StateAfter.Energy)
	}
	if res.StateBefore.Energy != selfstate.EnergyMax {
		t.Fatalf("expected state_before to reflect pre-delta energy, got %v", res.StateBefore.Energy)
	}
}

func TestExecuteActionIDFormat(t *testing.T) {
	s := selfstate.New()
	s.AdvanceTick(5)

	res := Execute(s, types.PatternAmplify, map[string]float64{"energy": -1})
	parts := strings.Split(res.ActionID, "_")
	if len(parts) != 4 || parts[0] != "action" {
		t.Fatalf("expected action_<tick>_<pattern>_<ms> shape, got %q", res.ActionID)
	}
	if parts[1] != "5" {
		t.Fatalf("expected tick component 5, got %q", parts[1])
	}
	if parts[2] != string(types.PatternAmplify) {
		t.Fatalf("expected pattern component %q, got %q", types.PatternAmplify, parts[2])
	}
}

func TestSignatureDeterministic(t *testing.T) {
	a := Signature("shock", types.PatternAbsorb, 0.42)
	b := Signature("shock", types.PatternAbsorb, 0.42)
	if a != b {
		t.Fatalf("expected identical inputs to produce identical signatures: %q vs %q", a, b)
	}
	c := Signature("shock", types.PatternAbsorb, 0.43)
	if a == c {
		t.Fatal("expected differing significance to change the signature")
	}
}
