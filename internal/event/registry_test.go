package event

import "testing"

func TestRegistryNormalizeKnownAndUnknown(t *testing.T) {
	r := NewRegistry()

	if got := r.Normalize(TypeShock); got != TypeShock {
		t.Fatalf("expected known type to pass through, got %v", got)
	}
	if got := r.Normalize(Type("not_a_real_type")); got != TypeUnknown {
		t.Fatalf("expected unknown type to normalize to TypeUnknown, got %v", got)
	}
}

func TestRegistrySealStopsAdd(t *testing.T) {
	r := NewRegistry()
	r.Add(Type("custom_tag"))
	if got := r.Normalize(Type("custom_tag")); got != Type("custom_tag") {
		t.Fatalf("expected pre-seal Add to register the type, got %v", got)
	}

	r.Seal()
	r.Add(Type("too_late"))
	if got := r.Normalize(Type("too_late")); got != TypeUnknown {
		t.Fatalf("expected post-seal Add to be a no-op, got %v", got)
	}
	if !r.Sealed() {
		t.Fatal("expected Sealed to report true after Seal")
	}
}
