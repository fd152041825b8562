package signal

import (
	"reflect"
	"testing"
)

func TestRegisterIfNewAssignsStableIndices(t *testing.T) {
	r := NewRegistry()

	i, isNew := r.RegisterIfNew("RPM")
	if i != 0 || !isNew {
		t.Fatalf("first registration: got (%d, %v)", i, isNew)
	}
	i, isNew = r.RegisterIfNew("Temp")
	if i != 1 || !isNew {
		t.Fatalf("second registration: got (%d, %v)", i, isNew)
	}

	// Re-registering must be idempotent.
	i, isNew = r.RegisterIfNew("RPM")
	if i != 0 || isNew {
		t.Fatalf("re-registration: got (%d, %v)", i, isNew)
	}

	if got := r.Names(); !reflect.DeepEqual(got, []string{"RPM", "Temp"}) {
		t.Fatalf("names: %v", got)
	}
	if r.Len() != 2 {
		t.Fatalf("len: %d", r.Len())
	}
}

func TestNewSignalsDefaultIncluded(t *testing.T) {
	r := NewRegistry()
	r.RegisterIfNew("A")
	if !r.IsIncluded("A") {
		t.Fatal("expected new signal to be included")
	}
}

func TestSetIncludedUnregistered(t *testing.T) {
	r := NewRegistry()
	if r.SetIncluded("ghost", true) {
		t.Fatal("expected false for unregistered name")
	}
	if r.IsIncluded("ghost") {
		t.Fatal("flag must not be created for unknown names")
	}
}

func TestToggleRoundTripKeepsIndex(t *testing.T) {
	r := NewRegistry()
	r.RegisterIfNew("A")
	r.RegisterIfNew("B")

	if !r.SetIncluded("A", false) {
		t.Fatal("toggle off failed")
	}
	if r.IsIncluded("A") {
		t.Fatal("A should be excluded")
	}
	if !r.SetIncluded("A", true) {
		t.Fatal("toggle on failed")
	}

	if i, _ := r.Index("A"); i != 0 {
		t.Fatalf("index changed after toggling: %d", i)
	}
}

func TestNamesReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.RegisterIfNew("A")
	names := r.Names()
	names[0] = "mutated"
	if got := r.Names()[0]; got != "A" {
		t.Fatalf("registry state mutated through snapshot: %q", got)
	}
}
