package entity

import (
	"testing"
)

type thing struct {
	Base
}

func TestRegistryAssignsSequentialIDs(t *testing.T) {
	r := NewRegistry()
	a := &thing{Base{Name: "a", Kind: "thing"}}
	b := &thing{Base{Name: "b", Kind: "thing"}}
	if id := r.Add(a); id != 0 {
		t.Fatalf("first id = %d, want 0", id)
	}
	if id := r.Add(b); id != 1 {
		t.Fatalf("second id = %d, want 1", id)
	}
	got, err := r.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.EntityName() != "b" {
		t.Fatalf("got %q, want b", got.EntityName())
	}
}

func TestRegistryDistinguishesMissingFromDead(t *testing.T) {
	r := NewRegistry()
	id := r.Add(&thing{Base{Name: "a", Kind: "thing"}})

	if _, err := r.Get(99); !IsNotExist(err) {
		t.Fatalf("unallocated id: got %v, want not-exist", err)
	}
	if _, err := r.Get(None); !IsNotExist(err) {
		t.Fatalf("negative id: got %v, want not-exist", err)
	}

	r.Kill(id)
	if _, err := r.Get(id); !IsDead(err) {
		t.Fatalf("killed id: got %v, want dead", err)
	}
	if r.Len() != 0 {
		t.Fatalf("len = %d after kill, want 0", r.Len())
	}

	// Both failure modes count as gone.
	_, errMissing := r.Get(99)
	_, errDead := r.Get(id)
	if !IsGone(errMissing) || !IsGone(errDead) {
		t.Fatalf("IsGone should cover both failure modes")
	}
}

func TestKillUnknownIDIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Kill(42) // must not panic
	if r.Len() != 0 {
		t.Fatalf("len = %d, want 0", r.Len())
	}
}

func TestEachVisitsInIDOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"a", "b", "c"}
	for _, n := range names {
		r.Add(&thing{Base{Name: n, Kind: "thing"}})
	}
	r.Kill(1)
	var seen []string
	r.Each(func(e Entity) { seen = append(seen, e.EntityName()) })
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "c" {
		t.Fatalf("seen = %v, want [a c]", seen)
	}
}
