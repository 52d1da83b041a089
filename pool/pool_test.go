package pool

import "testing"

func TestAllocateDeallocateHandleReuse(t *testing.T) {
	p := New[int](0)

	h1 := p.Allocate(1)
	if !h1.IsValid() {
		t.Fatal("h1 should be valid immediately after allocate")
	}

	p.Deallocate(h1)
	if h1.IsValid() {
		t.Fatal("h1 should be invalid after deallocate")
	}

	h2 := p.Allocate(2)
	if !h2.IsValid() {
		t.Fatal("h2 should be valid after allocate")
	}
	if h1.Equal(h2) {
		t.Fatal("h1 and h2 must not compare equal even if they share an index")
	}
	if h1.id.gen == h2.id.gen {
		t.Fatal("generation must strictly increase across allocate/deallocate/allocate")
	}
}

func TestExpansionPreservesHandles(t *testing.T) {
	p := New[int](0)
	var handles []Handle[int]
	for i := 0; i < 50; i++ {
		handles = append(handles, p.Allocate(i))
	}
	for i, h := range handles {
		v, ok := p.Get(h)
		if !ok || v != i {
			t.Fatalf("handle %d invalidated or corrupted by expansion: got (%v,%v)", i, v, ok)
		}
	}
}

func TestGetOnStaleHandleNeverPanics(t *testing.T) {
	p := New[int](0)
	h := p.Allocate(7)
	p.Deallocate(h)
	if v, ok := p.Get(h); ok || v != 0 {
		t.Fatalf("expected zero value and false, got (%v, %v)", v, ok)
	}
}

func TestZeroHandleIsNeverValid(t *testing.T) {
	var h Handle[int]
	if h.IsValid() {
		t.Fatal("zero Handle must never be valid")
	}
}

func TestUpdateMutatesInPlace(t *testing.T) {
	p := New[int](0)
	h := p.Allocate(1)
	p.Update(h, func(v *int) { *v += 41 })
	v, ok := p.Get(h)
	if !ok || v != 42 {
		t.Fatalf("expected 42, got (%v, %v)", v, ok)
	}
}
