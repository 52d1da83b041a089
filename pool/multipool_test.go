package pool

import (
	"errors"
	"testing"
)

type widget struct {
	name     string
	released bool
}

func TestMultiPoolAllocateRunsInit(t *testing.T) {
	m := NewMultiPool()
	h, err := Allocate(m, widget{}, func(w *widget) error {
		w.name = "gadget"
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := Get(m, h)
	if !ok || v.name != "gadget" {
		t.Fatalf("init did not run: %+v %v", v, ok)
	}
}

func TestMultiPoolAllocateRollsBackOnInitError(t *testing.T) {
	m := NewMultiPool()
	wantErr := errors.New("boom")
	_, err := Allocate(m, widget{}, func(w *widget) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected init error, got %v", err)
	}
	if Len[widget](m) != 0 {
		t.Fatal("failed init must not leave a slot allocated")
	}
}

func TestMultiPoolDeallocateRunsRelease(t *testing.T) {
	m := NewMultiPool()
	h, _ := Allocate(m, widget{name: "a"}, nil)
	ran := false
	Deallocate(m, h, func(w *widget) { w.released = true; ran = true })
	if !ran {
		t.Fatal("Deallocate must run the release hook")
	}
	if h.IsValid() {
		t.Fatal("handle must be invalid after Deallocate")
	}
}

func TestMultiPoolKeepsDistinctTypesSeparate(t *testing.T) {
	m := NewMultiPool()
	type other struct{ n int }
	hw, _ := Allocate(m, widget{name: "w"}, nil)
	ho, _ := Allocate(m, other{n: 9}, nil)

	w, ok := Get(m, hw)
	if !ok || w.name != "w" {
		t.Fatal("widget pool corrupted")
	}
	o, ok := Get(m, ho)
	if !ok || o.n != 9 {
		t.Fatal("other pool corrupted")
	}
}
