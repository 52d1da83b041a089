package mixcore

import (
	"testing"

	"mixcore/devicetest"
	"mixcore/pool"
)

func busChildren(t *testing.T, e *Engine, h pool.Handle[Node]) []pool.Handle[Node] {
	t.Helper()
	n, ok := pool.Get(e.pool, h)
	if !ok {
		t.Fatalf("handle %v is not a live node", h)
	}
	b, ok := n.(*bus)
	if !ok {
		t.Fatalf("handle %v is not a bus", h)
	}
	return b.children
}

func TestBusReparentingMovesChildToNewParent(t *testing.T) {
	e := NewEngine(EngineOptions{})
	if err := e.Open(48000, 64, devicetest.New()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer e.Close()

	busA, err := e.CreateBus(false, e.Master(), false)
	if err != nil {
		t.Fatalf("CreateBus A failed: %v", err)
	}
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	busB, err := e.CreateBus(false, e.Master(), false)
	if err != nil {
		t.Fatalf("CreateBus B failed: %v", err)
	}
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	for _, h := range busChildren(t, e, e.Master()) {
		if !h.Equal(busA) && !h.Equal(busB) {
			t.Fatalf("unexpected child of master: %v", h)
		}
	}

	// Re-parent busB under busA; busB must be detached from master first.
	e.PushCommand(AppendSourceCommand{Bus: busA, Child: busB})
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	for _, h := range busChildren(t, e, e.Master()) {
		if h.Equal(busB) {
			t.Fatal("expected busB removed from master's children after re-parenting")
		}
	}

	found := false
	for _, h := range busChildren(t, e, busA) {
		if h.Equal(busB) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected busB to appear in busA's children after re-parenting")
	}
}

func TestBusNonRecursiveReleaseReparentsChildrenToMaster(t *testing.T) {
	e := NewEngine(EngineOptions{})
	if err := e.Open(48000, 64, devicetest.New()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer e.Close()

	subBus, err := e.CreateBus(false, e.Master(), false)
	if err != nil {
		t.Fatalf("CreateBus failed: %v", err)
	}
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	buf := toneBuffer(16, 0.25)
	leaf, err := e.PlaySound(buf, false, false, false, subBus)
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}

	Release(e, subBus, false)
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found := false
	for _, h := range busChildren(t, e, e.Master()) {
		if h.Equal(leaf) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the leaf source to be re-parented to master after its bus's non-recursive release")
	}
	if _, ok := pool.Get(e.pool, subBus); ok {
		t.Fatal("expected the released sub-bus handle to be invalid")
	}
}

func TestBusNonRecursiveReleaseReparentsMixedChildrenToMaster(t *testing.T) {
	e := NewEngine(EngineOptions{})
	if err := e.Open(48000, 64, devicetest.New()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer e.Close()

	subBus, err := e.CreateBus(false, e.Master(), false)
	if err != nil {
		t.Fatalf("CreateBus failed: %v", err)
	}
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// subBus gets a mix of bus and leaf children: re-parenting a bus child
	// detaches it from subBus in place (via applyRemoveSource), which must
	// not cause the leaf sandwiched between two bus children to be skipped.
	grandBusX, err := e.CreateBus(false, subBus, false)
	if err != nil {
		t.Fatalf("CreateBus grandBusX failed: %v", err)
	}
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	buf := toneBuffer(16, 0.25)
	leafY, err := e.PlaySound(buf, false, false, false, subBus)
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}

	grandBusZ, err := e.CreateBus(false, subBus, false)
	if err != nil {
		t.Fatalf("CreateBus grandBusZ failed: %v", err)
	}
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	Release(e, subBus, false)
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	masterChildren := busChildren(t, e, e.Master())
	for _, want := range []pool.Handle[Node]{grandBusX, leafY, grandBusZ} {
		found := false
		for _, h := range masterChildren {
			if h.Equal(want) {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected child %v to be re-parented to master after subBus's non-recursive release", want)
		}
	}
}

func TestBusRecursiveReleaseDiscardsChildren(t *testing.T) {
	e := NewEngine(EngineOptions{})
	if err := e.Open(48000, 64, devicetest.New()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer e.Close()

	subBus, err := e.CreateBus(false, e.Master(), false)
	if err != nil {
		t.Fatalf("CreateBus failed: %v", err)
	}
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	buf := toneBuffer(16, 0.25)
	leaf, err := e.PlaySound(buf, false, false, false, subBus)
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}

	Release(e, subBus, true)
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, ok := pool.Get(e.pool, leaf); ok {
		t.Fatal("expected the leaf source to be discarded by its bus's recursive release")
	}
}

func TestMasterBusCannotBeReleased(t *testing.T) {
	e := NewEngine(EngineOptions{})
	if err := e.Open(48000, 64, devicetest.New()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer e.Close()

	Release(e, e.Master(), true)
	if err := e.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, ok := pool.Get(e.pool, e.Master()); !ok {
		t.Fatal("expected the master bus to remain valid: it must refuse release")
	}
}
