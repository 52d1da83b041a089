package mixcore

import "testing"

// testNode is a minimal Node that fills every sample with a constant value,
// used to exercise sourceBase's pause/fade/effect pipeline in isolation from
// any concrete source type.
type testNode struct {
	sourceBase
	value float32
}

func newTestNode(value float32) *testNode {
	n := &testNode{sourceBase: newSourceBase(nil), value: value}
	n.self = n
	return n
}

func (n *testNode) readImpl(out []float32, frameOffset, frameCount int) {
	for i := range out {
		out[i] = n.value
	}
}

func (n *testNode) release(bool) error {
	n.shouldDiscardFlag = true
	return nil
}

func TestSourceBasePauseScheduledExactBoundary(t *testing.T) {
	n := newTestNode(1.0)
	n.setPause(100, -1, false)

	out := n.Read(150)

	for f := 0; f < 100; f++ {
		if out[f*samplesPerFrame] != 1.0 {
			t.Fatalf("expected frame %d running (1.0), got %v", f, out[f*samplesPerFrame])
		}
	}
	for f := 100; f < 150; f++ {
		if out[f*samplesPerFrame] != 0 {
			t.Fatalf("expected frame %d silent after pause boundary, got %v", f, out[f*samplesPerFrame])
		}
	}
	if !n.getPaused() {
		t.Fatal("expected source to report paused after crossing the pause clock")
	}
}

func TestSourceBaseReleaseOnPauseMarksDiscard(t *testing.T) {
	n := newTestNode(1.0)
	n.setPause(0, -1, true)

	n.Read(10)

	if !n.shouldDiscard() {
		t.Fatal("expected releaseOnPause to mark the node for discard once the pause clock is crossed")
	}
}

func TestSourceBaseSetPauseResetsReleaseOnPauseWhenReplaced(t *testing.T) {
	n := newTestNode(1.0)
	n.setPause(50, -1, true)
	// Replacing the pending pause clock before it fires must drop the stale
	// releaseOnPause flag rather than let it persist silently.
	n.setPause(50, -1, false)

	n.Read(100)

	if n.shouldDiscard() {
		t.Fatal("expected releaseOnPause to have been cleared by the second setPause call")
	}
}

func TestSourceBaseFadeLinearInterpolation(t *testing.T) {
	n := newTestNode(1.0)
	n.addFadePoint(FadePoint{Clock: 0, Value: 1.0})
	n.addFadePoint(FadePoint{Clock: 100, Value: 0.0})

	out := n.Read(101)

	if out[0] != 1.0 {
		t.Fatalf("expected full volume at clock 0, got %v", out[0])
	}
	mid := out[50*samplesPerFrame]
	if mid < 0.49 || mid > 0.51 {
		t.Fatalf("expected ~0.5 at the fade's midpoint, got %v", mid)
	}
	last := out[100*samplesPerFrame]
	if last != 0 {
		t.Fatalf("expected silence at the fade's end, got %v", last)
	}
}

func TestSourceBaseFadePointCompactionDropsConsumedPoints(t *testing.T) {
	n := newTestNode(1.0)
	n.addFadePoint(FadePoint{Clock: 0, Value: 1.0})
	n.addFadePoint(FadePoint{Clock: 10, Value: 0.0})
	n.addFadePoint(FadePoint{Clock: 20, Value: 1.0})

	n.Read(15) // runs past the clock-10 point

	for _, p := range n.fadePoints {
		if p.Clock < 10 {
			t.Fatalf("expected fade points before clock 10 to be compacted away, found %+v", p)
		}
	}
}

func TestSourceBaseFadeToInsertsEndpoints(t *testing.T) {
	n := newTestNode(1.0)
	n.fadeTo(0.0, 50)

	if len(n.fadePoints) != 2 {
		t.Fatalf("expected fadeTo to insert exactly two points, got %d", len(n.fadePoints))
	}
	if n.fadePoints[0].Clock != 0 || n.fadePoints[0].Value != 1.0 {
		t.Fatalf("expected starting point (0, currentValue), got %+v", n.fadePoints[0])
	}
	if n.fadePoints[1].Clock != 50 || n.fadePoints[1].Value != 0.0 {
		t.Fatalf("expected ending point (50, target), got %+v", n.fadePoints[1])
	}
}
