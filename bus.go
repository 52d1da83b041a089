package mixcore

import "mixcore/pool"

// bus is a Node that sums its children, grounded on
// original_source/insound/core/Bus.cpp. It forms the interior of the mix
// graph; the master bus (isMaster==true) is the graph root and feeds the
// device.
type bus struct {
	sourceBase
	children []pool.Handle[Node]
	parent   pool.Handle[Node] // invalid/zero for the master and for a bus not yet attached
	isMaster bool
}

func newBus(e *Engine, isMaster bool) *bus {
	b := &bus{sourceBase: newSourceBase(e), isMaster: isMaster}
	b.self = b
	return b
}

// readImpl implements spec.md §4.4's read_impl: read every child (which
// itself runs the full per-child pipeline) and sum into out. The source's
// SIMD 4-at-a-time inner loop is a performance detail (§9: not a correctness
// requirement); this is the scalar reference path.
func (b *bus) readImpl(out []float32, frameOffset, frameCount int) {
	for _, ch := range b.children {
		n, ok := pool.Get(b.engine.pool, ch)
		if !ok {
			continue
		}
		childOut := n.base().Read(frameCount)
		for i := range out {
			out[i] += childOut[i]
		}
		// A source can self-close mid-read (a non-looping one-shot running
		// past its end, or a stream hitting EOF); flag the engine so the
		// next Update sweeps it, matching an explicit ReleaseSourceCommand.
		if n.base().shouldDiscard() {
			b.engine.discardFlag.Store(true)
		}
	}
}

// updateParentClock overrides sourceBase's trivial setter: a bus propagates
// its OWN clock (not the value it was just given) down to its children, per
// spec.md §4.4.
func (b *bus) updateParentClock(pc uint32) {
	b.sourceBase.updateParentClock(pc)
	for _, ch := range b.children {
		n, ok := pool.Get(b.engine.pool, ch)
		if !ok {
			continue
		}
		n.updateParentClock(b.clock)
	}
}

// applyAppendSource implements spec.md §4.4's AppendSource: if child is
// itself a Bus parented elsewhere, it is detached from its old parent first
// (this is the cycle-prevention / re-parenting mechanism — a bus can only
// ever have one parent at a time).
func (b *bus) applyAppendSource(e *Engine, child pool.Handle[Node]) {
	n, ok := pool.Get(e.pool, child)
	if !ok {
		return
	}
	if childBus, ok := n.(*bus); ok {
		if childBus.parent.IsValid() {
			if oldParent, ok := pool.Get(e.pool, childBus.parent); ok {
				if op, ok := oldParent.(*bus); ok {
					op.applyRemoveSource(child)
				}
			}
		}
		childBus.parent = handleOf(e, b)
	}
	b.children = append(b.children, child)
}

func (b *bus) applyRemoveSource(child pool.Handle[Node]) {
	for i, h := range b.children {
		if h.Equal(child) {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return
		}
	}
}

// processRemovals implements spec.md §4.4's removal sweep: recurse into
// sub-buses first, then drop any child with should_discard set, returning
// its slot to the pool via the engine.
func (b *bus) processRemovals(e *Engine) {
	kept := b.children[:0]
	for _, h := range b.children {
		n, ok := pool.Get(e.pool, h)
		if !ok {
			continue
		}
		if childBus, ok := n.(*bus); ok {
			childBus.processRemovals(e)
		}
		if n.base().shouldDiscard() {
			e.destroyNode(h)
			continue
		}
		kept = append(kept, h)
	}
	b.children = kept
}

// release implements spec.md §4.4's release policy: the master bus can
// never be released by client code; a non-recursive release re-parents
// every child to the master before marking itself for discard; a recursive
// release releases every child first (recursing into sub-buses, calling
// plain release() on leaf sources — not close/discard directly, matching
// the source's distinction), then marks itself regardless of partial child
// failures.
func (b *bus) release(recursive bool) error {
	if b.isMaster {
		return logicErr("Bus.Release", "master bus cannot be released")
	}
	if recursive {
		for _, h := range b.children {
			n, ok := pool.Get(b.engine.pool, h)
			if !ok {
				continue
			}
			if childBus, ok := n.(*bus); ok {
				_ = childBus.release(true)
			} else {
				_ = n.release(false)
			}
		}
	} else {
		master := b.engine.master
		// applyAppendSource re-parents a Bus child by detaching it from its old
		// parent (this bus), which mutates b.children in place; range over a
		// snapshot so that detach doesn't shift the backing array out from
		// under the iteration and skip or double-process a sibling.
		children := append([]pool.Handle[Node](nil), b.children...)
		for _, h := range children {
			if _, ok := pool.Get(b.engine.pool, h); !ok {
				continue
			}
			if masterBus, ok := pool.Get(b.engine.pool, master); ok {
				if mb, ok := masterBus.(*bus); ok {
					mb.applyAppendSource(b.engine, h)
				}
			}
		}
		b.children = nil
	}
	b.shouldDiscardFlag = true
	return nil
}

// handleOf looks up the pool handle currently referencing b. Grounded on
// original_source's try_find (an inverse lookup by pointer); here the
// engine keeps a side map from *bus to its own handle since that is the
// only place the source needs it (re-parenting).
func handleOf(e *Engine, b *bus) pool.Handle[Node] {
	return e.handleForBus(b)
}
