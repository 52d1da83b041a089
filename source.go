package mixcore

import (
	"math"
	"sort"

	"mixcore/pool"
)

// samplesPerFrame is fixed by the engine's output format: interleaved
// stereo float32, so one frame is always two samples.
const samplesPerFrame = 2

// Node is the sum type spec.md §9 recommends in place of the source repo's
// Source → {Bus, PCMSource, StreamSource} inheritance: every graph node
// implements it, with shared bookkeeping in sourceBase embedded by each
// concrete type.
type Node interface {
	// readImpl fills out (frameCount*samplesPerFrame samples) with this
	// node's own raw audio for the sub-range [frameOffset, frameOffset+
	// frameCount) of the current read, before effects and fades are
	// applied. This is the one method every concrete node supplies itself:
	// PCMSource copies from its buffer, StreamSource pulls from its
	// decoder, Bus sums its children.
	readImpl(out []float32, frameOffset, frameCount int)

	// updateParentClock propagates the tree clock. Trivial for leaves;
	// Bus overrides it to recurse into children with its own clock.
	updateParentClock(pc uint32)

	// release marks the node (and, for a Bus with recursive=true, its
	// children) should_discard, per spec.md §4.4/§4.7.
	release(recursive bool) error

	base() *sourceBase
}

// FadePoint is one endpoint of a linear fade-envelope segment.
type FadePoint struct {
	Clock uint32
	Value float32
}

// sourceBase holds the fields and read pipeline shared by every Node,
// grounded on original_source/insound/core/Source.h (fields) and Source.cpp
// (the read() algorithm this file's Read method ports). Buffers are plain
// []float32 rather than the source's raw byte vectors: Go has no idiomatic
// equivalent of reinterpreting an AlignedVector<uint8_t> as float32 in
// place, so the byte/alignment bookkeeping the C++ source needs is pushed
// to the one place it actually matters — the device boundary in engine.go.
type sourceBase struct {
	engine *Engine
	self   Node // set by the embedding type's constructor; template-method hook

	clock       uint32
	parentClock uint32

	paused         bool
	pauseClock     int64 // -1 => none
	unpauseClock   int64 // -1 => none
	releaseOnPause bool

	fadeValue  float32
	fadePoints []FadePoint

	effects []pool.Handle[Effect]
	panner  pool.Handle[Effect]
	volume  pool.Handle[Effect]

	outBuffer []float32
	inBuffer  []float32

	shouldDiscardFlag bool
}

func newSourceBase(e *Engine) sourceBase {
	return sourceBase{
		engine:       e,
		pauseClock:   -1,
		unpauseClock: -1,
		fadeValue:    1.0,
	}
}

func (b *sourceBase) base() *sourceBase { return b }

func (b *sourceBase) shouldDiscard() bool { return b.shouldDiscardFlag }

// ensureBuffers grows both scratch buffers to at least n samples and zeroes
// the output scratch, per spec.md §4.3 step 1.
func (b *sourceBase) ensureBuffers(n int) {
	if cap(b.outBuffer) < n {
		b.outBuffer = make([]float32, n)
	} else {
		b.outBuffer = b.outBuffer[:n]
		clear(b.outBuffer)
	}
	if cap(b.inBuffer) < n {
		b.inBuffer = make([]float32, n)
	} else {
		b.inBuffer = b.inBuffer[:n]
	}
}

// Read performs the full per-source pipeline of spec.md §4.3: pause
// scheduling, readImpl for running sub-ranges, effect chain, fade envelope,
// fade-point compaction, clock bookkeeping. frameCount is the number of
// stereo frames requested; the returned slice always has
// frameCount*samplesPerFrame samples (silence included — a source always
// "fills" its request).
func (b *sourceBase) Read(frameCount int) []float32 {
	n := frameCount * samplesPerFrame
	b.ensureBuffers(n)

	b.walkPauseWindow(frameCount)
	b.applyEffects(n)
	b.applyFade(frameCount)

	b.clock += uint32(frameCount)
	return b.outBuffer
}

// walkPauseWindow implements spec.md §4.3 step 2: walk the request in
// sub-ranges split by the pending pause/unpause clocks, writing silence for
// paused sub-ranges and delegating to readImpl for running ones.
func (b *sourceBase) walkPauseWindow(frameCount int) {
	i := 0
	for i < frameCount {
		frameClock := int64(b.parentClock) + int64(i)

		if b.paused {
			if b.unpauseClock >= 0 {
				until := b.unpauseClock - frameClock
				if until < 0 {
					until = 0
				}
				n := int(until)
				if n > frameCount-i {
					n = frameCount - i
				}
				// Silence is already present in the zeroed output buffer.
				i += n
				if i < frameCount && int64(b.parentClock)+int64(i) >= b.unpauseClock {
					b.unpauseClock = -1
					if b.pauseClock >= 0 && b.pauseClock <= int64(b.parentClock)+int64(i) {
						b.pauseClock = -1
					}
					b.paused = false
				}
				continue
			}
			// No scheduled unpause: silence for the remainder of the chunk.
			i = frameCount
			continue
		}

		// Running.
		runUntil := frameCount
		if b.pauseClock >= 0 {
			until := b.pauseClock - frameClock
			if until < int64(frameCount-i) {
				if until < 0 {
					until = 0
				}
				runUntil = i + int(until)
			}
		}
		n := runUntil - i
		if n > 0 {
			b.self.readImpl(b.outBuffer[i*samplesPerFrame:(i+n)*samplesPerFrame], i, n)
			i += n
		}
		if i < frameCount && b.pauseClock >= 0 && int64(b.parentClock)+int64(i) >= b.pauseClock {
			if b.unpauseClock >= 0 && b.unpauseClock <= b.pauseClock {
				b.unpauseClock = -1
			}
			b.paused = true
			b.pauseClock = -1
			if b.releaseOnPause {
				b.shouldDiscardFlag = true
				b.releaseOnPause = false
				return
			}
			continue
		}
		if n == 0 {
			// Defensive: avoid spinning if offsets degenerate.
			i = frameCount
		}
	}
}

// applyEffects runs the effect chain in order over b.outBuffer, per
// spec.md §4.3 step 3 / §4.5. An effect that reports it wrote output causes
// a buffer swap; one that reports bypass leaves the buffers untouched.
func (b *sourceBase) applyEffects(count int) {
	for _, h := range b.effects {
		eff, ok := pool.Get(b.engine.pool, h)
		if !ok {
			continue // released between enqueue and this pull; skip silently
		}
		wrote := eff.Process(b.outBuffer[:count], b.inBuffer[:count], count)
		if wrote {
			b.outBuffer, b.inBuffer = b.inBuffer, b.outBuffer
			clear(b.inBuffer)
		}
	}
}

// applyFade walks the output frame by frame interpolating the fade
// envelope, per spec.md §4.3 step 4, then compacts stale fade points
// (step 5, tightened per SPEC_FULL.md: every point before the last active
// segment's start is erased, and that start point itself is kept).
func (b *sourceBase) applyFade(frameCount int) {
	if len(b.fadePoints) == 0 {
		if b.fadeValue != 1.0 {
			scaleBuffer(b.outBuffer[:frameCount*samplesPerFrame], b.fadeValue)
		}
		return
	}

	lastFadeIndex := -1
	for i := 0; i < frameCount; i++ {
		fadeClock := b.parentClock + uint32(i)
		idx := findFadeSegment(b.fadePoints, fadeClock)
		lastFadeIndex = idx

		var value float32
		if idx+1 < len(b.fadePoints) {
			p0, p1 := b.fadePoints[idx], b.fadePoints[idx+1]
			if p1.Clock == p0.Clock {
				value = p1.Value
			} else {
				t := float32(fadeClock-p0.Clock) / float32(p1.Clock-p0.Clock)
				value = p0.Value + (p1.Value-p0.Value)*t
			}
		} else {
			value = b.fadePoints[idx].Value
		}
		b.fadeValue = value

		off := i * samplesPerFrame
		scaleBuffer(b.outBuffer[off:off+samplesPerFrame], value)
	}

	if lastFadeIndex > 0 {
		b.fadePoints = append([]FadePoint(nil), b.fadePoints[lastFadeIndex:]...)
	}
}

// findFadeSegment returns the index of the last fade point with
// clock <= target (binary search since fadePoints is kept sorted).
func findFadeSegment(points []FadePoint, target uint32) int {
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].Clock > target
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

func scaleBuffer(buf []float32, gain float32) {
	if gain == 1.0 {
		return
	}
	for i := range buf {
		buf[i] *= gain
	}
}

// addFadePoint inserts or replaces (by clock) one fade envelope point,
// keeping fadePoints strictly sorted and deduplicated per spec.md §3.
func (b *sourceBase) addFadePoint(fp FadePoint) {
	i := sort.Search(len(b.fadePoints), func(i int) bool {
		return b.fadePoints[i].Clock >= fp.Clock
	})
	if i < len(b.fadePoints) && b.fadePoints[i].Clock == fp.Clock {
		b.fadePoints[i].Value = fp.Value
		return
	}
	b.fadePoints = append(b.fadePoints, FadePoint{})
	copy(b.fadePoints[i+1:], b.fadePoints[i:])
	b.fadePoints[i] = fp
}

// removeFadePoints drops every fade point with clock in [start, end).
func (b *sourceBase) removeFadePoints(start, end uint32) {
	out := b.fadePoints[:0]
	for _, p := range b.fadePoints {
		if p.Clock >= start && p.Clock < end {
			continue
		}
		out = append(out, p)
	}
	b.fadePoints = out
}

// fadeTo implements spec.md §4.2's AddFadeTo: remove points in
// [parentClock, targetClock], insert (parentClock, currentValue) and
// (targetClock, targetValue).
func (b *sourceBase) fadeTo(targetValue float32, targetClock uint32) {
	b.removeFadePoints(b.parentClock, targetClock+1)
	b.addFadePoint(FadePoint{Clock: b.parentClock, Value: b.fadeValue})
	b.addFadePoint(FadePoint{Clock: targetClock, Value: targetValue})
}

// setPause applies spec.md §4.2's pause/unpause clock-snapping semantics.
// Per SPEC_FULL.md's documented fix, releaseOnPause is reset whenever the
// pending pause clock is replaced rather than left to persist silently.
// An explicit clock value of math.MaxUint32 means "now": it snaps to
// parentClock immediately rather than being treated as a far-future clock.
func (b *sourceBase) setPause(pauseClock, unpauseClock int64, releaseOnPause bool) {
	if pauseClock >= 0 {
		if pauseClock == int64(math.MaxUint32) || pauseClock < int64(b.parentClock) {
			pauseClock = int64(b.parentClock)
		}
		b.pauseClock = pauseClock
		b.releaseOnPause = releaseOnPause
	}
	if unpauseClock >= 0 {
		if unpauseClock == int64(math.MaxUint32) || unpauseClock < int64(b.parentClock) {
			unpauseClock = int64(b.parentClock)
		}
		b.unpauseClock = unpauseClock
	}
}

func (b *sourceBase) updateParentClock(pc uint32) { b.parentClock = pc }

func (b *sourceBase) getClock() uint32       { return b.clock }
func (b *sourceBase) getParentClock() uint32 { return b.parentClock }
func (b *sourceBase) getPaused() bool        { return b.paused }
func (b *sourceBase) getFadeValue() float32  { return b.fadeValue }
