// Package prefetch implements StreamSource's internal decode-ahead buffer
// (spec.md §3: "StreamSource ... maintains an internal prefetch buffer").
//
// Adapted from the capture pipeline's internal/jitter ring buffer: jitter.go
// absorbs reordering and gaps across many concurrent network senders, keyed
// by sender ID, priming each sender's stream before it starts draining.
// Here there is exactly one producer (the decoder, read synchronously by
// StreamSource on the mix thread) and one consumer (the mix-thread read), so the per-sender map collapses to a
// single ring and the "missing frame" / stale-sender-pruning logic
// collapses to a simple Ended flag sourced from the decoder.
package prefetch

const ringSize = 32 // must be a power of two, per the source ring's sizing discipline
const ringMask = ringSize - 1

// Buffer is a fixed-capacity ring of decoded stereo frames with
// priming-before-drain semantics: Pop returns nothing until at least depth
// chunks have been Pushed (or SetEnded has been called), matching jitter.Buffer's behavior before it
// reports "primed".
type Buffer struct {
	ring       [ringSize][]float32
	writeIdx   int
	readIdx    int
	count      int
	depth      int
	primed     bool
	ended      bool
}

// New creates a prefetch buffer with the given depth (in decoded chunks)
// to pre-buffer before draining starts. A depth of 2-3 absorbs normal
// decode-thread scheduling jitter without adding perceptible latency.
func New(depth int) *Buffer {
	if depth < 1 {
		depth = 1
	}
	if depth > ringSize/2 {
		depth = ringSize / 2
	}
	return &Buffer{depth: depth}
}

// Push appends one decoded chunk. If the ring is full, the oldest unread
// chunk is dropped to make room (the decode-ahead buffer is a bounded
// lookahead, not a lossless queue).
func (b *Buffer) Push(chunk []float32) {
	if b.count == ringSize {
		b.readIdx = (b.readIdx + 1) & ringMask
		b.count--
	}
	b.ring[b.writeIdx] = chunk
	b.writeIdx = (b.writeIdx + 1) & ringMask
	b.count++
	if !b.primed && b.count >= b.depth {
		b.primed = true
	}
}

// Pop returns the next buffered chunk and true, or nil and false if the
// buffer isn't primed yet or is empty. Once SetEnded has been called there is
// no more decode-ahead coming, so the priming gate is dropped and whatever
// remains drains straight through — otherwise a stream shorter than depth
// chunks would sit forever un-poppable and never report Ended.
func (b *Buffer) Pop() ([]float32, bool) {
	if b.count == 0 {
		return nil, false
	}
	if !b.primed && !b.ended {
		return nil, false
	}
	chunk := b.ring[b.readIdx]
	b.ring[b.readIdx] = nil
	b.readIdx = (b.readIdx + 1) & ringMask
	b.count--
	return chunk, true
}

// SetEnded marks the upstream decoder exhausted; once Pop drains the
// remaining buffered chunks it will keep returning false.
func (b *Buffer) SetEnded() { b.ended = true }

// Ended reports whether the decoder is exhausted and the buffer is drained.
func (b *Buffer) Ended() bool { return b.ended && b.count == 0 }

// Reset clears all buffered chunks and un-primes the buffer.
func (b *Buffer) Reset() {
	*b = Buffer{depth: b.depth}
}
