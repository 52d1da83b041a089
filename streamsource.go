package mixcore

import (
	"mixcore/internal/convert"
	"mixcore/internal/prefetch"
)

// decodeChunkFrames is how many frames each Decoder.ReadFrames call fetches
// into the prefetch ring; matched to a typical device buffer size.
const decodeChunkFrames = 1024

// streamSource is a Node pulling from an incremental Decoder through a
// format-converting prefetch buffer, grounded on
// original_source/insound/core/StreamSource.h/.cpp.
type streamSource struct {
	sourceBase
	decoder Decoder
	buf     *prefetch.Buffer

	current    []float32 // current chunk being drained
	currentPos int       // read offset into current, in samples
}

func newStreamSource(e *Engine, dec Decoder) *streamSource {
	s := &streamSource{
		sourceBase: newSourceBase(e),
		decoder:    dec,
		buf:        prefetch.New(3),
	}
	s.self = s
	return s
}

// readImpl implements spec.md §4.6's streaming analogue: drain prefetched,
// already-converted stereo frames into out, pulling and converting more
// from the decoder as the prefetch buffer runs low, per spec.md §3's
// "maintains an internal prefetch buffer."
func (s *streamSource) readImpl(out []float32, frameOffset, frameCount int) {
	need := frameCount * samplesPerFrame
	written := 0

	for written < need {
		if s.current == nil || s.currentPos >= len(s.current) {
			chunk, ok := s.buf.Pop()
			for !ok && !s.buf.Ended() {
				// Decode until the ring is primed (or the decoder runs out).
				s.fillPrefetch()
				chunk, ok = s.buf.Pop()
			}
			if !ok {
				break // decoder exhausted and prefetch drained: silence for the rest
			}
			s.current = chunk
			s.currentPos = 0
		}
		n := copy(out[written:need], s.current[s.currentPos:])
		s.currentPos += n
		written += n
	}

	if s.decoder.IsEnded() && s.buf.Ended() && written == 0 {
		s.shouldDiscardFlag = true
	}
}

// fillPrefetch decodes one chunk from the decoder, converts it to stereo
// float32, and pushes it onto the prefetch ring.
func (s *streamSource) fillPrefetch() {
	if s.decoder.IsEnded() {
		s.buf.SetEnded()
		return
	}
	native := make([]float32, decodeChunkFrames*s.decoder.Channels())
	n, err := s.decoder.ReadFrames(native)
	if err != nil || n == 0 {
		s.buf.SetEnded()
		return
	}
	native = native[:n*s.decoder.Channels()]
	s.buf.Push(convert.ToStereo(native, s.decoder.Channels()))
}

func (s *streamSource) release(bool) error {
	s.shouldDiscardFlag = true
	_ = s.decoder.Close()
	return nil
}

// SetPosition seeks the underlying decoder and resets the prefetch buffer,
// since buffered frames from before the seek are no longer valid.
func (s *streamSource) SetPosition(unit TimeUnit, pos float64) error {
	if err := s.decoder.SetPosition(unit, pos); err != nil {
		return err
	}
	s.buf.Reset()
	s.current = nil
	s.currentPos = 0
	return nil
}
