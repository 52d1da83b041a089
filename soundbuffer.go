package mixcore

import "sync/atomic"

// AudioSpec describes the format a SoundBuffer's samples are stored in.
// The mix core only ever operates on one format — interleaved stereo
// float32 — so this is purely descriptive metadata passed through from the
// external loader (spec.md §6).
type AudioSpec struct {
	SampleRate int
	Channels   int
}

// Marker is a named sample-accurate point in a SoundBuffer, grounded on
// original_source/insound/core/Marker.h. Purely descriptive: PCMSource does
// not act on markers, it only exposes them via SoundBuffer.Markers for a
// host to query (e.g. for loop-region UI), since spec.md's PCM looping
// contract is whole-buffer only.
type Marker struct {
	Name  string
	Clock uint32
}

// SoundBuffer carries decoded, already-converted-to-engine-format PCM data,
// per spec.md §6. Data is held behind an atomic pointer so a loader can
// swap a buffer's contents while sources are mid-read without a torn read,
// per spec.md §5's resource-ownership note and
// original_source/insound/core/SoundBuffer.h's atomic data pointer.
type SoundBuffer struct {
	data    atomic.Pointer[[]float32]
	Spec    AudioSpec
	markers []Marker
}

// NewSoundBuffer wraps samples (interleaved stereo float32) as a SoundBuffer.
func NewSoundBuffer(samples []float32, spec AudioSpec) *SoundBuffer {
	b := &SoundBuffer{Spec: spec}
	b.data.Store(&samples)
	return b
}

// Samples returns the buffer's current sample data. Safe to call
// concurrently with Swap.
func (b *SoundBuffer) Samples() []float32 {
	p := b.data.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Swap atomically replaces the buffer's sample data. In-flight reads that
// already loaded the old pointer finish against it; the next read sees the
// new one — never a torn mix of both.
func (b *SoundBuffer) Swap(samples []float32) {
	b.data.Store(&samples)
}

// Markers returns the buffer's loop/cue markers, if the loader set any.
func (b *SoundBuffer) Markers() []Marker { return b.markers }

// SetMarkers replaces the buffer's marker list.
func (b *SoundBuffer) SetMarkers(m []Marker) { b.markers = m }

// FrameCount returns the number of stereo frames currently in the buffer.
func (b *SoundBuffer) FrameCount() int {
	return len(b.Samples()) / samplesPerFrame
}
