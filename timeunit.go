package mixcore

// TimeUnit identifies the unit a clock-like value is expressed in, per
// original_source/insound/core/TimeUnit.h. All internal engine clocks are
// PCMFrames; the other units exist purely so callers can schedule pauses,
// fades, and stream seeks without doing the frame-rate math themselves.
type TimeUnit int

const (
	Microseconds TimeUnit = iota
	Milliseconds
	PCMFrames
	PCMBytes
)

// bytesPerFrame is fixed by the engine's output format: interleaved stereo
// float32.
const bytesPerFrame = 2 * 4

// ToFrames converts value, expressed in unit, to PCM frames at sampleRate.
func ToFrames(value float64, unit TimeUnit, sampleRate int) uint32 {
	switch unit {
	case Microseconds:
		return uint32(value * float64(sampleRate) / 1_000_000)
	case Milliseconds:
		return uint32(value * float64(sampleRate) / 1_000)
	case PCMBytes:
		return uint32(value / bytesPerFrame)
	default: // PCMFrames
		return uint32(value)
	}
}

// FromFrames converts a PCM frame count to unit at sampleRate.
func FromFrames(frames uint32, unit TimeUnit, sampleRate int) float64 {
	switch unit {
	case Microseconds:
		return float64(frames) * 1_000_000 / float64(sampleRate)
	case Milliseconds:
		return float64(frames) * 1_000 / float64(sampleRate)
	case PCMBytes:
		return float64(frames) * bytesPerFrame
	default: // PCMFrames
		return float64(frames)
	}
}
