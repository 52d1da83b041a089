package mixcore

import "math"

// pcmSource is a Node reading from a decoded SoundBuffer, grounded on
// original_source/insound/core/PCMSource.cpp.
type pcmSource struct {
	sourceBase
	buffer   *SoundBuffer
	position float64 // fractional frame index
	looping  bool
	oneShot  bool
	speed    float32
}

func newPCMSource(e *Engine, buf *SoundBuffer, looping, oneShot bool) *pcmSource {
	p := &pcmSource{
		sourceBase: newSourceBase(e),
		buffer:     buf,
		looping:    looping,
		oneShot:    oneShot,
		speed:      1.0,
	}
	p.self = p
	return p
}

// readImpl implements spec.md §4.6: copy frameCount frames starting at
// position, wrapping for looping sources, advancing position by
// frameCount*speed (speed-based resampling is the documented reserved hook
// spec.md §9 leaves open — data is copied at 1:1 regardless of speed, and
// only the position advance honors it), and self-closing a non-looping
// one-shot source once it runs past the end of its buffer.
func (p *pcmSource) readImpl(out []float32, frameOffset, frameCount int) {
	data := p.buffer.Samples()
	frameTotal := len(data) / samplesPerFrame
	if frameTotal == 0 {
		return
	}

	if !p.looping && p.position >= float64(frameTotal) {
		return // already past end: silence, nothing to copy
	}

	framesToRead := frameCount
	if !p.looping {
		remaining := frameTotal - int(math.Ceil(p.position))
		if remaining < framesToRead {
			framesToRead = remaining
		}
	}
	if framesToRead < 0 {
		framesToRead = 0
	}

	start := int(p.position)
	for i := 0; i < framesToRead; i++ {
		srcFrame := start + i
		if p.looping {
			srcFrame %= frameTotal
		}
		if srcFrame >= frameTotal {
			break
		}
		so := srcFrame * samplesPerFrame
		do := i * samplesPerFrame
		out[do] = data[so]
		out[do+1] = data[so+1]
	}

	p.position += float64(framesToRead) * float64(p.speed)
	if p.looping {
		p.position = math.Mod(p.position, float64(frameTotal))
		if p.position < 0 {
			p.position += float64(frameTotal)
		}
	} else if p.oneShot && p.position >= float64(frameTotal) {
		p.shouldDiscardFlag = true
	}
}

func (p *pcmSource) release(bool) error {
	p.shouldDiscardFlag = true
	return nil
}

// Ended reports whether a non-looping source has read past its buffer.
func (p *pcmSource) Ended() bool {
	return !p.looping && p.position >= float64(len(p.buffer.Samples())/samplesPerFrame)
}
