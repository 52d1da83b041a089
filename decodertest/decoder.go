// Package decodertest provides a fake mixcore.Decoder backed by an
// in-memory sample slice, in the teacher's hand-rolled-fake test idiom.
package decodertest

import "mixcore"

// Decoder is a fake mixcore.Decoder that serves frames from an in-memory
// mono or stereo sample slice.
type Decoder struct {
	Samples      []float32
	NumChannels  int
	NumRate      int
	pos          int
	opened       bool
	OpenErr      error
}

// New returns a Decoder serving samples (interleaved per channels) at rate.
func New(samples []float32, channels, rate int) *Decoder {
	return &Decoder{Samples: samples, NumChannels: channels, NumRate: rate}
}

// Open implements mixcore.Decoder.
func (d *Decoder) Open(string) error {
	d.opened = true
	return d.OpenErr
}

// Close implements mixcore.Decoder.
func (d *Decoder) Close() error { return nil }

// ReadFrames implements mixcore.Decoder.
func (d *Decoder) ReadFrames(out []float32) (int, error) {
	remaining := len(d.Samples) - d.pos
	if remaining <= 0 {
		return 0, nil
	}
	n := len(out)
	if n > remaining {
		n = remaining
	}
	copy(out[:n], d.Samples[d.pos:d.pos+n])
	d.pos += n
	return n / d.NumChannels, nil
}

// SetPosition implements mixcore.Decoder.
func (d *Decoder) SetPosition(unit mixcore.TimeUnit, pos float64) error {
	d.pos = int(mixcore.ToFrames(pos, unit, d.NumRate)) * d.NumChannels
	return nil
}

// GetPosition implements mixcore.Decoder.
func (d *Decoder) GetPosition() (uint64, error) {
	return uint64(d.pos / d.NumChannels), nil
}

// IsEnded implements mixcore.Decoder.
func (d *Decoder) IsEnded() bool { return d.pos >= len(d.Samples) }

// SampleRate implements mixcore.Decoder.
func (d *Decoder) SampleRate() int { return d.NumRate }

// Channels implements mixcore.Decoder.
func (d *Decoder) Channels() int { return d.NumChannels }
