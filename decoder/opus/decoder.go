// Package opus adapts gopkg.in/hraban/opus.v2 to mixcore's Decoder
// interface, repurposing the teacher's voice-codec decoder (originally
// decoding live network packets in client/audio.go's playbackLoop) into a
// generic incremental file decoder for StreamSource.
//
// The container format read here is deliberately minimal: a sequence of
// 16-bit-length-prefixed raw Opus packets, with no seek table. Full
// Ogg-Opus container parsing needs a demuxer this training pack does not
// include (see DESIGN.md); a real deployment would swap readPacket for one
// backed by a proper demuxer without changing the Decoder interface.
package opus

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	hraban "gopkg.in/hraban/opus.v2"

	"mixcore"
)

const (
	sampleRate   = 48000
	channels     = 1
	maxFrameSize = 5760 // 120ms @ 48kHz, libopus's documented maximum frame size
)

// Decoder decodes a length-prefixed raw-Opus-packet stream, grounded on
// client/audio.go's opusDecoder usage (ae.decoder.Decode/DecodeFEC).
type Decoder struct {
	file     *os.File
	dec      *hraban.Decoder
	ended    bool
	framePos uint64
}

// New returns an unopened Decoder.
func New() *Decoder { return &Decoder{} }

// Open implements mixcore.Decoder.
func (d *Decoder) Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opus: open: %w", err)
	}
	dec, err := hraban.NewDecoder(sampleRate, channels)
	if err != nil {
		f.Close()
		return fmt.Errorf("opus: new decoder: %w", err)
	}
	d.file = f
	d.dec = dec
	return nil
}

// Close implements mixcore.Decoder.
func (d *Decoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// readPacket reads one length-prefixed Opus packet, or (nil, io.EOF) at the
// end of the stream.
func (d *Decoder) readPacket() ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.file, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	packet := make([]byte, n)
	if _, err := io.ReadFull(d.file, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// ReadFrames implements mixcore.Decoder: decodes successive packets into
// int16 PCM, converting to float32, until out is filled or the stream ends.
func (d *Decoder) ReadFrames(out []float32) (int, error) {
	pcm := make([]int16, maxFrameSize*channels)
	written := 0
	for written < len(out) {
		packet, err := d.readPacket()
		if err != nil {
			d.ended = true
			if written == 0 {
				return 0, nil
			}
			break
		}
		n, err := d.dec.Decode(packet, pcm)
		if err != nil {
			return written, fmt.Errorf("opus: decode: %w", err)
		}
		for i := 0; i < n*channels && written < len(out); i++ {
			out[written] = float32(pcm[i]) / 32768.0
			written++
		}
	}
	d.framePos += uint64(written / channels)
	return written / channels, nil
}

// SetPosition is not supported: the minimal length-prefixed container this
// adapter reads has no seek table to jump to an arbitrary frame.
func (d *Decoder) SetPosition(unit mixcore.TimeUnit, pos float64) error {
	_ = unit
	_ = pos
	return fmt.Errorf("opus: seeking not supported by the length-prefixed container reader")
}

// GetPosition implements mixcore.Decoder.
func (d *Decoder) GetPosition() (uint64, error) { return d.framePos, nil }

// IsEnded implements mixcore.Decoder.
func (d *Decoder) IsEnded() bool { return d.ended }

// SampleRate implements mixcore.Decoder.
func (d *Decoder) SampleRate() int { return sampleRate }

// Channels implements mixcore.Decoder.
func (d *Decoder) Channels() int { return channels }
