package mixcore

import (
	"testing"

	"mixcore/decodertest"
	"mixcore/devicetest"
)

func TestEnginePlayStreamDrainsDecoderThroughPrefetch(t *testing.T) {
	e := NewEngine(EngineOptions{})
	d := devicetest.New()
	if err := e.Open(48000, 64, d); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer e.Close()

	samples := make([]float32, 4000) // mono decoder samples
	for i := range samples {
		samples[i] = 0.5
	}
	dec := decodertest.New(samples, 1, 48000)

	if _, err := e.PlayStream(dec, false, e.Master()); err != nil {
		t.Fatalf("PlayStream failed: %v", err)
	}

	out := d.Tick(64)
	if out[0] != 0.5 {
		t.Fatalf("expected the stream's mono samples duplicated to stereo, got %v", out[0])
	}
	if out[1] != 0.5 {
		t.Fatalf("expected the right channel duplicated from mono, got %v", out[1])
	}
}

func TestStreamSourceSelfClosesWhenDecoderExhausted(t *testing.T) {
	samples := make([]float32, 128) // one small mono chunk, smaller than decodeChunkFrames
	for i := range samples {
		samples[i] = 1.0
	}
	dec := decodertest.New(samples, 1, 48000)

	s := newStreamSource(nil, dec)
	out := make([]float32, 64*samplesPerFrame)

	// Drive enough reads to drain the short decoder and observe self-close.
	for i := 0; i < 5; i++ {
		s.readImpl(out, 0, 64)
		if s.shouldDiscard() {
			return
		}
	}
	t.Fatal("expected the stream source to self-close once its decoder and prefetch buffer are both exhausted")
}
