package mixcore

import "testing"

func samplePCMBuffer(frameValues ...float32) *SoundBuffer {
	samples := make([]float32, len(frameValues)*samplesPerFrame)
	for i, v := range frameValues {
		samples[i*samplesPerFrame] = v
		samples[i*samplesPerFrame+1] = v
	}
	return NewSoundBuffer(samples, AudioSpec{SampleRate: 48000, Channels: 2})
}

func TestPCMSourceLoopingWrapsAround(t *testing.T) {
	buf := samplePCMBuffer(1, 2, 3)
	p := newPCMSource(nil, buf, true, false)

	out := make([]float32, 5*samplesPerFrame)
	p.readImpl(out, 0, 5)

	want := []float32{1, 2, 3, 1, 2}
	for i, w := range want {
		if out[i*samplesPerFrame] != w {
			t.Fatalf("frame %d: expected %v, got %v", i, w, out[i*samplesPerFrame])
		}
	}
}

func TestPCMSourceOneShotStopsAtEnd(t *testing.T) {
	buf := samplePCMBuffer(1, 2, 3)
	p := newPCMSource(nil, buf, false, true)

	out := make([]float32, 5*samplesPerFrame)
	p.readImpl(out, 0, 5)

	want := []float32{1, 2, 3, 0, 0}
	for i, w := range want {
		if out[i*samplesPerFrame] != w {
			t.Fatalf("frame %d: expected %v, got %v", i, w, out[i*samplesPerFrame])
		}
	}
	if !p.Ended() {
		t.Fatal("expected a non-looping one-shot source to report Ended() once past its buffer")
	}
	if !p.shouldDiscard() {
		t.Fatal("expected a non-looping one-shot source to self-close once past its buffer")
	}
}

func TestPCMSourceNonLoopingStopsWithoutOneShot(t *testing.T) {
	buf := samplePCMBuffer(1, 2)
	p := newPCMSource(nil, buf, false, false)

	out := make([]float32, 4*samplesPerFrame)
	p.readImpl(out, 0, 4)

	if out[2*samplesPerFrame] != 0 || out[3*samplesPerFrame] != 0 {
		t.Fatal("expected silence past the buffer's end")
	}
	if p.shouldDiscard() {
		t.Fatal("a non-one-shot source must not self-close just because it ran past its buffer")
	}
}

func TestPCMSourceSpeedAdvancesPositionFaster(t *testing.T) {
	buf := samplePCMBuffer(1, 2, 3, 4, 5, 6)
	p := newPCMSource(nil, buf, false, false)
	p.speed = 2.0

	out := make([]float32, 2*samplesPerFrame)
	p.readImpl(out, 0, 2)

	if p.position != 4.0 {
		t.Fatalf("expected position to advance by frameCount*speed = 4, got %v", p.position)
	}
}
