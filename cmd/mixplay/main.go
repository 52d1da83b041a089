// Command mixplay is a minimal demo host for the mixing engine: it opens a
// PortAudio output device, plays a synthesized sine tone on the master bus
// with its pan effect set from the flags, and exits after the tone finishes.
package main

import (
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"mixcore"
	"mixcore/device/portaudio"
	"mixcore/internal/engconfig"
)

func main() {
	saved := engconfig.Load()

	outputDevice := pflag.IntP("device", "d", saved.OutputDeviceIndex, "output device index (-1 = system default)")
	bufferFrames := pflag.IntP("buffer-frames", "b", saved.BufferFrames, "device buffer size in frames")
	freq := pflag.Float64P("freq", "f", 440.0, "sine tone frequency in Hz")
	durationMs := pflag.IntP("duration", "t", 1000, "tone duration in milliseconds")
	panLeft := pflag.Float64("pan-left", 1.0, "left channel gain [0,1]")
	panRight := pflag.Float64("pan-right", 1.0, "right channel gain [0,1]")
	pflag.Parse()

	logger := log.Default()
	sampleRate := saved.SampleRate

	engine := mixcore.NewEngine(mixcore.EngineOptions{Logger: logger})
	device := portaudio.New(*outputDevice)

	if err := engine.Open(sampleRate, *bufferFrames, device); err != nil {
		logger.Error("failed to open engine", "err", err)
		os.Exit(1)
	}
	defer engine.Close()

	tone := generateSineTone(*freq, *durationMs, sampleRate)
	buf := mixcore.NewSoundBuffer(tone, mixcore.AudioSpec{SampleRate: sampleRate, Channels: 2})

	handle, err := engine.PlaySound(buf, false, false, true, engine.Master())
	if err != nil {
		logger.Error("failed to play sound", "err", err)
		os.Exit(1)
	}

	if panEffectHandle, ok := engine.Panner(handle); ok {
		mixcore.SetPan(engine, panEffectHandle, float32(*panLeft), float32(*panRight))
	}
	if volumeEffectHandle, ok := engine.VolumeEffectHandle(handle); ok {
		mixcore.SetVolume(engine, volumeEffectHandle, float32(saved.MasterVolume))
	}
	// Pan/volume are deferred commands (queue-choice policy, §4.2); flush
	// them now so they take effect before the device starts pulling frames
	// on its own callback thread.
	if err := engine.Update(); err != nil {
		logger.Error("failed to apply startup commands", "err", err)
		os.Exit(1)
	}

	logger.Info("playing", "freq", *freq, "duration_ms", *durationMs)
	time.Sleep(time.Duration(*durationMs)*time.Millisecond + 200*time.Millisecond)
}

// generateSineTone synthesizes durationMs of a freq Hz sine wave as
// interleaved stereo float32 with a 5ms linear fade in/out envelope,
// adapted from client/notification.go's generateSineTone (there it chunked
// the result into fixed-size frames for a channel-based notification
// player; here the whole tone is built as one buffer for a PCMSource).
func generateSineTone(freq float64, durationMs, sampleRate int) []float32 {
	frameCount := durationMs * sampleRate / 1000
	const fadeMs = 5
	fadeFrames := fadeMs * sampleRate / 1000

	out := make([]float32, frameCount*2)
	for i := 0; i < frameCount; i++ {
		t := float64(i) / float64(sampleRate)
		sample := float32(math.Sin(2 * math.Pi * freq * t))

		envelope := float32(1.0)
		if i < fadeFrames {
			envelope = float32(i) / float32(fadeFrames)
		} else if i >= frameCount-fadeFrames {
			envelope = float32(frameCount-i) / float32(fadeFrames)
		}
		sample *= envelope

		out[2*i] = sample
		out[2*i+1] = sample
	}
	return out
}
