// Package portaudio adapts github.com/gordonklaus/portaudio to mixcore's
// Device interface.
//
// Grounded on client/audio.go's AudioEngine.Start/Stop: the same
// stop-before-wait-before-close discipline (Pa_StopStream first to unblock
// any in-flight I/O, then wait for callback activity to quiesce, only then
// Pa_CloseStream) is kept here, but the stream itself is opened in
// callback mode rather than the teacher's blocking Read/Write loop — the
// engine's Device contract is "the device invokes a pull callback on its
// own realtime thread," which is exactly what PortAudio's callback-stream
// API is for, where the teacher's blocking style suited its own
// goroutine-per-direction capture/playback loops instead.
package portaudio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// Device is a mixcore.Device backed by a PortAudio output stream.
type Device struct {
	mu          sync.Mutex
	stream      *portaudio.Stream
	outputIndex int // -1 uses the system default
	running     atomic.Bool
}

// New returns a Device that will open outputIndex (or the system default
// output device if outputIndex < 0) when Open is called.
func New(outputIndex int) *Device {
	return &Device{outputIndex: outputIndex}
}

// Open implements mixcore.Device: it initializes PortAudio and opens a
// callback-mode output stream, wiring PortAudio's own callback straight
// into pull. The stream is started by Resume, not here.
func (d *Device) Open(sampleRate, bufferFrames int, pull func(out []float32)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: initialize: %w", err)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("portaudio: list devices: %w", err)
	}
	outDev, err := resolveDevice(devices, d.outputIndex)
	if err != nil {
		return err
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   outDev,
			Channels: 2,
			Latency:  outDev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: bufferFrames,
	}

	stream, err := portaudio.OpenStream(params, func(out []float32) {
		pull(out)
	})
	if err != nil {
		return fmt.Errorf("portaudio: open stream: %w", err)
	}

	d.mu.Lock()
	d.stream = stream
	d.mu.Unlock()
	return nil
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return portaudio.DefaultOutputDevice()
}

// Resume starts (or restarts) the stream.
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return fmt.Errorf("portaudio: device not open")
	}
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start: %w", err)
	}
	d.running.Store(true)
	return nil
}

// Suspend stops the stream; Pa_StopStream unblocks any in-flight callback
// processing before returning, matching the teacher's Stop() ordering.
func (d *Device) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return nil
	}
	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("portaudio: stop: %w", err)
	}
	d.running.Store(false)
	return nil
}

// Close stops (if running) and closes the stream, then terminates
// PortAudio. Safe to call more than once.
func (d *Device) Close() error {
	if err := d.Suspend(); err != nil {
		return err
	}
	d.mu.Lock()
	stream := d.stream
	d.stream = nil
	d.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			return fmt.Errorf("portaudio: close: %w", err)
		}
	}
	return portaudio.Terminate()
}

// IsRunning reports whether the stream is currently started.
func (d *Device) IsRunning() bool { return d.running.Load() }
