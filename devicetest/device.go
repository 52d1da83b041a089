// Package devicetest provides a fake mixcore.Device for tests, in the same
// hand-rolled-fake idiom as the teacher's mockPAStream (audio_test.go):
// no mocking framework, just a struct satisfying the interface with
// synchronization primitives the test can poke.
package devicetest

import "sync"

// Device is a fake mixcore.Device. The pull callback stored by Open is
// called synchronously by Tick instead of from a real realtime thread, letting tests drive the
// engine's pull callback deterministically.
type Device struct {
	mu      sync.Mutex
	pull    func(out []float32)
	running bool
	opened  bool
	closed  bool

	OpenSampleRate   int
	OpenBufferFrames int
}

// New returns an unopened fake Device.
func New() *Device { return &Device{} }

// Open implements mixcore.Device.
func (d *Device) Open(sampleRate, bufferFrames int, pull func(out []float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pull = pull
	d.opened = true
	d.OpenSampleRate = sampleRate
	d.OpenBufferFrames = bufferFrames
	return nil
}

// Resume implements mixcore.Device.
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
	return nil
}

// Suspend implements mixcore.Device.
func (d *Device) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	return nil
}

// Close implements mixcore.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.closed = true
	return nil
}

// IsRunning implements mixcore.Device.
func (d *Device) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Tick synchronously invokes the engine's pull callback with a buffer sized
// for frameCount stereo frames, returning it for the test to inspect.
func (d *Device) Tick(frameCount int) []float32 {
	d.mu.Lock()
	pull := d.pull
	d.mu.Unlock()
	out := make([]float32, frameCount*2)
	if pull != nil {
		pull(out)
	}
	return out
}
