package mixcore

// Device is the external audio-device collaborator from spec.md §6: it
// opens at a requested sample rate and buffer frame size, then invokes pull
// on its own realtime thread whenever it needs more interleaved stereo
// float32 output. Target buffer size is a power of two between 128 and
// 4096 frames; the core is agnostic to the exact value.
type Device interface {
	// Open opens the device and arranges for pull to be called on the
	// device's own thread whenever it needs len(out)/2 frames of output.
	Open(sampleRate, bufferFrames int, pull func(out []float32)) error
	Suspend() error
	Resume() error
	Close() error
	IsRunning() bool
}
