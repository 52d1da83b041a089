package mixcore

// Decoder is the external streaming-decoder collaborator from spec.md §6,
// producing frames in the decoder's own sample format; StreamSource wraps it
// in a format converter to interleaved stereo float32 (internal/convert).
// Of these methods the core calls ReadFrames, IsEnded, Channels,
// SetPosition and Close.
type Decoder interface {
	Open(path string) error
	Close() error
	// ReadFrames decodes up to len(out)/channels frames into out
	// (interleaved, decoder's native format) and returns frames actually
	// read; 0 with a nil error means end of stream.
	ReadFrames(out []float32) (int, error)
	SetPosition(unit TimeUnit, pos float64) error
	GetPosition() (frames uint64, err error)
	IsEnded() bool
	// SampleRate and Channels describe the decoder's native output format.
	// StreamSource passes Channels to internal/convert for the channel mix;
	// the sample rate is not converted.
	SampleRate() int
	Channels() int
}
