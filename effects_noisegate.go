package mixcore

import "mixcore/internal/level"

// ParamGateThreshold is NoiseGateEffect's single mailbox parameter.
const ParamGateThreshold = 0

const (
	gateDefaultThreshold = float32(0.01)
	gateDefaultHold      = 10 // Process calls (buffers) the gate stays open after dropping below threshold
)

// NoiseGateEffect zeroes a buffer whose RMS falls below a threshold,
// adapted from the capture pipeline's internal/noisegate.Gate: same
// threshold/hold model, generalized to stereo-interleaved buffers by
// measuring RMS across both channels.
type NoiseGateEffect struct {
	threshold float32
	hold      int
	remaining int
	open      bool
}

// NewNoiseGateEffect returns a NoiseGateEffect at the default threshold and
// hold, open by default.
func NewNoiseGateEffect() *NoiseGateEffect {
	return &NoiseGateEffect{threshold: gateDefaultThreshold, hold: gateDefaultHold, open: true}
}

// Process implements Effect. Bypasses when the gate is open and has nothing
// to zero; writes silence into out when closed.
func (g *NoiseGateEffect) Process(in, out []float32, count int) bool {
	rms := level.RMS(in[:count])

	if rms >= g.threshold {
		g.remaining = g.hold
		g.open = true
		return false
	}

	if g.remaining > 0 {
		g.remaining--
		g.open = true
		return false
	}

	for i := 0; i < count; i++ {
		out[i] = 0
	}
	g.open = false
	return true
}

// IsOpen reports whether the gate is currently passing audio unmodified.
func (g *NoiseGateEffect) IsOpen() bool { return g.open }

func (g *NoiseGateEffect) receiveFloat(param int, value float32) {
	if param != ParamGateThreshold {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	g.threshold = 0.001 + value/100.0*0.099
}

func (g *NoiseGateEffect) receiveInt(int, int32)     {}
func (g *NoiseGateEffect) receiveString(int, string) {}
