package mixcore

import "mixcore/internal/level"

// AGCEffect params.
const ParamAGCTarget = 0

// AGC tuning constants, carried over unchanged from internal/agc (tuned for
// mono capture at 48kHz/960-sample frames; the attack/release behavior is
// frame-count based, not sample-rate based, so the same constants hold when
// applied to mixer output buffers of any size).
const (
	agcDefaultTarget  = 0.20
	agcMinGain        = 0.1
	agcMaxGain        = 10.0
	agcAttackCoeff    = 0.80
	agcReleaseCoeff   = 0.02
	agcMinRMS         = 0.001
)

// AGCEffect is an automatic gain control effect adapted from the capture
// pipeline's internal/agc.AGC: same RMS-driven attack/release gain model,
// generalized from mono to the engine's stereo-interleaved buffers by
// computing RMS across both channels and applying one shared gain to both.
type AGCEffect struct {
	target float64
	gain   float64
}

// NewAGCEffect returns an AGCEffect at the default target level and unity
// gain.
func NewAGCEffect() *AGCEffect {
	return &AGCEffect{target: agcDefaultTarget, gain: 1.0}
}

// Process implements Effect. Always writes (gain is rarely exactly 1.0 and
// the effect has no cheap bypass test worth the branch).
func (a *AGCEffect) Process(in, out []float32, count int) bool {
	if count == 0 {
		return false
	}

	rms := float64(level.RMS(in[:count]))

	gain := float32(a.gain)
	for i := 0; i < count; i++ {
		v := in[i] * gain
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		out[i] = v
	}

	if rms < agcMinRMS {
		return true
	}

	desired := a.target / rms
	if desired < agcMinGain {
		desired = agcMinGain
	} else if desired > agcMaxGain {
		desired = agcMaxGain
	}

	coeff := agcReleaseCoeff
	if desired < a.gain {
		coeff = agcAttackCoeff
	}
	a.gain += coeff * (desired - a.gain)

	return true
}

// Gain returns the current linear gain multiplier (informational).
func (a *AGCEffect) Gain() float64 { return a.gain }

func (a *AGCEffect) receiveFloat(param int, value float32) {
	if param != ParamAGCTarget {
		return
	}
	pct := float64(value)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	a.target = 0.01 + pct/100.0*0.49
}

func (a *AGCEffect) receiveInt(int, int32)     {}
func (a *AGCEffect) receiveString(int, string) {}
