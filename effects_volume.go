package mixcore

// ParamVolume is VolumeEffect's single mailbox parameter, per
// original_source/insound/core/effects/VolumeEffect.h's Param::Enum.
const ParamVolume = 0

// VolumeEffect scales every sample by a single gain, grounded on
// VolumeEffect.h/.cpp. Default volume is 1.0 (unity).
type VolumeEffect struct {
	volume float32
}

// NewVolumeEffect returns a VolumeEffect at unity gain.
func NewVolumeEffect() *VolumeEffect {
	return &VolumeEffect{volume: 1.0}
}

// Process implements Effect. Bypasses when volume == 1.0, matching
// spec.md §4.5 ("optional; spec allows the trivial non-bypass path").
func (v *VolumeEffect) Process(in, out []float32, count int) bool {
	if v.volume == 1.0 {
		return false
	}
	for i := 0; i < count; i++ {
		out[i] = in[i] * v.volume
	}
	return true
}

// Volume returns the current linear gain.
func (v *VolumeEffect) Volume() float32 { return v.volume }

func (v *VolumeEffect) receiveFloat(param int, value float32) {
	if param == ParamVolume {
		v.volume = value
	}
}

func (v *VolumeEffect) receiveInt(int, int32)     {}
func (v *VolumeEffect) receiveString(int, string) {}
