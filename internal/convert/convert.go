// Package convert adapts decoder-native PCM (arbitrary channel count, fixed
// sample rate) to the mix engine's interleaved stereo float32 format, the
// "format converter" spec.md §6 says StreamSource wraps its decoder in.
//
// Sample-rate conversion is explicitly out of scope (spec.md §1 Non-goals):
// a decoder whose native rate does not match the engine's output rate is a
// configuration error the loader must catch before handing the source to
// the engine, not something this package resamples around.
package convert

// ToStereo expands mono input to interleaved stereo by duplicating each
// sample to both channels, or passes stereo input through unchanged.
// Any other channel count is downmixed by averaging into mono, then
// duplicated to stereo.
func ToStereo(in []float32, channels int) []float32 {
	switch channels {
	case 2:
		return in
	case 1:
		out := make([]float32, len(in)*2)
		for i, s := range in {
			out[2*i] = s
			out[2*i+1] = s
		}
		return out
	default:
		frames := len(in) / channels
		out := make([]float32, frames*2)
		for f := 0; f < frames; f++ {
			var sum float32
			for c := 0; c < channels; c++ {
				sum += in[f*channels+c]
			}
			avg := sum / float32(channels)
			out[2*f] = avg
			out[2*f+1] = avg
		}
		return out
	}
}
