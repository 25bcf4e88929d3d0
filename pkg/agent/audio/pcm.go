package audio

// PCM helpers for the two fixed rates in play: the room speaks 48kHz opus,
// the realtime provider speaks 24kHz PCM16.

func pcmBytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[2*i]) | int16(data[2*i+1])<<8
	}
	return samples
}

func int16ToPCMBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}
	return data
}

// downsampleHalf halves the sample rate of mono PCM by dropping every other
// sample (48kHz -> 24kHz).
func downsampleHalf(samples []int16) []int16 {
	out := make([]int16, len(samples)/2)
	for i := range out {
		out[i] = samples[2*i]
	}
	return out
}

// upsampleDouble doubles the sample rate of mono PCM by duplicating samples
// (24kHz -> 48kHz).
func upsampleDouble(samples []int16) []int16 {
	out := make([]int16, len(samples)*2)
	for i, s := range samples {
		out[2*i] = s
		out[2*i+1] = s
	}
	return out
}

// applyGain scales samples in place, clamping to the int16 range.
func applyGain(samples []int16, gain float64) {
	if gain == 1 {
		return
	}
	for i, s := range samples {
		v := float64(s) * gain
		switch {
		case v > 32767:
			samples[i] = 32767
		case v < -32768:
			samples[i] = -32768
		default:
			samples[i] = int16(v)
		}
	}
}
