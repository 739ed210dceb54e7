package analyzer

// PeakTracker provides auto-gain for the waveform display: fast attack on
// loud material, slow release so the trace does not pump.
type PeakTracker struct {
	peak float64
}

// Gain returns the vertical scale factor mapping samples into halfHeight
// pixels, updating the tracked peak from this snapshot.
func (p *PeakTracker) Gain(samples []float32, halfHeight float64) float64 {
	peak := float32(0)
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	target := float64(peak)
	if target < 0.01 {
		target = 0.01
	}
	if target > p.peak {
		p.peak = p.peak*0.3 + target*0.7
	} else {
		p.peak = p.peak*0.995 + target*0.005
	}
	if p.peak < 0.01 {
		p.peak = 0.01
	}
	return halfHeight / p.peak
}

// RisingEdge finds a rising zero-crossing within the first searchLen samples
// to use as a trigger point, stabilizing the waveform trace. It returns 0
// when no crossing is found.
func RisingEdge(samples []float32, searchLen int) int {
	if searchLen > len(samples)-2 {
		searchLen = len(samples) - 2
	}
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}
