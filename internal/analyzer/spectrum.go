package analyzer

import (
	"math"
	"math/cmplx"
)

// fft computes a radix-2 FFT in-place.
func fft(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}
	// Bit-reversal permutation.
	bits := 0
	for m := n; m > 1; m >>= 1 {
		bits++
	}
	for i := 0; i < n; i++ {
		j := 0
		for b := 0; b < bits; b++ {
			if i&(1<<b) != 0 {
				j |= 1 << (bits - 1 - b)
			}
		}
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	// Cooley-Tukey iterative FFT.
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		wn := -2.0 * math.Pi / float64(size)
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				t := cmplx.Rect(1, wn*float64(k)) * x[start+k+half]
				x[start+k+half] = x[start+k] - t
				x[start+k] = x[start+k] + t
			}
		}
	}
}

// Spectrum turns sample snapshots into smoothed log-frequency display bins
// in the 0..1 range. Smoothing uses fast attack and slower decay so peaks
// register immediately but fall gracefully.
type Spectrum struct {
	sampleRate int
	fftSize    int
	bins       []float64
	buf        []complex128
}

func NewSpectrum(sampleRate, fftSize int) *Spectrum {
	return &Spectrum{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		buf:        make([]complex128, fftSize),
	}
}

// Update analyzes the tail of samples and returns numBars smoothed bins.
// The returned slice is owned by the Spectrum and valid until the next call.
// It returns nil when there are not enough samples for a full window.
func (s *Spectrum) Update(samples []float32, numBars int) []float64 {
	if len(samples) < s.fftSize || numBars < 1 {
		return nil
	}
	if len(s.bins) != numBars {
		s.bins = make([]float64, numBars)
	}

	// Hann window over the newest fftSize samples.
	for i := 0; i < s.fftSize; i++ {
		w := 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(s.fftSize-1)))
		s.buf[i] = complex(float64(samples[len(samples)-s.fftSize+i])*w, 0)
	}
	fft(s.buf)

	halfFFT := s.fftSize / 2
	minBin := 1 // skip DC
	maxBin := halfFFT * 18000 / (s.sampleRate / 2)
	if maxBin > halfFFT {
		maxBin = halfFFT
	}
	logMin := math.Log(float64(minBin))
	logMax := math.Log(float64(maxBin))

	for i := 0; i < numBars; i++ {
		frac0 := float64(i) / float64(numBars)
		frac1 := float64(i+1) / float64(numBars)
		binStart := int(math.Exp(logMin + frac0*(logMax-logMin)))
		binEnd := int(math.Exp(logMin + frac1*(logMax-logMin)))
		if binEnd <= binStart {
			binEnd = binStart + 1
		}
		if binEnd > halfFFT {
			binEnd = halfFFT
		}

		sum := 0.0
		for b := binStart; b < binEnd; b++ {
			sum += cmplx.Abs(s.buf[b])
		}
		avg := sum / float64(binEnd-binStart)

		// Log magnitude normalized to 0..1 over roughly -80dB..0dB.
		db := 20.0 * math.Log10(avg/float64(s.fftSize)+1e-10)
		norm := (db + 80.0) / 80.0
		if norm < 0 {
			norm = 0
		}
		if norm > 1 {
			norm = 1
		}

		prev := s.bins[i]
		if norm > prev {
			s.bins[i] = prev*0.3 + norm*0.7
		} else {
			s.bins[i] = prev*0.85 + norm*0.15
		}
	}
	return s.bins
}
