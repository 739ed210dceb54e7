// Package analyzer captures the synthesizer's output for the waveform and
// spectrum displays. The capture side runs on the audio thread; everything
// else runs on the UI thread.
package analyzer

import "sync"

const ringLen = 131072

// Analyzer keeps a mono ring buffer of recently produced samples, aligned to
// the audio driver's playback position so the display shows what the
// listener actually hears.
type Analyzer struct {
	mu          sync.Mutex
	sampleRate  int
	ring        []float32
	writePos    int
	totalTapped int64 // mono samples written since last reset
}

func New(sampleRate int) *Analyzer {
	return &Analyzer{
		sampleRate: sampleRate,
		ring:       make([]float32, ringLen),
	}
}

func (a *Analyzer) SampleRate() int { return a.sampleRate }

// Tap is called from the audio thread with an interleaved stereo buffer.
// Keep it minimal: just fold to mono and copy into the ring.
func (a *Analyzer) Tap(samples []float32) {
	a.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		mono := (samples[i] + samples[i+1]) * 0.5
		a.ring[a.writePos] = mono
		a.writePos = (a.writePos + 1) % ringLen
		a.totalTapped++
	}
	a.mu.Unlock()
}

// Reset clears the tapped sample counter (call on new playback).
func (a *Analyzer) Reset() {
	a.mu.Lock()
	a.totalTapped = 0
	a.mu.Unlock()
}

// Snapshot copies the n most recent samples aligned to playbackPos, the
// audio driver's current output position in samples. The tap runs ahead of
// the speakers; the difference is compensated so the snapshot tracks what is
// audible right now.
func (a *Analyzer) Snapshot(n int, playbackPos int64) []float32 {
	if n > ringLen {
		n = ringLen
	}
	out := make([]float32, n)
	a.mu.Lock()
	delay := int(a.totalTapped - playbackPos)
	if delay < 0 {
		delay = 0
	}
	if delay > ringLen-n {
		delay = ringLen - n
	}
	start := (a.writePos - delay - n + ringLen*2) % ringLen
	for i := 0; i < n; i++ {
		out[i] = a.ring[(start+i)%ringLen]
	}
	a.mu.Unlock()
	return out
}
