package midiview

import "time"

// frameTimer derives instantaneous frames-per-second from consecutive draw
// timestamps. It is ticked only for frames that actually draw, so the value
// reflects draw cadence rather than poll cadence.
type frameTimer struct {
	lastFrameStart time.Time
}

// tick records now as the start of a drawn frame and returns the FPS implied
// by the interval since the previous drawn frame. The first drawn frame, and
// any non-advancing clock, reports 0.
func (t *frameTimer) tick(now time.Time) float64 {
	if t.lastFrameStart.IsZero() {
		t.lastFrameStart = now
		return 0
	}
	delta := now.Sub(t.lastFrameStart)
	t.lastFrameStart = now
	if delta <= 0 {
		return 0
	}
	return float64(time.Second) / float64(delta)
}
