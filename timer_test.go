package midiview

import (
	"testing"
	"time"
)

func TestFrameTimerFirstFrameReportsZero(t *testing.T) {
	var timer frameTimer
	if fps := timer.tick(time.Unix(5, 0)); fps != 0 {
		t.Fatalf("first tick fps = %v, want 0", fps)
	}
}

func TestFrameTimerComputesFPSFromInterval(t *testing.T) {
	var timer frameTimer
	start := time.Unix(10, 0)
	timer.tick(start)

	cases := []struct {
		gap  time.Duration
		want float64
	}{
		{100 * time.Millisecond, 10},
		{50 * time.Millisecond, 20},
		{time.Second, 1},
	}
	now := start
	for _, c := range cases {
		now = now.Add(c.gap)
		if fps := timer.tick(now); fps != c.want {
			t.Fatalf("gap %v: fps = %v, want %v", c.gap, fps, c.want)
		}
	}
}

func TestFrameTimerNonAdvancingClock(t *testing.T) {
	var timer frameTimer
	now := time.Unix(3, 0)
	timer.tick(now)
	if fps := timer.tick(now); fps != 0 {
		t.Fatalf("zero interval fps = %v, want 0", fps)
	}
}
