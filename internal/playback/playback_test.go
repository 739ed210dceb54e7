package playback

import (
	"testing"
	"time"
)

// manualClock lets tests advance wall time explicitly.
type manualClock struct {
	t time.Time
}

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSource() (*Source, *manualClock) {
	clk := &manualClock{t: time.Unix(1000, 0)}
	s := New()
	s.SetClock(clk.now)
	return s, clk
}

func TestVoiceCounting(t *testing.T) {
	s, _ := newTestSource()
	if got := s.ActiveVoiceCount(); got != 0 {
		t.Fatalf("initial voices = %d, want 0", got)
	}

	s.NoteOn(0, 60, 100)
	s.NoteOn(0, 64, 100)
	s.NoteOn(1, 60, 80) // same key, other channel: a distinct voice
	if got := s.ActiveVoiceCount(); got != 3 {
		t.Fatalf("voices = %d, want 3", got)
	}

	s.NoteOn(0, 60, 110) // retrigger, not a new voice
	if got := s.ActiveVoiceCount(); got != 3 {
		t.Fatalf("voices after retrigger = %d, want 3", got)
	}

	s.NoteOff(0, 60)
	s.NoteOff(0, 64)
	if got := s.ActiveVoiceCount(); got != 1 {
		t.Fatalf("voices = %d, want 1", got)
	}
}

func TestNoteOnZeroVelocityIsNoteOff(t *testing.T) {
	s, _ := newTestSource()
	s.NoteOn(0, 60, 100)
	s.NoteOn(0, 60, 0)
	if got := s.ActiveVoiceCount(); got != 0 {
		t.Fatalf("voices = %d, want 0 after velocity-0 note-on", got)
	}
}

func TestAllNotesOffClearsVoicesAndPedal(t *testing.T) {
	s, _ := newTestSource()
	s.NoteOn(0, 60, 100)
	s.SetSustainPedal(true)
	s.AllNotesOff()
	if s.ActiveVoiceCount() != 0 || s.SustainPedal() {
		t.Fatal("AllNotesOff left voices or pedal set")
	}
}

func TestClockFreezesWhilePaused(t *testing.T) {
	s, clk := newTestSource()
	s.Seek(0)
	s.SetPaused(false)
	clk.advance(2 * time.Second)
	if got := s.Elapsed(); got != 2*time.Second {
		t.Fatalf("elapsed = %v, want 2s", got)
	}

	s.SetPaused(true)
	clk.advance(5 * time.Second)
	if got := s.Elapsed(); got != 2*time.Second {
		t.Fatalf("elapsed while paused = %v, want 2s", got)
	}

	s.SetPaused(false)
	clk.advance(time.Second)
	if got := s.Elapsed(); got != 3*time.Second {
		t.Fatalf("elapsed after resume = %v, want 3s", got)
	}
}

func TestClockScalesWithRate(t *testing.T) {
	s, clk := newTestSource()
	s.Seek(0)
	s.SetPaused(false)
	s.SetRate(1.5)
	clk.advance(2 * time.Second)
	if got := s.Elapsed(); got != 3*time.Second {
		t.Fatalf("elapsed at 1.5x = %v, want 3s", got)
	}

	// Changing the rate must not rescale time already elapsed.
	s.SetRate(0.5)
	clk.advance(2 * time.Second)
	if got := s.Elapsed(); got != 4*time.Second {
		t.Fatalf("elapsed after rate change = %v, want 4s", got)
	}
}

func TestInvalidTempoAndRateIgnored(t *testing.T) {
	s, _ := newTestSource()
	s.SetTempo(0)
	s.SetTempo(-10)
	if got := s.Tempo(); got != defaultTempo {
		t.Fatalf("tempo = %v, want %v", got, float64(defaultTempo))
	}
	s.SetRate(0)
	if got := s.Rate(); got != 1 {
		t.Fatalf("rate = %v, want 1", got)
	}
}
