package notes

import (
	"testing"
	"time"

	"github.com/cbegin/midiview-go"
)

type stubClock struct {
	t time.Duration
}

func (c *stubClock) Elapsed() time.Duration { return c.t }

func newTestRoll() (*Roll, *stubClock) {
	clk := &stubClock{}
	r := NewRoll(clk)
	r.SetViewport(880, 600) // 10px lanes
	return r, clk
}

func TestReadyTracksTimingData(t *testing.T) {
	r, _ := newTestRoll()
	if r.Ready() {
		t.Fatal("empty roll reports ready")
	}
	r.SetScore([]Event{{Note: 60, Start: 0, Duration: time.Second}}, "4/4")
	if !r.Ready() {
		t.Fatal("roll with a score reports not ready")
	}
	if got := r.TimeSignature(); got != "4/4" {
		t.Fatalf("time signature = %q, want 4/4", got)
	}
}

func TestLookaheadWindow(t *testing.T) {
	r, clk := newTestRoll()
	r.SetScore([]Event{
		{Note: 60, Start: 0, Duration: time.Second},                // ended long ago
		{Note: 64, Start: 5 * time.Second, Duration: time.Second},  // sounding right now
		{Note: 62, Start: 6 * time.Second, Duration: time.Second},  // approaching
		{Note: 65, Start: 7 * time.Second, Duration: time.Second},  // near the horizon
		{Note: 67, Start: 20 * time.Second, Duration: time.Second}, // far future
	}, "")
	clk.t = 5 * time.Second

	got := r.ComputeNotePositions(false)
	if len(got) != 3 {
		t.Fatalf("visible notes = %d, want 3 (%+v)", len(got), got)
	}
	byNote := map[int]midiview.NoteToRender{}
	for _, n := range got {
		byNote[n.Note] = n
	}
	if _, ok := byNote[60]; ok {
		t.Fatal("note that ended in the past is visible")
	}
	if _, ok := byNote[67]; ok {
		t.Fatal("note beyond the lookahead horizon is visible")
	}
	if !byNote[64].Playing {
		t.Fatal("sounding note not flagged Playing")
	}
	if byNote[62].Playing {
		t.Fatal("upcoming note flagged Playing")
	}
}

func TestProjectionGeometry(t *testing.T) {
	r, clk := newTestRoll()
	// Viewport 880x600, default 3s lookahead: 200 px/s, 10 px lanes.
	r.SetScore([]Event{
		{Note: 21, Start: time.Second, Duration: time.Second},
	}, "")
	clk.t = 0

	got := r.ComputeNotePositions(false)
	if len(got) != 1 {
		t.Fatalf("visible notes = %d, want 1", len(got))
	}
	n := got[0]
	if n.X != 0 || n.W != 10 {
		t.Fatalf("lane for lowest key: X=%v W=%v, want 0/10", n.X, n.W)
	}
	// Head one second above the play line: y = 600 - 200 = 400, minus the
	// 200px bar height.
	if n.H != 200 {
		t.Fatalf("bar height = %v, want 200", n.H)
	}
	if n.Y != 200 {
		t.Fatalf("bar top = %v, want 200", n.Y)
	}

	// One second later the head sits on the play line.
	clk.t = time.Second
	n = r.ComputeNotePositions(false)[0]
	if n.Y+n.H != 600 {
		t.Fatalf("head at %v, want on the play line (600)", n.Y+n.H)
	}
	if !n.Playing {
		t.Fatal("note at its start time not flagged Playing")
	}
}

func TestHighPerformanceQuantizesGeometry(t *testing.T) {
	r, clk := newTestRoll()
	r.SetViewport(883, 601) // deliberately awkward lane widths
	r.SetScore([]Event{
		{Note: 60, Start: 500 * time.Millisecond, Duration: 333 * time.Millisecond},
	}, "")
	clk.t = 0

	for _, n := range r.ComputeNotePositions(true) {
		for _, v := range []float64{n.X, n.Y, n.W, n.H} {
			if v != float64(int(v)) {
				t.Fatalf("quantized projection has fractional geometry: %+v", n)
			}
		}
	}
}

func TestLiveNotesGrowWhileHeld(t *testing.T) {
	r, clk := newTestRoll()
	clk.t = 10 * time.Second
	r.NoteOn(0, 60, 100)

	clk.t = 10*time.Second + 500*time.Millisecond
	got := r.ComputeNotePositions(false)
	if len(got) != 1 {
		t.Fatalf("visible live notes = %d, want 1", len(got))
	}
	if !got[0].Playing {
		t.Fatal("held live note not flagged Playing")
	}
	h1 := got[0].H

	clk.t = 11 * time.Second
	h2 := r.ComputeNotePositions(false)[0].H
	if h2 <= h1 {
		t.Fatalf("held note did not grow: %v then %v", h1, h2)
	}

	r.NoteOff(0, 60)
	clk.t = 11*time.Second + 100*time.Millisecond
	closed := r.ComputeNotePositions(false)
	if len(closed) != 0 {
		t.Fatalf("released note still visible after its end: %+v", closed)
	}
}

func TestDuplicateNoteOnIgnoredWhileHeld(t *testing.T) {
	r, clk := newTestRoll()
	clk.t = time.Second
	r.NoteOn(0, 60, 100)
	r.NoteOn(0, 60, 110)
	clk.t = time.Second + 10*time.Millisecond
	if got := r.ComputeNotePositions(false); len(got) != 1 {
		t.Fatalf("visible notes = %d, want 1", len(got))
	}
}

func TestTrimDropsStaleLiveNotes(t *testing.T) {
	r, clk := newTestRoll()
	clk.t = 0
	r.NoteOn(0, 60, 100)
	clk.t = 100 * time.Millisecond
	r.NoteOff(0, 60)

	// Well past the lookahead window: the event should be dropped.
	clk.t = time.Minute
	r.ComputeNotePositions(false)
	r.mu.Lock()
	live := len(r.live)
	r.mu.Unlock()
	if live != 0 {
		t.Fatalf("stale live events retained: %d", live)
	}
}

func TestOutOfRangeKeysSkipped(t *testing.T) {
	r, clk := newTestRoll()
	r.SetScore([]Event{
		{Note: 5, Start: 0, Duration: time.Second},
		{Note: 120, Start: 0, Duration: time.Second},
	}, "")
	clk.t = 0
	if got := r.ComputeNotePositions(false); len(got) != 0 {
		t.Fatalf("out-of-range keys projected: %+v", got)
	}
}
