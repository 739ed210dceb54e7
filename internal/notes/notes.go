// Package notes maps playback time to on-screen note geometry for the
// scrolling display. Notes fall toward a play line at the bottom edge of
// the viewport; a note's head reaches the line exactly when it starts
// sounding.
package notes

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cbegin/midiview-go"
)

// Event is one scheduled or live note. A negative Duration marks a live
// note that is still held.
type Event struct {
	Note     int
	Channel  uint8
	Velocity int
	Start    time.Duration
	Duration time.Duration
}

// Clock supplies the current song position.
type Clock interface {
	Elapsed() time.Duration
}

// Keyboard span of the lane layout: A0..C8, the 88 piano keys.
const (
	lowKey  = 21
	highKey = 108
	numKeys = highKey - lowKey + 1
)

const defaultLookahead = 3 * time.Second

// Roll is a note-position provider. The projection is recomputed from
// scratch on every call; nothing geometric is cached across frames.
//
// Scores arrive whole via SetScore; live input trickles in through NoteOn
// and NoteOff, possibly from another goroutine. The two sets are kept
// separately because the score is sorted once while live notes arrive in
// play order on their own.
type Roll struct {
	mu        sync.Mutex
	clock     Clock
	score     []Event // sorted by Start
	live      []Event // naturally in Start order
	open      map[liveKey]int
	maxDur    time.Duration
	sig       string
	lookahead time.Duration
	w, h      float64
}

type liveKey struct {
	channel uint8
	note    uint8
}

func NewRoll(clock Clock) *Roll {
	return &Roll{
		clock:     clock,
		open:      make(map[liveKey]int),
		lookahead: defaultLookahead,
	}
}

// SetViewport tells the roll the surface dimensions to project into.
func (r *Roll) SetViewport(w, h float64) {
	r.mu.Lock()
	r.w, r.h = w, h
	r.mu.Unlock()
}

// SetLookahead adjusts how far ahead of the play line notes become visible.
func (r *Roll) SetLookahead(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.lookahead = d
	r.mu.Unlock()
}

// SetScore replaces all scheduled notes and the time-signature label. Live
// notes recorded so far are discarded with the old score.
func (r *Roll) SetScore(events []Event, timeSignature string) {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	var maxDur time.Duration
	for _, ev := range sorted {
		if ev.Duration > maxDur {
			maxDur = ev.Duration
		}
	}
	r.mu.Lock()
	r.score = sorted
	r.live = nil
	r.open = make(map[liveKey]int)
	r.maxDur = maxDur
	r.sig = timeSignature
	r.mu.Unlock()
}

// NoteOn opens a live note at the current song position.
func (r *Roll) NoteOn(channel, note uint8, velocity int) {
	now := r.clock.Elapsed()
	r.mu.Lock()
	defer r.mu.Unlock()
	k := liveKey{channel, note}
	if _, held := r.open[k]; held {
		return
	}
	r.live = append(r.live, Event{
		Note:     int(note),
		Channel:  channel,
		Velocity: velocity,
		Start:    now,
		Duration: -1,
	})
	r.open[k] = len(r.live) - 1
}

// NoteOff closes the matching live note.
func (r *Roll) NoteOff(channel, note uint8) {
	now := r.clock.Elapsed()
	r.mu.Lock()
	defer r.mu.Unlock()
	k := liveKey{channel, note}
	idx, held := r.open[k]
	if !held {
		return
	}
	delete(r.open, k)
	ev := &r.live[idx]
	ev.Duration = now - ev.Start
}

// Ready reports whether any note-timing data exists yet.
func (r *Roll) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.score) > 0 || len(r.live) > 0
}

// TimeSignature returns the score's label, or "" when unknown.
func (r *Roll) TimeSignature() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sig
}

// ComputeNotePositions projects every note visible at the current song
// position. Under highPerformance the geometry is quantized to whole pixels,
// shedding the sub-pixel math that dominates on very dense scores.
func (r *Roll) ComputeNotePositions(highPerformance bool) []midiview.NoteToRender {
	now := r.clock.Elapsed()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.w <= 0 || r.h <= 0 {
		return nil
	}
	horizon := now + r.lookahead
	laneW := r.w / numKeys
	pxPerSec := r.h / r.lookahead.Seconds()

	var out []midiview.NoteToRender

	// Score is sorted by Start: binary-search past everything that cannot
	// still be visible, stop at the horizon.
	lo := sort.Search(len(r.score), func(i int) bool {
		return r.score[i].Start >= now-r.maxDur
	})
	for _, ev := range r.score[lo:] {
		if ev.Start > horizon {
			break
		}
		out = r.project(out, ev, now, laneW, pxPerSec, highPerformance)
	}

	r.trimLive(now)
	for _, ev := range r.live {
		if ev.Start > horizon {
			break
		}
		out = r.project(out, ev, now, laneW, pxPerSec, highPerformance)
	}
	return out
}

// project appends ev's on-screen rectangle to out if any part is visible.
// Callers hold r.mu.
func (r *Roll) project(out []midiview.NoteToRender, ev Event, now time.Duration, laneW, pxPerSec float64, quantize bool) []midiview.NoteToRender {
	end := ev.Start + ev.Duration
	if ev.Duration < 0 {
		end = now // still held
	}
	if end < now {
		return out
	}
	lane := ev.Note - lowKey
	if lane < 0 || lane >= numKeys {
		return out
	}

	// The head (bottom of the bar) crosses the play line when the note
	// starts; the sounded part below the line is clipped by the drawer.
	headY := r.h - (ev.Start-now).Seconds()*pxPerSec
	barH := (end - ev.Start).Seconds() * pxPerSec
	if barH < 1 {
		barH = 1
	}

	n := midiview.NoteToRender{
		Note:     ev.Note,
		Channel:  ev.Channel,
		Velocity: ev.Velocity,
		X:        float64(lane) * laneW,
		Y:        headY - barH,
		W:        laneW,
		H:        barH,
		Playing:  ev.Start <= now,
	}
	if quantize {
		n.X = math.Trunc(n.X)
		n.Y = math.Trunc(n.Y)
		n.W = math.Trunc(n.W)
		n.H = math.Trunc(n.H)
	}
	return append(out, n)
}

// trimLive drops closed live notes that scrolled out of view long ago, so a
// long session does not grow without bound. Index bookkeeping for the open
// map is rebuilt when anything is dropped. Callers hold r.mu.
func (r *Roll) trimLive(now time.Duration) {
	cutoff := now - r.lookahead
	keep := 0
	for _, ev := range r.live {
		if ev.Duration >= 0 && ev.Start+ev.Duration < cutoff {
			continue
		}
		r.live[keep] = ev
		keep++
	}
	if keep == len(r.live) {
		return
	}
	r.live = r.live[:keep]
	for k := range r.open {
		delete(r.open, k)
	}
	for i, ev := range r.live {
		if ev.Duration < 0 {
			r.open[liveKey{ev.Channel, uint8(ev.Note)}] = i
		}
	}
}
