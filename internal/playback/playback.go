// Package playback keeps the bookkeeping state of a playback session: the
// transport (pause, tempo, rate), the set of sounding voices, the sustain
// pedal, and a song clock. It does no synthesis; the audio side feeds it.
package playback

import (
	"sync"
	"time"
)

// voiceKey identifies one sounding note on one channel.
type voiceKey struct {
	channel uint8
	note    uint8
}

// Source is safe for concurrent use: the UI thread reads it every frame
// while MIDI input or a sequencer mutates it.
type Source struct {
	mu       sync.Mutex
	paused   bool
	tempo    float64
	rate     float64
	pedal    bool
	highPerf bool
	voices   map[voiceKey]int // velocity per sounding voice

	// Song clock: pos accumulates scaled song time up to the last state
	// change; resumedAt anchors the running segment.
	pos       time.Duration
	resumedAt time.Time
	now       func() time.Time
}

const defaultTempo = 120

func New() *Source {
	s := &Source{
		tempo:  defaultTempo,
		rate:   1,
		paused: true,
		voices: make(map[voiceKey]int),
		now:    time.Now,
	}
	return s
}

// SetClock overrides the wall clock. Tests drive the song position with it.
func (s *Source) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Source) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetPaused freezes or resumes the song clock.
func (s *Source) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused == paused {
		return
	}
	s.foldClock()
	s.paused = paused
}

func (s *Source) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

func (s *Source) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	s.mu.Lock()
	s.tempo = bpm
	s.mu.Unlock()
}

func (s *Source) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetRate changes the playback-rate multiplier. Song time already elapsed is
// unaffected; only the clock's forward speed changes.
func (s *Source) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foldClock()
	s.rate = rate
}

func (s *Source) SustainPedal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pedal
}

func (s *Source) SetSustainPedal(down bool) {
	s.mu.Lock()
	s.pedal = down
	s.mu.Unlock()
}

func (s *Source) HighPerformance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highPerf
}

func (s *Source) SetHighPerformance(on bool) {
	s.mu.Lock()
	s.highPerf = on
	s.mu.Unlock()
}

// NoteOn registers a sounding voice. A velocity of 0 is a note-off, per MIDI
// convention.
func (s *Source) NoteOn(channel, note uint8, velocity int) {
	if velocity == 0 {
		s.NoteOff(channel, note)
		return
	}
	s.mu.Lock()
	s.voices[voiceKey{channel, note}] = velocity
	s.mu.Unlock()
}

func (s *Source) NoteOff(channel, note uint8) {
	s.mu.Lock()
	delete(s.voices, voiceKey{channel, note})
	s.mu.Unlock()
}

// AllNotesOff silences every voice, e.g. when the input device disappears.
func (s *Source) AllNotesOff() {
	s.mu.Lock()
	s.voices = make(map[voiceKey]int)
	s.pedal = false
	s.mu.Unlock()
}

func (s *Source) ActiveVoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

// Elapsed returns the current song position: frozen while paused, scaled by
// the rate multiplier while running.
func (s *Source) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return s.pos
	}
	wall := s.now().Sub(s.resumedAt)
	return s.pos + time.Duration(float64(wall)*s.rate)
}

// Seek rewinds or advances the song clock.
func (s *Source) Seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
	s.resumedAt = s.now()
}

// foldClock accumulates the running segment into pos and re-anchors.
// Callers hold s.mu.
func (s *Source) foldClock() {
	if !s.paused {
		wall := s.now().Sub(s.resumedAt)
		s.pos += time.Duration(float64(wall) * s.rate)
	}
	s.resumedAt = s.now()
}
