package midiview

import "time"

// Option configures a Loop at construction time.
type Option func(*Loop)

// WithSurface sets the initial drawing surface.
func WithSurface(s Surface) Option {
	return func(l *Loop) { l.surface = s }
}

// WithScheduler sets the display-refresh scheduler used by the auto chain.
// Without one the loop only ever draws when the host calls RenderFrame.
func WithScheduler(s Scheduler) Option {
	return func(l *Loop) { l.scheduler = s }
}

// WithPlaybackSource attaches the playback state read each frame.
func WithPlaybackSource(src PlaybackSource) Option {
	return func(l *Loop) { l.source = src }
}

// WithSoundEngine attaches the synthesizer state read each frame.
func WithSoundEngine(e SoundEngine) Option {
	return func(l *Loop) { l.engine = e }
}

// WithNoteSource attaches the note-position provider.
func WithNoteSource(n NoteSource) Option {
	return func(l *Loop) { l.notes = n }
}

// WithNoteDrawer sets the routine that draws one frame's projected notes.
func WithNoteDrawer(fn NoteDrawFunc) Option {
	return func(l *Loop) { l.drawNotes = fn }
}

// WithWaveformRenderer attaches the analyser layer.
func WithWaveformRenderer(r WaveformRenderer) Option {
	return func(l *Loop) { l.waveforms = r }
}

// WithRenderCompleteHook installs a callback invoked after each completed
// draw. It is fire-and-forget; the loop ignores whatever it does.
func WithRenderCompleteHook(fn func()) Option {
	return func(l *Loop) { l.onFrame = fn }
}

// WithClock overrides the timestamp source used for FPS computation. Tests
// use this to drive the frame timer deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMode sets the initial display mode.
func WithMode(m Mode) Option {
	return func(l *Loop) { l.mode = m }
}
