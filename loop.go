package midiview

import "time"

// Mode selects what the main display area shows.
type Mode int

const (
	// ModeWaveform shows only the analyser layer. This is the one mode in
	// which the loop may go idle, since nothing on screen moves while the
	// audio is silent.
	ModeWaveform Mode = iota
	// ModeNotes shows the scrolling note display (the waveform layer may
	// still be drawn underneath).
	ModeNotes
)

// Loop is the render loop controller. It owns the idle/active state machine
// and the animation-frame scheduling, and decides once per frame whether a
// full draw, a single settle draw, or nothing is required.
//
// A Loop is confined to the host's UI thread: every method must be called
// from the same goroutine that the Scheduler fires callbacks on.
type Loop struct {
	surface   Surface
	scheduler Scheduler
	source    PlaybackSource
	engine    SoundEngine
	notes     NoteSource
	drawNotes NoteDrawFunc
	waveforms WaveformRenderer
	onFrame   func()
	now       func() time.Time

	mode            Mode
	renderNotes     bool
	renderWaveforms bool
	sideways        bool

	// idleSettled is true once the single settle frame has been drawn since
	// the last transition into idle. It lives for the whole rendering
	// session and is reset only by constructing a new Loop.
	idleSettled bool

	running bool
	timer   frameTimer
}

// NewLoop builds a controller with all layers enabled and the note display
// active. Collaborators left unset simply disable their layer.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		now:             time.Now,
		mode:            ModeNotes,
		renderNotes:     true,
		renderWaveforms: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins the self-rescheduling frame chain and draws the first frame
// immediately. Calling Start on a running loop does nothing.
func (l *Loop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.RenderFrame(true, false)
}

// Stop halts the chain deterministically: a refresh callback that was already
// requested before Stop becomes a no-op when it fires.
func (l *Loop) Stop() { l.running = false }

// Running reports whether the auto-rescheduling chain is active.
func (l *Loop) Running() bool { return l.running }

// RenderFrame is the per-frame entry point.
//
// When auto is true the controller clears the surface before drawing and
// requests the next refresh callback, so the loop keeps polling at display
// rate even through idle stretches. When auto is false at most the current
// frame is drawn and nothing is rescheduled; the host uses this for manual
// single-frame repaints.
//
// force bypasses the idle short-circuit for this call only.
func (l *Loop) RenderFrame(auto, force bool) {
	if l.nothingToDo(force) {
		if !l.idleSettled {
			// One last full draw so the screen is not left mid-animation,
			// then go quiet.
			l.drawFrame(auto, true)
			l.idleSettled = true
		}
		l.scheduleNext(auto)
		return
	}
	l.idleSettled = false
	l.drawFrame(auto, false)
	l.scheduleNext(auto)
}

// nothingToDo is the idle predicate: the playback source is absent or
// paused, no voice is audible, the display is waveform-only, and no force
// was requested.
func (l *Loop) nothingToDo(force bool) bool {
	if force {
		return false
	}
	if l.source != nil && !l.source.Paused() {
		return false
	}
	if l.engine != nil && l.engine.ActiveVoiceCount() > 0 {
		return false
	}
	return l.mode == ModeWaveform
}

func (l *Loop) drawFrame(auto, settle bool) {
	if l.surface == nil {
		return
	}
	if auto {
		l.surface.Clear()
	}
	l.compose(settle)
}

func (l *Loop) scheduleNext(auto bool) {
	if !auto || l.scheduler == nil {
		return
	}
	l.scheduler.RequestFrame(func() {
		if l.running {
			l.RenderFrame(true, false)
		}
	})
}

// SetSurface rebinds the drawing surface. Hosts whose surface is only valid
// during a repaint callback rebind it at the start of every frame.
func (l *Loop) SetSurface(s Surface) { l.surface = s }

// SetMode switches the display between waveform-only and note display.
func (l *Loop) SetMode(m Mode) { l.mode = m }

// DisplayMode returns the current display mode.
func (l *Loop) DisplayMode() Mode { return l.mode }

// SetRenderNotes toggles the note layer.
func (l *Loop) SetRenderNotes(on bool) { l.renderNotes = on }

// SetRenderWaveforms toggles the analyser layer.
func (l *Loop) SetRenderWaveforms(on bool) { l.renderWaveforms = on }

// SetSideways toggles the sideways note orientation.
func (l *Loop) SetSideways(on bool) { l.sideways = on }

// Sideways reports the current note orientation.
func (l *Loop) Sideways() bool { return l.sideways }
