package midiview

// Align positions text horizontally relative to its anchor point.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Baseline positions text vertically relative to its anchor point.
type Baseline int

const (
	BaselineTop Baseline = iota
	BaselineMiddle
	BaselineBottom
)

// TextStyle controls how a Surface lays out a FillText call. A zero Scale
// means the surface's native text size.
type TextStyle struct {
	Align    Align
	Baseline Baseline
	Scale    float64
}

// Surface is the 2D immediate-mode canvas everything draws against. The
// renderer never retains a Surface between frames; the host may hand in a
// different one on every call.
type Surface interface {
	// Size reports the drawable area in pixels.
	Size() (w, h float64)
	// Clear wipes the whole surface.
	Clear()
	// FillText draws a single line of text anchored at (x, y).
	FillText(text string, x, y float64, style TextStyle)
}

// NoteToRender is the geometric projection of an active or upcoming note,
// recomputed by the note-position provider on every drawn frame and never
// cached across frames.
type NoteToRender struct {
	Note     int
	Channel  uint8
	Velocity int

	// Rectangle on the surface, in pixels.
	X, Y, W, H float64

	// Playing is true while the note is currently sounding (as opposed to
	// still approaching the play line).
	Playing bool
}

// PlaybackSource exposes the read-only playback state the renderer consults
// each frame. Implementations are never mutated by this package.
type PlaybackSource interface {
	Paused() bool
	// Tempo is the current score tempo in BPM, before the rate multiplier.
	Tempo() float64
	// Rate is the playback-rate multiplier (1 = normal speed).
	Rate() float64
	SustainPedal() bool
}

// SoundEngine exposes the audible state of the synthesizer.
type SoundEngine interface {
	// ActiveVoiceCount returns the number of voices still sounding,
	// including release tails.
	ActiveVoiceCount() int
	// HighPerformance reports whether degraded-fidelity rendering is
	// requested to survive extremely dense material.
	HighPerformance() bool
}

// NoteSource maps playback time to on-screen note geometry.
type NoteSource interface {
	// Ready reports whether note-timing data is available at all. When it
	// returns false the note layer and the tempo/time-signature overlay are
	// skipped for the frame.
	Ready() bool
	// ComputeNotePositions projects the notes visible right now. Under the
	// high-performance flag the provider may reduce fidelity, but it is
	// still called so the on-screen count stays truthful.
	ComputeNotePositions(highPerformance bool) []NoteToRender
	// TimeSignature returns a label such as "4/4", or "" when unknown.
	TimeSignature() string
}

// NoteDrawFunc renders one frame's worth of projected notes. Drawing is its
// only side effect.
type NoteDrawFunc func(notes []NoteToRender, dst Surface, sideways bool)

// WaveformRenderer draws the analyser layer. forceStraight is set on the
// settle frame after activity ceases, so the analysers flatten out instead
// of freezing mid-wave.
type WaveformRenderer interface {
	RenderWaveforms(dst Surface, forceStraight bool)
}

// Scheduler invokes the given callback once, before the host's next repaint.
// No ordering is guaranteed beyond "next available repaint".
type Scheduler interface {
	RequestFrame(func())
}
