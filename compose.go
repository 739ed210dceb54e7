package midiview

import (
	"math"
	"strconv"
)

// Overlay layout constants, in pixels of the target surface.
const (
	hudMargin = 8.0
	hudLineH  = 18.0

	pedalScale = 4.0
)

// compose performs the actual drawing for one frame: the analyser layer, the
// note layer, and the heads-up overlay, in that order. The surface has
// already been cleared by the controller when the frame came from the auto
// chain. settle marks the single trailing draw after activity ceased.
func (l *Loop) compose(settle bool) {
	fps := l.timer.tick(l.now())

	highPerf := l.engine != nil && l.engine.HighPerformance()

	// High-performance mode drops the analysers outright; they are the most
	// expensive layer and contribute nothing to following the notes.
	if l.renderWaveforms && !highPerf && l.waveforms != nil {
		l.waveforms.RenderWaveforms(l.surface, settle)
	}

	noteCount := 0
	timingReady := l.notes != nil && l.notes.Ready()
	if l.renderNotes && timingReady {
		// Positions are always recomputed, settle frames included, so the
		// note counter and the final drawn state stay consistent. Only the
		// per-note glyph drawing is shed under high-performance mode.
		notes := l.notes.ComputeNotePositions(highPerf)
		noteCount = len(notes)
		if !highPerf && l.drawNotes != nil {
			l.drawNotes(notes, l.surface, l.sideways)
		}
	}

	l.composeHUD(fps, noteCount, timingReady)

	if l.onFrame != nil {
		l.onFrame()
	}
}

// composeHUD draws the textual overlay: FPS, version and note count against
// the trailing edge, tempo and time signature against the leading edge, and
// a large centered pedal indicator while the hold pedal is down.
func (l *Loop) composeHUD(fps float64, noteCount int, timingReady bool) {
	s := l.surface
	w, h := s.Size()

	right := TextStyle{Align: AlignRight, Baseline: BaselineTop}
	s.FillText(strconv.Itoa(int(math.Round(fps)))+"FPS", w-hudMargin, hudMargin, right)
	s.FillText(Version, w-hudMargin, hudMargin+hudLineH, right)
	s.FillText(strconv.Itoa(noteCount)+" notes", w-hudMargin, hudMargin+2*hudLineH, right)

	if timingReady && l.source != nil {
		left := TextStyle{Align: AlignLeft, Baseline: BaselineTop}
		s.FillText(tempoLabel(l.source.Tempo(), l.source.Rate()), hudMargin, hudMargin, left)
		if sig := l.notes.TimeSignature(); sig != "" {
			s.FillText(sig, hudMargin, hudMargin+hudLineH, left)
		}
	}

	if l.source != nil && l.source.SustainPedal() {
		s.FillText("PEDAL", w/2, h/2, TextStyle{
			Align:    AlignCenter,
			Baseline: BaselineMiddle,
			Scale:    pedalScale,
		})
	}
}

// tempoLabel formats the effective tempo (score tempo times playback rate)
// rounded to two decimals, with trailing zeros dropped: 180 -> "180BPM",
// 99.456 -> "99.46BPM".
func tempoLabel(tempo, rate float64) string {
	v := math.Round(tempo*rate*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + "BPM"
}
