// Package midiview drives the visual side of an interactive MIDI playback
// application: a scrolling note display, waveform analysers, and a heads-up
// overlay (FPS, tempo, time signature, pedal state) kept in sync with an
// audio-producing sequencer.
//
// The package owns the per-frame decision logic only. Audio synthesis, note
// scheduling and input handling belong to the host; they are reached through
// the small collaborator interfaces declared in this package.
package midiview

// Version is shown on the heads-up overlay of every drawn frame.
const Version = "v0.4.1"
