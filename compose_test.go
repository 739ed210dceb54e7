package midiview

import "testing"

func TestTempoLabelFormatting(t *testing.T) {
	cases := []struct {
		tempo, rate float64
		want        string
	}{
		{120, 1.5, "180BPM"},
		{120, 1, "120BPM"},
		{99.456, 1, "99.46BPM"},
		{88.2, 0.5, "44.1BPM"},
		{0, 1, "0BPM"},
	}
	for _, c := range cases {
		if got := tempoLabel(c.tempo, c.rate); got != c.want {
			t.Fatalf("tempoLabel(%v, %v) = %q, want %q", c.tempo, c.rate, got, c.want)
		}
	}
}

func TestHUDTempoAndSignatureNeedTimingData(t *testing.T) {
	surface := newRecordingSurface()
	src := &fakeSource{tempo: 120, rate: 1.5}
	notes := &fakeNotes{sig: "3/4"}
	loop := NewLoop(
		WithSurface(surface),
		WithPlaybackSource(src),
		WithNoteSource(notes),
	)

	loop.RenderFrame(false, true)
	if surface.hasText("180BPM") || surface.hasText("3/4") {
		t.Fatalf("tempo/signature drawn without timing data; texts = %+v", surface.texts)
	}

	notes.ready = true
	surface.texts = nil
	loop.RenderFrame(false, true)
	if !surface.hasText("180BPM") {
		t.Fatalf("tempo label missing; texts = %+v", surface.texts)
	}
	if !surface.hasText("3/4") {
		t.Fatalf("time signature missing; texts = %+v", surface.texts)
	}
}

func TestHUDAnchors(t *testing.T) {
	surface := newRecordingSurface()
	src := &fakeSource{tempo: 120, rate: 1, pedal: true}
	notes := &fakeNotes{ready: true, sig: "4/4"}
	loop := NewLoop(
		WithSurface(surface),
		WithPlaybackSource(src),
		WithNoteSource(notes),
	)

	loop.RenderFrame(false, true)

	w, h := surface.Size()
	for _, c := range surface.texts {
		switch c.text {
		case Version:
			if c.style.Align != AlignRight || c.x != w-hudMargin {
				t.Fatalf("version not anchored to trailing edge: %+v", c)
			}
		case "120BPM", "4/4":
			if c.style.Align != AlignLeft || c.x != hudMargin {
				t.Fatalf("%s not anchored to leading edge: %+v", c.text, c)
			}
		case "PEDAL":
			if c.style.Align != AlignCenter || c.style.Baseline != BaselineMiddle {
				t.Fatalf("pedal label not centered: %+v", c)
			}
			if c.x != w/2 || c.y != h/2 {
				t.Fatalf("pedal label at (%v,%v), want surface center", c.x, c.y)
			}
			if c.style.Scale <= 1 {
				t.Fatalf("pedal label scale = %v, want enlarged", c.style.Scale)
			}
		}
	}
	if !surface.hasText("PEDAL") {
		t.Fatalf("pedal label missing while pedal down; texts = %+v", surface.texts)
	}
}

func TestPedalLabelFollowsPedalState(t *testing.T) {
	surface := newRecordingSurface()
	src := &fakeSource{tempo: 120, rate: 1}
	loop := NewLoop(WithSurface(surface), WithPlaybackSource(src))

	loop.RenderFrame(false, true)
	if surface.hasText("PEDAL") {
		t.Fatal("pedal label drawn while pedal up")
	}

	src.pedal = true
	surface.texts = nil
	loop.RenderFrame(false, true)
	if !surface.hasText("PEDAL") {
		t.Fatal("pedal label missing while pedal down")
	}
}

func TestNoteLayerSkippedWhenDisabled(t *testing.T) {
	surface := newRecordingSurface()
	notes := &fakeNotes{ready: true, notes: make([]NoteToRender, 2)}
	drawCalls := 0
	loop := NewLoop(
		WithSurface(surface),
		WithNoteSource(notes),
		WithNoteDrawer(func([]NoteToRender, Surface, bool) { drawCalls++ }),
	)

	loop.SetRenderNotes(false)
	loop.RenderFrame(false, true)
	if notes.computeCalls != 0 || drawCalls != 0 {
		t.Fatalf("disabled note layer still ran: compute=%d draw=%d", notes.computeCalls, drawCalls)
	}

	loop.SetRenderNotes(true)
	loop.RenderFrame(false, true)
	if notes.computeCalls != 1 || drawCalls != 1 {
		t.Fatalf("enabled note layer: compute=%d draw=%d, want 1/1", notes.computeCalls, drawCalls)
	}
}

func TestSidewaysFlagReachesNoteDrawer(t *testing.T) {
	surface := newRecordingSurface()
	notes := &fakeNotes{ready: true}
	var gotSideways bool
	loop := NewLoop(
		WithSurface(surface),
		WithNoteSource(notes),
		WithNoteDrawer(func(_ []NoteToRender, _ Surface, sideways bool) { gotSideways = sideways }),
	)

	loop.SetSideways(true)
	loop.RenderFrame(false, true)
	if !gotSideways {
		t.Fatal("sideways flag not forwarded to the note drawer")
	}
}
