package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/midiview-go"
	"github.com/cbegin/midiview-go/internal/analyzer"
	"github.com/cbegin/midiview-go/internal/midiin"
	"github.com/cbegin/midiview-go/internal/notes"
	"github.com/cbegin/midiview-go/internal/playback"
)

const (
	windowW = 1280
	windowH = 800

	feedSampleRate = 48000
	fftSize        = 2048

	charW = 7
	charH = 14
)

var (
	bgColor       = color.RGBA{12, 12, 18, 255}
	playLineColor = color.RGBA{200, 200, 220, 160}
	waveColor     = color.RGBA{80, 200, 255, 220}
	gridColor     = color.RGBA{40, 44, 58, 100}
)

// channelColors shade note bars per MIDI channel, cycling past 8.
var channelColors = []color.RGBA{
	{86, 180, 233, 255},
	{230, 159, 0, 255},
	{0, 158, 115, 255},
	{240, 228, 66, 255},
	{204, 121, 167, 255},
	{213, 94, 0, 255},
	{0, 114, 178, 255},
	{170, 170, 170, 255},
}

// canvasSurface adapts an ebiten image to the renderer's Surface. It is
// rebound every Draw because the screen image is only valid inside one.
type canvasSurface struct {
	img       *ebiten.Image
	textCache map[string]*ebiten.Image
}

func newCanvasSurface() *canvasSurface {
	return &canvasSurface{textCache: make(map[string]*ebiten.Image, 1024)}
}

func (s *canvasSurface) bind(img *ebiten.Image) { s.img = img }

func (s *canvasSurface) Size() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (s *canvasSurface) Clear() { s.img.Fill(bgColor) }

func (s *canvasSurface) FillText(text string, x, y float64, style midiview.TextStyle) {
	if text == "" {
		return
	}
	img := s.textCache[text]
	if img == nil {
		w := len([]rune(text)) * charW
		if w < 1 {
			w = 1
		}
		img = ebiten.NewImage(w, charH)
		ebitenutil.DebugPrintAt(img, text, 0, 0)
		if len(s.textCache) > 3000 {
			s.textCache = make(map[string]*ebiten.Image, 1024)
		}
		s.textCache[text] = img
	}

	scale := style.Scale
	if scale <= 0 {
		scale = 1
	}
	w := float64(len([]rune(text))*charW) * scale
	h := float64(charH) * scale
	switch style.Align {
	case midiview.AlignCenter:
		x -= w / 2
	case midiview.AlignRight:
		x -= w
	}
	switch style.Baseline {
	case midiview.BaselineMiddle:
		y -= h / 2
	case midiview.BaselineBottom:
		y -= h
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	s.img.DrawImage(img, op)
}

// frameScheduler queues refresh callbacks and replays them inside ebiten's
// Draw, which is the closest thing ebiten has to "before the next repaint".
type frameScheduler struct {
	pending []func()
}

func (f *frameScheduler) RequestFrame(cb func()) { f.pending = append(f.pending, cb) }

func (f *frameScheduler) drain() {
	// Callbacks reschedule themselves; snapshot first so this frame only
	// runs what was already queued.
	cbs := f.pending
	f.pending = nil
	for _, cb := range cbs {
		cb()
	}
}

// waveRenderer draws the analyser layer from the tap ring buffer: a scrolling
// trace in the lower third plus spectrum bars along the bottom edge.
type waveRenderer struct {
	analyzer *analyzer.Analyzer
	spectrum *analyzer.Spectrum
	peak     analyzer.PeakTracker
	pos      func() int64 // playback position in samples
}

func (w *waveRenderer) RenderWaveforms(dst midiview.Surface, forceStraight bool) {
	cs, ok := dst.(*canvasSurface)
	if !ok {
		return
	}
	sw, sh := cs.Size()
	midY := sh * 0.82
	half := sh * 0.10

	ebitenutil.DrawRect(cs.img, 0, midY, sw, 1, gridColor)
	if forceStraight {
		// Settle frame: flatten the trace instead of freezing mid-wave.
		ebitenutil.DrawLine(cs.img, 0, midY, sw, midY, waveColor)
		return
	}

	snap := w.analyzer.Snapshot(fftSize, w.pos())
	w.drawTrace(cs, snap, sw, midY, half)
	w.drawBars(cs, snap, sw, sh)
}

func (w *waveRenderer) drawTrace(cs *canvasSurface, snap []float32, sw, midY, half float64) {
	if len(snap) < 2 || sw < 2 {
		return
	}
	gain := w.peak.Gain(snap, half-2)
	trigger := analyzer.RisingEdge(snap, len(snap)/4)
	visible := len(snap) - trigger
	if visible < 2 {
		visible = 2
	}
	prevX := 0.0
	prevY := midY - float64(snap[trigger])*gain
	width := int(sw)
	for px := 1; px < width; px++ {
		si := trigger + px*visible/width
		if si >= len(snap) {
			si = len(snap) - 1
		}
		y := midY - float64(snap[si])*gain
		ebitenutil.DrawLine(cs.img, prevX, prevY, float64(px), y, waveColor)
		prevX = float64(px)
		prevY = y
	}
}

func (w *waveRenderer) drawBars(cs *canvasSurface, snap []float32, sw, sh float64) {
	numBars := int(sw) / 6
	if numBars < 16 {
		numBars = 16
	}
	if numBars > 256 {
		numBars = 256
	}
	bins := w.spectrum.Update(snap, numBars)
	if bins == nil {
		return
	}
	barArea := sh * 0.07
	barW := sw / float64(numBars)
	for i, v := range bins {
		barH := v * barArea
		if barH < 1 {
			barH = 1
		}
		x := float64(i) * barW
		ebitenutil.DrawRect(cs.img, x+1, sh-barH, barW-1, barH, spectrumColor(v))
	}
}

func spectrumColor(v float64) color.RGBA {
	if v < 0.33 {
		t := v / 0.33
		return color.RGBA{uint8(30 + 20*t), uint8(80 + 120*t), uint8(200 + 55*t), 220}
	}
	if v < 0.66 {
		t := (v - 0.33) / 0.33
		return color.RGBA{uint8(50 + 140*t), uint8(200 + 30*t), uint8(255 - 100*t), 220}
	}
	t := (v - 0.66) / 0.34
	return color.RGBA{uint8(190 + 65*t), uint8(230 - 100*t), uint8(155 - 100*t), 220}
}

// drawNotes renders one frame's projected notes. In sideways orientation the
// axes are swapped so notes scroll from left to right instead of falling.
func drawNotes(ns []midiview.NoteToRender, dst midiview.Surface, sideways bool) {
	cs, ok := dst.(*canvasSurface)
	if !ok {
		return
	}
	sw, sh := cs.Size()
	for _, n := range ns {
		col := channelColors[int(n.Channel)%len(channelColors)]
		if n.Playing {
			col.A = 255
		} else {
			col.A = 180
		}
		x, y, w, h := n.X, n.Y, n.W-1, n.H
		if sideways {
			// Mirror across the diagonal: lanes become rows, the play line
			// moves to the right edge.
			x, y = sw-(n.Y+n.H)*sw/sh, n.X*sh/sw
			w, h = n.H*sw/sh, n.W*sh/sw-1
		}
		// Clip the sounded part below the play line.
		if !sideways && y+h > sh {
			h = sh - y
		}
		if w < 1 || h < 1 {
			continue
		}
		ebitenutil.DrawRect(cs.img, x, y, w, h, col)
	}
	if sideways {
		ebitenutil.DrawLine(cs.img, sw-1, 0, sw-1, sh, playLineColor)
	} else {
		ebitenutil.DrawLine(cs.img, 0, sh-1, sw, sh-1, playLineColor)
	}
}

// demoDriver replays a built-in score against the song clock, flipping the
// corresponding voices in the playback state so that idle detection, voice
// counts and the analyser feed behave as they would with a real sequencer.
type demoDriver struct {
	src    *playback.Source
	score  []notes.Event
	cursor int
	active []notes.Event
	feed   *demoFeed
}

func newDemoDriver(src *playback.Source, score []notes.Event, feed *demoFeed) *demoDriver {
	return &demoDriver{src: src, score: score, feed: feed}
}

func (d *demoDriver) tick() {
	now := d.src.Elapsed()

	for d.cursor < len(d.score) && d.score[d.cursor].Start <= now {
		ev := d.score[d.cursor]
		d.src.NoteOn(ev.Channel, uint8(ev.Note), ev.Velocity)
		if d.feed != nil {
			d.feed.noteOn(ev.Note, ev.Velocity)
		}
		d.active = append(d.active, ev)
		d.cursor++
	}

	keep := d.active[:0]
	for _, ev := range d.active {
		if ev.Start+ev.Duration <= now {
			d.src.NoteOff(ev.Channel, uint8(ev.Note))
			if d.feed != nil {
				d.feed.noteOff(ev.Note)
			}
			continue
		}
		keep = append(keep, ev)
	}
	d.active = keep

	// Loop the demo score.
	if d.cursor >= len(d.score) && len(d.active) == 0 {
		d.src.Seek(0)
		d.cursor = 0
	}
}

// demoFeed synthesizes a plain sine per held note into the analyser tap,
// standing in for the external synthesizer so the waveform display has
// something to show. It is display plumbing, not an instrument. noteOn and
// noteOff may arrive from the MIDI driver's goroutine.
type demoFeed struct {
	mu       sync.Mutex
	analyzer *analyzer.Analyzer
	phases   map[int]float64
	fed      int64
	buf      []float32
}

func newDemoFeed(a *analyzer.Analyzer) *demoFeed {
	return &demoFeed{analyzer: a, phases: make(map[int]float64)}
}

func (f *demoFeed) noteOn(note, velocity int) {
	f.mu.Lock()
	f.phases[note] = 0
	f.mu.Unlock()
}

func (f *demoFeed) noteOff(note int) {
	f.mu.Lock()
	delete(f.phases, note)
	f.mu.Unlock()
}

func (f *demoFeed) pos() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fed
}

// tick produces one display frame's worth of samples.
func (f *demoFeed) tick() {
	const frames = feedSampleRate / 60
	if cap(f.buf) < frames*2 {
		f.buf = make([]float32, frames*2)
	}
	buf := f.buf[:frames*2]
	for i := range buf {
		buf[i] = 0
	}
	f.mu.Lock()
	for note := range f.phases {
		freq := 440.0 * math.Pow(2, float64(note-69)/12)
		step := 2 * math.Pi * freq / feedSampleRate
		phase := f.phases[note]
		for i := 0; i < frames; i++ {
			v := float32(0.2 * math.Sin(phase))
			buf[i*2] += v
			buf[i*2+1] += v
			phase += step
		}
		f.phases[note] = math.Mod(phase, 2*math.Pi)
	}
	f.fed += frames
	f.mu.Unlock()
	f.analyzer.Tap(buf)
}

type game struct {
	loop        *midiview.Loop
	surface     *canvasSurface
	sched       *frameScheduler
	src         *playback.Source
	roll        *notes.Roll
	demo        *demoDriver
	feed        *demoFeed
	input       *midiin.Input
	waveformsOn bool
}

func (g *game) Update() error {
	if !g.src.Paused() {
		if g.demo != nil {
			g.demo.tick()
		}
		if g.feed != nil {
			g.feed.tick()
		}
	}
	g.handleKeys()
	return nil
}

func (g *game) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.src.SetPaused(!g.src.Paused())
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		if g.loop.DisplayMode() == midiview.ModeNotes {
			g.loop.SetMode(midiview.ModeWaveform)
		} else {
			g.loop.SetMode(midiview.ModeNotes)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyW):
		g.waveformsOn = !g.waveformsOn
		g.loop.SetRenderWaveforms(g.waveformsOn)
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.src.SetHighPerformance(!g.src.HighPerformance())
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.loop.SetSideways(!g.loop.Sideways())
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.loop.RenderFrame(false, true)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.src.SetRate(g.src.Rate() * 1.25)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.src.SetRate(g.src.Rate() / 1.25)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	g.surface.bind(screen)
	g.loop.SetSurface(g.surface)
	w, h := g.surface.Size()
	g.roll.SetViewport(w, h)
	g.sched.drain()
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return outsideW, outsideH
}

func (g *game) Close() {
	g.loop.Stop()
	if g.input != nil {
		g.input.Close()
	}
}

// demoScore builds the built-in looping arpeggio pattern.
func demoScore() []notes.Event {
	chords := [][]int{
		{48, 60, 64, 67},
		{45, 57, 60, 64},
		{41, 53, 57, 60},
		{43, 55, 59, 62},
	}
	var evs []notes.Event
	t := time.Duration(0)
	step := 250 * time.Millisecond
	for bar := 0; bar < 2; bar++ {
		for _, chord := range chords {
			// Sustained root plus an arpeggio over it.
			evs = append(evs, notes.Event{
				Note: chord[0], Channel: 0, Velocity: 80,
				Start: t, Duration: 8 * step,
			})
			for i := 0; i < 8; i++ {
				evs = append(evs, notes.Event{
					Note: chord[1+i%3], Channel: 1, Velocity: 100,
					Start: t + time.Duration(i)*step, Duration: step,
				})
			}
			t += 8 * step
		}
	}
	return evs
}

func main() {
	var (
		midiPort = flag.String("midi", "", "connect to a MIDI input port matching this name; \"list\" prints ports")
		demo     = flag.Bool("demo", true, "play the built-in demo score (disabled automatically with -midi)")
		tempo    = flag.Float64("tempo", 120, "score tempo in BPM")
		rate     = flag.Float64("rate", 1.0, "playback-rate multiplier")
		look     = flag.Duration("lookahead", 3*time.Second, "note display lookahead window")
		waveOnly = flag.Bool("waveform-only", false, "start in waveform-only display mode")
		highPerf = flag.Bool("high-performance", false, "start with degraded-fidelity rendering")
		sideways = flag.Bool("sideways", false, "scroll notes sideways instead of falling")
	)
	flag.Parse()

	if *midiPort == "list" {
		ports, err := midiin.Ports()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	src := playback.New()
	src.SetTempo(*tempo)
	src.SetRate(*rate)
	src.SetHighPerformance(*highPerf)

	roll := notes.NewRoll(src)
	roll.SetLookahead(*look)

	an := analyzer.New(feedSampleRate)
	feed := newDemoFeed(an)
	waves := &waveRenderer{
		analyzer: an,
		spectrum: analyzer.NewSpectrum(feedSampleRate, fftSize),
		pos:      feed.pos,
	}

	surface := newCanvasSurface()
	sched := &frameScheduler{}
	loop := midiview.NewLoop(
		midiview.WithScheduler(sched),
		midiview.WithPlaybackSource(src),
		midiview.WithSoundEngine(src),
		midiview.WithNoteSource(roll),
		midiview.WithNoteDrawer(drawNotes),
		midiview.WithWaveformRenderer(waves),
	)
	if *waveOnly {
		loop.SetMode(midiview.ModeWaveform)
	}
	loop.SetSideways(*sideways)

	g := &game{
		loop:        loop,
		surface:     surface,
		sched:       sched,
		src:         src,
		roll:        roll,
		feed:        feed,
		waveformsOn: true,
	}

	if *midiPort != "" {
		input, err := midiin.Open(*midiPort, midiin.Events{
			NoteOn: func(ch, note uint8, vel int) {
				src.NoteOn(ch, note, vel)
				roll.NoteOn(ch, note, vel)
				feed.noteOn(int(note), vel)
			},
			NoteOff: func(ch, note uint8) {
				src.NoteOff(ch, note)
				roll.NoteOff(ch, note)
				feed.noteOff(int(note))
			},
			Pedal: func(down bool) { src.SetSustainPedal(down) },
			Lost: func(err error) {
				log.Printf("midi input lost: %v", err)
				src.AllNotesOff()
			},
		})
		if err != nil {
			log.Fatal(err)
		}
		g.input = input
		log.Printf("listening on %s", input.Name())
		src.SetPaused(false)
	} else if *demo {
		score := demoScore()
		roll.SetScore(score, "4/4")
		g.demo = newDemoDriver(src, score, feed)
		src.SetPaused(false)
	}

	defer g.Close()
	loop.Start()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("midiview " + midiview.Version)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
