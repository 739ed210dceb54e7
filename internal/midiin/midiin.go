// Package midiin connects a live MIDI input port to the playback state.
// Only channel messages the display cares about are routed: note on/off and
// the hold pedal (CC64).
package midiin

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Virtual/system ports that are never auto-picked.
var excludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// Events receives the routed messages. Callbacks run on the MIDI driver's
// goroutine; keep them brief. Nil callbacks are skipped.
type Events struct {
	NoteOn  func(channel, note uint8, velocity int)
	NoteOff func(channel, note uint8)
	Pedal   func(down bool)
	// Lost is called once if the listener errors out (device unplugged).
	Lost func(err error)
}

// Input is an open connection to one MIDI input port.
type Input struct {
	drv  *rtmididrv.Driver
	port drivers.In
	stop func()
}

// Ports lists the names of the available MIDI input ports.
func Ports() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// Open connects to the input port whose name contains portName
// (case-insensitive). An empty portName picks the first non-virtual port.
func Open(portName string, ev Events) (*Input, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	port, err := pickPort(drv, portName)
	if err != nil {
		drv.Close()
		return nil, err
	}
	if err := port.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %q: %w", port.String(), err)
	}

	stop, err := midi.ListenTo(port, func(msg midi.Message, _ int32) {
		var ch, key, vel, cc, val uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			if ev.NoteOn != nil {
				ev.NoteOn(ch, key, int(vel))
			}
		case msg.GetNoteEnd(&ch, &key):
			if ev.NoteOff != nil {
				ev.NoteOff(ch, key)
			}
		case msg.GetControlChange(&ch, &cc, &val):
			// CC64: hold pedal, down at values 64 and above.
			if cc == 64 && ev.Pedal != nil {
				ev.Pedal(val >= 64)
			}
		}
	}, midi.HandleError(func(listenErr error) {
		if ev.Lost != nil {
			ev.Lost(listenErr)
		}
	}))
	if err != nil {
		_ = port.Close()
		drv.Close()
		return nil, fmt.Errorf("listen %q: %w", port.String(), err)
	}

	return &Input{drv: drv, port: port, stop: stop}, nil
}

// Name returns the connected port's name.
func (i *Input) Name() string { return i.port.String() }

// Close stops listening and shuts the driver down.
func (i *Input) Close() {
	if i.stop != nil {
		i.stop()
		i.stop = nil
	}
	if i.port != nil {
		_ = i.port.Close()
		i.port = nil
	}
	if i.drv != nil {
		i.drv.Close()
		i.drv = nil
	}
}

func pickPort(drv *rtmididrv.Driver, portName string) (drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	for _, in := range ins {
		name := in.String()
		if portName != "" {
			if strings.Contains(strings.ToLower(name), strings.ToLower(portName)) {
				return in, nil
			}
			continue
		}
		if !excluded(name) {
			return in, nil
		}
	}
	if portName != "" {
		return nil, fmt.Errorf("no MIDI input matching %q", portName)
	}
	return nil, fmt.Errorf("no usable MIDI input port")
}

func excluded(name string) bool {
	for _, pat := range excludedPatterns {
		if strings.Contains(strings.ToLower(name), strings.ToLower(pat)) {
			return true
		}
	}
	return false
}
