// Package midiin turns MIDI note-on messages into tempo events.
package midiin

import (
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// AnyChannel disables channel filtering.
const AnyChannel = -1

// Hit is a single struck note.
type Hit struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
	At       time.Time
}

// Listener forwards note-on messages from one input port.
type Listener struct {
	port    drivers.In
	channel int
	stop    func()
}

// Listen opens the named input port and calls emit for every note-on with a
// non-zero velocity. channel selects a single MIDI channel (0-15) or
// AnyChannel. emit runs on the driver's goroutine.
func Listen(portName string, channel int, emit func(Hit)) (*Listener, error) {
	in, err := gomidi.FindInPort(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to find MIDI input %q: %w", portName, err)
	}
	l := &Listener{port: in, channel: channel}
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		if hit, ok := l.hitFromMessage(msg); ok {
			hit.At = time.Now()
			emit(hit)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on MIDI input %q: %w", portName, err)
	}
	l.stop = stop
	return l, nil
}

// Port returns the name of the port being listened to.
func (l *Listener) Port() string {
	return l.port.String()
}

// Close stops listening.
func (l *Listener) Close() error {
	if l.stop != nil {
		l.stop()
	}
	return nil
}

// hitFromMessage treats note-on with velocity 0 as note-off.
func (l *Listener) hitFromMessage(msg gomidi.Message) (Hit, bool) {
	var ch, note, vel uint8
	if !msg.GetNoteOn(&ch, &note, &vel) || vel == 0 {
		return Hit{}, false
	}
	if l.channel != AnyChannel && int(ch) != l.channel {
		return Hit{}, false
	}
	return Hit{Channel: ch, Note: note, Velocity: vel}, true
}

// InPorts lists the names of the available MIDI input ports.
func InPorts() []string {
	ports := gomidi.GetInPorts()
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

// CloseDriver releases the registered MIDI driver.
func CloseDriver() {
	gomidi.CloseDriver()
}
