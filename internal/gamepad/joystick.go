package gamepad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Linux joystick API event types (from <linux/joystick.h>).
const (
	jsEventButton = 0x01
	jsEventAxis   = 0x02
	jsEventInit   = 0x80
)

const (
	jsEventSize = 8
	axisMax     = 32767.0
	maxControls = 128
)

type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

// Joystick reads a Linux /dev/input/jsN device and keeps its latest state.
type Joystick struct {
	path string
	file io.ReadCloser

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

// OpenJoystick opens the device and starts reading events in the background.
func OpenJoystick(path string) (*Joystick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open joystick %s: %w", path, err)
	}
	return newJoystick(path, f), nil
}

func newJoystick(path string, r io.ReadCloser) *Joystick {
	js := &Joystick{
		path:  path,
		file:  r,
		state: State{ID: path},
		done:  make(chan struct{}),
	}
	go js.readLoop()
	return js
}

// Snapshot implements Source. A joystick whose reader stopped reports nothing.
func (js *Joystick) Snapshot() []State {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.err != nil {
		return nil
	}
	return []State{js.state.clone()}
}

// Err returns the error that stopped the reader, if any.
func (js *Joystick) Err() error {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.err
}

// Close stops the reader and releases the device.
func (js *Joystick) Close() error {
	err := js.file.Close()
	<-js.done
	return err
}

func (js *Joystick) readLoop() {
	defer close(js.done)
	buf := make([]byte, jsEventSize)
	for {
		if _, err := io.ReadFull(js.file, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				err = io.EOF
			} else {
				slog.Error("joystick read failed", "path", js.path, "err", err)
			}
			js.mu.Lock()
			js.err = err
			js.mu.Unlock()
			return
		}
		js.apply(decodeJSEvent(buf))
	}
}

func decodeJSEvent(buf []byte) jsEvent {
	return jsEvent{
		Time:   binary.NativeEndian.Uint32(buf[0:4]),
		Value:  int16(binary.NativeEndian.Uint16(buf[4:6])),
		Type:   buf[6],
		Number: buf[7],
	}
}

func (js *Joystick) apply(ev jsEvent) {
	idx := int(ev.Number)
	if idx >= maxControls {
		return
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	switch ev.Type &^ jsEventInit {
	case jsEventButton:
		for len(js.state.Buttons) <= idx {
			js.state.Buttons = append(js.state.Buttons, Button{})
		}
		pressed := ev.Value != 0
		value := 0.0
		if pressed {
			value = 1
		}
		js.state.Buttons[idx] = Button{Pressed: pressed, Value: value}
	case jsEventAxis:
		for len(js.state.Axes) <= idx {
			js.state.Axes = append(js.state.Axes, 0)
		}
		// -32768 would land just below -1.
		js.state.Axes[idx] = max(-1, float64(ev.Value)/axisMax)
	}
}

// ListJoysticks returns the Linux joystick device paths present on the system.
func ListJoysticks() ([]string, error) {
	paths, err := filepath.Glob("/dev/input/js*")
	if err != nil {
		return nil, fmt.Errorf("failed to list joysticks: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
