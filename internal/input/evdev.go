package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Linux input event types and values (from <linux/input.h>).
const (
	evKey = 0x01

	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// struct input_event starts with two kernel longs (seconds, microseconds),
// so its size follows the word size: 24 bytes on 64-bit, 16 on 32-bit.
const (
	timeFieldSize  = strconv.IntSize / 8
	inputEventSize = 2*timeFieldSize + 8
)

type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// KeyboardDevice reads key events from a Linux evdev node such as
// /dev/input/event3. Unlike terminal input it can tell auto-repeat apart.
type KeyboardDevice struct {
	path string
	file io.ReadCloser
	done chan struct{}
}

// OpenKeyboard opens the device and calls emit for every key-down and
// auto-repeat event until the device is closed. emit runs on the reader
// goroutine.
func OpenKeyboard(path string, emit func(KeyPress)) (*KeyboardDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard %s: %w", path, err)
	}
	return newKeyboardDevice(path, f, emit), nil
}

func newKeyboardDevice(path string, r io.ReadCloser, emit func(KeyPress)) *KeyboardDevice {
	kd := &KeyboardDevice{path: path, file: r, done: make(chan struct{})}
	go kd.readLoop(emit)
	return kd
}

// Close stops the reader and releases the device.
func (kd *KeyboardDevice) Close() error {
	err := kd.file.Close()
	<-kd.done
	return err
}

// Done is closed when the reader stops.
func (kd *KeyboardDevice) Done() <-chan struct{} {
	return kd.done
}

func (kd *KeyboardDevice) readLoop(emit func(KeyPress)) {
	defer close(kd.done)
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(kd.file, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				slog.Error("keyboard read failed", "path", kd.path, "err", err)
			}
			return
		}
		if press, ok := keyPressFromEvent(decodeInputEvent(buf)); ok {
			emit(press)
		}
	}
}

func decodeInputEvent(buf []byte) inputEvent {
	order := binary.NativeEndian
	var ev inputEvent
	if timeFieldSize == 8 {
		ev.Sec = int64(order.Uint64(buf[0:8]))
		ev.Usec = int64(order.Uint64(buf[8:16]))
	} else {
		ev.Sec = int64(order.Uint32(buf[0:4]))
		ev.Usec = int64(order.Uint32(buf[4:8]))
	}
	rest := buf[2*timeFieldSize:]
	ev.Type = order.Uint16(rest[0:2])
	ev.Code = order.Uint16(rest[2:4])
	ev.Value = int32(order.Uint32(rest[4:8]))
	return ev
}

func keyPressFromEvent(ev inputEvent) (KeyPress, bool) {
	if ev.Type != evKey || ev.Value == evValueRelease {
		return KeyPress{}, false
	}
	if ev.Value != evValuePress && ev.Value != evValueRepeat {
		return KeyPress{}, false
	}
	return KeyPress{
		Key:    "key" + strconv.Itoa(int(ev.Code)),
		At:     time.Unix(ev.Sec, ev.Usec*int64(time.Microsecond)),
		Repeat: ev.Value == evValueRepeat,
	}, true
}

// ListKeyboards returns evdev keyboard nodes exposed under /dev/input/by-id.
func ListKeyboards() ([]string, error) {
	paths, err := filepath.Glob("/dev/input/by-id/*-event-kbd")
	if err != nil {
		return nil, fmt.Errorf("failed to list keyboards: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
