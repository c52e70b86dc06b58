package tui

import (
	"time"

	"github.com/verte-zerg/bpmcheck/internal/config"
	"github.com/verte-zerg/bpmcheck/internal/input"
)

// TapMsg is a tempo event from a source outside the terminal, such as a
// gamepad button edge or a MIDI note.
type TapMsg struct {
	Source string
	At     time.Time
}

// KeyDeviceMsg carries a key event from an evdev keyboard.
type KeyDeviceMsg struct {
	Press input.KeyPress
}

// ConfigMsg carries a reloaded config file.
type ConfigMsg struct {
	Config config.FileConfig
}

type idleTickMsg time.Time

type debugTickMsg time.Time
