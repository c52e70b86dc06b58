// Package model defines shared data structures.
package model

import "time"

// Config defines checker settings after flags and the config file are merged.
type Config struct {
	Mode         int
	Samples      int
	IdleReset    time.Duration
	FrameRate    int
	GamepadPath  string
	KeyboardPath string
	MIDIPort     string
	MIDIChannel  int
	Debug        bool
	Mouse        bool
}

// EndReason tells why a tempo session was cleared.
type EndReason string

// Session end reasons.
const (
	EndReset EndReason = "reset"
	EndMode  EndReason = "mode"
	EndIdle  EndReason = "idle"
	EndQuit  EndReason = "quit"
)

// SessionStats captures a finished tempo session.
type SessionStats struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Mode       int
	Samples    int
	Events     int
	PeakBPM    float64
	AverageBPM float64
	LastBPM    float64
	Reason     EndReason
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Mode       int
	Events     int
	DurationMs int64
	PeakBPM    float64
	AverageBPM float64
	Reason     EndReason
}
