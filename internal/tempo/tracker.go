// Package tempo tracks the tempo implied by a stream of discrete input events.
package tempo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/verte-zerg/bpmcheck/internal/model"
)

// Defaults used when the caller does not configure the tracker.
const (
	DefaultMode      = 4
	DefaultSamples   = 16
	DefaultIdleReset = 1200 * time.Millisecond
)

// Modes lists the selectable events-per-beat divisors.
var Modes = []int{1, 2, 4, 8}

// SampleWindows lists the selectable moving-average window sizes.
var SampleWindows = []int{4, 8, 16, 32, 64}

// Reading is the display tuple produced after every accepted event.
type Reading struct {
	Current float64
	Average float64
	Peak    float64
}

// IsZero reports whether the reading is the cleared display.
func (r Reading) IsZero() bool {
	return r.Current == 0 && r.Average == 0 && r.Peak == 0
}

// Format renders a tempo with one decimal place.
func Format(bpm float64) string {
	return strconv.FormatFloat(bpm, 'f', 1, 64)
}

// Sink receives display updates.
type Sink interface {
	Show(Reading)
}

// Tracker owns the state of one tempo session. It is not safe for concurrent
// use; all calls are expected from a single event loop.
type Tracker struct {
	mode      int
	samples   int
	idleReset time.Duration

	startTime time.Time
	lastEvent time.Time
	// counted excludes the first event of a session; it only anchors the clock.
	counted   int
	intervals []time.Duration
	peak      float64
	last      Reading

	sink  Sink
	onEnd func(model.SessionStats)
}

// NewTracker builds a tracker. Zero or negative arguments fall back to defaults.
func NewTracker(mode, samples int, idleReset time.Duration, sink Sink) *Tracker {
	if mode <= 0 {
		mode = DefaultMode
	}
	if samples <= 0 {
		samples = DefaultSamples
	}
	if idleReset <= 0 {
		idleReset = DefaultIdleReset
	}
	return &Tracker{
		mode:      mode,
		samples:   samples,
		idleReset: idleReset,
		sink:      sink,
	}
}

// OnSessionEnd registers a hook called before a session with at least one
// measured interval is cleared.
func (t *Tracker) OnSessionEnd(fn func(model.SessionStats)) {
	t.onEnd = fn
}

// RecordEvent accepts one input event at ts. The first event of a session only
// starts the clock and yields no tempo. Events not after the previous one are
// ignored.
func (t *Tracker) RecordEvent(ts time.Time) Reading {
	if t.lastEvent.IsZero() {
		t.startTime = ts
		t.lastEvent = ts
		t.counted = 0
		return t.last
	}
	interval := ts.Sub(t.lastEvent)
	if interval <= 0 {
		return t.last
	}
	t.counted++
	t.lastEvent = ts

	t.intervals = append(t.intervals, interval)
	if len(t.intervals) > t.samples {
		t.intervals = t.intervals[len(t.intervals)-t.samples:]
	}

	var sum time.Duration
	for _, d := range t.intervals {
		sum += d
	}
	avgInterval := float64(sum) / float64(len(t.intervals))
	current := float64(time.Minute) / avgInterval / float64(t.mode)

	if current > t.peak {
		t.peak = current
	}

	average := 0.0
	if elapsed := ts.Sub(t.startTime); elapsed > 0 {
		average = float64(t.counted) / elapsed.Minutes() / float64(t.mode)
	}

	t.last = Reading{Current: current, Average: average, Peak: t.peak}
	t.emit()
	return t.last
}

// Reset clears the session and emits a zeroed reading.
func (t *Tracker) Reset() {
	t.reset(model.EndReset)
}

// End clears the session with an explicit reason, for example on quit.
func (t *Tracker) End(reason model.EndReason) {
	t.reset(reason)
}

// SetMode replaces the events-per-beat divisor and resets the session.
func (t *Tracker) SetMode(mode int) error {
	if mode <= 0 {
		return fmt.Errorf("mode must be > 0, got %d", mode)
	}
	t.reset(model.EndMode)
	t.mode = mode
	return nil
}

// SetSampleWindow replaces the moving-average bound. Stored intervals beyond the
// new bound are dropped oldest first; nothing else changes.
func (t *Tracker) SetSampleWindow(samples int) error {
	if samples <= 0 {
		return fmt.Errorf("sample window must be > 0, got %d", samples)
	}
	t.samples = samples
	if len(t.intervals) > samples {
		t.intervals = append([]time.Duration(nil), t.intervals[len(t.intervals)-samples:]...)
	}
	return nil
}

// CheckIdle resets the session when no event arrived for longer than the idle
// threshold. It reports whether a reset happened.
func (t *Tracker) CheckIdle(now time.Time) bool {
	if t.lastEvent.IsZero() {
		return false
	}
	if now.Sub(t.lastEvent) <= t.idleReset {
		return false
	}
	t.reset(model.EndIdle)
	return true
}

// Mode returns the events-per-beat divisor.
func (t *Tracker) Mode() int { return t.mode }

// SampleWindow returns the moving-average bound.
func (t *Tracker) SampleWindow() int { return t.samples }

// IdleReset returns the idle threshold.
func (t *Tracker) IdleReset() time.Duration { return t.idleReset }

// Reading returns the last emitted reading.
func (t *Tracker) Reading() Reading { return t.last }

// Active reports whether a session has started.
func (t *Tracker) Active() bool { return !t.lastEvent.IsZero() }

// Intervals returns a copy of the stored interval history, oldest first.
func (t *Tracker) Intervals() []time.Duration {
	out := make([]time.Duration, len(t.intervals))
	copy(out, t.intervals)
	return out
}

// reset reports the finished session, if any, and clears all state. A session
// spans its first to its last event whatever ended it.
func (t *Tracker) reset(reason model.EndReason) {
	if t.onEnd != nil && t.counted > 0 {
		t.onEnd(model.SessionStats{
			StartedAt:  t.startTime,
			EndedAt:    t.lastEvent,
			Mode:       t.mode,
			Samples:    t.samples,
			Events:     t.counted + 1,
			PeakBPM:    t.peak,
			AverageBPM: t.last.Average,
			LastBPM:    t.last.Current,
			Reason:     reason,
		})
	}
	t.startTime = time.Time{}
	t.lastEvent = time.Time{}
	t.counted = 0
	t.intervals = nil
	t.peak = 0
	t.last = Reading{}
	t.emit()
}

func (t *Tracker) emit() {
	if t.sink != nil {
		t.sink.Show(t.last)
	}
}
