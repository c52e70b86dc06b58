// Package tui provides the Bubble Tea tempo interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/bpmcheck/internal/config"
	"github.com/verte-zerg/bpmcheck/internal/gamepad"
	"github.com/verte-zerg/bpmcheck/internal/input"
	"github.com/verte-zerg/bpmcheck/internal/model"
	"github.com/verte-zerg/bpmcheck/internal/store"
	"github.com/verte-zerg/bpmcheck/internal/tempo"
)

const (
	idleCheckInterval = 100 * time.Millisecond
	debugInterval     = 50 * time.Millisecond
)

// Control zone IDs.
const (
	zoneMode   = "mode"
	zoneWindow = "window"
	zoneReset  = "reset"
	zoneDebug  = "debug"
)

// Tap sources shown in the status line.
const (
	sourceKeyboard = "keyboard"
	sourcePointer  = "pointer"
)

// Options wires the model to its collaborators. Store and Pads may be nil.
type Options struct {
	Config model.Config
	Store  *store.Store
	Pads   gamepad.Source
}

// Model implements the Bubble Tea tempo UI. It owns the tracker; every input
// adapter reaches it through Update.
type Model struct {
	tracker *tempo.Tracker
	display *display
	store   *store.Store
	pads    gamepad.Source
	now     func() time.Time

	keys     keyMap
	help     help.Model
	controls input.Controls

	width  int
	height int

	// deviceKeys makes the evdev keyboard the only key tap source; terminal
	// keys then only drive the controls.
	deviceKeys bool

	showDebug    bool
	debugTicking bool
	padStates    []gamepad.State

	lastSource string
	sessions   int
	bestPeak   float64
	statusErr  string
}

// NewModel constructs a tempo TUI model.
func NewModel(opts Options) *Model {
	d := newDisplay()
	m := &Model{
		display:   d,
		store:     opts.Store,
		pads:      opts.Pads,
		now:       time.Now,
		keys:      defaultKeyMap(),
		help:      help.New(),
		showDebug:  opts.Config.Debug,
		deviceKeys: opts.Config.KeyboardPath != "",
	}
	m.tracker = tempo.NewTracker(opts.Config.Mode, opts.Config.Samples, opts.Config.IdleReset, d)
	m.tracker.OnSessionEnd(m.recordSession)
	m.loadBestPeak()
	return m
}

// Tracker exposes the tracker for end-of-run reporting.
func (m *Model) Tracker() *tempo.Tracker {
	return m.tracker
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{idleTick()}
	if m.showDebug {
		m.debugTicking = true
		cmds = append(cmds, debugTick())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case idleTickMsg:
		m.tracker.CheckIdle(time.Time(msg))
		return m, idleTick()
	case debugTickMsg:
		if !m.showDebug {
			m.debugTicking = false
			return m, nil
		}
		m.refreshPads()
		return m, debugTick()
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case KeyDeviceMsg:
		if input.AcceptKey(msg.Press) {
			m.tap(msg.Press.At, sourceKeyboard)
		}
		return m, nil
	case TapMsg:
		m.tap(msg.At, msg.Source)
		return m, nil
	case ConfigMsg:
		m.applyConfig(msg.Config)
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.tracker.End(model.EndQuit)
		return m, tea.Quit
	case key.Matches(msg, m.keys.ModeNext):
		m.stepMode(1)
	case key.Matches(msg, m.keys.ModePrev):
		m.stepMode(-1)
	case key.Matches(msg, m.keys.WindowNext):
		m.setWindow(step(tempo.SampleWindows, m.tracker.SampleWindow(), 1))
	case key.Matches(msg, m.keys.WindowPrev):
		m.setWindow(step(tempo.SampleWindows, m.tracker.SampleWindow(), -1))
	case key.Matches(msg, m.keys.Reset):
		m.tracker.Reset()
	case key.Matches(msg, m.keys.Debug):
		return m, m.toggleDebug()
	default:
		if m.deviceKeys {
			return m, nil
		}
		// Terminals do not report auto-repeat, so every key press counts.
		press := input.KeyPress{Key: msg.String(), At: m.now()}
		if input.AcceptKey(press) {
			m.tap(press.At, sourceKeyboard)
		}
	}
	return m, nil
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	zone, ok := m.controls.Hit(msg.X, msg.Y)
	if !ok {
		m.tap(m.now(), sourcePointer)
		return m, nil
	}
	switch zone.ID {
	case zoneMode:
		m.setMode(cycle(tempo.Modes, m.tracker.Mode()))
	case zoneWindow:
		m.setWindow(cycle(tempo.SampleWindows, m.tracker.SampleWindow()))
	case zoneReset:
		m.tracker.Reset()
	case zoneDebug:
		return m, m.toggleDebug()
	}
	return m, nil
}

func (m *Model) tap(at time.Time, source string) {
	m.lastSource = source
	r := m.tracker.RecordEvent(at)
	slog.Debug("tap", "source", source, "bpm", r.Current, "avg", r.Average, "peak", r.Peak)
}

// stepMode moves to the neighbouring mode. At either end it does nothing.
func (m *Model) stepMode(dir int) {
	if next := step(tempo.Modes, m.tracker.Mode(), dir); next != m.tracker.Mode() {
		m.setMode(next)
	}
}

// setMode always resets the session, even when mode is unchanged.
func (m *Model) setMode(mode int) {
	if err := m.tracker.SetMode(mode); err != nil {
		m.statusErr = err.Error()
		return
	}
	m.loadBestPeak()
	slog.Info("mode changed", "mode", mode)
}

func (m *Model) setWindow(samples int) {
	if samples == m.tracker.SampleWindow() {
		return
	}
	if err := m.tracker.SetSampleWindow(samples); err != nil {
		m.statusErr = err.Error()
		return
	}
	slog.Info("sample window changed", "samples", samples)
}

func (m *Model) applyConfig(cfg config.FileConfig) {
	m.statusErr = ""
	if v := cfg.Tempo.Mode; v != nil {
		m.setMode(*v)
	}
	if v := cfg.Tempo.Samples; v != nil {
		m.setWindow(*v)
	}
}

func (m *Model) toggleDebug() tea.Cmd {
	m.showDebug = !m.showDebug
	if !m.showDebug {
		m.padStates = nil
		return nil
	}
	m.refreshPads()
	if m.debugTicking {
		return nil
	}
	m.debugTicking = true
	return debugTick()
}

func (m *Model) refreshPads() {
	if m.pads == nil {
		m.padStates = nil
		return
	}
	m.padStates = m.pads.Snapshot()
}

func (m *Model) recordSession(s model.SessionStats) {
	if m.store == nil {
		return
	}
	if _, err := m.store.InsertSession(context.Background(), s); err != nil {
		slog.Error("failed to record session", "err", err)
		m.statusErr = fmt.Sprintf("failed to record session: %v", err)
		return
	}
	slog.Info("session ended", "reason", s.Reason, "events", s.Events, "peak", s.PeakBPM)
	if s.Mode == m.tracker.Mode() {
		m.sessions++
		if s.PeakBPM > m.bestPeak {
			m.bestPeak = s.PeakBPM
		}
	}
}

func (m *Model) loadBestPeak() {
	m.bestPeak, m.sessions = 0, 0
	if m.store == nil {
		return
	}
	best, count, err := m.store.BestPeak(context.Background(), m.tracker.Mode())
	if err != nil {
		slog.Error("failed to load best peak", "err", err)
		return
	}
	m.bestPeak, m.sessions = best, count
}

// step moves dir positions through options from cur, clamping at the ends.
// A value not in options snaps to the nearest larger option.
func step(options []int, cur, dir int) int {
	idx := -1
	for i, v := range options {
		if v == cur {
			idx = i
			break
		}
	}
	if idx == -1 {
		for i, v := range options {
			if v > cur {
				return options[i]
			}
		}
		return options[len(options)-1]
	}
	idx += dir
	idx = max(0, min(idx, len(options)-1))
	return options[idx]
}

// cycle advances one option, wrapping to the first after the last.
func cycle(options []int, cur int) int {
	if cur >= options[len(options)-1] {
		return options[0]
	}
	return step(options, cur, 1)
}

func idleTick() tea.Cmd {
	return tea.Tick(idleCheckInterval, func(t time.Time) tea.Msg {
		return idleTickMsg(t)
	})
}

func debugTick() tea.Cmd {
	return tea.Tick(debugInterval, func(t time.Time) tea.Msg {
		return debugTickMsg(t)
	})
}
