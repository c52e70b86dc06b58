package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/bpmcheck/internal/config"
	"github.com/verte-zerg/bpmcheck/internal/gamepad"
	"github.com/verte-zerg/bpmcheck/internal/input"
	"github.com/verte-zerg/bpmcheck/internal/model"
	"github.com/verte-zerg/bpmcheck/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(ms int) {
	c.t = c.t.Add(time.Duration(ms) * time.Millisecond)
}

type staticPads []gamepad.State

func (s staticPads) Snapshot() []gamepad.State { return s }

func newTestModel(t *testing.T, st *store.Store) (*Model, *fakeClock) {
	t.Helper()
	m := NewModel(Options{
		Config: model.Config{Mode: 4, Samples: 16},
		Store:  st,
	})
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m.now = clock.now
	return m, clock
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestKeyTapsProduceTempo(t *testing.T) {
	m, clock := newTestModel(t, nil)
	for i := 0; i < 4; i++ {
		if i > 0 {
			clock.advance(500)
		}
		m.Update(runeKey('j'))
	}
	if got := m.display.reading.Current; got != 30 {
		t.Fatalf("expected 30 BPM, got %v", got)
	}
	if !strings.Contains(m.View(), "30.0") {
		t.Fatalf("expected view to show 30.0:\n%s", m.View())
	}
	if m.lastSource != sourceKeyboard {
		t.Fatalf("expected keyboard source, got %q", m.lastSource)
	}
}

func TestControlKeysDoNotTap(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.tracker.Mode() != 8 {
		t.Fatalf("expected mode 8 after up, got %d", m.tracker.Mode())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.tracker.SampleWindow() != 8 {
		t.Fatalf("expected window 8 after left, got %d", m.tracker.SampleWindow())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	if m.tracker.Active() {
		t.Fatalf("control keys must not start a session")
	}
	if !m.showDebug {
		t.Fatalf("expected debug panel to be open")
	}
}

func TestModeChangeResetsSession(t *testing.T) {
	m, clock := newTestModel(t, nil)
	m.Update(runeKey('a'))
	clock.advance(300)
	m.Update(runeKey('a'))
	if !m.tracker.Active() {
		t.Fatalf("expected active session")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.tracker.Mode() != 2 {
		t.Fatalf("expected mode 2, got %d", m.tracker.Mode())
	}
	if m.tracker.Active() || !m.display.reading.IsZero() {
		t.Fatalf("expected reset after mode change")
	}
}

func TestWindowChangeKeepsSession(t *testing.T) {
	m, clock := newTestModel(t, nil)
	for i := 0; i < 10; i++ {
		clock.advance(200)
		m.Update(runeKey('a'))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.tracker.SampleWindow() != 4 {
		t.Fatalf("expected window 4, got %d", m.tracker.SampleWindow())
	}
	if got := len(m.tracker.Intervals()); got != 4 {
		t.Fatalf("expected 4 intervals, got %d", got)
	}
	if !m.tracker.Active() {
		t.Fatalf("window change must not reset")
	}
}

func TestMouseOnControlDoesNotTap(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.View()

	zones := m.controls.Zones()
	if len(zones) != 4 {
		t.Fatalf("expected 4 control zones, got %d", len(zones))
	}
	var modeZone input.Zone
	for _, z := range zones {
		if z.ID == zoneMode {
			modeZone = z
		}
		if z.Y != 28 {
			t.Fatalf("expected controls on row 28, got %d", z.Y)
		}
	}

	m.Update(tea.MouseMsg{X: modeZone.X0, Y: modeZone.Y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.tracker.Active() {
		t.Fatalf("click on a control must not count as a tap")
	}
	if m.tracker.Mode() != 8 {
		t.Fatalf("expected click to cycle mode to 8, got %d", m.tracker.Mode())
	}

	m.Update(tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.tracker.Active() {
		t.Fatalf("click outside controls must count as a tap")
	}
	if m.lastSource != sourcePointer {
		t.Fatalf("expected pointer source, got %q", m.lastSource)
	}
}

func TestMouseReleaseIgnored(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if m.tracker.Active() {
		t.Fatalf("only left button presses count")
	}
}

func TestIdleTickResets(t *testing.T) {
	m, clock := newTestModel(t, nil)
	m.Update(runeKey('a'))
	clock.advance(400)
	m.Update(runeKey('a'))

	_, cmd := m.Update(idleTickMsg(clock.t.Add(1300 * time.Millisecond)))
	if cmd == nil {
		t.Fatalf("expected idle tick to reschedule")
	}
	if m.tracker.Active() || !m.display.reading.IsZero() {
		t.Fatalf("expected idle reset")
	}
	if m.display.trail.Len() != 0 {
		t.Fatalf("expected trail to be cleared")
	}
}

func TestKeyDeviceRepeatIgnored(t *testing.T) {
	m, clock := newTestModel(t, nil)
	m.Update(KeyDeviceMsg{Press: input.KeyPress{Key: "key30", At: clock.t, Repeat: true}})
	if m.tracker.Active() {
		t.Fatalf("auto-repeat must be ignored")
	}
	m.Update(KeyDeviceMsg{Press: input.KeyPress{Key: "key30", At: clock.t}})
	if !m.tracker.Active() {
		t.Fatalf("expected key press to start a session")
	}
}

func TestTapMsgFromGamepad(t *testing.T) {
	m, clock := newTestModel(t, nil)
	m.Update(TapMsg{Source: "gamepad", At: clock.t})
	m.Update(TapMsg{Source: "gamepad", At: clock.t.Add(250 * time.Millisecond)})
	if got := m.display.reading.Current; got != 60 {
		t.Fatalf("expected 60 BPM, got %v", got)
	}
	if m.lastSource != "gamepad" {
		t.Fatalf("expected gamepad source, got %q", m.lastSource)
	}
}

func TestConfigMsgApplies(t *testing.T) {
	m, _ := newTestModel(t, nil)
	mode, samples := 1, 32
	m.Update(ConfigMsg{Config: config.FileConfig{Tempo: config.TempoConfig{Mode: &mode, Samples: &samples}}})
	if m.tracker.Mode() != 1 || m.tracker.SampleWindow() != 32 {
		t.Fatalf("expected mode 1 window 32, got %d/%d", m.tracker.Mode(), m.tracker.SampleWindow())
	}

	bad := 0
	m.Update(ConfigMsg{Config: config.FileConfig{Tempo: config.TempoConfig{Samples: &bad}}})
	if m.statusErr == "" {
		t.Fatalf("expected error for invalid sample window")
	}
	if m.tracker.SampleWindow() != 32 {
		t.Fatalf("invalid window must be ignored")
	}
}

func TestSessionsRecordedInStore(t *testing.T) {
	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	m, clock := newTestModel(t, st)
	m.Update(runeKey('a'))
	clock.advance(500)
	m.Update(runeKey('a'))
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	if m.sessions != 1 || m.bestPeak != 30 {
		t.Fatalf("expected 1 session with best 30, got %d/%v", m.sessions, m.bestPeak)
	}

	m.Update(runeKey('a'))
	clock.advance(250)
	m.Update(runeKey('a'))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}

	sessions, err := st.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Reason != model.EndReset || sessions[1].Reason != model.EndQuit {
		t.Fatalf("unexpected reasons: %q, %q", sessions[0].Reason, sessions[1].Reason)
	}
	if sessions[1].PeakBPM != 60 {
		t.Fatalf("expected second peak 60, got %v", sessions[1].PeakBPM)
	}
}

func TestRenderDebugPanel(t *testing.T) {
	m, _ := newTestModel(t, nil)
	if !strings.Contains(m.renderDebug(), "disabled") {
		t.Fatalf("expected disabled notice without a gamepad source")
	}

	m.pads = staticPads{}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	if !strings.Contains(m.renderDebug(), "No gamepads connected.") {
		t.Fatalf("expected empty notice")
	}

	m.pads = staticPads{{
		ID:      "/dev/input/js0",
		Buttons: []gamepad.Button{{}, {Pressed: true, Value: 1}},
		Axes:    []float64{0.5, -1},
	}}
	_, cmd := m.Update(debugTickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("expected debug tick to reschedule while open")
	}
	out := m.renderDebug()
	for _, want := range []string{"Gamepad /dev/input/js0", "Pressed", "on", "1.00", "Axes +0.50 -1.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("debug panel missing %q:\n%s", want, out)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	if _, cmd := m.Update(debugTickMsg(time.Now())); cmd != nil {
		t.Fatalf("expected debug tick to stop once closed")
	}
}

func TestStepAndCycle(t *testing.T) {
	opts := []int{1, 2, 4, 8}
	cases := []struct {
		cur, dir, want int
	}{
		{4, 1, 8},
		{8, 1, 8},
		{1, -1, 1},
		{3, 1, 4},
		{9, -1, 8},
	}
	for _, tc := range cases {
		if got := step(opts, tc.cur, tc.dir); got != tc.want {
			t.Fatalf("step(%d,%d) = %d, want %d", tc.cur, tc.dir, got, tc.want)
		}
	}
	if got := cycle(opts, 8); got != 1 {
		t.Fatalf("cycle(8) = %d, want 1", got)
	}
	if got := cycle(opts, 2); got != 4 {
		t.Fatalf("cycle(2) = %d, want 4", got)
	}
}

func TestRenderStatusFormats(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.bestPeak, m.sessions, m.lastSource = 182.44, 3, "midi"
	out := m.renderStatus()
	for _, want := range []string{"Window 0/16", "Best 182.4 BPM", "3 sessions", "Input midi"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q: %s", want, out)
		}
	}
}

func newDeviceKeyboardModel(t *testing.T) (*Model, *fakeClock) {
	t.Helper()
	m := NewModel(Options{
		Config: model.Config{Mode: 4, Samples: 16, KeyboardPath: "/dev/input/event3"},
	})
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m.now = clock.now
	return m, clock
}

func TestDeviceKeyboardIsOnlyKeyTapSource(t *testing.T) {
	m, clock := newDeviceKeyboardModel(t)
	// The same keystroke arrives from the device and, 3ms later, the terminal.
	for i := 0; i < 4; i++ {
		if i > 0 {
			clock.advance(497)
		}
		m.Update(KeyDeviceMsg{Press: input.KeyPress{Key: "key57", At: clock.t}})
		clock.advance(3)
		m.Update(runeKey(' '))
	}

	intervals := m.tracker.Intervals()
	if len(intervals) != 3 {
		t.Fatalf("expected 3 intervals, got %v", intervals)
	}
	for _, d := range intervals {
		if d != 500*time.Millisecond {
			t.Fatalf("expected 500ms intervals, got %v", intervals)
		}
	}
	r := m.display.reading
	if r.Current != 30 || r.Peak != 30 {
		t.Fatalf("expected 30 BPM current and peak, got %+v", r)
	}
}

func TestDeviceKeyboardHeldKeyCountsOnce(t *testing.T) {
	m, clock := newDeviceKeyboardModel(t)
	m.Update(KeyDeviceMsg{Press: input.KeyPress{Key: "key30", At: clock.t}})
	clock.advance(500)
	for i := 0; i < 10; i++ {
		m.Update(KeyDeviceMsg{Press: input.KeyPress{Key: "key30", At: clock.t, Repeat: true}})
		clock.advance(1)
		m.Update(runeKey('a'))
		clock.advance(32)
	}

	if got := m.tracker.Intervals(); len(got) != 0 {
		t.Fatalf("held key must not add intervals, got %v", got)
	}
	if !m.display.reading.IsZero() {
		t.Fatalf("expected no tempo yet, got %+v", m.display.reading)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.tracker.Mode() != 8 {
		t.Fatalf("terminal control keys must still work, got mode %d", m.tracker.Mode())
	}
}

func TestDebugToggleKeepsSingleTickChain(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.pads = staticPads{}
	toggle := tea.KeyMsg{Type: tea.KeyCtrlG}

	if _, cmd := m.Update(toggle); cmd == nil {
		t.Fatalf("opening the panel must start ticking")
	}
	m.Update(toggle)
	if _, cmd := m.Update(toggle); cmd != nil {
		t.Fatalf("reopening with a tick in flight must not start a second chain")
	}
	if _, cmd := m.Update(debugTickMsg(time.Now())); cmd == nil {
		t.Fatalf("the in-flight tick must keep the panel refreshing")
	}

	m.Update(toggle)
	if _, cmd := m.Update(debugTickMsg(time.Now())); cmd != nil {
		t.Fatalf("tick must stop once the panel is closed")
	}
	if _, cmd := m.Update(toggle); cmd == nil {
		t.Fatalf("reopening after the chain stopped must start a new one")
	}
}

func TestConfigReloadWithSameModeResets(t *testing.T) {
	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	m, clock := newTestModel(t, st)
	m.Update(runeKey('a'))
	clock.advance(400)
	m.Update(runeKey('a'))

	mode := 4
	m.Update(ConfigMsg{Config: config.FileConfig{Tempo: config.TempoConfig{Mode: &mode}}})
	if m.tracker.Active() || !m.display.reading.IsZero() {
		t.Fatalf("setting the mode must reset the session")
	}
	sessions, err := st.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Reason != model.EndMode {
		t.Fatalf("expected one session ended by mode, got %+v", sessions)
	}
}

func TestModeKeyAtLimitKeepsSession(t *testing.T) {
	m, clock := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(runeKey('a'))
	clock.advance(400)
	m.Update(runeKey('a'))

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.tracker.Mode() != 8 || !m.tracker.Active() {
		t.Fatalf("stepping past the last mode must do nothing")
	}
}
