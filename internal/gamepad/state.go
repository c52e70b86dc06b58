// Package gamepad turns polled controller state into discrete button presses.
package gamepad

// Button is the raw state of one controller button.
type Button struct {
	Pressed bool
	Value   float64
}

// State is a snapshot of one connected controller.
type State struct {
	ID      string
	Buttons []Button
	Axes    []float64
}

// Source yields the current state of every connected controller.
type Source interface {
	Snapshot() []State
}

// Press is a single false-to-true button transition.
type Press struct {
	Pad    string
	Button int
}

// Sources merges several sources into one.
type Sources []Source

// Snapshot implements Source.
func (s Sources) Snapshot() []State {
	var out []State
	for _, src := range s {
		out = append(out, src.Snapshot()...)
	}
	return out
}

func (s State) clone() State {
	out := State{ID: s.ID}
	out.Buttons = append([]Button(nil), s.Buttons...)
	out.Axes = append([]float64(nil), s.Axes...)
	return out
}
