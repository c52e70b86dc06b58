package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	ModeNext   key.Binding
	ModePrev   key.Binding
	WindowNext key.Binding
	WindowPrev key.Binding
	Reset      key.Binding
	Debug      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		ModeNext: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑/↓", "mode"),
		),
		ModePrev: key.NewBinding(
			key.WithKeys("down"),
		),
		WindowNext: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("←/→", "window"),
		),
		WindowPrev: key.NewBinding(
			key.WithKeys("left"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset"),
		),
		Debug: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "gamepad debug"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ModeNext, k.WindowNext, k.Reset, k.Debug, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
