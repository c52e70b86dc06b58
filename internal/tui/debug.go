package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/bpmcheck/internal/gamepad"
	"github.com/verte-zerg/bpmcheck/internal/stats"
)

func (m *Model) renderDebug() string {
	if m.pads == nil {
		return footerStyle.Render("Gamepad input disabled. Start with --gamepad /dev/input/jsN.")
	}
	if len(m.padStates) == 0 {
		return footerStyle.Render("No gamepads connected.")
	}
	blocks := make([]string, 0, len(m.padStates))
	for _, st := range m.padStates {
		blocks = append(blocks, renderPad(st))
	}
	return strings.Join(blocks, "\n\n")
}

func renderPad(st gamepad.State) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Gamepad " + st.ID))
	b.WriteByte('\n')
	if len(st.Buttons) == 0 {
		b.WriteString(footerStyle.Render("no button events yet"))
	} else {
		headers := []string{"Button"}
		pressed := []string{"Pressed"}
		values := []string{"Value"}
		for i, btn := range st.Buttons {
			headers = append(headers, strconv.Itoa(i))
			state := "--"
			if btn.Pressed {
				state = "on"
			}
			pressed = append(pressed, state)
			values = append(values, fmt.Sprintf("%.2f", btn.Value))
		}
		right := map[int]bool{}
		for i := 1; i < len(headers); i++ {
			right[i] = true
		}
		b.WriteString(strings.Join(stats.FormatTable(headers, [][]string{pressed, values}, right), "\n"))
	}
	if len(st.Axes) > 0 {
		axes := make([]string, len(st.Axes))
		for i, v := range st.Axes {
			axes[i] = fmt.Sprintf("%+.2f", v)
		}
		b.WriteByte('\n')
		b.WriteString("Axes " + strings.Join(axes, " "))
	}
	return b.String()
}
