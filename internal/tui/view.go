package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/bpmcheck/internal/input"
	"github.com/verte-zerg/bpmcheck/internal/tempo"
)

const (
	footerHeight = 3
	controlGap   = 2
)

var (
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	bpmStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true).Padding(0, 2)
	trailStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	buttonStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#4A4A4A")).Padding(0, 1)
	activeButtonStyle = buttonStyle.Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#C89A3A"))
)

// View implements tea.Model.
func (m *Model) View() string {
	readout := m.renderReadout()
	if m.width == 0 || m.height == 0 {
		m.controls.Set(nil)
		return readout
	}
	body := readout
	if m.showDebug {
		body = lipgloss.JoinVertical(lipgloss.Center, readout, "", m.renderDebug())
	}
	if m.height <= footerHeight {
		m.controls.Set(nil)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	bodyHeight := m.height - footerHeight
	controls, zones := m.renderControls(m.width, bodyHeight+1)
	m.controls.Set(zones)

	lines := []string{
		fitLines(lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body), bodyHeight),
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.renderStatus()),
		controls,
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.help.View(m.keys)),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderReadout() string {
	r := m.display.reading
	current := bpmStyle.Render(tempo.Format(r.Current))
	summary := fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("AVG"), valueStyle.Render(tempo.Format(r.Average)),
		labelStyle.Render("PEAK"), valueStyle.Render(tempo.Format(r.Peak)),
	)
	trail := m.display.sparkline()
	switch {
	case !m.tracker.Active():
		trail = "tap any key, click, or press a gamepad button"
	case trail == "":
		trail = "keep tapping"
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render("BPM"),
		current,
		summary,
		"",
		trailStyle.Render(trail),
	)
}

func (m *Model) renderStatus() string {
	segments := []string{
		fmt.Sprintf("Window %d/%d", len(m.tracker.Intervals()), m.tracker.SampleWindow()),
		fmt.Sprintf("Best %s BPM · %d sessions", tempo.Format(m.bestPeak), m.sessions),
	}
	if m.lastSource != "" {
		segments = append(segments, "Input "+m.lastSource)
	}
	status := footerStyle.Render(strings.Join(segments, "  "))
	if m.statusErr != "" {
		status += "  " + errorStyle.Render(m.statusErr)
	}
	return status
}

// renderControls lays out the clickable controls centered on row y and
// returns the line together with the zones the pointer adapter must skip.
func (m *Model) renderControls(width, y int) (string, []input.Zone) {
	type control struct {
		id     string
		label  string
		active bool
	}
	items := []control{
		{id: zoneMode, label: fmt.Sprintf("Mode %d", m.tracker.Mode())},
		{id: zoneWindow, label: fmt.Sprintf("Window %d", m.tracker.SampleWindow())},
		{id: zoneReset, label: "Reset"},
		{id: zoneDebug, label: "Debug", active: m.showDebug},
	}
	ids := make([]string, len(items))
	widths := make([]int, len(items))
	rendered := make([]string, len(items))
	total := 0
	for i, c := range items {
		style := buttonStyle
		if c.active {
			style = activeButtonStyle
		}
		rendered[i] = style.Render(c.label)
		ids[i] = c.id
		widths[i] = lipgloss.Width(rendered[i])
		total += widths[i]
	}
	total += controlGap * (len(items) - 1)
	x0 := max(0, (width-total)/2)
	line := strings.Repeat(" ", x0) + strings.Join(rendered, strings.Repeat(" ", controlGap))
	return line, input.Row(ids, widths, x0, y, controlGap)
}

// fitLines keeps at most height lines so the footer rows stay where the
// control zones say they are.
func fitLines(s string, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
