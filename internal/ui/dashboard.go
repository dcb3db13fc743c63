package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/thermo/internal/config"
	"github.com/five82/thermo/internal/control"
)

const fieldLabelWidth = 22

// renderDashboard renders the thermostat panel and the chart below it.
func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	width := max(m.width-2, 1)
	label := styles.MutedText.Width(fieldLabelWidth)

	var rows []string
	rows = append(rows, label.Render("Current temperature")+
		styles.Reading.Render(control.FormatTemperature(m.snapshot.Thermostat.Current)))

	inputStyle := styles.Input
	hint := ""
	if m.editor.Focused() {
		inputStyle = styles.InputFocused
		hint = styles.FaintText.Render("  editing; enter sends, esc discards")
	}
	rows = append(rows, label.Render("Target temperature")+
		inputStyle.Render(m.input.View())+
		styles.Text.Render(" °C")+hint)

	if m.heater {
		rows = append(rows, label.Render("Heater")+m.renderHeater(styles))
	}

	border := m.theme.Border
	if m.editor.Focused() {
		border = m.theme.BorderFocus
	}
	panel := styles.Panel.
		BorderForeground(lipgloss.Color(border)).
		Width(width).
		Render(styles.AccentText.Bold(true).Render("Thermostat") + "\n" + strings.Join(rows, "\n"))

	if m.chartMode == config.ChartOff {
		return panel
	}

	chart := m.renderChart(width - 4)
	if chart == "" {
		return panel
	}
	chartPanel := styles.Panel.
		Width(width).
		Render(styles.AccentText.Bold(true).Render("Temperature ("+string(m.chartMode)+")") + "\n" + chart)
	return panel + "\n" + chartPanel
}

// renderHeater renders the heater checkbox from the last echoed state.
func (m Model) renderHeater(styles Styles) string {
	heater := m.snapshot.Thermostat.Heater
	switch {
	case heater == nil:
		return styles.MutedText.Render("[?] unknown")
	case *heater:
		return styles.SuccessText.Render("[x] on")
	default:
		return styles.Text.Render("[ ] off")
	}
}
