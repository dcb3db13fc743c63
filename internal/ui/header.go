package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/thermo/internal/gateway"
)

// renderHeader renders the status bar: logo, connection state, endpoint and
// freshness of the last reading.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{
		bg.Render("thermo", styles.Logo),
		m.renderConnection(styles, bg),
	}

	if !compact && m.config != nil {
		parts = append(parts, bg.Render(truncate(m.config.Gateway.Endpoint(), 40), styles.MutedText))
	}

	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts,
			bg.Render("updated", styles.FaintText)+bg.Spaces(1)+
				bg.Render(formatAgo(m.snapshot.LastUpdated, m.now), styles.MutedText))
	}

	if m.snapshot.Malformed > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d dropped", m.snapshot.Malformed), styles.WarningText))
	}

	if m.snapshot.LastError != nil && m.snapshot.Connection != gateway.StateOpen {
		limit := 60
		if compact {
			limit = 24
		}
		parts = append(parts, bg.Render(truncate(m.snapshot.LastError.Error(), limit), styles.DangerText))
	}

	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

// renderConnection renders the connection state indicator.
func (m Model) renderConnection(styles Styles, bg BgStyle) string {
	snap := m.snapshot
	switch snap.Connection {
	case gateway.StateOpen:
		return bg.Render("● LIVE", styles.SuccessText)

	case gateway.StateConnecting:
		return bg.Render(strings.TrimSpace(m.spinner.View())+" Connecting...", styles.WarningText.Bold(true))

	case gateway.StateClosed:
		text := "○ CLOSED"
		if !snap.RetryAt.IsZero() {
			text += " retry in " + formatCountdown(snap.RetryAt, m.now)
		}
		style := styles.WarningText
		if snap.IsOffline() {
			style = styles.DangerText
			text += fmt.Sprintf(" (%d failures)", snap.ConsecutiveFailures)
		}
		return bg.Render(text, style)

	default:
		return bg.Render("○ Waiting", styles.MutedText)
	}
}

// renderCommandBar renders key hints or the current flash message.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()

	if m.flash != "" {
		style := styles.InfoText
		if m.flashErr {
			style = styles.DangerText
		}
		return lipgloss.NewStyle().Width(m.width).Padding(0, 1).Render(style.Render(m.flash))
	}

	var bindings []key.Binding
	switch {
	case m.editor.Focused():
		bindings = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	case m.currentView == ViewLogs:
		bindings = []key.Binding{m.keys.Up, m.keys.Down, m.keys.ToggleFollow, m.keys.ViewDashboard, m.keys.Help}
	default:
		bindings = m.keys.ShortHelp()
		if !m.heater {
			bindings = []key.Binding{m.keys.EditTarget, m.keys.CycleChart, m.keys.Reconnect, m.keys.ViewLogs, m.keys.Help, m.keys.Quit}
		}
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, styles.WarningText.Render(h.Key)+" "+styles.MutedText.Render(h.Desc))
	}
	return lipgloss.NewStyle().Width(m.width).Padding(0, 1).Render(strings.Join(hints, styles.FaintText.Render("  •  ")))
}
