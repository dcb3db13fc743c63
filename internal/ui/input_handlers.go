package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/thermo/internal/control"
	"github.com/five82/thermo/internal/gateway"
	"github.com/five82/thermo/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.editor.Focused() {
		return m.handleTargetKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.ViewDashboard), key.Matches(msg, m.keys.Escape):
		m.currentView = ViewDashboard
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		m.setFlash("Reconnecting...", false)
		return m, reconnectCmd(m.client)
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleDashboardKey(msg)
}

// handleDashboardKey processes keys that act on the thermostat.
func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.EditTarget):
		return m, m.focusTarget()

	case key.Matches(msg, m.keys.StartTyping):
		// Typing a digit starts a fresh draft with that digit.
		cmd := m.focusTarget()
		m.input.SetValue("")
		next, inputCmd := m.handleTargetKey(msg)
		return next, tea.Batch(cmd, inputCmd)

	case key.Matches(msg, m.keys.ToggleHeat):
		if !m.heater {
			return m, nil
		}
		// The checkbox is not flipped here; it follows the gateway echo.
		return m, sendCmd(m.client, control.HeaterToggle(m.snapshot.Thermostat.Heater))

	case key.Matches(msg, m.keys.CycleChart):
		m.chartMode = m.chartMode.Next()
		m.savePrefs()
		return m, nil
	}
	return m, nil
}

// handleTargetKey processes keys while the target input has focus.
func (m Model) handleTargetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		cmd, err := m.editor.Confirm()
		m.input.Blur()
		m.input.SetValue(m.editor.Display())
		m.input.CursorEnd()
		if err != nil {
			return m, nil
		}
		return m, sendCmd(m.client, cmd)

	case key.Matches(msg, m.keys.Cancel):
		m.editor.Blur()
		m.input.Blur()
		m.input.SetValue(m.editor.Display())
		m.input.CursorEnd()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		clean := m.editor.Input(after)
		if clean != after {
			m.input.SetValue(clean)
			m.input.CursorEnd()
		}
	}
	return m, cmd
}

// focusTarget starts an edit session on the target input.
func (m *Model) focusTarget() tea.Cmd {
	m.editor.Focus()
	m.input.CursorEnd()
	return m.input.Focus()
}

// handleSendResult reports the outcome of an outbound command.
func (m *Model) handleSendResult(msg sendResultMsg) {
	if msg.err == nil {
		m.log.Debug().Str("command", msg.cmd.String()).Msg("command sent")
		if v, ok := msg.cmd.TargetTemperature(); ok {
			m.setFlash(fmt.Sprintf("Target %s°C sent", control.FormatOneDecimal(v)), false)
		} else if on, ok := msg.cmd.HeaterState(); ok {
			m.setFlash(fmt.Sprintf("Heater %s requested", onOff(on)), false)
		}
		return
	}

	m.log.Warn().Err(msg.err).Str("command", msg.cmd.String()).Msg("command not sent")
	if msg.cmd.Field() == gateway.FieldTargetTemperature && !m.editor.Focused() {
		m.editor.Reject()
		m.syncInput()
	}
	text := "Send failed: " + msg.err.Error()
	if errors.Is(msg.err, gateway.ErrNotConnected) {
		text = "Not connected; change not sent"
	}
	m.setFlash(text, true)
}

// savePrefs persists the theme and chart mode.
func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, Chart: string(m.chartMode)}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn().Err(err).Msg("save prefs")
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
