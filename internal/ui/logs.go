package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/thermo/internal/logtail"
)

// logsMsg carries the tail of the client log file.
type logsMsg struct {
	lines []string
	err   error
}

// initLogViewport initializes the log viewport.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-4, 1), max(m.height-5, 1))
	m.logViewport.Style = lipgloss.NewStyle()
}

// resizeLogViewport fits the viewport to the window and re-renders it.
func (m *Model) resizeLogViewport() {
	if m.logViewport.Width == 0 {
		m.initLogViewport()
	}

	// Box height = m.height - 3 (header, cmdbar, status line below)
	// Box inner = box height - 2 (top and bottom borders) = m.height - 5
	m.logViewport.Width = max(m.width-4, 1)
	m.logViewport.Height = max(m.height-5, 1)
	m.logViewport.SetContent(m.renderLogContent())

	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

// refreshLogs reads the tail of the client log file.
func (m *Model) refreshLogs() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, LogLineLimit)
		return logsMsg{lines: lines, err: err}
	}
}

// handleLogs stores freshly read log lines.
func (m *Model) handleLogs(msg logsMsg) {
	m.logErr = msg.err
	if msg.err == nil {
		m.logLines = msg.lines
	}
	m.resizeLogViewport()
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)

	title := styles.AccentText.Bold(true).Render("Client log")
	box := styles.Panel.
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Width(max(m.width-2, 1)).
		Render(title + "\n" + m.logViewport.View())

	return box + "\n" + m.renderLogStatus(styles, bg)
}

// renderLogStatus renders the line below the log box.
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	if m.logErr != nil {
		return bg.Render(truncate(m.logErr.Error(), m.width), styles.DangerText)
	}

	follow := "off"
	if m.logFollow {
		follow = "on"
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d lines", len(m.logLines)), styles.FaintText),
		bg.Render("follow "+follow, styles.FaintText),
	}
	if m.logPath != "" {
		parts = append(parts, bg.Render(truncate(m.logPath, 60), styles.AccentText))
	}
	return bg.Join(parts, " • ")
}

// renderLogContent renders the colorized log lines.
func (m Model) renderLogContent() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)
	width := m.logViewport.Width

	if m.logPath == "" {
		return bg.FillLine(bg.Render("Logging to stdout; no log file to show", styles.MutedText), width)
	}
	if len(m.logLines) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	var b strings.Builder
	for i, line := range m.logLines {
		b.WriteString(bg.FillLine(m.colorizeLine(line, styles, bg), width))
		if i < len(m.logLines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// colorizeLine renders one log line: time, level, component, message and
// trailing fields.
func (m Model) colorizeLine(line string, styles Styles, bg BgStyle) string {
	entry, ok := logtail.Parse(line)
	if !ok {
		return bg.Render(line, styles.Text)
	}

	var parts []string
	if !entry.Time.IsZero() {
		parts = append(parts, bg.Render(entry.Time.Local().Format("15:04:05"), styles.FaintText))
	}
	if entry.Level != "" {
		parts = append(parts, bg.Render(fmt.Sprintf("%-5s", strings.ToUpper(entry.Level)), levelStyle(entry.Level, styles).Bold(true)))
	}
	if entry.Component != "" {
		parts = append(parts, bg.Render("["+entry.Component+"]", styles.AccentText))
	}
	parts = append(parts, bg.Render(entry.Message, styles.Text))
	for _, f := range entry.Fields {
		parts = append(parts, bg.Render(f.Key+"=", styles.FaintText)+bg.Render(f.Value, styles.MutedText))
	}
	return bg.Join(parts, " ")
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToLower(level) {
	case "info":
		return styles.SuccessText
	case "warn", "warning":
		return styles.WarningText
	case "error", "fatal", "panic":
		return styles.DangerText
	case "debug", "trace":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
			return m, m.refreshLogs()
		}

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logFollow = false

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logFollow = true

	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logFollow = false

	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logFollow = false
	}
	return m, nil
}
