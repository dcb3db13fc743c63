package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// View switching
	ViewDashboard key.Binding
	ViewLogs      key.Binding

	// Dashboard actions
	EditTarget  key.Binding
	StartTyping key.Binding
	ToggleHeat  key.Binding
	CycleChart  key.Binding
	Reconnect   key.Binding

	// Target input
	Confirm key.Binding
	Cancel  key.Binding

	// Logs
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Return to dashboard"),
		),

		// View switching
		ViewDashboard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Dashboard"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Client logs"),
		),

		// Dashboard actions
		EditTarget: key.NewBinding(
			key.WithKeys("tab", "t"),
			key.WithHelp("tab/t", "Edit target"),
		),
		StartTyping: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "."),
			key.WithHelp("0-9", "Type a new target"),
		),
		ToggleHeat: key.NewBinding(
			key.WithKeys(" ", "space", "H"),
			key.WithHelp("Space/H", "Toggle heater"),
		),
		CycleChart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Cycle chart"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reconnect now"),
		),

		// Target input
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Send target"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "tab"),
			key.WithHelp("esc/tab", "Discard edit"),
		),

		// Logs
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle follow mode"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.EditTarget, k.ToggleHeat, k.CycleChart, k.Reconnect, k.ViewLogs, k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.EditTarget, k.StartTyping, k.ToggleHeat, k.CycleChart, k.Reconnect},
		{k.Confirm, k.Cancel},
		{k.ViewDashboard, k.ViewLogs, k.Up, k.Down, k.Top, k.Bottom, k.ToggleFollow},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
