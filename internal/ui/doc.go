// Package ui implements the thermostat terminal interface with Bubble Tea.
//
// The Model renders snapshots taken from state.Store and never mutates the
// thermostat values itself. User actions become gateway commands sent
// through a Sender; the display changes only when the gateway echoes them
// back. The target input is owned by a control.TargetEditor so inbound
// targets never overwrite a draft the user is typing.
//
// Views:
//
//   - Dashboard: current reading, target input, heater checkbox and chart
//   - Logs: tail of the client log file
//
// Theme and chart mode are persisted with the prefs package.
package ui
