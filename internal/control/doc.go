// Package control implements the user-facing side of the thermostat: the
// target temperature edit session and the heater toggle.
//
// Nothing here touches the network. Controllers return gateway.Command
// values and the caller decides how to send them.
package control
