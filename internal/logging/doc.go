// Package logging builds the zerolog logger shared by thermo and thermo-sim.
//
// The terminal client owns stdout, so it logs to a file; the simulator logs
// to stdout. Either can additionally ship lines to Loki.
package logging
