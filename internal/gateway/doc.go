// Package gateway speaks to the thermostat gateway over a websocket.
//
// # Overview
//
// The gateway serves a single websocket at ws://<host>/ws. Inbound messages
// are sparse JSON patches: any subset of current_temperature,
// target_temperature and heater_state. Outbound messages carry exactly one
// field per user action.
//
// # Wire Protocol
//
//	server -> client   {"current_temperature": 21.4}
//	                   {"target_temperature": 50, "heater_state": false}
//	client -> server   {"target_temperature": 42}
//	                   {"heater_state": true}
//
// DecodePatch turns a message into a Patch where a nil field means the key
// was absent. A key carrying the wrong JSON type is listed in Patch.Ignored
// and does not affect the other keys. A payload that is not a JSON object
// wraps ErrMalformed.
//
// Command values are built with SetTargetTemperature and SetHeaterState and
// always encode to a single-key object.
//
// # Connection Lifecycle
//
//	Disconnected -> Connecting -> Open -> Closed -> Connecting -> ...
//
// Client.Run dials immediately and then reacts to closes. Every close,
// including a failed dial, schedules exactly one reconnect after
// ReconnectDelay (2s by default). There is no backoff and no retry limit.
//
// Each attempt gets a new epoch. A scheduled reconnect remembers the epoch
// that scheduled it and is discarded if that epoch was superseded, for
// example by Client.Reconnect, or if a connection is already connecting or
// open. At most one connection is live at a time.
//
// # Events
//
// Client.Events delivers, in order:
//
//   - EventStateChanged: the connection moved to Event.State
//   - EventPatch: a decoded inbound Patch
//   - EventMalformed: an inbound payload that could not be decoded; the
//     connection stays open
//   - EventError: a transport error; the close that follows drives recovery
//
// # Sending
//
// Client.Send returns ErrNotConnected unless a connection is open. Callers
// decide how to surface the rejection.
package gateway
