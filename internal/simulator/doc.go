// Package simulator emulates the thermostat gateway firmware so thermo can
// be developed and tested without hardware.
//
// # Behaviour
//
//   - On connect a client receives {"target_temperature", "heater_state"}
//     followed by the current reading.
//   - Every interval the model advances and current_temperature is broadcast.
//   - target_temperature updates the setpoint and is broadcast to everyone.
//   - heater_state (or is_heating_on) switches the heater and heater_state
//     is echoed to everyone.
//   - Anything that does not decode is logged and ignored.
//
// # Thermal Model
//
// While the heater is on and below target the duty cycle ramps linearly
// from 10% to 60% over the last 5 °C gap, as the firmware's PWM does. The
// water loses heat toward ambient at a fixed rate.
package simulator
