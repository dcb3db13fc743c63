package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Wire keys understood by the gateway.
const (
	FieldCurrentTemperature = "current_temperature"
	FieldTargetTemperature  = "target_temperature"
	FieldHeaterState        = "heater_state"
)

// ErrMalformed marks an inbound payload that is not a JSON object.
var ErrMalformed = errors.New("malformed gateway message")

// Patch is a sparse inbound update. A nil field was absent from the message
// and must be left untouched by whoever applies the patch.
type Patch struct {
	CurrentTemperature *float64
	TargetTemperature  *float64
	HeaterState        *bool

	// Ignored lists keys that were unrecognized or carried the wrong type.
	Ignored []string
}

// Empty reports whether the patch updates nothing.
func (p Patch) Empty() bool {
	return p.CurrentTemperature == nil && p.TargetTemperature == nil && p.HeaterState == nil
}

// Update is one recognized field of a patch. The concrete types are
// CurrentTemperature, TargetTemperature and HeaterState.
type Update interface {
	Field() string
}

// CurrentTemperature is the measured temperature in °C (read-only on the client).
type CurrentTemperature float64

// TargetTemperature is the setpoint in °C.
type TargetTemperature float64

// HeaterState reports whether the heater is enabled.
type HeaterState bool

func (CurrentTemperature) Field() string { return FieldCurrentTemperature }
func (TargetTemperature) Field() string  { return FieldTargetTemperature }
func (HeaterState) Field() string        { return FieldHeaterState }

// Updates returns the fields present in the patch in a fixed order.
func (p Patch) Updates() []Update {
	var out []Update
	if p.CurrentTemperature != nil {
		out = append(out, CurrentTemperature(*p.CurrentTemperature))
	}
	if p.TargetTemperature != nil {
		out = append(out, TargetTemperature(*p.TargetTemperature))
	}
	if p.HeaterState != nil {
		out = append(out, HeaterState(*p.HeaterState))
	}
	return out
}

// DecodePatch parses a single inbound message. Key presence means "update
// this field"; unknown keys and keys with the wrong JSON type are recorded in
// Ignored and otherwise skipped.
func DecodePatch(data []byte) (Patch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Patch{}, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var patch Patch
	for key, value := range raw {
		switch key {
		case FieldCurrentTemperature:
			if v, ok := decodeNumber(value); ok {
				patch.CurrentTemperature = &v
				continue
			}
		case FieldTargetTemperature:
			if v, ok := decodeNumber(value); ok {
				patch.TargetTemperature = &v
				continue
			}
		case FieldHeaterState:
			var on bool
			if err := json.Unmarshal(value, &on); err == nil && !isNull(value) {
				patch.HeaterState = &on
				continue
			}
		}
		patch.Ignored = append(patch.Ignored, key)
	}
	return patch, nil
}

func decodeNumber(value json.RawMessage) (float64, bool) {
	if isNull(value) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(value, &v); err != nil {
		return 0, false
	}
	return v, true
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// Command is an outbound update carrying exactly one field.
type Command struct {
	field  string
	number float64
	flag   bool
}

// SetTargetTemperature builds {"target_temperature": v}.
func SetTargetTemperature(v float64) Command {
	return Command{field: FieldTargetTemperature, number: v}
}

// SetHeaterState builds {"heater_state": on}.
func SetHeaterState(on bool) Command {
	return Command{field: FieldHeaterState, flag: on}
}

// Field returns the single wire key carried by the command.
func (c Command) Field() string {
	return c.field
}

// TargetTemperature returns the setpoint of a target command.
func (c Command) TargetTemperature() (float64, bool) {
	return c.number, c.field == FieldTargetTemperature
}

// HeaterState returns the requested state of a heater command.
func (c Command) HeaterState() (bool, bool) {
	return c.flag, c.field == FieldHeaterState
}

// MarshalJSON encodes the command as a one-key object.
func (c Command) MarshalJSON() ([]byte, error) {
	switch c.field {
	case FieldTargetTemperature:
		if math.IsNaN(c.number) || math.IsInf(c.number, 0) {
			return nil, fmt.Errorf("target temperature %v is not a finite number", c.number)
		}
		return json.Marshal(map[string]float64{c.field: c.number})
	case FieldHeaterState:
		return json.Marshal(map[string]bool{c.field: c.flag})
	default:
		return nil, errors.New("empty command")
	}
}

func (c Command) String() string {
	switch c.field {
	case FieldTargetTemperature:
		return fmt.Sprintf("%s=%g", c.field, c.number)
	case FieldHeaterState:
		return fmt.Sprintf("%s=%t", c.field, c.flag)
	default:
		return "<empty>"
	}
}
