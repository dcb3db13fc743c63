package state

import "github.com/five82/thermo/internal/gateway"

// Thermostat holds the authoritative remote values. A nil field has not been
// reported by the gateway yet.
type Thermostat struct {
	Current *float64
	Target  *float64
	Heater  *bool

	// TargetRevision increments on every inbound target_temperature, even
	// when the value is unchanged, so the edit buffer can tell a fresh push
	// from a stale one.
	TargetRevision uint64
}

// Reconcile applies a sparse patch. Fields absent from the patch are left
// exactly as they were. It never mutates t.
func Reconcile(t Thermostat, patch gateway.Patch) Thermostat {
	next := t.clone()
	for _, u := range patch.Updates() {
		switch v := u.(type) {
		case gateway.CurrentTemperature:
			next.Current = floatPtr(float64(v))
		case gateway.TargetTemperature:
			next.Target = floatPtr(float64(v))
			next.TargetRevision++
		case gateway.HeaterState:
			on := bool(v)
			next.Heater = &on
		}
	}
	return next
}

func (t Thermostat) clone() Thermostat {
	out := Thermostat{TargetRevision: t.TargetRevision}
	if t.Current != nil {
		out.Current = floatPtr(*t.Current)
	}
	if t.Target != nil {
		out.Target = floatPtr(*t.Target)
	}
	if t.Heater != nil {
		on := *t.Heater
		out.Heater = &on
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}
