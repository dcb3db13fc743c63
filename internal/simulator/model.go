package simulator

import (
	"math"
	"sync"
	"time"
)

const (
	defaultTarget   = 50.0
	defaultAmbient  = 21.0
	defaultHeatRate = 1.5  // °C per second at full duty
	defaultCoolRate = 0.01 // fraction of the gap to ambient lost per second

	minDuty = 0.1
	maxDuty = 0.6
	// Duty ramps to maxDuty once the target is this far above the water.
	rampBand = 5.0
)

// Params tune the thermal model.
type Params struct {
	Ambient  float64
	HeatRate float64
	CoolRate float64
}

// State is what the simulated firmware knows.
type State struct {
	CurrentTemperature float64 `json:"current_temperature"`
	TargetTemperature  float64 `json:"target_temperature"`
	HeaterState        bool    `json:"heater_state"`
	Duty               float64 `json:"duty"`
}

// Model is a thread-safe thermal model of the heater.
type Model struct {
	mu     sync.Mutex
	params Params
	state  State
}

// NewModel starts at ambient with the firmware defaults: target 50 °C and
// the heater off.
func NewModel(p Params) *Model {
	if p.Ambient == 0 {
		p.Ambient = defaultAmbient
	}
	if p.HeatRate <= 0 {
		p.HeatRate = defaultHeatRate
	}
	if p.CoolRate <= 0 {
		p.CoolRate = defaultCoolRate
	}
	return &Model{
		params: p,
		state: State{
			CurrentTemperature: p.Ambient,
			TargetTemperature:  defaultTarget,
		},
	}
}

// Duty returns the heater duty cycle in [0, 1] for the given readings.
func Duty(current, target float64, on bool) float64 {
	if !on || current >= target {
		return 0
	}
	t := math.Min(1, (target-current)/rampBand)
	return lerp(minDuty, maxDuty, t)
}

// Step advances the model by dt and returns the new state.
func (m *Model) Step(dt time.Duration) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	secs := dt.Seconds()
	s := &m.state
	s.Duty = Duty(s.CurrentTemperature, s.TargetTemperature, s.HeaterState)
	heat := s.Duty * m.params.HeatRate * secs
	loss := (s.CurrentTemperature - m.params.Ambient) * (1 - math.Exp(-m.params.CoolRate*secs))
	s.CurrentTemperature += heat - loss
	return m.state
}

// SetTarget stores a new target temperature.
func (m *Model) SetTarget(v float64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.TargetTemperature = v
	m.state.Duty = Duty(m.state.CurrentTemperature, v, m.state.HeaterState)
	return m.state
}

// SetHeater enables or disables the heater.
func (m *Model) SetHeater(on bool) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.HeaterState = on
	m.state.Duty = Duty(m.state.CurrentTemperature, m.state.TargetTemperature, on)
	return m.state
}

// Snapshot returns the current state.
func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
