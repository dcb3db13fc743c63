package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuty(t *testing.T) {
	cases := []struct {
		name            string
		current, target float64
		on              bool
		want            float64
	}{
		{"heater off", 20, 50, false, 0},
		{"at target", 50, 50, true, 0},
		{"above target", 55, 50, true, 0},
		{"far below", 20, 50, true, 0.6},
		{"exactly band", 45, 50, true, 0.6},
		{"half band", 47.5, 50, true, 0.35},
		{"just below", 50 - 1e-9, 50, true, 0.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Duty(tc.current, tc.target, tc.on), 1e-6)
		})
	}
}

func TestModel_Defaults(t *testing.T) {
	m := NewModel(Params{})
	st := m.Snapshot()
	assert.Equal(t, 50.0, st.TargetTemperature)
	assert.False(t, st.HeaterState)
	assert.Equal(t, defaultAmbient, st.CurrentTemperature)
}

func TestModel_HeatsTowardTargetAndCoolsWhenOff(t *testing.T) {
	m := NewModel(Params{Ambient: 20, HeatRate: 1, CoolRate: 0.05})
	m.SetTarget(30)
	m.SetHeater(true)

	prev := m.Snapshot().CurrentTemperature
	for i := 0; i < 10; i++ {
		st := m.Step(time.Second)
		assert.Greater(t, st.CurrentTemperature, prev)
		assert.Greater(t, st.Duty, 0.0)
		prev = st.CurrentTemperature
	}

	m.SetHeater(false)
	for i := 0; i < 10; i++ {
		st := m.Step(time.Second)
		assert.Less(t, st.CurrentTemperature, prev)
		assert.Greater(t, st.CurrentTemperature, 20.0)
		assert.Zero(t, st.Duty)
		prev = st.CurrentTemperature
	}
}

func TestModel_StaysAtAmbientWhenIdle(t *testing.T) {
	m := NewModel(Params{Ambient: 18})
	st := m.Step(time.Minute)
	assert.InDelta(t, 18.0, st.CurrentTemperature, 1e-9)
}
