package control

import "github.com/five82/thermo/internal/gateway"

// HeaterToggle returns the command for a click on the heater control. The
// displayed state is not changed here; it follows the gateway's echo. An
// unknown state toggles to on.
func HeaterToggle(current *bool) gateway.Command {
	if current == nil {
		return gateway.SetHeaterState(true)
	}
	return gateway.SetHeaterState(!*current)
}
