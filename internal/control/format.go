package control

import "github.com/shopspring/decimal"

// FormatOneDecimal formats v with exactly one fractional digit, rounding half
// away from zero.
func FormatOneDecimal(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

// FormatTemperature renders a reading as "21.5°C", or a placeholder when no
// reading has arrived.
func FormatTemperature(v *float64) string {
	if v == nil {
		return "--.-°C"
	}
	return FormatOneDecimal(*v) + "°C"
}
