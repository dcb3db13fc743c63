package config

import (
	"fmt"
	"strings"
)

// ChartMode selects what the dashboard chart shows.
type ChartMode string

const (
	ChartStatic ChartMode = "static"
	ChartLive   ChartMode = "live"
	ChartOff    ChartMode = "off"
)

var chartOrder = []ChartMode{ChartStatic, ChartLive, ChartOff}

// ParseChartMode accepts static, live or off (case-insensitive).
func ParseChartMode(value string) (ChartMode, error) {
	mode := ChartMode(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range chartOrder {
		if mode == known {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown chart mode %q (want static, live or off)", value)
}

// Next returns the following mode in the cycle static -> live -> off.
func (m ChartMode) Next() ChartMode {
	for i, mode := range chartOrder {
		if mode == m {
			return chartOrder[(i+1)%len(chartOrder)]
		}
	}
	return chartOrder[0]
}
