package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 80

	// ChartMaxWidth caps the plot width on very wide terminals.
	ChartMaxWidth = 120

	// ChartHeight is the number of plot rows.
	ChartHeight = 10
)

// Target input sizing.
const (
	TargetCharLimit  = 8
	TargetInputWidth = 8
)

// Log display limits.
const (
	// LogLineLimit is the number of log lines read from the end of the file.
	LogLineLimit = 500
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = 250 * time.Millisecond

	// FlashDuration is how long status messages stay visible.
	FlashDuration = 4 * time.Second
)
