package ui

import (
	"fmt"
	"strings"
	"time"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// formatAgo renders a short relative time such as "3s ago".
func formatAgo(then, now time.Time) string {
	if then.IsZero() {
		return "never"
	}
	d := now.Sub(then)
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return then.Format("15:04:05")
	}
}

// formatCountdown renders the time left until t with one decimal.
func formatCountdown(t, now time.Time) string {
	left := t.Sub(now)
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("%.1fs", left.Seconds())
}
