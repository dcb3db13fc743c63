package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"  short  ", 10, "short"},
		{"connection refused", 10, "connect..."},
		{"abcdef", 3, "abc"},
		{"abcdef", 0, "abcdef"},
		{"°C°C°C", 5, "°C..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		then time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-300 * time.Millisecond), "just now"},
		{now.Add(-42 * time.Second), "42s ago"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-2 * time.Hour), "10:00:00"},
	}
	for _, tt := range tests {
		if got := formatAgo(tt.then, now); got != tt.want {
			t.Fatalf("formatAgo(%v) = %q, want %q", tt.then, got, tt.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := formatCountdown(now.Add(1500*time.Millisecond), now); got != "1.5s" {
		t.Fatalf("formatCountdown = %q, want 1.5s", got)
	}
	if got := formatCountdown(now.Add(-time.Second), now); got != "0.0s" {
		t.Fatalf("formatCountdown past = %q, want 0.0s", got)
	}
}
