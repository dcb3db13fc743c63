package control

import (
	"strconv"
	"strings"
)

// Target bounds in °C, inclusive.
const (
	MinTarget = 0.0
	MaxTarget = 95.0
)

// Sanitize cleans the target input after a keystroke. The result always
// parses as a float in [MinTarget, MaxTarget].
//
// Empty input becomes "0". Characters other than digits and '.' are removed,
// and a second '.' drops the last character. A value that had to be clamped,
// or that has no decimal point, is rewritten in normalized form. An in-range
// value with one decimal point keeps its typed form so "21." can become
// "21.5" on the next keystroke.
func Sanitize(raw string) string {
	if raw == "" {
		return "0"
	}

	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	value := b.String()
	if strings.Count(value, ".") > 1 {
		value = value[:len(value)-1]
	}

	number, ok := leadingFloat(value)
	if !ok {
		if value == "." {
			return "0."
		}
		return "0"
	}

	clamped := clamp(number)
	if clamped != number || strings.Count(value, ".") != 1 {
		return strconv.FormatFloat(clamped, 'f', -1, 64)
	}
	return value
}

// ParseTarget reads the leading number of a sanitized buffer, clamped into
// range. ok is false when the buffer holds no number.
func ParseTarget(s string) (float64, bool) {
	v, ok := leadingFloat(s)
	if !ok {
		return 0, false
	}
	return clamp(v), true
}

// leadingFloat parses the longest prefix made of digits and at most one '.'.
func leadingFloat(s string) (float64, bool) {
	end, dot := 0, false
	for end < len(s) {
		c := s[end]
		if c == '.' {
			if dot {
				break
			}
			dot = true
		} else if c < '0' || c > '9' {
			break
		}
		end++
	}
	prefix := s[:end]
	if prefix == "" || prefix == "." {
		return 0, false
	}
	if strings.HasSuffix(prefix, ".") {
		prefix = strings.TrimSuffix(prefix, ".")
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clamp(v float64) float64 {
	if v < MinTarget {
		return MinTarget
	}
	if v > MaxTarget {
		return MaxTarget
	}
	return v
}
