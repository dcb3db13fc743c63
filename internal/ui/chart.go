package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/five82/thermo/internal/config"
	"github.com/five82/thermo/internal/state"
)

// series is a plotted dataset with a fixed y range.
type series struct {
	xs, ys     []float64
	yMin, yMax float64
	left       string // x-axis label under the first column
	right      string // x-axis label under the last column
}

var staticYs = []float64{7, 8, 8, 9, 9, 9, 10, 11, 14, 14, 15}

// staticSeries is the canned dataset shown in static chart mode.
func staticSeries() series {
	xs := make([]float64, len(staticYs))
	for i := range xs {
		xs[i] = float64(50 + 10*i)
	}
	return series{
		xs:    xs,
		ys:    append([]float64(nil), staticYs...),
		yMin:  6,
		yMax:  16,
		left:  "50",
		right: "150",
	}
}

// liveSeries plots the recorded current temperatures. It reports false
// until two readings exist.
func liveSeries(history []state.Reading) (series, bool) {
	if len(history) < 2 {
		return series{}, false
	}
	first := history[0].At
	s := series{
		xs:   make([]float64, len(history)),
		ys:   make([]float64, len(history)),
		yMin: math.Inf(1),
		yMax: math.Inf(-1),
	}
	for i, r := range history {
		s.xs[i] = r.At.Sub(first).Seconds()
		s.ys[i] = r.Celsius
		s.yMin = math.Min(s.yMin, r.Celsius)
		s.yMax = math.Max(s.yMax, r.Celsius)
	}
	s.yMin = math.Floor(s.yMin) - 1
	s.yMax = math.Ceil(s.yMax) + 1
	s.left = fmt.Sprintf("-%.0fs", s.xs[len(s.xs)-1])
	s.right = "now"
	return s, true
}

// sample resamples s to width evenly spaced columns by linear interpolation.
func sample(s series, width int) []float64 {
	if width <= 0 || len(s.xs) == 0 {
		return nil
	}
	out := make([]float64, width)
	if len(s.xs) == 1 || width == 1 {
		for i := range out {
			out[i] = s.ys[len(s.ys)-1]
		}
		return out
	}

	lo, hi := s.xs[0], s.xs[len(s.xs)-1]
	j := 0
	for c := range out {
		x := lo + (hi-lo)*float64(c)/float64(width-1)
		for j < len(s.xs)-2 && s.xs[j+1] < x {
			j++
		}
		x0, x1 := s.xs[j], s.xs[j+1]
		if x1 == x0 {
			out[c] = s.ys[j+1]
			continue
		}
		t := math.Max(0, math.Min(1, (x-x0)/(x1-x0)))
		out[c] = s.ys[j] + t*(s.ys[j+1]-s.ys[j])
	}
	return out
}

var blocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// plotArea draws values as a filled area chart of the given height, top row
// first.
func plotArea(values []float64, yMin, yMax float64, height int) []string {
	if height <= 0 {
		return nil
	}
	span := yMax - yMin
	if span <= 0 {
		span = 1
	}

	levels := make([]float64, len(values))
	for i, v := range values {
		levels[i] = math.Max(0, math.Min(1, (v-yMin)/span)) * float64(height)
	}

	rows := make([]string, height)
	for r := range rows {
		bottom := float64(height - 1 - r)
		var b strings.Builder
		for _, level := range levels {
			fill := level - bottom
			switch {
			case fill >= 1:
				b.WriteRune(blocks[8])
			case fill <= 0:
				b.WriteRune(blocks[0])
			default:
				b.WriteRune(blocks[int(math.Round(fill*8))])
			}
		}
		rows[r] = b.String()
	}
	return rows
}

// renderChart renders the chart panel body for the current mode, or an
// empty string when the chart is off.
func (m Model) renderChart(width int) string {
	styles := m.theme.Styles()

	var s series
	switch m.chartMode {
	case config.ChartOff:
		return ""
	case config.ChartLive:
		live, ok := liveSeries(m.snapshot.History)
		if !ok {
			return styles.MutedText.Render("Waiting for readings...")
		}
		s = live
	default:
		s = staticSeries()
	}

	const labelWidth = 5
	plotWidth := min(width-labelWidth-1, ChartMaxWidth)
	if plotWidth < 2 {
		return ""
	}

	rows := plotArea(sample(s, plotWidth), s.yMin, s.yMax, ChartHeight)
	var b strings.Builder
	for i, row := range rows {
		label := ""
		switch i {
		case 0:
			label = fmt.Sprintf("%.0f", s.yMax)
		case len(rows) / 2:
			label = fmt.Sprintf("%.0f", (s.yMin+s.yMax)/2)
		case len(rows) - 1:
			label = fmt.Sprintf("%.0f", s.yMin)
		}
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("%*s┤", labelWidth, label)))
		b.WriteString(styles.ChartLine.Render(row))
		b.WriteString("\n")
	}

	b.WriteString(styles.FaintText.Render(strings.Repeat(" ", labelWidth) + "└" + strings.Repeat("─", plotWidth)))
	b.WriteString("\n")
	gap := max(plotWidth-len(s.left)-len(s.right), 1)
	b.WriteString(styles.FaintText.Render(strings.Repeat(" ", labelWidth+1) + s.left + strings.Repeat(" ", gap) + s.right))
	return b.String()
}
