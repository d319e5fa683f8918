package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3388ff"))
)

// Render draws the panel as labelled horizontal bars inside w x h cells. Long
// panels are resampled down to the rows available.
func (p Panel) Render(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	lines := []string{titleStyle.Render(truncate(p.Title, w))}
	if p.Empty() {
		note := p.Note
		if note == "" {
			note = "no data"
		}
		lines = append(lines, noteStyle.Render(truncate(note, w)))
		return strings.Join(clip(lines, h), "\n")
	}

	rows := h - 1
	if rows <= 0 {
		return strings.Join(clip(lines, h), "\n")
	}
	labels, values := resample(p.Labels, p.Values, rows, p.Additive)

	labelW := 0
	for _, l := range labels {
		labelW = max(labelW, lipgloss.Width(l))
	}
	labelW = min(labelW, w/3)
	maxV := 0.0
	for _, v := range values {
		maxV = math.Max(maxV, v)
	}
	valueW := 0
	for _, v := range values {
		valueW = max(valueW, len(formatValue(v)))
	}
	barW := w - labelW - valueW - 2
	for i, v := range values {
		n := 0
		if maxV > 0 && barW > 0 {
			n = int(math.Round(v / maxV * float64(barW)))
		}
		label := fmt.Sprintf("%-*s", labelW, truncate(labels[i], labelW))
		bar := barStyle.Render(strings.Repeat("█", n)) + strings.Repeat(" ", max(0, barW-n))
		lines = append(lines, fmt.Sprintf("%s %s %*s", label, bar, valueW, formatValue(v)))
	}
	return strings.Join(clip(lines, h), "\n")
}

// resample merges adjacent entries so at most n remain. Additive panels sum each
// group under its first label; others keep the last entry of each group.
func resample(labels []string, values []float64, n int, additive bool) ([]string, []float64) {
	if len(values) <= n {
		return labels, values
	}
	outL := make([]string, 0, n)
	outV := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		if !additive {
			outL = append(outL, labels[hi-1])
			outV = append(outV, values[hi-1])
			continue
		}
		var v float64
		for _, x := range values[lo:hi] {
			v += x
		}
		outL = append(outL, labels[lo])
		outV = append(outV, v)
	}
	return outL, outV
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e9 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}

func clip(lines []string, h int) []string {
	if len(lines) > h {
		return lines[:h]
	}
	return lines
}
