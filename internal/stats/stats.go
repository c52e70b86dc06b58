// Package stats contains tempo summaries and text rendering helpers.
package stats

import (
	"math"
	"strings"
)

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Trail is a bounded history of recent values, oldest first.
type Trail struct {
	values []float64
	limit  int
}

// NewTrail returns a trail keeping at most limit values.
func NewTrail(limit int) *Trail {
	if limit <= 0 {
		limit = 1
	}
	return &Trail{limit: limit}
}

// Push appends v, dropping the oldest value when full.
func (t *Trail) Push(v float64) {
	t.values = append(t.values, v)
	if len(t.values) > t.limit {
		t.values = t.values[len(t.values)-t.limit:]
	}
}

// Clear drops every value.
func (t *Trail) Clear() {
	t.values = nil
}

// Values returns a copy of the stored values.
func (t *Trail) Values() []float64 {
	return append([]float64(nil), t.values...)
}

// Len returns the number of stored values.
func (t *Trail) Len() int {
	return len(t.values)
}
