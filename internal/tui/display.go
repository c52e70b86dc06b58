package tui

import (
	"github.com/verte-zerg/bpmcheck/internal/stats"
	"github.com/verte-zerg/bpmcheck/internal/tempo"
)

const trailLength = 48

// display is the tracker's sink: the last reading plus a short trail of
// instantaneous tempos for the sparkline.
type display struct {
	reading tempo.Reading
	trail   *stats.Trail
}

func newDisplay() *display {
	return &display{trail: stats.NewTrail(trailLength)}
}

// Show implements tempo.Sink.
func (d *display) Show(r tempo.Reading) {
	d.reading = r
	if r.IsZero() {
		d.trail.Clear()
		return
	}
	d.trail.Push(r.Current)
}

func (d *display) sparkline() string {
	return stats.Sparkline(d.trail.Values())
}
