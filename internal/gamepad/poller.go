package gamepad

import (
	"context"
	"time"
)

// DefaultFrameRate matches a typical display refresh.
const DefaultFrameRate = 60

// Poller samples a Source at a fixed rate and forwards rising edges.
type Poller struct {
	source   Source
	interval time.Duration
	edges    *EdgeDetector
}

// NewPoller builds a poller running at frameRate polls per second.
func NewPoller(source Source, frameRate int) *Poller {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Poller{
		source:   source,
		interval: time.Second / time.Duration(frameRate),
		edges:    NewEdgeDetector(),
	}
}

// Interval returns the time between polls.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Poll runs a single frame and returns the presses it produced.
func (p *Poller) Poll() []Press {
	return p.edges.Diff(p.source.Snapshot())
}

// Run polls until ctx is cancelled, calling emit once per press with the time
// of the frame that observed it.
func (p *Poller) Run(ctx context.Context, emit func(Press, time.Time)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, press := range p.Poll() {
				emit(press, now)
			}
		}
	}
}
