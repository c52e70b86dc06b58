package gamepad

// EdgeDetector remembers the pressed state of every button from the previous
// poll and reports only rising edges.
type EdgeDetector struct {
	prev map[string][]bool
}

// NewEdgeDetector returns an empty detector.
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{prev: map[string][]bool{}}
}

// Diff compares the states against the previous poll. Controllers missing from
// states are forgotten, so a reconnect starts from all-released.
func (d *EdgeDetector) Diff(states []State) []Press {
	var presses []Press
	seen := make(map[string]struct{}, len(states))
	for _, st := range states {
		seen[st.ID] = struct{}{}
		prev := d.prev[st.ID]
		cur := make([]bool, len(st.Buttons))
		for i, b := range st.Buttons {
			cur[i] = b.Pressed
			was := i < len(prev) && prev[i]
			if b.Pressed && !was {
				presses = append(presses, Press{Pad: st.ID, Button: i})
			}
		}
		d.prev[st.ID] = cur
	}
	for id := range d.prev {
		if _, ok := seen[id]; !ok {
			delete(d.prev, id)
		}
	}
	return presses
}
