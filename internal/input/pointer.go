package input

// Zone is a clickable control occupying columns [X0, X1) on row Y.
type Zone struct {
	ID string
	X0 int
	X1 int
	Y  int
}

// Contains reports whether the cell (x, y) lies inside the zone.
func (z Zone) Contains(x, y int) bool {
	return y == z.Y && x >= z.X0 && x < z.X1
}

// Controls holds the zones of the interactive controls currently on screen.
type Controls struct {
	zones []Zone
}

// Set replaces all zones.
func (c *Controls) Set(zones []Zone) {
	c.zones = append(c.zones[:0], zones...)
}

// Zones returns a copy of the registered zones.
func (c *Controls) Zones() []Zone {
	return append([]Zone(nil), c.zones...)
}

// Hit returns the control under (x, y). A press that hits a control is a UI
// interaction and must not be counted as a tempo event.
func (c *Controls) Hit(x, y int) (Zone, bool) {
	for _, z := range c.zones {
		if z.Contains(x, y) {
			return z, true
		}
	}
	return Zone{}, false
}

// Row lays out labels left to right on row y starting at column x, separated
// by gap columns, and returns their zones. widths gives each label's display
// width.
func Row(ids []string, widths []int, x, y, gap int) []Zone {
	zones := make([]Zone, 0, len(ids))
	for i, id := range ids {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		zones = append(zones, Zone{ID: id, X0: x, X1: x + w, Y: y})
		x += w + gap
	}
	return zones
}
