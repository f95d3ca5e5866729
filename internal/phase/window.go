package phase

import "math"

// Window is an arc on the unit phase circle, Width wide around Center.
type Window struct {
	Center float64
	Width  float64
}

// Contains reports whether phi lies within Width/2 of Center, the
// distance measured the short way around the circle. A zero Width
// admits only the exact center; a Width of 1 admits every phase.
func (w Window) Contains(phi float64) bool {
	dist := math.Abs(phi - w.Center)
	if dist > 0.5 {
		dist = 1 - dist
	}
	return dist <= w.Width/2
}
