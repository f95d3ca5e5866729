package phase

import (
	"fmt"
	"math"
)

// Clock is a free-running oscillator with a display name and a fixed
// frequency. It never drifts and has no jitter: phase is computed from
// absolute time on every query, never accumulated.
//
// Thread-safety: all methods except Tick are read-only. Callers that
// share a Clock across goroutines must serialize calls to Tick; the
// single-stepped Machine never does so concurrently.
type Clock struct {
	name  string
	hz    float64
	ticks int64
}

// NewClock creates a clock with the given display name and frequency in
// hertz. The frequency must be positive and finite.
func NewClock(name string, hz float64) (Clock, error) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz <= 0 {
		return Clock{}, fmt.Errorf("clock %q: frequency must be positive and finite, got %v: %w", name, hz, ErrInvalidConfig)
	}
	return Clock{name: name, hz: hz}, nil
}

// Name returns the clock's display name.
func (c *Clock) Name() string {
	return c.name
}

// Frequency returns the clock frequency in hertz.
func (c *Clock) Frequency() float64 {
	return c.hz
}

// Period returns the duration of one full cycle in seconds.
func (c *Clock) Period() float64 {
	return 1 / c.hz
}

// PhaseAt returns the clock's phase at absolute time t as a fraction of a
// cycle in [0, 1). Negative times are valid and wrap the same way as
// positive ones.
func (c *Clock) PhaseAt(t float64) float64 {
	p := math.Mod(t*c.hz, 1)
	if p < 0 {
		p++
	}
	return p
}

// Tick counts one whole cycle and returns the new count. The counter is
// bookkeeping only; phase queries never consult it.
func (c *Clock) Tick() int64 {
	c.ticks++
	return c.ticks
}

// Ticks returns the number of whole cycles counted so far.
func (c *Clock) Ticks() int64 {
	return c.ticks
}
