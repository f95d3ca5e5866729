// Package dispatch routes tasks to workers by clock phase instead of
// round-robin. No shared counter picks the worker: the submission
// instant's phase vector is the routing key, so submissions
// decorrelate as the phases drift.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/phitlab/triphase/internal/phase"
)

// ErrInvalidConfig reports a routing parameter outside its domain.
var ErrInvalidConfig = errors.New("invalid configuration")

// Router assigns worker indexes from the phase vector of a system.
type Router struct {
	system *phase.System
}

// NewRouter creates a router reading phase from sys.
func NewRouter(sys *phase.System) *Router {
	return &Router{system: sys}
}

// Route returns the worker index in [0, n) for a task submitted at
// time t. The 24-bit packed phase vector runs through a 32-bit
// avalanche hash before the modulo, so neighboring phases land on
// unrelated workers.
func (r *Router) Route(t float64, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("worker count must be positive, got %d: %w", n, ErrInvalidConfig)
	}
	return r.route(t, n), nil
}

func (r *Router) route(t float64, n int) int {
	key := hash32(r.system.PhaseVector(t).Pack24())
	return int(key % uint32(n))
}

// Spread histograms Route over a fixed submission grid: ticks
// submissions starting at tStart, dt apart. The result has one count
// per worker and sums to ticks.
func (r *Router) Spread(tStart, dt float64, n, ticks int) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d: %w", n, ErrInvalidConfig)
	}

	counts := make([]int, n)
	for i := 0; i < ticks; i++ {
		counts[r.route(tStart+float64(i)*dt, n)]++
	}
	return counts, nil
}

// hash32 is a 32-bit avalanche finalizer.
func hash32(key uint32) uint32 {
	key *= 2654435761
	key ^= key >> 16
	key *= 0x85ebca6b
	key ^= key >> 13
	return key
}
