package phase

import "math"

// Pair names an ordered pair of system clocks for relative phase queries.
type Pair string

// The three pairs addressable in phase queries and gate windows.
const (
	PairAB Pair = "ab" // alpha relative to beta
	PairAO Pair = "ao" // alpha relative to observer
	PairBO Pair = "bo" // beta relative to observer
)

// DefaultSyncThreshold bounds how far each relative phase may sit from
// zero for the system to count as aligned.
const DefaultSyncThreshold = 0.05

// DefaultSyncResolution is the sample count SyncPoints falls back to when
// given a non-positive resolution.
const DefaultSyncResolution = 10000

// Vector holds the relative phase of all three clock pairs at one instant.
type Vector struct {
	AB float64 `json:"ab"`
	AO float64 `json:"ao"`
	BO float64 `json:"bo"`
}

// Pack24 quantizes the vector onto 24 bits, eight per component: ab in
// bits 0-7, ao in 8-15, bo in 16-23. Each component is shifted onto
// [0, 1] and rounded to a byte; the +0.5 endpoint wraps to byte 0.
func (v Vector) Pack24() uint32 {
	return quantize8(v.AB) | quantize8(v.AO)<<8 | quantize8(v.BO)<<16
}

// quantize8 maps a relative phase in [-0.5, 0.5] onto one byte.
func quantize8(phi float64) uint32 {
	return uint32(math.Round((phi+0.5)*256)) & 0xFF
}

// System binds the alpha, beta, and observer clock domains and answers
// relative phase queries against them.
//
// Relative phase is the signed difference of two clocks' phases wrapped
// to the shortest way around the unit circle. The wrap rounds half to
// even, so a difference of exactly +0.5 or -0.5 is returned unchanged;
// see the package comment for the consequences.
type System struct {
	alpha    Clock
	beta     Clock
	observer Clock
}

// NewSystem assembles a system from three clocks.
func NewSystem(alpha, beta, observer Clock) *System {
	return &System{alpha: alpha, beta: beta, observer: observer}
}

// Alpha returns the alpha domain clock.
func (s *System) Alpha() *Clock {
	return &s.alpha
}

// Beta returns the beta domain clock.
func (s *System) Beta() *Clock {
	return &s.beta
}

// Observer returns the observer domain clock.
func (s *System) Observer() *Clock {
	return &s.observer
}

// wrap folds a phase difference onto the unit circle, rounding half to
// even.
func wrap(delta float64) float64 {
	return delta - math.RoundToEven(delta)
}

// PhaseAB returns the phase of alpha relative to beta at time t.
func (s *System) PhaseAB(t float64) float64 {
	return wrap(s.alpha.PhaseAt(t) - s.beta.PhaseAt(t))
}

// PhaseAO returns the phase of alpha relative to the observer at time t.
func (s *System) PhaseAO(t float64) float64 {
	return wrap(s.alpha.PhaseAt(t) - s.observer.PhaseAt(t))
}

// PhaseBO returns the phase of beta relative to the observer at time t.
func (s *System) PhaseBO(t float64) float64 {
	return wrap(s.beta.PhaseAt(t) - s.observer.PhaseAt(t))
}

// PhaseVector samples all three relative phases at time t.
func (s *System) PhaseVector(t float64) Vector {
	return Vector{
		AB: s.PhaseAB(t),
		AO: s.PhaseAO(t),
		BO: s.PhaseBO(t),
	}
}

// Relative returns the relative phase for the named pair at time t.
// The boolean reports whether pair is one of the known pairs; queries
// for an unknown pair return false rather than an error.
func (s *System) Relative(pair Pair, t float64) (float64, bool) {
	switch pair {
	case PairAB:
		return s.PhaseAB(t), true
	case PairAO:
		return s.PhaseAO(t), true
	case PairBO:
		return s.PhaseBO(t), true
	default:
		return 0, false
	}
}

// BeatFrequencyAB returns the beat frequency between the alpha and beta
// clocks in hertz, the rate at which their relative phase completes a
// full cycle.
func (s *System) BeatFrequencyAB() float64 {
	return math.Abs(s.alpha.hz - s.beta.hz)
}

// IsSync reports whether the alpha and beta clocks are nearly in phase
// at time t: |PhaseAB(t)| strictly less than threshold. The observer
// does not participate; sync is a property of the computing pair.
func (s *System) IsSync(t, threshold float64) bool {
	return math.Abs(s.PhaseAB(t)) < threshold
}

// SyncPoints samples [tStart, tEnd) at uniform spacing and returns the
// times where IsSync holds. The interval is divided into resolution
// samples; a non-positive resolution falls back to
// DefaultSyncResolution.
func (s *System) SyncPoints(tStart, tEnd, threshold float64, resolution int) []float64 {
	if resolution <= 0 {
		resolution = DefaultSyncResolution
	}
	dt := (tEnd - tStart) / float64(resolution)

	var points []float64
	for i := 0; i < resolution; i++ {
		t := tStart + float64(i)*dt
		if s.IsSync(t, threshold) {
			points = append(points, t)
		}
	}

	// Return empty slice instead of nil
	if points == nil {
		points = []float64{}
	}
	return points
}
