package entropy

import (
	"errors"
	"fmt"
	"math"

	"github.com/phitlab/triphase/internal/phase"
)

// ErrInvalidConfig reports a source construction parameter outside its
// domain.
var ErrInvalidConfig = errors.New("invalid configuration")

// Source samples the phase vector of a system along a time grid. Each
// Next call advances the cursor by one stride and packs the three
// relative phases into a mixed 64-bit sample.
type Source struct {
	system *phase.System
	cursor float64
	stride float64
}

// NewSource creates a source stepping through simulated time in stride
// increments, starting at t=0.
func NewSource(sys *phase.System, stride float64) (*Source, error) {
	if math.IsNaN(stride) || math.IsInf(stride, 0) || stride <= 0 {
		return nil, fmt.Errorf("stride must be positive and finite, got %v: %w", stride, ErrInvalidConfig)
	}
	return &Source{system: sys, stride: stride}, nil
}

// Cursor returns the time of the most recent sample.
func (s *Source) Cursor() float64 {
	return s.cursor
}

// Next advances the cursor and returns the mixed sample at the new
// time. Sixteen bits per relative phase fill the low 48 bits before
// mixing.
func (s *Source) Next() uint64 {
	s.cursor += s.stride
	v := s.system.PhaseVector(s.cursor)
	raw := q16(v.AB) | q16(v.AO)<<16 | q16(v.BO)<<32
	return mix64(raw)
}

// q16 maps a relative phase in [-0.5, 0.5] onto 16 bits. The +0.5
// endpoint wraps to 0.
func q16(phi float64) uint64 {
	return uint64((phi+0.5)*65536) & 0xFFFF
}
