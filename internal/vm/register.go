package vm

import (
	"fmt"
	"math"

	"github.com/phitlab/triphase/internal/ir"
)

// Slot is one phase-addressed cell of a register: a payload plus the
// half-open arc of phase it answers to.
type Slot struct {
	Value ir.Value
	Start float64
	End   float64
}

// Contains reports whether the slot's arc covers phase phi. Phi is
// normalized onto [0, 1) first; arcs that wrap past 1.0 are treated as
// two pieces.
func (s *Slot) Contains(phi float64) bool {
	phi = math.Mod(phi, 1)
	if phi < 0 {
		phi++
	}

	if s.Start <= s.End {
		return s.Start <= phi && phi < s.End
	}
	return phi >= s.Start || phi < s.End
}

// Register is a phase-multiplexed register: n slots dividing the unit
// circle evenly, addressed by the phase at access time rather than by
// index.
type Register struct {
	name  string
	slots []Slot
}

// NewRegister creates a register with numSlots equal arcs. Every slot
// starts holding Int(0).
func NewRegister(name string, numSlots int) (*Register, error) {
	if numSlots <= 0 {
		return nil, fmt.Errorf("register %q: slot count must be positive, got %d: %w", name, numSlots, ErrInvalidConfig)
	}

	width := 1.0 / float64(numSlots)
	slots := make([]Slot, numSlots)
	for i := range slots {
		slots[i] = Slot{
			Value: ir.Int(0),
			Start: float64(i) * width,
			End:   float64(i+1) * width,
		}
	}
	return &Register{name: name, slots: slots}, nil
}

// Name returns the register name.
func (r *Register) Name() string {
	return r.name
}

// NumSlots returns the slot count.
func (r *Register) NumSlots() int {
	return len(r.slots)
}

// Slots exposes the backing slot array for direct manipulation.
// Mutations through it bypass phase addressing.
func (r *Register) Slots() []Slot {
	return r.slots
}

// Read returns the value of the slot covering phase phi. The boolean is
// false when no slot covers phi, which with the even layout only
// happens when rounding leaves a sliver at the wrap seam.
func (r *Register) Read(phi float64) (ir.Value, bool) {
	for i := range r.slots {
		if r.slots[i].Contains(phi) {
			return r.slots[i].Value, true
		}
	}
	return ir.Null{}, false
}

// Write stores v into the slot covering phase phi and reports whether
// any slot accepted it.
func (r *Register) Write(phi float64, v ir.Value) bool {
	for i := range r.slots {
		if r.slots[i].Contains(phi) {
			r.slots[i].Value = v
			return true
		}
	}
	return false
}

// WriteSlot stores v directly by slot index, bypassing phase
// addressing. Out-of-range indexes are ignored.
func (r *Register) WriteSlot(i int, v ir.Value) {
	if i < 0 || i >= len(r.slots) {
		return
	}
	r.slots[i].Value = v
}

// DensityBits returns the bits of addressing the phase dimension
// yields, log2 of the slot count.
func (r *Register) DensityBits() float64 {
	return math.Log2(float64(len(r.slots)))
}
