package vm

import (
	"math"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/phase"
)

// ALU performs arithmetic perturbed by the system's phase state. Time
// is an implicit operand of every operation: the same inputs at a
// different instant give a different result.
type ALU struct {
	system *phase.System
}

// NewALU creates an ALU reading phase from sys.
func NewALU(sys *phase.System) *ALU {
	return &ALU{system: sys}
}

// Add returns a + b*(1+phi_ab), plain addition scaled by the alpha-beta
// phase. At perfect alignment it degenerates to a + b.
func (u *ALU) Add(a, b, t float64) float64 {
	return a + b*(1+u.system.PhaseAB(t))
}

// Mul returns a*b*(1+0.5*sin(2*pi*phi_ao)), multiplication modulated by
// the alpha-observer phase. The modulation factor stays within
// [0.5, 1.5].
func (u *ALU) Mul(a, b, t float64) float64 {
	return a * b * (1 + 0.5*math.Sin(2*math.Pi*u.system.PhaseAO(t)))
}

// PhaseHash mixes the full phase vector into x: the 24-bit packed
// vector (eight bits per pair) becomes an XOR mask. Both half-cycle
// endpoints collapse to byte 0 under the mask.
func (u *ALU) PhaseHash(x int64, t float64) int64 {
	return x ^ int64(u.system.PhaseVector(t).Pack24())
}

// PhaseSelect picks one of values by where the alpha-beta phase falls
// on the unit circle. An empty values slice is an error.
func (u *ALU) PhaseSelect(values []ir.Value, t float64) (ir.Value, error) {
	if len(values) == 0 {
		return ir.Null{}, ErrEmptySelection
	}

	phi := math.Mod(u.system.PhaseAB(t)+0.5, 1)
	idx := int(phi*float64(len(values))) % len(values)
	return values[idx], nil
}
