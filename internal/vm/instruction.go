package vm

import (
	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/phase"
)

// OpFunc is the operation an instruction runs when its gate admits the
// current phase. Implementations receive the machine and the simulated
// time of the step and return the value recorded in the trace.
type OpFunc func(m *Machine, t float64) (ir.Value, error)

// Instruction pairs a phase gate with an operation.
//
// The gate is a window on one clock pair's relative phase: the
// instruction may execute only while that phase lies within Width/2 of
// Center, measured the short way around the circle. A zero Width
// admits only the exact center; a Width of 1 admits every phase.
type Instruction struct {
	Name   string
	Pair   phase.Pair
	Center float64
	Width  float64
	Op     OpFunc
}

// CanExecute reports whether the gate admits the system's phase at time
// t. An unknown pair never admits; the instruction simply does not
// fire.
func (in *Instruction) CanExecute(sys *phase.System, t float64) bool {
	phi, ok := sys.Relative(in.Pair, t)
	if !ok {
		return false
	}
	return phase.Window{Center: in.Center, Width: in.Width}.Contains(phi)
}
