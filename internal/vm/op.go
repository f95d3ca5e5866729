package vm

import (
	"fmt"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/phase"
)

// BindInstruction turns a compiled instruction spec into an executable
// Instruction. The op must be in the ir.Ops vocabulary; an instruction
// without a name takes its op as name.
func BindInstruction(spec ir.InstructionSpec) (Instruction, error) {
	op, err := bindOp(spec)
	if err != nil {
		return Instruction{}, err
	}

	name := spec.Name
	if name == "" {
		name = spec.Op
	}
	return Instruction{
		Name:   name,
		Pair:   phase.Pair(spec.Pair),
		Center: spec.Center,
		Width:  spec.Width,
		Op:     op,
	}, nil
}

// bindOp builds the closure for one op. Closures capture operands from
// the spec at bind time and read machine state only at execution time.
func bindOp(spec ir.InstructionSpec) (OpFunc, error) {
	switch spec.Op {
	case ir.OpAdd:
		return func(m *Machine, t float64) (ir.Value, error) {
			return writeBack(m, spec.Dest, ir.Float(m.alu.Add(spec.A, spec.B, t)))
		}, nil

	case ir.OpMul:
		return func(m *Machine, t float64) (ir.Value, error) {
			return writeBack(m, spec.Dest, ir.Float(m.alu.Mul(spec.A, spec.B, t)))
		}, nil

	case ir.OpHash:
		return func(m *Machine, t float64) (ir.Value, error) {
			return writeBack(m, spec.Dest, ir.Int(m.alu.PhaseHash(spec.X, t)))
		}, nil

	case ir.OpSelect:
		values := append([]ir.Value(nil), spec.Values...)
		return func(m *Machine, t float64) (ir.Value, error) {
			v, err := m.alu.PhaseSelect(values, t)
			if err != nil {
				return ir.Null{}, err
			}
			return writeBack(m, spec.Dest, v)
		}, nil

	case ir.OpRead:
		source := spec.Source
		return func(m *Machine, t float64) (ir.Value, error) {
			v, err := m.ReadReg(source)
			if err != nil {
				return ir.Null{}, err
			}
			return writeBack(m, spec.Dest, v)
		}, nil

	case ir.OpWrite:
		target := spec.Target
		value := spec.Value
		if value == nil {
			value = ir.Null{}
		}
		return func(m *Machine, t float64) (ir.Value, error) {
			ok, err := m.WriteReg(target, value)
			if err != nil {
				return ir.Null{}, err
			}
			return ir.Bool(ok), nil
		}, nil

	case ir.OpNop:
		return func(m *Machine, t float64) (ir.Value, error) {
			return ir.Null{}, nil
		}, nil

	default:
		return nil, &UnknownOpError{Op: spec.Op}
	}
}

// writeBack stores v into dest when the instruction names one. The
// recorded value is v either way.
func writeBack(m *Machine, dest string, v ir.Value) (ir.Value, error) {
	if dest == "" {
		return v, nil
	}
	if _, err := m.WriteReg(dest, v); err != nil {
		return ir.Null{}, err
	}
	return v, nil
}

// FromScenario builds a machine from a compiled scenario: clocks from
// the clock set, registers from the layout, program from the
// instruction list.
//
// A scenario without a registers section gets the default bank; one
// with a registers section gets exactly the registers it names.
func FromScenario(scn *ir.Scenario) (*Machine, error) {
	alpha, err := phase.NewClock(clockName(scn.Clocks.Alpha.Name, "Alpha"), scn.Clocks.Alpha.Hz)
	if err != nil {
		return nil, err
	}
	beta, err := phase.NewClock(clockName(scn.Clocks.Beta.Name, "Beta"), scn.Clocks.Beta.Hz)
	if err != nil {
		return nil, err
	}
	observer, err := phase.NewClock(clockName(scn.Clocks.Observer.Name, "Observer"), scn.Clocks.Observer.Hz)
	if err != nil {
		return nil, err
	}
	sys := phase.NewSystem(alpha, beta, observer)

	var opts []Option
	if len(scn.Registers) > 0 {
		opts = append(opts, WithRegisterCount(0))
	}
	m, err := NewMachine(sys, opts...)
	if err != nil {
		return nil, err
	}

	for _, reg := range scn.Registers {
		if err := m.AddRegister(reg.Name, reg.Slots); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scn.Name, err)
		}
	}

	program := make([]Instruction, len(scn.Program))
	for i, spec := range scn.Program {
		instr, err := BindInstruction(spec)
		if err != nil {
			return nil, fmt.Errorf("scenario %q instruction %d: %w", scn.Name, i, err)
		}
		program[i] = instr
	}
	m.LoadProgram(program)

	return m, nil
}

func clockName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
