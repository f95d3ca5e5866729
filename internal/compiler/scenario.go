package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// Default clock frequencies for scenarios that leave clocks
// unspecified, the classic 5:3:1 demonstration ratio.
const (
	defaultAlphaHz    = 5
	defaultBetaHz     = 3
	defaultObserverHz = 1
)

// CompileScenario parses a CUE value into an ir.Scenario.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the scenario struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`scenario: { ... }`)
//	scn, err := CompileScenario(v.LookupPath(cue.ParsePath("scenario")))
//
// Compilation is fail-fast and materializes defaults: missing clocks
// become the 5:3:1 set, missing register slot counts become the
// machine default, so the compiled scenario is fully explicit.
func CompileScenario(v cue.Value) (*ir.Scenario, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	scn := &ir.Scenario{}

	// Name comes from an explicit field, falling back to the struct
	// label the scenario was compiled under.
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		scn.Name = name
	} else if labels := v.Path().Selectors(); len(labels) > 0 {
		scn.Name = labels[len(labels)-1].String()
	}

	var err error
	scn.Clocks, err = parseClocks(v)
	if err != nil {
		return nil, err
	}

	scn.Registers, err = parseRegisters(v)
	if err != nil {
		return nil, err
	}

	scn.Program, err = parseProgram(v)
	if err != nil {
		return nil, err
	}

	ticksVal := v.LookupPath(cue.ParsePath("ticks"))
	if ticksVal.Exists() {
		ticks, err := ticksVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if ticks < 0 {
			return nil, &CompileError{
				Field:   "ticks",
				Message: fmt.Sprintf("tick count must not be negative, got %d", ticks),
				Pos:     ticksVal.Pos(),
			}
		}
		scn.Ticks = ticks
	}

	return scn, nil
}

// parseClocks extracts the clock set, defaulting any clock the
// scenario does not mention.
func parseClocks(v cue.Value) (ir.ClockSet, error) {
	set := ir.ClockSet{
		Alpha:    ir.ClockSpec{Hz: defaultAlphaHz},
		Beta:     ir.ClockSpec{Hz: defaultBetaHz},
		Observer: ir.ClockSpec{Hz: defaultObserverHz},
	}

	clocksVal := v.LookupPath(cue.ParsePath("clocks"))
	if !clocksVal.Exists() {
		return set, nil
	}

	if err := parseClock(clocksVal, "alpha", &set.Alpha); err != nil {
		return set, err
	}
	if err := parseClock(clocksVal, "beta", &set.Beta); err != nil {
		return set, err
	}
	if err := parseClock(clocksVal, "observer", &set.Observer); err != nil {
		return set, err
	}
	return set, nil
}

// parseClock fills spec from clocks.<label> when present.
func parseClock(clocks cue.Value, label string, spec *ir.ClockSpec) error {
	clockVal := clocks.LookupPath(cue.ParsePath(label))
	if !clockVal.Exists() {
		return nil
	}

	nameVal := clockVal.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		spec.Name = name
	}

	hzVal := clockVal.LookupPath(cue.ParsePath("hz"))
	if !hzVal.Exists() {
		return &CompileError{
			Field:   fmt.Sprintf("clocks.%s.hz", label),
			Message: "clock frequency is required",
			Pos:     clockVal.Pos(),
		}
	}
	hz, err := hzVal.Float64()
	if err != nil {
		return formatCUEError(err)
	}
	if hz <= 0 {
		return &CompileError{
			Field:   fmt.Sprintf("clocks.%s.hz", label),
			Message: fmt.Sprintf("clock frequency must be positive, got %v", hz),
			Pos:     hzVal.Pos(),
		}
	}
	spec.Hz = hz
	return nil
}

// parseRegisters extracts the register layout (optional).
func parseRegisters(v cue.Value) ([]ir.RegisterSpec, error) {
	var registers []ir.RegisterSpec

	regsVal := v.LookupPath(cue.ParsePath("registers"))
	if !regsVal.Exists() {
		return registers, nil
	}

	iter, err := regsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		regVal := iter.Value()

		nameVal := regVal.LookupPath(cue.ParsePath("name"))
		if !nameVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("registers[%d].name", i),
				Message: "register name is required",
				Pos:     regVal.Pos(),
			}
		}
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		slots := int64(vm.DefaultSlotsPerRegister)
		slotsVal := regVal.LookupPath(cue.ParsePath("slots"))
		if slotsVal.Exists() {
			if slots, err = slotsVal.Int64(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if slots < 1 {
			return nil, &CompileError{
				Field:   fmt.Sprintf("registers[%d].slots", i),
				Message: fmt.Sprintf("slot count must be at least 1, got %d", slots),
				Pos:     regVal.Pos(),
			}
		}

		registers = append(registers, ir.RegisterSpec{Name: name, Slots: int(slots)})
	}

	return registers, nil
}

// parseProgram extracts the instruction list (optional, may be empty).
func parseProgram(v cue.Value) ([]ir.InstructionSpec, error) {
	var program []ir.InstructionSpec

	progVal := v.LookupPath(cue.ParsePath("program"))
	if !progVal.Exists() {
		return program, nil
	}

	iter, err := progVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		spec, err := parseInstruction(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		program = append(program, spec)
	}

	return program, nil
}

// parseInstruction parses one program entry: the gate (pair, center,
// width), the op, and the op's operands.
func parseInstruction(v cue.Value, index int) (ir.InstructionSpec, error) {
	field := func(name string) string {
		return fmt.Sprintf("program[%d].%s", index, name)
	}

	var spec ir.InstructionSpec

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Name = name
	}

	pairVal := v.LookupPath(cue.ParsePath("pair"))
	if !pairVal.Exists() {
		return spec, &CompileError{
			Field:   field("pair"),
			Message: "phase pair is required",
			Pos:     v.Pos(),
		}
	}
	pair, err := pairVal.String()
	if err != nil {
		return spec, formatCUEError(err)
	}
	switch pair {
	case ir.PairAB, ir.PairAO, ir.PairBO:
	default:
		return spec, &CompileError{
			Field:   field("pair"),
			Message: fmt.Sprintf("unknown phase pair %q, must be \"ab\", \"ao\", or \"bo\"", pair),
			Pos:     pairVal.Pos(),
		}
	}
	spec.Pair = pair

	if spec.Center, err = requireFloat(v, "center", field("center")); err != nil {
		return spec, err
	}
	if spec.Width, err = requireFloat(v, "width", field("width")); err != nil {
		return spec, err
	}

	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return spec, &CompileError{
			Field:   field("op"),
			Message: "op is required",
			Pos:     v.Pos(),
		}
	}
	if spec.Op, err = opVal.String(); err != nil {
		return spec, formatCUEError(err)
	}

	if err := parseOperands(v, &spec, field); err != nil {
		return spec, err
	}

	destVal := v.LookupPath(cue.ParsePath("dest"))
	if destVal.Exists() {
		if spec.Dest, err = destVal.String(); err != nil {
			return spec, formatCUEError(err)
		}
	}

	return spec, nil
}

// parseOperands fills the operand slots the instruction's op requires.
func parseOperands(v cue.Value, spec *ir.InstructionSpec, field func(string) string) error {
	switch spec.Op {
	case ir.OpAdd, ir.OpMul:
		var err error
		if spec.A, err = requireFloat(v, "a", field("a")); err != nil {
			return err
		}
		if spec.B, err = requireFloat(v, "b", field("b")); err != nil {
			return err
		}

	case ir.OpHash:
		xVal := v.LookupPath(cue.ParsePath("x"))
		if !xVal.Exists() {
			return &CompileError{
				Field:   field("x"),
				Message: "hash operand x is required",
				Pos:     v.Pos(),
			}
		}
		x, err := xVal.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		spec.X = x

	case ir.OpSelect:
		valuesVal := v.LookupPath(cue.ParsePath("values"))
		if !valuesVal.Exists() {
			return &CompileError{
				Field:   field("values"),
				Message: "select requires a values list",
				Pos:     v.Pos(),
			}
		}
		iter, err := valuesVal.List()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			val, err := scalarValue(iter.Value())
			if err != nil {
				return err
			}
			spec.Values = append(spec.Values, val)
		}
		if len(spec.Values) == 0 {
			return &CompileError{
				Field:   field("values"),
				Message: "select requires at least one value",
				Pos:     valuesVal.Pos(),
			}
		}

	case ir.OpRead:
		source, err := requireString(v, "source", field("source"))
		if err != nil {
			return err
		}
		spec.Source = source

	case ir.OpWrite:
		target, err := requireString(v, "target", field("target"))
		if err != nil {
			return err
		}
		spec.Target = target

		valueVal := v.LookupPath(cue.ParsePath("value"))
		if !valueVal.Exists() {
			return &CompileError{
				Field:   field("value"),
				Message: "write requires a value",
				Pos:     v.Pos(),
			}
		}
		val, err := scalarValue(valueVal)
		if err != nil {
			return err
		}
		spec.Value = val

	case ir.OpNop:

	default:
		return &CompileError{
			Field:   field("op"),
			Message: fmt.Sprintf("unknown op %q, must be one of %s", spec.Op, strings.Join(ir.Ops, ", ")),
			Pos:     v.Pos(),
		}
	}

	return nil
}

// requireFloat reads a required numeric field.
func requireFloat(v cue.Value, path, field string) (float64, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   field,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return f, nil
}

// requireString reads a required string field.
func requireString(v cue.Value, path, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// scalarValue converts a concrete CUE scalar to an ir.Value.
func scalarValue(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(i), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Str(s), nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported value kind %v, must be a scalar", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
