package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// Validation error codes (E101-E199)
const (
	ErrScenarioNameEmpty  = "E101" // scenario name is required
	ErrInvalidFrequency   = "E102" // clock frequency outside domain
	ErrInvalidRegister    = "E103" // register name/slot count invalid
	ErrDuplicateRegister  = "E104" // duplicate register name
	ErrInvalidPair        = "E105" // unknown phase pair
	ErrInvalidWindow      = "E106" // gate center/width outside range
	ErrUnknownOp          = "E107" // op outside the vocabulary
	ErrMissingOperand     = "E108" // op-specific operand missing
	ErrUnknownRegisterRef = "E109" // reference to an undeclared register
	ErrInvalidTicks       = "E110" // negative tick count
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled scenario against schema rules.
// Returns all errors found (does not fail-fast).
//
// Compilation already rejects malformed input; Validate re-checks the
// semantic rules on the IR itself so scenarios built in code get the
// same guarantees as compiled ones.
func Validate(scn *ir.Scenario) []ValidationError {
	var errs []ValidationError

	// E101: scenario name is required
	if strings.TrimSpace(scn.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "scenario name is required and must be non-empty",
			Code:    ErrScenarioNameEmpty,
		})
	}

	errs = append(errs, validateClocks(scn.Clocks)...)

	// Track the registers instructions may reference: the declared
	// layout, or the machine's default bank when none is declared.
	registers := make(map[string]bool)
	if len(scn.Registers) == 0 {
		for i := 0; i < vm.DefaultRegisterCount; i++ {
			registers[fmt.Sprintf("r%d", i)] = true
		}
	}

	for i, reg := range scn.Registers {
		// E103: register shape
		if strings.TrimSpace(reg.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("registers[%d].name", i),
				Message: "register name is required and must be non-empty",
				Code:    ErrInvalidRegister,
			})
		}
		if reg.Slots < 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("registers[%d].slots", i),
				Message: fmt.Sprintf("register %q needs at least one slot, got %d", reg.Name, reg.Slots),
				Code:    ErrInvalidRegister,
			})
		}

		// E104: duplicate register name
		if registers[reg.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("registers[%d].name", i),
				Message: fmt.Sprintf("duplicate register name: %q", reg.Name),
				Code:    ErrDuplicateRegister,
			})
		}
		registers[reg.Name] = true
	}

	for i, instr := range scn.Program {
		errs = append(errs, validateInstruction(i, instr, registers)...)
	}

	// E110: tick count must not be negative
	if scn.Ticks < 0 {
		errs = append(errs, ValidationError{
			Field:   "ticks",
			Message: fmt.Sprintf("tick count must not be negative, got %d", scn.Ticks),
			Code:    ErrInvalidTicks,
		})
	}

	return errs
}

// validateClocks checks every clock frequency is positive and finite.
func validateClocks(set ir.ClockSet) []ValidationError {
	var errs []ValidationError

	clocks := []struct {
		label string
		spec  ir.ClockSpec
	}{
		{"alpha", set.Alpha},
		{"beta", set.Beta},
		{"observer", set.Observer},
	}

	for _, c := range clocks {
		if math.IsNaN(c.spec.Hz) || math.IsInf(c.spec.Hz, 0) || c.spec.Hz <= 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("clocks.%s.hz", c.label),
				Message: fmt.Sprintf("clock frequency must be positive and finite, got %v", c.spec.Hz),
				Code:    ErrInvalidFrequency,
			})
		}
	}

	return errs
}

// validateInstruction checks one program entry: gate window, op
// vocabulary, and register references.
func validateInstruction(i int, instr ir.InstructionSpec, registers map[string]bool) []ValidationError {
	var errs []ValidationError

	// E105: pair vocabulary
	switch instr.Pair {
	case ir.PairAB, ir.PairAO, ir.PairBO:
	default:
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("program[%d].pair", i),
			Message: fmt.Sprintf("unknown phase pair %q, must be \"ab\", \"ao\", or \"bo\"", instr.Pair),
			Code:    ErrInvalidPair,
		})
	}

	// E106: gate window ranges
	if math.IsNaN(instr.Center) || instr.Center < 0 || instr.Center >= 1 {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("program[%d].center", i),
			Message: fmt.Sprintf("window center must be in [0, 1), got %v", instr.Center),
			Code:    ErrInvalidWindow,
		})
	}
	if math.IsNaN(instr.Width) || math.IsInf(instr.Width, 0) || instr.Width < 0 {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("program[%d].width", i),
			Message: fmt.Sprintf("window width must not be negative, got %v", instr.Width),
			Code:    ErrInvalidWindow,
		})
	}

	// E107/E108: op vocabulary and representable operands
	switch instr.Op {
	case ir.OpAdd, ir.OpMul, ir.OpHash, ir.OpNop:

	case ir.OpSelect:
		if len(instr.Values) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("program[%d].values", i),
				Message: "select requires at least one value",
				Code:    ErrMissingOperand,
			})
		}

	case ir.OpRead:
		if instr.Source == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("program[%d].source", i),
				Message: "read requires a source register",
				Code:    ErrMissingOperand,
			})
		} else if !registers[instr.Source] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("program[%d].source", i),
				Message: fmt.Sprintf("unknown register %q", instr.Source),
				Code:    ErrUnknownRegisterRef,
			})
		}

	case ir.OpWrite:
		if instr.Target == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("program[%d].target", i),
				Message: "write requires a target register",
				Code:    ErrMissingOperand,
			})
		} else if !registers[instr.Target] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("program[%d].target", i),
				Message: fmt.Sprintf("unknown register %q", instr.Target),
				Code:    ErrUnknownRegisterRef,
			})
		}
		if instr.Value == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("program[%d].value", i),
				Message: "write requires a value",
				Code:    ErrMissingOperand,
			})
		}

	default:
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("program[%d].op", i),
			Message: fmt.Sprintf("unknown op %q", instr.Op),
			Code:    ErrUnknownOp,
		})
	}

	// E109: result write-back must land in a declared register
	if instr.Dest != "" && !registers[instr.Dest] {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("program[%d].dest", i),
			Message: fmt.Sprintf("unknown register %q", instr.Dest),
			Code:    ErrUnknownRegisterRef,
		})
	}

	return errs
}
