package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// AssertionError is returned when an assertion fails.
// It carries the executed-op trace so the failure can be read without
// re-running the scenario.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Records  []vm.Record // Step trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nExecuted ops:\n")
	for _, rec := range e.Records {
		for _, exec := range rec.Executed {
			if exec.Err != "" {
				fmt.Fprintf(&buf, "  [%d] %s(%s) error: %s\n", rec.Tick, exec.Op, exec.Pair, exec.Err)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s(%s) = %s\n", rec.Tick, exec.Op, exec.Pair, formatValue(exec.Value))
			}
		}
	}

	return buf.String()
}

// assertOpFired checks that the op executed successfully, at the given
// tick when one is specified.
func assertOpFired(records []vm.Record, assertion Assertion) error {
	var firedAt []int64
	for _, rec := range records {
		for _, exec := range rec.Executed {
			if exec.Op == assertion.Op && exec.Err == "" {
				firedAt = append(firedAt, rec.Tick)
			}
		}
	}

	actual := "never fired"
	if len(firedAt) > 0 {
		actual = fmt.Sprintf("fired at ticks %v", firedAt)
	}

	if assertion.Tick == nil {
		if len(firedAt) > 0 {
			return nil
		}
		return &AssertionError{
			Type:     AssertOpFired,
			Expected: fmt.Sprintf("op %q fired at least once", assertion.Op),
			Actual:   actual,
			Records:  records,
		}
	}

	for _, tick := range firedAt {
		if tick == *assertion.Tick {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertOpFired,
		Expected: fmt.Sprintf("op %q fired at tick %d", assertion.Op, *assertion.Tick),
		Actual:   actual,
		Records:  records,
	}
}

// assertOpCount checks that the op executed successfully exactly the
// specified number of times.
func assertOpCount(records []vm.Record, assertion Assertion) error {
	count := countFirings(records, assertion.Op)
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertOpCount,
			Expected: fmt.Sprintf("%d firings of %q", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d firings", count),
			Records:  records,
		}
	}
	return nil
}

// countFirings counts successful executions of the named op.
// Executions that recorded an error do not count.
func countFirings(records []vm.Record, op string) int {
	count := 0
	for _, rec := range records {
		for _, exec := range rec.Executed {
			if exec.Op == op && exec.Err == "" {
				count++
			}
		}
	}
	return count
}

// assertSyncCount checks how many steps were sync points.
func assertSyncCount(records []vm.Record, assertion Assertion) error {
	count := 0
	for _, rec := range records {
		if rec.Sync {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertSyncCount,
			Expected: fmt.Sprintf("%d sync steps", assertion.Count),
			Actual:   fmt.Sprintf("%d sync steps", count),
			Records:  records,
		}
	}
	return nil
}

// assertRegisterSlot checks one register cell of the final machine
// state, addressing the slot by index rather than by phase.
func assertRegisterSlot(m *vm.Machine, records []vm.Record, assertion Assertion) error {
	reg, ok := m.Register(assertion.Register)
	if !ok {
		return &AssertionError{
			Type:     AssertRegisterSlot,
			Expected: fmt.Sprintf("register %q to exist", assertion.Register),
			Actual:   fmt.Sprintf("machine has registers %v", m.RegisterNames()),
			Records:  records,
		}
	}

	if assertion.Slot >= reg.NumSlots() {
		return &AssertionError{
			Type:     AssertRegisterSlot,
			Expected: fmt.Sprintf("slot %d in register %q", assertion.Slot, assertion.Register),
			Actual:   fmt.Sprintf("register has %d slots", reg.NumSlots()),
			Records:  records,
		}
	}

	expected, err := ir.FromAny(assertion.Value)
	if err != nil {
		return fmt.Errorf("register_slot assertion: %w", err)
	}

	actual := reg.Slots()[assertion.Slot].Value
	if !valuesEqual(expected, actual) {
		return &AssertionError{
			Type:     AssertRegisterSlot,
			Expected: fmt.Sprintf("%s[%d] = %s", assertion.Register, assertion.Slot, formatValue(expected)),
			Actual:   fmt.Sprintf("%s[%d] = %s", assertion.Register, assertion.Slot, formatValue(actual)),
			Records:  records,
		}
	}
	return nil
}

// assertFinalTime checks the machine's simulated time after the run.
// Within widens the comparison to a closed interval around Seconds; a
// zero Within demands exact equality.
func assertFinalTime(m *vm.Machine, records []vm.Record, assertion Assertion) error {
	actual := m.Time()
	if math.Abs(actual-assertion.Seconds) <= assertion.Within {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalTime,
		Expected: fmt.Sprintf("final time %v within %v", assertion.Seconds, assertion.Within),
		Actual:   fmt.Sprintf("final time %v", actual),
		Records:  records,
	}
}

// valuesEqual compares an expected value against a machine value.
// Numbers compare numerically, so an expected Int 150 matches a stored
// Float 150.0; every other variant compares exactly.
func valuesEqual(expected, actual ir.Value) bool {
	if en, ok := ir.Numeric(expected); ok {
		an, aok := ir.Numeric(actual)
		return aok && en == an
	}
	return expected == actual
}

// formatValue renders a value for assertion messages.
func formatValue(v ir.Value) string {
	switch v.(type) {
	case nil, ir.Null:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// AssertionContext provides the final machine state for assertions
// that reach past the trace.
type AssertionContext struct {
	Machine *vm.Machine
}

// EvaluateAssertions evaluates all assertions against the trace.
// Returns one message per failed assertion. The actx parameter
// provides machine access for register_slot and final_time assertions.
func EvaluateAssertions(records []vm.Record, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOpFired:
			err = assertOpFired(records, assertion)
		case AssertOpCount:
			err = assertOpCount(records, assertion)
		case AssertSyncCount:
			err = assertSyncCount(records, assertion)
		case AssertRegisterSlot:
			if actx == nil || actx.Machine == nil {
				err = fmt.Errorf("assertion[%d]: register_slot requires machine context", i)
			} else {
				err = assertRegisterSlot(actx.Machine, records, assertion)
			}
		case AssertFinalTime:
			if actx == nil || actx.Machine == nil {
				err = fmt.Errorf("assertion[%d]: final_time requires machine context", i)
			} else {
				err = assertFinalTime(actx.Machine, records, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
