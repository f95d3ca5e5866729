package harness

import (
	"fmt"
	"strings"

	"github.com/phitlab/triphase/internal/compiler"
	"github.com/phitlab/triphase/internal/vm"
)

// Run executes a scenario: compile its CUE spec, build a machine, run
// the tick count, and evaluate the assertions against the trace and
// the final machine state.
//
// Each run builds a fresh machine, so scenarios are isolated and the
// trace depends only on the spec and the tick count. Compile and
// validation failures are errors; assertion failures are reported in
// the Result.
func Run(scenario *Scenario) (*Result, error) {
	scn, err := compiler.CompileFile(scenario.Spec)
	if err != nil {
		return nil, fmt.Errorf("compile spec: %w", err)
	}

	if verrs := compiler.Validate(scn); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return nil, fmt.Errorf("invalid spec %s: %s", scenario.Spec, strings.Join(msgs, "; "))
	}

	machine, err := vm.FromScenario(scn)
	if err != nil {
		return nil, fmt.Errorf("build machine: %w", err)
	}

	ticks := scn.Ticks
	if scenario.Ticks > 0 {
		ticks = scenario.Ticks
	}

	records := machine.Run(int(ticks))

	result := NewResult(records)
	actx := &AssertionContext{Machine: machine}
	for _, msg := range EvaluateAssertions(records, scenario.Assertions, actx) {
		result.AddFailure(msg)
	}

	return result, nil
}
