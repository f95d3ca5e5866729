package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// TraceSnapshot captures a scenario run for golden comparison.
// Everything serializes through canonical JSON, so snapshots are
// stable byte for byte across runs and platforms.
type TraceSnapshot struct {
	ScenarioName string
	Records      []vm.Record
}

// toCanonicalMap renders the snapshot for ir.MarshalCanonical.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	steps := vm.CanonicalMaps(s.Records)
	trace := make([]any, len(steps))
	for i, step := range steps {
		trace[i] = step
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
}

// RunWithGolden executes a scenario and compares its trace against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails; a trace mismatch fails
// the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-executed result's trace against the
// named golden file. Useful when the result is also needed for direct
// assertions and the scenario should not run twice.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Records:      result.Records,
	}

	traceJSON, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
