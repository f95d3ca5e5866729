package store

import (
	"encoding/json"
	"fmt"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// marshalScenario converts a compiled scenario to canonical JSON TEXT
// for storage. Canonical bytes make the column directly comparable.
func marshalScenario(scn *ir.Scenario) (string, error) {
	data, err := ir.MarshalCanonicalScenario(scn)
	if err != nil {
		return "", fmt.Errorf("marshal scenario: %w", err)
	}
	return string(data), nil
}

// unmarshalScenario parses canonical JSON TEXT back into a scenario.
// InstructionSpec's UnmarshalJSON restores the typed operand values.
func unmarshalScenario(data string) (*ir.Scenario, error) {
	var scn ir.Scenario
	if err := json.Unmarshal([]byte(data), &scn); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}
	return &scn, nil
}

// marshalExecuted renders a record's executed-op list as canonical JSON
// TEXT. This is the byte form replay compares against.
func marshalExecuted(rec *vm.Record) (string, error) {
	data, err := ir.MarshalCanonical(rec.CanonicalMap()["executed"])
	if err != nil {
		return "", fmt.Errorf("marshal executed: %w", err)
	}
	return string(data), nil
}
