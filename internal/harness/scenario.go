package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a CUE spec to compile
// and run, plus assertions over the resulting trace and final machine
// state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is the path to the CUE scenario file to compile.
	// Relative paths can be resolved against a base directory with
	// LoadScenarioWithBasePath.
	Spec string `yaml:"spec"`

	// Ticks overrides the compiled scenario's tick count when positive.
	Ticks int64 `yaml:"ticks,omitempty"`

	// Assertions validate the trace and the final machine state.
	// A golden-only scenario may omit them; the snapshot is the check.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates the trace or the final machine state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "op_fired": the op executed successfully (optionally at one tick)
	// - "op_count": the op executed successfully exactly Count times
	// - "sync_count": exactly Count steps were sync points
	// - "register_slot": a register slot holds Value after the run
	// - "final_time": simulated time ended at Seconds, within Within
	Type string `yaml:"type"`

	// Op is the executed-op name (used by op_fired, op_count).
	Op string `yaml:"op,omitempty"`

	// Tick restricts op_fired to a single step. Nil means any step.
	Tick *int64 `yaml:"tick,omitempty"`

	// Count is the expected occurrence count (op_count, sync_count).
	Count int `yaml:"count,omitempty"`

	// Register and Slot address one cell (register_slot).
	Register string `yaml:"register,omitempty"`
	Slot     int    `yaml:"slot,omitempty"`

	// Value is the expected cell payload (register_slot). Numbers
	// compare numerically, so an expected 150 matches a stored 150.0.
	Value interface{} `yaml:"value,omitempty"`

	// Seconds and Within bound the final simulated time (final_time).
	// A zero Within demands exact equality.
	Seconds float64 `yaml:"seconds,omitempty"`
	Within  float64 `yaml:"within,omitempty"`
}

// Assertion type constants.
const (
	AssertOpFired      = "op_fired"
	AssertOpCount      = "op_count"
	AssertSyncCount    = "sync_count"
	AssertRegisterSlot = "register_slot"
	AssertFinalTime    = "final_time"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative spec path against the provided base path. This
// lets scenario files reference their CUE spec by a short relative
// path regardless of where the test process runs.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the spec path BEFORE validation so the existence check
	// sees the final path.
	if scenario.Spec != "" && !filepath.IsAbs(scenario.Spec) && basePath != "" {
		scenario.Spec = filepath.Join(basePath, scenario.Spec)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}

	if s.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", s.Ticks)
	}

	if _, err := os.Stat(s.Spec); os.IsNotExist(err) {
		return fmt.Errorf("spec file not found: %s", s.Spec)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOpFired:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for op_fired", index)
		}
		if a.Tick != nil && *a.Tick < 0 {
			return fmt.Errorf("assertions[%d]: tick must be non-negative for op_fired", index)
		}
	case AssertOpCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for op_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for op_count", index)
		}
	case AssertSyncCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for sync_count", index)
		}
	case AssertRegisterSlot:
		if a.Register == "" {
			return fmt.Errorf("assertions[%d]: register is required for register_slot", index)
		}
		if a.Slot < 0 {
			return fmt.Errorf("assertions[%d]: slot must be non-negative for register_slot", index)
		}
	case AssertFinalTime:
		if a.Seconds < 0 {
			return fmt.Errorf("assertions[%d]: seconds must be non-negative for final_time", index)
		}
		if a.Within < 0 {
			return fmt.Errorf("assertions[%d]: within must be non-negative for final_time", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
