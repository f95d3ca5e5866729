// Package harness provides conformance testing for triphase scenarios.
//
// The harness compiles a CUE scenario, runs it on a fresh machine, and
// validates the resulting step trace with declarative assertions and
// golden snapshots.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	spec: specs/scenario.cue
//	ticks: 8
//	assertions:
//	  - type: op_fired
//	    op: sum
//	    tick: 0
//	  - type: op_count
//	    op: sum
//	    count: 4
//	  - type: sync_count
//	    count: 1
//	  - type: register_slot
//	    register: acc
//	    slot: 2
//	    value: 42
//	  - type: final_time
//	    seconds: 4.0
//	    within: 0.0
//
// The ticks field is optional and overrides the tick count compiled
// into the CUE spec. A scenario with no assertions is valid; such
// scenarios are verified through golden comparison alone.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - op_fired: the named op executed successfully, optionally at one tick
//   - op_count: the named op executed successfully exactly N times
//   - sync_count: exactly N steps were sync points
//   - register_slot: a register slot holds the given value after the run
//   - final_time: simulated time ended at the given value, within a tolerance
//
// Op assertions count successful executions only; an execution that
// recorded an error does not fire.
//
// # Deterministic Testing
//
// A scenario's trace is a pure function of its spec and tick count:
// clock phase is computed from absolute time, the machine is
// single-stepped, and all arithmetic is plain float64. Identical
// scenarios therefore produce byte-identical canonical traces, which
// is what makes golden comparison possible.
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/gating.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Failures {
//	        log.Println(msg)
//	    }
//	}
//
// Or compare against a golden trace inside a test:
//
//	if err := harness.RunWithGolden(t, scenario); err != nil {
//	    t.Fatal(err)
//	}
package harness
