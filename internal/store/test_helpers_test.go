package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// createTestStore creates a new temp-file store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestScenario builds a small deterministic scenario. With the
// 5:3:1 preset every step lands on an integer instant, so phases are
// exactly zero, every step is a sync point, and the gated add yields
// exactly 150.
func createTestScenario(name string, ticks int64) *ir.Scenario {
	return &ir.Scenario{
		Name: name,
		Clocks: ir.ClockSet{
			Alpha:    ir.ClockSpec{Name: "Alpha", Hz: 5},
			Beta:     ir.ClockSpec{Name: "Beta", Hz: 3},
			Observer: ir.ClockSpec{Name: "Observer", Hz: 1},
		},
		Program: []ir.InstructionSpec{
			{Name: "sum", Pair: ir.PairAB, Center: 0, Width: 1, Op: ir.OpAdd, A: 100, B: 50},
		},
		Ticks: ticks,
	}
}

// runTestScenario builds the machine from IR and executes the
// scenario's tick count.
func runTestScenario(t *testing.T, scn *ir.Scenario) []vm.Record {
	t.Helper()
	m, err := vm.FromScenario(scn)
	if err != nil {
		t.Fatalf("FromScenario() failed: %v", err)
	}
	return m.Run(int(scn.Ticks))
}

// recordTestRun runs the scenario and persists it under a fixed token.
func recordTestRun(t *testing.T, s *Store, token string, scn *ir.Scenario) (ir.Run, []vm.Record) {
	t.Helper()

	records := runTestScenario(t, scn)
	run, err := NewRun(NewFixedGenerator(token), scn, records)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	if err := s.RecordRun(context.Background(), run, records); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	return run, records
}
