package store

import (
	"context"
	"testing"
	"time"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

func TestNewRun_PopulatesMetadata(t *testing.T) {
	scn := createTestScenario("meta", 4)
	records := runTestScenario(t, scn)

	run, err := NewRun(NewFixedGenerator("run-1"), scn, records)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}

	if run.ID != "run-1" {
		t.Errorf("ID = %q, want %q", run.ID, "run-1")
	}
	if run.Name != "meta" {
		t.Errorf("Name = %q, want %q", run.Name, "meta")
	}
	if run.AlphaHz != 5 || run.BetaHz != 3 || run.ObserverHz != 1 {
		t.Errorf("clock rates = %v/%v/%v, want 5/3/1", run.AlphaHz, run.BetaHz, run.ObserverHz)
	}
	if run.Ticks != 4 {
		t.Errorf("Ticks = %d, want 4", run.Ticks)
	}
	if run.Digest == "" {
		t.Error("Digest is empty")
	}
	if run.EngineVersion != ir.EngineVersion {
		t.Errorf("EngineVersion = %q, want %q", run.EngineVersion, ir.EngineVersion)
	}
	if run.IRVersion != ir.IRVersion {
		t.Errorf("IRVersion = %q, want %q", run.IRVersion, ir.IRVersion)
	}
	if _, err := time.Parse(time.RFC3339, run.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q is not RFC 3339: %v", run.CreatedAt, err)
	}
}

func TestNewRun_DigestMatchesRecords(t *testing.T) {
	scn := createTestScenario("digest", 3)
	records := runTestScenario(t, scn)

	run, err := NewRun(NewFixedGenerator("run-1"), scn, records)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}

	want := ir.MustRunDigest(vm.CanonicalMaps(records))
	if run.Digest != want {
		t.Errorf("Digest = %q, want %q", run.Digest, want)
	}
}

func TestNewRun_DigestStableAcrossRuns(t *testing.T) {
	scn := createTestScenario("stable", 5)

	run1, err := NewRun(NewFixedGenerator("run-a"), scn, runTestScenario(t, scn))
	if err != nil {
		t.Fatalf("first NewRun() failed: %v", err)
	}
	run2, err := NewRun(NewFixedGenerator("run-b"), scn, runTestScenario(t, scn))
	if err != nil {
		t.Fatalf("second NewRun() failed: %v", err)
	}

	// Same scenario, same simulation, different token: digests agree.
	if run1.Digest != run2.Digest {
		t.Errorf("digests differ across identical runs: %q vs %q", run1.Digest, run2.Digest)
	}
}

func TestRecordRun_Basic(t *testing.T) {
	s := createTestStore(t)

	scn := createTestScenario("basic", 3)
	run, records := recordTestRun(t, s, "run-1", scn)

	var (
		gotName      string
		gotScenario  string
		gotAlpha     float64
		gotTicks     int64
		gotDigest    string
		gotCreatedAt string
	)
	err := s.db.QueryRow(`
		SELECT name, scenario, alpha_hz, ticks, digest, created_at
		FROM runs WHERE id = ?
	`, run.ID).Scan(&gotName, &gotScenario, &gotAlpha, &gotTicks, &gotDigest, &gotCreatedAt)
	if err != nil {
		t.Fatalf("query run row failed: %v", err)
	}

	if gotName != "basic" {
		t.Errorf("name = %q, want %q", gotName, "basic")
	}
	wantScenario, err := marshalScenario(scn)
	if err != nil {
		t.Fatalf("marshalScenario() failed: %v", err)
	}
	if gotScenario != wantScenario {
		t.Errorf("scenario column = %q, want %q", gotScenario, wantScenario)
	}
	if gotAlpha != 5 {
		t.Errorf("alpha_hz = %v, want 5", gotAlpha)
	}
	if gotTicks != 3 {
		t.Errorf("ticks = %d, want 3", gotTicks)
	}
	if gotDigest != run.Digest {
		t.Errorf("digest = %q, want %q", gotDigest, run.Digest)
	}
	if gotCreatedAt != run.CreatedAt {
		t.Errorf("created_at = %q, want %q", gotCreatedAt, run.CreatedAt)
	}

	var stepCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM steps WHERE run_id = ?", run.ID).Scan(&stepCount); err != nil {
		t.Fatalf("count steps failed: %v", err)
	}
	if stepCount != len(records) {
		t.Errorf("step count = %d, want %d", stepCount, len(records))
	}
}

func TestRecordRun_Idempotent(t *testing.T) {
	s := createTestStore(t)

	scn := createTestScenario("idem", 4)
	records := runTestScenario(t, scn)

	run, err := NewRun(NewFixedGenerator("run-1"), scn, records)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}

	// Record the same run twice
	if err := s.RecordRun(context.Background(), run, records); err != nil {
		t.Fatalf("first RecordRun() failed: %v", err)
	}
	if err := s.RecordRun(context.Background(), run, records); err != nil {
		t.Fatalf("second RecordRun() failed: %v", err)
	}

	var runCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = ?", run.ID).Scan(&runCount); err != nil {
		t.Fatalf("count runs failed: %v", err)
	}
	if runCount != 1 {
		t.Errorf("run count = %d, want 1", runCount)
	}

	var stepCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM steps WHERE run_id = ?", run.ID).Scan(&stepCount); err != nil {
		t.Fatalf("count steps failed: %v", err)
	}
	if stepCount != len(records) {
		t.Errorf("step count = %d, want %d", stepCount, len(records))
	}
}

func TestRecordRun_StepRow(t *testing.T) {
	s := createTestStore(t)

	run, _ := recordTestRun(t, s, "run-1", createTestScenario("steprow", 2))

	var (
		gotTime     float64
		gotAB       float64
		gotAO       float64
		gotBO       float64
		gotSync     bool
		gotExecuted string
	)
	err := s.db.QueryRow(`
		SELECT time, phase_ab, phase_ao, phase_bo, sync, executed
		FROM steps WHERE run_id = ? AND tick = 0
	`, run.ID).Scan(&gotTime, &gotAB, &gotAO, &gotBO, &gotSync, &gotExecuted)
	if err != nil {
		t.Fatalf("query step row failed: %v", err)
	}

	// With the 5:3:1 preset the first step lands at t=1.0 with all
	// phases exactly zero and the add firing unperturbed.
	if gotTime != 1.0 {
		t.Errorf("time = %v, want 1.0", gotTime)
	}
	if gotAB != 0 || gotAO != 0 || gotBO != 0 {
		t.Errorf("phases = %v/%v/%v, want 0/0/0", gotAB, gotAO, gotBO)
	}
	if !gotSync {
		t.Error("sync = false, want true")
	}
	wantExecuted := `[{"op":"sum","pair":"ab","value":150.0}]`
	if gotExecuted != wantExecuted {
		t.Errorf("executed = %s, want %s", gotExecuted, wantExecuted)
	}
}

func TestRecordRun_EmptyRun(t *testing.T) {
	s := createTestStore(t)

	run, records := recordTestRun(t, s, "run-empty", createTestScenario("empty", 0))

	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}

	var ticks int64
	if err := s.db.QueryRow("SELECT ticks FROM runs WHERE id = ?", run.ID).Scan(&ticks); err != nil {
		t.Fatalf("query run failed: %v", err)
	}
	if ticks != 0 {
		t.Errorf("ticks = %d, want 0", ticks)
	}

	var stepCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM steps WHERE run_id = ?", run.ID).Scan(&stepCount); err != nil {
		t.Fatalf("count steps failed: %v", err)
	}
	if stepCount != 0 {
		t.Errorf("step count = %d, want 0", stepCount)
	}
}
