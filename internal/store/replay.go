package store

import (
	"context"
	"fmt"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// Divergence pinpoints the first mismatch between a stored trace and
// its re-execution. Tick is -1 when the mismatch is not tied to a
// single step (stored digest altered).
type Divergence struct {
	Tick     int64  `json:"tick"`
	Field    string `json:"field"`
	Stored   string `json:"stored"`
	Replayed string `json:"replayed"`
}

// ReplayResult reports the outcome of replay verification.
type ReplayResult struct {
	RunID         string      `json:"run_id"`
	Ticks         int64       `json:"ticks"`
	Deterministic bool        `json:"deterministic"`
	Divergence    *Divergence `json:"divergence,omitempty"`
}

// Replay re-executes a stored run from its compiled scenario and
// compares the fresh trace against the stored steps field by field,
// then the fresh run digest against the stored digest. The first
// mismatch is reported; a deterministic engine never produces one.
//
// Replay builds a new machine from the stored scenario, so it verifies
// the full path: scenario round-trip, machine construction, and every
// recorded step.
func (s *Store) Replay(ctx context.Context, runID string) (ReplayResult, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: read run %q: %w", runID, err)
	}

	steps, err := s.ReadSteps(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	machine, err := vm.FromScenario(run.Scenario)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: rebuild machine: %w", err)
	}

	records := machine.Run(int(run.Ticks))

	result := ReplayResult{RunID: runID, Ticks: run.Ticks, Deterministic: true}

	if int64(len(steps)) != run.Ticks {
		result.Deterministic = false
		result.Divergence = &Divergence{
			Tick:     int64(len(steps)),
			Field:    "steps",
			Stored:   fmt.Sprintf("%d rows", len(steps)),
			Replayed: fmt.Sprintf("%d expected", run.Ticks),
		}
		return result, nil
	}

	for i := range steps {
		div, err := compareStep(&steps[i], &records[i])
		if err != nil {
			return ReplayResult{}, fmt.Errorf("replay: %w", err)
		}
		if div != nil {
			result.Deterministic = false
			result.Divergence = div
			return result, nil
		}
	}

	// Step equality implies digest equality unless the stored digest
	// column itself was altered; checking it last still catches that.
	digest, err := ir.RunDigest(vm.CanonicalMaps(records))
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	if digest != run.Digest {
		result.Deterministic = false
		result.Divergence = &Divergence{
			Tick:     -1,
			Field:    "digest",
			Stored:   run.Digest,
			Replayed: digest,
		}
	}

	return result, nil
}

// compareStep checks one stored step against its re-executed record.
// Floats compare exactly: determinism means bit-identical results, and
// SQLite REAL columns round-trip IEEE-754 doubles without loss.
func compareStep(st *ir.Step, rec *vm.Record) (*Divergence, error) {
	diverged := func(field string, stored, replayed any) *Divergence {
		return &Divergence{
			Tick:     st.Tick,
			Field:    field,
			Stored:   fmt.Sprintf("%v", stored),
			Replayed: fmt.Sprintf("%v", replayed),
		}
	}

	if st.Tick != rec.Tick {
		return diverged("tick", st.Tick, rec.Tick), nil
	}
	if st.Time != rec.Time {
		return diverged("time", st.Time, rec.Time), nil
	}
	if st.PhaseAB != rec.Phases.AB {
		return diverged("phase_ab", st.PhaseAB, rec.Phases.AB), nil
	}
	if st.PhaseAO != rec.Phases.AO {
		return diverged("phase_ao", st.PhaseAO, rec.Phases.AO), nil
	}
	if st.PhaseBO != rec.Phases.BO {
		return diverged("phase_bo", st.PhaseBO, rec.Phases.BO), nil
	}
	if st.Sync != rec.Sync {
		return diverged("sync", st.Sync, rec.Sync), nil
	}

	executed, err := marshalExecuted(rec)
	if err != nil {
		return nil, err
	}
	if st.Executed != executed {
		return diverged("executed", st.Executed, executed), nil
	}

	return nil, nil
}
