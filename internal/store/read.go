package store

import (
	"context"
	"fmt"

	"github.com/phitlab/triphase/internal/ir"
)

// ReadRun retrieves a run row by token, including its compiled
// scenario. Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, scenario, alpha_hz, beta_hz, observer_hz, ticks, digest, engine_version, ir_version, created_at
		FROM runs
		WHERE id = ?
	`, id)

	var run ir.Run
	var scenarioJSON string
	if err := row.Scan(
		&run.ID, &run.Name, &scenarioJSON, &run.AlphaHz, &run.BetaHz, &run.ObserverHz,
		&run.Ticks, &run.Digest, &run.EngineVersion, &run.IRVersion, &run.CreatedAt,
	); err != nil {
		return ir.Run{}, err
	}

	scn, err := unmarshalScenario(scenarioJSON)
	if err != nil {
		return ir.Run{}, err
	}
	run.Scenario = scn

	return run, nil
}

// ReadSteps returns all steps of a run in tick order.
//
// Returns an empty slice (not nil) if the run has no steps.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]ir.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, tick, time, phase_ab, phase_ao, phase_bo, sync, executed
		FROM steps
		WHERE run_id = ?
		ORDER BY tick ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []ir.Step
	for rows.Next() {
		var st ir.Step
		if err := rows.Scan(
			&st.RunID, &st.Tick, &st.Time, &st.PhaseAB, &st.PhaseAO, &st.PhaseBO, &st.Sync, &st.Executed,
		); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}

	// Return empty slice instead of nil
	if steps == nil {
		steps = []ir.Step{}
	}

	return steps, nil
}

// ListRuns returns run metadata ordered newest first: created_at DESC,
// then id DESC (UUIDv7 tokens sort by creation time, which breaks
// same-second ties). Scenario is not populated; use ReadRun for the
// full row.
//
// Returns an empty slice (not nil) if no runs are recorded.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, alpha_hz, beta_hz, observer_hz, ticks, digest, engine_version, ir_version, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ir.Run
	for rows.Next() {
		var run ir.Run
		if err := rows.Scan(
			&run.ID, &run.Name, &run.AlphaHz, &run.BetaHz, &run.ObserverHz,
			&run.Ticks, &run.Digest, &run.EngineVersion, &run.IRVersion, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []ir.Run{}
	}

	return runs, nil
}
