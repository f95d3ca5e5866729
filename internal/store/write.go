package store

import (
	"context"
	"fmt"
	"time"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/vm"
)

// NewRun assembles the run row for a completed simulation: a token from
// the generator, clock rates from the compiled scenario, and the run
// digest over the canonical step maps.
//
// CreatedAt is wall time of recording only; nothing in the simulation
// or in replay comparison reads it.
func NewRun(gen TokenGenerator, scn *ir.Scenario, records []vm.Record) (ir.Run, error) {
	digest, err := ir.RunDigest(vm.CanonicalMaps(records))
	if err != nil {
		return ir.Run{}, fmt.Errorf("new run: %w", err)
	}

	return ir.Run{
		ID:            gen.Generate(),
		Name:          scn.Name,
		Scenario:      scn,
		AlphaHz:       scn.Clocks.Alpha.Hz,
		BetaHz:        scn.Clocks.Beta.Hz,
		ObserverHz:    scn.Clocks.Observer.Hz,
		Ticks:         int64(len(records)),
		Digest:        digest,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// RecordRun persists a run and its steps in a single transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same run
// token twice is silently ignored, and steps are keyed (run_id, tick)
// so partial rewrites cannot duplicate rows.
func (s *Store) RecordRun(ctx context.Context, run ir.Run, records []vm.Record) error {
	scenarioJSON, err := marshalScenario(run.Scenario)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, name, scenario, alpha_hz, beta_hz, observer_hz, ticks, digest, engine_version, ir_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Name,
		scenarioJSON,
		run.AlphaHz,
		run.BetaHz,
		run.ObserverHz,
		run.Ticks,
		run.Digest,
		run.EngineVersion,
		run.IRVersion,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record run: insert run: %w", err)
	}

	for i := range records {
		rec := &records[i]

		executedJSON, err := marshalExecuted(rec)
		if err != nil {
			return fmt.Errorf("record run: step %d: %w", rec.Tick, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO steps
			(run_id, tick, time, phase_ab, phase_ao, phase_bo, sync, executed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, tick) DO NOTHING
		`,
			run.ID,
			rec.Tick,
			rec.Time,
			rec.Phases.AB,
			rec.Phases.AO,
			rec.Phases.BO,
			rec.Sync,
			executedJSON,
		)
		if err != nil {
			return fmt.Errorf("record run: insert step %d: %w", rec.Tick, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}

	return nil
}
