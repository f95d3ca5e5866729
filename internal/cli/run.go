package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/store"
	"github.com/phitlab/triphase/internal/vm"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Ticks    int64

	// TokenGenerator allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator store.TokenGenerator
}

// RunResult is the JSON payload for a completed run.
type RunResult struct {
	Scenario string           `json:"scenario"`
	Ticks    int64            `json:"ticks"`
	Executed int              `json:"executed"`
	Syncs    int              `json:"syncs"`
	Digest   string           `json:"digest"`
	RunID    string           `json:"run_id,omitempty"`
	Trace    []map[string]any `json:"trace"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.cue>",
		Short: "Run a scenario on the phase-gated machine",
		Long: `Compile a CUE scenario and execute it on the phase-gated machine.

Each tick advances the observer clock one period, samples the phase
vector, and fires every instruction whose gate window contains its
phase pair. The trace is printed and, with --db, recorded to SQLite
for later replay.

Example:
  triphase run scenario.cue
  triphase run scenario.cue --ticks 100 --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for recording the run")
	cmd.Flags().Int64Var(&opts.Ticks, "ticks", 0, "override the scenario tick count")

	return cmd
}

func runScenario(opts *RunOptions, scenarioPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	slog.Info("compiling scenario", "path", scenarioPath)
	scn, loadErrors := LoadScenario(scenarioPath)
	if scn == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, asValidationErrors(loadErrors))
	}
	slog.Info("scenario compiled", "name", scn.Name, "instructions", len(scn.Program))

	machine, err := vm.FromScenario(scn)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("building machine: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to build machine", err)
	}

	ticks := scn.Ticks
	if opts.Ticks > 0 {
		ticks = opts.Ticks
	}

	slog.Info("running scenario", "name", scn.Name, "ticks", ticks)
	records := machine.Run(int(ticks))

	maps := vm.CanonicalMaps(records)
	digest, err := ir.RunDigest(maps)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to digest run", err)
	}

	runID := ""
	if opts.Database != "" {
		runID, err = recordRun(cmd, opts, scn, records)
		if err != nil {
			return err
		}
	}

	return outputRunResult(formatter, scn, records, maps, digest, runID, opts.Database)
}

// recordRun persists the run and its steps, returning the run token.
func recordRun(cmd *cobra.Command, opts *RunOptions, scn *ir.Scenario, records []vm.Record) (string, error) {
	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	gen := opts.TokenGenerator
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}

	run, err := store.NewRun(gen, scn, records)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to build run record", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.RecordRun(ctx, run, records); err != nil {
		return "", WrapExitError(ExitCommandError, "failed to record run", err)
	}

	slog.Info("run recorded", "run_id", run.ID)
	return run.ID, nil
}

// outputRunResult renders the trace and stats in the configured format.
func outputRunResult(formatter *OutputFormatter, scn *ir.Scenario, records []vm.Record, maps []map[string]any, digest, runID, database string) error {
	executed := 0
	syncs := 0
	for _, rec := range records {
		executed += len(rec.Executed)
		if rec.Sync {
			syncs++
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(RunResult{
			Scenario: scn.Name,
			Ticks:    int64(len(records)),
			Executed: executed,
			Syncs:    syncs,
			Digest:   digest,
			RunID:    runID,
			Trace:    maps,
		})
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Scenario %q ran %d tick(s)\n\n", scn.Name, len(records))

	fmt.Fprintln(formatter.Writer, "=== Trace ===")
	for _, rec := range records {
		marker := ""
		if rec.Sync {
			marker = " sync"
		}
		fmt.Fprintf(formatter.Writer, "[%d] t=%g ab=%g ao=%g bo=%g%s\n",
			rec.Tick, rec.Time, rec.Phases.AB, rec.Phases.AO, rec.Phases.BO, marker)
		for _, exec := range rec.Executed {
			if exec.Err != "" {
				fmt.Fprintf(formatter.Writer, "    %s(%s) error: %s\n", exec.Op, exec.Pair, exec.Err)
			} else {
				fmt.Fprintf(formatter.Writer, "    %s(%s) = %s\n", exec.Op, exec.Pair, formatExecValue(exec.Value))
			}
		}
	}
	fmt.Fprintln(formatter.Writer)

	fmt.Fprintln(formatter.Writer, "=== Stats ===")
	fmt.Fprintf(formatter.Writer, "Ticks:    %d\n", len(records))
	fmt.Fprintf(formatter.Writer, "Executed: %d\n", executed)
	fmt.Fprintf(formatter.Writer, "Syncs:    %d\n", syncs)
	fmt.Fprintf(formatter.Writer, "Digest:   %s\n", digest)

	if runID != "" {
		fmt.Fprintf(formatter.Writer, "\nRecorded run %s to %s\n", runID, database)
	}

	return nil
}

// formatExecValue renders an execution value for display.
func formatExecValue(v ir.Value) string {
	switch v.(type) {
	case nil, ir.Null:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}
