package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Op       string // optional - filter to a specific op
}

// TraceStep represents a single step in the trace timeline.
type TraceStep struct {
	Tick     int64            `json:"tick"`
	Time     float64          `json:"time"`
	PhaseAB  float64          `json:"phase_ab"`
	PhaseAO  float64          `json:"phase_ao"`
	PhaseBO  float64          `json:"phase_bo"`
	Sync     bool             `json:"sync"`
	Executed []map[string]any `json:"executed"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      ir.Run      `json:"run"`
	Timeline []TraceStep `json:"timeline"`
	Stats    TraceStats  `json:"stats"`
}

// TraceStats holds summary statistics for the run.
type TraceStats struct {
	Ticks    int64          `json:"ticks"`
	Executed int            `json:"executed"`
	Syncs    int            `json:"syncs"`
	OpCounts map[string]int `json:"op_counts,omitempty"`
	Digest   string         `json:"digest"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded timeline for a run",
		Long: `Show the recorded timeline for a run.

Prints every stored step: tick, simulated time, the phase vector, sync
state, and the ops that fired with their results.

The output includes:
- Timeline: Chronological list of steps and executions
- Stats: Summary statistics and the run digest

Examples:
  triphase trace --db ./runs.db --run 0198aaf0-59c5-7000-8000-9e10c54f22ab
  triphase trace --db ./runs.db --run 0198aaf0-59c5-7000-8000-9e10c54f22ab --op sum
  triphase trace --db ./runs.db --run 0198aaf0-59c5-7000-8000-9e10c54f22ab --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run token to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Op, "op", "", "filter timeline to a specific op")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	steps, err := st.ReadSteps(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}

	timeline, stats, err := buildTimeline(run, steps, opts.Op)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode steps", err)
	}

	result := TraceResult{
		Run:      run,
		Timeline: timeline,
		Stats:    stats,
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}

	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTimeline converts stored steps to trace steps and computes stats.
// When opFilter is set, only steps where that op fired are included and
// their executed lists are narrowed to it. Stats always describe the
// full run.
func buildTimeline(run ir.Run, steps []ir.Step, opFilter string) ([]TraceStep, TraceStats, error) {
	stats := TraceStats{
		Ticks:    run.Ticks,
		OpCounts: make(map[string]int),
		Digest:   run.Digest,
	}

	var timeline []TraceStep
	for _, step := range steps {
		var executed []map[string]any
		if step.Executed != "" {
			if err := json.Unmarshal([]byte(step.Executed), &executed); err != nil {
				return nil, TraceStats{}, fmt.Errorf("step %d: %w", step.Tick, err)
			}
		}

		stats.Executed += len(executed)
		if step.Sync {
			stats.Syncs++
		}
		for _, entry := range executed {
			if op, ok := entry["op"].(string); ok {
				stats.OpCounts[op]++
			}
		}

		if opFilter != "" {
			var matched []map[string]any
			for _, entry := range executed {
				if op, _ := entry["op"].(string); op == opFilter {
					matched = append(matched, entry)
				}
			}
			if len(matched) == 0 {
				continue
			}
			executed = matched
		}

		timeline = append(timeline, TraceStep{
			Tick:     step.Tick,
			Time:     step.Time,
			PhaseAB:  step.PhaseAB,
			PhaseAO:  step.PhaseAO,
			PhaseBO:  step.PhaseBO,
			Sync:     step.Sync,
			Executed: executed,
		})
	}

	if len(stats.OpCounts) == 0 {
		stats.OpCounts = nil
	}

	return timeline, stats, nil
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Run: %s\n", truncateID(result.Run.ID))
	fmt.Fprintf(w, "Scenario: %s\n", result.Run.Name)
	fmt.Fprintf(w, "Clocks: alpha=%g Hz, beta=%g Hz, observer=%g Hz\n",
		result.Run.AlphaHz, result.Run.BetaHz, result.Run.ObserverHz)
	if verbose {
		fmt.Fprintf(w, "Engine: %s, IR: %s\n", result.Run.EngineVersion, result.Run.IRVersion)
		fmt.Fprintf(w, "Created: %s\n", result.Run.CreatedAt)
	}
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no steps)")
	} else {
		for _, step := range result.Timeline {
			formatTimelineStep(w, step)
		}
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Ticks:    %d\n", result.Stats.Ticks)
	fmt.Fprintf(w, "  Executed: %d\n", result.Stats.Executed)
	fmt.Fprintf(w, "  Syncs:    %d\n", result.Stats.Syncs)
	if len(result.Stats.OpCounts) > 0 {
		fmt.Fprintf(w, "  Ops:      %s\n", formatArgs(opCountArgs(result.Stats.OpCounts)))
	}
	fmt.Fprintf(w, "  Digest:   %s\n", truncateID(result.Stats.Digest))

	return nil
}

// formatTimelineStep formats a single timeline step for text output.
func formatTimelineStep(w interface{ Write([]byte) (int, error) }, step TraceStep) {
	marker := ""
	if step.Sync {
		marker = " sync"
	}
	fmt.Fprintf(w, "  [%d] t=%g ab=%g ao=%g bo=%g%s\n",
		step.Tick, step.Time, step.PhaseAB, step.PhaseAO, step.PhaseBO, marker)
	for _, entry := range step.Executed {
		op, _ := entry["op"].(string)
		pair, _ := entry["pair"].(string)
		if errMsg, ok := entry["error"].(string); ok {
			fmt.Fprintf(w, "      %s(%s) error: %s\n", op, pair, errMsg)
		} else {
			fmt.Fprintf(w, "      %s(%s) = %s\n", op, pair, formatValue(entry["value"]))
		}
	}
}

// opCountArgs widens an op count map for formatArgs.
func opCountArgs(counts map[string]int) map[string]interface{} {
	args := make(map[string]interface{}, len(counts))
	for k, v := range counts {
		args[k] = v
	}
	return args
}

// formatArgs formats a map for display.
// Uses sorted keys to ensure deterministic output.
func formatArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return "{}"
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatValue formats a single value for display, handling nested structures deterministically.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return formatArgs(val)
	case []interface{}:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
