package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phitlab/triphase/internal/phase"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Alpha      float64
	Beta       float64
	Observer   float64
	From       float64
	To         float64
	Threshold  float64
	Resolution int
}

// SyncResult is the JSON payload for a sync point scan.
type SyncResult struct {
	AlphaHz    float64   `json:"alpha_hz"`
	BetaHz     float64   `json:"beta_hz"`
	ObserverHz float64   `json:"observer_hz"`
	From       float64   `json:"from"`
	To         float64   `json:"to"`
	Threshold  float64   `json:"threshold"`
	BeatHz     float64   `json:"beat_hz"`
	Points     []float64 `json:"points"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Scan a clock system for sync points",
		Long: `Scan a three-clock system for sync points: instants where the
alpha-beta relative phase sits within the threshold of zero.

The window [from, to) is sampled at the given resolution and each
aligned sample is reported, along with the alpha-beta beat frequency
that sets how often the pair realigns.

Example:
  triphase sync --alpha 5 --beta 3
  triphase sync --alpha 1.03125 --beta 1 --to 64 --threshold 0.02`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Alpha, "alpha", 5, "alpha clock frequency in Hz")
	cmd.Flags().Float64Var(&opts.Beta, "beta", 3, "beta clock frequency in Hz")
	cmd.Flags().Float64Var(&opts.Observer, "observer", 1, "observer clock frequency in Hz")
	cmd.Flags().Float64Var(&opts.From, "from", 0, "window start in seconds")
	cmd.Flags().Float64Var(&opts.To, "to", 10, "window end in seconds")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", phase.DefaultSyncThreshold, "max phase distance from zero")
	cmd.Flags().IntVar(&opts.Resolution, "resolution", phase.DefaultSyncResolution, "samples across the window")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.From >= opts.To {
		message := fmt.Sprintf("window start %g must be before end %g", opts.From, opts.To)
		_ = formatter.Error(ErrCodeGeneric, message, nil)
		return NewExitError(ExitCommandError, message)
	}

	sys, err := phase.SimpleSystem(opts.Alpha, opts.Beta, opts.Observer)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid clock system", err)
	}

	points := sys.SyncPoints(opts.From, opts.To, opts.Threshold, opts.Resolution)
	beat := sys.BeatFrequencyAB()

	if formatter.Format == "json" {
		if points == nil {
			points = []float64{}
		}
		return formatter.Success(SyncResult{
			AlphaHz:    opts.Alpha,
			BetaHz:     opts.Beta,
			ObserverHz: opts.Observer,
			From:       opts.From,
			To:         opts.To,
			Threshold:  opts.Threshold,
			BeatHz:     beat,
			Points:     points,
		})
	}

	// Human-readable text output
	fmt.Fprintln(formatter.Writer, "=== Sync Points ===")
	fmt.Fprintf(formatter.Writer, "Clocks: alpha=%g Hz, beta=%g Hz, observer=%g Hz\n", opts.Alpha, opts.Beta, opts.Observer)
	fmt.Fprintf(formatter.Writer, "Window: [%g, %g) threshold=%g\n", opts.From, opts.To, opts.Threshold)
	fmt.Fprintf(formatter.Writer, "Beat (alpha-beta): %g Hz\n\n", beat)

	if len(points) == 0 {
		fmt.Fprintln(formatter.Writer, "No sync points found")
		return nil
	}

	fmt.Fprintf(formatter.Writer, "Found %d sync point(s):\n", len(points))
	for _, p := range points {
		fmt.Fprintf(formatter.Writer, "  t=%.4f\n", p)
	}

	return nil
}
