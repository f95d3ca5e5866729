package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phitlab/triphase/internal/compiler"
	"github.com/phitlab/triphase/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <scenario.cue>",
		Short: "Compile a CUE scenario to canonical IR",
		Long: `Compile a CUE scenario to canonical IR format.

The compiler parses the scenario file, materializes clock and register
defaults, validates the result, and outputs canonical JSON with sorted
keys suitable for hashing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, scenarioPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	scn, loadErrors := LoadScenario(scenarioPath)

	// Handle load errors (file not found, compile failure)
	if scn == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Compiling scenario: %s", scn.Name)

	// A scenario that compiled but failed validation has no canonical form
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	canonical, err := ir.MarshalCanonicalScenario(scn)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("encoding canonical IR: %v", err), nil)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeIRToFile(scn, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, scn, canonical, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, scn *ir.Scenario, canonical []byte, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(json.RawMessage(canonical))
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled scenario %q: %d register(s), %d instruction(s), %d tick(s)\n\n",
		scn.Name, len(scn.Registers), len(scn.Program), scn.Ticks)

	fmt.Fprintf(formatter.Writer, "Clocks: alpha=%g Hz, beta=%g Hz, observer=%g Hz\n\n",
		scn.Clocks.Alpha.Hz, scn.Clocks.Beta.Hz, scn.Clocks.Observer.Hz)

	if len(scn.Registers) > 0 {
		fmt.Fprintln(formatter.Writer, "Registers:")
		for _, reg := range scn.Registers {
			fmt.Fprintf(formatter.Writer, "  %s: %d slot(s)\n", reg.Name, reg.Slots)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if len(scn.Program) > 0 {
		fmt.Fprintln(formatter.Writer, "Program:")
		for _, inst := range scn.Program {
			name := inst.Name
			if name == "" {
				name = inst.Op
			}
			fmt.Fprintf(formatter.Writer, "  %s: %s on %s, gate center=%g width=%g\n",
				name, inst.Op, inst.Pair, inst.Center, inst.Width)
		}
		fmt.Fprintln(formatter.Writer)
	}

	fmt.Fprintln(formatter.Writer, "Canonical IR:")
	fmt.Fprintln(formatter.Writer, string(canonical))

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote canonical IR to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		// JSON format - use CLIResponse with first error
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Compilation errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var valErr compiler.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Code, fmt.Sprintf("%s: %s", valErr.Field, valErr.Message)
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes the compiled scenario to a file in canonical key order.
func writeIRToFile(scn *ir.Scenario, filename string) error {
	// Indented for readability - the compact canonical encoding
	// matters only when hashing
	data, err := json.MarshalIndent(scn.CanonicalMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
