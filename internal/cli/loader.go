package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/phitlab/triphase/internal/compiler"
	"github.com/phitlab/triphase/internal/ir"
)

// LoadError represents an error that occurred while loading a scenario,
// before validation ever ran: a missing file, a non-CUE path, or a
// failed compile.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands. Validation
// errors carry their own E1xx codes from the compiler package.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotCUE        = "E003" // Not a CUE scenario file
	ErrCodeCompileFailed = "E004" // Scenario compile failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeWriteFailed   = "E007" // File write error
)

// LoadScenario compiles a scenario file and validates it.
// Compile failures are fatal and return a single LoadError.
// Validation failures are collected; the compiled scenario is still
// returned alongside them so callers can report all of them at once.
func LoadScenario(path string) (*ir.Scenario, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario file not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing scenario file: %v", err)}}
	}
	if info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}}
	}
	if filepath.Ext(path) != ".cue" {
		return nil, []error{&LoadError{Code: ErrCodeNotCUE, Message: fmt.Sprintf("not a CUE scenario file: %s", path)}}
	}

	scn, err := compiler.CompileFile(path)
	if err != nil {
		return nil, []error{convertCompileError(err)}
	}

	verrs := compiler.Validate(scn)
	if len(verrs) == 0 {
		return scn, nil
	}
	errs := make([]error, 0, len(verrs))
	for _, verr := range verrs {
		errs = append(errs, verr)
	}
	return scn, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// MapFieldToErrorCode maps a compile error field to an error code.
// Field paths are matched on their last segment, so "program[2].pair"
// and "pair" map the same way. Fields without a validation counterpart
// report as a plain compile failure.
func MapFieldToErrorCode(field string) string {
	seg := field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		seg = field[i+1:]
	}
	switch seg {
	case "name", "slots":
		return compiler.ErrInvalidRegister
	case "hz":
		return compiler.ErrInvalidFrequency
	case "pair":
		return compiler.ErrInvalidPair
	case "center", "width":
		return compiler.ErrInvalidWindow
	case "op":
		return compiler.ErrUnknownOp
	case "a", "b", "x", "values", "value", "source", "target":
		return compiler.ErrMissingOperand
	case "ticks":
		return compiler.ErrInvalidTicks
	default:
		return ErrCodeCompileFailed
	}
}
