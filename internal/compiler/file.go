package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/phitlab/triphase/internal/ir"
)

// CompileBytes compiles CUE source into the scenario it declares. The
// source must carry a top-level "scenario" struct; filename is used
// for error positions only.
func CompileBytes(data []byte, filename string) (*ir.Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	scenarioVal := v.LookupPath(cue.ParsePath("scenario"))
	if !scenarioVal.Exists() {
		return nil, &CompileError{
			Field:   "scenario",
			Message: "top-level scenario struct is required",
			Pos:     v.Pos(),
		}
	}

	return CompileScenario(scenarioVal)
}

// CompileFile reads and compiles a scenario file.
func CompileFile(path string) (*ir.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return CompileBytes(data, path)
}
