package harness

import "github.com/phitlab/triphase/internal/vm"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool

	// Records is the step trace the run produced, used for trace
	// assertions and golden comparison.
	Records []vm.Record

	// Failures contains one message per failed assertion.
	// Empty if Pass is true.
	Failures []string
}

// NewResult creates a passing result over the given trace.
func NewResult(records []vm.Record) *Result {
	return &Result{
		Pass:     true,
		Records:  records,
		Failures: []string{},
	}
}

// AddFailure records an assertion failure and marks the result failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}
