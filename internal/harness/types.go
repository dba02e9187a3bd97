package harness

import "github.com/roach88/stepwise/internal/report"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expected op error occurred and every
	// assertion held.
	Pass bool `json:"pass"`

	// TestCase is the tree as read back from the store.
	TestCase *report.TestResult `json:"test_case"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
