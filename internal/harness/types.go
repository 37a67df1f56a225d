package harness

import "github.com/roach88/formrules/internal/engine"

// FieldState is the observable state of one form control.
type FieldState struct {
	Value    string `json:"value"`
	Error    string `json:"error"`    // custom error
	Message  string `json:"message"`  // validation message, native first
	Offender string `json:"offender"` // rule name, "" if none
	Dirty    bool   `json:"dirty"`
	Valid    bool   `json:"valid"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the run in the trace store.
	RunID string `json:"run_id"`

	// Trace holds every engine event in seq order.
	Trace []engine.Event `json:"trace"`

	// Errors holds expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State is the final state of each control, keyed by name.
	State map[string]FieldState `json:"state,omitempty"`

	// FormValid and Submitted describe the form after the last step.
	FormValid bool `json:"form_valid"`
	Submitted int  `json:"submitted"`
}

// NewResult creates a passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Trace:  []engine.Event{},
		Errors: []string{},
		State:  make(map[string]FieldState),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Observe appends an engine event to the trace.
func (r *Result) Observe(ev engine.Event) {
	r.Trace = append(r.Trace, ev)
}
