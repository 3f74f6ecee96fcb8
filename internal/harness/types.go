package harness

import (
	"fmt"

	"github.com/roach88/relaxir/internal/bridge"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int            `json:"step"` // 1-based
	Bind    string         `json:"bind,omitempty"`
	Call    string         `json:"call"`
	Outcome bridge.Outcome `json:"outcome"`

	ResultType  string `json:"result_type,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// String renders the event as one trace line, e.g.
// "1 x = relax.Var -> relax.expr.Var" or "2 relax.TupleGetItem !engine_error".
// Fingerprints and error messages are left out so golden traces stay stable.
func (e TraceEvent) String() string {
	lhs := e.Call
	if e.Bind != "" {
		lhs = e.Bind + " = " + e.Call
	}
	if e.Outcome == bridge.OutcomeOK {
		return fmt.Sprintf("%d %s -> %s", e.Step, lhs, e.ResultType)
	}
	return fmt.Sprintf("%d %s !%s", e.Step, lhs, e.Outcome)
}

// Result is the outcome of a scenario execution.
type Result struct {
	Scenario string `json:"scenario"`

	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Failures holds one message per failed step or assertion.
	Failures []string `json:"failures,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Trace:    []TraceEvent{},
	}
}

// AddFailure records a failure and marks the result as failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
