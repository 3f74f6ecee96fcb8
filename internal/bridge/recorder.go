package bridge

import (
	"errors"

	"github.com/roach88/relaxir/internal/runtime"
)

// Outcome classifies a finished call.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeArgumentError Outcome = "argument_error"
	OutcomeEngineError   Outcome = "engine_error"
	OutcomeTypeMismatch  Outcome = "type_mismatch"
)

// OutcomeOf classifies err. Errors the bridge did not produce count as engine
// errors.
func OutcomeOf(err error) Outcome {
	var (
		ae *ArgumentError
		tm *runtime.TypeMismatchError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &ae):
		return OutcomeArgumentError
	case errors.As(err, &tm):
		return OutcomeTypeMismatch
	default:
		return OutcomeEngineError
	}
}

// CallRecord describes one bridge call after it finished.
type CallRecord struct {
	EntryPoint string

	// Args holds a short rendering of each argument (runtime.Value.String).
	Args []string

	// ResultType is the runtime type key of the result, empty on failure.
	ResultType string

	// Fingerprint is the structural hash of the result, empty on failure or
	// when the result has no canonical form.
	Fingerprint string

	Outcome Outcome
	Error   string
}

// Recorder observes finished calls. Implementations must not fail the call;
// Record has no error return.
type Recorder interface {
	Record(rec CallRecord)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(rec CallRecord)

// Record calls f(rec).
func (f RecorderFunc) Record(rec CallRecord) { f(rec) }
