package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// Harness executes one scenario. It owns every bound node until the run
// ends.
type Harness struct {
	bridge   *bridge.Bridge
	bindings map[string]runtime.Object
	logger   *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes scenario against b and returns the result.
//
// Steps run in order. A step that fails unexpectedly, or that was expected to
// fail and did not, stops the run; assertions are evaluated only when every
// step behaved as expected. The returned error is reserved for malformed
// steps (unknown arguments, unresolved references); call failures are part
// of the Result.
func Run(scenario *Scenario, b *bridge.Bridge, opts ...Option) (*Result, error) {
	h := &Harness{
		bridge:   b,
		bindings: make(map[string]runtime.Object),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	defer h.releaseBindings()

	result := NewResult(scenario.Name)
	for i, step := range scenario.Steps {
		ok, err := h.executeStep(i+1, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Call, err)
		}
		if !ok {
			return result, nil
		}
	}

	for _, msg := range h.evaluateAssertions(scenario.Assertions, result.Trace) {
		result.AddFailure(msg)
	}
	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"steps", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// executeStep invokes one entry point and reports whether the run may
// continue.
func (h *Harness) executeStep(n int, step Step, result *Result) (bool, error) {
	var (
		args  []runtime.Value
		temps []runtime.Object
	)
	// Unknown entry points are passed through without arguments so the bridge
	// reports them like any other argument error.
	if ep, ok := bridge.Lookup(step.Call); ok {
		var err error
		if args, temps, err = h.buildArgs(ep, step.Args); err != nil {
			return false, err
		}
	}

	obj, err := h.bridge.Invoke(step.Call, args...)
	releaseAll(temps)

	ev := TraceEvent{
		Step:    n,
		Bind:    step.Bind,
		Call:    step.Call,
		Outcome: bridge.OutcomeOf(err),
	}
	if err != nil {
		ev.Error = err.Error()
	} else {
		ev.ResultType = runtime.TypeOf(obj)
		if fp, ferr := ir.Fingerprint(obj); ferr == nil {
			ev.Fingerprint = fp
		}
	}
	result.AddTrace(ev)

	h.logger.Info("step completed",
		"step", n,
		"call", step.Call,
		"outcome", ev.Outcome,
		"result_type", ev.ResultType,
	)

	switch {
	case err != nil && step.ExpectError == "":
		result.AddFailure(fmt.Sprintf("step %d (%s): unexpected %s: %v", n, step.Call, ev.Outcome, err))
		return false, nil
	case err == nil && step.ExpectError != "":
		runtime.Release(obj)
		result.AddFailure(fmt.Sprintf("step %d (%s): expected %s, call succeeded", n, step.Call, step.ExpectError))
		return false, nil
	case err != nil && string(ev.Outcome) != step.ExpectError:
		result.AddFailure(fmt.Sprintf("step %d (%s): expected %s, got %s: %v", n, step.Call, step.ExpectError, ev.Outcome, err))
		return false, nil
	case err != nil:
		return true, nil
	}

	if step.Bind == "" {
		runtime.Release(obj)
		return true, nil
	}
	h.bindings[step.Bind] = obj
	return true, nil
}

func (h *Harness) releaseBindings() {
	for name, obj := range h.bindings {
		runtime.Release(obj)
		delete(h.bindings, name)
	}
}
