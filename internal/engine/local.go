package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.uber.org/multierr"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/runtime"
	"github.com/roach88/relaxir/internal/schema"
)

// PackedFunc is a function callable by name with positional arguments. It
// borrows args for the duration of the call and returns a result carrying one
// strong reference.
type PackedFunc func(args []runtime.Value) (runtime.Value, error)

// Local evaluates entry points in process.
//
// Thread-safety: Invoke may be called concurrently. Register takes a write
// lock and is meant for setup.
type Local struct {
	mu     sync.RWMutex
	funcs  map[string]PackedFunc
	logger *slog.Logger

	verifySchema bool
}

var _ bridge.Engine = (*Local)(nil)

// Option configures a Local engine.
type Option func(*Local)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Local) {
		e.logger = l
	}
}

// WithVerifySchema controls the vocabulary check in New. Default: true.
func WithVerifySchema(verify bool) Option {
	return func(e *Local) {
		e.verifySchema = verify
	}
}

// New creates an engine with every builtin registered.
func New(opts ...Option) (*Local, error) {
	e := &Local{
		funcs:        builtins(),
		logger:       slog.Default(),
		verifySchema: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.verifySchema {
		if err := VerifyVocabulary(); err != nil {
			return nil, err
		}
	}
	e.logger.Debug("engine ready", "functions", len(e.funcs))
	return e, nil
}

// VerifyVocabulary checks the process-wide type registry against the
// embedded CUE schema.
func VerifyVocabulary() error {
	specs, err := schema.Load()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	return verifyAgainst(runtime.Types(), specs)
}

// verifyAgainst reports every mismatch between reg and specs as one error.
// multierr.Errors recovers the individual schema.ValidationErrors.
func verifyAgainst(reg *runtime.Registry, specs []schema.KindSpec) error {
	var err error
	for _, e := range schema.Verify(reg, specs) {
		err = multierr.Append(err, e)
	}
	if err != nil {
		return fmt.Errorf("registry does not match schema: %w", err)
	}
	return nil
}

// Register adds fn under name. Registering a name twice is an error.
func (e *Local) Register(name string, fn PackedFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("register %q: name and function are required", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.funcs[name]; exists {
		return fmt.Errorf("register %q: function already registered", name)
	}
	e.funcs[name] = fn
	return nil
}

// Names returns the registered function names, sorted.
func (e *Local) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke calls the function registered under name.
func (e *Local) Invoke(name string, args []runtime.Value) (runtime.Value, error) {
	e.mu.RLock()
	fn, ok := e.funcs[name]
	e.mu.RUnlock()
	if !ok {
		return runtime.NullValue(), &Error{
			Code:    ErrCodeUnknownFunction,
			Func:    name,
			Message: "no function registered under this name",
		}
	}

	e.logger.Debug("engine invoke", "func", name, "args", len(args))
	out, err := fn(args)
	if err != nil {
		e.logger.Warn("engine function failed", "func", name, "error", err)
		return runtime.NullValue(), err
	}
	return out, nil
}
