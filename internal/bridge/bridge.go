package bridge

import (
	"fmt"
	"log/slog"

	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// Engine evaluates entry points by name.
//
// Invoke receives exactly len(EntryPoint.Params) arguments, absent optional
// ones as null. The returned value hands one strong reference to the caller.
// Implementations must be safe for concurrent calls.
type Engine interface {
	Invoke(name string, args []runtime.Value) (runtime.Value, error)
}

// Bridge validates calls against EntryPoints and dispatches them to an Engine.
type Bridge struct {
	engine   Engine
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithRecorder sets a sink notified after every call.
func WithRecorder(r Recorder) Option {
	return func(b *Bridge) {
		b.recorder = r
	}
}

// New creates a Bridge over engine. A nil engine panics.
func New(engine Engine, opts ...Option) *Bridge {
	if engine == nil {
		panic("bridge: nil engine")
	}
	b := &Bridge{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Invoke calls the entry point name with positional args. Trailing optional
// arguments may be omitted. On success the returned object is owned by the
// caller and is-a the entry point's result type.
func (b *Bridge) Invoke(name string, args ...runtime.Value) (runtime.Object, error) {
	out, err := b.invoke(name, args)
	b.record(name, args, out, err)
	return out, err
}

func (b *Bridge) invoke(name string, args []runtime.Value) (runtime.Object, error) {
	ep, ok := entryPointIndex[name]
	if !ok {
		return nil, argError(name, -1, "", "unknown entry point")
	}
	full, err := checkArgs(ep, args)
	if err != nil {
		return nil, err
	}

	for i, a := range full {
		if err := runtime.RetainValue(a); err != nil {
			for _, done := range full[:i] {
				runtime.ReleaseValue(done)
			}
			return nil, argError(name, i, ep.Params[i].Name, "argument was released during the call")
		}
	}
	defer func() {
		for _, a := range full {
			runtime.ReleaseValue(a)
		}
	}()

	b.logger.Debug("bridge invoke", "entry_point", name, "args", len(args))
	res, err := b.engine.Invoke(name, full)
	if err != nil {
		b.logger.Warn("engine call failed", "entry_point", name, "error", err)
		return nil, &EngineError{EntryPoint: name, Message: err.Error(), Err: err}
	}
	return checkResult(ep, res)
}

func (b *Bridge) record(name string, args []runtime.Value, out runtime.Object, err error) {
	if b.recorder == nil {
		return
	}
	rec := CallRecord{
		EntryPoint: name,
		Args:       make([]string, len(args)),
		Outcome:    OutcomeOf(err),
	}
	for i, a := range args {
		rec.Args[i] = a.String()
	}
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.ResultType = runtime.TypeOf(out)
		if fp, ferr := ir.Fingerprint(out); ferr == nil {
			rec.Fingerprint = fp
		}
	}
	b.recorder.Record(rec)
}

func checkArgs(ep *EntryPoint, args []runtime.Value) ([]runtime.Value, error) {
	if n := len(args); n < ep.Required() || n > len(ep.Params) {
		return nil, argError(ep.Name, -1, "", "expected %s arguments, got %d", arity(ep), n)
	}
	full := make([]runtime.Value, len(ep.Params))
	copy(full, args)
	for i, p := range ep.Params {
		if err := checkArg(ep.Name, i, p, full[i]); err != nil {
			return nil, err
		}
	}
	return full, nil
}

func arity(ep *EntryPoint) string {
	if req := ep.Required(); req != len(ep.Params) {
		return fmt.Sprintf("%d to %d", req, len(ep.Params))
	}
	return fmt.Sprintf("%d", len(ep.Params))
}

func checkArg(ep string, i int, p Param, v runtime.Value) error {
	if p.Kind == ParamAny {
		return nil
	}
	if v.IsNull() {
		if p.Optional {
			return nil
		}
		return argError(ep, i, p.Name, "required argument is null")
	}

	want := func(kind runtime.ValueKind) error {
		if v.Kind() != kind {
			return argError(ep, i, p.Name, "expected %s, got %s", kind, v.Kind())
		}
		return nil
	}

	switch p.Kind {
	case ParamObject:
		o, err := v.AsObject()
		if err != nil {
			return argError(ep, i, p.Name, "expected %s, got %s", p.TypeKey, v.Kind())
		}
		return checkObject(ep, i, p.Name, p.TypeKey, o)
	case ParamObjectList:
		elems, err := v.AsArray()
		if err != nil {
			return argError(ep, i, p.Name, "expected list of %s, got %s", p.TypeKey, v.Kind())
		}
		for j, e := range elems {
			field := fmt.Sprintf("%s[%d]", p.Name, j)
			o, err := e.AsObject()
			if err != nil {
				return argError(ep, i, field, "expected %s, got %s", p.TypeKey, e.Kind())
			}
			if err := checkObject(ep, i, field, p.TypeKey, o); err != nil {
				return err
			}
		}
		return nil
	case ParamString:
		return want(runtime.KindString)
	case ParamInt:
		return want(runtime.KindInt)
	case ParamBool:
		return want(runtime.KindBool)
	case ParamDataType:
		return want(runtime.KindDataType)
	case ParamMap:
		return want(runtime.KindMap)
	case ParamSpan:
		x, err := v.AsOpaque()
		if _, ok := x.(ir.Span); err != nil || !ok {
			return argError(ep, i, p.Name, "expected span, got %s", v.Kind())
		}
		return nil
	}
	return argError(ep, i, p.Name, "unsupported parameter kind %q", p.Kind)
}

func checkObject(ep string, i int, field, key string, o runtime.Object) error {
	if !runtime.Alive(o) {
		return argError(ep, i, field, "%s has been released", runtime.TypeOf(o))
	}
	if !runtime.InstanceOf(o, key) {
		return argError(ep, i, field, "expected %s, got %s", key, runtime.TypeOf(o))
	}
	return nil
}

// checkResult takes ownership of res and returns it as an object of the entry
// point's result type, releasing it on mismatch.
func checkResult(ep *EntryPoint, res runtime.Value) (runtime.Object, error) {
	o, err := res.AsObject()
	if err != nil {
		runtime.ReleaseValue(res)
		return nil, &runtime.TypeMismatchError{Expected: ep.Result, Actual: res.Kind().String()}
	}
	if !runtime.InstanceOf(o, ep.Result) {
		runtime.Release(o)
		return nil, &runtime.TypeMismatchError{Expected: ep.Result, Actual: runtime.TypeOf(o)}
	}
	return o, nil
}
