package engine

import (
	"fmt"

	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// argReader decodes positional arguments. The first failure sticks; later
// reads return zero values, and done reports it.
type argReader struct {
	fn   string
	args []runtime.Value
	err  error
}

func newArgReader(fn string, args []runtime.Value) *argReader {
	return &argReader{fn: fn, args: args}
}

func (r *argReader) fail(i int, format string, a ...any) {
	if r.err != nil {
		return
	}
	r.err = &Error{
		Code:    ErrCodeBadArgument,
		Func:    r.fn,
		Message: fmt.Sprintf("argument %d: ", i) + fmt.Sprintf(format, a...),
	}
}

// at returns argument i, or null past the end.
func (r *argReader) at(i int) runtime.Value {
	if i >= len(r.args) {
		return runtime.NullValue()
	}
	return r.args[i]
}

func (r *argReader) done() error { return r.err }

func asNode[T runtime.Object](r *argReader, i int, v runtime.Value) T {
	var zero T
	o, err := v.AsObject()
	if err != nil {
		r.fail(i, "%v", err)
		return zero
	}
	t, err := runtime.Downcast[T](o)
	if err != nil {
		r.fail(i, "%v", err)
		return zero
	}
	return t
}

func readObject[T runtime.Object](r *argReader, i int) T {
	var zero T
	if r.err != nil {
		return zero
	}
	v := r.at(i)
	if v.IsNull() {
		r.fail(i, "required value is missing")
		return zero
	}
	return asNode[T](r, i, v)
}

// readOptional treats null as absent and returns the zero T.
func readOptional[T runtime.Object](r *argReader, i int) T {
	var zero T
	if r.err != nil || r.at(i).IsNull() {
		return zero
	}
	return asNode[T](r, i, r.at(i))
}

func readList[T runtime.Object](r *argReader, i int) []T {
	if r.err != nil {
		return nil
	}
	elems, err := r.at(i).AsArray()
	if err != nil {
		r.fail(i, "%v", err)
		return nil
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		t := asNode[T](r, i, e)
		if r.err != nil {
			return nil
		}
		out = append(out, t)
	}
	return out
}

func (r *argReader) str(i int) string {
	if r.err != nil {
		return ""
	}
	s, err := r.at(i).AsString()
	if err != nil {
		r.fail(i, "%v", err)
	}
	return s
}

func (r *argReader) integer(i int) int64 {
	if r.err != nil {
		return 0
	}
	n, err := r.at(i).AsInt()
	if err != nil {
		r.fail(i, "%v", err)
	}
	return n
}

func (r *argReader) boolean(i int) bool {
	if r.err != nil {
		return false
	}
	b, err := r.at(i).AsBool()
	if err != nil {
		r.fail(i, "%v", err)
	}
	return b
}

func (r *argReader) dtype(i int) runtime.DataType {
	if r.err != nil {
		return runtime.DataType{}
	}
	d, err := r.at(i).AsDataType()
	if err != nil {
		r.fail(i, "%v", err)
	}
	return d
}

// span returns the unknown span for null or a missing trailing argument.
func (r *argReader) span(i int) ir.Span {
	v := r.at(i)
	if r.err != nil || v.IsNull() {
		return ir.Span{}
	}
	x, err := v.AsOpaque()
	if err != nil {
		r.fail(i, "%v", err)
		return ir.Span{}
	}
	s, ok := x.(ir.Span)
	if !ok {
		r.fail(i, "expected span, got %T", x)
	}
	return s
}

func (r *argReader) value(i int) runtime.Value {
	return r.at(i)
}

func (r *argReader) valueMap(i int) map[string]runtime.Value {
	if r.err != nil {
		return nil
	}
	m, err := r.at(i).AsMap()
	if err != nil {
		r.fail(i, "%v", err)
	}
	return m
}
