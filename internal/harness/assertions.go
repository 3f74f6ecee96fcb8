package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event)
		}
	}
	return buf.String()
}

// evaluateAssertions runs every assertion and returns one message per
// failure, in declaration order.
func (h *Harness) evaluateAssertions(assertions []Assertion, trace []TraceEvent) []string {
	var failures []string
	for i, a := range assertions {
		if err := h.evaluate(a, trace); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func (h *Harness) evaluate(a Assertion, trace []TraceEvent) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: trace}
	}

	switch a.Type {
	case AssertIsA, AssertNotIsA:
		obj, err := h.resolve(a.Ref)
		if err != nil {
			return err
		}
		if _, err := runtime.Types().Resolve(a.Kind); err != nil {
			return err
		}
		is := runtime.InstanceOf(obj, a.Kind)
		if a.Type == AssertIsA && !is {
			return fail(fmt.Sprintf("%s is-a %s", a.Ref, a.Kind), runtime.TypeOf(obj))
		}
		if a.Type == AssertNotIsA && is {
			return fail(fmt.Sprintf("%s is not a %s", a.Ref, a.Kind), runtime.TypeOf(obj))
		}
		return nil

	case AssertSame, AssertDistinct:
		objs, err := h.resolveAll(a.Refs)
		if err != nil {
			return err
		}
		for i := 1; i < len(objs); i++ {
			same := runtime.Same(objs[0], objs[i])
			if a.Type == AssertSame && !same {
				return fail(fmt.Sprintf("%s and %s are the same object", a.Refs[0], a.Refs[i]), "different objects")
			}
			if a.Type == AssertDistinct && same {
				return fail(fmt.Sprintf("%s and %s are distinct objects", a.Refs[0], a.Refs[i]), "same object")
			}
		}
		return nil

	case AssertEqualFingerprint:
		objs, err := h.resolveAll(a.Refs)
		if err != nil {
			return err
		}
		fps := make([]string, len(objs))
		for i, obj := range objs {
			if fps[i], err = ir.Fingerprint(obj); err != nil {
				return fmt.Errorf("%s: %w", a.Refs[i], err)
			}
		}
		for _, fp := range fps[1:] {
			if fp != fps[0] {
				return fail(fmt.Sprintf("equal fingerprints for %v", a.Refs), strings.Join(fps, ", "))
			}
		}
		return nil

	case AssertNameHint:
		obj, err := h.resolve(a.Ref)
		if err != nil {
			return err
		}
		hint, ok := nameHint(obj)
		if !ok {
			return fail(fmt.Sprintf("%s is a relax.expr.Var or relax.Id", a.Ref), runtime.TypeOf(obj))
		}
		if hint != a.Value {
			return fail(fmt.Sprintf("name hint %q", a.Value), fmt.Sprintf("%q", hint))
		}
		return nil

	case AssertShape:
		obj, err := h.resolve(a.Ref)
		if err != nil {
			return err
		}
		arr, err := runtime.Downcast[*runtime.NDArray](obj)
		if err != nil {
			return fail(fmt.Sprintf("%s is a tensor", a.Ref), runtime.TypeOf(obj))
		}
		if got := arr.Shape(); !slices.Equal(got, a.Shape) {
			return fail(fmt.Sprintf("shape %v", a.Shape), fmt.Sprintf("%v", got))
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func (h *Harness) resolveAll(refs []string) ([]runtime.Object, error) {
	objs := make([]runtime.Object, len(refs))
	for i, ref := range refs {
		obj, err := h.resolve(ref)
		if err != nil {
			return nil, err
		}
		objs[i] = obj
	}
	return objs, nil
}

func nameHint(obj runtime.Object) (string, bool) {
	if v, err := runtime.Downcast[*ir.Var](obj); err == nil {
		return v.NameHint(), true
	}
	if id, err := runtime.Downcast[*ir.Id](obj); err == nil {
		return id.NameHint(), true
	}
	return "", false
}
