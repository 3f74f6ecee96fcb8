package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/relaxir/internal/runtime"
)

// Verification error codes (E200-E299)
const (
	ErrDuplicateKind     = "E200" // kind listed twice in the schema
	ErrKindNotRegistered = "E201" // schema kind missing from the registry
	ErrParentMismatch    = "E202" // registry and schema disagree on parent
	ErrFieldMismatch     = "E203" // registry and schema disagree on fields
	ErrAbstractMismatch  = "E204" // abstract flag disagrees with the Go type
	ErrKindNotInSchema   = "E205" // registered kind missing from the schema
	ErrUnknownParent     = "E206" // parent is neither a schema kind nor the root
)

// ValidationError is one disagreement between the schema and a registry.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Verify compares specs against every kind in reg except the root.
// Returns all errors found (does not fail-fast).
func Verify(reg *runtime.Registry, specs []KindSpec) []ValidationError {
	var errs []ValidationError

	byKey := make(map[string]KindSpec, len(specs))
	for _, s := range specs {
		if _, dup := byKey[s.Key]; dup {
			errs = append(errs, ValidationError{
				Field:   s.Key,
				Message: "kind is listed more than once",
				Code:    ErrDuplicateKind,
			})
			continue
		}
		byKey[s.Key] = s
	}

	for _, s := range specs {
		if s.Parent != runtime.ObjectKey {
			if _, ok := byKey[s.Parent]; !ok {
				errs = append(errs, ValidationError{
					Field:   s.Key + ".parent",
					Message: fmt.Sprintf("unknown parent %q", s.Parent),
					Code:    ErrUnknownParent,
				})
			}
		}

		d, err := reg.Resolve(s.Key)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   s.Key,
				Message: "kind is not registered",
				Code:    ErrKindNotRegistered,
			})
			continue
		}
		errs = append(errs, compareKind(s, d)...)
	}

	for _, d := range reg.Kinds() {
		if d.Key() == runtime.ObjectKey {
			continue
		}
		if _, ok := byKey[d.Key()]; !ok {
			errs = append(errs, ValidationError{
				Field:   d.Key(),
				Message: "registered kind is missing from the schema",
				Code:    ErrKindNotInSchema,
			})
		}
	}
	return errs
}

func compareKind(s KindSpec, d *runtime.TypeDescriptor) []ValidationError {
	var errs []ValidationError

	if d.ParentKey() != s.Parent {
		errs = append(errs, ValidationError{
			Field:   s.Key + ".parent",
			Message: fmt.Sprintf("schema says %q, registry says %q", s.Parent, d.ParentKey()),
			Code:    ErrParentMismatch,
		})
	}

	if want, got := formatSpecFields(s.Fields), formatLayout(d.Layout()); want != got {
		errs = append(errs, ValidationError{
			Field:   s.Key + ".fields",
			Message: fmt.Sprintf("schema says [%s], registry says [%s]", want, got),
			Code:    ErrFieldMismatch,
		})
	}

	if t := d.GoType(); t != nil {
		if abstract := t.Kind() == reflect.Interface; abstract != s.Abstract {
			errs = append(errs, ValidationError{
				Field:   s.Key + ".abstract",
				Message: fmt.Sprintf("schema says %t, registry Go type %s", s.Abstract, t),
				Code:    ErrAbstractMismatch,
			})
		}
	}
	return errs
}

func formatSpecFields(fields []FieldSpec) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + " " + f.Kind
	}
	return strings.Join(parts, ", ")
}

func formatLayout(l runtime.Layout) string {
	parts := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		parts[i] = f.Name + " " + f.Kind
	}
	return strings.Join(parts, ", ")
}
