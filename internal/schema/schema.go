package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed nodes.cue
var nodesCUE []byte

// Source returns the embedded schema text.
func Source() []byte {
	out := make([]byte, len(nodesCUE))
	copy(out, nodesCUE)
	return out
}

// FieldSpec is one field a kind adds to its parent.
type FieldSpec struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// KindSpec is the schema entry for one node kind.
type KindSpec struct {
	Key      string      `json:"key"`
	Parent   string      `json:"parent"`
	Abstract bool        `json:"abstract,omitempty"`
	Fields   []FieldSpec `json:"fields,omitempty"`
}

// Load parses the embedded schema.
func Load() ([]KindSpec, error) {
	return Parse(nodesCUE, "nodes.cue")
}

// Parse compiles src and returns its kinds in declaration order.
func Parse(src []byte, filename string) ([]KindSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	kindsVal := v.LookupPath(cue.ParsePath("kinds"))
	if !kindsVal.Exists() {
		return nil, &CompileError{
			Field:   "kinds",
			Message: "kinds is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := kindsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []KindSpec
	for iter.Next() {
		spec, err := parseKind(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseKind(key string, v cue.Value) (KindSpec, error) {
	spec := KindSpec{Key: key}

	parentVal := v.LookupPath(cue.ParsePath("parent"))
	if !parentVal.Exists() {
		return spec, &CompileError{
			Field:   key + ".parent",
			Message: "parent is required",
			Pos:     v.Pos(),
		}
	}
	parent, err := parentVal.String()
	if err != nil {
		return spec, formatCUEError(err)
	}
	spec.Parent = parent

	if absVal := v.LookupPath(cue.ParsePath("abstract")); absVal.Exists() {
		spec.Abstract, err = absVal.Bool()
		if err != nil {
			return spec, formatCUEError(err)
		}
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return spec, nil
	}
	list, err := fieldsVal.List()
	if err != nil {
		return spec, formatCUEError(err)
	}
	for list.Next() {
		f, err := parseField(key, list.Value())
		if err != nil {
			return spec, err
		}
		spec.Fields = append(spec.Fields, f)
	}
	return spec, nil
}

func parseField(key string, v cue.Value) (FieldSpec, error) {
	var f FieldSpec
	for _, part := range []struct {
		name string
		dst  *string
	}{
		{"name", &f.Name},
		{"kind", &f.Kind},
	} {
		pv := v.LookupPath(cue.ParsePath(part.name))
		if !pv.Exists() {
			return f, &CompileError{
				Field:   key + ".fields." + part.name,
				Message: part.name + " is required",
				Pos:     v.Pos(),
			}
		}
		s, err := pv.String()
		if err != nil {
			return f, formatCUEError(err)
		}
		*part.dst = s
	}
	return f, nil
}

// CompileError is a schema parse failure with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
