package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

type getter func(runtime.Object) (runtime.Object, bool)

type listGetter func(runtime.Object) ([]runtime.Object, bool)

func one[T runtime.Object, R runtime.Object](fn func(T) R) getter {
	return func(obj runtime.Object) (runtime.Object, bool) {
		n, err := runtime.Downcast[T](obj)
		if err != nil {
			return nil, false
		}
		var out runtime.Object = fn(n)
		return out, true
	}
}

func many[T runtime.Object, R runtime.Object](fn func(T) []R) listGetter {
	return func(obj runtime.Object) ([]runtime.Object, bool) {
		n, err := runtime.Downcast[T](obj)
		if err != nil {
			return nil, false
		}
		elems := fn(n)
		out := make([]runtime.Object, len(elems))
		for i, e := range elems {
			out[i] = e
		}
		return out, true
	}
}

// Field selectors usable after a binding name, keyed by field name. Several
// node types share a name; the first getter whose receiver matches wins.
var fields = map[string][]getter{
	"op":              {one((*ir.Call).Op)},
	"attrs":           {one((*ir.Call).Attrs), one(ir.BaseFunc.Attrs)},
	"cond":            {one((*ir.If).Cond)},
	"true_branch":     {one((*ir.If).TrueBranch)},
	"false_branch":    {one((*ir.If).FalseBranch)},
	"tuple":           {one((*ir.TupleGetItem).Tuple)},
	"vid":             {one((*ir.Var).Vid)},
	"data":            {one((*ir.Constant).Data)},
	"value":           {one(ir.Binding.Value), one((*ir.PrimValue).Value)},
	"var":             {one(ir.Binding.Var)},
	"struct_info":     {one((*ir.MatchCast).StructInfo), one(ir.Expr.StructInfo)},
	"body":            {one((*ir.SeqExpr).Body), one((*ir.Function).Body)},
	"ret_struct_info": {one((*ir.Function).RetStructInfo)},
	"shape":           {one((*ir.TensorStructInfo).Shape)},
}

var listFields = map[string][]listGetter{
	"args":       {many((*ir.Call).Args)},
	"sinfo_args": {many((*ir.Call).SInfoArgs)},
	"fields":     {many((*ir.Tuple).Fields)},
	"values":     {many((*ir.ShapeExpr).Values)},
	"bindings":   {many((*ir.BindingBlock).Bindings)},
	"blocks":     {many((*ir.SeqExpr).Blocks)},
	"params":     {many((*ir.Function).Params)},
}

// resolve looks up a reference of the form name, name.field or
// name.list[i].field, with an optional leading "$". The returned object is
// borrowed from the binding.
func (h *Harness) resolve(ref string) (runtime.Object, error) {
	path := strings.Split(strings.TrimPrefix(ref, "$"), ".")
	obj, ok := h.bindings[path[0]]
	if !ok {
		return nil, fmt.Errorf("unknown binding %q", path[0])
	}
	for _, seg := range path[1:] {
		next, err := selectField(obj, seg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		obj = next
	}
	return obj, nil
}

func selectField(obj runtime.Object, seg string) (runtime.Object, error) {
	name, index, indexed, err := parseSegment(seg)
	if err != nil {
		return nil, err
	}

	if indexed {
		for _, get := range listFields[name] {
			elems, ok := get(obj)
			if !ok {
				continue
			}
			if index >= len(elems) {
				return nil, fmt.Errorf("%s.%s has %d elements, index %d", runtime.TypeOf(obj), name, len(elems), index)
			}
			return elems[index], nil
		}
		return nil, fmt.Errorf("%s has no list field %q", runtime.TypeOf(obj), name)
	}

	for _, get := range fields[name] {
		out, ok := get(obj)
		if !ok {
			continue
		}
		if runtime.IsNil(out) {
			return nil, fmt.Errorf("%s.%s is not set", runtime.TypeOf(obj), name)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s has no field %q", runtime.TypeOf(obj), name)
}

// parseSegment splits "args[2]" into ("args", 2, true).
func parseSegment(seg string) (string, int, bool, error) {
	name, rest, indexed := strings.Cut(seg, "[")
	if name == "" {
		return "", 0, false, fmt.Errorf("empty field name in %q", seg)
	}
	if !indexed {
		return name, 0, false, nil
	}
	idx, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return "", 0, false, fmt.Errorf("unterminated index in %q", seg)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return "", 0, false, fmt.Errorf("invalid index in %q", seg)
	}
	return name, n, true, nil
}
