package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// buildArgs turns a step's named YAML arguments into positional bridge
// arguments. Tensors built from literals are returned in temps; the caller
// releases them after the call.
func (h *Harness) buildArgs(ep bridge.EntryPoint, raw map[string]any) (args []runtime.Value, temps []runtime.Object, err error) {
	known := make(map[string]bool, len(ep.Params))
	for _, p := range ep.Params {
		known[p.Name] = true
	}
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if !known[name] {
			return nil, nil, fmt.Errorf("unknown argument %q", name)
		}
	}

	defer func() {
		if err != nil {
			releaseAll(temps)
			temps = nil
		}
	}()

	args = make([]runtime.Value, len(ep.Params))
	for i, p := range ep.Params {
		v, ok := raw[p.Name]
		if !ok {
			args[i] = runtime.NullValue()
			continue
		}
		if args[i], err = h.convertArg(p, v, &temps); err != nil {
			return nil, temps, fmt.Errorf("argument %s: %w", p.Name, err)
		}
	}
	return args, temps, nil
}

// convertArg uses the parameter kind only to disambiguate literals (dtype
// strings, span and tensor maps). Everything else converts by its YAML type,
// so a mistyped argument reaches the bridge and fails there.
func (h *Harness) convertArg(p bridge.Param, v any, temps *[]runtime.Object) (runtime.Value, error) {
	switch p.Kind {
	case bridge.ParamDataType:
		if s, ok := v.(string); ok && !strings.HasPrefix(s, "$") {
			d, err := runtime.ParseDataType(s)
			if err != nil {
				return runtime.Value{}, err
			}
			return runtime.DataTypeValue(d), nil
		}
	case bridge.ParamSpan:
		if m, ok := v.(map[string]any); ok {
			span, err := decodeSpan(m)
			if err != nil {
				return runtime.Value{}, err
			}
			return runtime.OpaqueValue(span), nil
		}
	case bridge.ParamObject:
		if m, ok := v.(map[string]any); ok && p.TypeKey == runtime.NDArrayKey {
			arr, err := decodeTensor(m)
			if err != nil {
				return runtime.Value{}, err
			}
			*temps = append(*temps, arr)
			return runtime.ObjectValue(arr), nil
		}
	}
	return h.convertValue(v)
}

// convertValue converts a YAML-decoded value. Strings starting with "$"
// resolve to bound nodes.
func (h *Harness) convertValue(v any) (runtime.Value, error) {
	switch x := v.(type) {
	case nil:
		return runtime.NullValue(), nil
	case string:
		if strings.HasPrefix(x, "$$") {
			return runtime.StringValue(x[1:]), nil
		}
		if strings.HasPrefix(x, "$") {
			obj, err := h.resolve(x)
			if err != nil {
				return runtime.Value{}, err
			}
			return runtime.ObjectValue(obj), nil
		}
		return runtime.StringValue(x), nil
	case int:
		return runtime.IntValue(int64(x)), nil
	case int64:
		return runtime.IntValue(x), nil
	case float64:
		return runtime.FloatValue(x), nil
	case bool:
		return runtime.BoolValue(x), nil
	case []any:
		vals := make([]runtime.Value, len(x))
		for i, elem := range x {
			val, err := h.convertValue(elem)
			if err != nil {
				return runtime.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			vals[i] = val
		}
		return runtime.ArrayValue(vals...), nil
	case map[string]any:
		m := make(map[string]runtime.Value, len(x))
		for _, key := range slices.Sorted(maps.Keys(x)) {
			val, err := h.convertValue(x[key])
			if err != nil {
				return runtime.Value{}, fmt.Errorf("%s: %w", key, err)
			}
			m[key] = val
		}
		return runtime.MapValue(m), nil
	default:
		return runtime.Value{}, fmt.Errorf("unsupported type %T", v)
	}
}

// decodeTensor builds an empty tensor from {shape, dtype, device}. dtype
// defaults to float32 and device to cpu.
func decodeTensor(m map[string]any) (*runtime.NDArray, error) {
	dtype := runtime.Float(32)
	dev := runtime.CPU(0)
	var shape []int64
	for _, key := range slices.Sorted(maps.Keys(m)) {
		switch key {
		case "shape":
			dims, ok := m[key].([]any)
			if !ok {
				return nil, fmt.Errorf("tensor shape must be a list")
			}
			shape = make([]int64, len(dims))
			for i, d := range dims {
				n, ok := asInt(d)
				if !ok {
					return nil, fmt.Errorf("tensor shape[%d] must be an integer", i)
				}
				shape[i] = n
			}
		case "dtype":
			s, ok := m[key].(string)
			if !ok {
				return nil, fmt.Errorf("tensor dtype must be a string")
			}
			d, err := runtime.ParseDataType(s)
			if err != nil {
				return nil, err
			}
			dtype = d
		case "device":
			s, ok := m[key].(string)
			if !ok {
				return nil, fmt.Errorf("tensor device must be a string")
			}
			d, err := runtime.ParseDevice(s)
			if err != nil {
				return nil, err
			}
			dev = d
		default:
			return nil, fmt.Errorf("unknown tensor field %q", key)
		}
	}
	if shape == nil {
		return nil, fmt.Errorf("tensor shape is required")
	}
	return runtime.EmptyNDArray(shape, dev, dtype)
}

// decodeSpan builds a span from {source, line, column, end_line, end_column}.
func decodeSpan(m map[string]any) (ir.Span, error) {
	var span ir.Span
	ints := map[string]*int{
		"line":       &span.Line,
		"column":     &span.Column,
		"end_line":   &span.EndLine,
		"end_column": &span.EndColumn,
	}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if key == "source" {
			s, ok := m[key].(string)
			if !ok {
				return ir.Span{}, fmt.Errorf("span source must be a string")
			}
			span.Source = s
			continue
		}
		dst, ok := ints[key]
		if !ok {
			return ir.Span{}, fmt.Errorf("unknown span field %q", key)
		}
		n, ok := asInt(m[key])
		if !ok {
			return ir.Span{}, fmt.Errorf("span %s must be an integer", key)
		}
		*dst = int(n)
	}
	return span, nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func releaseAll(objs []runtime.Object) {
	for _, o := range objs {
		runtime.Release(o)
	}
}
