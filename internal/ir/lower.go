package ir

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/relaxir/internal/runtime"
)

// DomainNDArray prefixes the digest of a constant's payload inside the
// canonical form, so large tensors do not bloat it.
const DomainNDArray = "relaxir/ndarray/v1"

// lowering turns a node tree into canonical values. Ids are numbered in the
// order the walk first reaches them, which makes names irrelevant and keeps
// sharing visible. Composite nodes are numbered the same way: a node reached
// a second time is written as {"ref": n}, so a DAG lowers in linear size.
type lowering struct {
	ids   map[*Id]int
	nodes map[runtime.Object]int
}

func newLowering() *lowering {
	return &lowering{
		ids:   make(map[*Id]int),
		nodes: make(map[runtime.Object]int),
	}
}

// backReferenced reports whether repeated occurrences of obj collapse to a
// reference. Vars are identified by their Id and leaves are written in full.
func backReferenced(obj runtime.Object) bool {
	switch obj.(type) {
	case *Id, *IntImm, *FloatImm, *StringImm, *DataTypeImm, *ObjectStructInfo, *runtime.NDArray:
		return false
	case interface{ AsVar() *Var }:
		return false
	}
	return true
}

func (l *lowering) id(id *Id) canonValue {
	n, ok := l.ids[id]
	if !ok {
		n = len(l.ids)
		l.ids[id] = n
	}
	return cInt(n)
}

func (l *lowering) lower(obj runtime.Object) (canonValue, error) {
	if runtime.IsNil(obj) {
		return nil, fmt.Errorf("cannot lower a nil object")
	}
	self := runtime.Self(obj)
	if n, ok := l.nodes[self]; ok {
		return cObject{"ref": cInt(n)}, nil
	}
	if backReferenced(self) {
		l.nodes[self] = len(l.nodes)
	}
	out := cObject{"kind": cString(runtime.TypeOf(obj))}

	var err error
	set := func(key string, o runtime.Object) {
		if err != nil || runtime.IsNil(o) {
			return
		}
		var v canonValue
		if v, err = l.lower(o); err == nil {
			out[key] = v
		} else {
			err = fmt.Errorf("%s.%s: %w", runtime.TypeOf(obj), key, err)
		}
	}
	setAll := func(key string, objs []runtime.Object) {
		arr := make(cArray, 0, len(objs))
		for i, o := range objs {
			if err != nil {
				return
			}
			var v canonValue
			if v, err = l.lower(o); err != nil {
				err = fmt.Errorf("%s.%s[%d]: %w", runtime.TypeOf(obj), key, i, err)
				return
			}
			arr = append(arr, v)
		}
		out[key] = arr
	}

	switch n := self.(type) {
	case *Id:
		out["id"] = l.id(n)
	case *IntImm:
		out["dtype"] = cString(n.dtype.String())
		out["value"] = cInt(n.value)
	case *FloatImm:
		out["dtype"] = cString(n.dtype.String())
		out["value"] = cString(strconv.FormatFloat(n.value, 'g', -1, 64))
	case *DictAttrs:
		entries, lerr := l.lowerEntries(n.entries)
		if lerr != nil {
			return nil, lerr
		}
		out["entries"] = entries
	case *runtime.NDArray:
		shape := make(cArray, 0, n.NDim())
		for _, d := range n.Shape() {
			shape = append(shape, cInt(d))
		}
		out["shape"] = shape
		out["dtype"] = cString(n.DType().String())
		out["device"] = cString(n.Device().String())
		out["data"] = cString(hashWithDomain(DomainNDArray, n.Bytes()))
	case *ObjectStructInfo:
	case *TensorStructInfo:
		set("shape", n.shape)
		if n.dtype != (runtime.DataType{}) {
			out["dtype"] = cString(n.dtype.String())
		}
		out["ndim"] = cInt(n.ndim)
	case *Call:
		set("op", n.op)
		setAll("args", objects(n.args))
		set("attrs", n.attrs)
		setAll("sinfo_args", objects(n.sinfoArgs))
	case *If:
		set("cond", n.cond)
		set("true_branch", n.trueBranch)
		set("false_branch", n.falseBranch)
	case *Tuple:
		setAll("fields", objects(n.fields))
	case *TupleGetItem:
		set("tuple", n.tuple)
		out["index"] = cInt(n.index)
	case *ShapeExpr:
		out["id"] = l.id(n.id)
		setAll("values", objects(n.values))
	case *Constant:
		set("data", n.data)
	case *PrimValue:
		set("value", n.value)
	case *StringImm:
		out["value"] = cString(n.value)
	case *DataTypeImm:
		out["value"] = cString(n.value.String())
	case *SeqExpr:
		setAll("blocks", objects(n.blocks))
		set("body", n.body)
	case *Function:
		setAll("params", objects(n.params))
		set("body", n.body)
		set("ret_struct_info", n.retStructInfo)
		out["is_pure"] = cBool(n.isPure)
		if n.attrs.Len() > 0 {
			set("attrs", n.attrs)
		}
	case *ExternFunc:
		out["global_symbol"] = cString(n.globalSymbol)
		if n.attrs.Len() > 0 {
			set("attrs", n.attrs)
		}
	case *VarBinding:
		set("var", n.v)
		set("value", n.value)
	case *MatchCast:
		set("var", n.v)
		set("value", n.value)
		set("struct_info", n.sinfo)
	case interface{ AsVar() *Var }:
		out["vid"] = l.id(n.AsVar().vid)
	case interface{ AsBindingBlock() *BindingBlock }:
		setAll("bindings", objects(n.AsBindingBlock().bindings))
	default:
		return nil, fmt.Errorf("no canonical form for %s", runtime.TypeOf(obj))
	}

	if e, ok := self.(Expr); ok {
		set("struct_info", e.StructInfo())
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *lowering) lowerEntries(m map[string]runtime.Value) (cObject, error) {
	out := make(cObject, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		cv, err := l.lowerValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("attr %q: %w", k, err)
		}
		out[k] = cv
	}
	return out, nil
}

// lowerValue tags every boxed kind that would otherwise be ambiguous with a
// string or a node.
func (l *lowering) lowerValue(v runtime.Value) (canonValue, error) {
	tagged := func(kind string, value canonValue) canonValue {
		return cObject{"kind": cString(kind), "value": value}
	}
	switch v.Kind() {
	case runtime.KindNull:
		return cObject{"kind": cString("null")}, nil
	case runtime.KindInt:
		n, _ := v.AsInt()
		return cInt(n), nil
	case runtime.KindFloat:
		f, _ := v.AsFloat()
		return tagged("float", cString(strconv.FormatFloat(f, 'g', -1, 64))), nil
	case runtime.KindBool:
		b, _ := v.AsBool()
		return cBool(b), nil
	case runtime.KindString:
		s, _ := v.AsString()
		return cString(s), nil
	case runtime.KindDataType:
		d, _ := v.AsDataType()
		return tagged("dtype", cString(d.String())), nil
	case runtime.KindDevice:
		d, _ := v.AsDevice()
		return tagged("device", cString(d.String())), nil
	case runtime.KindObject:
		o, _ := v.AsObject()
		return l.lower(o)
	case runtime.KindArray:
		elems, _ := v.AsArray()
		arr := make(cArray, len(elems))
		for i, e := range elems {
			cv, err := l.lowerValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return arr, nil
	case runtime.KindMap:
		m, _ := v.AsMap()
		entries, err := l.lowerEntries(m)
		if err != nil {
			return nil, err
		}
		return tagged("map", entries), nil
	}
	return nil, fmt.Errorf("%s value has no canonical form", v.Kind())
}

func objects[T runtime.Object](xs []T) []runtime.Object {
	out := make([]runtime.Object, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
