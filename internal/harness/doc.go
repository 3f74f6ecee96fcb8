// Package harness runs scripted node-construction scenarios against a bridge.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: call_op_identity
//	description: "A call keeps the exact op object it was built with"
//	steps:
//	  - bind: op
//	    call: relax.Var
//	    args: { name_hint: op }
//	  - bind: c
//	    call: relax.Call
//	    args: { op: $op, args: [], sinfo_args: [] }
//	  - call: relax.TupleGetItem
//	    args: { tuple: $c, index: -1 }
//	    expect_error: engine_error
//	assertions:
//	  - type: same
//	    refs: [c.op, op]
//
// Arguments are keyed by parameter name; omitted ones are passed as null.
// A string starting with "$" references a binding, optionally followed by
// field selectors such as $c.op or $f.params[0].vid. Tensors are written as
// { shape: [1, 2, 3], dtype: float32 } and spans as
// { source: f.py, line: 1, column: 1, end_line: 1, end_column: 4 }.
//
// # Assertion Types
//
//   - is_a, not_is_a: ref against a registered type key
//   - same, distinct: object identity across refs
//   - equal_fingerprint: structural equality up to variable renaming
//   - name_hint: the name hint of a Var or Id
//   - shape: the shape of a tensor
//
// Golden traces (RunWithGolden) list one line per step with the result type
// or failure outcome, so they stay stable across fingerprint changes.
package harness
