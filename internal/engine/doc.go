// Package engine is the in-process evaluator behind the call bridge.
//
// Local holds a table of packed functions keyed by entry point name. Each
// builtin decodes its positional arguments, calls the matching ir
// constructor and hands the new node back with one strong reference.
//
// Failures are reported as *Error values with a code:
//   - UNKNOWN_FUNCTION: no function is registered under the name
//   - BAD_ARGUMENT: an argument has the wrong kind or node type
//   - CONSTRUCTION_FAILED: the ir constructor rejected its inputs
//   - NO_SHAPE: GetShapeOf found no shape for the expression
//
// New checks the ir vocabulary against the CUE schema in package schema and
// refuses to build an engine when the two disagree.
package engine
