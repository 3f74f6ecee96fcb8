// Package ir defines the Relax IR node hierarchy: identifiers, struct info,
// expressions, bindings, blocks and functions.
//
// Every node is a runtime.Object. Abstract kinds (Expr, LeafExpr, StructInfo,
// Binding, BaseFunc, PrimExpr) are Go interfaces backed by an embedded base
// struct; concrete kinds are structs that embed their parent's struct. A pointer
// to a node therefore converts to any ancestor view without copying, and
// runtime.Downcast recovers the narrower view after checking the type tag.
//
// Nodes are built only through the New* constructors. A constructor either
// returns a fully built node that owns a reference to each child, or a nil node
// and an *InvalidArgumentError. Fields are unexported and never change after
// construction; accessors that return slices return copies.
//
// ir imports only internal/runtime, so every other internal package may
// depend on it.
package ir
