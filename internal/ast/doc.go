// Package ast defines the Joos abstract syntax tree: an immutable-shape
// node graph with mutable resolution slots (spec.md §3). Every node owns
// its children exclusively; cross-references (super-class pointers,
// resolved types, resolved declarations) are non-owning back references
// filled in by later passes and committed at most once — re-committing a
// slot with a different value is a fatal internal error (see
// ReferenceType.SetDecl and ExprBase.SetType).
//
// The node set follows the teacher's Node/Expression/Statement interface
// idiom (internal/ast in the teacher repo) rather than a hand-rolled sum
// type: Go has no algebraic variants, so "closed variant set, exhaustive
// match" becomes "marker interface, type switch" throughout the resolver
// and code generator.
package ast
