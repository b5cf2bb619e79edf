package ast

import "strings"

// TypeKind discriminates the type value variants of spec.md §3: primitive,
// string, reference, array, and method. Type itself is a closed interface
// rather than an algebraic sum only because Go has no sum types; every
// consumer is expected to switch over Kind() exhaustively, the same way the
// teacher's evaluator dispatches over ast.Node concrete types.
type TypeKind int

const (
	KindBoolean TypeKind = iota
	KindByte
	KindShort
	KindInt
	KindChar
	KindNull
	KindVoid
	KindString
	KindReference
	KindArray
	KindMethod
)

// Type is a discriminated type value. Every Type tracks whether it has been
// committed into a resolution slot (Resolved); committing an unresolved
// type into a slot is a fatal internal error (spec.md §3 Invariants).
type Type interface {
	Kind() TypeKind
	String() string
	Resolved() bool
	// Equals reports structural/nominal type identity, used by Equals-style
	// checks throughout the resolver (signature comparison, isAssignableTo).
	Equals(other Type) bool
}

// PrimitiveType covers boolean/byte/short/int/char/null/void. Primitives are
// always resolved; there is nothing left to link.
type PrimitiveType struct {
	kind TypeKind
}

var (
	Boolean = &PrimitiveType{kind: KindBoolean}
	Byte    = &PrimitiveType{kind: KindByte}
	Short   = &PrimitiveType{kind: KindShort}
	Int     = &PrimitiveType{kind: KindInt}
	Char    = &PrimitiveType{kind: KindChar}
	Null    = &PrimitiveType{kind: KindNull}
	Void    = &PrimitiveType{kind: KindVoid}
)

func (p *PrimitiveType) Kind() TypeKind { return p.kind }
func (p *PrimitiveType) Resolved() bool { return true }
func (p *PrimitiveType) String() string {
	switch p.kind {
	case KindBoolean:
		return "boolean"
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindChar:
		return "char"
	case KindNull:
		return "null"
	case KindVoid:
		return "void"
	default:
		return "<primitive>"
	}
}
func (p *PrimitiveType) Equals(other Type) bool {
	o, ok := other.(*PrimitiveType)
	return ok && o.kind == p.kind
}

// numericWidth orders the widening lattice byte < short < int, char < int;
// byte and char are incomparable (spec.md §4.4 Assignability). Returns -1
// for non-numeric kinds.
func numericWidth(k TypeKind) int {
	switch k {
	case KindByte:
		return 1
	case KindShort:
		return 2
	case KindChar:
		return 3 // incomparable with byte/short; only ever compared against int below
	case KindInt:
		return 4
	default:
		return -1
	}
}

// IsWiderNumeric reports whether to is reachable from from by implicit
// widening: byte->short->int, char->int. byte/char are never mutually
// widenable.
func IsWiderNumeric(from, to TypeKind) bool {
	if from == to {
		return true
	}
	if from == KindChar {
		return to == KindInt
	}
	if to == KindChar {
		return false
	}
	fw, tw := numericWidth(from), numericWidth(to)
	if fw < 0 || tw < 0 {
		return false
	}
	return fw <= tw
}

// IsNumeric reports whether k is one of the integral primitive kinds.
func IsNumeric(k TypeKind) bool {
	return k == KindByte || k == KindShort || k == KindInt || k == KindChar
}

// StringType is distinguished from java.lang.String but assignment
// compatible with it (spec.md §3).
type StringType struct{}

var String = &StringType{}

func (s *StringType) Kind() TypeKind { return KindString }
func (s *StringType) Resolved() bool { return true }
func (s *StringType) String() string { return "String" }
func (s *StringType) Equals(other Type) bool {
	_, ok := other.(*StringType)
	return ok
}

// ReferenceType carries a pointer to the resolved declaration once linked.
// A freshly parsed reference type starts unresolved (decl == nil); the type
// linker commits Decl exactly once (spec.md §4.2).
type ReferenceType struct {
	Name []string // syntactic identifier sequence, pre-resolution
	decl TypeDecl
}

// NewUnresolvedReferenceType builds a ReferenceType awaiting linking.
func NewUnresolvedReferenceType(name []string) *ReferenceType {
	return &ReferenceType{Name: name}
}

func (r *ReferenceType) Kind() TypeKind { return KindReference }
func (r *ReferenceType) Resolved() bool { return r.decl != nil }
func (r *ReferenceType) String() string {
	if r.decl != nil {
		return r.decl.FullyQualifiedName()
	}
	return strings.Join(r.Name, ".")
}
func (r *ReferenceType) Equals(other Type) bool {
	o, ok := other.(*ReferenceType)
	return ok && r.decl != nil && o.decl != nil && r.decl == o.decl
}

// Decl returns the resolved declaration, or nil if unresolved.
func (r *ReferenceType) Decl() TypeDecl { return r.decl }

// SetDecl commits the resolved declaration. Re-assigning with a different
// declaration is a fatal internal error per spec.md §3 Invariants.
func (r *ReferenceType) SetDecl(d TypeDecl) {
	if r.decl != nil && r.decl != d {
		panic("internal error: type slot re-assigned with a different declaration")
	}
	r.decl = d
}

// ArrayType carries the element type; array types nest to express multi
// dimensional arrays as arrays of arrays.
type ArrayType struct {
	Elem Type
}

func NewArrayType(elem Type) *ArrayType { return &ArrayType{Elem: elem} }

func (a *ArrayType) Kind() TypeKind { return KindArray }
func (a *ArrayType) Resolved() bool { return a.Elem.Resolved() }
func (a *ArrayType) String() string { return a.Elem.String() + "[]" }
func (a *ArrayType) Equals(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && a.Elem.Equals(o.Elem)
}

// MethodType is a return type + parameter types, interned by signature so
// two methods with the same shape share one MethodType value.
type MethodType struct {
	ReturnType Type
	Params     []Type
}

func (m *MethodType) Kind() TypeKind { return KindMethod }
func (m *MethodType) Resolved() bool {
	if !m.ReturnType.Resolved() {
		return false
	}
	for _, p := range m.Params {
		if !p.Resolved() {
			return false
		}
	}
	return true
}
func (m *MethodType) String() string {
	var sb strings.Builder
	sb.WriteString(m.ReturnType.String())
	sb.WriteString(" (")
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	return sb.String()
}
func (m *MethodType) Equals(other Type) bool {
	o, ok := other.(*MethodType)
	if !ok || len(m.Params) != len(o.Params) || !m.ReturnType.Equals(o.ReturnType) {
		return false
	}
	for i := range m.Params {
		if !m.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	return true
}

// IsSubtype reports whether sub is super itself, or transitively extends/
// implements super via the superclass chain and implemented/extended
// interfaces (spec.md §4.3's hierarchy, walked the same way
// internal/hierarchy walks "parents").
func IsSubtype(sub, super TypeDecl) bool {
	if sub == super {
		return true
	}
	switch d := sub.(type) {
	case *ClassDecl:
		if d.Super != nil && IsSubtype(d.Super, super) {
			return true
		}
		for _, iface := range d.Interfaces {
			if decl := iface.Decl(); decl != nil && IsSubtype(decl, super) {
				return true
			}
		}
	case *InterfaceDecl:
		for _, ext := range d.ExtendsResolved {
			if IsSubtype(ext, super) {
				return true
			}
		}
	}
	return false
}

// IsAssignableTo reports whether a value of type from may be assigned to a
// variable of type to, per spec.md §4.4's Assignability rule: identity,
// numeric widening (byte->short->int, char->int), null assignable to any
// reference/array/String type, and reference/array subtyping.
func IsAssignableTo(from, to Type) bool {
	if from.Equals(to) {
		return true
	}
	if IsNumeric(from.Kind()) && IsNumeric(to.Kind()) {
		return IsWiderNumeric(from.Kind(), to.Kind())
	}
	if from.Kind() == KindNull {
		return IsReferenceLike(to) && to.Kind() != KindNull
	}
	if from.Kind() == KindString || to.Kind() == KindString {
		return false // String.Equals already covered identity above
	}
	if fa, ok := from.(*ArrayType); ok {
		if tr, ok := to.(*ReferenceType); ok && tr.decl != nil {
			switch tr.decl.FullyQualifiedName() {
			case "java.lang.Object", "java.lang.Cloneable", "java.lang.Serializable":
				return true
			}
			return false
		}
		ta, ok2 := to.(*ArrayType)
		if !ok2 {
			return false
		}
		if IsReferenceLike(fa.Elem) && IsReferenceLike(ta.Elem) {
			return IsAssignableTo(fa.Elem, ta.Elem)
		}
		return fa.Elem.Equals(ta.Elem)
	}
	fr, fok := from.(*ReferenceType)
	tr, tok := to.(*ReferenceType)
	if fok && tok && fr.decl != nil && tr.decl != nil {
		return IsSubtype(fr.decl, tr.decl)
	}
	return false
}

// IsValidCast reports whether an explicit cast from "from" to "to" is
// permitted at compile time (spec.md §4.4 / §7's "bad cast"): numeric
// widening/narrowing between any two numeric types, null against any
// reference-like type, array casts with identical element types, and
// reference casts either up or down the subtype chain. Casts touching an
// interface on either side are always allowed, since Joos's single-root
// hierarchy cannot statically rule out a class later implementing an
// unrelated interface.
func IsValidCast(from, to Type) bool {
	if from.Equals(to) {
		return true
	}
	if IsNumeric(from.Kind()) && IsNumeric(to.Kind()) {
		return true
	}
	if from.Kind() == KindNull || to.Kind() == KindNull {
		return IsReferenceLike(to) || IsReferenceLike(from)
	}
	if fa, ok := from.(*ArrayType); ok {
		ta, ok2 := to.(*ArrayType)
		return ok2 && fa.Elem.Equals(ta.Elem)
	}
	fr, fok := from.(*ReferenceType)
	tr, tok := to.(*ReferenceType)
	if fok && tok && fr.decl != nil && tr.decl != nil {
		if _, ok := fr.decl.(*InterfaceDecl); ok {
			return true
		}
		if _, ok := tr.decl.(*InterfaceDecl); ok {
			return true
		}
		return IsSubtype(fr.decl, tr.decl) || IsSubtype(tr.decl, fr.decl)
	}
	return false
}

// IsReferenceLike reports whether t is a reference, array, or string type
// (i.e. not a primitive and not void) — used wherever the spec speaks of
// "reference types" generically (instanceof, ==/!= cast-compatibility).
func IsReferenceLike(t Type) bool {
	switch t.Kind() {
	case KindReference, KindArray, KindString, KindNull:
		return true
	default:
		return false
	}
}
