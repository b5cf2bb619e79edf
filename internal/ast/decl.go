package ast

import (
	"strings"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
)

// Decl is the common interface of every named declaration: class,
// interface, field, method/constructor, and variable/parameter (spec.md §3).
type Decl interface {
	Node
	SimpleName() string
	FullyQualifiedName() string
	Modifiers() ModifierSet
	ParentDecl() Decl
	declNode()
}

// TypeDecl is the subset of Decl that can appear as a ReferenceType target:
// classes and interfaces.
type TypeDecl interface {
	Decl
	typeDeclNode()
	// Package returns the dotted package-name components this type was
	// declared under (nil for the default/unnamed package).
	Package() []string
}

// DeclBase holds the fields shared by every declaration kind.
type DeclBase struct {
	Simple string
	FQN    string
	Mods   ModifierSet
	Parent Decl
	Range  source.Position
}

func (d *DeclBase) SimpleName() string         { return d.Simple }
func (d *DeclBase) FullyQualifiedName() string { return d.FQN }
func (d *DeclBase) Modifiers() ModifierSet     { return d.Mods }
func (d *DeclBase) ParentDecl() Decl           { return d.Parent }
func (d *DeclBase) Pos() source.Position       { return d.Range }
func (d *DeclBase) declNode()                  {}

// ClassDecl is a class declaration: at most one super-class (implicitly
// java.lang.Object), any number of implemented interfaces, and ordered
// lists of fields/constructors/methods (source order, which the TIR
// builder's object-layout step and the hierarchy checker's duplicate
// checks both depend on).
type ClassDecl struct {
	DeclBase
	PkgName      []string
	SuperRef     *ReferenceType // nil for any class without an extends clause; Super then stays nil (no implicit java.lang.Object link)
	Interfaces   []*ReferenceType
	Fields       []*FieldDecl
	Constructors []*MethodDecl
	Methods      []*MethodDecl

	// Super is filled in by the type linker once SuperRef resolves; kept
	// separate from SuperRef so "no super yet" vs "resolved to Object" are
	// both representable without re-parsing SuperRef.
	Super TypeDecl
}

func (c *ClassDecl) typeDeclNode()     {}
func (c *ClassDecl) Package() []string { return c.PkgName }

// AllMembers returns constructors then methods, the order the hierarchy
// checker's local-duplicate check walks them in.
func (c *ClassDecl) AllMembers() []*MethodDecl {
	out := make([]*MethodDecl, 0, len(c.Constructors)+len(c.Methods))
	out = append(out, c.Constructors...)
	out = append(out, c.Methods...)
	return out
}

// InterfaceDecl is an interface declaration: any number of extended
// interfaces and abstract methods only (no fields, no bodies).
type InterfaceDecl struct {
	DeclBase
	PkgName  []string
	Extends  []*ReferenceType
	Methods  []*MethodDecl

	ExtendsResolved []TypeDecl
}

func (i *InterfaceDecl) typeDeclNode()     {}
func (i *InterfaceDecl) Package() []string { return i.PkgName }

// Signature is (simple name, ordered parameter-type fingerprint). Return
// type is deliberately excluded — spec.md's GLOSSARY is explicit that
// return type is not part of a signature.
type Signature struct {
	Name   string
	Params []Type
}

// Equals compares signatures by name (case-sensitive; Joos identifiers are
// case-sensitive, unlike the teacher's DWScript) and parameter types.
func (s Signature) Equals(o Signature) bool {
	if s.Name != o.Name || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteString("(")
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// MethodDecl covers both methods and constructors (IsConstructor
// distinguishes them). Interface methods and abstract methods have a nil
// Body.
type MethodDecl struct {
	DeclBase
	ReturnType    Type // Void for constructors and void methods
	Params        []*VarDecl
	Body          *Block // nil for abstract/interface/native methods
	IsConstructor bool

	// Owner is the enclosing ClassDecl/InterfaceDecl; duplicated from
	// DeclBase.Parent with the narrower TypeDecl type for convenience.
	Owner TypeDecl

	// DVColor is assigned by the dispatch-vector builder (component 9);
	// zero/unset for static methods and constructors, which do not
	// participate in dynamic dispatch.
	DVColor int

	// Label is the mangled assembly label assigned during TIR building.
	Label string
}

func (m *MethodDecl) Signature() Signature {
	params := make([]Type, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.DeclType
	}
	return Signature{Name: m.Simple, Params: params}
}

// VarDecl is a field, local variable, or parameter declaration. Param and
// the static/final flags are orthogonal: a field can be static+final, a
// parameter is always Param but never static.
type VarDecl struct {
	DeclBase
	DeclType Type
	Init     Expr // optional initializer; nil if absent
	IsParam  bool
	Index    int // parameter position, or field offset once laid out
}

// FieldDecl is a VarDecl owned directly by a class (never a parameter).
type FieldDecl = VarDecl

// Program is one compilation unit: optional package declaration, import
// declarations, and exactly one top-level type declaration (spec.md's CLI
// enforces file-name/class-name matching upstream, in the out-of-scope
// driver layer).
type Program struct {
	File     source.FileID
	Package  []string // nil for the default package
	Imports  []ImportDecl
	TypeDecl TypeDecl
}

func (p *Program) Pos() source.Position {
	return p.TypeDecl.Pos()
}

// ImportDecl is either a single-type import (`import p.T;`) or an
// on-demand import (`import p.*;`).
type ImportDecl struct {
	Path     []string
	OnDemand bool
	Range    source.Position
}

func (i ImportDecl) Pos() source.Position { return i.Range }
