// Package typelink implements the type linker (spec.md §4.2, component 3):
// it walks every ReferenceType in a compilation unit's declarations and
// commits its resolution slot against the package trie + import context
// built for that unit (internal/trie), mirroring the teacher's two-phase
// "parse everything, then link names" pipeline structure
// (internal/semantic/analyze_classes.go resolves supertypes only after
// every unit's top-level declaration has been registered).
package typelink

import (
	"fmt"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
	"go.uber.org/multierr"
)

// Unit bundles one compilation unit's program with the package trie and
// import context it resolves names against.
type Unit struct {
	Program *ast.Program
	Trie    *trie.Trie
	Imports *trie.ImportContext
}

// Linker resolves every ReferenceType reachable from a set of units.
type Linker struct {
	units []Unit
}

func New(units []Unit) *Linker {
	return &Linker{units: units}
}

// Link resolves supertypes, implemented-interface lists, and field/
// parameter/return types (through array element types) for every unit.
// Local-variable, cast and instanceof types are linked later by
// internal/resolve. Failures across units accumulate rather than stopping
// at the first (spec.md §9: type-linking runs to completion across the whole
// program before hierarchy checking starts).
func (l *Linker) Link() []*diag.Diagnostic {
	var diags []*diag.Diagnostic
	for _, u := range l.units {
		if err := l.linkUnit(u); err != nil {
			diags = append(diags, toDiagnostics(u.Program, err)...)
		}
	}
	return diags
}

func (l *Linker) linkUnit(u Unit) error {
	var errs error
	switch d := u.Program.TypeDecl.(type) {
	case *ast.ClassDecl:
		errs = multierr.Append(errs, l.linkClass(u, d))
	case *ast.InterfaceDecl:
		errs = multierr.Append(errs, l.linkInterface(u, d))
	}
	return errs
}

func (l *Linker) linkClass(u Unit, c *ast.ClassDecl) error {
	var errs error
	if c.SuperRef != nil {
		errs = multierr.Append(errs, l.linkRef(u, c.SuperRef))
		c.Super = c.SuperRef.Decl()
	}
	for _, iface := range c.Interfaces {
		errs = multierr.Append(errs, l.linkRef(u, iface))
	}
	for _, f := range c.Fields {
		errs = multierr.Append(errs, l.linkType(u, f.DeclType))
	}
	for _, m := range c.AllMembers() {
		errs = multierr.Append(errs, l.linkMethod(u, m))
	}
	return errs
}

func (l *Linker) linkInterface(u Unit, i *ast.InterfaceDecl) error {
	var errs error
	i.ExtendsResolved = i.ExtendsResolved[:0]
	for _, ext := range i.Extends {
		if err := l.linkRef(u, ext); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		i.ExtendsResolved = append(i.ExtendsResolved, ext.Decl())
	}
	for _, m := range i.Methods {
		errs = multierr.Append(errs, l.linkMethod(u, m))
	}
	return errs
}

func (l *Linker) linkMethod(u Unit, m *ast.MethodDecl) error {
	var errs error
	errs = multierr.Append(errs, l.linkType(u, m.ReturnType))
	for _, p := range m.Params {
		errs = multierr.Append(errs, l.linkType(u, p.DeclType))
	}
	return errs
}

// linkType resolves every ReferenceType reachable through array nesting.
func (l *Linker) linkType(u Unit, t ast.Type) error {
	switch tt := t.(type) {
	case *ast.ReferenceType:
		return l.linkRef(u, tt)
	case *ast.ArrayType:
		return l.linkType(u, tt.Elem)
	default:
		return nil
	}
}

func (l *Linker) linkRef(u Unit, ref *ast.ReferenceType) error {
	if ref.Resolved() {
		return nil
	}
	decl, err := l.resolveName(u, ref.Name)
	if err != nil {
		return err
	}
	ref.SetDecl(decl)
	return nil
}

// resolveName implements spec.md §4.2's lookup order: a single segment
// consults the unit's import context (own package, single-type imports,
// on-demand imports including java.lang); a multi-segment name is a
// fully-qualified reference looked up directly in the package trie.
func (l *Linker) resolveName(u Unit, name []string) (ast.TypeDecl, error) {
	if len(name) == 1 {
		decl, err := u.Imports.ResolveOrError(name[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name[0], err)
		}
		return decl, nil
	}
	res := u.Trie.Lookup(name)
	if res.Decl == nil {
		return nil, fmt.Errorf("cannot resolve fully-qualified type %v", name)
	}
	return res.Decl, nil
}

func toDiagnostics(prog *ast.Program, err error) []*diag.Diagnostic {
	var out []*diag.Diagnostic
	for _, e := range multierr.Errors(err) {
		out = append(out, diag.New(diag.PhaseTypeLink, prog.Pos(), "%v", e))
	}
	return out
}
