package trie

import (
	"fmt"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
)

// bindKind distinguishes what a simple name is bound to in an ImportContext.
type bindKind int

const (
	bindDecl bindKind = iota
	bindPackage
	bindAmbiguous
)

type binding struct {
	kind bindKind
	decl ast.TypeDecl
	pkg  []string
}

// ImportContext is the per-compilation-unit visible-name map of spec.md
// §4.1: a direct layer (same-package types, single-type imports, and the
// unit's own type) consulted first, then an on-demand layer built from
// import-on-demand packages (including the implicit java.lang.*).
type ImportContext struct {
	direct    map[string]binding
	onDemand  map[string]binding
	built     bool
}

// BuildImportContext implements spec.md §4.1's three-step construction.
func BuildImportContext(t *Trie, pkg []string, unitType ast.TypeDecl, singleImports [][]string, onDemandImports [][]string) (*ImportContext, error) {
	ctx := &ImportContext{direct: map[string]binding{}, onDemand: map[string]binding{}}

	// Step 1: same-package declarations, plus the unit's own top-level type.
	for name, decl := range t.Children(pkg) {
		ctx.direct[name] = binding{kind: bindDecl, decl: decl}
	}
	if unitType != nil {
		ctx.direct[unitType.SimpleName()] = binding{kind: bindDecl, decl: unitType}
	}

	// Step 2: single-type imports.
	for _, path := range singleImports {
		res := t.Lookup(path)
		if res.Decl == nil {
			return nil, fmt.Errorf("cannot resolve imported type %v", path)
		}
		name := path[len(path)-1]
		if existing, ok := ctx.direct[name]; ok && existing.kind == bindDecl && existing.decl != res.Decl {
			return nil, fmt.Errorf("single-type import %q collides with a different declaration already bound", name)
		}
		ctx.direct[name] = binding{kind: bindDecl, decl: res.Decl}
	}

	// Step 3: on-demand imports, implicitly including java.lang.*.
	allOnDemand := append([][]string{{"java", "lang"}}, onDemandImports...)
	for _, pkgPath := range allOnDemand {
		for name, decl := range t.Children(pkgPath) {
			if _, inDirect := ctx.direct[name]; inDirect {
				continue // direct layer always wins
			}
			existing, ok := ctx.onDemand[name]
			if !ok {
				ctx.onDemand[name] = binding{kind: bindDecl, decl: decl}
			} else if existing.kind == bindDecl && existing.decl != decl {
				ctx.onDemand[name] = binding{kind: bindAmbiguous}
			}
		}
	}

	ctx.built = true
	return ctx, nil
}

// Resolve looks up name, consulting the direct layer first. The second
// return value is false if nothing binds name at all; an "ambiguous"
// binding resolves successfully here and only becomes an error when the
// caller (the type linker or name resolver) actually uses it — see
// ResolveOrError.
func (c *ImportContext) Resolve(name string) (ast.TypeDecl, bool) {
	if b, ok := c.direct[name]; ok && b.kind == bindDecl {
		return b.decl, true
	}
	if b, ok := c.onDemand[name]; ok && b.kind == bindDecl {
		return b.decl, true
	}
	return nil, false
}

// ResolveOrError is like Resolve but turns an ambiguous on-demand binding
// into an error at the point of use, matching spec.md §4.1's "an
// 'ambiguous' result is an error only when that name is actually used."
func (c *ImportContext) ResolveOrError(name string) (ast.TypeDecl, error) {
	if b, ok := c.direct[name]; ok {
		return b.decl, nil
	}
	if b, ok := c.onDemand[name]; ok {
		if b.kind == bindAmbiguous {
			return nil, fmt.Errorf("%q is ambiguous between multiple on-demand imports", name)
		}
		return b.decl, nil
	}
	return nil, fmt.Errorf("%q is not bound by any import", name)
}
