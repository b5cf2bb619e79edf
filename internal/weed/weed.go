// Package weed implements the post-parse sanity checks a grammar alone
// cannot express (spec.md §7's "weeder" phase): modifier-combination rules
// and the handful of class/interface shape constraints Joos imposes beyond
// what parser.go's grammar already enforces. Grounded directly on
// original_source/src/weeder/weeder.cpp's checkClassConstraints/
// checkMethodConstraints/checkFieldConstraints/checkInterfaceConstraints,
// re-expressed as diagnostics instead of thrown exceptions.
package weed

import (
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
)

// Check runs every weeding rule against one compilation unit's top-level
// type declaration and returns every violation found (it does not stop at
// the first, matching the rest of the pipeline's accumulate-then-report
// style).
func Check(prog *ast.Program) []*diag.Diagnostic {
	var ds []*diag.Diagnostic
	switch d := prog.TypeDecl.(type) {
	case *ast.ClassDecl:
		ds = append(ds, checkClass(d)...)
	case *ast.InterfaceDecl:
		ds = append(ds, checkInterface(d)...)
	}
	return ds
}

func checkClass(c *ast.ClassDecl) []*diag.Diagnostic {
	var ds []*diag.Diagnostic
	pos := c.Pos()

	if c.Modifiers().IsAbstract() && c.Modifiers().IsFinal() {
		ds = append(ds, diag.New(diag.PhaseWeeder, pos, "class %q cannot be both abstract and final", c.SimpleName()))
	}
	if len(c.Constructors) == 0 {
		ds = append(ds, diag.New(diag.PhaseWeeder, pos, "class %q must declare at least one explicit constructor", c.SimpleName()))
	}

	for _, f := range c.Fields {
		ds = append(ds, checkField(f)...)
	}
	for _, m := range c.AllMembers() {
		ds = append(ds, checkMethod(m)...)
	}
	return ds
}

func checkInterface(i *ast.InterfaceDecl) []*diag.Diagnostic {
	var ds []*diag.Diagnostic
	for _, m := range i.Methods {
		mods := m.Modifiers()
		if mods.IsStatic() || mods.IsFinal() || mods.IsNative() {
			ds = append(ds, diag.New(diag.PhaseWeeder, m.Pos(),
				"interface method %q cannot be static, final, or native", m.SimpleName()))
		}
		if m.Body != nil {
			ds = append(ds, diag.New(diag.PhaseWeeder, m.Pos(),
				"interface method %q cannot have a body", m.SimpleName()))
		}
	}
	return ds
}

func checkField(f *ast.FieldDecl) []*diag.Diagnostic {
	var ds []*diag.Diagnostic
	if f.Modifiers().IsFinal() {
		ds = append(ds, diag.New(diag.PhaseWeeder, f.Pos(), "field %q cannot be final", f.SimpleName()))
	}
	return ds
}

func checkMethod(m *ast.MethodDecl) []*diag.Diagnostic {
	var ds []*diag.Diagnostic
	mods := m.Modifiers()

	if (mods.IsAbstract() || mods.IsNative()) && m.Body != nil {
		ds = append(ds, diag.New(diag.PhaseWeeder, m.Pos(), "abstract or native method %q cannot have a body", m.SimpleName()))
	}
	if m.Body == nil && !mods.IsAbstract() && !mods.IsNative() {
		ds = append(ds, diag.New(diag.PhaseWeeder, m.Pos(), "method %q must have a body unless abstract or native", m.SimpleName()))
	}
	if mods.IsAbstract() && (mods.IsStatic() || mods.IsFinal()) {
		ds = append(ds, diag.New(diag.PhaseWeeder, m.Pos(), "abstract method %q cannot be static or final", m.SimpleName()))
	}
	if mods.IsStatic() && mods.IsFinal() {
		ds = append(ds, diag.New(diag.PhaseWeeder, m.Pos(), "static method %q cannot be final", m.SimpleName()))
	}
	if mods.IsNative() && !mods.IsStatic() {
		ds = append(ds, diag.New(diag.PhaseWeeder, m.Pos(), "native method %q must be static", m.SimpleName()))
	}
	return ds
}
