// Package compiler wires every compilation pass into the single pipeline
// spec.md §9 describes: lex -> parse -> weed -> type-link -> hierarchy ->
// resolve -> reachability/dead-assignment -> TIR -> dispatch -> codegen,
// stopping at the first pass that reports a user-kind diagnostic and
// aggregating diagnostics within a pass instead of stopping at its first
// error. Grounded on the teacher's own cmd/dwscript pipeline (which
// threads a single compile context through lex -> parse -> semantic ->
// bytecode stages, stopping early on a failed stage) and on
// original_source/driver/joosc/main.cpp's stage ordering.
package compiler

import (
	"path/filepath"
	"strings"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/cfg"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/codegen"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/dispatch"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/hierarchy"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/parser"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/resolve"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/tir"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/typelink"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/weed"
)

// FileInput is one source file as read from disk by the caller (cmd/joosc).
type FileInput struct {
	Name    string // as given on the command line
	Content string
}

// Result is everything the CLI needs to report: every diagnostic collected
// across the run, the derived exit code, and (only on success) the
// assembled output text.
type Result struct {
	Diagnostics []*diag.Diagnostic
	ExitCode    int
	Assembly    string
}

// Compile runs the full pipeline over files and returns the aggregated
// result. mgr must already have nothing registered under it; Compile
// registers every file itself so diagnostics can resolve back to source
// text for formatting.
func Compile(mgr *source.Manager, files []FileInput) *Result {
	var units []unit
	var diags []*diag.Diagnostic

	for _, f := range files {
		id := mgr.Register(f.Name, f.Content)
		toks, illegals := lexer.Tokenize(id, f.Content)
		for _, ill := range illegals {
			diags = append(diags, diag.New(diag.PhaseParse, ill.Pos, "%s", ill.Message))
		}
		p := parser.New(id, toks)
		prog, pdiags := p.Parse()
		diags = append(diags, pdiags...)
		if prog == nil || prog.TypeDecl == nil {
			continue
		}
		diags = append(diags, weed.Check(prog)...)
		diags = append(diags, checkFileNameMatchesType(f.Name, prog)...)
		units = append(units, unit{prog: prog})
	}
	if hasUserOrInternal(diags) {
		return finish(diags, "")
	}

	// Build the shared package trie: java.lang stubs first, then every
	// user type (spec.md §3: all top-level types across all compilation
	// units are visible to each other regardless of file order).
	t := trie.New()
	jl := ast.BuildJavaLang()
	if err := trie.InsertJavaLang(t, jl); err != nil {
		return finish(append(diags, diag.Internal(diag.PhaseTypeLink, "%v", err)), "")
	}
	for _, u := range units {
		path := append(append([]string{}, u.prog.TypeDecl.Package()...), u.prog.TypeDecl.SimpleName())
		if err := t.Insert(path, u.prog.TypeDecl); err != nil {
			diags = append(diags, diag.New(diag.PhaseTypeLink, u.prog.Pos(), "%v", err))
		}
	}
	if hasUserOrInternal(diags) {
		return finish(diags, "")
	}

	// Build each unit's import context.
	for i := range units {
		u := &units[i]
		var single, onDemand [][]string
		for _, imp := range u.prog.Imports {
			if imp.OnDemand {
				onDemand = append(onDemand, imp.Path)
			} else {
				single = append(single, imp.Path)
			}
		}
		ctx, err := trie.BuildImportContext(t, u.prog.TypeDecl.Package(), u.prog.TypeDecl, single, onDemand)
		if err != nil {
			diags = append(diags, diag.New(diag.PhaseTypeLink, u.prog.Pos(), "%v", err))
			continue
		}
		u.trie = t
		u.imports = ctx
	}
	if hasUserOrInternal(diags) {
		return finish(diags, "")
	}

	linker := newTypeLinker(units)
	diags = append(diags, linker.Link()...)
	if hasUserOrInternal(diags) {
		return finish(diags, "")
	}

	var allTypes []ast.TypeDecl
	var classes []*ast.ClassDecl
	for _, u := range units {
		allTypes = append(allTypes, u.prog.TypeDecl)
		if c, ok := u.prog.TypeDecl.(*ast.ClassDecl); ok {
			classes = append(classes, c)
		}
	}

	hc := hierarchy.New(allTypes)
	diags = append(diags, hc.Check()...)
	if hasUserOrInternal(diags) {
		return finish(diags, "")
	}

	diags = append(diags, resolve.Resolve(newResolveUnits(units))...)
	if hasUserOrInternal(diags) {
		return finish(diags, "")
	}

	cfgChecker := cfg.New()
	for _, c := range classes {
		for _, m := range c.AllMembers() {
			diags = append(diags, cfgChecker.CheckMethod(m)...)
		}
	}
	if hasUserOrInternal(diags) {
		return finish(diags, "")
	}

	asm, err := generateAssembly(classes)
	if err != nil {
		diags = append(diags, diag.Internal(diag.PhaseCodegen, "%v", err))
		return finish(diags, "")
	}
	return finish(diags, asm)
}

type unit struct {
	prog    *ast.Program
	trie    *trie.Trie
	imports *trie.ImportContext
}

// newTypeLinker and newResolveUnits translate this package's internal unit
// bookkeeping into the two downstream packages' own Unit types, which are
// structurally identical but kept as distinct exported types in each
// package (internal/typelink, internal/resolve) so neither pass depends on
// the other's package for its own public API.
func newTypeLinker(units []unit) *typelink.Linker {
	out := make([]typelink.Unit, len(units))
	for i, u := range units {
		out[i] = typelink.Unit{Program: u.prog, Trie: u.trie, Imports: u.imports}
	}
	return typelink.New(out)
}

func newResolveUnits(units []unit) []resolve.Unit {
	out := make([]resolve.Unit, len(units))
	for i, u := range units {
		out[i] = resolve.Unit{Program: u.prog, Trie: u.trie, Imports: u.imports}
	}
	return out
}

func hasUserOrInternal(diags []*diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Kind == diag.KindUser || d.Kind == diag.KindInternal {
			return true
		}
	}
	return false
}

func finish(diags []*diag.Diagnostic, asm string) *Result {
	return &Result{Diagnostics: diags, ExitCode: diag.ExitCode(diags), Assembly: asm}
}

// checkFileNameMatchesType enforces spec.md §6's "top-level type's simple
// name must equal its file stem" rule; this is a user error, not an
// internal one, since it is entirely under the programmer's control.
func checkFileNameMatchesType(fileName string, prog *ast.Program) []*diag.Diagnostic {
	stem := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if prog.TypeDecl.SimpleName() != stem {
		return []*diag.Diagnostic{diag.New(diag.PhaseWeeder, prog.Pos(),
			"top-level type %q must match its file name %q", prog.TypeDecl.SimpleName(), filepath.Base(fileName))}
	}
	return nil
}

func generateAssembly(classes []*ast.ClassDecl) (string, error) {
	builder := tir.NewBuilder(classes)
	builder.BuildLayouts()

	dvBuilder := dispatch.New(classes)
	dvBuilder.Build()

	var methods []*tir.Method
	for _, c := range classes {
		for _, m := range c.AllMembers() {
			if tm := builder.BuildMethod(c, m); tm != nil {
				methods = append(methods, tm)
			}
		}
	}
	methods = append(methods, builder.RuntimeHelperMethods()...)

	layouts := builder.Layouts()
	for i, c := range classes {
		layouts[i].DispatchVector = dispatch.DispatchVector(c, builder.MethodLabel)
	}

	program := &tir.Program{Methods: methods, Classes: layouts}
	tir.Canonicalize(program)

	e := codegen.NewEmitter()
	e.EmitProgram(program, builder.StringLiterals())
	return e.String(), nil
}
