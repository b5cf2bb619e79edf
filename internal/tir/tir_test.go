package tir

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/hierarchy"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/parser"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/resolve"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/typelink"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildClasses runs the full front-end pipeline (parse, link, hierarchy,
// resolve) over srcs and returns the resolved *ast.ClassDecl list, ready
// for lowering — the same preparation internal/compiler.generateAssembly
// does before constructing a Builder.
func buildClasses(t *testing.T, srcs ...string) []*ast.ClassDecl {
	t.Helper()
	tr := trie.New()
	jl := ast.BuildJavaLang()
	require.NoError(t, trie.InsertJavaLang(tr, jl))

	var progs []*ast.Program
	for i, src := range srcs {
		toks, illegal := lexer.Tokenize(source.FileID(i), src)
		require.Empty(t, illegal)
		prog, diags := parser.New(source.FileID(i), toks).Parse()
		require.Empty(t, diags, "%v", diags)
		require.NoError(t, tr.Insert(append(append([]string{}, prog.TypeDecl.Package()...), prog.TypeDecl.SimpleName()), prog.TypeDecl))
		progs = append(progs, prog)
	}

	var tlUnits []typelink.Unit
	var rUnits []resolve.Unit
	var classes []*ast.ClassDecl
	for _, prog := range progs {
		ctx, err := trie.BuildImportContext(tr, prog.TypeDecl.Package(), prog.TypeDecl, nil, nil)
		require.NoError(t, err)
		tlUnits = append(tlUnits, typelink.Unit{Program: prog, Trie: tr, Imports: ctx})
		rUnits = append(rUnits, resolve.Unit{Program: prog, Trie: tr, Imports: ctx})
		classes = append(classes, prog.TypeDecl.(*ast.ClassDecl))
	}
	require.Empty(t, typelink.New(tlUnits).Link())
	require.Empty(t, hierarchy.New(toTypeDecls(classes)).Check())
	require.Empty(t, resolve.Resolve(rUnits))
	return classes
}

func toTypeDecls(classes []*ast.ClassDecl) []ast.TypeDecl {
	out := make([]ast.TypeDecl, len(classes))
	for i, c := range classes {
		out[i] = c
	}
	return out
}

func TestBuildLayouts_SubclassExtendsParentFieldOffsets(t *testing.T) {
	classes := buildClasses(t,
		`public class Base { public int a; public Base() {} }`,
		`public class Derived extends Base { public int b; public Derived() {} }`,
	)
	b := NewBuilder(classes)
	b.BuildLayouts()

	baseLayout := b.Layout(classes[0])
	derivedLayout := b.Layout(classes[1])

	require.Contains(t, baseLayout.FieldOffsets, "a")
	require.Contains(t, derivedLayout.FieldOffsets, "a")
	require.Contains(t, derivedLayout.FieldOffsets, "b")
	assert.Equal(t, baseLayout.FieldOffsets["a"], derivedLayout.FieldOffsets["a"],
		"inherited field keeps its ancestor's offset")
	assert.Greater(t, derivedLayout.InstanceSize, baseLayout.InstanceSize)
}

func TestBuildLayouts_StaticFieldsExcludedFromInstanceSize(t *testing.T) {
	classes := buildClasses(t, `
		public class Foo {
			public static int counter;
			public int x;
			public Foo() {}
		}
	`)
	b := NewBuilder(classes)
	b.BuildLayouts()

	layout := b.Layout(classes[0])
	assert.NotContains(t, layout.FieldOffsets, "counter")
	assert.Contains(t, layout.FieldOffsets, "x")
}

// TestBuildLayouts_FieldOffsetsExactMatch pins down the exact field-offset
// map a two-level hierarchy produces (cmp.Diff gives a readable per-field
// mismatch report rather than one opaque map inequality, which matters
// here since a layout bug tends to shift every offset after the first
// wrong one).
func TestBuildLayouts_FieldOffsetsExactMatch(t *testing.T) {
	classes := buildClasses(t,
		`public class A { public int a; public A() {} }`,
		`public class B extends A { public int b; public B() {} }`,
	)
	b := NewBuilder(classes)
	b.BuildLayouts()

	wantA := map[string]int32{"a": objectHeaderSize}
	wantB := map[string]int32{"a": objectHeaderSize, "b": objectHeaderSize + wordSize}

	if diff := cmp.Diff(wantA, b.Layout(classes[0]).FieldOffsets); diff != "" {
		t.Errorf("class A field offsets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantB, b.Layout(classes[1]).FieldOffsets); diff != "" {
		t.Errorf("class B field offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMethod_ReturnsFlatCanonicalBody(t *testing.T) {
	classes := buildClasses(t, `
		public class Foo {
			public Foo() {}
			public int sum(int x, int y) {
				int z = x + y;
				return z;
			}
		}
	`)
	b := NewBuilder(classes)
	b.BuildLayouts()

	m := findMethod(classes[0], "sum")
	method := b.BuildMethod(classes[0], m)
	require.NotNil(t, method)
	assert.Equal(t, 2, method.NumParams)
	assert.NotEmpty(t, method.Body)

	last := method.Body[len(method.Body)-1]
	_, ok := last.(*ReturnStmt)
	assert.True(t, ok, "body must end with an explicit return")
}

func TestBuildMethod_VoidMethodGetsImplicitReturn(t *testing.T) {
	classes := buildClasses(t, `
		public class Foo {
			public Foo() {}
			public void noop() {}
		}
	`)
	b := NewBuilder(classes)
	b.BuildLayouts()

	m := findMethod(classes[0], "noop")
	method := b.BuildMethod(classes[0], m)
	require.NotNil(t, method)
	require.NotEmpty(t, method.Body)
	ret, ok := method.Body[len(method.Body)-1].(*ReturnStmt)
	require.True(t, ok)
	assert.Nil(t, ret.Value)
}

func TestCanonicalize_NoNestedCallsOrESEQs(t *testing.T) {
	classes := buildClasses(t, `
		public class Foo {
			public Foo() {}
			public int helper() { return 1; }
			public int caller() { return helper() + helper(); }
		}
	`)
	b := NewBuilder(classes)
	b.BuildLayouts()

	var methods []*Method
	for _, m := range classes[0].AllMembers() {
		if built := b.BuildMethod(classes[0], m); built != nil {
			methods = append(methods, built)
		}
	}
	prog := &Program{Methods: methods, Classes: b.Layouts()}

	assert.NotPanics(t, func() { Canonicalize(prog) })
}

func findMethod(c *ast.ClassDecl, name string) *ast.MethodDecl {
	for _, m := range c.Methods {
		if m.SimpleName() == name {
			return m
		}
	}
	return nil
}
