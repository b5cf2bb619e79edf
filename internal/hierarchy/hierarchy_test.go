package hierarchy

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/parser"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/typelink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkedTypes parses every src, runs the type linker over them, and returns
// their TypeDecls ready for the hierarchy checker — the same two-stage
// setup internal/compiler's pipeline runs before hierarchy checking.
func linkedTypes(t *testing.T, srcs ...string) []ast.TypeDecl {
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

	var units []typelink.Unit
	var types []ast.TypeDecl
	for _, prog := range progs {
		ctx, err := trie.BuildImportContext(tr, prog.TypeDecl.Package(), prog.TypeDecl, nil, nil)
		require.NoError(t, err)
		units = append(units, typelink.Unit{Program: prog, Trie: tr, Imports: ctx})
		types = append(types, prog.TypeDecl)
	}
	require.Empty(t, typelink.New(units).Link())
	return types
}

func TestCheck_DetectsCyclicExtends(t *testing.T) {
	types := linkedTypes(t,
		`public class A extends B { public A() {} }`,
		`public class B extends A { public B() {} }`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "cyclic inheritance")
}

func TestCheck_NoErrorsForValidHierarchy(t *testing.T) {
	types := linkedTypes(t,
		`public class Base { public Base() {} }`,
		`public class Derived extends Base { public Derived() {} }`,
	)
	diags := New(types).Check()
	assert.Empty(t, diags, "%v", diags)
}

func TestCheck_AbstractMethodNotImplementedIsError(t *testing.T) {
	types := linkedTypes(t,
		`public interface Shape { public int area(); }`,
		`public class Square implements Shape { public Square() {} }`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
}

func TestCheck_AbstractMethodImplementedSatisfies(t *testing.T) {
	types := linkedTypes(t,
		`public interface Shape { public int area(); }`,
		`public class Square implements Shape {
			public Square() {}
			public int area() { return 1; }
		}`,
	)
	diags := New(types).Check()
	assert.Empty(t, diags, "%v", diags)
}

func TestCheck_ExtendingFinalClassIsError(t *testing.T) {
	types := linkedTypes(t,
		`public final class Base { public Base() {} }`,
		`public class Derived extends Base { public Derived() {} }`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "final")
}

func TestCheck_DuplicateInterfaceInImplementsListIsError(t *testing.T) {
	types := linkedTypes(t,
		`public interface Shape { public int area(); }`,
		`public class Square implements Shape, Shape {
			public Square() {}
			public int area() { return 1; }
		}`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "more than once")
}

func TestCheck_OverrideStaticMismatchIsError(t *testing.T) {
	types := linkedTypes(t,
		`public class Base { public Base() {} public int get() { return 1; } }`,
		`public class Derived extends Base {
			public Derived() {}
			public static int get() { return 2; }
		}`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
}

func TestCheck_OverrideReturnTypeMismatchIsError(t *testing.T) {
	types := linkedTypes(t,
		`public class Base { public Base() {} public int get() { return 1; } }`,
		`public class Derived extends Base {
			public Derived() {}
			public boolean get() { return true; }
		}`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
}

func TestCheck_OverrideNarrowingVisibilityIsError(t *testing.T) {
	types := linkedTypes(t,
		`public class Base { public Base() {} public int get() { return 1; } }`,
		`public class Derived extends Base {
			public Derived() {}
			protected int get() { return 2; }
		}`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
}

func TestCheck_OverrideFinalMethodIsError(t *testing.T) {
	types := linkedTypes(t,
		`public class Base { public Base() {} public final int get() { return 1; } }`,
		`public class Derived extends Base {
			public Derived() {}
			public int get() { return 2; }
		}`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
}

func TestCheck_ValidOverrideIsNotError(t *testing.T) {
	types := linkedTypes(t,
		`public class Base { public Base() {} public int get() { return 1; } }`,
		`public class Derived extends Base {
			public Derived() {}
			public int get() { return 2; }
		}`,
	)
	diags := New(types).Check()
	assert.Empty(t, diags, "%v", diags)
}

func TestCheck_DuplicateSignatureInSameClassIsError(t *testing.T) {
	types := linkedTypes(t,
		`public class Foo {
			public Foo() {}
			public int get() { return 1; }
			public int get() { return 2; }
		}`,
	)
	diags := New(types).Check()
	require.NotEmpty(t, diags)
}
