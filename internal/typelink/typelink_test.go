package typelink

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/parser"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildUnits(t *testing.T, srcs ...string) []Unit {
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

	var units []Unit
	for _, prog := range progs {
		ctx, err := trie.BuildImportContext(tr, prog.TypeDecl.Package(), prog.TypeDecl, nil, nil)
		require.NoError(t, err)
		units = append(units, Unit{Program: prog, Trie: tr, Imports: ctx})
	}
	return units
}

func TestLink_ResolvesSuperclassAndInterfaceAcrossUnits(t *testing.T) {
	units := buildUnits(t,
		`public class Base { public Base() {} }`,
		`public interface Named { public int id(); }`,
		`public class Derived extends Base implements Named {
			public Derived() {}
			public int id() { return 1; }
		}`,
	)
	diags := New(units).Link()
	require.Empty(t, diags, "%v", diags)

	derived := units[2].Program.TypeDecl.(*ast.ClassDecl)
	require.NotNil(t, derived.Super)
	assert.Equal(t, "Base", derived.Super.SimpleName())
	require.Len(t, derived.Interfaces, 1)
	assert.Equal(t, "Named", derived.Interfaces[0].Decl().SimpleName())
}

func TestLink_UnresolvedSuperclassIsError(t *testing.T) {
	units := buildUnits(t, `public class Derived extends Ghost { public Derived() {} }`)
	diags := New(units).Link()
	require.NotEmpty(t, diags)
}

func TestLink_FieldAndParamTypesResolve(t *testing.T) {
	units := buildUnits(t,
		`public class Box { public Box() {} }`,
		`public class Holder {
			public Box b;
			public Holder() {}
			public void set(Box x) {}
		}`,
	)
	diags := New(units).Link()
	require.Empty(t, diags, "%v", diags)

	holder := units[1].Program.TypeDecl.(*ast.ClassDecl)
	fieldType, ok := holder.Fields[0].DeclType.(*ast.ReferenceType)
	require.True(t, ok)
	assert.Equal(t, "Box", fieldType.Decl().SimpleName())
}
