package cfg

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/parser"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/resolve"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/typelink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstMethod(t *testing.T, src string) *ast.MethodDecl {
	t.Helper()
	toks, illegal := lexer.Tokenize(source.FileID(0), src)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)
	tr := trie.New()
	require.NoError(t, trie.InsertJavaLang(tr, ast.BuildJavaLang()))
	require.NoError(t, tr.Insert([]string{prog.TypeDecl.SimpleName()}, prog.TypeDecl))
	ctx, err := trie.BuildImportContext(tr, prog.TypeDecl.Package(), prog.TypeDecl, nil, nil)
	require.NoError(t, err)
	require.Empty(t, typelink.New([]typelink.Unit{{Program: prog, Trie: tr, Imports: ctx}}).Link())
	require.Empty(t, resolve.Resolve([]resolve.Unit{{Program: prog, Trie: tr, Imports: ctx}}))
	cls := prog.TypeDecl.(*ast.ClassDecl)
	return cls.Methods[0]
}

func TestCheckMethod_UnreachableStatementAfterReturn(t *testing.T) {
	m := firstMethod(t, `
		public class Foo {
			public Foo() {}
			public int get() {
				return 1;
				int x = 2;
			}
		}
	`)
	diags := New().CheckMethod(m)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "unreachable")
}

func TestCheckMethod_MissingReturnOnNonVoidMethod(t *testing.T) {
	m := firstMethod(t, `
		public class Foo {
			public Foo() {}
			public int get() {
				int x = 1;
			}
		}
	`)
	diags := New().CheckMethod(m)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "missing return")
}

func TestCheckMethod_InfiniteLoopWithoutReturnNeverCompletes(t *testing.T) {
	m := firstMethod(t, `
		public class Foo {
			public Foo() {}
			public int get() {
				while (true) {
					int x = 1;
				}
			}
		}
	`)
	diags := New().CheckMethod(m)
	assert.Empty(t, diags, "%v", diags)
}

func TestCheckMethod_DeadAssignmentWarning(t *testing.T) {
	m := firstMethod(t, `
		public class Foo {
			public Foo() {}
			public void run() {
				int x = 1;
				x = 2;
			}
		}
	`)
	diags := New().CheckMethod(m)
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.KindWarning, diags[0].Kind)
}

func TestCheckMethod_AssignmentLaterReadIsNotDead(t *testing.T) {
	m := firstMethod(t, `
		public class Foo {
			public Foo() {}
			public int run() {
				int x = 1;
				x = 2;
				return x;
			}
		}
	`)
	diags := New().CheckMethod(m)
	assert.Empty(t, diags, "%v", diags)
}
