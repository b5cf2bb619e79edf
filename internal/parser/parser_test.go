package parser

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) (*ast.Program, []*ast.ClassDecl) {
	t.Helper()
	toks, illegal := lexer.Tokenize(source.FileID(0), src)
	require.Empty(t, illegal)
	prog, diags := New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)
	return prog, nil
}

func TestParse_MinimalClass(t *testing.T) {
	prog, _ := parseSrc(t, `
		public class Foo extends Bar implements Baz {
			public int x;
			public Foo() {}
			public int get() { return this.x; }
		}
	`)
	cls, ok := prog.TypeDecl.(*ast.ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Foo", cls.SimpleName())
	assert.True(t, cls.Modifiers().IsPublic())
	assert.Equal(t, []string{"Bar"}, cls.SuperRef.Name)
	require.Len(t, cls.Interfaces, 1)
	assert.Equal(t, []string{"Baz"}, cls.Interfaces[0].Name)
	require.Len(t, cls.Fields, 1)
	assert.Equal(t, "x", cls.Fields[0].SimpleName())
	require.Len(t, cls.Constructors, 1)
	require.Len(t, cls.Methods, 1)
}

func TestParse_InterfaceWithAbstractMethods(t *testing.T) {
	prog, _ := parseSrc(t, `
		public interface Shape extends Named {
			public int area();
		}
	`)
	iface, ok := prog.TypeDecl.(*ast.InterfaceDecl)
	require.True(t, ok)
	require.Len(t, iface.Extends, 1)
	require.Len(t, iface.Methods, 1)
	assert.Nil(t, iface.Methods[0].Body)
}

func TestParse_LocalDeclVsExprStatementAmbiguity(t *testing.T) {
	prog, _ := parseSrc(t, `
		public class Foo {
			public void run() {
				int x = 1;
				Foo y = new Foo();
				x = x + 1;
				y.run();
			}
		}
	`)
	cls := prog.TypeDecl.(*ast.ClassDecl)
	body := cls.Methods[0].Body.Stmts
	require.Len(t, body, 4)
	_, isDecl1 := body[0].(*ast.DeclStmt)
	_, isDecl2 := body[1].(*ast.DeclStmt)
	_, isExpr1 := body[2].(*ast.ExprStmt)
	_, isExpr2 := body[3].(*ast.ExprStmt)
	assert.True(t, isDecl1)
	assert.True(t, isDecl2)
	assert.True(t, isExpr1)
	assert.True(t, isExpr2)
}

func TestParse_CastDisambiguation(t *testing.T) {
	prog, _ := parseSrc(t, `
		public class Foo {
			public int run() {
				int a = (int) 1;
				Object b = (Object) this;
				int c = (a) - 1;
				return c;
			}
		}
	`)
	cls := prog.TypeDecl.(*ast.ClassDecl)
	stmts := cls.Methods[0].Body.Stmts

	declA := stmts[0].(*ast.DeclStmt)
	_, isCastA := declA.Var.Init.(*ast.CastExpr)
	assert.True(t, isCastA, "(int) 1 should parse as a cast")

	declB := stmts[1].(*ast.DeclStmt)
	_, isCastB := declB.Var.Init.(*ast.CastExpr)
	assert.True(t, isCastB, "(Object) this should parse as a cast")

	declC := stmts[2].(*ast.DeclStmt)
	_, isCastC := declC.Var.Init.(*ast.CastExpr)
	assert.False(t, isCastC, "(a) - 1 should parse as subtraction, not a cast")
}

func TestParse_MethodInvocationChain(t *testing.T) {
	prog, _ := parseSrc(t, `
		public class Foo {
			public void run() {
				a.b.c();
				foo();
				this.bar().baz();
			}
		}
	`)
	cls := prog.TypeDecl.(*ast.ClassDecl)
	stmts := cls.Methods[0].Body.Stmts

	call1 := stmts[0].(*ast.ExprStmt).X.(*ast.MethodInvocation)
	assert.Equal(t, "c", call1.MethodName)
	target, ok := call1.Target.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, target.Parts)

	call2 := stmts[1].(*ast.ExprStmt).X.(*ast.MethodInvocation)
	assert.Nil(t, call2.Target)
	assert.Equal(t, "foo", call2.MethodName)

	call3 := stmts[2].(*ast.ExprStmt).X.(*ast.MethodInvocation)
	assert.Equal(t, "baz", call3.MethodName)
	_, innerIsCall := call3.Target.(*ast.MethodInvocation)
	assert.True(t, innerIsCall)
}

func TestParse_ArrayTypeAndCreation(t *testing.T) {
	prog, _ := parseSrc(t, `
		public class Foo {
			public void run() {
				int[] a = new int[10];
				a[0] = 1;
			}
		}
	`)
	cls := prog.TypeDecl.(*ast.ClassDecl)
	stmts := cls.Methods[0].Body.Stmts

	decl := stmts[0].(*ast.DeclStmt)
	arrType, ok := decl.Var.DeclType.(*ast.ArrayType)
	require.True(t, ok)
	assert.Equal(t, ast.Int, arrType.Elem)

	creation, ok := decl.Var.Init.(*ast.ArrayCreationExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Int, creation.ElemType)
}

func TestParse_ForAndWhileAndIf(t *testing.T) {
	prog, _ := parseSrc(t, `
		public class Foo {
			public void run() {
				for (int i = 0; i < 10; i = i + 1) {
					if (i == 5) {
						return;
					} else {
						while (i < 10) {
							i = i + 1;
						}
					}
				}
			}
		}
	`)
	cls := prog.TypeDecl.(*ast.ClassDecl)
	forStmt, ok := cls.Methods[0].Body.Stmts[0].(*ast.ForStmt)
	require.True(t, ok)
	_, hasInit := forStmt.Init.(*ast.DeclStmt)
	assert.True(t, hasInit)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Update)

	ifStmt, ok := forStmt.Body.(*ast.Block).Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Else)
}

func TestParse_PackageAndImports(t *testing.T) {
	prog, _ := parseSrc(t, `
		package com.example;
		import java.util.List;
		import java.io.*;

		public class Foo {}
	`)
	assert.Equal(t, []string{"com", "example"}, prog.Package)
	require.Len(t, prog.Imports, 2)
	assert.Equal(t, []string{"java", "util", "List"}, prog.Imports[0].Path)
	assert.False(t, prog.Imports[0].OnDemand)
	assert.Equal(t, []string{"java", "io"}, prog.Imports[1].Path)
	assert.True(t, prog.Imports[1].OnDemand)
}
