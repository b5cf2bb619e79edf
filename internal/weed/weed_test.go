package weed

import (
	"strings"
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/parser"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_AbstractFinalClassIsError(t *testing.T) {
	toks, illegal := lexer.Tokenize(source.FileID(0), `public abstract final class Foo { public Foo() {} }`)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)

	ds := Check(prog)
	require.NotEmpty(t, ds)
	assert.Contains(t, ds[0].Message, "abstract and final")
}

func TestCheck_ClassWithoutConstructorIsError(t *testing.T) {
	toks, illegal := lexer.Tokenize(source.FileID(0), `public class Foo { public int x; }`)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)

	ds := Check(prog)
	require.NotEmpty(t, ds)
	found := false
	for _, d := range ds {
		if strings.Contains(d.Message, "at least one explicit constructor") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheck_ValidClassHasNoViolations(t *testing.T) {
	toks, illegal := lexer.Tokenize(source.FileID(0), `
		public class Foo {
			public int x;
			public Foo() {}
			public int get() { return x; }
		}
	`)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)

	assert.Empty(t, Check(prog))
}

func TestCheck_FinalFieldIsError(t *testing.T) {
	toks, illegal := lexer.Tokenize(source.FileID(0), `
		public class Foo {
			public final int x;
			public Foo() {}
		}
	`)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)

	ds := Check(prog)
	require.NotEmpty(t, ds)
	assert.Contains(t, ds[0].Message, "cannot be final")
}

func TestCheck_InterfaceMethodCannotBeStatic(t *testing.T) {
	toks, illegal := lexer.Tokenize(source.FileID(0), `
		public interface Shape {
			public static int area();
		}
	`)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)

	ds := Check(prog)
	require.NotEmpty(t, ds)
}

func TestCheck_InterfaceMethodCannotHaveBody(t *testing.T) {
	toks, illegal := lexer.Tokenize(source.FileID(0), `
		public interface Shape {
			public int area() { return 1; }
		}
	`)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)

	ds := Check(prog)
	require.NotEmpty(t, ds)
	found := false
	for _, d := range ds {
		if strings.Contains(d.Message, "cannot have a body") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheck_NativeMethodMustBeStatic(t *testing.T) {
	toks, illegal := lexer.Tokenize(source.FileID(0), `
		public class Foo {
			public Foo() {}
			public native int get();
		}
	`)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)

	ds := Check(prog)
	require.NotEmpty(t, ds)
	assert.Contains(t, ds[0].Message, "must be static")
}
