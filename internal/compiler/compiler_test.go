package compiler

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_ValidProgramSucceeds(t *testing.T) {
	mgr := source.NewManager()
	res := Compile(mgr, []FileInput{
		{Name: "Foo.java", Content: `
			public class Foo {
				public int x;
				public Foo() { x = 0; }
				public int get() { return x; }
			}
		`},
	})
	assert.Equal(t, 0, res.ExitCode)
	assert.NotEmpty(t, res.Assembly)
	for _, d := range res.Diagnostics {
		assert.NotEqual(t, diag.KindUser, d.Kind, "%v", d)
		assert.NotEqual(t, diag.KindInternal, d.Kind, "%v", d)
	}
}

func TestCompile_ParseErrorExitsWithUserCode(t *testing.T) {
	mgr := source.NewManager()
	res := Compile(mgr, []FileInput{
		{Name: "Foo.java", Content: `public class Foo {`},
	})
	assert.Equal(t, 42, res.ExitCode)
	assert.Empty(t, res.Assembly)
}

func TestCompile_WeederViolationExitsWithUserCode(t *testing.T) {
	mgr := source.NewManager()
	res := Compile(mgr, []FileInput{
		// No explicit constructor: a weeder violation, not a parse error.
		{Name: "Foo.java", Content: `public class Foo { public int x; }`},
	})
	assert.Equal(t, 42, res.ExitCode)
	assert.Empty(t, res.Assembly)
}

func TestCompile_FileNameMustMatchPublicTypeName(t *testing.T) {
	mgr := source.NewManager()
	res := Compile(mgr, []FileInput{
		{Name: "Wrong.java", Content: `public class Foo { public Foo() {} }`},
	})
	assert.Equal(t, 42, res.ExitCode)
	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == diag.KindUser && d.Phase == diag.PhaseWeeder {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompile_UnresolvedSuperclassExitsWithUserCode(t *testing.T) {
	mgr := source.NewManager()
	res := Compile(mgr, []FileInput{
		{Name: "Foo.java", Content: `public class Foo extends Ghost { public Foo() {} }`},
	})
	assert.Equal(t, 42, res.ExitCode)
}

func TestCompile_CrossUnitInheritanceAcrossFiles(t *testing.T) {
	mgr := source.NewManager()
	res := Compile(mgr, []FileInput{
		{Name: "Base.java", Content: `public class Base { public Base() {} public int area() { return 0; } }`},
		{Name: "Square.java", Content: `
			public class Square extends Base {
				public Square() {}
				public int area() { return 1; }
			}
		`},
	})
	require.Equal(t, 0, res.ExitCode, "%v", res.Diagnostics)
	assert.NotEmpty(t, res.Assembly)
}
