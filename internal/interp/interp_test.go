package interp

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/hierarchy"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/parser"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/resolve"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/tir"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/typelink"
	"github.com/stretchr/testify/require"
)

// buildProgram runs the front end end to end (mirroring
// internal/compiler.generateAssembly, minus the assembly-emission step)
// and returns the built tir.Program plus a label lookup by method name.
func buildProgram(t *testing.T, src string) (*tir.Program, *tir.Builder, *ast.ClassDecl) {
	t.Helper()
	tr := trie.New()
	jl := ast.BuildJavaLang()
	require.NoError(t, trie.InsertJavaLang(tr, jl))

	toks, illegal := lexer.Tokenize(source.FileID(0), src)
	require.Empty(t, illegal)
	prog, diags := parser.New(source.FileID(0), toks).Parse()
	require.Empty(t, diags, "%v", diags)
	cls := prog.TypeDecl.(*ast.ClassDecl)
	require.NoError(t, tr.Insert(append(append([]string{}, cls.Package()...), cls.SimpleName()), cls))

	ctx, err := trie.BuildImportContext(tr, cls.Package(), cls, nil, nil)
	require.NoError(t, err)

	tlUnit := typelink.Unit{Program: prog, Trie: tr, Imports: ctx}
	require.Empty(t, typelink.New([]typelink.Unit{tlUnit}).Link())
	require.Empty(t, hierarchy.New([]ast.TypeDecl{cls}).Check())

	rUnit := resolve.Unit{Program: prog, Trie: tr, Imports: ctx}
	require.Empty(t, resolve.Resolve([]resolve.Unit{rUnit}))

	classes := []*ast.ClassDecl{cls}
	b := tir.NewBuilder(classes)
	b.BuildLayouts()

	var methods []*tir.Method
	for _, m := range cls.AllMembers() {
		if built := b.BuildMethod(cls, m); built != nil {
			methods = append(methods, built)
		}
	}
	program := &tir.Program{Methods: methods, Classes: b.Layouts()}
	tir.Canonicalize(program)
	return program, b, cls
}

func methodLabel(b *tir.Builder, cls *ast.ClassDecl, name string) string {
	for _, m := range cls.Methods {
		if m.SimpleName() == name {
			return b.MethodLabel(m)
		}
	}
	return ""
}

// buildMultiClassProgram is buildProgram generalized to several
// compilation units sharing one trie, plus the synthesized runtime
// helpers (internal/compiler.generateAssembly's own wiring), for tests
// that need more than one class to see each other (instanceof,
// inheritance) or need string concatenation's helper routines present.
func buildMultiClassProgram(t *testing.T, srcs ...string) (*tir.Program, *tir.Builder, map[string]*ast.ClassDecl) {
	t.Helper()
	tr := trie.New()
	jl := ast.BuildJavaLang()
	require.NoError(t, trie.InsertJavaLang(tr, jl))

	var progs []*ast.Program
	var classes []*ast.ClassDecl
	byName := map[string]*ast.ClassDecl{}
	for i, src := range srcs {
		toks, illegal := lexer.Tokenize(source.FileID(i), src)
		require.Empty(t, illegal)
		prog, diags := parser.New(source.FileID(i), toks).Parse()
		require.Empty(t, diags, "%v", diags)
		cls := prog.TypeDecl.(*ast.ClassDecl)
		require.NoError(t, tr.Insert(append(append([]string{}, cls.Package()...), cls.SimpleName()), cls))
		progs = append(progs, prog)
		classes = append(classes, cls)
		byName[cls.SimpleName()] = cls
	}

	var tlUnits []typelink.Unit
	var rUnits []resolve.Unit
	var allTypes []ast.TypeDecl
	for _, prog := range progs {
		ctx, err := trie.BuildImportContext(tr, prog.TypeDecl.Package(), prog.TypeDecl, nil, nil)
		require.NoError(t, err)
		tlUnits = append(tlUnits, typelink.Unit{Program: prog, Trie: tr, Imports: ctx})
		rUnits = append(rUnits, resolve.Unit{Program: prog, Trie: tr, Imports: ctx})
		allTypes = append(allTypes, prog.TypeDecl)
	}
	require.Empty(t, typelink.New(tlUnits).Link())
	require.Empty(t, hierarchy.New(allTypes).Check())
	require.Empty(t, resolve.Resolve(rUnits))

	b := tir.NewBuilder(classes)
	b.BuildLayouts()

	var methods []*tir.Method
	for _, cls := range classes {
		for _, m := range cls.AllMembers() {
			if built := b.BuildMethod(cls, m); built != nil {
				methods = append(methods, built)
			}
		}
	}
	methods = append(methods, b.RuntimeHelperMethods()...)
	program := &tir.Program{Methods: methods, Classes: b.Layouts()}
	tir.Canonicalize(program)
	return program, b, byName
}

// readJoosString decodes a length-prefixed char-array string value (the
// representation every string-typed TIR expression produces) out of the
// interpreter's heap at addr.
func readJoosString(t *testing.T, i *Interpreter, addr int32) string {
	t.Helper()
	length, err := i.Heap.Load(addr)
	require.NoError(t, err)
	out := make([]rune, length)
	for idx := int32(0); idx < length; idx++ {
		ch, err := i.Heap.Load(addr + wordSize + idx*wordSize)
		require.NoError(t, err)
		out[idx] = rune(ch)
	}
	return string(out)
}

func TestInterpreter_SimpleArithmeticMethod(t *testing.T) {
	program, b, cls := buildProgram(t, `
		class A {
			public A() {}
			public int m() { return 1 + 2; }
		}
	`)
	label := methodLabel(b, cls, "m")
	require.NotEmpty(t, label)

	i := New(program, 64, nil)
	result, err := i.Call(label, []int32{0}) // receiver in temp 0
	require.NoError(t, err)
	require.Equal(t, int32(3), result)
}

func TestInterpreter_ConditionalBranch(t *testing.T) {
	program, b, cls := buildProgram(t, `
		class A {
			public A() {}
			public int max(int x, int y) {
				if (x > y) {
					return x;
				}
				return y;
			}
		}
	`)
	label := methodLabel(b, cls, "max")
	require.NotEmpty(t, label)

	i := New(program, 64, nil)

	result, err := i.Call(label, []int32{0, 10, 3})
	require.NoError(t, err)
	require.Equal(t, int32(10), result)

	result, err = i.Call(label, []int32{0, 2, 9})
	require.NoError(t, err)
	require.Equal(t, int32(9), result)
}

func TestInterpreter_WhileLoopAccumulates(t *testing.T) {
	program, b, cls := buildProgram(t, `
		class A {
			public A() {}
			public int sumTo(int n) {
				int total = 0;
				int i = 0;
				while (i < n) {
					total = total + i;
					i = i + 1;
				}
				return total;
			}
		}
	`)
	label := methodLabel(b, cls, "sumTo")
	require.NotEmpty(t, label)

	i := New(program, 64, nil)
	result, err := i.Call(label, []int32{0, 5})
	require.NoError(t, err)
	require.Equal(t, int32(0+1+2+3+4), result)
}

func TestInterpreter_FieldReadWriteThroughHeap(t *testing.T) {
	program, b, cls := buildProgram(t, `
		class A {
			public int x;
			public A() {}
			public void setX(int v) { x = v; }
			public int getX() { return x; }
		}
	`)
	setLabel := methodLabel(b, cls, "setX")
	getLabel := methodLabel(b, cls, "getX")

	i := New(program, 64, nil)
	layout := b.Layout(cls)
	receiver := i.Heap.Alloc(layout.InstanceSize)

	_, err := i.Call(setLabel, []int32{receiver, 99})
	require.NoError(t, err)

	result, err := i.Call(getLabel, []int32{receiver})
	require.NoError(t, err)
	require.Equal(t, int32(99), result)
}

func TestInterpreter_DivisionByZeroReturnsError(t *testing.T) {
	program, b, cls := buildProgram(t, `
		class A {
			public A() {}
			public int bad(int x) { return 1 / x; }
		}
	`)
	label := methodLabel(b, cls, "bad")

	i := New(program, 64, nil)
	_, err := i.Call(label, []int32{0, 0})
	require.Error(t, err)
}

func TestInterpreter_NativeWriteHookReceivesBytes(t *testing.T) {
	var written []byte
	i := New(&tir.Program{}, 16, func(bb byte) { written = append(written, bb) })

	_, err := i.evalCall(&frame{temps: map[int]int32{}}, &tir.Call{
		Label: "NATIVEjava.io.OutputStream.nativeWrite",
		Args:  []tir.Expr{tir.Const{Value: 0}, tir.Const{Value: 65}},
	})
	require.NoError(t, err)
	require.Equal(t, []byte{65}, written)
}

func TestInterpreter_InstanceOf(t *testing.T) {
	program, b, classes := buildMultiClassProgram(t,
		`class Base { public Base() {} }`,
		`class Sub extends Base { public Sub() {} }`,
		`class Checker {
			public Checker() {}
			public Base makeSub() { return new Sub(); }
			public Base makeBase() { return new Base(); }
			public boolean check(Base b) { return b instanceof Sub; }
		}`,
	)
	checker := classes["Checker"]
	makeSub := methodLabel(b, checker, "makeSub")
	makeBase := methodLabel(b, checker, "makeBase")
	check := methodLabel(b, checker, "check")
	require.NotEmpty(t, makeSub)
	require.NotEmpty(t, makeBase)
	require.NotEmpty(t, check)

	i := New(program, 256, nil)

	subObj, err := i.Call(makeSub, []int32{0})
	require.NoError(t, err)
	baseObj, err := i.Call(makeBase, []int32{0})
	require.NoError(t, err)

	result, err := i.Call(check, []int32{0, subObj})
	require.NoError(t, err)
	require.Equal(t, int32(1), result, "a Sub instance must satisfy `instanceof Sub`")

	result, err = i.Call(check, []int32{0, baseObj})
	require.NoError(t, err)
	require.Equal(t, int32(0), result, "a plain Base instance must not satisfy `instanceof Sub`")

	result, err = i.Call(check, []int32{0, 0})
	require.NoError(t, err)
	require.Equal(t, int32(0), result, "null must never satisfy instanceof")
}

func TestInterpreter_StringConcatenation(t *testing.T) {
	program, b, classes := buildMultiClassProgram(t,
		`class Printer {
			public Printer() {}
			public String concatStrings() { return "foo" + "bar"; }
			public String concatIntBool(int n, boolean ok) { return "x" + n + ok; }
			public String concatChar(char c) { return c + "!"; }
		}`,
	)
	printer := classes["Printer"]
	concatStrings := methodLabel(b, printer, "concatStrings")
	concatIntBool := methodLabel(b, printer, "concatIntBool")
	concatChar := methodLabel(b, printer, "concatChar")
	require.NotEmpty(t, concatStrings)
	require.NotEmpty(t, concatIntBool)
	require.NotEmpty(t, concatChar)

	i := New(program, 4096, nil)

	addr, err := i.Call(concatStrings, []int32{0})
	require.NoError(t, err)
	require.Equal(t, "foobar", readJoosString(t, i, addr))

	addr, err = i.Call(concatIntBool, []int32{0, 5, 1})
	require.NoError(t, err)
	require.Equal(t, "x5true", readJoosString(t, i, addr))

	addr, err = i.Call(concatIntBool, []int32{0, -3, 0})
	require.NoError(t, err)
	require.Equal(t, "x-3false", readJoosString(t, i, addr))

	addr, err = i.Call(concatChar, []int32{0, int32('A')})
	require.NoError(t, err)
	require.Equal(t, "A!", readJoosString(t, i, addr))
}
