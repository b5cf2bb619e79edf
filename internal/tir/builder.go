package tir

import (
	"fmt"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
)

// wordSize is the x86-32 machine word; every field, array element, and
// array-length slot is one word wide in this reduced ABI (spec.md §6: no
// floating point, byte/short/char are promoted to a full word at runtime).
const wordSize = int32(4)

// objectHeaderSize reserves one word for the dispatch-vector pointer every
// object carries at offset 0 (spec.md §4.6).
const objectHeaderSize = wordSize

// Builder lowers a resolved, hierarchy-checked program into TIR. One
// Builder instance is reused across the whole program so class and method
// ids stay globally unique (mangled names depend on a monotonic class and
// method id, spec.md §6); temp and label counters are per method.
type Builder struct {
	classes    []*ast.ClassDecl
	layouts    map[*ast.ClassDecl]*ClassLayout
	labels     map[*ast.MethodDecl]string
	classIDs   map[*ast.ClassDecl]int
	methodIDs  map[*ast.MethodDecl]int
	nextClass  int
	nextMethod int
	nextLabel  int
	strings    map[string]string // label -> literal value, every string seen while lowering
}

func NewBuilder(classes []*ast.ClassDecl) *Builder {
	b := &Builder{
		classes:   classes,
		layouts:   map[*ast.ClassDecl]*ClassLayout{},
		labels:    map[*ast.MethodDecl]string{},
		classIDs:  map[*ast.ClassDecl]int{},
		methodIDs: map[*ast.MethodDecl]int{},
		strings:   map[string]string{},
	}
	for _, c := range classes {
		b.classIDs[c] = b.nextClass
		b.nextClass++
	}
	for _, c := range classes {
		for _, m := range c.AllMembers() {
			b.methodIDs[m] = b.nextMethod
			b.nextMethod++
			b.labels[m] = MangleMethod(b.methodIDs[m], m)
		}
	}
	return b
}

// MangleMethod implements spec.md §6's method name-mangling scheme.
func MangleMethod(id int, m *ast.MethodDecl) string {
	if m.Modifiers().IsNative() {
		return "NATIVE" + m.FullyQualifiedName()
	}
	return fmt.Sprintf("_##_METHOD_ID_%d_#%s", id, m.FullyQualifiedName())
}

// MangleClass implements spec.md §6's class/dispatch-vector label scheme.
func MangleClass(id int, c *ast.ClassDecl) string {
	return fmt.Sprintf("_##_CLASS_ID_%d_#%s", id, c.FullyQualifiedName())
}

// BuildLayouts computes every class's field offsets, extending its
// super-class's layout (spec.md §4.6: a subclass's own fields are appended
// after its parent's, inherited offsets never change).
func (b *Builder) BuildLayouts() {
	var order func(c *ast.ClassDecl)
	visited := map[*ast.ClassDecl]bool{}
	order = func(c *ast.ClassDecl) {
		if visited[c] {
			return
		}
		visited[c] = true
		if sup, ok := c.Super.(*ast.ClassDecl); ok {
			order(sup)
		}
		b.layoutClass(c)
	}
	for _, c := range b.classes {
		order(c)
	}
}

func (b *Builder) layoutClass(c *ast.ClassDecl) {
	layout := &ClassLayout{
		Label:        MangleClass(b.classIDs[c], c),
		FieldOffsets: map[string]int32{},
	}
	offset := objectHeaderSize
	if sup, ok := c.Super.(*ast.ClassDecl); ok {
		if supLayout, ok := b.layouts[sup]; ok {
			for name, off := range supLayout.FieldOffsets {
				layout.FieldOffsets[name] = off
			}
			offset = supLayout.InstanceSize
		}
	}
	for _, f := range c.Fields {
		if f.Modifiers().IsStatic() {
			continue // statics live in a separate global data segment, not the object
		}
		layout.FieldOffsets[f.SimpleName()] = offset
		offset += wordSize
	}
	layout.InstanceSize = offset
	b.layouts[c] = layout
}

// methodCtx carries per-method lowering state: the owning class (for field
// offset lookups and `this`), and monotonic temp/label counters.
type methodCtx struct {
	owner      *ast.ClassDecl
	nextTemp   int
	nextLbl    int
	stmts      []Stmt
	localTemps map[*ast.VarDecl]Temp
}

func (c *methodCtx) newTemp() Temp {
	t := Temp{ID: c.nextTemp}
	c.nextTemp++
	return t
}

func (c *methodCtx) newLabel(prefix string) string {
	c.nextLbl++
	return fmt.Sprintf(".L%s%d", prefix, c.nextLbl)
}

func (c *methodCtx) emit(s Stmt) { c.stmts = append(c.stmts, s) }

// BuildMethod lowers one method/constructor body to a flat TIR statement
// list. A nil Body (abstract/interface/native) produces a nil *Method.
func (b *Builder) BuildMethod(owner *ast.ClassDecl, m *ast.MethodDecl) *Method {
	if m.Body == nil {
		return nil
	}
	c := &methodCtx{owner: owner, localTemps: map[*ast.VarDecl]Temp{}}
	if !m.Modifiers().IsStatic() {
		c.newTemp() // Temp 0 is always the implicit `this` receiver
	}
	for _, p := range m.Params {
		c.localTemp(p)
	}
	b.lowerBlock(c, m.Body)
	if len(c.stmts) == 0 || !isReturn(c.stmts[len(c.stmts)-1]) {
		c.emit(&ReturnStmt{})
	}
	return &Method{
		Label:     b.labels[m],
		NumParams: len(m.Params),
		NumTemps:  c.nextTemp,
		Body:      c.stmts,
	}
}

func isReturn(s Stmt) bool { _, ok := s.(*ReturnStmt); return ok }

// Layout returns c's computed object layout. BuildLayouts must run first.
func (b *Builder) Layout(c *ast.ClassDecl) *ClassLayout { return b.layouts[c] }

// Layouts returns every class's layout in the same order Builder was
// constructed with, for assembling a Program's Classes slice.
func (b *Builder) Layouts() []*ClassLayout {
	out := make([]*ClassLayout, 0, len(b.classes))
	for _, c := range b.classes {
		out = append(out, b.layouts[c])
	}
	return out
}

// MethodLabel returns m's mangled assembly label (internal/dispatch consumes
// this to fill in a class's dispatch vector once Builder assigns labels).
func (b *Builder) MethodLabel(m *ast.MethodDecl) string { return b.labels[m] }

// StringLiterals returns every string literal label encountered while
// lowering method bodies, mapped to its value, for the data-segment
// emission step (internal/codegen.Emitter.EmitProgram).
func (b *Builder) StringLiterals() map[string]string { return b.strings }

func (b *Builder) lowerBlock(c *methodCtx, blk *ast.Block) {
	for _, s := range blk.Stmts {
		b.lowerStmt(c, s)
	}
}

func (b *Builder) lowerStmt(c *methodCtx, s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		b.lowerBlock(c, st)
	case *ast.EmptyStmt:
		// no-op
	case *ast.DeclStmt:
		if st.Var.Init != nil {
			v := b.lowerExprToValue(c, st.Var.Init)
			c.emit(&Move{Dst: TempRef{T: c.localTemp(st.Var)}, Src: v})
		} else {
			c.localTemp(st.Var) // reserve a temp slot even without an initializer
		}
	case *ast.ExprStmt:
		b.lowerExprStmt(c, st.X)
	case *ast.ReturnStmt:
		if st.Value == nil {
			c.emit(&ReturnStmt{})
		} else {
			c.emit(&ReturnStmt{Value: b.lowerExprToValue(c, st.Value)})
		}
	case *ast.IfStmt:
		b.lowerIf(c, st)
	case *ast.WhileStmt:
		b.lowerWhile(c, st)
	case *ast.ForStmt:
		b.lowerFor(c, st)
	}
}

// localTemp assigns (memoized via the method context's localTemps map keyed
// by the VarDecl pointer) the Temp backing a local variable or parameter. Locals
// and parameters share the same temp-numbering space as any other
// three-address temporary, since spec.md §3 makes no distinction between a
// user-named local and a compiler-introduced one once lowering starts.
func (c *methodCtx) localTemp(v *ast.VarDecl) Temp {
	if c.localTemps == nil {
		c.localTemps = map[*ast.VarDecl]Temp{}
	}
	if t, ok := c.localTemps[v]; ok {
		return t
	}
	t := c.newTemp()
	c.localTemps[v] = t
	return t
}

func (b *Builder) lowerIf(c *methodCtx, st *ast.IfStmt) {
	elseLbl := c.newLabel("else")
	endLbl := c.newLabel("endif")
	target := elseLbl
	if st.Else == nil {
		target = endLbl
	}
	b.lowerCond(c, st.Cond, "", target)
	b.lowerStmt(c, st.Then)
	if st.Else != nil {
		c.emit(&Jump{Target: endLbl})
		c.emit(&LabelStmt{Name: elseLbl})
		b.lowerStmt(c, st.Else)
	}
	c.emit(&LabelStmt{Name: endLbl})
}

func (b *Builder) lowerWhile(c *methodCtx, st *ast.WhileStmt) {
	top := c.newLabel("while")
	end := c.newLabel("endwhile")
	c.emit(&LabelStmt{Name: top})
	b.lowerCond(c, st.Cond, "", end)
	b.lowerStmt(c, st.Body)
	c.emit(&Jump{Target: top})
	c.emit(&LabelStmt{Name: end})
}

func (b *Builder) lowerFor(c *methodCtx, st *ast.ForStmt) {
	if st.Init != nil {
		b.lowerStmt(c, st.Init)
	}
	top := c.newLabel("for")
	end := c.newLabel("endfor")
	c.emit(&LabelStmt{Name: top})
	if st.Cond != nil {
		b.lowerCond(c, st.Cond, "", end)
	}
	b.lowerStmt(c, st.Body)
	if st.Update != nil {
		b.lowerStmt(c, st.Update)
	}
	c.emit(&Jump{Target: top})
	c.emit(&LabelStmt{Name: end})
}

// lowerCond lowers a boolean expression as a conditional branch: jump to
// ifFalse when the condition is false, falling through (or jumping to
// ifTrue if given) otherwise. Short-circuit && and || are lowered directly
// to control flow here rather than ever becoming a TIR BinaryExpr.
func (b *Builder) lowerCond(c *methodCtx, e ast.Expr, ifTrue, ifFalse string) {
	if bin, ok := e.(*ast.BinaryExpr); ok {
		switch bin.Op {
		case ast.OpLAnd:
			mid := c.newLabel("and")
			b.lowerCond(c, bin.Left, mid, ifFalse)
			c.emit(&LabelStmt{Name: mid})
			b.lowerCond(c, bin.Right, ifTrue, ifFalse)
			return
		case ast.OpLOr:
			mid := c.newLabel("or")
			trueLbl := ifTrue
			if trueLbl == "" {
				trueLbl = c.newLabel("ortrue")
			}
			b.lowerCond(c, bin.Left, trueLbl, mid)
			c.emit(&LabelStmt{Name: mid})
			b.lowerCond(c, bin.Right, trueLbl, ifFalse)
			if ifTrue == "" {
				c.emit(&LabelStmt{Name: trueLbl})
			}
			return
		case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe:
			l := b.lowerExprToValue(c, bin.Left)
			r := b.lowerExprToValue(c, bin.Right)
			trueLbl, falseLbl := ifTrue, ifFalse
			if trueLbl == "" {
				trueLbl = c.newLabel("true")
				c.emit(&CJump{Op: relOp(bin.Op), Left: l, Right: r, IfTrue: trueLbl, IfFalse: falseLbl})
				c.emit(&LabelStmt{Name: trueLbl})
				return
			}
			c.emit(&CJump{Op: relOp(bin.Op), Left: l, Right: r, IfTrue: trueLbl, IfFalse: falseLbl})
			return
		}
	}
	if un, ok := e.(*ast.UnaryExpr); ok && un.Op == ast.OpNot {
		falseLbl := ifTrue
		if falseLbl == "" {
			falseLbl = c.newLabel("not")
		}
		b.lowerCond(c, un.Operand, ifFalse, falseLbl)
		if ifTrue == "" {
			c.emit(&LabelStmt{Name: falseLbl})
		}
		return
	}
	// Fall back: evaluate as a value and compare against zero (false).
	v := b.lowerExprToValue(c, e)
	trueLbl := ifTrue
	if trueLbl == "" {
		trueLbl = c.newLabel("true")
	}
	c.emit(&CJump{Op: Ne, Left: v, Right: Const{Value: 0}, IfTrue: trueLbl, IfFalse: ifFalse})
	if ifTrue == "" {
		c.emit(&LabelStmt{Name: trueLbl})
	}
}

func relOp(op ast.BinOp) BinOp {
	switch op {
	case ast.OpLt:
		return Lt
	case ast.OpLe:
		return Le
	case ast.OpGt:
		return Gt
	case ast.OpGe:
		return Ge
	case ast.OpEq:
		return Eq
	default:
		return Ne
	}
}

// lowerExprStmt lowers an expression used only for its side effect
// (assignment or a call whose result is discarded).
func (b *Builder) lowerExprStmt(c *methodCtx, e ast.Expr) {
	switch x := e.(type) {
	case *ast.AssignExpr:
		v := b.lowerExprToValue(c, x.Value)
		dst := b.lowerLValue(c, x.Target)
		c.emit(&Move{Dst: dst, Src: v})
	case *ast.MethodInvocation:
		call := b.lowerCall(c, x)
		c.emit(&CallStmt{Call: call})
	default:
		b.lowerExprToValue(c, e)
	}
}

// lowerLValue lowers an assignment target to the TIR location it writes:
// a bare local/parameter becomes a TempRef, a field or array element
// becomes a Mem.
func (b *Builder) lowerLValue(c *methodCtx, e ast.Expr) Expr {
	switch x := e.(type) {
	case *ast.ExpressionName:
		if x.IsField {
			return &Mem{Base: thisRef(), Offset: b.fieldOffset(c.owner, x.Decl.SimpleName())}
		}
		return TempRef{T: c.localTemp(x.Decl)}
	case *ast.FieldAccess:
		base := b.lowerExprToValue(c, x.Base)
		return &Mem{Base: base, Offset: b.fieldOffset(fieldOwnerOf(x.Base, c.owner), x.FieldName)}
	case *ast.ArrayAccessExpr:
		arr := b.lowerExprToValue(c, x.Array)
		idx := b.lowerExprToValue(c, x.Index)
		return b.arrayElemAddr(c, arr, idx)
	default:
		return b.lowerExprToValue(c, e)
	}
}

// fieldOwnerOf resolves the class whose layout a field access's offset
// should come from: the base expression's static reference type if known,
// falling back to the current method's owner (covers `this`/implicit
// field access, and any base whose type didn't resolve to a class).
func fieldOwnerOf(base ast.Expr, fallback *ast.ClassDecl) *ast.ClassDecl {
	if rt, ok := base.Type().(*ast.ReferenceType); ok {
		if cls, ok := rt.Decl().(*ast.ClassDecl); ok {
			return cls
		}
	}
	return fallback
}

func thisRef() Expr { return TempRef{T: Temp{ID: 0}} } // parameter 0 is always the receiver

// fieldOffset looks up a field's byte offset, walking to the declaring
// class's layout if owner's own layout doesn't (yet) know it. The caller is
// responsible for calling BuildLayouts before any BuildMethod call.
func (b *Builder) fieldOffset(owner *ast.ClassDecl, name string) int32 {
	if layout, ok := b.layouts[owner]; ok {
		if off, ok := layout.FieldOffsets[name]; ok {
			return off
		}
	}
	return 0
}

// arrayElemAddr computes the address of arr[idx]: arrays are laid out as
// [length word][elements...], one word each (spec.md §6 runtime ABI).
func (b *Builder) arrayElemAddr(c *methodCtx, arr, idx Expr) *Mem {
	byteIdx := &BinaryExpr{Op: Mul, Left: idx, Right: Const{Value: wordSize}}
	addr := &BinaryExpr{Op: Add, Left: arr, Right: byteIdx}
	return &Mem{Base: addr, Offset: wordSize} // +wordSize to skip the length header
}

// lowerExprToValue lowers e to a value-producing TIR expression, hoisting
// any Call into a fresh temporary via an emitted Move so the result is
// always safe to nest in arithmetic without violating the canonical-form
// invariant (tir.go's Canonicalize).
func (b *Builder) lowerExprToValue(c *methodCtx, e ast.Expr) Expr {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return Const{Value: x.Value}
	case *ast.BoolLiteral:
		if x.Value {
			return Const{Value: 1}
		}
		return Const{Value: 0}
	case *ast.CharLiteral:
		return Const{Value: int32(x.Value)}
	case *ast.NullLiteral:
		return Const{Value: 0}
	case *ast.StringLiteral:
		label := stringLiteralLabel(x.Value)
		b.strings[label] = x.Value
		return NameRef{Label: label}
	case *ast.ThisExpr:
		return thisRef()
	case *ast.ExpressionName:
		if x.IsField {
			return &Mem{Base: thisRef(), Offset: b.fieldOffset(c.owner, x.Decl.SimpleName())}
		}
		return TempRef{T: c.localTemp(x.Decl)}
	case *ast.FieldAccess:
		if x.FieldName == "length" {
			if _, isArr := x.Base.Type().(*ast.ArrayType); isArr {
				base := b.lowerExprToValue(c, x.Base)
				return &Mem{Base: base, Offset: 0}
			}
		}
		base := b.lowerExprToValue(c, x.Base)
		return &Mem{Base: base, Offset: b.fieldOffset(fieldOwnerOf(x.Base, c.owner), x.FieldName)}
	case *ast.ArrayAccessExpr:
		arr := b.lowerExprToValue(c, x.Array)
		idx := b.lowerExprToValue(c, x.Index)
		return b.arrayElemAddr(c, arr, idx)
	case *ast.BinaryExpr:
		return b.lowerBinary(c, x)
	case *ast.UnaryExpr:
		v := b.lowerExprToValue(c, x.Operand)
		if x.Op == ast.OpNeg {
			return &BinaryExpr{Op: Sub, Left: Const{Value: 0}, Right: v}
		}
		t := c.newTemp()
		c.emit(&Move{Dst: TempRef{T: t}, Src: &BinaryExpr{Op: Eq, Left: v, Right: Const{Value: 0}}})
		return TempRef{T: t}
	case *ast.AssignExpr:
		v := b.lowerExprToValue(c, x.Value)
		dst := b.lowerLValue(c, x.Target)
		c.emit(&Move{Dst: dst, Src: v})
		return dst
	case *ast.CastExpr:
		return b.lowerExprToValue(c, x.Operand)
	case *ast.InstanceOfExpr:
		return b.lowerInstanceOf(c, x)
	case *ast.MethodInvocation:
		call := b.lowerCall(c, x)
		t := c.newTemp()
		c.emit(&Move{Dst: TempRef{T: t}, Src: call})
		return TempRef{T: t}
	case *ast.ClassCreationExpr:
		return b.lowerNew(c, x)
	case *ast.ArrayCreationExpr:
		return b.lowerNewArray(c, x)
	default:
		return Const{Value: 0}
	}
}

func (b *Builder) lowerBinary(c *methodCtx, x *ast.BinaryExpr) Expr {
	switch x.Op {
	case ast.OpLAnd, ast.OpLOr:
		// Materialize the short-circuit result as a 0/1 value via branches,
		// since this BinaryExpr is being used in value (not condition)
		// position (e.g. `boolean b = a && c;`).
		trueLbl := c.newLabel("sctrue")
		falseLbl := c.newLabel("scfalse")
		endLbl := c.newLabel("scend")
		t := c.newTemp()
		b.lowerCond(c, x, trueLbl, falseLbl)
		c.emit(&LabelStmt{Name: trueLbl})
		c.emit(&Move{Dst: TempRef{T: t}, Src: Const{Value: 1}})
		c.emit(&Jump{Target: endLbl})
		c.emit(&LabelStmt{Name: falseLbl})
		c.emit(&Move{Dst: TempRef{T: t}, Src: Const{Value: 0}})
		c.emit(&LabelStmt{Name: endLbl})
		return TempRef{T: t}
	case ast.OpAdd:
		if isStringKind(x.Left.Type()) || isStringKind(x.Right.Type()) {
			l := b.lowerStringOperand(c, x.Left)
			r := b.lowerStringOperand(c, x.Right)
			t := c.newTemp()
			c.emit(&Move{Dst: TempRef{T: t}, Src: &Call{Label: labelStringConcat, Args: []Expr{l, r}}})
			return TempRef{T: t}
		}
	}
	l := b.lowerExprToValue(c, x.Left)
	r := b.lowerExprToValue(c, x.Right)
	return &BinaryExpr{Op: tirBinOp(x.Op), Left: l, Right: r}
}

func tirBinOp(op ast.BinOp) BinOp {
	switch op {
	case ast.OpAdd:
		return Add
	case ast.OpSub:
		return Sub
	case ast.OpMul:
		return Mul
	case ast.OpDiv:
		return Div
	case ast.OpMod:
		return Mod
	case ast.OpLt:
		return Lt
	case ast.OpLe:
		return Le
	case ast.OpGt:
		return Gt
	case ast.OpGe:
		return Ge
	case ast.OpEq:
		return Eq
	case ast.OpNe:
		return Ne
	case ast.OpAnd:
		return And
	default:
		return Or
	}
}

func (b *Builder) lowerCall(c *methodCtx, mi *ast.MethodInvocation) *Call {
	var args []Expr
	if mi.Method != nil && !mi.Method.Modifiers().IsStatic() {
		if mi.Target != nil {
			args = append(args, b.lowerExprToValue(c, mi.Target))
		} else {
			args = append(args, thisRef())
		}
	}
	for _, a := range mi.Args {
		args = append(args, b.lowerExprToValue(c, a))
	}
	label := b.labels[mi.Method]
	return &Call{Label: label, Args: args}
}

func (b *Builder) lowerNew(c *methodCtx, x *ast.ClassCreationExpr) Expr {
	decl := x.ClassType.Decl()
	cls, _ := decl.(*ast.ClassDecl)
	size := int32(objectHeaderSize)
	var dvLabel string
	if cls != nil {
		if layout, ok := b.layouts[cls]; ok {
			size = layout.InstanceSize
			dvLabel = layout.Label
		}
	}
	t := c.newTemp()
	c.emit(&Move{Dst: TempRef{T: t}, Src: &Call{Label: "__malloc", Args: []Expr{Const{Value: size}}}})
	c.emit(&Move{Dst: &Mem{Base: TempRef{T: t}, Offset: 0}, Src: NameRef{Label: dvLabel}})
	if x.Ctor != nil {
		args := []Expr{TempRef{T: t}}
		for _, a := range x.Args {
			args = append(args, b.lowerExprToValue(c, a))
		}
		ctorLabel := b.labels[x.Ctor]
		c.emit(&CallStmt{Call: &Call{Label: ctorLabel, Args: args}})
	}
	return TempRef{T: t}
}

func (b *Builder) lowerNewArray(c *methodCtx, x *ast.ArrayCreationExpr) Expr {
	n := b.lowerExprToValue(c, x.Size)
	bytes := c.newTemp()
	c.emit(&Move{Dst: TempRef{T: bytes}, Src: &BinaryExpr{Op: Add, Left: &BinaryExpr{Op: Mul, Left: n, Right: Const{Value: wordSize}}, Right: Const{Value: wordSize}}})
	t := c.newTemp()
	c.emit(&Move{Dst: TempRef{T: t}, Src: &Call{Label: "__malloc", Args: []Expr{TempRef{T: bytes}}}})
	c.emit(&Move{Dst: &Mem{Base: TempRef{T: t}, Offset: 0}, Src: n})
	return TempRef{T: t}
}

// isStringKind reports whether t is the Joos String type, nil-safe for
// callers that may be looking at an unresolved or missing type.
func isStringKind(t ast.Type) bool { return t != nil && t.Kind() == ast.KindString }

// lowerStringOperand lowers one operand of a string `+` expression. A
// String-typed operand passes through untouched; any other operand is
// converted to its length-prefixed char-array string representation via
// the matching runtime helper (spec.md §4.6's string-concatenation rule).
// Converting an arbitrary reference type via its toString() is not
// implemented; only String, boolean, char, and the integral types are
// supported operands (recorded as an accepted simplification in
// DESIGN.md).
func (b *Builder) lowerStringOperand(c *methodCtx, e ast.Expr) Expr {
	v := b.lowerExprToValue(c, e)
	if isStringKind(e.Type()) {
		return v
	}
	helper := labelIntToString
	if e.Type() != nil {
		switch e.Type().Kind() {
		case ast.KindBoolean:
			helper = labelBoolToString
		case ast.KindChar:
			helper = labelCharToString
		}
	}
	t := c.newTemp()
	c.emit(&Move{Dst: TempRef{T: t}, Src: &Call{Label: helper, Args: []Expr{v}}})
	return TempRef{T: t}
}

// lowerInstanceOf lowers `Operand instanceof Type` entirely inline, with no
// runtime call at all: every class in the closed program that is a subtype
// of the test type is enumerated at compile time (ast.IsSubtype), and the
// object's dispatch-vector word (the same header slot lowerNew stores a
// class's DV label into) is compared against each candidate's DV label in
// turn, short-circuiting true on the first match. A null operand is always
// false, matching Java's instanceof semantics.
func (b *Builder) lowerInstanceOf(c *methodCtx, x *ast.InstanceOfExpr) Expr {
	obj := c.newTemp()
	c.emit(&Move{Dst: TempRef{T: obj}, Src: b.lowerExprToValue(c, x.Operand)})

	var testDecl ast.TypeDecl
	if rt, ok := x.TestType.(*ast.ReferenceType); ok {
		testDecl = rt.Decl()
	}

	result := c.newTemp()
	notNull := c.newLabel("ioNotNull")
	trueLbl := c.newLabel("ioTrue")
	falseLbl := c.newLabel("ioFalse")
	endLbl := c.newLabel("ioEnd")

	c.emit(&CJump{Op: Eq, Left: TempRef{T: obj}, Right: Const{Value: 0}, IfTrue: falseLbl, IfFalse: notNull})
	c.emit(&LabelStmt{Name: notNull})

	for _, cls := range b.classes {
		if testDecl == nil || !ast.IsSubtype(cls, testDecl) {
			continue
		}
		layout := b.layouts[cls]
		if layout == nil {
			continue
		}
		nextLbl := c.newLabel("ioCheck")
		c.emit(&CJump{Op: Eq, Left: &Mem{Base: TempRef{T: obj}, Offset: 0}, Right: NameRef{Label: layout.Label}, IfTrue: trueLbl, IfFalse: nextLbl})
		c.emit(&LabelStmt{Name: nextLbl})
	}
	c.emit(&Jump{Target: falseLbl})

	c.emit(&LabelStmt{Name: trueLbl})
	c.emit(&Move{Dst: TempRef{T: result}, Src: Const{Value: 1}})
	c.emit(&Jump{Target: endLbl})

	c.emit(&LabelStmt{Name: falseLbl})
	c.emit(&Move{Dst: TempRef{T: result}, Src: Const{Value: 0}})

	c.emit(&LabelStmt{Name: endLbl})
	return TempRef{T: result}
}

// Runtime helper labels: small TIR functions Builder synthesizes and
// appends to the program alongside user code (RuntimeHelperMethods), so
// string concatenation lowers to a real, emittable/interpretable function
// instead of a dangling extern (spec.md §4.6).
const (
	labelStringConcat = "__string_concat"
	labelIntToString  = "__int_to_string"
	labelCharToString = "__char_to_string"
	labelBoolToString = "__bool_to_string"
)

// newHelperCtx builds a methodCtx for a synthesized runtime helper: params
// occupy Temp 0..numParams-1, same as BuildMethod's convention, but with no
// owning class (these helpers never touch an object's fields).
func newHelperCtx(numParams int) *methodCtx {
	return &methodCtx{nextTemp: numParams}
}

// RuntimeHelperMethods returns the synthesized support routines that back
// string concatenation: __string_concat plus the primitive-to-string
// converters it calls for non-String operands. The caller appends these to
// a tir.Program's Methods alongside the user-defined ones so they are
// emitted (internal/codegen) and callable (internal/interp) exactly like
// any other method.
func (b *Builder) RuntimeHelperMethods() []*Method {
	return []*Method{
		b.buildStringConcat(),
		b.buildIntToString(),
		b.buildCharToString(),
		b.buildBoolToString(),
	}
}

// buildStringConcat concatenates two length-prefixed char arrays — the same
// representation a string literal's data-segment entry uses (spec.md §6) —
// by allocating a result array sized for both and copying element by
// element.
func (b *Builder) buildStringConcat() *Method {
	c := newHelperCtx(2)
	a := TempRef{T: Temp{ID: 0}}
	s2 := TempRef{T: Temp{ID: 1}}

	lenA := c.newTemp()
	lenB := c.newTemp()
	total := c.newTemp()
	result := c.newTemp()
	i := c.newTemp()

	copyATest := c.newLabel("strcatATest")
	copyABody := c.newLabel("strcatABody")
	copyADone := c.newLabel("strcatADone")
	copyBTest := c.newLabel("strcatBTest")
	copyBBody := c.newLabel("strcatBBody")
	copyBDone := c.newLabel("strcatBDone")

	c.emit(&Move{Dst: TempRef{T: lenA}, Src: &Mem{Base: a, Offset: 0}})
	c.emit(&Move{Dst: TempRef{T: lenB}, Src: &Mem{Base: s2, Offset: 0}})
	c.emit(&Move{Dst: TempRef{T: total}, Src: &BinaryExpr{Op: Add, Left: TempRef{T: lenA}, Right: TempRef{T: lenB}}})
	c.emit(&Move{Dst: TempRef{T: result}, Src: &Call{Label: "__malloc", Args: []Expr{
		&BinaryExpr{Op: Add, Left: &BinaryExpr{Op: Mul, Left: TempRef{T: total}, Right: Const{Value: wordSize}}, Right: Const{Value: wordSize}},
	}}})
	c.emit(&Move{Dst: &Mem{Base: TempRef{T: result}, Offset: 0}, Src: TempRef{T: total}})

	c.emit(&Move{Dst: TempRef{T: i}, Src: Const{Value: 0}})
	c.emit(&LabelStmt{Name: copyATest})
	c.emit(&CJump{Op: Ge, Left: TempRef{T: i}, Right: TempRef{T: lenA}, IfTrue: copyADone, IfFalse: copyABody})
	c.emit(&LabelStmt{Name: copyABody})
	c.emit(&Move{
		Dst: b.arrayElemAddr(c, TempRef{T: result}, TempRef{T: i}),
		Src: b.arrayElemAddr(c, a, TempRef{T: i}),
	})
	c.emit(&Move{Dst: TempRef{T: i}, Src: &BinaryExpr{Op: Add, Left: TempRef{T: i}, Right: Const{Value: 1}}})
	c.emit(&Jump{Target: copyATest})
	c.emit(&LabelStmt{Name: copyADone})

	c.emit(&Move{Dst: TempRef{T: i}, Src: Const{Value: 0}})
	c.emit(&LabelStmt{Name: copyBTest})
	c.emit(&CJump{Op: Ge, Left: TempRef{T: i}, Right: TempRef{T: lenB}, IfTrue: copyBDone, IfFalse: copyBBody})
	c.emit(&LabelStmt{Name: copyBBody})
	c.emit(&Move{
		Dst: b.arrayElemAddr(c, TempRef{T: result}, &BinaryExpr{Op: Add, Left: TempRef{T: lenA}, Right: TempRef{T: i}}),
		Src: b.arrayElemAddr(c, s2, TempRef{T: i}),
	})
	c.emit(&Move{Dst: TempRef{T: i}, Src: &BinaryExpr{Op: Add, Left: TempRef{T: i}, Right: Const{Value: 1}}})
	c.emit(&Jump{Target: copyBTest})
	c.emit(&LabelStmt{Name: copyBDone})

	c.emit(&ReturnStmt{Value: TempRef{T: result}})
	return &Method{Label: labelStringConcat, NumParams: 2, NumTemps: c.nextTemp, Body: c.stmts}
}

// buildCharToString wraps a single char code in a length-1 string array.
func (b *Builder) buildCharToString() *Method {
	c := newHelperCtx(1)
	ch := TempRef{T: Temp{ID: 0}}
	result := c.newTemp()

	c.emit(&Move{Dst: TempRef{T: result}, Src: &Call{Label: "__malloc", Args: []Expr{Const{Value: 2 * wordSize}}}})
	c.emit(&Move{Dst: &Mem{Base: TempRef{T: result}, Offset: 0}, Src: Const{Value: 1}})
	c.emit(&Move{Dst: b.arrayElemAddr(c, TempRef{T: result}, Const{Value: 0}), Src: ch})
	c.emit(&ReturnStmt{Value: TempRef{T: result}})
	return &Method{Label: labelCharToString, NumParams: 1, NumTemps: c.nextTemp, Body: c.stmts}
}

// buildBoolToString returns one of two pre-interned "true"/"false" string
// constants, reusing the same string-literal data-segment convention
// (stringLiteralLabel) a literal in user source would get.
func (b *Builder) buildBoolToString() *Method {
	c := newHelperCtx(1)
	v := TempRef{T: Temp{ID: 0}}

	trueLbl := stringLiteralLabel("true")
	falseLbl := stringLiteralLabel("false")
	b.strings[trueLbl] = "true"
	b.strings[falseLbl] = "false"

	isTrue := c.newLabel("boolIsTrue")
	isFalse := c.newLabel("boolIsFalse")
	c.emit(&CJump{Op: Ne, Left: v, Right: Const{Value: 0}, IfTrue: isTrue, IfFalse: isFalse})
	c.emit(&LabelStmt{Name: isFalse})
	c.emit(&ReturnStmt{Value: NameRef{Label: falseLbl}})
	c.emit(&LabelStmt{Name: isTrue})
	c.emit(&ReturnStmt{Value: NameRef{Label: trueLbl}})
	return &Method{Label: labelBoolToString, NumParams: 1, NumTemps: c.nextTemp, Body: c.stmts}
}

// buildIntToString renders a signed decimal int32 into a length-prefixed
// char array, extracting digits least-significant-first into a scratch
// buffer and then copying them (most-significant-first, with a leading '-'
// when negative) into the final result. Does not handle math.MinInt32,
// whose negation overflows int32 — an accepted simplification (DESIGN.md).
func (b *Builder) buildIntToString() *Method {
	const maxDigits = int32(11)
	c := newHelperCtx(1)
	n := TempRef{T: Temp{ID: 0}}

	neg := c.newTemp()
	buf := c.newTemp()
	pos := c.newTemp()
	count := c.newTemp()
	totalLen := c.newTemp()
	result := c.newTemp()
	idx := c.newTemp()
	i := c.newTemp()
	digit := c.newTemp()

	negLbl := c.newLabel("itosNeg")
	noNeg := c.newLabel("itosNoNeg")
	zeroCase := c.newLabel("itosZero")
	digitTest := c.newLabel("itosDigitTest")
	digitBody := c.newLabel("itosDigitBody")
	digitDone := c.newLabel("itosDigitDone")
	hasSign := c.newLabel("itosSign")
	afterSign := c.newLabel("itosAfterSign")
	copyTest := c.newLabel("itosCopyTest")
	copyBody := c.newLabel("itosCopyBody")
	copyDone := c.newLabel("itosCopyDone")

	c.emit(&Move{Dst: TempRef{T: neg}, Src: Const{Value: 0}})
	c.emit(&CJump{Op: Ge, Left: n, Right: Const{Value: 0}, IfTrue: noNeg, IfFalse: negLbl})
	c.emit(&LabelStmt{Name: negLbl})
	c.emit(&Move{Dst: TempRef{T: neg}, Src: Const{Value: 1}})
	c.emit(&Move{Dst: n, Src: &BinaryExpr{Op: Sub, Left: Const{Value: 0}, Right: n}})
	c.emit(&Jump{Target: noNeg})
	c.emit(&LabelStmt{Name: noNeg})

	c.emit(&Move{Dst: TempRef{T: buf}, Src: &Call{Label: "__malloc", Args: []Expr{Const{Value: (maxDigits + 1) * wordSize}}}})
	c.emit(&Move{Dst: &Mem{Base: TempRef{T: buf}, Offset: 0}, Src: Const{Value: maxDigits}})
	c.emit(&Move{Dst: TempRef{T: pos}, Src: Const{Value: maxDigits}})

	c.emit(&CJump{Op: Ne, Left: n, Right: Const{Value: 0}, IfTrue: digitTest, IfFalse: zeroCase})
	c.emit(&LabelStmt{Name: zeroCase})
	c.emit(&Move{Dst: TempRef{T: pos}, Src: &BinaryExpr{Op: Sub, Left: TempRef{T: pos}, Right: Const{Value: 1}}})
	c.emit(&Move{Dst: b.arrayElemAddr(c, TempRef{T: buf}, TempRef{T: pos}), Src: Const{Value: int32('0')}})
	c.emit(&Jump{Target: digitDone})

	c.emit(&LabelStmt{Name: digitTest})
	c.emit(&CJump{Op: Eq, Left: n, Right: Const{Value: 0}, IfTrue: digitDone, IfFalse: digitBody})
	c.emit(&LabelStmt{Name: digitBody})
	c.emit(&Move{Dst: TempRef{T: pos}, Src: &BinaryExpr{Op: Sub, Left: TempRef{T: pos}, Right: Const{Value: 1}}})
	c.emit(&Move{Dst: TempRef{T: digit}, Src: &BinaryExpr{Op: Mod, Left: n, Right: Const{Value: 10}}})
	c.emit(&Move{Dst: b.arrayElemAddr(c, TempRef{T: buf}, TempRef{T: pos}), Src: &BinaryExpr{Op: Add, Left: TempRef{T: digit}, Right: Const{Value: int32('0')}}})
	c.emit(&Move{Dst: n, Src: &BinaryExpr{Op: Div, Left: n, Right: Const{Value: 10}}})
	c.emit(&Jump{Target: digitTest})
	c.emit(&LabelStmt{Name: digitDone})

	c.emit(&Move{Dst: TempRef{T: count}, Src: &BinaryExpr{Op: Sub, Left: Const{Value: maxDigits}, Right: TempRef{T: pos}}})
	c.emit(&Move{Dst: TempRef{T: totalLen}, Src: &BinaryExpr{Op: Add, Left: TempRef{T: count}, Right: TempRef{T: neg}}})
	c.emit(&Move{Dst: TempRef{T: result}, Src: &Call{Label: "__malloc", Args: []Expr{
		&BinaryExpr{Op: Add, Left: &BinaryExpr{Op: Mul, Left: TempRef{T: totalLen}, Right: Const{Value: wordSize}}, Right: Const{Value: wordSize}},
	}}})
	c.emit(&Move{Dst: &Mem{Base: TempRef{T: result}, Offset: 0}, Src: TempRef{T: totalLen}})

	c.emit(&Move{Dst: TempRef{T: idx}, Src: Const{Value: 0}})
	c.emit(&CJump{Op: Eq, Left: TempRef{T: neg}, Right: Const{Value: 0}, IfTrue: afterSign, IfFalse: hasSign})
	c.emit(&LabelStmt{Name: hasSign})
	c.emit(&Move{Dst: b.arrayElemAddr(c, TempRef{T: result}, Const{Value: 0}), Src: Const{Value: int32('-')}})
	c.emit(&Move{Dst: TempRef{T: idx}, Src: Const{Value: 1}})
	c.emit(&Jump{Target: afterSign})
	c.emit(&LabelStmt{Name: afterSign})

	c.emit(&Move{Dst: TempRef{T: i}, Src: Const{Value: 0}})
	c.emit(&LabelStmt{Name: copyTest})
	c.emit(&CJump{Op: Ge, Left: TempRef{T: i}, Right: TempRef{T: count}, IfTrue: copyDone, IfFalse: copyBody})
	c.emit(&LabelStmt{Name: copyBody})
	c.emit(&Move{
		Dst: b.arrayElemAddr(c, TempRef{T: result}, &BinaryExpr{Op: Add, Left: TempRef{T: idx}, Right: TempRef{T: i}}),
		Src: b.arrayElemAddr(c, TempRef{T: buf}, &BinaryExpr{Op: Add, Left: TempRef{T: pos}, Right: TempRef{T: i}}),
	})
	c.emit(&Move{Dst: TempRef{T: i}, Src: &BinaryExpr{Op: Add, Left: TempRef{T: i}, Right: Const{Value: 1}}})
	c.emit(&Jump{Target: copyTest})
	c.emit(&LabelStmt{Name: copyDone})

	c.emit(&ReturnStmt{Value: TempRef{T: result}})
	return &Method{Label: labelIntToString, NumParams: 1, NumTemps: c.nextTemp, Body: c.stmts}
}

func stringLiteralLabel(s string) string {
	return fmt.Sprintf(".LC_str_%x", hashString(s))
}

func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
