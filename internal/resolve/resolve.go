// Package resolve implements name disambiguation and expression resolution
// (spec.md §4.4, components 5-6): it walks every method/constructor body,
// replaces raw ast.Name nodes with ExpressionName/TypeNameExpr/FieldAccess/
// MethodInvocation according to JLS-6.5-style classification, and commits a
// resolved ast.Type to every expression's slot. Grounded on original_source/
// `ExprNameLinked`'s ValueType enum (PackageName/TypeName/ExpressionName/
// MethodName/SingleAmbiguousName) and its `prev`-chained reclassification,
// re-expressed in Go as a direct-substitution walk over parent struct
// fields rather than node mutation.
package resolve

import (
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/trie"
)

// Unit is one compilation unit's program plus the package trie / import
// context it resolves names against (the same shape internal/typelink
// consumes, since both passes walk the same per-unit environment).
type Unit struct {
	Program *ast.Program
	Trie    *trie.Trie
	Imports *trie.ImportContext
}

// Resolver runs name disambiguation and expression resolution over a closed
// set of units.
type Resolver struct {
	units []Unit
	diags []*diag.Diagnostic
}

// env is a chain of lexical scopes mapping simple name to its VarDecl.
type env struct {
	parent *env
	vars   map[string]*ast.VarDecl
}

func (e *env) child() *env { return &env{parent: e, vars: map[string]*ast.VarDecl{}} }

func (e *env) lookup(name string) *ast.VarDecl {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v
		}
	}
	return nil
}

func (e *env) declare(v *ast.VarDecl) { e.vars[v.SimpleName()] = v }

// ctx carries the per-method resolution context: the unit, the enclosing
// type, and whether the current member is static (spec.md §4.4's
// static-context accessibility rule: an instance member cannot be named
// from a static context).
type ctx struct {
	unit     Unit
	owner    ast.TypeDecl
	isStatic bool

	// inFieldInit and fieldPos carry the field-initializer forward-reference
	// rule (spec.md §4.4): an unqualified reference to another instance
	// field is permitted only if that field's declaration position is
	// before fieldPos. Both are zero/false outside a field initializer.
	inFieldInit bool
	fieldPos    int
}

// Resolve runs resolution over every unit and returns accumulated
// diagnostics. It never stops at the first error so the CLI can report
// every static-semantics violation in one run.
func Resolve(units []Unit) []*diag.Diagnostic {
	r := &Resolver{units: units}
	for _, u := range units {
		r.resolveUnit(u)
	}
	return r.diags
}

func (r *Resolver) resolveUnit(u Unit) {
	switch d := u.Program.TypeDecl.(type) {
	case *ast.ClassDecl:
		for i, f := range d.Fields {
			if f.Init != nil {
				c := ctx{unit: u, owner: d, isStatic: f.Modifiers().IsStatic(), inFieldInit: true, fieldPos: i}
				env := &env{vars: map[string]*ast.VarDecl{}}
				f.Init = r.resolveExpr(f.Init, c, env)
				r.checkAssignable(f.Init.Type(), f.DeclType, f.Pos())
			}
		}
		for _, m := range d.AllMembers() {
			r.resolveMethod(u, d, m)
		}
	case *ast.InterfaceDecl:
		// Interface methods are abstract: nothing to resolve in the body.
	}
}

func (r *Resolver) resolveMethod(u Unit, owner ast.TypeDecl, m *ast.MethodDecl) {
	if m.Body == nil {
		return
	}
	c := ctx{unit: u, owner: owner, isStatic: m.Modifiers().IsStatic()}
	top := &env{vars: map[string]*ast.VarDecl{}}
	for _, p := range m.Params {
		top.declare(p)
	}
	r.resolveBlock(m.Body, c, top)
}

func (r *Resolver) resolveBlock(b *ast.Block, c ctx, parent *env) {
	e := parent.child()
	for i, s := range b.Stmts {
		b.Stmts[i] = r.resolveStmt(s, c, e)
	}
}

func (r *Resolver) resolveStmt(s ast.Stmt, c ctx, e *env) ast.Stmt {
	switch st := s.(type) {
	case *ast.Block:
		r.resolveBlock(st, c, e)
	case *ast.IfStmt:
		st.Cond = r.resolveExpr(st.Cond, c, e)
		st.Then = r.resolveStmt(st.Then, c, e)
		if st.Else != nil {
			st.Else = r.resolveStmt(st.Else, c, e)
		}
	case *ast.WhileStmt:
		st.Cond = r.resolveExpr(st.Cond, c, e)
		st.Body = r.resolveStmt(st.Body, c, e)
	case *ast.ForStmt:
		inner := e.child()
		if st.Init != nil {
			st.Init = r.resolveStmt(st.Init, c, inner)
		}
		if st.Cond != nil {
			st.Cond = r.resolveExpr(st.Cond, c, inner)
		}
		if st.Update != nil {
			st.Update = r.resolveStmt(st.Update, c, inner)
		}
		st.Body = r.resolveStmt(st.Body, c, inner)
	case *ast.ReturnStmt:
		if st.Value != nil {
			st.Value = r.resolveExpr(st.Value, c, e)
		}
	case *ast.ExprStmt:
		st.X = r.resolveExpr(st.X, c, e)
	case *ast.DeclStmt:
		r.resolveLocalType(st.Var.DeclType, c)
		if st.Var.Init != nil {
			st.Var.Init = r.resolveExpr(st.Var.Init, c, e)
			r.checkAssignable(st.Var.Init.Type(), st.Var.DeclType, st.Var.Pos())
		}
		// No-shadowing rule (spec.md §3): a local cannot redeclare a name
		// already visible as an enclosing local or parameter, even across
		// nested blocks. Fields are not in env and so are exempt; a local is
		// allowed to shadow a field (TestResolve_LocalVariableShadowsField).
		if prev := e.lookup(st.Var.SimpleName()); prev != nil {
			r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, st.Var.Pos(),
				"local variable %q shadows an enclosing local variable or parameter", st.Var.SimpleName()))
		}
		e.declare(st.Var)
	}
	return s
}

// resolveLocalType links any ReferenceType embedded in a local variable's
// declared type that the type linker never saw (it only walks
// field/parameter/return types, not local declarations, since locals are
// scoped to method bodies which the linker does not descend into).
func (r *Resolver) resolveLocalType(t ast.Type, c ctx) {
	switch tt := t.(type) {
	case *ast.ReferenceType:
		r.linkRef(tt, c)
	case *ast.ArrayType:
		r.resolveLocalType(tt.Elem, c)
	}
}

func (r *Resolver) linkRef(ref *ast.ReferenceType, c ctx) {
	if ref.Resolved() {
		return
	}
	decl := r.lookupType(ref.Name, c)
	if decl == nil {
		// ReferenceType carries no position of its own (spec.md §3's type
		// value is a plain discriminated union, not a Node); the enclosing
		// unit's position is the best available anchor for this diagnostic.
		r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, c.unit.Program.Pos(), "cannot resolve type %v", ref.Name))
		return
	}
	ref.SetDecl(decl)
}

func (r *Resolver) lookupType(name []string, c ctx) ast.TypeDecl {
	if len(name) == 1 {
		if d, ok := c.unit.Imports.Resolve(name[0]); ok {
			return d
		}
		return nil
	}
	res := c.unit.Trie.Lookup(name)
	return res.Decl
}

// findField looks up a field by simple name, walking up the super-class
// chain (spec.md §4.4: instance fields are inherited; interfaces declare
// none).
func findField(t ast.TypeDecl, name string) *ast.VarDecl {
	cls, ok := t.(*ast.ClassDecl)
	if !ok {
		return nil
	}
	for _, f := range cls.Fields {
		if f.SimpleName() == name {
			return f
		}
	}
	if cls.Super != nil {
		return findField(cls.Super, name)
	}
	return nil
}

// fieldPosition returns f's source-order index among owner's own (not
// inherited) fields. ok is false when f belongs to a different class than
// owner, which is how the forward-reference check below exempts inherited
// fields: a superclass's fields are always fully initialized before a
// subclass's field initializers run, so no ordering constraint applies.
func fieldPosition(owner ast.TypeDecl, f *ast.VarDecl) (int, bool) {
	cls, ok := owner.(*ast.ClassDecl)
	if !ok {
		return 0, false
	}
	for i, of := range cls.Fields {
		if of == f {
			return i, true
		}
	}
	return 0, false
}

// findMethod looks up a method by simple name + arity among a class's own
// and inherited methods, returning the first one with a matching parameter
// count; parameter types are not compared. It is a simplification of full JLS overload resolution (spec.md §4.4's
// "most specific applicable method" is reduced here to "first applicable by
// declared parameter count"), recorded as an open design decision.
func findMethod(t ast.TypeDecl, name string, argc int) *ast.MethodDecl {
	switch d := t.(type) {
	case *ast.ClassDecl:
		for _, m := range d.Methods {
			if m.SimpleName() == name && len(m.Params) == argc {
				return m
			}
		}
		if d.Super != nil {
			if m := findMethod(d.Super, name, argc); m != nil {
				return m
			}
		}
		for _, iface := range d.Interfaces {
			if decl := iface.Decl(); decl != nil {
				if m := findMethod(decl, name, argc); m != nil {
					return m
				}
			}
		}
	case *ast.InterfaceDecl:
		for _, m := range d.Methods {
			if m.SimpleName() == name && len(m.Params) == argc {
				return m
			}
		}
		for _, ext := range d.ExtendsResolved {
			if m := findMethod(ext, name, argc); m != nil {
				return m
			}
		}
	}
	return nil
}

// resolveExpr resolves e and returns its replacement (itself, for nodes that
// need no substitution; a new node for raw ast.Name runs).
func (r *Resolver) resolveExpr(e ast.Expr, c ctx, env *env) ast.Expr {
	switch x := e.(type) {
	case *ast.Name:
		return r.resolveName(x, c, env)
	case *ast.ThisExpr:
		rt := ast.NewUnresolvedReferenceType([]string{c.owner.FullyQualifiedName()})
		rt.SetDecl(c.owner)
		x.SetType(rt)
		return x
	case *ast.IntLiteral:
		x.SetType(ast.Int)
		return x
	case *ast.BoolLiteral:
		x.SetType(ast.Boolean)
		return x
	case *ast.CharLiteral:
		x.SetType(ast.Char)
		return x
	case *ast.StringLiteral:
		x.SetType(ast.String)
		return x
	case *ast.NullLiteral:
		x.SetType(ast.Null)
		return x
	case *ast.BinaryExpr:
		x.Left = r.resolveExpr(x.Left, c, env)
		x.Right = r.resolveExpr(x.Right, c, env)
		x.SetType(binaryResultType(x.Op, x.Left.Type(), x.Right.Type()))
		if lt, rt := x.Left.Type(), x.Right.Type(); x.Op == ast.OpAdd && !isStringLike(x.Type()) &&
			((lt != nil && lt.Kind() == ast.KindNull) || (rt != nil && rt.Kind() == ast.KindNull)) {
			r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, x.Pos(),
				"bad operand types for +: %v and %v", lt, rt))
		}
		return x
	case *ast.UnaryExpr:
		x.Operand = r.resolveExpr(x.Operand, c, env)
		if x.Op == ast.OpNot {
			x.SetType(ast.Boolean)
		} else {
			x.SetType(x.Operand.Type())
		}
		return x
	case *ast.AssignExpr:
		x.Target = r.resolveLValue(x.Target, c, env)
		x.Value = r.resolveExpr(x.Value, c, env)
		r.checkAssignable(x.Value.Type(), x.Target.Type(), x.Pos())
		x.SetType(x.Target.Type())
		return x
	case *ast.CastExpr:
		r.resolveLocalType(x.CastType, c)
		x.Operand = r.resolveExpr(x.Operand, c, env)
		if !ast.IsValidCast(x.Operand.Type(), x.CastType) {
			r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, x.Pos(),
				"bad cast: cannot cast %s to %s", x.Operand.Type(), x.CastType))
		}
		x.SetType(x.CastType)
		return x
	case *ast.InstanceOfExpr:
		r.resolveLocalType(x.TestType, c)
		x.Operand = r.resolveExpr(x.Operand, c, env)
		x.SetType(ast.Boolean)
		return x
	case *ast.ArrayAccessExpr:
		x.Array = r.resolveExpr(x.Array, c, env)
		x.Index = r.resolveExpr(x.Index, c, env)
		if arr, ok := x.Array.Type().(*ast.ArrayType); ok {
			x.SetType(arr.Elem)
		}
		return x
	case *ast.ArrayCreationExpr:
		r.resolveLocalType(x.ElemType, c)
		x.Size = r.resolveExpr(x.Size, c, env)
		x.SetType(ast.NewArrayType(x.ElemType))
		return x
	case *ast.ClassCreationExpr:
		r.resolveLocalType(x.ClassType, c)
		for i, a := range x.Args {
			x.Args[i] = r.resolveExpr(a, c, env)
		}
		if decl := x.ClassType.Decl(); decl != nil {
			if cls, ok := decl.(*ast.ClassDecl); ok {
				for _, ctor := range cls.Constructors {
					if len(ctor.Params) == len(x.Args) {
						x.Ctor = ctor
						break
					}
				}
			}
		}
		x.SetType(x.ClassType)
		return x
	case *ast.FieldAccess:
		x.Base = r.resolveExpr(x.Base, c, env)
		r.resolveFieldAccess(x, c)
		return x
	case *ast.MethodInvocation:
		return r.resolveMethodInvocation(x, c, env)
	default:
		return e
	}
}

// resolveName classifies a raw dotted-identifier run per spec.md §4.4: try
// local variable/parameter, then instance/static field of the enclosing
// type (walking the super-class chain), then a type name (single import or
// package-qualified prefix), chaining any remaining parts as field accesses
// once the leading classification is known.
func (r *Resolver) resolveName(n *ast.Name, c ctx, env *env) ast.Expr {
	return r.resolveNameImpl(n, c, env, false)
}

// resolveLValue resolves e as an assignment target. It behaves exactly like
// resolveExpr except that a bare *ast.Name is exempt from the field
// initializer forward-reference check (spec.md §4.4: "...or it's an
// assignment LHS").
func (r *Resolver) resolveLValue(e ast.Expr, c ctx, env *env) ast.Expr {
	if n, ok := e.(*ast.Name); ok {
		return r.resolveNameImpl(n, c, env, true)
	}
	return r.resolveExpr(e, c, env)
}

func (r *Resolver) resolveNameImpl(n *ast.Name, c ctx, env *env, isLHS bool) ast.Expr {
	head := n.Parts[0]

	if v := env.lookup(head); v != nil {
		return r.chainFields(exprNameOf(n, v), n.Parts[1:], c)
	}
	if f := findField(c.owner, head); f != nil {
		if c.isStatic && !f.Modifiers().IsStatic() {
			r.diags = append(r.diags, diag.New(diag.PhaseStaticResolver, n.Range,
				"cannot reference instance field %q from a static context", head))
		}
		// Forward-reference rule (spec.md §4.4): inside a field initializer,
		// an unqualified reference to another instance field g is only
		// legal if g.position < f.position, unless it's an assignment LHS.
		// Qualifying with explicit `this` bypasses this check entirely,
		// since that path goes through resolveFieldAccess, not here.
		if c.inFieldInit && !isLHS {
			if pos, ok := fieldPosition(c.owner, f); ok && pos >= c.fieldPos {
				r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, n.Range,
					"illegal forward reference to field %q", head))
			}
		}
		en := &ast.ExpressionName{ExprBase: ast.ExprBase{Range: n.Range}, Decl: f, IsField: true}
		en.SetType(f.DeclType)
		return r.chainFields(en, n.Parts[1:], c)
	}

	// Try growing prefixes of the dotted run as a type/package reference,
	// the same "longest resolvable prefix" approach spec.md §4.4 step 3
	// describes for reclassifying a SingleAmbiguousName.
	for end := len(n.Parts); end >= 1; end-- {
		prefix := n.Parts[:end]
		if decl := r.lookupType(prefix, c); decl != nil {
			tn := &ast.TypeNameExpr{ExprBase: ast.ExprBase{Range: n.Range}, Decl: decl}
			ref := ast.NewUnresolvedReferenceType(prefix)
			ref.SetDecl(decl)
			tn.SetType(ref)
			return r.chainFields(tn, n.Parts[end:], c)
		}
	}

	r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, n.Range, "cannot resolve name %v", n.Parts))
	bad := &ast.NullLiteral{ExprBase: ast.ExprBase{Range: n.Range}}
	bad.SetType(ast.Null)
	return bad
}

// checkAssignable reports a "type mismatch" diagnostic (spec.md §7) unless
// a value of type from may be assigned to a slot of type to.
func (r *Resolver) checkAssignable(from, to ast.Type, pos source.Position) {
	if from == nil || to == nil || ast.IsAssignableTo(from, to) {
		return
	}
	r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, pos,
		"type mismatch: cannot assign %s to %s", from, to))
}

func exprNameOf(n *ast.Name, v *ast.VarDecl) ast.Expr {
	en := &ast.ExpressionName{ExprBase: ast.ExprBase{Range: n.Range}, Decl: v, IsField: v.Parent != nil && !v.IsParam}
	en.SetType(v.DeclType)
	return en
}

// chainFields wraps base in one FieldAccess per remaining dotted component,
// resolving each against base's (possibly updated) type as it goes.
func (r *Resolver) chainFields(base ast.Expr, rest []string, c ctx) ast.Expr {
	for _, part := range rest {
		fa := &ast.FieldAccess{ExprBase: ast.ExprBase{Range: base.Pos()}, Base: base, FieldName: part}
		r.resolveFieldAccess(fa, c)
		base = fa
	}
	return base
}

func (r *Resolver) resolveFieldAccess(fa *ast.FieldAccess, c ctx) {
	owner := typeDeclOf(fa.Base.Type())
	if owner == nil {
		return
	}
	f := findField(owner, fa.FieldName)
	if f == nil {
		r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, fa.Range, "%s has no field %q", owner.FullyQualifiedName(), fa.FieldName))
		return
	}
	fa.Field = f
	fa.SetType(f.DeclType)
}

func (r *Resolver) resolveMethodInvocation(mi *ast.MethodInvocation, c ctx, env *env) ast.Expr {
	var owner ast.TypeDecl
	if mi.Target == nil {
		owner = c.owner
		if c.isStatic {
			if m := findMethod(owner, mi.MethodName, len(mi.Args)); m != nil && !m.Modifiers().IsStatic() {
				r.diags = append(r.diags, diag.New(diag.PhaseStaticResolver, mi.Range,
					"cannot call instance method %q from a static context", mi.MethodName))
			}
		}
	} else {
		mi.Target = r.resolveExpr(mi.Target, c, env)
		owner = typeDeclOf(mi.Target.Type())
	}
	for i, a := range mi.Args {
		mi.Args[i] = r.resolveExpr(a, c, env)
	}
	if owner == nil {
		return mi
	}
	m := findMethod(owner, mi.MethodName, len(mi.Args))
	if m == nil {
		r.diags = append(r.diags, diag.New(diag.PhaseNameResolution, mi.Range, "%s has no method %q with %d argument(s)", owner.FullyQualifiedName(), mi.MethodName, len(mi.Args)))
		return mi
	}
	mi.Method = m
	mi.SetType(m.ReturnType)
	return mi
}

// typeDeclOf extracts the TypeDecl a value type refers to, for member
// lookup. Only a ReferenceType yields a declaration; the builtin String
// type, array types and primitives give nil (array .length is handled
// specially by the TIR builder rather than through findField, since it has
// no backing VarDecl in user code).
func typeDeclOf(t ast.Type) ast.TypeDecl {
	switch tt := t.(type) {
	case *ast.ReferenceType:
		return tt.Decl()
	default:
		return nil
	}
}

// binaryResultType computes the static type of a binary expression per
// spec.md §4.4: relational/equality/logical operators produce boolean;
// string concatenation (either operand String-like) produces String;
// arithmetic produces int (Joos's only integral result type after
// widening, since byte/short/char promote to int in every binary numeric
// context).
func binaryResultType(op ast.BinOp, l, r ast.Type) ast.Type {
	switch op {
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe, ast.OpLAnd, ast.OpLOr:
		return ast.Boolean
	case ast.OpAdd:
		if isStringLike(l) || isStringLike(r) {
			return ast.String
		}
		return ast.Int
	case ast.OpAnd, ast.OpOr:
		if l != nil && l.Kind() == ast.KindBoolean {
			return ast.Boolean
		}
		return ast.Int
	default:
		return ast.Int
	}
}

// isStringLike reports whether t is java.lang.String or the builtin String
// type; per the Design Notes resolution of the spec's open question, a
// null operand alone never makes `+` a concatenation — only an actual
// String-typed operand does, so `null + null` is a compile error rather
// than silently producing "nullnull".
func isStringLike(t ast.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == ast.KindString {
		return true
	}
	if rt, ok := t.(*ast.ReferenceType); ok {
		if decl := rt.Decl(); decl != nil {
			return decl.FullyQualifiedName() == "java.lang.String"
		}
	}
	return false
}
