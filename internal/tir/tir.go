// Package tir defines the three-address intermediate representation of
// spec.md §3/§4.6 (components 8 and 10): a small statement/expression node
// set with no nested control flow inside expressions. The builder
// (builder.go) emits TIR directly in canonical form — it never produces an
// ESEQ or a Call in expression position in the first place, by always
// flattening a sub-call's result into a fresh temporary before using it —
// so there is no separate canonicalization pass distinct from the builder;
// Canonicalize below is a cheap assertion pass confirming the invariant
// instead of a real rewrite, which is recorded as an open design decision
// in DESIGN.md.
package tir

import "fmt"

// Temp names a three-address temporary. Global is true for a temporary that
// must survive across basic blocks (spec.md §3: "temporary, optionally
// global").
type Temp struct {
	ID     int
	Global bool
}

func (t Temp) String() string {
	if t.Global {
		return fmt.Sprintf("g%d", t.ID)
	}
	return fmt.Sprintf("t%d", t.ID)
}

// BinOp is the 13 arithmetic/relational/logical opcodes a TIR BinaryExpr
// may carry. Short-circuit && and || never reach TIR as a BinOp — they
// lower to CJump-based control flow during building (see builder.go).
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
	And
	Or
)

// Expr is a TIR expression: Const, Temp reference, Name (a static/global
// slot), BinaryExpr, Mem (a memory operand), Call, or ESEQ. After the
// builder runs, Call and ESEQ never appear nested inside another
// expression — only directly as the right-hand side of a Move or as an
// ExprStmt.
type Expr interface{ tirExprNode() }

type Const struct{ Value int32 }
type TempRef struct{ T Temp }
type NameRef struct{ Label string } // reference to a global/static slot
type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

// Mem is a memory dereference at Base+Offset (object field, array element,
// or a spilled local's stack slot once the register allocator runs).
type Mem struct {
	Base   Expr
	Offset int32
}

// Call invokes Label (already mangled) with Args; a non-static call's
// receiver is Args[0] (the "this" layout the object-layout step fixes).
type Call struct {
	Label string
	Args  []Expr
}

// ESEQ sequences a Stmt for its side effect then yields Result. The builder
// never emits one whose Stmt is itself anything but a Move/ExprStmt
// sequence, and eliminates it immediately by hoisting Stmt into the
// enclosing statement list — so ESEQ exists in the type system for
// completeness with spec.md §3 but should not appear in a built program.
type ESEQ struct {
	Stmt   Stmt
	Result Expr
}

func (Const) tirExprNode()      {}
func (TempRef) tirExprNode()    {}
func (NameRef) tirExprNode()    {}
func (*BinaryExpr) tirExprNode() {}
func (*Mem) tirExprNode()        {}
func (*Call) tirExprNode()       {}
func (*ESEQ) tirExprNode()       {}

// Stmt is a TIR statement.
type Stmt interface{ tirStmtNode() }

type Move struct {
	Dst Expr // TempRef or Mem
	Src Expr
}
type Sequence struct{ Stmts []Stmt }
type CJump struct {
	Op          BinOp // one of Lt/Le/Gt/Ge/Eq/Ne
	Left, Right Expr
	IfTrue      string
	IfFalse     string
}
type Jump struct{ Target string }
type LabelStmt struct{ Name string }
type CallStmt struct{ Call *Call }
type ExprStmt struct{ X Expr }
type ReturnStmt struct{ Value Expr } // nil Value for a void return

func (*Move) tirStmtNode()       {}
func (*Sequence) tirStmtNode()   {}
func (*CJump) tirStmtNode()      {}
func (*Jump) tirStmtNode()       {}
func (*LabelStmt) tirStmtNode()  {}
func (*CallStmt) tirStmtNode()   {}
func (*ExprStmt) tirStmtNode()   {}
func (*ReturnStmt) tirStmtNode() {}

// Method is one compiled method/constructor body: a flat statement list
// (already basic-block-delimited by Label/Jump/CJump) plus the parameter
// count and temporary count the register allocator needs.
type Method struct {
	Label      string
	NumParams  int
	NumTemps   int
	Body       []Stmt
}

// Program is every compiled method plus the static layout data the
// assembler needs: per-class dispatch vectors and field offsets (populated
// by the object-layout step and internal/dispatch).
type Program struct {
	Methods []*Method
	Classes []*ClassLayout
}

// ClassLayout is one class's object shape: field offsets (inherited fields
// included, each at its ancestor's offset, followed by this class's own
// fields, consistent with spec.md §4.6's "a subclass's object layout
// extends its parent's")
// and its dispatch vector (method label per DV slot).
type ClassLayout struct {
	Label          string // mangled class-id label
	InstanceSize   int32  // bytes, header included
	FieldOffsets   map[string]int32
	DispatchVector []string // method labels indexed by DVColor
}

// Canonicalize asserts the no-nested-Call/ESEQ invariant documented above.
// It panics on violation, since a canonicalization failure here is a
// builder bug, not a user-facing error.
func Canonicalize(p *Program) {
	for _, m := range p.Methods {
		for _, s := range m.Body {
			assertCanonicalStmt(s)
		}
	}
}

func assertCanonicalStmt(s Stmt) {
	switch st := s.(type) {
	case *Move:
		assertCanonicalExpr(st.Src)
	case *ExprStmt:
		assertCanonicalExpr(st.X)
	case *ReturnStmt:
		if st.Value != nil {
			assertCanonicalExpr(st.Value)
		}
	case *CallStmt:
		for _, a := range st.Call.Args {
			assertCanonicalTop(a)
		}
	case *CJump:
		assertCanonicalTop(st.Left)
		assertCanonicalTop(st.Right)
	}
}

// assertCanonicalExpr allows exactly one top-level Call (the statement's
// own RHS); assertCanonicalTop disallows even that (argument/operand
// position).
func assertCanonicalExpr(e Expr) {
	switch x := e.(type) {
	case *Call:
		for _, a := range x.Args {
			assertCanonicalTop(a)
		}
	case *BinaryExpr:
		assertCanonicalTop(x.Left)
		assertCanonicalTop(x.Right)
	case *Mem:
		assertCanonicalTop(x.Base)
	case *ESEQ:
		panic("internal error: un-eliminated ESEQ reached canonicalization")
	}
}

func assertCanonicalTop(e Expr) {
	switch x := e.(type) {
	case *Call:
		panic("internal error: nested Call in expression position")
	case *ESEQ:
		panic("internal error: un-eliminated ESEQ reached canonicalization")
	case *BinaryExpr:
		assertCanonicalTop(x.Left)
		assertCanonicalTop(x.Right)
	case *Mem:
		assertCanonicalTop(x.Base)
	}
}
