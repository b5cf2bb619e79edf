package ast

import "github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"

// Name is the raw, pre-resolution node for a maximal contiguous run of
// simple-name components `a1.a2.....ak` (spec.md §4.4). It covers both the
// old JLS "SimpleName" (k=1) and "QualifiedName" (k>1) productions; the
// name disambiguator (internal/resolve) consumes every Name node and
// replaces it at its use site with one of ExpressionName, FieldAccess
// (chain), MethodInvocation, or a TypeNameExpr that a further FieldAccess/
// MethodInvocation consumes. Per spec.md §3's post-resolution invariant, no
// Name node should remain reachable from the AST root once resolution
// succeeds. No separate pass walks the tree afterwards to verify this.
type Name struct {
	ExprBase
	Parts     []string
	PartPos   []source.Position
	IsMethod  bool // true if this run is the callee of a MethodInvocation
}

// ExpressionName is a resolved read of a local variable, parameter, or
// instance/static field with no further qualification (the leftmost
// resolved component of what was a dotted Name run).
type ExpressionName struct {
	ExprBase
	Decl *VarDecl // local/param, or a FieldDecl (VarDecl alias)
	IsField bool
}

// TypeNameExpr is a resolved reference to a type, standing in for a run
// classified as a type name (spec.md §4.4 step 3/4) so that a further
// FieldAccess/MethodInvocation can consume it as a static member access
// base. It is never a legal final expression on its own (callers must
// consume it), mirroring the original exprResolver.hpp's "SingleAmbiguousName
// must be reclassified" discipline.
type TypeNameExpr struct {
	ExprBase
	Decl TypeDecl
}

// FieldAccess is `Base.Field`: either an explicit qualifier (any
// expression) or a static access through a TypeNameExpr.
type FieldAccess struct {
	ExprBase
	Base      Expr
	FieldName string
	PartPos   source.Position
	Field     *VarDecl // resolved target field
}

// MethodInvocation is `Target.Method(Args)` or an unqualified `Method(Args)`
// (Target == nil, implicit this or static self-call).
type MethodInvocation struct {
	ExprBase
	Target     Expr // nil for unqualified calls
	MethodName string
	PartPos    source.Position
	Args       []Expr
	Method     *MethodDecl
}

// ThisExpr is the `this` keyword.
type ThisExpr struct {
	ExprBase
}

// Literal kinds.
type IntLiteral struct {
	ExprBase
	Value int32
}
type BoolLiteral struct {
	ExprBase
	Value bool
}
type CharLiteral struct {
	ExprBase
	Value rune
}
type StringLiteral struct {
	ExprBase
	Value string
}
type NullLiteral struct {
	ExprBase
}

// BinOp enumerates the 15 arithmetic/relational/logical binary opcodes of
// spec.md §3.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd // eager &
	OpOr  // eager |
	OpLAnd // short-circuit &&
	OpLOr  // short-circuit ||
)

type BinaryExpr struct {
	ExprBase
	Op    BinOp
	Left  Expr
	Right Expr
}

type UnOp int

const (
	OpNeg UnOp = iota // unary -
	OpNot             // unary !
)

type UnaryExpr struct {
	ExprBase
	Op      UnOp
	Operand Expr
}

// AssignExpr is `Target = Value`. Joos's reduced grammar only has plain
// assignment (no compound assignment operators).
type AssignExpr struct {
	ExprBase
	Target Expr
	Value  Expr
}

// CastExpr is `(Type) Operand`.
type CastExpr struct {
	ExprBase
	CastType Type
	Operand  Expr
}

// InstanceOfExpr is `Operand instanceof Type`.
type InstanceOfExpr struct {
	ExprBase
	Operand  Expr
	TestType Type
}

// ArrayAccessExpr is `Array[Index]`.
type ArrayAccessExpr struct {
	ExprBase
	Array Expr
	Index Expr
}

// ArrayCreationExpr is `new ElemType[Size]`.
type ArrayCreationExpr struct {
	ExprBase
	ElemType Type
	Size     Expr
}

// ClassCreationExpr is `new ClassType(Args)`.
type ClassCreationExpr struct {
	ExprBase
	ClassType *ReferenceType
	Args      []Expr
	Ctor      *MethodDecl
}
