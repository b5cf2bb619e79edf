package ast

import "github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"

// Node is the base interface every AST node implements: a source position
// for diagnostics. The closed variant set is spec.md §3's
// {program, package, import, class, interface, field, method, variable,
// block, if, while, for, return, expression-statement, declaration-statement,
// null-statement, expression}; Go expresses "closed variant" as a marker
// method per sub-interface (Stmt/Expr/Decl) rather than a sum type, the same
// idiom the teacher uses for its Statement/Expression interfaces.
type Node interface {
	Pos() source.Position
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
	// Type returns the node's resolved type, or nil before expression
	// resolution has run.
	Type() Type
}

// StmtBase factors out the position field shared by every statement.
type StmtBase struct {
	Range source.Position
}

func (s StmtBase) Pos() source.Position { return s.Range }
func (s StmtBase) stmtNode()            {}

// ExprBase factors out position + resolved-type storage shared by every
// expression.
type ExprBase struct {
	Range    source.Position
	Resolved Type
}

func (e *ExprBase) Pos() source.Position { return e.Range }
func (e *ExprBase) exprNode()            {}
func (e *ExprBase) Type() Type           { return e.Resolved }

// SetType commits the expression's resolved type. Re-assigning with a
// different type is a fatal internal error, mirroring ReferenceType.SetDecl.
func (e *ExprBase) SetType(t Type) {
	if e.Resolved != nil && !e.Resolved.Equals(t) {
		panic("internal error: expression type slot re-assigned with a different type")
	}
	e.Resolved = t
}

// Block is a brace-delimited statement sequence introducing a new scope.
// Scope nesting itself is tracked by internal/resolve's env chain, not by
// any field here (see DESIGN.md: the parser-side ScopeID apparatus this
// repo used to carry was never correctly nested and has been removed).
type Block struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt is `if (Cond) Then [else Else]`.
type IfStmt struct {
	StmtBase
	Cond Expr
	Then Stmt
	Else Stmt // nil if no else-branch
}

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	StmtBase
	Cond Expr
	Body Stmt
}

// ForStmt is `for (Init; Cond; Update) Body`; any of Init/Cond/Update may
// be nil.
type ForStmt struct {
	StmtBase
	Init   Stmt // DeclStmt or ExprStmt, or nil
	Cond   Expr // nil means "always true"
	Update Stmt // ExprStmt, or nil
	Body   Stmt
}

// ReturnStmt is `return [Value];`.
type ReturnStmt struct {
	StmtBase
	Value Expr // nil for a bare `return;`
}

// ExprStmt is an expression used as a statement (assignment, call, or
// increment/decrement in Joos's reduced grammar).
type ExprStmt struct {
	StmtBase
	X Expr
}

// DeclStmt declares one local variable with an optional initializer.
type DeclStmt struct {
	StmtBase
	Var *VarDecl
}

// EmptyStmt is a bare `;`.
type EmptyStmt struct {
	StmtBase
}
