// Package parser turns a token stream into an internal/ast.Program. It
// follows the teacher's hand-written recursive-descent + Pratt-expression
// idiom (internal/parser/parser.go's precedence table and
// prefix/infix function maps) rather than a generated grammar, adapted from
// DWScript's expression grammar to Joos's: assignment, short-circuit/eager
// logical, relational/instanceof, additive, multiplicative, unary, cast,
// and postfix (field access, method call, array index) levels.
package parser

import (
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
)

// Parser consumes a pre-tokenized slice for one compilation unit and
// produces an ast.Program. It is not safe for concurrent use; the compiler
// pipeline (internal/compiler) runs one Parser per file, one file after
// another.
type Parser struct {
	file  source.FileID
	toks  []lexer.Token
	pos   int
	diags []*diag.Diagnostic
}

// New creates a Parser over a complete, EOF-terminated token slice.
func New(file source.FileID, toks []lexer.Token) *Parser {
	return &Parser{file: file, toks: toks}
}

// Parse is the entry point: package decl, imports, then exactly one
// top-level type declaration (spec.md §3 Program).
func (p *Parser) Parse() (*ast.Program, []*diag.Diagnostic) {
	prog := &ast.Program{File: p.file}

	if p.curIs(lexer.PACKAGE) {
		p.advance()
		prog.Package = p.parseDottedName()
		p.expect(lexer.SEMI)
	}

	for p.curIs(lexer.IMPORT) {
		p.advance()
		imp := ast.ImportDecl{Range: p.cur().Pos}
		imp.Path = p.parseDottedNameWithStar(&imp.OnDemand)
		p.expect(lexer.SEMI)
		prog.Imports = append(prog.Imports, imp)
	}

	prog.TypeDecl = p.parseTypeDecl()
	return prog, p.diags
}

func (p *Parser) parseDottedName() []string {
	var parts []string
	parts = append(parts, p.expect(lexer.IDENT).Literal)
	for p.curIs(lexer.DOT) {
		p.advance()
		parts = append(parts, p.expect(lexer.IDENT).Literal)
	}
	return parts
}

func (p *Parser) parseDottedNameWithStar(onDemand *bool) []string {
	var parts []string
	parts = append(parts, p.expect(lexer.IDENT).Literal)
	for p.curIs(lexer.DOT) {
		p.advance()
		if p.curIs(lexer.STAR) {
			p.advance()
			*onDemand = true
			return parts
		}
		parts = append(parts, p.expect(lexer.IDENT).Literal)
	}
	return parts
}

// --- token stream helpers ---

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *Parser) peekAt(offset int) lexer.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[i]
}

func (p *Parser) curIs(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Type != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	if p.cur().Type != t {
		p.errorf("expected token %d, got %q", t, p.cur().Literal)
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(format string, args ...any) {
	p.diags = append(p.diags, diag.New(diag.PhaseParse, p.cur().Pos, format, args...))
}

// mark/reset implement the backtracking needed to disambiguate casts and
// local-variable-declaration-vs-expression statements, the same two
// ambiguities the official Joos grammar resolves with lookahead.
func (p *Parser) mark() int      { return p.pos }
func (p *Parser) reset(mark int) { p.pos = mark }

// --- modifiers ---

func (p *Parser) parseModifiers() ast.ModifierSet {
	var mods []ast.Modifier
	for {
		switch p.cur().Type {
		case lexer.PUBLIC:
			mods = append(mods, ast.Public)
		case lexer.PROTECTED:
			mods = append(mods, ast.Protected)
		case lexer.PRIVATE:
			// Joos disallows private; the parser itself records it as a
			// user diagnostic and drops the modifier.
			p.errorf("private is not permitted in Joos")
		case lexer.STATIC:
			mods = append(mods, ast.Static)
		case lexer.ABSTRACT:
			mods = append(mods, ast.Abstract)
		case lexer.FINAL:
			mods = append(mods, ast.Final)
		case lexer.NATIVE:
			mods = append(mods, ast.Native)
		default:
			return ast.NewModifierSet(mods...)
		}
		p.advance()
	}
}

// --- type declarations ---

func (p *Parser) parseTypeDecl() ast.TypeDecl {
	mods := p.parseModifiers()
	switch p.cur().Type {
	case lexer.CLASS:
		return p.parseClass(mods)
	case lexer.INTERFACE:
		return p.parseInterface(mods)
	default:
		p.errorf("expected 'class' or 'interface', got %q", p.cur().Literal)
		return nil
	}
}

func (p *Parser) parseClass(mods ast.ModifierSet) *ast.ClassDecl {
	pos := p.cur().Pos
	p.expect(lexer.CLASS)
	name := p.expect(lexer.IDENT).Literal

	c := &ast.ClassDecl{
		DeclBase: ast.DeclBase{Simple: name, FQN: name, Mods: mods, Range: pos},
	}

	if p.curIs(lexer.EXTENDS) {
		p.advance()
		c.SuperRef = p.parseReferenceType()
	}
	if p.curIs(lexer.IMPLEMENTS) {
		p.advance()
		c.Interfaces = append(c.Interfaces, p.parseReferenceType())
		for p.curIs(lexer.COMMA) {
			p.advance()
			c.Interfaces = append(c.Interfaces, p.parseReferenceType())
		}
	}

	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		p.parseClassMember(c)
	}
	p.expect(lexer.RBRACE)
	return c
}

func (p *Parser) parseInterface(mods ast.ModifierSet) *ast.InterfaceDecl {
	pos := p.cur().Pos
	p.expect(lexer.INTERFACE)
	name := p.expect(lexer.IDENT).Literal

	i := &ast.InterfaceDecl{
		DeclBase: ast.DeclBase{Simple: name, FQN: name, Mods: mods, Range: pos},
	}

	if p.curIs(lexer.EXTENDS) {
		p.advance()
		i.Extends = append(i.Extends, p.parseReferenceType())
		for p.curIs(lexer.COMMA) {
			p.advance()
			i.Extends = append(i.Extends, p.parseReferenceType())
		}
	}

	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		memberMods := p.parseModifiers()
		ret := p.parseType()
		mname := p.expect(lexer.IDENT).Literal
		m := p.parseMethodTail(memberMods, ret, mname, i)
		i.Methods = append(i.Methods, m)
	}
	p.expect(lexer.RBRACE)
	return i
}

func (p *Parser) parseClassMember(owner *ast.ClassDecl) {
	mods := p.parseModifiers()

	// Constructor: IDENT matching the class's simple name, followed by '('.
	if p.curIs(lexer.IDENT) && p.cur().Literal == owner.Simple && p.peekAt(1).Type == lexer.LPAREN {
		name := p.advance().Literal
		m := p.parseMethodTail(mods, ast.Void, name, owner)
		m.IsConstructor = true
		owner.Constructors = append(owner.Constructors, m)
		return
	}

	typ := p.parseType()
	name := p.expect(lexer.IDENT).Literal

	if p.curIs(lexer.LPAREN) {
		m := p.parseMethodTail(mods, typ, name, owner)
		owner.Methods = append(owner.Methods, m)
		return
	}

	f := &ast.VarDecl{
		DeclBase: ast.DeclBase{Simple: name, FQN: owner.FullyQualifiedName() + "." + name, Mods: mods, Parent: owner},
		DeclType: typ,
	}
	if p.curIs(lexer.ASSIGN) {
		p.advance()
		f.Init = p.parseExpr()
	}
	p.expect(lexer.SEMI)
	owner.Fields = append(owner.Fields, f)
}

// parseMethodTail parses the parameter list and body/semicolon common to
// methods and constructors, given the modifiers/return-type/name already
// consumed.
func (p *Parser) parseMethodTail(mods ast.ModifierSet, ret ast.Type, name string, owner ast.TypeDecl) *ast.MethodDecl {
	m := &ast.MethodDecl{
		DeclBase:   ast.DeclBase{Simple: name, Mods: mods, Parent: owner},
		ReturnType: ret,
		Owner:      owner,
	}
	if owner != nil {
		m.FQN = owner.FullyQualifiedName() + "." + name
	} else {
		m.FQN = name
	}

	p.expect(lexer.LPAREN)
	idx := 0
	if !p.curIs(lexer.RPAREN) {
		m.Params = append(m.Params, p.parseParam(idx))
		idx++
		for p.curIs(lexer.COMMA) {
			p.advance()
			m.Params = append(m.Params, p.parseParam(idx))
			idx++
		}
	}
	p.expect(lexer.RPAREN)

	if p.curIs(lexer.SEMI) {
		p.advance() // abstract/interface/native: no body
		return m
	}
	m.Body = p.parseBlock()
	return m
}

func (p *Parser) parseParam(idx int) *ast.VarDecl {
	typ := p.parseType()
	name := p.expect(lexer.IDENT).Literal
	return &ast.VarDecl{
		DeclBase: ast.DeclBase{Simple: name},
		DeclType: typ,
		IsParam:  true,
		Index:    idx,
	}
}

// --- types ---

func (p *Parser) parseType() ast.Type {
	var base ast.Type
	switch p.cur().Type {
	case lexer.BOOLEAN:
		p.advance()
		base = ast.Boolean
	case lexer.BYTE:
		p.advance()
		base = ast.Byte
	case lexer.SHORT:
		p.advance()
		base = ast.Short
	case lexer.INT:
		p.advance()
		base = ast.Int
	case lexer.CHAR:
		p.advance()
		base = ast.Char
	case lexer.VOID:
		p.advance()
		base = ast.Void
	case lexer.IDENT:
		base = p.parseReferenceType()
	default:
		p.errorf("expected a type, got %q", p.cur().Literal)
		base = ast.Int
	}
	for p.curIs(lexer.LBRACK) {
		p.advance()
		p.expect(lexer.RBRACK)
		base = ast.NewArrayType(base)
	}
	return base
}

func (p *Parser) parseReferenceType() *ast.ReferenceType {
	return ast.NewUnresolvedReferenceType(p.parseDottedName())
}

// --- statements ---

func (p *Parser) parseBlock() *ast.Block {
	pos := p.cur().Pos
	p.expect(lexer.LBRACE)
	b := &ast.Block{StmtBase: ast.StmtBase{Range: pos}}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		b.Stmts = append(b.Stmts, p.parseStatement())
	}
	p.expect(lexer.RBRACE)
	return b
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Type {
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.SEMI:
		pos := p.advance().Pos
		return &ast.EmptyStmt{StmtBase: ast.StmtBase{Range: pos}}
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.RETURN:
		return p.parseReturn()
	default:
		return p.parseLocalOrExprStmt()
	}
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.advance().Pos // 'if'
	p.expect(lexer.LPAREN)
	cond := p.parseExpr()
	p.expect(lexer.RPAREN)
	then := p.parseStatement()
	s := &ast.IfStmt{StmtBase: ast.StmtBase{Range: pos}, Cond: cond, Then: then}
	if p.curIs(lexer.ELSE) {
		p.advance()
		s.Else = p.parseStatement()
	}
	return s
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.advance().Pos
	p.expect(lexer.LPAREN)
	cond := p.parseExpr()
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStmt{StmtBase: ast.StmtBase{Range: pos}, Cond: cond, Body: body}
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.advance().Pos
	p.expect(lexer.LPAREN)
	s := &ast.ForStmt{StmtBase: ast.StmtBase{Range: pos}}
	if !p.curIs(lexer.SEMI) {
		s.Init = p.parseLocalOrExprStmt()
	} else {
		p.advance()
	}
	if !p.curIs(lexer.SEMI) {
		s.Cond = p.parseExpr()
	}
	p.expect(lexer.SEMI)
	if !p.curIs(lexer.RPAREN) {
		s.Update = &ast.ExprStmt{X: p.parseExpr()}
	}
	p.expect(lexer.RPAREN)
	s.Body = p.parseStatement()
	return s
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.advance().Pos
	r := &ast.ReturnStmt{StmtBase: ast.StmtBase{Range: pos}}
	if !p.curIs(lexer.SEMI) {
		r.Value = p.parseExpr()
	}
	p.expect(lexer.SEMI)
	return r
}

// parseLocalOrExprStmt resolves the classic declaration-vs-expression
// ambiguity (`Foo x = ...;` vs `foo.x = ...;`) by a tentative parse: if the
// statement starts with a primitive-type keyword it is unambiguously a
// declaration; otherwise try parsing a reference type + identifier and
// backtrack to an expression statement on mismatch.
func (p *Parser) parseLocalOrExprStmt() ast.Stmt {
	pos := p.cur().Pos

	if isPrimitiveTypeStart(p.cur().Type) {
		return p.finishLocalDecl(pos)
	}

	if p.curIs(lexer.IDENT) {
		m := p.mark()
		typ := p.parseReferenceTypeTail()
		if typ != nil && p.curIs(lexer.IDENT) {
			return p.finishLocalDeclWithType(pos, typ)
		}
		p.reset(m)
	}

	x := p.parseExpr()
	p.expect(lexer.SEMI)
	return &ast.ExprStmt{StmtBase: ast.StmtBase{Range: pos}, X: x}
}

// parseReferenceTypeTail tentatively parses `Ident(.Ident)*([])*`; returns
// nil (leaving position untouched by the caller's reset) only on a
// malformed dotted name, which cannot happen given the IDENT guard above,
// so this always succeeds when called.
func (p *Parser) parseReferenceTypeTail() ast.Type {
	var t ast.Type = p.parseReferenceType()
	for p.curIs(lexer.LBRACK) && p.peekAt(1).Type == lexer.RBRACK {
		p.advance()
		p.advance()
		t = ast.NewArrayType(t)
	}
	return t
}

func (p *Parser) finishLocalDecl(pos source.Position) ast.Stmt {
	typ := p.parseType()
	return p.finishLocalDeclWithType(pos, typ)
}

func (p *Parser) finishLocalDeclWithType(pos source.Position, typ ast.Type) ast.Stmt {
	name := p.expect(lexer.IDENT).Literal
	v := &ast.VarDecl{DeclBase: ast.DeclBase{Simple: name, Range: pos}, DeclType: typ}
	if p.curIs(lexer.ASSIGN) {
		p.advance()
		v.Init = p.parseExpr()
	}
	p.expect(lexer.SEMI)
	return &ast.DeclStmt{StmtBase: ast.StmtBase{Range: pos}, Var: v}
}

func isPrimitiveTypeStart(t lexer.TokenType) bool {
	switch t {
	case lexer.BOOLEAN, lexer.BYTE, lexer.SHORT, lexer.INT, lexer.CHAR, lexer.VOID:
		return true
	default:
		return false
	}
}
