package parser

import (
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/lexer"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
)

// Precedence levels, lowest to highest, mirroring the teacher's
// LOWEST/ASSIGN/.../INDEX/MEMBER constant block and precedences map.
const (
	precLowest = iota
	precAssign
	precLogOr
	precLogAnd
	precBitOr
	precBitAnd
	precEquality
	precRelational // also covers `instanceof`
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var precedences = map[lexer.TokenType]int{
	lexer.PIPEPIPE:   precLogOr,
	lexer.AMPAMP:     precLogAnd,
	lexer.PIPE:       precBitOr,
	lexer.AMP:        precBitAnd,
	lexer.EQ:         precEquality,
	lexer.NEQ:        precEquality,
	lexer.LT:         precRelational,
	lexer.LE:         precRelational,
	lexer.GT:         precRelational,
	lexer.GE:         precRelational,
	lexer.INSTANCEOF: precRelational,
	lexer.PLUS:       precAdditive,
	lexer.MINUS:      precAdditive,
	lexer.STAR:       precMultiplicative,
	lexer.SLASH:      precMultiplicative,
	lexer.PERCENT:    precMultiplicative,
}

var binOps = map[lexer.TokenType]ast.BinOp{
	lexer.PIPEPIPE: ast.OpLOr,
	lexer.AMPAMP:   ast.OpLAnd,
	lexer.PIPE:     ast.OpOr,
	lexer.AMP:      ast.OpAnd,
	lexer.EQ:       ast.OpEq,
	lexer.NEQ:      ast.OpNe,
	lexer.LT:       ast.OpLt,
	lexer.LE:       ast.OpLe,
	lexer.GT:       ast.OpGt,
	lexer.GE:       ast.OpGe,
	lexer.PLUS:     ast.OpAdd,
	lexer.MINUS:    ast.OpSub,
	lexer.STAR:     ast.OpMul,
	lexer.SLASH:    ast.OpDiv,
	lexer.PERCENT:  ast.OpMod,
}

// parseExpr parses a full expression, assignment included. Joos's reduced
// grammar has no comma-expressions and no compound assignment operators.
func (p *Parser) parseExpr() ast.Expr {
	left := p.parseBinary(precLogOr)
	if p.curIs(lexer.ASSIGN) {
		pos := p.advance().Pos
		value := p.parseExpr() // right-associative
		return &ast.AssignExpr{ExprBase: ast.ExprBase{Range: pos}, Target: left, Value: value}
	}
	return left
}

// parseBinary runs the precedence-climbing loop above minPrec, handling
// `instanceof` as a special infix (it takes a Type, not an Expr, on its
// right-hand side).
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := precedences[p.cur().Type]
		if !ok || prec < minPrec {
			return left
		}
		if p.curIs(lexer.INSTANCEOF) {
			pos := p.advance().Pos
			testType := p.parseType()
			left = &ast.InstanceOfExpr{ExprBase: ast.ExprBase{Range: pos}, Operand: left, TestType: testType}
			continue
		}
		op := binOps[p.cur().Type]
		pos := p.advance().Pos
		right := p.parseBinary(prec + 1)
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Range: pos}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Type {
	case lexer.MINUS:
		pos := p.advance().Pos
		return &ast.UnaryExpr{ExprBase: ast.ExprBase{Range: pos}, Op: ast.OpNeg, Operand: p.parseUnary()}
	case lexer.BANG:
		pos := p.advance().Pos
		return &ast.UnaryExpr{ExprBase: ast.ExprBase{Range: pos}, Op: ast.OpNot, Operand: p.parseUnary()}
	case lexer.LPAREN:
		if cast, ok := p.tryParseCast(); ok {
			return cast
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

// tryParseCast attempts the `(Type) unary` production, backtracking to a
// plain parenthesized expression on failure. Primitive-type casts are
// unambiguous (a type keyword can never start an expression); reference-type
// casts are accepted only when followed by a token that cannot start a
// binary operator, matching the disambiguation the official Joos grammar
// performs via restricted follow sets.
func (p *Parser) tryParseCast() (ast.Expr, bool) {
	mark := p.mark()
	pos := p.cur().Pos
	p.advance() // '('

	if isPrimitiveTypeStart(p.cur().Type) {
		typ := p.parseType()
		if !p.curIs(lexer.RPAREN) {
			p.reset(mark)
			return nil, false
		}
		p.advance()
		operand := p.parseUnary()
		return &ast.CastExpr{ExprBase: ast.ExprBase{Range: pos}, CastType: typ, Operand: operand}, true
	}

	if p.curIs(lexer.IDENT) {
		typ := p.parseReferenceTypeTail()
		isArray := typ.Kind() == ast.KindArray
		if !p.curIs(lexer.RPAREN) {
			p.reset(mark)
			return nil, false
		}
		p.advance() // ')'
		if !isArray && !castFollowSet[p.cur().Type] {
			p.reset(mark)
			return nil, false
		}
		operand := p.parseUnary()
		return &ast.CastExpr{ExprBase: ast.ExprBase{Range: pos}, CastType: typ, Operand: operand}, true
	}

	p.reset(mark)
	return nil, false
}

// castFollowSet is the set of tokens that may legally follow `(RefType)`
// when it is a cast rather than a parenthesized expression.
var castFollowSet = map[lexer.TokenType]bool{
	lexer.IDENT:      true,
	lexer.INT_LIT:    true,
	lexer.CHAR_LIT:   true,
	lexer.STRING_LIT: true,
	lexer.TRUE:       true,
	lexer.FALSE:      true,
	lexer.NULL:       true,
	lexer.THIS:       true,
	lexer.NEW:        true,
	lexer.LPAREN:     true,
	lexer.BANG:       true,
}

func (p *Parser) parsePostfix(base ast.Expr) ast.Expr {
	for {
		switch p.cur().Type {
		case lexer.DOT:
			pos := p.advance().Pos
			name := p.expect(lexer.IDENT).Literal
			if p.curIs(lexer.LPAREN) {
				args := p.parseArgs()
				base = &ast.MethodInvocation{ExprBase: ast.ExprBase{Range: pos}, Target: base, MethodName: name, PartPos: pos, Args: args}
			} else {
				base = &ast.FieldAccess{ExprBase: ast.ExprBase{Range: pos}, Base: base, FieldName: name, PartPos: pos}
			}
		case lexer.LBRACK:
			pos := p.advance().Pos
			idx := p.parseExpr()
			p.expect(lexer.RBRACK)
			base = &ast.ArrayAccessExpr{ExprBase: ast.ExprBase{Range: pos}, Array: base, Index: idx}
		default:
			return base
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	if !p.curIs(lexer.RPAREN) {
		args = append(args, p.parseExpr())
		for p.curIs(lexer.COMMA) {
			p.advance()
			args = append(args, p.parseExpr())
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT_LIT:
		p.advance()
		return &ast.IntLiteral{ExprBase: ast.ExprBase{Range: tok.Pos}, Value: parseIntLiteral(tok.Literal)}
	case lexer.CHAR_LIT:
		p.advance()
		return &ast.CharLiteral{ExprBase: ast.ExprBase{Range: tok.Pos}, Value: parseCharLiteral(tok.Literal)}
	case lexer.STRING_LIT:
		p.advance()
		return &ast.StringLiteral{ExprBase: ast.ExprBase{Range: tok.Pos}, Value: parseStringLiteral(tok.Literal)}
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLiteral{ExprBase: ast.ExprBase{Range: tok.Pos}, Value: true}
	case lexer.FALSE:
		p.advance()
		return &ast.BoolLiteral{ExprBase: ast.ExprBase{Range: tok.Pos}, Value: false}
	case lexer.NULL:
		p.advance()
		return &ast.NullLiteral{ExprBase: ast.ExprBase{Range: tok.Pos}}
	case lexer.THIS:
		p.advance()
		return &ast.ThisExpr{ExprBase: ast.ExprBase{Range: tok.Pos}}
	case lexer.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(lexer.RPAREN)
		return inner
	case lexer.NEW:
		return p.parseNew()
	case lexer.IDENT:
		return p.parseNameOrCall()
	default:
		p.errorf("unexpected token %q in expression", tok.Literal)
		p.advance()
		return &ast.NullLiteral{ExprBase: ast.ExprBase{Range: tok.Pos}}
	}
}

// parseNameOrCall consumes a maximal dotted identifier run. If the run is
// immediately followed by '(', the last component splits off as a method
// name and the remaining prefix (if any) becomes the call's Target;
// otherwise the whole run is a single raw ast.Name awaiting disambiguation
// by internal/resolve (spec.md §4.4).
func (p *Parser) parseNameOrCall() ast.Expr {
	pos := p.cur().Pos
	var parts []string
	var partPos []source.Position
	parts = append(parts, p.cur().Literal)
	partPos = append(partPos, p.cur().Pos)
	p.advance()
	for p.curIs(lexer.DOT) && p.peekAt(1).Type == lexer.IDENT {
		p.advance()
		parts = append(parts, p.cur().Literal)
		partPos = append(partPos, p.cur().Pos)
		p.advance()
	}

	if p.curIs(lexer.LPAREN) {
		methodName := parts[len(parts)-1]
		var target ast.Expr
		if len(parts) > 1 {
			target = &ast.Name{ExprBase: ast.ExprBase{Range: pos}, Parts: parts[:len(parts)-1], PartPos: partPos[:len(partPos)-1]}
		}
		args := p.parseArgs()
		return &ast.MethodInvocation{ExprBase: ast.ExprBase{Range: pos}, Target: target, MethodName: methodName, PartPos: partPos[len(partPos)-1], Args: args}
	}

	return &ast.Name{ExprBase: ast.ExprBase{Range: pos}, Parts: parts, PartPos: partPos}
}

// parseNew parses `new ClassType(args)` or `new ElemType[size]`, the two
// object/array creation forms of spec.md §3.
func (p *Parser) parseNew() ast.Expr {
	pos := p.advance().Pos // 'new'

	if isPrimitiveTypeStart(p.cur().Type) {
		elem := p.parseBasePrimitive()
		p.expect(lexer.LBRACK)
		size := p.parseExpr()
		p.expect(lexer.RBRACK)
		return &ast.ArrayCreationExpr{ExprBase: ast.ExprBase{Range: pos}, ElemType: elem, Size: size}
	}

	ref := p.parseReferenceType()
	if p.curIs(lexer.LBRACK) {
		p.advance()
		size := p.parseExpr()
		p.expect(lexer.RBRACK)
		return &ast.ArrayCreationExpr{ExprBase: ast.ExprBase{Range: pos}, ElemType: ref, Size: size}
	}
	args := p.parseArgs()
	return &ast.ClassCreationExpr{ExprBase: ast.ExprBase{Range: pos}, ClassType: ref, Args: args}
}

func (p *Parser) parseBasePrimitive() ast.Type {
	switch p.advance().Type {
	case lexer.BOOLEAN:
		return ast.Boolean
	case lexer.BYTE:
		return ast.Byte
	case lexer.SHORT:
		return ast.Short
	case lexer.INT:
		return ast.Int
	case lexer.CHAR:
		return ast.Char
	default:
		return ast.Int
	}
}

func parseIntLiteral(lit string) int32 {
	var v int64
	for i := 0; i < len(lit); i++ {
		v = v*10 + int64(lit[i]-'0')
	}
	return int32(v)
}

func parseCharLiteral(lit string) rune {
	r := []rune(lit)
	if len(r) > 0 && r[0] == '\\' && len(r) > 1 {
		return unescapeOne(r[1])
	}
	if len(r) > 0 {
		return r[0]
	}
	return 0
}

func parseStringLiteral(lit string) string {
	var out []rune
	rs := []rune(lit)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '\\' && i+1 < len(rs) {
			i++
			out = append(out, unescapeOne(rs[i]))
			continue
		}
		out = append(out, rs[i])
	}
	return string(out)
}

func unescapeOne(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\':
		return '\\'
	case '\'':
		return '\''
	case '"':
		return '"'
	default:
		return r
	}
}
