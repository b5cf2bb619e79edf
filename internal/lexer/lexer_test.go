package lexer

import (
	"testing"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
	"github.com/stretchr/testify/assert"
)

func TestNextToken_KeywordsAndPunctuation(t *testing.T) {
	src := "public class Foo extends Bar { int x = 1 + 2; }"
	toks, illegal := Tokenize(source.FileID(0), src)
	assert.Empty(t, illegal)

	want := []TokenType{
		PUBLIC, CLASS, IDENT, EXTENDS, IDENT, LBRACE,
		INT, IDENT, ASSIGN, INT_LIT, PLUS, INT_LIT, SEMI,
		RBRACE, EOF,
	}
	got := make([]TokenType, len(toks))
	for i, tok := range toks {
		got[i] = tok.Type
	}
	assert.Equal(t, want, got)
}

func TestNextToken_TwoCharOperators(t *testing.T) {
	toks, _ := Tokenize(source.FileID(0), "a == b != c <= d >= e && f || !g")
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Contains(t, types, EQ)
	assert.Contains(t, types, NEQ)
	assert.Contains(t, types, LE)
	assert.Contains(t, types, GE)
	assert.Contains(t, types, AMPAMP)
	assert.Contains(t, types, PIPEPIPE)
	assert.Contains(t, types, BANG)
}

func TestNextToken_Literals(t *testing.T) {
	toks, illegal := Tokenize(source.FileID(0), `'a' "hello\n" 42`)
	assert.Empty(t, illegal)
	assert.Equal(t, CHAR_LIT, toks[0].Type)
	assert.Equal(t, STRING_LIT, toks[1].Type)
	assert.Equal(t, INT_LIT, toks[2].Type)
	assert.Equal(t, "42", toks[2].Literal)
}

func TestNextToken_CommentsAreSkipped(t *testing.T) {
	toks, _ := Tokenize(source.FileID(0), "int x; // trailing\n/* block */ int y;")
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{INT, IDENT, SEMI, INT, IDENT, SEMI, EOF}, types)
}

func TestNextToken_IllegalCharacterRecorded(t *testing.T) {
	_, illegal := Tokenize(source.FileID(0), "int x = 1 @ 2;")
	if assert.Len(t, illegal, 1) {
		assert.Contains(t, illegal[0].Message, "@")
	}
}
