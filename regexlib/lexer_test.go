package regexlib

import "testing"

func TestLexerTokens(t *testing.T) {
	l := newLexer(`a\*(b|c)[d-f]+.?\d`)
	want := []tokenType{
		tChar, tChar, tLParen, tChar, tUnion, tChar, tRParen,
		tLBracket, tChar, tDash, tChar, tRBracket,
		tPlus, tDot, tQMark, tClass, tEOF,
	}
	for i, typ := range want {
		tok, err := l.next()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.typ != typ {
			t.Fatalf("token %d: got %v, want %v", i, tok.typ, typ)
		}
	}
}

func TestLexerEscapedMetachar(t *testing.T) {
	l := newLexer(`\[`)
	tok, err := l.next()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if tok.typ != tChar || tok.ch != '[' {
		t.Fatalf("escaped metacharacter: got %v %q", tok.typ, tok.ch)
	}
}

func TestLexerUnknownEscape(t *testing.T) {
	l := newLexer(`ab\z`)
	l.next()
	l.next()
	if _, err := l.next(); err == nil {
		t.Fatalf("unknown escape must fail")
	}
}
