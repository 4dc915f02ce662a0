package lexer

import "testing"

func tokens(t *testing.T, src string) []Token {
	t.Helper()
	l, err := New(src)
	if err != nil {
		t.Fatalf("New(%q): %v", src, err)
	}
	var out []Token
	for {
		out = append(out, l.Tok)
		if l.Tok.Type == EOF {
			break
		}
		if err := l.Next(); err != nil {
			t.Fatalf("Next(): %v", err)
		}
	}
	return out
}

func TestSingleCharTokens(t *testing.T) {
	toks := tokens(t, "([#])")
	want := []TokenType{LeftParen, LeftBracket, Hash, RightBracket, RightParen, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestString(t *testing.T) {
	toks := tokens(t, `"hello world"`)
	if toks[0].Type != String || toks[0].Lexeme != "hello world" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := New(`"hello`)
	if err == nil {
		t.Fatal("expected LexError for unterminated string")
	}
	if _, ok := err.(*LexError); !ok {
		t.Fatalf("expected *LexError, got %T", err)
	}
}

func TestQuotedSymbol(t *testing.T) {
	toks := tokens(t, "'foo")
	if toks[0].Type != String || toks[0].Lexeme != "foo" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestNumber(t *testing.T) {
	toks := tokens(t, "3.5 42")
	if toks[0].Type != Number || toks[0].Num != 3.5 {
		t.Fatalf("got %v", toks[0])
	}
	if toks[1].Type != Number || toks[1].Num != 42 {
		t.Fatalf("got %v", toks[1])
	}
}

func TestSymbol(t *testing.T) {
	for _, src := range []string{"foo", "foo-bar", "+", "-", "*", "/", "?x", "foo2"} {
		toks := tokens(t, src)
		if toks[0].Type != Symbol || toks[0].Lexeme != src {
			t.Fatalf("lexing %q: got %v", src, toks[0])
		}
	}
}

func TestDefunForm(t *testing.T) {
	toks := tokens(t, "(defun f [x] x)")
	want := []TokenType{LeftParen, Symbol, Symbol, LeftBracket, Symbol, RightBracket, Symbol, RightParen, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestInvalidCharacter(t *testing.T) {
	_, err := New("@")
	if err == nil {
		t.Fatal("expected LexError for invalid character")
	}
}
