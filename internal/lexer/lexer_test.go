package lexer

import (
	"testing"

	"github.com/lython/lython/internal/buffer"
)

func tokenize(src string) []Token {
	lex := New(buffer.NewString(src, "<test>"))
	var toks []Token
	for {
		tok := lex.Next()
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks
		}
	}
}

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestIndentDedent(t *testing.T) {
	src := "if x:\n    y = 1\nz = 2\n"
	toks := tokenize(src)
	var gotIndent, gotDedent bool
	for _, tok := range toks {
		if tok.Kind == TokenIndent {
			gotIndent = true
		}
		if tok.Kind == TokenDedent {
			gotDedent = true
		}
	}
	if !gotIndent {
		t.Error("expected an INDENT token for the if-block")
	}
	if !gotDedent {
		t.Error("expected a DEDENT token once the block ends")
	}
}

func TestNumbers(t *testing.T) {
	toks := tokenize("1 2.5 10\n")
	want := []TokenKind{TokenInt, TokenFloat, TokenInt, TokenNewline, TokenEOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if toks[0].IntVal != 1 {
		t.Errorf("expected IntVal 1, got %d", toks[0].IntVal)
	}
	if toks[1].FloatVal != 2.5 {
		t.Errorf("expected FloatVal 2.5, got %g", toks[1].FloatVal)
	}
}

func TestKeywordsVsIdentifiers(t *testing.T) {
	toks := tokenize("def foo\n")
	if toks[0].Kind != TokenDef {
		t.Errorf("expected 'def' to lex as TokenDef, got %v", toks[0].Kind)
	}
	if toks[1].Kind != TokenIdent {
		t.Errorf("expected 'foo' to lex as TokenIdent, got %v", toks[1].Kind)
	}
}

// TestFStringPrefixDetected confirms an `f"..."` (or `F'...'`) literal
// lexes as one TokenFStringStart carrying the raw interior text, while a
// bare identifier named `f` followed by something other than a quote
// still lexes as an ordinary identifier.
func TestFStringPrefixDetected(t *testing.T) {
	toks := tokenize(`f"x={y}"` + "\n")
	if toks[0].Kind != TokenFStringStart {
		t.Fatalf("expected TokenFStringStart, got %v", toks[0].Kind)
	}
	if toks[0].StrVal != "x={y}" {
		t.Errorf("expected raw interior text %q, got %q", "x={y}", toks[0].StrVal)
	}

	toks = tokenize("f + 1\n")
	if toks[0].Kind != TokenIdent {
		t.Errorf("expected a bare 'f' identifier to lex as TokenIdent, got %v", toks[0].Kind)
	}
}

// TestIncorrectTokenNeverAborts exercises spec §4.2's "lexer never aborts,
// emits and continues": an unrecognized character becomes a TokenIncorrect
// but lexing carries on to produce the tokens after it.
func TestIncorrectTokenNeverAborts(t *testing.T) {
	toks := tokenize("x = 1 $ y = 2\n")
	var sawIncorrect bool
	for _, tok := range toks {
		if tok.Kind == TokenIncorrect {
			sawIncorrect = true
		}
	}
	if !sawIncorrect {
		t.Fatal("expected a TokenIncorrect for '$'")
	}
	if toks[len(toks)-1].Kind != TokenEOF {
		t.Errorf("expected lexing to continue through to EOF, got final token %v", toks[len(toks)-1].Kind)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lex := New(buffer.NewString("x y\n", "<test>"))
	first := lex.Peek()
	second := lex.Peek()
	if first.Kind != second.Kind || first.Lexeme != second.Lexeme {
		t.Fatalf("expected repeated Peek to return the same token, got %v then %v", first, second)
	}
	advanced := lex.Next()
	if advanced.Lexeme != first.Lexeme {
		t.Errorf("expected Next to return the previously peeked token, got %v", advanced)
	}
}
