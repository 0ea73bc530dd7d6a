package printer

import (
	"testing"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/buffer"
	"github.com/lython/lython/internal/lexer"
	"github.com/lython/lython/internal/parser"
)

func parseSrc(t *testing.T, src string) []arena.Stmt {
	t.Helper()
	a := arena.New()
	buf := buffer.NewString(src, "<test>")
	p := parser.New(lexer.New(buf), a, "<test>").WithSource(src)
	mod := p.Parse()
	if p.Errors.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, p.Errors.Errors())
	}
	return mod.Body
}

// TestRoundTripIdempotent exercises spec §8's pretty-print round-trip
// property: pretty(parse(s)) must itself re-parse, and pretty-printing the
// result a second time must produce the exact same text (the tree it
// describes no longer changes once printed once).
func TestRoundTripIdempotent(t *testing.T) {
	sources := []string{
		"x = 1 + 2 * 3\n",
		"def f(x, y=1):\n    return x + y\n",
		"if x:\n    y = 1\nelse:\n    y = 2\n",
		"while x:\n    x = x - 1\n",
		"for x in items:\n    total = total + x\n",
		"class Point:\n    def __init__(self, x, y):\n        self.x = x\n        self.y = y\n",
		"xs = [1, 2, 3]\n",
		"d = {1: 2, 3: 4}\n",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			firstBody := parseSrc(t, src)
			firstPretty := Print(firstBody)

			secondBody := parseSrc(t, firstPretty)
			secondPretty := Print(secondBody)

			if firstPretty != secondPretty {
				t.Errorf("pretty-print not idempotent:\nfirst:\n%s\nsecond:\n%s", firstPretty, secondPretty)
			}
		})
	}
}

func TestPrintExpr(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"binop", "1 + 2 * 3", "(1 + (2 * 3))"},
		{"call", "f(1, 2)", "f(1, 2)"},
		{"attribute", "obj.attr", "obj.attr"},
		{"list", "[1, 2, 3]", "[1, 2, 3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := parseSrc(t, tt.src+"\n")
			exprStmt, ok := body[0].(*arena.ExprStmt)
			if !ok {
				t.Fatalf("expected ExprStmt, got %T", body[0])
			}
			got := PrintExpr(exprStmt.Value)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
