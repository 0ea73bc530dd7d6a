package parser

import (
	"fmt"
	"testing"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/buffer"
	"github.com/lython/lython/internal/lexer"
)

// parseString mirrors the teacher's parser_test.go helper: lex+parse a
// snippet and hand back the parsed body plus any recorded errors, instead
// of panicking the test itself.
func parseString(input string) (body []arena.Stmt, errs []error) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, fmt.Errorf("parser panic: %v", r))
			body = nil
		}
	}()

	a := arena.New()
	buf := buffer.NewString(input, "<test>")
	lex := lexer.New(buf)
	p := New(lex, a, "<test>").WithSource(input)
	mod := p.Parse()
	for _, e := range p.Errors.Errors() {
		errs = append(errs, e)
	}
	return mod.Body, errs
}

func assertParseSuccess(t *testing.T, input, description string) []arena.Stmt {
	body, errs := parseString(input)
	if len(errs) > 0 {
		t.Errorf("%s: parsing failed with errors: %v", description, errs)
		return nil
	}
	return body
}

func assertParseError(t *testing.T, input, description string) {
	_, errs := parseString(input)
	if len(errs) == 0 {
		t.Errorf("%s: expected parse errors but got none", description)
	}
}

func TestAssignments(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantStmts int
	}{
		{"simple assign", "x = 5\n", 1},
		{"chained arithmetic", "x = 1 + 2 * 3\n", 1},
		{"multiple targets", "x = y = 5\n", 1},
		{"annotated assign", "x: int = 5\n", 1},
		{"augmented assign", "x += 1\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := assertParseSuccess(t, tt.input, tt.name)
			if body != nil && len(body) != tt.wantStmts {
				t.Errorf("%s: got %d statements, want %d", tt.name, len(body), tt.wantStmts)
			}
		})
	}
}

func TestFunctionDefs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no params", "def f():\n    return 1\n"},
		{"params with annotations", "def f(x: int, y: int) -> int:\n    return x + y\n"},
		{"default params", "def f(x, y=1):\n    return x + y\n"},
		{"async def", "async def f():\n    return 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := assertParseSuccess(t, tt.input, tt.name)
			if len(body) != 1 {
				return
			}
			if _, ok := body[0].(*arena.FunctionDef); !ok {
				t.Errorf("%s: top-level statement is %T, want *arena.FunctionDef", tt.name, body[0])
			}
		})
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"if/else", "if x:\n    y = 1\nelse:\n    y = 2\n"},
		{"while", "while x:\n    x = x - 1\n"},
		{"for", "for x in items:\n    y = x\n"},
		{"nested if", "if x:\n    if y:\n        z = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertParseSuccess(t, tt.input, tt.name)
		})
	}
}

// TestTopLevelResync exercises spec §4.3's resynchronize-and-continue
// guarantee: a malformed top-level statement is recorded as an error but
// does not stop the following statement from parsing.
func TestTopLevelResync(t *testing.T) {
	input := "def :\n    pass\nx = 1\n"
	body, errs := parseString(input)
	if len(errs) == 0 {
		t.Fatalf("expected the malformed def to record a parse error")
	}
	found := false
	for _, s := range body {
		if asn, ok := s.(*arena.Assign); ok {
			if n, ok := asn.Targets[0].(*arena.Name); ok && n.Id == "x" {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected `x = 1` to still be parsed after the malformed def, got body %v", body)
	}
}

func TestUnterminatedConstructs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated paren", "x = (1 + 2\n"},
		{"dangling colon", "if x\n    y = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertParseError(t, tt.input, tt.name)
		})
	}
}
