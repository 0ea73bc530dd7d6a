package sema

import (
	"strings"
	"testing"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/buffer"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/lexer"
	"github.com/lython/lython/internal/module"
	"github.com/lython/lython/internal/parser"
)

func analyze(t *testing.T, src string) (*arena.ModuleNode, *lyerrors.List) {
	t.Helper()
	a := arena.New()
	buf := buffer.NewString(src, "<test>")
	p := parser.New(lexer.New(buf), a, "<test>").WithSource(src)
	mod := p.Parse()
	if p.Errors.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, p.Errors.Errors())
	}
	_, errs := AnalyzeModule(a, mod, "<test>", nil)
	return mod, errs
}

func TestUndefinedNameReported(t *testing.T) {
	_, errs := analyze(t, "def main():\n    return undefined_var\n")
	if !errs.HasErrors() {
		t.Fatal("expected a NameError for the undefined variable")
	}
	if errs.Errors()[0].Kind != lyerrors.NameError {
		t.Errorf("expected NameError, got %v", errs.Errors()[0].Kind)
	}
}

func TestMismatchedBinOpOperandsReported(t *testing.T) {
	_, errs := analyze(t, `def main():
    return "x" + 1
`)
	if !errs.HasErrors() {
		t.Fatal("expected an UnsupportedOperand error mixing str and int")
	}
	if errs.Errors()[0].Kind != lyerrors.UnsupportedOperand {
		t.Errorf("expected UnsupportedOperand, got %v", errs.Errors()[0].Kind)
	}
}

func TestMatchingOperandsAccepted(t *testing.T) {
	_, errs := analyze(t, "def main():\n    return 1 + 2\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors for well-typed arithmetic: %v", errs.Errors())
	}
}

// TestForwardReference exercises spec §5's forward-declaration prepass
// (declareTop): two top-level functions may call each other regardless of
// source order.
func TestForwardReference(t *testing.T) {
	src := `def a():
    return b()

def b():
    return 1
`
	_, errs := analyze(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors for mutually forward-referencing functions: %v", errs.Errors())
	}
}

// TestVaridAssignedOnLoad confirms a resolved Name load gets a non-negative
// Varid pointing at its binding, the invariant internal/vmexec's
// frame-relative lookup for non-SSA-synthesized locals builds on.
func TestVaridAssignedOnLoad(t *testing.T) {
	mod, errs := analyze(t, "def main():\n    x = 1\n    return x\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors())
	}
	fn := mod.Body[0].(*arena.FunctionDef)
	ret := fn.Body[1].(*arena.Return)
	name := ret.Value.(*arena.Name)
	if name.Varid < 0 {
		t.Errorf("expected a resolved non-negative Varid, got %d", name.Varid)
	}
}

// TestArrowParamTypeResolved exercises spec §3's glossary example end to
// end: a function parameter annotated with Arrow syntax resolves through
// evalTypeExpr without error, now that the parser actually constructs an
// ArrowTypeExpr instead of a bare Name.
func TestArrowParamTypeResolved(t *testing.T) {
	_, errs := analyze(t, "def apply(f: (Float) -> Float, x: Float) -> Float:\n    return f(x)\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors resolving an Arrow-typed parameter: %v", errs.Errors())
	}
}

// TestAttributeErrorListsKnownAttributesSorted exercises visitAttributeLoad's
// AttributeError path: a missing attribute's message lists the class's real
// attributes, sorted, regardless of the order they were declared in.
func TestAttributeErrorListsKnownAttributesSorted(t *testing.T) {
	src := "class Point:\n    def __init__(self, y, x):\n        self.y = y\n        self.x = x\n\ndef main():\n    p = Point(1, 2)\n    return p.z\n"
	_, errs := analyze(t, src)
	if !errs.HasErrors() {
		t.Fatal("expected an AttributeError for the missing attribute")
	}
	err := errs.Errors()[0]
	if err.Kind != lyerrors.AttributeError {
		t.Fatalf("expected AttributeError, got %v: %s", err.Kind, err.Message)
	}
	wantOrder := "x, y"
	if !strings.Contains(err.Message, wantOrder) {
		t.Errorf("expected message to list attributes sorted as %q, got %q", wantOrder, err.Message)
	}
}

// TestArrowCycleReportsTypeError exercises the has_circle guard wired into
// evalTypeExpr: an Arrow AST node that contains itself (the shape a Name
// resolving back into its own declared Arrow would produce) must be
// rejected rather than recursing forever.
func TestArrowCycleReportsTypeError(t *testing.T) {
	a := arena.New()
	self := arena.Own(a, &arena.ArrowTypeExpr{})
	self.Params = []arena.Expr{self}

	an := &Analyzer{arena: a, errs: &lyerrors.List{}, file: "<test>"}
	an.evalTypeExpr(self, module.NewRoot("<test>"))
	if !an.errs.HasErrors() {
		t.Fatal("expected a TypeError for the self-referencing Arrow")
	}
	if an.errs.Errors()[0].Kind != lyerrors.TypeError {
		t.Errorf("expected TypeError, got %v", an.errs.Errors()[0].Kind)
	}
}
