package ssa

import (
	"testing"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/buffer"
	"github.com/lython/lython/internal/lexer"
	"github.com/lython/lython/internal/parser"
)

func lowerSrc(t *testing.T, src string) []arena.Stmt {
	t.Helper()
	a := arena.New()
	buf := buffer.NewString(src, "<test>")
	p := parser.New(lexer.New(buf), a, "<test>").WithSource(src)
	mod := p.Parse()
	if p.Errors.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, p.Errors.Errors())
	}
	return NewLowerer(a).LowerModule(mod).Body
}

// TestCallArgHoisted exercises maybe_new_assign (hoist): a non-trivial call
// argument must be assigned to a fresh temporary ahead of the call, with
// the call itself left referencing only that temporary's Name.
func TestCallArgHoisted(t *testing.T) {
	body := lowerSrc(t, "def main():\n    f(1 + 2)\n")
	fn, ok := body[0].(*arena.FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", body[0])
	}
	if len(fn.Body) != 2 {
		t.Fatalf("expected a hoisted temp assign plus the call, got %d statements: %#v", len(fn.Body), fn.Body)
	}
	assign, ok := fn.Body[0].(*arena.AnnAssign)
	if !ok {
		t.Fatalf("expected first lowered statement to be an AnnAssign, got %T", fn.Body[0])
	}
	tmpName, ok := assign.Target.(*arena.Name)
	if !ok {
		t.Fatalf("expected assign target to be a Name, got %T", assign.Target)
	}

	exprStmt, ok := fn.Body[1].(*arena.ExprStmt)
	if !ok {
		t.Fatalf("expected second lowered statement to be an ExprStmt, got %T", fn.Body[1])
	}
	call, ok := exprStmt.Value.(*arena.Call)
	if !ok {
		t.Fatalf("expected ExprStmt.Value to be a Call, got %T", exprStmt.Value)
	}
	argName, ok := call.Args[0].(*arena.Name)
	if !ok || argName.Id != tmpName.Id {
		t.Errorf("expected call's arg to reference the hoisted temp %q, got %#v", tmpName.Id, call.Args[0])
	}
}

// TestTrivialArgsNotHoisted: a Name or Constant argument passes through
// untouched — hoist() only fires for compound expressions.
func TestTrivialArgsNotHoisted(t *testing.T) {
	body := lowerSrc(t, "def main():\n    x = 1\n    f(x, 2)\n")
	fn := body[0].(*arena.FunctionDef)
	if len(fn.Body) != 2 {
		t.Fatalf("expected no extra hoisted temporaries, got %d statements: %#v", len(fn.Body), fn.Body)
	}
}

// TestIfTestHoisted confirms a compound If test is hoisted into a
// temporary ahead of the If, same as a call argument.
func TestIfTestHoisted(t *testing.T) {
	body := lowerSrc(t, "def main():\n    if 1 + 1:\n        pass\n")
	fn := body[0].(*arena.FunctionDef)
	if len(fn.Body) != 2 {
		t.Fatalf("expected a hoisted temp assign plus the If, got %d statements: %#v", len(fn.Body), fn.Body)
	}
	if _, ok := fn.Body[0].(*arena.AnnAssign); !ok {
		t.Fatalf("expected first lowered statement to be an AnnAssign, got %T", fn.Body[0])
	}
	ifStmt, ok := fn.Body[1].(*arena.If)
	if !ok {
		t.Fatalf("expected second lowered statement to be an If, got %T", fn.Body[1])
	}
	if _, ok := ifStmt.Test.(*arena.Name); !ok {
		t.Errorf("expected If.Test to reference the hoisted temp, got %T", ifStmt.Test)
	}
}

// TestAugAssignLoweredToAnnAssign exercises spec §8.4's golden scenario
// literally: `x += 1`, with no prior store to `x` anywhere in scope, lowers
// to `AnnAssign(x_#1, BinOp(Load(x), Add, 1))` — the target is rebound to a
// brand-new SSA name, and the BinOp's Load still reads the original `x`
// since nothing has renamed it yet.
func TestAugAssignLoweredToAnnAssign(t *testing.T) {
	body := lowerSrc(t, "def main():\n    x += 1\n")
	fn := body[0].(*arena.FunctionDef)
	if len(fn.Body) != 1 {
		t.Fatalf("expected only the lowered AugAssign, got %d statements: %#v", len(fn.Body), fn.Body)
	}

	ann, ok := fn.Body[0].(*arena.AnnAssign)
	if !ok {
		t.Fatalf("expected AugAssign to lower to AnnAssign, got %T", fn.Body[0])
	}
	target, ok := ann.Target.(*arena.Name)
	if !ok || target.Id != "x_#1" {
		t.Errorf("expected AnnAssign.Target to be the fresh name %q, got %#v", "x_#1", ann.Target)
	}
	binop, ok := ann.Value.(*arena.BinOp)
	if !ok {
		t.Fatalf("expected AnnAssign.Value to be a BinOp, got %T", ann.Value)
	}
	load, ok := binop.Left.(*arena.Name)
	if !ok || load.Id != "x" || load.Ctx != arena.Load {
		t.Errorf("expected BinOp.Left to be Load(x), got %#v", binop.Left)
	}
	if binop.Op != "+" {
		t.Errorf("expected BinOp.Op %q, got %q", "+", binop.Op)
	}
	cst, ok := binop.Right.(*arena.Constant)
	if !ok || cst.IntVal != 1 {
		t.Errorf("expected BinOp.Right to be the constant 1, got %#v", binop.Right)
	}
}

// TestLaterLoadFollowsRename proves the current-version map is actually
// threaded through lowering, not just minted once: a read of a variable
// after it has been stored resolves to whichever fresh name that store
// produced, rather than the original, never-written-to identifier.
func TestLaterLoadFollowsRename(t *testing.T) {
	body := lowerSrc(t, "def main():\n    x = 1\n    return x\n")
	fn := body[0].(*arena.FunctionDef)
	if len(fn.Body) != 2 {
		t.Fatalf("expected the assign plus the return, got %d statements: %#v", len(fn.Body), fn.Body)
	}
	assign, ok := fn.Body[0].(*arena.AnnAssign)
	if !ok {
		t.Fatalf("expected Assign to lower to AnnAssign, got %T", fn.Body[0])
	}
	target, ok := assign.Target.(*arena.Name)
	if !ok {
		t.Fatalf("expected AnnAssign.Target to be a Name, got %T", assign.Target)
	}
	ret, ok := fn.Body[1].(*arena.Return)
	if !ok {
		t.Fatalf("expected second statement to be a Return, got %T", fn.Body[1])
	}
	load, ok := ret.Value.(*arena.Name)
	if !ok || load.Id != target.Id {
		t.Errorf("expected Return to load the renamed target %q, got %#v", target.Id, ret.Value)
	}
}

// TestSecondAugAssignRenamesAgain confirms a second store to the same
// variable mints a second fresh name and that the BinOp's Load picks up
// the name the first store produced, not the literal original identifier.
func TestSecondAugAssignRenamesAgain(t *testing.T) {
	body := lowerSrc(t, "def main():\n    x = 1\n    x += 1\n    x += 1\n")
	fn := body[0].(*arena.FunctionDef)
	if len(fn.Body) != 3 {
		t.Fatalf("expected the assign plus two lowered AugAssigns, got %d statements: %#v", len(fn.Body), fn.Body)
	}
	first := fn.Body[0].(*arena.AnnAssign).Target.(*arena.Name)
	second := fn.Body[1].(*arena.AnnAssign)
	secondLoad := second.Value.(*arena.BinOp).Left.(*arena.Name)
	if secondLoad.Id != first.Id {
		t.Errorf("expected second AugAssign to load the first store's name %q, got %q", first.Id, secondLoad.Id)
	}
	secondTarget := second.Target.(*arena.Name)
	if secondTarget.Id == first.Id {
		t.Errorf("expected second AugAssign's target to be a new fresh name, got the same %q again", first.Id)
	}

	third := fn.Body[2].(*arena.AnnAssign)
	thirdLoad := third.Value.(*arena.BinOp).Left.(*arena.Name)
	if thirdLoad.Id != secondTarget.Id {
		t.Errorf("expected third AugAssign to load the second store's name %q, got %q", secondTarget.Id, thirdLoad.Id)
	}
}
