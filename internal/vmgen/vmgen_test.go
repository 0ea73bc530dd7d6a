package vmgen

import (
	"testing"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/buffer"
	"github.com/lython/lython/internal/lexer"
	"github.com/lython/lython/internal/parser"
)

func generate(t *testing.T, src string) (*arena.Arena, *Program) {
	t.Helper()
	a := arena.New()
	buf := buffer.NewString(src, "<test>")
	p := parser.New(lexer.New(buf), a, "<test>").WithSource(src)
	mod := p.Parse()
	if p.Errors.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, p.Errors.Errors())
	}
	program, errs := Generate(a, mod)
	if errs.HasErrors() {
		t.Fatalf("vmgen errors for %q: %v", src, errs.Errors())
	}
	return a, program
}

// TestWhileBreakContinuePatched exercises lowerWhile's placeholder-then-
// backpatch protocol: every Break inside the loop must end up targeting
// the loop's end, every Continue the loop's CondJump.
func TestWhileBreakContinuePatched(t *testing.T) {
	src := "def main():\n    while x:\n        break\n        continue\n    return 1\n"
	_, program := generate(t, src)

	lbl, ok := program.LabelFor("main")
	if !ok {
		t.Fatalf("expected a label for main")
	}

	cj, ok := program.Instructions[lbl.Index].Stmt.(*arena.CondJump)
	if !ok {
		t.Fatalf("expected CondJump at label start, got %T", program.Instructions[lbl.Index].Stmt)
	}

	breakJump, ok := program.Instructions[cj.ThenJmp].Stmt.(*arena.Jump)
	if !ok {
		t.Fatalf("expected the loop body to start with a Jump (break), got %T", program.Instructions[cj.ThenJmp].Stmt)
	}
	continueJump, ok := program.Instructions[cj.ThenJmp+1].Stmt.(*arena.Jump)
	if !ok {
		t.Fatalf("expected the second body instruction to be a Jump (continue), got %T", program.Instructions[cj.ThenJmp+1].Stmt)
	}

	if continueJump.Destination != lbl.Index {
		t.Errorf("continue should jump back to the CondJump at %d, got %d", lbl.Index, continueJump.Destination)
	}
	if breakJump.Destination != cj.ElseJmp {
		t.Errorf("break should jump to the loop's else/end at %d, got %d", cj.ElseJmp, breakJump.Destination)
	}
}

// TestIfElsePatched exercises lowerIf's then/else/skip patching.
func TestIfElsePatched(t *testing.T) {
	src := "def main():\n    if x:\n        y = 1\n    else:\n        y = 2\n    return y\n"
	_, program := generate(t, src)

	lbl, _ := program.LabelFor("main")
	cj, ok := program.Instructions[lbl.Index].Stmt.(*arena.CondJump)
	if !ok {
		t.Fatalf("expected CondJump at label start, got %T", program.Instructions[lbl.Index].Stmt)
	}
	if cj.ThenJmp >= cj.ElseJmp {
		t.Errorf("expected ThenJmp (%d) to precede ElseJmp (%d)", cj.ThenJmp, cj.ElseJmp)
	}

	thenAssign, ok := program.Instructions[cj.ThenJmp].Stmt.(*arena.Assign)
	if !ok {
		t.Fatalf("expected the then-branch to start with an Assign, got %T", program.Instructions[cj.ThenJmp].Stmt)
	}
	c, ok := thenAssign.Value.(*arena.Constant)
	if !ok || c.IntVal != 1 {
		t.Errorf("expected then-branch to assign 1, got %#v", thenAssign.Value)
	}

	skipJump, ok := program.Instructions[cj.ThenJmp+1].Stmt.(*arena.Jump)
	if !ok {
		t.Fatalf("expected a Jump closing the then-branch over the else range, got %T", program.Instructions[cj.ThenJmp+1].Stmt)
	}

	returnIdx := -1
	for i, instr := range program.Instructions {
		if _, ok := instr.Stmt.(*arena.Return); ok {
			returnIdx = i
			break
		}
	}
	if returnIdx == -1 {
		t.Fatalf("expected a Return instruction in the program")
	}
	if skipJump.Destination != returnIdx {
		t.Errorf("expected the then-branch's closing Jump to land on `return y` at %d, got %d", returnIdx, skipJump.Destination)
	}
}

// TestFunctionLabelsAreQualified confirms queueClass qualifies method
// labels as "Class.method" while leaving free functions unqualified.
func TestFunctionLabelsAreQualified(t *testing.T) {
	src := "class Counter:\n    def bump(self):\n        return 1\n\ndef main():\n    return 1\n"
	_, program := generate(t, src)

	if _, ok := program.LabelFor("main"); !ok {
		t.Errorf("expected an unqualified label for the free function main")
	}
	if _, ok := program.LabelFor("Counter.bump"); !ok {
		t.Errorf("expected a qualified label Counter.bump for the method")
	}
}
