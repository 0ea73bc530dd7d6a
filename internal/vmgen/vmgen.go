// Package vmgen linearises an SSA-lowered module into the flat instruction
// vector spec §4.7 describes: a Program is an ordered []Instruction, each
// wrapping a pointer to the originating AST statement, with structural
// control flow expanded into explicit arena.Jump/arena.CondJump nodes whose
// indices are patched once both branches are known.
//
// Grounded on the teacher's internal/compiler/stmt_compiler.go (placeholder-
// then-backpatch jump offsets for If/While/For) and hoisting_compiler.go
// (two-pass function collection: a function's body is compiled into its own
// offset range of the program, separate from the straight-line code that
// defines it, and called back into via a label rather than fallen into).
// Generalized from byte-oriented opcodes to AST-statement-pointer
// instructions per spec §4.7/§9.
package vmgen

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lython/lython/internal/arena"
	lyerrors "github.com/lython/lython/internal/errors"
)

// Instruction is one slot of the program vector. Stmt is the AST node the
// interpreter re-dispatches on; for Jump/CondJump, Stmt is the jump node
// itself.
type Instruction struct {
	Stmt arena.Stmt
}

// Label gives a function (or class method) an entry offset into the shared
// Program.Instructions vector, per spec §4.7's "{name, defining-node, index,
// depth}".
type Label struct {
	Name  string
	Node  arena.Node
	Index int
	Depth int
}

// Program is the lowered, executable form of one module.
type Program struct {
	ID           uuid.UUID
	Instructions []Instruction
	Labels       map[string]Label
}

// LabelFor looks up a label by the qualified name vmgen assigned it
// (top-level functions keep their own name; methods are "Class.method").
func (p *Program) LabelFor(name string) (Label, bool) {
	l, ok := p.Labels[name]
	return l, ok
}

// IntrinsicHasNext and IntrinsicNext are the two builtin names vmgen's For
// lowering wires a CondJump/Assign pair through; vmexec recognizes them by
// name ahead of ordinary varid resolution rather than requiring SEMA to bind
// them, since they're synthesized after SEMA has already run.
const (
	IntrinsicHasNext = "__has_next__"
	IntrinsicNext    = "__next__"
)

// pendingFn is a function or method body queued for compilation into its
// own offset range, deposited after the straight-line code that encounters
// its FunctionDef/ClassDef (mirroring the teacher's
// HoistingCompiler.collectFunctions/precompileFunctions split).
type pendingFn struct {
	qualifiedName string
	node          arena.Node
	params        []arena.Param
	body          []arena.Stmt
	depth         int
}

// loopFrame collects the Break/Continue Jump placeholders emitted while
// lowering one loop's body, so they can be patched to the loop's end/start
// once both are known. This is the genuine completion of the pattern the
// teacher's own VisitBreakStmt/VisitContinueStmt leave as a stub ("proper
// implementation requires loop context tracking").
type loopFrame struct {
	breaks    []*arena.Jump
	continues []*arena.Jump
}

// Generator walks a module's statement tree and appends Instructions,
// queuing nested function/method bodies rather than lowering them inline.
type Generator struct {
	arena   *arena.Arena
	program *Program
	errs    *lyerrors.List
	pending []pendingFn
	loops   []*loopFrame
	depth   int
}

func NewGenerator(a *arena.Arena) *Generator {
	return &Generator{
		arena: a,
		program: &Program{
			ID:     uuid.New(),
			Labels: map[string]Label{},
		},
		errs: &lyerrors.List{},
	}
}

// Generate lowers mod into a flat Program plus any NotImplemented holes
// (With/Try/Match) recorded as errors rather than silently skipped.
func Generate(a *arena.Arena, mod *arena.ModuleNode) (*Program, *lyerrors.List) {
	g := NewGenerator(a)
	g.lowerBody(mod.Body)
	g.drainPending()
	return g.program, g.errs
}

func (g *Generator) emit(stmt arena.Stmt) int {
	idx := len(g.program.Instructions)
	g.program.Instructions = append(g.program.Instructions, Instruction{Stmt: stmt})
	return idx
}

func (g *Generator) here() int { return len(g.program.Instructions) }

func (g *Generator) currentLoop() *loopFrame {
	if len(g.loops) == 0 {
		return nil
	}
	return g.loops[len(g.loops)-1]
}

// lowerBody appends the straight-line lowering of every statement in body,
// queuing FunctionDef/ClassDef for out-of-line compilation instead of
// lowering them at this position (spec §4.7: "only its methods are emitted
// as functions; attributes are compile-time only" for ClassDef, and a
// FunctionDef at this depth contributes nothing but its label).
func (g *Generator) lowerBody(body []arena.Stmt) {
	for _, stmt := range body {
		g.lowerStmt(stmt)
	}
}

func (g *Generator) lowerStmt(stmt arena.Stmt) {
	switch s := stmt.(type) {
	case *arena.FunctionDef:
		g.queueFunction(s.Name, s, s.Params, s.Body)
	case *arena.ClassDef:
		g.queueClass(s)
	case *arena.If:
		g.lowerIf(s)
	case *arena.While:
		g.lowerWhile(s)
	case *arena.For:
		g.lowerFor(s)
	case *arena.With:
		g.errs.Add(lyerrors.NewNotImplemented("with-statement VM lowering", s.NodePos().File, s.NodePos().Line, s.NodePos().Col))
	case *arena.Try:
		g.errs.Add(lyerrors.NewNotImplemented("try-statement VM lowering", s.NodePos().File, s.NodePos().Line, s.NodePos().Col))
	case *arena.Match:
		g.errs.Add(lyerrors.NewNotImplemented("match-statement VM lowering", s.NodePos().File, s.NodePos().Line, s.NodePos().Col))
	case *arena.Break:
		j := arena.Own(g.arena, &arena.Jump{StmtBase: arena.NewStmtBase(s.NodePos())})
		g.emit(j)
		if lf := g.currentLoop(); lf != nil {
			lf.breaks = append(lf.breaks, j)
		}
	case *arena.Continue:
		j := arena.Own(g.arena, &arena.Jump{StmtBase: arena.NewStmtBase(s.NodePos())})
		g.emit(j)
		if lf := g.currentLoop(); lf != nil {
			lf.continues = append(lf.continues, j)
		}
	case *arena.Assert:
		g.lowerAssert(s)
	case *arena.Inline:
		for _, sub := range s.Stmts {
			g.lowerStmt(sub)
		}
	default:
		// Assign/AnnAssign/AugAssign/Return/Raise/ExprStmt/Import/
		// ImportFrom/Global/Nonlocal/Pass are already in their final
		// re-dispatchable form; append as-is per spec §4.7's "Assign/
		// AnnAssign push the computed value" and "Return ... writes
		// ReturnValue and sets ic := ReturnAddress".
		g.emit(stmt)
	}
}

// lowerIf implements spec §4.7's If expansion: CondJump.ThenJmp targets the
// body's first instruction, ElseJmp the orelse's; an unconditional Jump
// closes the then-branch over the orelse range, patched once both are laid
// out (the teacher's placeholder-then-backpatch pattern).
func (g *Generator) lowerIf(s *arena.If) {
	cj := arena.Own(g.arena, &arena.CondJump{StmtBase: arena.NewStmtBase(s.NodePos()), Test: s.Test})
	g.emit(cj)

	thenStart := g.here()
	g.lowerBody(s.Body)

	skipElse := arena.Own(g.arena, &arena.Jump{StmtBase: arena.NewStmtBase(s.NodePos())})
	g.emit(skipElse)

	elseStart := g.here()
	g.lowerBody(s.Orelse)

	end := g.here()
	cj.ThenJmp = thenStart
	cj.ElseJmp = elseStart
	skipElse.Destination = end
}

// lowerWhile implements spec §4.7's While expansion, recording start before
// the CondJump so the loop-back Jump and every Continue can target it, and
// patching every Break to the loop's end.
func (g *Generator) lowerWhile(s *arena.While) {
	start := g.here()
	cj := arena.Own(g.arena, &arena.CondJump{StmtBase: arena.NewStmtBase(s.NodePos()), Test: s.Test})
	g.emit(cj)

	thenStart := g.here()
	g.loops = append(g.loops, &loopFrame{})
	g.lowerBody(s.Body)
	lf := g.loops[len(g.loops)-1]
	g.loops = g.loops[:len(g.loops)-1]

	backJump := arena.Own(g.arena, &arena.Jump{StmtBase: arena.NewStmtBase(s.NodePos()), Destination: start})
	g.emit(backJump)

	elseStart := g.here()
	g.lowerBody(s.Orelse)

	end := g.here()
	cj.ThenJmp = thenStart
	cj.ElseJmp = elseStart
	for _, b := range lf.breaks {
		b.Destination = end
	}
	for _, c := range lf.continues {
		c.Destination = start
	}
}

// lowerFor follows the same CondJump/Jump frame as While, generalized to
// iterator-next semantics per spec §4.7: the test is a call to the
// IntrinsicHasNext builtin over the (already SEMA-resolved) iterable
// expression, and the loop variable is rebound from IntrinsicNext at the
// top of every iteration, mirroring the teacher's own native for-in
// iterator protocol (internal/vmregister's per-frame IteratorObj) instead
// of exposing a separate opcode for it.
//
// CondJump's runtime dispatch (the CondJump case of vmexec's runFrom) sends a true test to
// ElseJmp and a false one to ThenJmp, matching vm.cpp's condjump exactly:
// `ic = then_jmp; if (cond) ic = else_jmp`. So the test wired here is
// "the iterator is exhausted" (not IntrinsicHasNext directly) — true
// routes to ElseJmp/orelse (loop done), false falls into ThenJmp/body
// (there's a next element to consume).
func (g *Generator) lowerFor(s *arena.For) {
	start := g.here()
	cj := arena.Own(g.arena, &arena.CondJump{
		StmtBase: arena.NewStmtBase(s.NodePos()),
		Test: arena.Own(g.arena, &arena.UnaryOp{
			ExprBase: arena.NewExprBase(s.NodePos()),
			Op:       "not",
			Operand:  g.intrinsicCall(IntrinsicHasNext, s.Iter, s.NodePos()),
		}),
		Owner: s,
	})
	g.emit(cj)

	thenStart := g.here()
	g.emit(arena.Own(g.arena, &arena.Assign{
		StmtBase: arena.NewStmtBase(s.NodePos()),
		Targets:  []arena.Expr{s.Target},
		Value:    g.intrinsicCall(IntrinsicNext, s.Iter, s.NodePos()),
	}))

	g.loops = append(g.loops, &loopFrame{})
	g.lowerBody(s.Body)
	lf := g.loops[len(g.loops)-1]
	g.loops = g.loops[:len(g.loops)-1]

	backJump := arena.Own(g.arena, &arena.Jump{StmtBase: arena.NewStmtBase(s.NodePos()), Destination: start})
	g.emit(backJump)

	elseStart := g.here()
	g.lowerBody(s.Orelse)

	end := g.here()
	cj.ThenJmp = thenStart
	cj.ElseJmp = elseStart
	for _, b := range lf.breaks {
		b.Destination = end
	}
	for _, c := range lf.continues {
		c.Destination = start
	}
}

func (g *Generator) intrinsicCall(name string, arg arena.Expr, pos arena.Pos) arena.Expr {
	return arena.Own(g.arena, &arena.Call{
		ExprBase: arena.NewExprBase(pos),
		Func:     arena.Own(g.arena, &arena.Name{ExprBase: arena.NewExprBase(pos), Id: name, Ctx: arena.Load, Varid: -1}),
		Args:     []arena.Expr{arg},
	})
}

// lowerAssert implements spec §4.7's Assert expansion literally: ElseJmp
// targets the Raise, ThenJmp skips past it. Per CondJump's true→ElseJmp/
// false→ThenJmp dispatch this means a true test raises and a false one
// falls through to end — matching vm.cpp's assertstmt/condjump exactly.
func (g *Generator) lowerAssert(s *arena.Assert) {
	cj := arena.Own(g.arena, &arena.CondJump{StmtBase: arena.NewStmtBase(s.NodePos()), Test: s.Test})
	g.emit(cj)

	raiseStart := g.here()
	excName := arena.Own(g.arena, &arena.Name{ExprBase: arena.NewExprBase(s.NodePos()), Id: "AssertionError", Ctx: arena.Load, Varid: -1})
	var excArgs []arena.Expr
	if s.Msg != nil {
		excArgs = []arena.Expr{s.Msg}
	}
	exc := arena.Own(g.arena, &arena.Call{ExprBase: arena.NewExprBase(s.NodePos()), Func: excName, Args: excArgs})
	g.emit(arena.Own(g.arena, &arena.Raise{StmtBase: arena.NewStmtBase(s.NodePos()), Exc: exc}))

	end := g.here()
	cj.ThenJmp = end
	cj.ElseJmp = raiseStart
}

func (g *Generator) queueFunction(name string, node arena.Node, params []arena.Param, body []arena.Stmt) {
	g.pending = append(g.pending, pendingFn{qualifiedName: name, node: node, params: params, body: body, depth: g.depth})
}

// queueClass implements spec §4.7's ClassDef lowering: only methods are
// emitted, qualified as "Class.method" so the label table stays flat;
// attribute statements (plain Assign/AnnAssign in the class body) are
// compile-time only and contribute nothing to the program.
func (g *Generator) queueClass(cls *arena.ClassDef) {
	for _, stmt := range cls.Body {
		if fn, ok := stmt.(*arena.FunctionDef); ok {
			g.queueFunction(cls.Name+"."+fn.Name, fn, fn.Params, fn.Body)
		}
	}
}

// drainPending compiles every queued function/method into its own offset
// range at the end of the program, recording a Label before its first
// instruction. Compiling one pending entry can queue more (nested defs),
// so this keeps draining until the queue is empty, exactly like the
// teacher's two-pass collectFunctions/precompileFunctions except the
// compiled ranges share one flat instruction vector instead of per-function
// chunks.
func (g *Generator) drainPending() {
	for len(g.pending) > 0 {
		fn := g.pending[0]
		g.pending = g.pending[1:]

		idx := g.here()
		g.program.Labels[fn.qualifiedName] = Label{Name: fn.qualifiedName, Node: fn.node, Index: idx, Depth: fn.depth}

		g.depth = fn.depth + 1
		g.lowerBody(fn.body)
		g.depth = fn.depth

		if !endsInReturn(g.program.Instructions) {
			g.emit(arena.Own(g.arena, &arena.Return{StmtBase: arena.NewStmtBase(arena.Pos{})}))
		}
	}
}

func endsInReturn(instrs []Instruction) bool {
	if len(instrs) == 0 {
		return false
	}
	_, ok := instrs[len(instrs)-1].Stmt.(*arena.Return)
	return ok
}

// Dump renders a Program as a numbered listing, one originating-statement
// kind per line, for the CLI's `dump-program` command.
func (p *Program) Dump() string {
	var b []byte
	for i, instr := range p.Instructions {
		b = append(b, []byte(fmt.Sprintf("%4d  %s\n", i, describe(instr.Stmt)))...)
	}
	return string(b)
}

func describe(s arena.Stmt) string {
	switch n := s.(type) {
	case *arena.Jump:
		return fmt.Sprintf("Jump -> %d", n.Destination)
	case *arena.CondJump:
		return fmt.Sprintf("CondJump then=%d else=%d", n.ThenJmp, n.ElseJmp)
	case *arena.Return:
		return "Return"
	case *arena.Raise:
		return "Raise"
	default:
		return fmt.Sprintf("%T", s)
	}
}
