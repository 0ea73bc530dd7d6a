// Package ssa lowers a SEMA-analyzed module into the store-explicit form
// spec §4.6 describes: every assignment target is rebound to a brand-new
// SSA name (tuple and list unpacking rewritten into per-index
// `__getitem__` accesses first), every AugAssign becomes an explicit load
// + BinOp + fresh store, and any non-trivial subexpression appearing
// where only a Name or Constant belongs is hoisted into a fresh temporary
// assignment appended just ahead of the statement that needs it.
//
// Grounded on original_source/src/lowering/SSA.cpp's
// maybe_new_assign/new_store/annassign/augassign/call, including its
// exact renaming rule (§8.4's golden scenario, `x += 1` →
// `AnnAssign(x_#1, BinOp(Load(x), Add, 1))`, is new_store literally: every
// store target becomes a fresh `name_#N`, hinted by the original name).
// One addition beyond what SSA.cpp shows: that file mints a fresh target
// name but never fixes up any *later* read of the original variable to
// follow it, so a second statement reading the same variable would read
// a name nothing ever stores to again. This package threads a
// current-version map (`Lowerer.scopes`, pushed per function/module
// frame to match vmexec's frame-vs-global name lookup) through lowering
// so every Name load resolves to whichever fresh name most recently
// stored that variable — the renaming SSA.cpp's own incomplete pass
// implies but doesn't carry through. See DESIGN.md's Open Question
// decisions for the full rationale, including why Attribute/Subscript
// targets are deliberately exempted from renaming.
//
// maybe_new_assign-style hoisting is only shown wired into call() in
// SSA.cpp; this package extends the same hoist to If/While/For/With/
// Match's condition-or-iterable position, completing the pattern the
// original left partially applied.
package ssa

import (
	"fmt"

	"github.com/lython/lython/internal/arena"
)

// Lowerer rewrites one module's statement tree in place (reusing nodes
// where no structural change is needed) into SSA-ish form. bodyStack holds
// the output body currently being assembled at every nesting depth a
// lowerBody call is in the middle of — body_append targets its top.
// scopes is a stack of original-name → current-SSA-name maps, one per
// function/module frame (not per nested block, since Lython has no block
// scoping): the innermost frame that can't answer falls back to its
// enclosing one, mirroring vmexec's frame-then-global Name lookup.
type Lowerer struct {
	arena     *arena.Arena
	uniq      int
	bodyStack [][]arena.Stmt
	scopes    []map[string]string
}

func NewLowerer(a *arena.Arena) *Lowerer { return &Lowerer{arena: a, uniq: 1} }

func (l *Lowerer) pushScope() { l.scopes = append(l.scopes, map[string]string{}) }
func (l *Lowerer) popScope()  { l.scopes = l.scopes[:len(l.scopes)-1] }

// currentName resolves id to whichever fresh name most recently stored
// it, searching from the innermost frame outward; an id no store has
// touched yet (a parameter, a global never reassigned, or the first use
// of a brand-new local) resolves to itself.
func (l *Lowerer) currentName(id string) string {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if renamed, ok := l.scopes[i][id]; ok {
			return renamed
		}
	}
	return id
}

func (l *Lowerer) setCurrentName(id, renamed string) {
	top := len(l.scopes) - 1
	l.scopes[top][id] = renamed
}

// LowerModule returns a module whose Body is the SSA-lowered statement
// sequence; analyzed Varid/Type annotations on nodes that survive lowering
// unchanged (Name, Constant, FunctionDef signatures, ...) are preserved.
func (l *Lowerer) LowerModule(mod *arena.ModuleNode) *arena.ModuleNode {
	l.pushScope()
	defer l.popScope()
	return arena.Own(l.arena, &arena.ModuleNode{StmtBase: mod.StmtBase, Body: l.lowerBody(mod.Body)})
}

func (l *Lowerer) pushBody()  { l.bodyStack = append(l.bodyStack, nil) }
func (l *Lowerer) bodyAppend(s arena.Stmt) {
	top := len(l.bodyStack) - 1
	l.bodyStack[top] = append(l.bodyStack[top], s)
}
func (l *Lowerer) popBody() []arena.Stmt {
	top := l.bodyStack[len(l.bodyStack)-1]
	l.bodyStack = l.bodyStack[:len(l.bodyStack)-1]
	return top
}

func (l *Lowerer) lowerBody(body []arena.Stmt) []arena.Stmt {
	l.pushBody()
	for _, s := range body {
		l.lowerStmt(s)
	}
	return l.popBody()
}

func (l *Lowerer) lowerStmt(stmt arena.Stmt) {
	switch s := stmt.(type) {
	case *arena.FunctionDef:
		l.pushScope()
		s.Body = l.lowerBody(s.Body)
		l.popScope()
		l.bodyAppend(s)
	case *arena.ClassDef:
		// classdef() in SSA.cpp walks methods but its cast<FunctionDef>
		// branch is empty; lowering each method's body the same way a
		// free function's is lowered completes that stub faithfully.
		s.Body = l.lowerBody(s.Body)
		l.bodyAppend(s)
	case *arena.If:
		s.Test = l.hoist(s.Test, l.lowerExpr(s.Test))
		s.Body = l.lowerBody(s.Body)
		s.Orelse = l.lowerBody(s.Orelse)
		l.bodyAppend(s)
	case *arena.While:
		s.Test = l.hoist(s.Test, l.lowerExpr(s.Test))
		s.Body = l.lowerBody(s.Body)
		s.Orelse = l.lowerBody(s.Orelse)
		l.bodyAppend(s)
	case *arena.For:
		s.Iter = l.hoist(s.Iter, l.lowerExpr(s.Iter))
		s.Body = l.lowerBody(s.Body)
		s.Orelse = l.lowerBody(s.Orelse)
		l.bodyAppend(s)
	case *arena.With:
		for i := range s.Items {
			s.Items[i].ContextExpr = l.hoist(s.Items[i].ContextExpr, l.lowerExpr(s.Items[i].ContextExpr))
		}
		s.Body = l.lowerBody(s.Body)
		l.bodyAppend(s)
	case *arena.Try:
		s.Body = l.lowerBody(s.Body)
		for i := range s.Handlers {
			s.Handlers[i].Body = l.lowerBody(s.Handlers[i].Body)
		}
		s.Orelse = l.lowerBody(s.Orelse)
		s.Finally = l.lowerBody(s.Finally)
		l.bodyAppend(s)
	case *arena.Match:
		s.Subject = l.hoist(s.Subject, l.lowerExpr(s.Subject))
		for i := range s.Cases {
			s.Cases[i].Body = l.lowerBody(s.Cases[i].Body)
		}
		l.bodyAppend(s)
	case *arena.Assign:
		l.lowerAssign(s)
	case *arena.AnnAssign:
		if s.Value != nil {
			s.Value = l.lowerExpr(s.Value)
		}
		l.bodyAppend(s)
	case *arena.AugAssign:
		l.lowerAugAssign(s)
	case *arena.Return:
		if s.Value != nil {
			s.Value = l.lowerExpr(s.Value)
		}
		l.bodyAppend(s)
	case *arena.Raise:
		if s.Exc != nil {
			s.Exc = l.lowerExpr(s.Exc)
		}
		if s.Cause != nil {
			s.Cause = l.lowerExpr(s.Cause)
		}
		l.bodyAppend(s)
	case *arena.Assert:
		s.Test = l.lowerExpr(s.Test)
		if s.Msg != nil {
			s.Msg = l.lowerExpr(s.Msg)
		}
		l.bodyAppend(s)
	case *arena.ExprStmt:
		s.Value = l.lowerExpr(s.Value)
		l.bodyAppend(s)
	case *arena.Inline:
		for _, sub := range s.Stmts {
			l.lowerStmt(sub)
		}
	default:
		l.bodyAppend(stmt)
	}
}

func (l *Lowerer) lowerExpr(e arena.Expr) arena.Expr {
	switch n := e.(type) {
	case *arena.Name:
		// A Store-context Name only appears here as part of a target
		// expression being lowered some other way (bindTarget handles
		// those directly); a Load resolves through the current-version
		// map so a read always sees whichever fresh name last stored it.
		if n.Ctx != arena.Load {
			return n
		}
		renamed := l.currentName(n.Id)
		if renamed == n.Id {
			return n
		}
		return arena.Own(l.arena, &arena.Name{ExprBase: n.ExprBase, Id: renamed, Ctx: arena.Load, Varid: -1})
	case *arena.BinOp:
		n.Left = l.lowerExpr(n.Left)
		n.Right = l.lowerExpr(n.Right)
		return n
	case *arena.BoolOp:
		for i, v := range n.Values {
			n.Values[i] = l.lowerExpr(v)
		}
		return n
	case *arena.UnaryOp:
		n.Operand = l.lowerExpr(n.Operand)
		return n
	case *arena.Compare:
		n.Left = l.lowerExpr(n.Left)
		for i, c := range n.Comparators {
			n.Comparators[i] = l.lowerExpr(c)
		}
		return n
	case *arena.IfExp:
		n.Test = l.lowerExpr(n.Test)
		n.Body = l.lowerExpr(n.Body)
		n.Orelse = l.lowerExpr(n.Orelse)
		return n
	case *arena.ListExpr:
		for i, el := range n.Elts {
			n.Elts[i] = l.lowerExpr(el)
		}
		return n
	case *arena.SetExpr:
		for i, el := range n.Elts {
			n.Elts[i] = l.lowerExpr(el)
		}
		return n
	case *arena.TupleExpr:
		for i, el := range n.Elts {
			n.Elts[i] = l.lowerExpr(el)
		}
		return n
	case *arena.DictExpr:
		for i := range n.Keys {
			n.Keys[i] = l.lowerExpr(n.Keys[i])
			n.Values[i] = l.lowerExpr(n.Values[i])
		}
		return n
	case *arena.Call:
		return l.lowerCall(n)
	case *arena.Attribute:
		n.Value = l.lowerExpr(n.Value)
		return n
	case *arena.Subscript:
		n.Value = l.lowerExpr(n.Value)
		n.Index = l.lowerExpr(n.Index)
		return n
	case *arena.Slice:
		if n.Lower != nil {
			n.Lower = l.lowerExpr(n.Lower)
		}
		if n.Upper != nil {
			n.Upper = l.lowerExpr(n.Upper)
		}
		if n.Step != nil {
			n.Step = l.lowerExpr(n.Step)
		}
		return n
	case *arena.Starred:
		n.Value = l.lowerExpr(n.Value)
		return n
	case *arena.Await:
		n.Value = l.lowerExpr(n.Value)
		return n
	case *arena.Yield:
		if n.Value != nil {
			n.Value = l.lowerExpr(n.Value)
		}
		return n
	case *arena.YieldFrom:
		n.Value = l.lowerExpr(n.Value)
		return n
	case *arena.Lambda:
		n.Body = l.lowerExpr(n.Body)
		return n
	case *arena.JoinedStr:
		for i, v := range n.Values {
			n.Values[i] = l.lowerExpr(v)
		}
		return n
	case *arena.FormattedValue:
		n.Value = l.lowerExpr(n.Value)
		return n
	default:
		// ListComp/SetComp/DictComp/GeneratorExp own an implicit scope the
		// surrounding body stack doesn't see; vmgen lowers their iteration
		// into an explicit loop at VM-lowering time, not here.
		return e
	}
}

func (l *Lowerer) lowerCall(n *arena.Call) arena.Expr {
	if _, isMethod := n.Func.(*arena.Attribute); isMethod {
		// vmexec dispatches a method call on the Attribute callee itself,
		// so only its receiver is lowered; the callee stays in place.
		n.Func = l.lowerExpr(n.Func)
	} else {
		n.Func = l.hoist(n.Func, l.lowerExpr(n.Func))
	}
	for i, a := range n.Args {
		n.Args[i] = l.hoist(a, l.lowerExpr(a))
	}
	for i, kw := range n.Keywords {
		n.Keywords[i].Value = l.hoist(kw.Value, l.lowerExpr(kw.Value))
	}
	return n
}

// hoist is maybe_new_assign: a Name or Constant operand passes through
// untouched; anything else is assigned into a fresh temporary appended to
// the body currently being built, and a Load reference to that temporary
// replaces the original expression.
func (l *Lowerer) hoist(hint, value arena.Expr) arena.Expr {
	switch value.(type) {
	case *arena.Name, *arena.Constant:
		return value
	}
	tmp := l.freshName(hint, value.NodePos())
	l.bodyAppend(arena.Own(l.arena, &arena.AnnAssign{
		StmtBase: arena.NewStmtBase(value.NodePos()),
		Target:   tmp,
		Value:    value,
	}))
	return arena.Own(l.arena, &arena.Name{ExprBase: arena.NewExprBase(value.NodePos()), Id: tmp.Id, Ctx: arena.Load, Varid: -1})
}

// freshName is new_store: a Store-context Name unique within this
// lowering pass, named after hint when hint is itself a Name (so
// diagnostics/dumps read "x_#3" rather than an opaque "var_#3").
func (l *Lowerer) freshName(hint arena.Expr, pos arena.Pos) *arena.Name {
	base := "var"
	if nm, ok := hint.(*arena.Name); ok {
		base = nm.Id
	}
	name := fmt.Sprintf("%s_#%d", base, l.uniq)
	l.uniq++
	return arena.Own(l.arena, &arena.Name{ExprBase: arena.NewExprBase(pos), Id: name, Ctx: arena.Store, Varid: -1})
}

func (l *Lowerer) lowerAssign(s *arena.Assign) {
	value := l.lowerExpr(s.Value)
	for _, target := range s.Targets {
		l.bindTarget(target, value)
	}
}

// bindTarget is annassign(): a bare target becomes a direct AnnAssign
// whose target is a brand-new SSA name (storeTarget); a tuple/list target
// is rewritten into one `__getitem__(value, i)` AnnAssign per element,
// recursing so nested tuple targets unpack too.
func (l *Lowerer) bindTarget(target, value arena.Expr) {
	elts, ok := tupleOrListElts(target)
	if !ok {
		l.bodyAppend(arena.Own(l.arena, &arena.AnnAssign{
			StmtBase: arena.NewStmtBase(target.NodePos()),
			Target:   l.storeTarget(target),
			Value:    value,
		}))
		return
	}
	hoisted := l.hoist(target, value)
	for i, el := range elts {
		getitem := arena.Own(l.arena, &arena.Call{
			ExprBase: arena.NewExprBase(target.NodePos()),
			Func:     arena.Own(l.arena, &arena.Name{ExprBase: arena.NewExprBase(target.NodePos()), Id: "__getitem__", Ctx: arena.Load, Varid: -1}),
			Args: []arena.Expr{hoisted, arena.Own(l.arena, &arena.Constant{
				ExprBase: arena.NewExprBase(target.NodePos()),
				Kind:     arena.ConstInt,
				IntVal:   int64(i),
			})},
		})
		l.bindTarget(el, getitem)
	}
}

// storeTarget is new_store: a bare Name target is rebound to a brand-new
// SSA name hinted by the original identifier, recorded as that
// variable's current version so later loads follow it. Attribute/
// Subscript targets keep their shape (only their operands are lowered as
// loads, so `xs[i] = v` writes into xs's current version) — SSA.cpp's new_store renames
// those too (it only special-cases the hint string, not whether to rename
// at all), but an attribute or subscript target doesn't name a
// frame-local variable; renaming it would point the store at a
// disconnected synthetic name and silently drop the actual write to
// `obj.attr`/`obj[i]`, which spec §4.6 never asks for and nothing in
// original_source exercises (its own SSA test harness runs generic
// per-nodekind cases, not an attribute-assignment-through-annassign one).
func (l *Lowerer) storeTarget(target arena.Expr) arena.Expr {
	nm, ok := target.(*arena.Name)
	if !ok {
		return l.lowerExpr(target)
	}
	fresh := l.freshName(nm, nm.NodePos())
	l.setCurrentName(nm.Id, fresh.Id)
	return fresh
}

func tupleOrListElts(e arena.Expr) ([]arena.Expr, bool) {
	switch t := e.(type) {
	case *arena.TupleExpr:
		return t.Elts, true
	case *arena.ListExpr:
		return t.Elts, true
	}
	return nil, false
}

// lowerAugAssign is augassign(): `target OP= value` becomes
// `target = target OP value`, with target read in Load context on the
// right (through lowerExpr, so it picks up whichever SSA name most
// recently stored it) and the store rule applied on the left.
func (l *Lowerer) lowerAugAssign(s *arena.AugAssign) {
	value := l.lowerExpr(s.Value)
	binop := arena.Own(l.arena, &arena.BinOp{
		ExprBase: arena.NewExprBase(s.NodePos()),
		Left:     l.lowerExpr(loadOf(s.Target)),
		Op:       s.Op,
		Right:    value,
	})
	l.bindTarget(s.Target, binop)
}

// loadOf mirrors SSA.cpp's load(): a Name target is read back in Load
// context; non-Name targets (Attribute/Subscript) are already read in
// Load context wherever they're used as a value, so they pass through.
func loadOf(e arena.Expr) arena.Expr {
	if nm, ok := e.(*arena.Name); ok {
		return &arena.Name{ExprBase: nm.ExprBase, Id: nm.Id, Ctx: arena.Load, Varid: nm.Varid}
	}
	return e
}
