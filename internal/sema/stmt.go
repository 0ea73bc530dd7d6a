package sema

import (
	"github.com/lython/lython/internal/arena"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/module"
	"github.com/lython/lython/internal/types"
)

// visitBody runs declareTop over body (spec §5's forward-declaration
// prepass, applied to every body — not just a module's top level — so a
// pair of mutually recursive functions or classes resolve regardless of
// which is visited first) and then visits each statement in order.
func (an *Analyzer) visitBody(body []arena.Stmt, scope *module.Module) {
	an.declareTop(body, scope)
	for _, s := range body {
		an.visitStmt(s, scope)
	}
}

func (an *Analyzer) visitStmt(stmt arena.Stmt, scope *module.Module) {
	switch s := stmt.(type) {
	case *arena.FunctionDef:
		arrow := an.visitFunctionLike(s, nil, scope, false)
		scope.SetTypeAt(s.Varid, arrow)
	case *arena.ClassDef:
		an.visitClassDef(s, scope)
	case *arena.If:
		an.visitExpr(s.Test, scope)
		an.visitBody(s.Body, scope)
		an.visitBody(s.Orelse, scope)
	case *arena.While:
		an.visitExpr(s.Test, scope)
		an.visitBody(s.Body, scope)
		an.visitBody(s.Orelse, scope)
	case *arena.For:
		iterT := an.visitExpr(s.Iter, scope)
		an.assignTarget(s.Target, scope, containerElem(iterT))
		an.visitBody(s.Body, scope)
		an.visitBody(s.Orelse, scope)
	case *arena.With:
		// `with` execution is a documented VM hole (SPEC_FULL.md's VM
		// section); SEMA still typechecks the context managers structurally.
		for _, item := range s.Items {
			an.visitExpr(item.ContextExpr, scope)
			if item.OptionalVars != nil {
				an.assignTarget(item.OptionalVars, scope, types.Unknown{})
			}
		}
		an.visitBody(s.Body, scope)
	case *arena.Try:
		an.visitBody(s.Body, scope)
		for _, h := range s.Handlers {
			if h.ExcType != nil {
				an.visitExpr(h.ExcType, scope)
			}
			if h.Name != "" {
				scope.Insert(h.Name, nil, types.Unknown{})
			}
			an.visitBody(h.Body, scope)
		}
		an.visitBody(s.Orelse, scope)
		an.visitBody(s.Finally, scope)
	case *arena.Match:
		an.visitExpr(s.Subject, scope)
		for _, c := range s.Cases {
			an.visitPattern(c.Pattern, scope)
			if c.Guard != nil {
				an.visitExpr(c.Guard, scope)
			}
			an.visitBody(c.Body, scope)
		}
	case *arena.Assign:
		valT := an.visitExpr(s.Value, scope)
		for _, t := range s.Targets {
			an.assignTarget(t, scope, valT)
		}
	case *arena.AnnAssign:
		declared := an.evalTypeExpr(s.Annotation, scope)
		if s.Value != nil {
			valT := an.visitExpr(s.Value, scope)
			an.typecheck("declared", declared, "assigned", valT, s.NodePos())
		}
		an.assignTarget(s.Target, scope, declared)
	case *arena.AugAssign:
		curT := an.visitExpr(s.Target, scope)
		valT := an.visitExpr(s.Value, scope)
		if !types.Equal(curT, valT) {
			an.errs.Add(lyerrors.NewUnsupportedOperand(s.Op, curT.String(), valT.String(), s.NodePos().File, s.NodePos().Line, s.NodePos().Col))
		}
		an.assignTarget(s.Target, scope, curT)
	case *arena.Return:
		var t types.Type = types.None
		if s.Value != nil {
			t = an.visitExpr(s.Value, scope)
		}
		if len(an.returnStack) > 0 {
			top := an.returnStack[len(an.returnStack)-1]
			*top = append(*top, t)
		}
	case *arena.Raise:
		if s.Exc != nil {
			an.visitExpr(s.Exc, scope)
		}
		if s.Cause != nil {
			an.visitExpr(s.Cause, scope)
		}
	case *arena.Import:
		an.visitImport(s, scope)
	case *arena.ImportFrom:
		an.visitImportFrom(s, scope)
	case *arena.Global, *arena.Nonlocal, *arena.Pass, *arena.Break, *arena.Continue:
		// structural no-ops for SEMA; the VM's variable-stack protocol
		// handles global/nonlocal rebinding at lowering time.
	case *arena.Assert:
		an.visitExpr(s.Test, scope)
		if s.Msg != nil {
			an.visitExpr(s.Msg, scope)
		}
	case *arena.ExprStmt:
		an.visitExpr(s.Value, scope)
	case *arena.Inline:
		for _, sub := range s.Stmts {
			an.visitStmt(sub, scope)
		}
	}
}

// assignTarget implements spec §4.5's Store-context binding rule for every
// shape a target can take: a bare name appends a fresh slot, a tuple/list
// target recurses elementwise, an attribute target installs into the
// owning class's attribute map, and a subscript target just visits its
// operands (Lython has no `__setitem__` typing rule to enforce).
func (an *Analyzer) assignTarget(target arena.Expr, scope *module.Module, valType types.Type) {
	switch t := target.(type) {
	case *arena.Name:
		t.Varid = scope.Insert(t.Id, t, valType)
	case *arena.TupleExpr:
		for _, el := range t.Elts {
			an.assignTarget(el, scope, types.Unknown{})
		}
	case *arena.ListExpr:
		for _, el := range t.Elts {
			an.assignTarget(el, scope, types.Unknown{})
		}
	case *arena.Starred:
		an.assignTarget(t.Value, scope, valType)
	case *arena.Attribute:
		vt := an.visitExpr(t.Value, scope)
		if ct, ok := vt.(*types.ClassType); ok {
			ct.SetAttribute(t.Attr, valType)
		}
	case *arena.Subscript:
		an.visitExpr(t.Value, scope)
		an.visitExpr(t.Index, scope)
	default:
		an.visitExpr(target, scope)
	}
}

func (an *Analyzer) visitImport(s *arena.Import, scope *module.Module) {
	for _, alias := range s.Names {
		name := alias.AsName
		if name == "" {
			name = alias.Name
		}
		if an.loader == nil {
			scope.Insert(name, nil, &types.ModuleType{Name: alias.Name})
			continue
		}
		an.loader.Load(an.arena, alias.Name, an.errs, s.NodePos())
		scope.Insert(name, nil, &types.ModuleType{Name: alias.Name})
	}
}

func (an *Analyzer) visitImportFrom(s *arena.ImportFrom, scope *module.Module) {
	if an.loader == nil {
		for _, alias := range s.Names {
			name := alias.AsName
			if name == "" {
				name = alias.Name
			}
			scope.Insert(name, nil, types.Unknown{})
		}
		return
	}
	mod := an.loader.Load(an.arena, s.Module, an.errs, s.NodePos())
	for _, alias := range s.Names {
		name := alias.AsName
		if name == "" {
			name = alias.Name
		}
		if mod == nil {
			scope.Insert(name, nil, types.Null{})
			continue
		}
		idx, ok := mod.Lookup(alias.Name)
		if !ok {
			an.errs.Add(lyerrors.NewImportError("cannot import name \""+alias.Name+"\" from \""+s.Module+"\"", s.NodePos().File, s.NodePos().Line, s.NodePos().Col))
			scope.Insert(name, nil, types.Null{})
			continue
		}
		scope.Insert(name, mod.BindingAt(idx).Node, mod.BindingAt(idx).Type)
	}
}

// visitFunctionLike visits a plain function (ct == nil) or a method bound
// to class ct: see visitMethod below for the self-binding/mining behavior
// ct != nil triggers. Caches the deduced Arrow on fn.Type for idempotence.
func (an *Analyzer) visitFunctionLike(fn *arena.FunctionDef, ct *types.ClassType, outerScope *module.Module, mineSelfAssigns bool) *types.Arrow {
	if fn.Type != nil {
		if arrow, ok := fn.Type.(*types.Arrow); ok {
			return arrow
		}
	}

	child, guard := Enter(outerScope)
	defer guard.Close()

	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		var pt types.Type
		switch {
		case i == 0 && ct != nil:
			pt = ct
		case p.Annotation != nil:
			pt = an.evalTypeExpr(p.Annotation, outerScope)
		case p.Default != nil:
			pt = an.visitExpr(p.Default, outerScope)
		default:
			pt = types.Unknown{}
		}
		child.Insert(p.Name, nil, pt)
		params[i] = pt
	}

	if mineSelfAssigns {
		an.mineSelfAssignments(fn.Body, fn.Params, ct, child)
	}

	retTypes := []types.Type{}
	an.returnStack = append(an.returnStack, &retTypes)
	an.visitBody(fn.Body, child)
	an.returnStack = an.returnStack[:len(an.returnStack)-1]

	var declared types.Type
	if fn.ReturnType != nil {
		declared = an.evalTypeExpr(fn.ReturnType, outerScope)
	}
	effective := types.Type(types.None)
	if len(retTypes) > 0 {
		effective = retTypes[0]
		for _, t := range retTypes[1:] {
			an.typecheck("first return", effective, "return", t, fn.NodePos())
		}
	}
	ret := effective
	if declared != nil {
		an.typecheck("declared return", declared, "effective return", effective, fn.NodePos())
		ret = declared
	}

	arrow := &types.Arrow{Params: params, Return: ret}
	fn.Type = arrow
	return arrow
}

// visitClassDef is spec §4.5's two-pass ClassDef deduction: record direct
// (class-body-level) attributes and locate __init__; mine self.x = ...
// assignments out of __init__'s body before visiting it; then visit every
// other method with its first parameter bound to the class itself.
func (an *Analyzer) visitClassDef(cls *arena.ClassDef, scope *module.Module) {
	if cls.Type != nil {
		scope.SetTypeAt(cls.Varid, types.TypeType{})
		return
	}

	ct := types.NewClassType(cls.Name)
	cls.Type = ct

	var initFn *arena.FunctionDef
	for _, stmt := range cls.Body {
		switch s := stmt.(type) {
		case *arena.AnnAssign:
			if name, ok := s.Target.(*arena.Name); ok {
				ct.SetAttribute(name.Id, an.evalTypeExpr(s.Annotation, scope))
			}
		case *arena.Assign:
			if len(s.Targets) == 1 {
				if name, ok := s.Targets[0].(*arena.Name); ok {
					ct.SetAttribute(name.Id, an.visitExpr(s.Value, scope))
				}
			}
		case *arena.FunctionDef:
			if s.Name == "__init__" {
				initFn = s
			}
		}
	}

	if initFn != nil {
		initArrow := an.visitFunctionLike(initFn, ct, scope, true)
		ct.SetAttribute("__init__", initArrow)
	}

	for _, stmt := range cls.Body {
		fn, ok := stmt.(*arena.FunctionDef)
		if !ok || fn == initFn {
			continue
		}
		arrow := an.visitFunctionLike(fn, ct, scope, false)
		ct.SetAttribute(fn.Name, arrow)
	}

	scope.SetTypeAt(cls.Varid, types.TypeType{})
}

// mineSelfAssignments walks __init__'s body (following the block-forming
// statements that don't open their own scope: if/while/for/with/try) for
// `self.attr = ...`/`self.attr: T = ...` assignments, installing each as a
// class attribute before __init__'s body is visited for real.
func (an *Analyzer) mineSelfAssignments(body []arena.Stmt, params []arena.Param, ct *types.ClassType, scope *module.Module) {
	if len(params) == 0 {
		return
	}
	selfName := params[0].Name

	var walk func(stmts []arena.Stmt)
	walk = func(stmts []arena.Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *arena.Assign:
				for _, t := range s.Targets {
					if attr, ok := selfAttr(t, selfName); ok {
						ct.SetAttribute(attr, an.visitExpr(s.Value, scope))
					}
				}
			case *arena.AnnAssign:
				if attr, ok := selfAttr(s.Target, selfName); ok {
					ct.SetAttribute(attr, an.evalTypeExpr(s.Annotation, scope))
				}
			case *arena.If:
				walk(s.Body)
				walk(s.Orelse)
			case *arena.While:
				walk(s.Body)
				walk(s.Orelse)
			case *arena.For:
				walk(s.Body)
				walk(s.Orelse)
			case *arena.With:
				walk(s.Body)
			case *arena.Try:
				walk(s.Body)
				for _, h := range s.Handlers {
					walk(h.Body)
				}
				walk(s.Orelse)
				walk(s.Finally)
			}
		}
	}
	walk(body)
}

func selfAttr(target arena.Expr, selfName string) (string, bool) {
	attr, ok := target.(*arena.Attribute)
	if !ok {
		return "", false
	}
	name, ok := attr.Value.(*arena.Name)
	if !ok || name.Id != selfName {
		return "", false
	}
	return attr.Attr, true
}

// visitPattern binds the names a match pattern captures (MatchAs/MatchStar/
// bare-identifier MatchValue-as-capture) into scope; it doesn't typecheck
// against the subject since match execution itself is an unimplemented VM
// hole (see SPEC_FULL.md's VM section).
func (an *Analyzer) visitPattern(pat arena.Node, scope *module.Module) {
	switch p := pat.(type) {
	case *arena.MatchValue:
		an.visitExpr(p.Value, scope)
	case *arena.MatchSingleton:
		// no bindings, no sub-expression.
	case *arena.MatchSequence:
		for _, sub := range p.Patterns {
			an.visitPattern(sub, scope)
		}
	case *arena.MatchMapping:
		for _, k := range p.Keys {
			an.visitExpr(k, scope)
		}
		for _, sub := range p.Patterns {
			an.visitPattern(sub, scope)
		}
		if p.Rest != "" {
			scope.Insert(p.Rest, nil, types.Unknown{})
		}
	case *arena.MatchClass:
		an.visitExpr(p.Cls, scope)
		for _, sub := range p.Patterns {
			an.visitPattern(sub, scope)
		}
		for _, sub := range p.KwdPatterns {
			an.visitPattern(sub, scope)
		}
	case *arena.MatchStar:
		if p.Name != "" {
			scope.Insert(p.Name, nil, types.Unknown{})
		}
	case *arena.MatchAs:
		if p.Pattern != nil {
			an.visitPattern(p.Pattern, scope)
		}
		if p.Name != "" {
			scope.Insert(p.Name, nil, types.Unknown{})
		}
	case *arena.MatchOr:
		for _, sub := range p.Patterns {
			an.visitPattern(sub, scope)
		}
	}
}
