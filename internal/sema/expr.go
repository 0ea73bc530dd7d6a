package sema

import (
	"github.com/lython/lython/internal/arena"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/module"
	"github.com/lython/lython/internal/types"
)

// visitExpr is the expression half of spec §4.5's type-deduction table:
// every case returns the type the node produces, after visiting its
// children (so errors nested arbitrarily deep still get recorded).
func (an *Analyzer) visitExpr(e arena.Expr, scope *module.Module) types.Type {
	switch n := e.(type) {
	case *arena.Constant:
		return an.constantType(n)
	case *arena.Name:
		return an.visitNameLoad(n, scope)
	case *arena.BinOp:
		return an.visitBinOp(n, scope)
	case *arena.UnaryOp:
		return an.visitExpr(n.Operand, scope)
	case *arena.BoolOp:
		return an.visitBoolOp(n, scope)
	case *arena.Compare:
		an.visitExpr(n.Left, scope)
		for _, c := range n.Comparators {
			an.visitExpr(c, scope)
		}
		return types.Bool
	case *arena.IfExp:
		an.visitExpr(n.Test, scope)
		bodyT := an.visitExpr(n.Body, scope)
		orelseT := an.visitExpr(n.Orelse, scope)
		an.typecheck("if-branch", bodyT, "else-branch", orelseT, n.NodePos())
		return bodyT
	case *arena.ListExpr:
		return &types.ArrayType{Elem: an.unifyElems(n.Elts, scope, n.NodePos())}
	case *arena.SetExpr:
		return &types.SetType{Elem: an.unifyElems(n.Elts, scope, n.NodePos())}
	case *arena.TupleExpr:
		elems := make([]types.Type, len(n.Elts))
		for i, el := range n.Elts {
			elems[i] = an.visitExpr(el, scope)
		}
		return &types.TupleType{Elems: elems}
	case *arena.DictExpr:
		return &types.DictType{
			Key:   an.unifyElems(n.Keys, scope, n.NodePos()),
			Value: an.unifyElems(n.Values, scope, n.NodePos()),
		}
	case *arena.ListComp:
		child, guard := an.openComprehensionScope(n.Generators, scope)
		elemT := an.visitExpr(n.Elt, child)
		guard.Close()
		return &types.ArrayType{Elem: elemT}
	case *arena.SetComp:
		child, guard := an.openComprehensionScope(n.Generators, scope)
		elemT := an.visitExpr(n.Elt, child)
		guard.Close()
		return &types.SetType{Elem: elemT}
	case *arena.GeneratorExp:
		child, guard := an.openComprehensionScope(n.Generators, scope)
		elemT := an.visitExpr(n.Elt, child)
		guard.Close()
		return &types.ArrayType{Elem: elemT}
	case *arena.DictComp:
		child, guard := an.openComprehensionScope(n.Generators, scope)
		keyT := an.visitExpr(n.Key, child)
		valT := an.visitExpr(n.Value, child)
		guard.Close()
		return &types.DictType{Key: keyT, Value: valT}
	case *arena.Call:
		return an.visitCall(n, scope)
	case *arena.Attribute:
		return an.visitAttributeLoad(n, scope)
	case *arena.Subscript:
		return an.visitSubscript(n, scope)
	case *arena.Slice:
		if n.Lower != nil {
			an.visitExpr(n.Lower, scope)
		}
		if n.Upper != nil {
			an.visitExpr(n.Upper, scope)
		}
		if n.Step != nil {
			an.visitExpr(n.Step, scope)
		}
		return types.Unknown{}
	case *arena.Lambda:
		return an.visitLambda(n, scope)
	case *arena.Await:
		return an.visitExpr(n.Value, scope)
	case *arena.Yield:
		if n.Value != nil {
			return an.visitExpr(n.Value, scope)
		}
		return types.None
	case *arena.YieldFrom:
		return an.visitExpr(n.Value, scope)
	case *arena.Starred:
		return an.visitExpr(n.Value, scope)
	case *arena.JoinedStr:
		for _, v := range n.Values {
			an.visitExpr(v, scope)
		}
		return types.Str
	case *arena.FormattedValue:
		an.visitExpr(n.Value, scope)
		return types.Str
	case *arena.ArrowTypeExpr, *arena.ArrayTypeExpr, *arena.DictTypeExpr,
		*arena.SetTypeExpr, *arena.TupleTypeExpr, *arena.BuiltinTypeExpr, *arena.ClassTypeExpr:
		return types.TypeType{}
	}
	return types.Unknown{}
}

func (an *Analyzer) constantType(c *arena.Constant) types.Type {
	switch c.Kind {
	case arena.ConstInt:
		return types.Int
	case arena.ConstFloat:
		return types.Float
	case arena.ConstString:
		return types.Str
	case arena.ConstBool:
		return types.Bool
	default:
		return types.None
	}
}

// visitNameLoad implements spec §4.5's Load/Del resolution: search the
// scope chain; on a miss, record a NameError and return Null.
func (an *Analyzer) visitNameLoad(n *arena.Name, scope *module.Module) types.Type {
	idx, ok := scope.Lookup(n.Id)
	if !ok {
		an.errs.Add(lyerrors.NewNameError(n.Id, n.NodePos().File, n.NodePos().Line, n.NodePos().Col))
		n.Varid = -1
		return types.Null{}
	}
	n.Varid = idx
	return scope.BindingAt(idx).Type
}

func (an *Analyzer) visitBinOp(n *arena.BinOp, scope *module.Module) types.Type {
	lt := an.visitExpr(n.Left, scope)
	rt := an.visitExpr(n.Right, scope)
	if !types.Equal(lt, rt) {
		an.errs.Add(lyerrors.NewUnsupportedOperand(n.Op, lt.String(), rt.String(), n.NodePos().File, n.NodePos().Line, n.NodePos().Col))
		return types.Null{}
	}
	return lt
}

// visitBoolOp folds Values left to right; once both sides of a pairing are
// already bool the result stays bool, otherwise spec §4.5 says to look up
// the operand's __and__/__or__ (checked against the left operand first,
// __rand__/__ror__ against the right — see DESIGN.md's Open Question
// decision on dunder lookup order) and typecheck the resulting arrow.
func (an *Analyzer) visitBoolOp(n *arena.BoolOp, scope *module.Module) types.Type {
	if len(n.Values) == 0 {
		return types.Bool
	}
	acc := an.visitExpr(n.Values[0], scope)
	for _, v := range n.Values[1:] {
		rt := an.visitExpr(v, scope)
		if !types.IsBool(acc) || !types.IsBool(rt) {
			an.checkBoolOperand(acc, rt, n.Op, n.NodePos())
		}
		acc = types.Bool
	}
	return types.Bool
}

// checkBoolOperand looks up the dunder method for a non-bool BoolOp
// operand and typechecks its arrow as a two-argument function of the
// other operand's type returning bool.
func (an *Analyzer) checkBoolOperand(lhs, rhs types.Type, op string, pos arena.Pos) {
	forward, reverse := "__and__", "__rand__"
	if op == "or" {
		forward, reverse = "__or__", "__ror__"
	}
	if ct, ok := lhs.(*types.ClassType); ok {
		if m, found := ct.Attribute(forward); found {
			an.typecheck("declared "+forward, m, "call", &types.Arrow{Params: []types.Type{lhs, rhs}, Return: types.Bool}, pos)
			return
		}
	}
	if ct, ok := rhs.(*types.ClassType); ok {
		if m, found := ct.Attribute(reverse); found {
			an.typecheck("declared "+reverse, m, "call", &types.Arrow{Params: []types.Type{rhs, lhs}, Return: types.Bool}, pos)
			return
		}
	}
	an.errs.Add(lyerrors.NewUnsupportedOperand(op, lhs.String(), rhs.String(), pos.File, pos.Line, pos.Col))
}

func (an *Analyzer) unifyElems(elts []arena.Expr, scope *module.Module, pos arena.Pos) types.Type {
	if len(elts) == 0 {
		return types.Unknown{}
	}
	first := an.visitExpr(elts[0], scope)
	for _, e := range elts[1:] {
		t := an.visitExpr(e, scope)
		an.typecheck("first element", first, "element", t, pos)
	}
	return first
}

// openComprehensionScope opens the nested scope spec §4.5 requires ("guards
// and iterables introduce bindings in a nested scope") and binds each
// generator's target from its iterable's element type. The caller visits
// its own elt/key/value expression(s) in the returned child scope, then
// must call guard.Close().
func (an *Analyzer) openComprehensionScope(gens []arena.Comprehension, outer *module.Module) (*module.Module, *Scope) {
	child, guard := Enter(outer)
	for _, g := range gens {
		iterT := an.visitExpr(g.Iter, child)
		an.assignTarget(g.Target, child, containerElem(iterT))
		for _, ifExpr := range g.Ifs {
			an.visitExpr(ifExpr, child)
		}
	}
	return child, guard
}

func (an *Analyzer) visitCall(n *arena.Call, scope *module.Module) types.Type {
	ft, defNode := an.resolveCallee(n.Func, scope)
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = an.visitExpr(a, scope)
	}
	for _, kw := range n.Keywords {
		an.visitExpr(kw.Value, scope)
	}

	if classDef, ok := defNode.(*arena.ClassDef); ok {
		ct, _ := classDef.Type.(*types.ClassType)
		if ct == nil {
			ct = types.NewClassType(classDef.Name)
		}
		var arrow *types.Arrow
		if initType, found := ct.Attribute("__init__"); found {
			arrow, _ = initType.(*types.Arrow)
		}
		var wantParams []types.Type
		if arrow != nil && len(arrow.Params) > 0 {
			wantParams = arrow.Params[1:] // drop the implicit `self`
		}
		want := &types.Arrow{Params: wantParams, Return: ct}
		got := &types.Arrow{Params: argTypes, Return: ct}
		an.typecheck("constructor", want, "call", got, n.NodePos())
		return ct
	}

	arrow, ok := ft.(*types.Arrow)
	if !ok {
		if _, unresolved := ft.(types.Unknown); unresolved {
			// a def declared by declareTop whose body hasn't been visited
			// yet (or an unannotated parameter): there is no arrow to check.
			return types.Unknown{}
		}
		an.errs.Add(lyerrors.NewTypeError("callee", ft.String(), "call", "not callable", n.NodePos().File, n.NodePos().Line, n.NodePos().Col))
		return types.Null{}
	}
	if _, isMethod := n.Func.(*arena.Attribute); isMethod && len(arrow.Params) > 0 {
		if _, bound := arrow.Params[0].(*types.ClassType); bound {
			arrow = &types.Arrow{Params: arrow.Params[1:], Return: arrow.Return} // drop the bound `self`
		}
	}
	got := &types.Arrow{Params: argTypes, Return: arrow.Return}
	an.typecheck("declared", arrow, "call", got, n.NodePos())
	return arrow.Return
}

// resolveCallee visits the callee expression but, when it's a bare Name,
// also returns the binding's defining Node (a *arena.ClassDef for a class
// reference) so visitCall can reach the class's synthesized constructor
// arrow instead of just its nominal `Type` binding type.
func (an *Analyzer) resolveCallee(fn arena.Expr, scope *module.Module) (types.Type, arena.Node) {
	if name, ok := fn.(*arena.Name); ok {
		idx, found := scope.Lookup(name.Id)
		if !found {
			an.errs.Add(lyerrors.NewNameError(name.Id, name.NodePos().File, name.NodePos().Line, name.NodePos().Col))
			name.Varid = -1
			return types.Null{}, nil
		}
		name.Varid = idx
		b := scope.BindingAt(idx)
		return b.Type, b.Node
	}
	return an.visitExpr(fn, scope), nil
}

// visitAttributeLoad resolves obj.attr in value (non-assignment) context;
// a missing attribute records an AttributeError rather than installing one
// (installation only happens via assignTarget).
func (an *Analyzer) visitAttributeLoad(n *arena.Attribute, scope *module.Module) types.Type {
	vt := an.visitExpr(n.Value, scope)
	ct, ok := vt.(*types.ClassType)
	if !ok {
		return types.Unknown{}
	}
	t, found := ct.Attribute(n.Attr)
	if !found {
		an.errs.Add(lyerrors.NewAttributeError(ct.Name, n.Attr, ct.AttrOrder, n.NodePos().File, n.NodePos().Line, n.NodePos().Col))
		return types.Null{}
	}
	return t
}

func (an *Analyzer) visitSubscript(n *arena.Subscript, scope *module.Module) types.Type {
	vt := an.visitExpr(n.Value, scope)
	if _, isSlice := n.Index.(*arena.Slice); isSlice {
		an.visitExpr(n.Index, scope)
		return vt
	}
	an.visitExpr(n.Index, scope)
	return containerElem(vt)
}

func (an *Analyzer) visitLambda(n *arena.Lambda, scope *module.Module) types.Type {
	child, guard := Enter(scope)
	defer guard.Close()
	params := make([]types.Type, len(n.Params))
	for i, p := range n.Params {
		var pt types.Type = types.Unknown{}
		if p.Annotation != nil {
			pt = an.evalTypeExpr(p.Annotation, scope)
		} else if p.Default != nil {
			pt = an.visitExpr(p.Default, scope)
		}
		child.Insert(p.Name, nil, pt)
		params[i] = pt
	}
	ret := an.visitExpr(n.Body, child)
	return &types.Arrow{Params: params, Return: ret}
}

// containerElem derives the per-iteration element type a `for`/comprehension
// target binds to, from the iterable's deduced type.
func containerElem(t types.Type) types.Type {
	switch x := t.(type) {
	case *types.ArrayType:
		return x.Elem
	case *types.SetType:
		return x.Elem
	case *types.DictType:
		return x.Key
	case *types.TupleType:
		if len(x.Elems) > 0 {
			return x.Elems[0]
		}
	}
	return types.Unknown{}
}
