package vmexec

import (
	"fmt"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/vmgen"
)

// eval evaluates one expression against fr (falling back to the module's
// global frame for names fr doesn't have — spec §4.7's Name-load protocol,
// generalized per this package's doc comment to name-keyed lookup).
func (vm *VM) eval(e arena.Expr, fr *frame) (Value, error) {
	switch n := e.(type) {
	case *arena.Constant:
		return vm.evalConstant(n), nil
	case *arena.Name:
		return vm.load(n, fr)
	case *arena.BinOp:
		return vm.evalBinOp(n, fr)
	case *arena.BoolOp:
		return vm.evalBoolOp(n, fr)
	case *arena.UnaryOp:
		return vm.evalUnaryOp(n, fr)
	case *arena.Compare:
		return vm.evalCompare(n, fr)
	case *arena.IfExp:
		test, err := vm.eval(n.Test, fr)
		if err != nil {
			return None(), err
		}
		if test.Truthy() {
			return vm.eval(n.Body, fr)
		}
		return vm.eval(n.Orelse, fr)
	case *arena.Call:
		return vm.evalCall(n, fr)
	case *arena.Attribute:
		return vm.evalAttribute(n, fr)
	case *arena.Subscript:
		return vm.evalSubscript(n, fr)
	case *arena.ListExpr:
		items, err := vm.evalArgs(n.Elts, fr)
		return Value{Kind: KindList, Items: items}, err
	case *arena.TupleExpr:
		items, err := vm.evalArgs(n.Elts, fr)
		return Value{Kind: KindTuple, Items: items}, err
	case *arena.SetExpr:
		items, err := vm.evalArgs(n.Elts, fr)
		return Value{Kind: KindSet, Items: items}, err
	case *arena.DictExpr:
		keys := make([]Value, len(n.Keys))
		vals := make([]Value, len(n.Values))
		for i := range n.Keys {
			k, err := vm.eval(n.Keys[i], fr)
			if err != nil {
				return None(), err
			}
			v, err := vm.eval(n.Values[i], fr)
			if err != nil {
				return None(), err
			}
			keys[i], vals[i] = k, v
		}
		return Value{Kind: KindDict, Keys: keys, Vals: vals}, nil
	case *arena.Starred:
		return vm.eval(n.Value, fr)
	case *arena.JoinedStr, *arena.FormattedValue:
		return vm.evalJoinedStr(n, fr)
	}
	return None(), fmt.Errorf("vmexec: cannot evaluate %T", e)
}

func (vm *VM) evalConstant(c *arena.Constant) Value {
	switch c.Kind {
	case arena.ConstInt:
		return Int(c.IntVal)
	case arena.ConstFloat:
		return Float(c.FloatVal)
	case arena.ConstString:
		return Str(c.StrVal)
	case arena.ConstBool:
		return Bool(c.BoolVal)
	}
	return None()
}

// load resolves a Name against the current frame first and the module's
// global frame second — the locals-vs-globals dispatch the teacher's
// stmt_compiler.go implements with two distinct opcodes, collapsed here
// into one fallback chain since this VM has only one kind of storage.
func (vm *VM) load(n *arena.Name, fr *frame) (Value, error) {
	if v, ok := fr.vars[n.Id]; ok {
		return v, nil
	}
	if g := vm.globalFrame(); g != fr {
		if v, ok := g.vars[n.Id]; ok {
			return v, nil
		}
	}
	return None(), fmt.Errorf("vmexec: unbound name %q", n.Id)
}

func (vm *VM) evalArgs(exprs []arena.Expr, fr *frame) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := vm.eval(e, fr)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (vm *VM) evalBinOp(n *arena.BinOp, fr *frame) (Value, error) {
	l, err := vm.eval(n.Left, fr)
	if err != nil {
		return None(), err
	}
	r, err := vm.eval(n.Right, fr)
	if err != nil {
		return None(), err
	}
	return binOp(n.Op, l, r)
}

func binOp(op string, l, r Value) (Value, error) {
	if op == "+" && (l.Kind == KindStr || r.Kind == KindStr) {
		return Str(l.String() + r.String()), nil
	}
	if op == "+" && (l.Kind == KindList && r.Kind == KindList) {
		return Value{Kind: KindList, Items: append(append([]Value{}, l.Items...), r.Items...)}, nil
	}
	if !isNumeric(l) || !isNumeric(r) {
		return None(), fmt.Errorf("vmexec: unsupported operand types for %s: %v and %v", op, l.Kind, r.Kind)
	}
	if l.Kind == KindInt && r.Kind == KindInt {
		a, b := l.I, r.I
		switch op {
		case "+":
			return Int(a + b), nil
		case "-":
			return Int(a - b), nil
		case "*":
			return Int(a * b), nil
		case "/":
			if b == 0 {
				return None(), fmt.Errorf("vmexec: division by zero")
			}
			return Float(float64(a) / float64(b)), nil
		case "//":
			if b == 0 {
				return None(), fmt.Errorf("vmexec: division by zero")
			}
			return Int(a / b), nil
		case "%":
			if b == 0 {
				return None(), fmt.Errorf("vmexec: modulo by zero")
			}
			return Int(a % b), nil
		}
	}
	a, b := l.asFloat(), r.asFloat()
	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	case "/":
		if b == 0 {
			return None(), fmt.Errorf("vmexec: division by zero")
		}
		return Float(a / b), nil
	}
	return None(), fmt.Errorf("vmexec: unsupported operator %q", op)
}

func (vm *VM) evalBoolOp(n *arena.BoolOp, fr *frame) (Value, error) {
	var result Value
	for _, v := range n.Values {
		val, err := vm.eval(v, fr)
		if err != nil {
			return None(), err
		}
		result = val
		if n.Op == "and" && !val.Truthy() {
			return val, nil
		}
		if n.Op == "or" && val.Truthy() {
			return val, nil
		}
	}
	return result, nil
}

func (vm *VM) evalUnaryOp(n *arena.UnaryOp, fr *frame) (Value, error) {
	v, err := vm.eval(n.Operand, fr)
	if err != nil {
		return None(), err
	}
	switch n.Op {
	case "-":
		if v.Kind == KindInt {
			return Int(-v.I), nil
		}
		return Float(-v.asFloat()), nil
	case "not":
		return Bool(!v.Truthy()), nil
	case "+":
		return v, nil
	}
	return None(), fmt.Errorf("vmexec: unsupported unary operator %q", n.Op)
}

func (vm *VM) evalCompare(n *arena.Compare, fr *frame) (Value, error) {
	left, err := vm.eval(n.Left, fr)
	if err != nil {
		return None(), err
	}
	for i, op := range n.Ops {
		right, err := vm.eval(n.Comparators[i], fr)
		if err != nil {
			return None(), err
		}
		ok, err := compareOp(op, left, right)
		if err != nil {
			return None(), err
		}
		if !ok {
			return Bool(false), nil
		}
		left = right
	}
	return Bool(true), nil
}

func compareOp(op string, l, r Value) (bool, error) {
	switch op {
	case "==":
		return Equal(l, r), nil
	case "!=":
		return !Equal(l, r), nil
	}
	if l.Kind == KindStr && r.Kind == KindStr {
		switch op {
		case "<":
			return l.S < r.S, nil
		case "<=":
			return l.S <= r.S, nil
		case ">":
			return l.S > r.S, nil
		case ">=":
			return l.S >= r.S, nil
		}
	}
	if !isNumeric(l) || !isNumeric(r) {
		return false, fmt.Errorf("vmexec: cannot compare %v and %v", l.Kind, r.Kind)
	}
	a, b := l.asFloat(), r.asFloat()
	switch op {
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	}
	return false, fmt.Errorf("vmexec: unsupported comparison %q", op)
}

func (vm *VM) evalAttribute(n *arena.Attribute, fr *frame) (Value, error) {
	recv, err := vm.eval(n.Value, fr)
	if err != nil {
		return None(), err
	}
	if recv.Kind != KindInstance {
		return None(), fmt.Errorf("vmexec: %q is not an attribute of %v", n.Attr, recv.Kind)
	}
	if v, ok := recv.Inst.Attrs[n.Attr]; ok {
		return v, nil
	}
	return None(), fmt.Errorf("vmexec: %s has no attribute %q", recv.Inst.Class, n.Attr)
}

func (vm *VM) evalSubscript(n *arena.Subscript, fr *frame) (Value, error) {
	container, err := vm.eval(n.Value, fr)
	if err != nil {
		return None(), err
	}
	if sl, ok := n.Index.(*arena.Slice); ok {
		return vm.evalSlice(container, sl, fr)
	}
	idx, err := vm.eval(n.Index, fr)
	if err != nil {
		return None(), err
	}
	return vm.getitem(container, idx)
}

func (vm *VM) getitem(container, idx Value) (Value, error) {
	switch container.Kind {
	case KindList, KindTuple:
		i := int(idx.I)
		if i < 0 {
			i += len(container.Items)
		}
		if i < 0 || i >= len(container.Items) {
			return None(), fmt.Errorf("vmexec: index out of range")
		}
		return container.Items[i], nil
	case KindStr:
		i := int(idx.I)
		if i < 0 {
			i += len(container.S)
		}
		if i < 0 || i >= len(container.S) {
			return None(), fmt.Errorf("vmexec: index out of range")
		}
		return Str(string(container.S[i])), nil
	case KindDict:
		for i, k := range container.Keys {
			if Equal(k, idx) {
				return container.Vals[i], nil
			}
		}
		return None(), fmt.Errorf("vmexec: key %v not found", idx)
	}
	return None(), fmt.Errorf("vmexec: %v is not subscriptable", container.Kind)
}

func (vm *VM) evalSlice(container Value, sl *arena.Slice, fr *frame) (Value, error) {
	length := len(container.Items)
	if container.Kind == KindStr {
		length = len(container.S)
	}
	lo, hi, step := 0, length, 1
	if sl.Lower != nil {
		v, err := vm.eval(sl.Lower, fr)
		if err != nil {
			return None(), err
		}
		lo = clampIndex(int(v.I), length)
	}
	if sl.Upper != nil {
		v, err := vm.eval(sl.Upper, fr)
		if err != nil {
			return None(), err
		}
		hi = clampIndex(int(v.I), length)
	}
	if sl.Step != nil {
		v, err := vm.eval(sl.Step, fr)
		if err != nil {
			return None(), err
		}
		if v.I != 0 {
			step = int(v.I)
		}
	}
	if container.Kind == KindStr {
		var out []byte
		for i := lo; i >= 0 && i < length && i < hi; i += step {
			out = append(out, container.S[i])
		}
		return Str(string(out)), nil
	}
	var out []Value
	for i := lo; i >= 0 && i < length && i < hi; i += step {
		out = append(out, container.Items[i])
	}
	return Value{Kind: container.Kind, Items: out}, nil
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func (vm *VM) evalJoinedStr(e arena.Expr, fr *frame) (Value, error) {
	switch n := e.(type) {
	case *arena.FormattedValue:
		v, err := vm.eval(n.Value, fr)
		if err != nil {
			return None(), err
		}
		return Str(v.String()), nil
	case *arena.JoinedStr:
		out := ""
		for _, part := range n.Values {
			v, err := vm.eval(part, fr)
			if err != nil {
				return None(), err
			}
			out += v.String()
		}
		return Str(out), nil
	}
	return None(), fmt.Errorf("vmexec: unsupported f-string node %T", e)
}

// evalCall dispatches a Call to a builtin, a free function, a class
// constructor, or a method, per spec §4.7's Call protocol (push args, save
// return address implicitly via the Go call stack, recurse, restore).
func (vm *VM) evalCall(n *arena.Call, fr *frame) (Value, error) {
	switch callee := n.Func.(type) {
	case *arena.Name:
		if callee.Id == vmgen.IntrinsicHasNext || callee.Id == vmgen.IntrinsicNext {
			return vm.evalIterIntrinsic(callee.Id, n, fr)
		}
		args, err := vm.evalArgs(n.Args, fr)
		if err != nil {
			return None(), err
		}
		if callee.Varid < 0 {
			return None(), fmt.Errorf("vmexec: unresolved callee %q", callee.Id)
		}
		binding := vm.root.BindingAt(callee.Varid)
		if binding.Node == nil {
			if b, ok := vm.builtins[binding.Name]; ok {
				return b(args)
			}
			return None(), fmt.Errorf("vmexec: no builtin %q", binding.Name)
		}
		if cls, ok := binding.Node.(*arena.ClassDef); ok {
			return vm.construct(cls, args)
		}
		return vm.callLabel(binding.Name, args)
	case *arena.Attribute:
		recv, err := vm.eval(callee.Value, fr)
		if err != nil {
			return None(), err
		}
		args, err := vm.evalArgs(n.Args, fr)
		if err != nil {
			return None(), err
		}
		if recv.Kind != KindInstance {
			return None(), fmt.Errorf("vmexec: cannot call method %q on %v", callee.Attr, recv.Kind)
		}
		label := recv.Inst.Class + "." + callee.Attr
		return vm.callLabel(label, append([]Value{recv}, args...))
	}
	return None(), fmt.Errorf("vmexec: unsupported callee %T", n.Func)
}

// construct builds a new Instance of cls and, if it declares __init__,
// calls it with (self, ...args) and discards its return value.
func (vm *VM) construct(cls *arena.ClassDef, args []Value) (Value, error) {
	inst := &Instance{Class: cls.Name, Attrs: map[string]Value{}}
	self := Value{Kind: KindInstance, Inst: inst}
	if _, ok := vm.program.LabelFor(cls.Name + ".__init__"); ok {
		if _, err := vm.callLabel(cls.Name+".__init__", append([]Value{self}, args...)); err != nil {
			return None(), err
		}
	}
	return self, nil
}

// evalIterIntrinsic backs the For-loop protocol vmgen.lowerFor synthesizes:
// __has_next__ peeks the cursor without advancing it, __next__ returns the
// current element and advances. vmgen.lowerFor passes the loop's Iter
// expression as Args[0] to both the CondJump's __has_next__ call and the
// body's __next__ call, so that shared node's identity (plus call depth)
// is what ties the two calls to the same cursor — cheaper than threading
// the owning *For through every intermediate instruction.
func (vm *VM) evalIterIntrinsic(name string, n *arena.Call, fr *frame) (Value, error) {
	container, err := vm.eval(n.Args[0], fr)
	if err != nil {
		return None(), err
	}
	items, length := iterableItems(container)
	key := vm.iterKey(n.Args[0])
	cursor := vm.iterCursors[key]

	switch name {
	case vmgen.IntrinsicHasNext:
		return Bool(cursor < length), nil
	case vmgen.IntrinsicNext:
		if cursor >= length {
			return None(), fmt.Errorf("vmexec: iterator exhausted")
		}
		vm.iterCursors[key] = cursor + 1
		if container.Kind == KindStr {
			return Str(string(container.S[cursor])), nil
		}
		return items[cursor], nil
	}
	return None(), fmt.Errorf("vmexec: unknown iterator intrinsic %q", name)
}

func iterableItems(v Value) ([]Value, int) {
	switch v.Kind {
	case KindList, KindTuple, KindSet:
		return v.Items, len(v.Items)
	case KindStr:
		return nil, len(v.S)
	case KindDict:
		return v.Keys, len(v.Keys)
	}
	return nil, 0
}

