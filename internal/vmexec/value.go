package vmexec

import "fmt"

// Kind tags Value's payload. Unlike the teacher's NaN-boxed vmregister.Value
// (64-bit packed doubles/pointers tuned for a register machine executing
// millions of instructions a second), this VM re-dispatches on AST nodes
// by design (spec §4.7/§9: "VM is AST-driven... at the cost of
// interpretation speed"), so a plain tagged struct costs nothing that
// matters and stays far easier to follow.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindList
	KindTuple
	KindSet
	KindDict
	KindInstance
)

// Value is one runtime Lython value living on the variable stack.
type Value struct {
	Kind  Kind
	I     int64
	F     float64
	S     string
	B     bool
	Items []Value // List/Tuple/Set elements
	Keys  []Value // Dict keys, parallel to Vals
	Vals  []Value
	Inst  *Instance
}

// Instance is a class instance: its attribute map plus the name of the
// ClassDef it was constructed from, used to resolve "Class.method" labels
// on method calls.
type Instance struct {
	Class string
	Attrs map[string]Value
}

func None() Value       { return Value{Kind: KindNone} }
func Int(i int64) Value { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func Str(s string) Value    { return Value{Kind: KindStr, S: s} }
func Bool(b bool) Value     { return Value{Kind: KindBool, B: b} }

// Truthy implements Python-style truthiness for the kinds this VM supports.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindInt:
		return v.I != 0
	case KindFloat:
		return v.F != 0
	case KindStr:
		return v.S != ""
	case KindBool:
		return v.B
	case KindList, KindTuple, KindSet:
		return len(v.Items) > 0
	case KindDict:
		return len(v.Keys) > 0
	case KindInstance:
		return true
	}
	return false
}

func (v Value) asFloat() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.I)
	case KindFloat:
		return v.F
	case KindBool:
		if v.B {
			return 1
		}
		return 0
	}
	return 0
}

func isNumeric(v Value) bool { return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindBool }

// Equal implements structural equality used by Compare's `==`/`!=` and by
// Dict/Set membership lookups.
func Equal(a, b Value) bool {
	if isNumeric(a) && isNumeric(b) {
		return a.asFloat() == b.asFloat()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone:
		return true
	case KindStr:
		return a.S == b.S
	case KindList, KindTuple, KindSet:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindInstance:
		return a.Inst == b.Inst
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "None"
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindStr:
		return v.S
	case KindBool:
		if v.B {
			return "True"
		}
		return "False"
	case KindList:
		return fmt.Sprintf("%v", v.Items)
	case KindTuple:
		return fmt.Sprintf("%v", v.Items)
	case KindSet:
		return fmt.Sprintf("%v", v.Items)
	case KindDict:
		return fmt.Sprintf("%v:%v", v.Keys, v.Vals)
	case KindInstance:
		return fmt.Sprintf("<%s instance>", v.Inst.Class)
	}
	return "?"
}
