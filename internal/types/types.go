// Package types models Lython's type expressions: the value SEMA deduces
// and typechecks for every AST node (spec.md §4.5). Grounded on
// original_source's Module::type_type()/float_type() pattern, generalized
// into the full structural-equality type-expression set the deduction
// table names.
package types

import "strings"

// Type is the sealed set of type expressions SEMA can produce.
type Type interface {
	String() string
	kindTag() string
}

// Builtin is a primitive/named type reference: Float, Int, Str, Bool,
// None, or a user struct/class resolved to its declaration.
type Builtin struct {
	Name string
}

func (b *Builtin) String() string  { return b.Name }
func (b *Builtin) kindTag() string { return "builtin:" + b.Name }

// Unknown marks a binding whose type SEMA hasn't deduced yet (the
// forward-declaration prepass inserts bindings with this type).
type Unknown struct{}

func (Unknown) String() string  { return "<unknown>" }
func (Unknown) kindTag() string { return "unknown" }

// Null is returned when SEMA gives up on a node after recording an error.
type Null struct{}

func (Null) String() string  { return "<null>" }
func (Null) kindTag() string { return "null" }

// Arrow is a function signature: (T1, ..., Tn) -> R.
type Arrow struct {
	Params []Type
	Return Type
}

func (a *Arrow) String() string {
	parts := make([]string, len(a.Params))
	for i, p := range a.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + a.Return.String()
}
func (a *Arrow) kindTag() string { return "arrow" }

// ArrayType, SetType, TupleType, DictType are container type expressions.
type ArrayType struct{ Elem Type }

func (t *ArrayType) String() string  { return "[" + t.Elem.String() + "]" }
func (t *ArrayType) kindTag() string { return "array" }

type SetType struct{ Elem Type }

func (t *SetType) String() string  { return "{" + t.Elem.String() + "}" }
func (t *SetType) kindTag() string { return "set" }

type TupleType struct{ Elems []Type }

func (t *TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *TupleType) kindTag() string { return "tuple" }

type DictType struct {
	Key, Value Type
}

func (t *DictType) String() string  { return "{" + t.Key.String() + ": " + t.Value.String() + "}" }
func (t *DictType) kindTag() string { return "dict" }

// ClassType is a user-defined struct/class, carrying its resolved
// attribute and method types for Attribute lookups.
type ClassType struct {
	Name       string
	Attributes map[string]Type
	// AttrOrder preserves declaration order for deterministic diagnostics.
	AttrOrder []string
}

func (c *ClassType) String() string  { return c.Name }
func (c *ClassType) kindTag() string { return "class:" + c.Name }

func NewClassType(name string) *ClassType {
	return &ClassType{Name: name, Attributes: map[string]Type{}}
}

// SetAttribute installs (or overwrites) an attribute's type, recording
// declaration order the first time the name appears.
func (c *ClassType) SetAttribute(name string, t Type) {
	if _, exists := c.Attributes[name]; !exists {
		c.AttrOrder = append(c.AttrOrder, name)
	}
	c.Attributes[name] = t
}

func (c *ClassType) Attribute(name string) (Type, bool) {
	t, ok := c.Attributes[name]
	return t, ok
}

// ModuleType marks an imported module binding (spec §4.5 Imports:
// "insert its Module AST node ... with type Module").
type ModuleType struct {
	Name string
}

func (m *ModuleType) String() string  { return "module:" + m.Name }
func (m *ModuleType) kindTag() string { return "module"}

// TypeType is the type of Type itself (original_source's Module::type_type()).
type TypeType struct{}

func (TypeType) String() string  { return "Type" }
func (TypeType) kindTag() string { return "typetype" }

// Well-known builtin singletons, pre-inserted into the root Module per
// spec §4.4 / original_source's constructor.
var (
	Float = &Builtin{Name: "Float"}
	Int   = &Builtin{Name: "Int"}
	Str   = &Builtin{Name: "Str"}
	Bool  = &Builtin{Name: "Bool"}
	None  = &Builtin{Name: "None"}
)

// Equal is the structural-equality typecheck spec §4.5 names: primitive
// refs compare by name, Arrows compare arity and pointwise, containers
// compare recursively. An Unknown on either side (an unannotated parameter,
// or a name the forward-declaration prepass hasn't resolved yet) matches
// any type.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if _, ok := a.(Unknown); ok {
		return true
	}
	if _, ok := b.(Unknown); ok {
		return true
	}
	switch x := a.(type) {
	case *Builtin:
		y, ok := b.(*Builtin)
		return ok && x.Name == y.Name
	case Null:
		_, ok := b.(Null)
		return ok
	case *Arrow:
		y, ok := b.(*Arrow)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return Equal(x.Return, y.Return)
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && Equal(x.Elem, y.Elem)
	case *SetType:
		y, ok := b.(*SetType)
		return ok && Equal(x.Elem, y.Elem)
	case *TupleType:
		y, ok := b.(*TupleType)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *DictType:
		y, ok := b.(*DictType)
		return ok && Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case *ClassType:
		y, ok := b.(*ClassType)
		return ok && x.Name == y.Name
	case *ModuleType:
		y, ok := b.(*ModuleType)
		return ok && x.Name == y.Name
	case TypeType:
		_, ok := b.(TypeType)
		return ok
	}
	return false
}

// IsBool reports whether t is the Bool builtin (used by BoolOp typing).
func IsBool(t Type) bool {
	b, ok := t.(*Builtin)
	return ok && b.Name == "Bool"
}
