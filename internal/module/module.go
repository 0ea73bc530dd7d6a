// Package module implements the spec's fused arena/symbol-table role for
// name resolution: a hierarchical name→slot map with a parent pointer,
// backed by one append-only Bindings vector per compiled unit so varid is
// an absolute, monotone index across every nested scope. Grounded on the
// teacher's internal/module.ModuleLoader (cache/searchPath shape,
// generalized from flat ".sn" names to dotted ".ly" import paths) fused
// with original_source/src/Parser/Module.h's constructor for the exact
// builtin pre-insertion set.
package module

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/types"
)

// Binding is one {name, defining node, deduced type} triple; insertion
// order into the shared Bindings vector is the varid.
type Binding struct {
	Name string
	Node arena.Node
	Type types.Type
}

// Bindings is the single monotonic vector spec §3/§9 describes: shared by
// every nested Module scope of one compiled unit so varid never collides
// across scopes.
type Bindings struct {
	list []Binding
}

func (b *Bindings) Len() int { return len(b.list) }

func (b *Bindings) Append(binding Binding) int {
	b.list = append(b.list, binding)
	return len(b.list) - 1
}

func (b *Bindings) At(i int) Binding { return b.list[i] }

// SetType updates the deduced type of a previously-inserted binding,
// letting SEMA resolve the forward-declaration prepass's Unknown types.
func (b *Bindings) SetType(i int, t types.Type) { b.list[i].Type = t }

// Truncate drops every binding from index n onward; the RAII-style scope
// guard (internal/sema.Scope) calls this on scope exit regardless of how
// the scope was exited (spec §5).
func (b *Bindings) Truncate(n int) { b.list = b.list[:n] }

// Module is one lexical scope: the root module, a function body, a class
// body, a lambda body, or a comprehension's implicit scope.
type Module struct {
	parent   *Module
	bindings *Bindings
	// names maps a name visible in this scope to its absolute varid. Only
	// names inserted directly into this scope live here; lookups that miss
	// fall through to parent.
	names map[string]int
	file  string
}

// NewRoot creates the top-level module for one compiled file, pre-loaded
// with Type, Float, and the builtins min/max/sin/pi exactly as
// original_source/src/Parser/Module.h's constructor does.
func NewRoot(file string) *Module {
	m := &Module{bindings: &Bindings{}, names: map[string]int{}, file: file}
	m.insertBuiltin("Type", types.TypeType{})
	m.insertBuiltin("Float", types.Float)
	m.insertBuiltin("min", &types.Arrow{Params: []types.Type{types.Float, types.Float}, Return: types.Float})
	m.insertBuiltin("max", &types.Arrow{Params: []types.Type{types.Float, types.Float}, Return: types.Float})
	m.insertBuiltin("sin", &types.Arrow{Params: []types.Type{types.Float}, Return: types.Float})
	// pi is supplemented (see DESIGN.md): the original pre-inserts only
	// function builtins typed in terms of Float, so a Float constant makes
	// them immediately useful without a user-written definition.
	m.insertBuiltin("pi", types.Float)
	return m
}

func (m *Module) insertBuiltin(name string, t types.Type) {
	idx := m.bindings.Append(Binding{Name: name, Node: nil, Type: t})
	m.names[name] = idx
}

// Size is parent-inclusive per spec §4.4: the shared Bindings vector makes
// this simply "how many bindings exist right now, anywhere in the chain"
// since every scope of one compiled unit shares it.
func (m *Module) Size() int { return m.bindings.Len() }

// Insert appends a new binding to this scope and returns its absolute
// slot index (the varid).
func (m *Module) Insert(name string, node arena.Node, t types.Type) int {
	idx := m.bindings.Append(Binding{Name: name, Node: node, Type: t})
	m.names[name] = idx
	return idx
}

// Lookup searches from this scope upward through parents, returning the
// absolute varid of the nearest enclosing binding for name.
func (m *Module) Lookup(name string) (int, bool) {
	for s := m; s != nil; s = s.parent {
		if idx, ok := s.names[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// Reference produces a Name expression whose Varid points at name's
// resolved slot, or -1 if unresolved — callers (SEMA) are responsible for
// recording a NameError in the latter case.
func (m *Module) Reference(name string) *arena.Name {
	varid := -1
	if idx, ok := m.Lookup(name); ok {
		varid = idx
	}
	return &arena.Name{Id: name, Ctx: arena.Load, Varid: varid}
}

// BindingAt returns the binding at an absolute slot, used by SEMA to read
// back a Name's deduced type.
func (m *Module) BindingAt(varid int) Binding { return m.bindings.At(varid) }

// SetTypeAt updates the deduced type of an already-inserted binding.
func (m *Module) SetTypeAt(varid int, t types.Type) { m.bindings.SetType(varid, t) }

// Enter creates a nested scope (function body, class body, lambda body,
// comprehension) whose new slots continue the same monotonic vector.
func (m *Module) Enter() *Module {
	return &Module{parent: m, bindings: m.bindings, names: map[string]int{}, file: m.file}
}

// Mark records the current bindings length; TruncateTo is later called by
// the scope guard to roll back every binding this scope (or anything it
// entered) appended.
func (m *Module) Mark() int { return m.bindings.Len() }

func (m *Module) TruncateTo(n int) { m.bindings.Truncate(n) }

// File returns the source file this scope chain belongs to.
func (m *Module) File() string { return m.file }

// Names returns this scope's own directly-inserted names in sorted order,
// for deterministic diagnostics (e.g. AttributeError candidate lists).
func (m *Module) Names() []string {
	names := maps.Keys(m.names)
	sort.Strings(names)
	return names
}
