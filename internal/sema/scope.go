// Package sema implements the semantic analyser: a visitor that returns a
// types.Type for every node it visits, resolves names against the shared
// module.Module scope chain, and records errors rather than aborting.
// Grounded on the teacher's internal/compiler's single-pass AST walk
// (visitor method per node kind), generalized to spec §4.5's two-pass
// ClassDef mining and forward-declaration prepass, neither of which the
// teacher's brace-scoped Sentra needs.
package sema

import (
	"github.com/lython/lython/internal/module"
)

// Scope is the spec §5 RAII-style guard: Enter records the bindings
// vector's current length, and Close truncates back to it. The function
// and lambda visitors defer Close, so it runs however they return; the
// comprehension cases call it directly after visiting their element
// expressions.
type Scope struct {
	mod   *module.Module
	mark  int
}

// Enter opens a nested scope under parent (function body, class body,
// lambda body, or comprehension), returning both the child Module to visit
// with and the guard to defer-close.
func Enter(parent *module.Module) (*module.Module, *Scope) {
	child := parent.Enter()
	return child, &Scope{mod: child, mark: child.Mark()}
}

// Close truncates the shared bindings vector back to the mark recorded at
// Enter, discarding every binding this scope (or anything nested inside
// it) appended.
func (s *Scope) Close() {
	s.mod.TruncateTo(s.mark)
}
