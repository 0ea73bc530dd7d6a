package arena

import "github.com/google/uuid"

// Arena is the single owner of every node constructed through it. Per spec
// §3 "Invariants": every node is reachable from exactly one arena root, no
// node is referenced across arenas, and no node forms a cycle. Destroying
// an Arena (dropping the last reference to it) destroys every node
// transitively, since nothing outside the arena's own slice keeps them
// alive — Go's GC does the bookkeeping the spec's "arena owns memory"
// language describes.
type Arena struct {
	id    uuid.UUID
	nodes []Node
}

// New constructs an empty arena, tagging it with a uuid (spec.md names no
// such id; this repo's CLI dump-ast command prints it in its header line).
func New() *Arena {
	return &Arena{id: uuid.New()}
}

func (a *Arena) ID() uuid.UUID { return a.id }

// Own registers n as belonging to this arena and returns it unchanged,
// mirroring the spec's `new<T>(args...) -> &T` operation: callers build
// the node with an ordinary struct literal (Go has no variadic
// constructor-argument story that would make a generic New[T] pleasant
// here) and hand it to Own so the arena can account for it.
func Own[T Node](a *Arena, n T) T {
	a.nodes = append(a.nodes, n)
	return n
}

// Size returns how many nodes this arena has constructed; mostly useful
// for diagnostics and tests.
func (a *Arena) Size() int { return len(a.nodes) }

// NewExprBase/NewStmtBase/NewBase build the embedded position header for a
// node literal; callers outside this package use these instead of naming
// Base's fields directly, so the header stays a one-liner at call sites
// (e.g. arena.Own(a, &BinOp{ExprBase: arena.NewExprBase(pos), ...})).
func NewExprBase(pos Pos) ExprBase { return ExprBase{Base{pos}} }
func NewStmtBase(pos Pos) StmtBase { return StmtBase{Base{pos}} }
func NewBase(pos Pos) Base         { return Base{pos} }

// HasCircle rejects an Arrow type expression whose Params transitively
// contain itself, per spec §3's invariant ("Arrow.args never contains
// itself transitively") and §9 ("eliminates the cycle risk the original
// guards against by hand via has_circle"). Call this before installing a
// new Arrow into any parent structure.
func HasCircle(root *ArrowTypeExpr) bool {
	visited := map[*ArrowTypeExpr]bool{}
	var visit func(n Expr) bool
	visit = func(n Expr) bool {
		arrow, ok := n.(*ArrowTypeExpr)
		if !ok {
			return false
		}
		if arrow == root {
			return true
		}
		if visited[arrow] {
			return false
		}
		visited[arrow] = true
		for _, p := range arrow.Params {
			if visit(p) {
				return true
			}
		}
		return visit(arrow.Return)
	}
	for _, p := range root.Params {
		if visit(p) {
			return true
		}
	}
	return visit(root.Return)
}
