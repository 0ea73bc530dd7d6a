// Package vmexec executes a vmgen.Program: an instruction-counter-driven
// loop that re-dispatches on each instruction's originating AST statement
// kind, per spec §4.7. Grounded on the teacher's internal/vmregister.VM
// (register bank with ReturnAddress/ReturnValue, variable stack with a
// call/return push-truncate protocol) and internal/compiler/stmt_compiler.go
// (locals-vs-globals dispatch, generalized here to "current frame, falling
// back to the module frame" rather than a fixed-size globals array, since
// this VM's single variable stack plays both roles).
//
// One declared departure from a literal reading of spec §4.7's "Name loads
// resolve the relative offset (load_id - store_id)": SEMA assigns varid
// only to Names it visits, but internal/ssa introduces fresh synthetic
// temporaries *after* SEMA runs, each carrying Varid -1 (unresolved) since
// there is no later re-numbering pass. Those temporaries do carry a
// globally-unique string identifier (internal/ssa.Lowerer's monotonic
// counter), so this package resolves every Name by that identifier within
// the current call frame instead of doing numeric offset arithmetic that
// the pipeline's actual output can't support end to end. Behaviorally this
// is the same "frame-relative slot" spec §4.7 describes; it is just keyed
// by name instead of by a second integer space SEMA never populates for
// SSA-synthesized locals.
package vmexec

import (
	"fmt"

	"github.com/lython/lython/internal/arena"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/module"
	"github.com/lython/lython/internal/vmgen"
)

// frame is one call's local variable bank, pushed on Call and popped on
// Return — spec §4.7's "push each argument value onto the variable stack
// ... truncate the variable stack back to its pre-call size".
type frame struct {
	vars map[string]Value
}

func newFrame() *frame { return &frame{vars: map[string]Value{}} }

// VM executes one lowered Program against the module scope that produced
// it (needed to turn a Call's callee Name into the FunctionDef/ClassDef it
// resolved to during SEMA).
type VM struct {
	program *vmgen.Program
	root    *module.Module
	frames  []*frame // frames[0] is the module-level (global) frame
	builtins map[string]func([]Value) (Value, error)

	// iterCursors backs the For-loop intrinsic protocol (IntrinsicHasNext/
	// IntrinsicNext): keyed by the loop's Iter expression node identity
	// plus the current call depth, so nested/recursive loops don't
	// collide. See iterKey.
	iterCursors map[string]int
}

// New builds a VM ready to Execute entry points of program, resolving
// builtin/class/function callees against root (the root module scope SEMA
// produced for this compiled unit).
func New(program *vmgen.Program, root *module.Module) *VM {
	vm := &VM{
		program:     program,
		root:        root,
		iterCursors: map[string]int{},
	}
	vm.frames = []*frame{newFrame()}
	vm.builtins = vm.stdlib()
	return vm
}

// Run executes the label entry with args as its parameters and returns its
// ReturnValue, per spec §4.7.
func (vm *VM) Run(entry string, args []Value) (Value, error) {
	return vm.callLabel(entry, args)
}

func (vm *VM) callLabel(label string, args []Value) (Value, error) {
	lbl, ok := vm.program.LabelFor(label)
	if !ok {
		return None(), fmt.Errorf("vmexec: no such label %q", label)
	}
	fn, ok := lbl.Node.(*arena.FunctionDef)
	if !ok {
		return None(), fmt.Errorf("vmexec: label %q is not a function", label)
	}

	fr := newFrame()
	for i, p := range fn.Params {
		if i < len(args) {
			fr.vars[p.Name] = args[i]
		} else {
			fr.vars[p.Name] = None()
		}
	}

	vm.frames = append(vm.frames, fr)
	preLen := len(vm.frames)
	defer func() { vm.frames = vm.frames[:preLen-1] }()

	return vm.runFrom(lbl.Index, fr)
}

// runFrom is the instruction loop of spec §4.7: fetch, dispatch on the
// originating statement's kind, advance ic by one unless the instruction
// itself set it (Jump/CondJump), halt on Return or falling off the program.
func (vm *VM) runFrom(ic int, fr *frame) (Value, error) {
	for ic >= 0 && ic < len(vm.program.Instructions) {
		stmt := vm.program.Instructions[ic].Stmt
		switch s := stmt.(type) {
		case *arena.Jump:
			ic = s.Destination
			continue
		case *arena.CondJump:
			// spec §4.7: "evaluate the condition; if true, ic := else_jmp;
			// else ic := then_jmp" — vm.cpp's condjump exactly. A true
			// If/While/For test takes the orelse branch, a true Assert
			// raises.
			test, err := vm.eval(s.Test, fr)
			if err != nil {
				return None(), err
			}
			if s.Owner != nil && test.Truthy() {
				if call, ok := iterCall(s.Test); ok && len(call.Args) > 0 {
					vm.clearIterCursor(call.Args[0])
				}
			}
			if test.Truthy() {
				ic = s.ElseJmp
			} else {
				ic = s.ThenJmp
			}
			continue
		case *arena.Return:
			if s.Value != nil {
				v, err := vm.eval(s.Value, fr)
				if err != nil {
					return None(), err
				}
				return v, nil
			}
			return None(), nil
		default:
			if err := vm.exec(s, fr); err != nil {
				return None(), err
			}
			ic++
		}
	}
	return None(), nil
}

// exec runs one non-control-flow instruction: every statement kind that
// survived SSA lowering unchanged (spec §4.7: "Assign/AnnAssign push the
// computed value; SSA guarantees every variable is assigned exactly once").
func (vm *VM) exec(stmt arena.Stmt, fr *frame) error {
	switch s := stmt.(type) {
	case *arena.Assign:
		v, err := vm.eval(s.Value, fr)
		if err != nil {
			return err
		}
		for _, t := range s.Targets {
			if err := vm.store(t, v, fr); err != nil {
				return err
			}
		}
		return nil
	case *arena.AnnAssign:
		if s.Value == nil {
			return nil
		}
		v, err := vm.eval(s.Value, fr)
		if err != nil {
			return err
		}
		return vm.store(s.Target, v, fr)
	case *arena.Raise:
		msg := "exception raised"
		if s.Exc != nil {
			v, err := vm.eval(s.Exc, fr)
			if err == nil {
				msg = v.String()
			}
		}
		pos := s.NodePos()
		return lyerrors.NewRuntimeError(msg, pos.File, pos.Line, pos.Col)
	case *arena.Assert:
		// Lowered away by vmgen.lowerAssert into CondJump+Raise; reaching
		// this case means an Assert slipped through unlowered.
		return fmt.Errorf("vmexec: unlowered Assert at %s", s.NodePos())
	case *arena.ExprStmt:
		_, err := vm.eval(s.Value, fr)
		return err
	case *arena.Pass, *arena.Global, *arena.Nonlocal, *arena.Import, *arena.ImportFrom:
		return nil
	case *arena.VMNativeFunction:
		return nil
	default:
		return fmt.Errorf("vmexec: unsupported instruction %T", s)
	}
}

// store implements SSA's store-once targets: Name (local/global write) and
// Subscript (container element write); SSA rewrites tuple/list unpacking
// into per-index Subscript-less Assigns before this ever runs, so those
// never reach here directly.
func (vm *VM) store(target arena.Expr, v Value, fr *frame) error {
	switch t := target.(type) {
	case *arena.Name:
		fr.vars[t.Id] = v
		return nil
	case *arena.Attribute:
		recv, err := vm.eval(t.Value, fr)
		if err != nil {
			return err
		}
		if recv.Kind != KindInstance {
			return fmt.Errorf("vmexec: cannot set attribute %q on non-instance", t.Attr)
		}
		recv.Inst.Attrs[t.Attr] = v
		return nil
	case *arena.Subscript:
		container, err := vm.eval(t.Value, fr)
		if err != nil {
			return err
		}
		idx, err := vm.eval(t.Index, fr)
		if err != nil {
			return err
		}
		return vm.setitem(container, idx, v)
	}
	return fmt.Errorf("vmexec: unsupported assignment target %T", target)
}

func (vm *VM) setitem(container, idx, v Value) error {
	switch container.Kind {
	case KindList:
		i := int(idx.I)
		if i < 0 || i >= len(container.Items) {
			return fmt.Errorf("vmexec: list index out of range")
		}
		container.Items[i] = v
		return nil
	case KindDict:
		for i, k := range container.Keys {
			if Equal(k, idx) {
				container.Vals[i] = v
				return nil
			}
		}
		container.Keys = append(container.Keys, idx)
		container.Vals = append(container.Vals, v)
		return nil
	}
	return fmt.Errorf("vmexec: cannot index-assign into %v", container.Kind)
}

func (vm *VM) globalFrame() *frame { return vm.frames[0] }

// clearIterCursor drops the cursor for iterExpr (a For loop's Iter node,
// shared by its __has_next__ and __next__ calls — see eval.go's
// evalIterIntrinsic) once the loop's CondJump test reports exhaustion.
func (vm *VM) clearIterCursor(iterExpr arena.Expr) {
	delete(vm.iterCursors, vm.iterKey(iterExpr))
}

// iterCall unwraps the "not __has_next__(iter)" shape vmgen.lowerFor wires
// as a For loop's CondJump.Test, returning the underlying intrinsic Call so
// its Iter argument can be recovered for cursor bookkeeping.
func iterCall(test arena.Expr) (*arena.Call, bool) {
	if u, ok := test.(*arena.UnaryOp); ok {
		test = u.Operand
	}
	call, ok := test.(*arena.Call)
	return call, ok
}

// iterKey identifies one For loop's iteration cursor by its Iter
// expression node's identity plus the current call depth, so nested or
// recursive loops over structurally distinct iterables never collide.
func (vm *VM) iterKey(iterExpr arena.Expr) string {
	return fmt.Sprintf("%p:%d", iterExpr, len(vm.frames))
}
