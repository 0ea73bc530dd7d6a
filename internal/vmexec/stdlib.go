package vmexec

import (
	"fmt"
	"math"
)

// stdlib returns the builtin table matching module.NewRoot's pre-inserted
// bindings exactly: the ones SEMA's root scope knows about without a
// matching FunctionDef (Binding.Node == nil), so evalCall falls here
// instead of resolving a label. Type and Float are type-level bindings
// with no runtime call form and so have no entry here; pi is a constant,
// not a function, and is read directly out of its binding's Type by SEMA
// rather than called — this table only holds the three callables.
func (vm *VM) stdlib() map[string]func([]Value) (Value, error) {
	return map[string]func([]Value) (Value, error){
		"min": builtinMinMax(false),
		"max": builtinMinMax(true),
		"sin": func(args []Value) (Value, error) {
			if len(args) != 1 {
				return None(), fmt.Errorf("vmexec: sin() takes exactly one argument")
			}
			if !isNumeric(args[0]) {
				return None(), fmt.Errorf("vmexec: sin() requires a number")
			}
			return Float(math.Sin(args[0].asFloat())), nil
		},
	}
}

func builtinMinMax(max bool) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return None(), fmt.Errorf("vmexec: takes exactly two arguments")
		}
		a, b := args[0], args[1]
		if !isNumeric(a) || !isNumeric(b) {
			return None(), fmt.Errorf("vmexec: requires numbers")
		}
		aWins := a.asFloat() > b.asFloat()
		if aWins == max {
			return a, nil
		}
		return b, nil
	}
}
