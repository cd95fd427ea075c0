package value

import "fmt"

// CallFunc lets a native function call back into the language (e.g. a
// stream combinator invoking a user closure). It is supplied by the VM at
// native-call time — grounded on funxy's evaluator.VMCallHandler callback,
// generalized from an Evaluator method into a plain function value so this
// package need not import the VM.
type CallFunc func(fn Value, args []Value) (Value, error)

// NativeFn is a host-provided function taking only positional arguments.
type NativeFn struct {
	Name string
	Fn   func(call CallFunc, args []Value) (Value, error)
}

func (n *NativeFn) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (*NativeFn) Type() string     { return "native_fn" }

// NativeFnNamed is a host-provided function that also accepts named
// arguments, resolved the same way a user closure's named parameters are
// (see bytecode.NamedParamLayout).
type NativeFnNamed struct {
	Name string
	Fn   func(call CallFunc, positional []Value, named map[string]Value) (Value, error)
}

func (n *NativeFnNamed) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (*NativeFnNamed) Type() string     { return "native_fn" }
