// Package vm implements the register-file interpreter (component C5): the
// main dispatch loop over bytecode.Instruction, the call convention
// (positional and named arguments, default-thunk resolution), closure
// invocation, range-for/for-in execution and the pattern-plan walk.
// Grounded on funxy's internal/vm/vm.go dispatch switch, adapted from a
// stack machine (push/pop) to a register file (frame-local slice indexed
// by instruction operand).
package vm

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/lkrerr"
	"github.com/lollipopkit/lkr/internal/value"
)

// maxCallDepth bounds recursion the way funxy's evaluator.go guards
// against runaway stack growth (evaluator_control.go maxCallDepth).
const maxCallDepth = 2000

// frame is one active call's register window. captures holds the values
// LoadCapture reads by index: for an ordinary closure body this is the
// invoked Closure's own Captures; for the bare nested Functions compiled
// for named-parameter defaults and pattern guards, it's built fresh per
// invocation from the enclosing frame's registers (see buildCaptures),
// since those Functions are never wrapped in a Closure value.
type frame struct {
	fn       *bytecode.Function
	closure  *Closure // non-nil only for an ordinary closure body; used for self-name diagnostics
	captures []value.Value
	regs     []value.Value
	pc       int
}

// VM executes compiled Functions against a shared Context (globals,
// resolver, call-stack diagnostics). A VM is not safe for concurrent use;
// spec §5 callers needing concurrency borrow VMs from a Pool, a
// mutex-guarded freelist of idle VMs (see Pool).
type VM struct {
	ctx   *context.Context
	depth int
}

// New returns a VM bound to ctx.
func New(ctx *context.Context) *VM {
	return &VM{ctx: ctx}
}

// Run executes the top-level entry Function with no captures.
func (vm *VM) Run(fn *bytecode.Function) (value.Value, error) {
	return vm.runFunction(fn, nil, nil, nil)
}

// runCaptured invokes a bare nested Function (a named-parameter default
// thunk or a pattern guard) with an explicit, freshly-built captures
// slice rather than a Closure's captures — see buildCaptures.
func (vm *VM) runCaptured(fn *bytecode.Function, captures []value.Value) (value.Value, error) {
	return vm.runFunction(fn, nil, captures, nil)
}

func (vm *VM) runFunction(fn *bytecode.Function, closure *Closure, captures []value.Value, regs []value.Value) (value.Value, error) {
	vm.depth++
	if vm.depth > maxCallDepth {
		vm.depth--
		return nil, lkrerr.New("stack overflow: call depth exceeded")
	}
	defer func() { vm.depth-- }()

	if regs == nil {
		regs = make([]value.Value, fn.NRegs)
		for i := range regs {
			regs[i] = value.Nil
		}
	}
	if closure != nil {
		captures = closure.Captures
	}
	name := fn.Name
	if closure != nil && closure.Proto.SelfName != "" {
		name = closure.Proto.SelfName
	}
	vm.ctx.PushCallFrame(name, "")
	defer vm.ctx.PopCallFrame()

	fr := &frame{fn: fn, closure: closure, captures: captures, regs: regs}
	return vm.runFrame(fr)
}

// buildCaptures materializes one invocation's capture values for a bare
// nested Function (default thunk / guard) from the frame it's lexically
// nested inside, per the CaptureSpec list the compiler recorded on it.
func buildCaptures(specs []bytecode.CaptureSpec, parentRegs []value.Value) []value.Value {
	if len(specs) == 0 {
		return nil
	}
	out := make([]value.Value, len(specs))
	for i, s := range specs {
		if s.Kind == bytecode.CaptureRegister {
			out[i] = parentRegs[s.SrcReg]
		} else {
			out[i] = value.Nil
		}
	}
	return out
}

// callValue dispatches a Call/CallNamed target, which may be a Closure or
// either native function variant (value.NativeFn/value.NativeFnNamed).
func (vm *VM) callValue(fn value.Value, args []value.Value, named map[string]value.Value) (value.Value, error) {
	switch f := fn.(type) {
	case *Closure:
		return vm.callClosure(f, args, named)
	case *value.NativeFn:
		if len(named) > 0 {
			return nil, lkrerr.New(fmt.Sprintf("%s does not accept named arguments", f.Name))
		}
		return f.Fn(vm.callFunc, args)
	case *value.NativeFnNamed:
		return f.Fn(vm.callFunc, args, named)
	default:
		return nil, lkrerr.New(fmt.Sprintf("value of type %s is not callable", fn.Type()))
	}
}

// callFunc adapts callValue to value.CallFunc, the callback native
// functions use to call back into the language (e.g. stream combinators
// invoking a user closure).
func (vm *VM) callFunc(fn value.Value, args []value.Value) (value.Value, error) {
	return vm.callValue(fn, args, nil)
}

// callClosure binds args/named against cl's Proto layout and runs its
// body. Resolution order for each named parameter: explicit argument →
// default-thunk → Nil if Optional → error (spec §4.2 "calling
// convention").
func (vm *VM) callClosure(cl *Closure, args []value.Value, named map[string]value.Value) (value.Value, error) {
	proto := cl.Proto
	body := proto.Body

	if len(args) != len(body.ParamRegs) {
		return nil, lkrerr.New(fmt.Sprintf("%s expects %d positional argument(s), got %d", closureName(cl), len(body.ParamRegs), len(args)))
	}

	regs := make([]value.Value, body.NRegs)
	for i := range regs {
		regs[i] = value.Nil
	}
	for i, reg := range body.ParamRegs {
		regs[reg] = args[i]
	}

	remaining := make(map[string]value.Value, len(named))
	for k, v := range named {
		remaining[k] = v
	}
	for _, layout := range body.NamedParamLayout {
		name, ok := constName(body, layout.NameConstIdx)
		if !ok {
			return nil, lkrerr.New("internal error: named parameter name constant missing")
		}
		if v, ok := remaining[name]; ok {
			regs[layout.DestReg] = v
			delete(remaining, name)
			continue
		}
		if layout.DefaultIndex >= 0 {
			defFn := proto.DefaultFuncs[layout.DefaultIndex]
			v, err := vm.runCaptured(defFn, buildCaptures(defFn.Captures, regs))
			if err != nil {
				return nil, wrapFrame(err, fmt.Sprintf("<default:%s>", name))
			}
			regs[layout.DestReg] = v
			continue
		}
		if layout.Optional {
			regs[layout.DestReg] = value.Nil
			continue
		}
		return nil, lkrerr.New(fmt.Sprintf("%s: missing required named argument %q", closureName(cl), name))
	}
	for name := range remaining {
		return nil, lkrerr.New(fmt.Sprintf("%s: unknown named argument %q", closureName(cl), name))
	}

	if proto.SelfName != "" {
		regs[proto.SelfReg] = cl
	}

	return vm.runFunction(body, cl, nil, regs)
}

func closureName(cl *Closure) string {
	if cl.Proto.SelfName != "" {
		return cl.Proto.SelfName
	}
	return "<lambda>"
}

func constName(fn *bytecode.Function, idx uint32) (string, bool) {
	if int(idx) >= len(fn.Consts) {
		return "", false
	}
	s, ok := fn.Consts[idx].(value.Str)
	return string(s), ok
}

func wrapFrame(err error, name string) error {
	if e, ok := err.(*lkrerr.Error); ok {
		return e.WithFrame(lkrerr.Frame{FunctionName: name})
	}
	return err
}
