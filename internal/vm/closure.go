package vm

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// Closure is the runtime value produced by MakeClosure: a Proto plus the
// values captured from its defining environment. It implements
// value.Value directly (Value is a plain interface, so any type with
// String/Type satisfies it) rather than living in package value, since a
// Closure must reference *bytecode.Proto and package value cannot import
// package bytecode (bytecode already imports value for its constant
// pool) — grounded on how funxy keeps its own Closure type in
// internal/vm rather than internal/object for the identical reason
// (vm/value_closure.go).
type Closure struct {
	Proto    *bytecode.Proto
	Captures []value.Value
}

func (c *Closure) String() string {
	name := c.Proto.SelfName
	if name == "" {
		name = "lambda"
	}
	return fmt.Sprintf("<fn %s>", name)
}

func (*Closure) Type() string { return "closure" }
