// Package value implements the uniform tagged value model shared by the
// compiler, the VM and the persistence codec: Nil, Bool, Int, Float, Str,
// List, Map, Closure, native functions, Object records and the opaque
// runtime handles (Task, Channel, Stream, StreamCursor, Iterator,
// MutationGuard).
package value

import "fmt"

// Value is implemented by every runtime value. Strings and lists share
// their backing storage by reference and are never mutated in place; every
// "mutating" operation returns a new instance.
type Value interface {
	// String returns the canonical display form of the value.
	String() string
	// Type returns the short type tag used in error messages and by
	// reflective native functions (e.g. "int", "list", "closure").
	Type() string
}

// Nil is the singleton absence-of-value.
type NilType struct{}

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// Nil is the canonical Nil value; all Nil comparisons/equality checks use
// this instance.
var Nil Value = NilType{}

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

const (
	True  Bool = true
	False Bool = false
)

// Int is a 64-bit signed integer value.
type Int int64

func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }
func (Int) Type() string     { return "int" }

// Float is a 64-bit IEEE-754 floating point value.
type Float float64

func (f Float) String() string { return fmt.Sprintf("%g", float64(f)) }
func (Float) Type() string     { return "float" }

// IsNil reports whether v is the Nil value.
func IsNil(v Value) bool {
	_, ok := v.(NilType)
	return ok
}

// ToBool canonicalizes any value to Bool per the VM's ToBool opcode: Bool
// stays, Nil is false, everything else is true.
func ToBool(v Value) Bool {
	switch t := v.(type) {
	case Bool:
		return t
	case NilType:
		return False
	default:
		return True
	}
}

// ToStr renders v with its canonical display form, used both by the ToStr
// opcode and by string-concatenation's scalar coercion.
func ToStr(v Value) Str {
	if s, ok := v.(Str); ok {
		return s
	}
	return Str(v.String())
}
