package vm

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// binop dispatches the polymorphic arithmetic/compare opcodes to
// value.go's free functions, the same indirection funxy's machine.Binary
// uses to keep the VM's dispatch switch a thin wrapper over value
// semantics.
func binop(op bytecode.Opcode, x, y value.Value) (value.Value, error) {
	switch op {
	case bytecode.Add:
		return value.Add(x, y)
	case bytecode.Sub:
		return value.Sub(x, y)
	case bytecode.Mul:
		return value.Mul(x, y)
	case bytecode.Div:
		return value.Div(x, y)
	case bytecode.Mod:
		return value.Mod(x, y)
	case bytecode.In:
		ok, err := value.In(x, y)
		return value.Bool(ok), err
	case bytecode.CmpEq:
		ok, err := value.Equal(x, y)
		return value.Bool(ok), err
	case bytecode.CmpNe:
		ok, err := value.Equal(x, y)
		return value.Bool(!ok), err
	case bytecode.CmpLt, bytecode.CmpLe, bytecode.CmpGt, bytecode.CmpGe:
		c, err := value.Compare(x, y)
		if err != nil {
			return nil, err
		}
		return value.Bool(cmpPasses(op, c)), nil
	default:
		return nil, fmt.Errorf("binop: unsupported opcode %s", op)
	}
}

func cmpPasses(op bytecode.Opcode, c int) bool {
	switch op {
	case bytecode.CmpLt:
		return c < 0
	case bytecode.CmpLe:
		return c <= 0
	case bytecode.CmpGt:
		return c > 0
	case bytecode.CmpGe:
		return c >= 0
	default:
		return false
	}
}

func cmpImm(op bytecode.Opcode, a, b int64) bool {
	switch op {
	case bytecode.CmpEqImm:
		return a == b
	case bytecode.CmpNeImm:
		return a != b
	case bytecode.CmpLtImm:
		return a < b
	case bytecode.CmpLeImm:
		return a <= b
	case bytecode.CmpGtImm:
		return a > b
	case bytecode.CmpGeImm:
		return a >= b
	default:
		return false
	}
}

// intOp/floatOp implement the type-specialized arithmetic opcodes: decodable
// and executable per the ISA, but never emitted by internal/compiler (which
// only ever emits the polymorphic forms plus AddIntImm for the for-in
// index counter; range-for counters advance through ForRangeStep).
func intOp(op bytecode.Opcode, a, b value.Int) value.Value {
	switch op {
	case bytecode.AddInt:
		return a + b
	case bytecode.SubInt:
		return a - b
	case bytecode.MulInt:
		return a * b
	case bytecode.ModInt:
		if b == 0 {
			return value.Int(0)
		}
		return a % b
	default:
		return value.Nil
	}
}

func floatOp(op bytecode.Opcode, a, b value.Float) value.Value {
	switch op {
	case bytecode.AddFloat:
		return a + b
	case bytecode.SubFloat:
		return a - b
	case bytecode.MulFloat:
		return a * b
	case bytecode.DivFloat:
		return a / b
	case bytecode.ModFloat:
		return value.Float(float64(a) - float64(b)*float64(int64(float64(a)/float64(b))))
	default:
		return value.Nil
	}
}

func truthy(v value.Value) bool { return bool(value.ToBool(v)) }

func accessField(x value.Value, field string) (value.Value, error) {
	return value.Access(x, field)
}

// accessDynamic backs the (never-emitted but decodable) dynamic-field
// Access opcode: the field name arrives as a register value rather than a
// constant, so it's coerced to a string the same way map keys are.
func accessDynamic(x, field value.Value) (value.Value, error) {
	return value.Access(x, mapKeyString(field))
}

// withField computes the copy-on-write updated value for `x.field = v`:
// Object gets a new field map, Map gets a new entry.
func withField(x value.Value, field string, v value.Value) (value.Value, error) {
	switch t := x.(type) {
	case *value.Object:
		return t.WithField(field, v), nil
	case *value.Map:
		return t.Put(field, v), nil
	default:
		return nil, fmt.Errorf("%s value has no fields", x.Type())
	}
}

func indexValue(x, idx value.Value) (value.Value, error) {
	return value.Index(x, idx)
}

// withIndex computes the copy-on-write updated value for `x[i] = v`.
func withIndex(x, idx, v value.Value) (value.Value, error) {
	switch t := x.(type) {
	case *value.List:
		i, ok := idx.(value.Int)
		if !ok {
			return nil, fmt.Errorf("list index must be int, got %s", idx.Type())
		}
		if int(i) < 0 || int(i) >= t.Len() {
			return nil, fmt.Errorf("list index out of range: %d", i)
		}
		return t.WithAt(int(i), v), nil
	case *value.Map:
		k, ok := idx.(value.Str)
		if !ok {
			return nil, fmt.Errorf("map index assignment requires a string key, got %s", idx.Type())
		}
		return t.Put(string(k), v), nil
	default:
		return nil, fmt.Errorf("%s value is not index-assignable", x.Type())
	}
}

func lengthOf(v value.Value) (int, error) {
	return value.Len(v)
}

// toIterable normalizes a for-in subject to an indexable cursor: List,
// Map and Str are already indexable via Len/Index so they pass through
// unchanged. Any other value, Stream and Iterator handles included, is
// rejected as not iterable: there is no handle case here.
func toIterable(v value.Value) (value.Value, error) {
	switch v.(type) {
	case *value.List, *value.Map, value.Str:
		return v, nil
	default:
		return nil, fmt.Errorf("%s value is not iterable", v.Type())
	}
}

// mapKeyString coerces a dynamic map-literal key to its string form, the
// same scalar coercion Str.Concat uses for non-string operands.
func mapKeyString(v value.Value) string {
	if s, ok := v.(value.Str); ok {
		return string(s)
	}
	return v.String()
}

// sliceValue implements `x[low:high]` for List and Str, treating a Nil
// bound as "from start"/"to end" (compileSlice materializes absent bounds
// as Nil constants rather than a separate open-bound encoding).
func sliceValue(x, low, high value.Value) (value.Value, error) {
	switch t := x.(type) {
	case *value.List:
		lo, hi, err := sliceBounds(t.Len(), low, high)
		if err != nil {
			return nil, err
		}
		return t.Slice(lo, hi), nil
	case value.Str:
		lo, hi, err := sliceBounds(len(string(t)), low, high)
		if err != nil {
			return nil, err
		}
		return value.Str(string(t)[lo:hi]), nil
	default:
		return nil, fmt.Errorf("%s value is not sliceable", x.Type())
	}
}

func sliceBounds(n int, low, high value.Value) (int, int, error) {
	lo := 0
	hi := n
	if !value.IsNil(low) {
		i, ok := low.(value.Int)
		if !ok {
			return 0, 0, fmt.Errorf("slice bound must be int, got %s", low.Type())
		}
		lo = int(i)
	}
	if !value.IsNil(high) {
		i, ok := high.(value.Int)
		if !ok {
			return 0, 0, fmt.Errorf("slice bound must be int, got %s", high.Type())
		}
		hi = int(i)
	}
	if lo < 0 || hi > n || lo > hi {
		return 0, 0, fmt.Errorf("slice bounds out of range: [%d:%d] of length %d", lo, hi, n)
	}
	return lo, hi, nil
}
