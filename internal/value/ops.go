package value

import "fmt"

// Add implements the polymorphic `+` operator: numeric addition, string
// concatenation (with scalar coercion), list concatenation/append and
// right-biased map merge, per spec §3.1. Client code (the VM's Add opcode)
// always goes through this standalone function rather than a method on
// Value, the same convention nenuphar's machine.Binary uses.
func Add(x, y Value) (Value, error) {
	switch a := x.(type) {
	case Int:
		switch b := y.(type) {
		case Int:
			return a + b, nil
		case Float:
			return Float(a) + b, nil
		}
	case Float:
		switch b := y.(type) {
		case Int:
			return a + Float(b), nil
		case Float:
			return a + b, nil
		}
	case Str:
		return a.Concat(y), nil
	case *List:
		if b, ok := y.(*List); ok {
			return a.Concat(b), nil
		}
		return a.Append(y), nil
	case *Map:
		if b, ok := y.(*Map); ok {
			return a.Merge(b), nil
		}
	}
	return nil, fmt.Errorf("unsupported operand types for +: %s and %s", x.Type(), y.Type())
}

// Sub implements `-`: numeric subtraction and List−List / Map−string /
// Map−Map removal forms.
func Sub(x, y Value) (Value, error) {
	switch a := x.(type) {
	case Int:
		switch b := y.(type) {
		case Int:
			return a - b, nil
		case Float:
			return Float(a) - b, nil
		}
	case Float:
		switch b := y.(type) {
		case Int:
			return a - Float(b), nil
		case Float:
			return a - b, nil
		}
	case *List:
		if b, ok := y.(*List); ok {
			return a.Difference(b), nil
		}
	case *Map:
		switch b := y.(type) {
		case Str:
			return a.Remove(string(b)), nil
		case *Map:
			return a.RemoveKeys(b), nil
		}
	}
	return nil, fmt.Errorf("unsupported operand types for -: %s and %s", x.Type(), y.Type())
}

// numericBinary implements the remaining purely-numeric binary operators
// (Mul, Div, Mod) shared arithmetic dispatch.
func numericBinary(op string, x, y Value, fi func(a, b Int) (Value, error), ff func(a, b Float) Value) (Value, error) {
	switch a := x.(type) {
	case Int:
		switch b := y.(type) {
		case Int:
			return fi(a, b)
		case Float:
			return ff(Float(a), b), nil
		}
	case Float:
		switch b := y.(type) {
		case Int:
			return ff(a, Float(b)), nil
		case Float:
			return ff(a, b), nil
		}
	}
	return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", op, x.Type(), y.Type())
}

func Mul(x, y Value) (Value, error) {
	return numericBinary("*", x, y,
		func(a, b Int) (Value, error) { return a * b, nil },
		func(a, b Float) Value { return a * b })
}

func Div(x, y Value) (Value, error) {
	return numericBinary("/", x, y,
		func(a, b Int) (Value, error) {
			if b == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return a / b, nil
		},
		func(a, b Float) Value { return a / b })
}

func Mod(x, y Value) (Value, error) {
	return numericBinary("%", x, y,
		func(a, b Int) (Value, error) {
			if b == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return a % b, nil
		},
		func(a, b Float) Value {
			r := float64(a) - float64(b)*float64(int64(float64(a)/float64(b)))
			return Float(r)
		})
}

// Compare implements ordered comparison, defined only for Int/Int,
// Float/Float, mixed Int/Float and Str/Str, returning negative/zero/
// positive the way nenuphar's Ordered.Cmp contract describes it.
func Compare(x, y Value) (int, error) {
	switch a := x.(type) {
	case Int:
		switch b := y.(type) {
		case Int:
			return cmpInt64(int64(a), int64(b)), nil
		case Float:
			return cmpFloat64(float64(a), float64(b)), nil
		}
	case Float:
		switch b := y.(type) {
		case Int:
			return cmpFloat64(float64(a), float64(b)), nil
		case Float:
			return cmpFloat64(float64(a), float64(b)), nil
		}
	case Str:
		if b, ok := y.(Str); ok {
			return cmpStr(string(a), string(b)), nil
		}
	}
	return 0, fmt.Errorf("%s is not ordered with %s", x.Type(), y.Type())
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpStr(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal implements structural equality: data variants compare
// structurally, closures by identity of body+environment, native
// functions by function pointer, handles by identifier. Concrete
// variants provide their own identity/pointer rules through Go's own
// `==`/pointer-equality where applicable; this function is the single
// entry point the VM's EQL/NEQ opcodes use.
func Equal(x, y Value) (bool, error) {
	if x.Type() != y.Type() {
		return false, nil
	}
	switch a := x.(type) {
	case NilType:
		return true, nil
	case Bool:
		return a == y.(Bool), nil
	case Int:
		return a == y.(Int), nil
	case Float:
		return a == y.(Float), nil
	case Str:
		return a == y.(Str), nil
	case *List:
		b := y.(*List)
		if len(a.elems) != len(b.elems) {
			return false, nil
		}
		for i := range a.elems {
			eq, err := Equal(a.elems[i], b.elems[i])
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case *Map:
		b := y.(*Map)
		if a.Len() != b.Len() {
			return false, nil
		}
		for _, k := range a.SortedKeys() {
			av, _ := a.Get(k)
			bv, ok := b.Get(k)
			if !ok {
				return false, nil
			}
			eq, err := Equal(av, bv)
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case *Object:
		b := y.(*Object)
		if a.TypeName != b.TypeName {
			return false, nil
		}
		return Equal(a.Fields, b.Fields)
	case Handle:
		return a == y.(Handle), nil
	case *NativeFn:
		return a == y.(*NativeFn), nil
	case *NativeFnNamed:
		return a == y.(*NativeFnNamed), nil
	default:
		// Closures and any other identity-compared variant: compare by Go
		// pointer identity of the underlying value.
		return x == y, nil
	}
}

// In implements the polymorphic `in` operator: list membership (linear
// contains), map key lookup, string substring search.
func In(needle, haystack Value) (bool, error) {
	switch h := haystack.(type) {
	case *List:
		return h.Contains(needle), nil
	case *Map:
		k, ok := needle.(Str)
		if !ok {
			return false, nil
		}
		_, found := h.Get(string(k))
		return found, nil
	case Str:
		n, ok := needle.(Str)
		if !ok {
			return false, fmt.Errorf("'in' on string requires a string operand, got %s", needle.Type())
		}
		return h.Contains(n), nil
	}
	return false, fmt.Errorf("%s is not a valid 'in' haystack", haystack.Type())
}

// Len returns the length of a Str/List/Map value, backing the Len opcode.
func Len(v Value) (int, error) {
	switch t := v.(type) {
	case Str:
		return t.Len(), nil
	case *List:
		return t.Len(), nil
	case *Map:
		return t.Len(), nil
	}
	return 0, fmt.Errorf("%s has no length", v.Type())
}

// Access implements dotted field access (`x.field`). Maps are accessed by
// string key, Objects by field, per spec.
func Access(x Value, field string) (Value, error) {
	switch t := x.(type) {
	case *Map:
		v, ok := t.Get(field)
		if !ok {
			return nil, fmt.Errorf("no such field: %s", field)
		}
		return v, nil
	case *Object:
		v, ok := t.Fields.Get(field)
		if !ok {
			return nil, fmt.Errorf("%s has no field %s", t.TypeName, field)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%s value has no fields", x.Type())
}

// Index implements `x[i]`: list element access, string-keyed map access
// (integer index returns the [key, value] pair in sorted order per
// spec §3.1), and integer indexing.
func Index(x, idx Value) (Value, error) {
	switch t := x.(type) {
	case *List:
		i, ok := idx.(Int)
		if !ok {
			return nil, fmt.Errorf("list index must be int, got %s", idx.Type())
		}
		if int(i) < 0 || int(i) >= t.Len() {
			return nil, fmt.Errorf("list index out of range: %d", i)
		}
		return t.At(int(i)), nil
	case *Map:
		switch k := idx.(type) {
		case Str:
			v, ok := t.Get(string(k))
			if !ok {
				return nil, fmt.Errorf("no such key: %s", string(k))
			}
			return v, nil
		case Int:
			if int(k) < 0 || int(k) >= t.Len() {
				return nil, fmt.Errorf("map index out of range: %d", k)
			}
			return t.IndexPair(int(k)), nil
		}
	case Str:
		i, ok := idx.(Int)
		if !ok {
			return nil, fmt.Errorf("string index must be int, got %s", idx.Type())
		}
		s := string(t)
		if int(i) < 0 || int(i) >= len(s) {
			return nil, fmt.Errorf("string index out of range: %d", i)
		}
		return Str(s[i : i+1]), nil
	}
	return nil, fmt.Errorf("%s value is not indexable", x.Type())
}
