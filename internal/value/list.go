package value

import (
	"fmt"
	"strings"
)

// List is an immutable ordered sequence of values, shared by reference.
// Every operation that would "mutate" a List instead returns a new one.
type List struct {
	elems []Value
}

// NewList builds a List taking ownership of elems; callers must not
// mutate the backing array afterwards.
func NewList(elems []Value) *List { return &List{elems: elems} }

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range l.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		if s, ok := e.(Str); ok {
			fmt.Fprintf(&b, "%q", string(s))
		} else {
			b.WriteString(e.String())
		}
	}
	b.WriteByte(']')
	return b.String()
}

func (*List) Type() string { return "list" }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.elems) }

// At returns the element at index i, panicking if out of range (callers
// validate bounds beforehand, same contract as the compiler's IndexK op).
func (l *List) At(i int) Value { return l.elems[i] }

// Elems exposes the backing slice for read-only iteration; callers must not
// mutate it.
func (l *List) Elems() []Value { return l.elems }

// Append returns a new List with v appended.
func (l *List) Append(v Value) *List {
	next := make([]Value, len(l.elems)+1)
	copy(next, l.elems)
	next[len(l.elems)] = v
	return NewList(next)
}

// Concat returns a new List that is l followed by other.
func (l *List) Concat(other *List) *List {
	next := make([]Value, len(l.elems)+len(other.elems))
	copy(next, l.elems)
	copy(next[len(l.elems):], other.elems)
	return NewList(next)
}

// Difference returns a new List containing l's elements that are not
// structurally equal to any element of other (List − List).
func (l *List) Difference(other *List) *List {
	var out []Value
	for _, e := range l.elems {
		found := false
		for _, o := range other.elems {
			if eq, _ := Equal(e, o); eq {
				found = true
				break
			}
		}
		if !found {
			out = append(out, e)
		}
	}
	return NewList(out)
}

// Slice returns a new List over l[lo:hi] (both already bounds-checked by
// the caller).
func (l *List) Slice(lo, hi int) *List {
	next := make([]Value, hi-lo)
	copy(next, l.elems[lo:hi])
	return NewList(next)
}

// WithAt returns a new List with the element at index i replaced by v,
// the copy-on-write primitive behind `list[i] = v` assignment.
func (l *List) WithAt(i int, v Value) *List {
	next := make([]Value, len(l.elems))
	copy(next, l.elems)
	next[i] = v
	return NewList(next)
}

// Contains reports whether needle is structurally equal to any element,
// used by the In opcode for list haystacks.
func (l *List) Contains(needle Value) bool {
	for _, e := range l.elems {
		if eq, _ := Equal(e, needle); eq {
			return true
		}
	}
	return false
}
