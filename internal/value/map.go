package value

import (
	"sort"
	"strings"
)

// Map is an immutable mapping from string keys to values. Iteration,
// serialization and integer indexing all use keys sorted lexicographically
// — this ordering is observable by the language, unlike funxy's Map (which
// this type is otherwise grounded on) where insertion order is preserved
// instead.
type Map struct {
	entries map[string]Value
	sorted  []string // cached sorted key order, computed lazily
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{entries: map[string]Value{}}
}

// NewMapFrom builds a Map from an existing key/value set, taking ownership
// of the map (callers must not mutate it afterwards).
func NewMapFrom(entries map[string]Value) *Map {
	return &Map{entries: entries}
}

func (m *Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.SortedKeys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(m.entries[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

func (*Map) Type() string { return "map" }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// SortedKeys returns the map's keys in sorted order, computing and caching
// the order on first use.
func (m *Map) SortedKeys() []string {
	if m.sorted == nil && len(m.entries) > 0 {
		keys := make([]string, 0, len(m.entries))
		for k := range m.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m.sorted = keys
	}
	return m.sorted
}

// Get returns the value for key and whether it was found.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Put returns a new Map with key set to v.
func (m *Map) Put(key string, v Value) *Map {
	next := make(map[string]Value, len(m.entries)+1)
	for k, val := range m.entries {
		next[k] = val
	}
	next[key] = v
	return &Map{entries: next}
}

// Remove returns a new Map without key.
func (m *Map) Remove(key string) *Map {
	if _, ok := m.entries[key]; !ok {
		return m
	}
	next := make(map[string]Value, len(m.entries))
	for k, val := range m.entries {
		if k != key {
			next[k] = val
		}
	}
	return &Map{entries: next}
}

// Merge implements Map + Map: right-biased, entries in other override m's.
func (m *Map) Merge(other *Map) *Map {
	next := make(map[string]Value, len(m.entries)+len(other.entries))
	for k, v := range m.entries {
		next[k] = v
	}
	for k, v := range other.entries {
		next[k] = v
	}
	return &Map{entries: next}
}

// RemoveKeys implements Map − Map: removes every key present in other.
func (m *Map) RemoveKeys(other *Map) *Map {
	next := make(map[string]Value, len(m.entries))
	for k, v := range m.entries {
		if _, drop := other.entries[k]; !drop {
			next[k] = v
		}
	}
	return &Map{entries: next}
}

// IndexPair returns the [key, value] pair at sorted position i, used for
// integer-indexing a Map per spec.
func (m *Map) IndexPair(i int) *List {
	k := m.SortedKeys()[i]
	return NewList([]Value{Str(k), m.entries[k]})
}
