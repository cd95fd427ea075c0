// Package resolve implements the bundled module resolver held by the
// execution context (C6) and an on-disk content-addressed cache for
// compiled modules (C3's LKRB bytes), grounded on funxy's
// internal/modules/loader.go module-path resolution.
package resolve

import "github.com/lollipopkit/lkr/internal/value"

// Resolver looks up a module-local binding that a LoadGlobal fell through
// to (spec §4.2 "LoadGlobal falls back to the resolver for module-local
// bindings before raising").
type Resolver interface {
	Resolve(name string) (value.Value, bool)
}

// Map is the simplest Resolver: a fixed name→value table, suitable for a
// single bundled module's exports.
type Map map[string]value.Value

func (m Map) Resolve(name string) (value.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Chain tries each Resolver in order, returning the first hit — used to
// compose a module's own exports with any modules it re-exports.
type Chain []Resolver

func (c Chain) Resolve(name string) (value.Value, bool) {
	for _, r := range c {
		if v, ok := r.Resolve(name); ok {
			return v, true
		}
	}
	return nil, false
}
