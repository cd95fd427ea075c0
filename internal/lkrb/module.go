package lkrb

import "github.com/lollipopkit/lkr/internal/bytecode"

// Module is the in-memory form of one LKRB container: an entry Function
// plus zero or more bundled sub-modules keyed by import path, and a
// free-form metadata map (source hash, compiler version, etc. — spec
// §4.3 "META section"). Bundling lets a single LKRB file ship a program
// together with everything it statically imports, so ResolveModule
// (component C6) can load a whole dependency graph from one artifact.
type Module struct {
	Entry *bytecode.Function

	// Bundled maps import path to a nested Module, recursively encoded
	// into the MODS section.
	Bundled map[string]*Module

	// Meta holds arbitrary string metadata serialized as JSON in the META
	// section (e.g. "source_hash", "compiler_version").
	Meta map[string]string

	// Debug is an opaque blob carried in the DBG! section (e.g. a source
	// map). nil means no debug section was written.
	Debug []byte
}

// NewModule returns an empty Module wrapping entry.
func NewModule(entry *bytecode.Function) *Module {
	return &Module{Entry: entry, Bundled: map[string]*Module{}, Meta: map[string]string{}}
}
