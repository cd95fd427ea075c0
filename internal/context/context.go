// Package context implements the execution context (component C6): the
// global/local symbol tables, the flat slot file mirrored alongside the
// name→slot scope stack, the generation counter, and the call-frame stack
// used to build error call-stack reports. Grounded on funxy's
// evaluator.Environment (nested scope maps) generalized with a flat
// register-style slot array the way mna-nenuphar's machine.go keeps
// `locals` as an index-addressed slice.
package context

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lollipopkit/lkr/internal/lkrerr"
	"github.com/lollipopkit/lkr/internal/resolve"
	"github.com/lollipopkit/lkr/internal/value"
)

// Frame is one entry of the call-frame stack.
type Frame struct {
	FunctionName string
	Location     string
	Depth        int
}

// scope is one level of the local-name lookup stack.
type scope struct {
	vars map[string]value.Value
	// slots maps a name bound in this scope to its index in the slot
	// file, when the compiler chose to address it by slot for fast-path
	// reads (spec §3.4 "slot file ... mirrored alongside").
	slots map[string]uint16
}

// Context holds everything the VM needs to resolve names and track
// diagnostics across nested calls. Execution against one Context is
// single-threaded cooperative by design (spec §5): mu serializes the rare
// case where a Task's own goroutine (running a borrowed VM from a Pool,
// see internal/vm) reads or writes the same globals/slot file/call stack
// concurrently with whatever else is running. It does not make the
// language itself parallel — it only keeps the shared bookkeeping from
// corrupting under Go's race detector.
type Context struct {
	mu sync.Mutex

	globals      map[string]value.Value
	constGlobals map[string]bool

	scopes []scope

	slotFile []value.Value

	generation atomic.Uint64

	callStack []Frame

	Resolver resolve.Resolver
}

// New returns an empty Context with one (global) scope.
func New(resolver resolve.Resolver) *Context {
	return &Context{
		globals:      map[string]value.Value{},
		constGlobals: map[string]bool{},
		Resolver:     resolver,
	}
}

// Generation returns the current write-generation counter. Every public
// mutation strictly increases it, invalidating any cache keyed by
// (ctx, generation, name).
func (c *Context) Generation() uint64 { return c.generation.Load() }

func (c *Context) bump() uint64 { return c.generation.Add(1) }

// Get resolves name innermost-local → outermost-local → global.
func (c *Context) Get(name string) (value.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	v, ok := c.globals[name]
	return v, ok
}

// Define creates name in the innermost scope (or as a global if there is
// no local scope open), overwriting any existing binding of the same name
// in that scope.
func (c *Context) Define(name string, v value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bump()
	if len(c.scopes) == 0 {
		c.globals[name] = v
		return
	}
	c.scopes[len(c.scopes)-1].vars[name] = v
}

// DefineConst installs name as a const global: it cannot be reassigned or
// removed afterwards.
func (c *Context) DefineConst(name string, v value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bump()
	c.globals[name] = v
	c.constGlobals[name] = true
}

// Assign rewrites an existing binding of name, searching innermost-local
// to global, mirroring the write into the slot file if the name is
// slot-mapped in that scope. It errors if name is undefined or const.
func (c *Context) Assign(name string, v value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.scopes) - 1; i >= 0; i-- {
		s := &c.scopes[i]
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			if slot, ok := s.slots[name]; ok {
				c.ensureSlot(slot)
				c.slotFile[slot] = v
			}
			c.bump()
			return nil
		}
	}
	if _, ok := c.globals[name]; ok {
		if c.constGlobals[name] {
			return lkrerr.New(fmt.Sprintf("Cannot assign to const variable '%s'", name))
		}
		c.globals[name] = v
		c.bump()
		return nil
	}
	return lkrerr.New(fmt.Sprintf("Undefined variable: %s", name))
}

// Remove deletes name from the innermost scope it is found in, or from
// globals. It errors if name is a const global.
func (c *Context) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if _, ok := c.scopes[i].vars[name]; ok {
			delete(c.scopes[i].vars, name)
			delete(c.scopes[i].slots, name)
			c.bump()
			return nil
		}
	}
	if c.constGlobals[name] {
		return lkrerr.New(fmt.Sprintf("Cannot remove const variable '%s'", name))
	}
	if _, ok := c.globals[name]; ok {
		delete(c.globals, name)
		c.bump()
		return nil
	}
	return lkrerr.New(fmt.Sprintf("Undefined variable: %s", name))
}

// PushScope opens a new innermost local scope.
func (c *Context) PushScope() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes = append(c.scopes, scope{vars: map[string]value.Value{}, slots: map[string]uint16{}})
}

// PopScope closes the innermost local scope.
func (c *Context) PopScope() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// BindParamAtSlot binds name to v in the innermost scope and additionally
// mirrors it into the slot file at slot, so slot-keyed fast paths (the
// compiler's LoadLocal/StoreLocal ops when it chose slot addressing) read
// the same value as scope-keyed paths (spec §3.4).
func (c *Context) BindParamAtSlot(name string, slot uint16, v value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.scopes) == 0 {
		c.scopes = append(c.scopes, scope{vars: map[string]value.Value{}, slots: map[string]uint16{}})
	}
	s := &c.scopes[len(c.scopes)-1]
	s.vars[name] = v
	s.slots[name] = slot
	c.ensureSlot(slot)
	c.slotFile[slot] = v
	c.bump()
}

// PreloadSlotMappings installs a batch of (name, slot, depth) mappings,
// used to seed a snapshot's scope stack before replaying an expression
// against it (spec §4.5 `preload_slot_mappings_per_depth`).
func (c *Context) PreloadSlotMappings(mappings []struct {
	Name  string
	Slot  uint16
	Depth int
}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range mappings {
		for len(c.scopes) <= m.Depth {
			c.scopes = append(c.scopes, scope{vars: map[string]value.Value{}, slots: map[string]uint16{}})
		}
		s := &c.scopes[m.Depth]
		s.slots[m.Name] = m.Slot
		if v, ok := s.vars[m.Name]; ok {
			c.ensureSlot(m.Slot)
			c.slotFile[m.Slot] = v
		}
	}
}

// ensureSlot grows the slot file to fit slot. Callers must hold c.mu.
func (c *Context) ensureSlot(slot uint16) {
	if int(slot) >= len(c.slotFile) {
		next := make([]value.Value, slot+1)
		copy(next, c.slotFile)
		c.slotFile = next
	}
}

// SlotValue reads the slot file directly, the fast path LoadLocal uses.
func (c *Context) SlotValue(slot uint16) value.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(slot) >= len(c.slotFile) {
		return value.Nil
	}
	return c.slotFile[slot]
}

// SetSlotValue writes the slot file directly, the fast path StoreLocal
// uses; it does not touch the name-keyed scope maps (callers that need
// both go through Assign/BindParamAtSlot).
func (c *Context) SetSlotValue(slot uint16, v value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureSlot(slot)
	c.slotFile[slot] = v
	c.bump()
}

// PushCallFrame records a new call-stack entry.
func (c *Context) PushCallFrame(functionName, location string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callStack = append(c.callStack, Frame{FunctionName: functionName, Location: location, Depth: len(c.callStack)})
}

// PopCallFrame removes the innermost call-stack entry.
func (c *Context) PopCallFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.callStack) > 0 {
		c.callStack = c.callStack[:len(c.callStack)-1]
	}
}

// CallStackReport returns the current call stack as lkrerr.Frame entries,
// innermost first.
func (c *Context) CallStackReport() []lkrerr.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]lkrerr.Frame, len(c.callStack))
	for i, f := range c.callStack {
		out[len(c.callStack)-1-i] = lkrerr.Frame{FunctionName: f.FunctionName, Location: f.Location}
	}
	return out
}

// Snapshot returns a structural copy of c sufficient to replay later
// expression evaluation against the same symbol table (spec §4.5).
func (c *Context) Snapshot() *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := &Context{
		globals:      make(map[string]value.Value, len(c.globals)),
		constGlobals: make(map[string]bool, len(c.constGlobals)),
		scopes:       make([]scope, len(c.scopes)),
		slotFile:     append([]value.Value(nil), c.slotFile...),
		callStack:    append([]Frame(nil), c.callStack...),
		Resolver:     c.Resolver,
	}
	for k, v := range c.globals {
		cp.globals[k] = v
	}
	for k, v := range c.constGlobals {
		cp.constGlobals[k] = v
	}
	for i, s := range c.scopes {
		cp.scopes[i] = scope{
			vars:  make(map[string]value.Value, len(s.vars)),
			slots: make(map[string]uint16, len(s.slots)),
		}
		for k, v := range s.vars {
			cp.scopes[i].vars[k] = v
		}
		for k, v := range s.slots {
			cp.scopes[i].slots[k] = v
		}
	}
	cp.generation.Store(c.generation.Load())
	return cp
}
