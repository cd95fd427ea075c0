// Package handle implements the process-wide registry backing every
// opaque runtime handle (component C7's Task/Channel/Stream/
// StreamCursor/Iterator, plus MutationGuard): spec.md §3.1 describes
// these as values whose actual state lives outside the value model
// itself, identified by a stable ID and compared by identity.
//
// funxy has no first-class handle concept of its own — its async
// support is a single callback (evaluator.AsyncHandler) invoked inline
// rather than a registry of independently-addressable objects — so this
// package is new, modeled on the "opaque ID keyed into outside state"
// shape implicit in that callback boundary and in funxy's builtins_term.go
// terminal-session bookkeeping (done/finished channels kept alongside an
// external identity, not inside the Object itself).
package handle

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lollipopkit/lkr/internal/value"
)

// Entry is anything the registry can hold behind a Handle. Concrete
// state types (internal/stream.Task, internal/stream.Channel, ...)
// implement it by embedding *sync.Mutex or simply having no mutable
// state of their own.
type Entry interface {
	// Kind reports the HandleKind this entry should be addressed as.
	Kind() value.HandleKind
}

type slot struct {
	mu    sync.Mutex
	entry Entry
}

// Registry is a process-wide table of live handles. The zero value is
// not usable; construct with New.
type Registry struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*slot
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{slots: map[uuid.UUID]*slot{}}
}

// Register stores entry under a freshly minted handle of the given kind
// and returns the value.Handle naming it.
func (r *Registry) Register(kind value.HandleKind, entry Entry) value.Handle {
	h := value.NewHandle(kind)
	s := &slot{entry: entry}
	r.mu.Lock()
	r.slots[h.ID] = s
	r.mu.Unlock()
	return h
}

// Lookup returns the entry registered under h, or ok=false if h names no
// live entry (e.g. it was released, or belongs to a different process).
func (r *Registry) Lookup(h value.Handle) (Entry, bool) {
	r.mu.RLock()
	s, ok := r.slots[h.ID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.entry, true
}

// Release removes h from the registry. Releasing an unknown or
// already-released handle is a no-op, matching the "closing twice is
// fine" posture spec.md gives Channel/Task teardown.
func (r *Registry) Release(h value.Handle) {
	r.mu.Lock()
	delete(r.slots, h.ID)
	r.mu.Unlock()
}

// WithLock runs fn with the per-entry mutex for h held, so cursor/task
// mutation (e.g. StreamCursor.Next advancing its position) never races
// two goroutines holding the same Handle. It returns an error if h names
// no live entry.
func (r *Registry) WithLock(h value.Handle, fn func(entry Entry) error) error {
	r.mu.RLock()
	s, ok := r.slots[h.ID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("handle: %s %s is not live", h.Kind, h.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.entry)
}

// Len reports the number of live handles, for diagnostics and tests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}
