package value

import (
	"fmt"

	"github.com/google/uuid"
)

// HandleKind distinguishes the opaque runtime handle variants.
type HandleKind string

const (
	HandleTask          HandleKind = "task"
	HandleChannel       HandleKind = "channel"
	HandleStream        HandleKind = "stream"
	HandleStreamCursor  HandleKind = "stream_cursor"
	HandleIterator      HandleKind = "iterator"
	HandleMutationGuard HandleKind = "mutation_guard"
)

// Handle is the Value representation of Task/Channel/Stream/StreamCursor/
// Iterator/MutationGuard: the actual runtime state lives in a process-wide
// registry (internal/handle, internal/stream) keyed by ID, and equality of
// Handle values is identity of that ID, per spec.
type Handle struct {
	Kind HandleKind
	ID   uuid.UUID
}

// NewHandle mints a Handle with a fresh random identity.
func NewHandle(kind HandleKind) Handle {
	return Handle{Kind: kind, ID: uuid.New()}
}

func (h Handle) String() string { return fmt.Sprintf("<%s %s>", h.Kind, h.ID) }
func (h Handle) Type() string   { return string(h.Kind) }
