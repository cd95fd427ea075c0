package stream

import (
	"time"

	"github.com/lollipopkit/lkr/internal/value"
)

// StreamHandle is the runtime state behind a value.Handle of kind
// value.HandleStream: the cold Spec plus the call-back used to re-enter
// the language for its combinators. Subscribe mints an independent
// cursor each time it is invoked, per spec.md §4.4.
type StreamHandle struct {
	Spec Spec
	Call value.CallFunc
}

// Kind implements handle.Entry.
func (*StreamHandle) Kind() value.HandleKind { return value.HandleStream }

// Subscribe opens a fresh, independent CursorHandle over h's Spec.
func (h *StreamHandle) Subscribe() *CursorHandle {
	return &CursorHandle{cursor: h.Spec.Open(h.Call)}
}

// CursorHandle is the runtime state behind a value.Handle of kind
// value.HandleStreamCursor.
type CursorHandle struct {
	cursor Cursor
}

// Kind implements handle.Entry.
func (*CursorHandle) Kind() value.HandleKind { return value.HandleStreamCursor }

// Cursor exposes the underlying Cursor for Collect/CollectBlock callers
// that already hold a *CursorHandle rather than a bare Cursor.
func (h *CursorHandle) Cursor() Cursor { return h.cursor }

func (h *CursorHandle) Next() (value.Value, bool, error) { return h.cursor.Next() }

func (h *CursorHandle) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	return h.cursor.NextBlock(timeout)
}

// Collect drains cur (up to n elements; n<=0 means unbounded) via the
// non-blocking Next, stopping early on the first drained/unavailable
// report, per spec.md §4.4 `collect`.
func Collect(cur Cursor, n int) (*value.List, error) {
	return collect(cur, n, false, 0)
}

// CollectBlock drains cur (up to n elements) via NextBlock, applying the
// same per-item timeout to each receive, per spec.md §4.4 `collect_block`.
func CollectBlock(cur Cursor, n int, timeout time.Duration) (*value.List, error) {
	return collect(cur, n, true, timeout)
}

func collect(cur Cursor, n int, blocking bool, timeout time.Duration) (*value.List, error) {
	var out []value.Value
	for n <= 0 || len(out) < n {
		var v value.Value
		var ok bool
		var err error
		if blocking {
			v, ok, err = cur.NextBlock(timeout)
		} else {
			v, ok, err = cur.Next()
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	return value.NewList(out), nil
}
