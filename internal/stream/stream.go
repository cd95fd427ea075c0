// Package stream implements component C7: cold Stream specifications,
// independent per-subscriber StreamCursors, and the Task/Channel
// concurrency primitives used to build async interop over them. A Spec
// never holds running state itself — Open mints a fresh Cursor so two
// subscribe calls against the same Stream advance independently, per
// spec.md §4.4. Task/Channel and every opened Cursor register into
// internal/handle so a value.Handle is all a language-level value ever
// carries; the actual goroutine/channel/cursor-position state lives
// here, addressed by that handle's ID.
//
// Grounded on funxy's evaluator.AsyncHandler callback shape
// (internal/evaluator/evaluator.go) for the "native code calls back into
// a user closure" boundary: combinators that need to invoke a predicate
// or mapping function take a value.CallFunc rather than importing
// internal/vm, the same inversion funxy uses to let builtins call back
// into the evaluator without the builtins package importing it.
package stream

import (
	"time"

	"github.com/lollipopkit/lkr/internal/value"
)

// Spec is a cold stream specification: it describes how to produce
// elements but holds no position of its own. Open mints an independent
// Cursor each time it is called.
type Spec interface {
	Open(call value.CallFunc) Cursor
}

// Cursor is one independent, stateful consumer of a Spec. Next is
// non-blocking: for a channel-backed cursor "temporarily unavailable"
// and "drained" both report ok=false, matching spec.md §4.4's non-
// blocking `next` contract. NextBlock additionally blocks (bounded by
// timeout, 0 meaning forever) when the cursor is backed by a channel
// receive; for every other cursor kind it behaves exactly like Next.
type Cursor interface {
	Next() (value.Value, bool, error)
	NextBlock(timeout time.Duration) (value.Value, bool, error)
}
