package stream

import (
	"sync"
	"time"

	"github.com/lollipopkit/lkr/internal/value"
)

// Channel is the runtime state behind a value.Handle of kind
// value.HandleChannel: a buffered Go channel plus a closed flag so a
// Send after Close reports an error instead of panicking.
type Channel struct {
	ch     chan value.Value
	mu     sync.Mutex
	closed bool
}

// NewChannel returns a Channel with the given buffer capacity (0 means
// unbuffered, a synchronous rendezvous).
func NewChannel(capacity int) *Channel {
	return &Channel{ch: make(chan value.Value, capacity)}
}

// Kind implements handle.Entry.
func (*Channel) Kind() value.HandleKind { return value.HandleChannel }

// Send delivers v to the channel, blocking if the buffer is full. It
// errors if the channel has already been closed.
func (c *Channel) Send(v value.Value) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed
	}
	c.mu.Unlock()
	c.ch <- v
	return nil
}

// Close marks the channel closed; closing twice is a no-op per
// spec.md §4.4's "closing twice is fine" posture.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// TryRecv is the non-blocking receive backing `try_recv`/stream `next`:
// ok is false both when the channel is empty and when it is drained
// (closed with nothing left buffered).
func (c *Channel) TryRecv() (value.Value, bool) {
	select {
	case v, ok := <-c.ch:
		if !ok {
			return value.Nil, false
		}
		return v, true
	default:
		return value.Nil, false
	}
}

// RecvAsync is the blocking receive backing `recv_async`/stream
// `next_block`: timeout 0 blocks forever, a positive timeout bounds the
// wait and reports ok=false on elapse, matching spec.md §4.4.
func (c *Channel) RecvAsync(timeout time.Duration) (value.Value, bool) {
	if timeout <= 0 {
		v, ok := <-c.ch
		return v, ok
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v, ok := <-c.ch:
		return v, ok
	case <-timer.C:
		return value.Nil, false
	}
}

var errClosed = channelClosedError{}

type channelClosedError struct{}

func (channelClosedError) Error() string { return "send on closed channel" }
