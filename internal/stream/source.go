package stream

import (
	"time"

	"github.com/lollipopkit/lkr/internal/value"
)

// FromList replays a fixed List, in order, once per cursor.
type FromList struct {
	Elems []value.Value
}

func (s *FromList) Open(value.CallFunc) Cursor {
	return &fromListCursor{elems: s.Elems}
}

type fromListCursor struct {
	elems []value.Value
	idx   int
}

func (c *fromListCursor) Next() (value.Value, bool, error) {
	if c.idx >= len(c.elems) {
		return value.Nil, false, nil
	}
	v := c.elems[c.idx]
	c.idx++
	return v, true, nil
}

func (c *fromListCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	return c.Next()
}

// Range yields Start, Start+Step, Start+2*Step, ... stopping before End
// when HasEnd is set (infinite otherwise). Step defaults to 1 when zero.
type Range struct {
	Start, End int64
	HasEnd     bool
	Step       int64
}

func (s *Range) Open(value.CallFunc) Cursor {
	step := s.Step
	if step == 0 {
		step = 1
	}
	return &rangeCursor{cur: s.Start, end: s.End, hasEnd: s.HasEnd, step: step}
}

type rangeCursor struct {
	cur, end, step int64
	hasEnd         bool
}

func (c *rangeCursor) Next() (value.Value, bool, error) {
	if c.hasEnd {
		if c.step >= 0 && c.cur >= c.end {
			return value.Nil, false, nil
		}
		if c.step < 0 && c.cur <= c.end {
			return value.Nil, false, nil
		}
	}
	v := value.Int(c.cur)
	c.cur += c.step
	return v, true, nil
}

func (c *rangeCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	return c.Next()
}

// Repeat yields the same Value forever. Callers must bound it with
// Take or a numeric Collect, per spec.md §4.4's "iterate and repeat are
// infinite" invariant.
type Repeat struct {
	Value value.Value
}

func (s *Repeat) Open(value.CallFunc) Cursor {
	return &repeatCursor{v: s.Value}
}

type repeatCursor struct{ v value.Value }

func (c *repeatCursor) Next() (value.Value, bool, error) { return c.v, true, nil }
func (c *repeatCursor) NextBlock(time.Duration) (value.Value, bool, error) {
	return c.v, true, nil
}

// Iterate yields Seed, then Fn(Seed), Fn(Fn(Seed)), ... forever; also
// infinite and subject to the same bounding requirement as Repeat.
type Iterate struct {
	Seed value.Value
	Fn   value.Value
}

func (s *Iterate) Open(call value.CallFunc) Cursor {
	return &iterateCursor{next: s.Seed, fn: s.Fn, call: call}
}

type iterateCursor struct {
	next    value.Value
	fn      value.Value
	call    value.CallFunc
	started bool
}

func (c *iterateCursor) Next() (value.Value, bool, error) {
	if !c.started {
		c.started = true
		return c.next, true, nil
	}
	v, err := c.call(c.fn, []value.Value{c.next})
	if err != nil {
		return nil, false, err
	}
	c.next = v
	return v, true, nil
}

func (c *iterateCursor) NextBlock(time.Duration) (value.Value, bool, error) {
	return c.Next()
}

// FromChannel draws elements from a live Channel; the cursor observes
// channel closure as drained, per spec.md §4.4.
type FromChannel struct {
	Channel *Channel
}

func (s *FromChannel) Open(value.CallFunc) Cursor {
	return &channelCursor{ch: s.Channel}
}

type channelCursor struct{ ch *Channel }

func (c *channelCursor) Next() (value.Value, bool, error) {
	v, ok := c.ch.TryRecv()
	return v, ok, nil
}

func (c *channelCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	v, ok := c.ch.RecvAsync(timeout)
	return v, ok, nil
}
