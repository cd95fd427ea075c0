package stream

import (
	"time"

	"github.com/lollipopkit/lkr/internal/value"
)

// Map applies Fn to every element of Upstream, preserving order.
type Map struct {
	Upstream Spec
	Fn       value.Value
}

func (s *Map) Open(call value.CallFunc) Cursor {
	return &mapCursor{upstream: s.Upstream.Open(call), fn: s.Fn, call: call}
}

type mapCursor struct {
	upstream Cursor
	fn       value.Value
	call     value.CallFunc
}

func (c *mapCursor) Next() (value.Value, bool, error) {
	v, ok, err := c.upstream.Next()
	return c.apply(v, ok, err)
}

func (c *mapCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	v, ok, err := c.upstream.NextBlock(timeout)
	return c.apply(v, ok, err)
}

func (c *mapCursor) apply(v value.Value, ok bool, err error) (value.Value, bool, error) {
	if err != nil || !ok {
		return value.Nil, ok, err
	}
	out, err := c.call(c.fn, []value.Value{v})
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Filter keeps only the elements of Upstream for which Fn is truthy,
// preserving upstream order per spec.md §4.4.
type Filter struct {
	Upstream Spec
	Fn       value.Value
}

func (s *Filter) Open(call value.CallFunc) Cursor {
	return &filterCursor{upstream: s.Upstream.Open(call), fn: s.Fn, call: call}
}

type filterCursor struct {
	upstream Cursor
	fn       value.Value
	call     value.CallFunc
}

func (c *filterCursor) Next() (value.Value, bool, error) {
	return c.advance(func() (value.Value, bool, error) { return c.upstream.Next() })
}

func (c *filterCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	return c.advance(func() (value.Value, bool, error) { return c.upstream.NextBlock(timeout) })
}

func (c *filterCursor) advance(pull func() (value.Value, bool, error)) (value.Value, bool, error) {
	for {
		v, ok, err := pull()
		if err != nil || !ok {
			return value.Nil, ok, err
		}
		keep, err := c.call(c.fn, []value.Value{v})
		if err != nil {
			return nil, false, err
		}
		if bool(value.ToBool(keep)) {
			return v, true, nil
		}
	}
}

// Take yields at most N elements from Upstream, then reports drained.
type Take struct {
	Upstream Spec
	N        int
}

func (s *Take) Open(call value.CallFunc) Cursor {
	return &takeCursor{upstream: s.Upstream.Open(call), remaining: s.N}
}

type takeCursor struct {
	upstream  Cursor
	remaining int
}

func (c *takeCursor) Next() (value.Value, bool, error) {
	if c.remaining <= 0 {
		return value.Nil, false, nil
	}
	v, ok, err := c.upstream.Next()
	if ok {
		c.remaining--
	}
	return v, ok, err
}

func (c *takeCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	if c.remaining <= 0 {
		return value.Nil, false, nil
	}
	v, ok, err := c.upstream.NextBlock(timeout)
	if ok {
		c.remaining--
	}
	return v, ok, err
}

// Skip discards the first N elements of Upstream, then yields the rest.
type Skip struct {
	Upstream Spec
	N        int
}

func (s *Skip) Open(call value.CallFunc) Cursor {
	return &skipCursor{upstream: s.Upstream.Open(call), remaining: s.N}
}

type skipCursor struct {
	upstream  Cursor
	remaining int
}

func (c *skipCursor) Next() (value.Value, bool, error) {
	for c.remaining > 0 {
		_, ok, err := c.upstream.Next()
		if err != nil || !ok {
			return value.Nil, ok, err
		}
		c.remaining--
	}
	return c.upstream.Next()
}

func (c *skipCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	for c.remaining > 0 {
		_, ok, err := c.upstream.NextBlock(timeout)
		if err != nil || !ok {
			return value.Nil, ok, err
		}
		c.remaining--
	}
	return c.upstream.NextBlock(timeout)
}

// Chain reads First to exhaustion, then reads Second — it never
// interleaves the two, per spec.md §4.4 "chain(a,b) exhausts a fully
// before reading b".
type Chain struct {
	First, Second Spec
}

func (s *Chain) Open(call value.CallFunc) Cursor {
	return &chainCursor{first: s.First.Open(call), second: s.Second.Open(call)}
}

type chainCursor struct {
	first, second Cursor
	onSecond      bool
}

func (c *chainCursor) Next() (value.Value, bool, error) {
	if !c.onSecond {
		v, ok, err := c.first.Next()
		if err != nil {
			return value.Nil, false, err
		}
		if ok {
			return v, true, nil
		}
		c.onSecond = true
	}
	return c.second.Next()
}

func (c *chainCursor) NextBlock(timeout time.Duration) (value.Value, bool, error) {
	if !c.onSecond {
		v, ok, err := c.first.NextBlock(timeout)
		if err != nil {
			return value.Nil, false, err
		}
		if ok {
			return v, true, nil
		}
		c.onSecond = true
	}
	return c.second.NextBlock(timeout)
}
