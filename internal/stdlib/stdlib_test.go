package stdlib

import (
	"bytes"
	"testing"
	"time"

	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/handle"
	"github.com/lollipopkit/lkr/internal/value"
)

// nativeCall is a minimal value.CallFunc good enough for these tests:
// it invokes *value.NativeFn targets directly and returns args[0] for
// anything else (standing in for a user closure).
func nativeCall(fn value.Value, args []value.Value) (value.Value, error) {
	if nf, ok := fn.(*value.NativeFn); ok {
		return nf.Fn(nativeCall, args)
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return value.Nil, nil
}

func setup() (*context.Context, *handle.Registry) {
	ctx := context.New(nil)
	reg := handle.New()
	Register(ctx, reg, nativeCall, &bytes.Buffer{})
	return ctx, reg
}

func nsFn(t *testing.T, ctx *context.Context, ns, name string) *value.NativeFn {
	t.Helper()
	nsVal, ok := ctx.Get(ns)
	if !ok {
		t.Fatalf("namespace %q not registered", ns)
	}
	m := nsVal.(*value.Map)
	fnVal, ok := m.Get(name)
	if !ok {
		t.Fatalf("%s.%s not registered", ns, name)
	}
	return fnVal.(*value.NativeFn)
}

func TestCoreLenAndTypeOf(t *testing.T) {
	ctx, _ := setup()
	lenFn := nsGlobal(t, ctx, "len")
	v, err := lenFn.Fn(nativeCall, []value.Value{value.NewList([]value.Value{value.Int(1), value.Int(2)})})
	if err != nil || v != value.Int(2) {
		t.Fatalf("len: %v %v", v, err)
	}
	typeOfFn := nsGlobal(t, ctx, "type_of")
	v, err = typeOfFn.Fn(nativeCall, []value.Value{value.Int(1)})
	if err != nil || v != value.Str("int") {
		t.Fatalf("type_of: %v %v", v, err)
	}
}

func nsGlobal(t *testing.T, ctx *context.Context, name string) *value.NativeFn {
	t.Helper()
	v, ok := ctx.Get(name)
	if !ok {
		t.Fatalf("global %q not registered", name)
	}
	return v.(*value.NativeFn)
}

func TestStreamFromListCollect(t *testing.T) {
	ctx, _ := setup()
	fromList := nsFn(t, ctx, "stream", "from_list")
	collect := nsFn(t, ctx, "stream", "collect")

	h, err := fromList.Fn(nativeCall, []value.Value{value.NewList([]value.Value{value.Int(1), value.Int(2), value.Int(3)})})
	if err != nil {
		t.Fatalf("from_list: %v", err)
	}
	result, err := collect.Fn(nativeCall, []value.Value{h})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	list := result.(*value.List)
	if list.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", list.Len())
	}
}

func TestStreamRangeTakeCollect(t *testing.T) {
	ctx, _ := setup()
	rangeFn := nsFn(t, ctx, "stream", "range")
	take := nsFn(t, ctx, "stream", "take")
	collect := nsFn(t, ctx, "stream", "collect")

	h, err := rangeFn.Fn(nativeCall, []value.Value{value.Int(0), value.Nil, value.Nil})
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	h, err = take.Fn(nativeCall, []value.Value{h, value.Int(4)})
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	result, err := collect.Fn(nativeCall, []value.Value{h})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	list := result.(*value.List)
	if list.Len() != 4 {
		t.Fatalf("expected 4 elements, got %d", list.Len())
	}
}

func TestStreamSubscribeNext(t *testing.T) {
	ctx, _ := setup()
	fromList := nsFn(t, ctx, "stream", "from_list")
	subscribe := nsFn(t, ctx, "stream", "subscribe")
	next := nsFn(t, ctx, "stream", "next")

	h, _ := fromList.Fn(nativeCall, []value.Value{value.NewList([]value.Value{value.Int(7)})})
	cur, err := subscribe.Fn(nativeCall, []value.Value{h})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	pair, err := next.Fn(nativeCall, []value.Value{cur})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	list := pair.(*value.List)
	if list.At(0) != value.Bool(true) || list.At(1) != value.Int(7) {
		t.Fatalf("unexpected pair: %v", list)
	}
	pair, err = next.Fn(nativeCall, []value.Value{cur})
	if err != nil {
		t.Fatalf("next (drained): %v", err)
	}
	list = pair.(*value.List)
	if list.At(0) != value.Bool(false) {
		t.Fatalf("expected drained, got %v", list)
	}
}

func TestChannelSendRecv(t *testing.T) {
	ctx, _ := setup()
	newFn := nsFn(t, ctx, "channel", "new")
	send := nsFn(t, ctx, "channel", "send")
	tryRecv := nsFn(t, ctx, "channel", "try_recv")

	ch, err := newFn.Fn(nativeCall, []value.Value{value.Int(1)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := send.Fn(nativeCall, []value.Value{ch, value.Int(9)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	pair, err := tryRecv.Fn(nativeCall, []value.Value{ch})
	if err != nil {
		t.Fatalf("try_recv: %v", err)
	}
	list := pair.(*value.List)
	if list.At(0) != value.Bool(true) || list.At(1) != value.Int(9) {
		t.Fatalf("unexpected pair: %v", list)
	}
}

func TestChannelRecvAsyncTimesOut(t *testing.T) {
	ctx, _ := setup()
	newFn := nsFn(t, ctx, "channel", "new")
	recvAsync := nsFn(t, ctx, "channel", "recv_async")

	ch, _ := newFn.Fn(nativeCall, []value.Value{value.Int(0)})
	start := time.Now()
	pair, err := recvAsync.Fn(nativeCall, []value.Value{ch, value.Int(20)})
	if err != nil {
		t.Fatalf("recv_async: %v", err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("recv_async returned suspiciously early")
	}
	list := pair.(*value.List)
	if list.At(0) != value.Bool(false) {
		t.Fatalf("expected timeout to report no value, got %v", list)
	}
}

func TestTaskSpawnAwait(t *testing.T) {
	ctx, _ := setup()
	spawn := nsFn(t, ctx, "task", "spawn")
	await := nsFn(t, ctx, "task", "await")

	double := &value.NativeFn{Name: "double", Fn: func(call value.CallFunc, args []value.Value) (value.Value, error) {
		n := args[0].(value.Int)
		return n * 2, nil
	}}
	h, err := spawn.Fn(nativeCall, []value.Value{double, value.NewList([]value.Value{value.Int(21)})})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	pair, err := await.Fn(nativeCall, []value.Value{h})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	list := pair.(*value.List)
	if list.At(0) != value.Bool(true) || list.At(1) != value.Int(42) {
		t.Fatalf("unexpected await result: %v", list)
	}
}
