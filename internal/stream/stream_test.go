package stream

import (
	"testing"
	"time"

	"github.com/lollipopkit/lkr/internal/value"
)

func identityCall(fn value.Value, args []value.Value) (value.Value, error) {
	switch f := fn.(type) {
	case *value.NativeFn:
		return f.Fn(identityCall, args)
	default:
		return args[0], nil
	}
}

func squareCall(fn value.Value, args []value.Value) (value.Value, error) {
	n := args[0].(value.Int)
	return n * n, nil
}

func TestFromListCollect(t *testing.T) {
	spec := &FromList{Elems: []value.Value{value.Int(1), value.Int(2), value.Int(3)}}
	cur := spec.Open(identityCall)
	list, err := Collect(cur, 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if list.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", list.Len())
	}
}

func TestRangeTakeCollect(t *testing.T) {
	var spec Spec = &Range{Start: 0, HasEnd: false}
	spec = &Take{Upstream: spec, N: 5}
	cur := spec.Open(identityCall)
	list, err := Collect(cur, 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if list.Len() != 5 {
		t.Fatalf("expected 5 elements, got %d", list.Len())
	}
	if list.At(4) != value.Int(4) {
		t.Fatalf("expected last element 4, got %v", list.At(4))
	}
}

func TestMapSquaresInOrder(t *testing.T) {
	var spec Spec = &FromList{Elems: []value.Value{value.Int(1), value.Int(2), value.Int(3)}}
	spec = &Map{Upstream: spec, Fn: nil}
	cur := spec.Open(squareCall)
	list, err := Collect(cur, 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []int64{1, 4, 9}
	for i, w := range want {
		if int64(list.At(i).(value.Int)) != w {
			t.Fatalf("index %d: expected %d, got %v", i, w, list.At(i))
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	isEven := func(fn value.Value, args []value.Value) (value.Value, error) {
		n := args[0].(value.Int)
		return value.Bool(n%2 == 0), nil
	}
	var spec Spec = &FromList{Elems: []value.Value{
		value.Int(1), value.Int(2), value.Int(3), value.Int(4), value.Int(5),
	}}
	spec = &Filter{Upstream: spec, Fn: nil}
	cur := spec.Open(isEven)
	list, err := Collect(cur, 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("expected 2 elements, got %d", list.Len())
	}
	if int64(list.At(0).(value.Int)) != 2 || int64(list.At(1).(value.Int)) != 4 {
		t.Fatalf("unexpected filtered contents: %v", list)
	}
}

func TestChainExhaustsFirstBeforeSecond(t *testing.T) {
	var spec Spec = &Chain{
		First:  &FromList{Elems: []value.Value{value.Int(1), value.Int(2)}},
		Second: &FromList{Elems: []value.Value{value.Int(3)}},
	}
	cur := spec.Open(identityCall)
	list, err := Collect(cur, 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []int64{1, 2, 3}
	for i, w := range want {
		if int64(list.At(i).(value.Int)) != w {
			t.Fatalf("index %d: expected %d, got %v", i, w, list.At(i))
		}
	}
}

func TestIterateIsBoundedByTake(t *testing.T) {
	double := func(fn value.Value, args []value.Value) (value.Value, error) {
		n := args[0].(value.Int)
		return n * 2, nil
	}
	var spec Spec = &Iterate{Seed: value.Int(1), Fn: nil}
	spec = &Take{Upstream: spec, N: 4}
	cur := spec.Open(double)
	list, err := Collect(cur, 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []int64{1, 2, 4, 8}
	for i, w := range want {
		if int64(list.At(i).(value.Int)) != w {
			t.Fatalf("index %d: expected %d, got %v", i, w, list.At(i))
		}
	}
}

func TestStreamSubscribeIsIndependentPerCursor(t *testing.T) {
	h := &StreamHandle{Spec: &FromList{Elems: []value.Value{value.Int(1), value.Int(2)}}, Call: identityCall}
	a := h.Subscribe()
	b := h.Subscribe()
	v, ok, err := a.Next()
	if err != nil || !ok || v != value.Int(1) {
		t.Fatalf("cursor a first Next: %v %v %v", v, ok, err)
	}
	v, ok, err = a.Next()
	if err != nil || !ok || v != value.Int(2) {
		t.Fatalf("cursor a second Next: %v %v %v", v, ok, err)
	}
	v, ok, err = b.Next()
	if err != nil || !ok || v != value.Int(1) {
		t.Fatalf("cursor b should still be at its own start, got %v %v %v", v, ok, err)
	}
}

func TestChannelSendRecv(t *testing.T) {
	ch := NewChannel(1)
	if err := ch.Send(value.Int(42)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	v, ok := ch.TryRecv()
	if !ok || v != value.Int(42) {
		t.Fatalf("TryRecv: %v %v", v, ok)
	}
	_, ok = ch.TryRecv()
	if ok {
		t.Fatal("expected TryRecv to report empty")
	}
}

func TestChannelCloseDrainsCursor(t *testing.T) {
	ch := NewChannel(2)
	ch.Send(value.Int(1))
	ch.Close()
	spec := &FromChannel{Channel: ch}
	cur := spec.Open(identityCall)
	v, ok, err := cur.Next()
	if err != nil || !ok || v != value.Int(1) {
		t.Fatalf("expected buffered value before drain, got %v %v %v", v, ok, err)
	}
	_, ok, err = cur.Next()
	if err != nil || ok {
		t.Fatalf("expected drained after close, got ok=%v err=%v", ok, err)
	}
}

func TestChannelSendAfterCloseErrors(t *testing.T) {
	ch := NewChannel(1)
	ch.Close()
	if err := ch.Send(value.Int(1)); err == nil {
		t.Fatal("expected an error sending on a closed channel")
	}
}

func TestChannelRecvAsyncTimesOut(t *testing.T) {
	ch := NewChannel(0)
	start := time.Now()
	_, ok := ch.RecvAsync(20 * time.Millisecond)
	if ok {
		t.Fatal("expected RecvAsync to time out on an empty channel")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("RecvAsync returned suspiciously early")
	}
}

func TestTaskSpawnAwait(t *testing.T) {
	double := func(fn value.Value, args []value.Value) (value.Value, error) {
		n := args[0].(value.Int)
		return n * 2, nil
	}
	task := Spawn(double, nil, []value.Value{value.Int(21)})
	v, ok, err := task.Await(0)
	if err != nil || !ok || v != value.Int(42) {
		t.Fatalf("Await: %v %v %v", v, ok, err)
	}
}

func TestTaskAwaitPropagatesError(t *testing.T) {
	failing := func(fn value.Value, args []value.Value) (value.Value, error) {
		return nil, errClosed
	}
	task := Spawn(failing, nil, nil)
	_, _, err := task.Await(0)
	if err == nil {
		t.Fatal("expected Await to propagate the closure's error")
	}
}
