package stdlib

import (
	"fmt"
	"time"

	"github.com/lollipopkit/lkr/internal/handle"
	"github.com/lollipopkit/lkr/internal/value"
)

func asHandle(v value.Value, kind value.HandleKind) (value.Handle, error) {
	h, ok := v.(value.Handle)
	if !ok || h.Kind != kind {
		return value.Handle{}, fmt.Errorf("expected a %s handle, got %s", kind, v.Type())
	}
	return h, nil
}

func lookup[T any](reg *handle.Registry, v value.Value, kind value.HandleKind) (T, error) {
	var zero T
	h, err := asHandle(v, kind)
	if err != nil {
		return zero, err
	}
	entry, ok := reg.Lookup(h)
	if !ok {
		return zero, fmt.Errorf("%s handle is not live", kind)
	}
	t, ok := entry.(T)
	if !ok {
		return zero, fmt.Errorf("internal error: %s handle entry has unexpected type", kind)
	}
	return t, nil
}

// optInt reads an optional Int argument, treating Nil (or a missing
// trailing argument) as absent.
func optInt(v value.Value) (int64, bool, error) {
	if v == nil || value.IsNil(v) {
		return 0, false, nil
	}
	i, ok := v.(value.Int)
	if !ok {
		return 0, false, fmt.Errorf("expected an int, got %s", v.Type())
	}
	return int64(i), true, nil
}

// argOrNil returns args[i] if present, else value.Nil — native functions
// in this package accept trailing optional arguments the way named-
// parameter defaults would in a user closure.
func argOrNil(args []value.Value, i int) value.Value {
	if i >= len(args) {
		return value.Nil
	}
	return args[i]
}

func msToDuration(ms int64, present bool) time.Duration {
	if !present || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func okPair(ok bool, v value.Value) *value.List {
	if !ok {
		v = value.Nil
	}
	return value.NewList([]value.Value{value.Bool(ok), v})
}
