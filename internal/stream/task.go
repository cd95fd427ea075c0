package stream

import (
	"time"

	"github.com/lollipopkit/lkr/internal/value"
)

// Task is the runtime state behind a value.Handle of kind
// value.HandleTask: a closure invocation running on its own goroutine,
// its result observed via Await. Grounded on funxy's evaluator.go
// AsyncHandler callback shape, generalized from a single in-flight
// callback into an independently addressable handle.
type Task struct {
	done   chan struct{}
	result value.Value
	err    error
}

// Spawn starts fn(args...) on a new goroutine via call and returns a
// Task observing its outcome.
func Spawn(call value.CallFunc, fn value.Value, args []value.Value) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.result, t.err = call(fn, args)
	}()
	return t
}

// Kind implements handle.Entry.
func (*Task) Kind() value.HandleKind { return value.HandleTask }

// Await blocks (bounded by timeout, 0 meaning forever) for the task to
// finish. ok is false if the timeout elapsed before completion.
func (t *Task) Await(timeout time.Duration) (value.Value, bool, error) {
	if timeout <= 0 {
		<-t.done
		return t.result, true, t.err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return t.result, true, t.err
	case <-timer.C:
		return value.Nil, false, nil
	}
}

// Done reports whether the task has finished, without blocking.
func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
