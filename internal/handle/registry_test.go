package handle

import (
	"sync"
	"testing"

	"github.com/lollipopkit/lkr/internal/value"
)

type fakeCursor struct {
	pos int
}

func (*fakeCursor) Kind() value.HandleKind { return value.HandleStreamCursor }

func TestRegisterLookupRelease(t *testing.T) {
	r := New()
	h := r.Register(value.HandleStreamCursor, &fakeCursor{})

	entry, ok := r.Lookup(h)
	if !ok {
		t.Fatalf("expected handle to be live")
	}
	if entry.Kind() != value.HandleStreamCursor {
		t.Fatalf("got kind %s", entry.Kind())
	}

	r.Release(h)
	if _, ok := r.Lookup(h); ok {
		t.Fatalf("expected handle to be released")
	}

	// releasing twice is a no-op, not an error
	r.Release(h)
}

func TestWithLockSerializesMutation(t *testing.T) {
	r := New()
	h := r.Register(value.HandleStreamCursor, &fakeCursor{})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.WithLock(h, func(e Entry) error {
				c := e.(*fakeCursor)
				c.pos++
				return nil
			})
		}()
	}
	wg.Wait()

	entry, _ := r.Lookup(h)
	if got := entry.(*fakeCursor).pos; got != 100 {
		t.Fatalf("expected pos=100 after 100 concurrent increments, got %d", got)
	}
}

func TestWithLockUnknownHandle(t *testing.T) {
	r := New()
	h := value.NewHandle(value.HandleTask)
	if err := r.WithLock(h, func(Entry) error { return nil }); err == nil {
		t.Fatalf("expected error for unknown handle")
	}
}
