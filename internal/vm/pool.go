package vm

import (
	"sync"

	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/value"
)

// Pool hands out VM instances that all share one Context, grounded on
// spec.md §5's "re-entrancy guard yields a fresh short-lived VM from a
// thread-local pool when the current VM is already on the stack". Each
// checked-out VM owns its own call-depth counter, so concurrent callers —
// a Task body running on its own goroutine, a stream combinator invoked
// from a different Task's cursor — never share the mutable state a bare
// *VM keeps (vm.depth). The shared Context serializes its own bookkeeping
// internally (see context.Context), so Pool itself holds no lock across a
// whole execution: it only guards the idle-VM freelist, which is held for
// a negligible slice pop/push, never for the duration of a call.
type Pool struct {
	ctx  *context.Context
	mu   sync.Mutex
	idle []*VM
}

// NewPool returns a Pool whose VMs all run against ctx.
func NewPool(ctx *context.Context) *Pool {
	return &Pool{ctx: ctx}
}

func (p *Pool) checkout() *VM {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.idle); n > 0 {
		v := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return v
	}
	return New(p.ctx)
}

func (p *Pool) checkin(v *VM) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle = append(p.idle, v)
}

// Run executes fn's top level on a VM borrowed from the pool.
func (p *Pool) Run(fn *bytecode.Function) (value.Value, error) {
	v := p.checkout()
	defer p.checkin(v)
	return v.Run(fn)
}

// CallFunc is a value.CallFunc backed by this pool: every invocation
// borrows its own VM for the call's duration. Pass this (rather than a
// single VM's bound callFunc method) to any native code that may run on a
// goroutine other than the one that built it — internal/stdlib uses it
// for task.spawn bodies, which genuinely run concurrently with whatever
// spawned them.
func (p *Pool) CallFunc(fn value.Value, args []value.Value) (value.Value, error) {
	v := p.checkout()
	defer p.checkin(v)
	return v.callFunc(fn, args)
}
