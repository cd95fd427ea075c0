package stdlib

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/config"
	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/handle"
	"github.com/lollipopkit/lkr/internal/stream"
	"github.com/lollipopkit/lkr/internal/value"
)

// registerTask installs the `task` namespace: spawning a closure onto
// its own goroutine and observing its outcome, grounded on funxy's
// single inline AsyncHandler callback generalized into an independently
// addressable handle (see internal/stream's package doc).
func registerTask(ctx *context.Context, reg *handle.Registry) {
	ns := namespace(map[string]value.Value{
		"spawn": nativeFn("task.spawn", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("task.spawn expects at least 1 argument")
			}
			var taskArgs []value.Value
			if len(args) > 1 {
				list, ok := args[1].(*value.List)
				if !ok {
					return nil, fmt.Errorf("task.spawn's second argument must be a list of call arguments, got %s", args[1].Type())
				}
				taskArgs = list.Elems()
			}
			t := stream.Spawn(call, args[0], taskArgs)
			return reg.Register(value.HandleTask, t), nil
		}),

		"await": nativeFn("task.await", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("task.await expects at least 1 argument")
			}
			ms, present, err := optInt(argOrNil(args, 1))
			if err != nil {
				return nil, err
			}
			t, err := lookup[*stream.Task](reg, args[0], value.HandleTask)
			if err != nil {
				return nil, err
			}
			v, ok, err := t.Await(msToDuration(ms, present))
			if err != nil {
				return nil, err
			}
			return okPair(ok, v), nil
		}),

		"done": nativeFn("task.done", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("task.done expects 1 argument, got %d", len(args))
			}
			t, err := lookup[*stream.Task](reg, args[0], value.HandleTask)
			if err != nil {
				return nil, err
			}
			return value.Bool(t.Done()), nil
		}),
	})

	ctx.DefineConst(config.TaskNamespace, ns)
}
