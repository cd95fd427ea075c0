package stdlib

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/config"
	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/handle"
	"github.com/lollipopkit/lkr/internal/stream"
	"github.com/lollipopkit/lkr/internal/value"
)

// registerChannel installs the `channel` namespace: construction and the
// non-blocking/blocking receive pair spec.md §5 describes ("Channel
// receive exposes both non-blocking try_recv and async-awaited
// recv_async with optional timeout").
func registerChannel(ctx *context.Context, reg *handle.Registry) {
	withChannel := func(v value.Value, fn func(*stream.Channel) error) error {
		h, err := asHandle(v, value.HandleChannel)
		if err != nil {
			return err
		}
		return reg.WithLock(h, func(e handle.Entry) error {
			ch, ok := e.(*stream.Channel)
			if !ok {
				return fmt.Errorf("expected a channel handle")
			}
			return fn(ch)
		})
	}

	ns := namespace(map[string]value.Value{
		"new": nativeFn("channel.new", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			capacity, _, err := optInt(argOrNil(args, 0))
			if err != nil {
				return nil, err
			}
			return reg.Register(value.HandleChannel, stream.NewChannel(int(capacity))), nil
		}),

		"send": nativeFn("channel.send", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("channel.send expects 2 arguments, got %d", len(args))
			}
			err := withChannel(args[0], func(ch *stream.Channel) error { return ch.Send(args[1]) })
			return value.Nil, err
		}),

		"try_recv": nativeFn("channel.try_recv", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("channel.try_recv expects 1 argument, got %d", len(args))
			}
			var result *value.List
			err := withChannel(args[0], func(ch *stream.Channel) error {
				v, ok := ch.TryRecv()
				result = okPair(ok, v)
				return nil
			})
			return result, err
		}),

		"recv_async": nativeFn("channel.recv_async", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("channel.recv_async expects at least 1 argument")
			}
			ms, present, err := optInt(argOrNil(args, 1))
			if err != nil {
				return nil, err
			}
			var result *value.List
			err = withChannel(args[0], func(ch *stream.Channel) error {
				v, ok := ch.RecvAsync(msToDuration(ms, present))
				result = okPair(ok, v)
				return nil
			})
			return result, err
		}),

		"close": nativeFn("channel.close", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("channel.close expects 1 argument, got %d", len(args))
			}
			err := withChannel(args[0], func(ch *stream.Channel) error { ch.Close(); return nil })
			return value.Nil, err
		}),
	})

	ctx.DefineConst(config.ChannelNamespace, ns)
}
