package stdlib

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/config"
	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/handle"
	"github.com/lollipopkit/lkr/internal/stream"
	"github.com/lollipopkit/lkr/internal/value"
)

// registerStream installs the `stream` namespace (component C7):
// source/combinator constructors, subscribe, and the blocking/non-
// blocking read and collect operations of spec.md §4.4. Every
// constructor mints a cold value.HandleStream; subscribe opens an
// independent value.HandleStreamCursor from it.
func registerStream(ctx *context.Context, reg *handle.Registry, call value.CallFunc) {
	wrap := func(spec stream.Spec) value.Value {
		return reg.Register(value.HandleStream, &stream.StreamHandle{Spec: spec, Call: call})
	}
	specOf := func(v value.Value) (stream.Spec, error) {
		sh, err := lookup[*stream.StreamHandle](reg, v, value.HandleStream)
		if err != nil {
			return nil, err
		}
		return sh.Spec, nil
	}
	cursorOf := func(v value.Value) (stream.Cursor, error) {
		if h, ok := v.(value.Handle); ok && h.Kind == value.HandleStream {
			sh, err := lookup[*stream.StreamHandle](reg, v, value.HandleStream)
			if err != nil {
				return nil, err
			}
			return sh.Spec.Open(call), nil
		}
		ch, err := lookup[*stream.CursorHandle](reg, v, value.HandleStreamCursor)
		if err != nil {
			return nil, err
		}
		return ch.Cursor(), nil
	}

	ns := namespace(map[string]value.Value{
		"from_list": nativeFn("stream.from_list", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("stream.from_list expects 1 argument, got %d", len(args))
			}
			list, ok := args[0].(*value.List)
			if !ok {
				return nil, fmt.Errorf("stream.from_list expects a list, got %s", args[0].Type())
			}
			return wrap(&stream.FromList{Elems: list.Elems()}), nil
		}),

		"range": nativeFn("stream.range", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("stream.range expects at least 1 argument")
			}
			start, ok := args[0].(value.Int)
			if !ok {
				return nil, fmt.Errorf("stream.range start must be int, got %s", args[0].Type())
			}
			end, hasEnd, err := optInt(argOrNil(args, 1))
			if err != nil {
				return nil, err
			}
			step, _, err := optInt(argOrNil(args, 2))
			if err != nil {
				return nil, err
			}
			return wrap(&stream.Range{Start: int64(start), End: end, HasEnd: hasEnd, Step: step}), nil
		}),

		"repeat": nativeFn("stream.repeat", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("stream.repeat expects 1 argument, got %d", len(args))
			}
			return wrap(&stream.Repeat{Value: args[0]}), nil
		}),

		"iterate": nativeFn("stream.iterate", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("stream.iterate expects 2 arguments, got %d", len(args))
			}
			return wrap(&stream.Iterate{Seed: args[0], Fn: args[1]}), nil
		}),

		"from_channel": nativeFn("stream.from_channel", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("stream.from_channel expects 1 argument, got %d", len(args))
			}
			ch, err := lookup[*stream.Channel](reg, args[0], value.HandleChannel)
			if err != nil {
				return nil, err
			}
			return wrap(&stream.FromChannel{Channel: ch}), nil
		}),

		"map": nativeFn("stream.map", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("stream.map expects 2 arguments, got %d", len(args))
			}
			up, err := specOf(args[0])
			if err != nil {
				return nil, err
			}
			return wrap(&stream.Map{Upstream: up, Fn: args[1]}), nil
		}),

		"filter": nativeFn("stream.filter", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("stream.filter expects 2 arguments, got %d", len(args))
			}
			up, err := specOf(args[0])
			if err != nil {
				return nil, err
			}
			return wrap(&stream.Filter{Upstream: up, Fn: args[1]}), nil
		}),

		"take": nativeFn("stream.take", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("stream.take expects 2 arguments, got %d", len(args))
			}
			up, err := specOf(args[0])
			if err != nil {
				return nil, err
			}
			n, ok := args[1].(value.Int)
			if !ok {
				return nil, fmt.Errorf("stream.take count must be int, got %s", args[1].Type())
			}
			return wrap(&stream.Take{Upstream: up, N: int(n)}), nil
		}),

		"skip": nativeFn("stream.skip", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("stream.skip expects 2 arguments, got %d", len(args))
			}
			up, err := specOf(args[0])
			if err != nil {
				return nil, err
			}
			n, ok := args[1].(value.Int)
			if !ok {
				return nil, fmt.Errorf("stream.skip count must be int, got %s", args[1].Type())
			}
			return wrap(&stream.Skip{Upstream: up, N: int(n)}), nil
		}),

		"chain": nativeFn("stream.chain", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("stream.chain expects 2 arguments, got %d", len(args))
			}
			a, err := specOf(args[0])
			if err != nil {
				return nil, err
			}
			b, err := specOf(args[1])
			if err != nil {
				return nil, err
			}
			return wrap(&stream.Chain{First: a, Second: b}), nil
		}),

		"subscribe": nativeFn("stream.subscribe", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("stream.subscribe expects 1 argument, got %d", len(args))
			}
			sh, err := lookup[*stream.StreamHandle](reg, args[0], value.HandleStream)
			if err != nil {
				return nil, err
			}
			return reg.Register(value.HandleStreamCursor, sh.Subscribe()), nil
		}),

		"next": nativeFn("stream.next", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("stream.next expects 1 argument, got %d", len(args))
			}
			var result *value.List
			h, _ := asHandle(args[0], value.HandleStreamCursor)
			err := reg.WithLock(h, func(e handle.Entry) error {
				ch, ok := e.(*stream.CursorHandle)
				if !ok {
					return fmt.Errorf("stream.next expects a stream cursor handle")
				}
				v, ok, err := ch.Next()
				if err != nil {
					return err
				}
				result = okPair(ok, v)
				return nil
			})
			return result, err
		}),

		"next_block": nativeFn("stream.next_block", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("stream.next_block expects at least 1 argument")
			}
			ms, present, err := optInt(argOrNil(args, 1))
			if err != nil {
				return nil, err
			}
			var result *value.List
			h, herr := asHandle(args[0], value.HandleStreamCursor)
			if herr != nil {
				return nil, herr
			}
			err = reg.WithLock(h, func(e handle.Entry) error {
				ch, ok := e.(*stream.CursorHandle)
				if !ok {
					return fmt.Errorf("stream.next_block expects a stream cursor handle")
				}
				v, ok, err := ch.NextBlock(msToDuration(ms, present))
				if err != nil {
					return err
				}
				result = okPair(ok, v)
				return nil
			})
			return result, err
		}),

		"collect": nativeFn("stream.collect", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("stream.collect expects at least 1 argument")
			}
			n, hasN, err := optInt(argOrNil(args, 1))
			if err != nil {
				return nil, err
			}
			cur, err := cursorOf(args[0])
			if err != nil {
				return nil, err
			}
			count := -1
			if hasN {
				count = int(n)
			}
			return stream.Collect(cur, count)
		}),

		"collect_block": nativeFn("stream.collect_block", func(call value.CallFunc, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("stream.collect_block expects at least 1 argument")
			}
			n, hasN, err := optInt(argOrNil(args, 1))
			if err != nil {
				return nil, err
			}
			ms, present, err := optInt(argOrNil(args, 2))
			if err != nil {
				return nil, err
			}
			cur, err := cursorOf(args[0])
			if err != nil {
				return nil, err
			}
			count := -1
			if hasN {
				count = int(n)
			}
			return stream.CollectBlock(cur, count, msToDuration(ms, present))
		}),
	})

	ctx.DefineConst(config.StreamNamespace, ns)
}
