package stdlib

import (
	"fmt"
	"io"

	"github.com/lollipopkit/lkr/internal/config"
	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/value"
)

// registerCore installs the handful of always-available scalar builtins,
// grounded on funxy's builtins_std.go/builtins.go print/len/typeOf
// trio, trimmed to this repo's value model (no Char list → string
// special-casing, since value.Str is its own variant rather than a list
// of Chars).
func registerCore(ctx *context.Context, out io.Writer) {
	ctx.DefineConst(config.PrintFuncName, nativeFn(config.PrintFuncName, func(call value.CallFunc, args []value.Value) (value.Value, error) {
		for i, arg := range args {
			if i > 0 {
				fmt.Fprint(out, " ")
			}
			if s, ok := arg.(value.Str); ok {
				fmt.Fprint(out, string(s))
				continue
			}
			fmt.Fprint(out, arg.String())
		}
		fmt.Fprintln(out)
		return value.Nil, nil
	}))

	ctx.DefineConst(config.LenFuncName, nativeFn(config.LenFuncName, func(call value.CallFunc, args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument, got %d", config.LenFuncName, len(args))
		}
		n, err := value.Len(args[0])
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil
	}))

	ctx.DefineConst(config.TypeOfFuncName, nativeFn(config.TypeOfFuncName, func(call value.CallFunc, args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument, got %d", config.TypeOfFuncName, len(args))
		}
		return value.Str(args[0].Type()), nil
	}))
}
