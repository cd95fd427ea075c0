// Package stdlib installs the ambient and domain builtins this repo
// ships as language globals: `print`/`len`/`type_of` (grounded on
// funxy's internal/evaluator/builtins.go Builtins map, adapted from a
// typed Builtin struct table to plain value.NativeFn globals since this
// repo has no typesystem package to populate a TypeInfo field with) plus
// the `stream`/`channel`/`task` namespaces wired to component C7
// (internal/stream).
package stdlib

import (
	"io"

	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/handle"
	"github.com/lollipopkit/lkr/internal/value"
)

// Register installs every builtin into ctx's globals as a const global
// (spec semantics: builtins are not reassignable), backed by reg for the
// opaque handles component C7 mints. call lets a native function invoke
// a user closure — stream combinators, task bodies — the same
// value.CallFunc the VM supplies to every other native call. Pass a
// (*vm.Pool).CallFunc here, not a bare VM's bound method: task bodies run
// on their own goroutine and a Pool is what keeps that safe (see
// internal/vm's Pool type).
func Register(ctx *context.Context, reg *handle.Registry, call value.CallFunc, out io.Writer) {
	registerCore(ctx, out)
	registerStream(ctx, reg, call)
	registerChannel(ctx, reg)
	registerTask(ctx, reg)
}

func nativeFn(name string, fn func(call value.CallFunc, args []value.Value) (value.Value, error)) *value.NativeFn {
	return &value.NativeFn{Name: name, Fn: fn}
}

func namespace(entries map[string]value.Value) *value.Map {
	return value.NewMapFrom(entries)
}
