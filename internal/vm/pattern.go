package vm

import (
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// matchPattern walks plan against v, binding any PatternVariable/rest
// slots directly into fr.regs — Slot/RestSlot are absolute register
// indices within the function that owns the match site, not a private
// slot space (see internal/compiler/pattern.go's internPattern doc).
func (vm *VM) matchPattern(fr *frame, plan *bytecode.PatternPlan, v value.Value) (bool, error) {
	switch plan.Kind {
	case bytecode.PatternWildcard:
		return true, nil

	case bytecode.PatternVariable:
		fr.regs[plan.Slot] = v
		return true, nil

	case bytecode.PatternLiteral:
		return value.Equal(v, plan.Literal)

	case bytecode.PatternRange:
		lo, err := value.Compare(v, plan.Low)
		if err != nil {
			return false, nil
		}
		hi, err := value.Compare(v, plan.High)
		if err != nil {
			return false, nil
		}
		return lo >= 0 && hi <= 0, nil

	case bytecode.PatternList:
		list, ok := v.(*value.List)
		if !ok {
			return false, nil
		}
		elems := list.Elems()
		if plan.HasRest {
			if len(elems) < len(plan.Elems) {
				return false, nil
			}
		} else if len(elems) != len(plan.Elems) {
			return false, nil
		}
		for i, sub := range plan.Elems {
			ok, err := vm.matchPattern(fr, sub, elems[i])
			if err != nil || !ok {
				return ok, err
			}
		}
		if plan.HasRest {
			fr.regs[plan.RestSlot] = value.NewList(append([]value.Value(nil), elems[len(plan.Elems):]...))
		}
		return true, nil

	case bytecode.PatternMap:
		m, ok := v.(*value.Map)
		if !ok {
			return false, nil
		}
		matchedKeys := make(map[string]bool, len(plan.Entries))
		for key, sub := range plan.Entries {
			val, ok := m.Get(key)
			if !ok {
				return false, nil
			}
			matchedKeys[key] = true
			ok, err := vm.matchPattern(fr, sub, val)
			if err != nil || !ok {
				return ok, err
			}
		}
		if plan.HasRest {
			rest := value.NewMap()
			for _, k := range m.SortedKeys() {
				if !matchedKeys[k] {
					rv, _ := m.Get(k)
					rest = rest.Put(k, rv)
				}
			}
			fr.regs[plan.RestSlot] = rest
		}
		return true, nil

	case bytecode.PatternOr:
		for _, alt := range plan.Alternatives {
			ok, err := vm.matchPattern(fr, alt, v)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case bytecode.PatternGuard:
		ok, err := vm.matchPattern(fr, plan.Inner, v)
		if err != nil || !ok {
			return ok, err
		}
		captures := buildCaptures(plan.GuardFunc.Captures, fr.regs)
		result, err := vm.runCaptured(plan.GuardFunc, captures)
		if err != nil {
			return false, err
		}
		return truthy(result), nil

	default:
		return false, nil
	}
}
