package compiler

import (
	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// internPattern lowers p to a *bytecode.PatternPlan and appends it to the
// owning Function's PatternPlans table, returning its index. Bound names
// resolve to the registers already live at the match site — the caller
// (compileMatch/compileParamPattern/compileWhileLet) is responsible for
// pre-allocating one register per pattern variable before calling this,
// since the plan's Slot fields are absolute register indices, not a
// private slot space (spec.md §4.1 "Pattern plans").
func (c *Compiler) internPattern(p ast.Pattern) (uint32, error) {
	plan, err := c.buildPatternPlan(p)
	if err != nil {
		return 0, err
	}
	idx := uint32(len(c.fn.PatternPlans))
	c.fn.PatternPlans = append(c.fn.PatternPlans, plan)
	return idx, nil
}

func (c *Compiler) buildPatternPlan(p ast.Pattern) (*bytecode.PatternPlan, error) {
	switch n := p.(type) {
	case *ast.WildcardPattern:
		return &bytecode.PatternPlan{Kind: bytecode.PatternWildcard}, nil

	case *ast.VariablePattern:
		reg, ok := c.resolveLocal(n.Name)
		if !ok {
			reg = c.alloc()
			c.defineLocal(n.Name, reg)
		}
		return &bytecode.PatternPlan{Kind: bytecode.PatternVariable, Slot: reg}, nil

	case *ast.LiteralPattern:
		v, err := c.constExprValue(n.Value)
		if err != nil {
			return nil, err
		}
		return &bytecode.PatternPlan{Kind: bytecode.PatternLiteral, Literal: v}, nil

	case *ast.RangePattern:
		lo, err := c.constExprValue(n.Low)
		if err != nil {
			return nil, err
		}
		hi, err := c.constExprValue(n.High)
		if err != nil {
			return nil, err
		}
		return &bytecode.PatternPlan{Kind: bytecode.PatternRange, Low: lo, High: hi}, nil

	case *ast.ListPattern:
		elems := make([]*bytecode.PatternPlan, len(n.Elems))
		for i, ep := range n.Elems {
			sub, err := c.buildPatternPlan(ep)
			if err != nil {
				return nil, err
			}
			elems[i] = sub
		}
		plan := &bytecode.PatternPlan{Kind: bytecode.PatternList, Elems: elems}
		if n.Rest != "" {
			reg := c.alloc()
			c.defineLocal(n.Rest, reg)
			plan.HasRest = true
			plan.RestSlot = reg
		}
		return plan, nil

	case *ast.MapPattern:
		entries := make(map[string]*bytecode.PatternPlan, len(n.Entries))
		for k, ep := range n.Entries {
			sub, err := c.buildPatternPlan(ep)
			if err != nil {
				return nil, err
			}
			entries[k] = sub
		}
		plan := &bytecode.PatternPlan{Kind: bytecode.PatternMap, Entries: entries}
		if n.Rest != "" {
			reg := c.alloc()
			c.defineLocal(n.Rest, reg)
			plan.HasRest = true
			plan.RestSlot = reg
		}
		return plan, nil

	case *ast.OrPattern:
		alts := make([]*bytecode.PatternPlan, len(n.Alternatives))
		for i, ap := range n.Alternatives {
			sub, err := c.buildPatternPlan(ap)
			if err != nil {
				return nil, err
			}
			alts[i] = sub
		}
		return &bytecode.PatternPlan{Kind: bytecode.PatternOr, Alternatives: alts}, nil

	case *ast.GuardPattern:
		inner, err := c.buildPatternPlan(n.Inner)
		if err != nil {
			return nil, err
		}
		guardFn, err := c.compileGuardFunc(n.Guard)
		if err != nil {
			return nil, err
		}
		return &bytecode.PatternPlan{Kind: bytecode.PatternGuard, Inner: inner, GuardFunc: guardFn}, nil

	default:
		return nil, c.errf(p.Pos(), "unsupported pattern %T", p)
	}
}

// compileGuardFunc compiles a pattern guard expression as its own
// zero-argument Function: the VM re-enters it with the pattern's
// already-bound variables visible as captures, the same "materialize
// into the nested function's own registers" scheme compileFuncLit uses
// for ordinary closures.
func (c *Compiler) compileGuardFunc(guard ast.Expression) (*bytecode.Function, error) {
	nested := newNested("<guard>", c)
	dst, err := nested.compileExpr(guard)
	if err != nil {
		return nil, err
	}
	nested.emit(bytecode.Instruction{Op: bytecode.Ret, A: dst})
	nested.fn.NRegs = nested.regHighWater
	nested.fn.Captures = nested.captures
	if err := nested.fn.Validate(); err != nil {
		return nil, err
	}
	return nested.fn, nil
}

// constExprValue evaluates an expression that must be a compile-time
// constant (pattern literals/range bounds): scalar literals and a
// negated numeric literal.
func (c *Compiler) constExprValue(e ast.Expression) (value.Value, error) {
	switch n := e.(type) {
	case *ast.NilLit:
		return value.NilType{}, nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.IntLit:
		return value.Int(n.Value), nil
	case *ast.FloatLit:
		return value.Float(n.Value), nil
	case *ast.StringLit:
		return value.Str(n.Value), nil
	case *ast.UnaryExpr:
		if n.Op != "-" {
			return nil, c.errf(e.Pos(), "non-constant pattern expression")
		}
		inner, err := c.constExprValue(n.X)
		if err != nil {
			return nil, err
		}
		switch v := inner.(type) {
		case value.Int:
			return -v, nil
		case value.Float:
			return -v, nil
		default:
			return nil, c.errf(e.Pos(), "cannot negate non-numeric constant")
		}
	default:
		return nil, c.errf(e.Pos(), "non-constant pattern expression")
	}
}
