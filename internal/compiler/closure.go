package compiler

import (
	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
)

// compileFuncLit lowers a function/lambda literal to a nested Proto and
// emits MakeClosure in the enclosing function, mirroring funxy's
// compileFunctionLiteral (compiler.go): a fresh Compiler compiles the
// body against its own register file, then the parent references it by
// Protos index.
func (c *Compiler) compileFuncLit(n *ast.FuncLit) (uint16, error) {
	proto, err := c.compileProto(n)
	if err != nil {
		return 0, err
	}
	protoIdx := uint16(len(c.fn.Protos))
	c.fn.Protos = append(c.fn.Protos, proto)
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.MakeClosure, A: dst, B: protoIdx})
	return dst, nil
}

// compileProto compiles one function literal's body into a *bytecode.Proto,
// including named-parameter default thunks.
func (c *Compiler) compileProto(n *ast.FuncLit) (*bytecode.Proto, error) {
	nested := newNested(n.SelfName, c)
	if nested.fn.Name == "" {
		nested.fn.Name = "<lambda>"
	}

	var posParams []string
	var namedLayout []bytecode.NamedParamLayout
	var defaults []*bytecode.Function
	var selfReg uint16

	if n.SelfName != "" {
		selfReg = nested.alloc()
		nested.defineLocal(n.SelfName, selfReg)
	}

	for _, p := range n.Params {
		reg := nested.alloc()
		nested.defineLocal(p.Name, reg)
		if p.Named {
			defIdx := int32(-1)
			if p.Default != nil {
				defFn, err := nested.compileDefaultThunk(p.Default)
				if err != nil {
					return nil, err
				}
				defIdx = int32(len(defaults))
				defaults = append(defaults, defFn)
			}
			namedLayout = append(namedLayout, bytecode.NamedParamLayout{
				NameConstIdx: uint32(nested.addStrConst(p.Name)),
				DestReg:      reg,
				DefaultIndex: defIdx,
				Optional:     p.Optional,
			})
			nested.fn.NamedParamRegs = append(nested.fn.NamedParamRegs, reg)
		} else {
			posParams = append(posParams, p.Name)
			nested.fn.ParamRegs = append(nested.fn.ParamRegs, reg)
		}
		if p.Pattern != nil {
			if err := nested.compileParamPattern(p.Pattern, reg); err != nil {
				return nil, err
			}
		}
	}

	if err := nested.compileFunctionBody(n.Body); err != nil {
		return nil, err
	}
	nested.fn.NamedParamLayout = namedLayout
	nested.fn.NRegs = nested.regHighWater
	if err := nested.fn.Validate(); err != nil {
		return nil, err
	}

	return &bytecode.Proto{
		SelfName:     n.SelfName,
		SelfReg:      selfReg,
		Params:       posParams,
		NamedParams:  namedLayout,
		DefaultFuncs: defaults,
		Body:         nested.fn,
		Captures:     nested.captures,
	}, nil
}

// compileDefaultThunk compiles a named parameter's default expression as
// its own zero-argument Function, re-seeded at call time with the
// already-bound earlier parameters the default expression may reference
// (spec.md §3.3 "named parameter defaults"): since the thunk is compiled
// as a nested Compiler of the parameter function, earlier parameters
// resolve through the normal capture chain.
func (c *Compiler) compileDefaultThunk(expr ast.Expression) (*bytecode.Function, error) {
	thunk := newNested("<default>", c)
	dst, err := thunk.compileExpr(expr)
	if err != nil {
		return nil, err
	}
	thunk.emit(bytecode.Instruction{Op: bytecode.Ret, A: dst})
	thunk.fn.NRegs = thunk.regHighWater
	thunk.fn.Captures = thunk.captures
	if err := thunk.fn.Validate(); err != nil {
		return nil, err
	}
	return thunk.fn, nil
}

// compileParamPattern destructures a parameter register against its
// declared Pattern immediately on function entry, raising if it fails to
// match (spec.md §3.3 "pattern parameters").
func (c *Compiler) compileParamPattern(p ast.Pattern, reg uint16) error {
	planIdx, err := c.internPattern(p)
	if err != nil {
		return err
	}
	c.emit(bytecode.Instruction{Op: bytecode.PatternMatchOrFail, A: reg, PatternPlan: planIdx})
	return nil
}
