package compiler

import (
	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// compileMatch lowers a match expression: the subject is evaluated once,
// then each arm's PatternMatch is tried in turn; the first that succeeds
// (and whose guard, if any, is truthy) runs its body and jumps past the
// rest (spec.md §4.2 "pattern-match walk").
func (c *Compiler) compileMatch(n *ast.MatchExpr) (uint16, error) {
	subject, err := c.compileExpr(n.Subject)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()

	var endJumps []int
	for _, arm := range n.Arms {
		mark := c.mark()
		c.beginScope()

		planIdx, err := c.internPattern(arm.Pattern)
		if err != nil {
			return 0, err
		}
		matchedReg := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.PatternMatch, A: matchedReg, B: subject, PatternPlan: planIdx})
		nextArm := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: matchedReg})

		if arm.Guard != nil {
			guardReg, err := c.compileExpr(arm.Guard)
			if err != nil {
				return 0, err
			}
			guardFail := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: guardReg})
			if err := c.compileBlockInto(arm.Body, dst); err != nil {
				return 0, err
			}
			endJumps = append(endJumps, c.emitJump(bytecode.Instruction{Op: bytecode.Jmp}))
			c.patchHere(guardFail)
			c.patchHere(nextArm)
		} else {
			if err := c.compileBlockInto(arm.Body, dst); err != nil {
				return 0, err
			}
			endJumps = append(endJumps, c.emitJump(bytecode.Instruction{Op: bytecode.Jmp}))
			c.patchHere(nextArm)
		}

		c.endScope(mark)
	}
	// No arm matched: raise, per spec.md §4.1 non-exhaustive match errors.
	c.raiseConst("no match arm matched")
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: dst, K: c.addConst(value.NilType{})})

	for _, j := range endJumps {
		c.patchTo(j, c.here())
	}
	return dst, nil
}
