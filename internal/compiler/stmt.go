package compiler

import (
	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// compileBlock lowers a statement sequence purely for effect (no block
// value production); see compileBlockInto for the expression-form variant
// used by if/match bodies that should yield the trailing expression.
func (c *Compiler) compileBlock(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// compileFunctionBody lowers a function body's statement sequence,
// implicitly returning the value of a trailing bare expression statement
// (matching the teacher's own last-expression-is-the-return-value
// convention) and falling back to an explicit `Ret Nil` when the block is
// empty or its last statement is not an expression (an explicit
// ast.ReturnStmt mid-body already emits its own Ret and makes the
// fallthrough unreachable).
func (c *Compiler) compileFunctionBody(stmts []ast.Statement) error {
	for i, s := range stmts {
		if i == len(stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				r, err := c.compileExpr(es.X)
				if err != nil {
					return err
				}
				c.emit(bytecode.Instruction{Op: bytecode.Ret, A: r})
				return nil
			}
		}
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	r := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addConst(value.NilType{})})
	c.emit(bytecode.Instruction{Op: bytecode.Ret, A: r})
	return nil
}

func (c *Compiler) compileStmt(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		mark := c.mark()
		if _, err := c.compileExpr(n.X); err != nil {
			return err
		}
		c.reset(mark)
		return nil
	case *ast.ConstDecl:
		return c.compileConstDecl(n)
	case *ast.VarDecl:
		return c.compileVarDecl(n)
	case *ast.AssignStmt:
		return c.compileAssign(n)
	case *ast.ReturnStmt:
		return c.compileReturn(n)
	case *ast.BreakStmt:
		return c.compileBreak(n)
	case *ast.ContinueStmt:
		return c.compileContinue(n)
	case *ast.RaiseStmt:
		return c.compileRaise(n)
	case *ast.IfStmt:
		return c.compileIfStmt(n)
	case *ast.ForRangeStmt:
		return c.compileForRange(n)
	case *ast.ForInStmt:
		return c.compileForIn(n)
	case *ast.WhileLetStmt:
		return c.compileWhileLet(n)
	case *ast.FuncDecl:
		return c.compileFuncDecl(n)
	case *ast.TraitDecl:
		return c.compileTraitDecl(n)
	case *ast.ImplDecl:
		return c.compileImplDecl(n)
	default:
		return c.errf(s.Pos(), "unsupported statement %T", s)
	}
}

func (c *Compiler) compileConstDecl(n *ast.ConstDecl) error {
	if n.Pattern != nil {
		reg, err := c.compileExpr(n.Value)
		if err != nil {
			return err
		}
		planIdx, err := c.internPattern(n.Pattern)
		if err != nil {
			return err
		}
		matched := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.PatternMatch, A: matched, B: reg, PatternPlan: planIdx})
		failJump := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: matched})
		okJump := c.emitJump(bytecode.Instruction{Op: bytecode.Jmp})
		c.patchHere(failJump)
		c.raiseConst("pattern did not match in const declaration")
		c.patchHere(okJump)
		return nil
	}
	reg := c.alloc()
	if err := c.compileInto(n.Value, reg); err != nil {
		return err
	}
	c.defineLocal(n.Name, reg)
	return nil
}

func (c *Compiler) compileVarDecl(n *ast.VarDecl) error {
	reg := c.alloc()
	if err := c.compileInto(n.Value, reg); err != nil {
		return err
	}
	c.defineLocal(n.Name, reg)
	return nil
}

// compileAssign lowers `target = value`. Since List/Map/Object are
// immutable copy-on-write records (spec.md §3.1), `x.field = v` and
// `x[i] = v` do not mutate anything in place: they compute a new
// List/Map/Object and then rebind whatever storage location `x` itself
// came from, recursively through assignTo — the same way evaluating
// `a.b.c = v` means "rebind a to a copy of a with b replaced by a copy of
// b with c replaced by v".
func (c *Compiler) compileAssign(n *ast.AssignStmt) error {
	switch target := n.Target.(type) {
	case *ast.AccessExpr:
		x, err := c.compileExpr(target.X)
		if err != nil {
			return err
		}
		val, err := c.compileExpr(n.Value)
		if err != nil {
			return err
		}
		updated := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.AccessK, A: updated, B: x, C: val, K: c.addStrConst(target.Field), Imm: 1})
		return c.assignTo(target.X, updated)
	case *ast.IndexExpr:
		x, err := c.compileExpr(target.X)
		if err != nil {
			return err
		}
		idx, err := c.compileExpr(target.Index)
		if err != nil {
			return err
		}
		val, err := c.compileExpr(n.Value)
		if err != nil {
			return err
		}
		updated := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.Index, A: updated, B: x, C: idx, K: val, Imm: 1})
		return c.assignTo(target.X, updated)
	default:
		valReg, err := c.compileExpr(n.Value)
		if err != nil {
			return err
		}
		return c.assignTo(n.Target, valReg)
	}
}

// assignTo rebinds target's storage to the value already held in valReg.
func (c *Compiler) assignTo(target ast.Expression, valReg uint16) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if reg, ok := c.resolveLocal(t.Name); ok {
			c.emit(bytecode.Instruction{Op: bytecode.Move, A: reg, B: valReg})
			return nil
		}
		if reg, ok := c.resolveCapture(t.Name); ok {
			c.emit(bytecode.Instruction{Op: bytecode.Move, A: reg, B: valReg})
			return nil
		}
		c.emit(bytecode.Instruction{Op: bytecode.DefineGlobal, A: valReg, K: c.addStrConst(t.Name)})
		return nil
	case *ast.AccessExpr:
		x, err := c.compileExpr(t.X)
		if err != nil {
			return err
		}
		updated := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.AccessK, A: updated, B: x, C: valReg, K: c.addStrConst(t.Field), Imm: 1})
		return c.assignTo(t.X, updated)
	case *ast.IndexExpr:
		x, err := c.compileExpr(t.X)
		if err != nil {
			return err
		}
		idx, err := c.compileExpr(t.Index)
		if err != nil {
			return err
		}
		updated := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.Index, A: updated, B: x, C: idx, K: valReg, Imm: 1})
		return c.assignTo(t.X, updated)
	default:
		return c.errf(target.Pos(), "invalid assignment target %T", target)
	}
}

func (c *Compiler) compileReturn(n *ast.ReturnStmt) error {
	if n.Value == nil {
		r := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addConst(value.NilType{})})
		c.emit(bytecode.Instruction{Op: bytecode.Ret, A: r})
		return nil
	}
	r, err := c.compileExpr(n.Value)
	if err != nil {
		return err
	}
	c.emit(bytecode.Instruction{Op: bytecode.Ret, A: r})
	return nil
}

// compileBreak/compileContinue lower to plain backpatched Jmp
// instructions appended to the innermost loopCtx's pending-jump lists,
// rather than to the ISA's own Break/Continue opcodes. Those opcodes
// exist (and are decoded/validated by internal/lkrb and
// bytecode.Function.Validate) for forward compatibility with a future
// non-structured-jump VM dispatch, but this compiler never emits them —
// a deliberate simplification over funxy's compiler_loops.go, which
// patches its own byte-offset break/continue lists the same way this one
// patches instruction-index ones.
func (c *Compiler) compileBreak(n *ast.BreakStmt) error {
	if len(c.loopStack) == 0 {
		return c.errf(n.Pos(), "break outside a loop")
	}
	top := len(c.loopStack) - 1
	j := c.emitJump(bytecode.Instruction{Op: bytecode.Jmp})
	c.loopStack[top].breakJumps = append(c.loopStack[top].breakJumps, j)
	return nil
}

func (c *Compiler) compileContinue(n *ast.ContinueStmt) error {
	if len(c.loopStack) == 0 {
		return c.errf(n.Pos(), "continue outside a loop")
	}
	top := len(c.loopStack) - 1
	j := c.emitJump(bytecode.Instruction{Op: bytecode.Jmp})
	c.loopStack[top].continueJumps = append(c.loopStack[top].continueJumps, j)
	return nil
}

func (c *Compiler) compileRaise(n *ast.RaiseStmt) error {
	r, err := c.compileExpr(n.Value)
	if err != nil {
		return err
	}
	c.emit(bytecode.Instruction{Op: bytecode.Raise, A: r})
	return nil
}

func (c *Compiler) compileIfStmt(n *ast.IfStmt) error {
	cond, err := c.compileExpr(n.Cond)
	if err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: cond})
	mark := c.mark()
	c.beginScope()
	if err := c.compileBlock(n.Then); err != nil {
		return err
	}
	c.endScope(mark)
	if n.Else == nil {
		c.patchHere(elseJump)
		return nil
	}
	endJump := c.emitJump(bytecode.Instruction{Op: bytecode.Jmp})
	c.patchHere(elseJump)
	mark2 := c.mark()
	c.beginScope()
	if err := c.compileBlock(n.Else); err != nil {
		return err
	}
	c.endScope(mark2)
	c.patchHere(endJump)
	return nil
}

// compileForRange lowers a range-for loop to the fused
// ForRangePrep/ForRangeLoop/ForRangeStep triple (spec.md §4.2 "range-for
// state machine"): Prep copies the low bound into the counter register
// (the limit and step registers are filled by ordinary code before it),
// Loop tests and branches, Step advances and jumps back.
func (c *Compiler) compileForRange(n *ast.ForRangeStmt) error {
	mark := c.mark()
	c.beginScope()
	defer c.endScope(mark)

	low, err := c.compileExpr(n.Low)
	if err != nil {
		return err
	}
	high, err := c.compileExpr(n.High)
	if err != nil {
		return err
	}
	var step uint16
	if n.Step != nil {
		step, err = c.compileExpr(n.Step)
		if err != nil {
			return err
		}
	} else {
		// No explicit step: infer direction at runtime from low/high
		// rather than assuming ascending (low/high need not be
		// compile-time constants). low <= high picks +1, otherwise -1.
		step = c.alloc()
		cmp := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.CmpLe, A: cmp, B: low, C: high})
		descJump := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: cmp})
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: step, K: c.addConst(value.Int(1))})
		doneJump := c.emitJump(bytecode.Instruction{Op: bytecode.Jmp})
		c.patchHere(descJump)
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: step, K: c.addConst(value.Int(-1))})
		c.patchHere(doneJump)
	}
	var inclusiveImm int8
	if n.Inclusive {
		inclusiveImm = 1
	}
	counter := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.ForRangePrep, A: counter, B: low, C: high})
	c.defineLocal(n.VarName, counter)

	loopStart := c.here()
	testJump := c.emitJump(bytecode.Instruction{Op: bytecode.ForRangeLoop, A: counter, B: high, C: step, Imm: inclusiveImm})

	c.loopStack = append(c.loopStack, loopCtx{regMark: c.mark()})
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	lc := c.loopStack[len(c.loopStack)-1]
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	for _, j := range lc.continueJumps {
		c.patchTo(j, c.here())
	}

	stepJump := c.emitJump(bytecode.Instruction{Op: bytecode.ForRangeStep, A: counter, B: step})
	c.patchTo(stepJump, loopStart)
	c.patchHere(testJump)
	for _, j := range lc.breakJumps {
		c.patchTo(j, c.here())
	}
	return nil
}

// compileForIn lowers a for-in loop over an arbitrary iterable: ToIter
// normalizes X to an indexable cursor value, then the loop walks it by
// position using Len/Index — the same traversal a range-for over
// `0..Len(x)` would compile to, just with ToIter's normalization step
// first so non-list iterables (e.g. streams) participate too (spec.md
// §4.1 "for-in over iterables").
func (c *Compiler) compileForIn(n *ast.ForInStmt) error {
	mark := c.mark()
	c.beginScope()
	defer c.endScope(mark)

	iterable, err := c.compileExpr(n.Iterable)
	if err != nil {
		return err
	}
	iter := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.ToIter, A: iter, B: iterable})
	length := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.Len, A: length, B: iter})
	idx := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: idx, K: c.addConst(value.Int(0))})

	loopStart := c.here()
	cond := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.CmpLt, A: cond, B: idx, C: length})
	exitJump := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: cond})

	item := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.Index, A: item, B: iter, C: idx})
	c.defineLocal(n.VarName, item)

	c.loopStack = append(c.loopStack, loopCtx{regMark: c.mark()})
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	lc := c.loopStack[len(c.loopStack)-1]
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	for _, j := range lc.continueJumps {
		c.patchTo(j, c.here())
	}

	c.emit(bytecode.Instruction{Op: bytecode.AddIntImm, A: idx, B: idx, Imm: 1})
	c.emit(bytecode.Instruction{Op: bytecode.Jmp, Jump: uint32(loopStart)})
	c.patchHere(exitJump)
	for _, j := range lc.breakJumps {
		c.patchTo(j, c.here())
	}
	return nil
}

// compileWhileLet lowers `while let Pattern = Subject { Body }` as a
// re-test loop: every iteration re-evaluates Subject, matches it against
// Pattern, uses the match result register as the loop's test and exits on
// the first mismatch. The same lowering is used for every Subject shape;
// no prefix-scan tail is synthesized, so the loop never advances Subject
// itself (e.g. by slicing off a head element) between iterations.
func (c *Compiler) compileWhileLet(n *ast.WhileLetStmt) error {
	mark := c.mark()
	c.beginScope()
	defer c.endScope(mark)

	loopStart := c.here()
	subject, err := c.compileExpr(n.Subject)
	if err != nil {
		return err
	}
	planIdx, err := c.internPattern(n.Pattern)
	if err != nil {
		return err
	}
	matched := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.PatternMatch, A: matched, B: subject, PatternPlan: planIdx})
	exitJump := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: matched})

	c.loopStack = append(c.loopStack, loopCtx{regMark: c.mark()})
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	lc := c.loopStack[len(c.loopStack)-1]
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	for _, j := range lc.continueJumps {
		c.patchTo(j, c.here())
	}

	c.emit(bytecode.Instruction{Op: bytecode.Jmp, Jump: uint32(loopStart)})
	c.patchHere(exitJump)
	for _, j := range lc.breakJumps {
		c.patchTo(j, c.here())
	}
	return nil
}

func (c *Compiler) compileFuncDecl(n *ast.FuncDecl) error {
	if n.Fn.SelfName == "" {
		n.Fn.SelfName = n.Name
	}
	reg := c.alloc()
	c.defineLocal(n.Name, reg)
	return c.compileInto(n.Fn, reg)
}

// compileTraitDecl lowers a trait declaration to a call of the
// `__lkr_register_trait` builtin carrying the trait name and its method
// name list (ast.TraitDecl doc comment, SPEC_FULL §4.1).
func (c *Compiler) compileTraitDecl(n *ast.TraitDecl) error {
	argBase := c.allocN(1 + len(n.Methods))
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: argBase, K: c.addStrConst(n.Name)})
	for i, m := range n.Methods {
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: argBase + 1 + uint16(i), K: c.addStrConst(m)})
	}
	fnReg := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadGlobal, A: fnReg, K: c.addStrConst("__lkr_register_trait")})
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.Call, A: dst, B: fnReg, C: argBase, Argc: uint16(1 + len(n.Methods))})
	return nil
}

// compileImplDecl lowers a trait implementation to a call of the
// `__lkr_register_trait_impl` builtin: trait name, type name, then
// method-name/closure pairs.
func (c *Compiler) compileImplDecl(n *ast.ImplDecl) error {
	names := sortedMethodNames(n.Methods)
	argBase := c.allocN(2 + len(names)*2)
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: argBase, K: c.addStrConst(n.TraitName)})
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: argBase + 1, K: c.addStrConst(n.TypeName)})
	for i, name := range names {
		nameReg := argBase + 2 + uint16(i*2)
		fnReg := nameReg + 1
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: nameReg, K: c.addStrConst(name)})
		if err := c.compileInto(n.Methods[name], fnReg); err != nil {
			return err
		}
	}
	fnReg := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadGlobal, A: fnReg, K: c.addStrConst("__lkr_register_trait_impl")})
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.Call, A: dst, B: fnReg, C: argBase, Argc: uint16(2 + len(names)*2)})
	return nil
}

func sortedMethodNames(methods map[string]*ast.FuncLit) []string {
	names := make([]string, 0, len(methods))
	for k := range methods {
		names = append(names, k)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
