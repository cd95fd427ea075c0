package compiler

import (
	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// compileExpr lowers e, leaving its result in a freshly allocated register
// which it returns. Grounded on funxy's compiler_expressions.go's
// recursive compileExpression dispatch, switched from stack pushes to
// explicit destination registers.
func (c *Compiler) compileExpr(e ast.Expression) (uint16, error) {
	switch n := e.(type) {
	case *ast.NilLit:
		r := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addConst(value.NilType{})})
		return r, nil
	case *ast.BoolLit:
		r := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addConst(value.Bool(n.Value))})
		return r, nil
	case *ast.IntLit:
		r := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addConst(value.Int(n.Value))})
		return r, nil
	case *ast.FloatLit:
		r := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addConst(value.Float(n.Value))})
		return r, nil
	case *ast.StringLit:
		r := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addStrConst(n.Value)})
		return r, nil
	case *ast.Identifier:
		return c.compileIdentifier(n)
	case *ast.ListLit:
		return c.compileListLit(n)
	case *ast.MapLit:
		return c.compileMapLit(n)
	case *ast.StructLit:
		return c.compileStructLit(n)
	case *ast.UnaryExpr:
		return c.compileUnary(n)
	case *ast.BinaryExpr:
		return c.compileBinary(n)
	case *ast.CallExpr:
		return c.compileCall(n)
	case *ast.AccessExpr:
		return c.compileAccess(n)
	case *ast.IndexExpr:
		return c.compileIndex(n)
	case *ast.SliceExpr:
		return c.compileSlice(n)
	case *ast.FuncLit:
		return c.compileFuncLit(n)
	case *ast.MatchExpr:
		return c.compileMatch(n)
	case *ast.IfExpr:
		return c.compileIfExpr(n)
	default:
		return 0, c.errf(e.Pos(), "unsupported expression %T", e)
	}
}

// compileInto lowers e and ensures its value lands exactly in dst,
// emitting a trailing Move only when compileExpr picked a different
// register (used by call/return sites that must target a specific slot).
func (c *Compiler) compileInto(e ast.Expression, dst uint16) error {
	mark := c.mark()
	r, err := c.compileExpr(e)
	if err != nil {
		return err
	}
	if r != dst {
		c.emit(bytecode.Instruction{Op: bytecode.Move, A: dst, B: r})
	}
	c.reset(mark)
	if dst >= c.nextReg {
		c.nextReg = dst + 1
		if c.nextReg > c.regHighWater {
			c.regHighWater = c.nextReg
		}
	}
	return nil
}

func (c *Compiler) compileIdentifier(id *ast.Identifier) (uint16, error) {
	if r, ok := c.resolveLocal(id.Name); ok {
		return r, nil
	}
	if r, ok := c.resolveCapture(id.Name); ok {
		return r, nil
	}
	r := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadGlobal, A: r, K: c.addStrConst(id.Name)})
	return r, nil
}

func (c *Compiler) compileListLit(n *ast.ListLit) (uint16, error) {
	base := c.allocN(len(n.Elems))
	for i, el := range n.Elems {
		if err := c.compileInto(el, base+uint16(i)); err != nil {
			return 0, err
		}
	}
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.BuildList, A: dst, B: base, C: uint16(len(n.Elems))})
	return dst, nil
}

func (c *Compiler) compileMapLit(n *ast.MapLit) (uint16, error) {
	base := c.allocN(len(n.Keys) * 2)
	for i := range n.Keys {
		if err := c.compileInto(n.Keys[i], base+uint16(i*2)); err != nil {
			return 0, err
		}
		if err := c.compileInto(n.Values[i], base+uint16(i*2+1)); err != nil {
			return 0, err
		}
	}
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.BuildMap, A: dst, B: base, C: uint16(len(n.Keys))})
	return dst, nil
}

// compileStructLit lowers `Type{field: value, ...}` to a call of the
// `__lkr_make_struct` builtin: type name, then field-name/value pairs,
// mirroring how impl/trait declarations lower to similarly-named builtin
// calls (ast.StructLit doc comment, SPEC_FULL §4.1).
func (c *Compiler) compileStructLit(n *ast.StructLit) (uint16, error) {
	names := sortedFieldNames(n.Fields)
	argBase := c.allocN(1 + len(names)*2)
	typeReg := argBase
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: typeReg, K: c.addStrConst(n.TypeName)})
	for i, name := range names {
		keyReg := argBase + 1 + uint16(i*2)
		valReg := keyReg + 1
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: keyReg, K: c.addStrConst(name)})
		if err := c.compileInto(n.Fields[name], valReg); err != nil {
			return 0, err
		}
	}
	fnReg := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadGlobal, A: fnReg, K: c.addStrConst("__lkr_make_struct")})
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.Call, A: dst, B: fnReg, C: argBase, Argc: uint16(1 + len(names)*2)})
	return dst, nil
}

func sortedFieldNames(fields map[string]ast.Expression) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

func (c *Compiler) compileUnary(n *ast.UnaryExpr) (uint16, error) {
	x, err := c.compileExpr(n.X)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	switch n.Op {
	case "!":
		c.emit(bytecode.Instruction{Op: bytecode.Not, A: dst, B: x})
	case "-":
		zero := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: zero, K: c.addConst(value.Int(0))})
		c.emit(bytecode.Instruction{Op: bytecode.Sub, A: dst, B: zero, C: x})
	default:
		return 0, c.errf(n.Pos(), "unsupported unary operator %q", n.Op)
	}
	return dst, nil
}

// binOpcode maps a surface operator to its polymorphic opcode; the
// type-specialized Int/Float opcodes (AddInt, etc.) are not emitted by
// this compiler or by any later pass — it always emits the polymorphic
// form, per the register-operand convention worked out for component C4.
var binOpcode = map[string]bytecode.Opcode{
	"+":  bytecode.Add,
	"-":  bytecode.Sub,
	"*":  bytecode.Mul,
	"/":  bytecode.Div,
	"%":  bytecode.Mod,
	"==": bytecode.CmpEq,
	"!=": bytecode.CmpNe,
	"<":  bytecode.CmpLt,
	"<=": bytecode.CmpLe,
	">":  bytecode.CmpGt,
	">=": bytecode.CmpGe,
	"in": bytecode.In,
}

func (c *Compiler) compileBinary(n *ast.BinaryExpr) (uint16, error) {
	switch n.Op {
	case "&&":
		return c.compileAnd(n)
	case "||":
		return c.compileOr(n)
	case "??":
		return c.compileNullish(n)
	}
	op, ok := binOpcode[n.Op]
	if !ok {
		return 0, c.errf(n.Pos(), "unsupported binary operator %q", n.Op)
	}
	x, err := c.compileExpr(n.X)
	if err != nil {
		return 0, err
	}
	y, err := c.compileExpr(n.Y)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: op, A: dst, B: x, C: y})
	return dst, nil
}

// compileAnd lowers `x && y` via JmpFalseSet: evaluate x into dst; if
// falsy, short-circuit leaving x's (falsy) value in dst and skip y;
// otherwise evaluate y into its own register and materialize the result
// through ToBool, per spec.md §4.1's literal lowering ("evaluate b into
// r2; ToBool(out, r2)") — a truthy non-bool right-hand value (`5`, a
// string) must still come out as a strict Bool, not the raw value.
func (c *Compiler) compileAnd(n *ast.BinaryExpr) (uint16, error) {
	dst := c.alloc()
	if err := c.compileInto(n.X, dst); err != nil {
		return 0, err
	}
	skip := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalseSet, A: dst})
	r2, err := c.compileExpr(n.Y)
	if err != nil {
		return 0, err
	}
	c.emit(bytecode.Instruction{Op: bytecode.ToBool, A: dst, B: r2})
	c.patchHere(skip)
	return dst, nil
}

// compileOr lowers `x || y` via JmpTrueSet, the mirror image of compileAnd.
func (c *Compiler) compileOr(n *ast.BinaryExpr) (uint16, error) {
	dst := c.alloc()
	if err := c.compileInto(n.X, dst); err != nil {
		return 0, err
	}
	skip := c.emitJump(bytecode.Instruction{Op: bytecode.JmpTrueSet, A: dst})
	r2, err := c.compileExpr(n.Y)
	if err != nil {
		return 0, err
	}
	c.emit(bytecode.Instruction{Op: bytecode.ToBool, A: dst, B: r2})
	c.patchHere(skip)
	return dst, nil
}

// compileNullish lowers `x ?? y` via NullishPick: if x is non-nil, keep
// it; otherwise evaluate and substitute y.
func (c *Compiler) compileNullish(n *ast.BinaryExpr) (uint16, error) {
	dst := c.alloc()
	if err := c.compileInto(n.X, dst); err != nil {
		return 0, err
	}
	skip := c.emitJump(bytecode.Instruction{Op: bytecode.NullishPick, A: dst})
	if err := c.compileInto(n.Y, dst); err != nil {
		return 0, err
	}
	c.patchHere(skip)
	return dst, nil
}

func (c *Compiler) compileCall(n *ast.CallExpr) (uint16, error) {
	fnReg, err := c.compileExpr(n.Fn)
	if err != nil {
		return 0, err
	}
	if len(n.NamedArgs) == 0 {
		argBase := c.allocN(len(n.Args))
		for i, a := range n.Args {
			if err := c.compileInto(a, argBase+uint16(i)); err != nil {
				return 0, err
			}
		}
		dst := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.Call, A: dst, B: fnReg, C: argBase, Argc: uint16(len(n.Args))})
		return dst, nil
	}
	argBase := c.allocN(len(n.Args) + len(n.NamedArgs)*2)
	for i, a := range n.Args {
		if err := c.compileInto(a, argBase+uint16(i)); err != nil {
			return 0, err
		}
	}
	namedStart := argBase + uint16(len(n.Args))
	for i, na := range n.NamedArgs {
		nameReg := namedStart + uint16(i*2)
		valReg := nameReg + 1
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: nameReg, K: c.addStrConst(na.Name)})
		if err := c.compileInto(na.Value, valReg); err != nil {
			return 0, err
		}
	}
	dst := c.alloc()
	c.emit(bytecode.Instruction{
		Op: bytecode.CallNamed, A: dst, B: fnReg, C: argBase,
		Argc: uint16(len(n.Args)), Namedc: uint16(len(n.NamedArgs)),
	})
	return dst, nil
}

func (c *Compiler) compileAccess(n *ast.AccessExpr) (uint16, error) {
	x, err := c.compileExpr(n.X)
	if err != nil {
		return 0, err
	}
	if n.Optional {
		dst := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.Move, A: dst, B: x})
		skip := c.emitJump(bytecode.Instruction{Op: bytecode.JmpIfNil, A: dst})
		c.emit(bytecode.Instruction{Op: bytecode.AccessK, A: dst, B: dst, K: c.addStrConst(n.Field)})
		c.patchHere(skip)
		return dst, nil
	}
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.AccessK, A: dst, B: x, K: c.addStrConst(n.Field)})
	return dst, nil
}

func (c *Compiler) compileIndex(n *ast.IndexExpr) (uint16, error) {
	x, err := c.compileExpr(n.X)
	if err != nil {
		return 0, err
	}
	idx, err := c.compileExpr(n.Index)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.Index, A: dst, B: x, C: idx})
	return dst, nil
}

// compileSlice lowers `x[low:high]`. An open bound is materialized as a
// Nil constant so ListSlice's C/K register operands are always valid
// registers; the VM treats a Nil low/high as "from start"/"to end"
// rather than needing a separate encoding for absent bounds.
func (c *Compiler) compileSlice(n *ast.SliceExpr) (uint16, error) {
	x, err := c.compileExpr(n.X)
	if err != nil {
		return 0, err
	}
	lowReg, err := c.compileBoundOrNil(n.Low)
	if err != nil {
		return 0, err
	}
	highReg, err := c.compileBoundOrNil(n.High)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.ListSlice, A: dst, B: x, C: lowReg, K: highReg})
	return dst, nil
}

func (c *Compiler) compileBoundOrNil(e ast.Expression) (uint16, error) {
	if e == nil {
		r := c.alloc()
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addConst(value.NilType{})})
		return r, nil
	}
	return c.compileExpr(e)
}

// compileIfExpr lowers the expression-form conditional: a bare `if` with
// no else yields Nil on the false branch.
func (c *Compiler) compileIfExpr(n *ast.IfExpr) (uint16, error) {
	dst := c.alloc()
	cond, err := c.compileExpr(n.Cond)
	if err != nil {
		return 0, err
	}
	elseJump := c.emitJump(bytecode.Instruction{Op: bytecode.JmpFalse, A: cond})
	if err := c.compileBlockInto(n.Then, dst); err != nil {
		return 0, err
	}
	endJump := c.emitJump(bytecode.Instruction{Op: bytecode.Jmp})
	c.patchHere(elseJump)
	if n.Else != nil {
		if err := c.compileBlockInto(n.Else, dst); err != nil {
			return 0, err
		}
	} else {
		c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: dst, K: c.addConst(value.NilType{})})
	}
	c.patchHere(endJump)
	return dst, nil
}

// compileBlockInto compiles stmts as an expression-producing block: every
// statement runs for effect except a trailing ExprStmt, whose value is
// moved into dst.
func (c *Compiler) compileBlockInto(stmts []ast.Statement, dst uint16) error {
	mark := c.mark()
	c.beginScope()
	defer c.endScope(mark)
	for i, s := range stmts {
		if i == len(stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				return c.compileInto(es.X, dst)
			}
		}
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: dst, K: c.addConst(value.NilType{})})
	return nil
}
