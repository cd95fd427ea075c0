package compiler

import (
	"testing"

	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
)

func mustCompile(t *testing.T, stmts []ast.Statement) *bytecode.Function {
	t.Helper()
	prog := &ast.Program{Statements: stmts}
	fn, err := CompileProgram(prog)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if err := fn.Validate(); err != nil {
		t.Fatalf("compiled function failed validation: %v", err)
	}
	return fn
}

func TestCompileArithmeticExpression(t *testing.T) {
	// const x = 1 + 2 * 3
	stmts := []ast.Statement{
		&ast.ConstDecl{
			Name: "x",
			Value: &ast.BinaryExpr{
				Op: "+",
				X:  &ast.IntLit{Value: 1},
				Y: &ast.BinaryExpr{
					Op: "*",
					X:  &ast.IntLit{Value: 2},
					Y:  &ast.IntLit{Value: 3},
				},
			},
		},
	}
	fn := mustCompile(t, stmts)
	var sawAdd, sawMul bool
	for _, ins := range fn.Code {
		if ins.Op == bytecode.Add {
			sawAdd = true
		}
		if ins.Op == bytecode.Mul {
			sawMul = true
		}
	}
	if !sawAdd || !sawMul {
		t.Fatalf("expected Add and Mul instructions in %v", fn.Code)
	}
}

func TestCompileIfElseExpression(t *testing.T) {
	// const y = if true { 1 } else { 2 }
	stmts := []ast.Statement{
		&ast.ConstDecl{
			Name: "y",
			Value: &ast.IfExpr{
				Cond: &ast.BoolLit{Value: true},
				Then: []ast.Statement{&ast.ExprStmt{X: &ast.IntLit{Value: 1}}},
				Else: []ast.Statement{&ast.ExprStmt{X: &ast.IntLit{Value: 2}}},
			},
		},
	}
	fn := mustCompile(t, stmts)
	var sawJmpFalse, sawJmp bool
	for _, ins := range fn.Code {
		if ins.Op == bytecode.JmpFalse {
			sawJmpFalse = true
		}
		if ins.Op == bytecode.Jmp {
			sawJmp = true
		}
	}
	if !sawJmpFalse || !sawJmp {
		t.Fatalf("expected JmpFalse and Jmp instructions, got %v", fn.Code)
	}
}

func TestCompileShortCircuitAnd(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ExprStmt{X: &ast.BinaryExpr{
			Op: "&&",
			X:  &ast.BoolLit{Value: true},
			Y:  &ast.BoolLit{Value: false},
		}},
	}
	fn := mustCompile(t, stmts)
	var saw bool
	for _, ins := range fn.Code {
		if ins.Op == bytecode.JmpFalseSet {
			saw = true
		}
	}
	if !saw {
		t.Fatalf("expected JmpFalseSet for &&, got %v", fn.Code)
	}
}

func TestCompileBreakOutsideLoopErrors(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{&ast.BreakStmt{}}}
	if _, err := CompileProgram(prog); err == nil {
		t.Fatal("expected error for break outside loop")
	}
}

func TestCompileForRangeLoop(t *testing.T) {
	// for i in 0..3 { }
	stmts := []ast.Statement{
		&ast.ForRangeStmt{
			VarName: "i",
			Low:     &ast.IntLit{Value: 0},
			High:    &ast.IntLit{Value: 3},
			Body:    nil,
		},
	}
	fn := mustCompile(t, stmts)
	var prep, loop, step bool
	for _, ins := range fn.Code {
		switch ins.Op {
		case bytecode.ForRangePrep:
			prep = true
		case bytecode.ForRangeLoop:
			loop = true
		case bytecode.ForRangeStep:
			step = true
		}
	}
	if !prep || !loop || !step {
		t.Fatalf("expected ForRangePrep/Loop/Step triple, got %v", fn.Code)
	}
}

func TestCompileForRangeBreakContinue(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ForRangeStmt{
			VarName: "i",
			Low:     &ast.IntLit{Value: 0},
			High:    &ast.IntLit{Value: 10},
			Body: []ast.Statement{
				&ast.IfStmt{
					Cond: &ast.BinaryExpr{Op: "==", X: &ast.Identifier{Name: "i"}, Y: &ast.IntLit{Value: 5}},
					Then: []ast.Statement{&ast.BreakStmt{}},
				},
				&ast.ContinueStmt{},
			},
		},
	}
	fn := mustCompile(t, stmts)
	if err := fn.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestCompileClosureCapture(t *testing.T) {
	// const adder = |x| { |y| { x + y } }
	inner := &ast.FuncLit{
		Params: []ast.Param{{Name: "y"}},
		Body: []ast.Statement{
			&ast.ExprStmt{X: &ast.BinaryExpr{Op: "+", X: &ast.Identifier{Name: "x"}, Y: &ast.Identifier{Name: "y"}}},
		},
	}
	outer := &ast.FuncLit{
		Params: []ast.Param{{Name: "x"}},
		Body:   []ast.Statement{&ast.ExprStmt{X: inner}},
	}
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "adder", Value: outer},
	}
	fn := mustCompile(t, stmts)
	if len(fn.Protos) != 1 {
		t.Fatalf("expected 1 top-level proto, got %d", len(fn.Protos))
	}
	innerProto := fn.Protos[0].Body.Protos
	if len(innerProto) != 1 {
		t.Fatalf("expected nested proto for inner lambda, got %d", len(innerProto))
	}
	if len(innerProto[0].Captures) != 1 {
		t.Fatalf("expected inner closure to capture 1 variable, got %d", len(innerProto[0].Captures))
	}
	if innerProto[0].Captures[0].Kind != bytecode.CaptureRegister {
		t.Fatalf("expected CaptureRegister, got %v", innerProto[0].Captures[0].Kind)
	}
}

func TestCompileMatchExpression(t *testing.T) {
	// match x { 1 -> "one", _ -> "other" }
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "x", Value: &ast.IntLit{Value: 1}},
		&ast.ExprStmt{X: &ast.MatchExpr{
			Subject: &ast.Identifier{Name: "x"},
			Arms: []ast.MatchArm{
				{Pattern: &ast.LiteralPattern{Value: &ast.IntLit{Value: 1}}, Body: []ast.Statement{&ast.ExprStmt{X: &ast.StringLit{Value: "one"}}}},
				{Pattern: &ast.WildcardPattern{}, Body: []ast.Statement{&ast.ExprStmt{X: &ast.StringLit{Value: "other"}}}},
			},
		}},
	}
	fn := mustCompile(t, stmts)
	if len(fn.PatternPlans) != 2 {
		t.Fatalf("expected 2 interned pattern plans, got %d", len(fn.PatternPlans))
	}
	var sawPatternMatch bool
	for _, ins := range fn.Code {
		if ins.Op == bytecode.PatternMatch {
			sawPatternMatch = true
		}
	}
	if !sawPatternMatch {
		t.Fatalf("expected PatternMatch instruction, got %v", fn.Code)
	}
}

func TestCompileListDestructuringConst(t *testing.T) {
	// const [head, ...tail] = [1, 2, 3]
	stmts := []ast.Statement{
		&ast.ConstDecl{
			Pattern: &ast.ListPattern{
				Elems: []ast.Pattern{&ast.VariablePattern{Name: "head"}},
				Rest:  "tail",
			},
			Value: &ast.ListLit{Elems: []ast.Expression{
				&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}, &ast.IntLit{Value: 3},
			}},
		},
	}
	fn := mustCompile(t, stmts)
	if len(fn.PatternPlans) != 1 {
		t.Fatalf("expected 1 pattern plan, got %d", len(fn.PatternPlans))
	}
	plan := fn.PatternPlans[0]
	if plan.Kind != bytecode.PatternList || !plan.HasRest {
		t.Fatalf("expected list pattern with rest, got %+v", plan)
	}
}

func TestCompileTraitImpl(t *testing.T) {
	stmts := []ast.Statement{
		&ast.TraitDecl{Name: "Show", Methods: []string{"show"}},
		&ast.ImplDecl{
			TraitName: "Show",
			TypeName:  "Point",
			Methods: map[string]*ast.FuncLit{
				"show": {Params: []ast.Param{{Name: "self"}}, Body: []ast.Statement{
					&ast.ExprStmt{X: &ast.StringLit{Value: "point"}},
				}},
			},
		},
	}
	fn := mustCompile(t, stmts)
	var calls int
	for _, ins := range fn.Code {
		if ins.Op == bytecode.Call {
			calls++
		}
	}
	if calls < 2 {
		t.Fatalf("expected at least 2 builtin calls (register_trait, register_trait_impl), got %d", calls)
	}
}
