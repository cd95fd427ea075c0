package vm

import (
	"testing"

	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/compiler"
	"github.com/lollipopkit/lkr/internal/context"
	"github.com/lollipopkit/lkr/internal/resolve"
	"github.com/lollipopkit/lkr/internal/value"
)

func mustRun(t *testing.T, stmts []ast.Statement) value.Value {
	t.Helper()
	fn, err := compiler.CompileProgram(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	v, err := New(context.New(nil)).Run(fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return v
}

func TestRunArithmeticExpression(t *testing.T) {
	// const x = 1 + 2 * 3; x
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
		&ast.ExprStmt{X: &ast.Identifier{Name: "x"}},
	}
	got := mustRun(t, stmts)
	if i, ok := got.(value.Int); !ok || i != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestRunIfExpression(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ExprStmt{X: &ast.IfExpr{
			Cond: &ast.BoolLit{Value: false},
			Then: []ast.Statement{&ast.ExprStmt{X: &ast.IntLit{Value: 1}}},
			Else: []ast.Statement{&ast.ExprStmt{X: &ast.IntLit{Value: 2}}},
		}},
	}
	got := mustRun(t, stmts)
	if i, ok := got.(value.Int); !ok || i != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestRunNestedClosureCapture(t *testing.T) {
	// const adder = |x| { |y| { x + y } }; adder(2)(3)
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
		&ast.ExprStmt{X: &ast.CallExpr{
			Fn:   &ast.CallExpr{Fn: &ast.Identifier{Name: "adder"}, Args: []ast.Expression{&ast.IntLit{Value: 2}}},
			Args: []ast.Expression{&ast.IntLit{Value: 3}},
		}},
	}
	got := mustRun(t, stmts)
	if i, ok := got.(value.Int); !ok || i != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestRunNamedParamDefault(t *testing.T) {
	// const greet = |name, named greeting = "hi"| { greeting }; greet("a")
	fn := &ast.FuncLit{
		Params: []ast.Param{
			{Name: "name"},
			{Name: "greeting", Named: true, Default: &ast.StringLit{Value: "hi"}},
		},
		Body: []ast.Statement{&ast.ExprStmt{X: &ast.Identifier{Name: "greeting"}}},
	}
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "greet", Value: fn},
		&ast.ExprStmt{X: &ast.CallExpr{
			Fn:   &ast.Identifier{Name: "greet"},
			Args: []ast.Expression{&ast.StringLit{Value: "a"}},
		}},
	}
	got := mustRun(t, stmts)
	if s, ok := got.(value.Str); !ok || s != "hi" {
		t.Fatalf("expected \"hi\", got %v", got)
	}
}

func TestRunNamedParamExplicitOverridesDefault(t *testing.T) {
	fn := &ast.FuncLit{
		Params: []ast.Param{
			{Name: "greeting", Named: true, Default: &ast.StringLit{Value: "hi"}},
		},
		Body: []ast.Statement{&ast.ExprStmt{X: &ast.Identifier{Name: "greeting"}}},
	}
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "greet", Value: fn},
		&ast.ExprStmt{X: &ast.CallExpr{
			Fn:        &ast.Identifier{Name: "greet"},
			NamedArgs: []ast.NamedArg{{Name: "greeting", Value: &ast.StringLit{Value: "yo"}}},
		}},
	}
	got := mustRun(t, stmts)
	if s, ok := got.(value.Str); !ok || s != "yo" {
		t.Fatalf("expected \"yo\", got %v", got)
	}
}

func TestRunForRangeAccumulates(t *testing.T) {
	// var sum = 0; for i in 0..5 { sum = sum + i }; sum
	stmts := []ast.Statement{
		&ast.VarDecl{Name: "sum", Value: &ast.IntLit{Value: 0}},
		&ast.ForRangeStmt{
			VarName: "i",
			Low:     &ast.IntLit{Value: 0},
			High:    &ast.IntLit{Value: 5},
			Body: []ast.Statement{
				&ast.AssignStmt{
					Target: &ast.Identifier{Name: "sum"},
					Value: &ast.BinaryExpr{
						Op: "+",
						X:  &ast.Identifier{Name: "sum"},
						Y:  &ast.Identifier{Name: "i"},
					},
				},
			},
		},
		&ast.ExprStmt{X: &ast.Identifier{Name: "sum"}},
	}
	got := mustRun(t, stmts)
	if i, ok := got.(value.Int); !ok || i != 10 {
		t.Fatalf("expected 10 (0+1+2+3+4), got %v", got)
	}
}

func TestRunMatchExpressionPicksArm(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "x", Value: &ast.IntLit{Value: 2}},
		&ast.ExprStmt{X: &ast.MatchExpr{
			Subject: &ast.Identifier{Name: "x"},
			Arms: []ast.MatchArm{
				{Pattern: &ast.LiteralPattern{Value: &ast.IntLit{Value: 1}}, Body: []ast.Statement{&ast.ExprStmt{X: &ast.StringLit{Value: "one"}}}},
				{Pattern: &ast.WildcardPattern{}, Body: []ast.Statement{&ast.ExprStmt{X: &ast.StringLit{Value: "other"}}}},
			},
		}},
	}
	got := mustRun(t, stmts)
	if s, ok := got.(value.Str); !ok || s != "other" {
		t.Fatalf("expected \"other\", got %v", got)
	}
}

func TestRunNonExhaustiveMatchRaises(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "x", Value: &ast.IntLit{Value: 9}},
		&ast.ExprStmt{X: &ast.MatchExpr{
			Subject: &ast.Identifier{Name: "x"},
			Arms: []ast.MatchArm{
				{Pattern: &ast.LiteralPattern{Value: &ast.IntLit{Value: 1}}, Body: []ast.Statement{&ast.ExprStmt{X: &ast.IntLit{Value: 1}}}},
			},
		}},
	}
	fn, err := compiler.CompileProgram(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	_, err = New(context.New(nil)).Run(fn)
	if err == nil {
		t.Fatal("expected a raised error for a non-exhaustive match")
	}
}

func TestRunListDestructuringWithRest(t *testing.T) {
	// const [head, ...tail] = [1, 2, 3]; head
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
		&ast.ExprStmt{X: &ast.Identifier{Name: "tail"}},
	}
	got := mustRun(t, stmts)
	list, ok := got.(*value.List)
	if !ok || list.Len() != 2 {
		t.Fatalf("expected a 2-element rest list, got %v", got)
	}
}

func TestRunFieldAssignmentProducesCopy(t *testing.T) {
	// const p = {x: 1}; p.x = 2; p.x
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "p", Value: &ast.MapLit{
			Keys:   []ast.Expression{&ast.StringLit{Value: "x"}},
			Values: []ast.Expression{&ast.IntLit{Value: 1}},
		}},
		&ast.AssignStmt{
			Target: &ast.AccessExpr{X: &ast.Identifier{Name: "p"}, Field: "x"},
			Value:  &ast.IntLit{Value: 2},
		},
		&ast.ExprStmt{X: &ast.AccessExpr{X: &ast.Identifier{Name: "p"}, Field: "x"}},
	}
	got := mustRun(t, stmts)
	if i, ok := got.(value.Int); !ok || i != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestRunRaiseStmtPropagates(t *testing.T) {
	stmts := []ast.Statement{
		&ast.RaiseStmt{Value: &ast.StringLit{Value: "boom"}},
	}
	fn, err := compiler.CompileProgram(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	_, err = New(context.New(nil)).Run(fn)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected raised error \"boom\", got %v", err)
	}
}

func TestRunRecursiveNamedClosure(t *testing.T) {
	// const fact = fact(n) { if n <= 1 { 1 } else { n * fact(n - 1) } }; fact(5)
	body := []ast.Statement{
		&ast.ExprStmt{X: &ast.IfExpr{
			Cond: &ast.BinaryExpr{Op: "<=", X: &ast.Identifier{Name: "n"}, Y: &ast.IntLit{Value: 1}},
			Then: []ast.Statement{&ast.ExprStmt{X: &ast.IntLit{Value: 1}}},
			Else: []ast.Statement{&ast.ExprStmt{X: &ast.BinaryExpr{
				Op: "*",
				X:  &ast.Identifier{Name: "n"},
				Y: &ast.CallExpr{
					Fn: &ast.Identifier{Name: "fact"},
					Args: []ast.Expression{&ast.BinaryExpr{
						Op: "-",
						X:  &ast.Identifier{Name: "n"},
						Y:  &ast.IntLit{Value: 1},
					}},
				},
			}}},
		}},
	}
	fn := &ast.FuncLit{SelfName: "fact", Params: []ast.Param{{Name: "n"}}, Body: body}
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "fact", Value: fn},
		&ast.ExprStmt{X: &ast.CallExpr{Fn: &ast.Identifier{Name: "fact"}, Args: []ast.Expression{&ast.IntLit{Value: 5}}}},
	}
	got := mustRun(t, stmts)
	if i, ok := got.(value.Int); !ok || i != 120 {
		t.Fatalf("expected 120, got %v", got)
	}
}

func TestRunPatternGuardFunction(t *testing.T) {
	// const x = 4; match x { n if n > 2 -> "big", _ -> "small" }
	stmts := []ast.Statement{
		&ast.ConstDecl{Name: "x", Value: &ast.IntLit{Value: 4}},
		&ast.ExprStmt{X: &ast.MatchExpr{
			Subject: &ast.Identifier{Name: "x"},
			Arms: []ast.MatchArm{
				{
					Pattern: &ast.VariablePattern{Name: "n"},
					Guard:   &ast.BinaryExpr{Op: ">", X: &ast.Identifier{Name: "n"}, Y: &ast.IntLit{Value: 2}},
					Body:    []ast.Statement{&ast.ExprStmt{X: &ast.StringLit{Value: "big"}}},
				},
				{Pattern: &ast.WildcardPattern{}, Body: []ast.Statement{&ast.ExprStmt{X: &ast.StringLit{Value: "small"}}}},
			},
		}},
	}
	got := mustRun(t, stmts)
	if s, ok := got.(value.Str); !ok || s != "big" {
		t.Fatalf("expected \"big\", got %v", got)
	}
}

func TestRunBytecodeValidates(t *testing.T) {
	stmts := []ast.Statement{&ast.ExprStmt{X: &ast.IntLit{Value: 1}}}
	fn, err := compiler.CompileProgram(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if err := fn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if fn.Code[len(fn.Code)-1].Op != bytecode.Ret {
		t.Fatalf("expected final instruction to be Ret, got %v", fn.Code[len(fn.Code)-1].Op)
	}
}

// TestRunUndefinedGlobalFallsBackToResolver exercises LoadGlobal's
// resolver fallback (dispatch.go): a name absent from ctx's own globals
// but present in a bundled module's exports resolves through
// ctx.Resolver instead of raising "undefined global".
func TestRunUndefinedGlobalFallsBackToResolver(t *testing.T) {
	stmts := []ast.Statement{&ast.ExprStmt{X: &ast.Identifier{Name: "exported"}}}
	fn, err := compiler.CompileProgram(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	ctx := context.New(resolve.Map{"exported": value.Int(7)})
	got, err := New(ctx).Run(fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n, ok := got.(value.Int); !ok || n != 7 {
		t.Fatalf("expected Int(7), got %v", got)
	}
}

func TestRunUndefinedGlobalWithNoResolverRaises(t *testing.T) {
	stmts := []ast.Statement{&ast.ExprStmt{X: &ast.Identifier{Name: "nope"}}}
	fn, err := compiler.CompileProgram(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if _, err := New(context.New(nil)).Run(fn); err == nil {
		t.Fatal("expected an error for an undefined global with no resolver")
	}
}

// TestRunResolverChainTriesEachInOrder exercises resolve.Chain composing
// two module exports, first match wins.
func TestRunResolverChainTriesEachInOrder(t *testing.T) {
	stmts := []ast.Statement{&ast.ExprStmt{X: &ast.Identifier{Name: "shared"}}}
	fn, err := compiler.CompileProgram(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	chain := resolve.Chain{
		resolve.Map{"shared": value.Str("first")},
		resolve.Map{"shared": value.Str("second")},
	}
	got, err := New(context.New(chain)).Run(fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s, ok := got.(value.Str); !ok || s != "first" {
		t.Fatalf("expected \"first\", got %v", got)
	}
}

// TestRunForRangeDescendingExplicitStep exercises `for _ in 5..0 step -2 {}`:
// visits 5, 3, 1 — three iterations.
func TestRunForRangeDescendingExplicitStep(t *testing.T) {
	stmts := []ast.Statement{
		&ast.VarDecl{Name: "count", Value: &ast.IntLit{Value: 0}},
		&ast.ForRangeStmt{
			VarName: "_",
			Low:     &ast.IntLit{Value: 5},
			High:    &ast.IntLit{Value: 0},
			Step:    &ast.IntLit{Value: -2},
			Body: []ast.Statement{
				&ast.AssignStmt{
					Target: &ast.Identifier{Name: "count"},
					Value: &ast.BinaryExpr{
						Op: "+",
						X:  &ast.Identifier{Name: "count"},
						Y:  &ast.IntLit{Value: 1},
					},
				},
			},
		},
		&ast.ExprStmt{X: &ast.Identifier{Name: "count"}},
	}
	got := mustRun(t, stmts)
	if n, ok := got.(value.Int); !ok || n != 3 {
		t.Fatalf("expected Int(3), got %v", got)
	}
}

// TestRunForRangeDescendingNoExplicitStep exercises `for _ in 3..0 {}`
// with no step clause: direction is inferred at runtime from low/high,
// visiting 3, 2, 1 — three iterations, not zero.
func TestRunForRangeDescendingNoExplicitStep(t *testing.T) {
	stmts := []ast.Statement{
		&ast.VarDecl{Name: "count", Value: &ast.IntLit{Value: 0}},
		&ast.ForRangeStmt{
			VarName: "_",
			Low:     &ast.IntLit{Value: 3},
			High:    &ast.IntLit{Value: 0},
			Body: []ast.Statement{
				&ast.AssignStmt{
					Target: &ast.Identifier{Name: "count"},
					Value: &ast.BinaryExpr{
						Op: "+",
						X:  &ast.Identifier{Name: "count"},
						Y:  &ast.IntLit{Value: 1},
					},
				},
			},
		},
		&ast.ExprStmt{X: &ast.Identifier{Name: "count"}},
	}
	got := mustRun(t, stmts)
	if n, ok := got.(value.Int); !ok || n != 3 {
		t.Fatalf("expected Int(3), got %v", got)
	}
}

// TestRunForRangeInclusiveAscending exercises `for _ in 0..=3 {}`: four
// iterations (0, 1, 2, 3), not three.
func TestRunForRangeInclusiveAscending(t *testing.T) {
	stmts := []ast.Statement{
		&ast.VarDecl{Name: "count", Value: &ast.IntLit{Value: 0}},
		&ast.ForRangeStmt{
			VarName:   "_",
			Low:       &ast.IntLit{Value: 0},
			High:      &ast.IntLit{Value: 3},
			Inclusive: true,
			Body: []ast.Statement{
				&ast.AssignStmt{
					Target: &ast.Identifier{Name: "count"},
					Value: &ast.BinaryExpr{
						Op: "+",
						X:  &ast.Identifier{Name: "count"},
						Y:  &ast.IntLit{Value: 1},
					},
				},
			},
		},
		&ast.ExprStmt{X: &ast.Identifier{Name: "count"}},
	}
	got := mustRun(t, stmts)
	if n, ok := got.(value.Int); !ok || n != 4 {
		t.Fatalf("expected Int(4), got %v", got)
	}
}

// TestRunAndMaterializesBool exercises spec.md §4.1's short-circuit
// lowering: `true && 5` must come out as a strict Bool, not the raw
// truthy right-hand value.
func TestRunAndMaterializesBool(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ExprStmt{X: &ast.BinaryExpr{Op: "&&", X: &ast.BoolLit{Value: true}, Y: &ast.IntLit{Value: 5}}},
	}
	got := mustRun(t, stmts)
	if b, ok := got.(value.Bool); !ok || bool(b) != true {
		t.Fatalf("expected Bool(true), got %v", got)
	}
}

// TestRunOrMaterializesBool exercises the `||` mirror of
// TestRunAndMaterializesBool: `false || 5` must come out as Bool(true).
func TestRunOrMaterializesBool(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ExprStmt{X: &ast.BinaryExpr{Op: "||", X: &ast.BoolLit{Value: false}, Y: &ast.IntLit{Value: 5}}},
	}
	got := mustRun(t, stmts)
	if b, ok := got.(value.Bool); !ok || bool(b) != true {
		t.Fatalf("expected Bool(true), got %v", got)
	}
}
