package ast

import "testing"

func TestDecodeProgramArithmetic(t *testing.T) {
	data := []byte(`{
		"File": "t.lkr",
		"Statements": [
			{
				"Kind": "ConstDecl",
				"Name": "x",
				"Value": {
					"Kind": "BinaryExpr",
					"Op": "+",
					"X": {"Kind": "IntLit", "Value": 1},
					"Y": {
						"Kind": "BinaryExpr",
						"Op": "*",
						"X": {"Kind": "IntLit", "Value": 2},
						"Y": {"Kind": "IntLit", "Value": 3}
					}
				}
			}
		]
	}`)

	prog, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if prog.File != "t.lkr" {
		t.Fatalf("File = %q", prog.File)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("want 1 statement, got %d", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ConstDecl)
	if !ok {
		t.Fatalf("statement type = %T", prog.Statements[0])
	}
	if decl.Name != "x" {
		t.Fatalf("Name = %q", decl.Name)
	}
	bin, ok := decl.Value.(*BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("Value = %#v", decl.Value)
	}
}

func TestDecodeProgramFuncAndMatch(t *testing.T) {
	data := []byte(`{
		"Statements": [
			{
				"Kind": "FuncDecl",
				"Name": "classify",
				"Fn": {
					"Kind": "FuncLit",
					"Params": [{"Name": "n"}],
					"Body": [
						{
							"Kind": "ReturnStmt",
							"Value": {
								"Kind": "MatchExpr",
								"Subject": {"Kind": "Identifier", "Name": "n"},
								"Arms": [
									{
										"Pattern": {"Kind": "LiteralPattern", "Value": {"Kind": "IntLit", "Value": 0}},
										"Body": [{"Kind": "ExprStmt", "X": {"Kind": "StringLit", "Value": "zero"}}]
									},
									{
										"Pattern": {"Kind": "WildcardPattern"},
										"Body": [{"Kind": "ExprStmt", "X": {"Kind": "StringLit", "Value": "other"}}]
									}
								]
							}
						}
					]
				}
			}
		]
	}`)

	prog, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	decl, ok := prog.Statements[0].(*FuncDecl)
	if !ok {
		t.Fatalf("statement type = %T", prog.Statements[0])
	}
	if decl.Name != "classify" || len(decl.Fn.Params) != 1 || decl.Fn.Params[0].Name != "n" {
		t.Fatalf("FuncDecl = %#v", decl)
	}
	ret, ok := decl.Fn.Body[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("body[0] type = %T", decl.Fn.Body[0])
	}
	match, ok := ret.Value.(*MatchExpr)
	if !ok || len(match.Arms) != 2 {
		t.Fatalf("match = %#v", ret.Value)
	}
	if _, ok := match.Arms[1].Pattern.(*WildcardPattern); !ok {
		t.Fatalf("arm[1] pattern = %#v", match.Arms[1].Pattern)
	}
}

func TestDecodeProgramUnknownKindErrors(t *testing.T) {
	_, err := DecodeProgram([]byte(`{"Statements": [{"Kind": "NotARealStatement"}]}`))
	if err == nil {
		t.Fatal("expected an error for an unknown statement kind")
	}
}
