// Package ast is the external contract the compiler (component C4)
// consumes: it names the statement/expression shapes produced by a
// source-level parser (an external collaborator, per spec.md §1 —
// source ingestion ships outside THE CORE). It is trimmed from funxy's
// internal/ast (Node/Statement/Expression with a double-dispatch
// Visitor, literal-by-literal node types) down to only the shapes this
// spec's compiler actually lowers, and swaps the Visitor for a plain
// type switch at each lowering site — funxy's own compiler package
// does the same thing internally (compiler_expressions.go switches on
// ast.Expression concrete type rather than double-dispatching).
package ast

// Pos is a source position, carried for diagnostics only; the compiler
// never branches on it.
type Pos struct {
	Line, Col int
}

// Node is the base of every AST node.
type Node interface {
	Pos() Pos
}

// Statement is a Node usable as one element of a block.
type Statement interface {
	Node
	stmtNode()
}

// Expression is a Node usable as a value-producing subtree.
type Expression interface {
	Node
	exprNode()
}

// Program is the root of a parsed source file.
type Program struct {
	PosV       Pos
	File       string
	Statements []Statement
}

func (p *Program) Pos() Pos { return p.PosV }

// Identifier names a variable, global, or bare function/type reference.
type Identifier struct {
	PosV Pos
	Name string
}

func (i *Identifier) Pos() Pos { return i.PosV }
func (*Identifier) exprNode()  {}

// NilLit, BoolLit, IntLit, FloatLit, StringLit are the scalar literal
// leaves — one struct per kind, matching funxy's ast_core.go literal
// shapes (IntegerLiteral, BooleanLiteral, ...), trimmed to the value
// kinds this spec's value model has (no BigInt/Rational/Bytes/Bits —
// those are funxy-only extensions with no home in spec.md's Data
// Model).
type NilLit struct {
	PosV Pos
}

func (n *NilLit) Pos() Pos { return n.PosV }
func (*NilLit) exprNode()  {}

type BoolLit struct {
	PosV  Pos
	Value bool
}

func (b *BoolLit) Pos() Pos { return b.PosV }
func (*BoolLit) exprNode()  {}

type IntLit struct {
	PosV  Pos
	Value int64
}

func (l *IntLit) Pos() Pos { return l.PosV }
func (*IntLit) exprNode()  {}

type FloatLit struct {
	PosV  Pos
	Value float64
}

func (l *FloatLit) Pos() Pos { return l.PosV }
func (*FloatLit) exprNode()  {}

type StringLit struct {
	PosV  Pos
	Value string
}

func (l *StringLit) Pos() Pos { return l.PosV }
func (*StringLit) exprNode()  {}

// ListLit is a list literal, e.g. [1, 2, 3].
type ListLit struct {
	PosV  Pos
	Elems []Expression
}

func (l *ListLit) Pos() Pos { return l.PosV }
func (*ListLit) exprNode()  {}

// MapLit is a map literal, e.g. %{"a" => 1, "b" => 2}. Keys and Values
// are parallel slices rather than a Go map so source order (and
// therefore duplicate-key-last-wins semantics) is preserved until the
// compiler lowers to BuildMap.
type MapLit struct {
	PosV   Pos
	Keys   []Expression
	Values []Expression
}

func (l *MapLit) Pos() Pos { return l.PosV }
func (*MapLit) exprNode()  {}

// StructLit constructs an Object of TypeName from field initializers,
// lowered to a `__lkr_make_struct` builtin call per SPEC_FULL §4.1.
type StructLit struct {
	PosV     Pos
	TypeName string
	Fields   map[string]Expression
}

func (l *StructLit) Pos() Pos { return l.PosV }
func (*StructLit) exprNode()  {}
