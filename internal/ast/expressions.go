package ast

// UnaryExpr is a prefix operator application: `!x`, `-x`.
type UnaryExpr struct {
	PosV Pos
	Op   string
	X    Expression
}

func (e *UnaryExpr) Pos() Pos { return e.PosV }
func (*UnaryExpr) exprNode()  {}

// BinaryExpr covers arithmetic, comparison, and the short-circuit
// operators `&&`/`||`/`??` — the compiler special-cases the latter
// three into jump sequences rather than eager Add/Sub-style opcodes
// (spec.md §4.1 "short-circuit lowering").
type BinaryExpr struct {
	PosV Pos
	Op   string
	X, Y Expression
}

func (e *BinaryExpr) Pos() Pos { return e.PosV }
func (*BinaryExpr) exprNode()  {}

// NamedArg is one `name: value` argument in a call.
type NamedArg struct {
	Name  string
	Value Expression
}

// CallExpr applies Fn to positional Args and NamedArgs.
type CallExpr struct {
	PosV      Pos
	Fn        Expression
	Args      []Expression
	NamedArgs []NamedArg
}

func (e *CallExpr) Pos() Pos { return e.PosV }
func (*CallExpr) exprNode()  {}

// AccessExpr is field/method access `x.field`; Optional marks the
// `x?.field` form (spec.md §4.1 "optional access").
type AccessExpr struct {
	PosV     Pos
	X        Expression
	Field    string
	Optional bool
}

func (e *AccessExpr) Pos() Pos { return e.PosV }
func (*AccessExpr) exprNode()  {}

// IndexExpr is `x[index]`.
type IndexExpr struct {
	PosV  Pos
	X     Expression
	Index Expression
}

func (e *IndexExpr) Pos() Pos { return e.PosV }
func (*IndexExpr) exprNode()  {}

// SliceExpr is `x[low:high]`; either bound may be nil meaning "open".
type SliceExpr struct {
	PosV      Pos
	X         Expression
	Low, High Expression
}

func (e *SliceExpr) Pos() Pos { return e.PosV }
func (*SliceExpr) exprNode()  {}

// Param is one function parameter. A positional parameter has an empty
// Name is never valid — Name is always set; Pattern is non-nil only
// when the parameter destructures its argument. Default, when non-nil,
// is compiled into its own default-thunk Function seeded with the
// parent's parameter register layout (spec.md §3.3 "named parameter
// defaults").
type Param struct {
	Name     string
	Pattern  Pattern
	Default  Expression
	Optional bool
	Named    bool
}

// FuncLit is a function or lambda body. SelfName is non-empty for a
// named recursive binding (`fn fib(n) { ... }` rather than an anonymous
// `|n| { ... }`).
type FuncLit struct {
	PosV     Pos
	SelfName string
	Params   []Param
	Body     []Statement
}

func (e *FuncLit) Pos() Pos { return e.PosV }
func (*FuncLit) exprNode()  {}

// MatchArm is one `pattern [if guard] -> body` arm of a match expression.
type MatchArm struct {
	Pattern Pattern
	Guard   Expression // nil if the arm is unguarded
	Body    []Statement
}

// MatchExpr evaluates Subject once and walks Arms in order, taking the
// first whose Pattern matches (and whose Guard, if present, is truthy).
type MatchExpr struct {
	PosV    Pos
	Subject Expression
	Arms    []MatchArm
}

func (e *MatchExpr) Pos() Pos { return e.PosV }
func (*MatchExpr) exprNode()  {}

// IfExpr is the expression-form conditional; Else is nil for a bare
// `if` with no else branch, in which case the whole expression yields
// Nil when Cond is false.
type IfExpr struct {
	PosV Pos
	Cond Expression
	Then []Statement
	Else []Statement
}

func (e *IfExpr) Pos() Pos { return e.PosV }
func (*IfExpr) exprNode()  {}
