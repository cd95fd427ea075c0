// Package bytecode implements the register-based instruction set and the
// compiled Function record it operates over (component C2). The opcode
// table layout and its accompanying metadata tables are grounded on
// mna-nenuphar's lang/compiler/opcode.go (name table + stack-effect-style
// metadata table) and funxy's lang/vm/opcodes.go (giant-const-block
// opcode enum with a parallel name array), adapted from stack-effect
// metadata to register-operand-count metadata since this is a register
// machine, not a stack machine.
package bytecode

import "fmt"

// Opcode identifies an instruction. Every op carries its u16 register
// operands and, where applicable, a jump target: an absolute instruction
// index in memory (Instruction.Jump), stored by the LKRB codec as a
// signed 32-bit offset from the op's own index.
type Opcode uint8

const ( //nolint:revive
	NOP Opcode = iota

	// Arithmetic/compare, polymorphic.
	Add
	Sub
	Mul
	Div
	Mod
	CmpEq
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
	In

	// Arithmetic, type-specialized.
	AddInt
	SubInt
	MulInt
	ModInt
	AddFloat
	SubFloat
	MulFloat
	DivFloat
	ModFloat

	// Immediate forms (rhs is i8 sign-extended, carried in Instr.Imm).
	AddIntImm
	CmpEqImm
	CmpNeImm
	CmpLtImm
	CmpLeImm
	CmpGtImm
	CmpGeImm

	// Unary / convert.
	Not
	ToBool
	ToStr

	// Load/store.
	LoadK
	Move
	LoadLocal
	StoreLocal
	LoadGlobal
	DefineGlobal
	LoadCapture

	// Data access.
	Access
	AccessK
	Index
	IndexK
	Len
	ToIter

	// Constructors.
	BuildList
	BuildMap
	ListSlice
	MakeClosure

	// Control flow.
	Jmp
	JmpFalse
	JmpIfNil
	JmpIfNotNil
	NullishPick
	JmpFalseSet
	JmpTrueSet
	Break
	Continue
	Ret
	Raise

	// Calls.
	Call
	CallNamed

	// Loops.
	ForRangePrep
	ForRangeLoop
	ForRangeStep

	// Patterns.
	PatternMatch
	PatternMatchOrFail
)

var opcodeNames = [...]string{
	NOP:                 "nop",
	Add:                 "add",
	Sub:                 "sub",
	Mul:                 "mul",
	Div:                 "div",
	Mod:                 "mod",
	CmpEq:               "cmp_eq",
	CmpNe:               "cmp_ne",
	CmpLt:               "cmp_lt",
	CmpLe:               "cmp_le",
	CmpGt:               "cmp_gt",
	CmpGe:               "cmp_ge",
	In:                  "in",
	AddInt:              "add_int",
	SubInt:              "sub_int",
	MulInt:              "mul_int",
	ModInt:              "mod_int",
	AddFloat:            "add_float",
	SubFloat:            "sub_float",
	MulFloat:            "mul_float",
	DivFloat:            "div_float",
	ModFloat:            "mod_float",
	AddIntImm:           "add_int_imm",
	CmpEqImm:            "cmp_eq_imm",
	CmpNeImm:            "cmp_ne_imm",
	CmpLtImm:            "cmp_lt_imm",
	CmpLeImm:            "cmp_le_imm",
	CmpGtImm:            "cmp_gt_imm",
	CmpGeImm:            "cmp_ge_imm",
	Not:                 "not",
	ToBool:              "to_bool",
	ToStr:               "to_str",
	LoadK:               "load_k",
	Move:                "move",
	LoadLocal:           "load_local",
	StoreLocal:          "store_local",
	LoadGlobal:          "load_global",
	DefineGlobal:        "define_global",
	LoadCapture:         "load_capture",
	Access:              "access",
	AccessK:             "access_k",
	Index:               "index",
	IndexK:              "index_k",
	Len:                 "len",
	ToIter:              "to_iter",
	BuildList:           "build_list",
	BuildMap:            "build_map",
	ListSlice:           "list_slice",
	MakeClosure:         "make_closure",
	Jmp:                 "jmp",
	JmpFalse:            "jmp_false",
	JmpIfNil:            "jmp_if_nil",
	JmpIfNotNil:         "jmp_if_not_nil",
	NullishPick:         "nullish_pick",
	JmpFalseSet:         "jmp_false_set",
	JmpTrueSet:          "jmp_true_set",
	Break:               "break",
	Continue:            "continue",
	Ret:                 "ret",
	Raise:               "raise",
	Call:                "call",
	CallNamed:           "call_named",
	ForRangePrep:        "for_range_prep",
	ForRangeLoop:        "for_range_loop",
	ForRangeStep:        "for_range_step",
	PatternMatch:        "pattern_match",
	PatternMatchOrFail:  "pattern_match_or_fail",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// isJump reports whether op carries an instruction-index jump target in
// Instr.Jump rather than (or in addition to) register operands.
func isJump(op Opcode) bool {
	switch op {
	case Jmp, JmpFalse, JmpIfNil, JmpIfNotNil, NullishPick, JmpFalseSet, JmpTrueSet,
		ForRangeLoop, ForRangeStep:
		return true
	default:
		return false
	}
}
