package bytecode

// Instruction is one bytecode op plus its operands. In memory, jump
// targets are absolute instruction indices (simplifies compiler patching,
// mirroring mna-nenuphar's asm.go patch-list-of-addresses pattern); the
// LKRB codec is the only place that converts to/from the on-disk
// encoding, a signed 32-bit offset from the instruction's own index.
type Instruction struct {
	Op Opcode

	// A, B, C are register operands (register index into the current
	// Function's register window). Not every opcode uses all three.
	A, B, C uint16

	// K is a constant-pool index, used by ops such as LoadK, AccessK,
	// DefineGlobal, LoadGlobal. CallNamed's argument names and Raise's
	// message both travel as register operands instead (pre-loaded via
	// their own LoadK), so neither op uses K.
	K uint16

	// Imm carries an i8 sign-extended immediate operand for the *Imm
	// opcodes (e.g. AddIntImm).
	Imm int8

	// Jump is the absolute target instruction index for jump-carrying
	// opcodes. A value equal to the code length means "fall off the end",
	// which the VM treats as an implicit `return nil`.
	Jump uint32

	// Argc/Namedc encode the Call/CallNamed argument-count operands: for
	// Call, Argc is the positional argument count; for CallNamed, Argc is
	// the positional count and Namedc is the number of name/value pairs.
	Argc, Namedc uint16

	// PatternPlan indexes into Function.PatternPlans for PatternMatch and
	// PatternMatchOrFail.
	PatternPlan uint32
}

// IsJump reports whether this instruction carries a jump target.
func (i Instruction) IsJump() bool { return isJump(i.Op) }
