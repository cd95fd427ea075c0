package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders fn and every nested Proto recursively into the
// `== name ==` / one-line-per-instruction form funxy's own disassembler
// uses (internal/vm/disasm.go), adapted here for a register machine: each
// Instruction is already a fixed record rather than a variable-length
// byte run, so one line prints every operand the op actually uses instead
// of switching over byte-width per opcode.
func Disassemble(fn *Function) string {
	var sb strings.Builder
	disassemble(&sb, fn, 0)
	return sb.String()
}

func disassemble(sb *strings.Builder, fn *Function, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%s== %s ==\n", pad, fn.Name)
	for pc, ins := range fn.Code {
		fmt.Fprintf(sb, "%s%04d %s\n", pad, pc, operandString(fn, ins))
	}
	for i, proto := range fn.Protos {
		fmt.Fprintf(sb, "%sproto %d:\n", pad, i)
		disassemble(sb, proto.Body, indent+1)
	}
}

func operandString(fn *Function, ins Instruction) string {
	name := ins.Op.String()
	switch {
	case ins.Op == ForRangeLoop:
		return fmt.Sprintf("%-20s A=%d B=%d C=%d incl=%d -> %d", name, ins.A, ins.B, ins.C, ins.Imm, ins.Jump)
	case ins.IsJump():
		return fmt.Sprintf("%-20s -> %d", name, ins.Jump)
	case usesK(ins.Op):
		return fmt.Sprintf("%-20s A=%d B=%d K=%d %s", name, ins.A, ins.B, ins.K, constAnnotation(fn, ins.K))
	case ins.Op == Call:
		return fmt.Sprintf("%-20s A=%d B=%d argc=%d", name, ins.A, ins.B, ins.Argc)
	case ins.Op == CallNamed:
		return fmt.Sprintf("%-20s A=%d B=%d argc=%d namedc=%d", name, ins.A, ins.B, ins.Argc, ins.Namedc)
	case ins.Op == PatternMatch || ins.Op == PatternMatchOrFail:
		return fmt.Sprintf("%-20s A=%d B=%d plan=%d", name, ins.A, ins.B, ins.PatternPlan)
	case isImmOp(ins.Op):
		return fmt.Sprintf("%-20s A=%d B=%d imm=%d", name, ins.A, ins.B, ins.Imm)
	default:
		return fmt.Sprintf("%-20s A=%d B=%d C=%d", name, ins.A, ins.B, ins.C)
	}
}

func constAnnotation(fn *Function, k uint16) string {
	if int(k) < len(fn.Consts) {
		return fmt.Sprintf("; %s", fn.Consts[k].String())
	}
	return ""
}

func usesK(op Opcode) bool {
	switch op {
	case LoadK, LoadGlobal, DefineGlobal, AccessK, IndexK:
		return true
	default:
		return false
	}
}

func isImmOp(op Opcode) bool {
	switch op {
	case AddIntImm, CmpEqImm, CmpNeImm, CmpLtImm, CmpLeImm, CmpGtImm, CmpGeImm:
		return true
	default:
		return false
	}
}
