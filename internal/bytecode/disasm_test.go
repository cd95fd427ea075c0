package bytecode

import (
	"strings"
	"testing"

	"github.com/lollipopkit/lkr/internal/value"
)

func TestDisassembleSimpleFunction(t *testing.T) {
	fn := NewFunction("main")
	fn.NRegs = 2
	fn.Consts = []value.Value{value.Int(41)}
	fn.Code = []Instruction{
		{Op: LoadK, A: 0, K: 0},
		{Op: AddIntImm, A: 0, B: 0, Imm: 1},
		{Op: Ret, A: 0},
	}

	out := Disassemble(fn)
	if !strings.Contains(out, "== main ==") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "load_k") || !strings.Contains(out, "; 41") {
		t.Fatalf("missing LoadK const annotation: %q", out)
	}
	if !strings.Contains(out, "imm=1") {
		t.Fatalf("missing immediate operand: %q", out)
	}
}

func TestDisassembleNestedProto(t *testing.T) {
	inner := NewFunction("lambda")
	inner.NRegs = 1
	inner.Code = []Instruction{{Op: Ret, A: 0}}

	outer := NewFunction("outer")
	outer.NRegs = 1
	outer.Protos = []*Proto{{Body: inner}}
	outer.Code = []Instruction{{Op: MakeClosure, A: 0, B: 0}}

	out := Disassemble(outer)
	if !strings.Contains(out, "== outer ==") || !strings.Contains(out, "== lambda ==") {
		t.Fatalf("expected both functions disassembled: %q", out)
	}
}
