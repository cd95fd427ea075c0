package lkrb

import (
	"bytes"
	"testing"

	"github.com/lollipopkit/lkr/internal/analysis"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

func sampleFunction(name string) *bytecode.Function {
	f := bytecode.NewFunction(name)
	f.NRegs = 4
	f.ParamRegs = []uint16{0, 1}
	f.Consts = []value.Value{
		value.Int(42),
		value.Str("hello"),
		value.NewList([]value.Value{value.Int(1), value.Int(2), value.Int(3)}),
		value.NewMap().Put("a", value.Int(1)).Put("b", value.Bool(true)),
	}
	f.Code = []bytecode.Instruction{
		{Op: bytecode.LoadK, A: 2, K: 0},
		{Op: bytecode.Add, A: 3, B: 0, C: 1},
		{Op: bytecode.Jmp, Jump: 3},
		{Op: bytecode.NOP},
		{Op: bytecode.Ret, A: 3},
	}
	f.PatternPlans = []*bytecode.PatternPlan{
		{
			Kind: bytecode.PatternList,
			Elems: []*bytecode.PatternPlan{
				{Kind: bytecode.PatternVariable, Slot: 0},
				{Kind: bytecode.PatternLiteral, Literal: value.Int(7)},
			},
			HasRest:  true,
			RestSlot: 1,
		},
		{
			Kind: bytecode.PatternOr,
			Alternatives: []*bytecode.PatternPlan{
				{Kind: bytecode.PatternWildcard},
				{Kind: bytecode.PatternRange, Low: value.Int(0), High: value.Int(10)},
			},
		},
	}
	f.Analysis = &analysis.Analysis{
		EscapeClass:    analysis.Heap,
		ReturnRegion:   analysis.ThreadLocal,
		EscapingValues: []uint32{3},
		RegionPlan:     map[uint32]analysis.Region{0: analysis.ThreadLocal, 3: analysis.Heap},
	}
	return f
}

func TestFunctionRoundTrip(t *testing.T) {
	f := sampleFunction("main")

	var buf bytes.Buffer
	if err := EncodeFunction(&buf, f); err != nil {
		t.Fatalf("EncodeFunction: %v", err)
	}

	got, err := DecodeFunction(bytes.NewReader(buf.Bytes()), Version)
	if err != nil {
		t.Fatalf("DecodeFunction: %v", err)
	}

	if got.Name != f.Name || got.NRegs != f.NRegs || len(got.Code) != len(f.Code) {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if len(got.Consts) != len(f.Consts) {
		t.Fatalf("consts length mismatch: got %d want %d", len(got.Consts), len(f.Consts))
	}
	if got.Code[2].Jump != 3 {
		t.Fatalf("jump target not preserved: got %d", got.Code[2].Jump)
	}
	if len(got.PatternPlans) != 2 {
		t.Fatalf("pattern plans not preserved: got %d", len(got.PatternPlans))
	}
	if got.PatternPlans[0].RestSlot != 1 || !got.PatternPlans[0].HasRest {
		t.Fatalf("list pattern rest slot not preserved: %+v", got.PatternPlans[0])
	}
	if got.Analysis == nil || got.Analysis.ReturnRegion != analysis.ThreadLocal {
		t.Fatalf("analysis block not preserved: %+v", got.Analysis)
	}
}

func TestModuleRoundTrip(t *testing.T) {
	entry := sampleFunction("entry")
	dep := sampleFunction("dep")

	m := NewModule(entry)
	m.Meta["source_hash"] = "abc123"
	m.Bundled["lib/dep"] = NewModule(dep)
	m.Debug = []byte("line 1 -> pc 0")

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Entry.Name != "entry" {
		t.Fatalf("entry function not preserved: %+v", got.Entry)
	}
	if got.Meta["source_hash"] != "abc123" {
		t.Fatalf("meta not preserved: %+v", got.Meta)
	}
	if len(got.Bundled) != 1 || got.Bundled["lib/dep"].Entry.Name != "dep" {
		t.Fatalf("bundled module not preserved: %+v", got.Bundled)
	}
	if string(got.Debug) != "line 1 -> pc 0" {
		t.Fatalf("debug section not preserved: %q", got.Debug)
	}
}

// TestUnknownSectionSkipped exercises the forward-compatibility guarantee
// that a reader skips a section tag it does not recognize rather than
// failing the whole decode (spec §4.3).
func TestUnknownSectionSkipped(t *testing.T) {
	entry := sampleFunction("entry")
	m := NewModule(entry)

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Append a section with an unrecognized tag before decoding.
	var withExtra bytes.Buffer
	withExtra.Write(buf.Bytes())
	if err := writeSection(&withExtra, SectionTag{'Z', 'Z', 'Z', 'Z'}, []byte("future data")); err != nil {
		t.Fatalf("writeSection: %v", err)
	}

	got, err := Decode(bytes.NewReader(withExtra.Bytes()))
	if err != nil {
		t.Fatalf("Decode with unknown trailing section: %v", err)
	}
	if got.Entry.Name != "entry" {
		t.Fatalf("entry function not preserved past unknown section: %+v", got.Entry)
	}
}
