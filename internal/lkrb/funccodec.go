package lkrb

import (
	"bytes"
	"io"

	"github.com/lollipopkit/lkr/internal/analysis"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

func writeU16s(w io.Writer, vs []uint16) error {
	if err := writeU32(w, uint32(len(vs))); err != nil {
		return err
	}
	for _, v := range vs {
		if err := writeU32(w, uint32(v)); err != nil {
			return err
		}
	}
	return nil
}

func readU16s(r io.Reader) ([]uint16, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	vs := make([]uint16, n)
	for i := range vs {
		u, err := readU32(r)
		if err != nil {
			return nil, err
		}
		vs[i] = uint16(u)
	}
	return vs, nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := writeU32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// EncodeFunction writes f's full body — registers, constants, code,
// pattern plans, nested protos and optional analysis — at the current
// format Version. It is used both for the top-level FUNC section and,
// recursively, for nested Proto.Body/DefaultFuncs and pattern-guard
// functions, so every Function embedded anywhere in an LKRB container
// shares one wire representation (spec §4.3 "Function payload layout").
func EncodeFunction(w io.Writer, f *bytecode.Function) error {
	if err := writeStr(w, f.Name); err != nil {
		return err
	}
	if err := writeU32(w, uint32(f.NRegs)); err != nil {
		return err
	}
	if err := writeU16s(w, f.ParamRegs); err != nil {
		return err
	}

	// named_param_regs / named_param_layout, gated at versionNamedParams.
	if err := writeU16s(w, f.NamedParamRegs); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(f.NamedParamLayout))); err != nil {
		return err
	}
	for _, l := range f.NamedParamLayout {
		if err := writeU32(w, l.NameConstIdx); err != nil {
			return err
		}
		if err := writeU32(w, uint32(l.DestReg)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(l.DefaultIndex)); err != nil {
			return err
		}
		flag := byte(0)
		if l.Optional {
			flag = 1
		}
		if _, err := w.Write([]byte{flag}); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(f.Consts))); err != nil {
		return err
	}
	for _, c := range f.Consts {
		if err := EncodeValue(w, c); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(f.Code))); err != nil {
		return err
	}
	for i, ins := range f.Code {
		if err := encodeInstruction(w, i, ins); err != nil {
			return err
		}
	}

	// pattern_plans[], gated at versionPatternPlans: length-prefixed JSON.
	patData, err := encodePatternPlans(f.PatternPlans)
	if err != nil {
		return err
	}
	if err := writeBytes(w, patData); err != nil {
		return err
	}

	// protos[], gated at versionProtos; captures gated at versionCaptures.
	if err := writeU32(w, uint32(len(f.Protos))); err != nil {
		return err
	}
	for _, p := range f.Protos {
		if err := encodeProto(w, p); err != nil {
			return err
		}
	}

	// optional analysis block, gated at versionAnalysis.
	if f.Analysis == nil {
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	} else {
		if _, err := w.Write([]byte{1}); err != nil {
			return err
		}
		if err := encodeAnalysis(w, f.Analysis); err != nil {
			return err
		}
	}

	return nil
}

func encodeProto(w io.Writer, p *bytecode.Proto) error {
	if err := writeStr(w, p.SelfName); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(p.Params))); err != nil {
		return err
	}
	for _, name := range p.Params {
		if err := writeStr(w, name); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(p.NamedParams))); err != nil {
		return err
	}
	for _, l := range p.NamedParams {
		if err := writeU32(w, l.NameConstIdx); err != nil {
			return err
		}
		if err := writeU32(w, uint32(l.DestReg)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(l.DefaultIndex)); err != nil {
			return err
		}
		flag := byte(0)
		if l.Optional {
			flag = 1
		}
		if _, err := w.Write([]byte{flag}); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(p.DefaultFuncs))); err != nil {
		return err
	}
	for _, df := range p.DefaultFuncs {
		if err := EncodeFunction(w, df); err != nil {
			return err
		}
	}

	if err := EncodeFunction(w, p.Body); err != nil {
		return err
	}

	// captures, gated at versionCaptures.
	if err := writeU32(w, uint32(len(p.Captures))); err != nil {
		return err
	}
	for _, c := range p.Captures {
		if _, err := w.Write([]byte{byte(c.Kind)}); err != nil {
			return err
		}
		if err := writeStr(w, c.Name); err != nil {
			return err
		}
		if err := writeU32(w, uint32(c.SrcReg)); err != nil {
			return err
		}
		if err := writeU32(w, c.ConstIdx); err != nil {
			return err
		}
	}
	return nil
}

func encodeAnalysis(w io.Writer, a *analysis.Analysis) error {
	if _, err := w.Write([]byte{byte(a.EscapeClass)}); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(a.ReturnRegion)}); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(a.EscapingValues))); err != nil {
		return err
	}
	for _, reg := range a.EscapingValues {
		if err := writeU32(w, reg); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(len(a.RegionPlan))); err != nil {
		return err
	}
	// map iteration order would make byte output nondeterministic; sort
	// keys so two encodes of the same Analysis produce identical bytes.
	keys := make([]uint32, 0, len(a.RegionPlan))
	for k := range a.RegionPlan {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	for _, k := range keys {
		if err := writeU32(w, k); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(a.RegionPlan[k])}); err != nil {
			return err
		}
	}
	return nil
}

// DecodeFunction reads one Function body written by EncodeFunction.
// version is the container's format version (from the LKRB header, or
// Version itself for a nested embed produced by this same process) and
// gates which optional fields are expected to be present.
func DecodeFunction(r io.Reader, version uint16) (*bytecode.Function, error) {
	name, err := readStr(r)
	if err != nil {
		return nil, err
	}
	nRegs, err := readU32(r)
	if err != nil {
		return nil, err
	}
	paramRegs, err := readU16s(r)
	if err != nil {
		return nil, err
	}

	f := &bytecode.Function{
		Name:      name,
		NRegs:     uint16(nRegs),
		ParamRegs: paramRegs,
	}

	if version >= versionNamedParams {
		namedParamRegs, err := readU16s(r)
		if err != nil {
			return nil, err
		}
		f.NamedParamRegs = namedParamRegs

		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		layout := make([]bytecode.NamedParamLayout, n)
		for i := range layout {
			nameIdx, err := readU32(r)
			if err != nil {
				return nil, err
			}
			destReg, err := readU32(r)
			if err != nil {
				return nil, err
			}
			defIdx, err := readU32(r)
			if err != nil {
				return nil, err
			}
			var flag [1]byte
			if _, err := io.ReadFull(r, flag[:]); err != nil {
				return nil, err
			}
			layout[i] = bytecode.NamedParamLayout{
				NameConstIdx: nameIdx,
				DestReg:      uint16(destReg),
				DefaultIndex: int32(defIdx),
				Optional:     flag[0] != 0,
			}
		}
		f.NamedParamLayout = layout
	}

	nConsts, err := readU32(r)
	if err != nil {
		return nil, err
	}
	consts := make([]value.Value, nConsts)
	for i := range consts {
		consts[i], err = DecodeValue(r)
		if err != nil {
			return nil, err
		}
	}
	f.Consts = consts

	nCode, err := readU32(r)
	if err != nil {
		return nil, err
	}
	code := make([]bytecode.Instruction, nCode)
	for i := range code {
		code[i], err = decodeInstruction(r, i)
		if err != nil {
			return nil, err
		}
	}
	f.Code = code

	if version >= versionPatternPlans {
		patData, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		if len(patData) > 0 {
			plans, err := decodePatternPlans(patData)
			if err != nil {
				return nil, err
			}
			f.PatternPlans = plans
		}
	}

	if version >= versionProtos {
		nProtos, err := readU32(r)
		if err != nil {
			return nil, err
		}
		protos := make([]*bytecode.Proto, nProtos)
		for i := range protos {
			protos[i], err = decodeProto(r, version)
			if err != nil {
				return nil, err
			}
		}
		f.Protos = protos
	}

	if version >= versionAnalysis {
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return nil, err
		}
		if flag[0] != 0 {
			a, err := decodeAnalysis(r)
			if err != nil {
				return nil, err
			}
			f.Analysis = a
		}
	}

	return f, nil
}

func decodeProto(r io.Reader, version uint16) (*bytecode.Proto, error) {
	selfName, err := readStr(r)
	if err != nil {
		return nil, err
	}
	nParams, err := readU32(r)
	if err != nil {
		return nil, err
	}
	params := make([]string, nParams)
	for i := range params {
		params[i], err = readStr(r)
		if err != nil {
			return nil, err
		}
	}

	nNamed, err := readU32(r)
	if err != nil {
		return nil, err
	}
	namedParams := make([]bytecode.NamedParamLayout, nNamed)
	for i := range namedParams {
		nameIdx, err := readU32(r)
		if err != nil {
			return nil, err
		}
		destReg, err := readU32(r)
		if err != nil {
			return nil, err
		}
		defIdx, err := readU32(r)
		if err != nil {
			return nil, err
		}
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return nil, err
		}
		namedParams[i] = bytecode.NamedParamLayout{
			NameConstIdx: nameIdx,
			DestReg:      uint16(destReg),
			DefaultIndex: int32(defIdx),
			Optional:     flag[0] != 0,
		}
	}

	nDefaults, err := readU32(r)
	if err != nil {
		return nil, err
	}
	defaults := make([]*bytecode.Function, nDefaults)
	for i := range defaults {
		defaults[i], err = DecodeFunction(r, version)
		if err != nil {
			return nil, err
		}
	}

	body, err := DecodeFunction(r, version)
	if err != nil {
		return nil, err
	}

	p := &bytecode.Proto{
		SelfName:     selfName,
		Params:       params,
		NamedParams:  namedParams,
		DefaultFuncs: defaults,
		Body:         body,
	}

	if version >= versionCaptures {
		nCaptures, err := readU32(r)
		if err != nil {
			return nil, err
		}
		captures := make([]bytecode.CaptureSpec, nCaptures)
		for i := range captures {
			var kindBuf [1]byte
			if _, err := io.ReadFull(r, kindBuf[:]); err != nil {
				return nil, err
			}
			name, err := readStr(r)
			if err != nil {
				return nil, err
			}
			srcReg, err := readU32(r)
			if err != nil {
				return nil, err
			}
			constIdx, err := readU32(r)
			if err != nil {
				return nil, err
			}
			captures[i] = bytecode.CaptureSpec{
				Kind:     bytecode.CaptureKind(kindBuf[0]),
				Name:     name,
				SrcReg:   uint16(srcReg),
				ConstIdx: constIdx,
			}
		}
		p.Captures = captures
	}

	return p, nil
}

func decodeAnalysis(r io.Reader) (*analysis.Analysis, error) {
	var classBuf, retBuf [1]byte
	if _, err := io.ReadFull(r, classBuf[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, retBuf[:]); err != nil {
		return nil, err
	}
	nEscaping, err := readU32(r)
	if err != nil {
		return nil, err
	}
	escaping := make([]uint32, nEscaping)
	for i := range escaping {
		escaping[i], err = readU32(r)
		if err != nil {
			return nil, err
		}
	}
	nRegion, err := readU32(r)
	if err != nil {
		return nil, err
	}
	region := make(map[uint32]analysis.Region, nRegion)
	for i := uint32(0); i < nRegion; i++ {
		k, err := readU32(r)
		if err != nil {
			return nil, err
		}
		var vBuf [1]byte
		if _, err := io.ReadFull(r, vBuf[:]); err != nil {
			return nil, err
		}
		region[k] = analysis.Region(vBuf[0])
	}
	return &analysis.Analysis{
		EscapeClass:    analysis.Region(classBuf[0]),
		ReturnRegion:   analysis.Region(retBuf[0]),
		EscapingValues: escaping,
		RegionPlan:     region,
	}, nil
}

// EncodeFunctionBytes/DecodeFunctionBytes embed a whole Function as a
// self-contained byte blob, used by pattern-guard functions (PatternPlan
// .GuardFunc) where a single JSON-tree field needs a binary Function
// alongside it rather than a fourth textual encoding.
func EncodeFunctionBytes(f *bytecode.Function) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeFunction(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeFunctionBytes(data []byte) (*bytecode.Function, error) {
	return DecodeFunction(bytes.NewReader(data), Version)
}
