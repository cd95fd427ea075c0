package lkrb

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lollipopkit/lkr/internal/bytecode"
)

// encodeInstruction writes one instruction. Jump-carrying opcodes encode
// their target as a signed delta from the instruction's own index, written
// as a 32-bit field (not a 16-bit one); every other opcode writes its
// absolute operands directly.
func encodeInstruction(w io.Writer, idx int, ins bytecode.Instruction) error {
	if _, err := w.Write([]byte{byte(ins.Op)}); err != nil {
		return err
	}
	var buf [2]byte
	putU16 := func(v uint16) error {
		binary.LittleEndian.PutUint16(buf[:], v)
		_, err := w.Write(buf[:])
		return err
	}
	if err := putU16(ins.A); err != nil {
		return err
	}
	if err := putU16(ins.B); err != nil {
		return err
	}
	if err := putU16(ins.C); err != nil {
		return err
	}
	if err := putU16(ins.K); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(ins.Imm)}); err != nil {
		return err
	}
	if err := putU16(ins.Argc); err != nil {
		return err
	}
	if err := putU16(ins.Namedc); err != nil {
		return err
	}
	if err := writeU32(w, ins.PatternPlan); err != nil {
		return err
	}
	delta := int32(0)
	if ins.IsJump() {
		delta = int32(ins.Jump) - int32(idx)
	}
	return writeU32(w, uint32(delta))
}

func decodeInstruction(r io.Reader, idx int) (bytecode.Instruction, error) {
	var opBuf [1]byte
	if _, err := io.ReadFull(r, opBuf[:]); err != nil {
		return bytecode.Instruction{}, err
	}
	op := bytecode.Opcode(opBuf[0])

	var u16buf [2]byte
	getU16 := func() (uint16, error) {
		if _, err := io.ReadFull(r, u16buf[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(u16buf[:]), nil
	}
	a, err := getU16()
	if err != nil {
		return bytecode.Instruction{}, err
	}
	b, err := getU16()
	if err != nil {
		return bytecode.Instruction{}, err
	}
	c, err := getU16()
	if err != nil {
		return bytecode.Instruction{}, err
	}
	k, err := getU16()
	if err != nil {
		return bytecode.Instruction{}, err
	}
	var immBuf [1]byte
	if _, err := io.ReadFull(r, immBuf[:]); err != nil {
		return bytecode.Instruction{}, err
	}
	argc, err := getU16()
	if err != nil {
		return bytecode.Instruction{}, err
	}
	namedc, err := getU16()
	if err != nil {
		return bytecode.Instruction{}, err
	}
	patIdx, err := readU32(r)
	if err != nil {
		return bytecode.Instruction{}, err
	}
	deltaRaw, err := readU32(r)
	if err != nil {
		return bytecode.Instruction{}, err
	}
	delta := int32(deltaRaw)

	ins := bytecode.Instruction{
		Op: op, A: a, B: b, C: c, K: k,
		Imm:         int8(immBuf[0]),
		Argc:        argc,
		Namedc:      namedc,
		PatternPlan: patIdx,
	}
	if ins.IsJump() {
		target := int32(idx) + delta
		if target < 0 {
			return bytecode.Instruction{}, fmt.Errorf("lkrb: negative jump target decoding instruction %d", idx)
		}
		ins.Jump = uint32(target)
	}
	return ins, nil
}
