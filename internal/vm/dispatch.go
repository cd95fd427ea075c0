package vm

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/lkrerr"
	"github.com/lollipopkit/lkr/internal/value"
)

// runFrame is the main dispatch loop: fetch-decode-execute over
// fr.fn.Code, indexing operands directly into fr.regs (grounded on
// funxy's internal/vm/vm.go run loop, adapted from stack push/pop to
// register read/write).
func (vm *VM) runFrame(fr *frame) (value.Value, error) {
	code := fr.fn.Code
	for fr.pc < len(code) {
		ins := code[fr.pc]
		switch ins.Op {
		case bytecode.NOP:
			fr.pc++

		case bytecode.LoadK:
			fr.regs[ins.A] = fr.fn.Consts[ins.K]
			fr.pc++

		case bytecode.Move:
			fr.regs[ins.A] = fr.regs[ins.B]
			fr.pc++

		case bytecode.LoadLocal:
			fr.regs[ins.A] = vm.ctx.SlotValue(ins.B)
			fr.pc++

		case bytecode.StoreLocal:
			vm.ctx.SetSlotValue(ins.B, fr.regs[ins.A])
			fr.pc++

		case bytecode.LoadGlobal:
			name := string(fr.fn.Consts[ins.K].(value.Str))
			v, ok := vm.ctx.Get(name)
			if !ok {
				if vm.ctx.Resolver != nil {
					if rv, rok := vm.ctx.Resolver.Resolve(name); rok {
						fr.regs[ins.A] = rv
						fr.pc++
						continue
					}
				}
				return nil, vm.raised(fr, fmt.Sprintf("undefined global: %s", name))
			}
			fr.regs[ins.A] = v
			fr.pc++

		case bytecode.DefineGlobal:
			name := string(fr.fn.Consts[ins.K].(value.Str))
			vm.ctx.Define(name, fr.regs[ins.A])
			fr.pc++

		case bytecode.LoadCapture:
			fr.regs[ins.A] = fr.captures[ins.B]
			fr.pc++

		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod,
			bytecode.CmpEq, bytecode.CmpNe, bytecode.CmpLt, bytecode.CmpLe, bytecode.CmpGt, bytecode.CmpGe, bytecode.In:
			v, err := binop(ins.Op, fr.regs[ins.B], fr.regs[ins.C])
			if err != nil {
				return nil, vm.raised(fr, err.Error())
			}
			fr.regs[ins.A] = v
			fr.pc++

		case bytecode.AddInt, bytecode.SubInt, bytecode.MulInt, bytecode.ModInt:
			x, xok := fr.regs[ins.B].(value.Int)
			y, yok := fr.regs[ins.C].(value.Int)
			if !xok || !yok {
				return nil, vm.raised(fr, "type-specialized int op applied to non-int operand")
			}
			fr.regs[ins.A] = intOp(ins.Op, x, y)
			fr.pc++

		case bytecode.AddFloat, bytecode.SubFloat, bytecode.MulFloat, bytecode.DivFloat, bytecode.ModFloat:
			x, xok := fr.regs[ins.B].(value.Float)
			y, yok := fr.regs[ins.C].(value.Float)
			if !xok || !yok {
				return nil, vm.raised(fr, "type-specialized float op applied to non-float operand")
			}
			fr.regs[ins.A] = floatOp(ins.Op, x, y)
			fr.pc++

		case bytecode.AddIntImm:
			x, ok := fr.regs[ins.B].(value.Int)
			if !ok {
				return nil, vm.raised(fr, "add_int_imm applied to non-int operand")
			}
			fr.regs[ins.A] = x + value.Int(ins.Imm)
			fr.pc++

		case bytecode.CmpEqImm, bytecode.CmpNeImm, bytecode.CmpLtImm, bytecode.CmpLeImm, bytecode.CmpGtImm, bytecode.CmpGeImm:
			x, ok := fr.regs[ins.B].(value.Int)
			if !ok {
				return nil, vm.raised(fr, "immediate comparison applied to non-int operand")
			}
			fr.regs[ins.A] = value.Bool(cmpImm(ins.Op, int64(x), int64(ins.Imm)))
			fr.pc++

		case bytecode.Not:
			fr.regs[ins.A] = value.Bool(!truthy(fr.regs[ins.B]))
			fr.pc++

		case bytecode.ToBool:
			fr.regs[ins.A] = value.Bool(truthy(fr.regs[ins.B]))
			fr.pc++

		case bytecode.ToStr:
			fr.regs[ins.A] = value.Str(fr.regs[ins.B].String())
			fr.pc++

		case bytecode.Access:
			v, err := accessDynamic(fr.regs[ins.B], fr.regs[ins.C])
			if err != nil {
				return nil, vm.raised(fr, err.Error())
			}
			fr.regs[ins.A] = v
			fr.pc++

		case bytecode.AccessK:
			field := string(fr.fn.Consts[ins.K].(value.Str))
			if ins.Imm == 1 {
				updated, err := withField(fr.regs[ins.B], field, fr.regs[ins.C])
				if err != nil {
					return nil, vm.raised(fr, err.Error())
				}
				fr.regs[ins.A] = updated
			} else {
				v, err := accessField(fr.regs[ins.B], field)
				if err != nil {
					return nil, vm.raised(fr, err.Error())
				}
				fr.regs[ins.A] = v
			}
			fr.pc++

		case bytecode.Index:
			if ins.Imm == 1 {
				// Store mode: K is reused as a register index holding the
				// new value (Index is not in usesConstOperand), not a
				// constant-pool index.
				updated, err := withIndex(fr.regs[ins.B], fr.regs[ins.C], fr.regs[ins.K])
				if err != nil {
					return nil, vm.raised(fr, err.Error())
				}
				fr.regs[ins.A] = updated
			} else {
				v, err := indexValue(fr.regs[ins.B], fr.regs[ins.C])
				if err != nil {
					return nil, vm.raised(fr, err.Error())
				}
				fr.regs[ins.A] = v
			}
			fr.pc++

		case bytecode.IndexK:
			// Load-only: the index key is a compile-time constant (K is a
			// genuine constant-pool index here, per usesConstOperand).
			// Not emitted by internal/compiler today but kept executable
			// since it's part of the ISA.
			v, err := indexValue(fr.regs[ins.B], fr.fn.Consts[ins.K])
			if err != nil {
				return nil, vm.raised(fr, err.Error())
			}
			fr.regs[ins.A] = v
			fr.pc++

		case bytecode.Len:
			n, err := lengthOf(fr.regs[ins.B])
			if err != nil {
				return nil, vm.raised(fr, err.Error())
			}
			fr.regs[ins.A] = value.Int(n)
			fr.pc++

		case bytecode.ToIter:
			v, err := toIterable(fr.regs[ins.B])
			if err != nil {
				return nil, vm.raised(fr, err.Error())
			}
			fr.regs[ins.A] = v
			fr.pc++

		case bytecode.BuildList:
			elems := make([]value.Value, ins.C)
			copy(elems, fr.regs[ins.B:int(ins.B)+int(ins.C)])
			fr.regs[ins.A] = value.NewList(elems)
			fr.pc++

		case bytecode.BuildMap:
			entries := make(map[string]value.Value, ins.C)
			for i := uint16(0); i < ins.C; i++ {
				k := fr.regs[ins.B+i*2]
				v := fr.regs[ins.B+i*2+1]
				entries[mapKeyString(k)] = v
			}
			fr.regs[ins.A] = value.NewMapFrom(entries)
			fr.pc++

		case bytecode.ListSlice:
			v, err := sliceValue(fr.regs[ins.B], fr.regs[ins.C], fr.regs[ins.K])
			if err != nil {
				return nil, vm.raised(fr, err.Error())
			}
			fr.regs[ins.A] = v
			fr.pc++

		case bytecode.MakeClosure:
			proto := fr.fn.Protos[ins.B]
			captures := make([]value.Value, len(proto.Captures))
			for i, spec := range proto.Captures {
				captures[i] = fr.regs[spec.SrcReg]
			}
			fr.regs[ins.A] = &Closure{Proto: proto, Captures: captures}
			fr.pc++

		case bytecode.Jmp:
			fr.pc = int(ins.Jump)

		case bytecode.JmpFalse:
			if !truthy(fr.regs[ins.A]) {
				fr.pc = int(ins.Jump)
			} else {
				fr.pc++
			}

		case bytecode.JmpIfNil:
			if value.IsNil(fr.regs[ins.A]) {
				fr.pc = int(ins.Jump)
			} else {
				fr.pc++
			}

		case bytecode.JmpIfNotNil:
			if !value.IsNil(fr.regs[ins.A]) {
				fr.pc = int(ins.Jump)
			} else {
				fr.pc++
			}

		case bytecode.JmpFalseSet:
			if !truthy(fr.regs[ins.A]) {
				fr.pc = int(ins.Jump)
			} else {
				fr.pc++
			}

		case bytecode.JmpTrueSet:
			if truthy(fr.regs[ins.A]) {
				fr.pc = int(ins.Jump)
			} else {
				fr.pc++
			}

		case bytecode.NullishPick:
			if !value.IsNil(fr.regs[ins.A]) {
				fr.pc = int(ins.Jump)
			} else {
				fr.pc++
			}

		case bytecode.Break, bytecode.Continue:
			// Never emitted by internal/compiler (break/continue lower to
			// Jmp); reaching one means a hand-assembled or future-producer
			// Function used them without the VM learning their structured
			// target. Treated as a hard error rather than silently no-op.
			return nil, vm.raised(fr, fmt.Sprintf("unsupported bare %s opcode", ins.Op))

		case bytecode.Ret:
			return fr.regs[ins.A], nil

		case bytecode.Raise:
			return nil, vm.raised(fr, fr.regs[ins.A].String())

		case bytecode.Call:
			args := make([]value.Value, ins.Argc)
			copy(args, fr.regs[ins.C:int(ins.C)+int(ins.Argc)])
			result, err := vm.callValue(fr.regs[ins.B], args, nil)
			if err != nil {
				return nil, err
			}
			fr.regs[ins.A] = result
			fr.pc++

		case bytecode.CallNamed:
			args := make([]value.Value, ins.Argc)
			copy(args, fr.regs[ins.C:int(ins.C)+int(ins.Argc)])
			named := make(map[string]value.Value, ins.Namedc)
			base := ins.C + ins.Argc
			for i := uint16(0); i < ins.Namedc; i++ {
				nameReg := base + i*2
				valReg := nameReg + 1
				named[string(fr.regs[nameReg].(value.Str))] = fr.regs[valReg]
			}
			result, err := vm.callValue(fr.regs[ins.B], args, named)
			if err != nil {
				return nil, err
			}
			fr.regs[ins.A] = result
			fr.pc++

		case bytecode.ForRangePrep:
			fr.regs[ins.A] = fr.regs[ins.B]
			fr.pc++

		case bytecode.ForRangeLoop:
			counter, cok := fr.regs[ins.A].(value.Int)
			limit, lok := fr.regs[ins.B].(value.Int)
			step, sok := fr.regs[ins.C].(value.Int)
			if !cok || !lok || !sok {
				return nil, vm.raised(fr, "range-for bounds must be int")
			}
			inclusive := ins.Imm != 0
			var cont bool
			if step > 0 {
				if inclusive {
					cont = counter <= limit
				} else {
					cont = counter < limit
				}
			} else {
				if inclusive {
					cont = counter >= limit
				} else {
					cont = counter > limit
				}
			}
			if cont {
				fr.pc++
			} else {
				fr.pc = int(ins.Jump)
			}

		case bytecode.ForRangeStep:
			counter := fr.regs[ins.A].(value.Int)
			step := fr.regs[ins.B].(value.Int)
			fr.regs[ins.A] = counter + step
			fr.pc = int(ins.Jump)

		case bytecode.PatternMatch:
			ok, err := vm.matchPattern(fr, fr.fn.PatternPlans[ins.PatternPlan], fr.regs[ins.B])
			if err != nil {
				return nil, err
			}
			fr.regs[ins.A] = value.Bool(ok)
			fr.pc++

		case bytecode.PatternMatchOrFail:
			ok, err := vm.matchPattern(fr, fr.fn.PatternPlans[ins.PatternPlan], fr.regs[ins.A])
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, vm.raised(fr, "pattern match failed")
			}
			fr.pc++

		default:
			return nil, vm.raised(fr, fmt.Sprintf("unimplemented opcode %s", ins.Op))
		}
	}
	return value.Nil, nil
}

func (vm *VM) raised(fr *frame, msg string) error {
	e := lkrerr.New(msg)
	e.InstructionIdx = uint32(fr.pc)
	e.FunctionName = fr.fn.Name
	e.CallStack = vm.ctx.CallStackReport()
	return e
}
