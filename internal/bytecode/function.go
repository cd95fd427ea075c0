package bytecode

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/analysis"
	"github.com/lollipopkit/lkr/internal/value"
)

// NamedParamLayout describes one named parameter's slot within a Function:
// the constant-pool index of its name, the register that receives its
// value, and, if it has a default expression, the index into the owning
// Proto's DefaultFuncs of the default-thunk Function (-1 if the parameter
// is required or optional-nil).
type NamedParamLayout struct {
	NameConstIdx uint32
	DestReg      uint16
	DefaultIndex int32 // -1 when absent
	Optional     bool  // true ⇒ Optional<T>, absent argument binds Nil
}

// CaptureKind distinguishes the three ways a closure may capture a value,
// per spec §3.3.
type CaptureKind uint8

const (
	// CaptureRegister copies the current register value at closure
	// construction time.
	CaptureRegister CaptureKind = iota
	// CaptureConst snapshots a compile-time-known constant.
	CaptureConst
	// CaptureGlobal resolves the name at call time, not at construction.
	CaptureGlobal
)

// CaptureSpec is one entry of a closure prototype's capture list.
type CaptureSpec struct {
	Kind CaptureKind
	Name string

	// SrcReg is valid for CaptureRegister: the parent frame's register to
	// copy at MakeClosure time.
	SrcReg uint16

	// ConstIdx is valid for CaptureConst: index into the parent Function's
	// constant pool.
	ConstIdx uint32
}

// Proto is a nested closure prototype referenced by a MakeClosure
// instruction's `proto` operand.
type Proto struct {
	SelfName string // non-empty for a named recursive function binding
	// SelfReg is the register SelfName resolves to inside Body; only
	// meaningful when SelfName is non-empty. The VM writes the closure's
	// own value there before running Body so recursive self-calls see it.
	SelfReg uint16
	Params  []string
	NamedParams []NamedParamLayout
	// DefaultFuncs holds, parallel to NamedParams (by index where
	// DefaultIndex is set), the compiled default-thunk Functions: each
	// runs with a fresh register window and reads the values it needs from
	// the callee's registers through its own Captures list.
	DefaultFuncs []*Function
	Body         *Function
	Captures     []CaptureSpec
}

// Function is a self-contained compilation unit: the result of lowering
// one statement/expression body (top-level module, named function or
// lambda) to register bytecode. See spec §3.2 for its invariants.
type Function struct {
	Name string

	NRegs          uint16
	ParamRegs      []uint16
	NamedParamRegs []uint16

	NamedParamLayout []NamedParamLayout

	// Consts holds only Nil/Bool/Int/Float/Str/List/Map values — the only
	// kinds legal in an LKRB constant pool (spec §3.2).
	Consts []value.Value

	Code []Instruction

	PatternPlans []*PatternPlan

	// Protos holds nested closure prototypes created by this Function's
	// MakeClosure instructions.
	Protos []*Proto

	// Captures lists the free-variable bindings this Function resolved
	// from its enclosing scope, for the bare (non-Proto) nested Functions
	// compiled for named-parameter defaults and pattern guards: those are
	// invoked directly by the VM against the enclosing frame's registers
	// rather than wrapped in a MakeClosure/Proto, so they carry their own
	// CaptureSpec list instead of relying on a Closure value's Captures.
	Captures []CaptureSpec

	// Analysis is the optional escape-classification/region-plan block
	// (component C8); nil means "no analysis was run", equivalent to an
	// all-Heap analysis.Analysis.
	Analysis *analysis.Analysis
}

// NewFunction returns an empty Function ready for a compiler to append to.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// Validate checks the structural invariants spec §3.2 and §8 require of
// every compiled Function: register/constant/jump/pattern-plan indices in
// range. It is run by the compiler after lowering and by the LKRB decoder
// after reading a module, so a malformed Function is caught at the
// earliest possible point rather than corrupting VM execution.
func (f *Function) Validate() error {
	codeLen := uint32(len(f.Code))
	for pc, ins := range f.Code {
		if ins.IsJump() && ins.Jump > codeLen {
			return fmt.Errorf("function %s: instruction %d: jump target %d out of range (code len %d)", f.Name, pc, ins.Jump, codeLen)
		}
		if ins.Op == PatternMatch || ins.Op == PatternMatchOrFail {
			if int(ins.PatternPlan) >= len(f.PatternPlans) {
				return fmt.Errorf("function %s: instruction %d: pattern plan index %d out of range", f.Name, pc, ins.PatternPlan)
			}
		}
		for _, reg := range [...]uint16{ins.A, ins.B, ins.C} {
			if usesRegOperand(ins.Op) && reg >= f.NRegs {
				return fmt.Errorf("function %s: instruction %d: register %d out of range (n_regs=%d)", f.Name, pc, reg, f.NRegs)
			}
		}
		if usesConstOperand(ins.Op) && int(ins.K) >= len(f.Consts) {
			return fmt.Errorf("function %s: instruction %d: constant index %d out of range", f.Name, pc, ins.K)
		}
	}
	if len(f.NamedParamRegs) != len(f.NamedParamLayout) {
		return fmt.Errorf("function %s: named_param_regs length %d != named_param_layout length %d", f.Name, len(f.NamedParamRegs), len(f.NamedParamLayout))
	}
	return nil
}

// usesRegOperand reports whether op's A/B/C operands are register indices
// that must be validated against NRegs. Only Break, Continue and NOP are
// exempt; every other op, Jmp included, has all three checked (operands an
// op does not use are left at zero).
func usesRegOperand(op Opcode) bool {
	switch op {
	case Break, Continue, NOP:
		return false
	default:
		return true
	}
}

func usesConstOperand(op Opcode) bool {
	switch op {
	case LoadK, AccessK, IndexK, DefineGlobal, LoadGlobal:
		return true
	default:
		return false
	}
}
