// Package compiler implements the lowering of a parsed statement tree
// (internal/ast) into register bytecode (component C4): register
// allocation, jump patching, pattern-plan interning, and closure capture
// synthesis.
//
// Grounded on funxy's internal/vm/compiler*.go — the scope-depth stack
// with per-depth slot counters (compiler_scope.go beginScope/endScope),
// the forward-jump patch-list pattern for break/continue
// (compiler_loops.go LoopContext/emitJump/patchJump) — generalized from
// funxy's byte-offset stack-VM patches to this register VM's
// instruction-index patches (our Instruction is a fixed-width struct,
// so "patching" is assigning Code[i].Jump rather than rewriting bytes),
// and mna-nenuphar's lang/compiler/asm.go patch-list idea for the same
// concern in a different teacher repo.
package compiler

import (
	"fmt"

	"github.com/lollipopkit/lkr/internal/ast"
	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// loopCtx tracks one enclosing loop's break/continue pending-jump lists,
// mirroring funxy's LoopContext (compiler_loops.go) adapted from
// byte-offset jumps to instruction-index jumps.
type loopCtx struct {
	breakJumps    []int
	continueJumps []int
	regMark       uint16
}

// scope is one lexical block's name→register bindings.
type scope struct {
	regs map[string]uint16
}

// Compiler lowers one function body (top-level script or a nested
// closure) to a *bytecode.Function. Nested functions get their own
// Compiler linked via enclosing, the way funxy links nested Compilers
// for upvalue resolution.
type Compiler struct {
	fn *bytecode.Function

	nextReg      uint16
	regHighWater uint16

	scopes []scope

	loopStack []loopCtx

	// captures accumulates this function's own CaptureSpec list as free
	// variables are resolved from an enclosing scope; it becomes
	// Proto.Captures when the parent emits MakeClosure for this function.
	captures    []bytecode.CaptureSpec
	captureRegs map[string]uint16 // name -> local register already holding a loaded capture

	enclosing *Compiler

	constCache map[any]uint16
}

// New returns a Compiler for a fresh top-level Function named name.
func New(name string) *Compiler {
	return &Compiler{
		fn:          bytecode.NewFunction(name),
		scopes:      []scope{{regs: map[string]uint16{}}},
		captureRegs: map[string]uint16{},
		constCache:  map[any]uint16{},
	}
}

func newNested(name string, enclosing *Compiler) *Compiler {
	c := New(name)
	c.enclosing = enclosing
	return c
}

// CompileProgram lowers a whole parsed source file to its entry Function.
func CompileProgram(prog *ast.Program) (*bytecode.Function, error) {
	c := New("<main>")
	if err := c.compileFunctionBody(prog.Statements); err != nil {
		return nil, err
	}
	c.fn.NRegs = c.regHighWater
	if err := c.fn.Validate(); err != nil {
		return nil, err
	}
	return c.fn, nil
}

// --- register allocation ---

// alloc reserves the next free register.
func (c *Compiler) alloc() uint16 {
	r := c.nextReg
	c.nextReg++
	if c.nextReg > c.regHighWater {
		c.regHighWater = c.nextReg
	}
	return r
}

// allocN reserves count contiguous registers, returning the first.
func (c *Compiler) allocN(count int) uint16 {
	base := c.nextReg
	for i := 0; i < count; i++ {
		c.alloc()
	}
	return base
}

// mark/reset implement the scope-depth-stack-discipline register reuse:
// sibling subtrees reuse the same register range once a scope closes.
func (c *Compiler) mark() uint16   { return c.nextReg }
func (c *Compiler) reset(m uint16) { c.nextReg = m }

// --- scope / name resolution ---

func (c *Compiler) beginScope() {
	c.scopes = append(c.scopes, scope{regs: map[string]uint16{}})
}

func (c *Compiler) endScope(mark uint16) {
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.reset(mark)
}

// defineLocal binds name to reg in the innermost scope.
func (c *Compiler) defineLocal(name string, reg uint16) {
	c.scopes[len(c.scopes)-1].regs[name] = reg
}

// resolveLocal looks for name in this function's own scope stack only.
func (c *Compiler) resolveLocal(name string) (uint16, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if r, ok := c.scopes[i].regs[name]; ok {
			return r, true
		}
	}
	return 0, false
}

// resolveCapture resolves name as a free variable captured from an
// enclosing function. It recurses outward, and when the name is found
// several levels up, each intermediate function re-exposes it as one of
// its own locals (loaded via LoadCapture in its prelude) so the chain
// only ever needs single-level CaptureRegister specs — the same
// flattening funxy's resolveUpvalue performs for upvalue chains
// (compiler_scope.go), adapted to registers instead of upvalue slots.
//
// Per DESIGN.md's Open Question decisions, this compiler never emits
// CaptureConst/CaptureGlobal: a name that resolves to neither a local
// nor an enclosing local is left to LoadGlobal, which already gives
// identical call-time resolution semantics.
func (c *Compiler) resolveCapture(name string) (uint16, bool) {
	if reg, ok := c.captureRegs[name]; ok {
		return reg, true
	}
	if c.enclosing == nil {
		return 0, false
	}
	var srcReg uint16
	if r, ok := c.enclosing.resolveLocal(name); ok {
		srcReg = r
	} else if r, ok := c.enclosing.resolveCapture(name); ok {
		srcReg = r
	} else {
		return 0, false
	}
	capIdx := uint16(len(c.captures))
	c.captures = append(c.captures, bytecode.CaptureSpec{
		Kind:   bytecode.CaptureRegister,
		Name:   name,
		SrcReg: srcReg,
	})
	reg := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadCapture, A: reg, B: capIdx})
	c.captureRegs[name] = reg
	c.defineLocal(name, reg)
	return reg, true
}

// --- constants ---

// addConst interns v into the constant pool, deduplicating scalar kinds
// (Nil/Bool/Int/Float/Str) the way funxy's WriteConstant avoids constant
// pool bloat for repeated literals; List/Map constants are never
// deduplicated since two equal-valued literals still occupy independent
// shared instances.
func (c *Compiler) addConst(v value.Value) uint16 {
	var key any
	switch t := v.(type) {
	case value.NilType:
		key = "nil"
	case value.Bool:
		key = t
	case value.Int:
		key = t
	case value.Float:
		key = t
	case value.Str:
		key = t
	}
	if key != nil {
		if idx, ok := c.constCache[key]; ok {
			return idx
		}
	}
	idx := uint16(len(c.fn.Consts))
	c.fn.Consts = append(c.fn.Consts, v)
	if key != nil {
		c.constCache[key] = idx
	}
	return idx
}

func (c *Compiler) addStrConst(s string) uint16 { return c.addConst(value.Str(s)) }

// --- instruction emission ---

func (c *Compiler) emit(ins bytecode.Instruction) int {
	c.fn.Code = append(c.fn.Code, ins)
	return len(c.fn.Code) - 1
}

// emitJump appends a jump-carrying instruction with a placeholder target
// and returns its index for later patching.
func (c *Compiler) emitJump(ins bytecode.Instruction) int {
	return c.emit(ins)
}

// patchHere sets the jump instruction at idx to target the current code
// position.
func (c *Compiler) patchHere(idx int) {
	c.fn.Code[idx].Jump = uint32(len(c.fn.Code))
}

// patchTo sets the jump instruction at idx to target an explicit
// instruction index.
func (c *Compiler) patchTo(idx int, target int) {
	c.fn.Code[idx].Jump = uint32(target)
}

func (c *Compiler) here() int { return len(c.fn.Code) }

// raiseConst emits a Raise of a fixed string message. Raise always reads
// its operand from register A (never from K directly), so the message is
// first loaded like any other string constant — keeping Raise's operand
// convention uniform for the VM regardless of which compiler path reached it.
func (c *Compiler) raiseConst(msg string) {
	r := c.alloc()
	c.emit(bytecode.Instruction{Op: bytecode.LoadK, A: r, K: c.addStrConst(msg)})
	c.emit(bytecode.Instruction{Op: bytecode.Raise, A: r})
}

func (c *Compiler) errf(pos ast.Pos, format string, args ...any) error {
	return fmt.Errorf("compile error at %d:%d: %s", pos.Line, pos.Col, fmt.Sprintf(format, args...))
}
