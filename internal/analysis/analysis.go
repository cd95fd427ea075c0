// Package analysis implements the SSA-lite escape classification and
// allocation-region plan attached to a compiled Function (component C8).
// It is an optimization hint only — spec.md §9 "Allocation-region hints"
// — correctness never depends on an implementation honoring it.
package analysis

// Region classifies where a value produced during a call may be allocated.
type Region uint8

const (
	// Heap is the default, conservative region: the value may outlive the
	// call that produced it (e.g. it is captured by a closure or returned).
	Heap Region = iota
	// ThreadLocal marks a value proven not to escape the current call; an
	// implementation may bump-allocate it from a per-call arena.
	ThreadLocal
)

func (r Region) String() string {
	if r == ThreadLocal {
		return "thread_local"
	}
	return "heap"
}

// Analysis is the optional metadata block attached to bytecode.Function.
type Analysis struct {
	// EscapeClass is the overall classification for the function's locals:
	// Heap if any local is known to escape, ThreadLocal if the analysis
	// proved none do.
	EscapeClass Region
	// EscapingValues lists the register indices of locals proven to
	// escape (e.g. captured by a nested closure or returned).
	EscapingValues []uint32
	// RegionPlan gives a per-register Region classification; indices not
	// present default to Heap.
	RegionPlan map[uint32]Region
	// ReturnRegion is the region of the value produced by the function's
	// Ret instruction.
	ReturnRegion Region
}

// New returns an empty, all-Heap Analysis — the safe default for any
// Function the compiler hasn't run escape analysis on.
func New() *Analysis {
	return &Analysis{RegionPlan: map[uint32]Region{}}
}

// RegionOf returns the region planned for register reg, defaulting to Heap
// when the analysis has no specific entry for it.
func (a *Analysis) RegionOf(reg uint32) Region {
	if a == nil {
		return Heap
	}
	if r, ok := a.RegionPlan[reg]; ok {
		return r
	}
	return Heap
}

// MarkEscaping records that register reg's value escapes the current call,
// bumping EscapeClass to Heap and adding it to EscapingValues.
func (a *Analysis) MarkEscaping(reg uint32) {
	a.EscapeClass = Heap
	a.RegionPlan[reg] = Heap
	for _, r := range a.EscapingValues {
		if r == reg {
			return
		}
	}
	a.EscapingValues = append(a.EscapingValues, reg)
}
