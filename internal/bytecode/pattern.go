package bytecode

import "github.com/lollipopkit/lkr/internal/value"

// PatternPlanKind discriminates the PatternPlan tree node variants, per
// spec §4.1 "Patterns".
type PatternPlanKind uint8

const (
	PatternLiteral PatternPlanKind = iota
	PatternWildcard
	PatternVariable
	PatternList
	PatternMap
	PatternOr
	PatternGuard
	PatternRange
)

// PatternPlan is a serializable, interpretable decision tree for a single
// pattern-matching form. The compiler interns one per distinct source
// pattern into Function.PatternPlans; PatternMatch/PatternMatchOrFail
// instructions reference it by index so the VM can walk it directly
// without a dedicated straight-line sub-program (spec §9 "Pattern
// plans").
type PatternPlan struct {
	Kind PatternPlanKind

	// Literal: the constant value to compare against (Kind == PatternLiteral).
	Literal value.Value

	// Variable: the slot this binding writes into (Kind == PatternVariable).
	Slot uint16

	// List: element sub-patterns and, if the pattern has a `...rest`
	// suffix, the slot that receives the remaining elements.
	Elems    []*PatternPlan
	HasRest  bool
	RestSlot uint16

	// Map: key → sub-pattern entries (Kind == PatternMap), plus an
	// optional rest-slot for any remaining keys.
	Entries map[string]*PatternPlan

	// Or: alternative sub-patterns, first match wins (Kind == PatternOr).
	Alternatives []*PatternPlan

	// Guard: a wrapped sub-pattern plus a guard expression, compiled
	// separately and re-entered via a call to GuardFunc (a nested
	// Function evaluating the boolean guard against already-bound
	// variables; Kind == PatternGuard).
	Inner     *PatternPlan
	GuardFunc *Function

	// Range: inclusive bounds for a numeric range sub-pattern
	// (Kind == PatternRange).
	Low, High value.Value
}
