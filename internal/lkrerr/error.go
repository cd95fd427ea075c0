// Package lkrerr implements the runtime Error kind (component described in
// spec §7): a message plus the instruction index, function debug name and
// call-stack report it was raised from. It is grounded on funxy's
// evaluator.Error object (internal/evaluator/object_control.go),
// generalized from an interpreter Object into a Go error so native call
// sites can use errors.As/errors.Is.
package lkrerr

import "fmt"

// Frame is one entry of a call-stack report, innermost first.
type Frame struct {
	FunctionName string
	Location     string // optional, empty when no debug location is available
}

// Error is the runtime error value raised by the VM or by native
// functions. It satisfies the standard error interface.
type Error struct {
	Message        string
	InstructionIdx uint32
	FunctionName   string
	CallStack      []Frame

	// Wrapped holds an underlying Go error when this Error was produced by
	// wrapping a host-side failure (e.g. an I/O error from a native
	// function), so callers can still errors.As/Unwrap to it.
	Wrapped error
}

func New(msg string) *Error {
	return &Error{Message: msg}
}

func Wrap(err error) *Error {
	return &Error{Message: err.Error(), Wrapped: err}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Wrapped }

// WithFrame returns a copy of e with an additional innermost call-stack
// frame. Used when propagating an error up through nested VM calls, and
// for the default-thunk diagnostic frame name
// "<outer>::<default:<paramName>>" described in spec §4.2.
func (e *Error) WithFrame(f Frame) *Error {
	next := *e
	next.CallStack = append([]Frame{f}, e.CallStack...)
	return &next
}

// Report renders the user-visible "Error: <message>" plus call-stack
// report described in spec §7.
func (e *Error) Report() string {
	s := "Error: " + e.Message
	if len(e.CallStack) > 0 {
		s += "\nCall stack:"
		for _, f := range e.CallStack {
			if f.Location != "" {
				s += fmt.Sprintf("\n  %s (%s)", f.FunctionName, f.Location)
			} else {
				s += fmt.Sprintf("\n  %s", f.FunctionName)
			}
		}
	}
	return s
}
