package types

import (
	"errors"
	"fmt"
)

// Frame is one call-stack entry as printed by a JavaScript engine.
// Line and Column are 1-based.
type Frame struct {
	Function string `json:"function,omitempty"`
	FileName string `json:"fileName"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func (f Frame) String() string {
	if f.Function == "" {
		return fmt.Sprintf("%s:%d:%d", f.FileName, f.Line, f.Column)
	}
	return fmt.Sprintf("%s (%s:%d:%d)", f.Function, f.FileName, f.Line, f.Column)
}

// Exception is a captured runtime failure: its message and the raw stack
// trace text produced by the engine, innermost frame first.
type Exception struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// Error implements error.
func (e *Exception) Error() string {
	return e.Message
}

// stackTracer is implemented by errors that carry a JavaScript stack.
type stackTracer interface {
	StackTrace() string
}

// FromError captures err as an Exception. Errors that do not carry a
// stack trace produce an Exception with an empty Stack.
func FromError(err error) *Exception {
	if err == nil {
		return nil
	}
	var exc *Exception
	if errors.As(err, &exc) {
		return exc
	}
	exc = &Exception{Message: err.Error()}
	var st stackTracer
	if errors.As(err, &st) {
		exc.Stack = st.StackTrace()
	}
	return exc
}
