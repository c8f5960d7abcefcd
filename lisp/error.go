// Copyright © 2018 The ELPS authors

package lisp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrorVal implements the error interface so that errors can be first class lisp
// objects.  The condition is stored in the Str field and the message parts in
// the Cells slice.
type ErrorVal LVal

// Errorf returns an error with the given condition and a formatted message.
func Errorf(condition string, format string, v ...interface{}) *ErrorVal {
	return (*ErrorVal)(&LVal{
		Type:  LError,
		Str:   condition,
		Cells: []*LVal{String(fmt.Sprintf(format, v...))},
	})
}

// ErrorCondition returns an error with the given condition wrapping err.
func ErrorCondition(condition string, err error) *ErrorVal {
	return (*ErrorVal)(&LVal{
		Type:  LError,
		Str:   condition,
		Cells: []*LVal{{Type: LString, Str: err.Error(), Native: err}},
	})
}

// Error implements the error interface.  The condition precedes the message
// and the source location, when known, precedes both.
func (e *ErrorVal) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%s: %s", e.Source, e.baseMessage())
	}
	return e.baseMessage()
}

func (e *ErrorVal) baseMessage() string {
	return fmt.Sprintf("%s: %s", e.Str, e.ErrorMessage())
}

// Condition returns the error condition name (e.g., "parse-error",
// "unbound-symbol").
func (e *ErrorVal) Condition() string {
	return e.Str
}

// Unwrap returns the Go error an ErrorVal was created from, if any.
func (e *ErrorVal) Unwrap() error {
	if len(e.Cells) > 0 {
		if err, ok := e.Cells[0].Native.(error); ok {
			return err
		}
	}
	return nil
}

// FunName returns the name of the function on the top of the call stack
// when the error occurred.
func (e *ErrorVal) FunName() string {
	return (*LVal)(e).CallStack().Top().FunName()
}

// ErrorMessage returns the underlying message in the error.
func (e *ErrorVal) ErrorMessage() string {
	if err := e.Unwrap(); err != nil {
		return err.Error()
	}
	var buf bytes.Buffer
	for i, cell := range e.Cells {
		if i > 0 {
			buf.WriteString(" ")
		}
		if cell.Type == LString {
			buf.WriteString(cell.Str)
		} else {
			buf.WriteString(cell.String())
		}
	}
	return buf.String()
}

// WriteTrace writes the error and a stack trace to w
func (e *ErrorVal) WriteTrace(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var n int
	var err error
	wrote := func(_n int, _err error) bool {
		n += _n
		err = _err
		return err == nil
	}
	if !wrote(bw.WriteString(e.Error())) {
		return n, err
	}
	if !wrote(bw.WriteString("\n")) {
		return n, err
	}
	if stack := (*LVal)(e).CallStack(); stack != nil {
		if !wrote(stack.DebugPrint(bw)) {
			return n, err
		}
	}
	return n, bw.Flush()
}

// GoError returns an error that represents v.  If v is not LError then nil
// is returned.
func GoError(v *LVal) error {
	if v.Type != LError {
		return nil
	}
	return (*ErrorVal)(v)
}

// IsCondition reports whether err is an evaluation error with the given
// condition.
func IsCondition(err error, condition string) bool {
	var lerr *ErrorVal
	return errors.As(err, &lerr) && lerr.Condition() == condition
}

// CallStack returns the call stack captured by an error value.
func (v *LVal) CallStack() *CallStack {
	stack, _ := v.Native.(*CallStack)
	return stack
}

// LVal returns e as a lisp value.
func (e *ErrorVal) LVal() *LVal {
	return (*LVal)(e)
}
