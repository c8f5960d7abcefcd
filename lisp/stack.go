// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"io"

	"github.com/luthersystems/rktgrade/parser/token"
)

// CallStack is a function call stack.
type CallStack struct {
	Frames []CallFrame
}

// CallFrame is one frame in the CallStack
type CallFrame struct {
	Source *token.Location
	Name   string
	// HeightLogical counts the frames elided by tail calls below and
	// including this one.
	HeightLogical int
	// Terminal frames replaced a caller's frame through a tail call.
	Terminal bool
}

// FunName returns the name of the function called in f.
func (f *CallFrame) FunName() string {
	if f == nil {
		return ""
	}
	if f.Name == "" {
		return "lambda"
	}
	return f.Name
}

func (f *CallFrame) String() string {
	desc := f.FunName()
	if f.Terminal {
		desc += " [terminal]"
	}
	if f.Source != nil {
		return fmt.Sprintf("%s: %s", f.Source, desc)
	}
	return desc
}

// Top returns the CallFrame at the top of the stack or nil if none exists.
func (s *CallStack) Top() *CallFrame {
	if s == nil || len(s.Frames) == 0 {
		return nil
	}
	return &s.Frames[len(s.Frames)-1]
}

// Height returns the logical height of the stack.
func (s *CallStack) Height() int {
	if top := s.Top(); top != nil {
		return top.HeightLogical
	}
	return 0
}

// DebugPrint prints s
func (s *CallStack) DebugPrint(w io.Writer) (int, error) {
	n, err := fmt.Fprintf(w, "Stack Trace [%d frames -- entrypoint last]:\n", len(s.Frames))
	if err != nil {
		return n, err
	}
	indent := "  "
	for i := len(s.Frames) - 1; i >= 0; i-- {
		_n, err := fmt.Fprintf(w, "%sheight %d: %s\n", indent, i, s.Frames[i].String())
		n += _n
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
