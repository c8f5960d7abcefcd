// Copyright © 2024 The ELPS authors

package repl

import (
	"io"

	"github.com/luthersystems/rktgrade/diagnostic"
	"github.com/luthersystems/rktgrade/lisp"
)

// renderError renders a lisp error using the diagnostic renderer.  Source
// snippets are not available for stdin, so the renderer shows just the
// location and error message.
func renderError(w io.Writer, lerr *lisp.LVal) {
	d := lispErrorToDiag(lerr)
	r := &diagnostic.Renderer{Color: diagnostic.ColorAuto}
	_ = r.Render(w, d)
}

// lispErrorToDiag converts an LError value to a Diagnostic for display.
func lispErrorToDiag(lerr *lisp.LVal) diagnostic.Diagnostic {
	ev := (*lisp.ErrorVal)(lerr)
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  ev.ErrorMessage(),
	}
	if cond := ev.Condition(); cond != "" {
		d.Message = cond + ": " + d.Message
	}

	if lerr.Source != nil && lerr.Source.Pos >= 0 {
		span := diagnostic.Span{
			File: lerr.Source.File,
			Line: lerr.Source.Line,
			Col:  lerr.Source.Col,
		}
		if lerr.Source.Path != "" {
			span.File = lerr.Source.Path
		}
		d.Spans = append(d.Spans, span)
	}

	stack := lerr.CallStack()
	if stack != nil {
		for i := len(stack.Frames) - 1; i >= 0; i-- {
			frame := &stack.Frames[i]
			loc := "unknown"
			if frame.Source != nil {
				loc = frame.Source.String()
			}
			d.Notes = append(d.Notes, "in "+frame.FunName()+" at "+loc)
		}
	}
	return d
}
