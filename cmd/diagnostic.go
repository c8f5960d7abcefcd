// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/luthersystems/rktgrade/diagnostic"
	"github.com/luthersystems/rktgrade/lisp"
	lintpkg "github.com/luthersystems/rktgrade/lint"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// colorMode returns the configured color mode.  Invalid values were
// rejected before any command ran.
func colorMode() diagnostic.ColorMode {
	mode, _ := diagnostic.ParseColorMode(viper.GetString(keyColor))
	return mode
}

// newRenderer returns a renderer that reads program text from sources
// before falling back to the file system.
func newRenderer(sources diagnostic.Sources) *diagnostic.Renderer {
	return &diagnostic.Renderer{
		Color:        colorMode(),
		SourceReader: func(name string) ([]byte, error) {
			if src, ok := sources[name]; ok {
				return []byte(src), nil
			}
			return afero.ReadFile(appFs, name)
		},
	}
}

// lispErrorToDiagnostic converts an LError value to a Diagnostic for display.
func lispErrorToDiagnostic(lerr *lisp.LVal) diagnostic.Diagnostic {
	ev := (*lisp.ErrorVal)(lerr)
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  ev.ErrorMessage(),
	}
	if cond := ev.Condition(); cond != "" {
		d.Message = cond + ": " + d.Message
	}

	// Add source span if available
	if lerr.Source != nil && lerr.Source.Pos >= 0 {
		span := diagnostic.Span{
			File: lerr.Source.File,
			Line: lerr.Source.Line,
			Col:  lerr.Source.Col,
		}
		// Prefer physical path for reading source
		if lerr.Source.Path != "" {
			span.File = lerr.Source.Path
		}
		d.Spans = append(d.Spans, span)
	}

	// Add stack trace frames as notes
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
	if ev.Condition() == lisp.CondStepLimitExceeded {
		d.Help = append(d.Help, "raise the limit with --max-steps or check for infinite recursion")
	}
	return d
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lintpkg.Diagnostic) diagnostic.Diagnostic {
	sev := diagnostic.SeverityWarning
	if ld.Severity == lintpkg.SeverityError {
		sev = diagnostic.SeverityError
	}
	d := diagnostic.Diagnostic{
		Severity: sev,
		Message:  ld.Message + " (" + ld.Analyzer + ")",
	}
	if ld.Pos.Line > 0 {
		d.Spans = append(d.Spans, diagnostic.Span{
			File: ld.Pos.File,
			Line: ld.Pos.Line,
			Col:  ld.Pos.Col,
		})
	}
	d.Notes = append(d.Notes, ld.Notes...)
	d.Help = append(d.Help, "to suppress: add \"; nolint:"+ld.Analyzer+"\" as a comment on this line")
	return d
}

// renderError renders err to w, as an annotated snippet when it is an
// evaluation error.  If sourceFile is non-empty, a hint to run rktgrade lint
// is appended.
func renderError(w io.Writer, err error, sources diagnostic.Sources, sourceFiles ...string) {
	var lerr *lisp.ErrorVal
	if !errors.As(err, &lerr) {
		fmt.Fprintln(w, "error:", err) //nolint:errcheck // best-effort error display
		return
	}
	d := lispErrorToDiagnostic(lerr.LVal())
	if len(sourceFiles) > 0 && sourceFiles[0] != "" {
		d.Help = append(d.Help, "try: rktgrade lint "+sourceFiles[0])
	}
	_ = newRenderer(sources).Render(w, d)
}

// renderLintDiagnostics renders lint diagnostics with diagnostic formatting to w.
func renderLintDiagnostics(w io.Writer, diags []lintpkg.Diagnostic) {
	var ds []diagnostic.Diagnostic
	for _, ld := range diags {
		ds = append(ds, lintDiagToDiagnostic(ld))
	}
	_ = newRenderer(nil).RenderAll(w, ds)
}
