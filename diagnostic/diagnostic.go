// Copyright © 2024 The ELPS authors

// Package diagnostic renders errors in submissions as annotated source
// snippets.  It does not depend on the evaluator, so any command or the
// language server can use it.
package diagnostic

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight.
type Span struct {
	File   string // source name, resolved through the renderer's SourceReader
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = end of the token at Col)
	Label  string // text shown under the underline
}

// Diagnostic is one error, warning or note.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	// Notes are printed as "= note:" lines, e.g. the frames of a call
	// stack.
	Notes []string
	// Help lines suggest a fix.
	Help []string
}

// Sources maps source names to their text.  It is used to render
// diagnostics for programs that never existed as files, such as
// submissions and hidden test cases.
type Sources map[string]string

// Reader returns a SourceReader serving s.
func (s Sources) Reader() func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		src, ok := s[name]
		if !ok {
			return nil, &missingSourceError{name}
		}
		return []byte(src), nil
	}
}

type missingSourceError struct{ name string }

func (e *missingSourceError) Error() string { return "no source for " + e.name }
