// Copyright © 2024 The ELPS authors

package source

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind classifies a top-level form.
type Kind uint8

const (
	Other Kind = iota
	Definition
	Test
)

func (k Kind) String() string {
	switch k {
	case Definition:
		return "definition"
	case Test:
		return "test"
	default:
		return "other"
	}
}

// Form is the trimmed text of one top-level expression.
type Form struct {
	Text string
	Kind Kind
	// Offset and Line locate the first character of the form in the
	// original source.
	Offset int
	Line   int
}

func (f Form) String() string {
	return f.Text
}

var (
	definitionPattern = regexp.MustCompile(`^\(define[\s-]`)
	testPattern       = regexp.MustCompile(`^\(check-(?:expect|within)[\s)]`)
)

// Classify returns the Kind of a form's text.
func Classify(text string) Kind {
	text = strings.TrimSpace(text)
	switch {
	case definitionPattern.MatchString(text):
		return Definition
	case testPattern.MatchString(text):
		return Test
	default:
		return Other
	}
}

// Split cuts src into its top-level forms in source order.  Comments are
// removed from the form text and the λ shorthand is spelled out as lambda.
// Text left inside an unclosed bracket at the end of src is dropped, as is
// everything from a closing bracket that has no opener.  Every returned
// form is balanced.
func Split(src string) []Form {
	var (
		forms []Form
		acc   strings.Builder
		start = -1
		line  int
	)
	emit := func() {
		// A form ends on its last character, so only leading space
		// needs trimming; #\  names a space.
		text := strings.TrimLeftFunc(acc.String(), unicode.IsSpace)
		acc.Reset()
		if text != "" {
			forms = append(forms, Form{
				Text:   text,
				Kind:   Classify(text),
				Offset: start,
				Line:   line,
			})
		}
		start = -1
	}

	s := NewScanner(src)
	for s.Next() {
		c := s.Char()
		class := s.Class()
		if s.Depth() < 0 {
			return forms
		}
		if class == InComment {
			continue
		}
		if start < 0 && !unicode.IsSpace(c) {
			start = s.Offset()
			line = s.Line()
		}
		if class == Normal && c == 'λ' {
			acc.WriteString("lambda")
		} else {
			acc.WriteRune(c)
		}
		if s.Depth() != 0 || s.InString() || start < 0 {
			continue
		}
		switch {
		case class == InString:
			// closing quote of a top-level string
			emit()
		case !s.literal && (c == ')' || c == ']'):
			emit()
		case atomEnds(s):
			emit()
		}
	}
	if s.Depth() == 0 && !s.InString() {
		emit()
	}
	return forms
}

// atomEnds reports whether the current character finishes a top-level atom.
func atomEnds(s *Scanner) bool {
	c := s.Char()
	if s.charLit {
		// the backslash of #\
		return false
	}
	if !s.literal && (unicode.IsSpace(c) || strings.ContainsRune("'`,@", c)) {
		return false
	}
	next, ok := s.Peek()
	if !ok {
		return true
	}
	return unicode.IsSpace(next) || strings.ContainsRune("()[]\";", next)
}

// Join reassembles forms into a program with one form per line.
func Join(forms []Form) string {
	var b strings.Builder
	for i, f := range forms {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Text)
	}
	return b.String()
}

// EvalOrder returns the definitions of forms followed by every other form,
// each group in source order.
func EvalOrder(forms []Form) []Form {
	ordered := make([]Form, 0, len(forms))
	for _, f := range forms {
		if f.Kind == Definition {
			ordered = append(ordered, f)
		}
	}
	for _, f := range forms {
		if f.Kind != Definition {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// Texts returns the text of each form.
func Texts(forms []Form) []string {
	texts := make([]string, len(forms))
	for i, f := range forms {
		texts[i] = f.Text
	}
	return texts
}
