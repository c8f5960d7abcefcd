// Copyright © 2024 The ELPS authors

// Package source cuts raw submissions into top-level forms.  It works on
// text rather than syntax trees so that it accepts programs the reader would
// reject, which lets the harness evaluate every well formed form even when a
// later one is broken.
package source

import (
	"unicode/utf8"
)

// Class is the lexical context of a scanned character.
type Class uint8

const (
	Normal Class = iota
	InString
	InComment
)

func (c Class) String() string {
	switch c {
	case InString:
		return "string"
	case InComment:
		return "comment"
	default:
		return "normal"
	}
}

// Scanner classifies each character of a source text and tracks bracket
// depth.  Parentheses and square brackets are interchangeable; the scanner
// does not check that they pair up.
type Scanner struct {
	src string

	pos    int // byte offset of the next rune
	offset int // byte offset of the current rune
	line   int
	c      rune
	prev   rune
	class  Class
	depth  int
	// minDepth is the lowest depth reached, negative when a closing bracket
	// had no opener.
	minDepth int

	inString  bool
	inComment bool
	escaped   bool
	// charLit is set after #\ so the next character is taken literally.
	charLit bool
	// literal marks the current character as the one named by #\.
	literal bool
}

// NewScanner returns a Scanner positioned before the first character of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, line: 1, offset: -1}
}

// Next advances to the next character.  Next returns false at the end of
// input.
func (s *Scanner) Next() bool {
	if s.pos >= len(s.src) {
		return false
	}
	if s.c == '\n' && s.offset >= 0 {
		s.line++
	}
	c, n := utf8.DecodeRuneInString(s.src[s.pos:])
	s.prev = s.c
	s.c = c
	s.offset = s.pos
	s.pos += n
	s.classify()
	return true
}

func (s *Scanner) classify() {
	c := s.c
	s.literal = false
	switch {
	case c == '\n':
		// A newline ends a comment but never a string.
		s.inComment = false
		s.escaped = false
		if s.inString {
			s.class = InString
		} else {
			s.class = Normal
		}
	case s.inComment:
		s.class = InComment
	case s.charLit:
		s.charLit = false
		s.literal = true
		s.class = Normal
	case s.inString:
		s.class = InString
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == '"':
			s.inString = false
		}
	case c == ';':
		s.inComment = true
		s.class = InComment
	case c == '"' && s.prev != '\\':
		s.inString = true
		s.class = InString
	default:
		s.class = Normal
		switch c {
		case '\\':
			s.charLit = s.prev == '#'
		case '(', '[':
			s.depth++
		case ')', ']':
			s.depth--
			if s.depth < s.minDepth {
				s.minDepth = s.depth
			}
		}
	}
}

// Char returns the current character.
func (s *Scanner) Char() rune {
	return s.c
}

// Class returns the lexical context of the current character.  Both quotes
// delimiting a string literal are InString.
func (s *Scanner) Class() Class {
	return s.class
}

// Depth returns the bracket depth after the current character.
func (s *Scanner) Depth() int {
	return s.depth
}

// Offset returns the byte offset of the current character.
func (s *Scanner) Offset() int {
	return s.offset
}

// Line returns the 1-based line of the current character.
func (s *Scanner) Line() int {
	return s.line
}

// Peek returns the character following the current one, or false at the end
// of input.
func (s *Scanner) Peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	c, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return c, true
}

// InString reports whether the scanner is inside an unterminated string
// literal.
func (s *Scanner) InString() bool {
	return s.inString
}

// Balanced reports whether every bracket in src is closed, no closing
// bracket lacks an opener and no string literal is left open.
func Balanced(src string) bool {
	s := NewScanner(src)
	for s.Next() {
	}
	return s.depth == 0 && s.minDepth == 0 && !s.inString
}
