// Copyright © 2018 The ELPS authors

package token

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from source text.  Submissions
// are small and always held in memory, so the scanner works on a string and
// tracks line and column for every token it emits.
type Scanner struct {
	file string
	path string
	src  string

	start     int // byte offset of the current token
	startLine int
	startCol  int

	pos  int // byte offset of the rune following the last scanned rune
	line int // line of the rune at pos
	col  int // column of the rune at pos
	c    rune
}

// NewScanner initializes and returns a new Scanner over the contents of r.
func NewScanner(file string, r io.Reader) *Scanner {
	// A failed read leaves truncated input which the reader reports as an
	// unexpected EOF.
	b, _ := io.ReadAll(r)
	return NewStringScanner(file, string(b))
}

// NewStringScanner returns a Scanner over src.
func NewStringScanner(file string, src string) *Scanner {
	return &Scanner{
		file:      file,
		src:       src,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
}

// SetPath associates a physical location (e.g. filesystem path) with s to aid
// in debugging projects which scan many ungrouped files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return s.src[s.start:s.pos]
}

// Rune returns the last rune scanned.
func (s *Scanner) Rune() rune {
	return s.c
}

// Peek returns the next rune to be scanned.  Peek returns false at the end of
// input or when the next bytes are not valid utf-8.
func (s *Scanner) Peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	c, n := utf8.DecodeRuneInString(s.src[s.pos:])
	if c == utf8.RuneError && n == 1 {
		return utf8.RuneError, false
	}
	return c, true
}

// ScanRune scans one rune into the current token.
func (s *Scanner) ScanRune() error {
	if s.pos >= len(s.src) {
		return io.EOF
	}
	c, n := utf8.DecodeRuneInString(s.src[s.pos:])
	if c == utf8.RuneError && n == 1 {
		return fmt.Errorf("invalid utf-8 sequence in source text starting with byte %q", s.src[s.pos])
	}
	s.c = c
	s.pos += n
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return nil
}

// Err returns an error if the next bytes of input cannot be scanned.
func (s *Scanner) Err() error {
	if s.pos >= len(s.src) {
		return nil
	}
	_, ok := s.Peek()
	if !ok {
		return fmt.Errorf("invalid utf-8 sequence in source text starting with byte %q", s.src[s.pos])
	}
	return nil
}

// EOF returns true when all input has been scanned.
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok || !fn(peek) {
		return false
	}
	return s.ScanRune() == nil
}

func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(peek rune) bool { return peek == c })
}

func (s *Scanner) AcceptDigit() bool {
	return s.Accept(func(c rune) bool { return '0' <= c && c <= '9' })
}

func (s *Scanner) AcceptSpace() bool {
	return s.Accept(unicode.IsSpace)
}

func (s *Scanner) AcceptAny(charset string) bool {
	return s.Accept(func(c rune) bool { return strings.ContainsRune(charset, c) })
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	var n int
	for s.AcceptDigit() {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqSpace() int {
	var n int
	for s.AcceptSpace() {
		n++
	}
	return n
}

// AcceptString scans literal if the input continues with it.  Nothing is
// scanned when the input does not match.
func (s *Scanner) AcceptString(literal string) bool {
	if !strings.HasPrefix(s.src[s.pos:], literal) {
		return false
	}
	for range literal {
		if s.ScanRune() != nil {
			return false
		}
	}
	return true
}

// LocStart returns a Location referencing the beginning of the current token.
func (s *Scanner) LocStart() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.start,
		Line: s.startLine,
		Col:  s.startCol,
	}
}

// Loc returns a Location referencing the current scanner position.
func (s *Scanner) Loc() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.pos,
		Line: s.line,
		Col:  s.col,
	}
}
