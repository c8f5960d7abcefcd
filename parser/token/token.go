// Copyright © 2018 The ELPS authors

package token

import "fmt"

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

type Token struct {
	Type   Type
	Text   string
	Source *Location

	// Whitespace preceding the token.  The formatter uses these to keep
	// blank lines between top-level forms.
	PrecedingNewlines int
	PrecedingSpaces   int
}

type Type uint

// Type constants used by the lexer and the reader.
const (
	INVALID Type = iota
	ERROR
	EOF

	// Atomic expressions & literals
	SYMBOL
	INT
	FLOAT
	STRING
	CHAR
	BOOL

	COMMENT

	// Reader macros
	QUOTE
	QUASIQUOTE
	UNQUOTE
	UNQUOTE_SPLICING
	DATUM_COMMENT

	// Delimiters
	PAREN_L
	PAREN_R
	BRACE_L
	BRACE_R

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:          "invalid",
		ERROR:            "error",
		EOF:              "EOF",
		SYMBOL:           "symbol",
		INT:              "int",
		FLOAT:            "float",
		STRING:           "string",
		CHAR:             "char",
		BOOL:             "boolean",
		COMMENT:          ";",
		QUOTE:            "'",
		QUASIQUOTE:       "`",
		UNQUOTE:          ",",
		UNQUOTE_SPLICING: ",@",
		DATUM_COMMENT:    "#;",
		PAREN_L:          "(",
		PAREN_R:          ")",
		BRACE_L:          "[",
		BRACE_R:          "]",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsOpen reports whether typ opens a list.  Parentheses and brackets are
// interchangeable.
func (typ Type) IsOpen() bool {
	return typ == PAREN_L || typ == BRACE_L
}

// IsClose reports whether typ closes a list.
func (typ Type) IsClose() bool {
	return typ == PAREN_R || typ == BRACE_R
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// Shift returns a copy of loc moved by an offset into a larger document.
// Forms cut out of a program are read in isolation and shifted back so
// diagnostics point into the original text.
func (loc *Location) Shift(pos, line, col int) *Location {
	if loc == nil {
		return nil
	}
	shifted := *loc
	shifted.Pos += pos
	if shifted.Line == 1 {
		shifted.Col += col
	}
	shifted.Line += line
	return &shifted
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
