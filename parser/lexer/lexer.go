// Copyright © 2018 The ELPS authors

package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/luthersystems/rktgrade/parser/token"
)

type LexFn func(*Lexer) []*token.Token

// delimiters terminate symbols and numbers.
const delimiters = "()[]{}\";'`,"

// Named character literals understood after #\.
var charNames = map[string]rune{
	"space":     ' ',
	"newline":   '\n',
	"linefeed":  '\n',
	"tab":       '\t',
	"return":    '\r',
	"nul":       0,
	"null":      0,
	"backspace": '\b',
	"delete":    0x7f,
	"rubout":    0x7f,
	"escape":    0x1b,
}

type Lexer struct {
	scanner           *token.Scanner
	lex               LexFn
	precedingNewlines int
	precedingSpaces   int
}

func New(s *token.Scanner) *Lexer {
	lex := &Lexer{
		scanner: s,
		lex:     (*Lexer).readToken,
	}
	return lex
}

func (lex *Lexer) ReadToken() []*token.Token {
	return lex.lex(lex)
}

func (lex *Lexer) readToken() []*token.Token {
	lex.skipWhitespace()
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		if lex.scanner.EOF() {
			return lex.emit(token.EOF, "")
		}
		return lex.emitError(lex.scanner.Err(), false)
	}
	switch lex.scanner.Rune() {
	case '(':
		return lex.emitText(token.PAREN_L)
	case ')':
		return lex.emitText(token.PAREN_R)
	case '[':
		return lex.emitText(token.BRACE_L)
	case ']':
		return lex.emitText(token.BRACE_R)
	case '{', '}':
		return lex.errorf("unsupported delimiter %q", lex.scanner.Rune())
	case '\'':
		return lex.emitText(token.QUOTE)
	case '`':
		return lex.emitText(token.QUASIQUOTE)
	case ',':
		if lex.scanner.AcceptRune('@') {
			return lex.emitText(token.UNQUOTE_SPLICING)
		}
		return lex.emitText(token.UNQUOTE)
	case ';':
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.COMMENT)
	case '#':
		return lex.readDispatch()
	case '"':
		return lex.readString()
	default:
		return lex.readAtom()
	}
}

func (lex *Lexer) readDispatch() []*token.Token {
	c, ok := lex.scanner.Peek()
	if !ok {
		return lex.errorf("unexpected EOF after #")
	}
	switch c {
	case 't', 'f':
		lex.scanner.AcceptSeq(isAtom)
		switch lex.scanner.Text() {
		case "#t", "#true", "#f", "#false":
			return lex.emitText(token.BOOL)
		}
		return lex.errorf("bad syntax %q", lex.scanner.Text())
	case '\\':
		_ = lex.scanner.ScanRune()
		if lex.scanner.ScanRune() != nil {
			return lex.errorf("unexpected EOF in character literal")
		}
		// #\( and friends are single characters; #\space is named.
		if unicode.IsLetter(lex.scanner.Rune()) {
			lex.scanner.AcceptSeq(isAtom)
		}
		name := lex.scanner.Text()[2:]
		if len([]rune(name)) > 1 {
			if _, ok := charNames[strings.ToLower(name)]; !ok {
				return lex.errorf("bad character constant #\\%s", name)
			}
		}
		return lex.emitText(token.CHAR)
	case '|':
		_ = lex.scanner.ScanRune()
		lex.lex = (*Lexer).readBlockComment
		return lex.lex(lex)
	case ';':
		_ = lex.scanner.ScanRune()
		return lex.emitText(token.DATUM_COMMENT)
	default:
		_ = lex.scanner.ScanRune()
		return lex.errorf("bad syntax %q", lex.scanner.Text())
	}
}

// readBlockComment scans a possibly nested #| ... |# comment.  The opening
// delimiter has already been scanned.
func (lex *Lexer) readBlockComment() []*token.Token {
	lex.resetState()
	depth := 1
	for depth > 0 {
		switch {
		case lex.scanner.AcceptString("|#"):
			depth--
		case lex.scanner.AcceptString("#|"):
			depth++
		case lex.scanner.ScanRune() != nil:
			return lex.errorf("unterminated block comment")
		}
	}
	return lex.emitText(token.COMMENT)
}

func (lex *Lexer) readString() []*token.Token {
	for {
		if lex.scanner.ScanRune() != nil {
			return lex.errorf("unterminated string literal")
		}
		switch lex.scanner.Rune() {
		case '"':
			return lex.emitText(token.STRING)
		case '\\':
			// The reader validates escapes.
			if lex.scanner.ScanRune() != nil {
				return lex.errorf("unterminated string literal")
			}
		}
	}
}

func (lex *Lexer) readAtom() []*token.Token {
	lex.scanner.AcceptSeq(isAtom)
	text := lex.scanner.Text()
	if text == "." {
		return lex.emitText(token.SYMBOL)
	}
	switch ClassifyNumber(text) {
	case token.INT:
		return lex.emitText(token.INT)
	case token.FLOAT:
		return lex.emitText(token.FLOAT)
	}
	if strings.ContainsAny(text, "|") {
		return lex.errorf("unsupported symbol syntax %q", text)
	}
	return lex.emitText(token.SYMBOL)
}

func (lex *Lexer) resetState() {
	lex.lex = (*Lexer).readToken
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:              typ,
		Text:              text,
		Source:            lex.scanner.LocStart(),
		PrecedingNewlines: lex.precedingNewlines,
		PrecedingSpaces:   lex.precedingSpaces,
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	tok := lex.scanner.EmitToken(typ)
	tok.PrecedingNewlines = lex.precedingNewlines
	tok.PrecedingSpaces = lex.precedingSpaces
	return []*token.Token{tok}
}

func (lex *Lexer) emitError(err error, expectEOF bool) []*token.Token {
	if err == nil || err == io.EOF {
		if expectEOF {
			return lex.emit(token.EOF, "")
		}
		return lex.emit(token.ERROR, "unexpected EOF")
	}
	return lex.emit(token.ERROR, err.Error())
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	return lex.emitError(fmt.Errorf(format, v...), false)
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeqSpace() > 0 {
		text := lex.scanner.Text()
		lex.precedingNewlines = strings.Count(text, "\n")
		if lex.precedingNewlines == 0 {
			lex.precedingSpaces = len(text)
		} else {
			lex.precedingSpaces = 0
		}
		lex.scanner.Ignore()
	} else {
		lex.precedingNewlines = 0
		lex.precedingSpaces = 0
	}
}

// CharValue returns the rune denoted by the text of a CHAR token.
func CharValue(text string) (rune, error) {
	name := strings.TrimPrefix(text, `#\`)
	r := []rune(name)
	switch {
	case len(r) == 1:
		return r[0], nil
	case len(r) > 1:
		if c, ok := charNames[strings.ToLower(name)]; ok {
			return c, nil
		}
	}
	return 0, fmt.Errorf("bad character constant %s", text)
}

func isAtom(c rune) bool {
	return !unicode.IsSpace(c) && !strings.ContainsRune(delimiters, c)
}
