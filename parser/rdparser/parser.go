// Copyright © 2018 The ELPS authors

package rdparser

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/parser/lexer"
	"github.com/luthersystems/rktgrade/parser/token"
)

type reader struct {
}

// NewReader returns a lisp.Reader to use in a lisp.Runtime.
func NewReader() lisp.Reader {
	return &reader{}
}

// Read implements lisp.Reader.
func (*reader) Read(name string, r io.Reader) ([]*ast.Node, error) {
	s := token.NewScanner(name, r)
	p := New(s)
	return p.ParseProgram()
}

// ParseString parses all expressions in src.
func ParseString(name string, src string) ([]*ast.Node, error) {
	return New(token.NewStringScanner(name, src)).ParseProgram()
}

// Parser is a recursive-descent reader.  Parentheses and square brackets
// are interchangeable and need not match each other.
type Parser struct {
	// KeepComments makes the parser return comments as ast.Comment nodes at
	// the top level and inside lists.  The formatter needs them.
	KeepComments bool

	parsing bool
	src     *TokenSource
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	return NewFromSource(NewTokenSource(scanner))
}

// Parse is a generic entry point that is similar to ParseExpression but is
// capable of handling EOF before reading an expression.
func (p *Parser) Parse() (*ast.Node, error) {
	if err := p.ignoreComments(p.KeepComments); err != nil {
		return nil, err
	}
	if p.KeepComments && p.Accept(token.COMMENT) {
		return p.node(ast.Comment, p.TokenText()), nil
	}
	if p.src.IsEOF() {
		return nil, io.EOF
	}
	return p.ParseExpression()
}

// ParseProgram parses a series of expressions.
func (p *Parser) ParseProgram() ([]*ast.Node, error) {
	var exprs []*ast.Node
	for {
		expr, err := p.Parse()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

// IsParsing returns true while p is in the middle of an expression.
func (p *Parser) IsParsing() bool {
	return p.parsing
}

// ParseExpression parses a single expression.  Unlike Parse, ParseExpression
// requires an expression to be present in the input stream and will report
// unexpected EOF tokens encountered.
func (p *Parser) ParseExpression() (*ast.Node, error) {
	if err := p.ignoreComments(false); err != nil {
		return nil, err
	}
	fn := p.parseExpression()
	if !p.parsing {
		p.parsing = true
		defer func() { p.parsing = false }()
	}
	return fn(p)
}

func (p *Parser) parseExpression() func(p *Parser) (*ast.Node, error) {
	switch p.PeekType() {
	case token.INT:
		return (*Parser).ParseLiteralInt
	case token.FLOAT:
		return (*Parser).ParseLiteralFloat
	case token.STRING:
		return (*Parser).ParseLiteralString
	case token.CHAR:
		return (*Parser).ParseLiteralChar
	case token.BOOL:
		return (*Parser).ParseLiteralBool
	case token.QUOTE, token.QUASIQUOTE, token.UNQUOTE, token.UNQUOTE_SPLICING:
		return (*Parser).ParseQuote
	case token.SYMBOL:
		return (*Parser).ParseSymbol
	case token.PAREN_L, token.BRACE_L:
		return (*Parser).ParseList
	case token.EOF:
		return func(p *Parser) (*ast.Node, error) {
			p.ReadToken()
			return nil, p.errorf(lisp.CondUnmatchedSyntax, "unexpected EOF")
		}
	case token.ERROR, token.INVALID:
		return func(p *Parser) (*ast.Node, error) {
			p.ReadToken()
			return nil, p.scanError(lisp.CondScanError)
		}
	case token.PAREN_R, token.BRACE_R:
		return func(p *Parser) (*ast.Node, error) {
			p.ReadToken()
			return nil, p.errorf(lisp.CondUnmatchedSyntax, "unexpected %s", p.TokenText())
		}
	default:
		return func(p *Parser) (*ast.Node, error) {
			p.ReadToken()
			return nil, p.errorf(lisp.CondParseError, "unexpected token: %v", p.TokenType())
		}
	}
}

func (p *Parser) ParseLiteralInt() (*ast.Node, error) {
	if !p.Accept(token.INT) {
		return nil, p.errorf(lisp.CondParseError, "invalid integer literal: %v", p.PeekType())
	}
	return p.node(ast.Int, strings.TrimPrefix(p.TokenText(), "+")), nil
}

func (p *Parser) ParseLiteralFloat() (*ast.Node, error) {
	if !p.Accept(token.FLOAT) {
		return nil, p.errorf(lisp.CondParseError, "invalid float literal: %v", p.PeekType())
	}
	text := p.TokenText()
	if num, den, ok := strings.Cut(text, "/"); ok {
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return nil, p.errorf(lisp.CondParseError, "division by zero in %s", text)
		}
		if _, err := strconv.ParseFloat(num, 64); err != nil {
			return nil, p.errorf(lisp.CondParseError, "invalid number: %s", text)
		}
		return p.node(ast.Float, text), nil
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return nil, p.errorf(lisp.CondParseError, "invalid floating point literal: %v", text)
	}
	return p.node(ast.Float, text), nil
}

func (p *Parser) ParseLiteralString() (*ast.Node, error) {
	if !p.Accept(token.STRING) {
		return nil, p.errorf(lisp.CondParseError, "invalid string literal: %v", p.PeekType())
	}
	s, err := unquote(p.TokenText())
	if err != nil {
		return nil, p.errorf(lisp.CondParseError, "invalid string literal %s: %v", p.TokenText(), err)
	}
	return p.node(ast.String, s), nil
}

func (p *Parser) ParseLiteralChar() (*ast.Node, error) {
	if !p.Accept(token.CHAR) {
		return nil, p.errorf(lisp.CondParseError, "invalid character literal: %v", p.PeekType())
	}
	if _, err := lexer.CharValue(p.TokenText()); err != nil {
		return nil, p.errorf(lisp.CondParseError, "%v", err)
	}
	return p.node(ast.Char, p.TokenText()), nil
}

func (p *Parser) ParseLiteralBool() (*ast.Node, error) {
	if !p.Accept(token.BOOL) {
		return nil, p.errorf(lisp.CondParseError, "invalid boolean literal: %v", p.PeekType())
	}
	switch p.TokenText() {
	case "#t", "#true":
		return p.node(ast.Bool, "#t"), nil
	default:
		return p.node(ast.Bool, "#f"), nil
	}
}

func (p *Parser) ParseQuote() (*ast.Node, error) {
	if !p.Accept(token.QUOTE, token.QUASIQUOTE, token.UNQUOTE, token.UNQUOTE_SPLICING) {
		return nil, p.errorf(lisp.CondParseError, "invalid quote: %v", p.PeekType())
	}
	q := p.node(ast.Quote, ast.QuoteName(p.TokenText()))
	x, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	q.Children = []*ast.Node{x}
	return q, nil
}

func (p *Parser) ParseSymbol() (*ast.Node, error) {
	if !p.Accept(token.SYMBOL) {
		return nil, p.errorf(lisp.CondParseError, "invalid symbol: %v", p.PeekType())
	}
	if p.TokenText() == "." {
		return nil, p.errorf(lisp.CondParseError, "illegal use of `.'")
	}
	return p.node(ast.Symbol, p.TokenText()), nil
}

// ParseList parses a parenthesized or bracketed list, possibly dotted.
func (p *Parser) ParseList() (*ast.Node, error) {
	if !p.Accept(token.PAREN_L, token.BRACE_L) {
		return nil, p.errorf(lisp.CondParseError, "invalid list: %v", p.PeekType())
	}
	open := p.src.Token
	list := p.node(ast.List, "")
	list.Bracket = open.Text[0]
	for {
		if err := p.ignoreComments(p.KeepComments); err != nil {
			return nil, err
		}
		if p.KeepComments && p.Accept(token.COMMENT) {
			list.Children = append(list.Children, p.node(ast.Comment, p.TokenText()))
			continue
		}
		if p.src.IsEOF() {
			return nil, p.errorAt(open.Source, lisp.CondUnmatchedSyntax, "unmatched %s", open.Text)
		}
		if p.Accept(token.PAREN_R, token.BRACE_R) {
			break
		}
		if p.PeekType() == token.SYMBOL && p.src.Peek().Text == "." {
			p.ReadToken()
			if len(list.Children) == 0 {
				return nil, p.errorf(lisp.CondParseError, "illegal use of `.'")
			}
			tail, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.ignoreComments(false); err != nil {
				return nil, err
			}
			if !p.Accept(token.PAREN_R, token.BRACE_R) {
				if p.src.IsEOF() {
					return nil, p.errorAt(open.Source, lisp.CondUnmatchedSyntax, "unmatched %s", open.Text)
				}
				p.ReadToken()
				return nil, p.errorf(lisp.CondParseError, "illegal use of `.'")
			}
			list.Children = append(list.Children, tail)
			list.Dotted = true
			break
		}
		x, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		list.Children = append(list.Children, x)
	}
	return list, nil
}

// ignoreComments skips datums commented out with #; and, unless keep is
// set, line and block comments.
func (p *Parser) ignoreComments(keep bool) error {
	for {
		switch {
		case !keep && p.Accept(token.COMMENT):
		case p.Accept(token.DATUM_COMMENT):
			if _, err := p.ParseExpression(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Parser) ReadToken() *token.Token {
	p.src.Scan()
	return p.src.Token
}

func (p *Parser) TokenText() string {
	return p.src.Token.Text
}

func (p *Parser) TokenType() token.Type {
	return p.src.Token.Type
}

func (p *Parser) Location() *token.Location {
	return p.src.Token.Source
}

func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

func (p *Parser) node(kind ast.Kind, text string) *ast.Node {
	return &ast.Node{Kind: kind, Text: text, Source: p.Location()}
}

func (p *Parser) Accept(typ ...token.Type) bool {
	return p.src.AcceptType(typ...)
}

func (p *Parser) errorf(condition string, format string, v ...interface{}) error {
	return p.errorAt(p.Location(), condition, format, v...)
}

func (p *Parser) errorAt(loc *token.Location, condition string, format string, v ...interface{}) error {
	err := lisp.Errorf(condition, format, v...)
	err.Source = loc
	return err
}

func (p *Parser) scanError(condition string) error {
	err := lisp.ErrorCondition(condition, errors.New(p.TokenText()))
	err.Source = p.Location()
	return err
}

// unquote decodes the escapes of a string literal.
func unquote(text string) (string, error) {
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errors.New("trailing backslash")
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteByte(body[i])
		case '\n':
			// escaped line break joins lines
		default:
			return "", errors.New("unknown escape sequence \\" + string(body[i]))
		}
	}
	return b.String(), nil
}
