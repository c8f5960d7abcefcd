// Copyright © 2018 The ELPS authors

package rdparser

import (
	"github.com/luthersystems/rktgrade/parser/lexer"
	"github.com/luthersystems/rktgrade/parser/token"
)

// TokenStream is an arbitrary sequence of tokens, typically a *lexer.Lexer.
// ReadToken never returns an empty slice and returns token.EOF forever once
// the input is exhausted.
type TokenStream interface {
	ReadToken() []*token.Token
}

// TokenSource adds one token of lookahead to a TokenStream.
type TokenSource struct {
	lex   TokenStream
	Token *token.Token
	peek  []*token.Token
}

// NewTokenStreamSource returns a TokenSource reading from stream.
func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{lex: stream}
}

// NewTokenSource returns a TokenSource that lexes tokens from scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	return NewTokenStreamSource(lexer.New(scanner))
}

// Peek returns the next token without consuming it.
func (s *TokenSource) Peek() *token.Token {
	if len(s.peek) == 0 {
		s.peek = s.lex.ReadToken()
	}
	return s.peek[0]
}

// AcceptType consumes the next token if it has one of the given types.
func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	next := s.Peek().Type
	for _, t := range typ {
		if next == t {
			s.scan()
			return true
		}
	}
	return false
}

// Scan consumes the next token.  At EOF the EOF token becomes current and
// Scan returns false.
func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

// IsEOF reports whether the input is exhausted.
func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	s.peek = s.peek[1:]
}
