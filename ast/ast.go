// Copyright © 2024 The ELPS authors

// Package ast defines the syntax tree produced by the reader and consumed by
// the rewrite passes, the formatter, lint and the evaluator.
package ast

import (
	"strings"

	"github.com/luthersystems/rktgrade/parser/token"
)

// Kind identifies the syntactic class of a Node.
type Kind uint8

const (
	Invalid Kind = iota
	List
	Symbol
	Int
	Float
	String
	Char
	Bool
	// Quote wraps a single child with a reader abbreviation.  Text holds
	// the expanded form name: quote, quasiquote, unquote or
	// unquote-splicing.
	Quote
	// Comment nodes are produced only by a parser keeping comments.
	// Rewriters leave them behind as placeholders for forms they consumed.
	Comment
)

var kindStrings = []string{
	Invalid: "invalid",
	List:    "list",
	Symbol:  "symbol",
	Int:     "int",
	Float:   "float",
	String:  "string",
	Char:    "char",
	Bool:    "boolean",
	Quote:   "quote",
	Comment: "comment",
}

func (k Kind) String() string {
	if int(k) >= len(kindStrings) {
		return kindStrings[Invalid]
	}
	return kindStrings[k]
}

// Node is one datum of source text.
type Node struct {
	Kind Kind
	// Text is the symbol name, the decoded string value, the source text of
	// a number or character, "#t"/"#f" for booleans, the comment text, or
	// the expanded name of a Quote.
	Text     string
	Children []*Node
	// Bracket is '(' or '[' for lists.  Brackets are interchangeable but
	// kept so printed output looks like the input.
	Bracket byte
	// Dotted lists store their tail as the last child.
	Dotted bool
	Source *token.Location
}

// Sym returns a symbol node.
func Sym(name string) *Node {
	return &Node{Kind: Symbol, Text: name}
}

// ListOf returns a parenthesized list.
func ListOf(children ...*Node) *Node {
	return &Node{Kind: List, Bracket: '(', Children: children}
}

// Brackets returns a square bracketed list.
func Brackets(children ...*Node) *Node {
	return &Node{Kind: List, Bracket: '[', Children: children}
}

// Quoted returns 'n.
func Quoted(n *Node) *Node {
	return &Node{Kind: Quote, Text: "quote", Children: []*Node{n}}
}

// Str returns a string literal node holding s.
func Str(s string) *Node {
	return &Node{Kind: String, Text: s}
}

// Number returns a numeric node from its source text.
func Number(text string) *Node {
	if strings.ContainsAny(text, "./eE") {
		return &Node{Kind: Float, Text: text}
	}
	return &Node{Kind: Int, Text: text}
}

// Boolean returns #t or #f.
func Boolean(b bool) *Node {
	if b {
		return &Node{Kind: Bool, Text: "#t"}
	}
	return &Node{Kind: Bool, Text: "#f"}
}

// CommentNode returns a line comment node.  text should include the leading
// semicolon.
func CommentNode(text string) *Node {
	return &Node{Kind: Comment, Text: text}
}

// IsSymbol reports whether n is the symbol name.
func (n *Node) IsSymbol(name string) bool {
	return n != nil && n.Kind == Symbol && n.Text == name
}

// IsList reports whether n is a proper list.
func (n *Node) IsList() bool {
	return n != nil && n.Kind == List && !n.Dotted
}

// IsEmptyList reports whether n is () or [].
func (n *Node) IsEmptyList() bool {
	return n.IsList() && len(n.Children) == 0
}

// Head returns the symbol name in the first position of a list, or "".
func (n *Node) Head() string {
	if n == nil || n.Kind != List || len(n.Children) == 0 {
		return ""
	}
	if head := n.Children[0]; head.Kind == Symbol {
		return head.Text
	}
	return ""
}

// Len returns the number of children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// Clone returns a deep copy of n.  Source locations are shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// WithSource sets n.Source when it is unset and returns n.  Rewriters use it
// to attribute synthesized code to the form it replaced.
func (n *Node) WithSource(loc *token.Location) *Node {
	if n.Source == nil {
		n.Source = loc
	}
	return n
}

// Equal reports whether two trees are structurally identical, ignoring
// source locations and bracket shapes.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Text != b.Text || a.Dotted != b.Dotted || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
