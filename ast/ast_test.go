// Copyright © 2024 The ELPS authors

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeString(t *testing.T) {
	tests := []struct {
		node *Node
		want string
	}{
		{Sym("x"), "x"},
		{ListOf(), "()"},
		{ListOf(Sym("+"), Number("1"), Number("2.5")), "(+ 1 2.5)"},
		{Brackets(Sym("x"), Str("a\"b\n")), `[x "a\"b\n"]`},
		{Quoted(ListOf(Sym("a"), Sym("b"))), "'(a b)"},
		{&Node{Kind: List, Bracket: '(', Dotted: true, Children: []*Node{Sym("a"), Sym("b")}}, "(a . b)"},
		{&Node{Kind: Quote, Text: "unquote-splicing", Children: []*Node{Sym("xs")}}, ",@xs"},
		{Boolean(true), "#t"},
		{CommentNode("; done"), "; done"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.node.String())
	}
}

func TestNodeHelpers(t *testing.T) {
	n := ListOf(Sym("define"), ListOf(Sym("f"), Sym("x")), Sym("x"))
	assert.Equal(t, "define", n.Head())
	assert.Equal(t, "", Sym("define").Head())
	assert.Equal(t, "", ListOf(Number("1")).Head())
	assert.Equal(t, 3, n.Len())
	assert.True(t, n.Children[0].IsSymbol("define"))
	assert.True(t, ListOf().IsEmptyList())
	assert.True(t, Brackets().IsEmptyList())
	assert.False(t, Sym("()").IsEmptyList())
}

func TestCloneAndEqual(t *testing.T) {
	n := ListOf(Sym("f"), Quoted(Sym("a")), Brackets(Number("1")))
	c := n.Clone()
	assert.True(t, Equal(n, c))
	c.Children[2].Children[0].Text = "2"
	assert.False(t, Equal(n, c))
	assert.Equal(t, "(f 'a [1])", n.String())

	// Bracket shape does not matter for equality.
	assert.True(t, Equal(ListOf(Sym("x")), Brackets(Sym("x"))))
}

func TestQuoteName(t *testing.T) {
	assert.Equal(t, "quote", QuoteName("'"))
	assert.Equal(t, "unquote-splicing", QuoteName(",@"))
	assert.Equal(t, "", QuoteName("#"))
}

func TestProgram(t *testing.T) {
	out := Program([]*Node{ListOf(Sym("define"), Sym("x"), Number("1")), Sym("x")})
	assert.Equal(t, "(define x 1)\nx\n", out)
}
