// Copyright © 2024 The ELPS authors

package astutil

import (
	"testing"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/stretchr/testify/assert"
)

func TestArgCount(t *testing.T) {
	assert.Equal(t, 0, ArgCount(ast.ListOf()))
	assert.Equal(t, 0, ArgCount(ast.ListOf(ast.Sym("f"))))
	assert.Equal(t, 2, ArgCount(ast.ListOf(ast.Sym("f"), ast.Number("1"), ast.Number("2"))))
}

func TestDefinedName(t *testing.T) {
	fun := ast.ListOf(ast.Sym("define"), ast.ListOf(ast.Sym("sq"), ast.Sym("x")), ast.Sym("x"))
	assert.Equal(t, "sq", DefinedName(fun))
	val := ast.ListOf(ast.Sym("define"), ast.Sym("pi"), ast.Number("3.14"))
	assert.Equal(t, "pi", DefinedName(val))
	assert.Equal(t, "", DefinedName(ast.ListOf(ast.Sym("define"))))
	assert.Equal(t, "", DefinedName(ast.ListOf(ast.Sym("f"), ast.Sym("x"))))
}

func TestWalkSkipsQuotedData(t *testing.T) {
	prog := []*ast.Node{
		ast.ListOf(ast.Sym("f"), ast.Quoted(ast.ListOf(ast.Sym("g"), ast.Sym("h")))),
	}
	var heads []string
	WalkForms(prog, func(form *ast.Node, depth int) {
		heads = append(heads, form.Head())
	})
	assert.Equal(t, []string{"f"}, heads)
}

func TestWalkDepth(t *testing.T) {
	prog := []*ast.Node{ast.ListOf(ast.Sym("a"), ast.ListOf(ast.Sym("b")))}
	depths := map[string]int{}
	Walk(prog, func(node *ast.Node, parent *ast.Node, depth int) {
		if node.Kind == ast.Symbol {
			depths[node.Text] = depth
		}
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, depths)
}

func TestUserDefined(t *testing.T) {
	prog := []*ast.Node{
		ast.ListOf(ast.Sym("define"), ast.ListOf(ast.Sym("f"), ast.Sym("x"), ast.Sym("y")), ast.Sym("x")),
		ast.ListOf(ast.Sym("define-struct"), ast.Sym("pt"), ast.ListOf(ast.Sym("a"), ast.Sym("b"))),
		ast.ListOf(ast.Sym("lambda"), ast.Sym("args"), ast.Sym("args")),
		ast.ListOf(ast.Sym("let"), ast.Sym("loop"), ast.ListOf(ast.Brackets(ast.Sym("i"), ast.Number("0"))), ast.Sym("i")),
	}
	defs := UserDefined(prog)
	for _, name := range []string{"f", "x", "y", "make-pt", "pt?", "pt-a", "pt-b", "args", "loop", "i"} {
		assert.True(t, defs[name], name)
	}
	assert.False(t, defs["define"])
}

func TestSourceOf(t *testing.T) {
	n := ast.ListOf(ast.Sym("f"))
	assert.Equal(t, n, SourceOf(n))
}

func TestTransformBottomUp(t *testing.T) {
	prog := ast.ListOf(ast.Sym("inc"), ast.ListOf(ast.Sym("inc"), ast.Number("1")), ast.Quoted(ast.ListOf(ast.Sym("inc"))))
	var seen []string
	out := Transform(prog, func(n *ast.Node) *ast.Node {
		if n.Head() != "inc" {
			return n
		}
		seen = append(seen, n.String())
		return ast.ListOf(append([]*ast.Node{ast.Sym("+"), ast.Number("1")}, n.Children[1:]...)...)
	})
	assert.Equal(t, []string{"(inc 1)", "(inc (+ 1 1) '(inc))"}, seen)
	assert.Equal(t, "(+ 1 (+ 1 1) '(inc))", out.String())
}
