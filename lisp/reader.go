// Copyright © 2018 The ELPS authors

package lisp

import (
	"io"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/parser/lexer"
)

// Reader parses source streams into syntax trees.
type Reader interface {
	Read(name string, r io.Reader) ([]*ast.Node, error)
}

// FromAST converts a syntax tree into the value the evaluator runs.  Comment
// nodes are dropped.  Malformed literals, which a reader never produces,
// become errors.
func FromAST(n *ast.Node) *LVal {
	v := fromAST(n)
	if v.Source == nil && v.Type != LNull && v.Type != LBool {
		v.Source = n.Source
	}
	return v
}

func fromAST(n *ast.Node) *LVal {
	switch n.Kind {
	case ast.Symbol:
		return Symbol(n.Text)
	case ast.Int:
		v, ok := ParseInt(n.Text)
		if !ok {
			return syntaxError(n, "invalid integer %s", n.Text)
		}
		return v
	case ast.Float:
		v, ok := ParseFloat(n.Text)
		if !ok {
			return syntaxError(n, "invalid number %s", n.Text)
		}
		return v
	case ast.String:
		return String(n.Text)
	case ast.Char:
		c, err := lexer.CharValue(n.Text)
		if err != nil {
			return syntaxError(n, "%v", err)
		}
		return Char(c)
	case ast.Bool:
		return Bool(n.Text == "#t" || n.Text == "#true")
	case ast.Quote:
		if len(n.Children) != 1 {
			return syntaxError(n, "%s: bad syntax", n.Text)
		}
		return located(List(Symbol(n.Text), FromAST(n.Children[0])), n)
	case ast.List:
		var cells []*LVal
		for _, c := range n.Children {
			if c.Kind == ast.Comment {
				continue
			}
			cells = append(cells, FromAST(c))
		}
		if len(cells) == 0 {
			return Null()
		}
		if n.Dotted && len(cells) > 1 {
			return located(ListTail(cells[:len(cells)-1], cells[len(cells)-1]), n)
		}
		return located(List(cells...), n)
	}
	return syntaxError(n, "unexpected %s", n.Kind)
}

// FromProgram converts every non-comment node of prog.
func FromProgram(prog []*ast.Node) []*LVal {
	vs := make([]*LVal, 0, len(prog))
	for _, n := range prog {
		if n.Kind == ast.Comment {
			continue
		}
		vs = append(vs, FromAST(n))
	}
	return vs
}

func located(v *LVal, n *ast.Node) *LVal {
	v.Source = n.Source
	return v
}

func syntaxError(n *ast.Node, format string, args ...interface{}) *LVal {
	err := Errorf(CondSyntaxError, format, args...)
	err.Source = n.Source
	return err.LVal()
}
