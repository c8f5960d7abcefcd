// Copyright © 2024 The ELPS authors

package formatter

import (
	"testing"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"atom", "42", "42\n"},
		{"single line", "(define x   1)", "(define x 1)\n"},
		{"brackets kept", "(let ([x 1]\n[y 2]) (+ x y))", "(let ([x 1]\n      [y 2]) (+ x y))\n"},
		{
			"define body",
			"(define (f x)\n(+ x 1))",
			"(define (f x)\n  (+ x 1))\n",
		},
		{
			"align args",
			"(foo 1\n2\n   3)",
			"(foo 1\n     2\n     3)\n",
		},
		{
			"first arg wrapped",
			"(foo\n1\n2)",
			"(foo\n  1\n  2)\n",
		},
		{
			"cond clauses",
			"(cond\n[(= x 1) 'a]\n    [else 'b])",
			"(cond\n  [(= x 1) 'a]\n  [else 'b])\n",
		},
		{
			"match",
			"(match l\n['() 0]\n[(cons _ r) (+ 1 (len r))])",
			"(match l\n  ['() 0]\n  [(cons _ r) (+ 1 (len r))])\n",
		},
		{
			"define-struct",
			"(define-struct posn\n(x y))",
			"(define-struct posn\n  (x y))\n",
		},
		{
			"blank lines capped",
			"(define a 1)\n\n\n\n(define b 2)",
			"(define a 1)\n\n(define b 2)\n",
		},
		{
			"adjacent forms",
			"(define a 1)\n(define b 2)",
			"(define a 1)\n(define b 2)\n",
		},
		{
			"top-level comments",
			";; helpers\n(define a 1) ; one\n",
			";; helpers\n(define a 1) ; one\n",
		},
		{
			"comment inside list",
			"(define (f x)\n; double it\n(* 2 x))",
			"(define (f x)\n  ; double it\n  (* 2 x))\n",
		},
		{
			"trailing comment closes on next line",
			"(list 1 ; one\n)",
			"(list 1 ; one\n      )\n",
		},
		{"quote", "'(a   b)", "'(a b)\n"},
		{"quasiquote", "`(1 ,x ,@xs)", "`(1 ,x ,@xs)\n"},
		{"dotted", "'(1 .   2)", "'(1 . 2)\n"},
		{"string escapes", `(display "a\"b")`, "(display \"a\\\"b\")\n"},
		{"check-expect", "(check-expect (f 1)\n2)", "(check-expect (f 1)\n              2)\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := Format([]byte(test.in), nil)
			require.NoError(t, err)
			assert.Equal(t, test.want, string(out))
		})
	}
}

func TestFormatIdempotent(t *testing.T) {
	src := `;; length of a list
(define (len l)
  (match l
    ['() 0]
    [(cons _ r) (+ 1 (len r))]))

(check-expect (len '(1 2 3)) 3)
`
	out, err := Format([]byte(src), nil)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
	again, err := Format(out, nil)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}

func TestFormatParseError(t *testing.T) {
	_, err := FormatFile([]byte("(define (f x)"), "bad.rkt", nil)
	assert.Error(t, err)
}

func TestFormatIndentSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IndentSize = 4
	out, err := Format([]byte("(define (f x)\n(+ x 1))"), cfg)
	require.NoError(t, err)
	assert.Equal(t, "(define (f x)\n    (+ x 1))\n", string(out))
}

func TestFormatNodes(t *testing.T) {
	body := ast.ListOf(ast.Sym("+"), ast.Sym("x"), ast.Number("1"))
	def := ast.ListOf(ast.Sym("define"), ast.ListOf(ast.Sym("f"), ast.Sym("x")), body)
	assert.Equal(t, "(define (f x) (+ x 1))\n", string(FormatNodes([]*ast.Node{def}, nil)))

	cfg := DefaultConfig()
	cfg.MaxWidth = 16
	assert.Equal(t, "(define (f x)\n  (+ x 1))\n", string(FormatNodes([]*ast.Node{def}, cfg)))

	clauses := ast.ListOf(ast.Sym("cond"),
		ast.Brackets(ast.ListOf(ast.Sym("="), ast.Sym("x"), ast.Number("1")), ast.Quoted(ast.Sym("one"))),
		ast.Brackets(ast.Sym("else"), ast.Quoted(ast.Sym("other"))))
	assert.Equal(t, "(cond\n  [(= x 1) 'one]\n  [else 'other])\n", string(FormatNodes([]*ast.Node{clauses}, cfg)))
}

func TestFormatNodesComment(t *testing.T) {
	nodes := []*ast.Node{
		ast.CommentNode("; define-struct posn processed"),
		ast.ListOf(ast.Sym("define"), ast.Sym("a"), ast.Number("1")),
	}
	assert.Equal(t, "; define-struct posn processed\n(define a 1)\n", string(FormatNodes(nodes, nil)))
}

func TestRuleFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, IndentSpecial, cfg.RuleFor("define").Style)
	assert.Equal(t, 2, cfg.RuleFor("define-struct").HeaderArgs)
	assert.Equal(t, IndentSpecial, cfg.RuleFor("define-values").Style)
	assert.Equal(t, IndentBody, cfg.RuleFor("cond").Style)
	assert.Equal(t, IndentAlign, cfg.RuleFor("map").Style)
}
