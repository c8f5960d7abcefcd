// Copyright © 2024 The ELPS authors

package rewrite

import (
	"fmt"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/astutil"
)

// MatchFailure is the message of the error raised when no clause of a match
// expression applies.
const MatchFailure = "match: no matching clause"

// PatternKind identifies the shape of a match pattern.
type PatternKind uint8

const (
	Wildcard PatternKind = iota
	EmptyList
	QuotedLiteral
	Predicate
	Cons
	List
	Struct
	Variable
	Literal
)

var patternKindStrings = []string{
	Wildcard:      "wildcard",
	EmptyList:     "empty-list",
	QuotedLiteral: "quoted-literal",
	Predicate:     "predicate",
	Cons:          "cons",
	List:          "list",
	Struct:        "struct",
	Variable:      "variable",
	Literal:       "literal",
}

func (k PatternKind) String() string {
	if int(k) >= len(patternKindStrings) {
		return "invalid"
	}
	return patternKindStrings[k]
}

// Pattern is a parsed match pattern.
type Pattern struct {
	Kind PatternKind
	// Node is the pattern's source.  For Predicate it is the predicate
	// expression, for Variable the bound symbol and for Struct the
	// descriptor's name symbol.
	Node *ast.Node
	// Elements are the subpatterns of Cons (car, cdr), List, Struct and a
	// Predicate with a binding.
	Elements []*Pattern
	Struct   *StructDescriptor
}

// MatchClause is one [pattern body ...] clause.
type MatchClause struct {
	Pattern *Pattern
	Body    []*ast.Node
	Source  *ast.Node
}

// ParsePattern classifies a pattern.  Struct patterns are recognized only
// for structs present in reg, which may be nil.
func ParsePattern(n *ast.Node, reg *Registry) *Pattern {
	switch {
	case n.IsSymbol("_"):
		return &Pattern{Kind: Wildcard, Node: n}
	case n.IsEmptyList(), n.IsSymbol("empty"), isQuotedEmpty(n):
		return &Pattern{Kind: EmptyList, Node: n}
	case n.Kind == ast.Quote && n.Text == "quote":
		return &Pattern{Kind: QuotedLiteral, Node: n}
	case n.Kind == ast.Symbol:
		return &Pattern{Kind: Variable, Node: n}
	case n.Kind == ast.Int, n.Kind == ast.Float, n.Kind == ast.String, n.Kind == ast.Char, n.Kind == ast.Bool:
		return &Pattern{Kind: Literal, Node: n}
	}
	if !n.IsList() {
		return &Pattern{Kind: Literal, Node: ast.Quoted(n)}
	}
	args := n.Children[1:]
	switch head := n.Head(); {
	case head == "?" && (len(args) == 1 || len(args) == 2):
		p := &Pattern{Kind: Predicate, Node: args[0]}
		if len(args) == 2 {
			p.Elements = []*Pattern{ParsePattern(args[1], reg)}
		}
		return p
	case head == "cons" && len(args) == 2:
		return &Pattern{Kind: Cons, Node: n, Elements: parsePatterns(args, reg)}
	case head == "list":
		return &Pattern{Kind: List, Node: n, Elements: parsePatterns(args, reg)}
	case head != "" && reg != nil:
		if d, ok := reg.Lookup(head); ok && len(d.Fields) == len(args) {
			return &Pattern{Kind: Struct, Node: n.Children[0], Struct: d, Elements: parsePatterns(args, reg)}
		}
	}
	return &Pattern{Kind: Literal, Node: ast.Quoted(n)}
}

func parsePatterns(nodes []*ast.Node, reg *Registry) []*Pattern {
	ps := make([]*Pattern, len(nodes))
	for i, n := range nodes {
		ps[i] = ParsePattern(n, reg)
	}
	return ps
}

func isQuotedEmpty(n *ast.Node) bool {
	return n.Kind == ast.Quote && n.Text == "quote" && len(n.Children) == 1 && n.Children[0].IsEmptyList()
}

// Compile returns the tests that must all hold for v to match p, and the
// variable bindings the match introduces, in pattern order.
func (p *Pattern) Compile(v *ast.Node) (tests []*ast.Node, bindings []*ast.Node) {
	p.compile(v, &tests, &bindings)
	return tests, bindings
}

func (p *Pattern) compile(v *ast.Node, tests, bindings *[]*ast.Node) {
	switch p.Kind {
	case Wildcard:
	case EmptyList:
		*tests = append(*tests, call("null?", v))
	case QuotedLiteral, Literal:
		*tests = append(*tests, call("equal?", v, p.Node))
	case Variable:
		*bindings = append(*bindings, ast.Brackets(p.Node.Clone(), v.Clone()))
	case Predicate:
		*tests = append(*tests, ast.ListOf(p.Node.Clone(), v.Clone()))
		for _, e := range p.Elements {
			e.compile(v, tests, bindings)
		}
	case Cons:
		*tests = append(*tests, call("pair?", v))
		p.Elements[0].compile(call("car", v), tests, bindings)
		p.Elements[1].compile(call("cdr", v), tests, bindings)
	case List:
		*tests = append(*tests,
			call("list?", v),
			call("=", call("length", v), ast.Number(fmt.Sprint(len(p.Elements)))))
		for i, e := range p.Elements {
			e.compile(call("list-ref", v, ast.Number(fmt.Sprint(i))), tests, bindings)
		}
	case Struct:
		*tests = append(*tests, call(p.Struct.Predicate(), v))
		for i, e := range p.Elements {
			e.compile(call(p.Struct.Accessor(p.Struct.Fields[i]), v), tests, bindings)
		}
	}
}

// Test combines the tests of a pattern into a single condition.
func Test(tests []*ast.Node) *ast.Node {
	switch len(tests) {
	case 0:
		return ast.Boolean(true)
	case 1:
		return tests[0]
	default:
		return call("and", tests...)
	}
}

// Matcher expands match expressions.  Each expansion binds the scrutinee to
// a fresh __match_val_N variable, so nested matches never capture each
// other's values.
type Matcher struct {
	Registry *Registry
	gensym   int
}

// Gensym returns a fresh scrutinee variable name.
func (m *Matcher) Gensym() string {
	name := fmt.Sprintf("__match_val_%d", m.gensym)
	m.gensym++
	return name
}

// Matches rewrites every match expression in prog.  Inner expressions are
// expanded before the expressions containing them.
func (m *Matcher) Matches(prog []*ast.Node) []*ast.Node {
	for i, n := range prog {
		prog[i] = astutil.Transform(n, m.rewriteMatch)
	}
	return prog
}

// ParseClauses returns the clauses of a match expression, or false when n is
// not a well formed match.
func (m *Matcher) ParseClauses(n *ast.Node) ([]*MatchClause, bool) {
	if n.Head() != "match" || !n.IsList() || len(n.Children) < 3 {
		return nil, false
	}
	clauses := make([]*MatchClause, 0, len(n.Children)-2)
	for _, c := range n.Children[2:] {
		if !c.IsList() || len(c.Children) == 0 {
			return nil, false
		}
		clauses = append(clauses, &MatchClause{
			Pattern: ParsePattern(c.Children[0], m.Registry),
			Body:    c.Children[1:],
			Source:  c,
		})
	}
	return clauses, true
}

func (m *Matcher) rewriteMatch(n *ast.Node) *ast.Node {
	clauses, ok := m.ParseClauses(n)
	if !ok {
		return n
	}
	val := ast.Sym(m.Gensym())
	cond := ast.ListOf(ast.Sym("cond"))
	for _, c := range clauses {
		tests, bindings := c.Pattern.Compile(val)
		clause := ast.Brackets(Test(tests))
		switch {
		case len(c.Body) == 0:
		case len(bindings) == 0:
			clause.Children = append(clause.Children, c.Body...)
		default:
			let := ast.ListOf(append([]*ast.Node{ast.Sym("let"), ast.ListOf(bindings...)}, c.Body...)...)
			clause.Children = append(clause.Children, let)
		}
		cond.Children = append(cond.Children, withSource(clause, c.Source.Source))
	}
	cond.Children = append(cond.Children, ast.Brackets(ast.Sym("else"), call("error", ast.Str(MatchFailure))))
	let := ast.ListOf(
		ast.Sym("let"),
		ast.ListOf(ast.Brackets(val, n.Children[1])),
		cond)
	return withSource(let, n.Source)
}
