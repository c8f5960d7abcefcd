// Copyright © 2024 The ELPS authors

// Package rewrite desugars the student dialect into the core language
// understood by the evaluator.  define-struct becomes tagged-list
// definitions, local becomes letrec and match becomes let and cond.
//
// The passes operate on syntax trees and run in a fixed order (structs,
// locals, matches) so that struct accessors exist before match patterns
// refer to them and local definitions are visible to match bodies.
package rewrite

import (
	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/parser/rdparser"
)

// Pipeline applies every rewrite pass.  A Pipeline carries the state of one
// processing session: the struct registry and the match variable counter.
// Forms rewritten by the same Pipeline share both.
type Pipeline struct {
	Registry *Registry
	matcher  *Matcher
}

// NewPipeline returns a Pipeline with an empty registry.
func NewPipeline() *Pipeline {
	reg := NewRegistry()
	return &Pipeline{
		Registry: reg,
		matcher:  &Matcher{Registry: reg},
	}
}

// Rewrite applies the struct, local and match passes to prog in that order.
func (p *Pipeline) Rewrite(prog []*ast.Node) []*ast.Node {
	prog = Structs(prog, p.Registry)
	prog = Locals(prog)
	return p.matcher.Matches(prog)
}

// RewriteString reads src and rewrites the program it contains.
func (p *Pipeline) RewriteString(name string, src string) ([]*ast.Node, error) {
	prog, err := rdparser.ParseString(name, src)
	if err != nil {
		return nil, err
	}
	return p.Rewrite(prog), nil
}

// Expand reads and rewrites src with a fresh Pipeline and prints the result
// one top-level form per line.
func Expand(name string, src string) (string, error) {
	prog, err := NewPipeline().RewriteString(name, src)
	if err != nil {
		return "", err
	}
	return ast.Program(prog), nil
}
