// Copyright © 2024 The ELPS authors

package rewrite

import (
	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/astutil"
)

// Locals rewrites every (local [definition ...] body ...) in prog as
// (letrec (binding ...) body ...).  Function definitions become lambda
// bindings.  Entries of the definition list that are not define forms are
// dropped.
func Locals(prog []*ast.Node) []*ast.Node {
	for i, n := range prog {
		prog[i] = astutil.Transform(n, rewriteLocal)
	}
	return prog
}

func rewriteLocal(n *ast.Node) *ast.Node {
	if n.Head() != "local" || !n.IsList() || len(n.Children) < 2 {
		return n
	}
	defs := n.Children[1]
	if !defs.IsList() {
		return n
	}
	var bindings []*ast.Node
	for _, def := range defs.Children {
		if b := localBinding(def); b != nil {
			bindings = append(bindings, b)
		}
	}
	letrec := ast.ListOf(append([]*ast.Node{ast.Sym("letrec"), ast.ListOf(bindings...)}, n.Children[2:]...)...)
	letrec.Source = n.Source
	letrec.Children[0].Source = n.Children[0].Source
	letrec.Children[1].Source = defs.Source
	return letrec
}

// localBinding converts one internal definition to a letrec binding.
func localBinding(def *ast.Node) *ast.Node {
	if def.Head() != "define" || !def.IsList() || len(def.Children) < 3 {
		return nil
	}
	target := def.Children[1]
	switch target.Kind {
	case ast.Symbol:
		if len(def.Children) != 3 {
			return nil
		}
		return ast.Brackets(target, def.Children[2]).WithSource(def.Source)
	case ast.List:
		if len(target.Children) == 0 || target.Children[0].Kind != ast.Symbol {
			return nil
		}
		lambda := ast.ListOf(append([]*ast.Node{ast.Sym("lambda"), formals(target)}, def.Children[2:]...)...)
		lambda.Source = def.Source
		lambda.Children[0].Source = def.Children[0].Source
		return ast.Brackets(target.Children[0], lambda).WithSource(def.Source)
	}
	return nil
}

// formals returns the parameter list of a (name . params) definition
// target.  (f . rest) yields the bare symbol rest.
func formals(target *ast.Node) *ast.Node {
	params := target.Children[1:]
	if target.Dotted && len(params) == 1 {
		return params[0]
	}
	f := &ast.Node{Kind: ast.List, Bracket: '(', Children: params, Dotted: target.Dotted, Source: target.Source}
	return f
}
