// Copyright © 2024 The ELPS authors

// Package astutil provides shared tree walking utilities.
//
// These helpers are used by the rewrite, lint and lsp packages for
// traversing parsed programs.
package astutil

import "github.com/luthersystems/rktgrade/ast"

// Walk calls fn for every node in the tree, depth-first.
// parent is nil for top-level expressions.
func Walk(exprs []*ast.Node, fn func(node *ast.Node, parent *ast.Node, depth int)) {
	for _, expr := range exprs {
		walkNode(expr, nil, 0, fn)
	}
}

func walkNode(node *ast.Node, parent *ast.Node, depth int, fn func(*ast.Node, *ast.Node, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	// Quoted data is not code.
	if node.Kind == ast.Quote && node.Text == "quote" {
		return
	}
	for _, child := range node.Children {
		walkNode(child, node, depth+1, fn)
	}
}

// WalkForms calls fn for every unquoted non-empty list (potential function
// call or special form) in the tree.
func WalkForms(exprs []*ast.Node, fn func(form *ast.Node, depth int)) {
	Walk(exprs, func(node *ast.Node, _ *ast.Node, depth int) {
		if node.Kind == ast.List && len(node.Children) > 0 {
			fn(node, depth)
		}
	})
}

// ArgCount returns the number of arguments in a form (excluding the head).
func ArgCount(form *ast.Node) int {
	if len(form.Children) <= 1 {
		return 0
	}
	return len(form.Children) - 1
}

// DefinedName returns the name bound by a (define name ...) or
// (define (name args...) ...) form, or "".
func DefinedName(form *ast.Node) string {
	if form.Head() != "define" || ArgCount(form) < 1 {
		return ""
	}
	target := form.Children[1]
	switch {
	case target.Kind == ast.Symbol:
		return target.Text
	case target.Kind == ast.List && len(target.Children) > 0 && target.Children[0].Kind == ast.Symbol:
		return target.Children[0].Text
	}
	return ""
}

// UserDefined returns the set of names defined or bound in the source.  This
// includes:
//   - names of define forms, at any depth
//   - parameter names of define and lambda forms
//   - functions synthesized by define-struct
//
// The result is file-global (not scope-aware), which is conservative: it may
// suppress a valid finding but will never produce a false positive.
func UserDefined(exprs []*ast.Node) map[string]bool {
	defs := make(map[string]bool)
	WalkForms(exprs, func(form *ast.Node, depth int) {
		switch form.Head() {
		case "define":
			if name := DefinedName(form); name != "" {
				defs[name] = true
			}
			if ArgCount(form) >= 1 && form.Children[1].Kind == ast.List {
				CollectFormals(&ast.Node{Kind: ast.List, Children: form.Children[1].Children[1:], Dotted: form.Children[1].Dotted}, defs)
			}
		case "lambda", "λ":
			if ArgCount(form) >= 1 {
				CollectFormals(form.Children[1], defs)
			}
		case "define-struct":
			if ArgCount(form) >= 2 && form.Children[1].Kind == ast.Symbol {
				name := form.Children[1].Text
				defs["make-"+name] = true
				defs[name+"?"] = true
				for _, field := range form.Children[2].Children {
					if field.Kind == ast.Symbol {
						defs[name+"-"+field.Text] = true
					}
				}
			}
		case "let", "let*", "letrec", "letrec*":
			if ArgCount(form) < 1 {
				return
			}
			bindings := form.Children[1]
			if bindings.Kind == ast.Symbol && ArgCount(form) >= 2 {
				defs[bindings.Text] = true // named let
				bindings = form.Children[2]
			}
			for _, b := range bindings.Children {
				if b.Kind == ast.List && len(b.Children) > 0 && b.Children[0].Kind == ast.Symbol {
					defs[b.Children[0].Text] = true
				}
			}
		}
	})
	return defs
}

// CollectFormals extracts symbol names from a formals list.  A bare symbol
// formals (variadic lambda) is collected as well.
func CollectFormals(formals *ast.Node, defs map[string]bool) {
	if formals == nil {
		return
	}
	if formals.Kind == ast.Symbol {
		defs[formals.Text] = true
		return
	}
	if formals.Kind != ast.List {
		return
	}
	for _, sym := range formals.Children {
		if sym.Kind == ast.Symbol {
			defs[sym.Text] = true
		}
	}
}

// SourceOf returns the best source location for a node.
// Prefers the node's own source, falls back to first child's source.
func SourceOf(n *ast.Node) *ast.Node {
	if n.Source != nil && n.Source.Line > 0 {
		return n
	}
	if len(n.Children) > 0 && n.Children[0].Source != nil {
		return n.Children[0]
	}
	return n
}

// Transform rebuilds the tree bottom-up: children are transformed before fn
// sees their parent, so fn always receives a node whose subforms are already
// rewritten.  Quoted data is passed to fn but not descended into.  Nodes are
// modified in place.
func Transform(node *ast.Node, fn func(*ast.Node) *ast.Node) *ast.Node {
	if node == nil {
		return nil
	}
	if !(node.Kind == ast.Quote && node.Text == "quote") {
		for i, child := range node.Children {
			node.Children[i] = Transform(child, fn)
		}
	}
	return fn(node)
}
