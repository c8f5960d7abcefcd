// Copyright © 2024 The ELPS authors

package rewrite

import (
	"fmt"
	"strconv"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/astutil"
	"github.com/luthersystems/rktgrade/parser/token"
)

// StructMarker is the second element of every struct instance.  Instances
// are tagged lists of the form (name struct-instance field-value ...).
const StructMarker = "struct-instance"

// StructDescriptor records the shape of a struct declared with
// define-struct.  Field order determines the position of each value in an
// instance.
type StructDescriptor struct {
	Name   string
	Fields []string
}

// Constructor returns the name of the constructor function.
func (d *StructDescriptor) Constructor() string {
	return "make-" + d.Name
}

// Predicate returns the name of the type predicate.
func (d *StructDescriptor) Predicate() string {
	return d.Name + "?"
}

// Accessor returns the name of the accessor for field.
func (d *StructDescriptor) Accessor(field string) string {
	return d.Name + "-" + field
}

// Registry holds the structs declared during one processing session.  A
// Registry is not safe for concurrent use.
type Registry struct {
	structs map[string]*StructDescriptor
	order   []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{structs: make(map[string]*StructDescriptor)}
}

// Register records d, replacing an earlier struct of the same name.
func (r *Registry) Register(d *StructDescriptor) {
	if _, ok := r.structs[d.Name]; !ok {
		r.order = append(r.order, d.Name)
	}
	r.structs[d.Name] = d
}

// Lookup returns the struct named name.
func (r *Registry) Lookup(name string) (*StructDescriptor, bool) {
	d, ok := r.structs[name]
	return d, ok
}

// Structs returns the registered structs in declaration order.
func (r *Registry) Structs() []*StructDescriptor {
	ds := make([]*StructDescriptor, len(r.order))
	for i, name := range r.order {
		ds[i] = r.structs[name]
	}
	return ds
}

// Structs replaces each well formed define-struct in prog with a placeholder
// comment followed by the definitions of its constructor, predicate and
// accessors.  Declarations are found at the top level, inside begin and in
// the definition list of local.  Malformed declarations are left for the
// evaluator to reject.
func Structs(prog []*ast.Node, reg *Registry) []*ast.Node {
	out := expandStructs(prog, reg, true)
	for i, n := range out {
		out[i] = astutil.Transform(n, func(n *ast.Node) *ast.Node {
			switch n.Head() {
			case "begin":
				n.Children = append(n.Children[:1:1], expandStructs(n.Children[1:], reg, false)...)
			case "local":
				if len(n.Children) > 1 && n.Children[1].Kind == ast.List {
					defs := n.Children[1]
					defs.Children = expandStructs(defs.Children, reg, false)
				}
			}
			return n
		})
	}
	return out
}

func expandStructs(forms []*ast.Node, reg *Registry, placeholder bool) []*ast.Node {
	var out []*ast.Node
	for _, form := range forms {
		d, ok := parseStruct(form)
		if !ok {
			out = append(out, form)
			continue
		}
		reg.Register(d)
		if placeholder {
			out = append(out, ast.CommentNode(fmt.Sprintf("; define-struct %s processed", d.Name)).WithSource(form.Source))
		}
		for _, def := range StructDefinitions(d) {
			out = append(out, withSource(def, form.Source))
		}
	}
	return out
}

func parseStruct(form *ast.Node) (*StructDescriptor, bool) {
	if form.Head() != "define-struct" || !form.IsList() || len(form.Children) != 3 {
		return nil, false
	}
	name, fields := form.Children[1], form.Children[2]
	if name.Kind != ast.Symbol || !fields.IsList() {
		return nil, false
	}
	d := &StructDescriptor{Name: name.Text}
	for _, f := range fields.Children {
		if f.Kind != ast.Symbol {
			return nil, false
		}
		d.Fields = append(d.Fields, f.Text)
	}
	return d, true
}

// StructDefinitions returns the define forms implementing d.
func StructDefinitions(d *StructDescriptor) []*ast.Node {
	obj := ast.Sym("obj")
	tag := ast.Quoted(ast.Sym(d.Name))
	marker := ast.Quoted(ast.Sym(StructMarker))

	params := make([]*ast.Node, len(d.Fields))
	for i, f := range d.Fields {
		params[i] = ast.Sym(f)
	}
	defs := []*ast.Node{
		define(ast.ListOf(append([]*ast.Node{ast.Sym(d.Constructor())}, params...)...),
			call("cons", tag, call("cons", marker, call("list", cloneAll(params)...)))),
		define(ast.ListOf(ast.Sym(d.Predicate()), obj),
			call("and",
				call("pair?", obj),
				call("eq?", call("car", obj), tag),
				call("pair?", call("cdr", obj)),
				call("eq?", call("car", call("cdr", obj)), marker))),
	}
	for i, f := range d.Fields {
		defs = append(defs, define(ast.ListOf(ast.Sym(d.Accessor(f)), obj),
			call("if",
				call("and",
					call("pair?", obj),
					call("pair?", call("cdr", obj)),
					call("eq?", call("car", call("cdr", obj)), marker)),
				call("list-ref", call("cdr", call("cdr", obj)), ast.Number(strconv.Itoa(i))),
				ast.Boolean(false))))
	}
	return defs
}

func define(target *ast.Node, body ...*ast.Node) *ast.Node {
	return call("define", append([]*ast.Node{target}, body...)...)
}

// call builds (name args...).  Arguments are cloned so synthesized trees
// never share nodes.
func call(name string, args ...*ast.Node) *ast.Node {
	return ast.ListOf(append([]*ast.Node{ast.Sym(name)}, cloneAll(args)...)...)
}

func cloneAll(nodes []*ast.Node) []*ast.Node {
	out := make([]*ast.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// withSource attributes every node of a synthesized tree to loc.
func withSource(n *ast.Node, loc *token.Location) *ast.Node {
	if n == nil || loc == nil {
		return n
	}
	n.WithSource(loc)
	for _, c := range n.Children {
		withSource(c, loc)
	}
	return n
}
