// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/lint"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	content := doc.Content
	doc.mu.Unlock()

	name := wordAtPosition(content, int(params.Position.Line), int(params.Position.Character))
	if name == "" {
		return nil, nil
	}

	var text string
	if form, ok := doc.Definition(name); ok {
		text = definitionHover(name, form)
	} else if fun, ok := lint.Globals()[name]; ok {
		text = builtinHover(name, fun)
	}
	if text == "" {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}, nil
}

// definitionHover describes a name defined in the document.
func definitionHover(name string, form *ast.Node) string {
	var sb strings.Builder
	switch {
	case form.Head() == "define-struct":
		fmt.Fprintf(&sb, "**structure** `%s`", name)
		fmt.Fprintf(&sb, "\n\n```racket\n%s\n```", form.String())
	case len(form.Children) > 1 && form.Children[1].Kind == ast.List:
		fmt.Fprintf(&sb, "**function** `%s`", name)
		fmt.Fprintf(&sb, "\n\n```racket\n%s\n```", form.Children[1].String())
	default:
		fmt.Fprintf(&sb, "**variable** `%s`", name)
	}
	if form.Source != nil {
		fmt.Fprintf(&sb, "\n\n*Defined on line %d*", form.Source.Line)
	}
	return sb.String()
}

// builtinHover describes a function or special form provided by the runtime.
func builtinHover(name string, fun *lisp.LVal) string {
	if fun.IsSpecialOp() {
		return fmt.Sprintf("**special form** `%s`", name)
	}
	fd := fun.FunData()
	if fd == nil {
		return fmt.Sprintf("**builtin** `%s`", name)
	}
	return fmt.Sprintf("**builtin** `%s`\n\n%s", name, arityText(fd.MinArgs, fd.MaxArgs))
}

func arityText(min, max int) string {
	switch {
	case max < 0:
		return fmt.Sprintf("Accepts %d or more arguments.", min)
	case min == max:
		return fmt.Sprintf("Accepts %d argument(s).", min)
	default:
		return fmt.Sprintf("Accepts %d to %d arguments.", min, max)
	}
}
