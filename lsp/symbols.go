// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/astutil"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
// Top-level definitions are reported; structure fields become children.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	exprs := doc.ast
	doc.mu.Unlock()

	symbols := []protocol.DocumentSymbol{}
	for _, expr := range exprs {
		if expr.Source == nil {
			continue
		}
		if sym, ok := documentSymbol(expr); ok {
			symbols = append(symbols, sym)
		}
	}
	return symbols, nil
}

func documentSymbol(form *ast.Node) (protocol.DocumentSymbol, bool) {
	name := nameNode(form)
	if name.Kind != ast.Symbol || name.Source == nil {
		return protocol.DocumentSymbol{}, false
	}
	full := protocol.Range{
		Start: toLSPPosition(form.Source),
		End:   protocol.Position{Line: safeUint(lastLine(form) - 1)},
	}
	sym := protocol.DocumentSymbol{
		Name:           name.Text,
		Range:          full,
		SelectionRange: toLSPRange(name.Source, len(name.Text)),
	}
	switch {
	case form.Head() == "define-struct":
		sym.Kind = protocol.SymbolKindStruct
		if astutil.ArgCount(form) >= 2 {
			for _, field := range form.Children[2].Children {
				if field.Kind != ast.Symbol || field.Source == nil {
					continue
				}
				r := toLSPRange(field.Source, len(field.Text))
				sym.Children = append(sym.Children, protocol.DocumentSymbol{
					Name:           field.Text,
					Kind:           protocol.SymbolKindField,
					Range:          r,
					SelectionRange: r,
				})
			}
		}
	case astutil.DefinedName(form) == "":
		return protocol.DocumentSymbol{}, false
	case form.Children[1].Kind == ast.List:
		sym.Kind = protocol.SymbolKindFunction
		detail := form.Children[1].String()
		sym.Detail = &detail
	default:
		sym.Kind = protocol.SymbolKindVariable
	}
	return sym, true
}
