// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	content := doc.Content
	doc.mu.Unlock()

	name := wordAtPosition(content, int(params.Position.Line), int(params.Position.Character))
	form, ok := doc.Definition(name)
	if !ok {
		return nil, nil
	}
	target := nameNode(form)
	if target.Source == nil {
		return nil, nil
	}
	return protocol.Location{
		URI:   params.TextDocument.URI,
		Range: toLSPRange(target.Source, len(target.Text)),
	}, nil
}
