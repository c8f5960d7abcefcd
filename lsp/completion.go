// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"strings"

	"github.com/luthersystems/rktgrade/lint"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCompletion handles the textDocument/completion request.  It
// offers the document's definitions followed by runtime builtins.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	prefix := wordAtPosition(doc.Content, int(params.Position.Line), int(params.Position.Character))
	var local []string
	for name := range doc.defs {
		local = append(local, name)
	}
	doc.mu.Unlock()

	seen := make(map[string]bool)
	items := []protocol.CompletionItem{}
	add := func(names []string, kind protocol.CompletionItemKind) {
		sort.Strings(names)
		for _, name := range names {
			if seen[name] || !strings.HasPrefix(name, prefix) {
				continue
			}
			seen[name] = true
			k := kind
			items = append(items, protocol.CompletionItem{Label: name, Kind: &k})
		}
	}
	add(local, protocol.CompletionItemKindFunction)

	var builtins, keywords []string
	for name, fun := range lint.Globals() {
		if fun.IsSpecialOp() {
			keywords = append(keywords, name)
		} else {
			builtins = append(builtins, name)
		}
	}
	add(keywords, protocol.CompletionItemKindKeyword)
	add(builtins, protocol.CompletionItemKindFunction)
	return items, nil
}
