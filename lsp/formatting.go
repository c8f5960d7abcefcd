// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"unicode/utf16"

	"github.com/luthersystems/rktgrade/formatter"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFormatting replaces the whole document with its formatted
// text.  Documents that fail to parse are left alone.
func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	content := doc.Content
	uri := doc.URI
	doc.mu.Unlock()
	if content == "" {
		return nil, nil
	}

	cfg := formatter.DefaultConfig()
	if n := tabSize(params.Options); n > 0 {
		cfg.IndentSize = n
	}
	formatted, err := formatter.FormatFile([]byte(content), uriToPath(uri), cfg)
	if err != nil || string(formatted) == content {
		return nil, nil
	}
	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{},
			End:   endPosition(content),
		},
		NewText: string(formatted),
	}}, nil
}

// tabSize reads the editor's tabSize option, which arrives as a JSON number.
func tabSize(opts protocol.FormattingOptions) int {
	switch v := opts["tabSize"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// endPosition is the position just past the last character of content.
func endPosition(content string) protocol.Position {
	line := strings.Count(content, "\n")
	last := content[strings.LastIndexByte(content, '\n')+1:]
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(len(utf16.Encode([]rune(last)))),
	}
}
