// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/parser/token"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// toLSPPosition converts a 1-based source location to a 0-based LSP position.
func toLSPPosition(loc *token.Location) protocol.Position {
	line := loc.Line
	col := loc.Col
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(col),
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// toLSPRange converts a source location to an LSP range nameLen
// characters wide.
func toLSPRange(loc *token.Location, nameLen int) protocol.Range {
	start := toLSPPosition(loc)
	end := protocol.Position{
		Line:      start.Line,
		Character: start.Character + safeUint(nameLen),
	}
	return protocol.Range{Start: start, End: end}
}

// nameNode returns the node naming the definition in form: the symbol of
// (define name ...), the head of (define (name ...) ...) or the name of a
// define-struct.
func nameNode(form *ast.Node) *ast.Node {
	if len(form.Children) < 2 {
		return form
	}
	target := form.Children[1]
	if target.Kind == ast.List && len(target.Children) > 0 {
		return target.Children[0]
	}
	return target
}

// lastLine returns the last line holding any part of n.
func lastLine(n *ast.Node) int {
	line := 0
	if n.Source != nil {
		line = n.Source.Line + strings.Count(n.Text, "\n")
	}
	for _, c := range n.Children {
		if l := lastLine(c); l > line {
			line = l
		}
	}
	return line
}

// wordAtPosition extracts the symbol-like word at the given 0-based LSP
// position from the document content. The cursor can be inside or at the
// end of a word; in both cases the full word is returned.
func wordAtPosition(content string, line, col int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	ln := lines[line]
	if col < 0 || col > len(ln) {
		return ""
	}
	// Scan backwards from cursor.
	start := col
	for start > 0 && isSymbolChar(ln[start-1]) {
		start--
	}
	// Scan forwards from cursor.
	end := col
	for end < len(ln) && isSymbolChar(ln[end]) {
		end++
	}
	return ln[start:end]
}

func isSymbolChar(c byte) bool {
	if c >= 'a' && c <= 'z' {
		return true
	}
	if c >= 'A' && c <= 'Z' {
		return true
	}
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '-', '_', '!', '?', '+', '*', '/', '<', '>', '=', ':', '.', '%', '&', '$', '~', '^':
		return true
	}
	return false
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
