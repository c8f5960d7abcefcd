// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line s-expressions and consecutive
// comment blocks.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	exprs := doc.ast
	content := doc.Content
	doc.mu.Unlock()

	ranges := []protocol.FoldingRange{}

	// Fold multi-line lists from the AST.
	for _, expr := range exprs {
		collectFoldingRanges(expr, &ranges)
	}

	// Fold consecutive comment blocks from source text.
	ranges = append(ranges, commentFoldingRanges(content)...)

	return ranges, nil
}

// collectFoldingRanges recursively walks the AST and emits a folding range
// for each list whose elements span more than one line.
func collectFoldingRanges(n *ast.Node, ranges *[]protocol.FoldingRange) {
	if n == nil || n.Source == nil {
		return
	}
	if n.Kind == ast.List && n.Source.Line > 0 {
		startLine := n.Source.Line - 1 // convert to 0-based
		endLine := lastLine(n) - 1
		if endLine > startLine {
			kind := string(protocol.FoldingRangeKindRegion)
			*ranges = append(*ranges, protocol.FoldingRange{
				StartLine: safeUint(startLine),
				EndLine:   safeUint(endLine),
				Kind:      &kind,
			})
		}
	}
	for _, child := range n.Children {
		collectFoldingRanges(child, ranges)
	}
}

// commentFoldingRanges detects consecutive lines starting with ";" and
// produces a folding range for each block of 2+ lines.
func commentFoldingRanges(content string) []protocol.FoldingRange {
	lines := strings.Split(content, "\n")
	var ranges []protocol.FoldingRange

	blockStart := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		isComment := strings.HasPrefix(trimmed, ";")
		if isComment {
			if blockStart < 0 {
				blockStart = i
			}
		} else {
			if blockStart >= 0 && i-1 > blockStart {
				kind := string(protocol.FoldingRangeKindComment)
				ranges = append(ranges, protocol.FoldingRange{
					StartLine: safeUint(blockStart),
					EndLine:   safeUint(i - 1),
					Kind:      &kind,
				})
			}
			blockStart = -1
		}
	}
	// Handle comment block at end of file.
	if blockStart >= 0 && len(lines)-1 > blockStart {
		kind := string(protocol.FoldingRangeKindComment)
		ranges = append(ranges, protocol.FoldingRange{
			StartLine: safeUint(blockStart),
			EndLine:   safeUint(len(lines) - 1),
			Kind:      &kind,
		})
	}

	return ranges
}
