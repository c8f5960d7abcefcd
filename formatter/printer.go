// Copyright © 2024 The ELPS authors

package formatter

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/rktgrade/ast"
)

// printer tracks output state during formatting.
type printer struct {
	buf   bytes.Buffer
	cfg   *Config
	col   int  // current column (0-indexed)
	atBOL bool // at beginning of line
}

func newPrinter(cfg *Config) *printer {
	return &printer{
		cfg:   cfg,
		atBOL: true,
	}
}

// writeTopLevel writes a sequence of top-level forms.  A comment that began
// on the line where the previous form ended stays on that line.
func (p *printer) writeTopLevel(nodes []*ast.Node) {
	var prev *ast.Node
	for _, n := range nodes {
		if prev != nil {
			if n.Kind == ast.Comment && sameLine(prev, n) {
				p.writeString(" ")
				p.writeString(n.Text)
				prev = n
				continue
			}
			p.newline()
			for j := 0; j < p.blankLinesBetween(prev, n); j++ {
				p.newline()
			}
		}
		p.writeIndent(0)
		p.writeExpr(n, 0)
		prev = n
	}
	if prev != nil {
		p.newline()
	}
}

func (p *printer) writeExpr(n *ast.Node, indent int) {
	switch n.Kind {
	case ast.List:
		p.writeList(n, indent)
	case ast.Quote:
		p.writeQuote(n, indent)
	case ast.String:
		p.writeString(ast.QuoteString(n.Text))
	default:
		p.writeString(n.Text)
	}
}

func (p *printer) writeQuote(n *ast.Node, indent int) {
	prefix := ast.QuotePrefix(n.Text)
	p.writeString(prefix)
	if len(n.Children) > 0 {
		p.writeExpr(n.Children[0], indent+len(prefix))
	}
}

// writeList writes a parenthesized or bracketed list.  Lists read from
// source keep their line breaks; generated lists are broken only when they
// do not fit within the configured width.
func (p *printer) writeList(n *ast.Node, indent int) {
	open, close := "(", ")"
	if n.Bracket == '[' {
		open, close = "[", "]"
	}
	if len(n.Children) == 0 {
		p.writeString(open + close)
		return
	}
	if n.Source == nil && !hasComment(n) {
		if flat := n.String(); p.col+utf8.RuneCountInString(flat) <= p.cfg.maxWidth() {
			p.writeString(flat)
			return
		}
	}

	p.writeString(open)
	bracketCol := p.col - 1

	head := n.Children[0]
	isCall := head.Kind == ast.Symbol
	if !isCall && p.breakBefore(n, 0) {
		p.newline()
		p.writeIndent(bracketCol + 1)
	}
	p.writeExpr(head, bracketCol+1)
	firstArgCol := p.col + 1

	rule := &IndentRule{Style: IndentAlign}
	if isCall {
		rule = p.cfg.RuleFor(head.Text)
	} else {
		// Data lists such as cond clauses and binding pairs align just
		// inside the bracket.
		firstArgCol = bracketCol + 1
	}

	if isCall && len(n.Children) > 1 && p.breakBefore(n, 1) && rule.Style == IndentAlign {
		rule = &IndentRule{Style: IndentBody}
	}

	for i := 1; i < len(n.Children); i++ {
		child := n.Children[i]
		onNewLine := p.breakBefore(n, i)
		childIndent := p.computeChildIndent(rule, i, firstArgCol, bracketCol, onNewLine)
		if onNewLine {
			p.newline()
			for j := 0; j < p.blankLinesBetween(n.Children[i-1], child); j++ {
				p.newline()
			}
			p.writeIndent(childIndent)
		} else {
			p.writeString(" ")
		}
		if n.Dotted && i == len(n.Children)-1 {
			p.writeString(". ")
		}
		p.writeExpr(child, childIndent)
	}

	last := n.Children[len(n.Children)-1]
	if isLineComment(last) {
		p.newline()
		p.writeIndent(p.computeChildIndent(rule, len(n.Children), firstArgCol, bracketCol, true))
	}
	p.writeString(close)
}

// breakBefore reports whether child i of n starts on a new line.
func (p *printer) breakBefore(n *ast.Node, i int) bool {
	child := n.Children[i]
	if i > 0 && isLineComment(n.Children[i-1]) {
		return true
	}
	if n.Source != nil && child.Source != nil {
		if i == 0 {
			return child.Source.Line > n.Source.Line
		}
		prev := n.Children[i-1]
		if child.Kind == ast.Comment && sameLine(prev, child) {
			return false
		}
		return child.Source.Line > endLine(prev)
	}
	if n.Source != nil || i == 0 {
		return false
	}
	// A generated list that does not fit keeps its header on the first line.
	if n.Children[0].Kind != ast.Symbol {
		return true
	}
	rule := p.cfg.RuleFor(n.Children[0].Text)
	switch rule.Style {
	case IndentBody:
		return true
	case IndentSpecial:
		return i > rule.HeaderArgs
	default:
		return i > 1
	}
}

// computeChildIndent determines the indentation for child at index i.
// For IndentSpecial header args, if the child wraps to a new line, body indent
// is used instead of first-arg alignment to avoid rightward drift.
func (p *printer) computeChildIndent(rule *IndentRule, childIdx int, firstArgCol int, bracketCol int, onNewLine bool) int {
	switch rule.Style {
	case IndentBody:
		return bracketCol + p.cfg.IndentSize
	case IndentSpecial:
		if childIdx <= rule.HeaderArgs {
			if onNewLine {
				return bracketCol + p.cfg.IndentSize
			}
			return firstArgCol
		}
		return bracketCol + p.cfg.IndentSize
	default: // IndentAlign
		return firstArgCol
	}
}

// blankLinesBetween returns the number of blank lines to keep between two
// consecutive forms, capped at MaxBlankLines.
func (p *printer) blankLinesBetween(prev, n *ast.Node) int {
	if prev.Source == nil || n.Source == nil {
		return 0
	}
	blank := n.Source.Line - endLine(prev) - 1
	if blank > p.cfg.MaxBlankLines {
		blank = p.cfg.MaxBlankLines
	}
	if blank < 0 {
		return 0
	}
	return blank
}

// writeIndent writes spaces to reach the desired column.
func (p *printer) writeIndent(col int) {
	if !p.atBOL {
		return
	}
	for i := 0; i < col; i++ {
		p.buf.WriteByte(' ')
	}
	p.col = col
	p.atBOL = false
}

// writeString writes a string, updating column tracking.
func (p *printer) writeString(s string) {
	if p.atBOL && s != "" {
		p.atBOL = false
	}
	p.buf.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		p.col = utf8.RuneCountInString(s[idx+1:])
	} else {
		p.col += utf8.RuneCountInString(s)
	}
}

// newline writes a newline and marks beginning of line.
func (p *printer) newline() {
	p.buf.WriteByte('\n')
	p.col = 0
	p.atBOL = true
}

func (c *Config) maxWidth() int {
	if c.MaxWidth <= 0 {
		return 80
	}
	return c.MaxWidth
}

// endLine returns the last source line n is known to occupy.  A closing
// bracket alone on a later line is not visible in the tree.
func endLine(n *ast.Node) int {
	line := 0
	if n.Source != nil {
		line = n.Source.Line + strings.Count(n.Text, "\n")
	}
	for _, c := range n.Children {
		if l := endLine(c); l > line {
			line = l
		}
	}
	return line
}

func sameLine(prev, n *ast.Node) bool {
	return prev.Source != nil && n.Source != nil && n.Source.Line == endLine(prev)
}

func isLineComment(n *ast.Node) bool {
	return n.Kind == ast.Comment && strings.HasPrefix(n.Text, ";")
}

func hasComment(n *ast.Node) bool {
	if n.Kind == ast.Comment {
		return true
	}
	for _, c := range n.Children {
		if hasComment(c) {
			return true
		}
	}
	return false
}
