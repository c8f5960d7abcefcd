// Copyright © 2024 The ELPS authors

package ast

import (
	"strings"
)

// Quote form names and the reader abbreviations they print as.
var quotePrefix = map[string]string{
	"quote":            "'",
	"quasiquote":       "`",
	"unquote":          ",",
	"unquote-splicing": ",@",
}

// QuotePrefix returns the reader abbreviation for a quote form name.
func QuotePrefix(name string) string {
	return quotePrefix[name]
}

// QuoteName returns the form name for a reader abbreviation.
func QuoteName(prefix string) string {
	for name, p := range quotePrefix {
		if p == prefix {
			return name
		}
	}
	return ""
}

// String returns n printed on a single line.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case List:
		open, close := byte('('), byte(')')
		if n.Bracket == '[' {
			open, close = '[', ']'
		}
		b.WriteByte(open)
		for i, child := range n.Children {
			if i > 0 {
				b.WriteByte(' ')
				if n.Dotted && i == len(n.Children)-1 {
					b.WriteString(". ")
				}
			}
			child.write(b)
		}
		b.WriteByte(close)
	case Quote:
		b.WriteString(quotePrefix[n.Text])
		if len(n.Children) > 0 {
			n.Children[0].write(b)
		}
	case String:
		b.WriteString(QuoteString(n.Text))
	default:
		b.WriteString(n.Text)
	}
}

// QuoteString returns s as a string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Program prints top-level nodes one per line.
func Program(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		n.write(&b)
		b.WriteByte('\n')
	}
	return b.String()
}
