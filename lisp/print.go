// Copyright © 2018 The ELPS authors

package lisp

import (
	"strings"
)

var charNames = map[rune]string{
	' ':  "space",
	'\n': "newline",
	'\t': "tab",
	'\r': "return",
	0:    "nul",
	'\b': "backspace",
	0x7f: "rubout",
	0x1b: "escape",
	'\a': "alarm",
	'\f': "page",
	'\v': "vtab",
}

// String returns v in write notation, the way the REPL prints results.
func (v *LVal) String() string {
	var b strings.Builder
	writeVal(&b, v, true)
	return b.String()
}

// Display returns v in display notation: strings and characters are written
// without quotes or escapes.
func Display(v *LVal) string {
	var b strings.Builder
	writeVal(&b, v, false)
	return b.String()
}

// quoteForms abbreviate the reader forms when printing.
var quoteForms = map[string]string{
	"quote":            "'",
	"quasiquote":       "`",
	"unquote":          ",",
	"unquote-splicing": ",@",
}

func writeVal(b *strings.Builder, v *LVal, write bool) {
	switch v.Type {
	case LInt:
		b.WriteString(numText(v.Num))
	case LFloat:
		b.WriteString(formatFloat(v.Float))
	case LString:
		if write {
			b.WriteString(quoteString(v.Str))
		} else {
			b.WriteString(v.Str)
		}
	case LSymbol:
		b.WriteString(v.Str)
	case LChar:
		if !write {
			b.WriteRune(v.Char)
			return
		}
		b.WriteString(`#\`)
		if name, ok := charNames[v.Char]; ok {
			b.WriteString(name)
		} else {
			b.WriteRune(v.Char)
		}
	case LBool:
		if v.Bool {
			b.WriteString("#t")
		} else {
			b.WriteString("#f")
		}
	case LNull:
		b.WriteString("()")
	case LPair:
		writePair(b, v, write)
	case LFun:
		switch {
		case v.IsSpecialOp():
			b.WriteString("#<syntax:")
			b.WriteString(v.Str)
			b.WriteString(">")
		case v.Str != "":
			b.WriteString("#<procedure:")
			b.WriteString(v.Str)
			b.WriteString(">")
		default:
			b.WriteString("#<procedure>")
		}
	case LVoid:
		b.WriteString("#<void>")
	case LError:
		b.WriteString("#<error: ")
		b.WriteString((*ErrorVal)(v).baseMessage())
		b.WriteString(">")
	default:
		b.WriteString("#<invalid>")
	}
}

func writePair(b *strings.Builder, v *LVal, write bool) {
	if v.Car().Type == LSymbol && v.Cdr().Type == LPair && v.Cdr().Cdr().Type == LNull {
		if prefix, ok := quoteForms[v.Car().Str]; ok {
			b.WriteString(prefix)
			writeVal(b, v.Cdr().Car(), write)
			return
		}
	}
	b.WriteString("(")
	first := true
	for ; v.Type == LPair; v = v.Cdr() {
		if !first {
			b.WriteString(" ")
		}
		first = false
		writeVal(b, v.Car(), write)
	}
	if v.Type != LNull {
		b.WriteString(" . ")
		writeVal(b, v, write)
	}
	b.WriteString(")")
}

func quoteString(s string) string {
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
