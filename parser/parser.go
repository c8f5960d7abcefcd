// Copyright © 2018 The ELPS authors

// Package parser selects the reader used by the rest of the toolchain.
package parser

import (
	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/parser/rdparser"
)

// NewReader returns a new lisp.Reader
func NewReader() lisp.Reader {
	return rdparser.NewReader()
}

// ParseString reads every datum in src.
func ParseString(name string, src string) ([]*ast.Node, error) {
	return rdparser.ParseString(name, src)
}
