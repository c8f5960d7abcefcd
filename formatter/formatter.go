// Copyright © 2024 The ELPS authors

// Package formatter pretty-prints programs in the student dialect.  Source
// text keeps its comments and line structure; only indentation, spacing and
// blank lines change.  Generated programs, such as the output of the rewrite
// passes, carry no line structure and are broken to fit Config.MaxWidth.
package formatter

import (
	"bytes"
	"strings"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/parser/rdparser"
	"github.com/luthersystems/rktgrade/parser/token"
)

// Format formats source code. If cfg is nil, DefaultConfig() is used.
func Format(source []byte, cfg *Config) ([]byte, error) {
	return FormatFile(source, "<stdin>", cfg)
}

// FormatFile formats source code, using filename for error messages.
func FormatFile(source []byte, filename string, cfg *Config) ([]byte, error) {
	p := rdparser.New(token.NewScanner(filename, bytes.NewReader(source)))
	p.KeepComments = true
	exprs, err := p.ParseProgram()
	if err != nil {
		return nil, err
	}
	return FormatNodes(exprs, cfg), nil
}

// FormatNodes prints syntax trees.  Nodes without source locations are laid
// out by width.
func FormatNodes(nodes []*ast.Node, cfg *Config) []byte {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	pr := newPrinter(cfg)
	pr.writeTopLevel(nodes)

	result := pr.buf.String()
	if len(result) > 0 {
		result = strings.TrimRight(result, "\n") + "\n"
	}
	return []byte(result)
}
