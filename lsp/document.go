// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"sync"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/astutil"
	"github.com/luthersystems/rktgrade/parser/rdparser"
	"github.com/luthersystems/rktgrade/parser/token"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu       sync.Mutex
	URI      string
	Version  int32
	Content  string
	ast      []*ast.Node
	defs     map[string]*ast.Node
	parseErr error
}

// parse parses the document content and caches the AST.
// It uses a fault-tolerant approach: if the standard parser fails
// (e.g., on incomplete input), it falls back to parsing
// expression-by-expression, collecting what it can.
func (d *Document) parse() {
	exprs, err := newParser(d).ParseProgram()
	if err == nil {
		d.setAST(exprs)
		d.parseErr = nil
		return
	}
	d.parseErr = err
	p := newParser(d)
	var partial []*ast.Node
	for {
		expr, parseErr := p.Parse()
		if parseErr != nil {
			break
		}
		partial = append(partial, expr)
	}
	d.setAST(partial)
}

func newParser(d *Document) *rdparser.Parser {
	p := rdparser.New(token.NewScanner(uriToPath(d.URI), strings.NewReader(d.Content)))
	p.KeepComments = true
	return p
}

// setAST caches exprs and indexes the top-level definitions.  Functions
// synthesized by define-struct point at the structure definition.
func (d *Document) setAST(exprs []*ast.Node) {
	d.ast = exprs
	d.defs = make(map[string]*ast.Node)
	for _, expr := range exprs {
		if name := astutil.DefinedName(expr); name != "" {
			d.defs[name] = expr
			continue
		}
		if expr.Head() != "define-struct" || astutil.ArgCount(expr) < 2 {
			continue
		}
		name := expr.Children[1].Text
		d.defs[name] = expr
		d.defs["make-"+name] = expr
		d.defs[name+"?"] = expr
		for _, field := range expr.Children[2].Children {
			d.defs[name+"-"+field.Text] = expr
		}
	}
}

// Definition returns the top-level form defining name.
func (d *Document) Definition(name string) (*ast.Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.defs[name]
	return n, ok
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
