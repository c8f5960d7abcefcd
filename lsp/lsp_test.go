// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/luthersystems/rktgrade/lint"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func testServer(opts ...Option) *Server {
	return New(opts...)
}

// openDoc opens a document in the test server and returns it.
func openDoc(s *Server, uri, content string) *Document {
	return s.docs.Open(uri, 1, content)
}

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *[]*protocol.PublishDiagnosticsParams) {
	var captured []*protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured = append(captured, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
	return ctx, &captured
}

func openAndPublish(t *testing.T, s *Server, text string) *protocol.PublishDiagnosticsParams {
	t.Helper()
	ctx, captured := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        "file:///test.rkt",
			LanguageID: "racket",
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	return (*captured)[0]
}

// completionLabels extracts labels from a completion result.
func completionLabels(t *testing.T, result any) []string {
	t.Helper()
	require.NotNil(t, result, "completion result should not be nil")
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion result should be []CompletionItem, got %T", result)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func hoverText(t *testing.T, s *Server, uri string, line, col int) string {
	t.Helper()
	h, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)},
		},
	})
	require.NoError(t, err)
	if h == nil {
		return ""
	}
	return h.Contents.(protocol.MarkupContent).Value
}

// --- Position conversion tests ---

func TestPositionConversion(t *testing.T) {
	pos := toLSPPosition(&token.Location{File: "test.rkt", Line: 1, Col: 1})
	assert.Equal(t, protocol.Position{Line: 0, Character: 0}, pos)
	pos = toLSPPosition(&token.Location{File: "test.rkt", Line: 5, Col: 10})
	assert.Equal(t, protocol.Position{Line: 4, Character: 9}, pos)
	pos = toLSPPosition(&token.Location{File: "test.rkt"})
	assert.Equal(t, protocol.Position{}, pos)

	r := toLSPRange(&token.Location{File: "test.rkt", Line: 1, Col: 1}, 5)
	assert.Equal(t, protocol.UInteger(5), r.End.Character)
}

func TestWordAtPosition(t *testing.T) {
	content := "(define (my-func x y)\n  (+ x y))"
	assert.Equal(t, "define", wordAtPosition(content, 0, 1))
	assert.Equal(t, "my-func", wordAtPosition(content, 0, 10))
	assert.Equal(t, "+", wordAtPosition(content, 1, 3))
	assert.Equal(t, "", wordAtPosition(content, 0, 0))
	assert.Equal(t, "my-add", wordAtPosition("(my-add", 0, 7))
	assert.Equal(t, "", wordAtPosition("", 0, 0))
	assert.Equal(t, "", wordAtPosition("hello", 5, 0))
	assert.Equal(t, "set!", wordAtPosition("(set! x 1)", 0, 1))
	assert.Equal(t, "empty?", wordAtPosition("[(empty? l) 0]", 0, 3))
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/tmp/a.rkt", uriToPath("file:///tmp/a.rkt"))
	assert.Equal(t, "untitled:1", uriToPath("untitled:1"))
	assert.Equal(t, "file:///tmp/a.rkt", pathToURI("/tmp/a.rkt"))
}

// --- Document store tests ---

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	doc := store.Open("file:///test.rkt", 1, "(+ 1 2)")
	require.NotNil(t, doc)
	assert.Len(t, doc.ast, 1)
	assert.Same(t, doc, store.Get("file:///test.rkt"))
	assert.Nil(t, store.Get("file:///nonexistent.rkt"))

	changed := store.Change("file:///test.rkt", 2, "(define (f x) x)")
	assert.Equal(t, int32(2), changed.Version)
	_, ok := changed.Definition("f")
	assert.True(t, ok)

	store.Close("file:///test.rkt")
	assert.Nil(t, store.Get("file:///test.rkt"))
}

func TestDocumentParse(t *testing.T) {
	store := NewDocumentStore()
	doc := store.Open("file:///test.rkt", 1, "; sum\n(define (add x y) (+ x y))\n(define-struct posn (x y))")
	assert.NoError(t, doc.parseErr)
	assert.Len(t, doc.ast, 3)
	for _, name := range []string{"add", "posn", "make-posn", "posn?", "posn-x", "posn-y"} {
		_, ok := doc.Definition(name)
		assert.True(t, ok, name)
	}
}

func TestDocumentFaultTolerantParse(t *testing.T) {
	store := NewDocumentStore()
	doc := store.Open("file:///test.rkt", 1, "(define (a) 1)\n(define (b) 2)\n(incomplete")
	assert.Error(t, doc.parseErr)
	assert.Len(t, doc.ast, 2, "should recover the two valid expressions")
	_, ok := doc.Definition("b")
	assert.True(t, ok)
}

// --- Diagnostics tests ---

func TestDiagnosticsOnOpen_ValidCode(t *testing.T) {
	pub := openAndPublish(t, testServer(), "(define (add x y) (+ x y))\n(check-expect (add 1 2) 3)")
	assert.Equal(t, "file:///test.rkt", pub.URI)
	assert.Empty(t, pub.Diagnostics)
}

func TestDiagnosticsOnParseError(t *testing.T) {
	pub := openAndPublish(t, testServer(), "(define (broken x y")
	require.Len(t, pub.Diagnostics, 1)
	d := pub.Diagnostics[0]
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, serverName, *d.Source)
}

func TestDiagnosticsIncludeLintFindings(t *testing.T) {
	pub := openAndPublish(t, testServer(), "(define (f x)\n  (if x 1))")
	require.Len(t, pub.Diagnostics, 1)
	d := pub.Diagnostics[0]
	assert.Equal(t, "if-arity", d.Code.Value)
	assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
}

func TestDiagnosticsRequiredFunction(t *testing.T) {
	pub := openAndPublish(t, testServer(WithRequired("sum-list")), "(define (total l) 0)")
	require.Len(t, pub.Diagnostics, 1)
	assert.Equal(t, "required-function", pub.Diagnostics[0].Code.Value)
	assert.True(t, strings.HasPrefix(pub.Diagnostics[0].Message, "required function sum-list is not defined"))
}

func TestDiagnosticsWithAnalyzers(t *testing.T) {
	s := testServer(WithAnalyzers(lint.AnalyzerNestedCheck))
	pub := openAndPublish(t, s, "(if 1 2)")
	assert.Empty(t, pub.Diagnostics)
}

func TestDiagnosticsOnClose_Cleared(t *testing.T) {
	s := testServer()
	openAndPublish(t, s, "(define broken")

	closeCtx, closeCaptured := capturingContext()
	s.captureNotify(closeCtx)
	err := s.textDocumentDidClose(closeCtx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///test.rkt"},
	})
	require.NoError(t, err)
	require.Len(t, *closeCaptured, 1)
	assert.Empty(t, (*closeCaptured)[0].Diagnostics, "close should clear diagnostics")
	assert.Nil(t, s.docs.Get("file:///test.rkt"))
}

func TestDiagnosticsOnSave_Immediate(t *testing.T) {
	s := testServer()
	ctx, captured := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///test.rkt", Version: 1, Text: "(+ 1 2)"},
	}))
	before := len(*captured)
	require.NoError(t, s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///test.rkt"},
	}))
	assert.Greater(t, len(*captured), before, "save should trigger immediate diagnostics publish")
}

func TestParseErrorRange(t *testing.T) {
	errVal := &lisp.ErrorVal{Source: &token.Location{File: "test.rkt", Line: 3, Col: 5}}
	r := parseErrorRange(errVal)
	assert.Equal(t, protocol.Position{Line: 2, Character: 4}, r.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 5}, r.End)

	locErr := &token.LocationError{
		Err:    fmt.Errorf("unexpected token"),
		Source: &token.Location{File: "test.rkt", Line: 1, Col: 10},
	}
	assert.Equal(t, protocol.UInteger(9), parseErrorRange(locErr).Start.Character)
	assert.Equal(t, protocol.Range{}, parseErrorRange(fmt.Errorf("some error")))
}

func TestConvertLintDiagnostic(t *testing.T) {
	d := convertLintDiagnostic(lint.Diagnostic{
		Pos:      lint.Position{File: "test.rkt", Line: 3, Col: 5},
		Message:  "test message",
		Analyzer: "test-check",
		Severity: lint.SeverityWarning,
		Notes:    []string{"a hint"},
	})
	assert.Equal(t, "test message\na hint", d.Message)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)
	assert.Equal(t, protocol.Position{Line: 2, Character: 4}, d.Range.Start)
	assert.Equal(t, d.Range.Start, d.Range.End)
}

// --- Hover tests ---

func TestHover(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///hover.rkt", "(define (add x y) (+ x y))\n(define-struct posn (x y))\n(define limit 10)\n(if (car '(1)) limit (add 1 2))")

	text := hoverText(t, s, doc.URI, 0, 10)
	assert.Contains(t, text, "**function** `add`")
	assert.Contains(t, text, "(add x y)")
	assert.Contains(t, text, "line 1")

	assert.Contains(t, hoverText(t, s, doc.URI, 1, 16), "**structure** `posn`")
	assert.Contains(t, hoverText(t, s, doc.URI, 2, 9), "**variable** `limit`")
	assert.Contains(t, hoverText(t, s, doc.URI, 3, 1), "**special form** `if`")

	text = hoverText(t, s, doc.URI, 3, 5)
	assert.Contains(t, text, "**builtin** `car`")
	assert.Contains(t, text, "Accepts 1 argument(s).")

	assert.Empty(t, hoverText(t, s, doc.URI, 0, 0))
	assert.Empty(t, hoverText(t, s, "file:///missing.rkt", 0, 0))
}

func TestArityText(t *testing.T) {
	assert.Equal(t, "Accepts 0 or more arguments.", arityText(0, -1))
	assert.Equal(t, "Accepts 2 argument(s).", arityText(2, 2))
	assert.Equal(t, "Accepts 1 to 2 arguments.", arityText(1, 2))
}

// --- Definition tests ---

func TestDefinition(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///def.rkt", "(define (add x y) (+ x y))\n(add 1 2)")
	result, err := s.textDocumentDefinition(mockContext(), &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
			Position:     protocol.Position{Line: 1, Character: 2},
		},
	})
	require.NoError(t, err)
	loc, ok := result.(protocol.Location)
	require.True(t, ok)
	assert.Equal(t, doc.URI, loc.URI)
	assert.Equal(t, protocol.Position{Line: 0, Character: 9}, loc.Range.Start)
	assert.Equal(t, protocol.Position{Line: 0, Character: 12}, loc.Range.End)

	result, err = s.textDocumentDefinition(mockContext(), &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
			Position:     protocol.Position{Line: 0, Character: 19},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, result, "builtins have no definition")
}

// --- Symbol tests ---

func TestDocumentSymbols(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///sym.rkt", "(define-struct posn (x y))\n(define (f x)\n  x)\n(define z 1)\n(check-expect (f 1) 1)")
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
	})
	require.NoError(t, err)
	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, symbols, 3)

	assert.Equal(t, "posn", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindStruct, symbols[0].Kind)
	require.Len(t, symbols[0].Children, 2)
	assert.Equal(t, "y", symbols[0].Children[1].Name)

	assert.Equal(t, "f", symbols[1].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[1].Kind)
	assert.Equal(t, "(f x)", *symbols[1].Detail)
	assert.Equal(t, protocol.UInteger(1), symbols[1].Range.Start.Line)
	assert.Equal(t, protocol.UInteger(2), symbols[1].Range.End.Line)

	assert.Equal(t, "z", symbols[2].Name)
	assert.Equal(t, protocol.SymbolKindVariable, symbols[2].Kind)
}

// --- Completion tests ---

func TestCompletion(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///comp.rkt", "(define (my-add x) x)\n(my")
	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
			Position:     protocol.Position{Line: 1, Character: 3},
		},
	})
	require.NoError(t, err)
	labels := completionLabels(t, result)
	assert.Contains(t, labels, "my-add")
	for _, l := range labels {
		assert.True(t, strings.HasPrefix(l, "my"), l)
	}
}

func TestCompletionEmptyPrefix(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///comp.rkt", "(define (helper x) x)\n(")
	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
			Position:     protocol.Position{Line: 1, Character: 1},
		},
	})
	require.NoError(t, err)
	labels := completionLabels(t, result)
	assert.Equal(t, "helper", labels[0], "document definitions come first")
	assert.Contains(t, labels, "car")
	assert.Contains(t, labels, "define")
}

// --- Formatting tests ---

func formattingEdits(t *testing.T, s *Server, uri string, options protocol.FormattingOptions) []protocol.TextEdit {
	t.Helper()
	edits, err := s.textDocumentFormatting(mockContext(), &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Options:      options,
	})
	require.NoError(t, err)
	return edits
}

func TestFormatting(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///fmt.rkt", "(define (f x)\n(+ x 1))")
	edits := formattingEdits(t, s, doc.URI, protocol.FormattingOptions{})
	require.Len(t, edits, 1)
	assert.Equal(t, "(define (f x)\n  (+ x 1))\n", edits[0].NewText)
	assert.Equal(t, protocol.UInteger(1), edits[0].Range.End.Line)
	assert.Equal(t, protocol.UInteger(8), edits[0].Range.End.Character)

	edits = formattingEdits(t, s, doc.URI, protocol.FormattingOptions{"tabSize": float64(4)})
	require.Len(t, edits, 1)
	assert.Equal(t, "(define (f x)\n    (+ x 1))\n", edits[0].NewText)
}

func TestFormattingNoEdits(t *testing.T) {
	s := testServer()
	formatted := openDoc(s, "file:///ok.rkt", "(define x 1)\n")
	assert.Nil(t, formattingEdits(t, s, formatted.URI, protocol.FormattingOptions{}))
	broken := openDoc(s, "file:///broken.rkt", "(define (f x)")
	assert.Nil(t, formattingEdits(t, s, broken.URI, protocol.FormattingOptions{}))
	assert.Nil(t, formattingEdits(t, s, "file:///missing.rkt", protocol.FormattingOptions{}))
}

// --- Lifecycle tests ---

func TestExitHandler(t *testing.T) {
	s := testServer()
	var exitCode = -1
	s.exitFn = func(code int) { exitCode = code }
	require.NoError(t, s.exit(mockContext()))
	assert.Equal(t, 0, exitCode)
}

func TestInitializeLifecycle(t *testing.T) {
	s := testServer()
	rootURI := "file:///workspace"
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{RootURI: &rootURI})
	require.NoError(t, err)
	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, serverName, initResult.ServerInfo.Name)
	assert.Equal(t, rootURI, s.rootURI)
	assert.NoError(t, s.shutdown(mockContext()))
}
