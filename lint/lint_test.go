// Copyright © 2024 The ELPS authors

package lint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lintSource runs all default analyzers on the given source and returns diagnostics.
func lintSource(t *testing.T, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: DefaultAnalyzers()}
	diags, err := l.LintFile([]byte(source), "test.rkt")
	require.NoError(t, err)
	return diags
}

// lintCheck runs a single analyzer on the given source.
func lintCheck(t *testing.T, analyzer *Analyzer, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: []*Analyzer{analyzer}}
	diags, err := l.LintFile([]byte(source), "test.rkt")
	require.NoError(t, err)
	return diags
}

// assertHasDiag checks that at least one diagnostic contains the given substring.
func assertHasDiag(t *testing.T, diags []Diagnostic, substr string) {
	t.Helper()
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.String())
	}
	t.Errorf("expected diagnostic containing %q, got: %v", substr, msgs)
}

// assertNoDiags checks that there are no diagnostics.
func assertNoDiags(t *testing.T, diags []Diagnostic) {
	t.Helper()
	if len(diags) > 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.String())
		}
		t.Errorf("expected no diagnostics, got %d: %v", len(diags), msgs)
	}
}

// --- Position.String() ---

func TestPosition_String(t *testing.T) {
	assert.Equal(t, "test.rkt", Position{File: "test.rkt"}.String())
	assert.Equal(t, "test.rkt:10", Position{File: "test.rkt", Line: 10}.String())
	assert.Equal(t, "test.rkt:10:5", Position{File: "test.rkt", Line: 10, Col: 5}.String())
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Pos:      Position{File: "test.rkt", Line: 10},
		Message:  "if requires 3 arguments",
		Analyzer: "if-arity",
		Notes:    []string{"use when"},
	}
	assert.Equal(t, "test.rkt:10: if requires 3 arguments (if-arity)\n  = note: use when", d.String())
}

func TestLintFile_AnalyzerError(t *testing.T) {
	errAnalyzer := &Analyzer{
		Name: "fail",
		Doc:  "Always fails.",
		Run: func(pass *Pass) error {
			return fmt.Errorf("intentional failure")
		},
	}
	l := &Linter{Analyzers: []*Analyzer{errAnalyzer}}
	_, err := l.LintFile([]byte("(+ 1 2)"), "test.rkt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intentional failure")
	assert.Contains(t, err.Error(), "fail")
}

func TestLintFile_ParseError(t *testing.T) {
	l := &Linter{Analyzers: DefaultAnalyzers()}
	_, err := l.LintFile([]byte("(define (f x)"), "test.rkt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.rkt")
}

// --- if-arity ---

func TestIfArity(t *testing.T) {
	diags := lintCheck(t, AnalyzerIfArity, "(define (f x)\n  (if x 1))")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "too few (2)")
	assert.Equal(t, 2, diags[0].Pos.Line)
	assert.Equal(t, SeverityError, diags[0].Severity)

	assertHasDiag(t, lintCheck(t, AnalyzerIfArity, "(if 1 2 3 4)"), "too many (4)")
	assertNoDiags(t, lintCheck(t, AnalyzerIfArity, "(if #t 1 (if #f 2 3))"))
	assertNoDiags(t, lintCheck(t, AnalyzerIfArity, "'(if 1)"))
}

// --- let-bindings ---

func TestLetBindings(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"(let [x 1] x)", "binding 1 is not a list"},
		{"(let ([]) 1)", "binding 1 is empty"},
		{"(let ([x 1 2]) x)", "expected 2 elements"},
		{"(let* ([1 2]) 1)", "first element must be a symbol"},
		{"(letrec ([x 1]))", "requires a binding list and body"},
		{"(let x 1)", "named let requires a binding list and body"},
		{"(let 5 1)", "bindings must be a list"},
	}
	for _, test := range tests {
		assertHasDiag(t, lintCheck(t, AnalyzerLetBindings, test.source), test.want)
	}
	assertNoDiags(t, lintCheck(t, AnalyzerLetBindings, "(let ([x 1] [y 2]) (+ x y))"))
	assertNoDiags(t, lintCheck(t, AnalyzerLetBindings, "(let loop ([i 0]) (if (> i 3) i (loop (+ i 1))))"))
	assertNoDiags(t, lintCheck(t, AnalyzerLetBindings, "(let () 1)"))
}

// --- define-structure ---

func TestDefineStructure(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"(define x)", "requires a name and a value"},
		{"(define (f x))", "requires a name and a value"},
		{"(define x 1 2)", "accepts exactly one value"},
		{"(define 5 1)", "name must be a symbol"},
		{"(define (f 1) 1)", "parameter of f must be a symbol"},
		{"(define (\"f\" x) x)", "header must start with a name"},
	}
	for _, test := range tests {
		assertHasDiag(t, lintCheck(t, AnalyzerDefineStructure, test.source), test.want)
	}
	assertNoDiags(t, lintCheck(t, AnalyzerDefineStructure, "(define x 1)\n(define (f a b) (+ a b))"))
}

// --- define-struct ---

func TestStructDefinition(t *testing.T) {
	assertHasDiag(t, lintCheck(t, AnalyzerStructDefinition, "(define-struct posn)"), "requires a name and a field list")
	assertHasDiag(t, lintCheck(t, AnalyzerStructDefinition, "(define-struct posn x)"), "fields must be a list")
	assertHasDiag(t, lintCheck(t, AnalyzerStructDefinition, "(define-struct posn (x 1))"), "field must be a symbol")
	assertNoDiags(t, lintCheck(t, AnalyzerStructDefinition, "(define-struct posn (x y))"))
}

// --- cond-structure ---

func TestCondStructure(t *testing.T) {
	assertHasDiag(t, lintCheck(t, AnalyzerCondStructure, "(cond 1 [else 2])"), "clause 1 is not a list")
	assertHasDiag(t, lintCheck(t, AnalyzerCondStructure, "(cond [] [else 2])"), "clause 1 is empty")
	diags := lintCheck(t, AnalyzerCondStructure, "(cond\n  [else 1]\n  [#t 2])")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "else clause must be last")
	assert.Equal(t, 2, diags[0].Pos.Line)
	assertNoDiags(t, lintCheck(t, AnalyzerCondStructure, "(cond [(= 1 2) 'a] [else 'b])"))
}

// --- match-clauses ---

func TestMatchClauses(t *testing.T) {
	assertHasDiag(t, lintCheck(t, AnalyzerMatchClauses, "(match)"), "requires a value")
	assertHasDiag(t, lintCheck(t, AnalyzerMatchClauses, "(match x [1])"), "clause 1 must be a pattern followed by a body")
	assertHasDiag(t, lintCheck(t, AnalyzerMatchClauses, "(match x [1 2] 3)"), "clause 2")
	assertNoDiags(t, lintCheck(t, AnalyzerMatchClauses, "(match l ['() 0] [(cons _ r) 1])"))
}

// --- builtin-arity ---

func TestBuiltinArity(t *testing.T) {
	assertHasDiag(t, lintCheck(t, AnalyzerBuiltinArity, "(car)"), "car requires at least 1 argument(s), got 0")
	assertHasDiag(t, lintCheck(t, AnalyzerBuiltinArity, "(cons 1 2 3)"), "cons accepts at most 2 argument(s), got 3")
	assertHasDiag(t, lintCheck(t, AnalyzerBuiltinArity, "(check-expect 1)"), "check-expect requires at least 2")
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(+ 1 2 3 4)"))
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(list)"))
	// Special forms are checked by their own analyzers.
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(if 1 2)"))
}

func TestBuiltinArity_Shadowed(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(define (car a b) a)\n(car 1 2)"))
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(define (f car) (car 1 2))"))
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(lambda (cons) (cons 1 2 3))"))
}

func TestBuiltinArity_Formals(t *testing.T) {
	// A parameter list is not a call.
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(define (f car cdr) 1)"))
	assertNoDiags(t, lintCheck(t, AnalyzerBuiltinArity, "(lambda (car) car)"))
}

// --- undefined-function ---

func TestUndefinedFunction(t *testing.T) {
	diags := lintCheck(t, AnalyzerUndefinedFunction, "(define (f x)\n  (helper x))")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "helper is not defined")
	assert.Equal(t, 2, diags[0].Pos.Line)
}

func TestUndefinedFunction_Negative(t *testing.T) {
	tests := []string{
		"(define (f x) (g x))\n(define (g x) x)",
		"(define-struct posn (x y))\n(posn-x (make-posn 1 2))",
		"(let loop ([i 0]) (if (> i 3) i (loop (+ i 1))))",
		"(cond [(= 1 2) 'a] [else 'b])",
		"(case 3 [(1 2) 'low] [else 'high])",
		"(match '(1 2) [(list a b) (+ a b)] [(cons _ r) r])",
		"(local [(define (sq x) (* x x))] (sq 3))",
		"(let ([x 1] [y 2]) (+ x y))",
		"'(foo bar)",
		"`(foo ,(+ 1 2))",
		"(define (apply-twice f x) (f (f x)))",
		"(check-expect (add1 1) 2)",
	}
	for _, source := range tests {
		assertNoDiags(t, lintCheck(t, AnalyzerUndefinedFunction, source))
	}
}

// --- shadowed-builtin ---

func TestShadowedBuiltin(t *testing.T) {
	diags := lintCheck(t, AnalyzerShadowedBuiltin, "(define (length l) 0)")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "length shadows a builtin")
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assertNoDiags(t, lintCheck(t, AnalyzerShadowedBuiltin, "(define (my-length l) 0)"))
}

// --- nested-check ---

func TestNestedCheck(t *testing.T) {
	assertHasDiag(t, lintCheck(t, AnalyzerNestedCheck, "(define (f x) (check-expect x 1) x)"), "check-expect should be a top-level form")
	assertNoDiags(t, lintCheck(t, AnalyzerNestedCheck, "(check-expect (+ 1 1) 2)\n(check-within 1.0 1.01 0.1)"))
}

// --- required-function ---

func TestRequiredFunction(t *testing.T) {
	l := &Linter{Analyzers: []*Analyzer{AnalyzerRequiredFunction}, Required: []string{"sum-list", "helper"}}
	diags, err := l.LintFile([]byte("(define (sum-list l) (foldl + 0 l))"), "test.rkt")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "required function helper is not defined", diags[0].Message)
	assert.Equal(t, "test.rkt:1", diags[0].Pos.String())
	assert.NotEmpty(t, diags[0].Notes)

	assertNoDiags(t, lintCheck(t, AnalyzerRequiredFunction, "(define x 1)"))
}

// --- suppression ---

func TestNolint(t *testing.T) {
	assertNoDiags(t, lintSource(t, "(if 1 2) ; nolint"))
	assertNoDiags(t, lintSource(t, "(if 1 2) ; nolint:if-arity"))
	assertHasDiag(t, lintSource(t, "(if 1 2) ; nolint:cond-structure"), "if requires 3 arguments")
}

// --- full runs ---

func TestDefaultAnalyzers_CleanProgram(t *testing.T) {
	source := `;; length of a list
(define (len l)
  (match l
    ['() 0]
    [(cons _ r) (+ 1 (len r))]))

(define-struct posn (x y))

(define (dist p)
  (sqrt (+ (sqr (posn-x p)) (sqr (posn-y p)))))

(check-expect (len '(1 2 3)) 3)
(check-within (dist (make-posn 3 4)) 5 0.001)
`
	assertNoDiags(t, lintSource(t, source))
}

func TestDefaultAnalyzers_Sorted(t *testing.T) {
	diags := lintSource(t, "(define (f x)\n  (g x))\n(if 1 2)")
	require.Len(t, diags, 2)
	assert.Equal(t, 2, diags[0].Pos.Line)
	assert.Equal(t, 3, diags[1].Pos.Line)
}

func TestFormatJSON(t *testing.T) {
	diags := lintSource(t, "(if 1 2)")
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, diags))
	var decoded []Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "if-arity", decoded[0].Analyzer)
	assert.Equal(t, SeverityError, decoded[0].Severity)
	assert.Contains(t, buf.String(), `"severity": "error"`)
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, lintSource(t, "(if 1 2)"))
	assert.Equal(t, "test.rkt:1:1: if requires 3 arguments (condition, then, else), got too few (2) (if-arity)\n", buf.String())
}

func TestAnalyzerNames(t *testing.T) {
	names := AnalyzerNames()
	assert.Len(t, names, len(DefaultAnalyzers()))
	assert.Contains(t, names, "undefined-function")
	assert.Contains(t, AnalyzerDoc(), "required-function")
}
