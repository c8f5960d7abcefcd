// Copyright © 2024 The ELPS authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/astutil"
	"github.com/luthersystems/rktgrade/parser/token"
)

// AnalyzerIfArity checks that `if` has exactly 3 arguments (condition, then, else).
var AnalyzerIfArity = &Analyzer{
	Name:     "if-arity",
	Doc:      "Check that `if` has exactly 3 arguments: condition, then-branch, else-branch.\n\nThe student language rejects an `if` without an else branch. Use `when` or `cond` for one-armed conditionals.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass, func(form *ast.Node, depth int) {
			if form.Head() != "if" {
				return
			}
			argc := astutil.ArgCount(form)
			if argc == 3 {
				return
			}
			src := astutil.SourceOf(form)
			if argc < 3 {
				pass.Reportf(src.Source, "if requires 3 arguments (condition, then, else), got too few (%d)", argc)
			} else {
				pass.Reportf(src.Source, "if requires 3 arguments (condition, then, else), got too many (%d)", argc)
			}
		})
		return nil
	},
}

// AnalyzerLetBindings checks for malformed `let`, `let*` and `letrec` binding lists.
var AnalyzerLetBindings = &Analyzer{
	Name:     "let-bindings",
	Doc:      "Check for malformed `let`/`let*`/`letrec` binding lists.\n\nThe first argument must be a list of [symbol value] pairs. A common mistake is forgetting the outer brackets: `(let [x 1] ...)` instead of `(let ([x 1]) ...)`.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass, func(form *ast.Node, depth int) {
			head := form.Head()
			if head != "let" && head != "let*" && head != "letrec" {
				return
			}
			src := astutil.SourceOf(form)
			if astutil.ArgCount(form) < 2 {
				pass.Reportf(src.Source, "%s requires a binding list and body", head)
				return
			}
			bindings := form.Children[1]
			if head == "let" && bindings.Kind == ast.Symbol {
				if astutil.ArgCount(form) < 3 {
					pass.Reportf(src.Source, "named let requires a binding list and body")
					return
				}
				bindings = form.Children[2]
			}
			if bindings.Kind != ast.List {
				pass.Reportf(src.Source, "%s bindings must be a list, got %s", head, bindings.Kind)
				return
			}
			for i, binding := range bindings.Children {
				if binding.Kind != ast.List {
					pass.Reportf(bindingSource(binding, src),
						"%s binding %d is not a list (did you forget the outer brackets?)", head, i+1)
					continue
				}
				if len(binding.Children) == 0 {
					pass.Reportf(bindingSource(binding, src), "%s binding %d is empty", head, i+1)
					continue
				}
				if binding.Children[0].Kind != ast.Symbol {
					pass.Reportf(bindingSource(binding, src),
						"%s binding %d: first element must be a symbol, got %s", head, i+1, binding.Children[0].Kind)
					continue
				}
				if len(binding.Children) != 2 {
					pass.Reportf(bindingSource(binding, src),
						"%s binding %d (%s): expected 2 elements (symbol value), got %d", head, i+1, binding.Children[0].Text, len(binding.Children))
				}
			}
		})
		return nil
	},
}

func bindingSource(binding *ast.Node, fallback *ast.Node) *token.Location {
	if binding.Source != nil && binding.Source.Line > 0 {
		return binding.Source
	}
	return fallback.Source
}

// AnalyzerDefineStructure checks for malformed `define` forms.
var AnalyzerDefineStructure = &Analyzer{
	Name:     "define-structure",
	Doc:      "Check for malformed `define` forms.\n\nA variable definition takes a symbol and exactly one value. A function definition takes a header list starting with the function name and at least one body expression.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass, func(form *ast.Node, depth int) {
			if form.Head() != "define" {
				return
			}
			src := astutil.SourceOf(form)
			argc := astutil.ArgCount(form)
			if argc < 2 {
				pass.Reportf(src.Source, "define requires a name and a value (got %d arguments)", argc)
				return
			}
			target := form.Children[1]
			switch target.Kind {
			case ast.Symbol:
				if argc > 2 {
					pass.Reportf(src.Source, "define of %s accepts exactly one value, got %d", target.Text, argc-1)
				}
			case ast.List:
				if len(target.Children) == 0 || target.Children[0].Kind != ast.Symbol {
					pass.Reportf(src.Source, "define function header must start with a name")
					return
				}
				for _, param := range target.Children[1:] {
					if param.Kind != ast.Symbol {
						pass.Reportf(bindingSource(param, src), "parameter of %s must be a symbol, got %s", target.Children[0].Text, param.Kind)
					}
				}
			default:
				pass.Reportf(src.Source, "define name must be a symbol, got %s", target.Kind)
			}
		})
		return nil
	},
}

// AnalyzerStructDefinition checks for malformed `define-struct` forms.
var AnalyzerStructDefinition = &Analyzer{
	Name:     "define-struct",
	Doc:      "Check for malformed `define-struct` forms.\n\nA structure definition takes a symbol name and a list of symbol field names.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass, func(form *ast.Node, depth int) {
			if form.Head() != "define-struct" {
				return
			}
			src := astutil.SourceOf(form)
			if astutil.ArgCount(form) != 2 {
				pass.Reportf(src.Source, "define-struct requires a name and a field list (got %d arguments)", astutil.ArgCount(form))
				return
			}
			if form.Children[1].Kind != ast.Symbol {
				pass.Reportf(src.Source, "define-struct name must be a symbol, got %s", form.Children[1].Kind)
			}
			fields := form.Children[2]
			if fields.Kind != ast.List {
				pass.Reportf(src.Source, "define-struct fields must be a list, got %s", fields.Kind)
				return
			}
			for _, f := range fields.Children {
				if f.Kind != ast.Symbol {
					pass.Reportf(bindingSource(f, src), "define-struct field must be a symbol, got %s", f.Kind)
				}
			}
		})
		return nil
	},
}

// AnalyzerCondStructure checks for malformed `cond` clauses.
var AnalyzerCondStructure = &Analyzer{
	Name:     "cond-structure",
	Doc:      "Check for malformed `cond` clauses.\n\nEach `cond` clause must be a non-empty list. The `else` clause, if present, must be last.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass, func(form *ast.Node, depth int) {
			if form.Head() != "cond" {
				return
			}
			src := astutil.SourceOf(form)
			last := len(form.Children) - 1
			for i := 1; i < len(form.Children); i++ {
				clause := form.Children[i]
				clauseSrc := astutil.SourceOf(clause)
				if clauseSrc.Source == nil || clauseSrc.Source.Line == 0 {
					clauseSrc = src
				}
				if clause.Kind != ast.List {
					pass.Reportf(clauseSrc.Source, "cond clause %d is not a list", i)
					continue
				}
				if len(clause.Children) == 0 {
					pass.Reportf(clauseSrc.Source, "cond clause %d is empty", i)
					continue
				}
				if clause.Children[0].IsSymbol("else") && i != last {
					pass.Reportf(clauseSrc.Source, "cond else clause must be last (is clause %d of %d)", i, last)
				}
			}
		})
		return nil
	},
}

// AnalyzerMatchClauses checks for malformed `match` forms.
var AnalyzerMatchClauses = &Analyzer{
	Name:     "match-clauses",
	Doc:      "Check for malformed `match` clauses.\n\nEach clause must be a list holding a pattern followed by at least one body expression.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass, func(form *ast.Node, depth int) {
			if form.Head() != "match" {
				return
			}
			src := astutil.SourceOf(form)
			if astutil.ArgCount(form) < 1 {
				pass.Reportf(src.Source, "match requires a value to match")
				return
			}
			for i, clause := range form.Children[2:] {
				if clause.Kind != ast.List || len(clause.Children) < 2 {
					pass.Reportf(bindingSource(clause, src), "match clause %d must be a pattern followed by a body", i+1)
				}
			}
		})
		return nil
	},
}

// AnalyzerBuiltinArity checks for wrong argument counts to known builtin functions.
var AnalyzerBuiltinArity = &Analyzer{
	Name:     "builtin-arity",
	Doc:      "Check argument counts for calls to known builtin functions.\n\nThis check catches calls with too few or too many arguments before the program runs. Functions defined in the file shadow builtins of the same name and are not checked.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		globals := Globals()
		walkCode(pass, func(form *ast.Node, depth int) {
			head := form.Head()
			if head == "" || pass.Defined[head] {
				return
			}
			fun, ok := globals[head]
			if !ok || fun.IsSpecialOp() {
				return
			}
			fd := fun.FunData()
			if fd == nil {
				return
			}
			argc := astutil.ArgCount(form)
			src := astutil.SourceOf(form)
			if argc < fd.MinArgs {
				pass.Reportf(src.Source, "%s requires at least %d argument(s), got %d", head, fd.MinArgs, argc)
			}
			if fd.MaxArgs >= 0 && argc > fd.MaxArgs {
				pass.Reportf(src.Source, "%s accepts at most %d argument(s), got %d", head, fd.MaxArgs, argc)
			}
		})
		return nil
	},
}

// AnalyzerUndefinedFunction reports calls to functions that are neither
// builtins nor defined anywhere in the file.
var AnalyzerUndefinedFunction = &Analyzer{
	Name:     "undefined-function",
	Doc:      "Report calls to functions that are not defined.\n\nA name counts as defined when the file binds it anywhere or the runtime provides it. Binding is not scope-aware, so a misplaced local definition is not reported.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		globals := Globals()
		walkCode(pass, func(form *ast.Node, depth int) {
			head := form.Head()
			if head == "" || pass.Defined[head] {
				return
			}
			if _, ok := globals[head]; ok {
				return
			}
			src := astutil.SourceOf(form)
			pass.Reportf(src.Source, "%s is not defined", head)
		})
		return nil
	},
}

// AnalyzerShadowedBuiltin warns when a top-level definition replaces a
// builtin function or special form.
var AnalyzerShadowedBuiltin = &Analyzer{
	Name:     "shadowed-builtin",
	Doc:      "Warn when a top-level definition replaces a builtin.\n\nRedefining a builtin such as `length` or `list` changes the behavior of every later use, including library functions and test checks.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		globals := Globals()
		for _, expr := range pass.Exprs {
			name := astutil.DefinedName(expr)
			if name == "" {
				continue
			}
			if _, ok := globals[name]; ok {
				src := astutil.SourceOf(expr)
				pass.Reportf(src.Source, "definition of %s shadows a builtin", name)
			}
		}
		return nil
	},
}

// AnalyzerNestedCheck warns about test checks that are not top-level forms.
var AnalyzerNestedCheck = &Analyzer{
	Name:     "nested-check",
	Doc:      "Warn when check-expect or check-within appears inside another form.\n\nTest checks are collected from the top level of a submission. A check inside a definition runs each time the function is called.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		walkCode(pass, func(form *ast.Node, depth int) {
			head := form.Head()
			if depth > 0 && (head == "check-expect" || head == "check-within") {
				src := astutil.SourceOf(form)
				pass.Reportf(src.Source, "%s should be a top-level form", head)
			}
		})
		return nil
	},
}

// AnalyzerRequiredFunction reports functions the problem requires that the
// file does not define at the top level.
var AnalyzerRequiredFunction = &Analyzer{
	Name:     "required-function",
	Doc:      "Report required functions missing from the file.\n\nProblems name the functions a submission must define. This check only runs when the linter is given a problem.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if len(pass.Required) == 0 {
			return nil
		}
		defined := make(map[string]bool)
		for _, expr := range pass.Exprs {
			if name := astutil.DefinedName(expr); name != "" {
				defined[name] = true
			}
		}
		for _, name := range pass.Required {
			if !defined[name] {
				pass.ReportWithNotes(Diagnostic{
					Pos:     Position{Line: 1},
					Message: fmt.Sprintf("required function %s is not defined", name),
				}, fmt.Sprintf("add a definition like (define (%s ...) ...)", name))
			}
		}
		return nil
	},
}

// walkCode calls fn for every list that is evaluated as a call or special
// form.  Parameter lists, binding lists, clauses and match patterns are
// skipped, as is quasiquoted data.
func walkCode(pass *Pass, fn func(form *ast.Node, depth int)) {
	skip, prune := nonCallNodes(pass.Exprs)
	var walk func(n *ast.Node, depth int)
	walk = func(n *ast.Node, depth int) {
		if prune[n] {
			return
		}
		switch n.Kind {
		case ast.Quote:
			if n.Text == "quote" || n.Text == "quasiquote" {
				return
			}
		case ast.List:
			if len(n.Children) > 0 && !skip[n] {
				fn(n, depth)
			}
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, expr := range pass.Exprs {
		walk(expr, 0)
	}
}

// nonCallNodes returns the lists that are syntax rather than calls.  Nodes
// in skip are not reported but their children are walked.  Nodes in prune
// are not walked at all.
func nonCallNodes(exprs []*ast.Node) (skip, prune map[*ast.Node]bool) {
	skip = make(map[*ast.Node]bool)
	prune = make(map[*ast.Node]bool)
	astutil.WalkForms(exprs, func(form *ast.Node, depth int) {
		argc := astutil.ArgCount(form)
		switch form.Head() {
		case "define":
			if argc >= 1 && form.Children[1].Kind == ast.List {
				prune[form.Children[1]] = true
			}
		case "lambda", "λ":
			if argc >= 1 {
				prune[form.Children[1]] = true
			}
		case "define-struct":
			if argc >= 2 {
				prune[form.Children[2]] = true
			}
		case "let", "let*", "letrec":
			if argc < 1 {
				return
			}
			bindings := form.Children[1]
			if bindings.Kind == ast.Symbol && argc >= 2 {
				bindings = form.Children[2]
			}
			skip[bindings] = true
			for _, b := range bindings.Children {
				skip[b] = true
			}
		case "local":
			if argc >= 1 {
				skip[form.Children[1]] = true
			}
		case "cond":
			for _, clause := range form.Children[1:] {
				skip[clause] = true
			}
		case "case":
			for _, clause := range form.Children[2:] {
				skip[clause] = true
				if len(clause.Children) > 0 {
					prune[clause.Children[0]] = true
				}
			}
		case "match":
			for _, clause := range form.Children[2:] {
				skip[clause] = true
				if len(clause.Children) > 0 {
					prune[clause.Children[0]] = true
				}
			}
		}
	})
	return skip, prune
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s\n", a.Name)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
