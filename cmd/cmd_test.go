// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/luthersystems/rktgrade/harness"
	"github.com/luthersystems/rktgrade/lint"
	"github.com/luthersystems/rktgrade/problem"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProblem = `{
  "id": "double",
  "title": "Double",
  "difficulty": "easy",
  "category": "basics",
  "description": "Write a function that doubles a number.",
  "examples": [{"input": "(double 2)", "output": "4"}],
  "starterCode": "(define (double x)\n  ...)",
  "hiddenCases": ["(check-expect (double 2) 4)", "(check-expect (double -1) -2)"]
}`

const testExam = `
id: midterm
title: Midterm
time: 30 min
totalPoints: 3
content:
  - type: text
    content: Answer every question.
  - type: question
    prompt: single-line-textbox
    points: 1
    content: What is (+ 1 2)?
    verification: (equal? answer "3")
  - type: question
    prompt: code
    points: 2
    content: Define triple.
    starterCode: "(define (triple x) ...)"
    hiddenCases:
      - (check-expect (triple 2) 6)
`

// setupFs installs an in-memory file system holding one problem and one
// exam and points the configuration at it.
func setupFs(t *testing.T) afero.Fs {
	t.Helper()
	old := appFs
	t.Cleanup(func() {
		appFs = old
		viper.Reset()
	})
	appFs = afero.NewMemMapFs()
	files := map[string]string{
		"problems/index.json": `{"problems": ["double.json"], "categories": [{"name": "basics"}]}`,
		"problems/double.json": testProblem,
		"exams/index.json":     `{"exams": ["midterm.yaml"]}`,
		"exams/midterm.yaml":   testExam,
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(appFs, name, []byte(content), 0o644))
	}
	viper.Set(keyProblemsDir, "problems")
	viper.Set(keyExamsDir, "exams")
	viper.Set(keyStorePath, "state/store.json")
	viper.Set(keyMaxSteps, int64(1000000))
	viper.Set(keyColor, "never")
	return appFs
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		runExpression, runProblem, runProfile, runTrace = false, "", "", false
		gradeJSON, examJSON, examAnswers = false, false, ""
		expandFlat, splitSorted = false, false
		problemFilter = problem.Filter{}
		docList = false
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestRunExpression(t *testing.T) {
	setupFs(t)
	out := execute(t, "run", "-e", "(define (sq x) (* x x))", "(sq 4)", `(display "hi")`, "(= 1 1)")
	assert.Equal(t, "16\nhi\ntrue\n", out)
}

func TestRunFileWithTests(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "prog.rkt", []byte(`
(define-struct posn (x y))
(check-expect (posn-x (make-posn 1 2)) 1)
(check-expect (+ 1 1) 2)
`), 0o644))
	out := execute(t, "run", "prog.rkt")
	assert.Equal(t, "Both your tests passed!\n", out)
}

func TestRunProblemCompletes(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "double.rkt", []byte("(define (double x) (* 2 x))"), 0o644))
	out := execute(t, "run", "--problem", "double", "double.rkt")
	assert.Contains(t, out, harness.MsgAllHidden)
	assert.Contains(t, out, harness.MsgAutoCompleted)

	st, err := store.Open(fs, "state/store.json")
	require.NoError(t, err)
	done, err := store.GetBool(st, store.ProblemCompleted("double"))
	require.NoError(t, err)
	assert.True(t, done)
	code, ok, err := st.Get(store.ProblemCode("double"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, code, "(* 2 x)")
}

func TestRunProfile(t *testing.T) {
	fs := setupFs(t)
	execute(t, "run", "--profile", "out.callgrind", "-e", "(define (f x) (+ x 1))", "(f 1)")
	b, err := afero.ReadFile(fs, "out.callgrind")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "version: 1\n"))
}

func TestGrade(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "good.rkt", []byte("(define (double x) (+ x x))"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "bad.rkt", []byte("(define (double x) x)"), 0o644))

	out := execute(t, "grade", "--problem", "double", "bad.rkt")
	assert.Contains(t, out, "case 1: failed")
	assert.Contains(t, out, "Points: 0/1")

	require.NoError(t, afero.WriteFile(fs, "selfcheck.rkt", []byte("(define (double x) (+ x x))\n(check-expect (double 1) 3)"), 0o644))
	out = execute(t, "grade", "--problem", "double", "selfcheck.rkt")
	assert.Contains(t, out, "Points: 0/1")
	out = execute(t, "problems", "--status", "completed")
	assert.NotContains(t, out, "[x] double")

	out = execute(t, "grade", "--problem", "double", "--json", "good.rkt")
	var res harness.GradingResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Points)
	assert.Equal(t, 2, res.Passed)

	out = execute(t, "problems", "--status", "completed")
	assert.Contains(t, out, "[x] double")
}

func TestProblems(t *testing.T) {
	setupFs(t)
	out := execute(t, "problems")
	assert.Contains(t, out, "[ ] double")
	assert.Contains(t, out, "1 problems, 0 completed, 1 remaining")

	out = execute(t, "problems", "--difficulty", "hard")
	assert.NotContains(t, out, "[x] double")

	out = execute(t, "problems", "show", "double")
	assert.Contains(t, out, "Double [easy, basics] incomplete")
	assert.Contains(t, out, "Input:  (double 2)")
	assert.Contains(t, out, "(define (double x)\n  ...)")

	out = execute(t, "problems", "toggle", "double")
	assert.Equal(t, "double: completed\n", out)
}

func TestExam(t *testing.T) {
	fs := setupFs(t)
	out := execute(t, "exam", "list")
	assert.Contains(t, out, "midterm")
	assert.Contains(t, out, "not taken")

	out = execute(t, "exam", "show", "midterm")
	assert.Contains(t, out, "Question 1 (1 points)")
	assert.Contains(t, out, "(define (triple x) ...)")

	require.NoError(t, afero.WriteFile(fs, "answers.yaml", []byte(`
"1": {type: text, answer: "3"}
"2": {type: code, code: "(define (triple x) (* 3 x))"}
`), 0o644))
	out = execute(t, "exam", "grade", "midterm", "--answers", "answers.yaml")
	assert.Contains(t, out, "Question 1: 1/1")
	assert.Contains(t, out, "Question 2: 2/2 (1/1 hidden cases)")
	assert.Contains(t, out, "Score: 3/3 (100%)\nGrade: A")

	out = execute(t, "exam", "list")
	assert.Contains(t, out, "3/3 (100%, A)")
}

func TestExpand(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "m.rkt", []byte("(local [(define y 3)] y)"), 0o644))
	out := execute(t, "expand", "--flat", "m.rkt")
	assert.Equal(t, "(letrec ([y 3]) y)\n", out)
}

func TestSplit(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "s.rkt", []byte("(f 1)\n(define (f x) x)\n(check-expect (f 1) 1)\n"), 0o644))
	out := execute(t, "split", "--eval-order", "s.rkt")
	assert.Equal(t, "2\tdefinition\t(define (f x) x)\n1\tother\t(f 1)\n3\ttest\t(check-expect (f 1) 1)\n", out)
}

func TestFmtStdout(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "f.rkt", []byte("(define (f x)\n(+ x 1))"), 0o644))
	out := execute(t, "fmt", "f.rkt")
	assert.Equal(t, "(define (f x)\n  (+ x 1))\n", out)
}

func TestSelectAnalyzers(t *testing.T) {
	all, err := selectAnalyzers("")
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	some, err := selectAnalyzers("if-arity, builtin-arity")
	require.NoError(t, err)
	require.Len(t, some, 2)

	_, err = selectAnalyzers("no-such-check")
	assert.Error(t, err)
}

func TestLintCommand_DefaultFlags(t *testing.T) {
	cmd := LintCommand()
	assert.Equal(t, "lint [flags] [files...]", cmd.Use)
	for _, name := range []string{"json", "checks", "list", "exclude", "require", "problem"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestLintPaths(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "src/a.rkt", []byte("(if #t 1)\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "src/b.rkt", []byte("(define (g x) x)\n"), 0o644))
	analyzers, err := selectAnalyzers("")
	require.NoError(t, err)
	l := &lint.Linter{Analyzers: analyzers, Required: []string{"g"}}
	diags, err := lintPaths(l, []string{"src/..."}, nil)
	require.NoError(t, err)
	var names []string
	for _, d := range diags {
		names = append(names, d.Analyzer)
	}
	assert.Contains(t, names, "if-arity")
	assert.Contains(t, names, "required-function")
}

func TestLispErrorToDiagnostic(t *testing.T) {
	ev, err := harness.NewLispEvaluator(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	_, err = ev.Eval(context.Background(), "(define (f x) (car x))\n(f 5)")
	require.Error(t, err)

	var buf bytes.Buffer
	viper.Set(keyColor, "never")
	t.Cleanup(viper.Reset)
	renderError(&buf, err, nil)
	assert.Contains(t, buf.String(), "error: type-error: car: contract violation")
	assert.Contains(t, buf.String(), "in f at")
}

func TestDoc(t *testing.T) {
	setupFs(t)
	out := execute(t, "doc")
	assert.True(t, strings.HasPrefix(out, "# Language reference"))

	assert.Equal(t, "if: special form\n", execute(t, "doc", "if"))
	assert.Equal(t, "cons: function accepting 2 argument(s)\n", execute(t, "doc", "cons"))

	out = execute(t, "doc", "--list")
	assert.Contains(t, out, "foldl: function")
	assert.Contains(t, out, "match: ")
}
