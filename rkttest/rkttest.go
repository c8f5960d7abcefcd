// Copyright © 2018 The ELPS authors

// Package rkttest runs programs of the student dialect from Go tests.
package rkttest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/lisp/lisplib"
	"github.com/luthersystems/rktgrade/parser"
	"github.com/luthersystems/rktgrade/rewrite"
	"github.com/luthersystems/rktgrade/source"
)

// Runner is a test runner.
type Runner struct {
	// Loader is the library loader used to initialize the test environment.
	// When Loader is nil lisplib.LoadLibrary is used.
	Loader func(*lisp.LEnv) *lisp.LVal

	// Config is applied to every environment the runner creates, after its
	// output has been redirected.
	Config []lisp.Config
}

// NewEnv returns an environment writing its output to t.Log.
func (r *Runner) NewEnv(t testing.TB) (*lisp.LEnv, *Logger, error) {
	logger := NewLogger(t)
	env := lisp.NewEnv(nil)
	config := append([]lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStdout(logger),
	}, r.Config...)
	err := lisp.GoError(lisp.InitializeUserEnv(env, config...))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize lisp environment: %v", err)
	}
	loader := r.Loader
	if loader == nil {
		loader = lisplib.LoadLibrary
	}
	err = lisp.GoError(loader(env))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load library: %v", err)
	}
	return env, logger, nil
}

// RunProgram evaluates src the way a submission is evaluated: the program is
// split into top-level forms, each form is rewritten and definitions run
// before every other form.  RunProgram stops at the first error.
func RunProgram(env *lisp.LEnv, name string, src string) *lisp.LVal {
	p := rewrite.NewPipeline()
	ret := lisp.Void()
	for _, form := range source.EvalOrder(source.Split(src)) {
		nodes, err := p.RewriteString(name, form.Text)
		if err != nil {
			if lerr, ok := err.(*lisp.ErrorVal); ok {
				return lerr.LVal()
			}
			return lisp.ErrorCondition(lisp.CondParseError, err).LVal()
		}
		ret = env.EvalNodes(nodes)
		if ret.Type == lisp.LError {
			return ret
		}
	}
	return ret
}

// RunTestFile runs the program at path and fails t if evaluation fails or
// any check-expect or check-within in it does not pass.
func (r *Runner) RunTestFile(t *testing.T, path string) {
	src, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		t.Errorf("Unable to read test file: %v", err)
		return
	}
	env, logger, err := r.NewEnv(t)
	if err != nil {
		t.Error(err.Error())
		return
	}
	defer logger.Flush()

	err = lisp.GoError(RunProgram(env, filepath.Base(path), string(src)))
	if err != nil {
		r.LispError(t, err)
		return
	}
	outcome := env.Runtime.Session.Outcome()
	if outcome.Total() == 0 {
		t.Errorf("%s: no checks were run", path)
	}
	for _, f := range outcome.Failures {
		if f.Tolerance != nil {
			t.Errorf("%s: expected %v ± %v, got %v", f.Kind, f.Expected, f.Tolerance, f.Actual)
			continue
		}
		t.Errorf("%s: expected %v, got %v", f.Kind, f.Expected, f.Actual)
	}
}

// RunTestDir runs every .rkt file in dir as a subtest.
func (r *Runner) RunTestDir(t *testing.T, dir string) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.rkt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatalf("no test files in %s", dir)
	}
	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			r.RunTestFile(t, path)
		})
	}
}

// LispError reports err on t, with a stack trace when err is an evaluation
// error.
func (r *Runner) LispError(t testing.TB, err error) {
	lerr, ok := err.(*lisp.ErrorVal)
	if !ok {
		t.Error(err)
		return
	}
	var buf bytes.Buffer
	_, ioerr := lerr.WriteTrace(&buf)
	if ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// TestSequence is a sequence of lisp expressions which are evaluated sequentially
// by a lisp.LEnv.
type TestSequence []struct {
	Expr   string // a lisp expression
	Result string // the evaluated result in write notation
	Output string // output written to Runtime.Stdout
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name string
	TestSequence
}

// RunTestSuite runs each TestSequence in tests on isolated environments.
// Expressions are rewritten before they are evaluated, so match, local and
// define-struct may be used.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for i, test := range tests {
		env := lisp.NewEnv(nil)
		var exprBuf bytes.Buffer
		err := lisp.GoError(lisp.InitializeUserEnv(env,
			lisp.WithReader(parser.NewReader()),
			lisp.WithStdout(&exprBuf),
		))
		if err == nil {
			err = lisp.GoError(lisplib.LoadLibrary(env))
		}
		if err != nil {
			t.Errorf("test %d %q: %v", i, test.Name, err)
			continue
		}
		p := rewrite.NewPipeline()
		for j, expr := range test.TestSequence {
			exprBuf.Reset()
			v, err := p.RewriteString("test", expr.Expr)
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(v) == 0 {
				t.Errorf("test %d %q: expr %d: no expression parsed", i, test.Name, j)
				continue
			}
			result := env.EvalNodes(v)
			got := result.String()
			if result.Type == lisp.LError {
				lerr := (*lisp.ErrorVal)(result)
				got = lerr.Condition() + ": " + lerr.ErrorMessage()
			}
			if got != expr.Result {
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, got)
			}
			if exprBuf.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, exprBuf.String())
			}
		}
	}
}

// RunBenchmark runs a standard benchmark that evaluates the program src.
func RunBenchmark(b *testing.B, src string) {
	b.StopTimer()
	for i := 0; i < b.N; i++ {
		env, err := lisplib.NewEnv(lisp.WithStdout(io.Discard))
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		lerr := RunProgram(env, "benchmark", src)
		b.StopTimer()
		if lerr.Type == lisp.LError {
			b.Fatalf("%v", lerr)
		}
	}
}
