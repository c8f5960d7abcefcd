// Copyright © 2024 The ELPS authors

package harness

import (
	"context"
	"io"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/lisp/lisplib"
	"github.com/luthersystems/rktgrade/rewrite"
)

// Evaluator runs dialect source for one session.  Forms evaluated by the
// same Evaluator share definitions and test results.
type Evaluator interface {
	// Eval rewrites and evaluates src and returns the value of its last
	// expression in write notation.  Eval returns "" when the value is void.
	Eval(ctx context.Context, src string) (string, error)
	// Session returns the check-expect results recorded so far.
	Session() *lisp.TestSession
}

// EvaluatorFunc creates a fresh Evaluator whose printed output goes to
// stdout.  maxSteps bounds the whole session; zero means unlimited.
type EvaluatorFunc func(ctx context.Context, stdout io.Writer, maxSteps int64) (Evaluator, error)

// LispEvaluator is the Evaluator backed by the lisp package.
type LispEvaluator struct {
	Name     string
	env      *lisp.LEnv
	pipeline *rewrite.Pipeline
}

var _ Evaluator = (*LispEvaluator)(nil)

// NewLispEvaluator returns an evaluator with the Racket library loaded.
// config is applied after the library has loaded, so step limits and
// profilers only see user code.
func NewLispEvaluator(ctx context.Context, stdout io.Writer, config ...lisp.Config) (*LispEvaluator, error) {
	env, err := lisplib.NewEnv(lisp.WithStdout(stdout), lisp.WithContext(ctx), lisp.WithMaxSteps(0))
	if err != nil {
		return nil, err
	}
	for _, fn := range config {
		if err := lisp.GoError(fn(env)); err != nil {
			return nil, err
		}
	}
	env.Runtime.ResetSteps()
	return &LispEvaluator{
		Name:     "submission",
		env:      env,
		pipeline: rewrite.NewPipeline(),
	}, nil
}

// DefaultEvaluator is an EvaluatorFunc producing LispEvaluators.  config is
// passed on to NewLispEvaluator.
func DefaultEvaluator(config ...lisp.Config) EvaluatorFunc {
	return func(ctx context.Context, stdout io.Writer, maxSteps int64) (Evaluator, error) {
		cfg := append([]lisp.Config{lisp.WithMaxSteps(maxSteps)}, config...)
		return NewLispEvaluator(ctx, stdout, cfg...)
	}
}

// Env returns the environment user code runs in.
func (e *LispEvaluator) Env() *lisp.LEnv {
	return e.env
}

// Eval implements Evaluator.
func (e *LispEvaluator) Eval(ctx context.Context, src string) (string, error) {
	e.env.Runtime.SetContext(ctx)
	nodes, err := e.pipeline.RewriteString(e.Name, src)
	if err != nil {
		return "", err
	}
	v := e.env.EvalNodes(nodes)
	if err := lisp.GoError(v); err != nil {
		return "", err
	}
	if v.Type == lisp.LVoid {
		return "", nil
	}
	return v.String(), nil
}

// Session implements Evaluator.
func (e *LispEvaluator) Session() *lisp.TestSession {
	return e.env.Runtime.Session
}
