// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"io"
	"math/rand"
)

// Config is a function that configures a root environment or its runtime.
type Config func(env *LEnv) *LVal

// WithReader returns a Config that makes environments use r to parse source
// streams.  There is no default Reader for an environment.
func WithReader(r Reader) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Reader = r
		return Void()
	}
}

// WithStdout returns a Config that makes display, write and the test summary
// write to w instead of the default, os.Stdout.
func WithStdout(w io.Writer) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Stdout = w
		return Void()
	}
}

// WithContext returns a Config that sets the context.Context for the root
// environment.  The context is checked periodically during evaluation; if it
// is cancelled or its deadline expires, evaluation returns a
// CondContextCancelled error.
func WithContext(ctx context.Context) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.ctx = ctx
		return Void()
	}
}

// WithMaxSteps returns a Config that sets the maximum number of evaluation
// steps before evaluation returns a CondStepLimitExceeded error.  A step is
// counted for each expression evaluated.  A value of 0 means unlimited.
func WithMaxSteps(n int64) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.maxSteps = n
		return Void()
	}
}

// WithStepHook returns a Config that calls fn after every evaluation step.
func WithStepHook(fn StepHook) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.stepHook = fn
		return Void()
	}
}

// WithProfiler returns a Config that reports closure calls to p.  The
// profiler is enabled if it is not already.
func WithProfiler(p Profiler) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Profiler = p
		if !p.IsEnabled() {
			if err := p.Enable(); err != nil {
				return Errorf("profiler-error", "%v", err).LVal()
			}
		}
		return Void()
	}
}

// WithTestSession returns a Config that records check-expect results in s.
func WithTestSession(s *TestSession) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Session = s
		return Void()
	}
}

// WithRandSeed returns a Config that seeds the generator behind random.
func WithRandSeed(seed int64) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Rand = rand.New(rand.NewSource(seed))
		return Void()
	}
}
