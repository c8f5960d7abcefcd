// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"io"
	"math/rand"
	"os"
)

// DefaultMaxSteps is the step ceiling of a StandardRuntime.
const DefaultMaxSteps = 67108864

// StepHook is called after every evaluation step with the number of steps
// taken so far.  A non-nil error halts evaluation.
type StepHook func(steps int64) error

// Runtime is an object underlying a family of environments.  It holds
// everything shared by the environments of one evaluation session.
type Runtime struct {
	Stdout   io.Writer
	Reader   Reader
	Profiler Profiler
	Session  *TestSession
	Rand     *rand.Rand

	maxSteps int64
	steps    int64
	stepHook StepHook
	ctx      context.Context
	machine  machine
}

// StandardRuntime returns a new Runtime with an empty test session that
// writes to os.Stdout.
func StandardRuntime() *Runtime {
	return &Runtime{
		Stdout:   os.Stdout,
		Session:  NewTestSession(),
		Rand:     rand.New(rand.NewSource(1)),
		maxSteps: DefaultMaxSteps,
	}
}

// Steps returns the number of evaluation steps taken since the last call to
// ResetSteps.
func (r *Runtime) Steps() int64 {
	return r.steps
}

// ResetSteps starts a new step budget.
func (r *Runtime) ResetSteps() {
	r.steps = 0
}

// MaxSteps returns the step ceiling.  Zero means unlimited.
func (r *Runtime) MaxSteps() int64 {
	return r.maxSteps
}

// Context returns the context checked during evaluation.
func (r *Runtime) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// SetContext replaces the context checked during evaluation.
func (r *Runtime) SetContext(ctx context.Context) {
	r.ctx = ctx
}

// CallStack returns the current call stack.
func (r *Runtime) CallStack() *CallStack {
	return r.machine.callStack()
}

func (r *Runtime) profile(fun *LVal) func() {
	if r.Profiler == nil || !r.Profiler.IsEnabled() {
		return func() {}
	}
	return r.Profiler.Start(fun)
}
