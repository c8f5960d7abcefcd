// Copyright © 2024 The ELPS authors

package lisp_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/lisp/lisplib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T, config ...lisp.Config) *lisp.LEnv {
	t.Helper()
	env, err := lisplib.NewEnv(append([]lisp.Config{lisp.WithStdout(io.Discard)}, config...)...)
	require.NoError(t, err)
	env.Runtime.ResetSteps()
	return env
}

func TestTailCalls(t *testing.T) {
	env := newEnv(t)
	v := env.LoadString("test", `
(define (count-down n) (if (= n 0) 'done (count-down (- n 1))))
(count-down 1000000)`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "done", v.String())
}

func TestDeepRecursion(t *testing.T) {
	env := newEnv(t)
	v := env.LoadString("test", `
(define (sum n) (if (= n 0) 0 (+ n (sum (- n 1)))))
(sum 100000)`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "5000050000", v.String())
}

func TestStepLimit(t *testing.T) {
	env := newEnv(t, lisp.WithMaxSteps(10000))
	env.Runtime.ResetSteps()
	v := env.LoadString("test", `
(define (spin) (spin))
(spin)`)
	err := lisp.GoError(v)
	require.Error(t, err)
	assert.True(t, lisp.IsCondition(err, lisp.CondStepLimitExceeded))
	assert.Equal(t, lisp.StepLimitMessage, (*lisp.ErrorVal)(v).ErrorMessage())

	// The machine is usable again after an error unwinds it.
	env.Runtime.ResetSteps()
	v = env.LoadString("test", "(+ 1 2)")
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "3", v.String())
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	env := newEnv(t, lisp.WithContext(ctx), lisp.WithMaxSteps(0))
	cancel()
	v := env.LoadString("test", "(+ 1 2)")
	assert.True(t, lisp.IsCondition(lisp.GoError(v), lisp.CondContextCancelled))
}

func TestContextCancelledDuringEvaluation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env := newEnv(t, lisp.WithContext(ctx), lisp.WithMaxSteps(0))
	hook := lisp.WithStepHook(func(steps int64) error {
		if steps == 5000 {
			cancel()
		}
		return nil
	})
	require.NoError(t, lisp.GoError(hook(env)))
	v := env.LoadString("test", `
(define (spin) (spin))
(spin)`)
	err := lisp.GoError(v)
	require.Error(t, err)
	assert.True(t, lisp.IsCondition(err, lisp.CondContextCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStepHookError(t *testing.T) {
	errStop := errors.New("stop")
	env := newEnv(t)
	hook := lisp.WithStepHook(func(steps int64) error {
		if steps > 100 {
			return errStop
		}
		return nil
	})
	require.NoError(t, lisp.GoError(hook(env)))
	v := env.LoadString("test", "(build-list 1000 add1)")
	err := lisp.GoError(v)
	require.Error(t, err)
	assert.True(t, lisp.IsCondition(err, lisp.CondInterrupted))
	assert.True(t, errors.Is(err, errStop))
}

func TestErrorCallStack(t *testing.T) {
	env := newEnv(t)
	v := env.LoadString("test", `
(define (inner x) (car x))
(define (outer x) (+ 1 (inner x)))
(outer 5)`)
	require.Equal(t, lisp.LError, v.Type)
	stack := v.CallStack()
	require.NotNil(t, stack)
	require.True(t, len(stack.Frames) >= 2)
	assert.Equal(t, "outer", stack.Frames[0].FunName())
	assert.Equal(t, "inner", stack.Top().FunName())
	assert.NotNil(t, v.Source)
}

func TestApply(t *testing.T) {
	env := newEnv(t)
	fun, ok := env.Lookup("list")
	require.True(t, ok)
	v := env.Apply(fun, lisp.Symbol("a"), lisp.List(lisp.Int(1), lisp.Int(2)))
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "(a (1 2))", v.String())
}

func TestSpecialFormShadowing(t *testing.T) {
	env := newEnv(t)
	v := env.LoadString("test", `
(define (f list) (list 1))
(f (lambda (x) (* x 10)))`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "10", v.String())

	v = env.LoadString("test", `
(define (g if) (if 2))
(g add1)`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "3", v.String())
}

func TestUnexpandedForms(t *testing.T) {
	env := newEnv(t)
	v := env.LoadString("test", "(match 1 [_ 2])")
	assert.True(t, lisp.IsCondition(lisp.GoError(v), lisp.CondSyntaxError))

	// define-struct evaluates without the rewriter too.
	v = env.LoadString("test", `
(define-struct pt (x y))
(pt-y (make-pt 1 2))`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "2", v.String())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b  *lisp.LVal
		equal bool
		eqv   bool
	}{
		{lisp.Int(2), lisp.Int(2), true, true},
		{lisp.Int(2), lisp.Float(2), true, false},
		{lisp.String("a"), lisp.String("a"), true, false},
		{lisp.Symbol("a"), lisp.Symbol("a"), true, true},
		{lisp.List(lisp.Int(1), lisp.String("x")), lisp.List(lisp.Int(1), lisp.String("x")), true, false},
		{lisp.List(lisp.Int(1)), lisp.List(lisp.Int(2)), false, false},
		{lisp.Null(), lisp.Null(), true, true},
		{lisp.Char('a'), lisp.Char('a'), true, true},
		{lisp.Bool(true), lisp.Int(1), false, false},
	}
	for _, test := range tests {
		assert.Equal(t, test.equal, lisp.Equal(test.a, test.b), "equal? %v %v", test.a, test.b)
		assert.Equal(t, test.eqv, lisp.Eqv(test.a, test.b), "eqv? %v %v", test.a, test.b)
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		v       *lisp.LVal
		write   string
		display string
	}{
		{lisp.Float(3), "3.0", "3.0"},
		{lisp.Float(0.1), "0.1", "0.1"},
		{lisp.Float(1e21), "1e+21", "1e+21"},
		{lisp.String("a\"b"), `"a\"b"`, `a"b`},
		{lisp.Char(' '), `#\space`, " "},
		{lisp.List(lisp.Symbol("quote"), lisp.Symbol("x")), "'x", "'x"},
		{lisp.Cons(lisp.Int(1), lisp.Int(2)), "(1 . 2)", "(1 . 2)"},
		{lisp.Void(), "#<void>", "#<void>"},
	}
	for _, test := range tests {
		assert.Equal(t, test.write, test.v.String())
		assert.Equal(t, test.display, lisp.Display(test.v))
	}
}
