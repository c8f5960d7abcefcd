// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"io"
	"testing"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/lisp/lisplib"
	"github.com/stretchr/testify/require"
)

// Some spurious functions to check we get a profile out
const testProgram = `
(define (print-it x)
  (display x))
(define (add-it x y)
  "@trace{ Add It }"
  (+ x y))
(define (recurse-it x)
  "@trace"
  (if (< x 4)
      (recurse-it (- x 1))
      (add-it x 3)))
(print-it "Hello")
(print-it (add-it (add-it 3 (recurse-it 5)) 8))
`

func newEnv(t *testing.T) *lisp.LEnv {
	t.Helper()
	env, err := lisplib.NewEnv(lisp.WithStdout(io.Discard))
	require.NoError(t, err)
	return env
}

func runProgram(t *testing.T, env *lisp.LEnv, p lisp.Profiler) {
	t.Helper()
	runProgramSource(t, env, p, testProgram)
}

func runProgramSource(t *testing.T, env *lisp.LEnv, p lisp.Profiler, src string) {
	t.Helper()
	require.NoError(t, lisp.GoError(lisp.WithProfiler(p)(env)))
	v := env.LoadString("test.rkt", src)
	require.NoError(t, lisp.GoError(v))
	// Mark the profile as complete and dump the rest of the profile
	require.NoError(t, p.Complete())
}
