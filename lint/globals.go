// Copyright © 2024 The ELPS authors

package lint

import (
	"io"
	"sync"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/lisp/lisplib"
)

var (
	globalsOnce sync.Once
	globals     map[string]*lisp.LVal
)

// Globals returns the functions and special forms bound in a fresh runtime
// environment, keyed by name.  The environment is built once.
func Globals() map[string]*lisp.LVal {
	globalsOnce.Do(func() {
		globals = make(map[string]*lisp.LVal)
		env, err := lisplib.NewEnv(lisp.WithStdout(io.Discard))
		if err != nil {
			return
		}
		for _, name := range env.Symbols() {
			if v, ok := env.Lookup(name); ok && v.Type == lisp.LFun {
				globals[name] = v
			}
		}
	})
	return globals
}
