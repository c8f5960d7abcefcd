// Copyright © 2018 The ELPS authors

// Package lisplib is used to conveniently load the Racket student library
// into an environment.
package lisplib

import (
	_ "embed"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/parser"
)

// SourceName is the file name reported in locations inside the library.
const SourceName = "racket.rkt"

//go:embed racket.rkt
var racketSource string

// LoadLibrary defines the library procedures in env.
func LoadLibrary(env *lisp.LEnv) *lisp.LVal {
	nodes, err := parser.ParseString(SourceName, racketSource)
	if err != nil {
		return lisp.ErrorCondition(lisp.CondParseError, err).LVal()
	}
	return env.EvalNodes(nodes)
}

// NewEnv returns a root environment with the builtins and the library
// loaded.  config is applied before the library is loaded.
func NewEnv(config ...lisp.Config) (*lisp.LEnv, error) {
	env := lisp.NewEnv(nil)
	env.Runtime.Reader = parser.NewReader()
	if err := lisp.GoError(lisp.InitializeUserEnv(env, config...)); err != nil {
		return nil, err
	}
	if err := lisp.GoError(LoadLibrary(env)); err != nil {
		return nil, err
	}
	return env, nil
}
