// Copyright © 2018 The ELPS authors

package lisp

import (
	"io"
	"strings"

	"github.com/luthersystems/rktgrade/ast"
)

// LEnv is a lisp environment.
type LEnv struct {
	Scope   map[string]*LVal
	Parent  *LEnv
	Runtime *Runtime
}

// InitializeUserEnv creates the default user environment: special forms and
// builtins are bound in env, then config is applied.  The Racket library is
// loaded separately by lisplib.LoadLibrary.
func InitializeUserEnv(env *LEnv, config ...Config) *LVal {
	env.AddSpecialOps()
	env.AddBuiltins()
	for _, fn := range config {
		lerr := fn(env)
		if lerr.Type == LError {
			return lerr
		}
	}
	return Void()
}

// NewEnv returns initializes and returns a new LEnv.  A nil parent creates a
// root environment with a StandardRuntime.
func NewEnv(parent *LEnv) *LEnv {
	return newEnvN(parent, 0)
}

func newEnvN(parent *LEnv, n int) *LEnv {
	var runtime *Runtime
	if parent != nil {
		runtime = parent.Runtime
	} else {
		runtime = StandardRuntime()
	}
	return &LEnv{
		Scope:   make(map[string]*LVal, n),
		Parent:  parent,
		Runtime: runtime,
	}
}

// NewUserEnv returns a root environment initialized with InitializeUserEnv.
func NewUserEnv(config ...Config) (*LEnv, error) {
	env := NewEnv(nil)
	if err := GoError(InitializeUserEnv(env, config...)); err != nil {
		return nil, err
	}
	return env, nil
}

// Get returns the value bound to the symbol k.
func (env *LEnv) Get(k *LVal) *LVal {
	for e := env; e != nil; e = e.Parent {
		v, ok := e.Scope[k.Str]
		if !ok {
			continue
		}
		if v == unassigned {
			return env.errorAt(k, CondUnboundSymbol, "%s: undefined; cannot use before initialization", k.Str)
		}
		return v
	}
	return env.errorAt(k, CondUnboundSymbol, "%s: undefined; cannot reference an identifier before its definition", k.Str)
}

// Lookup returns the value bound to name and whether it exists.
func (env *LEnv) Lookup(name string) (*LVal, bool) {
	for e := env; e != nil; e = e.Parent {
		if v, ok := e.Scope[name]; ok && v != unassigned {
			return v, true
		}
	}
	return nil, false
}

// Put binds k to v in the local scope of env.  Functions bound without a
// name take the name of k.
func (env *LEnv) Put(k, v *LVal) {
	if v.Type == LFun && v.Str == "" {
		v.Str = k.Str
	}
	env.Scope[k.Str] = v
}

// Update assigns v to the nearest existing binding of k.
func (env *LEnv) Update(k, v *LVal) *LVal {
	for e := env; e != nil; e = e.Parent {
		if _, ok := e.Scope[k.Str]; ok {
			e.Scope[k.Str] = v
			return Void()
		}
	}
	return env.errorAt(k, CondUnboundSymbol, "set!: assignment disallowed; cannot set variable before its definition: %s", k.Str)
}

func (env *LEnv) root() *LEnv {
	for env.Parent != nil {
		env = env.Parent
	}
	return env
}

// Eval evaluates v in env.
func (env *LEnv) Eval(v *LVal) *LVal {
	return env.Runtime.machine.run(env, v)
}

// Apply calls fun with args.
func (env *LEnv) Apply(fun *LVal, args ...*LVal) *LVal {
	form := make([]*LVal, 0, len(args)+1)
	form = append(form, fun)
	for _, a := range args {
		form = append(form, quoted(a))
	}
	return env.Eval(List(form...))
}

// EvalNodes evaluates the syntax trees in order and returns the value of the
// last.  Evaluation stops at the first error.
func (env *LEnv) EvalNodes(nodes []*ast.Node) *LVal {
	ret := Void()
	for _, v := range FromProgram(nodes) {
		ret = env.Eval(v)
		if ret.Type == LError {
			return ret
		}
	}
	return ret
}

// LoadString reads exprs with the runtime's Reader and evaluates them.
func (env *LEnv) LoadString(name, exprs string) *LVal {
	return env.Load(name, strings.NewReader(exprs))
}

// Load reads expressions from r and evaluates them as if in a begin.  The
// value returned by the last expression is returned.  If env.Runtime.Reader
// has not been set then an error will be returned by Load.
func (env *LEnv) Load(name string, r io.Reader) *LVal {
	if env.Runtime.Reader == nil {
		return Errorf(CondSyntaxError, "no reader for environment runtime").LVal()
	}
	nodes, err := env.Runtime.Reader.Read(name, r)
	if err != nil {
		if lerr, ok := err.(*ErrorVal); ok {
			return lerr.LVal()
		}
		return ErrorCondition(CondParseError, err).LVal()
	}
	return env.EvalNodes(nodes)
}

// Symbols returns the names bound in env and its parents.
func (env *LEnv) Symbols() []string {
	seen := make(map[string]bool)
	var names []string
	for e := env; e != nil; e = e.Parent {
		for name := range e.Scope {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func (env *LEnv) errorAt(v *LVal, condition string, format string, args ...interface{}) *LVal {
	err := Errorf(condition, format, args...)
	if v != nil {
		err.Source = v.Source
	}
	return err.LVal()
}
