// Copyright © 2018 The ELPS authors

package profiler

import (
	"regexp"

	"github.com/luthersystems/rktgrade/lisp"
)

// SkipFilter reports whether calls to fun should not be traced.
type SkipFilter func(fun *lisp.LVal) bool

func defaultSkipFilter(fun *lisp.LVal) bool {
	return fun.Type != lisp.LFun || fun.IsBuiltin() || fun.IsSpecialOp()
}

// WithDocFilter filters to only include spans for functions whose docstring
// denotes tracing.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithSkipFiles skips functions defined in any of the named source files,
// such as the Racket library.
func WithSkipFiles(files ...string) Option {
	skip := make(map[string]bool, len(files))
	for _, f := range files {
		skip[f] = true
	}
	return WithSkipFilter(func(fun *lisp.LVal) bool {
		loc := getSourceLoc(fun)
		return loc != nil && skip[loc.File]
	})
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace is a magic string used to enable tracing in a profiler configured
// WithDocFilter.  All functions with a docstring that contains this string
// will be traced.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(fun *lisp.LVal) bool {
	docStr := fun.Docstring()
	if docStr == "" {
		return true
	}
	// do not skip docs that include trace constant
	return !docTraceRegExp.MatchString(docStr)
}
