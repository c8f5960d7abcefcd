// Copyright © 2018 The ELPS authors

// Package profiler reports calls to functions defined in the dialect to
// tracing backends and profile files.
package profiler

import (
	"fmt"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/parser/token"
)

// profiler is a minimal lisp.Profiler
type profiler struct {
	runtime    *lisp.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

var _ lisp.Profiler = &profiler{}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) Complete() error {
	return nil
}

func (p *profiler) Start(fun *lisp.LVal) func() {
	return func() {}
}

// defaultFunName returns the name a function was defined with.
func defaultFunName(fun *lisp.LVal) string {
	if fun.Type != lisp.LFun {
		return ""
	}
	if name := fun.FunName(); name != "" {
		return name
	}
	return "lambda"
}

// prettyFunName returns a pretty name and original name for a fun. If there is
// no pretty name, then the pretty name is the original name.
func (p *profiler) prettyFunName(fun *lisp.LVal) (string, string) {
	origLabel := defaultFunName(fun)
	if origLabel == "" {
		return "", ""
	}
	prettyLabel := origLabel
	if p.funLabeler != nil {
		prettyLabel = p.funLabeler(p.runtime, fun)
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
	}

	return prettyLabel, origLabel
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(v *lisp.LVal) bool {
	return !p.enabled || defaultSkipFilter(v) || p.skipFilter != nil && p.skipFilter(v)
}

func getSourceLoc(fun *lisp.LVal) *token.Location {
	if fun.Source != nil {
		return fun.Source
	}
	for _, expr := range fun.Cells {
		if expr.Source != nil {
			return expr.Source
		}
	}
	return nil
}
