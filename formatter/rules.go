// Copyright © 2024 The ELPS authors

package formatter

import "strings"

// IndentStyle determines how arguments in an s-expression are indented.
type IndentStyle int

const (
	// IndentAlign indents subsequent lines to align with the first argument.
	IndentAlign IndentStyle = iota
	// IndentBody indents all subforms at bracket column + indent size.
	IndentBody
	// IndentSpecial indents N header args aligned, rest at bracket + indent size.
	IndentSpecial
)

// IndentRule specifies the indentation behavior for a particular form.
type IndentRule struct {
	Style      IndentStyle
	HeaderArgs int // for IndentSpecial: args before the "body"
}

// Config holds formatting configuration.
type Config struct {
	IndentSize    int                    // spaces per indent level (default: 2)
	MaxBlankLines int                    // max consecutive blank lines (default: 1)
	MaxWidth      int                    // line width for generated code (default: 80)
	Rules         map[string]*IndentRule // form name -> rule
}

// DefaultConfig returns the default formatting configuration.
func DefaultConfig() *Config {
	return &Config{
		IndentSize:    2,
		MaxBlankLines: 1,
		MaxWidth:      80,
		Rules:         DefaultRules(),
	}
}

// DefaultRules returns the default indent rules table.
func DefaultRules() map[string]*IndentRule {
	return map[string]*IndentRule{
		"define-struct": {Style: IndentSpecial, HeaderArgs: 2},

		"define":  {Style: IndentSpecial, HeaderArgs: 1},
		"lambda":  {Style: IndentSpecial, HeaderArgs: 1},
		"λ":       {Style: IndentSpecial, HeaderArgs: 1},
		"let":     {Style: IndentSpecial, HeaderArgs: 1},
		"let*":    {Style: IndentSpecial, HeaderArgs: 1},
		"letrec":  {Style: IndentSpecial, HeaderArgs: 1},
		"local":   {Style: IndentSpecial, HeaderArgs: 1},
		"match":   {Style: IndentSpecial, HeaderArgs: 1},
		"case":    {Style: IndentSpecial, HeaderArgs: 1},
		"when":    {Style: IndentSpecial, HeaderArgs: 1},
		"unless":  {Style: IndentSpecial, HeaderArgs: 1},
		"do":      {Style: IndentSpecial, HeaderArgs: 2},
		"with-handlers": {Style: IndentSpecial, HeaderArgs: 1},

		"begin": {Style: IndentBody},
		"cond":  {Style: IndentBody},

		"quasiquote":       {Style: IndentBody},
		"unquote":          {Style: IndentBody},
		"unquote-splicing": {Style: IndentBody},
	}
}

// RuleFor returns the indent rule for the given form name.  Forms without a
// rule align their arguments, except other define- forms, which indent
// like define.
func (c *Config) RuleFor(name string) *IndentRule {
	if r, ok := c.Rules[name]; ok {
		return r
	}
	if strings.HasPrefix(name, "define-") {
		return &IndentRule{Style: IndentSpecial, HeaderArgs: 1}
	}
	return &IndentRule{Style: IndentAlign}
}
