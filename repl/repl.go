// Copyright © 2018 The ELPS authors

package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/rktgrade/harness"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/source"
)

// HistoryFileName is the name of the history file in the user's home
// directory.
const HistoryFileName = ".rktgrade_history"

type config struct {
	stdin    io.ReadCloser
	stderr   io.WriteCloser
	maxSteps int64
	history  string
}

func newConfig(opts ...Option) *config {
	config := &config{maxSteps: lisp.DefaultMaxSteps, history: historyPath()}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithMaxSteps bounds the evaluation of each input.  Zero means unlimited.
func WithMaxSteps(n int64) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// WithHistoryFile sets the file input history is saved to.  An empty path
// disables history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// RunRepl runs a simple repl in a fresh environment with the Racket library
// loaded.
func RunRepl(prompt string, opts ...Option) {
	cfg := newConfig(opts...)
	var out io.Writer = os.Stdout
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	ev, err := harness.NewLispEvaluator(context.Background(), out, lisp.WithMaxSteps(cfg.maxSteps))
	if err != nil {
		errlnf("Language initialization failure: %v", err)
		os.Exit(1)
	}
	ev.Name = "stdin"
	RunEnv(ev, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunEnv runs a simple repl evaluating input with ev.  Input is collected
// over several lines until its brackets balance.
func RunEnv(ev *harness.LispEvaluator, prompt, cont string, opts ...Option) {
	cfg := newConfig(opts...)
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}

	ensureHistoryFilePermissions(cfg.history)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{env: ev.Env()},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		panic(err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			rl.SetPrompt(prompt)
		} else {
			rl.SetPrompt(cont)
		}
		line, err := rl.ReadLine()
		if err == readline.ErrInterrupt {
			pending.Reset()
			continue
		}
		if err != nil {
			if pending.Len() > 0 {
				evalInput(ev, out, pending.String())
			}
			return
		}
		if pending.Len() == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		pending.WriteString(line)
		pending.WriteString("\n")
		if needsMore(pending.String()) {
			continue
		}
		evalInput(ev, out, pending.String())
		pending.Reset()
	}
}

// needsMore reports whether src ends inside an open bracket or string.
// Extra closing brackets are left for the parser to report.
func needsMore(src string) bool {
	s := source.NewScanner(src)
	for s.Next() {
	}
	return s.Depth() > 0 || s.InString()
}

func evalInput(ev *harness.LispEvaluator, out io.Writer, src string) {
	ev.Env().Runtime.ResetSteps()
	val, err := ev.Eval(context.Background(), src)
	if err != nil {
		var lerr *lisp.ErrorVal
		if errors.As(err, &lerr) {
			renderError(out, lerr.LVal())
			return
		}
		fmt.Fprintln(out, err) //nolint:errcheck // best-effort error display
		return
	}
	if val != "" {
		fmt.Fprintln(out, val) //nolint:errcheck // best-effort REPL output
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, HistoryFileName)
}

// ensureHistoryFilePermissions creates path if needed and restricts it to
// the current user.  Input history can hold exam answers.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}

func errlnf(format string, v ...interface{}) {
	if strings.HasSuffix(format, "\n") {
		errf(format, v...)
		return
	}
	errf(format+"\n", v...)
}

func errf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
}
