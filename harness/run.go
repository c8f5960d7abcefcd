// Copyright © 2024 The ELPS authors

package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/problem"
	"github.com/luthersystems/rktgrade/source"
	"github.com/luthersystems/rktgrade/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MessageKind styles a console message.
type MessageKind uint8

const (
	Info MessageKind = iota
	// Output is text printed by the program.
	Output
	// Result is the value of a top-level expression.
	Result
	Error
	Success
)

func (k MessageKind) String() string {
	switch k {
	case Output:
		return "output"
	case Result:
		return "result"
	case Error:
		return "error"
	case Success:
		return "success"
	default:
		return "info"
	}
}

// Message is one line of console output.
type Message struct {
	Kind MessageKind
	Text string
}

// Console messages.
const (
	MsgNoCode        = "No code to execute."
	MsgSuccess       = "Code executed successfully."
	MsgDeleteNotOK   = "Deleting the function definition is not allowed."
	MsgAllHidden     = "Congratulations! All hidden test cases passed!"
	MsgAutoCompleted = "Problem automatically marked as complete."
)

var displayReplacer = strings.NewReplacer(
	"#t", "true",
	"#f", "false",
	"()", "empty",
	" struct-instance", "",
)

// DisplayText rewrites printed values the way the console shows them.
func DisplayText(s string) string {
	return displayReplacer.Replace(s)
}

// RunRequest is a program to run interactively.
type RunRequest struct {
	Source string
	// Problem is the problem being worked on, if any.  Its hidden cases run
	// after the program and its starter code determines the functions the
	// program must define.
	Problem *problem.Problem
}

// RunReport is the console transcript of a run.
type RunReport struct {
	Messages []Message
	Outcome  lisp.TestOutcome
	// Completed is true when this run marked the problem complete.
	Completed bool
	// Err is the error that stopped the run, if any.
	Err error
}

// Text returns the messages one per line.
func (r *RunReport) Text() string {
	var b strings.Builder
	for _, m := range r.Messages {
		b.WriteString(m.Text)
		if !strings.HasSuffix(m.Text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (r *RunReport) add(kind MessageKind, text string) {
	r.Messages = append(r.Messages, Message{Kind: kind, Text: DisplayText(text)})
}

// Write records program output.
func (r *RunReport) Write(p []byte) (int, error) {
	if len(p) > 0 {
		r.add(Output, string(p))
	}
	return len(p), nil
}

// Runner executes programs interactively.  There is no wall-clock limit;
// the step ceiling stops runaway programs.
type Runner struct {
	// MaxSteps is the step ceiling.  Zero means lisp.DefaultMaxSteps.
	MaxSteps     int64
	NewEvaluator EvaluatorFunc
	// Store receives problem completion.  A nil Store disables
	// auto-completion.
	Store  store.Store
	Tracer trace.Tracer
}

// NewRunner returns a Runner using the lisp evaluator that records progress
// in st.
func NewRunner(st store.Store) *Runner {
	return &Runner{
		MaxSteps:     lisp.DefaultMaxSteps,
		NewEvaluator: DefaultEvaluator(),
		Store:        st,
	}
}

// Run executes req.Source: definitions first, then the other forms, then
// the problem's hidden cases.  The value of every expression that is neither
// a definition nor a test is reported.  Run stops at the first error.
func (rn *Runner) Run(ctx context.Context, req RunRequest) *RunReport {
	ctx, span := tracerOr(rn.Tracer).Start(ctx, "harness.Run")
	defer span.End()
	log := logging.FromContext(ctx)
	report := &RunReport{}
	defer func() {
		if report.Err != nil {
			span.SetStatus(codes.Error, report.Err.Error())
		}
	}()

	forms := source.Split(req.Source)
	if len(forms) == 0 {
		report.add(Info, MsgNoCode)
		return report
	}
	var defs, others []source.Form
	for _, f := range forms {
		if f.Kind == source.Definition {
			defs = append(defs, f)
		} else {
			others = append(others, f)
		}
	}

	p := req.Problem
	hidden := false
	if p != nil {
		span.SetAttributes(attribute.String("rktgrade.problem", p.ID))
		missing := p.MissingFunctions(source.Texts(defs))
		for _, name := range missing {
			report.add(Error, fmt.Sprintf("Error: You must define the function %q to complete this problem.", name))
			report.add(Error, MsgDeleteNotOK)
		}
		if len(missing) > 0 {
			report.Err = fmt.Errorf("missing required functions: %s", strings.Join(missing, ", "))
			return report
		}
		for _, c := range p.HiddenCases {
			others = append(others, source.Form{Text: c, Kind: source.Classify(c)})
		}
		hidden = len(p.HiddenCases) > 0
	}

	maxSteps := rn.MaxSteps
	if maxSteps <= 0 {
		maxSteps = lisp.DefaultMaxSteps
	}
	newEval := rn.NewEvaluator
	if newEval == nil {
		newEval = DefaultEvaluator()
	}
	ev, err := newEval(ctx, report, maxSteps)
	if err != nil {
		report.Err = err
		report.add(Error, "Your code has an error: "+err.Error())
		return report
	}
	ev.Session().Reset()

	// Definitions and tests count as output even though they print nothing.
	hadOutput := false
	for _, f := range append(defs, others...) {
		v, err := ev.Eval(ctx, f.Text)
		if err != nil {
			log.Debug("Evaluation stopped", "error", err)
			report.Err = err
			report.add(Error, "Your code has an error: "+errorMessage(err))
			report.Outcome = ev.Session().Outcome()
			return report
		}
		switch {
		case f.Kind != source.Other:
			hadOutput = true
		case v != "":
			report.add(Result, v)
			hadOutput = true
		}
	}

	report.Outcome = ev.Session().Outcome()
	if report.Outcome.Total() > 0 {
		if _, err := ev.Eval(ctx, "(display-test-summary)"); err != nil {
			log.Warn("Unable to display test summary", "error", err)
		}
	}
	if hidden && p.ID != "" && report.Outcome.Failed == 0 && report.Outcome.Passed > 0 {
		rn.autoComplete(ctx, report, p.ID)
	}
	if !hadOutput {
		report.add(Info, MsgSuccess)
	}
	return report
}

func (rn *Runner) autoComplete(ctx context.Context, report *RunReport, id string) {
	if rn.Store == nil {
		return
	}
	log := logging.FromContext(ctx)
	done, err := store.GetBool(rn.Store, store.ProblemCompleted(id))
	if err != nil {
		log.Warn("Auto-completion check failed", "problem", id, "error", err)
		return
	}
	if done {
		return
	}
	if err := store.SetBool(rn.Store, store.ProblemCompleted(id), true); err != nil {
		log.Warn("Auto-completion failed", "problem", id, "error", err)
		return
	}
	log.Info("Problem completed", "problem", id)
	report.Completed = true
	report.add(Success, MsgAllHidden)
	report.add(Success, MsgAutoCompleted)
}

func errorMessage(err error) string {
	var lerr *lisp.ErrorVal
	if errors.As(err, &lerr) {
		return lerr.ErrorMessage()
	}
	return err.Error()
}
