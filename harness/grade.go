// Copyright © 2024 The ELPS authors

// Package harness runs submissions against hidden test cases.  Grade scores
// exam questions all-or-nothing under a wall-clock timeout.  Runner executes
// code interactively under a step ceiling and reports what the user would
// see in a console.
package harness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/source"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds one grading run.
const DefaultTimeout = 10 * time.Second

// TracerName names the tracer used when a Grader or Runner has none.
const TracerName = "github.com/luthersystems/rktgrade/harness"

// Submission is one code answer to grade.
type Submission struct {
	Source string
	// Precode runs before Source in the same session.
	Precode     string
	HiddenCases []string
	// Points awarded when every hidden case passes.  Zero means 1.
	Points int
}

// CaseResult is the outcome of one hidden case.
type CaseResult struct {
	Passed bool   `json:"passed"`
	Reason Reason `json:"error,omitempty"`
}

// GradingResult is the outcome of grading one Submission.
type GradingResult struct {
	Points    int          `json:"points"`
	MaxPoints int          `json:"maxPoints"`
	Passed    int          `json:"passed"`
	Total     int          `json:"total"`
	Results   []CaseResult `json:"results"`
	Reason    Reason       `json:"reason,omitempty"`
	// Trace lists the states the run went through.
	Trace []State `json:"trace,omitempty"`
}

// State returns the final state of the run.
func (r *GradingResult) State() State {
	if len(r.Trace) == 0 {
		return Idle
	}
	return r.Trace[len(r.Trace)-1]
}

// Grader grades submissions.  A Grader may be used by several goroutines;
// every call to Grade creates its own evaluator.
type Grader struct {
	// Timeout bounds each call to Grade.  Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxSteps is an optional step ceiling, reported as a timeout.
	MaxSteps     int64
	NewEvaluator EvaluatorFunc
	Tracer       trace.Tracer
}

// NewGrader returns a Grader using the lisp evaluator and DefaultTimeout.
func NewGrader() *Grader {
	return &Grader{Timeout: DefaultTimeout, NewEvaluator: DefaultEvaluator()}
}

// Incomplete reports whether src is empty or still ends with the ellipsis
// placeholder of the starter code.
func Incomplete(src string) bool {
	src = strings.TrimSpace(src)
	return src == "" || strings.HasSuffix(src, "...") || strings.HasSuffix(src, "...)")
}

func tracerOr(t trace.Tracer) trace.Tracer {
	if t != nil {
		return t
	}
	return otel.Tracer(TracerName)
}

// gradeRun carries the state of one call to Grade.
type gradeRun struct {
	log    *slog.Logger
	span   trace.Span
	result *GradingResult
}

func (r *gradeRun) enter(s State) {
	r.result.Trace = append(r.result.Trace, s)
	r.span.AddEvent(s.String())
	r.log.Debug("Grading state", "state", s)
}

func (r *gradeRun) fail(reason Reason) *GradingResult {
	res := r.result
	res.Points = 0
	res.Passed = 0
	res.Reason = reason
	for i := range res.Results {
		res.Results[i] = CaseResult{Reason: reason}
	}
	r.enter(Failed)
	r.span.SetStatus(codes.Error, string(reason))
	return res
}

// Grade runs sub and scores it.  Full points are awarded only when no check
// fails and every hidden case passes.  Grade never returns nil and never
// panics on user code; failures are described by the result's Reason.
func (g *Grader) Grade(ctx context.Context, sub Submission) *GradingResult {
	runID := uuid.NewString()
	ctx, span := tracerOr(g.Tracer).Start(ctx, "harness.Grade", trace.WithAttributes(
		attribute.String("rktgrade.run_id", runID),
		attribute.Int("rktgrade.cases", len(sub.HiddenCases)),
	))
	defer span.End()

	maxPoints := sub.Points
	if maxPoints <= 0 {
		maxPoints = 1
	}
	r := &gradeRun{
		log:  logging.FromContext(ctx).With("run", runID),
		span: span,
		result: &GradingResult{
			MaxPoints: maxPoints,
			Total:     len(sub.HiddenCases),
			Results:   make([]CaseResult, len(sub.HiddenCases)),
		},
	}
	r.enter(Idle)
	res := g.grade(ctx, r, sub)
	span.SetAttributes(
		attribute.Int("rktgrade.points", res.Points),
		attribute.Int("rktgrade.passed", res.Passed),
	)
	r.log.Info("Graded submission",
		"points", res.Points,
		"max_points", res.MaxPoints,
		"passed", res.Passed,
		"total", res.Total,
		"reason", string(res.Reason))
	return res
}

func (g *Grader) grade(ctx context.Context, r *gradeRun, sub Submission) *GradingResult {
	r.enter(Validating)
	if Incomplete(sub.Source) {
		return r.fail(ReasonIncomplete)
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	newEval := g.NewEvaluator
	if newEval == nil {
		newEval = DefaultEvaluator()
	}
	ev, err := newEval(ctx, io.Discard, g.MaxSteps)
	if err != nil {
		r.log.Error("Unable to create evaluator", "error", err)
		if timedOut(ctx, err) {
			return r.fail(ReasonTimeout)
		}
		return r.fail(ReasonExecutionError)
	}
	ev.Session().Reset()

	r.enter(EvaluatingPrecode)
	if err := evalProgram(ctx, ev, sub.Precode); err != nil {
		r.log.Debug("Precode failed", "error", err)
		if timedOut(ctx, err) {
			return r.fail(ReasonTimeout)
		}
		return r.fail(ReasonExecutionError)
	}

	r.enter(EvaluatingUserCode)
	if !source.Balanced(sub.Source) {
		return r.fail(ReasonSyntaxError)
	}
	if err := evalProgram(ctx, ev, sub.Source); err != nil {
		r.log.Debug("Submission failed", "error", err)
		if timedOut(ctx, err) {
			return r.fail(ReasonTimeout)
		}
		return r.fail(ReasonSyntaxError)
	}
	r.enter(RunningCases)
	errored := make([]bool, len(sub.HiddenCases))
	for i, c := range sub.HiddenCases {
		if _, err := ev.Eval(ctx, c); err != nil {
			if timedOut(ctx, err) {
				return r.fail(ReasonTimeout)
			}
			r.log.Debug("Hidden case raised an error", "case", i, "error", err)
			errored[i] = true
		}
	}

	r.enter(Scoring)
	outcome := ev.Session().Outcome()
	res := r.result
	res.Passed = outcome.Passed
	// Passes are credited in case order to the cases that ran to completion.
	credited := 0
	for i := range res.Results {
		if errored[i] {
			res.Results[i] = CaseResult{Reason: ReasonRuntimeError}
			continue
		}
		res.Results[i] = CaseResult{Passed: credited < outcome.Passed}
		credited++
	}
	if res.Total > 0 && outcome.Failed == 0 && outcome.Passed == res.Total {
		res.Points = res.MaxPoints
	}
	r.enter(Done)
	return res
}

// evalProgram evaluates the top-level forms of src, definitions first.
func evalProgram(ctx context.Context, ev Evaluator, src string) error {
	for _, form := range source.EvalOrder(source.Split(src)) {
		if _, err := ev.Eval(ctx, form.Text); err != nil {
			return err
		}
	}
	return nil
}

func timedOut(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		lisp.IsCondition(err, lisp.CondStepLimitExceeded) ||
		lisp.IsCondition(err, lisp.CondContextCancelled)
}
