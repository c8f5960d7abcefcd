// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"strings"
)

// Test kinds recorded in a TestFailure.
const (
	KindCheckExpect = "check-expect"
	KindCheckWithin = "check-within"
)

// TestFailure records one failed check.  Tolerance is nil for check-expect.
type TestFailure struct {
	Kind      string
	Actual    *LVal
	Expected  *LVal
	Tolerance *LVal
}

// TestOutcome is a snapshot of a TestSession.
type TestOutcome struct {
	Passed   int
	Failed   int
	Failures []TestFailure
}

// Total returns the number of checks run.
func (o TestOutcome) Total() int {
	return o.Passed + o.Failed
}

// TestSession collects the results of check-expect and check-within for one
// evaluation run.  A session is not safe for concurrent use.
type TestSession struct {
	passed   int
	failures []TestFailure
}

// NewTestSession returns an empty session.
func NewTestSession() *TestSession {
	return &TestSession{}
}

// Reset discards all recorded results.
func (s *TestSession) Reset() {
	s.passed = 0
	s.failures = nil
}

// Pass records a passing check.
func (s *TestSession) Pass() {
	s.passed++
}

// Fail records a failing check.
func (s *TestSession) Fail(f TestFailure) {
	s.failures = append(s.failures, f)
}

// Outcome returns the results recorded so far.
func (s *TestSession) Outcome() TestOutcome {
	failures := make([]TestFailure, len(s.failures))
	copy(failures, s.failures)
	return TestOutcome{
		Passed:   s.passed,
		Failed:   len(s.failures),
		Failures: failures,
	}
}

// Summary describes the recorded results the way display-test-summary
// prints them.  Summary returns "" when no check has run.
func (s *TestSession) Summary() string {
	total := s.passed + len(s.failures)
	switch {
	case total == 0:
		return ""
	case len(s.failures) == 0 && total == 1:
		return "Your test passed!"
	case len(s.failures) == 0 && total == 2:
		return "Both your tests passed!"
	case len(s.failures) == 0:
		return fmt.Sprintf("All %d tests passed!", total)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d tests failed! ", len(s.failures), total)
	for _, f := range s.failures {
		within := ""
		if f.Tolerance != nil {
			within = " ± " + Display(f.Tolerance)
		}
		fmt.Fprintf(&b, "(%s ... ) expected %s%s, got %s; ", f.Kind, Display(f.Expected), within, Display(f.Actual))
	}
	return b.String()
}

var testBuiltins = []*langBuiltin{
	{"check-expect", Formals("actual", "expected"), builtinCheckExpect},
	{"check-within", Formals("actual", "expected", "tolerance"), builtinCheckWithin},
	{"reset-test-results", Formals(), builtinResetTestResults},
	{"display-test-summary", Formals(), builtinDisplayTestSummary},
}

func builtinCheckExpect(env *LEnv, args []*LVal) *LVal {
	s := env.Runtime.Session
	if Equal(args[0], args[1]) {
		s.Pass()
		return Bool(true)
	}
	s.Fail(TestFailure{Kind: KindCheckExpect, Actual: args[0], Expected: args[1]})
	return Bool(false)
}

func builtinCheckWithin(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("check-within", args); lerr != nil {
		return lerr
	}
	s := env.Runtime.Session
	if numCmp(numAbs(numSub(args[0], args[1])), args[2]) <= 0 {
		s.Pass()
		return Bool(true)
	}
	s.Fail(TestFailure{Kind: KindCheckWithin, Actual: args[0], Expected: args[1], Tolerance: args[2]})
	return Bool(false)
}

func builtinResetTestResults(env *LEnv, args []*LVal) *LVal {
	env.Runtime.Session.Reset()
	return Void()
}

func builtinDisplayTestSummary(env *LEnv, args []*LVal) *LVal {
	summary := env.Runtime.Session.Summary()
	if summary == "" {
		return Bool(false)
	}
	return env.stdout(summary)
}
