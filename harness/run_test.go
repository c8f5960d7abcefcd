// Copyright © 2024 The ELPS authors

package harness

import (
	"context"
	"testing"

	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/problem"
	"github.com/luthersystems/rktgrade/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		messages []Message
	}{
		{
			name:     "empty",
			src:      " ; just a comment\n",
			messages: []Message{{Info, MsgNoCode}},
		},
		{
			name:     "definitions only",
			src:      doubleSource,
			messages: nil,
		},
		{
			name:     "display output alone",
			src:      `(display "hi")`,
			messages: []Message{{Output, "hi"}, {Info, MsgSuccess}},
		},
		{
			name:     "void result",
			src:      "(void)",
			messages: []Message{{Info, MsgSuccess}},
		},
		{
			name:     "match",
			src:      "(match (list 1 2) [(list a b) (+ a b)] [_ 0])",
			messages: []Message{{Result, "3"}},
		},
		{
			name:     "struct",
			src:      "(point-x (make-point 3 4))\n(define-struct point (x y))\n(make-point 3 4)",
			messages: []Message{{Result, "3"}, {Result, "(point 3 4)"}},
		},
		{
			name:     "accessors read any struct instance",
			src:      "(define-struct a (x))\n(define-struct b (y))\n(a-x (make-b 5))\n(a? (make-b 5))",
			messages: []Message{{Result, "5"}, {Result, "false"}},
		},
		{
			name: "output and results in order",
			src:  `(display "hi") (+ 1 2) (list #t #f '())`,
			messages: []Message{
				{Output, "hi"},
				{Result, "3"},
				{Result, "(true false empty)"},
			},
		},
		{
			name: "tests report a summary",
			src:  doubleSource + "(check-expect (double 2) 4)\n(check-expect (double 2) 5)",
			messages: []Message{
				{Output, "1/2 tests failed! (check-expect ... ) expected 5, got 4; "},
			},
		},
		{
			name: "error stops the run",
			src:  "(display 1)\n(car '())\n(display 2)",
			messages: []Message{
				{Output, "1"},
				{Error, "Your code has an error: car: contract violation, expected: pair?, given: empty"},
			},
		},
	}
	rn := NewRunner(store.NewMemory())
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			report := rn.Run(context.Background(), RunRequest{Source: test.src})
			assert.Equal(t, test.messages, report.Messages)
		})
	}
}

func TestRunStepLimit(t *testing.T) {
	rn := NewRunner(nil)
	rn.MaxSteps = 100000
	report := rn.Run(context.Background(), RunRequest{Source: `
(define (loop n) (loop (+ n 1)))
(loop 0)`})
	require.Error(t, report.Err)
	assert.True(t, lisp.IsCondition(report.Err, lisp.CondStepLimitExceeded))
	require.NotEmpty(t, report.Messages)
	assert.Equal(t, Message{Error, "Your code has an error: " + lisp.StepLimitMessage}, report.Messages[len(report.Messages)-1])
}

func TestRunProblem(t *testing.T) {
	p := &problem.Problem{
		ID:          "double",
		StarterCode: "(define (double x)\n  ...)",
		HiddenCases: []string{"(check-expect (double 2) 4)", "(check-expect (double 0) 0)"},
	}
	st := store.NewMemory()
	rn := NewRunner(st)

	report := rn.Run(context.Background(), RunRequest{Source: doubleSource + "(double 4)", Problem: p})
	require.NoError(t, report.Err)
	assert.True(t, report.Completed)
	assert.Equal(t, []Message{
		{Result, "8"},
		{Output, "Both your tests passed!"},
		{Success, MsgAllHidden},
		{Success, MsgAutoCompleted},
	}, report.Messages)
	done, err := store.GetBool(st, store.ProblemCompleted("double"))
	require.NoError(t, err)
	assert.True(t, done)

	// Already complete.
	report = rn.Run(context.Background(), RunRequest{Source: doubleSource, Problem: p})
	assert.False(t, report.Completed)
	assert.Equal(t, []Message{{Output, "Both your tests passed!"}}, report.Messages)
}

func TestRunProblemFailing(t *testing.T) {
	p := &problem.Problem{
		ID:          "double",
		StarterCode: "(define (double x) ...)",
		HiddenCases: []string{"(check-expect (double 2) 4)"},
	}
	st := store.NewMemory()
	report := NewRunner(st).Run(context.Background(), RunRequest{Source: "(define (double x) (+ x 1))", Problem: p})
	assert.False(t, report.Completed)
	assert.Equal(t, 1, report.Outcome.Failed)
	done, err := store.GetBool(st, store.ProblemCompleted("double"))
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRunMissingFunction(t *testing.T) {
	p := &problem.Problem{
		ID:          "double",
		StarterCode: "(define (double x) ...)",
		HiddenCases: []string{"(check-expect (double 2) 4)"},
	}
	report := NewRunner(store.NewMemory()).Run(context.Background(), RunRequest{
		Source:  "(define (triple x) (* 3 x))",
		Problem: p,
	})
	require.Error(t, report.Err)
	assert.Equal(t, []Message{
		{Error, `Error: You must define the function "double" to complete this problem.`},
		{Error, MsgDeleteNotOK},
	}, report.Messages)
}

func TestDisplayText(t *testing.T) {
	tests := []struct{ in, out string }{
		{"#t", "true"},
		{"(#f ())", "(false empty)"},
		{"(posn struct-instance 1 2)", "(posn 1 2)"},
		{"plain", "plain"},
	}
	for _, test := range tests {
		assert.Equal(t, test.out, DisplayText(test.in))
	}
}
