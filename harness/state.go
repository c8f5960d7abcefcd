// Copyright © 2024 The ELPS authors

package harness

// State is a phase of one grading invocation.
type State uint8

const (
	Idle State = iota
	Validating
	EvaluatingPrecode
	EvaluatingUserCode
	RunningCases
	Scoring
	Done
	Failed
)

var stateNames = [...]string{
	Idle:               "idle",
	Validating:         "validating",
	EvaluatingPrecode:  "evaluating-precode",
	EvaluatingUserCode: "evaluating-user-code",
	RunningCases:       "running-cases",
	Scoring:            "scoring",
	Done:               "done",
	Failed:             "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText encodes s by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Reason explains why a grading run awarded no points.
type Reason string

const (
	ReasonNone Reason = ""
	// ReasonIncomplete is given for empty submissions and submissions
	// ending with an ellipsis placeholder.
	ReasonIncomplete Reason = "Incomplete code"
	// ReasonSyntaxError is given when the submission fails to read or
	// raises an error while its top-level forms run.
	ReasonSyntaxError Reason = "Syntax error in code"
	// ReasonTimeout is given when the run exceeds its time or step budget.
	ReasonTimeout Reason = "Execution timed out"
	// ReasonExecutionError is given when the question's setup code fails.
	ReasonExecutionError Reason = "Execution error"
	// ReasonRuntimeError marks a single hidden case that raised an error.
	ReasonRuntimeError Reason = "Runtime error"
)
