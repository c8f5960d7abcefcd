// Copyright © 2024 The ELPS authors

package lisp

// Parse error condition names. These are stable API for programmatic
// error classification in LSP and tooling integrations.
const (
	CondParseError      = "parse-error"
	CondScanError       = "scan-error"
	CondUnmatchedSyntax = "unmatched-syntax"
)

// Evaluation error conditions.
const (
	CondUnboundSymbol     = "unbound-symbol"
	CondTypeError         = "type-error"
	CondArityError        = "arity-error"
	CondSyntaxError       = "syntax-error"
	CondArithmeticError   = "arithmetic-error"
	CondUserError         = "user-error"
	CondStepLimitExceeded = "step-limit-exceeded"
	CondContextCancelled  = "context-cancelled"
)

// StepLimitMessage is the message of the error raised when an evaluation
// exceeds its step ceiling.
const StepLimitMessage = "Execution step limit exceeded"

// Conditions raised by the machine itself.
const (
	CondStackOverflow = "stack-overflow"
	CondInterrupted   = "interrupted"
)
