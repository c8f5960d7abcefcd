// Copyright © 2018 The ELPS authors

package lisp

// Profiler observes calls to functions defined in lisp.
type Profiler interface {
	// Is the profiler enabled?
	IsEnabled() bool
	// Enable the profiler
	Enable() error
	// End the profiling session and flush any pending output
	Complete() error
	// Start marks the start of a call to fun and returns a function marking
	// its end.
	Start(fun *LVal) func()
}
