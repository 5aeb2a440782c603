package engine

import "fmt"

// ValidationError reports caller misuse at match creation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports an operation against the wrong lifecycle state.
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: invalid state %q", e.Op, e.State)
}

// MatchRuntimeError wraps an uncaught failure inside a turn loop.
type MatchRuntimeError struct {
	MatchID string
	Cause   error
}

func (e *MatchRuntimeError) Error() string {
	return fmt.Sprintf("match %s: %v", e.MatchID, e.Cause)
}

func (e *MatchRuntimeError) Unwrap() error { return e.Cause }
