package engine

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrLadderNotFound indicates the requested ladder is not loaded.
	ErrLadderNotFound = errors.New("ladder not found")

	// ErrContextCancelled indicates the evaluation context was cancelled.
	ErrContextCancelled = errors.New("evaluation context cancelled")

	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrEngineClosed indicates the engine has been shut down.
	ErrEngineClosed = errors.New("engine closed")
)

// LadderNotFoundError indicates an evaluation referenced an unknown ladder.
type LadderNotFoundError struct {
	Name string
}

// Error returns the error message.
func (e *LadderNotFoundError) Error() string {
	return fmt.Sprintf("ladder not found: %q", e.Name)
}

// Is reports whether target is ErrLadderNotFound.
func (e *LadderNotFoundError) Is(target error) bool {
	return target == ErrLadderNotFound
}

// EvaluationError wraps a failure raised while evaluating a ladder.
type EvaluationError struct {
	Ladder string
	Cause  error
}

// Error returns the error message.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("ladder %s: %v", e.Ladder, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// CompileError indicates a parsed ladder could not be turned into a rule set.
type CompileError struct {
	Ladder string
	Rule   string
	Cause  error
}

// Error returns the error message.
func (e *CompileError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("ladder %s rule %s: %v", e.Ladder, e.Rule, e.Cause)
	}
	return fmt.Sprintf("ladder %s: %v", e.Ladder, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// ValidationError indicates loaded ladders violate engine limits.
type ValidationError struct {
	Ladder string
	Errors []string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("ladder %s: validation error: %s", e.Ladder, e.Errors[0])
	}
	return fmt.Sprintf("ladder %s: %d validation errors: %v", e.Ladder, len(e.Errors), e.Errors)
}

// ReloadError indicates a ladder reload failure.
type ReloadError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("ladder reload failed for %q: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error {
	return e.Cause
}
