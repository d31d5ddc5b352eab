package rules

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrConfiguration indicates a malformed rule set, range, or option.
	ErrConfiguration = errors.New("invalid rule configuration")

	// ErrMismatchedType indicates a predicate could not judge its input.
	ErrMismatchedType = errors.New("mismatched type")

	// ErrAttemptsExhausted indicates RetryUntil hit its attempt cap.
	ErrAttemptsExhausted = errors.New("retry attempts exhausted")
)

// ConfigurationError reports a programmer error in how a rule set or
// combinator was built. It is never retried.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Message: message,
	}
}

// MismatchedTypeError indicates a predicate cannot evaluate an input of the
// given type, e.g. ordering a string against a number.
type MismatchedTypeError struct {
	Operator     string
	ExpectedType string
	ActualType   string
}

// Error returns the error message.
func (e *MismatchedTypeError) Error() string {
	if e.Operator == "" {
		return fmt.Sprintf("mismatched type: expected %s, got %s", e.ExpectedType, e.ActualType)
	}
	return fmt.Sprintf("mismatched type for %q: expected %s, got %s", e.Operator, e.ExpectedType, e.ActualType)
}

// Is reports whether target is ErrMismatchedType.
func (e *MismatchedTypeError) Is(target error) bool {
	return target == ErrMismatchedType
}

// NewMismatchedTypeError creates a MismatchedTypeError describing the
// actual dynamic type of value.
func NewMismatchedTypeError(operator, expectedType string, value any) *MismatchedTypeError {
	return &MismatchedTypeError{
		Operator:     operator,
		ExpectedType: expectedType,
		ActualType:   fmt.Sprintf("%T", value),
	}
}

// RuleError wraps an error raised by a predicate with the position of the
// rule that raised it.
type RuleError struct {
	Index int
	Name  string
	Cause error
}

// Error returns the error message.
func (e *RuleError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rule %d (%s): %v", e.Index, e.Name, e.Cause)
	}
	return fmt.Sprintf("rule %d: %v", e.Index, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RuleError) Unwrap() error {
	return e.Cause
}

// ExhaustedError is returned by RetryUntil when the attempt cap is reached
// without a satisfying value. Last holds the final generated value.
type ExhaustedError[T any] struct {
	Attempts int
	Last     T
}

// Error returns the error message.
func (e *ExhaustedError[T]) Error() string {
	return fmt.Sprintf("%v after %d attempts", ErrAttemptsExhausted, e.Attempts)
}

// Unwrap returns ErrAttemptsExhausted.
func (e *ExhaustedError[T]) Unwrap() error {
	return ErrAttemptsExhausted
}
