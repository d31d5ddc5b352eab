package rules

import (
	"context"
	"fmt"
)

// Generator produces candidate values for RetryUntil. It may have side
// effects (rolling dice, reading input).
type Generator[T any] func(ctx context.Context) (T, error)

// RetryPolicy bounds and observes a RetryUntil loop.
type RetryPolicy[T any] struct {
	// MaxAttempts caps the number of generator calls. 0 means unbounded;
	// the loop then ends only on success, a generator error, or ctx.
	MaxAttempts int

	// OnAttempt, if set, is called after every generator call with the
	// 1-based attempt number, the value, and whether it satisfied the
	// predicate.
	OnAttempt func(attempt int, v T, satisfied bool)
}

// RetryUntil calls gen until pred holds for its value, with no attempt cap.
// It returns the satisfying value and the number of attempts made.
func RetryUntil[T any](ctx context.Context, pred Predicate[T], gen Generator[T]) (T, int, error) {
	return RetryPolicy[T]{}.Until(ctx, pred, gen)
}

// Until calls gen until pred holds for its value. It returns the value and
// the number of generator calls. When MaxAttempts is reached the returned
// error is an *ExhaustedError wrapping ErrAttemptsExhausted.
func (p RetryPolicy[T]) Until(ctx context.Context, pred Predicate[T], gen Generator[T]) (T, int, error) {
	var zero T
	if pred == nil {
		return zero, 0, NewConfigurationError("predicate", "retry predicate is nil")
	}
	if gen == nil {
		return zero, 0, NewConfigurationError("generator", "retry generator is nil")
	}
	if p.MaxAttempts < 0 {
		return zero, 0, NewConfigurationError("max_attempts", "must not be negative")
	}

	var last T
	for attempt := 1; p.MaxAttempts == 0 || attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, attempt - 1, err
		}

		v, err := gen(ctx)
		if err != nil {
			return last, attempt, fmt.Errorf("generator failed on attempt %d: %w", attempt, err)
		}
		last = v

		ok, err := pred(v)
		if err != nil {
			return last, attempt, fmt.Errorf("predicate failed on attempt %d: %w", attempt, err)
		}

		if p.OnAttempt != nil {
			p.OnAttempt(attempt, v, ok)
		}
		if ok {
			return v, attempt, nil
		}
	}

	return last, p.MaxAttempts, &ExhaustedError[T]{Attempts: p.MaxAttempts, Last: last}
}
