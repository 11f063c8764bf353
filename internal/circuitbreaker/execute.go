package circuitbreaker

import (
	"context"
	"fmt"
	"time"
)

// Execute runs fn if b admits it and reports the outcome back to b. A non-nil
// error from fn, or a panic, counts as a failure, except that an error
// returned after ctx ended releases the permit without judging the call. A
// rejected call returns an error wrapping ErrOpenState or
// ErrTooManyTrialCalls without running fn.
func Execute[T any](ctx context.Context, b Breaker, fn func(context.Context) (T, error)) (result T, err error) {
	permit, err := b.Allow()
	if err != nil {
		return result, fmt.Errorf("%s: %w", b.Name(), err)
	}

	start := time.Now()
	recorded := false
	defer func() {
		if !recorded {
			permit(OutcomeFailure, time.Since(start))
		}
	}()

	result, err = fn(ctx)
	recorded = true
	permit(outcomeOf(ctx, err), time.Since(start))

	return result, err
}

func outcomeOf(ctx context.Context, err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case ctx.Err() != nil:
		return OutcomeIgnored
	default:
		return OutcomeFailure
	}
}
