package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/angeloszaimis/student-service/internal/circuitbreaker"
	"github.com/angeloszaimis/student-service/internal/metrics"
	"github.com/angeloszaimis/student-service/internal/student"
)

// guard runs fn through the breaker registered for operation and reports
// the outcome to the metrics collector.
func guard[T any](ctx context.Context, s *StudentService, operation string, fn func(context.Context) (T, error)) (T, error) {
	cb := s.breakers.GetBreaker(operation)

	start := time.Now()
	result, err := circuitbreaker.Execute(ctx, cb, fn)
	elapsed := time.Since(start)

	outcome := outcomeOf(ctx, err)
	s.metrics.Emit(metrics.MetricEvent{
		Type:      outcome,
		Operation: operation,
		Duration:  elapsed,
		Slow:      judged(outcome) && elapsed > s.breakers.Policy().SlowCallDurationThreshold,
	})

	return result, err
}

// outcomeOf classifies a guarded call. A call that failed after ctx ended was
// abandoned by its caller and is not held against the operation.
func outcomeOf(ctx context.Context, err error) metrics.EventType {
	switch {
	case err == nil:
		return metrics.EventCallSucceeded
	case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyTrialCalls):
		return metrics.EventCallRejected
	case ctx.Err() != nil:
		return metrics.EventCallCancelled
	case errors.Is(err, ErrTimeout):
		return metrics.EventCallTimedOut
	default:
		return metrics.EventCallFailed
	}
}

func judged(outcome metrics.EventType) bool {
	return outcome != metrics.EventCallRejected && outcome != metrics.EventCallCancelled
}

// callWithTimeout runs fn in its own goroutine and abandons it, cancelling
// its context, once timeout elapses.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		value, err := fn(ctx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return r.value, timeoutError(timeout)
		}
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, timeoutError(timeout)
		}
		return zero, ctx.Err()
	}
}

var errElementTimeout = errors.New("element timeout")

// collectWithin drains the sequence built by list, failing when the gap
// before any element exceeds timeout.
func collectWithin(ctx context.Context, timeout time.Duration, list func(context.Context) iter.Seq2[student.Record, error]) ([]student.Record, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	timer := time.AfterFunc(timeout, func() { cancel(errElementTimeout) })
	defer timer.Stop()

	var records []student.Record
	for record, err := range list(ctx) {
		if err != nil {
			if errors.Is(context.Cause(ctx), errElementTimeout) {
				return nil, timeoutError(timeout)
			}
			return nil, err
		}
		if !timer.Stop() {
			return nil, timeoutError(timeout)
		}
		records = append(records, record)
		timer.Reset(timeout)
	}

	return records, nil
}

func timeoutError(timeout time.Duration) error {
	return fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, context.DeadlineExceeded)
}

// sleep waits for d or until ctx ends, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StateChangeHook logs breaker transitions and forwards them to collector.
// It is meant for circuitbreaker.Policy.OnStateChange.
func StateChangeHook(logger *slog.Logger, collector *metrics.Collector) func(name string, from, to circuitbreaker.State) {
	return func(name string, from, to circuitbreaker.State) {
		level := slog.LevelInfo
		if to == circuitbreaker.StateOpen {
			level = slog.LevelWarn
		}

		logger.Log(context.Background(), level, "Circuit breaker state changed",
			slog.String("operation", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()))

		collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventStateChanged,
			Operation: name,
			State:     to.String(),
		})
	}
}
