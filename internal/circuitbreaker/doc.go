// Package circuitbreaker implements the circuit breaker pattern for named
// operations.
//
// A circuit breaker stops calling an operation that keeps failing or keeps
// running slow, and hands control straight back to the caller so it can serve
// a fallback instead. It has three states:
//
//   - CLOSED: Normal operation, calls pass through and their outcomes are counted
//   - OPEN: Failure or slow-call rate crossed its threshold, calls are rejected
//   - HALF-OPEN: A bounded number of trial calls decide whether to close again
//
// Outcomes are kept in a count-based sliding window. Rates are evaluated only
// once the window holds the policy's minimum number of calls.
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultPolicy(), nil)
//	cb := registry.GetBreaker("getStudentById")
//	record, err := circuitbreaker.Execute(ctx, cb, func(ctx context.Context) (student.Record, error) {
//	    return lookup(ctx, id)
//	})
//	if err != nil {
//	    // serve fallback
//	}
//
// Two engines are available: the rolling-window CircuitBreaker in this package
// and an adapter over sony/gobreaker (NewGoBreaker).
package circuitbreaker
