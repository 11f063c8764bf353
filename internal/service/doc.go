// Package service implements the resilient query façade over the student
// store.
//
// Plain queries go straight to the store. Delayed variants suspend delivery
// of each result to simulate a slow downstream call, without holding any
// lock. Guarded variants run a query through the circuit breaker registered
// under the operation's name and turn every failure (not found, error,
// timeout, open breaker) into a fallback value logged at WARN. Guarded calls
// never return an error.
package service
