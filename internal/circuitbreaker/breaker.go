package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrOpenState         = errors.New("circuit breaker is open")
	ErrTooManyTrialCalls = errors.New("circuit breaker is half-open and out of trial calls")
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Rejecting calls
	StateHalfOpen              // Admitting trial calls
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Counts describes the outcomes a breaker is currently judging.
// Rates are percentages.
type Counts struct {
	Calls        int     `json:"calls"`
	FailedCalls  int     `json:"failed_calls"`
	SlowCalls    int     `json:"slow_calls"`
	FailureRate  float64 `json:"failure_rate"`
	SlowCallRate float64 `json:"slow_call_rate"`
}

// Outcome is what a call admitted by Allow reports back.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	// OutcomeIgnored releases the permit without judging the call, for calls
	// whose caller went away before they finished.
	OutcomeIgnored
)

// Permit reports the outcome of a call admitted by Allow. It must be called
// exactly once.
type Permit func(outcome Outcome, elapsed time.Duration)

// Breaker guards one named operation.
type Breaker interface {
	Name() string
	State() State
	Allow() (Permit, error)
}

type stateChange struct {
	from, to State
}

// CircuitBreaker is a rolling-window breaker tracking failure and slow-call
// rates over its last SlidingWindowSize calls.
type CircuitBreaker struct {
	mutex      sync.Mutex
	name       string
	policy     Policy
	state      State
	forced     bool
	generation uint64
	openedAt   time.Time
	window     *window
	trials     *window
	admitted   int
}

func NewCircuitBreaker(name string, policy Policy) *CircuitBreaker {
	policy = policy.withDefaults()

	return &CircuitBreaker{
		name:   name,
		policy: policy,
		state:  StateClosed,
		window: newWindow(policy.SlidingWindowSize),
		trials: newWindow(policy.PermittedCallsInHalfOpenState),
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Allow asks permission for one call. An OPEN breaker whose wait has elapsed
// moves to HALF-OPEN and admits the call as a trial.
func (cb *CircuitBreaker) Allow() (Permit, error) {
	cb.mutex.Lock()
	generation, change, err := cb.allow(time.Now())
	cb.mutex.Unlock()

	cb.notify(change)

	if err != nil {
		return nil, err
	}

	return func(outcome Outcome, elapsed time.Duration) {
		cb.record(generation, outcome, elapsed)
	}, nil
}

func (cb *CircuitBreaker) allow(now time.Time) (uint64, *stateChange, error) {
	var change *stateChange

	switch cb.state {
	case StateClosed:
		return cb.generation, nil, nil
	case StateOpen:
		if cb.forced || now.Sub(cb.openedAt) < cb.policy.WaitDurationInOpenState {
			return 0, nil, ErrOpenState
		}
		change = cb.transition(StateHalfOpen, now)
	}

	// HALF-OPEN
	if cb.admitted >= cb.policy.PermittedCallsInHalfOpenState {
		return 0, change, ErrTooManyTrialCalls
	}
	cb.admitted++

	return cb.generation, change, nil
}

func (cb *CircuitBreaker) record(generation uint64, outcome Outcome, elapsed time.Duration) {
	cb.mutex.Lock()

	// Outcomes of calls admitted before the last transition are dropped.
	if generation != cb.generation {
		cb.mutex.Unlock()
		return
	}

	if outcome == OutcomeIgnored {
		// A released trial frees its slot for another caller.
		if cb.state == StateHalfOpen {
			cb.admitted--
		}
		cb.mutex.Unlock()
		return
	}

	o := result{
		failed: outcome == OutcomeFailure,
		slow:   elapsed > cb.policy.SlowCallDurationThreshold,
	}

	var change *stateChange
	now := time.Now()

	switch cb.state {
	case StateClosed:
		cb.window.add(o)
		if cb.exceeded(cb.window.counts(), cb.policy.MinimumNumberOfCalls) {
			change = cb.transition(StateOpen, now)
		}
	case StateHalfOpen:
		cb.trials.add(o)
		if cb.trials.size >= cb.policy.PermittedCallsInHalfOpenState {
			if cb.exceeded(cb.trials.counts(), cb.policy.PermittedCallsInHalfOpenState) {
				change = cb.transition(StateOpen, now)
			} else {
				change = cb.transition(StateClosed, now)
			}
		}
	}

	cb.mutex.Unlock()
	cb.notify(change)
}

func (cb *CircuitBreaker) exceeded(c Counts, minimum int) bool {
	if c.Calls < minimum {
		return false
	}
	return c.FailureRate >= cb.policy.FailureRateThreshold ||
		c.SlowCallRate >= cb.policy.SlowCallRateThreshold
}

// transition must be called with the mutex held.
func (cb *CircuitBreaker) transition(to State, now time.Time) *stateChange {
	from := cb.state

	cb.state = to
	cb.generation++
	cb.window.reset()
	cb.trials.reset()
	cb.admitted = 0

	if to == StateOpen {
		cb.openedAt = now
	}

	if from == to {
		return nil
	}
	return &stateChange{from: from, to: to}
}

func (cb *CircuitBreaker) notify(change *stateChange) {
	if change == nil || cb.policy.OnStateChange == nil {
		return
	}
	cb.policy.OnStateChange(cb.name, change.from, change.to)
}

// ForceOpen pins the breaker OPEN until Reset is called.
func (cb *CircuitBreaker) ForceOpen() {
	cb.mutex.Lock()
	cb.forced = true
	change := cb.transition(StateOpen, time.Now())
	cb.mutex.Unlock()

	cb.notify(change)
}

// Reset closes the breaker and forgets every recorded outcome.
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	cb.forced = false
	change := cb.transition(StateClosed, time.Now())
	cb.mutex.Unlock()

	cb.notify(change)
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Counts returns the sliding window's totals, or the trial totals while
// HALF-OPEN.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == StateHalfOpen {
		return cb.trials.counts()
	}
	return cb.window.counts()
}
