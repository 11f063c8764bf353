package circuitbreaker

import "time"

const (
	DefaultFailureRateThreshold          = 10.0
	DefaultSlowCallRateThreshold         = 5.0
	DefaultSlowCallDurationThreshold     = 2 * time.Second
	DefaultTimeout                       = 3 * time.Second
	DefaultSlidingWindowSize             = 100
	DefaultMinimumNumberOfCalls          = 100
	DefaultWaitDurationInOpenState       = 60 * time.Second
	DefaultPermittedCallsInHalfOpenState = 10
)

// Policy configures every breaker created by a Registry.
type Policy struct {
	// Percentages in (0, 100].
	FailureRateThreshold  float64
	SlowCallRateThreshold float64

	// A call running longer than this counts as slow, even when it succeeds.
	SlowCallDurationThreshold time.Duration

	// Timeout bounds a guarded call. It is enforced by the caller of Execute,
	// the breaker only sees the resulting failure.
	Timeout time.Duration

	SlidingWindowSize             int
	MinimumNumberOfCalls          int
	WaitDurationInOpenState       time.Duration
	PermittedCallsInHalfOpenState int

	OnStateChange func(name string, from, to State)
}

// DefaultPolicy returns the fixed thresholds the service runs with.
func DefaultPolicy() Policy {
	return Policy{
		FailureRateThreshold:          DefaultFailureRateThreshold,
		SlowCallRateThreshold:         DefaultSlowCallRateThreshold,
		SlowCallDurationThreshold:     DefaultSlowCallDurationThreshold,
		Timeout:                       DefaultTimeout,
		SlidingWindowSize:             DefaultSlidingWindowSize,
		MinimumNumberOfCalls:          DefaultMinimumNumberOfCalls,
		WaitDurationInOpenState:       DefaultWaitDurationInOpenState,
		PermittedCallsInHalfOpenState: DefaultPermittedCallsInHalfOpenState,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()

	if p.FailureRateThreshold <= 0 {
		p.FailureRateThreshold = d.FailureRateThreshold
	}
	if p.SlowCallRateThreshold <= 0 {
		p.SlowCallRateThreshold = d.SlowCallRateThreshold
	}
	if p.SlowCallDurationThreshold <= 0 {
		p.SlowCallDurationThreshold = d.SlowCallDurationThreshold
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.SlidingWindowSize <= 0 {
		p.SlidingWindowSize = d.SlidingWindowSize
	}
	if p.MinimumNumberOfCalls <= 0 {
		p.MinimumNumberOfCalls = d.MinimumNumberOfCalls
	}
	// A count-based window can never hold more than its size.
	if p.MinimumNumberOfCalls > p.SlidingWindowSize {
		p.MinimumNumberOfCalls = p.SlidingWindowSize
	}
	if p.WaitDurationInOpenState <= 0 {
		p.WaitDurationInOpenState = d.WaitDurationInOpenState
	}
	if p.PermittedCallsInHalfOpenState <= 0 {
		p.PermittedCallsInHalfOpenState = d.PermittedCallsInHalfOpenState
	}

	return p
}
