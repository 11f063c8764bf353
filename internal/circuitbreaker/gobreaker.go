package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	errCallFailed  = errors.New("call failed")
	errSlowCall    = errors.New("slow call")
	errCallIgnored = errors.New("call ignored")
)

// goBreaker adapts a sony/gobreaker two-step breaker to Breaker.
//
// gobreaker only knows success and failure, so slow calls are reported to it
// as failures and judged against FailureRateThreshold. Its counts cover the
// current generation rather than a sliding window.
type goBreaker struct {
	cb   *gobreaker.TwoStepCircuitBreaker[any]
	slow time.Duration
}

// NewGoBreaker builds a Breaker backed by sony/gobreaker. It satisfies
// Factory.
func NewGoBreaker(name string, policy Policy) Breaker {
	p := policy.withDefaults()
	minimum := uint32(p.MinimumNumberOfCalls)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(p.PermittedCallsInHalfOpenState),
		Timeout:     p.WaitDurationInOpenState,
		IsExcluded: func(err error) bool {
			return errors.Is(err, errCallIgnored)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minimum {
				return false
			}
			rate := float64(counts.TotalFailures) * 100 / float64(counts.Requests)
			return rate >= p.FailureRateThreshold
		},
	}

	if p.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			p.OnStateChange(name, fromGoState(from), fromGoState(to))
		}
	}

	return &goBreaker{
		cb:   gobreaker.NewTwoStepCircuitBreaker[any](settings),
		slow: p.SlowCallDurationThreshold,
	}
}

func (b *goBreaker) Name() string {
	return b.cb.Name()
}

func (b *goBreaker) State() State {
	return fromGoState(b.cb.State())
}

func (b *goBreaker) Allow() (Permit, error) {
	done, err := b.cb.Allow()
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState):
			return nil, ErrOpenState
		case errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, ErrTooManyTrialCalls
		default:
			return nil, err
		}
	}

	return func(outcome Outcome, elapsed time.Duration) {
		switch {
		case outcome == OutcomeIgnored:
			done(errCallIgnored)
		case outcome == OutcomeFailure:
			done(errCallFailed)
		case elapsed > b.slow:
			done(errSlowCall)
		default:
			done(nil)
		}
	}, nil
}

func (b *goBreaker) Counts() Counts {
	counts := b.cb.Counts()

	c := Counts{
		Calls:       int(counts.Requests),
		FailedCalls: int(counts.TotalFailures),
	}
	if counts.Requests > 0 {
		c.FailureRate = float64(counts.TotalFailures) * 100 / float64(counts.Requests)
	}
	return c
}

func fromGoState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
