package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/student-service/internal/circuitbreaker"
)

const (
	fast = 10 * time.Millisecond
	slow = 3 * time.Second
)

// testPolicy opens after 10 calls and waits 100ms before probing.
func testPolicy() circuitbreaker.Policy {
	p := circuitbreaker.DefaultPolicy()
	p.SlidingWindowSize = 10
	p.MinimumNumberOfCalls = 10
	p.WaitDurationInOpenState = 100 * time.Millisecond
	p.PermittedCallsInHalfOpenState = 2
	return p
}

// record runs one admitted call through cb.
func record(cb circuitbreaker.Breaker, outcome circuitbreaker.Outcome, elapsed time.Duration) {
	GinkgoHelper()
	permit, err := cb.Allow()
	Expect(err).NotTo(HaveOccurred())
	permit(outcome, elapsed)
}

func succeed(cb circuitbreaker.Breaker, n int) {
	GinkgoHelper()
	for i := 0; i < n; i++ {
		record(cb, circuitbreaker.OutcomeSuccess, fast)
	}
}

func failOnce(cb circuitbreaker.Breaker) {
	GinkgoHelper()
	record(cb, circuitbreaker.OutcomeFailure, fast)
}

var _ = Describe("CircuitBreaker", func() {
	var cb *circuitbreaker.CircuitBreaker

	Describe("NewCircuitBreaker", func() {
		It("should create a circuit breaker in closed state", func() {
			cb = circuitbreaker.NewCircuitBreaker("getStudentById", circuitbreaker.DefaultPolicy())
			Expect(cb).NotTo(BeNil())
			Expect(cb.Name()).To(Equal("getStudentById"))
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should fill missing policy fields with defaults", func() {
			cb = circuitbreaker.NewCircuitBreaker("x", circuitbreaker.Policy{})
			succeed(cb, 99)
			failOnce(cb)
			// 1% failures over the default window of 100 stays below 10%
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Counts().Calls).To(Equal(100))
		})
	})

	Describe("State transitions", func() {
		BeforeEach(func() {
			cb = circuitbreaker.NewCircuitBreaker("op", testPolicy())
		})

		Context("when in CLOSED state", func() {
			It("should allow requests", func() {
				permit, err := cb.Allow()
				Expect(err).NotTo(HaveOccurred())
				Expect(permit).NotTo(BeNil())
			})

			It("should not judge rates before the minimum number of calls", func() {
				for i := 0; i < 9; i++ {
					failOnce(cb)
				}
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			})

			It("should not count released calls", func() {
				for i := 0; i < 10; i++ {
					record(cb, circuitbreaker.OutcomeIgnored, slow)
				}
				Expect(cb.Counts().Calls).To(Equal(0))
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			})

			It("should judge only the most recent calls", func() {
				succeed(cb, 10)
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
				failOnce(cb)
				// the oldest success is evicted: 1 failure out of 10 is 10%
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should transition to OPEN when the failure rate reaches 10%", func() {
				succeed(cb, 9)
				failOnce(cb)
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should transition to OPEN when the slow-call rate reaches 5%", func() {
				succeed(cb, 9)
				record(cb, circuitbreaker.OutcomeSuccess, slow)
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should count only calls longer than the slow threshold as slow", func() {
				succeed(cb, 5)
				record(cb, circuitbreaker.OutcomeSuccess, 2 * time.Second)
				Expect(cb.Counts().SlowCalls).To(Equal(0))
				record(cb, circuitbreaker.OutcomeSuccess, 2*time.Second + time.Millisecond)
				Expect(cb.Counts().SlowCalls).To(Equal(1))
			})

			It("should evict the oldest outcomes from the window", func() {
				cb = circuitbreaker.NewCircuitBreaker("op", circuitbreaker.Policy{
					SlidingWindowSize:    10,
					MinimumNumberOfCalls: 10,
					FailureRateThreshold: 50,
				})
				for i := 0; i < 4; i++ {
					failOnce(cb)
				}
				succeed(cb, 10)
				counts := cb.Counts()
				Expect(counts.Calls).To(Equal(10))
				Expect(counts.FailedCalls).To(Equal(0))
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			})
		})

		Context("when in OPEN state", func() {
			BeforeEach(func() {
				// Trip the circuit
				succeed(cb, 9)
				failOnce(cb)
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should block requests", func() {
				_, err := cb.Allow()
				Expect(err).To(MatchError(circuitbreaker.ErrOpenState))
			})

			It("should transition to HALF-OPEN after the wait duration", func() {
				time.Sleep(150 * time.Millisecond)
				_, err := cb.Allow()
				Expect(err).NotTo(HaveOccurred())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})

			It("should remain OPEN before the wait duration expires", func() {
				time.Sleep(20 * time.Millisecond)
				_, err := cb.Allow()
				Expect(err).To(HaveOccurred())
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should start with an empty window", func() {
				Expect(cb.Counts().Calls).To(Equal(0))
			})
		})

		Context("when in HALF-OPEN state", func() {
			var first, second circuitbreaker.Permit

			BeforeEach(func() {
				succeed(cb, 9)
				failOnce(cb)
				time.Sleep(150 * time.Millisecond)

				var err error
				first, err = cb.Allow()
				Expect(err).NotTo(HaveOccurred())
				second, err = cb.Allow()
				Expect(err).NotTo(HaveOccurred())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})

			It("should reject calls beyond the permitted trials", func() {
				_, err := cb.Allow()
				Expect(err).To(MatchError(circuitbreaker.ErrTooManyTrialCalls))
			})

			It("should wait for every trial before deciding", func() {
				first(circuitbreaker.OutcomeSuccess, fast)
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})

			It("should transition to CLOSED when the trials succeed", func() {
				first(circuitbreaker.OutcomeSuccess, fast)
				second(circuitbreaker.OutcomeSuccess, fast)
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			})

			It("should transition back to OPEN when a trial fails", func() {
				first(circuitbreaker.OutcomeSuccess, fast)
				second(circuitbreaker.OutcomeFailure, fast)
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should free the slot of a released trial", func() {
				first(circuitbreaker.OutcomeIgnored, fast)
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))

				third, err := cb.Allow()
				Expect(err).NotTo(HaveOccurred())
				third(circuitbreaker.OutcomeSuccess, fast)
				second(circuitbreaker.OutcomeSuccess, fast)
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			})

			It("should transition back to OPEN when a trial is slow", func() {
				first(circuitbreaker.OutcomeSuccess, slow)
				second(circuitbreaker.OutcomeSuccess, fast)
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})
		})
	})

	Describe("stale permits", func() {
		It("should ignore outcomes of calls admitted before a transition", func() {
			cb = circuitbreaker.NewCircuitBreaker("op", testPolicy())
			permit, err := cb.Allow()
			Expect(err).NotTo(HaveOccurred())

			cb.ForceOpen()
			cb.Reset()

			permit(circuitbreaker.OutcomeFailure, fast)
			Expect(cb.Counts().Calls).To(Equal(0))
		})
	})

	Describe("ForceOpen and Reset", func() {
		BeforeEach(func() {
			cb = circuitbreaker.NewCircuitBreaker("op", testPolicy())
		})

		It("should keep rejecting after the wait duration while forced", func() {
			cb.ForceOpen()
			time.Sleep(150 * time.Millisecond)
			_, err := cb.Allow()
			Expect(err).To(MatchError(circuitbreaker.ErrOpenState))
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should close the circuit and clear the window", func() {
			succeed(cb, 3)
			cb.ForceOpen()
			cb.Reset()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Counts()).To(Equal(circuitbreaker.Counts{}))
			_, err := cb.Allow()
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("OnStateChange", func() {
		It("should report each transition", func() {
			type change struct{ from, to circuitbreaker.State }
			var changes []change

			p := testPolicy()
			p.OnStateChange = func(name string, from, to circuitbreaker.State) {
				Expect(name).To(Equal("op"))
				changes = append(changes, change{from, to})
			}
			cb = circuitbreaker.NewCircuitBreaker("op", p)

			succeed(cb, 9)
			failOnce(cb)
			time.Sleep(150 * time.Millisecond)
			_, err := cb.Allow()
			Expect(err).NotTo(HaveOccurred())
			cb.Reset()

			Expect(changes).To(Equal([]change{
				{circuitbreaker.StateClosed, circuitbreaker.StateOpen},
				{circuitbreaker.StateOpen, circuitbreaker.StateHalfOpen},
				{circuitbreaker.StateHalfOpen, circuitbreaker.StateClosed},
			}))
		})
	})

	Describe("State.String", func() {
		It("should return correct string representation", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF-OPEN"))
			Expect(circuitbreaker.State(42).String()).To(Equal("UNKNOWN"))
		})
	})
})
