package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/student-service/internal/circuitbreaker"
)

var _ = Describe("GoBreaker", func() {
	var (
		cb      circuitbreaker.Breaker
		changes []circuitbreaker.State
	)

	call := func(failed bool, elapsed time.Duration) error {
		permit, err := cb.Allow()
		if err != nil {
			return err
		}
		outcome := circuitbreaker.OutcomeSuccess
		if failed {
			outcome = circuitbreaker.OutcomeFailure
		}
		permit(outcome, elapsed)
		return nil
	}

	BeforeEach(func() {
		changes = nil
		p := testPolicy()
		p.OnStateChange = func(_ string, _, to circuitbreaker.State) {
			changes = append(changes, to)
		}
		cb = circuitbreaker.NewGoBreaker("getStudentById", p)
	})

	It("should start closed", func() {
		Expect(cb.Name()).To(Equal("getStudentById"))
		Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
	})

	It("should open once the failure rate reaches the threshold", func() {
		for i := 0; i < 9; i++ {
			Expect(call(false, fast)).To(Succeed())
		}
		Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))

		Expect(call(true, fast)).To(Succeed())
		Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		Expect(call(false, fast)).To(MatchError(circuitbreaker.ErrOpenState))
		Expect(changes).To(Equal([]circuitbreaker.State{circuitbreaker.StateOpen}))
	})

	It("should report slow calls as failures", func() {
		for i := 0; i < 9; i++ {
			Expect(call(false, fast)).To(Succeed())
		}
		Expect(call(false, slow)).To(Succeed())
		Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
	})

	It("should count a slow success as a failure", func() {
		Expect(call(false, slow)).To(Succeed())

		counter := cb.(interface{ Counts() circuitbreaker.Counts })
		Expect(counter.Counts().Calls).To(Equal(1))
		Expect(counter.Counts().FailedCalls).To(Equal(1))
	})

	It("should not count released calls", func() {
		for i := 0; i < 10; i++ {
			permit, err := cb.Allow()
			Expect(err).NotTo(HaveOccurred())
			permit(circuitbreaker.OutcomeIgnored, fast)
		}

		counter := cb.(interface{ Counts() circuitbreaker.Counts })
		Expect(counter.Counts().FailedCalls).To(Equal(0))
		Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
	})

	It("should probe after the wait duration", func() {
		for i := 0; i < 10; i++ {
			Expect(call(true, fast)).To(Succeed())
		}
		Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))

		time.Sleep(150 * time.Millisecond)
		Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))

		Expect(call(false, fast)).To(Succeed())
		Expect(call(false, fast)).To(Succeed())
		Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
	})

	It("should expose counts", func() {
		Expect(call(true, fast)).To(Succeed())
		Expect(call(false, fast)).To(Succeed())

		counter, ok := cb.(interface{ Counts() circuitbreaker.Counts })
		Expect(ok).To(BeTrue())
		Expect(counter.Counts().Calls).To(Equal(2))
		Expect(counter.Counts().FailedCalls).To(Equal(1))
		Expect(counter.Counts().FailureRate).To(BeNumerically("~", 50.0))
	})
})
