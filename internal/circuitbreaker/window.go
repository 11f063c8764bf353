package circuitbreaker

type result struct {
	failed bool
	slow   bool
}

// window is a ring of the most recent call outcomes with running totals.
type window struct {
	outcomes []result
	next     int
	size     int
	failed   int
	slow     int
}

func newWindow(capacity int) *window {
	return &window{outcomes: make([]result, capacity)}
}

func (w *window) add(o result) {
	if w.size == len(w.outcomes) {
		evicted := w.outcomes[w.next]
		if evicted.failed {
			w.failed--
		}
		if evicted.slow {
			w.slow--
		}
	} else {
		w.size++
	}

	w.outcomes[w.next] = o
	if o.failed {
		w.failed++
	}
	if o.slow {
		w.slow++
	}
	w.next = (w.next + 1) % len(w.outcomes)
}

func (w *window) reset() {
	clear(w.outcomes)
	w.next, w.size, w.failed, w.slow = 0, 0, 0, 0
}

func (w *window) counts() Counts {
	c := Counts{
		Calls:       w.size,
		FailedCalls: w.failed,
		SlowCalls:   w.slow,
	}
	if w.size > 0 {
		c.FailureRate = float64(w.failed) * 100 / float64(w.size)
		c.SlowCallRate = float64(w.slow) * 100 / float64(w.size)
	}
	return c
}
