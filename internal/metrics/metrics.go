package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex       sync.RWMutex
	outcomes    map[string]map[EventType]int64
	slowCalls   map[string]int64
	fallbacks   map[string]int64
	durations   map[string][]time.Duration
	states      map[string]string
	transitions map[string]int64
	startTime   time.Time
}

type Snapshot struct {
	TotalCalls int64                       `json:"total_calls"`
	Uptime     time.Duration               `json:"uptime"`
	Operations map[string]OperationMetrics `json:"operations"`
}

type OperationMetrics struct {
	Calls       int64         `json:"calls"`
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	Timeouts    int64         `json:"timeouts"`
	Rejections  int64         `json:"rejections"`
	Cancelled   int64         `json:"cancelled"`
	SlowCalls   int64         `json:"slow_calls"`
	Fallbacks   int64         `json:"fallbacks"`
	State       string        `json:"state,omitempty"`
	Transitions int64         `json:"transitions"`
	AvgDuration time.Duration `json:"avg_duration"`
	P50Duration time.Duration `json:"p50_duration"`
	P95Duration time.Duration `json:"p95_duration"`
	P99Duration time.Duration `json:"p99_duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		outcomes:    make(map[string]map[EventType]int64),
		slowCalls:   make(map[string]int64),
		fallbacks:   make(map[string]int64),
		durations:   make(map[string][]time.Duration),
		states:      make(map[string]string),
		transitions: make(map[string]int64),
		startTime:   time.Now(),
	}
}

// RecordCall counts one call outcome. Rejected calls never ran, so their
// duration is not sampled.
func (m *Metrics) RecordCall(operation string, outcome EventType, duration time.Duration, slow bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.outcomes[operation] == nil {
		m.outcomes[operation] = make(map[EventType]int64)
	}
	m.outcomes[operation][outcome]++

	if slow {
		m.slowCalls[operation]++
	}

	if outcome == EventCallRejected {
		return
	}

	m.durations[operation] = append(m.durations[operation], duration)
	if len(m.durations[operation]) > maxSamples {
		m.durations[operation] = m.durations[operation][1:]
	}
}

func (m *Metrics) RecordFallback(operation string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.fallbacks[operation]++
}

func (m *Metrics) UpdateState(operation, state string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.states[operation] = state
	m.transitions[operation]++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:     time.Since(m.startTime),
		Operations: make(map[string]OperationMetrics),
	}

	// Collect all operation names
	all := make(map[string]bool)
	for op := range m.outcomes {
		all[op] = true
	}
	for op := range m.fallbacks {
		all[op] = true
	}
	for op := range m.states {
		all[op] = true
	}

	for op := range all {
		outcomes := m.outcomes[op]

		om := OperationMetrics{
			Successes:   outcomes[EventCallSucceeded],
			Failures:    outcomes[EventCallFailed],
			Timeouts:    outcomes[EventCallTimedOut],
			Rejections:  outcomes[EventCallRejected],
			Cancelled:   outcomes[EventCallCancelled],
			SlowCalls:   m.slowCalls[op],
			Fallbacks:   m.fallbacks[op],
			State:       m.states[op],
			Transitions: m.transitions[op],
		}
		om.Calls = om.Successes + om.Failures + om.Timeouts + om.Rejections + om.Cancelled
		snap.TotalCalls += om.Calls

		durations := m.durations[op]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			om.AvgDuration = average(sorted)
			om.P50Duration = percentile(sorted, 0.50)
			om.P95Duration = percentile(sorted, 0.95)
			om.P99Duration = percentile(sorted, 0.99)
		}

		snap.Operations[op] = om
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
