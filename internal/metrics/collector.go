package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventCallSucceeded  EventType = "call_succeeded"
	EventCallFailed     EventType = "call_failed"
	EventCallTimedOut   EventType = "call_timed_out"
	EventCallRejected   EventType = "call_rejected"
	EventCallCancelled  EventType = "call_cancelled"
	EventFallbackServed EventType = "fallback_served"
	EventStateChanged   EventType = "state_changed"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Operation string
	Duration  time.Duration
	Slow      bool
	State     string
}

type Collector struct {
	eventCh    chan MetricEvent
	metrics    *Metrics
	prometheus *promMetrics
	logger     *slog.Logger
}

// NewCollector builds a collector whose Prometheus series are registered on
// reg. A nil reg keeps the series unregistered.
func NewCollector(bufferSize int, logger *slog.Logger, reg Registerer) *Collector {
	return &Collector{
		eventCh:    make(chan MetricEvent, bufferSize),
		metrics:    NewMetrics(),
		prometheus: newPromMetrics(reg),
		logger:     logger,
	}
}

// Emit queues event without blocking; it is dropped when the buffer is full.
// Emit is safe on a nil Collector.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event",
			slog.String("type", string(event.Type)),
			slog.String("operation", event.Operation))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventCallSucceeded, EventCallFailed, EventCallTimedOut, EventCallRejected, EventCallCancelled:
		c.prometheus.observeCall(event)
		c.metrics.RecordCall(event.Operation, event.Type, event.Duration, event.Slow)

	case EventFallbackServed:
		c.prometheus.fallbacks.WithLabelValues(event.Operation).Inc()
		c.metrics.RecordFallback(event.Operation)

	case EventStateChanged:
		c.prometheus.observeState(event.Operation, event.State)
		c.metrics.UpdateState(event.Operation, event.State)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
