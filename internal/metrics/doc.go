// Package metrics collects outcome metrics for circuit-breaker-guarded
// operations.
//
// It uses a channel-based event pipeline to asynchronously collect, per
// operation:
//   - Call counts by outcome (success, failure, timeout, rejected)
//   - Slow calls and fallbacks served
//   - Call durations with percentile calculations (P50, P95, P99)
//   - Current breaker state and transition counts
//
// Every event also updates Prometheus collectors registered on the
// prometheus.Registerer handed to NewCollector.
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are sent via a buffered channel with
// non-blocking semantics, see Collector.Emit.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger, prometheus.NewRegistry())
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:      metrics.EventCallSucceeded,
//		Operation: "getStudentById",
//		Duration:  150 * time.Millisecond,
//	})
//
//	snapshot := collector.Snapshot()
//
// The package provides thread-safe metrics storage using sync.RWMutex and
// supports graceful shutdown with event draining to prevent data loss.
package metrics
