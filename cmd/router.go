package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angeloszaimis/student-service/config"
	"github.com/angeloszaimis/student-service/internal/circuitbreaker"
	"github.com/angeloszaimis/student-service/internal/handler"
	"github.com/angeloszaimis/student-service/internal/metrics"
)

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	studentHandler *handler.StudentHandler,
	registry *circuitbreaker.Registry,
	metricsCollector *metrics.Collector,
	gatherer prometheus.Gatherer,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /students", studentHandler.ListStudents)
	mux.HandleFunc("GET /students/{id}", studentHandler.GetStudent)
	mux.HandleFunc("GET /students/delay/{seconds}", studentHandler.ListStudentsWithDelay)
	mux.HandleFunc("GET /config", handler.Config(log, cfg.Datasource.URL))

	mux.HandleFunc("GET /circuitbreakers", handler.CircuitBreakers(log, registry))
	mux.HandleFunc("GET /stats", metricsCollector.Handler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", handler.Health(log))

	return handler.Chain(
		handler.Recovery(log),
		handler.RequestID(),
		handler.Logging(log),
		handler.RateLimit(log, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	)(mux)
}
