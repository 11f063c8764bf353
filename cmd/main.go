package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angeloszaimis/student-service/config"
	"github.com/angeloszaimis/student-service/internal/circuitbreaker"
	"github.com/angeloszaimis/student-service/internal/handler"
	"github.com/angeloszaimis/student-service/internal/httpserver"
	"github.com/angeloszaimis/student-service/internal/metrics"
	"github.com/angeloszaimis/student-service/internal/service"
	"github.com/angeloszaimis/student-service/internal/student"
	"github.com/angeloszaimis/student-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.AddSource, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metricsCollector := metrics.NewCollector(cfg.Metrics.BufferSize, log, promRegistry)
	metricsCollector.Start(ctx)

	store, err := student.NewStore(student.Seed()...)
	if err != nil {
		log.Error("Failed to build student store", slog.Any("err", err))
		os.Exit(1)
	}

	policy := buildPolicy(cfg.CircuitBreaker, service.StateChangeHook(log, metricsCollector))
	breakers := circuitbreaker.NewRegistry(policy, circuitbreaker.FactoryFor(cfg.CircuitBreaker.Engine))

	studentService := service.NewStudentService(log, store, breakers, metricsCollector)
	studentHandler := handler.NewStudentHandler(log, studentService)

	router := setupRouter(log, cfg, studentHandler, breakers, metricsCollector, promRegistry)

	srv, err := httpserver.New(cfg.Server.Address, router)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("Student service listening",
		slog.String("addr", srv.Addr()),
		slog.String("engine", cfg.CircuitBreaker.Engine),
		slog.Int("students", store.Len()))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting student service", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// buildPolicy applies the configured window sizes to the fixed default
// thresholds.
func buildPolicy(cfg config.CircuitBreakerConfig, onStateChange func(name string, from, to circuitbreaker.State)) circuitbreaker.Policy {
	policy := circuitbreaker.DefaultPolicy()

	policy.SlidingWindowSize = cfg.SlidingWindowSize
	policy.MinimumNumberOfCalls = cfg.MinimumNumberOfCalls
	policy.WaitDurationInOpenState = cfg.WaitDuration()
	policy.PermittedCallsInHalfOpenState = cfg.PermittedCallsInHalfOpenState
	policy.OnStateChange = onStateChange

	return policy
}
