package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/student-service/internal/circuitbreaker"
)

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", slog.Any("err", err))
	}
}

func writeText(w http.ResponseWriter, logger *slog.Logger, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)

	if _, err := w.Write([]byte(body)); err != nil {
		logger.Error("Failed to write response", slog.Any("err", err))
	}
}

// Config answers GET /config with the configured datasource URL.
func Config(logger *slog.Logger, datasourceURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeText(w, logger, http.StatusOK, "Datasource URL: "+datasourceURL)
	}
}

// CircuitBreakers answers GET /circuitbreakers with the state and counts of
// every breaker created so far.
func CircuitBreakers(logger *slog.Logger, registry *circuitbreaker.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, registry.Snapshot())
	}
}

func Health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeText(w, logger, http.StatusOK, "OK")
	}
}
