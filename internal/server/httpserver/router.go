package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// HealthFunc reports extra fields for the /health response.
type HealthFunc func() map[string]any

// RouterConfig holds configuration for the ops router.
type RouterConfig struct {
	// Metrics is the registry exposed at /metrics. Nil disables the route.
	Metrics *metric.Registry

	// Health adds fields to the /health body.
	Health HealthFunc

	// Logger for access and panic logs.
	Logger *slog.Logger
}

// NewRouter builds the ops handler with its middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = &RouterConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		if cfg.Health != nil {
			for k, v := range cfg.Health() {
				body[k] = v
			}
		}
		body["status"] = "healthy"
		body["time"] = time.Now().UTC().Format(time.RFC3339)
		writeJSON(w, logger, http.StatusOK, body)
	})

	return Chain(mux, Recover(logger), RequestID(), AccessLog(logger))
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
