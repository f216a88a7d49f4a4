package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store   Pinger
	backend Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. backend may be nil.
func NewHealthHandler(store, backend Pinger) *HealthHandler {
	return &HealthHandler{store: store, backend: backend, timeout: 5 * time.Second}
}

// Health returns the health status of the API and its dependencies. An
// unreachable tool backend degrades the status; an unreachable database fails it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := "healthy"
	statusCode := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		slog.Error("Health check failed", "dependency", "database", "error", err)
		checks["database"] = "unreachable"
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.backend != nil {
		if err := h.backend.Ping(ctx); err != nil {
			slog.Warn("Health check degraded", "dependency", "tool_backend", "error", err)
			checks["tool_backend"] = "unreachable"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["tool_backend"] = "ok"
		}
	}

	JSON(w, statusCode, map[string]any{"status": status, "checks": checks})
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}
