package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"marketpulse/pkg/logger"
)

// CheckFunc pings one dependency.
type CheckFunc func(ctx context.Context) error

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	checks      map[string]CheckFunc
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler. Checks is keyed by component name
// (postgres, clickhouse, redis).
func New(log *logger.Logger, checks map[string]CheckFunc, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		checks:      checks,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if service is ready to accept traffic. Any failing
// dependency fails readiness.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, healthy, total := h.runChecks(ctx)

	status := h.status(checks)
	statusCode := http.StatusOK
	if healthy < total {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

// HandleHealth returns detailed health status. A partially degraded service
// still answers 200 so dashboards can see which component is down.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks, healthy, total := h.runChecks(ctx)

	status := h.status(checks)
	statusCode := http.StatusOK
	if healthy == 0 && total > 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if healthy < total {
		status.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) runChecks(ctx context.Context) (map[string]ComponentHealth, int, int) {
	checks := make(map[string]ComponentHealth, len(h.checks))
	healthy := 0

	for name, check := range h.checks {
		start := time.Now()
		err := check(ctx)
		elapsed := time.Since(start)

		if err != nil {
			h.log.Error("Health check failed", "component", name, "error", err, "elapsed", elapsed)
			checks[name] = ComponentHealth{
				Status:       "unhealthy",
				ResponseTime: elapsed.String(),
				Error:        err.Error(),
			}
			continue
		}

		checks[name] = ComponentHealth{
			Status:       "healthy",
			ResponseTime: elapsed.String(),
		}
		healthy++
	}

	return checks, healthy, len(h.checks)
}

func (h *Handler) status(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}
