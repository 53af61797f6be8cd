package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthCheck is the payload for the health endpoints.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type HealthChecker struct {
	pool    *pgxpool.Pool
	version string
}

func NewHealthChecker(pool *pgxpool.Pool, version string) *HealthChecker {
	return &HealthChecker{pool: pool, version: version}
}

// Health handles GET /healthz. Process liveness only, no dependency
// checks, so a database outage does not get the process restarted.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, HealthCheck{
			Status:    "healthy",
			Version:   h.version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Ready handles GET /readyz and verifies the database is reachable.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database": h.checkDatabase(ctx),
		}

		status := "healthy"
		statusCode := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		writeHealth(w, statusCode, HealthCheck{
			Status:    status,
			Version:   h.version,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.pool == nil {
		return CheckResult{Status: "fail", Message: "pool not configured"}
	}

	start := time.Now()
	if err := h.pool.Ping(ctx); err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}
	return CheckResult{
		Status:    "pass",
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func writeHealth(w http.ResponseWriter, statusCode int, payload HealthCheck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
