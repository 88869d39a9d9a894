// Package handler contains the HTTP handlers for the kioskwatch API.
package handler

import (
	"net/http"
	"time"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	startedAt time.Time
	network   string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(network string) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now().UTC(),
		network:   network,
	}
}

// HealthCheck responds with service status and uptime.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"network": h.network,
		"uptime":  time.Since(h.startedAt).String(),
	})
}
