package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/nopgate/twocheckout/infra/response"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db                *sql.DB
	openSearchEnabled bool
	startTime         time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	Uptime            string    `json:"uptime"`
	Database          string    `json:"database"`
	OpenSearchEnabled bool      `json:"opensearchEnabled"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, openSearchEnabled bool) *HealthHandler {
	return &HealthHandler{
		db:                db,
		openSearchEnabled: openSearchEnabled,
		startTime:         time.Now(),
	}
}

// Check reports service health including database connectivity
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:            "ok",
		Timestamp:         time.Now().UTC(),
		Uptime:            time.Since(h.startTime).Round(time.Second).String(),
		Database:          "connected",
		OpenSearchEnabled: h.openSearchEnabled,
	}

	statusCode := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		statusCode = http.StatusServiceUnavailable
	}

	response.Success(w, statusCode, "Service health", status)
}
