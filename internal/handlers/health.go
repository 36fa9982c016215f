package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"file-dashboard/internal/logging"
	"file-dashboard/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"

	healthCheckTimeout = 2 * time.Second
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Syncing  bool   `json:"syncing"`
	LastSync string `json:"lastSync,omitempty"`

	LastSyncIndexed    int    `json:"lastSyncIndexed"`
	LastSyncPruned     int64  `json:"lastSyncPruned"`
	LastSyncIncomplete bool   `json:"lastSyncIncomplete,omitempty"`
	LastSyncError      string `json:"lastSyncError,omitempty"`
	DatabaseError      string `json:"databaseError,omitempty"`

	// Catalog summary
	TotalFiles   int64 `json:"totalFiles"`
	TotalBytes   int64 `json:"totalBytes"`
	TotalTags    int64 `json:"totalTags"`
	Associations int64 `json:"tagAssignments"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports database reachability, catalog size and the outcome
// of the last sync. It returns 503 only when the database is unreachable.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Syncing:      h.indexer.IsSyncing(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	result, syncErr := h.indexer.LastResult()
	response.LastSyncIndexed = result.Indexed
	response.LastSyncPruned = result.Pruned
	response.LastSyncIncomplete = result.Incomplete
	if syncErr != nil {
		response.LastSyncError = syncErr.Error()
		response.Status = statusDegraded
	} else if result.Incomplete {
		response.Status = statusDegraded
	}

	if last, err := h.db.GetLastSync(ctx); err == nil && !last.IsZero() {
		response.LastSync = last.UTC().Format(time.RFC3339)
	}

	statusCode := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		logging.Warn("health check: database ping failed: %v", err)
		response.DatabaseError = err.Error()
		response.Status = statusUnhealthy
		statusCode = http.StatusServiceUnavailable
	} else if stats, err := h.db.Stats(ctx); err == nil {
		response.TotalFiles = stats.Files
		response.TotalBytes = stats.Bytes
		response.TotalTags = stats.Tags
		response.Associations = stats.Associations
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(statusCode)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONStatus(w, "alive")
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
