package api

import (
	"net/http"
	"time"
)

// handleHealthCheck reports overall service health.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReadiness reports whether the server can take traffic. The
// simulation endpoints work without a store, so a missing leaderboard
// degrades the report but still returns 200: the server takes traffic.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	if s.db == nil {
		status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   Version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleLiveness is a trivial liveness probe.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "alive",
		Version:   Version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleVersion returns build version information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}
