package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/folio/internal/scheduler"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "folio",
	}

	if s.clientDataDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.clientDataDB.HealthCheck(ctx); err != nil {
			s.log.Error().Err(err).Msg("Health check failed")
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
			response["error"] = err.Error()
		} else if stats, err := s.clientDataDB.Stats(ctx); err == nil {
			response["database"] = stats
		}
	}

	s.writeJSON(w, status, response)
}

// handleJobsStatus handles GET /api/system/jobs
func (s *Server) handleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.Status{}
	if s.scheduler != nil {
		jobs = s.scheduler.Jobs()
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": jobs,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// handleRunJob handles POST /api/system/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := s.job(name)
	if !ok || s.scheduler == nil {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	if err := s.scheduler.RunNow(job); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, "job failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"job":    name,
			"status": "completed",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
