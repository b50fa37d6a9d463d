package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/newswatch/internal/scheduler"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "newswatch",
	}

	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("Cache health check failed")
			response["status"] = "unhealthy"
			response["error"] = err.Error()
			s.writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleStatus returns the scheduler state, cadence and last cycle report
// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "Scheduler not configured",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, s.scheduler.Status())
}

// handleRunCycle runs one cycle immediately and returns its report
// POST /api/cycles/run
func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "Scheduler not configured",
		})
		return
	}

	s.log.Info().Msg("Manual cycle triggered")

	// The cycle finishes even if the client goes away
	report, err := s.scheduler.RunNow(context.WithoutCancel(r.Context()))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrCycleInProgress) {
			status = http.StatusConflict
		}
		s.log.Warn().Err(err).Msg("Manual cycle rejected")
		s.writeJSON(w, status, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"summary": report.String(),
		"report":  report,
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
