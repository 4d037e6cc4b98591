package server

import (
	"context"
	"net/http"
	"time"
)

// healthTimeout bounds the database checks of /health
const healthTimeout = 5 * time.Second

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	databases := make(map[string]string)
	healthy := true
	for _, db := range s.systemHandlers.databases {
		if err := db.HealthCheck(ctx); err != nil {
			s.log.Warn().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			databases[db.Name()] = err.Error()
			healthy = false
			continue
		}
		databases[db.Name()] = "ok"
	}

	status := http.StatusOK
	response := map[string]interface{}{
		"status":    "healthy",
		"version":   "1.0.0",
		"service":   "meterwatch",
		"databases": databases,
	}
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}

	writeJSON(w, status, response, s.log)
}
