package server

import (
	"context"
	"net/http"
	"time"
)

// handleHealth handles GET /health with a storage connectivity check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.favs.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":         "error",
			"database":       "disconnected",
			"topologyCached": s.topo.Cached(),
			"timestamp":      time.Now().UTC(),
			"error":          err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"database":       "connected",
		"topologyCached": s.topo.Cached(),
		"timestamp":      time.Now().UTC(),
	})
}
